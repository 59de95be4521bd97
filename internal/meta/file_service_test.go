package meta

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileService_GetRootMissingReturnsNotOK(t *testing.T) {
	dir := t.TempDir()
	svc, err := Open(dir, "users_id_idx")
	require.NoError(t, err)

	_, ok, err := svc.GetRoot(1, true)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileService_UpdateRootPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	svc, err := Open(dir, "users_id_idx")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateRoot(1, 7))
	require.NoError(t, svc.UpdateRoot(2, 42))

	reopened, err := Open(dir, "users_id_idx")
	require.NoError(t, err)

	root1, ok, err := reopened.GetRoot(1, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(7), root1)

	root2, ok, err := reopened.GetRoot(2, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(42), root2)
}

func TestFileService_OpenOnEmptyDirIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)

	svc, err := Open(dir, "brand_new")
	require.NoError(t, err)
	require.NotNil(t, svc)
}
