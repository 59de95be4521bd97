package meta

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/kthorne/colbtree/internal/bufferpool"
)

const (
	metaFileSuffix = ".zsmeta.json"
	metaVersion    = 1
)

// diskMeta is the on-disk JSON shape, one file per table. Grounded on the
// teacher's internal/btree.diskMeta (internal/btree/meta.go), generalized
// from a single Root field to a per-attribute map.
type diskMeta struct {
	Version int                               `json:"version"`
	Roots   map[string]bufferpool.BlockNumber `json:"roots"`
}

var _ Service = (*FileService)(nil)

// FileService persists attno -> root block in "<dir>/<base>.zsmeta.json",
// written atomically (temp file + rename), exactly like the teacher's
// writeFileAtomic/saveMeta pair.
type FileService struct {
	path string

	mu    sync.Mutex // "the metapage latch"
	roots map[int]bufferpool.BlockNumber
}

// Open loads (or lazily creates) the meta file at dir/base+".zsmeta.json".
func Open(dir, base string) (*FileService, error) {
	path := filepath.Join(dir, base+metaFileSuffix)
	s := &FileService{path: path, roots: make(map[int]bufferpool.BlockNumber)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	var dm diskMeta
	if err := json.Unmarshal(data, &dm); err != nil {
		return nil, fmt.Errorf("meta: corrupt meta file %s: %w", path, err)
	}
	for k, v := range dm.Roots {
		var attno int
		if _, err := fmt.Sscanf(k, "%d", &attno); err != nil {
			return nil, fmt.Errorf("meta: bad attno key %q: %w", k, err)
		}
		s.roots[attno] = v
	}
	return s, nil
}

func (s *FileService) Lock()   { s.mu.Lock() }
func (s *FileService) Unlock() { s.mu.Unlock() }

// GetRoot and UpdateRoot assume the caller already holds the metapage
// latch via Lock()/Unlock(); they do not take s.mu themselves, since every
// zsbtree call site needs to read-then-conditionally-write the root under
// one uninterrupted critical section (see zsbtree.Tree.ensureRoot).
func (s *FileService) GetRoot(attno int, createIfMissing bool) (bufferpool.BlockNumber, bool, error) {
	root, ok := s.roots[attno]
	if ok {
		return root, true, nil
	}
	// A missing root is reported as "none" either way: creating the
	// initial leaf page requires the buffer manager, which this service
	// does not have access to. The caller (zsbtree.Tree) is responsible
	// for allocating the leaf and calling UpdateRoot when
	// createIfMissing is true, per spec §7 "Empty tree" policy.
	_ = createIfMissing
	return 0, false, nil
}

func (s *FileService) UpdateRoot(attno int, newRoot bufferpool.BlockNumber) error {
	s.roots[attno] = newRoot
	if err := s.saveLocked(); err != nil {
		return err
	}
	slog.Debug("meta.UpdateRoot", "attno", attno, "root", newRoot)
	return nil
}

func (s *FileService) saveLocked() error {
	dm := diskMeta{Version: metaVersion, Roots: make(map[string]bufferpool.BlockNumber, len(s.roots))}
	for attno, root := range s.roots {
		dm.Roots[fmt.Sprintf("%d", attno)] = root
	}

	data, err := json.MarshalIndent(&dm, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data, 0o644)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	ok := false
	defer func() {
		_ = tmp.Close()
		if !ok {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("meta: atomic rename: %w", err)
	}
	ok = true
	return nil
}
