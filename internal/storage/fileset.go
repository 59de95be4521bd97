package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSet names the segment files backing one B-tree (one per attribute).
// Segments are opened lazily and are never closed by the StorageManager;
// callers own the lifetime of the underlying *os.File handles they get back.
type FileSet interface {
	OpenSegment(segNo int32) (*os.File, error)
	// Dir and Base identify the file-set for sibling artifacts (the
	// metapage service's JSON file lives next to the segments).
	Dir() string
	Base() string
}

var _ FileSet = (*LocalFileSet)(nil)

// LocalFileSet stores segments as Dir/Base, Dir/Base.1, Dir/Base.2, ...
// Matches internal/storage.LocalFileSet in the teacher repo.
type LocalFileSet struct {
	DirPath  string
	BaseName string
}

func (lfs LocalFileSet) Dir() string  { return lfs.DirPath }
func (lfs LocalFileSet) Base() string { return lfs.BaseName }

func (lfs LocalFileSet) OpenSegment(segNo int32) (*os.File, error) {
	name := lfs.BaseName
	if segNo > 0 {
		name = fmt.Sprintf("%s.%d", lfs.BaseName, segNo)
	}
	if err := os.MkdirAll(lfs.DirPath, FileMode0755); err != nil {
		return nil, err
	}
	path := filepath.Join(lfs.DirPath, name)
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE, FileMode0644)
}
