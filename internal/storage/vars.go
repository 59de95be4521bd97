// Package storage provides fixed-size page I/O over local segment files.
// It is the "external buffer manager's" on-disk half: the zsbtree package
// never touches a file descriptor directly, only a bufferpool.Manager,
// which in turn loads/saves pages through this package.
package storage

import "errors"

const (
	OneKB = 1024
	OneMB = OneKB * 1024
	OneGB = OneMB * 1024

	// PageSize is the fixed block size, matching the teacher's 8KB choice
	// (roughly PostgreSQL-sized).
	PageSize = OneKB * 8

	// SegmentSize bounds how many pages live in one underlying OS file
	// before a new segment is opened, same scheme as the teacher's
	// StorageManager.
	SegmentSize = 1 * OneGB

	// checksumSize is the CRC32 trailer stored alongside (not inside) every
	// on-disk page image.
	checksumSize = 4

	onDiskPageSize = PageSize + checksumSize

	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

var (
	ErrWrongPageSize  = errors.New("storage: page buffer must be exactly PageSize bytes")
	ErrChecksumFailed = errors.New("storage: page checksum mismatch, possible torn write")
)
