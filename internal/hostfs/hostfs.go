// Package hostfs defines the small capability surface the engine's archive
// component consumes from a host filesystem, and the sentinel the engine
// uses to refuse operating on anything that isn't a mock.
//
// This mirrors the split between internal/zfs/libzfs (real backend) and
// internal/zfs/libzfs/mock (in-memory backend) in the teacher repo: the
// engine only ever depends on the FS interface, never on a concrete
// implementation.
package hostfs

import "time"

// FileType enumerates the node kinds Lstat can report.
type FileType int

// Node kinds recognized by the archive component.
const (
	TypeRegular FileType = iota
	TypeDir
	TypeSymlink
	TypeOther
)

// Info is the subset of file metadata the archive component round-trips:
// mode bits, size, and the two timestamps it preserves.
type Info struct {
	Type  FileType
	Mode  uint32
	Size  int64
	Mtime time.Time
	Atime time.Time
}

// FS is the capability set the engine's Archive/Restore/ClearDir operations
// require from a host filesystem. A real implementation and a mock,
// in-memory implementation are provided; the engine only ever talks to this
// interface, and the mock test suite only ever constructs the in-memory one.
type FS interface {
	// IsMock reports whether this filesystem identifies as a mock FS. The
	// engine refuses to archive/restore/clear any path on a non-mock FS,
	// standing in for the real mock's stat.dev == 8675309 compatibility
	// check (Go has no portable way to fabricate a raw device number
	// without an OS-specific syscall dependency, so the check is surfaced
	// directly on the interface instead).
	IsMock() bool

	Lstat(path string) (Info, error)
	ReadFile(path string) ([]byte, error)
	Readlink(path string) (string, error)
	ReadDir(path string) ([]string, error)
	WriteFile(path string, data []byte, mode uint32) error
	Symlink(target, path string) error
	Mkdir(path string, mode uint32) error
	Rmdir(path string) error
	Chmod(path string, mode uint32) error
	Utimes(path string, atime, mtime time.Time) error
	Unlink(path string) error
}
