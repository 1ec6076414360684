package engine

import (
	"strings"
	"time"

	"github.com/mockzfs/zfsmock/internal/hostfs"
	"github.com/mockzfs/zfsmock/internal/i18n"
)

// MaxArchiveFileSize bounds how large a single regular file's content the
// archive component will capture, per spec.md §4.8.
const MaxArchiveFileSize = 1 << 20

// ArchiveNode is one entry of a captured filesystem subtree: a regular
// file's content, a symlink's target, or a directory's children. It is the
// value a Dataset's fscontent field points at once captured by Snapshot.
type ArchiveNode struct {
	name string
	typ  hostfs.FileType
	mode uint32

	data     []byte
	target   string
	children []*ArchiveNode

	mtime time.Time
	atime time.Time
}

// Archive captures the subtree rooted at path on fs into an in-memory
// ArchiveNode tree. fs must be a mock filesystem: archiving a real kernel
// filesystem is refused outright, matching spec.md's restriction that the
// archive component only ever operates on the in-memory host tree. The
// walk refuses to cross a registered mount point, leaving a placeholder
// directory node in its place.
func (e *Engine) Archive(path string) (*ArchiveNode, error) {
	if !e.fs.IsMock() {
		return nil, newErr(InvalidFileTypeError, i18n.G("cannot archive %q: host filesystem is not a mock"), path)
	}
	return e.archiveWalk(path, path)
}

// archiveIfPresent captures path's content if something has actually been
// written into the mock host filesystem at path, and reports no content (not
// an error) for a mountpoint nothing has ever materialized there yet.
func (e *Engine) archiveIfPresent(path string) (*ArchiveNode, error) {
	if _, err := e.fs.Lstat(path); err != nil {
		return nil, nil
	}
	return e.Archive(path)
}

func (e *Engine) archiveWalk(root, path string) (*ArchiveNode, error) {
	info, err := e.fs.Lstat(path)
	if err != nil {
		return nil, newErr(InvalidFileTypeError, i18n.G("cannot archive %q: %v"), path, err)
	}
	node := &ArchiveNode{
		name:  baseName(path),
		typ:   info.Type,
		mode:  info.Mode,
		mtime: info.Mtime,
		atime: info.Atime,
	}
	switch info.Type {
	case hostfs.TypeRegular:
		if info.Size > MaxArchiveFileSize {
			return nil, newErr(InvalidFileTypeError, i18n.G("cannot archive %q: file exceeds maximum archivable size of %d bytes"), path, MaxArchiveFileSize)
		}
		data, err := e.fs.ReadFile(path)
		if err != nil {
			return nil, newErr(InvalidFileTypeError, i18n.G("cannot archive %q: %v"), path, err)
		}
		node.data = data
	case hostfs.TypeSymlink:
		target, err := e.fs.Readlink(path)
		if err != nil {
			return nil, newErr(InvalidFileTypeError, i18n.G("cannot archive %q: %v"), path, err)
		}
		node.target = target
	case hostfs.TypeDir:
		if path != root && e.isMountPoint(path) {
			// A nested mount point is recorded as an empty directory
			// placeholder; its own contents belong to the mounted dataset.
			return node, nil
		}
		names, err := e.fs.ReadDir(path)
		if err != nil {
			return nil, newErr(InvalidFileTypeError, i18n.G("cannot archive %q: %v"), path, err)
		}
		for _, name := range names {
			child, err := e.archiveWalk(root, joinPath(path, name))
			if err != nil {
				return nil, err
			}
			node.children = append(node.children, child)
		}
	default:
		return nil, newErr(InvalidFileTypeError, i18n.G("cannot archive %q: unsupported file type"), path)
	}
	return node, nil
}

// Restore recreates an archived subtree under base, creating base as a
// directory if it does not exist yet. It refuses to write through a
// registered mount point beneath base.
func (e *Engine) Restore(base string, tree *ArchiveNode) error {
	if !e.fs.IsMock() {
		return newErr(InvalidFileTypeError, i18n.G("cannot restore %q: host filesystem is not a mock"), base)
	}
	return e.restoreWalk(base, base, tree)
}

func (e *Engine) restoreWalk(root, path string, n *ArchiveNode) error {
	switch n.typ {
	case hostfs.TypeRegular:
		if err := e.fs.WriteFile(path, n.data, n.mode); err != nil {
			return newErr(InvalidFileTypeError, i18n.G("cannot restore %q: %v"), path, err)
		}
	case hostfs.TypeSymlink:
		if err := e.fs.Symlink(n.target, path); err != nil {
			return newErr(InvalidFileTypeError, i18n.G("cannot restore %q: %v"), path, err)
		}
	case hostfs.TypeDir:
		if path != root && e.isMountPoint(path) {
			return nil
		}
		if _, err := e.fs.Lstat(path); err != nil {
			if err := e.fs.Mkdir(path, n.mode); err != nil {
				return newErr(InvalidFileTypeError, i18n.G("cannot restore %q: %v"), path, err)
			}
		}
		for _, child := range n.children {
			if err := e.restoreWalk(root, joinPath(path, child.name), child); err != nil {
				return err
			}
		}
	default:
		return newErr(InvalidFileTypeError, i18n.G("cannot restore %q: unsupported file type"), path)
	}
	if err := e.fs.Utimes(path, n.atime, n.mtime); err != nil {
		return newErr(InvalidFileTypeError, i18n.G("cannot restore %q: %v"), path, err)
	}
	return nil
}

// ClearDir removes every entry directly under dir, without crossing any
// registered mount point found among them, in preparation for a Restore
// onto a rolled-back or cloned dataset's mountpoint. A dir nothing has ever
// materialized yet (a mountpoint no content was ever written under) is
// already clear; Restore creates it as needed.
func (e *Engine) ClearDir(dir string) error {
	if !e.fs.IsMock() {
		return newErr(InvalidFileTypeError, i18n.G("cannot clear %q: host filesystem is not a mock"), dir)
	}
	names, err := e.fs.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, name := range names {
		p := joinPath(dir, name)
		if e.isMountPoint(p) {
			continue
		}
		if err := e.removeAll(p); err != nil {
			return newErr(InvalidFileTypeError, i18n.G("cannot clear %q: %v"), dir, err)
		}
	}
	return nil
}

func (e *Engine) removeAll(path string) error {
	info, err := e.fs.Lstat(path)
	if err != nil {
		return err
	}
	if info.Type == hostfs.TypeDir {
		names, err := e.fs.ReadDir(path)
		if err != nil {
			return err
		}
		for _, name := range names {
			child := joinPath(path, name)
			if e.isMountPoint(child) {
				continue
			}
			if err := e.removeAll(child); err != nil {
				return err
			}
		}
		return e.fs.Rmdir(path)
	}
	return e.fs.Unlink(path)
}

func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return strings.TrimRight(dir, "/") + "/" + name
}
