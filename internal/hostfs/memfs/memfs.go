// Package memfs is a complete in-memory implementation of hostfs.FS, used by
// the engine's own test suite and by the demo CLI in place of a real kernel
// filesystem.
package memfs

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/mockzfs/zfsmock/internal/hostfs"
)

type node struct {
	typ      hostfs.FileType
	mode     uint32
	data     []byte
	target   string
	children map[string]*node
	mtime    time.Time
	atime    time.Time
}

// FS is an in-memory tree rooted at "/". It identifies itself as a mock
// filesystem so the engine will operate on it.
type FS struct {
	root *node
}

// New returns an empty in-memory filesystem containing only "/".
func New() *FS {
	return &FS{root: &node{typ: hostfs.TypeDir, mode: 0755, children: map[string]*node{}}}
}

// IsMock always reports true: memfs is the mock the engine requires.
func (f *FS) IsMock() bool { return true }

func clean(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

func split(p string) []string {
	p = clean(p)
	if p == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}

func (f *FS) lookup(p string) (*node, error) {
	parts := split(p)
	cur := f.root
	for i, part := range parts {
		if cur.typ == hostfs.TypeSymlink {
			return nil, fmt.Errorf("memfs: %q: not a directory", strings.Join(parts[:i], "/"))
		}
		if cur.children == nil {
			return nil, fmt.Errorf("memfs: %q: no such file or directory", p)
		}
		next, ok := cur.children[part]
		if !ok {
			return nil, fmt.Errorf("memfs: %q: no such file or directory", p)
		}
		cur = next
	}
	return cur, nil
}

func (f *FS) parentOf(p string) (*node, string, error) {
	parts := split(p)
	if len(parts) == 0 {
		return nil, "", fmt.Errorf("memfs: %q: is root", p)
	}
	parent, err := f.lookup("/" + strings.Join(parts[:len(parts)-1], "/"))
	if err != nil {
		return nil, "", err
	}
	return parent, parts[len(parts)-1], nil
}

func (f *FS) Lstat(p string) (hostfs.Info, error) {
	n, err := f.lookup(p)
	if err != nil {
		return hostfs.Info{}, err
	}
	return hostfs.Info{Type: n.typ, Mode: n.mode, Size: int64(len(n.data)), Mtime: n.mtime, Atime: n.atime}, nil
}

func (f *FS) ReadFile(p string) ([]byte, error) {
	n, err := f.lookup(p)
	if err != nil {
		return nil, err
	}
	if n.typ != hostfs.TypeRegular {
		return nil, fmt.Errorf("memfs: %q: not a regular file", p)
	}
	out := make([]byte, len(n.data))
	copy(out, n.data)
	return out, nil
}

func (f *FS) Readlink(p string) (string, error) {
	n, err := f.lookup(p)
	if err != nil {
		return "", err
	}
	if n.typ != hostfs.TypeSymlink {
		return "", fmt.Errorf("memfs: %q: not a symlink", p)
	}
	return n.target, nil
}

func (f *FS) ReadDir(p string) ([]string, error) {
	n, err := f.lookup(p)
	if err != nil {
		return nil, err
	}
	if n.typ != hostfs.TypeDir {
		return nil, fmt.Errorf("memfs: %q: not a directory", p)
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FS) WriteFile(p string, data []byte, mode uint32) error {
	parent, name, err := f.parentOf(p)
	if err != nil {
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	now := time.Now()
	parent.children[name] = &node{typ: hostfs.TypeRegular, mode: mode, data: cp, mtime: now, atime: now}
	return nil
}

func (f *FS) Symlink(target, p string) error {
	parent, name, err := f.parentOf(p)
	if err != nil {
		return err
	}
	now := time.Now()
	parent.children[name] = &node{typ: hostfs.TypeSymlink, mode: 0777, target: target, mtime: now, atime: now}
	return nil
}

func (f *FS) Mkdir(p string, mode uint32) error {
	parent, name, err := f.parentOf(p)
	if err != nil {
		return err
	}
	if _, exists := parent.children[name]; exists {
		return fmt.Errorf("memfs: %q: already exists", p)
	}
	now := time.Now()
	parent.children[name] = &node{typ: hostfs.TypeDir, mode: mode, children: map[string]*node{}, mtime: now, atime: now}
	return nil
}

func (f *FS) Rmdir(p string) error {
	n, err := f.lookup(p)
	if err != nil {
		return err
	}
	if n.typ != hostfs.TypeDir {
		return fmt.Errorf("memfs: %q: not a directory", p)
	}
	if len(n.children) > 0 {
		return fmt.Errorf("memfs: %q: directory not empty", p)
	}
	return f.unlinkEntry(p)
}

func (f *FS) Chmod(p string, mode uint32) error {
	n, err := f.lookup(p)
	if err != nil {
		return err
	}
	n.mode = mode
	return nil
}

func (f *FS) Utimes(p string, atime, mtime time.Time) error {
	n, err := f.lookup(p)
	if err != nil {
		return err
	}
	n.atime = atime
	n.mtime = mtime
	return nil
}

func (f *FS) Unlink(p string) error { return f.unlinkEntry(p) }

func (f *FS) unlinkEntry(p string) error {
	parent, name, err := f.parentOf(p)
	if err != nil {
		return err
	}
	if _, ok := parent.children[name]; !ok {
		return fmt.Errorf("memfs: %q: no such file or directory", p)
	}
	delete(parent.children, name)
	return nil
}

// MkdirAll creates p and any missing parent directories, mirroring os.MkdirAll.
// It is a test/demo convenience, not part of the hostfs.FS contract.
func (f *FS) MkdirAll(p string, mode uint32) error {
	parts := split(p)
	cur := "/"
	for _, part := range parts {
		cur = clean(cur + "/" + part)
		if _, err := f.lookup(cur); err == nil {
			continue
		}
		if err := f.Mkdir(cur, mode); err != nil {
			return err
		}
	}
	return nil
}
