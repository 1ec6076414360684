package hostfs

import (
	"io/ioutil"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// mockDev is the magic device number a real mock filesystem would report.
// Nothing in this package compares against it: OS and memfs answer the
// mock check through IsMock instead.
const mockDev = 8675309

// OS is a real-filesystem-backed implementation of FS. It is provided for
// completeness; the engine's own test suite always uses memfs.
type OS struct{}

// IsMock always reports false: a real filesystem is, by construction, never
// the mock the engine requires for archive/restore/clear operations.
func (OS) IsMock() bool { return false }

func (OS) Lstat(path string) (Info, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Info{}, err
	}
	var atime time.Time
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		atime = time.Unix(st.Atim.Sec, st.Atim.Nsec)
	}
	typ := TypeRegular
	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		typ = TypeSymlink
	case fi.IsDir():
		typ = TypeDir
	case fi.Mode()&os.ModeType != 0:
		typ = TypeOther
	}
	return Info{
		Type:  typ,
		Mode:  uint32(fi.Mode().Perm()),
		Size:  fi.Size(),
		Mtime: fi.ModTime(),
		Atime: atime,
	}, nil
}

func (OS) ReadFile(path string) ([]byte, error) { return ioutil.ReadFile(path) }

func (OS) Readlink(path string) (string, error) { return os.Readlink(path) }

func (OS) ReadDir(path string) ([]string, error) {
	entries, err := ioutil.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

func (OS) WriteFile(path string, data []byte, mode uint32) error {
	return ioutil.WriteFile(path, data, os.FileMode(mode))
}

func (OS) Symlink(target, path string) error { return os.Symlink(target, path) }

func (OS) Mkdir(path string, mode uint32) error { return os.Mkdir(path, os.FileMode(mode)) }

func (OS) Rmdir(path string) error { return os.Remove(path) }

func (OS) Chmod(path string, mode uint32) error { return os.Chmod(path, os.FileMode(mode)) }

func (OS) Utimes(path string, atime, mtime time.Time) error {
	return os.Chtimes(path, atime, mtime)
}

func (OS) Unlink(path string) error { return os.Remove(path) }

// statDev returns the raw device number for path, used only to illustrate
// the real compatibility check the mock's stat.dev sentinel stands in for.
func statDev(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Dev), nil
}
