package engine

import (
	"strings"

	"github.com/mockzfs/zfsmock/internal/i18n"
)

const maxNameLength = 255

// namecheck validates a single name component (not a full dataset path):
// 1-255 bytes, restricted to letters, digits, and "-_.: " (including space).
func namecheck(s string) error {
	if s == "" {
		return newErr(DatasetNameError, i18n.G("empty component or misplaced '@' or '#' delimiter in name"))
	}
	if len(s) > maxNameLength {
		return newErr(DatasetNameError, i18n.G("name %q exceeds maximum length of %d"), s, maxNameLength)
	}
	for _, r := range s {
		if !isNameRune(r) {
			return newErr(DatasetNameError, i18n.G("invalid character %q in name %q"), r, s)
		}
	}
	return nil
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '.' || r == '-' || r == ':' || r == ' ':
		return true
	}
	return false
}

// poolname returns the pool (top-level dataset) name for a string path,
// splitting on the first '/' or '@'.
func poolname(path string) string {
	if i := strings.IndexAny(path, "/@"); i >= 0 {
		return path[:i]
	}
	return path
}

// poolnameOfDataset walks parents from d until reaching the pools root and
// returns the last walked name (i.e. the pool's own name).
func poolnameOfDataset(d *Dataset) string {
	cur := d
	for cur.parent != nil && !cur.parent.isRoot() {
		cur = cur.parent
	}
	return cur.name
}

// splitSnap splits "fs@snap" into ("fs", "snap"); if there is no '@', snap is "".
func splitSnap(s string) (base string, snap string, hasSnap bool) {
	i := strings.IndexByte(s, '@')
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}
