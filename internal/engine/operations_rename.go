package engine

import (
	"strings"

	"github.com/mockzfs/zfsmock/internal/i18n"
)

// Rename moves or relabels d to newname, which must not already name an
// existing dataset. Two cases, per spec.md §4.7:
//
// Case A — newname contains '@': only valid when d is a snapshot, and only
// when the filesystem/volume prefix equals d's current parent; the
// snapshot is rekeyed within its parent's snapshot collection. The
// original source also carried a second, dead branch attempting to rename
// a snapshot onto a *different* parent in the same step; it was never
// reachable in practice and is not reproduced here.
//
// Case B — plain name: never valid for a snapshot. The pool component may
// not change, the result may not become a top-level dataset, and the new
// parent must already exist (there is no parents=true support for
// rename, unlike clone).
func (d *Dataset) Rename(newname string) error {
	e := d.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renameTo(d, newname)
}

func (e *Engine) renameTo(d *Dataset, newname string) error {
	if err := d.checkActive(); err != nil {
		return err
	}
	if e.get(newname) != nil {
		return newErr(DatasetExistsError, i18n.G("cannot rename %q to %q: dataset already exists"), d.FullName(), newname)
	}

	base, snapName, hasSnap := splitSnap(newname)
	if hasSnap {
		if d.kind != KindSnapshot {
			return newErr(DatasetTypeError, i18n.G("cannot rename %q to %q: not a snapshot"), d.FullName(), newname)
		}
		if err := namecheck(snapName); err != nil {
			return err
		}
		if base != d.parent.FullName() {
			return newErr(InvalidArgumentError, i18n.G("cannot rename %q to %q: snapshot must stay on the same filesystem"), d.FullName(), newname)
		}
		if _, exists := d.parent.snapshots.get(snapName); exists {
			return newErr(DatasetExistsError, i18n.G("cannot rename %q to %q: dataset already exists"), d.FullName(), newname)
		}
		d.parent.snapshots.rekey(d.name, snapName)
		d.name = snapName
		return nil
	}

	if d.kind == KindSnapshot {
		return newErr(DatasetTypeError, i18n.G("cannot rename %q to %q: snapshot rename requires '@'"), d.FullName(), newname)
	}
	parts := splitPathComponents(newname)
	if len(parts) < 2 {
		return newErr(InvalidArgumentError, i18n.G("cannot rename %q to %q: dataset cannot become top-level"), d.FullName(), newname)
	}
	for _, part := range parts {
		if err := namecheck(part); err != nil {
			return err
		}
	}
	if poolname(newname) != poolnameOfDataset(d) {
		return newErr(InvalidArgumentError, i18n.G("cannot rename %q to %q: cannot change pool"), d.FullName(), newname)
	}

	newParent := e.get(strings.Join(parts[:len(parts)-1], "/"))
	if newParent == nil {
		return newErr(DatasetNameError, i18n.G("cannot rename %q to %q: no such parent dataset"), d.FullName(), newname)
	}
	if newParent.kind != KindFilesystem {
		return newErr(DatasetTypeError, i18n.G("cannot rename %q to %q: parent %q is not a filesystem"), d.FullName(), newname, newParent.FullName())
	}
	if err := newParent.checkActive(); err != nil {
		return err
	}
	newLeaf := parts[len(parts)-1]
	if _, exists := newParent.children.get(newLeaf); exists {
		return newErr(DatasetExistsError, i18n.G("cannot rename %q to %q: dataset already exists"), d.FullName(), newname)
	}

	wasMounted := d.kind == KindFilesystem && d.mounted
	if wasMounted {
		if err := e.unmountLocked(d); err != nil {
			return err
		}
	}

	oldParent := d.parent
	oldParent.children.remove(d.name)
	d.parent = newParent
	d.name = newLeaf
	newParent.children.add(newLeaf, d)

	if wasMounted {
		_ = e.mountLocked(d)
	}
	return nil
}
