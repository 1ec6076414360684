package engine

import "github.com/mockzfs/zfsmock/internal/i18n"

// Destroy removes d, refusing if it is a filesystem/volume with children or
// snapshots (DescendantError), or a held (SnapshotHoldError) or cloned
// (DependantError) snapshot.
func (d *Dataset) Destroy() error {
	e := d.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyOne(d)
}

// DestroyRecursive removes d and every descendant, atomically: every
// dataset in the subtree is checked for holds and for clones outside the
// subtree before any of them is mutated.
func (d *Dataset) DestroyRecursive() error {
	e := d.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	all, err := d.iterDescendants(IterAll)
	if err != nil {
		return err
	}

	inSet := make(map[*Dataset]bool, len(all))
	for _, t := range all {
		inSet[t] = true
	}

	for _, t := range all {
		if err := t.checkActive(); err != nil {
			return err
		}
		if t.kind == KindSnapshot {
			if len(t.holds) > 0 {
				return newErr(SnapshotHoldError, i18n.G("cannot destroy %q: snapshot is held"), t.FullName())
			}
			for _, c := range t.clones {
				if !inSet[c] {
					return newErr(DependantError, i18n.G("cannot destroy %q: filesystem has dependent clones"), t.FullName())
				}
			}
		}
	}

	for i := len(all) - 1; i >= 0; i-- {
		if err := e.removeDataset(all[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) destroyOne(d *Dataset) error {
	if err := d.checkActive(); err != nil {
		return err
	}
	if d.kind == KindSnapshot {
		if len(d.holds) > 0 {
			return newErr(SnapshotHoldError, i18n.G("cannot destroy %q: snapshot is held"), d.FullName())
		}
		if len(d.clones) > 0 {
			return newErr(DependantError, i18n.G("cannot destroy %q: filesystem has dependent clones"), d.FullName())
		}
	} else if (d.children != nil && d.children.len() > 0) || d.snapshots.len() > 0 {
		return newErr(DescendantError, i18n.G("cannot destroy %q: filesystem has children"), d.FullName())
	}
	return e.removeDataset(d)
}

// removeDataset performs the unconditional mechanics of removal: unmount,
// unlink from its parent collection and, for a clone, from its origin's
// clone list, and mark destroyed.
func (e *Engine) removeDataset(d *Dataset) error {
	if d.mounted {
		_ = e.unmountLocked(d)
	}
	if d.kind == KindSnapshot {
		d.parent.snapshots.remove(d.name)
	} else {
		d.parent.children.remove(d.name)
	}
	if d.origin != nil {
		for i, c := range d.origin.clones {
			if c == d {
				d.origin.clones = append(d.origin.clones[:i], d.origin.clones[i+1:]...)
				break
			}
		}
	}
	d.state = StateDestroyed
	return nil
}
