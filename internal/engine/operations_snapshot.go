package engine

import (
	"time"

	"github.com/mockzfs/zfsmock/internal/i18n"
)

// Snapshot creates a single snapshot named name under d, which must be an
// active filesystem or volume. If d is mounted, its current file content is
// captured into the new snapshot's fscontent.
func (d *Dataset) Snapshot(name string) (*Dataset, error) {
	e := d.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotOne(d, name)
}

// SnapshotRecursive snapshots d and every filesystem/volume descendant
// under the same name, atomically: either every target succeeds or none
// does, and every resulting snapshot shares one createtxg.
func (d *Dataset) SnapshotRecursive(name string) ([]*Dataset, error) {
	e := d.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := namecheck(name); err != nil {
		return nil, err
	}
	targets, err := d.iterDescendants(IterFilesystem, IterVolume)
	if err != nil {
		return nil, err
	}

	check := func(t *Dataset) error {
		if err := t.checkActive(); err != nil {
			return err
		}
		if _, exists := t.snapshots.get(name); exists {
			return newErr(DatasetExistsError, i18n.G("cannot create snapshot %q: dataset already exists"), t.FullName()+"@"+name)
		}
		return nil
	}

	var out []*Dataset
	closePending := e.beginPendingTxg()
	defer closePending()
	do := func(t *Dataset) error {
		snap, err := e.snapshotOne(t, name)
		if err != nil {
			return err
		}
		out = append(out, snap)
		return nil
	}
	if err := twoPhaseWalk(targets, check, do); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) snapshotOne(d *Dataset, name string) (*Dataset, error) {
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	if d.kind == KindSnapshot {
		return nil, newErr(DatasetTypeError, i18n.G("cannot snapshot %q: already a snapshot"), d.FullName())
	}
	if err := namecheck(name); err != nil {
		return nil, err
	}
	if _, exists := d.snapshots.get(name); exists {
		return nil, newErr(DatasetExistsError, i18n.G("cannot create snapshot %q: dataset already exists"), d.FullName()+"@"+name)
	}

	snap := &Dataset{
		engine:    e,
		name:      name,
		parent:    d,
		kind:      KindSnapshot,
		state:     StateCreating,
		local:     map[string]string{},
		creation:  time.Now(),
		createTxg: e.nextTxg(),
		guid:      e.guidGen(),
		holds:     map[string]struct{}{},
	}

	if d.kind == KindFilesystem {
		switch {
		case d.fscontent != nil:
			snap.fscontent = d.fscontent
		case d.mounted:
			if mp, ok := d.computeMountpoint(); ok && mp != "" && mp != "none" && mp != "legacy" {
				tree, err := e.archiveIfPresent(mp)
				if err != nil {
					return nil, err
				}
				snap.fscontent = tree
			}
		}
	}

	d.snapshots.add(name, snap)
	snap.state = StateActive
	return snap, nil
}
