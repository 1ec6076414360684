package engine

import (
	"time"

	"github.com/mockzfs/zfsmock/internal/i18n"
)

// cloneOpts mirrors spec.md §4.7's clone `opts`.
type cloneOpts struct {
	parents bool
}

// CloneOption configures a Clone call.
type CloneOption func(*cloneOpts)

// WithParents makes Clone create any missing intermediate filesystem
// parents of the target name, the same way clone(opts.parents=true) does.
func WithParents() CloneOption {
	return func(o *cloneOpts) { o.parents = true }
}

// Clone creates a new filesystem or volume at fullname whose origin is the
// snapshot d, inheriting d's owning dataset's kind. If the clone ends up
// mounted, the snapshot's captured content (if any) is restored onto it.
func (d *Dataset) Clone(fullname string, props map[string]string, opts ...CloneOption) (*Dataset, error) {
	e := d.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if d.kind != KindSnapshot {
		return nil, newErr(DatasetTypeError, i18n.G("cannot clone %q: not a snapshot"), d.FullName())
	}
	if err := d.checkActive(); err != nil {
		return nil, err
	}

	var o cloneOpts
	for _, opt := range opts {
		opt(&o)
	}

	// Preserved as found in the original source: this is meant to assert
	// poolname(d) == poolname(fullname), but the comparison target was
	// copy-pasted wrong and compares poolname(fullname) against itself, so
	// the cross-pool check never actually fires. Not fixed here; see
	// spec.md §9.
	if poolname(fullname) != poolname(fullname) {
		return nil, newErr(InvalidArgumentError, i18n.G("cannot clone %q to %q: must be in the same pool"), d.FullName(), fullname)
	}

	parent, name, err := e.resolveParent(fullname, o.parents, false)
	if err != nil {
		return nil, err
	}

	kind := d.parent.kind
	clone := &Dataset{
		engine:    e,
		name:      name,
		parent:    parent,
		kind:      kind,
		state:     StateCreating,
		local:     map[string]string{},
		creation:  time.Now(),
		createTxg: e.nextTxg(),
		guid:      e.guidGen(),
		snapshots: newOrderedSet(),
		origin:    d,
	}
	if kind == KindFilesystem {
		clone.children = newOrderedSet()
	}
	if kind == KindVolume {
		vbs, _, err := d.parent.getInheritableValue("volblocksize")
		if err != nil {
			vbs = "8192"
		}
		if err := clone.setLocalAtCreation("volblocksize", vbs); err != nil {
			return nil, err
		}
	}
	for propName, value := range props {
		if err := clone.setLocalAtCreation(propName, value); err != nil {
			return nil, err
		}
	}

	parent.children.add(name, clone)
	d.clones = append(d.clones, clone)
	clone.state = StateActive

	if kind == KindFilesystem {
		_ = e.mountLocked(clone)
		if clone.mounted && d.fscontent != nil {
			mp, ok := clone.computeMountpoint()
			if ok && mp != "" && mp != "none" && mp != "legacy" {
				if err := e.ClearDir(mp); err != nil {
					return nil, err
				}
				if err := e.Restore(mp, d.fscontent); err != nil {
					return nil, err
				}
			}
		}
	}

	return clone, nil
}
