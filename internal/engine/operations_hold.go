package engine

import (
	"fmt"

	"github.com/mockzfs/zfsmock/internal/i18n"
)

// holdOpts mirrors spec.md §4.7's hold/release `opts`.
type holdOpts struct {
	recursive bool
}

// HoldOption configures a Hold or Release call.
type HoldOption func(*holdOpts)

// WithRecursive extends a hold/release to every same-named snapshot under
// d's parent filesystem or volume.
func WithRecursive() HoldOption {
	return func(o *holdOpts) { o.recursive = true }
}

// sameNamedSnapshots returns every snapshot under d's parent sharing d's
// name, in iteration order, including d itself.
func sameNamedSnapshots(d *Dataset) ([]*Dataset, error) {
	all, err := d.parent.iterDescendants(IterSnapshot)
	if err != nil {
		return nil, err
	}
	var out []*Dataset
	for _, t := range all {
		if t.name == d.name {
			out = append(out, t)
		}
	}
	return out, nil
}

// Hold adds a named hold tag to a snapshot, preventing it from being
// destroyed until every tag placed on it is released. With WithRecursive,
// the tag is added to every same-named snapshot under d's parent
// filesystem/volume via two-phase descent: a collision on any target
// aborts the whole operation before any tag is added.
func (d *Dataset) Hold(tag string, opts ...HoldOption) error {
	e := d.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if d.kind != KindSnapshot {
		return newErr(DatasetTypeError, i18n.G("cannot hold %q: not a snapshot"), d.FullName())
	}
	if err := d.checkActive(); err != nil {
		return err
	}
	if err := namecheck(tag); err != nil {
		return err
	}

	var o holdOpts
	for _, opt := range opts {
		opt(&o)
	}
	if !o.recursive {
		if _, exists := d.holds[tag]; exists {
			return newErr(DatasetExistsError, i18n.G("cannot hold %q: tag %q already exists"), d.FullName(), tag)
		}
		d.holds[tag] = struct{}{}
		return nil
	}

	targets, err := sameNamedSnapshots(d)
	if err != nil {
		return err
	}
	return twoPhaseWalk(targets,
		func(t *Dataset) error {
			if _, exists := t.holds[tag]; exists {
				return newErr(DatasetExistsError, i18n.G("cannot hold %q: tag %q already exists"), t.FullName(), tag)
			}
			return nil
		},
		func(t *Dataset) error {
			t.holds[tag] = struct{}{}
			return nil
		},
	)
}

// Release removes a hold tag from a snapshot. With WithRecursive, it is
// removed from every same-named snapshot under d's parent filesystem/volume.
// Preserved per the original source: a missing tag in the non-recursive
// path is a normal error, but in the recursive path it is checked only in
// the do-phase, where it panics rather than returning an error — this is
// a known quirk carried over verbatim, not fixed here.
func (d *Dataset) Release(tag string, opts ...HoldOption) error {
	e := d.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if d.kind != KindSnapshot {
		return newErr(DatasetTypeError, i18n.G("cannot release %q: not a snapshot"), d.FullName())
	}
	if err := d.checkActive(); err != nil {
		return err
	}

	var o holdOpts
	for _, opt := range opts {
		opt(&o)
	}
	if !o.recursive {
		if _, exists := d.holds[tag]; !exists {
			return newErr(InvalidArgumentError, i18n.G("cannot release %q: no such tag %q"), d.FullName(), tag)
		}
		delete(d.holds, tag)
		return nil
	}

	targets, err := sameNamedSnapshots(d)
	if err != nil {
		return err
	}
	return twoPhaseWalk(targets,
		func(t *Dataset) error { return nil },
		func(t *Dataset) error {
			if _, exists := t.holds[tag]; !exists {
				panic(fmt.Sprintf("release: tag %q not present on %q", tag, t.FullName()))
			}
			delete(t.holds, tag)
			return nil
		},
	)
}
