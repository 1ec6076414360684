package engine

import "github.com/mockzfs/zfsmock/internal/i18n"

// IterType selects which variants iterDescendants visits.
type IterType int

// Iteration type selectors, per spec.md §4.6.
const (
	IterFilesystem IterType = iota
	IterVolume
	IterSnapshot
	IterClones
	IterAll
)

func expandTypes(types []IterType) (map[IterType]bool, error) {
	set := map[IterType]bool{}
	for _, t := range types {
		set[t] = true
	}
	if set[IterAll] {
		set[IterFilesystem] = true
		set[IterVolume] = true
		set[IterSnapshot] = true
	}
	if set[IterClones] && !set[IterFilesystem] && !set[IterVolume] && !set[IterSnapshot] {
		return nil, newErr(InvalidArgumentError, i18n.G("iteration types must include at least one dataset type alongside 'clones'"))
	}
	return set, nil
}

func (k DatasetKind) matches(set map[IterType]bool) bool {
	switch k {
	case KindFilesystem:
		return set[IterFilesystem]
	case KindVolume:
		return set[IterVolume]
	case KindSnapshot:
		return set[IterSnapshot]
	}
	return false
}

// IterDescendants yields descendants of d in deterministic pre-order: self
// (if it matches the type filter) before descendants; within a node, all
// snapshots (and, when types includes IterClones, their descendant clones
// transitively) before child filesystems/volumes and their own descendants.
// A visited set prevents infinite loops when a clone's descendants circle
// back into its origin chain.
func (d *Dataset) IterDescendants(types ...IterType) ([]*Dataset, error) {
	d.engine.mu.Lock()
	defer d.engine.mu.Unlock()
	return d.iterDescendants(types...)
}

func (d *Dataset) iterDescendants(types ...IterType) ([]*Dataset, error) {
	set, err := expandTypes(types)
	if err != nil {
		return nil, err
	}
	visited := map[*Dataset]bool{}
	var out []*Dataset
	walkIter(d, set, visited, &out)
	return out, nil
}

func walkIter(d *Dataset, set map[IterType]bool, visited map[*Dataset]bool, out *[]*Dataset) {
	if visited[d] {
		return
	}
	visited[d] = true
	if d.kind.matches(set) {
		*out = append(*out, d)
	}

	if d.kind == KindSnapshot {
		if set[IterClones] {
			for _, c := range d.clones {
				walkIter(c, set, visited, out)
			}
		}
		return
	}

	if d.snapshots != nil {
		for _, s := range d.snapshots.values() {
			walkIter(s, set, visited, out)
		}
	}
	if d.children != nil {
		for _, c := range d.children.values() {
			walkIter(c, set, visited, out)
		}
	}
}

// collectPreOrder appends d and all of its descendants (filesystem, volume,
// and snapshot, following clone edges too) in pre-order to out. Used by
// DestroyPool, which must reach every dataset regardless of filter.
func collectPreOrder(d *Dataset, out *[]*Dataset) {
	visited := map[*Dataset]bool{}
	var walk func(*Dataset)
	walk = func(n *Dataset) {
		if visited[n] {
			return
		}
		visited[n] = true
		*out = append(*out, n)
		if n.kind == KindSnapshot {
			for _, c := range n.clones {
				walk(c)
			}
			return
		}
		if n.snapshots != nil {
			for _, s := range n.snapshots.values() {
				walk(s)
			}
		}
		if n.children != nil {
			for _, c := range n.children.values() {
				walk(c)
			}
		}
	}
	walk(d)
}

// twoPhaseWalk implements the check-then-do descent of spec.md §4.5: every
// target is checked for a precondition violation before any mutation is
// performed, guaranteeing all-or-nothing semantics without rollback logic.
func twoPhaseWalk(targets []*Dataset, check func(*Dataset) error, do func(*Dataset) error) error {
	for _, t := range targets {
		if err := check(t); err != nil {
			return err
		}
	}
	for _, t := range targets {
		if err := do(t); err != nil {
			return err
		}
	}
	return nil
}
