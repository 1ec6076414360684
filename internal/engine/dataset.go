// Package engine implements the in-memory dataset object graph: pool and
// dataset creation/destruction, snapshot and clone semantics, hold/release,
// rename, recursive traversal, and the property model. It is the core
// described in spec.md, faithfully emulating the externally observable
// behavior of a copy-on-write, pooled filesystem manager without touching a
// real kernel.
package engine

import (
	"time"

	"github.com/mockzfs/zfsmock/internal/i18n"
)

// DatasetKind is the variant tag of a Dataset.
type DatasetKind uint8

// Dataset variants. kindRoot is an internal sentinel never exposed through
// the public API.
const (
	KindFilesystem DatasetKind = iota
	KindVolume
	KindSnapshot
	kindRoot
)

func (k DatasetKind) String() string {
	switch k {
	case KindFilesystem:
		return "filesystem"
	case KindVolume:
		return "volume"
	case KindSnapshot:
		return "snapshot"
	default:
		return "root"
	}
}

// State is the lifecycle state of a Dataset.
type State uint8

// Lifecycle states, per spec.md §3.
const (
	StateCreating State = iota
	StateActive
	StateDestroyed
	StatePoolDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreating:
		return "creating"
	case StateActive:
		return "active"
	case StateDestroyed:
		return "destroyed"
	default:
		return "pool_destroyed"
	}
}

// orderedSet is an insertion-ordered name -> *Dataset collection, used for
// both a filesystem's children and its snapshots so sibling enumeration is
// deterministic.
type orderedSet struct {
	order []string
	by    map[string]*Dataset
}

func newOrderedSet() *orderedSet {
	return &orderedSet{by: make(map[string]*Dataset)}
}

func (s *orderedSet) get(name string) (*Dataset, bool) {
	d, ok := s.by[name]
	return d, ok
}

func (s *orderedSet) add(name string, d *Dataset) {
	if _, exists := s.by[name]; !exists {
		s.order = append(s.order, name)
	}
	s.by[name] = d
}

func (s *orderedSet) remove(name string) {
	if _, ok := s.by[name]; !ok {
		return
	}
	delete(s.by, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *orderedSet) rekey(oldName, newName string) {
	d, ok := s.by[oldName]
	if !ok {
		return
	}
	delete(s.by, oldName)
	s.by[newName] = d
	for i, n := range s.order {
		if n == oldName {
			s.order[i] = newName
			break
		}
	}
}

// values returns datasets in insertion order.
func (s *orderedSet) values() []*Dataset {
	r := make([]*Dataset, 0, len(s.order))
	for _, n := range s.order {
		r = append(r, s.by[n])
	}
	return r
}

func (s *orderedSet) len() int { return len(s.order) }

// Dataset is the central entity of the engine: a filesystem, volume, or
// snapshot node in the graph.
type Dataset struct {
	engine *Engine

	name      string
	parent    *Dataset
	kind      DatasetKind
	creation  time.Time
	createTxg uint64
	guid      uint64
	local     map[string]string
	state     State
	mounted   bool
	fscontent *ArchiveNode

	// filesystem/volume only
	children  *orderedSet
	snapshots *orderedSet

	// snapshot only
	holds  map[string]struct{}
	clones []*Dataset

	// filesystem/volume only, set when created via Clone
	origin *Dataset
}

func (d *Dataset) isRoot() bool { return d.kind == kindRoot }

// Name returns the last path component of the dataset.
func (d *Dataset) Name() string { return d.name }

// Kind returns the dataset's variant tag.
func (d *Dataset) Kind() DatasetKind { return d.kind }

// State returns the dataset's current lifecycle state.
func (d *Dataset) State() State { return d.state }

// Mounted reports whether the dataset is currently mounted (filesystems only).
func (d *Dataset) Mounted() bool { return d.mounted }

// Origin returns the snapshot this dataset was cloned from, or nil.
func (d *Dataset) Origin() *Dataset { return d.origin }

// Parent returns the owning dataset, or nil for a pool (top-level dataset).
func (d *Dataset) Parent() *Dataset {
	if d.parent == nil || d.parent.isRoot() {
		return nil
	}
	return d.parent
}

// sep is the path separator joining a dataset to its parent's full name.
func (d *Dataset) sep() string {
	if d.kind == KindSnapshot {
		return "@"
	}
	return "/"
}

// FullName reconstructs the full dataset path by walking parents.
func (d *Dataset) FullName() string {
	if d.isRoot() {
		return ""
	}
	if d.parent == nil || d.parent.isRoot() {
		return d.name
	}
	return d.parent.FullName() + d.sep() + d.name
}

func (d *Dataset) String() string { return d.FullName() }

// checkActive fails unless the dataset is in state active. Per spec.md §3,
// any operation except property read on a non-active dataset fails.
func (d *Dataset) checkActive() error {
	if d.state != StateActive {
		return newErr(InactiveDatasetError, i18n.G("cannot operate on %q: dataset is %s"), d.FullName(), d.state)
	}
	return nil
}

// IsSnapshot reports whether this dataset is a snapshot.
func (d *Dataset) IsSnapshot() bool { return d.kind == KindSnapshot }

// Holds returns a copy of the snapshot's hold-tag set.
func (d *Dataset) Holds() ([]string, error) {
	d.engine.mu.Lock()
	defer d.engine.mu.Unlock()
	if d.kind != KindSnapshot {
		return nil, newErr(DatasetTypeError, i18n.G("%q is not a snapshot"), d.FullName())
	}
	r := make([]string, 0, len(d.holds))
	for tag := range d.holds {
		r = append(r, tag)
	}
	return r, nil
}

// Clones returns the filesystems/volumes whose origin is this snapshot.
func (d *Dataset) Clones() []*Dataset {
	d.engine.mu.Lock()
	defer d.engine.mu.Unlock()
	r := make([]*Dataset, len(d.clones))
	copy(r, d.clones)
	return r
}

// Children returns the direct filesystem/volume children, in creation order.
func (d *Dataset) Children() []*Dataset {
	d.engine.mu.Lock()
	defer d.engine.mu.Unlock()
	if d.children == nil {
		return nil
	}
	return d.children.values()
}

// Snapshots returns the direct snapshots, in creation order.
func (d *Dataset) Snapshots() []*Dataset {
	d.engine.mu.Lock()
	defer d.engine.mu.Unlock()
	if d.snapshots == nil {
		return nil
	}
	return d.snapshots.values()
}
