package engine

import (
	"strings"
	"time"

	"github.com/mockzfs/zfsmock/internal/i18n"
)

// CreatePool creates a new pool: a top-level filesystem with no parent
// other than the pools root. name must not contain '/' or '@'.
func (e *Engine) CreatePool(name string, props map[string]string) (*Dataset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if strings.ContainsAny(name, "/@") {
		return nil, newErr(DatasetNameError, i18n.G("pool name %q must not contain '/' or '@'"), name)
	}
	return e.createDataset(name, KindFilesystem, props, true)
}

// CreateFilesystem creates a new filesystem under an existing, active
// parent filesystem.
func (e *Engine) CreateFilesystem(fullname string, props map[string]string) (*Dataset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createDataset(fullname, KindFilesystem, props, false)
}

// CreateVolume creates a new volume under an existing, active parent
// filesystem. volblocksize defaults to 8192 unless overridden in props.
func (e *Engine) CreateVolume(fullname string, props map[string]string) (*Dataset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createDataset(fullname, KindVolume, props, false)
}

// resolveParent validates fullname's components and resolves the filesystem
// parent a new sibling named by its last component would be created under.
// With createMissing, absent intermediate filesystems are created along the
// way (clone's opts.parents); otherwise a missing parent fails outright
// (plain create never auto-creates parents). allowTopLevel permits a bare
// single-component name with no parent at all: true only for CreatePool,
// since top-level creation is a pool operation and must never happen
// through CreateFilesystem/CreateVolume/Clone. Shared by createDataset and
// Clone.
func (e *Engine) resolveParent(fullname string, createMissing, allowTopLevel bool) (parent *Dataset, name string, err error) {
	if _, _, hasSnap := splitSnap(fullname); hasSnap {
		return nil, "", newErr(DatasetNameError, i18n.G("cannot create %q: '@' is reserved for snapshots"), fullname)
	}
	parts := splitPathComponents(fullname)
	minParts := 2
	if allowTopLevel {
		minParts = 1
	}
	if len(parts) < minParts {
		return nil, "", newErr(DatasetNameError, i18n.G("missing dataset name"))
	}
	for _, part := range parts {
		if err := namecheck(part); err != nil {
			return nil, "", err
		}
	}

	cur := e.root
	for i := 0; i < len(parts)-1; i++ {
		next, ok := cur.children.get(parts[i])
		if !ok {
			if !createMissing {
				return nil, "", newErr(DatasetNameError, i18n.G("cannot create %q: parent does not exist"), fullname)
			}
			created, err := e.createDataset(strings.Join(parts[:i+1], "/"), KindFilesystem, nil, false)
			if err != nil {
				return nil, "", err
			}
			next = created
		} else if next.kind != KindFilesystem {
			return nil, "", newErr(DatasetTypeError, i18n.G("cannot create %q: parent %q is not a filesystem"), fullname, next.FullName())
		} else if err := next.checkActive(); err != nil {
			return nil, "", err
		}
		cur = next
	}

	name = parts[len(parts)-1]
	if _, exists := cur.children.get(name); exists {
		return nil, "", newErr(DatasetExistsError, i18n.G("cannot create %q: dataset already exists"), fullname)
	}
	return cur, name, nil
}

func (e *Engine) createDataset(fullname string, kind DatasetKind, props map[string]string, allowTopLevel bool) (*Dataset, error) {
	parent, name, err := e.resolveParent(fullname, false, allowTopLevel)
	if err != nil {
		return nil, err
	}

	d := &Dataset{
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
	}
	if kind == KindFilesystem {
		d.children = newOrderedSet()
	}
	if kind == KindVolume {
		if err := d.setLocalAtCreation("volblocksize", "8192"); err != nil {
			return nil, err
		}
	}
	for name, value := range props {
		if err := d.setLocalAtCreation(name, value); err != nil {
			return nil, err
		}
	}

	parent.children.add(name, d)
	d.state = StateActive

	if kind == KindFilesystem {
		_ = e.mountLocked(d)
	}

	return d, nil
}
