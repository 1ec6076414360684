// Package zfs implements the mocked zfs command surface: a
// call-and-continuation `(err, ...)` API that wraps internal/engine and
// translates its structured errors into the exact user-facing message
// fragments a real zfs invocation would produce. Per spec.md §9, a
// structured *engine.Error never crosses this boundary — every callback
// sees a plain error.
package zfs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mockzfs/zfsmock/internal/engine"
	"github.com/mockzfs/zfsmock/internal/i18n"
	"github.com/mockzfs/zfsmock/internal/log"
)

// Facade wraps an *engine.Engine with the zfs.* continuation API.
type Facade struct {
	eng *engine.Engine
}

// New returns a Facade driving eng.
func New(eng *engine.Engine) *Facade {
	return &Facade{eng: eng}
}

func isKind(err error, k engine.Kind) bool {
	var e *engine.Error
	return errors.As(err, &e) && e.Kind == k
}

func plain(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(err.Error())
}

func notImplemented(cmd string) error {
	return fmt.Errorf(i18n.G("%s: not implemented"), cmd)
}

func noSuchDataset(name string) error {
	return fmt.Errorf(i18n.G("cannot open '%s': dataset does not exist"), name)
}

// splitSnap splits "fs@snap" into ("fs", "snap", true); absent '@' gives
// ("fs", "", false).
func splitSnap(s string) (base, snap string, hasSnap bool) {
	i := strings.IndexByte(s, '@')
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

// Create mocks `zfs.create(name, cb)`: creates a filesystem.
func (f *Facade) Create(ctx context.Context, name string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zfs: create %q"), name)
	_, err := f.eng.CreateFilesystem(name, nil)
	cb(plain(err))
}

// CreateVolume is a supplement to the literal §6 surface, exercising
// engine.CreateVolume: the original façade never emulates block sizes, so
// there is no `size` argument to thread through, only properties.
func (f *Facade) CreateVolume(ctx context.Context, name string, props map[string]string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zfs: create volume %q"), name)
	_, err := f.eng.CreateVolume(name, props)
	cb(plain(err))
}

// Snapshot mocks `zfs.snapshot('fs@snap', cb)`.
func (f *Facade) Snapshot(ctx context.Context, fullname string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zfs: snapshot %q"), fullname)
	base, snap, hasSnap := splitSnap(fullname)
	if !hasSnap || snap == "" {
		cb(errors.New(i18n.G("empty component or misplaced '@' or '#' delimiter in name")))
		return
	}
	d := f.eng.Get(base)
	if d == nil {
		cb(noSuchDataset(base))
		return
	}
	_, err := d.Snapshot(snap)
	cb(plain(err))
}

// Clone mocks `zfs.clone(snap, name[, props], cb)`. Extra engine.CloneOption
// values (e.g. engine.WithParents()) may be passed through; the literal §6
// surface has no such argument but the underlying engine operation supports
// it, so it is exposed as trailing, optional arguments rather than dropped.
func (f *Facade) Clone(ctx context.Context, snap, name string, props map[string]string, cb func(err error), opts ...engine.CloneOption) {
	log.Debugf(ctx, i18n.G("zfs: clone %q to %q"), snap, name)
	if strings.Contains(name, "@") {
		cb(errors.New(i18n.G("snapshot delimiter '@' is not expected here")))
		return
	}
	d := f.eng.Get(snap)
	if d == nil {
		cb(noSuchDataset(snap))
		return
	}
	_, err := d.Clone(name, props, opts...)
	cb(plain(err))
}

// destroyErr rewrites a hold condition to the exact §6 fragment; children
// and dependent-clone conditions already contain their fragments verbatim.
func destroyErr(err error) error {
	if err == nil {
		return nil
	}
	if isKind(err, engine.SnapshotHoldError) {
		return errors.New(i18n.G("dataset is busy"))
	}
	return plain(err)
}

// Destroy mocks `zfs.destroy(name, cb)`: non-recursive.
func (f *Facade) Destroy(ctx context.Context, name string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zfs: destroy %q"), name)
	d := f.eng.Get(name)
	if d == nil {
		cb(noSuchDataset(name))
		return
	}
	cb(destroyErr(d.Destroy()))
}

// DestroyAll mocks `zfs.destroyAll(name, cb)`: recursive.
func (f *Facade) DestroyAll(ctx context.Context, name string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zfs: destroyAll %q"), name)
	d := f.eng.Get(name)
	if d == nil {
		cb(noSuchDataset(name))
		return
	}
	cb(destroyErr(d.DestroyRecursive()))
}

// Rename mocks `zfs.rename(name, newname, cb)`.
func (f *Facade) Rename(ctx context.Context, name, newname string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zfs: rename %q to %q"), name, newname)
	d := f.eng.Get(name)
	if d == nil {
		cb(noSuchDataset(name))
		return
	}
	cb(plain(d.Rename(newname)))
}

// Mount mocks `zfs.mount(name, cb)`.
func (f *Facade) Mount(ctx context.Context, name string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zfs: mount %q"), name)
	d := f.eng.Get(name)
	if d == nil {
		cb(noSuchDataset(name))
		return
	}
	cb(plain(d.Mount()))
}

// Unmount mocks `zfs.unmount(name, cb)`.
func (f *Facade) Unmount(ctx context.Context, name string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zfs: unmount %q"), name)
	d := f.eng.Get(name)
	if d == nil {
		cb(noSuchDataset(name))
		return
	}
	cb(plain(d.Unmount()))
}

// Set mocks `zfs.set(name, propMap, cb)`.
func (f *Facade) Set(ctx context.Context, name string, props map[string]string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zfs: set %q on %q"), props, name)
	d := f.eng.Get(name)
	if d == nil {
		cb(noSuchDataset(name))
		return
	}
	for prop, value := range props {
		if err := d.SetProperty(prop, value); err != nil {
			cb(plain(err))
			return
		}
	}
	cb(nil)
}

// Get mocks `zfs.get(name, propNames, parseable, cb)`, returning rows of
// [dataset, prop, value].
func (f *Facade) Get(ctx context.Context, name string, propNames []string, parseable bool, cb func(err error, rows [][]string)) {
	log.Debugf(ctx, i18n.G("zfs: get %v on %q"), propNames, name)
	if !parseable {
		cb(notImplemented("zfs.get"), nil)
		return
	}
	d := f.eng.Get(name)
	if d == nil {
		cb(noSuchDataset(name), nil)
		return
	}
	rows := make([][]string, 0, len(propNames))
	for _, p := range propNames {
		v, _, err := d.GetProperty(p)
		if err != nil {
			cb(plain(err), nil)
			return
		}
		rows = append(rows, []string{name, p, v})
	}
	cb(nil, rows)
}

// ListOpts mirrors zfs.list's opts argument.
type ListOpts struct {
	// Type is a comma-separated list drawn from filesystem, volume,
	// snapshot, all. Empty means "filesystem,volume", matching a bare
	// `zfs list`.
	Type      string
	Recursive bool
	Fields    []string
	Parseable bool
}

var defaultDatasetFields = []string{"name", "used", "avail", "refer", "type", "mountpoint"}

func kindInTypes(k engine.DatasetKind, types []string) bool {
	for _, t := range types {
		switch t {
		case "all":
			return true
		case "filesystem":
			if k == engine.KindFilesystem {
				return true
			}
		case "volume":
			if k == engine.KindVolume {
				return true
			}
		case "snapshot":
			if k == engine.KindSnapshot {
				return true
			}
		}
	}
	return false
}

func toIterTypes(types []string) []engine.IterType {
	out := make([]engine.IterType, 0, len(types))
	for _, t := range types {
		switch t {
		case "filesystem":
			out = append(out, engine.IterFilesystem)
		case "volume":
			out = append(out, engine.IterVolume)
		case "snapshot":
			out = append(out, engine.IterSnapshot)
		case "all":
			out = append(out, engine.IterAll)
		}
	}
	return out
}

// rowFor renders one dataset as the requested fields. used/avail/refer are
// always "0": spec.md's Non-goals exclude block-accounting emulation, so
// these sizes are never tracked.
func rowFor(d *engine.Dataset, fields []string) []string {
	row := make([]string, len(fields))
	for i, field := range fields {
		switch field {
		case "name":
			row[i] = d.FullName()
		case "used", "avail", "refer":
			row[i] = "0"
		case "type":
			row[i] = d.Kind().String()
		default:
			v, _, err := d.GetProperty(field)
			if err != nil {
				v = "-"
			}
			row[i] = v
		}
	}
	return row
}

// List mocks `zfs.list([name,] [opts,] cb)`.
func (f *Facade) List(ctx context.Context, name string, opts ListOpts, cb func(err error, fields []string, rows [][]string)) {
	log.Debugf(ctx, i18n.G("zfs: list %q"), name)
	if !opts.Parseable {
		cb(notImplemented("zfs.list"), nil, nil)
		return
	}
	fields := opts.Fields
	if len(fields) == 0 {
		fields = defaultDatasetFields
	}
	typeList := strings.Split(opts.Type, ",")
	if opts.Type == "" {
		typeList = []string{"filesystem", "volume"}
	}

	var roots []*engine.Dataset
	if name != "" {
		d := f.eng.Get(name)
		if d == nil {
			cb(noSuchDataset(name), nil, nil)
			return
		}
		roots = []*engine.Dataset{d}
	} else {
		for _, p := range f.eng.Pools() {
			if d := f.eng.Get(p); d != nil {
				roots = append(roots, d)
			}
		}
	}

	var rows [][]string
	for _, r := range roots {
		if opts.Recursive {
			ds, err := r.IterDescendants(toIterTypes(typeList)...)
			if err != nil {
				cb(plain(err), nil, nil)
				return
			}
			for _, d := range ds {
				rows = append(rows, rowFor(d, fields))
			}
			continue
		}
		if kindInTypes(r.Kind(), typeList) {
			rows = append(rows, rowFor(r, fields))
		}
	}
	cb(nil, fields, rows)
}

// ListSnapshots mocks `zfs.list_snapshots(cb)` = `zfs.list(name,
// {type:'snapshot'}, cb)` with name == "" (every pool).
func (f *Facade) ListSnapshots(ctx context.Context, cb func(err error, fields []string, rows [][]string)) {
	f.List(ctx, "", ListOpts{Type: "snapshot", Recursive: true, Parseable: true}, cb)
}

// ListSnapshotsOf mocks `zfs.list_snapshots(name, cb)`.
func (f *Facade) ListSnapshotsOf(ctx context.Context, name string, cb func(err error, fields []string, rows [][]string)) {
	f.List(ctx, name, ListOpts{Type: "snapshot", Recursive: true, Parseable: true}, cb)
}

// Hold mocks `zfs.hold(snap, tag, cb)`.
func (f *Facade) Hold(ctx context.Context, snap, tag string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zfs: hold %q on %q"), tag, snap)
	d := f.eng.Get(snap)
	if d == nil {
		cb(noSuchDataset(snap))
		return
	}
	cb(plain(d.Hold(tag)))
}

// ReleaseHold mocks `zfs.releaseHold(snap, tag, cb)`.
func (f *Facade) ReleaseHold(ctx context.Context, snap, tag string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zfs: release %q on %q"), tag, snap)
	d := f.eng.Get(snap)
	if d == nil {
		cb(noSuchDataset(snap))
		return
	}
	cb(plain(d.Release(tag)))
}

// Holds mocks `zfs.holds(snap, cb)`.
func (f *Facade) Holds(ctx context.Context, snap string, cb func(err error, tags []string)) {
	d := f.eng.Get(snap)
	if d == nil {
		cb(noSuchDataset(snap), nil)
		return
	}
	tags, err := d.Holds()
	cb(plain(err), tags)
}

// Send mocks `zfs.send`, always unimplemented.
func (f *Facade) Send(ctx context.Context, cb func(err error)) { cb(notImplemented("zfs.send")) }

// Receive mocks `zfs.receive`, always unimplemented.
func (f *Facade) Receive(ctx context.Context, cb func(err error)) { cb(notImplemented("zfs.receive")) }

// Rollback mocks `zfs.rollback`, always unimplemented.
func (f *Facade) Rollback(ctx context.Context, cb func(err error)) {
	cb(notImplemented("zfs.rollback"))
}

// Upgrade mocks `zfs.upgrade`, always unimplemented.
func (f *Facade) Upgrade(ctx context.Context, cb func(err error)) { cb(notImplemented("zfs.upgrade")) }
