package engine

import (
	"context"
	"strings"

	"github.com/mockzfs/zfsmock/internal/i18n"
	"github.com/mockzfs/zfsmock/internal/log"
)

// Mount mounts a filesystem at its computed mountpoint, per spec.md §4.4.
// Volumes and snapshots can never be mounted. A dataset whose canmount is
// "off", or whose resolved mountpoint is "none"/"legacy", is unmountable.
func (d *Dataset) Mount() error {
	d.engine.mu.Lock()
	defer d.engine.mu.Unlock()
	return d.engine.mountLocked(d)
}

// Unmount removes a filesystem from the mount table. A filesystem with a
// submount still registered beneath its mountpoint cannot be unmounted.
func (d *Dataset) Unmount() error {
	d.engine.mu.Lock()
	defer d.engine.mu.Unlock()
	return d.engine.unmountLocked(d)
}

func (e *Engine) mountLocked(d *Dataset) error {
	if err := d.checkActive(); err != nil {
		return err
	}
	if d.kind != KindFilesystem {
		return newErr(DatasetTypeError, i18n.G("cannot mount %q: not a filesystem"), d.FullName())
	}
	if d.mounted {
		return nil
	}
	canmount, _, err := d.getInheritableValue("canmount")
	if err != nil {
		return err
	}
	if canmount == "off" {
		return newErr(UnmountableError, i18n.G("cannot mount %q: canmount is off"), d.FullName())
	}
	mp, ok := d.computeMountpoint()
	if !ok || mp == "none" || mp == "legacy" {
		return newErr(UnmountableError, i18n.G("cannot mount %q: mountpoint is %q"), d.FullName(), mp)
	}
	if existing, taken := e.mountTable[mp]; taken && existing != d {
		return newErr(OverlayMountError, i18n.G("cannot mount %q: %q is already mounted by %q"), d.FullName(), mp, existing.FullName())
	}
	e.mountTable[mp] = d
	d.mounted = true
	if d.fscontent != nil {
		if err := e.ClearDir(mp); err != nil {
			return err
		}
		if err := e.Restore(mp, d.fscontent); err != nil {
			return err
		}
		d.fscontent = nil
	}
	log.Debugf(context.Background(), i18n.G("engine: mounted %q at %q"), d.FullName(), mp)
	return nil
}

func (e *Engine) unmountLocked(d *Dataset) error {
	if !d.mounted {
		return nil
	}
	mp := e.mountpointOf(d)
	for path, other := range e.mountTable {
		if other == d {
			continue
		}
		if strings.HasPrefix(path, mp+"/") {
			return newErr(FilesystemBusyError, i18n.G("cannot unmount %q: %q is mounted beneath it"), d.FullName(), other.FullName())
		}
	}
	if mp != "" {
		tree, err := e.archiveIfPresent(mp)
		if err != nil {
			return err
		}
		if tree != nil {
			d.fscontent = tree
			if err := e.ClearDir(mp); err != nil {
				return err
			}
		}
		delete(e.mountTable, mp)
	}
	d.mounted = false
	log.Debugf(context.Background(), i18n.G("engine: unmounted %q"), d.FullName())
	return nil
}

// mountpointOf returns the mount table key currently pointing at d, if any.
func (e *Engine) mountpointOf(d *Dataset) string {
	for path, other := range e.mountTable {
		if other == d {
			return path
		}
	}
	return ""
}

// setMountpoint implements the unmount/rewrite/remount dance triggered by
// `set mountpoint=...` on an active, possibly-mounted filesystem. Called
// from SetProperty, which already holds the engine lock.
func (d *Dataset) setMountpoint(newValue string) error {
	e := d.engine
	// A mounted descendant keeps d busy, so every mounted descendant
	// filesystem is unmounted first, deepest first, and remounted below.
	subs, _ := d.iterDescendants(IterFilesystem)
	wasSubMounted := map[*Dataset]bool{}
	for i := len(subs) - 1; i > 0; i-- {
		if subs[i].mounted {
			wasSubMounted[subs[i]] = true
			_ = e.unmountLocked(subs[i])
		}
	}
	wasMounted := d.mounted
	if wasMounted {
		if err := e.unmountLocked(d); err != nil {
			return err
		}
	}
	d.local["mountpoint"] = newValue

	// Children inheriting their mountpoint move with the parent; children
	// with a local override are remounted where they were. Only
	// previously-mounted children are re-mounted, preserving each one's own
	// mounted/unmounted state.
	var remount func(*Dataset)
	remount = func(n *Dataset) {
		if n.children == nil {
			return
		}
		for _, c := range n.children.values() {
			if c.kind != KindFilesystem {
				continue
			}
			if wasSubMounted[c] {
				_ = e.mountLocked(c)
			}
			remount(c)
		}
	}
	remount(d)

	if wasMounted && newValue != "none" && newValue != "legacy" {
		return e.mountLocked(d)
	}
	return nil
}
