// Package zpool implements the mocked zpool command surface: a
// call-and-continuation `(err, ...)` API that wraps internal/engine and
// translates its structured errors into the exact user-facing message
// fragments a real zpool invocation would produce.
package zpool

import (
	"context"
	"errors"
	"fmt"

	"github.com/mockzfs/zfsmock/internal/engine"
	"github.com/mockzfs/zfsmock/internal/i18n"
	"github.com/mockzfs/zfsmock/internal/log"
)

// Facade wraps an *engine.Engine with the zpool.* continuation API.
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

// plain strips any *engine.Error down to a bare error, so structured
// conditions never cross the facade boundary.
func plain(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(err.Error())
}

func notImplemented(cmd string) error {
	return fmt.Errorf(i18n.G("%s: not implemented"), cmd)
}

// Create mocks `zpool.create(pool, config, cb)`.
func (f *Facade) Create(ctx context.Context, pool string, config map[string]string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zpool: create %q"), pool)
	_, err := f.eng.CreatePool(pool, config)
	if err != nil {
		if isKind(err, engine.DatasetExistsError) {
			cb(fmt.Errorf(i18n.G("cannot create '%s': pool already exists"), pool))
			return
		}
		cb(plain(err))
		return
	}
	cb(nil)
}

// Destroy mocks `zpool.destroy(pool, cb)`.
func (f *Facade) Destroy(ctx context.Context, pool string, cb func(err error)) {
	log.Debugf(ctx, i18n.G("zpool: destroy %q"), pool)
	cb(plain(f.eng.DestroyPool(pool)))
}

// ListOpts mirrors zpool.list's opts argument. Only Fields == ["name"] is
// supported, per spec.
type ListOpts struct {
	Fields []string
}

// List mocks `zpool.list([pool,] [opts,] cb)`. pool == "" lists every pool.
func (f *Facade) List(ctx context.Context, pool string, opts ListOpts, cb func(err error, fields []string, rows [][]string)) {
	log.Debugf(ctx, i18n.G("zpool: list %q"), pool)
	fields := opts.Fields
	if len(fields) == 0 {
		fields = []string{"name"}
	}
	if len(fields) != 1 || fields[0] != "name" {
		cb(notImplemented("zpool.list"), nil, nil)
		return
	}

	pools := f.eng.Pools()
	if pool != "" {
		found := false
		for _, p := range pools {
			if p == pool {
				found = true
				break
			}
		}
		if !found {
			cb(fmt.Errorf(i18n.G("cannot open '%s': no such pool"), pool), nil, nil)
			return
		}
		pools = []string{pool}
	}

	rows := make([][]string, 0, len(pools))
	for _, p := range pools {
		rows = append(rows, []string{p})
	}
	cb(nil, []string{"name"}, rows)
}

// Status mocks `zpool.status(pool, cb)`. Preserved per spec.md §9: a
// missing pool reports "UNKNOWN" rather than raising. Not fixed here.
func (f *Facade) Status(ctx context.Context, pool string, cb func(err error, status string)) {
	log.Debugf(ctx, i18n.G("zpool: status %q"), pool)
	for _, p := range f.eng.Pools() {
		if p == pool {
			cb(nil, "ONLINE")
			return
		}
	}
	cb(nil, "UNKNOWN")
}

// Upgrade mocks `zpool.upgrade`, always unimplemented.
func (f *Facade) Upgrade(ctx context.Context, cb func(err error)) {
	cb(notImplemented("zpool.upgrade"))
}

// ListDisks mocks `zpool.listDisks`, always unimplemented.
func (f *Facade) ListDisks(ctx context.Context, cb func(err error, disks []string)) {
	cb(notImplemented("zpool.listDisks"), nil)
}
