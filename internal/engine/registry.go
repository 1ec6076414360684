package engine

import (
	"context"
	"math/rand"
	"sync"

	"github.com/mockzfs/zfsmock/internal/hostfs"
	"github.com/mockzfs/zfsmock/internal/hostfs/memfs"
	"github.com/mockzfs/zfsmock/internal/i18n"
	"github.com/mockzfs/zfsmock/internal/log"
)

// defaultProperties is the pools root's fixed default property map,
// inherited by every dataset that doesn't shadow a key locally. Verbatim
// from spec.md §6.
var defaultProperties = map[string]string{
	"atime":              "on",
	"canmount":           "on",
	"checksum":           "on",
	"compression":        "off",
	"copies":             "1",
	"dedup":              "off",
	"devices":            "on",
	"encryption":         "off",
	"exec":               "on",
	"keyformat":          "none",
	"keylocation":        "none",
	"logbias":            "latency",
	"mlslabel":           "none",
	"mountpoint":         "/",
	"nbmand":             "off",
	"normalization":      "none",
	"overlay":            "off",
	"primarycache":       "all",
	"quota":              "none",
	"readonly":           "off",
	"recordsize":         "131072",
	"redundant_metadata": "all",
	"refquota":           "none",
	"refreservation":     "none",
	"relatime":           "off",
	"reservation":        "none",
	"secondarycache":     "all",
	"setuid":             "on",
	"sharenfs":           "off",
	"sharesmb":           "off",
	"snapdev":            "hidden",
	"snapdir":            "hidden",
	"sync":               "standard",
	"version":            "5",
	"volmode":            "default",
	"vscan":              "off",
	"xattr":              "on",
	"zoned":              "off",
}

// Engine is the process-wide registry: the pools root, the mount table, and
// the transaction-group counter, per spec.md §3/§5. Reset is the
// sanctioned way to clear it between tests.
type Engine struct {
	mu sync.Mutex

	root       *Dataset
	mountTable map[string]*Dataset

	txg        uint64
	pendingTxg uint64

	fs hostfs.FS

	guidGen func() uint64
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithHostFS overrides the default in-memory host filesystem used by the
// archive component.
func WithHostFS(fs hostfs.FS) Option {
	return func(e *Engine) { e.fs = fs }
}

// WithGUIDGenerator overrides the random 64-bit guid generator, letting
// tests make dataset guids deterministic.
func WithGUIDGenerator(f func() uint64) Option {
	return func(e *Engine) { e.guidGen = f }
}

// New returns a freshly reset Engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, o := range opts {
		o(e)
	}
	e.Reset()
	return e
}

// Reset clears pools, the mount table, and the txg counter, and is the
// sanctioned way for a test to start from a clean slate.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.root = &Dataset{
		kind:     kindRoot,
		state:    StateActive,
		local:    cloneProps(defaultProperties),
		children: newOrderedSet(),
	}
	e.mountTable = make(map[string]*Dataset)
	e.txg = 0
	e.pendingTxg = 0
	if e.fs == nil {
		e.fs = memfs.New()
	}
	if e.guidGen == nil {
		e.guidGen = func() uint64 { return rand.Uint64() }
	}
}

func cloneProps(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// nextTxg returns the txg to stamp on a newly created dataset, honoring a
// pending txg window shared by one recursive operation.
func (e *Engine) nextTxg() uint64 {
	if e.pendingTxg != 0 {
		return e.pendingTxg
	}
	e.txg++
	return e.txg
}

// beginPendingTxg opens a shared createtxg window for a batch of creations
// (e.g. a recursive snapshot), returning a function that closes it.
func (e *Engine) beginPendingTxg() func() {
	e.txg++
	e.pendingTxg = e.txg
	return func() { e.pendingTxg = 0 }
}

// Get resolves a full dataset name ("pool/fs" or "pool/fs@snap") to its
// Dataset, or nil if not found.
func (e *Engine) Get(fullname string) *Dataset {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.get(fullname)
}

func (e *Engine) get(fullname string) *Dataset {
	base, snap, isSnap := splitSnap(fullname)
	parts := splitPathComponents(base)
	cur := e.root
	for _, part := range parts {
		if cur.children == nil {
			return nil
		}
		next, ok := cur.children.get(part)
		if !ok {
			return nil
		}
		cur = next
	}
	if !isSnap {
		return cur
	}
	if cur.snapshots == nil {
		return nil
	}
	snapDs, ok := cur.snapshots.get(snap)
	if !ok {
		return nil
	}
	return snapDs
}

func splitPathComponents(s string) []string {
	if s == "" {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// Pools returns the names of every pool (top-level filesystem).
func (e *Engine) Pools() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, e.root.children.len())
	for _, d := range e.root.children.values() {
		names = append(names, d.name)
	}
	return names
}

// PoolName returns the pool name for a dataset path string.
func (e *Engine) PoolName(path string) string { return poolname(path) }

// isMountPoint reports whether path is currently registered in the mount
// table, used by the archive component to avoid crossing mount points.
func (e *Engine) isMountPoint(path string) bool {
	_, ok := e.mountTable[path]
	return ok
}

// DestroyPool walks all descendants of pool name in reverse, attempts to
// unmount each (failures ignored), transitions every dataset's state to
// pool_destroyed, and removes the pool from the pools root.
func (e *Engine) DestroyPool(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool, ok := e.root.children.get(name)
	if !ok {
		return newErr(NoSuchPoolError, i18n.G("cannot open '%s': no such pool"), name)
	}

	var all []*Dataset
	collectPreOrder(pool, &all)
	for i := len(all) - 1; i >= 0; i-- {
		d := all[i]
		if d.mounted {
			_ = e.unmountLocked(d)
		}
		d.state = StatePoolDestroyed
	}
	pool.state = StatePoolDestroyed
	e.root.children.remove(name)
	log.Debugf(context.Background(), i18n.G("engine: destroyed pool %q"), name)
	return nil
}
