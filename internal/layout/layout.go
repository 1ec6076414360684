// Package layout implements the disk-layout planner described in
// spec.md §6: a pure function over a disk inventory that buckets disks by
// capacity, assigns special-device roles, and renders a pool layout. It
// has no teacher analogue in the retrieved corpus; the bucket/role
// assignment follows the generic idiom spec.md itself describes rather
// than being grounded on a specific example file.
package layout

import (
	"fmt"
	"sort"

	"github.com/mockzfs/zfsmock/internal/i18n"
)

// DiskType is the raw interface/type string reported for a disk (e.g.
// "SATA", "NVMe", "SAS"). The planner never branches on it, and the
// rendered Layout does not carry it: vdevs list disks by name only.
type DiskType string

// Disk is one entry of the inventory handed to Plan.
type Disk struct {
	Name       string
	VID        string
	PID        string
	Size       uint64 // capacity in MB
	Type       DiskType
	Removable  bool
	SolidState bool
}

// Name identifies the chosen (or auto-chosen) pool layout.
type Name string

// Supported layouts.
const (
	Single Name = "single"
	Mirror Name = "mirror"
	RaidZ2 Name = "raidz2"
)

// Role identifies a vdev's function within the pool.
type Role string

// Supported roles.
const (
	RoleStorage Role = "storage"
	RoleSlog    Role = "slog"
	RoleCache   Role = "cache"
)

// VDev is one virtual device: a group of disks sharing a role and (for
// storage vdevs) a redundancy scheme.
type VDev struct {
	Role     Role
	Layout   Name // meaningful only for RoleStorage
	Disks    []string
	Capacity uint64 // MB usable after redundancy
}

// Layout is the rendered pool plan.
type Layout struct {
	VDevs    []VDev
	Capacity uint64
	Spares   []string
	Logs     []string
	Cache    []string
}

// capacityThresholds are the rounding buckets, in MB, from largest to
// smallest, per spec.md §6.
var capacityThresholds = []uint64{500000, 150000, 80000, 20000, 4500, 1000}

// acceptanceWindow is the +/-5% tolerance within which a disk's raw size
// snaps to a threshold.
const acceptanceWindow = 0.05

// bucketFor rounds a raw disk size (MB) to the nearest capacityThreshold
// within acceptanceWindow, or returns the raw size unchanged if none is
// close enough.
func bucketFor(size uint64) uint64 {
	for _, t := range capacityThresholds {
		lo := float64(t) * (1 - acceptanceWindow)
		hi := float64(t) * (1 + acceptanceWindow)
		if float64(size) >= lo && float64(size) <= hi {
			return t
		}
	}
	return size
}

// Plan buckets disks by rounded capacity and takes the bucket with the most
// non-solid-state disks as storage, applying name (auto-chosen from the
// storage disk count when empty) to it. Solid-state disks outside that
// bucket, in name order, become one slog, then up to three cache, then
// spares; non-solid-state disks outside it are left out of the Layout.
func Plan(disks []Disk, name Name) (Layout, error) {
	if len(disks) == 0 {
		return Layout{}, fmt.Errorf(i18n.G("cannot plan a layout: no disks in inventory"))
	}

	buckets := map[uint64][]Disk{}
	for _, d := range disks {
		b := bucketFor(d.Size)
		buckets[b] = append(buckets[b], d)
	}

	storageBucket := largestHDDBucket(buckets)

	var storage []Disk
	var ssdPool []Disk
	for _, d := range disks {
		if bucketFor(d.Size) == storageBucket {
			storage = append(storage, d)
			continue
		}
		if d.SolidState {
			ssdPool = append(ssdPool, d)
		}
	}
	sort.Slice(storage, func(i, j int) bool { return storage[i].Name < storage[j].Name })
	sort.Slice(ssdPool, func(i, j int) bool { return ssdPool[i].Name < ssdPool[j].Name })

	var logs, cache, spares []string
	for i, d := range ssdPool {
		switch {
		case i == 0:
			logs = append(logs, d.Name)
		case i >= 1 && i <= 3:
			cache = append(cache, d.Name)
		default:
			spares = append(spares, d.Name)
		}
	}

	if name == "" {
		name = autoChoose(len(storage))
	}

	storageVDevs, capacity, extraSpares, err := applyLayout(name, storage)
	if err != nil {
		return Layout{}, err
	}
	spares = append(spares, extraSpares...)

	l := Layout{
		VDevs:    storageVDevs,
		Capacity: capacity,
		Spares:   spares,
		Logs:     logs,
		Cache:    cache,
	}
	if len(logs) > 0 {
		l.VDevs = append(l.VDevs, VDev{Role: RoleSlog, Disks: logs})
	}
	if len(cache) > 0 {
		l.VDevs = append(l.VDevs, VDev{Role: RoleCache, Disks: cache})
	}
	return l, nil
}

// largestHDDBucket picks the bucket key with the most non-solid-state
// disks (the natural home for bulk storage); falls back to the bucket
// with the most disks overall when every disk is solid-state.
func largestHDDBucket(buckets map[uint64][]Disk) uint64 {
	var best uint64
	bestCount := -1
	bestCountAny := -1
	var bestAny uint64
	for b, ds := range buckets {
		hddCount := 0
		for _, d := range ds {
			if !d.SolidState {
				hddCount++
			}
		}
		if hddCount > bestCount {
			bestCount = hddCount
			best = b
		}
		if len(ds) > bestCountAny {
			bestCountAny = len(ds)
			bestAny = b
		}
	}
	if bestCount > 0 {
		return best
	}
	return bestAny
}

func autoChoose(storageCount int) Name {
	switch {
	case storageCount <= 1:
		return Single
	case storageCount <= 16:
		return Mirror
	default:
		return RaidZ2
	}
}

func applyLayout(name Name, storage []Disk) (vdevs []VDev, capacity uint64, spares []string, err error) {
	if len(storage) == 0 {
		return nil, 0, nil, fmt.Errorf(i18n.G("cannot plan a %q layout: no storage disks"), name)
	}

	switch name {
	case Single:
		names := diskNames(storage)
		cap := totalSize(storage)
		return []VDev{{Role: RoleStorage, Layout: Single, Disks: names, Capacity: cap}}, cap, nil, nil

	case Mirror:
		for i := 0; i+1 < len(storage); i += 2 {
			pair := storage[i : i+2]
			c := minSize(pair)
			vdevs = append(vdevs, VDev{Role: RoleStorage, Layout: Mirror, Disks: diskNames(pair), Capacity: c})
			capacity += c
		}
		if len(storage)%2 == 1 {
			spares = append(spares, storage[len(storage)-1].Name)
		}
		return vdevs, capacity, spares, nil

	case RaidZ2:
		if len(storage) < 4 {
			return nil, 0, nil, fmt.Errorf(i18n.G("cannot plan a raidz2 layout: need at least 4 disks, have %d"), len(storage))
		}
		c := minSize(storage) * uint64(len(storage)-2)
		return []VDev{{Role: RoleStorage, Layout: RaidZ2, Disks: diskNames(storage), Capacity: c}}, c, nil, nil
	}

	return nil, 0, nil, fmt.Errorf(i18n.G("unknown layout %q"), name)
}

func diskNames(disks []Disk) []string {
	names := make([]string, len(disks))
	for i, d := range disks {
		names[i] = d.Name
	}
	return names
}

func totalSize(disks []Disk) uint64 {
	var total uint64
	for _, d := range disks {
		total += d.Size
	}
	return total
}

func minSize(disks []Disk) uint64 {
	min := disks[0].Size
	for _, d := range disks[1:] {
		if d.Size < min {
			min = d.Size
		}
	}
	return min
}
