package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mockzfs/zfsmock/internal/i18n"
)

// propertySpec describes one writable property: which kinds it applies to,
// whether it may only be set at creation time, and how to validate/normalize
// an incoming value.
type propertySpec struct {
	appliesTo    func(DatasetKind) bool
	creationOnly bool
	normalize    func(value string) (string, error)
}

func anyFsOrVol(k DatasetKind) bool { return k == KindFilesystem || k == KindVolume }
func fsOnly(k DatasetKind) bool     { return k == KindFilesystem }
func volOnly(k DatasetKind) bool    { return k == KindVolume }

func oneOf(options ...string) func(string) (string, error) {
	return func(v string) (string, error) {
		for _, o := range options {
			if v == o {
				return v, nil
			}
		}
		return "", newErr(InvalidArgumentError, i18n.G("invalid value %q, must be one of %s"), v, strings.Join(options, ", "))
	}
}

func intRange(min, max int) func(string) (string, error) {
	return func(v string) (string, error) {
		n, err := strconv.Atoi(v)
		if err != nil || n < min || n > max {
			return "", newErr(InvalidArgumentError, i18n.G("invalid value %q, must be an integer between %d and %d"), v, min, max)
		}
		return strconv.Itoa(n), nil
	}
}

func anyInt(v string) (string, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return "", newErr(InvalidArgumentError, i18n.G("invalid integer value %q"), v)
	}
	return strconv.Itoa(n), nil
}

func mountpointValue(v string) (string, error) {
	if v == "none" || v == "legacy" {
		return v, nil
	}
	if strings.HasPrefix(v, "/") {
		return v, nil
	}
	return "", newErr(InvalidArgumentError, i18n.G("'%s' must be an absolute path, 'none', or 'legacy'"), v)
}

// humanNumber parses spec.md's quota grammar: \d+[bkmgtpe]? (case-insensitive)
// or "none", via the same ecosystem parser used for analogous size-string
// handling elsewhere in the zfs-tooling corpus.
func humanNumber(v string) (string, error) {
	if v == "none" {
		return v, nil
	}
	n, err := humanize.ParseBytes(normalizeSizeSuffix(v))
	if err != nil {
		return "", newErr(BadHumanNumberError, i18n.G("bad numeric value %q"), v)
	}
	return strconv.FormatUint(n, 10), nil
}

// normalizeSizeSuffix expands the single-letter suffixes spec.md accepts
// (b k m g t p e) into the two-letter ones humanize.ParseBytes expects.
func normalizeSizeSuffix(v string) string {
	if v == "" {
		return v
	}
	last := v[len(v)-1]
	letters := map[byte]string{
		'b': "B", 'k': "KB", 'm': "MB", 'g': "GB",
		't': "TB", 'p': "PB", 'e': "EB",
		'B': "B", 'K': "KB", 'M': "MB", 'G': "GB",
		'T': "TB", 'P': "PB", 'E': "EB",
	}
	if suffix, ok := letters[last]; ok {
		return v[:len(v)-1] + suffix
	}
	return v
}

// quotaProperty validates quota: only meaningful on filesystems.
func quotaProperty(v string) (string, error) { return humanNumber(v) }

var writableProps = map[string]propertySpec{
	"atime":        {appliesTo: anyFsOrVol, normalize: oneOf("on", "off")},
	"canmount":     {appliesTo: anyFsOrVol, normalize: oneOf("on", "off", "noauto")},
	"checksum":     {appliesTo: anyFsOrVol, normalize: oneOf("on", "off", "fletcher2", "fletcher4", "sha256", "sha512", "skein", "edonr", "noparity")},
	"compression":  {appliesTo: anyFsOrVol, normalize: oneOf("on", "off")},
	"copies":       {appliesTo: anyFsOrVol, normalize: intRange(1, 3)},
	"mountpoint":   {appliesTo: fsOnly, normalize: mountpointValue},
	"quota":        {appliesTo: fsOnly, normalize: quotaProperty},
	"version":      {appliesTo: anyFsOrVol, normalize: anyInt},
	"volblocksize": {appliesTo: volOnly, creationOnly: true, normalize: anyInt},
}

var readOnlyProps = map[string]bool{
	"type": true, "name": true, "guid": true, "creation": true,
	"createtxg": true, "mounted": true, "origin": true,
}

// GetInheritableValue resolves prop starting at d itself, then walking
// parents until one has it present in its local map. source is "local",
// "default" (resolved at the pools root), or "inherited from <ancestor>".
func (d *Dataset) GetInheritableValue(prop string) (value string, source string, err error) {
	d.engine.mu.Lock()
	defer d.engine.mu.Unlock()
	return d.getInheritableValue(prop)
}

func (d *Dataset) getInheritableValue(prop string) (value string, source string, err error) {
	cur := d
	for cur != nil {
		if v, ok := cur.local[prop]; ok {
			switch {
			case cur == d:
				return v, "local", nil
			case cur.isRoot():
				return v, "default", nil
			default:
				return v, fmt.Sprintf("inherited from %s", cur.FullName()), nil
			}
		}
		cur = cur.parent
	}
	return "", "", newErr(NotImplementedError, i18n.G("property %q is not implemented"), prop)
}

// computedValue returns the value for one of the read-only intrinsic
// properties (type, name, guid, creation, createtxg, mounted, origin).
func (d *Dataset) computedValue(prop string) string {
	switch prop {
	case "type":
		return d.kind.String()
	case "name":
		return d.FullName()
	case "guid":
		return strconv.FormatUint(d.guid, 10)
	case "creation":
		return strconv.FormatInt(d.creation.Unix(), 10)
	case "createtxg":
		return strconv.FormatUint(d.createTxg, 10)
	case "mounted":
		if d.mounted {
			return "yes"
		}
		return "no"
	case "origin":
		if d.origin != nil {
			return d.origin.FullName()
		}
		return ""
	}
	return ""
}

// GetProperty reads a property's value and source. Read-only properties
// outside the small supported set (type, name, guid, creation, createtxg,
// mounted, origin, and the writable table below) fail with
// NotImplementedError, per spec.md §4.3.
func (d *Dataset) GetProperty(prop string) (value string, source string, err error) {
	d.engine.mu.Lock()
	defer d.engine.mu.Unlock()
	if readOnlyProps[prop] {
		return d.computedValue(prop), "-", nil
	}
	spec, ok := writableProps[prop]
	if !ok {
		return "", "", newErr(NotImplementedError, i18n.G("property %q is not implemented"), prop)
	}
	if !spec.appliesTo(d.kind) {
		return "", "", newErr(UnsupportedPropertyError, i18n.G("property %q is not valid for %s datasets"), prop, d.kind)
	}
	if prop == "mountpoint" {
		mp, ok := d.computeMountpoint()
		if !ok {
			return "", "", newErr(NotImplementedError, i18n.G("property %q is not implemented"), prop)
		}
		_, source, err := d.getInheritableValue(prop)
		if err != nil {
			return "", "", err
		}
		return mp, source, nil
	}
	return d.getInheritableValue(prop)
}

// SetProperty writes a local property value, validating per spec.md §4.3.
// mountpoint gets the extra unmount/rewrite/remount dance described there.
func (d *Dataset) SetProperty(prop, value string) error {
	d.engine.mu.Lock()
	defer d.engine.mu.Unlock()
	if err := d.checkActive(); err != nil {
		return err
	}
	if readOnlyProps[prop] {
		return newErr(ReadOnlyPropertyError, i18n.G("%q is readonly, cannot be set"), prop)
	}
	spec, ok := writableProps[prop]
	if !ok {
		return newErr(NotImplementedError, i18n.G("property %q is not implemented"), prop)
	}
	if d.kind == KindSnapshot || !spec.appliesTo(d.kind) {
		return newErr(UnsupportedPropertyError, i18n.G("property %q is not valid for %s datasets"), prop, d.kind)
	}
	if spec.creationOnly && d.state != StateCreating {
		return newErr(ReadOnlyPropertyError, i18n.G("%q can only be set at creation time"), prop)
	}

	normalized, err := spec.normalize(value)
	if err != nil {
		return err
	}

	if prop == "mountpoint" && d.kind == KindFilesystem && d.state == StateActive {
		return d.setMountpoint(normalized)
	}

	d.local[prop] = normalized
	return nil
}

// setLocalAtCreation stores a validated property directly, bypassing the
// active-state and mountpoint-remount dance, used while sealing a new
// dataset's property set.
func (d *Dataset) setLocalAtCreation(prop, value string) error {
	spec, ok := writableProps[prop]
	if !ok {
		return newErr(NotImplementedError, i18n.G("property %q is not implemented"), prop)
	}
	if !spec.appliesTo(d.kind) {
		return newErr(UnsupportedPropertyError, i18n.G("property %q is not valid for %s datasets"), prop, d.kind)
	}
	normalized, err := spec.normalize(value)
	if err != nil {
		return err
	}
	d.local[prop] = normalized
	return nil
}

// computeMountpoint implements spec.md §4.4: walk from self toward the
// pools root collecting name segments until an ancestor has a local
// mountpoint; join that ancestor's mountpoint with the collected segments.
// Snapshots and volumes return "", false.
func (d *Dataset) computeMountpoint() (string, bool) {
	if d.kind != KindFilesystem {
		return "", false
	}
	var segments []string
	cur := d
	for {
		if v, ok := cur.local["mountpoint"]; ok {
			if v == "none" || v == "legacy" {
				return v, true
			}
			if len(segments) == 0 {
				return v, true
			}
			joined := strings.TrimRight(v, "/")
			for i := len(segments) - 1; i >= 0; i-- {
				joined += "/" + segments[i]
			}
			return joined, true
		}
		segments = append(segments, cur.name)
		if cur.parent == nil {
			break
		}
		cur = cur.parent
	}
	// No ancestor had a local value: "/" joined with all collected segments.
	joined := ""
	for i := len(segments) - 1; i >= 0; i-- {
		joined += "/" + segments[i]
	}
	if joined == "" {
		joined = "/"
	}
	return joined, true
}
