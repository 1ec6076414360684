package testutils

import (
	"io/ioutil"
	"testing"

	"gopkg.in/yaml.v2"
)

// DiskFixture is one disk entry of a yaml-encoded inventory fixture, mirroring
// the shape layout.Disk expects. Kept independent of the layout package so
// testutils never imports it, the same separation the teacher's own fake-pool
// yaml loader keeps from internal/zfs.
type DiskFixture struct {
	Name       string `yaml:"name"`
	VID        string `yaml:"vid"`
	PID        string `yaml:"pid"`
	Size       uint64 `yaml:"size"`
	Type       string `yaml:"type"`
	Removable  bool   `yaml:"removable"`
	SolidState bool   `yaml:"solid_state"`
}

// LoadDiskInventory reads a yaml-encoded list of DiskFixture from path, the
// same way the rest of the corpus loads small fixed test fixtures from yaml
// rather than hand-writing Go literals.
func LoadDiskInventory(t *testing.T, path string) []DiskFixture {
	t.Helper()
	b, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatalf("couldn't read disk inventory fixture %q: %v", path, err)
	}
	var disks []DiskFixture
	if err := yaml.Unmarshal(b, &disks); err != nil {
		t.Fatalf("couldn't parse disk inventory fixture %q: %v", path, err)
	}
	return disks
}
