package layout

import (
	"testing"

	"github.com/mockzfs/zfsmock/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hdd(name string, size uint64) Disk {
	return Disk{Name: name, Size: size, Type: "SATA"}
}

func ssd(name string, size uint64) Disk {
	return Disk{Name: name, Size: size, Type: "NVMe", SolidState: true}
}

func TestPlanRejectsEmptyInventory(t *testing.T) {
	t.Parallel()
	_, err := Plan(nil, "")
	assert.Error(t, err)
}

func TestPlanAutoChoosesSingleForOneDisk(t *testing.T) {
	t.Parallel()
	l, err := Plan([]Disk{hdd("sda", 1000)}, "")
	require.NoError(t, err)
	require.Len(t, l.VDevs, 1)
	assert.Equal(t, Single, l.VDevs[0].Layout)
	assert.Equal(t, uint64(1000), l.Capacity)
}

func TestPlanAutoChoosesMirrorForFewDisks(t *testing.T) {
	t.Parallel()
	disks := []Disk{hdd("sda", 1000), hdd("sdb", 1000), hdd("sdc", 1000), hdd("sdd", 1000)}
	l, err := Plan(disks, "")
	require.NoError(t, err)
	for _, v := range l.VDevs {
		if v.Role == RoleStorage {
			assert.Equal(t, Mirror, v.Layout)
		}
	}
}

func TestPlanAutoChoosesRaidZ2ForManyDisks(t *testing.T) {
	t.Parallel()
	var disks []Disk
	for i := 0; i < 17; i++ {
		disks = append(disks, hdd(string(rune('a'+i)), 1000))
	}
	l, err := Plan(disks, "")
	require.NoError(t, err)
	require.Len(t, l.VDevs, 1)
	assert.Equal(t, RaidZ2, l.VDevs[0].Layout)
}

func TestPlanMirrorOddDiskCountLeavesSpare(t *testing.T) {
	t.Parallel()
	disks := []Disk{hdd("sda", 1000), hdd("sdb", 1000), hdd("sdc", 1000)}
	l, err := Plan(disks, Mirror)
	require.NoError(t, err)
	assert.Equal(t, []string{"sdc"}, l.Spares)
}

func TestPlanRaidZ2RequiresFourDisks(t *testing.T) {
	t.Parallel()
	disks := []Disk{hdd("sda", 1000), hdd("sdb", 1000), hdd("sdc", 1000)}
	_, err := Plan(disks, RaidZ2)
	assert.Error(t, err)
}

func TestPlanAssignsFirstFourSSDsAsSlogThenCache(t *testing.T) {
	t.Parallel()
	disks := []Disk{
		hdd("sda", 1000), hdd("sdb", 1000),
		ssd("nvme0", 500), ssd("nvme1", 500), ssd("nvme2", 500), ssd("nvme3", 500), ssd("nvme4", 500),
	}
	l, err := Plan(disks, Mirror)
	require.NoError(t, err)
	assert.Equal(t, []string{"nvme0"}, l.Logs)
	assert.Equal(t, []string{"nvme1", "nvme2", "nvme3"}, l.Cache)
	assert.Contains(t, l.Spares, "nvme4")
}

func TestPlanFromYAMLFixture(t *testing.T) {
	t.Parallel()
	fixtures := testutils.LoadDiskInventory(t, "testdata/mixed_inventory.yaml")
	var disks []Disk
	for _, f := range fixtures {
		disks = append(disks, Disk{
			Name: f.Name, VID: f.VID, PID: f.PID,
			Size: f.Size, Type: DiskType(f.Type),
			Removable: f.Removable, SolidState: f.SolidState,
		})
	}

	l, err := Plan(disks, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"nvme0"}, l.Logs)
	assert.Equal(t, []string{"nvme1"}, l.Cache)
	require.Len(t, l.VDevs, 4) // 2 mirror pairs over 4 HDDs + 1 slog vdev + 1 cache vdev
}

func TestBucketForSnapsWithinTolerance(t *testing.T) {
	t.Parallel()
	assert.Equal(t, uint64(1000), bucketFor(1000))
	assert.Equal(t, uint64(1000), bucketFor(1040)) // +4%, within 5%
	assert.NotEqual(t, uint64(1000), bucketFor(1100))
}
