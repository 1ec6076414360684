package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountUnmountRoundTrip(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)

	require.NoError(t, fs.Unmount())
	assert.False(t, fs.Mounted())
	require.NoError(t, fs.Mount())
	assert.True(t, fs.Mounted())
}

func TestMountVolumeFails(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	vol, err := e.CreateVolume("pool1/vol1", nil)
	require.NoError(t, err)

	err = vol.Mount()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a filesystem")
}

func TestMountCanmountOffFails(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)
	require.NoError(t, fs.Unmount())
	require.NoError(t, fs.SetProperty("canmount", "off"))

	err = fs.Mount()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canmount is off")
}

func TestUnmountBusyWithSubmountFails(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs1, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)
	_, err = e.CreateFilesystem("pool1/fs1/fs2", nil)
	require.NoError(t, err)

	err = fs1.Unmount()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mounted beneath it")
}

func TestSetMountpointRemountsOnlyPreviouslyMountedChildren(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs1, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)
	fs2, err := e.CreateFilesystem("pool1/fs1/fs2", nil)
	require.NoError(t, err)
	require.NoError(t, fs2.Unmount())

	require.NoError(t, fs1.SetProperty("mountpoint", "/mnt/fs1"))

	assert.True(t, fs1.Mounted())
	assert.False(t, fs2.Mounted(), "fs2 was unmounted before the mountpoint change and must stay unmounted")

	mp, _, err := fs1.GetProperty("mountpoint")
	require.NoError(t, err)
	assert.Equal(t, "/mnt/fs1", mp)
}
