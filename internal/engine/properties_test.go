package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPropertySourceLocalDefaultInherited(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	pool, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)
	child, err := e.CreateFilesystem("pool1/fs1/child", nil)
	require.NoError(t, err)

	v, source, err := child.GetProperty("atime")
	require.NoError(t, err)
	assert.Equal(t, "on", v)
	assert.Equal(t, "default", source)

	require.NoError(t, fs.SetProperty("atime", "off"))
	v, source, err = child.GetProperty("atime")
	require.NoError(t, err)
	assert.Equal(t, "off", v)
	assert.Equal(t, "inherited from pool1/fs1", source)

	require.NoError(t, child.SetProperty("atime", "on"))
	v, source, err = child.GetProperty("atime")
	require.NoError(t, err)
	assert.Equal(t, "on", v)
	assert.Equal(t, "local", source)

	_ = pool
}

func TestUnimplementedPropertyErrors(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)

	_, _, err = fs.GetProperty("dedup")
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, NotImplementedError, engErr.Kind)
}

func TestReadOnlyPropertyCannotBeSet(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)

	err = fs.SetProperty("guid", "1")
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, ReadOnlyPropertyError, engErr.Kind)
}

func TestCopiesBoundary(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)

	require.NoError(t, fs.SetProperty("copies", "1"))
	require.NoError(t, fs.SetProperty("copies", "3"))
	assert.Error(t, fs.SetProperty("copies", "0"))
	assert.Error(t, fs.SetProperty("copies", "4"))
}

func TestMountpointMustBeAbsoluteOrSpecial(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)

	require.NoError(t, fs.SetProperty("mountpoint", "none"))
	require.NoError(t, fs.SetProperty("mountpoint", "legacy"))
	require.NoError(t, fs.SetProperty("mountpoint", "/mnt/fs1"))
	assert.Error(t, fs.SetProperty("mountpoint", "relative/path"))
}

func TestQuotaHumanNumberParsing(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)

	require.NoError(t, fs.SetProperty("quota", "1g"))
	v, _, err := fs.GetProperty("quota")
	require.NoError(t, err)
	assert.Equal(t, "1000000000", v)

	require.NoError(t, fs.SetProperty("quota", "none"))
	v, _, err = fs.GetProperty("quota")
	require.NoError(t, err)
	assert.Equal(t, "none", v)

	assert.Error(t, fs.SetProperty("quota", "not-a-number"))
}

func TestQuotaOnlyAppliesToFilesystems(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	vol, err := e.CreateVolume("pool1/vol1", nil)
	require.NoError(t, err)

	err = vol.SetProperty("quota", "1g")
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, UnsupportedPropertyError, engErr.Kind)
}

func TestVolblocksizeOnlySettableAtCreation(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	vol, err := e.CreateVolume("pool1/vol1", nil)
	require.NoError(t, err)

	err = vol.SetProperty("volblocksize", "4096")
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, ReadOnlyPropertyError, engErr.Kind)
}

func TestComputeMountpointDefaultsToPathFromRoot(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)
	child, err := e.CreateFilesystem("pool1/fs1/child", nil)
	require.NoError(t, err)

	mp, _, err := child.GetProperty("mountpoint")
	require.NoError(t, err)
	assert.Equal(t, "/pool1/fs1/child", mp)

	require.NoError(t, fs.SetProperty("mountpoint", "/mnt/custom"))
	mp, _, err = child.GetProperty("mountpoint")
	require.NoError(t, err)
	assert.Equal(t, "/mnt/custom/child", mp)
}
