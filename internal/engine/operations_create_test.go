package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	var n uint64
	return New(WithGUIDGenerator(func() uint64 { n++; return n }))
}

func TestCreatePool(t *testing.T) {
	t.Parallel()
	e := newTestEngine()

	pool, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	assert.Equal(t, "pool1", pool.FullName())
	assert.Equal(t, KindFilesystem, pool.Kind())
	assert.Equal(t, StateActive, pool.State())

	_, err = e.CreatePool("pool1", nil)
	assert.Error(t, err, "duplicate pool creation must fail")
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, DatasetExistsError, engErr.Kind)
}

func TestCreatePoolRejectsSlashOrAt(t *testing.T) {
	t.Parallel()
	e := newTestEngine()

	_, err := e.CreatePool("pool1/fs", nil)
	assert.Error(t, err)
	_, err = e.CreatePool("pool1@snap", nil)
	assert.Error(t, err)
}

func TestCreateFilesystem(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)

	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)
	assert.Equal(t, "pool1/fs1", fs.FullName())
	assert.Equal(t, "pool1", fs.Parent().FullName())
}

func TestCreateFilesystemMissingParent(t *testing.T) {
	t.Parallel()
	e := newTestEngine()

	_, err := e.CreateFilesystem("nosuchpool", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing dataset name")

	_, err = e.CreateFilesystem("nosuchpool/foo", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent does not exist")
}

func TestCreateVolumeDefaultsVolblocksize(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)

	vol, err := e.CreateVolume("pool1/vol1", nil)
	require.NoError(t, err)
	assert.Equal(t, KindVolume, vol.Kind())
	v, _, err := vol.GetProperty("volblocksize")
	require.NoError(t, err)
	assert.Equal(t, "8192", v)
}

func TestCreateVolumeRejectsTopLevel(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)

	_, err = e.CreateVolume("myvol", nil)
	require.Error(t, err, "a volume's parent must be a filesystem, never the pools root")
	assert.Contains(t, err.Error(), "missing dataset name")
}

func TestCreateDuplicateSibling(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	_, err = e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)

	_, err = e.CreateFilesystem("pool1/fs1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset already exists")
}
