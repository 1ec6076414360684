package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)

	snap, err := fs.Snapshot("snap1")
	require.NoError(t, err)
	assert.Equal(t, "pool1/fs1@snap1", snap.FullName())
	assert.Equal(t, KindSnapshot, snap.Kind())

	_, err = fs.Snapshot("snap1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset already exists")
}

func TestSnapshotOfSnapshotFails(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)
	snap, err := fs.Snapshot("snap1")
	require.NoError(t, err)

	_, err = snap.Snapshot("snap2")
	assert.Error(t, err)
}

func TestSnapshotRecursiveIsAllOrNothing(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs1, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)
	fs2, err := e.CreateFilesystem("pool1/fs1/fs2", nil)
	require.NoError(t, err)

	// Pre-existing snapshot on fs2 collides with the recursive request, so
	// the whole batch must fail and fs1 must not get a snapshot either.
	_, err = fs2.Snapshot("snap1")
	require.NoError(t, err)

	_, err = fs1.SnapshotRecursive("snap1")
	require.Error(t, err)
	assert.Len(t, fs1.Snapshots(), 0, "fs1 must not have been snapshotted once the batch failed")
}

func TestSnapshotRecursiveSharesTxg(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs1, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)
	_, err = e.CreateFilesystem("pool1/fs1/fs2", nil)
	require.NoError(t, err)

	snaps, err := fs1.SnapshotRecursive("snap1")
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	txg0, _, err := snaps[0].GetProperty("createtxg")
	require.NoError(t, err)
	for _, s := range snaps[1:] {
		txg, _, err := s.GetProperty("createtxg")
		require.NoError(t, err)
		assert.Equal(t, txg0, txg)
	}
}
