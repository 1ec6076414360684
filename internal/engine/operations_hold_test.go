package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldReleaseRoundTrip(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	snap := setupSnapshot(t, e)

	require.NoError(t, snap.Hold("tag1"))
	holds, err := snap.Holds()
	require.NoError(t, err)
	assert.Contains(t, holds, "tag1")

	require.NoError(t, snap.Release("tag1"))
	holds, err = snap.Holds()
	require.NoError(t, err)
	assert.NotContains(t, holds, "tag1")
}

func TestHoldDuplicateTagFails(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	snap := setupSnapshot(t, e)

	require.NoError(t, snap.Hold("tag1"))
	err := snap.Hold("tag1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestReleaseMissingTagFails(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	snap := setupSnapshot(t, e)

	err := snap.Release("nosuchtag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such tag")
}

func TestHoldOnlyAppliesToSnapshots(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)

	err = fs.Hold("tag1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a snapshot")
}

func TestHoldRecursiveIsAllOrNothing(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs1, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)
	fs2, err := e.CreateFilesystem("pool1/fs1/fs2", nil)
	require.NoError(t, err)
	snap1, err := fs1.Snapshot("snap1")
	require.NoError(t, err)
	snap2, err := fs2.Snapshot("snap1")
	require.NoError(t, err)

	require.NoError(t, snap2.Hold("tag1"))

	err = snap1.Hold("tag1", WithRecursive())
	require.Error(t, err, "snap2 already has tag1, so the whole recursive batch must fail")
	holds, err := snap1.Holds()
	require.NoError(t, err)
	assert.NotContains(t, holds, "tag1", "snap1 must not have been tagged once the batch failed")
}

func TestHoldRecursiveTagsEverySameNamedSnapshot(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs1, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)
	fs2, err := e.CreateFilesystem("pool1/fs1/fs2", nil)
	require.NoError(t, err)
	snap1, err := fs1.Snapshot("snap1")
	require.NoError(t, err)
	snap2, err := fs2.Snapshot("snap1")
	require.NoError(t, err)

	require.NoError(t, snap1.Hold("tag1", WithRecursive()))
	holds1, err := snap1.Holds()
	require.NoError(t, err)
	holds2, err := snap2.Holds()
	require.NoError(t, err)
	assert.Contains(t, holds1, "tag1")
	assert.Contains(t, holds2, "tag1")
}

// TestReleaseRecursiveMissingTagPanics documents a preserved quirk: the
// non-recursive release path reports a missing tag as a normal error, but
// the recursive path's do-phase treats it as a fatal assertion instead.
// Not fixed here.
func TestReleaseRecursiveMissingTagPanics(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	_, err := e.CreatePool("pool1", nil)
	require.NoError(t, err)
	fs1, err := e.CreateFilesystem("pool1/fs1", nil)
	require.NoError(t, err)
	fs2, err := e.CreateFilesystem("pool1/fs1/fs2", nil)
	require.NoError(t, err)
	snap1, err := fs1.Snapshot("snap1")
	require.NoError(t, err)
	_, err = fs2.Snapshot("snap1")
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = snap1.Release("tag-never-held", WithRecursive())
	})
}
