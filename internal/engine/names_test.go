package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamecheck(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		name    string
		wantErr bool
	}{
		"simple name accepted":             {name: "foo"},
		"name with allowed punctuation":    {name: "foo-bar_baz.qux:1 2"},
		"empty rejected":                   {name: "", wantErr: true},
		"255 bytes accepted":               {name: strings.Repeat("a", 255)},
		"256 bytes rejected":               {name: strings.Repeat("a", 256), wantErr: true},
		"slash rejected (path separator)":  {name: "foo/bar", wantErr: true},
		"at sign rejected (snap delimiter)": {name: "foo@bar", wantErr: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := namecheck(tc.name)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPoolname(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pool1", poolname("pool1/fs/child"))
	assert.Equal(t, "pool1", poolname("pool1@snap"))
	assert.Equal(t, "pool1", poolname("pool1"))
}

func TestSplitSnap(t *testing.T) {
	t.Parallel()

	base, snap, has := splitSnap("pool1/fs@snap1")
	assert.True(t, has)
	assert.Equal(t, "pool1/fs", base)
	assert.Equal(t, "snap1", snap)

	base, snap, has = splitSnap("pool1/fs")
	assert.False(t, has)
	assert.Equal(t, "pool1/fs", base)
	assert.Equal(t, "", snap)
}
