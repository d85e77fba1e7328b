package changelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_AssignsSequentialVersions(t *testing.T) {
	l := New()
	a := l.Append(Change{Action: Add})
	b := l.Append(Change{Action: Update})

	assert.Equal(t, uint64(1), a.Version)
	assert.Equal(t, uint64(2), b.Version)
	assert.Equal(t, uint64(2), l.Version())
}

func TestSince_ReturnsTailAfterWatermark(t *testing.T) {
	l := New()
	l.Append(Change{Action: Add})
	l.Append(Change{Action: Update})
	l.Append(Change{Action: Delete})

	changes := l.Since(1)
	require.Len(t, changes, 2)
	assert.Equal(t, Update, changes[0].Action)
	assert.Equal(t, Delete, changes[1].Action)

	assert.Empty(t, l.Since(3))
}

func TestClear_PreservesVersionMonotonicity(t *testing.T) {
	l := New()
	l.Append(Change{Action: Add})
	l.Append(Change{Action: Update})
	l.Clear()

	assert.Nil(t, l.Since(0))

	l.Append(Change{Action: Delete})
	assert.Equal(t, uint64(3), l.Version())

	changes := l.Since(2)
	require.Len(t, changes, 1)
	assert.Equal(t, Delete, changes[0].Action)
	assert.Equal(t, uint64(3), changes[0].Version)
}
