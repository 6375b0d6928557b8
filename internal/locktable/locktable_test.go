package locktable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcquireUncontended(t *testing.T) {
	tbl := New()
	res := tbl.Acquire(1, 10, Shared)
	assert.True(t, res.Granted)
}

func TestSharedLocksCoexist(t *testing.T) {
	tbl := New()
	assert.True(t, tbl.Acquire(1, 10, Shared).Granted)
	assert.True(t, tbl.Acquire(1, 20, Shared).Granted)
}

func TestExclusiveBlocksShared(t *testing.T) {
	tbl := New()
	assert.True(t, tbl.Acquire(1, 10, Exclusive).Granted)

	res := tbl.Acquire(1, 20, Shared)
	assert.False(t, res.Granted)
	assert.ElementsMatch(t, []int{10}, res.Blockers)
}

func TestSharedBlocksExclusive(t *testing.T) {
	tbl := New()
	assert.True(t, tbl.Acquire(1, 10, Shared).Granted)

	res := tbl.Acquire(1, 20, Exclusive)
	assert.False(t, res.Granted)
	assert.ElementsMatch(t, []int{10}, res.Blockers)
}

func TestSoleSharedHolderUpgradesToExclusive(t *testing.T) {
	tbl := New()
	assert.True(t, tbl.Acquire(1, 10, Shared).Granted)

	res := tbl.Acquire(1, 10, Exclusive)
	assert.True(t, res.Granted)
}

func TestUpgradeBlockedByOtherSharedHolders(t *testing.T) {
	tbl := New()
	assert.True(t, tbl.Acquire(1, 10, Shared).Granted)
	assert.True(t, tbl.Acquire(1, 20, Shared).Granted)

	res := tbl.Acquire(1, 10, Exclusive)
	assert.False(t, res.Granted)
	assert.ElementsMatch(t, []int{20}, res.Blockers)
}

func TestReacquireSameModeIsIdempotent(t *testing.T) {
	tbl := New()
	assert.True(t, tbl.Acquire(1, 10, Exclusive).Granted)
	assert.True(t, tbl.Acquire(1, 10, Exclusive).Granted)
}

func TestReleaseGrantsExclusiveHeadOfQueue(t *testing.T) {
	tbl := New()
	tbl.Acquire(1, 10, Exclusive)
	tbl.Enqueue(1, 20, Exclusive)

	grants := tbl.Release(10)
	if assert.Len(t, grants, 1) {
		assert.Equal(t, Grant{Variable: 1, Tx: 20, Mode: Exclusive}, grants[0])
	}
}

func TestReleaseGrantsContiguousSharedReadsTogether(t *testing.T) {
	tbl := New()
	tbl.Acquire(1, 10, Exclusive)
	tbl.Enqueue(1, 20, Shared)
	tbl.Enqueue(1, 30, Shared)
	tbl.Enqueue(1, 40, Exclusive)

	grants := tbl.Release(10)
	assert.Len(t, grants, 2)

	got := map[int]bool{}
	for _, g := range grants {
		got[g.Tx] = true
		assert.Equal(t, Shared, g.Mode)
	}
	assert.True(t, got[20])
	assert.True(t, got[30])

	// The queued exclusive request (T40) behind the reads was not granted,
	// and a fresh exclusive request cannot be granted while the shared
	// holders are active.
	res := tbl.Acquire(1, 50, Exclusive)
	assert.False(t, res.Granted)
}

func TestQueueHeadWriteBlocksLaterReadsFromJumpingAhead(t *testing.T) {
	tbl := New()
	tbl.Acquire(1, 10, Exclusive)
	tbl.Enqueue(1, 20, Exclusive)
	tbl.Enqueue(1, 30, Shared)

	grants := tbl.Release(10)
	if assert.Len(t, grants, 1) {
		assert.Equal(t, 20, grants[0].Tx)
	}
}

func TestResetDropsLocksAndQueue(t *testing.T) {
	tbl := New()
	tbl.Acquire(1, 10, Exclusive)
	tbl.Enqueue(1, 20, Exclusive)

	tbl.Reset()

	res := tbl.Acquire(1, 20, Exclusive)
	assert.True(t, res.Granted)
}

func TestEnqueueDeduplicatesSameTransaction(t *testing.T) {
	tbl := New()
	tbl.Acquire(1, 10, Exclusive)
	tbl.Enqueue(1, 20, Shared)
	tbl.Enqueue(1, 20, Shared)

	grants := tbl.Release(10)
	assert.Len(t, grants, 1)
}
