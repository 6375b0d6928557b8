package mvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotAtReturnsGreatestCommitTimeAtOrBelow(t *testing.T) {
	s := New(map[int]int{1: 10}, []int{1})
	s.RecordCommit(5, map[int]int{1: 20})
	s.RecordCommit(10, map[int]int{1: 30})

	snap, ok := s.SnapshotAt(7)
	require.True(t, ok)
	assert.Equal(t, 5, snap.CommitTime)
	assert.Equal(t, 20, snap.Values[1])

	snap, ok = s.SnapshotAt(0)
	require.True(t, ok)
	assert.Equal(t, 0, snap.CommitTime)

	snap, ok = s.SnapshotAt(100)
	require.True(t, ok)
	assert.Equal(t, 10, snap.CommitTime)
}

func TestLatestReturnsMostRecentSnapshot(t *testing.T) {
	s := New(map[int]int{1: 10}, []int{1})
	s.RecordCommit(3, map[int]int{1: 40})

	assert.Equal(t, 3, s.Latest().CommitTime)
}

func TestContinuouslyUpAcrossOpenInterval(t *testing.T) {
	s := New(map[int]int{1: 10}, []int{1, 2})
	// Site 1 has been up since tick 0 and never went down.
	assert.True(t, s.ContinuouslyUp(1, 0, 100))
}

func TestContinuouslyUpFailsAcrossADowntime(t *testing.T) {
	s := New(map[int]int{1: 10}, []int{1})
	s.SiteDown(1, 5)
	s.SiteUp(1, 8)

	assert.False(t, s.ContinuouslyUp(1, 0, 10))
	assert.True(t, s.ContinuouslyUp(1, 8, 10))
}

func TestAnyContinuouslyUpAcrossMultipleSites(t *testing.T) {
	s := New(map[int]int{1: 10}, []int{1, 2})
	s.SiteDown(1, 2)

	assert.True(t, s.AnyContinuouslyUp([]int{1, 2}, 0, 10))
	assert.False(t, s.AnyContinuouslyUp([]int{1}, 0, 10))
}

func TestRecordCommitCopiesValuesSoLaterMutationDoesNotLeak(t *testing.T) {
	full := map[int]int{1: 10}
	s := New(map[int]int{1: 0}, []int{1})
	s.RecordCommit(1, full)
	full[1] = 999

	snap, ok := s.SnapshotAt(1)
	require.True(t, ok)
	assert.Equal(t, 10, snap.Values[1])
}
