// Package mvstore implements the MultiversionStore: an append-only,
// time-indexed log of committed full-database snapshots, plus the
// per-site uptime history needed to decide whether a replicated
// variable's read-only snapshot value is still valid (spec.md sections
// 3 and 4.5, and the Design Notes' suggested (commit_time,
// up_interval_start) representation).
package mvstore

import "github.com/google/btree"

// Snapshot is the full committed state of the database as of CommitTime.
type Snapshot struct {
	CommitTime int
	Values     map[int]int
}

type snapshotItem struct {
	commitTime int
	values     map[int]int
}

func (a snapshotItem) Less(than btree.Item) bool {
	return a.commitTime < than.(snapshotItem).commitTime
}

// interval is one maximal stretch during which a site was continuously
// up: [start, end). end of -1 means the site is still up.
type interval struct {
	start int
	end   int
}

const openEnded = -1

// Store is the MultiversionStore: committed snapshots indexed by
// commit_time, and per-site uptime intervals.
type Store struct {
	snapshots *btree.BTree
	uptime    map[int][]interval // site id -> its uptime intervals, in order
}

// New returns a Store seeded with an initial snapshot at tick 0 (the
// defaults installed before any transaction runs) and every site marked
// up since tick 0.
func New(initial map[int]int, siteIDs []int) *Store {
	s := &Store{
		snapshots: btree.New(8),
		uptime:    make(map[int][]interval, len(siteIDs)),
	}
	s.RecordCommit(0, initial)
	for _, id := range siteIDs {
		s.SiteUp(id, 0)
	}
	return s
}

// RecordCommit appends a new snapshot. full must be the complete
// post-commit state of every variable in the database, not a diff.
func (s *Store) RecordCommit(commitTime int, full map[int]int) {
	values := make(map[int]int, len(full))
	for v, val := range full {
		values[v] = val
	}
	s.snapshots.ReplaceOrInsert(snapshotItem{commitTime: commitTime, values: values})
}

// SnapshotAt returns the snapshot with the greatest commit_time <= t.
func (s *Store) SnapshotAt(t int) (Snapshot, bool) {
	var found snapshotItem
	ok := false
	s.snapshots.DescendLessOrEqual(snapshotItem{commitTime: t}, func(i btree.Item) bool {
		found = i.(snapshotItem)
		ok = true
		return false
	})
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{CommitTime: found.commitTime, Values: found.values}, true
}

// Latest returns the most recently recorded snapshot.
func (s *Store) Latest() Snapshot {
	i := s.snapshots.Max()
	item := i.(snapshotItem)
	return Snapshot{CommitTime: item.commitTime, Values: item.values}
}

// SiteUp records that siteID became reachable at tick, opening a new
// uptime interval.
func (s *Store) SiteUp(siteID, tick int) {
	s.uptime[siteID] = append(s.uptime[siteID], interval{start: tick, end: openEnded})
}

// SiteDown records that siteID stopped being reachable at tick, closing
// its current open uptime interval.
func (s *Store) SiteDown(siteID, tick int) {
	ivs := s.uptime[siteID]
	if len(ivs) == 0 {
		return
	}
	last := &ivs[len(ivs)-1]
	if last.end == openEnded {
		last.end = tick
	}
}

// ContinuouslyUp reports whether siteID was up, without interruption,
// throughout the entire tick range [from, to].
func (s *Store) ContinuouslyUp(siteID, from, to int) bool {
	for _, iv := range s.uptime[siteID] {
		if iv.start <= from && (iv.end == openEnded || iv.end > to) {
			return true
		}
	}
	return false
}

// AnyContinuouslyUp reports whether at least one of siteIDs was
// continuously up throughout [from, to].
func (s *Store) AnyContinuouslyUp(siteIDs []int, from, to int) bool {
	for _, id := range siteIDs {
		if s.ContinuouslyUp(id, from, to) {
			return true
		}
	}
	return false
}
