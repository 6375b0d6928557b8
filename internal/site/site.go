// Package site implements a single logical site: a durable store, a lock
// table, and the up/down/post-recovery-stale status machinery spec.md
// section 4.2 describes. Sites know nothing about other sites, the
// directory, or transaction wait-die priority; the coordinator composes
// those concerns on top.
package site

import (
	"sort"

	"github.com/blr246/adbs-repcrec/internal/durable"
	"github.com/blr246/adbs-repcrec/internal/locktable"
)

// Status is whether a site is currently serving requests.
type Status int

const (
	Up Status = iota
	Down
)

// Outcome classifies the result of a lock or read attempt.
type Outcome int

const (
	// Granted means the request succeeded immediately.
	Granted Outcome = iota
	// Wait means the request conflicts with current holders and should
	// be retried once they release (possibly after the caller decides,
	// via wait-die, whether to actually wait or abort).
	Wait
	// RejectedStale means the site is up but holds a stale replica of a
	// replicated variable (it has not yet observed a write since its
	// last recovery).
	RejectedStale
	// RejectedDown means the site is not currently serving requests.
	RejectedDown
)

// LockResult is the outcome of a read_lock/write_lock attempt.
type LockResult struct {
	Outcome  Outcome
	Blockers []int // holder transaction ids, populated when Outcome == Wait
}

// Site is one logical site: its lock table, its durable store, and its
// failure/recovery/staleness state.
type Site struct {
	id         int
	store      durable.Store
	locks      *locktable.Table
	replicated map[int]bool // hosted variable -> whether it is a replicated variable
	status     Status
	stale      map[int]bool        // replicated variables whose copy here predates the last recovery
	pending    map[int]map[int]int // tx -> variable -> buffered (uncommitted) write value
}

// New builds a site. hosted lists the variables this site stores;
// replicated reports, for each such variable, whether it is replicated
// (and therefore subject to the staleness rule) as opposed to
// single-sited.
func New(id int, hosted []int, isReplicated func(variable int) bool, store durable.Store) *Site {
	replicated := make(map[int]bool, len(hosted))
	for _, v := range hosted {
		replicated[v] = isReplicated(v)
	}
	return &Site{
		id:         id,
		store:      store,
		locks:      locktable.New(),
		replicated: replicated,
		status:     Up,
		stale:      make(map[int]bool),
		pending:    make(map[int]map[int]int),
	}
}

// ID is this site's id.
func (s *Site) ID() int { return s.id }

// Status reports whether the site is currently up.
func (s *Site) Status() Status { return s.status }

// Hosts reports whether this site stores a copy of variable.
func (s *Site) Hosts(variable int) bool {
	_, ok := s.replicated[variable]
	return ok
}

// IsStale reports whether variable (which must be replicated and
// hosted here) still carries a pre-recovery value, unseen by any
// commit since this site last came back up.
func (s *Site) IsStale(variable int) bool {
	return s.stale[variable]
}

// ReadLock attempts to acquire a shared lock on variable for tx. It
// fails fast with RejectedDown/RejectedStale without touching the lock
// table at all; callers are expected to have already decided (per
// spec.md section 4.4) that this is the one site they want to try.
func (s *Site) ReadLock(tx, variable int) LockResult {
	if s.status == Down {
		return LockResult{Outcome: RejectedDown}
	}
	if s.replicated[variable] && s.stale[variable] {
		return LockResult{Outcome: RejectedStale}
	}
	res := s.locks.Acquire(variable, tx, locktable.Shared)
	if res.Granted {
		return LockResult{Outcome: Granted}
	}
	return LockResult{Outcome: Wait, Blockers: res.Blockers}
}

// WriteLock attempts to acquire an exclusive lock on variable for tx.
// Staleness never blocks a write: a write does not need to read the
// old value.
func (s *Site) WriteLock(tx, variable int) LockResult {
	if s.status == Down {
		return LockResult{Outcome: RejectedDown}
	}
	res := s.locks.Acquire(variable, tx, locktable.Exclusive)
	if res.Granted {
		return LockResult{Outcome: Granted}
	}
	return LockResult{Outcome: Wait, Blockers: res.Blockers}
}

// Enqueue places tx's request for variable at the tail of the wait
// queue, once the caller (via wait-die) has decided to actually wait.
func (s *Site) Enqueue(variable, tx int, mode locktable.Mode) {
	s.locks.Enqueue(variable, tx, mode)
}

// ReadCommitted returns the last committed value of variable, ignoring
// any uncommitted buffered write by tx. Use PendingValue first to
// implement read-your-writes.
func (s *Site) ReadCommitted(variable int) int {
	return s.store.Get(variable)
}

// PendingValue returns tx's own buffered write to variable, if any.
func (s *Site) PendingValue(tx, variable int) (int, bool) {
	byVar, ok := s.pending[tx]
	if !ok {
		return 0, false
	}
	v, ok := byVar[variable]
	return v, ok
}

// BufferWrite stages value for variable under tx, uncommitted. It does
// not touch the lock table; the caller must already hold the write
// lock.
func (s *Site) BufferWrite(tx, variable, value int) {
	byVar, ok := s.pending[tx]
	if !ok {
		byVar = make(map[int]int)
		s.pending[tx] = byVar
	}
	byVar[variable] = value
}

// Commit flushes tx's buffered writes to the durable store, clears any
// staleness they cure, releases every lock tx holds here, and returns
// the resulting queue grants.
func (s *Site) Commit(tx int) []locktable.Grant {
	for variable, value := range s.pending[tx] {
		s.store.Set(variable, value)
		delete(s.stale, variable)
	}
	delete(s.pending, tx)
	return s.locks.Release(tx)
}

// Abort discards tx's buffered writes, releases every lock tx holds
// here, and returns the resulting queue grants.
func (s *Site) Abort(tx int) []locktable.Grant {
	delete(s.pending, tx)
	return s.locks.Release(tx)
}

// Fail takes the site down: every lock and queued request is dropped
// (a lock held on a down site is worthless; no transaction can act on
// it until it recovers), but the durable store and staleness set are
// untouched.
func (s *Site) Fail() {
	s.status = Down
	s.locks.Reset()
	s.pending = make(map[int]map[int]int)
}

// Recover brings the site back up. Every replicated variable it hosts
// becomes stale until the first write commits there; single-sited
// variables are never stale, since there is no other replica to have
// drifted from.
func (s *Site) Recover() {
	s.status = Up
	for variable, isReplicated := range s.replicated {
		if isReplicated {
			s.stale[variable] = true
		}
	}
}

// CommittedSnapshot returns a copy of every variable this site hosts
// mapped to its last committed value, for dump().
func (s *Site) CommittedSnapshot() map[int]int {
	full := s.store.Snapshot()
	out := make(map[int]int, len(s.replicated))
	for v := range s.replicated {
		out[v] = full[v]
	}
	return out
}

// HostedVariables returns the ids this site hosts, in ascending order.
func (s *Site) HostedVariables() []int {
	vars := make([]int, 0, len(s.replicated))
	for v := range s.replicated {
		vars = append(vars, v)
	}
	sort.Ints(vars)
	return vars
}
