package coordinator

import (
	"github.com/blr246/adbs-repcrec/internal/locktable"
	"github.com/blr246/adbs-repcrec/internal/site"
)

// attemptRead tries to complete R(tx, variable) for a read-write
// transaction right now. It returns true once the operation has
// resolved one way or another (succeeded, or the transaction died via
// wait-die); false means it is still blocked and should be retried
// later.
//
// Per spec.md section 4.4, the coordinator does not fan out to every
// replica: it walks hosting sites in deterministic order and commits to
// the first one that is both up and not stale, requesting a read lock
// there alone.
func (c *Coordinator) attemptRead(tx *transaction, variable int) bool {
	replicated := c.dir.IsReplicated(variable)
	for _, sid := range c.dir.SitesFor(variable) {
		s := c.sites[sid]
		if s.Status() == site.Down {
			continue
		}
		if replicated && s.IsStale(variable) {
			continue
		}

		res := s.ReadLock(tx.id, variable)
		switch res.Outcome {
		case site.Granted:
			value := s.ReadCommitted(variable)
			if pv, ok := s.PendingValue(tx.id, variable); ok {
				value = pv
			}
			c.markAccessed(tx, sid)
			tx.state = Active
			c.waits.ClearWaits(tx.id)
			c.log("R(T%d,x%d) -> %d (site %d)", tx.id, variable, value, sid)
			return true
		case site.Wait:
			return c.handleWaitDie(tx, res.Blockers, []int{sid}, variable, locktable.Shared)
		case site.RejectedDown, site.RejectedStale:
			continue
		}
	}
	// No site is both up and non-stale right now; wait for that to change.
	return false
}

// attemptWrite tries to complete W(tx, variable, value) right now: it
// requests a write lock on every up site hosting variable, needing all
// of them (section 4.4: "every up site", not "some up site", since a
// write must reach every live replica to keep them consistent once it
// commits).
func (c *Coordinator) attemptWrite(tx *transaction, variable, value int) bool {
	sites := c.dir.SitesFor(variable)

	var upSites []int
	var grantedSites []int
	var blockers []int
	var blockedSites []int

	for _, sid := range sites {
		s := c.sites[sid]
		if s.Status() == site.Down {
			continue
		}
		upSites = append(upSites, sid)

		res := s.WriteLock(tx.id, variable)
		if res.Outcome == site.Wait {
			blockers = append(blockers, res.Blockers...)
			blockedSites = append(blockedSites, sid)
			continue
		}
		// Granted: mark accessed now, even though the write may still be
		// blocked at another site, so an abort triggered by that other
		// site's wait-die outcome releases the lock this site already
		// handed out.
		grantedSites = append(grantedSites, sid)
		c.markAccessed(tx, sid)
	}

	if len(upSites) == 0 {
		return false
	}
	if len(blockers) > 0 {
		return c.handleWaitDie(tx, blockers, blockedSites, variable, locktable.Exclusive)
	}

	for _, sid := range grantedSites {
		c.sites[sid].BufferWrite(tx.id, variable, value)
	}
	tx.writes[variable] = value
	tx.state = Active
	c.waits.ClearWaits(tx.id)
	c.log("W(T%d,x%d,%d) buffered at sites %v", tx.id, variable, value, grantedSites)
	return true
}

// handleWaitDie applies wait-die to a transaction blocked by blockers
// holding a conflicting lock at one or more sites (blockedSites) on
// variable. The waiter survives (stays Blocked, and its wait edges are
// recorded at every site it is blocked on) if it is at least as old as
// the oldest blocker; it dies only if strictly younger. Ties (equal
// start_time) favor waiting, matching the original's should_die check.
func (c *Coordinator) handleWaitDie(tx *transaction, blockers, blockedSites []int, variable int, mode locktable.Mode) bool {
	oldestStart := -1
	oldestID := -1
	for _, b := range blockers {
		if b == tx.id {
			continue
		}
		other, ok := c.tx[b]
		if !ok {
			continue
		}
		if oldestID == -1 || other.startTime < oldestStart {
			oldestStart = other.startTime
			oldestID = b
		}
	}
	if oldestID == -1 {
		// Every blocker has already left the system; this is a transient
		// race that will resolve once the lock table catches up. Keep
		// waiting rather than guessing.
		return false
	}

	if tx.startTime <= oldestStart {
		c.waits.SetWaits(tx.id, blockers)
		for _, sid := range blockedSites {
			c.sites[sid].Enqueue(variable, tx.id, mode)
		}
		tx.state = Blocked
		return false
	}

	c.log("T%d dies on wait-die against T%d", tx.id, oldestID)
	c.abortTransaction(tx, ReasonWaitDie)
	return true
}

// readOnlyRead resolves R(tx, variable) for a read-only transaction,
// which never blocks: it reads tx's bound snapshot directly, aborting
// only if a replicated variable's value cannot be proven consistent
// (spec.md section 4.5).
func (c *Coordinator) readOnlyRead(tx *transaction, variable int) {
	value := tx.snapshot.Values[variable]
	if c.dir.IsReplicated(variable) {
		hosts := c.dir.SitesFor(variable)
		if !c.mv.AnyContinuouslyUp(hosts, tx.snapshot.CommitTime, tx.startTime) {
			c.log("R(T%d,x%d) aborts: no replica continuously up since t%d", tx.id, variable, tx.snapshot.CommitTime)
			c.abortTransaction(tx, ReasonUnavailableRead)
			return
		}
	}
	c.log("R(T%d,x%d) -> %d (snapshot t%d)", tx.id, variable, value, tx.snapshot.CommitTime)
}

// endReadWrite resolves end(tx) for a read-write transaction: commit
// unless some site it accessed has failed since its first access there.
func (c *Coordinator) endReadWrite(tx *transaction) {
	for sid := range tx.sitesAccessed {
		if c.siteFailGen[sid] != tx.accessGen[sid] {
			c.abortTransaction(tx, ReasonSiteDownAtCommit)
			return
		}
	}
	c.commitTransaction(tx)
}

// commitReadOnly resolves end(tx) for a read-only transaction: it
// always commits, since every read it performed already either
// succeeded against a provably valid snapshot or aborted the
// transaction on the spot.
func (c *Coordinator) commitReadOnly(tx *transaction) {
	tx.state = Committed
	c.commitLog = append(c.commitLog, LogEntry{TxID: tx.id, Status: StatusCommitted})
	c.log("T%d commits (read-only)", tx.id)
	delete(c.tx, tx.id)
}

func (c *Coordinator) commitTransaction(tx *transaction) {
	for sid := range tx.sitesAccessed {
		grants := c.sites[sid].Commit(tx.id)
		c.processGrants(grants)
	}
	tx.state = Committed
	c.commitLog = append(c.commitLog, LogEntry{TxID: tx.id, Status: StatusCommitted})
	c.log("T%d commits", tx.id)

	full := c.mv.Latest().Values
	merged := make(map[int]int, len(full))
	for v, val := range full {
		merged[v] = val
	}
	for v, val := range tx.writes {
		merged[v] = val
	}
	c.mv.RecordCommit(c.tick, merged)

	c.waits.ClearWaits(tx.id)
	delete(c.tx, tx.id)
}

func (c *Coordinator) abortTransaction(tx *transaction, reason Reason) {
	if tx.kind == ReadWrite {
		for sid := range tx.sitesAccessed {
			grants := c.sites[sid].Abort(tx.id)
			c.processGrants(grants)
		}
	}
	tx.state = Aborted
	c.commitLog = append(c.commitLog, LogEntry{TxID: tx.id, Status: StatusAborted, Reason: reason})
	c.log("T%d aborts (%s)", tx.id, reason)
	c.waits.ClearWaits(tx.id)
	delete(c.tx, tx.id)
}
