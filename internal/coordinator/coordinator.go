// Package coordinator implements the TransactionManager: the single
// cooperative scheduler that dispatches begin/beginRO/R/W/end/fail/recover
// commands against a SiteDirectory and its Sites, applying strict 2PL
// with wait-die deadlock avoidance for read-write transactions and
// multiversion snapshot reads for read-only ones (spec.md sections 4.4
// through 4.8).
//
// There are no goroutines and no locks here beyond the ones the Sites
// themselves manage: "concurrency" is the interleaving of operations
// from distinct transactions in the command stream, and an operation
// that cannot complete yet is parked rather than blocking a thread.
package coordinator

import (
	"fmt"

	"github.com/blr246/adbs-repcrec/internal/durable"
	"github.com/blr246/adbs-repcrec/internal/locktable"
	"github.com/blr246/adbs-repcrec/internal/logutil"
	"github.com/blr246/adbs-repcrec/internal/mvstore"
	"github.com/blr246/adbs-repcrec/internal/site"
	"github.com/blr246/adbs-repcrec/internal/sitedir"
	"github.com/blr246/adbs-repcrec/internal/waitgraph"
)

// EndStatus is how a transaction left the system.
type EndStatus int

const (
	StatusCommitted EndStatus = iota
	StatusAborted
)

// Reason names why a transaction aborted, for logging and for the
// assertion harness in internal/script.
type Reason string

const (
	ReasonWaitDie          Reason = "wait-die"
	ReasonSiteDownAtCommit Reason = "site down since first access"
	ReasonUnavailableRead  Reason = "no replica continuously up since commit"
)

// LogEntry is one record in the coordinator's commit/abort log.
type LogEntry struct {
	TxID   int
	Status EndStatus
	Reason Reason // empty when Status == StatusCommitted
}

// parkedOp is a suspended operation waiting to be retried. retry
// reports whether the operation resolved (committed, aborted, or
// succeeded) this attempt; it is never called again after it returns
// true.
type parkedOp struct {
	tx    *transaction
	label string
	retry func() bool
}

// Coordinator is the TransactionManager.
type Coordinator struct {
	dir   *sitedir.Directory
	sites map[int]*site.Site

	tick int

	tx          map[int]*transaction
	waits       *waitgraph.Graph
	mv          *mvstore.Store
	siteFailGen map[int]int // site id -> number of times it has failed so far

	readyQueue []*parkedOp
	commitLog  []LogEntry
}

// StoreFactory builds the durable.Store for one site, given the
// variables it hosts and their default values.
type StoreFactory func(siteID int, defaults map[int]int) (durable.Store, error)

// MemStoreFactory is the default StoreFactory: every site runs fully
// in memory.
func MemStoreFactory(_ int, defaults map[int]int) (durable.Store, error) {
	return durable.NewMemStore(defaults), nil
}

// New builds a Coordinator over dir, constructing one Site per site id
// in dir via newStore.
func New(dir *sitedir.Directory, newStore StoreFactory) (*Coordinator, error) {
	c := &Coordinator{
		dir:         dir,
		sites:       make(map[int]*site.Site, dir.SiteCount()),
		tx:          make(map[int]*transaction),
		waits:       waitgraph.New(),
		siteFailGen: make(map[int]int, dir.SiteCount()),
	}

	initial := make(map[int]int, dir.VarCount())
	for _, v := range dir.Variables() {
		initial[v] = dir.DefaultValue(v)
	}

	for _, id := range dir.Sites() {
		hosted := dir.VariablesAt(id)
		defaults := make(map[int]int, len(hosted))
		for _, v := range hosted {
			defaults[v] = dir.DefaultValue(v)
		}
		store, err := newStore(id, defaults)
		if err != nil {
			return nil, err
		}
		c.sites[id] = site.New(id, hosted, dir.IsReplicated, store)
	}

	c.mv = mvstore.New(initial, dir.Sites())
	return c, nil
}

func (c *Coordinator) log(format string, args ...interface{}) {
	logutil.Infof("t%d: %s", c.tick, fmt.Sprintf(format, args...))
}

func (c *Coordinator) active(txID int) (*transaction, error) {
	tx, ok := c.tx[txID]
	if !ok {
		return nil, newInputError("T%d is not an active transaction", txID)
	}
	if tx.state == Blocked {
		return nil, newInputError("T%d already has an operation pending", txID)
	}
	return tx, nil
}

// Begin starts a new read-write transaction.
func (c *Coordinator) Begin(txID int) error {
	c.tick++
	if _, exists := c.tx[txID]; exists {
		return newInputError("T%d is already active", txID)
	}
	c.tx[txID] = newReadWrite(txID, c.tick)
	c.log("T%d begins", txID)
	c.drainReady()
	return nil
}

// BeginRO starts a new read-only transaction, binding it to the latest
// snapshot at or before the current tick.
func (c *Coordinator) BeginRO(txID int) error {
	c.tick++
	if _, exists := c.tx[txID]; exists {
		return newInputError("T%d is already active", txID)
	}
	snap, ok := c.mv.SnapshotAt(c.tick)
	if !ok {
		snap = c.mv.Latest()
	}
	c.tx[txID] = newReadOnly(txID, c.tick, snap)
	c.log("T%d begins read-only at snapshot t%d", txID, snap.CommitTime)
	c.drainReady()
	return nil
}

// Read issues R(txID, variable). It resolves synchronously for
// read-only transactions (always, per spec.md section 4.5) and may park
// for read-write ones.
func (c *Coordinator) Read(txID, variable int) error {
	c.tick++
	tx, err := c.active(txID)
	if err != nil {
		return err
	}
	if !c.dir.ValidVariable(variable) {
		return newInputError("x%d is not a valid variable", variable)
	}

	if tx.kind == ReadOnly {
		c.readOnlyRead(tx, variable)
		c.drainReady()
		return nil
	}

	if !c.attemptRead(tx, variable) {
		c.park(tx, fmt.Sprintf("R(T%d,x%d)", txID, variable), func() bool {
			return c.attemptRead(tx, variable)
		})
	}
	c.drainReady()
	return nil
}

// Write issues W(txID, variable, value). Only valid for read-write
// transactions.
func (c *Coordinator) Write(txID, variable, value int) error {
	c.tick++
	tx, err := c.active(txID)
	if err != nil {
		return err
	}
	if tx.kind == ReadOnly {
		return newInputError("T%d is read-only and cannot write", txID)
	}
	if !c.dir.ValidVariable(variable) {
		return newInputError("x%d is not a valid variable", variable)
	}

	if !c.attemptWrite(tx, variable, value) {
		c.park(tx, fmt.Sprintf("W(T%d,x%d,%d)", txID, variable, value), func() bool {
			return c.attemptWrite(tx, variable, value)
		})
	}
	c.drainReady()
	return nil
}

// End issues end(txID): commit for a read-write transaction whose
// every accessed site has stayed up since first access, abort
// otherwise; always commit for a read-only transaction.
func (c *Coordinator) End(txID int) error {
	c.tick++
	tx, err := c.active(txID)
	if err != nil {
		return err
	}
	if tx.kind == ReadOnly {
		c.commitReadOnly(tx)
	} else {
		c.endReadWrite(tx)
	}
	c.drainReady()
	return nil
}

// Fail takes siteID down.
func (c *Coordinator) Fail(siteID int) error {
	c.tick++
	s, ok := c.sites[siteID]
	if !ok {
		return newInputError("site %d does not exist", siteID)
	}
	s.Fail()
	c.siteFailGen[siteID]++
	c.mv.SiteDown(siteID, c.tick)
	c.log("site %d fails", siteID)
	c.drainReady()
	return nil
}

// Recover brings siteID back up.
func (c *Coordinator) Recover(siteID int) error {
	c.tick++
	s, ok := c.sites[siteID]
	if !ok {
		return newInputError("site %d does not exist", siteID)
	}
	s.Recover()
	c.mv.SiteUp(siteID, c.tick)
	c.log("site %d recovers", siteID)
	c.drainReady()
	return nil
}

// CommitAbortLog returns a copy of every commit/abort decision made so
// far, in the order they occurred.
func (c *Coordinator) CommitAbortLog() []LogEntry {
	out := make([]LogEntry, len(c.commitLog))
	copy(out, c.commitLog)
	return out
}

func (c *Coordinator) markAccessed(tx *transaction, siteID int) {
	if !tx.sitesAccessed[siteID] {
		tx.sitesAccessed[siteID] = true
		tx.accessGen[siteID] = c.siteFailGen[siteID]
	}
}

func (c *Coordinator) park(tx *transaction, label string, retry func() bool) {
	tx.state = Blocked
	c.log("%s parks", label)
	c.readyQueue = append(c.readyQueue, &parkedOp{tx: tx, label: label, retry: retry})
}

// drainReady retries every parked operation, in parking order, looping
// until a full pass makes no progress. This is what gives parked
// operations across different transactions a total, deterministic wake
// order (spec.md section 5's ordering guarantee) without needing a
// per-condition index of who is waiting on what.
func (c *Coordinator) drainReady() {
	for {
		progressed := false
		for i := 0; i < len(c.readyQueue); {
			op := c.readyQueue[i]
			if op.retry() {
				c.readyQueue = append(c.readyQueue[:i], c.readyQueue[i+1:]...)
				progressed = true
				continue
			}
			i++
		}
		if !progressed {
			return
		}
	}
}

func (c *Coordinator) processGrants(grants []locktable.Grant) {
	// Grants mutate lock-table state directly; the parked operation that
	// now qualifies will observe it next time drainReady retries it. No
	// further bookkeeping is needed here.
	_ = grants
}
