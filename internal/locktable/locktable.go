// Package locktable implements the per-site lock table: a shared/exclusive
// lock per variable plus a FIFO queue of pending requests, with the
// wake-up discipline spec.md section 4.3 requires (a write request at the
// head of the queue is granted only once no lock is held; contiguous read
// requests at the head are granted together).
package locktable

// Mode is the lock mode a request asks for.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

type request struct {
	tx   int
	mode Mode
}

type entry struct {
	holders map[int]Mode
	queue   []request
}

func newEntry() *entry {
	return &entry{holders: make(map[int]Mode)}
}

// Table is a site's lock table, one entry lazily created per variable.
type Table struct {
	entries map[int]*entry
}

// New returns an empty Table.
func New() *Table {
	return &Table{entries: make(map[int]*entry)}
}

func (t *Table) entryFor(variable int) *entry {
	e, ok := t.entries[variable]
	if !ok {
		e = newEntry()
		t.entries[variable] = e
	}
	return e
}

// AcquireResult reports the outcome of a non-queued lock attempt.
type AcquireResult struct {
	Granted  bool
	Blockers []int // current holders conflicting with the request, when !Granted
}

// Acquire attempts to grant tx a lock of mode on variable immediately,
// without enqueuing the request if it cannot be granted. A transaction
// that already holds a compatible or stronger lock is re-granted at
// once; one holding Shared that requests Exclusive is upgraded if it is
// the sole holder.
func (t *Table) Acquire(variable, tx int, mode Mode) AcquireResult {
	e := t.entryFor(variable)

	if existing, ok := e.holders[tx]; ok {
		if existing == Exclusive || existing == mode {
			return AcquireResult{Granted: true}
		}
		// existing == Shared, mode == Exclusive: upgrade iff sole holder.
		if len(e.holders) == 1 {
			e.holders[tx] = Exclusive
			return AcquireResult{Granted: true}
		}
		return AcquireResult{Granted: false, Blockers: otherHolders(e, tx)}
	}

	if len(e.holders) == 0 {
		e.holders[tx] = mode
		return AcquireResult{Granted: true}
	}

	if mode == Shared && allShared(e.holders) {
		e.holders[tx] = Shared
		return AcquireResult{Granted: true}
	}

	return AcquireResult{Granted: false, Blockers: holderIDs(e)}
}

// Enqueue appends a (tx, mode) request to variable's wait queue, unless
// tx is already queued for it.
func (t *Table) Enqueue(variable, tx int, mode Mode) {
	e := t.entryFor(variable)
	for _, r := range e.queue {
		if r.tx == tx {
			return
		}
	}
	e.queue = append(e.queue, request{tx: tx, mode: mode})
}

// Grant describes a queued request that was just granted as a side
// effect of a Release call.
type Grant struct {
	Variable int
	Tx       int
	Mode     Mode
}

// Release drops every lock tx holds across all variables in this table,
// draining each affected variable's queue per the wake-up discipline,
// and returns every newly granted (variable, tx) pair.
func (t *Table) Release(tx int) []Grant {
	var grants []Grant
	for variable, e := range t.entries {
		if _, held := e.holders[tx]; !held {
			continue
		}
		delete(e.holders, tx)
		grants = append(grants, drain(variable, e)...)
	}
	return grants
}

// Reset clears the table entirely: every lock and every queued request
// is dropped. Used when a site fails.
func (t *Table) Reset() {
	t.entries = make(map[int]*entry)
}

func drain(variable int, e *entry) []Grant {
	var grants []Grant
	for len(e.queue) > 0 {
		head := e.queue[0]
		if head.mode == Exclusive {
			if len(e.holders) > 0 {
				break
			}
			e.holders[head.tx] = Exclusive
			grants = append(grants, Grant{Variable: variable, Tx: head.tx, Mode: Exclusive})
			e.queue = e.queue[1:]
			break
		}
		if hasExclusive(e.holders) {
			break
		}
		e.holders[head.tx] = Shared
		grants = append(grants, Grant{Variable: variable, Tx: head.tx, Mode: Shared})
		e.queue = e.queue[1:]
	}
	return grants
}

func allShared(holders map[int]Mode) bool {
	for _, m := range holders {
		if m != Shared {
			return false
		}
	}
	return true
}

func hasExclusive(holders map[int]Mode) bool {
	for _, m := range holders {
		if m == Exclusive {
			return true
		}
	}
	return false
}

func holderIDs(e *entry) []int {
	ids := make([]int, 0, len(e.holders))
	for tx := range e.holders {
		ids = append(ids, tx)
	}
	return ids
}

func otherHolders(e *entry, except int) []int {
	ids := make([]int, 0, len(e.holders))
	for tx := range e.holders {
		if tx != except {
			ids = append(ids, tx)
		}
	}
	return ids
}
