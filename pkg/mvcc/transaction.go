package mvcc

import (
	"sort"
	"sync"
	"time"
)

// TxnStatus is the lifecycle state of a transaction.
// Active is the sole non-terminal state; Committed and Aborted are terminal
// and mutually exclusive.
type TxnStatus int

const (
	// TxnActive - the transaction is in progress.
	TxnActive TxnStatus = iota

	// TxnCommitted - the transaction committed successfully. Terminal.
	TxnCommitted

	// TxnAborted - the transaction was rolled back or failed validation. Terminal.
	TxnAborted
)

func (s TxnStatus) String() string {
	switch s {
	case TxnActive:
		return "ACTIVE"
	case TxnCommitted:
		return "COMMITTED"
	case TxnAborted:
		return "ABORTED"
	}
	return "UNKNOWN"
}

// writeKey identifies a record a transaction has created or deleted a version for.
type writeKey struct {
	table    string
	recordID uint64
}

// deletionMark identifies a version the transaction stamped DeletedBy on.
// Version pointers are stable: chains are append-only and never compacted.
type deletionMark struct {
	store    *Store
	recordID uint64
	v        *Version
}

// Transaction is a single MVCC transaction.
// It is owned exclusively by the Registry; other components look it up and
// read it, never mutate it. A single txn is not safe for concurrent use by
// multiple callers; the status and write set fields are nevertheless guarded
// so that concurrent readers computing visibility never observe a partial
// state transition.
type Transaction struct {
	id        uint64
	isolation IsolationLevel
	startedAt time.Time

	// snapshot holds the ids of transactions committed before this one
	// started. Populated only for snapshot-based levels, frozen for the
	// life of the txn.
	snapshot map[uint64]bool

	mu      sync.Mutex
	status  TxnStatus
	endedAt time.Time

	wmu      sync.Mutex
	writeSet map[writeKey]bool
	marks    []deletionMark
}

func newTransaction(id uint64, isolation IsolationLevel, snapshot map[uint64]bool) *Transaction {
	return &Transaction{
		id:        id,
		isolation: isolation,
		startedAt: time.Now(),
		snapshot:  snapshot,
		status:    TxnActive,
		writeSet:  make(map[writeKey]bool),
	}
}

// ID returns the transaction id. Ids are monotonically increasing and never reused.
func (t *Transaction) ID() uint64 {
	return t.id
}

// Isolation returns the isolation level the transaction was begun with.
func (t *Transaction) Isolation() IsolationLevel {
	return t.isolation
}

// StartedAt returns the transaction start time.
func (t *Transaction) StartedAt() time.Time {
	return t.startedAt
}

// EndedAt returns the time the transaction reached a terminal state.
// Zero while the transaction is still active.
func (t *Transaction) EndedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endedAt
}

// Status returns the current lifecycle state.
func (t *Transaction) Status() TxnStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// setStatus flips the transaction to a terminal state. It is a no-op guard
// violation to call it twice; the Registry ensures that never happens.
func (t *Transaction) setStatus(s TxnStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
	t.endedAt = time.Now()
}

// inSnapshot reports whether the given transaction id was committed before
// this transaction started.
func (t *Transaction) inSnapshot(id uint64) bool {
	return t.snapshot[id]
}

// recordWrite adds (table, recordID) to the write set.
func (t *Transaction) recordWrite(table string, recordID uint64) {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	t.writeSet[writeKey{table: table, recordID: recordID}] = true
}

// recordMark remembers a version the transaction stamped a deletion mark on.
func (t *Transaction) recordMark(store *Store, recordID uint64, v *Version) {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	t.marks = append(t.marks, deletionMark{store: store, recordID: recordID, v: v})
}

// reassertMarks re-stamps every deletion mark the transaction placed.
// Another writer targeting the same version overwrites the shared DeletedBy
// slot while both transactions are active; the committing transaction
// re-claims its marks so the committed deletion survives the other writer's
// abort. Must run after the status flip to COMMITTED: from then on the
// read-committed stamp check refuses the version, so no further overwrite
// can land.
func (t *Transaction) reassertMarks() {
	t.wmu.Lock()
	marks := make([]deletionMark, len(t.marks))
	copy(marks, t.marks)
	t.wmu.Unlock()

	for _, m := range marks {
		m.store.restampMark(m.recordID, m.v, t.id)
	}
}

// writeKeys returns the write set as a slice sorted by (table, recordID).
// The fixed order is what lets commit-time key locks be acquired without deadlock.
func (t *Transaction) writeKeys() []writeKey {
	t.wmu.Lock()
	defer t.wmu.Unlock()

	keys := make([]writeKey, 0, len(t.writeSet))
	for k := range t.writeSet {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].table != keys[j].table {
			return keys[i].table < keys[j].table
		}
		return keys[i].recordID < keys[j].recordID
	})
	return keys
}
