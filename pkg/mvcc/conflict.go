package mvcc

import (
	"fmt"
	"sync"

	"github.com/icehousedb/icehouse/internal/common"
)

// Detector performs commit-time write-write conflict checks under the
// first-committer-wins discipline. It keeps, per (table, record), the ids of
// every transaction that committed a write to it; a snapshot-based
// transaction may only commit if none of those committers is outside its
// snapshot.
//
// Per-key mutexes serialize concurrent commits touching the same keys. They
// are the single point of cross-transaction mutual exclusion in the engine.
type Detector struct {
	mu         sync.Mutex
	keyLocks   map[writeKey]*sync.Mutex
	committers map[writeKey][]uint64
}

func newDetector() *Detector {
	return &Detector{
		keyLocks:   make(map[writeKey]*sync.Mutex),
		committers: make(map[writeKey][]uint64),
	}
}

// lockKeys acquires the commit lock for every key. keys must already be in
// the fixed global sort order (Transaction.writeKeys guarantees it), which
// rules out commit-time deadlock. The returned func releases the locks.
func (d *Detector) lockKeys(keys []writeKey) func() {
	locks := make([]*sync.Mutex, len(keys))

	d.mu.Lock()
	for i, k := range keys {
		l, ok := d.keyLocks[k]
		if !ok {
			l = &sync.Mutex{}
			d.keyLocks[k] = l
		}
		locks[i] = l
	}
	d.mu.Unlock()

	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

// validate checks the transaction's write set against committed writers.
// Any other transaction outside txn's snapshot that committed a write to one
// of the keys means txn lost the race. Callers hold the key locks.
func (d *Detector) validate(txn *Transaction, keys []writeKey) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, k := range keys {
		for _, committer := range d.committers[k] {
			if committer == txn.id || txn.inSnapshot(committer) {
				continue
			}
			return common.NewSerializationConflictError(fmt.Sprintf(
				"transaction %d conflicts with committed transaction %d on record %d of table %s",
				txn.id, committer, k.recordID, k.table))
		}
	}
	return nil
}

// record registers a successful commit's write set. Commits of every
// isolation level are recorded; a READ_COMMITTED writer can still be the
// winner a later SERIALIZABLE commit must abort against.
func (d *Detector) record(txnID uint64, keys []writeKey) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, k := range keys {
		d.committers[k] = append(d.committers[k], txnID)
	}
}
