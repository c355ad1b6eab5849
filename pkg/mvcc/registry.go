/**
 * Copyright 2023 The Icehouse Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mvcc

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/icehousedb/icehouse/internal/common"
)

// Registry allocates transaction ids and tracks per-transaction state.
// It owns every Transaction for the process lifetime; terminal transactions
// stay resident so that visibility checks can resolve any creator/deleter id
// ever handed out.
type Registry struct {
	mu     sync.RWMutex
	nextID uint64
	txns   map[uint64]*Transaction

	detector *Detector
}

// NewRegistry creates an empty transaction registry.
func NewRegistry() *Registry {
	return &Registry{
		txns:     make(map[uint64]*Transaction),
		detector: newDetector(),
	}
}

// Begin allocates a new transaction id, marks the transaction active and, for
// snapshot-based levels, freezes the set of currently committed transactions
// into its snapshot before returning.
func (r *Registry) Begin(isolation IsolationLevel) (*Transaction, error) {
	if !isolation.valid() {
		return nil, common.NewInvalidIsolationError(fmt.Sprintf("unsupported isolation level %d", int(isolation)))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	var snapshot map[uint64]bool
	if isolation.snapshotBased() {
		snapshot = r.captureSnapshot()
	}

	txn := newTransaction(r.nextID, isolation, snapshot)
	r.txns[txn.id] = txn
	return txn, nil
}

// Commit flips an active transaction to COMMITTED. For snapshot-based levels
// the write set is validated first; a conflicting concurrent writer aborts
// the transaction and surfaces a SerializationConflictError. This is the only
// error that changes transaction state as a side effect.
func (r *Registry) Commit(id uint64) error {
	txn, err := r.active(id, "commit")
	if err != nil {
		return err
	}

	keys := txn.writeKeys()
	if len(keys) > 0 {
		// Serialize against other commits touching the same keys. Locks are
		// taken in the write set's fixed sort order.
		unlock := r.detector.lockKeys(keys)
		defer unlock()

		if txn.isolation.snapshotBased() {
			if err := r.detector.validate(txn, keys); err != nil {
				txn.setStatus(TxnAborted)
				return err
			}
		}

		txn.setStatus(TxnCommitted)
		// A concurrent writer may have overwritten this txn's deletion marks
		// while both were active. Re-stamp them now that the commit is
		// decided, so the marks survive the other writer's abort.
		txn.reassertMarks()
		r.detector.record(txn.id, keys)
		return nil
	}

	txn.setStatus(TxnCommitted)
	return nil
}

// Rollback flips an active transaction to ABORTED. No conflict check runs;
// every version the transaction created becomes permanently invisible through
// the visibility rules, without physical removal.
func (r *Registry) Rollback(id uint64) error {
	txn, err := r.active(id, "rollback")
	if err != nil {
		return err
	}
	txn.setStatus(TxnAborted)
	return nil
}

// Get returns the transaction with the given id.
func (r *Registry) Get(id uint64) (*Transaction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	txn, ok := r.txns[id]
	return txn, ok
}

// StatusOf returns the lifecycle state of the given transaction.
func (r *Registry) StatusOf(id uint64) (TxnStatus, error) {
	txn, ok := r.Get(id)
	if !ok {
		return 0, common.NewInvalidTransactionError(fmt.Sprintf("unknown transaction %d", id))
	}
	return txn.Status(), nil
}

// IsCommitted reports whether the given transaction id has committed.
// Unknown ids are not committed.
func (r *Registry) IsCommitted(id uint64) bool {
	txn, ok := r.Get(id)
	return ok && txn.Status() == TxnCommitted
}

// IsActive reports whether the given transaction id is active.
func (r *Registry) IsActive(id uint64) bool {
	txn, ok := r.Get(id)
	return ok && txn.Status() == TxnActive
}

// active looks up a transaction and requires it to be ACTIVE.
func (r *Registry) active(id uint64, op string) (*Transaction, error) {
	txn, ok := r.Get(id)
	if !ok {
		return nil, common.NewInvalidTransactionError(fmt.Sprintf("%s on unknown transaction %d", op, id))
	}
	if st := txn.Status(); st != TxnActive {
		return nil, common.NewInvalidTransactionError(fmt.Sprintf("%s on %s transaction %d", op, st, id))
	}
	return txn, nil
}

// TxnInfo is the per-transaction entry of the registry view.
type TxnInfo struct {
	ID        uint64     `json:"id"`
	Isolation string     `json:"isolation"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// RegistryView groups every transaction by lifecycle state. It is the feed a
// monitoring layer polls for live transaction-state display.
type RegistryView struct {
	Active    []TxnInfo `json:"active"`
	Committed []TxnInfo `json:"committed"`
	Aborted   []TxnInfo `json:"aborted"`
}

// View returns a point-in-time view of every transaction, each bucket sorted
// by transaction id.
func (r *Registry) View() RegistryView {
	r.mu.RLock()
	txns := make([]*Transaction, 0, len(r.txns))
	for _, txn := range r.txns {
		txns = append(txns, txn)
	}
	r.mu.RUnlock()

	sort.Slice(txns, func(i, j int) bool { return txns[i].id < txns[j].id })

	view := RegistryView{
		Active:    []TxnInfo{},
		Committed: []TxnInfo{},
		Aborted:   []TxnInfo{},
	}
	for _, txn := range txns {
		info := TxnInfo{
			ID:        txn.id,
			Isolation: txn.isolation.String(),
			StartedAt: txn.startedAt,
		}
		st := txn.Status()
		if st != TxnActive {
			ended := txn.EndedAt()
			info.EndedAt = &ended
		}
		switch st {
		case TxnActive:
			view.Active = append(view.Active, info)
		case TxnCommitted:
			view.Committed = append(view.Committed, info)
		case TxnAborted:
			view.Aborted = append(view.Aborted, info)
		}
	}
	return view
}

// TxnRecord is the serializable form of a transaction used by the
// persistence hooks.
type TxnRecord struct {
	ID        uint64    `json:"id"`
	Isolation string    `json:"isolation"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Export returns the id allocator position and every transaction record.
func (r *Registry) Export() (uint64, []TxnRecord) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := make([]TxnRecord, 0, len(r.txns))
	for _, txn := range r.txns {
		recs = append(recs, TxnRecord{
			ID:        txn.id,
			Isolation: txn.isolation.String(),
			Status:    txn.Status().String(),
			StartedAt: txn.startedAt,
			EndedAt:   txn.EndedAt(),
		})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return r.nextID, recs
}

// RestoreRegistry rebuilds a registry from exported records. Transactions
// that were ACTIVE when the state was captured are restored as ABORTED: their
// caller is gone and their versions must stay invisible.
func RestoreRegistry(nextID uint64, recs []TxnRecord) (*Registry, error) {
	r := NewRegistry()
	r.nextID = nextID
	for _, rec := range recs {
		iso, err := ParseIsolationLevel(rec.Isolation)
		if err != nil {
			return nil, err
		}
		txn := newTransaction(rec.ID, iso, nil)
		txn.startedAt = rec.StartedAt
		switch rec.Status {
		case TxnCommitted.String():
			txn.status = TxnCommitted
			txn.endedAt = rec.EndedAt
		default:
			txn.status = TxnAborted
			txn.endedAt = rec.EndedAt
		}
		r.txns[rec.ID] = txn
		if rec.ID > r.nextID {
			r.nextID = rec.ID
		}
	}
	return r, nil
}
