package mvcc

// captureSnapshot returns the ids of every transaction with status COMMITTED
// at this instant. The caller freezes the result into a starting
// transaction's snapshot, which is what makes reads repeatable: a later
// commit by another transaction cannot change membership.
//
// Callers must hold r.mu.
func (r *Registry) captureSnapshot() map[uint64]bool {
	snapshot := make(map[uint64]bool)
	for id, txn := range r.txns {
		if txn.Status() == TxnCommitted {
			snapshot[id] = true
		}
	}
	return snapshot
}
