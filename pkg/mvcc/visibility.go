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

// Resolver decides, for a transaction and a record's version chain, which
// single version the transaction observes. The four isolation levels map to
// four predicates; dispatch lives here and nowhere else so the visibility
// contract stays centralized.
type Resolver struct {
	reg *Registry
}

// NewResolver creates a resolver reading transaction statuses from the registry.
func NewResolver(reg *Registry) *Resolver {
	return &Resolver{reg: reg}
}

// VisibleVersion scans the record's chain newest-first and returns a copy of
// the first version satisfying the transaction's visibility predicate.
// The second return is false when the record is absent to this transaction.
func (r *Resolver) VisibleVersion(txn *Transaction, store *Store, recordID uint64) (Version, bool) {
	return store.locate(recordID, r.predicate(txn))
}

func (r *Resolver) predicate(txn *Transaction) func(*Version) bool {
	switch txn.isolation {
	case ReadUncommitted:
		return r.readUncommitted
	case ReadCommitted:
		return func(v *Version) bool { return r.readCommitted(txn.id, v) }
	default:
		return func(v *Version) bool { return snapshotVisible(txn, v) }
	}
}

// readUncommitted: the newest version without a deletion mark, with no
// filtering on transaction status at all. Another transaction's uncommitted
// insert is visible; an uncommitted delete hides a version.
func (r *Resolver) readUncommitted(v *Version) bool {
	return v.live()
}

// readCommitted: the creator must be the reader itself or committed right
// now, and any deleter must be neither the reader nor committed right now.
// Evaluated fresh on every read, so a commit elsewhere changes the answer.
func (r *Resolver) readCommitted(txnID uint64, v *Version) bool {
	if v.CreatedBy != txnID && !r.reg.IsCommitted(v.CreatedBy) {
		return false
	}
	if v.DeletedBy == 0 {
		return true
	}
	return v.DeletedBy != txnID && !r.reg.IsCommitted(v.DeletedBy)
}

// snapshotVisible: the REPEATABLE_READ/SERIALIZABLE predicate. Identical to
// read committed with "committed" replaced by "committed strictly before this
// transaction started", evaluated against the frozen snapshot.
func snapshotVisible(txn *Transaction, v *Version) bool {
	if v.CreatedBy != txn.id && !txn.inSnapshot(v.CreatedBy) {
		return false
	}
	if v.DeletedBy == 0 {
		return true
	}
	return v.DeletedBy != txn.id && !txn.inSnapshot(v.DeletedBy)
}
