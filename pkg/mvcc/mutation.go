package mvcc

import (
	"fmt"

	"github.com/icehousedb/icehouse/internal/common"
)

// Applier creates new versions for insert/update and stamps deletion marks,
// attributing every change to the acting transaction. It is append/mark-only:
// it never rewrites the values of an existing version.
//
// Writers always act on the latest committed state: update and delete locate
// their target with the read-committed "latest committed or own" rule
// regardless of the transaction's declared isolation.
type Applier struct {
	reg      *Registry
	resolver *Resolver
}

// NewApplier creates a mutation applier over the given registry.
func NewApplier(reg *Registry) *Applier {
	return &Applier{
		reg:      reg,
		resolver: NewResolver(reg),
	}
}

// Insert appends a fresh version for the record. It fails with a
// DuplicateKeyError when a live version already exists that is visible under
// read-committed rules, preventing a silent shadowing of a row the caller may
// not see under its own isolation level.
func (a *Applier) Insert(txn *Transaction, store *Store, recordID uint64, values map[string]interface{}) error {
	if err := a.requireActive(txn, "insert"); err != nil {
		return err
	}

	v := Version{
		Values:    cloneValues(values),
		CreatedBy: txn.id,
	}
	ok := store.appendIf(recordID, func(existing *Version) bool {
		return a.resolver.readCommitted(txn.id, existing)
	}, v)
	if !ok {
		return common.NewDuplicateKeyError(fmt.Sprintf("record %d already exists in table %s", recordID, store.table))
	}

	txn.recordWrite(store.table, recordID)
	return nil
}

// Update marks the currently visible version as superseded by the
// transaction and appends a replacement carrying newValues. Mark and append
// land atomically on the chain.
func (a *Applier) Update(txn *Transaction, store *Store, recordID uint64, newValues map[string]interface{}) error {
	if err := a.requireActive(txn, "update"); err != nil {
		return err
	}

	var marked *Version
	ok := store.mutate(recordID, func(v *Version) (bool, *Version) {
		if !a.resolver.readCommitted(txn.id, v) {
			return false, nil
		}
		v.DeletedBy = txn.id
		marked = v
		return true, &Version{
			Values:    cloneValues(newValues),
			CreatedBy: txn.id,
		}
	})
	if !ok {
		return common.NewRecordNotFoundError(fmt.Sprintf("record %d not found in table %s", recordID, store.table))
	}

	txn.recordMark(store, recordID, marked)
	txn.recordWrite(store.table, recordID)
	return nil
}

// Delete stamps the deletion mark on the currently visible version. No
// replacement is appended; the mark becomes effective for other readers only
// once the transaction commits.
func (a *Applier) Delete(txn *Transaction, store *Store, recordID uint64) error {
	if err := a.requireActive(txn, "delete"); err != nil {
		return err
	}

	var marked *Version
	ok := store.mutate(recordID, func(v *Version) (bool, *Version) {
		if !a.resolver.readCommitted(txn.id, v) {
			return false, nil
		}
		v.DeletedBy = txn.id
		marked = v
		return true, nil
	})
	if !ok {
		return common.NewRecordNotFoundError(fmt.Sprintf("record %d not found in table %s", recordID, store.table))
	}

	txn.recordMark(store, recordID, marked)
	txn.recordWrite(store.table, recordID)
	return nil
}

func (a *Applier) requireActive(txn *Transaction, op string) error {
	if txn == nil {
		return common.NewInvalidTransactionError(fmt.Sprintf("%s without a transaction", op))
	}
	if st := txn.Status(); st != TxnActive {
		return common.NewInvalidTransactionError(fmt.Sprintf("%s on %s transaction %d", op, st, txn.id))
	}
	return nil
}
