package mvcc

import (
	"testing"

	"github.com/icehousedb/icehouse/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestBeginAllocatesMonotonicIds(t *testing.T) {
	reg := NewRegistry()

	t1, err := reg.Begin(ReadCommitted)
	assert.Nil(t, err, "Unexpected error while beginning a txn")
	assert.Equal(t, uint64(1), t1.ID(), "expected first txn id to be 1")

	t2, err := reg.Begin(ReadCommitted)
	assert.Nil(t, err, "Unexpected error while beginning a txn")
	assert.Equal(t, uint64(2), t2.ID(), "expected second txn id to be 2")

	assert.True(t, reg.IsActive(t1.ID()), "expected txn 1 to be active")
	assert.True(t, reg.IsActive(t2.ID()), "expected txn 2 to be active")
}

func TestBeginInvalidIsolation(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Begin(IsolationLevel(42))
	assert.NotNil(t, err, "expected error for invalid isolation level")
	_, ok := err.(common.InvalidIsolationError)
	assert.True(t, ok, "expected InvalidIsolationError")
}

func TestCommitFlipsStatusOnce(t *testing.T) {
	reg := NewRegistry()

	txn, err := reg.Begin(ReadCommitted)
	assert.Nil(t, err, "Unexpected error while beginning a txn")

	err = reg.Commit(txn.ID())
	assert.Nil(t, err, "Unexpected error while committing")
	assert.True(t, reg.IsCommitted(txn.ID()), "expected txn to be committed")
	assert.False(t, txn.EndedAt().IsZero(), "expected ended time to be set")

	// terminal states are final; a second commit is an invalid-state error.
	err = reg.Commit(txn.ID())
	assert.NotNil(t, err, "expected error committing a committed txn")
	_, ok := err.(common.InvalidTransactionError)
	assert.True(t, ok, "expected InvalidTransactionError")
}

func TestCommitUnknownTxn(t *testing.T) {
	reg := NewRegistry()

	err := reg.Commit(99)
	assert.NotNil(t, err, "expected error committing an unknown txn")
	_, ok := err.(common.InvalidTransactionError)
	assert.True(t, ok, "expected InvalidTransactionError")
}

func TestRollbackIsImmediateAndFinal(t *testing.T) {
	reg := NewRegistry()

	txn, err := reg.Begin(Serializable)
	assert.Nil(t, err, "Unexpected error while beginning a txn")

	err = reg.Rollback(txn.ID())
	assert.Nil(t, err, "Unexpected error while rolling back")

	st, err := reg.StatusOf(txn.ID())
	assert.Nil(t, err, "Unexpected error from StatusOf")
	assert.Equal(t, TxnAborted, st, "expected aborted status")

	err = reg.Commit(txn.ID())
	assert.NotNil(t, err, "expected error committing an aborted txn")
}

func TestSnapshotCapturesOnlyCommitted(t *testing.T) {
	reg := NewRegistry()

	committed, err := reg.Begin(ReadCommitted)
	assert.Nil(t, err, "Unexpected error while beginning a txn")
	assert.Nil(t, reg.Commit(committed.ID()), "Unexpected error while committing")

	active, err := reg.Begin(ReadCommitted)
	assert.Nil(t, err, "Unexpected error while beginning a txn")

	aborted, err := reg.Begin(ReadCommitted)
	assert.Nil(t, err, "Unexpected error while beginning a txn")
	assert.Nil(t, reg.Rollback(aborted.ID()), "Unexpected error while rolling back")

	txn, err := reg.Begin(RepeatableRead)
	assert.Nil(t, err, "Unexpected error while beginning a snapshot txn")

	assert.True(t, txn.inSnapshot(committed.ID()), "committed txn should be in the snapshot")
	assert.False(t, txn.inSnapshot(active.ID()), "active txn should not be in the snapshot")
	assert.False(t, txn.inSnapshot(aborted.ID()), "aborted txn should not be in the snapshot")
	assert.False(t, txn.inSnapshot(txn.ID()), "a txn is never in its own snapshot")
}

func TestSnapshotIsFrozenAfterBegin(t *testing.T) {
	reg := NewRegistry()

	txn, err := reg.Begin(RepeatableRead)
	assert.Nil(t, err, "Unexpected error while beginning a snapshot txn")

	later, err := reg.Begin(ReadCommitted)
	assert.Nil(t, err, "Unexpected error while beginning a txn")
	assert.Nil(t, reg.Commit(later.ID()), "Unexpected error while committing")

	assert.False(t, txn.inSnapshot(later.ID()), "a commit after begin must not join the frozen snapshot")
}

func TestReadCommittedHasNoSnapshot(t *testing.T) {
	reg := NewRegistry()

	committed, err := reg.Begin(ReadCommitted)
	assert.Nil(t, err, "Unexpected error while beginning a txn")
	assert.Nil(t, reg.Commit(committed.ID()), "Unexpected error while committing")

	txn, err := reg.Begin(ReadCommitted)
	assert.Nil(t, err, "Unexpected error while beginning a txn")
	assert.Nil(t, txn.snapshot, "non-snapshot levels must not populate a snapshot")
}

func TestRegistryView(t *testing.T) {
	reg := NewRegistry()

	a, _ := reg.Begin(ReadCommitted)
	c, _ := reg.Begin(Serializable)
	r, _ := reg.Begin(RepeatableRead)
	assert.Nil(t, reg.Commit(c.ID()), "Unexpected error while committing")
	assert.Nil(t, reg.Rollback(r.ID()), "Unexpected error while rolling back")

	view := reg.View()
	assert.Len(t, view.Active, 1, "expected one active txn in the view")
	assert.Len(t, view.Committed, 1, "expected one committed txn in the view")
	assert.Len(t, view.Aborted, 1, "expected one aborted txn in the view")

	assert.Equal(t, a.ID(), view.Active[0].ID, "unexpected active txn id")
	assert.Equal(t, "READ_COMMITTED", view.Active[0].Isolation, "unexpected isolation in view")
	assert.Equal(t, "SERIALIZABLE", view.Committed[0].Isolation, "unexpected isolation in view")
	assert.Nil(t, view.Active[0].EndedAt, "active txn must not carry an end time")
	assert.NotNil(t, view.Committed[0].EndedAt, "committed txn must carry an end time")
}

func TestExportRestoreAbortsActiveTxns(t *testing.T) {
	reg := NewRegistry()

	c, _ := reg.Begin(ReadCommitted)
	assert.Nil(t, reg.Commit(c.ID()), "Unexpected error while committing")
	a, _ := reg.Begin(Serializable)

	next, recs := reg.Export()
	restored, err := RestoreRegistry(next, recs)
	assert.Nil(t, err, "Unexpected error while restoring registry")

	assert.True(t, restored.IsCommitted(c.ID()), "committed txn must stay committed after restore")

	st, err := restored.StatusOf(a.ID())
	assert.Nil(t, err, "Unexpected error from StatusOf after restore")
	assert.Equal(t, TxnAborted, st, "active txn must come back aborted after restore")

	// restored registry keeps allocating fresh ids.
	fresh, err := restored.Begin(ReadCommitted)
	assert.Nil(t, err, "Unexpected error while beginning on restored registry")
	assert.Greater(t, fresh.ID(), a.ID(), "restored registry must not reuse ids")
}

func TestParseIsolationLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want IsolationLevel
	}{
		{"READ_UNCOMMITTED", ReadUncommitted},
		{"READ_COMMITTED", ReadCommitted},
		{"REPEATABLE_READ", RepeatableRead},
		{"SERIALIZABLE", Serializable},
	} {
		got, err := ParseIsolationLevel(tc.in)
		assert.Nil(t, err, "Unexpected error parsing %s", tc.in)
		assert.Equal(t, tc.want, got, "unexpected level for %s", tc.in)
	}

	_, err := ParseIsolationLevel("SNAPSHOT")
	assert.NotNil(t, err, "expected error for unsupported level")
	_, ok := err.(common.InvalidIsolationError)
	assert.True(t, ok, "expected InvalidIsolationError")
}
