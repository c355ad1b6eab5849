package mvcc

import (
	"fmt"

	"github.com/icehousedb/icehouse/internal/common"
)

// IsolationLevel determines which versions a transaction may observe and
// whether its commit runs conflict validation.
type IsolationLevel int

const (
	// ReadUncommitted sees every chain-resident version, committed or not.
	ReadUncommitted IsolationLevel = iota

	// ReadCommitted sees the latest committed state, re-evaluated on every read.
	ReadCommitted

	// RepeatableRead reads against a snapshot frozen at transaction start.
	RepeatableRead

	// Serializable is RepeatableRead plus first-committer-wins validation at commit.
	Serializable
)

// String returns the SQL-style name of the isolation level.
func (l IsolationLevel) String() string {
	switch l {
	case ReadUncommitted:
		return "READ_UNCOMMITTED"
	case ReadCommitted:
		return "READ_COMMITTED"
	case RepeatableRead:
		return "REPEATABLE_READ"
	case Serializable:
		return "SERIALIZABLE"
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(l))
}

// valid reports whether l is one of the four supported levels.
func (l IsolationLevel) valid() bool {
	return l >= ReadUncommitted && l <= Serializable
}

// snapshotBased reports whether the level freezes a snapshot at begin and
// runs commit-time conflict validation.
func (l IsolationLevel) snapshotBased() bool {
	return l == RepeatableRead || l == Serializable
}

// ParseIsolationLevel maps the SQL-style name to an IsolationLevel.
// Returns an InvalidIsolationError for anything else.
func ParseIsolationLevel(s string) (IsolationLevel, error) {
	switch s {
	case "READ_UNCOMMITTED":
		return ReadUncommitted, nil
	case "READ_COMMITTED":
		return ReadCommitted, nil
	case "REPEATABLE_READ":
		return RepeatableRead, nil
	case "SERIALIZABLE":
		return Serializable, nil
	}
	return 0, common.NewInvalidIsolationError(fmt.Sprintf("unsupported isolation level %q", s))
}
