package mvcc

import (
	"time"
)

// Version is one entry in a record's version chain.
//
// A version is immutable once appended, with a single exception: DeletedBy is
// stamped when a later transaction supersedes or deletes it. Values are never
// mutated in place; an update appends a fresh version instead. An aborted
// creator makes the version permanently invisible without physical removal.
type Version struct {
	// RecordID is the logical key of the row, stable across versions.
	RecordID uint64 `json:"record_id"`

	// Values maps column name to value for this version's content.
	Values map[string]interface{} `json:"values"`

	// CreatedBy is the id of the transaction that produced this version.
	CreatedBy uint64 `json:"created_by"`

	// DeletedBy is the id of the transaction that superseded or removed this
	// version. Zero means none.
	DeletedBy uint64 `json:"deleted_by,omitempty"`

	// CreatedAt is for diagnostics only. Visibility decisions are
	// transaction-id based, never wall-clock based.
	CreatedAt time.Time `json:"created_at"`
}

// live reports whether the version carries no deletion mark.
func (v *Version) live() bool {
	return v.DeletedBy == 0
}

// cloneValues returns a shallow copy of a column-value map.
// Mutations never share maps with their callers.
func cloneValues(values map[string]interface{}) map[string]interface{} {
	if values == nil {
		return nil
	}
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
