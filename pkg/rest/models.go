package rest

import (
	"github.com/icehousedb/icehouse/pkg/engine"
)

// beginRequest starts a transaction.
type beginRequest struct {
	Isolation string `json:"isolation"`
}

type beginResponse struct {
	TxnID uint64 `json:"txn_id"`
}

type createTableRequest struct {
	Name    string          `json:"name"`
	Columns []engine.Column `json:"columns"`
}

// insertRequest carries an optional explicit record id. A pointer keeps
// "absent" distinguishable from an explicit id of zero.
type insertRequest struct {
	TxnID    uint64                 `json:"txn_id"`
	RecordID *uint64                `json:"record_id,omitempty"`
	Values   map[string]interface{} `json:"values"`
}

type insertResponse struct {
	RecordID uint64 `json:"record_id"`
	Affected int    `json:"affected"`
}

type readRequest struct {
	TxnID     uint64            `json:"txn_id"`
	Predicate *engine.Predicate `json:"predicate,omitempty"`
}

type readResponse struct {
	Rows []engine.Row `json:"rows"`
}

type updateRequest struct {
	TxnID     uint64                 `json:"txn_id"`
	Set       map[string]interface{} `json:"set"`
	Predicate *engine.Predicate      `json:"predicate,omitempty"`
}

type deleteRequest struct {
	TxnID     uint64            `json:"txn_id"`
	Predicate *engine.Predicate `json:"predicate,omitempty"`
}

type affectedResponse struct {
	Affected int `json:"affected"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
