package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/icehousedb/icehouse/pkg/engine"
	"github.com/icehousedb/icehouse/test"
	"github.com/stretchr/testify/assert"
)

type restHarness struct {
	engine *engine.Engine
	server *httptest.Server
}

func newRestHarness(t *testing.T) *restHarness {
	t.Helper()
	e := test.NewTestEngine()
	return &restHarness{
		engine: e,
		server: httptest.NewServer(NewServer(e).Handler()),
	}
}

func (h *restHarness) close() {
	h.server.Close()
}

func (h *restHarness) post(t *testing.T, path string, body interface{}, out interface{}) int {
	t.Helper()
	data, err := json.Marshal(body)
	assert.Nil(t, err, "Unexpected error while marshalling request body")
	resp, err := http.Post(h.server.URL+path, "application/json", bytes.NewReader(data))
	assert.Nil(t, err, "Unexpected error during POST %s", path)
	defer resp.Body.Close()
	if out != nil {
		assert.Nil(t, json.NewDecoder(resp.Body).Decode(out), "Unexpected error decoding response of %s", path)
	}
	return resp.StatusCode
}

func (h *restHarness) beginTxn(t *testing.T, isolation string) uint64 {
	t.Helper()
	var out beginResponse
	code := h.post(t, "/v1/transactions", beginRequest{Isolation: isolation}, &out)
	assert.Equal(t, http.StatusCreated, code, "unexpected status beginning a txn")
	return out.TxnID
}

func TestHealthEndpoint(t *testing.T) {
	h := newRestHarness(t)
	defer h.close()

	resp, err := http.Get(h.server.URL + "/health")
	assert.Nil(t, err, "Unexpected error during health check")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "unexpected health status")
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"), "every response must carry a request id")
}

func TestTransactionLifecycleOverHTTP(t *testing.T) {
	h := newRestHarness(t)
	defer h.close()

	txnID := h.beginTxn(t, "READ_COMMITTED")

	var ins insertResponse
	code := h.post(t, "/v1/tables/users/insert", insertRequest{
		TxnID:  txnID,
		Values: map[string]interface{}{"name": "Alice", "age": 34},
	}, &ins)
	assert.Equal(t, http.StatusCreated, code, "unexpected status inserting")
	assert.Equal(t, 1, ins.Affected, "expected one affected row")

	var ok successResponse
	code = h.post(t, fmt.Sprintf("/v1/transactions/%d/commit", txnID), nil, &ok)
	assert.Equal(t, http.StatusOK, code, "unexpected status committing")
	assert.True(t, ok.Success, "expected commit success")

	reader := h.beginTxn(t, "READ_COMMITTED")
	var read readResponse
	code = h.post(t, "/v1/tables/users/read", readRequest{TxnID: reader}, &read)
	assert.Equal(t, http.StatusOK, code, "unexpected status reading")
	assert.Len(t, read.Rows, 1, "expected one visible row")
	assert.Equal(t, "Alice", read.Rows[0].Values["name"], "unexpected row content")
}

func TestInsertWithExplicitRecordIDZero(t *testing.T) {
	h := newRestHarness(t)
	defer h.close()

	txnID := h.beginTxn(t, "READ_COMMITTED")

	id := uint64(0)
	var ins insertResponse
	code := h.post(t, "/v1/tables/users/insert", insertRequest{
		TxnID:    txnID,
		RecordID: &id,
		Values:   map[string]interface{}{"name": "Zed"},
	}, &ins)
	assert.Equal(t, http.StatusCreated, code, "unexpected status inserting")
	assert.Equal(t, uint64(0), ins.RecordID, "record id zero must be honored, not treated as absent")
	h.post(t, fmt.Sprintf("/v1/transactions/%d/commit", txnID), nil, nil)

	reader := h.beginTxn(t, "READ_COMMITTED")
	var read readResponse
	code = h.post(t, "/v1/tables/users/read", readRequest{TxnID: reader}, &read)
	assert.Equal(t, http.StatusOK, code, "unexpected status reading")
	assert.Len(t, read.Rows, 1, "expected one visible row")
	assert.Equal(t, uint64(0), read.Rows[0].RecordID, "unexpected record id")
}

func TestSerializationConflictMapsTo409(t *testing.T) {
	h := newRestHarness(t)
	defer h.close()

	seed := h.beginTxn(t, "READ_COMMITTED")
	h.post(t, "/v1/tables/users/insert", insertRequest{TxnID: seed, Values: map[string]interface{}{"name": "Alice"}}, nil)
	h.post(t, fmt.Sprintf("/v1/transactions/%d/commit", seed), nil, nil)

	t1 := h.beginTxn(t, "SERIALIZABLE")
	t2 := h.beginTxn(t, "SERIALIZABLE")

	code := h.post(t, "/v1/tables/users/update", updateRequest{TxnID: t1, Set: map[string]interface{}{"name": "t1"}}, nil)
	assert.Equal(t, http.StatusOK, code, "unexpected status updating from t1")
	code = h.post(t, "/v1/tables/users/update", updateRequest{TxnID: t2, Set: map[string]interface{}{"name": "t2"}}, nil)
	assert.Equal(t, http.StatusOK, code, "unexpected status updating from t2")

	code = h.post(t, fmt.Sprintf("/v1/transactions/%d/commit", t1), nil, nil)
	assert.Equal(t, http.StatusOK, code, "first committer must succeed")

	var errResp errorResponse
	code = h.post(t, fmt.Sprintf("/v1/transactions/%d/commit", t2), nil, &errResp)
	assert.Equal(t, http.StatusConflict, code, "second committer must map to 409")
	assert.Equal(t, "serialization_conflict", errResp.Kind, "unexpected error kind")
}

func TestErrorMapping(t *testing.T) {
	h := newRestHarness(t)
	defer h.close()

	var errResp errorResponse

	// unknown isolation level
	code := h.post(t, "/v1/transactions", beginRequest{Isolation: "CHAOS"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, code, "bad isolation must map to 400")
	assert.Equal(t, "invalid_isolation", errResp.Kind, "unexpected error kind")

	// unknown table
	txn := h.beginTxn(t, "READ_COMMITTED")
	code = h.post(t, "/v1/tables/ghosts/read", readRequest{TxnID: txn}, &errResp)
	assert.Equal(t, http.StatusNotFound, code, "unknown table must map to 404")
	assert.Equal(t, "table_not_found", errResp.Kind, "unexpected error kind")

	// unknown transaction
	code = h.post(t, "/v1/tables/users/read", readRequest{TxnID: 999}, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, code, "unknown txn must map to 422")
	assert.Equal(t, "invalid_transaction", errResp.Kind, "unexpected error kind")

	// duplicate table
	code = h.post(t, "/v1/tables", createTableRequest{Name: "users"}, &errResp)
	assert.Equal(t, http.StatusConflict, code, "duplicate table must map to 409")
	assert.Equal(t, "table_exists", errResp.Kind, "unexpected error kind")
}

func TestRegistryFeed(t *testing.T) {
	h := newRestHarness(t)
	defer h.close()

	active := h.beginTxn(t, "REPEATABLE_READ")
	committed := h.beginTxn(t, "READ_COMMITTED")
	h.post(t, fmt.Sprintf("/v1/transactions/%d/commit", committed), nil, nil)

	resp, err := http.Get(h.server.URL + "/v1/transactions")
	assert.Nil(t, err, "Unexpected error fetching the registry feed")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "unexpected feed status")

	type feedEntry struct {
		ID uint64 `json:"id"`
	}
	var view struct {
		Active    []feedEntry `json:"active"`
		Committed []feedEntry `json:"committed"`
	}
	assert.Nil(t, json.NewDecoder(resp.Body).Decode(&view), "Unexpected error decoding the feed")
	assert.Len(t, view.Active, 1, "expected one active txn in the feed")
	assert.Equal(t, active, view.Active[0].ID, "unexpected active txn id")
	assert.Len(t, view.Committed, 1, "expected one committed txn in the feed")
}
