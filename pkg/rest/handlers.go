package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBegin(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	txnID, err := s.engine.Begin(req.Isolation)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, beginResponse{TxnID: txnID})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	txnID, ok := txnIDParam(w, r)
	if !ok {
		return
	}
	if err := s.engine.Commit(txnID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	txnID, ok := txnIDParam(w, r)
	if !ok {
		return
	}
	if err := s.engine.Rollback(txnID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleRegistryView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.RegistryView())
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Tables())
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "table name is required")
		return
	}
	if err := s.engine.CreateTable(req.Name, req.Columns); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, successResponse{Success: true})
}

func (s *Server) handleDropTable(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DropTable(chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	var req readRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rows, err := s.engine.Read(req.TxnID, chi.URLParam(r, "name"), req.Predicate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readResponse{Rows: rows})
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	table := chi.URLParam(r, "name")

	if req.RecordID != nil {
		if err := s.engine.InsertWithID(req.TxnID, table, *req.RecordID, req.Values); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, insertResponse{RecordID: *req.RecordID, Affected: 1})
		return
	}

	recordID, err := s.engine.Insert(req.TxnID, table, req.Values)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, insertResponse{RecordID: recordID, Affected: 1})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	affected, err := s.engine.Update(req.TxnID, chi.URLParam(r, "name"), req.Set, req.Predicate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: affected})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	affected, err := s.engine.Delete(req.TxnID, chi.URLParam(r, "name"), req.Predicate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: affected})
}

func txnIDParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid transaction id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeBadRequest(w, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithFields(log.Fields{"err": err}).Error("rest::handlers::writeJSON; error encoding response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind, status := kindOf(err)
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Kind: "bad_request"})
}
