package rest

import (
	"errors"
	"net/http"

	"github.com/icehousedb/icehouse/internal/common"
)

// kindOf maps a typed engine error to a wire kind and HTTP status.
// The core never shapes user-facing messages; that translation lives here.
func kindOf(err error) (string, int) {
	var (
		invalidTxn  common.InvalidTransactionError
		notFound    common.RecordNotFoundError
		dupKey      common.DuplicateKeyError
		conflict    common.SerializationConflictError
		badIso      common.InvalidIsolationError
		noTable     common.TableNotFoundError
		tableExists common.TableExistsError
		badColumn   common.UnknownColumnError
	)

	switch {
	case errors.As(err, &conflict):
		return "serialization_conflict", http.StatusConflict
	case errors.As(err, &dupKey):
		return "duplicate_key", http.StatusConflict
	case errors.As(err, &tableExists):
		return "table_exists", http.StatusConflict
	case errors.As(err, &notFound):
		return "record_not_found", http.StatusNotFound
	case errors.As(err, &noTable):
		return "table_not_found", http.StatusNotFound
	case errors.As(err, &invalidTxn):
		return "invalid_transaction", http.StatusUnprocessableEntity
	case errors.As(err, &badIso):
		return "invalid_isolation", http.StatusBadRequest
	case errors.As(err, &badColumn):
		return "unknown_column", http.StatusBadRequest
	}
	return "internal", http.StatusInternalServerError
}
