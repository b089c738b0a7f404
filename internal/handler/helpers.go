// Package handler implements the HTTP facade: target administration and the
// stored procedure lifecycle endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sprocketdb/sprocket/internal/catalog"
	"github.com/sprocketdb/sprocket/internal/definition"
	"github.com/sprocketdb/sprocket/internal/invocation"
	"github.com/sprocketdb/sprocket/internal/model"
	"github.com/sprocketdb/sprocket/internal/procedure"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryBool extracts a boolean query parameter. Returns false if the parameter
// is missing or not "true"/"1".
func queryBool(r *http.Request, key string) bool {
	val := r.URL.Query().Get(key)
	return val == "true" || val == "1"
}

// cleanMapValues converts []byte values to strings in place so row maps
// serialize as text instead of base64.
func cleanMapValues(m map[string]interface{}) {
	for k, v := range m {
		if b, ok := v.([]byte); ok {
			m[k] = string(b)
		}
	}
}

// classifyProcError maps the procedure error taxonomy to HTTP status codes.
// Returns (httpStatus, message).
func classifyProcError(err error) (int, string) {
	var (
		notFound    *catalog.NotFoundError
		mismatch    *invocation.MismatchError
		badType     *model.InvalidTypeError
		argMismatch *definition.ArgumentMismatchError
		badName     *procedure.NotAProcedureNameError
		execFailed  *procedure.ExecutionError
		regFailed   *procedure.RegistrationError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &mismatch),
		errors.As(err, &badType),
		errors.As(err, &argMismatch),
		errors.As(err, &badName):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &execFailed):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &regFailed):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
