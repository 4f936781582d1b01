package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/turtacn/fieldplan/pkg/errors"
)

// writeJSON writes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the error body of every API endpoint.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps err to its HTTP status. Internal failures are masked.
func writeAppError(w http.ResponseWriter, err error) {
	var ae *errors.AppError
	if !stderrors.As(err, &ae) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    string(errors.ErrCodeInternal),
			Message: "internal server error",
		})
		return
	}
	status := errors.HTTPStatus(ae.Code)
	resp := ErrorResponse{Code: string(ae.Code), Message: ae.Message, Detail: ae.Detail}
	if status >= http.StatusInternalServerError && ae.Code != errors.ErrCodeServiceUnavailable {
		resp.Detail = ""
	}
	writeJSON(w, status, resp)
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

//Personal.AI order the ending
