// internal/app/system/respond/respond.go

// Package respond writes the uniform {statusCode, message, payload}
// envelope every endpoint answers with.
package respond

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/covertly/identity/internal/app/system/apperr"
)

// Envelope is the JSON body for every API response.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Payload    any    `json:"payload,omitempty"`
}

// JSON writes the envelope with the given HTTP status. Encoding failures are
// ignored; by the time they could happen the status line is already out.
func JSON(w http.ResponseWriter, status int, message string, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		StatusCode: status,
		Message:    message,
		Payload:    payload,
	})
}

// Err renders a failure through the envelope. Unrecognized errors become a
// generic system error so internals stay internal.
func Err(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	JSON(w, e.Status, e.Message, nil)
}

// ValidationFailed renders schema-level input failures as a 400 with the
// per-field messages concatenated into one human-readable string.
func ValidationFailed(w http.ResponseWriter, problems []string) {
	JSON(w, http.StatusBadRequest, strings.Join(problems, " "), nil)
}

// BadRequest renders a 400 with the given message.
func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, message, nil)
}

// Decode reads a JSON request body into dst. Unknown fields are tolerated;
// requests routinely carry extras the flow ignores.
func Decode(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
