package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const (
	contentTypeJSON = "application/json"
	headerRequestID = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

// fieldError is one entry of a 422 detail list.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes {"detail": detail, "code": code}. code may be empty.
func writeJSONError(w http.ResponseWriter, status int, code, detail string) {
	body := map[string]string{"detail": detail}
	if code != "" {
		body["code"] = code
	}
	writeJSON(w, status, body)
}

// writeFieldErrors writes a 422 with one entry per invalid body field.
func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	detail := make([]fieldError, 0, len(fields))
	for name, msg := range fields {
		detail = append(detail, fieldError{Loc: []string{"body", name}, Msg: msg, Type: "value_error"})
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": detail})
}

// decodeJSON reads a JSON request body into v. On failure it writes a 422 and
// returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}
	msg := "Invalid request body"
	if errors.Is(err, io.EOF) {
		msg = "Request body is required"
	}
	writeJSONError(w, http.StatusUnprocessableEntity, "", msg)
	return false
}
