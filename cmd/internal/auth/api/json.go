package authapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/moonseer/church-planner-sub001/cmd/internal/remote/classify"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends the classified-error body. The status is the inverse of the client's
// classification table so the client recovers the same kind.
func writeError(w http.ResponseWriter, kind classify.Kind, msg string) {
	writeErrorStatus(w, classify.StatusFor(kind), kind, msg)
}

func writeErrorStatus(w http.ResponseWriter, status int, kind classify.Kind, msg string) {
	writeJSON(w, status, errorResponse{Kind: string(kind), Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Ensure there is no extra data after the first JSON value.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
