package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error         string `json:"error"`
	Kind          string `json:"kind"`
	LedgerFailure string `json:"ledgerFailure,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Error:         publicMessage(err),
		Kind:          domain.Kind(err),
		LedgerFailure: domain.LedgerFailure(err),
	})
}

// publicMessage hides store, RPC and driver details behind the sentinel text.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrPartialCommit):
		return domain.ErrPartialCommit.Error()
	case errors.Is(err, domain.ErrStoreUnavailable):
		return domain.ErrStoreUnavailable.Error()
	case errors.Is(err, domain.ErrLedgerUnavailable):
		return domain.ErrLedgerUnavailable.Error()
	case domain.Kind(err) == "Internal":
		return domain.ErrInternal.Error()
	}
	return err.Error()
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "MalformedRequest"})
		return false
	}
	return true
}
