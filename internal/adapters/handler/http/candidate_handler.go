package http

import (
	"fmt"
	"net/http"

	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type CandidateHandler struct {
	service ports.CandidateService
}

func NewCandidateHandler(service ports.CandidateService) *CandidateHandler {
	return &CandidateHandler{
		service: service,
	}
}

type addCandidateRequest struct {
	CandidateName string `json:"candidateName"`
}

func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (h *CandidateHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addCandidateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := h.service.Add(r.Context(), req.CandidateName); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Candidate %s registered successfully", req.CandidateName),
	})
}
