package http

import (
	"net/http"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type VoteHandler struct {
	service ports.VotingService
}

func NewVoteHandler(service ports.VotingService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteRequest struct {
	Address       string `json:"address"`
	CandidateName string `json:"candidateName"`
}

type voteResponse struct {
	Message string `json:"message"`
	TxHash  string `json:"txHash"`
}

func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.service.Vote(r.Context(), domain.VoteRequest{
		Address:       req.Address,
		CandidateName: req.CandidateName,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, voteResponse{
		Message: "Vote cast successfully",
		TxHash:  result.Receipt.TxHash,
	})
}
