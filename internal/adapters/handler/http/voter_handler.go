package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type VoterHandler struct {
	registration ports.RegistrationService
	voting       ports.VotingService
}

func NewVoterHandler(registration ports.RegistrationService, voting ports.VotingService) *VoterHandler {
	return &VoterHandler{
		registration: registration,
		voting:       voting,
	}
}

type registerRequest struct {
	Username          string `json:"username"`
	AccountIdentifier string `json:"accountIdentifier"`
	AccountNumber     string `json:"accountNumber"`
	Constituency      string `json:"constituency"`
	Address           string `json:"address"`
	Signature         string `json:"signature"`
}

type registerResponse struct {
	Message string        `json:"message"`
	Voter   *domain.Voter `json:"voter"`
	TxHash  string        `json:"txHash"`
}

func (h *VoterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	accountIdentifier := req.AccountIdentifier
	if accountIdentifier == "" {
		accountIdentifier = req.AccountNumber
	}

	result, err := h.registration.Register(r.Context(), domain.RegistrationClaim{
		Username:          req.Username,
		AccountIdentifier: accountIdentifier,
		Constituency:      req.Constituency,
		Address:           req.Address,
		Signature:         req.Signature,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		Message: "Voter registered successfully",
		Voter:   result.Voter,
		TxHash:  result.Receipt.TxHash,
	})
}

func (h *VoterHandler) GetVoter(w http.ResponseWriter, r *http.Request) {
	voter, err := h.voting.GetVoter(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		if errors.Is(err, domain.ErrVoterNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		if errors.Is(err, domain.ErrMalformedRequest) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, voter)
}
