package http

import (
	"net/http"

	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type HealthHandler struct {
	service ports.HealthService
}

func NewHealthHandler(service ports.HealthService) *HealthHandler {
	return &HealthHandler{
		service: service,
	}
}

type healthErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Check(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, healthErrorResponse{Status: "error", Error: publicMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type contractResponse struct {
	Status       string `json:"status"`
	Address      string `json:"address"`
	BytecodeSize int    `json:"bytecodeSize"`
}

func (h *HealthHandler) Contract(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Contract(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, contractResponse{
		Status:       "Contract found",
		Address:      info.Address,
		BytecodeSize: info.BytecodeSize,
	})
}
