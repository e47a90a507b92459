package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/pkg/logger"
)

// NetworkHandler handles correlation network endpoints
type NetworkHandler struct {
	service Analytics
	logger  *logger.Logger
}

// NewNetworkHandler creates a new network handler
func NewNetworkHandler(service Analytics, log *logger.Logger) *NetworkHandler {
	return &NetworkHandler{
		service: service,
		logger:  log,
	}
}

// NetworkRequest request body. Threshold 생략 시 서버 기본값
type NetworkRequest struct {
	Symbols   []string `json:"symbols"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// Build returns graph, centralities and the plot key
// POST /api/correlation/network
func (h *NetworkHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req NetworkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Symbols) == 0 {
		respondError(w, http.StatusBadRequest, "symbols is required", contracts.KindInvalidInput)
		return
	}

	report, err := h.service.Network(r.Context(), req.Symbols, req.Threshold)
	if err != nil {
		respondFailure(w, h.logger, "correlation network", err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Plot serves a rendered PNG by key
// GET /api/correlation/plot/{key}
func (h *NetworkHandler) Plot(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	img, err := h.service.Plot(r.Context(), key)
	if err != nil {
		respondFailure(w, h.logger, "plot", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}
