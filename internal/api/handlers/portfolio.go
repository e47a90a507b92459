package handlers

import (
	"net/http"

	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/pkg/logger"
)

// PortfolioHandler handles portfolio optimization
type PortfolioHandler struct {
	service Analytics
	logger  *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(service Analytics, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		service: service,
		logger:  log,
	}
}

// OptimizeRequest request body
type OptimizeRequest struct {
	Symbols      []string `json:"symbols"`
	TargetReturn float64  `json:"target_return"`
}

// Optimize returns minimum-variance weights and risk metrics
// POST /api/portfolio/optimize
func (h *PortfolioHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Symbols) == 0 {
		respondError(w, http.StatusBadRequest, "symbols is required", contracts.KindInvalidInput)
		return
	}

	report, err := h.service.Optimize(r.Context(), req.Symbols, req.TargetReturn)
	if err != nil {
		respondFailure(w, h.logger, "portfolio optimization", err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
