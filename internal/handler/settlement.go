package handler

import (
	"net/http"

	"terrabid-api/internal/service"
	"terrabid-api/pkg/response"
)

// SettlementHandler exposes the scheduled auction-close trigger.
type SettlementHandler struct {
	settlement *service.SettlementService
}

// NewSettlementHandler creates a new settlement handler.
func NewSettlementHandler(settlement *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlement: settlement}
}

// Run handles POST /api/v1/settlement/run. Safe to call repeatedly and
// concurrently: each invocation settles only the auctions it claims.
func (h *SettlementHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.settlement.CloseExpired(r.Context())
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}
	response.OK(w, result)
}
