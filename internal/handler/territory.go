package handler

import (
	"encoding/json"
	"net/http"

	"terrabid-api/internal/service"
	"terrabid-api/pkg/apierror"
	"terrabid-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// TerritoryHandler handles territory and ownership-transfer HTTP requests.
type TerritoryHandler struct {
	territories *service.TerritoryService
	transfers   *service.TransferService
}

// NewTerritoryHandler creates a new territory handler.
func NewTerritoryHandler(territories *service.TerritoryService, transfers *service.TransferService) *TerritoryHandler {
	return &TerritoryHandler{territories: territories, transfers: transfers}
}

// GetTerritory handles GET /api/v1/territories/{territory_id}
func (h *TerritoryHandler) GetTerritory(w http.ResponseWriter, r *http.Request) {
	territoryID := chi.URLParam(r, "territory_id")

	t, err := h.territories.GetTerritory(r.Context(), territoryID)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}
	response.OK(w, t)
}

// registerTerritoryRequest creates a territory record (admin surface).
type registerTerritoryRequest struct {
	TerritoryID string `json:"territoryId"`
}

// RegisterTerritory handles POST /api/v1/territories
func (h *TerritoryHandler) RegisterTerritory(w http.ResponseWriter, r *http.Request) {
	var req registerTerritoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	t, err := h.territories.RegisterTerritory(r.Context(), req.TerritoryID)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}
	response.Created(w, t)
}

// transferRequest is the ownership-transfer body. RequestID is the caller's
// idempotency key; omitting it disables replay protection for this call.
type transferRequest struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Price     int64  `json:"price"`
	Reason    string `json:"reason"`
	PaymentID string `json:"paymentId,omitempty"`
	AuctionID string `json:"auctionId,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Transfer handles POST /api/v1/territories/{territory_id}/transfer
func (h *TerritoryHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	territoryID := chi.URLParam(r, "territory_id")

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	result, err := h.transfers.TransferOwnership(r.Context(), service.TransferRequest{
		TerritoryID: territoryID,
		UserID:      req.UserID,
		UserName:    req.UserName,
		Price:       req.Price,
		Reason:      req.Reason,
		PaymentID:   req.PaymentID,
		AuctionID:   req.AuctionID,
		RequestID:   req.RequestID,
	})
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}
	response.OK(w, result)
}
