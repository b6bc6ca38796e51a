package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"terrabid-api/internal/service"
	"terrabid-api/pkg/apierror"
	"terrabid-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// WalletHandler handles wallet HTTP requests.
type WalletHandler struct {
	wallets *service.WalletService
}

// NewWalletHandler creates a new wallet handler.
func NewWalletHandler(wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// GetWallet handles GET /api/v1/wallets/{user_id}
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	wallet, history, err := h.wallets.GetWallet(r.Context(), userID, limit)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}
	response.OK(w, map[string]interface{}{
		"wallet":       wallet,
		"transactions": history,
	})
}

// creditRequest funds a wallet (admin surface: refunds, rewards, corrections).
type creditRequest struct {
	Amount      int64  `json:"amount"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	ReferenceID string `json:"referenceId,omitempty"`
}

// Credit handles POST /api/v1/wallets/{user_id}/credit
func (h *WalletHandler) Credit(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	wallet, err := h.wallets.Credit(r.Context(), userID, req.Amount, req.Type, req.Description, req.ReferenceID)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}
	response.OK(w, wallet)
}
