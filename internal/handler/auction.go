package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"terrabid-api/internal/service"
	"terrabid-api/pkg/apierror"
	"terrabid-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// AuctionHandler handles auction-related HTTP requests.
type AuctionHandler struct {
	auctions *service.AuctionService
}

// NewAuctionHandler creates a new auction handler.
func NewAuctionHandler(auctions *service.AuctionService) *AuctionHandler {
	return &AuctionHandler{auctions: auctions}
}

// placeBidRequest is the bid submission body.
type placeBidRequest struct {
	BidderID   string `json:"bidderId"`
	BidderName string `json:"bidderName"`
	Amount     int64  `json:"amount"`
}

// placeBidResponse echoes the accepted bid and the next acceptance threshold.
type placeBidResponse struct {
	Accepted   bool   `json:"accepted"`
	BidID      string `json:"bidId"`
	CurrentBid int64  `json:"currentBid"`
	MinNextBid int64  `json:"minNextBid"`
	Increment  int64  `json:"increment"`
}

// PlaceBid handles POST /api/v1/auctions/{auction_id}/bids
func (h *AuctionHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	auctionID := chi.URLParam(r, "auction_id")

	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if req.BidderID == "" {
		response.Error(w, apierror.BadRequest("bidderId is required"))
		return
	}

	result, err := h.auctions.PlaceBid(r.Context(), auctionID, req.BidderID, req.BidderName, req.Amount)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, placeBidResponse{
		Accepted:   true,
		BidID:      result.Bid.ID,
		CurrentBid: result.CurrentBid,
		MinNextBid: result.MinNextBid,
		Increment:  result.Increment,
	})
}

// GetAuction handles GET /api/v1/auctions/{auction_id}
func (h *AuctionHandler) GetAuction(w http.ResponseWriter, r *http.Request) {
	auctionID := chi.URLParam(r, "auction_id")

	a, err := h.auctions.GetAuction(r.Context(), auctionID)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}
	response.OK(w, a)
}

// ListBids handles GET /api/v1/auctions/{auction_id}/bids
func (h *AuctionHandler) ListBids(w http.ResponseWriter, r *http.Request) {
	auctionID := chi.URLParam(r, "auction_id")

	bids, err := h.auctions.ListBids(r.Context(), auctionID)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}
	response.OK(w, map[string]interface{}{
		"auction_id": auctionID,
		"bids":       bids,
		"count":      len(bids),
	})
}

// createAuctionRequest opens an auction on a territory (admin surface).
type createAuctionRequest struct {
	TerritoryID string     `json:"territoryId"`
	MinimumBid  int64      `json:"minimumBid"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     time.Time  `json:"endTime"`
}

// CreateAuction handles POST /api/v1/auctions
func (h *AuctionHandler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var req createAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	start := time.Now().UTC()
	if req.StartTime != nil {
		start = *req.StartTime
	}

	a, err := h.auctions.CreateAuction(r.Context(), req.TerritoryID, req.MinimumBid, start, req.EndTime)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}
	response.Created(w, a)
}
