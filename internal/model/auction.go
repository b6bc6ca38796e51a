package model

import "time"

// Auction status values. Transitions are monotonic:
// pending -> active -> ended | cancelled. Nothing leaves ended/cancelled.
const (
	AuctionPending   = "pending"
	AuctionActive    = "active"
	AuctionEnded     = "ended"
	AuctionCancelled = "cancelled"
)

// Cancellation reasons recorded when an auction closes without a winner.
const (
	CancelReasonNoBids = "no_bids"
	CancelReasonAdmin  = "admin"
)

// Auction represents a time-boxed bidding process for one territory.
// CurrentBid/CurrentBidderID are denormalized from the bids table and are
// recomputed as MAX(amount) under the auction row lock on every write, never
// blindly overwritten.
type Auction struct {
	ID              string     `json:"id"`
	TerritoryID     string     `json:"territory_id"`
	Status          string     `json:"status"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	MinimumBid      int64      `json:"minimum_bid"`
	CurrentBid      int64      `json:"current_bid"`
	CurrentBidderID *string    `json:"current_bidder_id,omitempty"`
	WinningAmount   int64      `json:"winning_amount,omitempty"`
	WinnerUserID    *string    `json:"winner_user_id,omitempty"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	TransferError   string     `json:"transfer_error,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	TransferredAt   *time.Time `json:"transferred_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AcceptsBids reports whether the auction can take a bid at the given instant.
func (a *Auction) AcceptsBids(now time.Time) bool {
	return a.Status == AuctionActive && now.Before(a.EndTime)
}
