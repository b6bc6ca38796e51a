package model

import "time"

// Bid is one append-only entry in an auction's bid history.
// Bids are never updated or deleted; ordering is amount desc, then time asc.
type Bid struct {
	ID         string    `json:"id"`
	AuctionID  string    `json:"auction_id"`
	BidderID   string    `json:"bidder_id"`
	BidderName string    `json:"bidder_name,omitempty"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}
