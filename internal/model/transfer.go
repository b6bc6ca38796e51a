package model

import "time"

// Transfer reasons.
const (
	TransferDirectPurchase = "direct_purchase"
	TransferAuctionWon     = "auction_won"
	TransferAdminFix       = "admin_fix"
)

// OwnershipTransfer is one append-only row per completed transfer, keyed by
// the caller's idempotency request id. It is the durable anchor that lets a
// retried transfer observe the first attempt's outcome instead of
// re-executing effects.
type OwnershipTransfer struct {
	RequestID       string    `json:"request_id"`
	TerritoryID     string    `json:"territory_id"`
	PreviousOwnerID *string   `json:"previous_owner_id,omitempty"`
	NewOwnerID      string    `json:"new_owner_id"`
	Amount          int64     `json:"amount"`
	Reason          string    `json:"reason"`
	TransactionID   string    `json:"transaction_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// TransferResult is the response echoed to a transfer caller. Replays of the
// same request id reproduce the identical result from the transfer log.
type TransferResult struct {
	TransactionID string `json:"transaction_id"`
	TerritoryID   string `json:"territory_id"`
	UserID        string `json:"user_id"`
	Price         int64  `json:"price"`
	Reason        string `json:"reason"`
	Replayed      bool   `json:"-"`
}
