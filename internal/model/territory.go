package model

import "time"

// Protection status values for a territory.
const (
	ProtectionNone   = "none"
	ProtectionActive = "protected"
)

// Territory represents a claimable map region and its current ownership state.
// Owner fields mutate only inside the ownership-transfer transaction.
type Territory struct {
	ID                  string     `json:"id"`
	OwnerUserID         *string    `json:"owner_user_id,omitempty"`
	OwnerName           string     `json:"owner_name,omitempty"`
	ProtectionStatus    string     `json:"protection_status"`
	ProtectionExpiresAt *time.Time `json:"protection_expires_at,omitempty"`
	LastWinningAmount   int64      `json:"last_winning_amount"`
	CurrentAuctionID    *string    `json:"current_auction_id,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsProtected reports whether the territory is inside its protection window.
func (t *Territory) IsProtected(now time.Time) bool {
	return t.ProtectionStatus == ProtectionActive &&
		t.ProtectionExpiresAt != nil &&
		now.Before(*t.ProtectionExpiresAt)
}
