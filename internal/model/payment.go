package model

import "time"

// Payment statuses as recorded by the upstream payment processor.
const (
	PaymentCompleted = "completed"
)

// Payment is a read-only view of a payment-confirmation record owned by the
// upstream payment system. The transfer path only ever verifies it, never
// writes it.
type Payment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
