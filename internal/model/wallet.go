package model

import "time"

// Wallet transaction types.
const (
	WalletTxPurchase = "purchase"
	WalletTxCharge   = "charge"
	WalletTxRefund   = "refund"
	WalletTxReward   = "reward"
	WalletTxAdmin    = "admin"
)

// Wallet holds a user's current balance. The balance mutates only inside a
// debit/credit transaction paired with a WalletTransaction row.
type Wallet struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WalletTransaction is one append-only ledger entry. Amount is signed
// (negative for debits); BalanceAfter snapshots the balance at commit time
// so the ledger can be audited for drift.
type WalletTransaction struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Type         string    `json:"type"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Description  string    `json:"description,omitempty"`
	ReferenceID  string    `json:"reference_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
