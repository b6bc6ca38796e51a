package repository

import (
	"context"
	"time"

	"terrabid-api/internal/model"
)

// Store is the transactional store holding territories, auctions, bids,
// wallets and the ownership-transfer log. Plain methods are single-statement
// reads; anything that mutates state runs inside ExecTx so money, ownership
// and the idempotency log commit or roll back together.
type Store interface {
	// ExecTx runs fn inside one store transaction. Row reads obtained through
	// the Tx hold row-level locks until commit, so check-then-write sequences
	// in fn are safe against concurrent writers.
	ExecTx(ctx context.Context, fn func(tx Tx) error) error

	GetTerritory(ctx context.Context, id string) (*model.Territory, error)
	GetAuction(ctx context.Context, id string) (*model.Auction, error)
	ListBids(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetWallet(ctx context.Context, userID string) (*model.Wallet, error)
	ListWalletTransactions(ctx context.Context, userID string, limit int) ([]model.WalletTransaction, error)

	// ListExpiredAuctionIDs returns ids of active auctions whose end time has
	// passed. It takes no locks; candidates are re-claimed one at a time by
	// Tx.ClaimAuction so concurrent settlement runs partition the work.
	ListExpiredAuctionIDs(ctx context.Context, now time.Time, limit int) ([]string, error)

	// ActivateDueAuctions flips pending auctions whose start time has passed
	// to active and reports how many were promoted.
	ActivateDueAuctions(ctx context.Context, now time.Time) (int64, error)

	// Ping verifies the underlying connection for readiness checks.
	Ping(ctx context.Context) error

	Close() error
}

// Tx exposes row-locked access inside one store transaction. All reads
// through a Tx see the transaction's own writes.
type Tx interface {
	InsertTerritory(ctx context.Context, t *model.Territory) error
	// GetTerritory loads the territory under a row lock (nil if absent).
	GetTerritory(ctx context.Context, id string) (*model.Territory, error)
	// UpdateTerritoryOwner persists the ownership-transfer mutation: owner,
	// protection window, last winning amount and the cleared auction pointer.
	UpdateTerritoryOwner(ctx context.Context, t *model.Territory) error
	// SetTerritoryAuction updates only the current-auction pointer
	// (nil releases it).
	SetTerritoryAuction(ctx context.Context, territoryID string, auctionID *string) error

	InsertAuction(ctx context.Context, a *model.Auction) error
	// GetAuction loads the auction under a row lock (nil if absent).
	GetAuction(ctx context.Context, id string) (*model.Auction, error)
	// ClaimAuction locks an active, expired auction for settlement. It
	// returns nil without error when the auction was already settled or is
	// currently locked by a concurrent settlement run.
	ClaimAuction(ctx context.Context, id string, now time.Time) (*model.Auction, error)
	// UpdateAuctionBid writes the recomputed current-bid pointer.
	UpdateAuctionBid(ctx context.Context, auctionID string, amount int64, bidderID string) error
	EndAuction(ctx context.Context, auctionID string, winnerID string, winningAmount int64, endedAt time.Time) error
	CancelAuction(ctx context.Context, auctionID string, reason string, endedAt time.Time) error
	SetAuctionTransferred(ctx context.Context, auctionID string, at time.Time) error
	SetAuctionTransferError(ctx context.Context, auctionID string, msg string) error

	InsertBid(ctx context.Context, b *model.Bid) error
	// TopBid returns the auction's maximum bid, ties broken by earliest
	// arrival, or nil when no bid exists.
	TopBid(ctx context.Context, auctionID string) (*model.Bid, error)

	// GetWallet loads the wallet under a row lock (nil if absent).
	GetWallet(ctx context.Context, userID string) (*model.Wallet, error)
	InsertWallet(ctx context.Context, w *model.Wallet) error
	UpdateWalletBalance(ctx context.Context, userID string, balance int64, at time.Time) error
	InsertWalletTransaction(ctx context.Context, t *model.WalletTransaction) error

	// GetTransfer looks up a prior transfer by idempotency request id
	// (nil if absent).
	GetTransfer(ctx context.Context, requestID string) (*model.OwnershipTransfer, error)
	InsertTransfer(ctx context.Context, t *model.OwnershipTransfer) error
}

// PaymentRepository is the read-only lookup against the upstream payment
// processor's confirmation records.
type PaymentRepository interface {
	// GetPayment returns the payment record by id (nil if absent).
	GetPayment(ctx context.Context, paymentID string) (*model.Payment, error)
}
