package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"terrabid-api/internal/config"
	"terrabid-api/internal/model"
	"terrabid-api/internal/repository"
	"terrabid-api/pkg/uid"
)

// TransferRequest describes one ownership transfer.
type TransferRequest struct {
	TerritoryID string
	UserID      string
	UserName    string
	Price       int64
	Reason      string
	PaymentID   string
	AuctionID   string
	// RequestID is the caller's idempotency key. When empty, no replay
	// protection applies to this call.
	RequestID string
}

// TransferService performs the atomic ownership-transfer transaction:
// wallet debit, ledger entry, territory mutation and the idempotency-log
// insert commit or roll back as one unit.
type TransferService struct {
	store    repository.Store
	payments repository.PaymentRepository
	inval    *Invalidator
	tiers    []config.ProtectionTier
	timeout  time.Duration
}

// NewTransferService creates a transfer service. payments may be nil when the
// upstream payment database is not configured; payment-referencing transfers
// then fail as unavailable rather than silently skipping verification.
func NewTransferService(
	store repository.Store,
	payments repository.PaymentRepository,
	inval *Invalidator,
	tiers []config.ProtectionTier,
	timeout time.Duration,
) *TransferService {
	return &TransferService{
		store:    store,
		payments: payments,
		inval:    inval,
		tiers:    tiers,
		timeout:  timeout,
	}
}

// TransferOwnership runs one transfer in its own store transaction and
// invalidates the affected cache keys before returning.
func (s *TransferService) TransferOwnership(ctx context.Context, req TransferRequest) (*model.TransferResult, error) {
	if err := validateTransferRequest(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result *model.TransferResult
	err := s.store.ExecTx(ctx, func(tx repository.Tx) error {
		r, err := s.apply(ctx, tx, req, time.Now().UTC())
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.inval.Territory(ctx, req.TerritoryID)
	if req.AuctionID != "" {
		s.inval.Auction(ctx, req.AuctionID)
	}
	s.inval.Wallet(ctx, req.UserID)

	return result, nil
}

func validateTransferRequest(req TransferRequest) error {
	if req.TerritoryID == "" || req.UserID == "" {
		return fmt.Errorf("%w: territory id and user id are required", ErrInvalidInput)
	}
	if req.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	switch req.Reason {
	case model.TransferDirectPurchase, model.TransferAuctionWon, model.TransferAdminFix:
	default:
		return fmt.Errorf("%w: unknown transfer reason %q", ErrInvalidInput, req.Reason)
	}
	if req.Reason == model.TransferAuctionWon && req.AuctionID == "" {
		return fmt.Errorf("%w: auction id is required for auction_won", ErrInvalidInput)
	}
	return nil
}

// apply executes the transfer inside an already-open transaction. The
// settlement engine calls this directly so the auction close and the
// ownership transfer share one commit.
func (s *TransferService) apply(ctx context.Context, tx repository.Tx, req TransferRequest, now time.Time) (*model.TransferResult, error) {
	// Idempotent replay: a prior transfer under the same request id is the
	// recorded outcome, returned unchanged with no further effects.
	if req.RequestID != "" {
		prior, err := tx.GetTransfer(ctx, req.RequestID)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			log.Printf("[TransferService] Replay of request %s (territory=%s)", req.RequestID, prior.TerritoryID)
			return &model.TransferResult{
				TransactionID: prior.TransactionID,
				TerritoryID:   prior.TerritoryID,
				UserID:        prior.NewOwnerID,
				Price:         prior.Amount,
				Reason:        prior.Reason,
				Replayed:      true,
			}, nil
		}
	}

	terr, err := tx.GetTerritory(ctx, req.TerritoryID)
	if err != nil {
		return nil, err
	}
	if terr == nil {
		return nil, ErrTerritoryNotFound
	}

	// A directly purchased territory must be unowned (or re-bought by its
	// own current owner); auction wins and admin fixes may displace an owner.
	if terr.OwnerUserID != nil && *terr.OwnerUserID != req.UserID &&
		req.Reason == model.TransferDirectPurchase {
		return nil, ErrAlreadyOwned
	}

	switch req.Reason {
	case model.TransferDirectPurchase:
		if err := s.verifyPayment(ctx, req); err != nil {
			return nil, err
		}
		if err := debitWallet(ctx, tx, req, model.WalletTxPurchase, now); err != nil {
			return nil, err
		}
	case model.TransferAuctionWon:
		a, err := tx.GetAuction(ctx, req.AuctionID)
		if err != nil {
			return nil, err
		}
		if a == nil || a.Status != model.AuctionEnded {
			return nil, ErrAuctionNotEnded
		}
		if a.WinnerUserID == nil || *a.WinnerUserID != req.UserID {
			return nil, ErrNotWinningBidder
		}
		if err := debitWallet(ctx, tx, req, model.WalletTxCharge, now); err != nil {
			return nil, err
		}
	case model.TransferAdminFix:
		// manual correction path, no payment or wallet checks
	}

	transactionID := uid.New()
	requestID := req.RequestID
	if requestID == "" {
		requestID = transactionID
	}

	prevOwner := terr.OwnerUserID
	owner := req.UserID
	expires := now.Add(protectionDuration(s.tiers, req.Price))

	terr.OwnerUserID = &owner
	terr.OwnerName = req.UserName
	terr.ProtectionStatus = model.ProtectionActive
	terr.ProtectionExpiresAt = &expires
	terr.LastWinningAmount = req.Price
	terr.CurrentAuctionID = nil
	terr.UpdatedAt = now
	if err := tx.UpdateTerritoryOwner(ctx, terr); err != nil {
		return nil, err
	}

	if err := tx.InsertTransfer(ctx, &model.OwnershipTransfer{
		RequestID:       requestID,
		TerritoryID:     req.TerritoryID,
		PreviousOwnerID: prevOwner,
		NewOwnerID:      req.UserID,
		Amount:          req.Price,
		Reason:          req.Reason,
		TransactionID:   transactionID,
		CreatedAt:       now,
	}); err != nil {
		return nil, err
	}

	if req.Reason == model.TransferAuctionWon {
		if err := tx.SetAuctionTransferred(ctx, req.AuctionID, now); err != nil {
			return nil, err
		}
	}

	log.Printf("[TransferService] Territory %s -> %s (reason=%s price=%d tx=%s)",
		req.TerritoryID, req.UserID, req.Reason, req.Price, transactionID)

	return &model.TransferResult{
		TransactionID: transactionID,
		TerritoryID:   req.TerritoryID,
		UserID:        req.UserID,
		Price:         req.Price,
		Reason:        req.Reason,
	}, nil
}

// verifyPayment checks the upstream payment confirmation when the caller
// references one: it must exist, belong to the acquiring user, be completed
// and cover the price.
func (s *TransferService) verifyPayment(ctx context.Context, req TransferRequest) error {
	if req.PaymentID == "" {
		return nil
	}
	if s.payments == nil {
		return fmt.Errorf("payment lookup unavailable for payment %s", req.PaymentID)
	}
	p, err := s.payments.GetPayment(ctx, req.PaymentID)
	if err != nil {
		return fmt.Errorf("payment lookup failed: %w", err)
	}
	if p == nil || p.UserID != req.UserID {
		return ErrPaymentNotFound
	}
	if p.Status != model.PaymentCompleted || p.Amount < req.Price {
		return ErrPaymentIncomplete
	}
	return nil
}

// debitWallet checks the balance and debits it, appending the paired ledger
// entry in the same transaction. The balance is never allowed to go negative.
func debitWallet(ctx context.Context, tx repository.Tx, req TransferRequest, txType string, now time.Time) error {
	w, err := tx.GetWallet(ctx, req.UserID)
	if err != nil {
		return err
	}
	if w == nil || w.Balance < req.Price {
		return ErrInsufficientBalance
	}

	reference := req.TerritoryID
	description := fmt.Sprintf("Purchase of territory %s", req.TerritoryID)
	if req.Reason == model.TransferAuctionWon {
		reference = req.AuctionID
		description = fmt.Sprintf("Winning bid for territory %s", req.TerritoryID)
	}

	newBalance := w.Balance - req.Price
	if err := tx.UpdateWalletBalance(ctx, req.UserID, newBalance, now); err != nil {
		return err
	}
	return tx.InsertWalletTransaction(ctx, &model.WalletTransaction{
		ID:           uid.New(),
		UserID:       req.UserID,
		Type:         txType,
		Amount:       -req.Price,
		BalanceAfter: newBalance,
		Description:  description,
		ReferenceID:  reference,
		CreatedAt:    now,
	})
}

// protectionDuration resolves the step table: the tier with the highest
// threshold not exceeding the price applies. The table is validated at load
// time to be non-decreasing, so a higher price never shortens the window.
func protectionDuration(tiers []config.ProtectionTier, price int64) time.Duration {
	d := tiers[0].Duration
	for _, t := range tiers {
		if price >= t.MinPrice {
			d = t.Duration
		}
	}
	return d
}
