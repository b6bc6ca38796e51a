package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"terrabid-api/internal/model"
	"terrabid-api/internal/repository"
	"terrabid-api/pkg/uid"
)

// WalletService serves balance reads and credit operations. Debits happen
// only inside the ownership-transfer transaction.
type WalletService struct {
	store   repository.Store
	inval   *Invalidator
	timeout time.Duration
}

// NewWalletService creates a wallet service.
func NewWalletService(store repository.Store, inval *Invalidator, timeout time.Duration) *WalletService {
	return &WalletService{store: store, inval: inval, timeout: timeout}
}

// GetWallet returns the wallet and its most recent ledger entries.
func (s *WalletService) GetWallet(ctx context.Context, userID string, historyLimit int) (*model.Wallet, []model.WalletTransaction, error) {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	w, err := s.store.GetWallet(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if w == nil {
		return nil, nil, ErrWalletNotFound
	}
	history, err := s.store.ListWalletTransactions(ctx, userID, historyLimit)
	if err != nil {
		return nil, nil, err
	}
	return w, history, nil
}

// Credit adds funds to a wallet, creating it on first use, with the paired
// ledger entry in the same transaction.
func (s *WalletService) Credit(ctx context.Context, userID string, amount int64, txType, description, referenceID string) (*model.Wallet, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive", ErrInvalidInput)
	}
	switch txType {
	case model.WalletTxRefund, model.WalletTxReward, model.WalletTxAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown credit type %q", ErrInvalidInput, txType)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var wallet *model.Wallet
	err := s.store.ExecTx(ctx, func(tx repository.Tx) error {
		now := time.Now().UTC()

		w, err := tx.GetWallet(ctx, userID)
		if err != nil {
			return err
		}
		if w == nil {
			w = &model.Wallet{UserID: userID, UpdatedAt: now}
			if err := tx.InsertWallet(ctx, w); err != nil {
				return err
			}
		}

		w.Balance += amount
		w.UpdatedAt = now
		if err := tx.UpdateWalletBalance(ctx, userID, w.Balance, now); err != nil {
			return err
		}
		if err := tx.InsertWalletTransaction(ctx, &model.WalletTransaction{
			ID:           uid.New(),
			UserID:       userID,
			Type:         txType,
			Amount:       amount,
			BalanceAfter: w.Balance,
			Description:  description,
			ReferenceID:  referenceID,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.inval.Wallet(ctx, userID)
	log.Printf("[WalletService] Credited %s by %d (%s), balance=%d", userID, amount, txType, wallet.Balance)
	return wallet, nil
}
