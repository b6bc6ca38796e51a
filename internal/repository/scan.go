package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"terrabid-api/internal/model"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so the scan helpers
// below are shared between the SQLite and PostgreSQL backends.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTerritory(row rowScanner) (*model.Territory, error) {
	var t model.Territory
	var owner, auction sql.NullString
	var protExpires sql.NullTime

	err := row.Scan(&t.ID, &owner, &t.OwnerName, &t.ProtectionStatus, &protExpires,
		&t.LastWinningAmount, &auction, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan territory: %w", err)
	}
	t.OwnerUserID = nullableString(owner)
	t.CurrentAuctionID = nullableString(auction)
	t.ProtectionExpiresAt = nullableTime(protExpires)
	return &t, nil
}

func scanAuction(row rowScanner) (*model.Auction, error) {
	var a model.Auction
	var bidder, winner sql.NullString
	var endedAt, transferredAt sql.NullTime

	err := row.Scan(&a.ID, &a.TerritoryID, &a.Status, &a.StartTime, &a.EndTime,
		&a.MinimumBid, &a.CurrentBid, &bidder, &a.WinningAmount, &winner,
		&a.CancelReason, &a.TransferError, &endedAt, &transferredAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan auction: %w", err)
	}
	a.CurrentBidderID = nullableString(bidder)
	a.WinnerUserID = nullableString(winner)
	a.EndedAt = nullableTime(endedAt)
	a.TransferredAt = nullableTime(transferredAt)
	return &a, nil
}

func scanBid(row rowScanner) (*model.Bid, error) {
	var b model.Bid
	err := row.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.BidderName, &b.Amount, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan bid: %w", err)
	}
	return &b, nil
}

func scanWallet(row rowScanner) (*model.Wallet, error) {
	var w model.Wallet
	err := row.Scan(&w.UserID, &w.Balance, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}
	return &w, nil
}

func scanTransfer(row rowScanner) (*model.OwnershipTransfer, error) {
	var t model.OwnershipTransfer
	var prev sql.NullString
	err := row.Scan(&t.RequestID, &t.TerritoryID, &prev, &t.NewOwnerID,
		&t.Amount, &t.Reason, &t.TransactionID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan ownership transfer: %w", err)
	}
	t.PreviousOwnerID = nullableString(prev)
	return &t, nil
}

func collectBids(rows *sql.Rows) ([]model.Bid, error) {
	var bids []model.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *b)
	}
	return bids, rows.Err()
}

func collectWalletTransactions(rows *sql.Rows) ([]model.WalletTransaction, error) {
	var txs []model.WalletTransaction
	for rows.Next() {
		var t model.WalletTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.BalanceAfter,
			&t.Description, &t.ReferenceID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
