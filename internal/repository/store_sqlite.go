package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"terrabid-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteStore implements Store using SQLite. WAL mode for concurrent reads;
// a single writer connection plus a mutex serializes write transactions, so
// check-then-write sequences inside ExecTx behave as if row-locked.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (and if needed creates) the SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteStore] Initialized with database: %s", dbPath)
	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS territories (
		id TEXT PRIMARY KEY,
		owner_user_id TEXT,
		owner_name TEXT NOT NULL DEFAULT '',
		protection_status TEXT NOT NULL DEFAULT 'none',
		protection_expires_at TIMESTAMP,
		last_winning_amount INTEGER NOT NULL DEFAULT 0,
		current_auction_id TEXT,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS auctions (
		id TEXT PRIMARY KEY,
		territory_id TEXT NOT NULL,
		status TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		minimum_bid INTEGER NOT NULL,
		current_bid INTEGER NOT NULL DEFAULT 0,
		current_bidder_id TEXT,
		winning_amount INTEGER NOT NULL DEFAULT 0,
		winner_user_id TEXT,
		cancel_reason TEXT NOT NULL DEFAULT '',
		transfer_error TEXT NOT NULL DEFAULT '',
		ended_at TIMESTAMP,
		transferred_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_auctions_status_end ON auctions(status, end_time);
	CREATE INDEX IF NOT EXISTS idx_auctions_territory ON auctions(territory_id);
	CREATE TABLE IF NOT EXISTS bids (
		id TEXT PRIMARY KEY,
		auction_id TEXT NOT NULL,
		bidder_id TEXT NOT NULL,
		bidder_name TEXT NOT NULL DEFAULT '',
		amount INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bids_auction ON bids(auction_id, amount DESC);
	CREATE TABLE IF NOT EXISTS wallets (
		user_id TEXT PRIMARY KEY,
		balance INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS wallet_transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		amount INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		reference_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_wallet_tx_user ON wallet_transactions(user_id, created_at);
	CREATE TABLE IF NOT EXISTS ownership_transfers (
		request_id TEXT PRIMARY KEY,
		territory_id TEXT NOT NULL,
		previous_owner_id TEXT,
		new_owner_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		reason TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transfers_territory ON ownership_transfers(territory_id, created_at);
	`
	_, err := db.Exec(query)
	return err
}

// ExecTx runs fn inside a write transaction. The store mutex guarantees a
// single in-flight write transaction, which on SQLite is equivalent to the
// row-lock discipline the Tx contract promises.
func (s *SQLiteStore) ExecTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTerritory(ctx context.Context, id string) (*model.Territory, error) {
	return scanTerritory(s.db.QueryRowContext(ctx, sqliteSelectTerritory, id))
}

func (s *SQLiteStore) GetAuction(ctx context.Context, id string) (*model.Auction, error) {
	return scanAuction(s.db.QueryRowContext(ctx, sqliteSelectAuction, id))
}

func (s *SQLiteStore) ListBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, auction_id, bidder_id, bidder_name, amount, created_at
		 FROM bids WHERE auction_id = ? ORDER BY amount DESC, created_at ASC, id ASC`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()
	return collectBids(rows)
}

func (s *SQLiteStore) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	return scanWallet(s.db.QueryRowContext(ctx,
		`SELECT user_id, balance, updated_at FROM wallets WHERE user_id = ?`, userID))
}

func (s *SQLiteStore) ListWalletTransactions(ctx context.Context, userID string, limit int) ([]model.WalletTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, type, amount, balance_after, description, reference_id, created_at
		 FROM wallet_transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()
	return collectWalletTransactions(rows)
}

func (s *SQLiteStore) ListExpiredAuctionIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM auctions WHERE status = ? AND end_time <= ? ORDER BY end_time ASC LIMIT ?`,
		model.AuctionActive, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired auctions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) ActivateDueAuctions(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE auctions SET status = ? WHERE status = ? AND start_time <= ?`,
		model.AuctionActive, model.AuctionPending, now)
	if err != nil {
		return 0, fmt.Errorf("failed to activate pending auctions: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteSelectTerritory = `
	SELECT id, owner_user_id, owner_name, protection_status, protection_expires_at,
	       last_winning_amount, current_auction_id, updated_at
	FROM territories WHERE id = ?`

const sqliteSelectAuction = `
	SELECT id, territory_id, status, start_time, end_time, minimum_bid,
	       current_bid, current_bidder_id, winning_amount, winner_user_id,
	       cancel_reason, transfer_error, ended_at, transferred_at, created_at
	FROM auctions WHERE id = ?`

// sqliteTx implements Tx over a *sql.Tx. The one-writer pool means every
// statement here already holds the database write lock.
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) InsertTerritory(ctx context.Context, terr *model.Territory) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO territories (id, owner_user_id, owner_name, protection_status,
			protection_expires_at, last_winning_amount, current_auction_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		terr.ID, terr.OwnerUserID, terr.OwnerName, terr.ProtectionStatus,
		terr.ProtectionExpiresAt, terr.LastWinningAmount, terr.CurrentAuctionID, terr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert territory %s: %w", terr.ID, err)
	}
	return nil
}

func (t *sqliteTx) GetTerritory(ctx context.Context, id string) (*model.Territory, error) {
	return scanTerritory(t.tx.QueryRowContext(ctx, sqliteSelectTerritory, id))
}

func (t *sqliteTx) UpdateTerritoryOwner(ctx context.Context, terr *model.Territory) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE territories SET owner_user_id = ?, owner_name = ?, protection_status = ?,
			protection_expires_at = ?, last_winning_amount = ?, current_auction_id = ?, updated_at = ?
		 WHERE id = ?`,
		terr.OwnerUserID, terr.OwnerName, terr.ProtectionStatus, terr.ProtectionExpiresAt,
		terr.LastWinningAmount, terr.CurrentAuctionID, terr.UpdatedAt, terr.ID)
	if err != nil {
		return fmt.Errorf("failed to update territory %s: %w", terr.ID, err)
	}
	return nil
}

func (t *sqliteTx) SetTerritoryAuction(ctx context.Context, territoryID string, auctionID *string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE territories SET current_auction_id = ?, updated_at = ? WHERE id = ?`,
		auctionID, time.Now().UTC(), territoryID)
	if err != nil {
		return fmt.Errorf("failed to set territory auction pointer: %w", err)
	}
	return nil
}

func (t *sqliteTx) InsertAuction(ctx context.Context, a *model.Auction) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO auctions (id, territory_id, status, start_time, end_time, minimum_bid,
			current_bid, current_bidder_id, winning_amount, winner_user_id,
			cancel_reason, transfer_error, ended_at, transferred_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TerritoryID, a.Status, a.StartTime, a.EndTime, a.MinimumBid,
		a.CurrentBid, a.CurrentBidderID, a.WinningAmount, a.WinnerUserID,
		a.CancelReason, a.TransferError, a.EndedAt, a.TransferredAt, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert auction %s: %w", a.ID, err)
	}
	return nil
}

func (t *sqliteTx) GetAuction(ctx context.Context, id string) (*model.Auction, error) {
	return scanAuction(t.tx.QueryRowContext(ctx, sqliteSelectAuction, id))
}

func (t *sqliteTx) ClaimAuction(ctx context.Context, id string, now time.Time) (*model.Auction, error) {
	// The status recheck inside the write transaction is the claim: a
	// concurrent run that settled this auction first has already committed
	// status=ended/cancelled, and this query then returns no row.
	a, err := scanAuction(t.tx.QueryRowContext(ctx,
		sqliteSelectAuction+` AND status = ? AND end_time <= ?`, id, model.AuctionActive, now))
	if err != nil {
		return nil, fmt.Errorf("failed to claim auction %s: %w", id, err)
	}
	return a, nil
}

func (t *sqliteTx) UpdateAuctionBid(ctx context.Context, auctionID string, amount int64, bidderID string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE auctions SET current_bid = ?, current_bidder_id = ? WHERE id = ?`,
		amount, bidderID, auctionID)
	if err != nil {
		return fmt.Errorf("failed to update auction bid pointer: %w", err)
	}
	return nil
}

func (t *sqliteTx) EndAuction(ctx context.Context, auctionID string, winnerID string, winningAmount int64, endedAt time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE auctions SET status = ?, winner_user_id = ?, winning_amount = ?, ended_at = ?
		 WHERE id = ? AND status = ?`,
		model.AuctionEnded, winnerID, winningAmount, endedAt, auctionID, model.AuctionActive)
	if err != nil {
		return fmt.Errorf("failed to end auction %s: %w", auctionID, err)
	}
	return nil
}

func (t *sqliteTx) CancelAuction(ctx context.Context, auctionID string, reason string, endedAt time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE auctions SET status = ?, cancel_reason = ?, ended_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		model.AuctionCancelled, reason, endedAt, auctionID, model.AuctionPending, model.AuctionActive)
	if err != nil {
		return fmt.Errorf("failed to cancel auction %s: %w", auctionID, err)
	}
	return nil
}

func (t *sqliteTx) SetAuctionTransferred(ctx context.Context, auctionID string, at time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE auctions SET transferred_at = ? WHERE id = ?`, at, auctionID)
	if err != nil {
		return fmt.Errorf("failed to stamp auction transfer: %w", err)
	}
	return nil
}

func (t *sqliteTx) SetAuctionTransferError(ctx context.Context, auctionID string, msg string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE auctions SET transfer_error = ? WHERE id = ?`, msg, auctionID)
	if err != nil {
		return fmt.Errorf("failed to record transfer error: %w", err)
	}
	return nil
}

func (t *sqliteTx) InsertBid(ctx context.Context, b *model.Bid) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO bids (id, auction_id, bidder_id, bidder_name, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.AuctionID, b.BidderID, b.BidderName, b.Amount, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	return nil
}

func (t *sqliteTx) TopBid(ctx context.Context, auctionID string) (*model.Bid, error) {
	return scanBid(t.tx.QueryRowContext(ctx,
		`SELECT id, auction_id, bidder_id, bidder_name, amount, created_at
		 FROM bids WHERE auction_id = ?
		 ORDER BY amount DESC, created_at ASC, id ASC LIMIT 1`, auctionID))
}

func (t *sqliteTx) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	return scanWallet(t.tx.QueryRowContext(ctx,
		`SELECT user_id, balance, updated_at FROM wallets WHERE user_id = ?`, userID))
}

func (t *sqliteTx) InsertWallet(ctx context.Context, w *model.Wallet) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO wallets (user_id, balance, updated_at) VALUES (?, ?, ?)`,
		w.UserID, w.Balance, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert wallet for %s: %w", w.UserID, err)
	}
	return nil
}

func (t *sqliteTx) UpdateWalletBalance(ctx context.Context, userID string, balance int64, at time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE wallets SET balance = ?, updated_at = ? WHERE user_id = ?`,
		balance, at, userID)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance for %s: %w", userID, err)
	}
	return nil
}

func (t *sqliteTx) InsertWalletTransaction(ctx context.Context, w *model.WalletTransaction) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO wallet_transactions (id, user_id, type, amount, balance_after, description, reference_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.Type, w.Amount, w.BalanceAfter, w.Description, w.ReferenceID, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert wallet transaction: %w", err)
	}
	return nil
}

func (t *sqliteTx) GetTransfer(ctx context.Context, requestID string) (*model.OwnershipTransfer, error) {
	return scanTransfer(t.tx.QueryRowContext(ctx,
		`SELECT request_id, territory_id, previous_owner_id, new_owner_id, amount, reason, transaction_id, created_at
		 FROM ownership_transfers WHERE request_id = ?`, requestID))
}

func (t *sqliteTx) InsertTransfer(ctx context.Context, tr *model.OwnershipTransfer) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO ownership_transfers (request_id, territory_id, previous_owner_id, new_owner_id, amount, reason, transaction_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.RequestID, tr.TerritoryID, tr.PreviousOwnerID, tr.NewOwnerID, tr.Amount, tr.Reason, tr.TransactionID, tr.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ownership transfer: %w", err)
	}
	return nil
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
var _ Tx = (*sqliteTx)(nil)
