package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"terrabid-api/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertTerritory(t *testing.T, store *SQLiteStore, id string) {
	t.Helper()
	err := store.ExecTx(context.Background(), func(tx Tx) error {
		return tx.InsertTerritory(context.Background(), &model.Territory{
			ID:               id,
			ProtectionStatus: model.ProtectionNone,
			UpdatedAt:        time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("failed to insert territory: %v", err)
	}
}

func insertAuction(t *testing.T, store *SQLiteStore, a *model.Auction) {
	t.Helper()
	err := store.ExecTx(context.Background(), func(tx Tx) error {
		return tx.InsertAuction(context.Background(), a)
	})
	if err != nil {
		t.Fatalf("failed to insert auction: %v", err)
	}
}

func TestTerritoryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	owner := "alice"
	expires := now.Add(168 * time.Hour)
	err := store.ExecTx(ctx, func(tx Tx) error {
		return tx.InsertTerritory(ctx, &model.Territory{
			ID:                  "T1",
			OwnerUserID:         &owner,
			OwnerName:           "Alice",
			ProtectionStatus:    model.ProtectionActive,
			ProtectionExpiresAt: &expires,
			LastWinningAmount:   42,
			UpdatedAt:           now,
		})
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := store.GetTerritory(ctx, "T1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatalf("expected territory")
	}
	if got.OwnerUserID == nil || *got.OwnerUserID != "alice" {
		t.Errorf("owner mismatch: %+v", got)
	}
	if got.ProtectionStatus != model.ProtectionActive || got.ProtectionExpiresAt == nil {
		t.Errorf("protection mismatch: %+v", got)
	}
	if got.LastWinningAmount != 42 {
		t.Errorf("last winning amount mismatch: %d", got.LastWinningAmount)
	}

	missing, err := store.GetTerritory(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown id")
	}
}

func TestClaimAuctionSemantics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insertTerritory(t, store, "T1")
	insertAuction(t, store, &model.Auction{
		ID: "A1", TerritoryID: "T1", Status: model.AuctionActive,
		StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour),
		MinimumBid: 10, CreatedAt: now,
	})
	insertAuction(t, store, &model.Auction{
		ID: "A2", TerritoryID: "T1", Status: model.AuctionActive,
		StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour),
		MinimumBid: 10, CreatedAt: now,
	})

	err := store.ExecTx(ctx, func(tx Tx) error {
		// Expired and active: claimable.
		a, err := tx.ClaimAuction(ctx, "A1", now)
		if err != nil {
			return err
		}
		if a == nil || a.ID != "A1" {
			t.Errorf("expected to claim A1, got %+v", a)
		}

		// Still running: not claimable.
		a, err = tx.ClaimAuction(ctx, "A2", now)
		if err != nil {
			return err
		}
		if a != nil {
			t.Errorf("running auction must not be claimable")
		}

		// Unknown id: not claimable.
		a, err = tx.ClaimAuction(ctx, "nope", now)
		if err != nil {
			return err
		}
		if a != nil {
			t.Errorf("unknown auction must not be claimable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx failed: %v", err)
	}

	// Once ended, the claim never matches again.
	err = store.ExecTx(ctx, func(tx Tx) error {
		if err := tx.EndAuction(ctx, "A1", "alice", 10, now); err != nil {
			return err
		}
		a, err := tx.ClaimAuction(ctx, "A1", now)
		if err != nil {
			return err
		}
		if a != nil {
			t.Errorf("ended auction must not be claimable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx failed: %v", err)
	}
}

func TestTopBidOrderingAndTieBreak(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insertTerritory(t, store, "T1")
	insertAuction(t, store, &model.Auction{
		ID: "A1", TerritoryID: "T1", Status: model.AuctionActive,
		StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour),
		MinimumBid: 10, CreatedAt: now,
	})

	err := store.ExecTx(ctx, func(tx Tx) error {
		bids := []model.Bid{
			{ID: "b1", AuctionID: "A1", BidderID: "u1", Amount: 10, CreatedAt: now.Add(-3 * time.Minute)},
			{ID: "b2", AuctionID: "A1", BidderID: "u2", Amount: 15, CreatedAt: now.Add(-2 * time.Minute)},
			// Equal amount, later timestamp: the earlier bid wins the tie.
			{ID: "b3", AuctionID: "A1", BidderID: "u3", Amount: 15, CreatedAt: now.Add(-time.Minute)},
		}
		for i := range bids {
			if err := tx.InsertBid(ctx, &bids[i]); err != nil {
				return err
			}
		}

		top, err := tx.TopBid(ctx, "A1")
		if err != nil {
			return err
		}
		if top == nil || top.ID != "b2" {
			t.Errorf("expected earliest max bid b2, got %+v", top)
		}

		none, err := tx.TopBid(ctx, "other")
		if err != nil {
			return err
		}
		if none != nil {
			t.Errorf("expected nil top bid for auction with no bids")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx failed: %v", err)
	}

	list, err := store.ListBids(ctx, "A1")
	if err != nil {
		t.Fatalf("list bids failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 bids, got %d", len(list))
	}
	if list[0].ID != "b2" {
		t.Errorf("expected bid list ordered top-first, got %s", list[0].ID)
	}
}

func TestListExpiredAuctionIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insertTerritory(t, store, "T1")
	insertTerritory(t, store, "T2")
	insertTerritory(t, store, "T3")
	insertAuction(t, store, &model.Auction{
		ID: "expired", TerritoryID: "T1", Status: model.AuctionActive,
		StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour), CreatedAt: now,
	})
	insertAuction(t, store, &model.Auction{
		ID: "running", TerritoryID: "T2", Status: model.AuctionActive,
		StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour), CreatedAt: now,
	})
	insertAuction(t, store, &model.Auction{
		ID: "pending", TerritoryID: "T3", Status: model.AuctionPending,
		StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour), CreatedAt: now,
	})

	ids, err := store.ListExpiredAuctionIDs(ctx, now, 100)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "expired" {
		t.Fatalf("expected only the expired active auction, got %v", ids)
	}
}

func TestActivateDueAuctions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insertTerritory(t, store, "T1")
	insertTerritory(t, store, "T2")
	insertAuction(t, store, &model.Auction{
		ID: "due", TerritoryID: "T1", Status: model.AuctionPending,
		StartTime: now.Add(-time.Minute), EndTime: now.Add(time.Hour), CreatedAt: now,
	})
	insertAuction(t, store, &model.Auction{
		ID: "future", TerritoryID: "T2", Status: model.AuctionPending,
		StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour), CreatedAt: now,
	})

	n, err := store.ActivateDueAuctions(ctx, now)
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 activation, got %d", n)
	}

	a, _ := store.GetAuction(ctx, "due")
	if a.Status != model.AuctionActive {
		t.Errorf("due auction must be active, got %s", a.Status)
	}
	f, _ := store.GetAuction(ctx, "future")
	if f.Status != model.AuctionPending {
		t.Errorf("future auction must stay pending, got %s", f.Status)
	}
}

func TestEndAndCancelGuards(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insertTerritory(t, store, "T1")
	insertAuction(t, store, &model.Auction{
		ID: "A1", TerritoryID: "T1", Status: model.AuctionActive,
		StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour), CreatedAt: now,
	})

	err := store.ExecTx(ctx, func(tx Tx) error {
		if err := tx.EndAuction(ctx, "A1", "alice", 25, now); err != nil {
			return err
		}
		// Terminal states never transition again.
		if err := tx.CancelAuction(ctx, "A1", model.CancelReasonAdmin, now); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx failed: %v", err)
	}

	a, err := store.GetAuction(ctx, "A1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if a.Status != model.AuctionEnded {
		t.Fatalf("cancel must not override ended, got %s", a.Status)
	}
	if a.WinnerUserID == nil || *a.WinnerUserID != "alice" || a.WinningAmount != 25 {
		t.Fatalf("winner fields mismatch: %+v", a)
	}
	if a.EndedAt == nil {
		t.Fatalf("expected ended_at to be stamped")
	}
}

func TestTransferInsertAndLookup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := store.ExecTx(ctx, func(tx Tx) error {
		if err := tx.InsertTransfer(ctx, &model.OwnershipTransfer{
			RequestID:     "req-1",
			TerritoryID:   "T1",
			NewOwnerID:    "alice",
			Amount:        30,
			Reason:        model.TransferDirectPurchase,
			TransactionID: "tx-1",
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		got, err := tx.GetTransfer(ctx, "req-1")
		if err != nil {
			return err
		}
		if got == nil || got.TransactionID != "tx-1" || got.NewOwnerID != "alice" {
			t.Errorf("unexpected transfer: %+v", got)
		}
		if got.PreviousOwnerID != nil {
			t.Errorf("expected nil previous owner")
		}

		missing, err := tx.GetTransfer(ctx, "nope")
		if err != nil {
			return err
		}
		if missing != nil {
			t.Errorf("expected nil for unknown request id")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx failed: %v", err)
	}

	// Duplicate request id violates the primary key.
	err = store.ExecTx(ctx, func(tx Tx) error {
		return tx.InsertTransfer(ctx, &model.OwnershipTransfer{
			RequestID: "req-1", TerritoryID: "T1", NewOwnerID: "bob",
			Amount: 1, Reason: model.TransferAdminFix, TransactionID: "tx-2", CreatedAt: now,
		})
	})
	if err == nil {
		t.Fatalf("expected duplicate request id to fail")
	}
}

func TestWalletBalanceAndLedger(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := store.ExecTx(ctx, func(tx Tx) error {
		if err := tx.InsertWallet(ctx, &model.Wallet{UserID: "alice", Balance: 100, UpdatedAt: now}); err != nil {
			return err
		}
		if err := tx.UpdateWalletBalance(ctx, "alice", 70, now); err != nil {
			return err
		}
		return tx.InsertWalletTransaction(ctx, &model.WalletTransaction{
			ID: "wt-1", UserID: "alice", Type: model.WalletTxPurchase,
			Amount: -30, BalanceAfter: 70, ReferenceID: "T1", CreatedAt: now,
		})
	})
	if err != nil {
		t.Fatalf("tx failed: %v", err)
	}

	w, err := store.GetWallet(ctx, "alice")
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if w.Balance != 70 {
		t.Fatalf("expected balance 70, got %d", w.Balance)
	}

	txs, err := store.ListWalletTransactions(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("list ledger failed: %v", err)
	}
	if len(txs) != 1 || txs[0].Amount != -30 || txs[0].BalanceAfter != 70 {
		t.Fatalf("unexpected ledger: %+v", txs)
	}
}
