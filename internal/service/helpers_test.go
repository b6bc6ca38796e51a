package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"terrabid-api/internal/cache"
	"terrabid-api/internal/config"
	"terrabid-api/internal/model"
	"terrabid-api/internal/repository"
	"terrabid-api/pkg/uid"
)

const testTimeout = 5 * time.Second

type testEnv struct {
	store       repository.Store
	cache       cache.Cache
	auctions    *AuctionService
	transfers   *TransferService
	settlement  *SettlementService
	wallets     *WalletService
	territories *TerritoryService
	payments    *fakePaymentRepo
}

// fakePaymentRepo stands in for the upstream payment processor's records.
type fakePaymentRepo struct {
	payments map[string]*model.Payment
}

func (f *fakePaymentRepo) GetPayment(ctx context.Context, paymentID string) (*model.Payment, error) {
	return f.payments[paymentID], nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })

	auctionCfg := config.AuctionConfig{
		BidIncrement:    1,
		ProtectionTiers: "0=168h,100=336h,400=720h",
	}
	tiers, err := auctionCfg.ProtectionTable()
	if err != nil {
		t.Fatalf("failed to parse protection tiers: %v", err)
	}

	payments := &fakePaymentRepo{payments: make(map[string]*model.Payment)}
	inval := NewInvalidator(c)
	transfers := NewTransferService(store, payments, inval, tiers, testTimeout)

	return &testEnv{
		store:     store,
		cache:     c,
		auctions:  NewAuctionService(store, c, inval, AuctionServiceConfig{
			BidIncrement: auctionCfg.BidIncrement,
			SnapshotTTL:  time.Minute,
			ListTTL:      time.Second,
			StoreTimeout: testTimeout,
		}),
		transfers:   transfers,
		settlement:  NewSettlementService(store, transfers, inval, 100, testTimeout),
		wallets:     NewWalletService(store, inval, testTimeout),
		territories: NewTerritoryService(store, c, inval, time.Minute, testTimeout),
		payments:    payments,
	}
}

func (e *testEnv) seedTerritory(t *testing.T, id string) {
	t.Helper()
	err := e.store.ExecTx(context.Background(), func(tx repository.Tx) error {
		return tx.InsertTerritory(context.Background(), &model.Territory{
			ID:               id,
			ProtectionStatus: model.ProtectionNone,
			UpdatedAt:        time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("failed to seed territory %s: %v", id, err)
	}
}

// seedAuction inserts an auction directly so tests control its time window.
func (e *testEnv) seedAuction(t *testing.T, territoryID string, minimumBid int64, status string, start, end time.Time) string {
	t.Helper()
	id := uid.New()
	err := e.store.ExecTx(context.Background(), func(tx repository.Tx) error {
		if err := tx.InsertAuction(context.Background(), &model.Auction{
			ID:          id,
			TerritoryID: territoryID,
			Status:      status,
			StartTime:   start,
			EndTime:     end,
			MinimumBid:  minimumBid,
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			return err
		}
		return tx.SetTerritoryAuction(context.Background(), territoryID, &id)
	})
	if err != nil {
		t.Fatalf("failed to seed auction: %v", err)
	}
	return id
}

func (e *testEnv) fundWallet(t *testing.T, userID string, amount int64) {
	t.Helper()
	if _, err := e.wallets.Credit(context.Background(), userID, amount, model.WalletTxAdmin, "test funding", ""); err != nil {
		t.Fatalf("failed to fund wallet %s: %v", userID, err)
	}
}

func (e *testEnv) getTransfer(t *testing.T, requestID string) *model.OwnershipTransfer {
	t.Helper()
	var transfer *model.OwnershipTransfer
	err := e.store.ExecTx(context.Background(), func(tx repository.Tx) error {
		tr, err := tx.GetTransfer(context.Background(), requestID)
		transfer = tr
		return err
	})
	if err != nil {
		t.Fatalf("failed to look up transfer %s: %v", requestID, err)
	}
	return transfer
}
