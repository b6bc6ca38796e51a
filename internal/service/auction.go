package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"terrabid-api/internal/cache"
	"terrabid-api/internal/model"
	"terrabid-api/internal/repository"
	"terrabid-api/pkg/uid"
)

// AuctionService owns the auction lifecycle and the bid-acceptance rule.
type AuctionService struct {
	store       repository.Store
	cache       cache.Cache
	inval       *Invalidator
	increment   int64
	snapshotTTL time.Duration
	listTTL     time.Duration
	timeout     time.Duration
}

// AuctionServiceConfig holds the knobs for NewAuctionService.
type AuctionServiceConfig struct {
	BidIncrement int64
	SnapshotTTL  time.Duration
	ListTTL      time.Duration
	StoreTimeout time.Duration
}

// NewAuctionService creates an auction service.
func NewAuctionService(store repository.Store, c cache.Cache, inval *Invalidator, cfg AuctionServiceConfig) *AuctionService {
	return &AuctionService{
		store:       store,
		cache:       c,
		inval:       inval,
		increment:   cfg.BidIncrement,
		snapshotTTL: cfg.SnapshotTTL,
		listTTL:     cfg.ListTTL,
		timeout:     cfg.StoreTimeout,
	}
}

// BidResult is returned to an accepted bidder.
type BidResult struct {
	Bid        *model.Bid `json:"bid"`
	CurrentBid int64      `json:"current_bid"`
	MinNextBid int64      `json:"min_next_bid"`
	Increment  int64      `json:"increment"`
}

// PlaceBid validates and records one bid. The accept check, the bid insert
// and the current-bid recompute all run under the auction's row lock, so two
// concurrent bidders can never both pass a stale current-bid check, and the
// denormalized pointer always lands on the maximum bid regardless of arrival
// order.
func (s *AuctionService) PlaceBid(ctx context.Context, auctionID, bidderID, bidderName string, amount int64) (*BidResult, error) {
	if auctionID == "" || bidderID == "" {
		return nil, fmt.Errorf("%w: auction id and bidder id are required", ErrInvalidInput)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: bid amount must be positive", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result *BidResult
	err := s.store.ExecTx(ctx, func(tx repository.Tx) error {
		a, err := tx.GetAuction(ctx, auctionID)
		if err != nil {
			return err
		}
		if a == nil {
			return ErrAuctionNotFound
		}

		now := time.Now().UTC()
		if !a.AcceptsBids(now) {
			return ErrAuctionNotActive
		}

		// Threshold comes from the bid table under lock, never from the
		// cached current_bid column.
		top, err := tx.TopBid(ctx, auctionID)
		if err != nil {
			return err
		}
		if top == nil {
			if amount < a.MinimumBid {
				return &BidTooLowError{MinNextBid: a.MinimumBid}
			}
		} else if amount < top.Amount+s.increment {
			return &BidTooLowError{MinNextBid: top.Amount + s.increment}
		}

		bid := &model.Bid{
			ID:         uid.New(),
			AuctionID:  auctionID,
			BidderID:   bidderID,
			BidderName: bidderName,
			Amount:     amount,
			CreatedAt:  now,
		}
		if err := tx.InsertBid(ctx, bid); err != nil {
			return err
		}

		// Re-derive the pointer as MAX over all bids rather than overwriting
		// with the new amount; this tolerates out-of-order arrival.
		newTop, err := tx.TopBid(ctx, auctionID)
		if err != nil {
			return err
		}
		if err := tx.UpdateAuctionBid(ctx, auctionID, newTop.Amount, newTop.BidderID); err != nil {
			return err
		}

		result = &BidResult{
			Bid:        bid,
			CurrentBid: newTop.Amount,
			MinNextBid: newTop.Amount + s.increment,
			Increment:  s.increment,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.inval.Auction(ctx, auctionID)
	s.inval.BidList(ctx, auctionID)

	return result, nil
}

// GetAuction returns an auction, cache-first with store fallback. The
// snapshot key is dropped on every write, so a hit is never staler than the
// invalidation latency.
func (s *AuctionService) GetAuction(ctx context.Context, id string) (*model.Auction, error) {
	data, err := s.cache.GetOrSet(ctx, cache.AuctionKey(id), s.snapshotTTL, func() ([]byte, error) {
		a, err := s.store.GetAuction(ctx, id)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, ErrAuctionNotFound
		}
		return json.Marshal(a)
	})
	if err != nil {
		return nil, err
	}

	var a model.Auction
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode cached auction: %w", err)
	}
	return &a, nil
}

// ListBids returns an auction's bid history, ordered amount desc then time
// asc. Served through a TTL-bounded list key.
func (s *AuctionService) ListBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	data, err := s.cache.GetOrSet(ctx, cache.BidListKey(auctionID), s.listTTL, func() ([]byte, error) {
		bids, err := s.store.ListBids(ctx, auctionID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(bids)
	})
	if err != nil {
		return nil, err
	}

	var bids []model.Bid
	if err := json.Unmarshal(data, &bids); err != nil {
		return nil, fmt.Errorf("failed to decode cached bids: %w", err)
	}
	return bids, nil
}

// CreateAuction opens an auction on a territory that is neither protected
// nor already under auction. The auction starts pending when the start time
// is in the future, active otherwise.
func (s *AuctionService) CreateAuction(ctx context.Context, territoryID string, minimumBid int64, start, end time.Time) (*model.Auction, error) {
	if territoryID == "" {
		return nil, fmt.Errorf("%w: territory id is required", ErrInvalidInput)
	}
	if minimumBid <= 0 {
		return nil, fmt.Errorf("%w: minimum bid must be positive", ErrInvalidInput)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var auction *model.Auction
	err := s.store.ExecTx(ctx, func(tx repository.Tx) error {
		terr, err := tx.GetTerritory(ctx, territoryID)
		if err != nil {
			return err
		}
		if terr == nil {
			return ErrTerritoryNotFound
		}
		if terr.CurrentAuctionID != nil {
			return ErrAuctionAlreadyOpen
		}
		now := time.Now().UTC()
		if terr.IsProtected(now) {
			return ErrTerritoryProtected
		}

		status := model.AuctionActive
		if start.After(now) {
			status = model.AuctionPending
		}
		auction = &model.Auction{
			ID:          uid.New(),
			TerritoryID: territoryID,
			Status:      status,
			StartTime:   start,
			EndTime:     end,
			MinimumBid:  minimumBid,
			CreatedAt:   now,
		}
		if err := tx.InsertAuction(ctx, auction); err != nil {
			return err
		}
		return tx.SetTerritoryAuction(ctx, territoryID, &auction.ID)
	})
	if err != nil {
		return nil, err
	}

	s.inval.Territory(ctx, territoryID)
	log.Printf("[AuctionService] Opened auction %s on territory %s (min=%d end=%v)",
		auction.ID, territoryID, minimumBid, end)

	return auction, nil
}
