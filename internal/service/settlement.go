package service

import (
	"context"
	"log"
	"time"

	"terrabid-api/internal/model"
	"terrabid-api/internal/repository"
)

// SettlementService closes expired auctions. It is driven by an external
// scheduler that may fire at-least-once and concurrently; per-auction claims
// under row locks make duplicate invocations partition the work instead of
// double-processing it.
type SettlementService struct {
	store      repository.Store
	transfers  *TransferService
	inval      *Invalidator
	batchLimit int
	runTimeout time.Duration
}

// NewSettlementService creates a settlement service.
func NewSettlementService(store repository.Store, transfers *TransferService, inval *Invalidator, batchLimit int, runTimeout time.Duration) *SettlementService {
	return &SettlementService{
		store:      store,
		transfers:  transfers,
		inval:      inval,
		batchLimit: batchLimit,
		runTimeout: runTimeout,
	}
}

// SettlementResult summarizes one settlement run.
type SettlementResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

// CloseExpired promotes due pending auctions, then settles every active
// auction whose end time has passed. Finding zero eligible auctions is a
// correct no-op.
func (s *SettlementService) CloseExpired(ctx context.Context) (*SettlementResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	now := time.Now().UTC()

	if n, err := s.store.ActivateDueAuctions(ctx, now); err != nil {
		log.Printf("[SettlementService] Failed to activate pending auctions: %v", err)
	} else if n > 0 {
		log.Printf("[SettlementService] Activated %d pending auctions", n)
	}

	ids, err := s.store.ListExpiredAuctionIDs(ctx, now, s.batchLimit)
	if err != nil {
		return nil, err
	}

	result := &SettlementResult{}
	for _, id := range ids {
		territoryID, transferFailed, err := s.settleOne(ctx, id)
		if err != nil {
			// Infrastructure failure: the claim rolled back, the auction is
			// still active and a later run will retry it.
			log.Printf("[SettlementService] Failed to settle auction %s: %v", id, err)
			result.Errors++
			continue
		}
		if territoryID == "" {
			// Already settled, or claimed by a concurrent run.
			continue
		}

		result.Processed++
		if transferFailed {
			result.Errors++
		}

		s.inval.Auction(ctx, id)
		s.inval.BidList(ctx, id)
		s.inval.Territory(ctx, territoryID)
	}

	log.Printf("[SettlementService] Run complete: candidates=%d processed=%d errors=%d",
		len(ids), result.Processed, result.Errors)
	return result, nil
}

// settleOne claims and settles a single auction in its own transaction.
// Returns the affected territory id ("" when nothing was claimed) and
// whether the winner's transfer was rejected.
func (s *SettlementService) settleOne(ctx context.Context, auctionID string) (string, bool, error) {
	var territoryID string
	var transferFailed bool

	err := s.store.ExecTx(ctx, func(tx repository.Tx) error {
		now := time.Now().UTC()

		a, err := tx.ClaimAuction(ctx, auctionID, now)
		if err != nil {
			return err
		}
		if a == nil {
			return nil
		}
		territoryID = a.TerritoryID

		top, err := tx.TopBid(ctx, a.ID)
		if err != nil {
			return err
		}

		if top == nil {
			// No bids: cancel and release the territory for a future auction.
			if err := tx.CancelAuction(ctx, a.ID, model.CancelReasonNoBids, now); err != nil {
				return err
			}
			if err := tx.SetTerritoryAuction(ctx, a.TerritoryID, nil); err != nil {
				return err
			}
			log.Printf("[SettlementService] Auction %s cancelled (%s)", a.ID, model.CancelReasonNoBids)
			return nil
		}

		if err := tx.EndAuction(ctx, a.ID, top.BidderID, top.Amount, now); err != nil {
			return err
		}

		_, err = s.transfers.apply(ctx, tx, TransferRequest{
			TerritoryID: a.TerritoryID,
			UserID:      top.BidderID,
			UserName:    top.BidderName,
			Price:       top.Amount,
			Reason:      model.TransferAuctionWon,
			AuctionID:   a.ID,
			RequestID:   "settle:" + a.ID,
		}, now)
		if err != nil {
			if !IsDomain(err) {
				// Transient failure: roll back so the auction stays active
				// and a later run retries the whole close.
				return err
			}
			// Validation failure: the auction must not stay active past its
			// end, and the transfer must not be retried blindly. Keep it
			// ended and flag it for manual reconciliation.
			transferFailed = true
			if markErr := tx.SetAuctionTransferError(ctx, a.ID, err.Error()); markErr != nil {
				return markErr
			}
			log.Printf("[SettlementService] Auction %s ended but transfer rejected: %v", a.ID, err)
			return nil
		}

		log.Printf("[SettlementService] Auction %s settled: winner=%s amount=%d",
			a.ID, top.BidderID, top.Amount)
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return territoryID, transferFailed, nil
}
