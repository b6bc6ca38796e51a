package service

import (
	"context"
	"log"

	"terrabid-api/internal/cache"
)

// Invalidator drops cache keys after committed writes. Invalidation runs
// synchronously before the caller's response is acknowledged, but a failure
// is logged and swallowed: it must never undo a committed transfer. Readers
// fall back to the transactional store on a miss, so the worst case of a
// failed invalidation is bounded by the snapshot TTL.
type Invalidator struct {
	cache cache.Cache
}

// NewInvalidator creates an invalidator over the given cache.
func NewInvalidator(c cache.Cache) *Invalidator {
	return &Invalidator{cache: c}
}

// Auction drops the snapshot key for one auction.
func (i *Invalidator) Auction(ctx context.Context, id string) {
	i.drop(ctx, cache.AuctionKey(id))
}

// BidList drops the bid-history key for one auction.
func (i *Invalidator) BidList(ctx context.Context, auctionID string) {
	i.drop(ctx, cache.BidListKey(auctionID))
}

// Territory drops the snapshot key for one territory.
func (i *Invalidator) Territory(ctx context.Context, id string) {
	i.drop(ctx, cache.TerritoryKey(id))
}

// Wallet drops the snapshot key for one wallet.
func (i *Invalidator) Wallet(ctx context.Context, userID string) {
	i.drop(ctx, cache.WalletKey(userID))
}

func (i *Invalidator) drop(ctx context.Context, key string) {
	if i == nil || i.cache == nil {
		return
	}
	if err := i.cache.Delete(ctx, key); err != nil {
		log.Printf("[Invalidator] Failed to drop %s: %v", key, err)
	}
}
