package cache

// Key scheme. Per-entity keys have no stale window beyond invalidation
// latency; list keys are bounded by their TTL only.
const keyPrefix = "terrabid:"

// TerritoryKey is the snapshot key for a single territory.
func TerritoryKey(id string) string { return keyPrefix + "territory:" + id }

// AuctionKey is the snapshot key for a single auction.
func AuctionKey(id string) string { return keyPrefix + "auction:" + id }

// BidListKey is the list key for an auction's bid history.
func BidListKey(auctionID string) string { return keyPrefix + "auction:" + auctionID + ":bids" }

// WalletKey is the snapshot key for a user's wallet.
func WalletKey(userID string) string { return keyPrefix + "wallet:" + userID }
