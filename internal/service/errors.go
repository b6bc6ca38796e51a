package service

import (
	"errors"
	"fmt"
)

// Domain errors surfaced to callers. These are conflict/validation outcomes:
// safe to retry with corrected input, never retried automatically by the
// service itself. Anything not matching IsDomain is treated as a transient
// infrastructure failure and rolls back the enclosing transaction.
var (
	ErrAuctionNotFound     = errors.New("auction not found")
	ErrAuctionNotActive    = errors.New("auction is not accepting bids")
	ErrAuctionAlreadyOpen  = errors.New("territory already has an open auction")
	ErrTerritoryNotFound   = errors.New("territory not found")
	ErrTerritoryProtected  = errors.New("territory is inside its protection window")
	ErrAlreadyOwned        = errors.New("territory is already owned")
	ErrPaymentNotFound     = errors.New("payment record not found")
	ErrPaymentIncomplete   = errors.New("payment is not completed or does not cover the price")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrAuctionNotEnded     = errors.New("auction has not ended")
	ErrNotWinningBidder    = errors.New("user is not the winning bidder")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInvalidInput        = errors.New("invalid input")
)

// BidTooLowError rejects a bid below the acceptance threshold and carries the
// minimum amount the next bid must reach.
type BidTooLowError struct {
	MinNextBid int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid too low: minimum next bid is %d", e.MinNextBid)
}

var domainErrors = []error{
	ErrAuctionNotFound,
	ErrAuctionNotActive,
	ErrAuctionAlreadyOpen,
	ErrTerritoryNotFound,
	ErrTerritoryProtected,
	ErrAlreadyOwned,
	ErrPaymentNotFound,
	ErrPaymentIncomplete,
	ErrInsufficientBalance,
	ErrAuctionNotEnded,
	ErrNotWinningBidder,
	ErrWalletNotFound,
	ErrInvalidInput,
}

// IsDomain reports whether err is a domain validation/conflict outcome rather
// than an infrastructure failure.
func IsDomain(err error) bool {
	var tooLow *BidTooLowError
	if errors.As(err, &tooLow) {
		return true
	}
	for _, de := range domainErrors {
		if errors.Is(err, de) {
			return true
		}
	}
	return false
}
