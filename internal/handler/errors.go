package handler

import (
	"errors"

	"terrabid-api/internal/service"
	"terrabid-api/pkg/apierror"
)

// mapServiceError converts a service-layer error into a structured API error.
// Conflict outcomes keep distinct machine-readable codes so clients can
// retry with corrected input.
func mapServiceError(err error) *apierror.Error {
	var tooLow *service.BidTooLowError
	if errors.As(err, &tooLow) {
		return apierror.Conflict(tooLow.Error()).WithCode("BID_TOO_LOW")
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return apierror.BadRequest(err.Error())
	case errors.Is(err, service.ErrAuctionNotFound):
		return apierror.NotFound("auction not found")
	case errors.Is(err, service.ErrTerritoryNotFound):
		return apierror.NotFound("territory not found")
	case errors.Is(err, service.ErrWalletNotFound):
		return apierror.NotFound("wallet not found")
	case errors.Is(err, service.ErrAuctionNotActive):
		return apierror.Conflict(err.Error()).WithCode("AUCTION_NOT_ACTIVE")
	case errors.Is(err, service.ErrAuctionAlreadyOpen):
		return apierror.Conflict(err.Error()).WithCode("AUCTION_ALREADY_OPEN")
	case errors.Is(err, service.ErrTerritoryProtected):
		return apierror.Conflict(err.Error()).WithCode("TERRITORY_PROTECTED")
	case errors.Is(err, service.ErrAlreadyOwned):
		return apierror.Conflict(err.Error()).WithCode("ALREADY_OWNED")
	case errors.Is(err, service.ErrAuctionNotEnded):
		return apierror.Conflict(err.Error()).WithCode("AUCTION_NOT_ENDED")
	case errors.Is(err, service.ErrNotWinningBidder):
		return apierror.Conflict(err.Error()).WithCode("NOT_WINNING_BIDDER")
	case errors.Is(err, service.ErrInsufficientBalance):
		return apierror.PaymentRequired(err.Error()).WithCode("INSUFFICIENT_BALANCE")
	case errors.Is(err, service.ErrPaymentNotFound):
		return apierror.PaymentRequired(err.Error()).WithCode("PAYMENT_NOT_FOUND")
	case errors.Is(err, service.ErrPaymentIncomplete):
		return apierror.PaymentRequired(err.Error()).WithCode("PAYMENT_INCOMPLETE")
	default:
		return apierror.InternalError("")
	}
}
