package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrPositionHealthy     = errors.Register("clearing", 1, "position is healthy, cannot liquidate")
	ErrMarketNotMatured    = errors.Register("clearing", 2, "market has not matured")
	ErrAlreadyResolved     = errors.Register("clearing", 3, "market already resolved")
	ErrResolutionNotFound  = errors.Register("clearing", 4, "resolution not found")
	ErrAlreadyClaimed      = errors.Register("clearing", 5, "share already claimed")
	ErrNothingToClaim      = errors.Register("clearing", 6, "nothing to claim")
	ErrUnauthorized        = errors.Register("clearing", 7, "unauthorized")
	ErrInvalidRedemption   = errors.Register("clearing", 8, "invalid redemption amount")
	ErrLiquidationNotFound = errors.Register("clearing", 9, "liquidation not found")
)
