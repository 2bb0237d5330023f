package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrInvalidAmount          = errors.Register("lending", 1, "amount must be positive")
	ErrInsufficientCollateral = errors.Register("lending", 2, "insufficient collateral for requested borrow")
	ErrInsufficientLiquidity  = errors.Register("lending", 3, "insufficient pool liquidity")
	ErrDivisionByZero         = errors.Register("lending", 4, "division by zero")
	ErrArithmeticOverflow     = errors.Register("lending", 5, "arithmetic overflow")
	ErrInvalidTimestamp       = errors.Register("lending", 6, "timestamp moved backward")
	ErrNoDebtOutstanding      = errors.Register("lending", 7, "position has no outstanding debt")
	ErrMarketNotBorrowable    = errors.Register("lending", 8, "market is not open for borrowing")
	ErrMarketNotFound         = errors.Register("lending", 9, "market not found")
	ErrMarketExists           = errors.Register("lending", 10, "market already exists")
	ErrPositionNotFound       = errors.Register("lending", 11, "position not found")
	ErrInvalidMarketID        = errors.Register("lending", 12, "invalid market ID")
	ErrInvalidRiskParameters  = errors.Register("lending", 13, "invalid risk parameters")
	ErrPriceUnavailable       = errors.Register("lending", 14, "no price posted for market")
	ErrInsufficientShares     = errors.Register("lending", 15, "withdrawal exceeds share balance")
	ErrUnsupportedDecimals    = errors.Register("lending", 16, "decimal count outside supported range")
	ErrUnauthorized           = errors.Register("lending", 17, "unauthorized")
)
