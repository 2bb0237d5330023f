package types

import (
	"cosmossdk.io/math"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

// ResolutionState is the settlement outcome of one market. Keyed by the same
// market ID as the market itself; every claim path reads it back under that
// identical key.
// Invariant: AmountRepaidToLender + LPPool + BorrowerPool + ProtocolPool ==
// TotalCollateralRedeemed, exactly.
type ResolutionState struct {
	MarketID                string   `json:"market_id"`
	Resolved                bool     `json:"resolved"`
	TotalCollateralRedeemed math.Int `json:"total_collateral_redeemed"`
	AmountRepaidToLender    math.Int `json:"amount_repaid_to_lender"`
	LPPool                  math.Int `json:"lp_pool"`
	BorrowerPool            math.Int `json:"borrower_pool"`
	ProtocolPool            math.Int `json:"protocol_pool"`
	ProtocolClaimed         bool     `json:"protocol_claimed"`

	// Snapshots taken at resolution time; claims are pro-rata against these,
	// never against live balances.
	TotalSharesAtResolution     math.Int `json:"total_shares_at_resolution"`
	TotalCollateralAtResolution math.Int `json:"total_collateral_at_resolution"`

	ResolvedAt int64 `json:"resolved_at"`
}

// NewResolutionState returns an unresolved record for a market
func NewResolutionState(marketID string) ResolutionState {
	return ResolutionState{
		MarketID:                    marketID,
		TotalCollateralRedeemed:     math.ZeroInt(),
		AmountRepaidToLender:        math.ZeroInt(),
		LPPool:                      math.ZeroInt(),
		BorrowerPool:                math.ZeroInt(),
		ProtocolPool:                math.ZeroInt(),
		TotalSharesAtResolution:     math.ZeroInt(),
		TotalCollateralAtResolution: math.ZeroInt(),
	}
}

// ResolutionResult carries the updated ledgers out of ApplyResolution.
type ResolutionResult struct {
	Market     lendingtypes.MarketState
	Pool       lendingtypes.PoolState
	Resolution ResolutionState
}

// ApplyResolution settles a matured market: the redeemed collateral value
// first repays the external lender (shortfall is an implicit supplier loss,
// no pool is funded), then splits the remainder into protocol, borrower and
// LP pools. The LP pool is the residual, so the four-way split is exact by
// construction.
func ApplyResolution(
	market lendingtypes.MarketState,
	pool lendingtypes.PoolState,
	resolution ResolutionState,
	params lendingtypes.RiskParameters,
	totalCollateralRedeemed, amountOwedToLender, totalShares math.Int,
	resolvedAt int64,
) (ResolutionResult, error) {
	if resolution.Resolved {
		return ResolutionResult{}, ErrAlreadyResolved
	}
	if !market.Matured {
		return ResolutionResult{}, ErrMarketNotMatured
	}
	if totalCollateralRedeemed.IsNil() || totalCollateralRedeemed.IsNegative() {
		return ResolutionResult{}, ErrInvalidRedemption
	}

	repaidToLender := lendingtypes.MinInt(totalCollateralRedeemed, amountOwedToLender)
	remaining := totalCollateralRedeemed.Sub(repaidToLender)

	outstandingSpread, err := market.OutstandingSpread()
	if err != nil {
		return ResolutionResult{}, err
	}
	protocolCut, err := lendingtypes.RayMul(outstandingSpread, params.ReserveFactor)
	if err != nil {
		return ResolutionResult{}, err
	}
	protocolPool := lendingtypes.MinInt(remaining, protocolCut)

	distributable := remaining.Sub(protocolPool)
	borrowerShare := lendingtypes.Ray.Sub(params.LPShareOfRedeemed)
	borrowerPool, err := lendingtypes.RayMul(distributable, borrowerShare)
	if err != nil {
		return ResolutionResult{}, err
	}
	// Residual: absorbs every rounding crumb so the split sums exactly.
	lpPool := remaining.Sub(protocolPool).Sub(borrowerPool)

	resolution.Resolved = true
	resolution.TotalCollateralRedeemed = totalCollateralRedeemed
	resolution.AmountRepaidToLender = repaidToLender
	resolution.LPPool = lpPool
	resolution.BorrowerPool = borrowerPool
	resolution.ProtocolPool = protocolPool
	resolution.TotalSharesAtResolution = totalShares
	resolution.TotalCollateralAtResolution = market.TotalCollateral
	resolution.ResolvedAt = resolvedAt

	pool.TotalBorrowedAcrossMarkets = lendingtypes.SubFloored(pool.TotalBorrowedAcrossMarkets, market.TotalBorrowed)
	pool.TotalAccumulatedSpread = pool.TotalAccumulatedSpread.Add(outstandingSpread)

	market.TotalBorrowed = math.ZeroInt()
	market.TotalScaledBorrowed = math.ZeroInt()
	market.TotalCollateral = math.ZeroInt()
	market.AccumulatedSpread = market.AccumulatedSpread.Add(outstandingSpread)
	market.Active = false

	return ResolutionResult{
		Market:     market,
		Pool:       pool,
		Resolution: resolution,
	}, nil
}

// LPClaimAmount is a supplier's pro-rata slice of the LP pool by share
// balance held at resolution time.
func LPClaimAmount(resolution ResolutionState, shares math.Int) (math.Int, error) {
	if !resolution.Resolved {
		return math.Int{}, ErrResolutionNotFound
	}
	if resolution.TotalSharesAtResolution.IsZero() || !shares.IsPositive() {
		return math.ZeroInt(), nil
	}
	return lendingtypes.MulDivFloor(resolution.LPPool, shares, resolution.TotalSharesAtResolution)
}

// BorrowerClaimAmount is a borrower's pro-rata slice of the borrower pool by
// collateral held in the market at resolution time.
func BorrowerClaimAmount(resolution ResolutionState, collateral math.Int) (math.Int, error) {
	if !resolution.Resolved {
		return math.Int{}, ErrResolutionNotFound
	}
	if resolution.TotalCollateralAtResolution.IsZero() || !collateral.IsPositive() {
		return math.ZeroInt(), nil
	}
	return lendingtypes.MulDivFloor(resolution.BorrowerPool, collateral, resolution.TotalCollateralAtResolution)
}
