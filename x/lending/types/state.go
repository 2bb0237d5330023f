package types

import (
	"time"

	"cosmossdk.io/math"
)

const ModuleName = "lending"

// DeriveMarketID builds the deterministic market identifier for a
// (base asset, collateral asset) pair. Every write and every later read of
// market-scoped state uses this same derivation.
func DeriveMarketID(baseDenom, collateralDenom string) string {
	return baseDenom + "/" + collateralDenom
}

// PoolState is the aggregate ledger for the shared base-asset pool.
// Invariant: TotalBorrowedAcrossMarkets <= TotalSupplied at all times.
type PoolState struct {
	TotalSupplied              math.Int `json:"total_supplied"`
	TotalBorrowedAcrossMarkets math.Int `json:"total_borrowed_across_markets"`
	TotalAccumulatedSpread     math.Int `json:"total_accumulated_spread"`
}

// NewPoolState returns a zero-valued pool ledger.
func NewPoolState() PoolState {
	return PoolState{
		TotalSupplied:              math.ZeroInt(),
		TotalBorrowedAcrossMarkets: math.ZeroInt(),
		TotalAccumulatedSpread:     math.ZeroInt(),
	}
}

// AvailableLiquidity returns the idle base asset the pool can still lend.
func (p PoolState) AvailableLiquidity() math.Int {
	return SubFloored(p.TotalSupplied, p.TotalBorrowedAcrossMarkets)
}

// MarketState is the ledger for one collateral-asset market.
type MarketState struct {
	MarketID           string `json:"market_id"`
	BaseDenom          string `json:"base_denom"`
	CollateralDenom    string `json:"collateral_denom"`
	BaseDecimals       uint32 `json:"base_decimals"`
	CollateralDecimals uint32 `json:"collateral_decimals"`

	// BorrowIndex starts at 1.0 ray and never decreases.
	BorrowIndex         math.Int `json:"borrow_index"`
	TotalScaledBorrowed math.Int `json:"total_scaled_borrowed"`
	TotalBorrowed       math.Int `json:"total_borrowed"`
	TotalCollateral     math.Int `json:"total_collateral"`
	AccumulatedSpread   math.Int `json:"accumulated_spread"`
	LastUpdateTime      int64    `json:"last_update_time"`

	Active  bool `json:"active"`
	Matured bool `json:"matured"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMarketState creates a market ledger with the index initialized to 1.0.
func NewMarketState(baseDenom, collateralDenom string, baseDecimals, collateralDecimals uint32, now time.Time) MarketState {
	return MarketState{
		MarketID:            DeriveMarketID(baseDenom, collateralDenom),
		BaseDenom:           baseDenom,
		CollateralDenom:     collateralDenom,
		BaseDecimals:        baseDecimals,
		CollateralDecimals:  collateralDecimals,
		BorrowIndex:         Ray,
		TotalScaledBorrowed: math.ZeroInt(),
		TotalBorrowed:       math.ZeroInt(),
		TotalCollateral:     math.ZeroInt(),
		AccumulatedSpread:   math.ZeroInt(),
		LastUpdateTime:      now.Unix(),
		Active:              true,
		Matured:             false,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Borrowable reports whether new debt may be drawn against this market.
func (m MarketState) Borrowable() bool {
	return m.Active && !m.Matured
}

// OutstandingSpread is the market's derived spread:
// rayMul(totalScaledBorrowed, borrowIndex) - totalBorrowed, floored at zero.
// It is recomputed from the index every time, never accumulated.
func (m MarketState) OutstandingSpread() (math.Int, error) {
	accrued, err := RayMul(m.TotalScaledBorrowed, m.BorrowIndex)
	if err != nil {
		return math.Int{}, err
	}
	return SubFloored(accrued, m.TotalBorrowed), nil
}

// CollateralValueBase converts a wad collateral amount into base-asset units
// at the given ray price.
func (m MarketState) CollateralValueBase(collateralAmount, priceRay math.Int) (math.Int, error) {
	value, err := RayMul(collateralAmount, priceRay)
	if err != nil {
		return math.Int{}, err
	}
	return RebaseDecimals(value, m.CollateralDecimals, m.BaseDecimals)
}

// UserPosition is one borrower's stake in one market.
// Invariant: rayMul(ScaledDebtBalance, borrowIndex) >= BorrowAmount.
type UserPosition struct {
	MarketID          string   `json:"market_id"`
	Borrower          string   `json:"borrower"`
	CollateralAmount  math.Int `json:"collateral_amount"`
	BorrowAmount      math.Int `json:"borrow_amount"`
	ScaledDebtBalance math.Int `json:"scaled_debt_balance"`
}

// NewUserPosition returns an empty position for (marketID, borrower).
func NewUserPosition(marketID, borrower string) UserPosition {
	return UserPosition{
		MarketID:          marketID,
		Borrower:          borrower,
		CollateralAmount:  math.ZeroInt(),
		BorrowAmount:      math.ZeroInt(),
		ScaledDebtBalance: math.ZeroInt(),
	}
}

// IsEmpty reports whether the position carries no collateral and no debt.
func (p UserPosition) IsEmpty() bool {
	return p.CollateralAmount.IsZero() && p.BorrowAmount.IsZero() && p.ScaledDebtBalance.IsZero()
}

// Zero clears the position in place. Positions are never deleted from the
// store, only zeroed on full repayment or resolution.
func (p *UserPosition) Zero() {
	p.CollateralAmount = math.ZeroInt()
	p.BorrowAmount = math.ZeroInt()
	p.ScaledDebtBalance = math.ZeroInt()
}
