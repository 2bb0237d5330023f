package types

import (
	"cosmossdk.io/math"
	"github.com/google/uuid"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

const ModuleName = "clearing"

// LiquidationResult is the outcome of a liquidation: updated ledgers plus
// the transfer instructions the shell must execute.
type LiquidationResult struct {
	Market   lendingtypes.MarketState
	Pool     lendingtypes.PoolState
	Position lendingtypes.UserPosition

	// ActualRepay is what the liquidator pays in base asset. The principal
	// portion flows to the external lender, the rest stays as spread.
	ActualRepay      math.Int
	PrincipalForward math.Int
	SpreadRetained   math.Int

	// CollateralSeized goes to the liquidator, bonus included.
	// CollateralReturned goes back to the borrower when the debt is fully
	// cleared and collateral is left over.
	CollateralSeized   math.Int
	CollateralReturned math.Int

	HealthFactor   math.Int
	FullSettlement bool
}

// HealthFactor computes rayDiv(rayMul(collateralValue, liquidationThreshold), totalDebt).
// Callers guard the zero-debt case before calling.
func HealthFactor(collateralValueBase, totalDebt, liquidationThreshold math.Int) (math.Int, error) {
	weighted, err := lendingtypes.RayMul(collateralValueBase, liquidationThreshold)
	if err != nil {
		return math.Int{}, err
	}
	return lendingtypes.RayDiv(weighted, totalDebt)
}

// ApplyLiquidation seizes collateral from an undercollateralized position in
// exchange for debt repayment. requestedRepay == 0 repays the close-factor
// maximum. Seizure never exceeds available collateral; any shortfall stays on
// the position as residual uncollateralized debt.
func ApplyLiquidation(
	market lendingtypes.MarketState,
	pool lendingtypes.PoolState,
	position lendingtypes.UserPosition,
	params lendingtypes.RiskParameters,
	requestedRepay, collateralPriceRay, protocolTotalDebt math.Int,
) (LiquidationResult, error) {
	if position.ScaledDebtBalance.IsZero() {
		return LiquidationResult{}, lendingtypes.ErrNoDebtOutstanding
	}
	if requestedRepay.IsNil() || requestedRepay.IsNegative() {
		return LiquidationResult{}, lendingtypes.ErrInvalidAmount
	}

	breakdown, err := lendingtypes.AllocateUserDebt(
		protocolTotalDebt,
		pool.TotalBorrowedAcrossMarkets,
		market.TotalBorrowed,
		position.BorrowAmount,
		position.ScaledDebtBalance,
		market.BorrowIndex,
	)
	if err != nil {
		return LiquidationResult{}, err
	}
	if breakdown.Total.IsZero() {
		return LiquidationResult{}, ErrPositionHealthy
	}

	collateralValue, err := market.CollateralValueBase(position.CollateralAmount, collateralPriceRay)
	if err != nil {
		return LiquidationResult{}, err
	}
	healthFactor, err := HealthFactor(collateralValue, breakdown.Total, params.LiquidationThreshold)
	if err != nil {
		return LiquidationResult{}, err
	}
	if healthFactor.GTE(lendingtypes.Ray) {
		return LiquidationResult{}, ErrPositionHealthy
	}

	maxLiquidatable, err := lendingtypes.RayMul(position.BorrowAmount, params.LiquidationCloseFactor)
	if err != nil {
		return LiquidationResult{}, err
	}
	actualRepay := requestedRepay
	if actualRepay.IsZero() {
		actualRepay = maxLiquidatable
	}
	actualRepay = lendingtypes.MinInt(actualRepay, maxLiquidatable)
	actualRepay = lendingtypes.MinInt(actualRepay, breakdown.Total)
	if !actualRepay.IsPositive() {
		return LiquidationResult{}, lendingtypes.ErrInvalidAmount
	}

	// Seizure: repay amount converted to collateral units at the oracle
	// price, plus the liquidator bonus, capped at what the position holds.
	repayInCollateralDecimals, err := lendingtypes.RebaseDecimals(actualRepay, market.BaseDecimals, market.CollateralDecimals)
	if err != nil {
		return LiquidationResult{}, err
	}
	baseSeized, err := lendingtypes.RayDiv(repayInCollateralDecimals, collateralPriceRay)
	if err != nil {
		return LiquidationResult{}, err
	}
	bonus, err := lendingtypes.RayMul(baseSeized, params.LiquidationBonus)
	if err != nil {
		return LiquidationResult{}, err
	}
	collateralSeized := lendingtypes.MinInt(baseSeized.Add(bonus), position.CollateralAmount)

	fullSettlement := actualRepay.GTE(breakdown.Total)

	ratio, err := lendingtypes.RayDiv(actualRepay, position.BorrowAmount)
	if err != nil {
		return LiquidationResult{}, err
	}
	if ratio.GT(lendingtypes.Ray) {
		ratio = lendingtypes.Ray
	}
	principalPortion, err := lendingtypes.RayMul(breakdown.Principal, ratio)
	if err != nil {
		return LiquidationResult{}, err
	}
	principalPortion = lendingtypes.MinInt(principalPortion, actualRepay)
	spreadRetained := lendingtypes.SubFloored(actualRepay, principalPortion)

	scaledReduction, err := lendingtypes.RayDiv(actualRepay, market.BorrowIndex)
	if err != nil {
		return LiquidationResult{}, err
	}
	scaledReduction = lendingtypes.MinInt(scaledReduction, position.ScaledDebtBalance)
	borrowReduction := lendingtypes.MinInt(actualRepay, position.BorrowAmount)

	collateralReturned := math.ZeroInt()
	if fullSettlement {
		borrowReduction = position.BorrowAmount
		scaledReduction = position.ScaledDebtBalance
		collateralReturned = lendingtypes.SubFloored(position.CollateralAmount, collateralSeized)
	}
	collateralRemoved := collateralSeized.Add(collateralReturned)

	position.BorrowAmount = position.BorrowAmount.Sub(borrowReduction)
	position.ScaledDebtBalance = position.ScaledDebtBalance.Sub(scaledReduction)
	position.CollateralAmount = position.CollateralAmount.Sub(collateralRemoved)

	market.TotalBorrowed = lendingtypes.SubFloored(market.TotalBorrowed, borrowReduction)
	market.TotalScaledBorrowed = lendingtypes.SubFloored(market.TotalScaledBorrowed, scaledReduction)
	market.TotalCollateral = lendingtypes.SubFloored(market.TotalCollateral, collateralRemoved)
	market.AccumulatedSpread = market.AccumulatedSpread.Add(spreadRetained)

	pool.TotalBorrowedAcrossMarkets = lendingtypes.SubFloored(pool.TotalBorrowedAcrossMarkets, borrowReduction)
	pool.TotalAccumulatedSpread = pool.TotalAccumulatedSpread.Add(spreadRetained)

	return LiquidationResult{
		Market:             market,
		Pool:               pool,
		Position:           position,
		ActualRepay:        actualRepay,
		PrincipalForward:   principalPortion,
		SpreadRetained:     spreadRetained,
		CollateralSeized:   collateralSeized,
		CollateralReturned: collateralReturned,
		HealthFactor:       healthFactor,
		FullSettlement:     fullSettlement,
	}, nil
}

// LiquidationRecord is the stored audit trail for one executed liquidation.
type LiquidationRecord struct {
	LiquidationID    string   `json:"liquidation_id"`
	MarketID         string   `json:"market_id"`
	Borrower         string   `json:"borrower"`
	Liquidator       string   `json:"liquidator"`
	RepayAmount      math.Int `json:"repay_amount"`
	CollateralSeized math.Int `json:"collateral_seized"`
	HealthFactor     math.Int `json:"health_factor"`
	Timestamp        int64    `json:"timestamp"`
}

// NewLiquidationRecord creates a record with a fresh ID
func NewLiquidationRecord(marketID, borrower, liquidator string, result LiquidationResult, timestamp int64) LiquidationRecord {
	return LiquidationRecord{
		LiquidationID:    uuid.New().String(),
		MarketID:         marketID,
		Borrower:         borrower,
		Liquidator:       liquidator,
		RepayAmount:      result.ActualRepay,
		CollateralSeized: result.CollateralSeized,
		HealthFactor:     result.HealthFactor,
		Timestamp:        timestamp,
	}
}
