package types

import (
	"cosmossdk.io/math"
)

// The state-transition functions below are pure: they take value copies of
// the ledger entities plus validated inputs, and return updated copies plus
// a record of the external transfers the shell must execute. They never
// touch storage, move tokens, or read the clock, and they fail before any
// field is mutated, so a returned error means the inputs are unchanged.

// SupplyResult is the outcome of a deposit into the shared pool.
type SupplyResult struct {
	Pool PoolState
	// SharesToMint is 1:1 with the deposit; share units and base-asset
	// units coincide. Yield is distributed only at market resolution,
	// pro-rata to shares held at that time, not through share price.
	SharesToMint math.Int
	// ForwardToLender is the principal the shell sends on to the wrapped
	// external lender.
	ForwardToLender math.Int
}

// ApplySupply adds a deposit to the pool ledger.
func ApplySupply(pool PoolState, depositAmount math.Int) (SupplyResult, error) {
	if depositAmount.IsNil() || !depositAmount.IsPositive() {
		return SupplyResult{}, ErrInvalidAmount
	}
	pool.TotalSupplied = pool.TotalSupplied.Add(depositAmount)
	return SupplyResult{
		Pool:            pool,
		SharesToMint:    depositAmount,
		ForwardToLender: depositAmount,
	}, nil
}

// WithdrawResult is the outcome of a share redemption.
type WithdrawResult struct {
	Pool PoolState
	// SharesToBurn equals the base asset returned; redemption is 1:1 and
	// bounded by idle pool liquidity.
	SharesToBurn     math.Int
	ReturnToSupplier math.Int
	// ReclaimFromLender is the principal the shell pulls back from the
	// external lender to fund the redemption.
	ReclaimFromLender math.Int
}

// ApplyWithdraw burns shares 1:1 for base asset. The redemption may not dip
// into liquidity that is currently lent out.
func ApplyWithdraw(pool PoolState, shares, supplierShareBalance math.Int) (WithdrawResult, error) {
	if shares.IsNil() || !shares.IsPositive() {
		return WithdrawResult{}, ErrInvalidAmount
	}
	if shares.GT(supplierShareBalance) {
		return WithdrawResult{}, ErrInsufficientShares
	}
	if shares.GT(pool.AvailableLiquidity()) {
		return WithdrawResult{}, ErrInsufficientLiquidity
	}
	pool.TotalSupplied = pool.TotalSupplied.Sub(shares)
	return WithdrawResult{
		Pool:              pool,
		SharesToBurn:      shares,
		ReturnToSupplier:  shares,
		ReclaimFromLender: shares,
	}, nil
}

// BorrowResult is the outcome of a draw against collateral.
type BorrowResult struct {
	Market   MarketState
	Pool     PoolState
	Position UserPosition
	// ActualBorrow is the drawn amount after the LTV cap and the pool
	// liquidity cap.
	ActualBorrow math.Int
	// PullCollateral is the collateral the shell transfers in from the
	// borrower; DisburseToBorrower is the base asset it pays out.
	PullCollateral     math.Int
	DisburseToBorrower math.Int
}

// ApplyBorrow adds collateral and/or draws base asset against it.
// requestedAmount == 0 means "borrow the maximum the collateral allows".
// The pool liquidity cap is mandatory: without it TotalBorrowedAcrossMarkets
// could exceed TotalSupplied and the pool would be insolvent on paper.
func ApplyBorrow(market MarketState, pool PoolState, position UserPosition, params RiskParameters, collateralToAdd, requestedAmount, collateralPriceRay math.Int) (BorrowResult, error) {
	if !market.Borrowable() {
		return BorrowResult{}, ErrMarketNotBorrowable
	}
	if collateralToAdd.IsNil() || requestedAmount.IsNil() ||
		collateralToAdd.IsNegative() || requestedAmount.IsNegative() {
		return BorrowResult{}, ErrInvalidAmount
	}
	if collateralToAdd.IsZero() && requestedAmount.IsZero() {
		return BorrowResult{}, ErrInvalidAmount
	}

	newCollateral := position.CollateralAmount.Add(collateralToAdd)
	if newCollateral.IsZero() && requestedAmount.IsPositive() {
		return BorrowResult{}, ErrInsufficientCollateral
	}

	collateralValue, err := market.CollateralValueBase(newCollateral, collateralPriceRay)
	if err != nil {
		return BorrowResult{}, err
	}
	maxBorrow, err := RayMul(collateralValue, params.LTV)
	if err != nil {
		return BorrowResult{}, err
	}

	requested := requestedAmount
	if requested.IsZero() {
		requested = maxBorrow
	}
	actualBorrow := MinInt(requested, maxBorrow)
	if actualBorrow.IsZero() && requestedAmount.IsPositive() {
		return BorrowResult{}, ErrInsufficientCollateral
	}

	actualBorrow = MinInt(actualBorrow, pool.AvailableLiquidity())
	if actualBorrow.IsZero() && requestedAmount.IsPositive() {
		return BorrowResult{}, ErrInsufficientLiquidity
	}

	scaledIncrement := math.ZeroInt()
	if actualBorrow.IsPositive() {
		scaledIncrement, err = RayDiv(actualBorrow, market.BorrowIndex)
		if err != nil {
			return BorrowResult{}, err
		}
	}

	position.CollateralAmount = newCollateral
	position.BorrowAmount = position.BorrowAmount.Add(actualBorrow)
	position.ScaledDebtBalance = position.ScaledDebtBalance.Add(scaledIncrement)

	market.TotalBorrowed = market.TotalBorrowed.Add(actualBorrow)
	market.TotalCollateral = market.TotalCollateral.Add(collateralToAdd)
	market.TotalScaledBorrowed = market.TotalScaledBorrowed.Add(scaledIncrement)

	pool.TotalBorrowedAcrossMarkets = pool.TotalBorrowedAcrossMarkets.Add(actualBorrow)

	return BorrowResult{
		Market:             market,
		Pool:               pool,
		Position:           position,
		ActualBorrow:       actualBorrow,
		PullCollateral:     collateralToAdd,
		DisburseToBorrower: actualBorrow,
	}, nil
}

// RepayResult is the outcome of a repayment.
type RepayResult struct {
	Market   MarketState
	Pool     PoolState
	Position UserPosition
	// ActualRepay is the base asset the shell collects from the payer.
	ActualRepay math.Int
	// LiquidityForward is the principal portion passed through to the
	// external lender; the remainder of ActualRepay is spread retained
	// locally in the market and pool ledgers.
	LiquidityForward   math.Int
	SpreadRetained     math.Int
	CollateralReleased math.Int
	FullSettlement     bool
}

// ApplyRepay settles debt against a position. repayAmount == 0 or any
// amount at or above the position's current total debt settles in full.
// The debt breakdown is always computed for the whole position first, then
// prorated, so partial repayments stay proportional to the real split.
func ApplyRepay(market MarketState, pool PoolState, position UserPosition, repayAmount, protocolTotalDebt math.Int) (RepayResult, error) {
	if position.ScaledDebtBalance.IsZero() {
		return RepayResult{}, ErrNoDebtOutstanding
	}
	if repayAmount.IsNil() || repayAmount.IsNegative() {
		return RepayResult{}, ErrInvalidAmount
	}

	breakdown, err := AllocateUserDebt(
		protocolTotalDebt,
		pool.TotalBorrowedAcrossMarkets,
		market.TotalBorrowed,
		position.BorrowAmount,
		position.ScaledDebtBalance,
		market.BorrowIndex,
	)
	if err != nil {
		return RepayResult{}, err
	}

	if repayAmount.IsZero() || repayAmount.GTE(breakdown.Total) {
		return settleFull(market, pool, position, breakdown)
	}
	return settlePartial(market, pool, position, breakdown, repayAmount)
}

func settleFull(market MarketState, pool PoolState, position UserPosition, breakdown DebtBreakdown) (RepayResult, error) {
	spreadRetained := SubFloored(breakdown.Total, breakdown.Principal)
	collateralReleased := position.CollateralAmount

	market.TotalBorrowed = SubFloored(market.TotalBorrowed, position.BorrowAmount)
	market.TotalScaledBorrowed = SubFloored(market.TotalScaledBorrowed, position.ScaledDebtBalance)
	market.TotalCollateral = SubFloored(market.TotalCollateral, position.CollateralAmount)
	market.AccumulatedSpread = market.AccumulatedSpread.Add(spreadRetained)

	pool.TotalBorrowedAcrossMarkets = SubFloored(pool.TotalBorrowedAcrossMarkets, position.BorrowAmount)
	pool.TotalAccumulatedSpread = pool.TotalAccumulatedSpread.Add(spreadRetained)

	position.Zero()

	return RepayResult{
		Market:             market,
		Pool:               pool,
		Position:           position,
		ActualRepay:        breakdown.Total,
		LiquidityForward:   breakdown.Principal,
		SpreadRetained:     spreadRetained,
		CollateralReleased: collateralReleased,
		FullSettlement:     true,
	}, nil
}

func settlePartial(market MarketState, pool PoolState, position UserPosition, breakdown DebtBreakdown, repayAmount math.Int) (RepayResult, error) {
	ratio, err := RayDiv(repayAmount, position.BorrowAmount)
	if err != nil {
		return RepayResult{}, err
	}
	if ratio.GT(Ray) {
		ratio = Ray
	}

	principalPortion, err := RayMul(breakdown.Principal, ratio)
	if err != nil {
		return RepayResult{}, err
	}
	principalPortion = MinInt(principalPortion, repayAmount)
	spreadRetained := SubFloored(repayAmount, principalPortion)

	collateralReleased, err := RayMul(position.CollateralAmount, ratio)
	if err != nil {
		return RepayResult{}, err
	}
	collateralReleased = MinInt(collateralReleased, position.CollateralAmount)

	// Capped reduction: rounding in the scaled conversion must never be
	// allowed to underflow and fail the whole repayment.
	scaledReduction, err := RayDiv(repayAmount, market.BorrowIndex)
	if err != nil {
		return RepayResult{}, err
	}
	scaledReduction = MinInt(scaledReduction, position.ScaledDebtBalance)

	borrowReduction := MinInt(repayAmount, position.BorrowAmount)

	position.BorrowAmount = position.BorrowAmount.Sub(borrowReduction)
	position.CollateralAmount = position.CollateralAmount.Sub(collateralReleased)
	position.ScaledDebtBalance = position.ScaledDebtBalance.Sub(scaledReduction)

	market.TotalBorrowed = SubFloored(market.TotalBorrowed, borrowReduction)
	market.TotalScaledBorrowed = SubFloored(market.TotalScaledBorrowed, scaledReduction)
	market.TotalCollateral = SubFloored(market.TotalCollateral, collateralReleased)
	market.AccumulatedSpread = market.AccumulatedSpread.Add(spreadRetained)

	pool.TotalBorrowedAcrossMarkets = SubFloored(pool.TotalBorrowedAcrossMarkets, borrowReduction)
	pool.TotalAccumulatedSpread = pool.TotalAccumulatedSpread.Add(spreadRetained)

	return RepayResult{
		Market:             market,
		Pool:               pool,
		Position:           position,
		ActualRepay:        repayAmount,
		LiquidityForward:   principalPortion,
		SpreadRetained:     spreadRetained,
		CollateralReleased: collateralReleased,
		FullSettlement:     false,
	}, nil
}
