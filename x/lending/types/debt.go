package types

import (
	"cosmossdk.io/math"
)

// DebtBreakdown decomposes a user's current debt into the share of the
// external lender's aggregate figure (principal) and the protocol's own
// spread. Total == Principal + Spread always, Spread >= 0 always.
type DebtBreakdown struct {
	Total     math.Int `json:"total"`
	Principal math.Int `json:"principal"`
	Spread    math.Int `json:"spread"`
}

// MarketDebtShare allocates the external lender's aggregate debt figure to
// one market by principal weight:
//
//	marketShare = protocolTotalDebt * marketTotalBorrowed / poolTotalBorrowed
//
// A pool with nothing borrowed yields zero, never a division fault.
func MarketDebtShare(protocolTotalDebt, marketTotalBorrowed, poolTotalBorrowed math.Int) (math.Int, error) {
	if poolTotalBorrowed.IsZero() {
		return math.ZeroInt(), nil
	}
	return MulDiv(protocolTotalDebt, marketTotalBorrowed, poolTotalBorrowed)
}

// AllocateUserDebt runs the two-level allocation down to one borrower.
// The market's share of the aggregate debt is split to the user by nominal
// principal weight, then the locally-indexed spread is added on top:
//
//	userPrincipal = marketShare * userBorrowAmount / marketTotalBorrowed
//	userSpread    = max(0, rayMul(userScaledDebt, borrowIndex) - userBorrowAmount)
//
// Shares are re-derived fresh on every call; nothing is carried forward.
func AllocateUserDebt(protocolTotalDebt, poolTotalBorrowed, marketTotalBorrowed, userBorrowAmount, userScaledDebt, borrowIndex math.Int) (DebtBreakdown, error) {
	marketShare, err := MarketDebtShare(protocolTotalDebt, marketTotalBorrowed, poolTotalBorrowed)
	if err != nil {
		return DebtBreakdown{}, err
	}

	principal := math.ZeroInt()
	if !marketTotalBorrowed.IsZero() {
		principal, err = MulDiv(marketShare, userBorrowAmount, marketTotalBorrowed)
		if err != nil {
			return DebtBreakdown{}, err
		}
	}

	accrued, err := RayMul(userScaledDebt, borrowIndex)
	if err != nil {
		return DebtBreakdown{}, err
	}
	spread := SubFloored(accrued, userBorrowAmount)

	return DebtBreakdown{
		Total:     principal.Add(spread),
		Principal: principal,
		Spread:    spread,
	}, nil
}
