package types

import (
	"testing"

	"cosmossdk.io/math"
)

func usdc(n int64) math.Int {
	return math.NewInt(n).MulRaw(1_000000)
}

// TestMarketDebtShare tests market-level allocation of the aggregate debt
func TestMarketDebtShare(t *testing.T) {
	testCases := []struct {
		name          string
		protocolDebt  math.Int
		marketBorrow  math.Int
		poolBorrow    math.Int
		expectedShare math.Int
	}{
		{
			name:          "equal split across two markets",
			protocolDebt:  usdc(1_000_000),
			marketBorrow:  usdc(500_000),
			poolBorrow:    usdc(1_000_000),
			expectedShare: usdc(500_000),
		},
		{
			name:          "seventy percent weight",
			protocolDebt:  usdc(1_100_000),
			marketBorrow:  usdc(700_000),
			poolBorrow:    usdc(1_000_000),
			expectedShare: usdc(770_000),
		},
		{
			name:          "nothing borrowed pool-wide",
			protocolDebt:  usdc(1_000_000),
			marketBorrow:  math.ZeroInt(),
			poolBorrow:    math.ZeroInt(),
			expectedShare: math.ZeroInt(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := MarketDebtShare(tc.protocolDebt, tc.marketBorrow, tc.poolBorrow)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !out.Equal(tc.expectedShare) {
				t.Errorf("expected %s, got %s", tc.expectedShare, out)
			}
		})
	}
}

// TestAllocateUserDebtNoInterest tests allocation with index at 1.0
func TestAllocateUserDebtNoInterest(t *testing.T) {
	// One of three users holding 100k of a 500k market, pool 1m, protocol
	// debt exactly 1m: principal is the plain proportional share, spread 0.
	bd, err := AllocateUserDebt(
		usdc(1_000_000), // protocol debt
		usdc(1_000_000), // pool borrowed
		usdc(500_000),   // market borrowed
		usdc(100_000),   // user borrow
		usdc(100_000),   // user scaled (index 1.0)
		Ray,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bd.Principal.Equal(usdc(100_000)) {
		t.Errorf("expected principal %s, got %s", usdc(100_000), bd.Principal)
	}
	if !bd.Spread.IsZero() {
		t.Errorf("expected zero spread, got %s", bd.Spread)
	}
	if !bd.Total.Equal(bd.Principal.Add(bd.Spread)) {
		t.Errorf("total != principal + spread")
	}
}

// TestAllocateUserDebtWithSpread tests allocation with an advanced index
func TestAllocateUserDebtWithSpread(t *testing.T) {
	// Single user owns the whole market; index moved to 1.2 so the scaled
	// balance is borrow/1.2 and accrues back to ~borrow*1.0 at par. With
	// scaled == borrow (drawn at index 1.0) spread is 20% of borrow.
	index := Ray.MulRaw(12).QuoRaw(10)
	bd, err := AllocateUserDebt(
		usdc(500_000),
		usdc(500_000),
		usdc(500_000),
		usdc(500_000),
		usdc(500_000), // drawn at index 1.0
		index,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bd.Principal.Equal(usdc(500_000)) {
		t.Errorf("expected principal %s, got %s", usdc(500_000), bd.Principal)
	}
	if !bd.Spread.Equal(usdc(100_000)) {
		t.Errorf("expected spread %s, got %s", usdc(100_000), bd.Spread)
	}
	if !bd.Total.Equal(usdc(600_000)) {
		t.Errorf("expected total %s, got %s", usdc(600_000), bd.Total)
	}
}

// TestAllocateUserDebtSpreadFloor tests that spread never goes negative
func TestAllocateUserDebtSpreadFloor(t *testing.T) {
	// Scaled balance below borrow/index would imply negative spread;
	// the floor keeps it at zero.
	bd, err := AllocateUserDebt(
		usdc(100),
		usdc(100),
		usdc(100),
		usdc(100),
		usdc(50),
		Ray,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bd.Spread.IsZero() {
		t.Errorf("expected floored spread, got %s", bd.Spread)
	}
}

// TestAllocateUserDebtZeroDenominators tests that empty ledgers allocate zero
func TestAllocateUserDebtZeroDenominators(t *testing.T) {
	bd, err := AllocateUserDebt(
		usdc(1_000_000),
		math.ZeroInt(),
		math.ZeroInt(),
		math.ZeroInt(),
		math.ZeroInt(),
		Ray,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bd.Total.IsZero() || !bd.Principal.IsZero() || !bd.Spread.IsZero() {
		t.Errorf("expected all-zero breakdown, got %+v", bd)
	}
}

// TestAllocateUserDebtConservation tests that user shares sum back to the
// market share within rounding
func TestAllocateUserDebtConservation(t *testing.T) {
	protocolDebt := usdc(1_000_003)
	poolBorrow := usdc(999_999)
	marketBorrow := usdc(333_333)
	users := []math.Int{usdc(111_111), usdc(111_111), usdc(111_111)}

	marketShare, err := MarketDebtShare(protocolDebt, marketBorrow, poolBorrow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := math.ZeroInt()
	for _, borrow := range users {
		bd, err := AllocateUserDebt(protocolDebt, poolBorrow, marketBorrow, borrow, borrow, Ray)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sum = sum.Add(bd.Principal)
	}

	diff := sum.Sub(marketShare).Abs()
	if diff.GT(math.NewInt(int64(len(users)))) {
		t.Errorf("user principals drifted from market share by %s", diff)
	}
}
