package types

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

// resolutionFixture is a matured market carrying 400 borrowed at index 1.03,
// so 12 units of outstanding spread.
func resolutionFixture() (lendingtypes.MarketState, lendingtypes.PoolState, ResolutionState) {
	market := lendingtypes.NewMarketState("uusdc", "mtoken", 6, 18, time.Unix(0, 0))
	market.TotalBorrowed = usdc(400)
	market.TotalScaledBorrowed = usdc(400)
	market.TotalCollateral = wad(800)
	market.BorrowIndex = lendingtypes.Ray.MulRaw(103).QuoRaw(100)
	market.Matured = true

	pool := lendingtypes.NewPoolState()
	pool.TotalSupplied = usdc(1000)
	pool.TotalBorrowedAcrossMarkets = usdc(400)

	return market, pool, NewResolutionState(market.MarketID)
}

func checkExactSplit(t *testing.T, res ResolutionState) {
	t.Helper()
	sum := res.AmountRepaidToLender.
		Add(res.LPPool).
		Add(res.BorrowerPool).
		Add(res.ProtocolPool)
	if !sum.Equal(res.TotalCollateralRedeemed) {
		t.Errorf("split %s does not sum to redeemed %s", sum, res.TotalCollateralRedeemed)
	}
}

// TestApplyResolution tests the four-way split with surplus over the lender
// debt
func TestApplyResolution(t *testing.T) {
	market, pool, resolution := resolutionFixture()
	params := lendingtypes.DefaultRiskParameters()

	// Redeemed 500 against 450 owed: 50 surplus. Outstanding spread is 12,
	// reserve factor 10%, so the protocol keeps 1.2. Of the remaining 48.8
	// the borrowers get 30% and the LP pool absorbs the residual.
	result, err := ApplyResolution(market, pool, resolution, params, usdc(500), usdc(450), usdc(1000), 1700000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := result.Resolution

	if !res.Resolved {
		t.Errorf("expected resolved flag set")
	}
	if !res.AmountRepaidToLender.Equal(usdc(450)) {
		t.Errorf("expected 450 repaid to lender, got %s", res.AmountRepaidToLender)
	}
	if !res.ProtocolPool.Equal(math.NewInt(1_200_000)) {
		t.Errorf("expected protocol pool 1.2, got %s", res.ProtocolPool)
	}
	if !res.BorrowerPool.Equal(math.NewInt(14_640_000)) {
		t.Errorf("expected borrower pool 14.64, got %s", res.BorrowerPool)
	}
	if !res.LPPool.Equal(math.NewInt(34_160_000)) {
		t.Errorf("expected lp pool 34.16, got %s", res.LPPool)
	}
	checkExactSplit(t, res)

	// Market and pool ledgers zeroed out of this market's debt.
	if !result.Market.TotalBorrowed.IsZero() || !result.Market.TotalScaledBorrowed.IsZero() {
		t.Errorf("expected market borrow ledgers zeroed")
	}
	if !result.Pool.TotalBorrowedAcrossMarkets.IsZero() {
		t.Errorf("expected pool borrowed zeroed, got %s", result.Pool.TotalBorrowedAcrossMarkets)
	}
	if result.Market.Active {
		t.Errorf("expected market deactivated")
	}
	// Snapshots for claims.
	if !res.TotalSharesAtResolution.Equal(usdc(1000)) {
		t.Errorf("expected share snapshot 1000, got %s", res.TotalSharesAtResolution)
	}
	if !res.TotalCollateralAtResolution.Equal(wad(800)) {
		t.Errorf("expected collateral snapshot 800, got %s", res.TotalCollateralAtResolution)
	}
}

// TestApplyResolutionShortfall tests the case where redemption does not even
// cover the lender debt: everything goes to the lender, all pools are empty
func TestApplyResolutionShortfall(t *testing.T) {
	market, pool, resolution := resolutionFixture()
	params := lendingtypes.DefaultRiskParameters()

	result, err := ApplyResolution(market, pool, resolution, params, usdc(300), usdc(450), usdc(1000), 1700000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := result.Resolution

	if !res.AmountRepaidToLender.Equal(usdc(300)) {
		t.Errorf("expected all 300 to lender, got %s", res.AmountRepaidToLender)
	}
	if !res.LPPool.IsZero() || !res.BorrowerPool.IsZero() || !res.ProtocolPool.IsZero() {
		t.Errorf("expected empty pools on shortfall")
	}
	checkExactSplit(t, res)
}

// TestApplyResolutionGuards tests the state-machine guards
func TestApplyResolutionGuards(t *testing.T) {
	market, pool, resolution := resolutionFixture()
	params := lendingtypes.DefaultRiskParameters()

	result, err := ApplyResolution(market, pool, resolution, params, usdc(500), usdc(450), usdc(1000), 1700000000)
	if err != nil {
		t.Fatalf("first resolution: %v", err)
	}

	// Second resolution must fail with no state change.
	_, err = ApplyResolution(result.Market, result.Pool, result.Resolution, params, usdc(500), usdc(450), usdc(1000), 1700000001)
	if err != ErrAlreadyResolved {
		t.Errorf("expected ErrAlreadyResolved, got %v", err)
	}

	// A market that never matured cannot resolve.
	fresh := lendingtypes.NewMarketState("uusdc", "ntoken", 6, 18, time.Unix(0, 0))
	_, err = ApplyResolution(fresh, pool, NewResolutionState(fresh.MarketID), params, usdc(100), usdc(0), usdc(1000), 1700000000)
	if err != ErrMarketNotMatured {
		t.Errorf("expected ErrMarketNotMatured, got %v", err)
	}

	_, err = ApplyResolution(market, pool, NewResolutionState(market.MarketID), params, math.NewInt(-1), usdc(450), usdc(1000), 1700000000)
	if err != ErrInvalidRedemption {
		t.Errorf("expected ErrInvalidRedemption, got %v", err)
	}
}

// TestClaimAmounts tests pro-rata claim slicing against the snapshots
func TestClaimAmounts(t *testing.T) {
	market, pool, resolution := resolutionFixture()
	params := lendingtypes.DefaultRiskParameters()

	result, err := ApplyResolution(market, pool, resolution, params, usdc(500), usdc(450), usdc(1000), 1700000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := result.Resolution

	// A quarter of the shares claims a quarter of the LP pool.
	quarter, err := LPClaimAmount(res, usdc(250))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quarter.Equal(math.NewInt(8_540_000)) {
		t.Errorf("expected 8.54, got %s", quarter)
	}

	// All of the collateral claims the whole borrower pool.
	full, err := BorrowerClaimAmount(res, wad(800))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !full.Equal(res.BorrowerPool) {
		t.Errorf("expected full borrower pool %s, got %s", res.BorrowerPool, full)
	}

	// Unresolved records pay nothing.
	if _, err := LPClaimAmount(NewResolutionState("uusdc/other"), usdc(10)); err != ErrResolutionNotFound {
		t.Errorf("expected ErrResolutionNotFound, got %v", err)
	}
}

// TestClaimAmountsNeverOvershoot tests that floor rounding keeps the sum of
// all claims within the pool
func TestClaimAmountsNeverOvershoot(t *testing.T) {
	res := NewResolutionState("uusdc/mtoken")
	res.Resolved = true
	res.LPPool = math.NewInt(100)
	res.TotalSharesAtResolution = math.NewInt(1000)

	shares := []int64{333, 333, 334}
	total := math.ZeroInt()
	for _, s := range shares {
		claim, err := LPClaimAmount(res, math.NewInt(s))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		total = total.Add(claim)
	}
	if total.GT(res.LPPool) {
		t.Errorf("claims %s exceed pool %s", total, res.LPPool)
	}
}
