package types

import (
	"testing"
	"time"

	"cosmossdk.io/math"
)

func wad(n int64) math.Int {
	return math.NewInt(n).Mul(Wad)
}

func testMarket(t *testing.T) MarketState {
	t.Helper()
	return NewMarketState("uusdc", "mtoken", 6, 18, time.Unix(0, 0))
}

func fundedPool(supplied int64) PoolState {
	pool := NewPoolState()
	pool.TotalSupplied = usdc(supplied)
	return pool
}

// checkConservation asserts the cross-ledger invariants after an operation
func checkConservation(t *testing.T, pool PoolState, markets ...MarketState) {
	t.Helper()
	sum := math.ZeroInt()
	for _, m := range markets {
		sum = sum.Add(m.TotalBorrowed)
	}
	if !sum.Equal(pool.TotalBorrowedAcrossMarkets) {
		t.Errorf("market borrow sum %s != pool borrowed %s", sum, pool.TotalBorrowedAcrossMarkets)
	}
	if pool.TotalBorrowedAcrossMarkets.GT(pool.TotalSupplied) {
		t.Errorf("pool borrowed %s exceeds supplied %s", pool.TotalBorrowedAcrossMarkets, pool.TotalSupplied)
	}
}

// TestApplySupply tests share minting and the amount guard
func TestApplySupply(t *testing.T) {
	pool := NewPoolState()

	res, err := ApplySupply(pool, usdc(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.SharesToMint.Equal(usdc(1000)) {
		t.Errorf("expected 1:1 shares, got %s", res.SharesToMint)
	}
	if !res.ForwardToLender.Equal(usdc(1000)) {
		t.Errorf("expected full forward, got %s", res.ForwardToLender)
	}
	if !res.Pool.TotalSupplied.Equal(usdc(1000)) {
		t.Errorf("expected supplied 1000, got %s", res.Pool.TotalSupplied)
	}

	if _, err := ApplySupply(pool, math.ZeroInt()); err != ErrInvalidAmount {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := ApplySupply(pool, math.NewInt(-1)); err != ErrInvalidAmount {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

// TestApplyWithdraw tests 1:1 redemption and the liquidity bound
func TestApplyWithdraw(t *testing.T) {
	pool := fundedPool(1000)
	pool.TotalBorrowedAcrossMarkets = usdc(600)

	res, err := ApplyWithdraw(pool, usdc(400), usdc(500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.ReturnToSupplier.Equal(usdc(400)) {
		t.Errorf("expected 400 returned, got %s", res.ReturnToSupplier)
	}
	if !res.Pool.TotalSupplied.Equal(usdc(600)) {
		t.Errorf("expected supplied 600, got %s", res.Pool.TotalSupplied)
	}

	// Cannot dip into lent-out liquidity.
	if _, err := ApplyWithdraw(pool, usdc(401), usdc(1000)); err != ErrInsufficientLiquidity {
		t.Errorf("expected ErrInsufficientLiquidity, got %v", err)
	}
	// Cannot burn more than owned.
	if _, err := ApplyWithdraw(pool, usdc(400), usdc(100)); err != ErrInsufficientShares {
		t.Errorf("expected ErrInsufficientShares, got %v", err)
	}
}

// TestApplyBorrow tests the LTV cap and ledger deltas
func TestApplyBorrow(t *testing.T) {
	market := testMarket(t)
	pool := fundedPool(1000)
	position := NewUserPosition(market.MarketID, "borrower")
	params := DefaultRiskParameters()

	// 800 units of collateral at price 1.0 with 75% LTV caps at 600;
	// request 400 and get 400.
	res, err := ApplyBorrow(market, pool, position, params, wad(800), usdc(400), Ray)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.ActualBorrow.Equal(usdc(400)) {
		t.Errorf("expected borrow 400, got %s", res.ActualBorrow)
	}
	if !res.Position.CollateralAmount.Equal(wad(800)) {
		t.Errorf("expected collateral 800, got %s", res.Position.CollateralAmount)
	}
	if !res.Position.BorrowAmount.Equal(usdc(400)) {
		t.Errorf("expected borrow amount 400, got %s", res.Position.BorrowAmount)
	}
	// Index 1.0: scaled balance equals nominal.
	if !res.Position.ScaledDebtBalance.Equal(usdc(400)) {
		t.Errorf("expected scaled 400, got %s", res.Position.ScaledDebtBalance)
	}
	checkConservation(t, res.Pool, res.Market)

	// Requesting beyond the cap clamps to the cap.
	res, err = ApplyBorrow(market, pool, position, params, wad(800), usdc(900), Ray)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.ActualBorrow.Equal(usdc(600)) {
		t.Errorf("expected cap at 600, got %s", res.ActualBorrow)
	}

	// Zero request means borrow the maximum.
	res, err = ApplyBorrow(market, pool, position, params, wad(800), math.ZeroInt(), Ray)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.ActualBorrow.Equal(usdc(600)) {
		t.Errorf("expected max borrow 600, got %s", res.ActualBorrow)
	}
}

// TestApplyBorrowGuards tests the refusal conditions
func TestApplyBorrowGuards(t *testing.T) {
	market := testMarket(t)
	pool := fundedPool(1000)
	position := NewUserPosition(market.MarketID, "borrower")
	params := DefaultRiskParameters()

	if _, err := ApplyBorrow(market, pool, position, params, math.ZeroInt(), math.ZeroInt(), Ray); err != ErrInvalidAmount {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := ApplyBorrow(market, pool, position, params, math.ZeroInt(), usdc(100), Ray); err != ErrInsufficientCollateral {
		t.Errorf("expected ErrInsufficientCollateral, got %v", err)
	}

	matured := market
	matured.Matured = true
	if _, err := ApplyBorrow(matured, pool, position, params, wad(100), usdc(10), Ray); err != ErrMarketNotBorrowable {
		t.Errorf("expected ErrMarketNotBorrowable, got %v", err)
	}
	inactive := market
	inactive.Active = false
	if _, err := ApplyBorrow(inactive, pool, position, params, wad(100), usdc(10), Ray); err != ErrMarketNotBorrowable {
		t.Errorf("expected ErrMarketNotBorrowable, got %v", err)
	}
}

// TestApplyBorrowLiquidityGuard tests that borrowing never exceeds idle pool
// liquidity
func TestApplyBorrowLiquidityGuard(t *testing.T) {
	market := testMarket(t)
	pool := fundedPool(100)
	pool.TotalBorrowedAcrossMarkets = usdc(100)
	position := NewUserPosition(market.MarketID, "borrower")
	params := DefaultRiskParameters()

	if _, err := ApplyBorrow(market, pool, position, params, wad(800), usdc(50), Ray); err != ErrInsufficientLiquidity {
		t.Errorf("expected ErrInsufficientLiquidity, got %v", err)
	}

	// Partially available liquidity clamps the draw.
	pool.TotalBorrowedAcrossMarkets = usdc(70)
	res, err := ApplyBorrow(market, pool, position, params, wad(800), usdc(50), Ray)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.ActualBorrow.Equal(usdc(30)) {
		t.Errorf("expected clamp to 30, got %s", res.ActualBorrow)
	}
	checkConservation(t, res.Pool, res.Market)
}

// TestApplyRepayFull tests full settlement, mirroring the year-long borrow
// scenario: 400 drawn at 40% utilization accrues 3% spread.
func TestApplyRepayFull(t *testing.T) {
	market := testMarket(t)
	pool := fundedPool(1000)
	position := NewUserPosition(market.MarketID, "borrower")
	params := DefaultRiskParameters()

	res, err := ApplyBorrow(market, pool, position, params, wad(800), usdc(400), Ray)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	market, pool, position = res.Market, res.Pool, res.Position

	// One year at 40% utilization: rate 3%, index 1.03.
	util, err := Utilization(pool.TotalBorrowedAcrossMarkets, pool.TotalSupplied)
	if err != nil {
		t.Fatalf("utilization: %v", err)
	}
	rate, err := SpreadRate(util, params)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	market.BorrowIndex, err = AdvanceBorrowIndex(market.BorrowIndex, rate, 0, SecondsPerYear, market.TotalBorrowed)
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	// Zero repay amount settles the whole position. External lender still
	// reports exactly the principal.
	rr, err := ApplyRepay(market, pool, position, math.ZeroInt(), usdc(400))
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if !rr.FullSettlement {
		t.Errorf("expected full settlement")
	}
	expectedTotal := usdc(412) // 400 principal + 3% spread
	if !rr.ActualRepay.Equal(expectedTotal) {
		t.Errorf("expected repay %s, got %s", expectedTotal, rr.ActualRepay)
	}
	if !rr.LiquidityForward.Equal(usdc(400)) {
		t.Errorf("expected forward 400, got %s", rr.LiquidityForward)
	}
	if !rr.SpreadRetained.Equal(usdc(12)) {
		t.Errorf("expected spread 12, got %s", rr.SpreadRetained)
	}
	if !rr.CollateralReleased.Equal(wad(800)) {
		t.Errorf("expected all collateral back, got %s", rr.CollateralReleased)
	}
	if !rr.Position.IsEmpty() {
		t.Errorf("expected zeroed position, got %+v", rr.Position)
	}
	if !rr.Market.TotalBorrowed.IsZero() || !rr.Pool.TotalBorrowedAcrossMarkets.IsZero() {
		t.Errorf("expected borrowed totals back to zero")
	}
	checkConservation(t, rr.Pool, rr.Market)
}

// TestApplyRepayPartial tests the proportionality property: repaying p% of
// the nominal principal releases p% of collateral
func TestApplyRepayPartial(t *testing.T) {
	market := testMarket(t)
	pool := fundedPool(1000)
	position := NewUserPosition(market.MarketID, "borrower")
	params := DefaultRiskParameters()

	res, err := ApplyBorrow(market, pool, position, params, wad(800), usdc(400), Ray)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	market, pool, position = res.Market, res.Pool, res.Position

	// Repay 25% of the nominal principal.
	rr, err := ApplyRepay(market, pool, position, usdc(100), usdc(400))
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if rr.FullSettlement {
		t.Errorf("expected partial settlement")
	}
	if !rr.Position.BorrowAmount.Equal(usdc(300)) {
		t.Errorf("expected borrow reduced to 300, got %s", rr.Position.BorrowAmount)
	}
	releasedDiff := rr.CollateralReleased.Sub(wad(200)).Abs()
	if releasedDiff.GT(math.OneInt()) {
		t.Errorf("expected ~200 collateral released, got %s", rr.CollateralReleased)
	}
	if !rr.Position.ScaledDebtBalance.Equal(usdc(300)) {
		t.Errorf("expected scaled reduced to 300, got %s", rr.Position.ScaledDebtBalance)
	}
	checkConservation(t, rr.Pool, rr.Market)
}

// TestApplyRepayNoDebt tests the no-debt guard
func TestApplyRepayNoDebt(t *testing.T) {
	market := testMarket(t)
	pool := fundedPool(1000)
	position := NewUserPosition(market.MarketID, "borrower")

	if _, err := ApplyRepay(market, pool, position, usdc(10), usdc(0)); err != ErrNoDebtOutstanding {
		t.Errorf("expected ErrNoDebtOutstanding, got %v", err)
	}
}

// TestApplyRepayExternalInterest tests that the lender's reported aggregate
// flows through the principal share
func TestApplyRepayExternalInterest(t *testing.T) {
	market := testMarket(t)
	pool := fundedPool(1000)
	position := NewUserPosition(market.MarketID, "borrower")
	params := DefaultRiskParameters()

	res, err := ApplyBorrow(market, pool, position, params, wad(800), usdc(400), Ray)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	market, pool, position = res.Market, res.Pool, res.Position

	// External lender reports 10% accrued on the 400 principal.
	rr, err := ApplyRepay(market, pool, position, math.ZeroInt(), usdc(440))
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if !rr.ActualRepay.Equal(usdc(440)) {
		t.Errorf("expected total 440, got %s", rr.ActualRepay)
	}
	if !rr.LiquidityForward.Equal(usdc(440)) {
		t.Errorf("expected forward 440, got %s", rr.LiquidityForward)
	}
	if !rr.SpreadRetained.IsZero() {
		t.Errorf("expected zero local spread, got %s", rr.SpreadRetained)
	}
}

// TestConservationAcrossSequence runs a mixed sequence over two markets and
// checks the pool invariants after every step
func TestConservationAcrossSequence(t *testing.T) {
	marketA := testMarket(t)
	marketB := NewMarketState("uusdc", "ntoken", 6, 18, time.Unix(0, 0))
	pool := fundedPool(10_000)
	params := DefaultRiskParameters()
	posA := NewUserPosition(marketA.MarketID, "alice")
	posB := NewUserPosition(marketB.MarketID, "bob")

	br, err := ApplyBorrow(marketA, pool, posA, params, wad(4000), usdc(2000), Ray)
	if err != nil {
		t.Fatalf("borrow A: %v", err)
	}
	marketA, pool, posA = br.Market, br.Pool, br.Position
	checkConservation(t, pool, marketA, marketB)

	br, err = ApplyBorrow(marketB, pool, posB, params, wad(8000), usdc(3000), Ray)
	if err != nil {
		t.Fatalf("borrow B: %v", err)
	}
	marketB, pool, posB = br.Market, br.Pool, br.Position
	checkConservation(t, pool, marketA, marketB)

	sr, err := ApplySupply(pool, usdc(500))
	if err != nil {
		t.Fatalf("supply: %v", err)
	}
	pool = sr.Pool
	checkConservation(t, pool, marketA, marketB)

	rr, err := ApplyRepay(marketA, pool, posA, usdc(700), usdc(5000))
	if err != nil {
		t.Fatalf("repay A: %v", err)
	}
	marketA, pool, posA = rr.Market, rr.Pool, rr.Position
	checkConservation(t, pool, marketA, marketB)

	rr, err = ApplyRepay(marketB, pool, posB, math.ZeroInt(), usdc(5000))
	if err != nil {
		t.Fatalf("repay B: %v", err)
	}
	marketB, pool = rr.Market, rr.Pool
	checkConservation(t, pool, marketA, marketB)

	if !marketA.TotalBorrowed.Add(marketB.TotalBorrowed).Equal(pool.TotalBorrowedAcrossMarkets) {
		t.Errorf("final conservation violated")
	}
}
