package types

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

func usdc(n int64) math.Int {
	return math.NewInt(n).Mul(math.NewIntWithDecimal(1, 6))
}

func wad(n int64) math.Int {
	return math.NewInt(n).Mul(lendingtypes.Wad)
}

func rayFrac(pct int64) math.Int {
	return lendingtypes.Ray.MulRaw(pct).QuoRaw(100)
}

// liquidationFixture is a position of 400 borrowed against 800 collateral
// units at index 1.0, alone in its market.
func liquidationFixture() (lendingtypes.MarketState, lendingtypes.PoolState, lendingtypes.UserPosition) {
	market := lendingtypes.NewMarketState("uusdc", "mtoken", 6, 18, time.Unix(0, 0))
	market.TotalBorrowed = usdc(400)
	market.TotalScaledBorrowed = usdc(400)
	market.TotalCollateral = wad(800)

	pool := lendingtypes.NewPoolState()
	pool.TotalSupplied = usdc(1000)
	pool.TotalBorrowedAcrossMarkets = usdc(400)

	position := lendingtypes.NewUserPosition(market.MarketID, "borrower")
	position.CollateralAmount = wad(800)
	position.BorrowAmount = usdc(400)
	position.ScaledDebtBalance = usdc(400)

	return market, pool, position
}

// TestApplyLiquidationHealthy tests that a well-collateralized position
// cannot be liquidated
func TestApplyLiquidationHealthy(t *testing.T) {
	market, pool, position := liquidationFixture()
	params := lendingtypes.DefaultRiskParameters()

	// 800 collateral value against 400 debt: health factor 1.6.
	_, err := ApplyLiquidation(market, pool, position, params, math.ZeroInt(), lendingtypes.Ray, usdc(400))
	if err != ErrPositionHealthy {
		t.Errorf("expected ErrPositionHealthy, got %v", err)
	}
}

// TestApplyLiquidation tests the close-factor cap and bonus seizure after a
// price drop
func TestApplyLiquidation(t *testing.T) {
	market, pool, position := liquidationFixture()
	params := lendingtypes.DefaultRiskParameters()

	// Price halves: collateral value 400, threshold value 320, health 0.8.
	halfPrice := rayFrac(50)
	res, err := ApplyLiquidation(market, pool, position, params, math.ZeroInt(), halfPrice, usdc(400))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.HealthFactor.Equal(rayFrac(80)) {
		t.Errorf("expected health factor 0.8, got %s", res.HealthFactor)
	}
	// Close factor 50% of the 400 principal.
	if !res.ActualRepay.Equal(usdc(200)) {
		t.Errorf("expected repay 200, got %s", res.ActualRepay)
	}
	// 200 base at price 0.5 is 400 collateral units, plus the 5% bonus.
	if !res.CollateralSeized.Equal(wad(420)) {
		t.Errorf("expected seizure 420, got %s", res.CollateralSeized)
	}
	if !res.Position.BorrowAmount.Equal(usdc(200)) {
		t.Errorf("expected remaining borrow 200, got %s", res.Position.BorrowAmount)
	}
	if !res.Position.CollateralAmount.Equal(wad(380)) {
		t.Errorf("expected remaining collateral 380, got %s", res.Position.CollateralAmount)
	}
	if res.FullSettlement {
		t.Errorf("expected partial liquidation")
	}
	if !res.Pool.TotalBorrowedAcrossMarkets.Equal(usdc(200)) {
		t.Errorf("expected pool borrowed 200, got %s", res.Pool.TotalBorrowedAcrossMarkets)
	}
	if !res.Market.TotalBorrowed.Equal(res.Pool.TotalBorrowedAcrossMarkets) {
		t.Errorf("market and pool borrowed diverged")
	}
}

// TestApplyLiquidationBadDebt tests that seizure is capped at available
// collateral and the shortfall stays on the position
func TestApplyLiquidationBadDebt(t *testing.T) {
	market, pool, position := liquidationFixture()
	params := lendingtypes.DefaultRiskParameters()

	// Price crashes to 0.25: 200 repay wants 840 collateral, only 800 held.
	quarterPrice := rayFrac(25)
	res, err := ApplyLiquidation(market, pool, position, params, math.ZeroInt(), quarterPrice, usdc(400))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.CollateralSeized.Equal(wad(800)) {
		t.Errorf("expected all 800 collateral seized, got %s", res.CollateralSeized)
	}
	// Residual uncollateralized debt must remain visible, not hidden.
	if !res.Position.BorrowAmount.Equal(usdc(200)) {
		t.Errorf("expected residual borrow 200, got %s", res.Position.BorrowAmount)
	}
	if !res.Position.CollateralAmount.IsZero() {
		t.Errorf("expected zero collateral left, got %s", res.Position.CollateralAmount)
	}
}

// TestApplyLiquidationFullSettlement tests leftover collateral returning to
// the borrower once the debt clears
func TestApplyLiquidationFullSettlement(t *testing.T) {
	market, pool, position := liquidationFixture()
	params := lendingtypes.DefaultRiskParameters()
	params.LiquidationCloseFactor = lendingtypes.Ray
	// Position is unhealthy at full price with a tighter threshold.
	params.LiquidationThreshold = rayFrac(40)
	params.LTV = rayFrac(40)

	res, err := ApplyLiquidation(market, pool, position, params, math.ZeroInt(), lendingtypes.Ray, usdc(400))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.FullSettlement {
		t.Errorf("expected full settlement")
	}
	if !res.ActualRepay.Equal(usdc(400)) {
		t.Errorf("expected repay 400, got %s", res.ActualRepay)
	}
	if !res.CollateralSeized.Equal(wad(420)) {
		t.Errorf("expected seizure 420, got %s", res.CollateralSeized)
	}
	if !res.CollateralReturned.Equal(wad(380)) {
		t.Errorf("expected 380 returned to borrower, got %s", res.CollateralReturned)
	}
	if !res.Position.IsEmpty() {
		t.Errorf("expected zeroed position, got %+v", res.Position)
	}
	if !res.Market.TotalBorrowed.IsZero() || !res.Pool.TotalBorrowedAcrossMarkets.IsZero() {
		t.Errorf("expected borrowed totals back to zero")
	}
}

// TestApplyLiquidationNoDebt tests the no-debt guard
func TestApplyLiquidationNoDebt(t *testing.T) {
	market, pool, _ := liquidationFixture()
	empty := lendingtypes.NewUserPosition(market.MarketID, "nobody")
	params := lendingtypes.DefaultRiskParameters()

	_, err := ApplyLiquidation(market, pool, empty, params, math.ZeroInt(), lendingtypes.Ray, usdc(400))
	if err != lendingtypes.ErrNoDebtOutstanding {
		t.Errorf("expected ErrNoDebtOutstanding, got %v", err)
	}
}

// TestNewLiquidationRecord tests record construction
func TestNewLiquidationRecord(t *testing.T) {
	market, pool, position := liquidationFixture()
	params := lendingtypes.DefaultRiskParameters()

	res, err := ApplyLiquidation(market, pool, position, params, math.ZeroInt(), rayFrac(50), usdc(400))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := NewLiquidationRecord(market.MarketID, "borrower", "liquidator", res, 1700000000)
	if record.LiquidationID == "" {
		t.Errorf("expected non-empty liquidation ID")
	}
	if record.MarketID != market.MarketID {
		t.Errorf("expected market ID %s, got %s", market.MarketID, record.MarketID)
	}
	if !record.RepayAmount.Equal(res.ActualRepay) {
		t.Errorf("record repay mismatch")
	}

	other := NewLiquidationRecord(market.MarketID, "borrower", "liquidator", res, 1700000000)
	if other.LiquidationID == record.LiquidationID {
		t.Errorf("expected unique IDs per record")
	}
}
