package keeper

import (
	"bytes"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/openalpha/creditpool/x/clearing/types"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

func TestStoreKeyPrefixes(t *testing.T) {
	prefixes := [][]byte{
		LiquidationKeyPrefix,
		ResolutionKeyPrefix,
		LPClaimKeyPrefix,
		BorrowerClaimKeyPrefix,
		ShareSnapshotKeyPrefix,
		CollateralSnapshotKeyPrefix,
	}
	for i := range prefixes {
		for j := i + 1; j < len(prefixes); j++ {
			if bytes.Equal(prefixes[i], prefixes[j]) {
				t.Errorf("prefixes %d and %d collide: %v", i, j, prefixes[i])
			}
		}
	}
}

func TestClaimKeys(t *testing.T) {
	a := lpClaimKey("USDC/tBOND", "supplier1")
	b := lpClaimKey("USDC/tBOND", "supplier2")
	if bytes.Equal(a, b) {
		t.Error("lp claim keys for different suppliers collide")
	}
	c := borrowerClaimKey("USDC/tBOND", "supplier1")
	if bytes.Equal(a, c) {
		t.Error("lp and borrower claim keys collide for same account")
	}
	d := lpClaimKey("USDC/tNOTE", "supplier1")
	if bytes.Equal(a, d) {
		t.Error("lp claim keys for different markets collide")
	}
}

func TestResolutionKeyMatchesMarketID(t *testing.T) {
	marketID := lendingtypes.DeriveMarketID("USDC", "tBOND")
	key := resolutionKey(marketID)
	want := append(ResolutionKeyPrefix, []byte("USDC/tBOND")...)
	if !bytes.Equal(key, want) {
		t.Errorf("resolution key = %q, want %q", key, want)
	}
}

// Resolves a market and walks every claim path, checking the paid total
// never exceeds the funded pools.
func TestResolveThenClaimAllPaths(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	market := lendingtypes.NewMarketState("USDC", "tBOND", 6, 18, now)
	market.Matured = true
	market.TotalBorrowed = math.NewInt(400_000_000)
	market.TotalScaledBorrowed = math.NewInt(400_000_000)
	market.TotalCollateral = math.NewInt(1_000).Mul(lendingtypes.Wad)
	market.AccumulatedSpread = math.ZeroInt()

	pool := lendingtypes.NewPoolState()
	pool.TotalSupplied = math.NewInt(1_000_000_000)
	pool.TotalBorrowedAcrossMarkets = market.TotalBorrowed

	params := lendingtypes.DefaultRiskParameters()
	totalShares := math.NewInt(1_000_000_000)

	result, err := types.ApplyResolution(
		market, pool, types.NewResolutionState(market.MarketID), params,
		math.NewInt(500_000_000), math.NewInt(400_000_000), totalShares,
		now.Unix(),
	)
	if err != nil {
		t.Fatalf("ApplyResolution: %v", err)
	}
	res := result.Resolution

	split := res.AmountRepaidToLender.Add(res.LPPool).Add(res.BorrowerPool).Add(res.ProtocolPool)
	if !split.Equal(res.TotalCollateralRedeemed) {
		t.Fatalf("split sums to %s, want %s", split, res.TotalCollateralRedeemed)
	}

	// Three suppliers with uneven shares, three borrowers with uneven
	// collateral. Every claim is floored, so totals stay inside the pools.
	shares := []math.Int{
		math.NewInt(333_333_333),
		math.NewInt(333_333_333),
		math.NewInt(333_333_334),
	}
	lpPaid := math.ZeroInt()
	for _, s := range shares {
		claim, err := types.LPClaimAmount(res, s)
		if err != nil {
			t.Fatalf("LPClaimAmount: %v", err)
		}
		lpPaid = lpPaid.Add(claim)
	}
	if lpPaid.GT(res.LPPool) {
		t.Errorf("lp claims total %s exceed pool %s", lpPaid, res.LPPool)
	}

	collaterals := []math.Int{
		math.NewInt(100).Mul(lendingtypes.Wad),
		math.NewInt(300).Mul(lendingtypes.Wad),
		math.NewInt(600).Mul(lendingtypes.Wad),
	}
	borrowerPaid := math.ZeroInt()
	for _, c := range collaterals {
		claim, err := types.BorrowerClaimAmount(res, c)
		if err != nil {
			t.Fatalf("BorrowerClaimAmount: %v", err)
		}
		borrowerPaid = borrowerPaid.Add(claim)
	}
	if borrowerPaid.GT(res.BorrowerPool) {
		t.Errorf("borrower claims total %s exceed pool %s", borrowerPaid, res.BorrowerPool)
	}
	if !borrowerPaid.Equal(res.BorrowerPool) {
		// Collateral fractions sum to exactly one here, so the floored
		// claims drop at most two base units.
		diff := res.BorrowerPool.Sub(borrowerPaid)
		if diff.GT(math.NewInt(2)) {
			t.Errorf("borrower claims leave %s unclaimed, want at most 2", diff)
		}
	}

	// A second resolution attempt must fail.
	_, err = types.ApplyResolution(
		result.Market, result.Pool, res, params,
		math.NewInt(500_000_000), math.NewInt(400_000_000), totalShares,
		now.Unix(),
	)
	if err != types.ErrAlreadyResolved {
		t.Errorf("second resolution: got %v, want ErrAlreadyResolved", err)
	}
}
