package api

import (
	"context"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creditpool/api/types"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

func newTestService(t *testing.T) *KeeperService {
	t.Helper()
	svc, err := NewKeeperService(log.NewNopLogger())
	if err != nil {
		t.Fatalf("NewKeeperService: %v", err)
	}
	return svc
}

func testAddress(seed string) string {
	return sdk.AccAddress([]byte(seed + "--------------------")[:20]).String()
}

func TestSupplyWithdrawRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	supplier := testAddress("supplier1")
	svc.Bank().InitializeAccount(supplier, serviceBaseDenom, math.NewInt(1_000_000_000))

	resp, err := svc.Supply(ctx, &types.SupplyRequest{Supplier: supplier, Amount: "500000000"})
	if err != nil {
		t.Fatalf("Supply: %v", err)
	}
	if resp.Shares != "500000000" {
		t.Errorf("shares minted = %s, want 500000000", resp.Shares)
	}
	if resp.Pool.TotalSupplied != "500000000" {
		t.Errorf("total supplied = %s, want 500000000", resp.Pool.TotalSupplied)
	}

	// liquidity parks with the external lender, not the pool shell
	if got := svc.Bank().GetModuleBalance(serviceLenderModule, serviceBaseDenom); !got.Equal(math.NewInt(500_000_000)) {
		t.Errorf("lender module balance = %s, want 500000000", got)
	}

	resp, err = svc.Withdraw(ctx, &types.WithdrawRequest{Supplier: supplier, Shares: "200000000"})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if resp.Pool.TotalSupplied != "300000000" {
		t.Errorf("total supplied after withdraw = %s, want 300000000", resp.Pool.TotalSupplied)
	}

	if got := svc.Bank().GetBalance(supplier, serviceBaseDenom); !got.Equal(math.NewInt(700_000_000)) {
		t.Errorf("supplier balance = %s, want 700000000", got)
	}

	sup, err := svc.GetSupplier(ctx, supplier)
	if err != nil {
		t.Fatalf("GetSupplier: %v", err)
	}
	if sup.Shares != "300000000" {
		t.Errorf("supplier shares = %s, want 300000000", sup.Shares)
	}
}

func TestBorrowRepayThroughService(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	supplier := testAddress("supplier2")
	borrower := testAddress("borrower2")
	svc.Bank().InitializeAccount(supplier, serviceBaseDenom, math.NewInt(1_000_000_000))
	// 100 collateral units at 18 decimals
	collateral := lendingtypes.Wad.MulRaw(100)
	svc.Bank().InitializeAccount(borrower, "tbond", collateral)

	if _, err := svc.Supply(ctx, &types.SupplyRequest{Supplier: supplier, Amount: "1000000000"}); err != nil {
		t.Fatalf("Supply: %v", err)
	}

	market, err := svc.CreateMarket(ctx, "tbond", 6, 18)
	if err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}
	if market.MarketID != "uusdc/tbond" {
		t.Fatalf("market id = %s, want uusdc/tbond", market.MarketID)
	}

	// collateral marks at par
	if err := svc.PostPrice(ctx, market.MarketID, lendingtypes.Ray); err != nil {
		t.Fatalf("PostPrice: %v", err)
	}

	resp, err := svc.Borrow(ctx, &types.BorrowRequest{
		Borrower:   borrower,
		MarketID:   market.MarketID,
		Collateral: collateral.String(),
		Amount:     "50000000",
	})
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	if resp.Position.BorrowAmount != "50000000" {
		t.Errorf("borrow amount = %s, want 50000000", resp.Position.BorrowAmount)
	}
	if resp.Position.Collateral != collateral.String() {
		t.Errorf("position collateral = %s, want %s", resp.Position.Collateral, collateral)
	}
	if got := svc.Bank().GetBalance(borrower, serviceBaseDenom); !got.Equal(math.NewInt(50_000_000)) {
		t.Errorf("borrower base balance = %s, want 50000000", got)
	}

	// debt allocation flows from the lender's aggregate figure
	debt, err := svc.GetDebtBreakdown(ctx, market.MarketID, borrower)
	if err != nil {
		t.Fatalf("GetDebtBreakdown: %v", err)
	}
	if debt.ProtocolTotalDebt != "50000000" {
		t.Errorf("protocol total debt = %s, want 50000000", debt.ProtocolTotalDebt)
	}
	if debt.UserDebt != "50000000" {
		t.Errorf("user debt = %s, want 50000000", debt.UserDebt)
	}

	if _, err := svc.Repay(ctx, &types.RepayRequest{
		Borrower: borrower,
		MarketID: market.MarketID,
		Amount:   "20000000",
	}); err != nil {
		t.Fatalf("Repay: %v", err)
	}

	position, err := svc.GetPosition(ctx, market.MarketID, borrower)
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if position.BorrowAmount != "30000000" {
		t.Errorf("borrow amount after repay = %s, want 30000000", position.BorrowAmount)
	}
	if position.HealthFactor == "0.000000000000000000" {
		t.Errorf("expected positive health factor, got %s", position.HealthFactor)
	}
}

func TestBorrowUnknownMarket(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Borrow(ctx, &types.BorrowRequest{
		Borrower:   testAddress("borrower3"),
		MarketID:   "uusdc/unknown",
		Collateral: "1000",
		Amount:     "100",
	})
	if err == nil {
		t.Fatal("expected error for unknown market")
	}
}

func TestListMarketsAndResolutionDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateMarket(ctx, "tbill", 6, 6); err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}

	markets, err := svc.ListMarkets(ctx)
	if err != nil {
		t.Fatalf("ListMarkets: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("markets = %d, want 1", len(markets))
	}
	if markets[0].Resolved {
		t.Error("new market should not be resolved")
	}

	resolution, err := svc.GetResolution(ctx, markets[0].MarketID)
	if err != nil {
		t.Fatalf("GetResolution: %v", err)
	}
	if resolution.Resolved {
		t.Error("resolution should default to unresolved")
	}

	liquidations, err := svc.ListLiquidations(ctx, 10)
	if err != nil {
		t.Fatalf("ListLiquidations: %v", err)
	}
	if len(liquidations) != 0 {
		t.Errorf("liquidations = %d, want 0", len(liquidations))
	}
}

func TestDecStringToRay(t *testing.T) {
	tests := []struct {
		in   string
		want math.Int
	}{
		{"1.0", lendingtypes.Ray},
		{"0.5", lendingtypes.Ray.QuoRaw(2)},
		{"0.97", lendingtypes.Ray.MulRaw(97).QuoRaw(100)},
	}
	for _, tt := range tests {
		got, err := decStringToRay(tt.in)
		if err != nil {
			t.Fatalf("decStringToRay(%s): %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("decStringToRay(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
