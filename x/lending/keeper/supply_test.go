package keeper

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creditpool/x/lending/types"
)

type noopLender struct{}

func (noopLender) TotalDebt(ctx sdk.Context) (math.Int, error) { return math.ZeroInt(), nil }

func (noopLender) ForwardLiquidity(ctx sdk.Context, amount math.Int) error { return nil }

func (noopLender) ReclaimLiquidity(ctx sdk.Context, amount math.Int) error { return nil }

func (noopLender) DrawLiquidity(ctx sdk.Context, amount math.Int) error { return nil }

func (noopLender) RepayDraw(ctx sdk.Context, amount math.Int) error { return nil }

type noopBank struct{}

func (noopBank) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	return nil
}

func (noopBank) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	return nil
}

func testAccount(seed string) string {
	bz := make([]byte, 20)
	copy(bz, seed)
	return sdk.AccAddress(bz).String()
}

func newTestKeeper(t *testing.T, blockTime time.Time) (*Keeper, sdk.Context) {
	t.Helper()

	cdc := codec.NewProtoCodec(codectypes.NewInterfaceRegistry())
	storeKey := storetypes.NewKVStoreKey(types.ModuleName)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		t.Fatalf("load store: %v", err)
	}

	authority := testAccount("authority")
	k := NewKeeper(cdc, storeKey, noopLender{}, noopBank{}, authority, authority, "uusdc", log.NewNopLogger())
	ctx := sdk.NewContext(stateStore, cmtproto.Header{Time: blockTime, Height: 1}, false, log.NewNopLogger())
	k.SetRiskParameters(ctx, types.DefaultRiskParameters())
	return k, ctx
}

// Elapsed time must be charged at the utilization that prevailed while it was
// elapsing. A deposit changes utilization, so the index has to be settled
// before the deposit lands, not after.
func TestSupplyAccruesBeforeChangingUtilization(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	k, ctx := newTestKeeper(t, start)
	authority := k.GetAuthority()
	alice := testAccount("alice")
	bob := testAccount("bob")

	if _, err := k.Supply(ctx, alice, math.NewInt(1_000_000_000)); err != nil {
		t.Fatalf("initial supply: %v", err)
	}

	market, err := k.CreateMarket(ctx, authority, types.MsgCreateMarket{
		Authority:          authority,
		BaseDenom:          "uusdc",
		CollateralDenom:    "tbond",
		BaseDecimals:       6,
		CollateralDecimals: 18,
	})
	if err != nil {
		t.Fatalf("create market: %v", err)
	}
	if err := k.PostPrice(ctx, authority, market.MarketID, types.Ray); err != nil {
		t.Fatalf("post price: %v", err)
	}

	// 1000 collateral at par backs a 400 draw: utilization 40%, rate 3%
	collateral, _ := math.NewIntFromString("1000000000000000000000")
	if _, err := k.Borrow(ctx, bob, market.MarketID, collateral, math.NewInt(400_000_000)); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// One year later a second deposit halves utilization. The elapsed year
	// must still be charged at 40%.
	ctx = ctx.WithBlockTime(start.Add(time.Duration(types.SecondsPerYear) * time.Second))
	if _, err := k.Supply(ctx, alice, math.NewInt(1_000_000_000)); err != nil {
		t.Fatalf("second supply: %v", err)
	}

	wantIndex, _ := math.NewIntFromString("1030000000000000000000000000")
	market, err = k.GetMarket(ctx, market.MarketID)
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if !market.BorrowIndex.Equal(wantIndex) {
		t.Fatalf("index after supply = %s, want %s (year charged at 40%% utilization)",
			market.BorrowIndex.String(), wantIndex.String())
	}

	// Re-accruing at the same block time must not move the index again
	k.AccrueAllMarkets(ctx)
	market, _ = k.GetMarket(ctx, market.MarketID)
	if !market.BorrowIndex.Equal(wantIndex) {
		t.Errorf("index after re-accrual = %s, want %s", market.BorrowIndex.String(), wantIndex.String())
	}

	// Second year runs at the diluted 20% utilization, rate 2%. A withdrawal
	// settles that year before it raises utilization back up.
	ctx = ctx.WithBlockTime(start.Add(2 * time.Duration(types.SecondsPerYear) * time.Second))
	if _, err := k.Withdraw(ctx, alice, math.NewInt(1_000_000_000)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	wantIndex, _ = math.NewIntFromString("1050600000000000000000000000")
	market, _ = k.GetMarket(ctx, market.MarketID)
	if !market.BorrowIndex.Equal(wantIndex) {
		t.Fatalf("index after withdraw = %s, want %s (year charged at 20%% utilization)",
			market.BorrowIndex.String(), wantIndex.String())
	}
}
