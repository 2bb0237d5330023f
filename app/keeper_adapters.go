package app

import (
	"context"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	clearingkeeper "github.com/openalpha/creditpool/x/clearing/keeper"
	lendingkeeper "github.com/openalpha/creditpool/x/lending/keeper"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

// LenderModuleName is the module account holding liquidity forwarded to the
// external lender.
const LenderModuleName = "lender"

var lenderDrawnKey = []byte{0x01}

// bankSender is the slice of the bank keeper the lender adapter needs.
type bankSender interface {
	SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error
}

// bankLenderAdapter is a bank-backed stand-in for the external lender. It
// parks forwarded liquidity in the lender module account and tracks drawn
// principal in its own store. TotalDebt reports drawn principal; a lender
// that charges its own interest would report a larger figure through the
// same interface.
type bankLenderAdapter struct {
	storeKey storetypes.StoreKey
	bank     bankSender
	denom    string
}

func newBankLenderAdapter(storeKey storetypes.StoreKey, bank bankSender, denom string) *bankLenderAdapter {
	return &bankLenderAdapter{storeKey: storeKey, bank: bank, denom: denom}
}

func (a *bankLenderAdapter) drawn(ctx sdk.Context) math.Int {
	bz := ctx.KVStore(a.storeKey).Get(lenderDrawnKey)
	if bz == nil {
		return math.ZeroInt()
	}
	amount, ok := math.NewIntFromString(string(bz))
	if !ok {
		return math.ZeroInt()
	}
	return amount
}

func (a *bankLenderAdapter) setDrawn(ctx sdk.Context, amount math.Int) {
	ctx.KVStore(a.storeKey).Set(lenderDrawnKey, []byte(amount.String()))
}

// TotalDebt returns the aggregate amount owed to the lender
func (a *bankLenderAdapter) TotalDebt(ctx sdk.Context) (math.Int, error) {
	return a.drawn(ctx), nil
}

// ForwardLiquidity parks supplied liquidity with the lender
func (a *bankLenderAdapter) ForwardLiquidity(ctx sdk.Context, amount math.Int) error {
	coins := sdk.NewCoins(sdk.NewCoin(a.denom, amount))
	return a.bank.SendCoinsFromModuleToModule(ctx, lendingtypes.ModuleName, LenderModuleName, coins)
}

// ReclaimLiquidity pulls parked liquidity back for a supplier withdrawal
func (a *bankLenderAdapter) ReclaimLiquidity(ctx sdk.Context, amount math.Int) error {
	coins := sdk.NewCoins(sdk.NewCoin(a.denom, amount))
	return a.bank.SendCoinsFromModuleToModule(ctx, LenderModuleName, lendingtypes.ModuleName, coins)
}

// DrawLiquidity borrows parked liquidity to fund a disbursement
func (a *bankLenderAdapter) DrawLiquidity(ctx sdk.Context, amount math.Int) error {
	coins := sdk.NewCoins(sdk.NewCoin(a.denom, amount))
	if err := a.bank.SendCoinsFromModuleToModule(ctx, LenderModuleName, lendingtypes.ModuleName, coins); err != nil {
		return err
	}
	a.setDrawn(ctx, a.drawn(ctx).Add(amount))
	return nil
}

// RepayDraw returns drawn principal to the lender
func (a *bankLenderAdapter) RepayDraw(ctx sdk.Context, amount math.Int) error {
	coins := sdk.NewCoins(sdk.NewCoin(a.denom, amount))
	if err := a.bank.SendCoinsFromModuleToModule(ctx, lendingtypes.ModuleName, LenderModuleName, coins); err != nil {
		return err
	}
	a.setDrawn(ctx, lendingtypes.SubFloored(a.drawn(ctx), amount))
	return nil
}

var (
	_ lendingkeeper.LenderKeeper  = (*bankLenderAdapter)(nil)
	_ clearingkeeper.LenderKeeper = (*bankLenderAdapter)(nil)
)
