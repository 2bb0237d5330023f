package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/lending/types"
)

// Borrow pledges collateral into a market and draws base asset against it.
// A zero requested amount draws the maximum the collateral supports.
func (k *Keeper) Borrow(ctx sdk.Context, borrower, marketID string, collateral, requested math.Int) (*types.BorrowResult, error) {
	// Settle elapsed interest everywhere before the draw moves utilization.
	k.AccrueAllMarkets(ctx)

	market, err := k.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	price, err := k.GetPrice(ctx, marketID)
	if err != nil {
		return nil, err
	}

	pool := k.GetPool(ctx)
	position := k.GetPosition(ctx, marketID, borrower)
	params := k.GetRiskParameters(ctx)

	result, err := types.ApplyBorrow(market, pool, position, params, collateral, requested, price)
	if err != nil {
		return nil, err
	}

	borrowerAddr, err := sdk.AccAddressFromBech32(borrower)
	if err != nil {
		return nil, err
	}
	if result.PullCollateral.IsPositive() {
		pledge := sdk.NewCoins(sdk.NewCoin(market.CollateralDenom, result.PullCollateral))
		if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, borrowerAddr, types.ModuleName, pledge); err != nil {
			return nil, err
		}
	}
	if result.DisburseToBorrower.IsPositive() {
		if err := k.lenderKeeper.DrawLiquidity(ctx, result.DisburseToBorrower); err != nil {
			return nil, err
		}
		draw := sdk.NewCoins(sdk.NewCoin(k.baseDenom, result.DisburseToBorrower))
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, borrowerAddr, draw); err != nil {
			return nil, err
		}
	}

	k.SetMarket(ctx, result.Market)
	k.SetPool(ctx, result.Pool)
	k.SetPosition(ctx, result.Position)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_borrow",
			sdk.NewAttribute("market_id", marketID),
			sdk.NewAttribute("borrower", borrower),
			sdk.NewAttribute("collateral", result.PullCollateral.String()),
			sdk.NewAttribute("amount", result.ActualBorrow.String()),
			sdk.NewAttribute("borrow_index", result.Market.BorrowIndex.String()),
		),
	)

	k.logger.Info("borrow processed",
		"market_id", marketID,
		"borrower", borrower,
		"collateral", result.PullCollateral.String(),
		"amount", result.ActualBorrow.String(),
	)

	return &result, nil
}
