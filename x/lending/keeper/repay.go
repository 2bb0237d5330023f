package keeper

import (
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/lending/types"
)

// Repay settles a borrower's debt. A zero amount means full settlement. The
// principal share flows back to the external lender, the spread stays in the
// module as accumulated revenue, and collateral is released proportionally.
func (k *Keeper) Repay(ctx sdk.Context, borrower, marketID string, amount math.Int) (*types.RepayResult, error) {
	// Settle elapsed interest everywhere before the repayment moves utilization.
	k.AccrueAllMarkets(ctx)

	market, err := k.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	pool := k.GetPool(ctx)
	position := k.GetPosition(ctx, marketID, borrower)

	protocolDebt, err := k.ProtocolTotalDebt(ctx)
	if err != nil {
		return nil, err
	}

	result, err := types.ApplyRepay(market, pool, position, amount, protocolDebt)
	if err != nil {
		return nil, err
	}

	borrowerAddr, err := sdk.AccAddressFromBech32(borrower)
	if err != nil {
		return nil, err
	}
	payment := sdk.NewCoins(sdk.NewCoin(k.baseDenom, result.ActualRepay))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, borrowerAddr, types.ModuleName, payment); err != nil {
		return nil, err
	}
	if result.LiquidityForward.IsPositive() {
		if err := k.lenderKeeper.RepayDraw(ctx, result.LiquidityForward); err != nil {
			return nil, err
		}
	}
	if result.CollateralReleased.IsPositive() {
		release := sdk.NewCoins(sdk.NewCoin(market.CollateralDenom, result.CollateralReleased))
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, borrowerAddr, release); err != nil {
			return nil, err
		}
	}

	k.SetMarket(ctx, result.Market)
	k.SetPool(ctx, result.Pool)
	k.SetPosition(ctx, result.Position)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_repay",
			sdk.NewAttribute("market_id", marketID),
			sdk.NewAttribute("borrower", borrower),
			sdk.NewAttribute("amount", result.ActualRepay.String()),
			sdk.NewAttribute("spread", result.SpreadRetained.String()),
			sdk.NewAttribute("collateral_released", result.CollateralReleased.String()),
			sdk.NewAttribute("full_settlement", strconv.FormatBool(result.FullSettlement)),
		),
	)

	k.logger.Info("repay processed",
		"market_id", marketID,
		"borrower", borrower,
		"amount", result.ActualRepay.String(),
		"full_settlement", result.FullSettlement,
	)

	return &result, nil
}
