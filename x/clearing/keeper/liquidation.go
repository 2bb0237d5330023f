package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/clearing/types"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

// Liquidate repays part of an undercollateralized position's debt on the
// borrower's behalf and hands the liquidator discounted collateral. A zero
// amount repays the close-factor maximum.
func (k *Keeper) Liquidate(ctx sdk.Context, liquidator, marketID, borrower string, amount math.Int) (*types.LiquidationRecord, error) {
	market, err := k.lendingKeeper.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	market, err = k.lendingKeeper.AccrueMarket(ctx, market)
	if err != nil {
		return nil, err
	}

	price, err := k.lendingKeeper.GetPrice(ctx, marketID)
	if err != nil {
		return nil, err
	}
	protocolDebt, err := k.lendingKeeper.ProtocolTotalDebt(ctx)
	if err != nil {
		return nil, err
	}

	pool := k.lendingKeeper.GetPool(ctx)
	position := k.lendingKeeper.GetPosition(ctx, marketID, borrower)
	params := k.lendingKeeper.GetRiskParameters(ctx)

	result, err := types.ApplyLiquidation(market, pool, position, params, amount, price, protocolDebt)
	if err != nil {
		return nil, err
	}

	liquidatorAddr, err := sdk.AccAddressFromBech32(liquidator)
	if err != nil {
		return nil, err
	}
	repay := sdk.NewCoins(sdk.NewCoin(k.lendingKeeper.BaseDenom(), result.ActualRepay))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, liquidatorAddr, lendingtypes.ModuleName, repay); err != nil {
		return nil, err
	}
	if result.PrincipalForward.IsPositive() {
		if err := k.lenderKeeper.RepayDraw(ctx, result.PrincipalForward); err != nil {
			return nil, err
		}
	}
	if result.CollateralSeized.IsPositive() {
		seized := sdk.NewCoins(sdk.NewCoin(market.CollateralDenom, result.CollateralSeized))
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, lendingtypes.ModuleName, liquidatorAddr, seized); err != nil {
			return nil, err
		}
	}
	if result.CollateralReturned.IsPositive() {
		borrowerAddr, err := sdk.AccAddressFromBech32(borrower)
		if err != nil {
			return nil, err
		}
		returned := sdk.NewCoins(sdk.NewCoin(market.CollateralDenom, result.CollateralReturned))
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, lendingtypes.ModuleName, borrowerAddr, returned); err != nil {
			return nil, err
		}
	}

	k.lendingKeeper.SetMarket(ctx, result.Market)
	k.lendingKeeper.SetPool(ctx, result.Pool)
	k.lendingKeeper.SetPosition(ctx, result.Position)

	record := types.NewLiquidationRecord(marketID, borrower, liquidator, result, ctx.BlockTime().Unix())
	k.SetLiquidationRecord(ctx, record)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"clearing_liquidation",
			sdk.NewAttribute("liquidation_id", record.LiquidationID),
			sdk.NewAttribute("market_id", marketID),
			sdk.NewAttribute("borrower", borrower),
			sdk.NewAttribute("liquidator", liquidator),
			sdk.NewAttribute("repay_amount", result.ActualRepay.String()),
			sdk.NewAttribute("collateral_seized", result.CollateralSeized.String()),
			sdk.NewAttribute("health_factor", result.HealthFactor.String()),
		),
	)

	k.logger.Info("liquidation executed",
		"liquidation_id", record.LiquidationID,
		"market_id", marketID,
		"borrower", borrower,
		"repay_amount", result.ActualRepay.String(),
		"collateral_seized", result.CollateralSeized.String(),
	)

	return &record, nil
}
