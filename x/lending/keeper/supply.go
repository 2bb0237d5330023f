package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/lending/types"
)

// Supply takes base asset from the supplier, mints pool shares one-to-one and
// forwards the liquidity to the external lender.
func (k *Keeper) Supply(ctx sdk.Context, supplier string, amount math.Int) (*types.SupplyResult, error) {
	// Settle elapsed interest before the deposit moves utilization, so past
	// time is charged at the old rate.
	k.AccrueAllMarkets(ctx)

	pool := k.GetPool(ctx)

	result, err := types.ApplySupply(pool, amount)
	if err != nil {
		return nil, err
	}

	supplierAddr, err := sdk.AccAddressFromBech32(supplier)
	if err != nil {
		return nil, err
	}
	deposit := sdk.NewCoins(sdk.NewCoin(k.baseDenom, amount))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, supplierAddr, types.ModuleName, deposit); err != nil {
		return nil, err
	}
	if err := k.lenderKeeper.ForwardLiquidity(ctx, result.ForwardToLender); err != nil {
		return nil, err
	}

	k.SetPool(ctx, result.Pool)
	k.SetShareBalance(ctx, supplier, k.GetShareBalance(ctx, supplier).Add(result.SharesToMint))
	k.SetTotalShares(ctx, k.GetTotalShares(ctx).Add(result.SharesToMint))

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_supply",
			sdk.NewAttribute("supplier", supplier),
			sdk.NewAttribute("amount", amount.String()),
			sdk.NewAttribute("shares_minted", result.SharesToMint.String()),
			sdk.NewAttribute("total_supplied", result.Pool.TotalSupplied.String()),
		),
	)

	k.logger.Info("supply processed",
		"supplier", supplier,
		"amount", amount.String(),
		"shares", result.SharesToMint.String(),
	)

	return &result, nil
}

// Withdraw burns pool shares, reclaims the liquidity from the external lender
// and returns base asset to the supplier. Bounded by idle pool liquidity.
func (k *Keeper) Withdraw(ctx sdk.Context, supplier string, shares math.Int) (*types.WithdrawResult, error) {
	// Settle elapsed interest before the withdrawal moves utilization.
	k.AccrueAllMarkets(ctx)

	pool := k.GetPool(ctx)
	balance := k.GetShareBalance(ctx, supplier)

	result, err := types.ApplyWithdraw(pool, shares, balance)
	if err != nil {
		return nil, err
	}

	if err := k.lenderKeeper.ReclaimLiquidity(ctx, result.ReclaimFromLender); err != nil {
		return nil, err
	}
	supplierAddr, err := sdk.AccAddressFromBech32(supplier)
	if err != nil {
		return nil, err
	}
	payout := sdk.NewCoins(sdk.NewCoin(k.baseDenom, result.ReturnToSupplier))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, supplierAddr, payout); err != nil {
		return nil, err
	}

	k.SetPool(ctx, result.Pool)
	k.SetShareBalance(ctx, supplier, balance.Sub(result.SharesToBurn))
	k.SetTotalShares(ctx, types.SubFloored(k.GetTotalShares(ctx), result.SharesToBurn))

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_withdraw",
			sdk.NewAttribute("supplier", supplier),
			sdk.NewAttribute("shares_burned", result.SharesToBurn.String()),
			sdk.NewAttribute("amount_returned", result.ReturnToSupplier.String()),
			sdk.NewAttribute("total_supplied", result.Pool.TotalSupplied.String()),
		),
	)

	k.logger.Info("withdraw processed",
		"supplier", supplier,
		"shares", shares.String(),
		"returned", result.ReturnToSupplier.String(),
	)

	return &result, nil
}
