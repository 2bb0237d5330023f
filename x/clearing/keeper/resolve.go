package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/clearing/types"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

// ResolveMarket settles a matured market. The authority redeems the market's
// collateral for base asset off-chain and posts the realized amount here; the
// redeemed value repays the external lender first and the remainder is split
// into the protocol, borrower and LP claim pools. All positions in the market
// are extinguished.
func (k *Keeper) ResolveMarket(ctx sdk.Context, authority, marketID string, redeemedAmount math.Int) (*types.ResolutionResult, error) {
	if authority != k.authority {
		return nil, types.ErrUnauthorized
	}

	market, err := k.lendingKeeper.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	market, err = k.lendingKeeper.AccrueMarket(ctx, market)
	if err != nil {
		return nil, err
	}

	pool := k.lendingKeeper.GetPool(ctx)
	params := k.lendingKeeper.GetRiskParameters(ctx)
	resolution := k.GetResolution(ctx, marketID)

	protocolDebt, err := k.lendingKeeper.ProtocolTotalDebt(ctx)
	if err != nil {
		return nil, err
	}
	amountOwed, err := lendingtypes.MarketDebtShare(protocolDebt, market.TotalBorrowed, pool.TotalBorrowedAcrossMarkets)
	if err != nil {
		return nil, err
	}

	totalShares := k.lendingKeeper.GetTotalShares(ctx)

	result, err := types.ApplyResolution(market, pool, resolution, params, redeemedAmount, amountOwed, totalShares, ctx.BlockTime().Unix())
	if err != nil {
		return nil, err
	}

	authorityAddr, err := sdk.AccAddressFromBech32(authority)
	if err != nil {
		return nil, err
	}
	if redeemedAmount.IsPositive() {
		redeemed := sdk.NewCoins(sdk.NewCoin(k.lendingKeeper.BaseDenom(), redeemedAmount))
		if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, authorityAddr, types.ModuleName, redeemed); err != nil {
			return nil, err
		}
	}
	if result.Resolution.AmountRepaidToLender.IsPositive() {
		repaid := sdk.NewCoins(sdk.NewCoin(k.lendingKeeper.BaseDenom(), result.Resolution.AmountRepaidToLender))
		if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, types.ModuleName, lendingtypes.ModuleName, repaid); err != nil {
			return nil, err
		}
		if err := k.lenderKeeper.RepayDraw(ctx, result.Resolution.AmountRepaidToLender); err != nil {
			return nil, err
		}
	}

	// Snapshot claim bases before the live ledgers are wiped.
	for supplier, shares := range k.lendingKeeper.GetAllShareBalances(ctx) {
		k.SetShareSnapshot(ctx, marketID, supplier, shares)
	}
	for _, position := range k.lendingKeeper.GetMarketPositions(ctx, marketID) {
		k.SetCollateralSnapshot(ctx, marketID, position.Borrower, position.CollateralAmount)
		position.Zero()
		k.lendingKeeper.SetPosition(ctx, position)
	}

	k.lendingKeeper.SetMarket(ctx, result.Market)
	k.lendingKeeper.SetPool(ctx, result.Pool)
	k.SetResolution(ctx, result.Resolution)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"clearing_resolution",
			sdk.NewAttribute("market_id", marketID),
			sdk.NewAttribute("redeemed_amount", redeemedAmount.String()),
			sdk.NewAttribute("repaid_to_lender", result.Resolution.AmountRepaidToLender.String()),
			sdk.NewAttribute("lp_pool", result.Resolution.LPPool.String()),
			sdk.NewAttribute("borrower_pool", result.Resolution.BorrowerPool.String()),
			sdk.NewAttribute("protocol_pool", result.Resolution.ProtocolPool.String()),
		),
	)

	k.logger.Info("market resolved",
		"market_id", marketID,
		"redeemed_amount", redeemedAmount.String(),
		"repaid_to_lender", result.Resolution.AmountRepaidToLender.String(),
		"lp_pool", result.Resolution.LPPool.String(),
		"borrower_pool", result.Resolution.BorrowerPool.String(),
		"protocol_pool", result.Resolution.ProtocolPool.String(),
	)

	return &result, nil
}
