package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/clearing/types"
)

// ClaimLPShare pays a supplier their pro-rata slice of a resolved market's LP
// pool, by share balance held at resolution time. One claim per supplier per
// market.
func (k *Keeper) ClaimLPShare(ctx sdk.Context, supplier, marketID string) (math.Int, error) {
	resolution := k.GetResolution(ctx, marketID)
	if !resolution.Resolved {
		return math.Int{}, types.ErrResolutionNotFound
	}
	if k.HasLPClaimed(ctx, marketID, supplier) {
		return math.Int{}, types.ErrAlreadyClaimed
	}

	shares := k.GetShareSnapshot(ctx, marketID, supplier)
	amount, err := types.LPClaimAmount(resolution, shares)
	if err != nil {
		return math.Int{}, err
	}
	if !amount.IsPositive() {
		return math.Int{}, types.ErrNothingToClaim
	}

	supplierAddr, err := sdk.AccAddressFromBech32(supplier)
	if err != nil {
		return math.Int{}, err
	}
	payout := sdk.NewCoins(sdk.NewCoin(k.lendingKeeper.BaseDenom(), amount))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, supplierAddr, payout); err != nil {
		return math.Int{}, err
	}
	k.MarkLPClaimed(ctx, marketID, supplier, amount)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"clearing_lp_claim",
			sdk.NewAttribute("market_id", marketID),
			sdk.NewAttribute("supplier", supplier),
			sdk.NewAttribute("amount", amount.String()),
		),
	)

	k.logger.Info("lp share claimed",
		"market_id", marketID,
		"supplier", supplier,
		"amount", amount.String(),
	)

	return amount, nil
}

// ClaimBorrowerShare pays a borrower their pro-rata slice of a resolved
// market's borrower pool, by collateral held at resolution time.
func (k *Keeper) ClaimBorrowerShare(ctx sdk.Context, borrower, marketID string) (math.Int, error) {
	resolution := k.GetResolution(ctx, marketID)
	if !resolution.Resolved {
		return math.Int{}, types.ErrResolutionNotFound
	}
	if k.HasBorrowerClaimed(ctx, marketID, borrower) {
		return math.Int{}, types.ErrAlreadyClaimed
	}

	collateral := k.GetCollateralSnapshot(ctx, marketID, borrower)
	amount, err := types.BorrowerClaimAmount(resolution, collateral)
	if err != nil {
		return math.Int{}, err
	}
	if !amount.IsPositive() {
		return math.Int{}, types.ErrNothingToClaim
	}

	borrowerAddr, err := sdk.AccAddressFromBech32(borrower)
	if err != nil {
		return math.Int{}, err
	}
	payout := sdk.NewCoins(sdk.NewCoin(k.lendingKeeper.BaseDenom(), amount))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, borrowerAddr, payout); err != nil {
		return math.Int{}, err
	}
	k.MarkBorrowerClaimed(ctx, marketID, borrower, amount)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"clearing_borrower_claim",
			sdk.NewAttribute("market_id", marketID),
			sdk.NewAttribute("borrower", borrower),
			sdk.NewAttribute("amount", amount.String()),
		),
	)

	k.logger.Info("borrower share claimed",
		"market_id", marketID,
		"borrower", borrower,
		"amount", amount.String(),
	)

	return amount, nil
}

// ClaimProtocolRevenue sweeps a resolved market's protocol pool to the given
// recipient. Authority-gated, once per market.
func (k *Keeper) ClaimProtocolRevenue(ctx sdk.Context, authority, marketID, recipient string) (math.Int, error) {
	if authority != k.authority {
		return math.Int{}, types.ErrUnauthorized
	}

	resolution := k.GetResolution(ctx, marketID)
	if !resolution.Resolved {
		return math.Int{}, types.ErrResolutionNotFound
	}
	if resolution.ProtocolClaimed {
		return math.Int{}, types.ErrAlreadyClaimed
	}
	if !resolution.ProtocolPool.IsPositive() {
		return math.Int{}, types.ErrNothingToClaim
	}

	resolution.ProtocolClaimed = true
	k.SetResolution(ctx, resolution)

	recipientAddr, err := sdk.AccAddressFromBech32(recipient)
	if err != nil {
		return math.Int{}, err
	}
	payout := sdk.NewCoins(sdk.NewCoin(k.lendingKeeper.BaseDenom(), resolution.ProtocolPool))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, recipientAddr, payout); err != nil {
		return math.Int{}, err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"clearing_protocol_claim",
			sdk.NewAttribute("market_id", marketID),
			sdk.NewAttribute("recipient", recipient),
			sdk.NewAttribute("amount", resolution.ProtocolPool.String()),
		),
	)

	k.logger.Info("protocol revenue claimed",
		"market_id", marketID,
		"recipient", recipient,
		"amount", resolution.ProtocolPool.String(),
	)

	return resolution.ProtocolPool, nil
}
