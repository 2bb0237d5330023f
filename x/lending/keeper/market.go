package keeper

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/lending/types"
)

// CreateMarket registers a new collateral market. Authority-gated; the
// market ID is derived from the asset pair, so a pair maps to exactly one
// market.
func (k *Keeper) CreateMarket(ctx sdk.Context, authority string, msg types.MsgCreateMarket) (types.MarketState, error) {
	if authority != k.authority {
		return types.MarketState{}, types.ErrUnauthorized
	}
	if msg.BaseDenom != k.baseDenom {
		return types.MarketState{}, types.ErrInvalidMarketID
	}

	marketID := types.DeriveMarketID(msg.BaseDenom, msg.CollateralDenom)
	if k.HasMarket(ctx, marketID) {
		return types.MarketState{}, types.ErrMarketExists
	}

	market := types.NewMarketState(msg.BaseDenom, msg.CollateralDenom, msg.BaseDecimals, msg.CollateralDecimals, ctx.BlockTime())
	k.SetMarket(ctx, market)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_market_created",
			sdk.NewAttribute("market_id", marketID),
			sdk.NewAttribute("base_denom", msg.BaseDenom),
			sdk.NewAttribute("collateral_denom", msg.CollateralDenom),
		),
	)

	k.logger.Info("market created",
		"market_id", marketID,
		"base_denom", msg.BaseDenom,
		"collateral_denom", msg.CollateralDenom,
	)

	return market, nil
}

// SetMarketStatus flips a market's active and matured flags. A matured
// market stops accepting new borrows; existing debt keeps accruing until
// repaid or resolved.
func (k *Keeper) SetMarketStatus(ctx sdk.Context, authority, marketID string, active, matured bool) error {
	if authority != k.authority {
		return types.ErrUnauthorized
	}
	market, err := k.GetMarket(ctx, marketID)
	if err != nil {
		return err
	}
	market, err = k.AccrueMarket(ctx, market)
	if err != nil {
		return err
	}

	market.Active = active
	// Maturity is one-way.
	if matured {
		market.Matured = true
	}
	market.UpdatedAt = ctx.BlockTime()
	k.SetMarket(ctx, market)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_market_status",
			sdk.NewAttribute("market_id", marketID),
			sdk.NewAttribute("active", strconv.FormatBool(market.Active)),
			sdk.NewAttribute("matured", strconv.FormatBool(market.Matured)),
		),
	)

	return nil
}

// UpdateRiskParameters replaces the risk parameter set after validation.
// Accrual runs on every market first so past time is charged at old rates.
func (k *Keeper) UpdateRiskParameters(ctx sdk.Context, authority string, params types.RiskParameters) error {
	if authority != k.authority {
		return types.ErrUnauthorized
	}
	if err := params.Validate(); err != nil {
		return err
	}

	k.AccrueAllMarkets(ctx)
	k.SetRiskParameters(ctx, params)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_risk_params_updated",
			sdk.NewAttribute("authority", authority),
		),
	)

	k.logger.Info("risk parameters updated", "authority", authority)
	return nil
}
