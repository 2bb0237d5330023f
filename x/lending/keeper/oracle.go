package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/lending/types"
)

// PostPrice records a ray-precision collateral price for a market. Only the
// configured oracle poster may write prices; staleness and aggregation are
// the poster's problem, not this module's.
func (k *Keeper) PostPrice(ctx sdk.Context, poster, marketID string, priceRay math.Int) error {
	if poster != k.oraclePoster {
		return types.ErrUnauthorized
	}
	if !k.HasMarket(ctx, marketID) {
		return types.ErrMarketNotFound
	}
	if priceRay.IsNil() || !priceRay.IsPositive() {
		return types.ErrPriceUnavailable
	}

	k.SetPrice(ctx, marketID, priceRay)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_price_posted",
			sdk.NewAttribute("market_id", marketID),
			sdk.NewAttribute("price", priceRay.String()),
		),
	)

	return nil
}
