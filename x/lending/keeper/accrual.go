package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/lending/types"
)

// AccrueMarket advances a market's borrow index to the current block time and
// records a rate snapshot. Every operation that reads the index calls this
// first, so debt is always quoted against a fresh index.
func (k *Keeper) AccrueMarket(ctx sdk.Context, market types.MarketState) (types.MarketState, error) {
	now := ctx.BlockTime().Unix()
	if now == market.LastUpdateTime {
		return market, nil
	}

	pool := k.GetPool(ctx)
	params := k.GetRiskParameters(ctx)

	utilization, err := types.Utilization(pool.TotalBorrowedAcrossMarkets, pool.TotalSupplied)
	if err != nil {
		return types.MarketState{}, err
	}
	rate, err := types.SpreadRate(utilization, params)
	if err != nil {
		return types.MarketState{}, err
	}

	newIndex, err := types.AdvanceBorrowIndex(market.BorrowIndex, rate, market.LastUpdateTime, now, market.TotalBorrowed)
	if err != nil {
		return types.MarketState{}, err
	}

	market.BorrowIndex = newIndex
	market.LastUpdateTime = now
	market.UpdatedAt = ctx.BlockTime()
	k.SetMarket(ctx, market)

	k.AddRateSnapshot(ctx, types.RateSnapshot{
		MarketID:      market.MarketID,
		Timestamp:     now,
		Utilization:   utilization,
		SpreadRate:    rate,
		BorrowIndex:   newIndex,
		TotalBorrowed: market.TotalBorrowed,
	})

	return market, nil
}

// AccrueAllMarkets runs accrual over every market. Called from EndBlocker so
// indices keep moving on otherwise quiet markets.
func (k *Keeper) AccrueAllMarkets(ctx sdk.Context) {
	for _, market := range k.GetAllMarkets(ctx) {
		if _, err := k.AccrueMarket(ctx, market); err != nil {
			k.logger.Error("market accrual failed",
				"market_id", market.MarketID,
				"error", err.Error(),
			)
		}
	}
}
