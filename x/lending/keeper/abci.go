package keeper

import (
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// EndBlocker is called at the end of each block to advance borrow indices
func (k *Keeper) EndBlocker(ctx sdk.Context) error {
	blockHeight := ctx.BlockHeight()
	start := time.Now()

	k.AccrueAllMarkets(ctx)

	totalDuration := time.Since(start)

	k.logger.Debug("lending EndBlocker completed",
		"block", blockHeight,
		"total_ms", totalDuration.Milliseconds(),
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"lending_endblock",
			sdk.NewAttribute("block_height", math.NewInt(blockHeight).String()),
			sdk.NewAttribute("duration_ms", math.NewInt(totalDuration.Milliseconds()).String()),
		),
	)

	return nil
}
