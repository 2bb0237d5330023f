package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/clearing/types"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

// QueryServer defines the clearing QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// Liquidation returns a liquidation record by ID
func (q *QueryServer) Liquidation(ctx context.Context, liquidationID string) (types.LiquidationRecord, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	record, found := q.keeper.GetLiquidationRecord(sdkCtx, liquidationID)
	if !found {
		return types.LiquidationRecord{}, types.ErrLiquidationNotFound
	}
	return record, nil
}

// Liquidations returns the most recent liquidation records, newest first
func (q *QueryServer) Liquidations(ctx context.Context, limit int) ([]types.LiquidationRecord, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if limit <= 0 {
		limit = 100
	}
	return q.keeper.GetAllLiquidationRecords(sdkCtx, limit), nil
}

// Resolution returns the settlement record for a market
func (q *QueryServer) Resolution(ctx context.Context, marketID string) (types.ResolutionState, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	resolution := q.keeper.GetResolution(sdkCtx, marketID)
	if !resolution.Resolved {
		return types.ResolutionState{}, types.ErrResolutionNotFound
	}
	return resolution, nil
}

// PositionHealth returns the live health factor and debt breakdown for a
// borrower's position
func (q *QueryServer) PositionHealth(ctx context.Context, marketID, borrower string) (math.Int, lendingtypes.DebtBreakdown, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	market, err := q.keeper.lendingKeeper.GetMarket(sdkCtx, marketID)
	if err != nil {
		return math.Int{}, lendingtypes.DebtBreakdown{}, err
	}
	position := q.keeper.lendingKeeper.GetPosition(sdkCtx, marketID, borrower)
	pool := q.keeper.lendingKeeper.GetPool(sdkCtx)
	params := q.keeper.lendingKeeper.GetRiskParameters(sdkCtx)

	protocolDebt, err := q.keeper.lendingKeeper.ProtocolTotalDebt(sdkCtx)
	if err != nil {
		return math.Int{}, lendingtypes.DebtBreakdown{}, err
	}
	breakdown, err := lendingtypes.AllocateUserDebt(
		protocolDebt,
		pool.TotalBorrowedAcrossMarkets,
		market.TotalBorrowed,
		position.BorrowAmount,
		position.ScaledDebtBalance,
		market.BorrowIndex,
	)
	if err != nil {
		return math.Int{}, lendingtypes.DebtBreakdown{}, err
	}
	if breakdown.Total.IsZero() {
		return math.Int{}, lendingtypes.DebtBreakdown{}, lendingtypes.ErrNoDebtOutstanding
	}

	price, err := q.keeper.lendingKeeper.GetPrice(sdkCtx, marketID)
	if err != nil {
		return math.Int{}, lendingtypes.DebtBreakdown{}, err
	}
	collateralValue, err := market.CollateralValueBase(position.CollateralAmount, price)
	if err != nil {
		return math.Int{}, lendingtypes.DebtBreakdown{}, err
	}
	healthFactor, err := types.HealthFactor(collateralValue, breakdown.Total, params.LiquidationThreshold)
	if err != nil {
		return math.Int{}, lendingtypes.DebtBreakdown{}, err
	}
	return healthFactor, breakdown, nil
}

// ClaimableLPShare returns what a supplier could still claim from a resolved
// market, zero once claimed
func (q *QueryServer) ClaimableLPShare(ctx context.Context, marketID, supplier string) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	resolution := q.keeper.GetResolution(sdkCtx, marketID)
	if !resolution.Resolved {
		return math.Int{}, types.ErrResolutionNotFound
	}
	if q.keeper.HasLPClaimed(sdkCtx, marketID, supplier) {
		return math.ZeroInt(), nil
	}
	shares := q.keeper.GetShareSnapshot(sdkCtx, marketID, supplier)
	return types.LPClaimAmount(resolution, shares)
}

// ClaimableBorrowerShare returns what a borrower could still claim from a
// resolved market, zero once claimed
func (q *QueryServer) ClaimableBorrowerShare(ctx context.Context, marketID, borrower string) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	resolution := q.keeper.GetResolution(sdkCtx, marketID)
	if !resolution.Resolved {
		return math.Int{}, types.ErrResolutionNotFound
	}
	if q.keeper.HasBorrowerClaimed(sdkCtx, marketID, borrower) {
		return math.ZeroInt(), nil
	}
	collateral := q.keeper.GetCollateralSnapshot(sdkCtx, marketID, borrower)
	return types.BorrowerClaimAmount(resolution, collateral)
}
