package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/lending/types"
)

// QueryServer defines the lending QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// Pool returns the pool ledger
func (q *QueryServer) Pool(ctx context.Context) (types.PoolState, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetPool(sdkCtx), nil
}

// Market returns a market by ID
func (q *QueryServer) Market(ctx context.Context, marketID string) (types.MarketState, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetMarket(sdkCtx, marketID)
}

// Markets returns all markets with pagination
func (q *QueryServer) Markets(ctx context.Context, offset, limit uint64) ([]types.MarketState, uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	allMarkets := q.keeper.GetAllMarkets(sdkCtx)

	total := uint64(len(allMarkets))
	if offset >= total {
		return []types.MarketState{}, total, nil
	}

	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}
	return allMarkets[offset:end], total, nil
}

// Position returns a borrower's position in a market
func (q *QueryServer) Position(ctx context.Context, marketID, borrower string) (types.UserPosition, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if !q.keeper.HasMarket(sdkCtx, marketID) {
		return types.UserPosition{}, types.ErrMarketNotFound
	}
	return q.keeper.GetPosition(sdkCtx, marketID, borrower), nil
}

// UserDebt returns the borrower's current debt breakdown against a fresh
// read of the external lender's aggregate
func (q *QueryServer) UserDebt(ctx context.Context, marketID, borrower string) (types.DebtBreakdown, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	market, err := q.keeper.GetMarket(sdkCtx, marketID)
	if err != nil {
		return types.DebtBreakdown{}, err
	}
	position := q.keeper.GetPosition(sdkCtx, marketID, borrower)
	pool := q.keeper.GetPool(sdkCtx)

	protocolDebt, err := q.keeper.ProtocolTotalDebt(sdkCtx)
	if err != nil {
		return types.DebtBreakdown{}, err
	}

	return types.AllocateUserDebt(
		protocolDebt,
		pool.TotalBorrowedAcrossMarkets,
		market.TotalBorrowed,
		position.BorrowAmount,
		position.ScaledDebtBalance,
		market.BorrowIndex,
	)
}

// ShareBalance returns a supplier's pool shares
func (q *QueryServer) ShareBalance(ctx context.Context, supplier string) (math.Int, math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetShareBalance(sdkCtx, supplier), q.keeper.GetTotalShares(sdkCtx), nil
}

// Price returns the current collateral price for a market
func (q *QueryServer) Price(ctx context.Context, marketID string) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetPrice(sdkCtx, marketID)
}

// RiskParameters returns the active risk parameter set
func (q *QueryServer) RiskParameters(ctx context.Context) (types.RiskParameters, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetRiskParameters(sdkCtx), nil
}

// RateHistory returns rate snapshots for a market within [fromTime, toTime]
func (q *QueryServer) RateHistory(ctx context.Context, marketID string, fromTime, toTime int64) ([]types.RateSnapshot, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if !q.keeper.HasMarket(sdkCtx, marketID) {
		return nil, types.ErrMarketNotFound
	}
	return q.keeper.GetRateSnapshots(sdkCtx, marketID, fromTime, toTime), nil
}

// CurrentRate returns the live utilization and spread rate
func (q *QueryServer) CurrentRate(ctx context.Context) (utilization, rate math.Int, err error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx)
	params := q.keeper.GetRiskParameters(sdkCtx)

	utilization, err = types.Utilization(pool.TotalBorrowedAcrossMarkets, pool.TotalSupplied)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	rate, err = types.SpreadRate(utilization, params)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	return utilization, rate, nil
}
