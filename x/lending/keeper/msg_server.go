package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/lending/types"
)

// MsgServer defines the lending MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// parseAmount converts a base-unit integer string. "" and "0" both map to
// zero, which the operations interpret as "maximum" where that applies.
func parseAmount(s string) (math.Int, error) {
	if s == "" {
		return math.ZeroInt(), nil
	}
	amount, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, types.ErrInvalidAmount
	}
	return amount, nil
}

// parseRay converts a decimal string like "0.75" into a ray-scaled integer.
func parseRay(s string) (math.Int, error) {
	dec, err := math.LegacyNewDecFromStr(s)
	if err != nil {
		return math.Int{}, types.ErrInvalidRiskParameters
	}
	return dec.MulInt(types.Ray).TruncateInt(), nil
}

// Supply handles MsgSupply
func (m *MsgServer) Supply(ctx context.Context, msg *types.MsgSupply) (*types.MsgSupplyResponse, error) {
	amount, err := parseAmount(msg.Amount)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	result, err := m.keeper.Supply(sdkCtx, msg.Supplier, amount)
	if err != nil {
		return nil, err
	}

	return &types.MsgSupplyResponse{
		SharesMinted:    result.SharesToMint.String(),
		TotalSupplied:   result.Pool.TotalSupplied.String(),
		ForwardedAmount: result.ForwardToLender.String(),
	}, nil
}

// Withdraw handles MsgWithdraw
func (m *MsgServer) Withdraw(ctx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error) {
	shares, err := parseAmount(msg.Shares)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	result, err := m.keeper.Withdraw(sdkCtx, msg.Supplier, shares)
	if err != nil {
		return nil, err
	}

	remaining := m.keeper.GetShareBalance(sdkCtx, msg.Supplier)

	return &types.MsgWithdrawResponse{
		AmountReturned:  result.ReturnToSupplier.String(),
		SharesBurned:    result.SharesToBurn.String(),
		RemainingShares: remaining.String(),
	}, nil
}

// Borrow handles MsgBorrow
func (m *MsgServer) Borrow(ctx context.Context, msg *types.MsgBorrow) (*types.MsgBorrowResponse, error) {
	collateral, err := parseAmount(msg.Collateral)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(msg.Amount)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	result, err := m.keeper.Borrow(sdkCtx, msg.Borrower, msg.MarketID, collateral, amount)
	if err != nil {
		return nil, err
	}

	return &types.MsgBorrowResponse{
		ActualBorrow:    result.ActualBorrow.String(),
		CollateralTaken: result.PullCollateral.String(),
		BorrowIndex:     result.Market.BorrowIndex.String(),
	}, nil
}

// Repay handles MsgRepay
func (m *MsgServer) Repay(ctx context.Context, msg *types.MsgRepay) (*types.MsgRepayResponse, error) {
	amount, err := parseAmount(msg.Amount)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	result, err := m.keeper.Repay(sdkCtx, msg.Borrower, msg.MarketID, amount)
	if err != nil {
		return nil, err
	}

	return &types.MsgRepayResponse{
		AmountRepaid:       result.ActualRepay.String(),
		SpreadPaid:         result.SpreadRetained.String(),
		CollateralReleased: result.CollateralReleased.String(),
		FullSettlement:     result.FullSettlement,
	}, nil
}

// CreateMarket handles MsgCreateMarket
func (m *MsgServer) CreateMarket(ctx context.Context, msg *types.MsgCreateMarket) (*types.MsgCreateMarketResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	market, err := m.keeper.CreateMarket(sdkCtx, msg.Authority, *msg)
	if err != nil {
		return nil, err
	}

	return &types.MsgCreateMarketResponse{
		MarketID: market.MarketID,
	}, nil
}

// SetMarketStatus handles MsgSetMarketStatus
func (m *MsgServer) SetMarketStatus(ctx context.Context, msg *types.MsgSetMarketStatus) (*types.MsgSetMarketStatusResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.SetMarketStatus(sdkCtx, msg.Authority, msg.MarketID, msg.Active, msg.Matured); err != nil {
		return nil, err
	}
	return &types.MsgSetMarketStatusResponse{}, nil
}

// UpdateRiskParameters handles MsgUpdateRiskParameters
func (m *MsgServer) UpdateRiskParameters(ctx context.Context, msg *types.MsgUpdateRiskParameters) (*types.MsgUpdateRiskParametersResponse, error) {
	params := types.RiskParameters{}
	fields := []struct {
		value  string
		target *math.Int
	}{
		{msg.LTV, &params.LTV},
		{msg.LiquidationThreshold, &params.LiquidationThreshold},
		{msg.CloseFactor, &params.LiquidationCloseFactor},
		{msg.LiquidationBonus, &params.LiquidationBonus},
		{msg.ReserveFactor, &params.ReserveFactor},
		{msg.BaseRate, &params.BaseSpreadRate},
		{msg.OptimalUtilization, &params.OptimalUtilization},
		{msg.Slope1, &params.Slope1},
		{msg.Slope2, &params.Slope2},
		{msg.LPShareOfRedeemed, &params.LPShareOfRedeemed},
	}
	for _, f := range fields {
		ray, err := parseRay(f.value)
		if err != nil {
			return nil, err
		}
		*f.target = ray
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.UpdateRiskParameters(sdkCtx, msg.Authority, params); err != nil {
		return nil, err
	}
	return &types.MsgUpdateRiskParametersResponse{}, nil
}

// PostPrice handles MsgPostPrice
func (m *MsgServer) PostPrice(ctx context.Context, msg *types.MsgPostPrice) (*types.MsgPostPriceResponse, error) {
	price, err := parseRay(msg.Price)
	if err != nil {
		return nil, types.ErrPriceUnavailable
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.PostPrice(sdkCtx, msg.Poster, msg.MarketID, price); err != nil {
		return nil, err
	}
	return &types.MsgPostPriceResponse{}, nil
}
