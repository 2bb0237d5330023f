package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/clearing/types"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

// MsgServer defines the clearing MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// parseAmount converts a base-unit integer string. "" and "0" both map to
// zero, which Liquidate interprets as the close-factor maximum.
func parseAmount(s string) (math.Int, error) {
	if s == "" {
		return math.ZeroInt(), nil
	}
	amount, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, lendingtypes.ErrInvalidAmount
	}
	return amount, nil
}

// Liquidate handles MsgLiquidate
func (m *MsgServer) Liquidate(ctx context.Context, msg *types.MsgLiquidate) (*types.MsgLiquidateResponse, error) {
	amount, err := parseAmount(msg.Amount)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	record, err := m.keeper.Liquidate(sdkCtx, msg.Liquidator, msg.MarketID, msg.Borrower, amount)
	if err != nil {
		return nil, err
	}

	return &types.MsgLiquidateResponse{
		LiquidationID:    record.LiquidationID,
		AmountRepaid:     record.RepayAmount.String(),
		CollateralSeized: record.CollateralSeized.String(),
		HealthFactor:     record.HealthFactor.String(),
	}, nil
}

// ResolveMarket handles MsgResolveMarket
func (m *MsgServer) ResolveMarket(ctx context.Context, msg *types.MsgResolveMarket) (*types.MsgResolveMarketResponse, error) {
	redeemed, err := parseAmount(msg.RedeemedAmount)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	result, err := m.keeper.ResolveMarket(sdkCtx, msg.Authority, msg.MarketID, redeemed)
	if err != nil {
		return nil, err
	}

	return &types.MsgResolveMarketResponse{
		AmountRepaidToLender: result.Resolution.AmountRepaidToLender.String(),
		LPPool:               result.Resolution.LPPool.String(),
		BorrowerPool:         result.Resolution.BorrowerPool.String(),
		ProtocolPool:         result.Resolution.ProtocolPool.String(),
	}, nil
}

// ClaimLPShare handles MsgClaimLPShare
func (m *MsgServer) ClaimLPShare(ctx context.Context, msg *types.MsgClaimLPShare) (*types.MsgClaimLPShareResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	amount, err := m.keeper.ClaimLPShare(sdkCtx, msg.Supplier, msg.MarketID)
	if err != nil {
		return nil, err
	}
	return &types.MsgClaimLPShareResponse{AmountClaimed: amount.String()}, nil
}

// ClaimBorrowerShare handles MsgClaimBorrowerShare
func (m *MsgServer) ClaimBorrowerShare(ctx context.Context, msg *types.MsgClaimBorrowerShare) (*types.MsgClaimBorrowerShareResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	amount, err := m.keeper.ClaimBorrowerShare(sdkCtx, msg.Borrower, msg.MarketID)
	if err != nil {
		return nil, err
	}
	return &types.MsgClaimBorrowerShareResponse{AmountClaimed: amount.String()}, nil
}

// ClaimProtocolRevenue handles MsgClaimProtocolRevenue
func (m *MsgServer) ClaimProtocolRevenue(ctx context.Context, msg *types.MsgClaimProtocolRevenue) (*types.MsgClaimProtocolRevenueResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	amount, err := m.keeper.ClaimProtocolRevenue(sdkCtx, msg.Authority, msg.MarketID, msg.Recipient)
	if err != nil {
		return nil, err
	}
	return &types.MsgClaimProtocolRevenueResponse{AmountClaimed: amount.String()}, nil
}
