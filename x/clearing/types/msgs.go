package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

// Message types
const (
	TypeMsgLiquidate            = "liquidate"
	TypeMsgResolveMarket        = "resolve_market"
	TypeMsgClaimLPShare         = "claim_lp_share"
	TypeMsgClaimBorrowerShare   = "claim_borrower_share"
	TypeMsgClaimProtocolRevenue = "claim_protocol_revenue"
)

// MsgLiquidate defines the Liquidate message. A zero Amount repays the
// close-factor maximum.
type MsgLiquidate struct {
	Liquidator string `json:"liquidator"`
	MarketID   string `json:"market_id"`
	Borrower   string `json:"borrower"`
	Amount     string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgLiquidate) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgLiquidate) Type() string { return TypeMsgLiquidate }

// ValidateBasic implements sdk.Msg
func (msg MsgLiquidate) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Liquidator); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.Borrower); err != nil {
		return err
	}
	if msg.MarketID == "" {
		return lendingtypes.ErrInvalidMarketID
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgLiquidate) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Liquidator)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgLiquidate) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgLiquidate) Reset() { *msg = MsgLiquidate{} }

// String implements proto.Message
func (msg MsgLiquidate) String() string {
	return fmt.Sprintf("MsgLiquidate{Liquidator: %s, MarketID: %s, Borrower: %s}", msg.Liquidator, msg.MarketID, msg.Borrower)
}

// MsgLiquidateResponse defines the Liquidate response
type MsgLiquidateResponse struct {
	LiquidationID    string `json:"liquidation_id"`
	AmountRepaid     string `json:"amount_repaid"`
	CollateralSeized string `json:"collateral_seized"`
	HealthFactor     string `json:"health_factor"`
}

// MsgResolveMarket defines the ResolveMarket message. RedeemedAmount is the
// base-asset value realized from the market's collateral at settlement.
type MsgResolveMarket struct {
	Authority      string `json:"authority"`
	MarketID       string `json:"market_id"`
	RedeemedAmount string `json:"redeemed_amount"`
}

// Route implements sdk.Msg
func (msg MsgResolveMarket) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgResolveMarket) Type() string { return TypeMsgResolveMarket }

// ValidateBasic implements sdk.Msg
func (msg MsgResolveMarket) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	if msg.MarketID == "" {
		return lendingtypes.ErrInvalidMarketID
	}
	if msg.RedeemedAmount == "" {
		return ErrInvalidRedemption
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgResolveMarket) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgResolveMarket) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgResolveMarket) Reset() { *msg = MsgResolveMarket{} }

// String implements proto.Message
func (msg MsgResolveMarket) String() string {
	return fmt.Sprintf("MsgResolveMarket{Authority: %s, MarketID: %s, Redeemed: %s}", msg.Authority, msg.MarketID, msg.RedeemedAmount)
}

// MsgResolveMarketResponse defines the ResolveMarket response
type MsgResolveMarketResponse struct {
	AmountRepaidToLender string `json:"amount_repaid_to_lender"`
	LPPool               string `json:"lp_pool"`
	BorrowerPool         string `json:"borrower_pool"`
	ProtocolPool         string `json:"protocol_pool"`
}

// MsgClaimLPShare defines the ClaimLPShare message
type MsgClaimLPShare struct {
	Supplier string `json:"supplier"`
	MarketID string `json:"market_id"`
}

// Route implements sdk.Msg
func (msg MsgClaimLPShare) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgClaimLPShare) Type() string { return TypeMsgClaimLPShare }

// ValidateBasic implements sdk.Msg
func (msg MsgClaimLPShare) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Supplier); err != nil {
		return err
	}
	if msg.MarketID == "" {
		return lendingtypes.ErrInvalidMarketID
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgClaimLPShare) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Supplier)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgClaimLPShare) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgClaimLPShare) Reset() { *msg = MsgClaimLPShare{} }

// String implements proto.Message
func (msg MsgClaimLPShare) String() string {
	return fmt.Sprintf("MsgClaimLPShare{Supplier: %s, MarketID: %s}", msg.Supplier, msg.MarketID)
}

// MsgClaimLPShareResponse defines the ClaimLPShare response
type MsgClaimLPShareResponse struct {
	AmountClaimed string `json:"amount_claimed"`
}

// MsgClaimBorrowerShare defines the ClaimBorrowerShare message
type MsgClaimBorrowerShare struct {
	Borrower string `json:"borrower"`
	MarketID string `json:"market_id"`
}

// Route implements sdk.Msg
func (msg MsgClaimBorrowerShare) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgClaimBorrowerShare) Type() string { return TypeMsgClaimBorrowerShare }

// ValidateBasic implements sdk.Msg
func (msg MsgClaimBorrowerShare) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Borrower); err != nil {
		return err
	}
	if msg.MarketID == "" {
		return lendingtypes.ErrInvalidMarketID
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgClaimBorrowerShare) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Borrower)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgClaimBorrowerShare) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgClaimBorrowerShare) Reset() { *msg = MsgClaimBorrowerShare{} }

// String implements proto.Message
func (msg MsgClaimBorrowerShare) String() string {
	return fmt.Sprintf("MsgClaimBorrowerShare{Borrower: %s, MarketID: %s}", msg.Borrower, msg.MarketID)
}

// MsgClaimBorrowerShareResponse defines the ClaimBorrowerShare response
type MsgClaimBorrowerShareResponse struct {
	AmountClaimed string `json:"amount_claimed"`
}

// MsgClaimProtocolRevenue defines the ClaimProtocolRevenue message
type MsgClaimProtocolRevenue struct {
	Authority string `json:"authority"`
	MarketID  string `json:"market_id"`
	Recipient string `json:"recipient"`
}

// Route implements sdk.Msg
func (msg MsgClaimProtocolRevenue) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgClaimProtocolRevenue) Type() string { return TypeMsgClaimProtocolRevenue }

// ValidateBasic implements sdk.Msg
func (msg MsgClaimProtocolRevenue) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.Recipient); err != nil {
		return err
	}
	if msg.MarketID == "" {
		return lendingtypes.ErrInvalidMarketID
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgClaimProtocolRevenue) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgClaimProtocolRevenue) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgClaimProtocolRevenue) Reset() { *msg = MsgClaimProtocolRevenue{} }

// String implements proto.Message
func (msg MsgClaimProtocolRevenue) String() string {
	return fmt.Sprintf("MsgClaimProtocolRevenue{Authority: %s, MarketID: %s}", msg.Authority, msg.MarketID)
}

// MsgClaimProtocolRevenueResponse defines the ClaimProtocolRevenue response
type MsgClaimProtocolRevenueResponse struct {
	AmountClaimed string `json:"amount_claimed"`
}

// Ensure all messages implement sdk.Msg interface
var (
	_ sdk.Msg = &MsgLiquidate{}
	_ sdk.Msg = &MsgResolveMarket{}
	_ sdk.Msg = &MsgClaimLPShare{}
	_ sdk.Msg = &MsgClaimBorrowerShare{}
	_ sdk.Msg = &MsgClaimProtocolRevenue{}
)
