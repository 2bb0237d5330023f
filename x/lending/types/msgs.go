package types

import (
	"errors"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgSupply               = "supply"
	TypeMsgWithdraw             = "withdraw"
	TypeMsgBorrow               = "borrow"
	TypeMsgRepay                = "repay"
	TypeMsgCreateMarket         = "create_market"
	TypeMsgSetMarketStatus      = "set_market_status"
	TypeMsgUpdateRiskParameters = "update_risk_parameters"
	TypeMsgPostPrice            = "post_price"
)

// MsgSupply defines the Supply message
type MsgSupply struct {
	Supplier string `json:"supplier"`
	Amount   string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgSupply) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSupply) Type() string { return TypeMsgSupply }

// ValidateBasic implements sdk.Msg
func (msg MsgSupply) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Supplier); err != nil {
		return err
	}
	if msg.Amount == "" {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSupply) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Supplier)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSupply) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSupply) Reset() { *msg = MsgSupply{} }

// String implements proto.Message
func (msg MsgSupply) String() string {
	return fmt.Sprintf("MsgSupply{Supplier: %s, Amount: %s}", msg.Supplier, msg.Amount)
}

// MsgSupplyResponse defines the Supply response
type MsgSupplyResponse struct {
	SharesMinted    string `json:"shares_minted"`
	TotalSupplied   string `json:"total_supplied"`
	ForwardedAmount string `json:"forwarded_amount"`
}

// MsgWithdraw defines the Withdraw message
type MsgWithdraw struct {
	Supplier string `json:"supplier"`
	Shares   string `json:"shares"`
}

// Route implements sdk.Msg
func (msg MsgWithdraw) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgWithdraw) Type() string { return TypeMsgWithdraw }

// ValidateBasic implements sdk.Msg
func (msg MsgWithdraw) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Supplier); err != nil {
		return err
	}
	if msg.Shares == "" {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgWithdraw) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Supplier)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgWithdraw) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgWithdraw) Reset() { *msg = MsgWithdraw{} }

// String implements proto.Message
func (msg MsgWithdraw) String() string {
	return fmt.Sprintf("MsgWithdraw{Supplier: %s, Shares: %s}", msg.Supplier, msg.Shares)
}

// MsgWithdrawResponse defines the Withdraw response
type MsgWithdrawResponse struct {
	AmountReturned  string `json:"amount_returned"`
	SharesBurned    string `json:"shares_burned"`
	RemainingShares string `json:"remaining_shares"`
}

// MsgBorrow defines the Borrow message. A zero Amount draws the maximum the
// collateral supports.
type MsgBorrow struct {
	Borrower   string `json:"borrower"`
	MarketID   string `json:"market_id"`
	Collateral string `json:"collateral"`
	Amount     string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgBorrow) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgBorrow) Type() string { return TypeMsgBorrow }

// ValidateBasic implements sdk.Msg
func (msg MsgBorrow) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Borrower); err != nil {
		return err
	}
	if msg.MarketID == "" {
		return ErrInvalidMarketID
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgBorrow) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Borrower)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgBorrow) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgBorrow) Reset() { *msg = MsgBorrow{} }

// String implements proto.Message
func (msg MsgBorrow) String() string {
	return fmt.Sprintf("MsgBorrow{Borrower: %s, MarketID: %s, Amount: %s}", msg.Borrower, msg.MarketID, msg.Amount)
}

// MsgBorrowResponse defines the Borrow response
type MsgBorrowResponse struct {
	ActualBorrow    string `json:"actual_borrow"`
	CollateralTaken string `json:"collateral_taken"`
	BorrowIndex     string `json:"borrow_index"`
}

// MsgRepay defines the Repay message. A zero Amount settles the whole debt.
type MsgRepay struct {
	Borrower string `json:"borrower"`
	MarketID string `json:"market_id"`
	Amount   string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgRepay) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgRepay) Type() string { return TypeMsgRepay }

// ValidateBasic implements sdk.Msg
func (msg MsgRepay) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Borrower); err != nil {
		return err
	}
	if msg.MarketID == "" {
		return ErrInvalidMarketID
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgRepay) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Borrower)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgRepay) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgRepay) Reset() { *msg = MsgRepay{} }

// String implements proto.Message
func (msg MsgRepay) String() string {
	return fmt.Sprintf("MsgRepay{Borrower: %s, MarketID: %s, Amount: %s}", msg.Borrower, msg.MarketID, msg.Amount)
}

// MsgRepayResponse defines the Repay response
type MsgRepayResponse struct {
	AmountRepaid       string `json:"amount_repaid"`
	SpreadPaid         string `json:"spread_paid"`
	CollateralReleased string `json:"collateral_released"`
	FullSettlement     bool   `json:"full_settlement"`
}

// MsgCreateMarket defines the CreateMarket message
type MsgCreateMarket struct {
	Authority          string `json:"authority"`
	BaseDenom          string `json:"base_denom"`
	CollateralDenom    string `json:"collateral_denom"`
	BaseDecimals       uint32 `json:"base_decimals"`
	CollateralDecimals uint32 `json:"collateral_decimals"`
}

// Route implements sdk.Msg
func (msg MsgCreateMarket) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgCreateMarket) Type() string { return TypeMsgCreateMarket }

// ValidateBasic implements sdk.Msg
func (msg MsgCreateMarket) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	if msg.BaseDenom == "" || msg.CollateralDenom == "" {
		return errors.New("base and collateral denoms cannot be empty")
	}
	if msg.BaseDecimals > MaxRebaseDecimals || msg.CollateralDecimals > MaxRebaseDecimals {
		return ErrUnsupportedDecimals
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgCreateMarket) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgCreateMarket) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgCreateMarket) Reset() { *msg = MsgCreateMarket{} }

// String implements proto.Message
func (msg MsgCreateMarket) String() string {
	return fmt.Sprintf("MsgCreateMarket{Authority: %s, Base: %s, Collateral: %s}", msg.Authority, msg.BaseDenom, msg.CollateralDenom)
}

// MsgCreateMarketResponse defines the CreateMarket response
type MsgCreateMarketResponse struct {
	MarketID string `json:"market_id"`
}

// MsgSetMarketStatus defines the SetMarketStatus message. Marking a market
// matured freezes new borrowing ahead of resolution.
type MsgSetMarketStatus struct {
	Authority string `json:"authority"`
	MarketID  string `json:"market_id"`
	Active    bool   `json:"active"`
	Matured   bool   `json:"matured"`
}

// Route implements sdk.Msg
func (msg MsgSetMarketStatus) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetMarketStatus) Type() string { return TypeMsgSetMarketStatus }

// ValidateBasic implements sdk.Msg
func (msg MsgSetMarketStatus) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	if msg.MarketID == "" {
		return ErrInvalidMarketID
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetMarketStatus) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetMarketStatus) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetMarketStatus) Reset() { *msg = MsgSetMarketStatus{} }

// String implements proto.Message
func (msg MsgSetMarketStatus) String() string {
	return fmt.Sprintf("MsgSetMarketStatus{Authority: %s, MarketID: %s, Active: %t, Matured: %t}", msg.Authority, msg.MarketID, msg.Active, msg.Matured)
}

// MsgSetMarketStatusResponse defines the SetMarketStatus response
type MsgSetMarketStatusResponse struct{}

// MsgUpdateRiskParameters defines the UpdateRiskParameters message. All rates
// are decimal strings converted to ray precision by the keeper.
type MsgUpdateRiskParameters struct {
	Authority            string `json:"authority"`
	LTV                  string `json:"ltv"`
	LiquidationThreshold string `json:"liquidation_threshold"`
	CloseFactor          string `json:"close_factor"`
	LiquidationBonus     string `json:"liquidation_bonus"`
	ReserveFactor        string `json:"reserve_factor"`
	BaseRate             string `json:"base_rate"`
	OptimalUtilization   string `json:"optimal_utilization"`
	Slope1               string `json:"slope1"`
	Slope2               string `json:"slope2"`
	LPShareOfRedeemed    string `json:"lp_share_of_redeemed"`
}

// Route implements sdk.Msg
func (msg MsgUpdateRiskParameters) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgUpdateRiskParameters) Type() string { return TypeMsgUpdateRiskParameters }

// ValidateBasic implements sdk.Msg
func (msg MsgUpdateRiskParameters) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgUpdateRiskParameters) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgUpdateRiskParameters) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgUpdateRiskParameters) Reset() { *msg = MsgUpdateRiskParameters{} }

// String implements proto.Message
func (msg MsgUpdateRiskParameters) String() string {
	return fmt.Sprintf("MsgUpdateRiskParameters{Authority: %s}", msg.Authority)
}

// MsgUpdateRiskParametersResponse defines the UpdateRiskParameters response
type MsgUpdateRiskParametersResponse struct{}

// MsgPostPrice defines the PostPrice message. Price is a ray-precision
// decimal string quoting one whole collateral unit in base asset.
type MsgPostPrice struct {
	Poster   string `json:"poster"`
	MarketID string `json:"market_id"`
	Price    string `json:"price"`
}

// Route implements sdk.Msg
func (msg MsgPostPrice) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgPostPrice) Type() string { return TypeMsgPostPrice }

// ValidateBasic implements sdk.Msg
func (msg MsgPostPrice) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Poster); err != nil {
		return err
	}
	if msg.MarketID == "" {
		return ErrInvalidMarketID
	}
	if msg.Price == "" {
		return ErrPriceUnavailable
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgPostPrice) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Poster)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgPostPrice) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgPostPrice) Reset() { *msg = MsgPostPrice{} }

// String implements proto.Message
func (msg MsgPostPrice) String() string {
	return fmt.Sprintf("MsgPostPrice{Poster: %s, MarketID: %s, Price: %s}", msg.Poster, msg.MarketID, msg.Price)
}

// MsgPostPriceResponse defines the PostPrice response
type MsgPostPriceResponse struct{}

// Ensure all messages implement sdk.Msg interface
var (
	_ sdk.Msg = &MsgSupply{}
	_ sdk.Msg = &MsgWithdraw{}
	_ sdk.Msg = &MsgBorrow{}
	_ sdk.Msg = &MsgRepay{}
	_ sdk.Msg = &MsgCreateMarket{}
	_ sdk.Msg = &MsgSetMarketStatus{}
	_ sdk.Msg = &MsgUpdateRiskParameters{}
	_ sdk.Msg = &MsgPostPrice{}
)
