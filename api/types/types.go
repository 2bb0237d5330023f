package types

import (
	"context"
	"time"
)

// PoolSummary represents the shared liquidity pool in the API response
type PoolSummary struct {
	TotalSupplied     string `json:"total_supplied"`
	TotalBorrowed     string `json:"total_borrowed"`
	AccumulatedSpread string `json:"accumulated_spread"`
	TotalShares       string `json:"total_shares"`
	Utilization       string `json:"utilization"`
	UpdatedAt         int64  `json:"updated_at"`
}

// Market represents a lending market in the API response
type Market struct {
	MarketID        string `json:"market_id"`
	BaseDenom       string `json:"base_denom"`
	CollateralDenom string `json:"collateral_denom"`
	TotalBorrowed   string `json:"total_borrowed"`
	TotalCollateral string `json:"total_collateral"`
	BorrowIndex     string `json:"borrow_index"`
	SpreadRate      string `json:"spread_rate"`
	Utilization     string `json:"utilization"`
	CollateralPrice string `json:"collateral_price"`
	Resolved        bool   `json:"resolved"`
	UpdatedAt       int64  `json:"updated_at"`
}

// Position represents a borrower position in the API response
type Position struct {
	MarketID     string `json:"market_id"`
	Borrower     string `json:"borrower"`
	Collateral   string `json:"collateral"`
	BorrowAmount string `json:"borrow_amount"`
	ScaledDebt   string `json:"scaled_debt"`
	CurrentDebt  string `json:"current_debt"`
	HealthFactor string `json:"health_factor"`
	UpdatedAt    int64  `json:"updated_at"`
}

// DebtBreakdown represents the two-level debt allocation for a borrower
type DebtBreakdown struct {
	MarketID          string `json:"market_id"`
	Borrower          string `json:"borrower"`
	ProtocolTotalDebt string `json:"protocol_total_debt"`
	MarketDebtShare   string `json:"market_debt_share"`
	UserDebt          string `json:"user_debt"`
	AccruedInterest   string `json:"accrued_interest"`
}

// SupplierBalance represents a supplier's pool shares in the API response
type SupplierBalance struct {
	Supplier    string `json:"supplier"`
	Shares      string `json:"shares"`
	ShareValue  string `json:"share_value"`
	TotalShares string `json:"total_shares"`
}

// Resolution represents a resolved market's settlement in the API response
type Resolution struct {
	MarketID             string `json:"market_id"`
	Resolved             bool   `json:"resolved"`
	TotalRedeemed        string `json:"total_redeemed"`
	AmountRepaidToLender string `json:"amount_repaid_to_lender"`
	LPPool               string `json:"lp_pool"`
	BorrowerPool         string `json:"borrower_pool"`
	ProtocolPool         string `json:"protocol_pool"`
	ResolvedAt           int64  `json:"resolved_at"`
}

// Liquidation represents a liquidation record in the API response
type Liquidation struct {
	LiquidationID    string `json:"liquidation_id"`
	MarketID         string `json:"market_id"`
	Borrower         string `json:"borrower"`
	Liquidator       string `json:"liquidator"`
	RepayAmount      string `json:"repay_amount"`
	CollateralSeized string `json:"collateral_seized"`
	HealthFactor     string `json:"health_factor"`
	Timestamp        int64  `json:"timestamp"`
}

// SupplyRequest represents the request to supply liquidity
type SupplyRequest struct {
	Supplier string `json:"supplier"`
	Amount   string `json:"amount"`
}

// WithdrawRequest represents the request to withdraw liquidity
type WithdrawRequest struct {
	Supplier string `json:"supplier"`
	Shares   string `json:"shares"`
}

// BorrowRequest represents the request to open or extend a borrow
type BorrowRequest struct {
	Borrower   string `json:"borrower"`
	MarketID   string `json:"market_id"`
	Collateral string `json:"collateral"`
	Amount     string `json:"amount"`
}

// RepayRequest represents the request to repay a borrow
type RepayRequest struct {
	Borrower string `json:"borrower"`
	MarketID string `json:"market_id"`
	Amount   string `json:"amount"`
}

// OperationResponse represents the response after a pool operation
type OperationResponse struct {
	Pool     *PoolSummary `json:"pool"`
	Market   *Market      `json:"market,omitempty"`
	Position *Position    `json:"position,omitempty"`
	Supplier string       `json:"supplier,omitempty"`
	Shares   string       `json:"shares,omitempty"`
}

// PoolService defines the interface for pool and supplier operations
type PoolService interface {
	GetPool(ctx context.Context) (*PoolSummary, error)
	GetSupplier(ctx context.Context, address string) (*SupplierBalance, error)
	Supply(ctx context.Context, req *SupplyRequest) (*OperationResponse, error)
	Withdraw(ctx context.Context, req *WithdrawRequest) (*OperationResponse, error)
}

// MarketService defines the interface for market and borrow operations
type MarketService interface {
	ListMarkets(ctx context.Context) ([]*Market, error)
	GetMarket(ctx context.Context, marketID string) (*Market, error)
	Borrow(ctx context.Context, req *BorrowRequest) (*OperationResponse, error)
	Repay(ctx context.Context, req *RepayRequest) (*OperationResponse, error)
}

// PositionService defines the interface for position reads
type PositionService interface {
	GetPositions(ctx context.Context, marketID string) ([]*Position, error)
	GetPosition(ctx context.Context, marketID, borrower string) (*Position, error)
	GetDebtBreakdown(ctx context.Context, marketID, borrower string) (*DebtBreakdown, error)
}

// ClearingService defines the interface for settlement reads
type ClearingService interface {
	GetResolution(ctx context.Context, marketID string) (*Resolution, error)
	ListLiquidations(ctx context.Context, limit int) ([]*Liquidation, error)
}

// Helper function to get current timestamp in milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
