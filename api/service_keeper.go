package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creditpool/api/types"
	clearingkeeper "github.com/openalpha/creditpool/x/clearing/keeper"
	clearingtypes "github.com/openalpha/creditpool/x/clearing/types"
	lendingkeeper "github.com/openalpha/creditpool/x/lending/keeper"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

// serviceBaseDenom is the base asset for the standalone gateway
const serviceBaseDenom = "uusdc"

// serviceLenderModule is the module account the memory lender parks liquidity in
const serviceLenderModule = "lender"

// KeeperService implements PoolService, MarketService, PositionService and
// ClearingService by running the real lending and clearing keepers over an
// in-memory store. Standalone mode: no chain, no consensus.
type KeeperService struct {
	lending  *lendingkeeper.Keeper
	clearing *clearingkeeper.Keeper
	bank     *MemoryBankKeeper
	lender   *memoryLender
	ctx      sdk.Context
	mu       sync.Mutex

	authority string
}

// memoryLender is the standalone stand-in for the external lender. Liquidity
// moves between the lending and lender module accounts; drawn principal is
// tracked so TotalDebt reports the aggregate owed back.
type memoryLender struct {
	bank  *MemoryBankKeeper
	denom string
	drawn math.Int
	mu    sync.Mutex
}

func newMemoryLender(bank *MemoryBankKeeper, denom string) *memoryLender {
	return &memoryLender{bank: bank, denom: denom, drawn: math.ZeroInt()}
}

func (l *memoryLender) TotalDebt(ctx sdk.Context) (math.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.drawn, nil
}

func (l *memoryLender) ForwardLiquidity(ctx sdk.Context, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	coins := sdk.NewCoins(sdk.NewCoin(l.denom, amount))
	return l.bank.SendCoinsFromModuleToModule(ctx, lendingtypes.ModuleName, serviceLenderModule, coins)
}

func (l *memoryLender) ReclaimLiquidity(ctx sdk.Context, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	coins := sdk.NewCoins(sdk.NewCoin(l.denom, amount))
	return l.bank.SendCoinsFromModuleToModule(ctx, serviceLenderModule, lendingtypes.ModuleName, coins)
}

func (l *memoryLender) DrawLiquidity(ctx sdk.Context, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	coins := sdk.NewCoins(sdk.NewCoin(l.denom, amount))
	if err := l.bank.SendCoinsFromModuleToModule(ctx, serviceLenderModule, lendingtypes.ModuleName, coins); err != nil {
		return err
	}
	l.mu.Lock()
	l.drawn = l.drawn.Add(amount)
	l.mu.Unlock()
	return nil
}

func (l *memoryLender) RepayDraw(ctx sdk.Context, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	coins := sdk.NewCoins(sdk.NewCoin(l.denom, amount))
	if err := l.bank.SendCoinsFromModuleToModule(ctx, lendingtypes.ModuleName, serviceLenderModule, coins); err != nil {
		return err
	}
	l.mu.Lock()
	l.drawn = lendingtypes.SubFloored(l.drawn, amount)
	l.mu.Unlock()
	return nil
}

// NewKeeperService creates a KeeperService with in-memory stores
func NewKeeperService(logger log.Logger) (*KeeperService, error) {
	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	lendingKey := storetypes.NewKVStoreKey(lendingtypes.ModuleName)
	clearingKey := storetypes.NewKVStoreKey(clearingtypes.ModuleName)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(lendingKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(clearingKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{
		Time:   time.Now(),
		Height: 1,
	}, false, log.NewNopLogger())

	bank := NewMemoryBankKeeper()
	lender := newMemoryLender(bank, serviceBaseDenom)

	authority := sdk.AccAddress([]byte("creditpool-gateway-admin")).String()

	lendingK := lendingkeeper.NewKeeper(cdc, lendingKey, lender, bank, authority, authority, serviceBaseDenom, logger)
	clearingK := clearingkeeper.NewKeeper(cdc, clearingKey, lendingK, lender, bank, authority, logger)

	lendingK.SetRiskParameters(ctx, lendingtypes.DefaultRiskParameters())

	return &KeeperService{
		lending:   lendingK,
		clearing:  clearingK,
		bank:      bank,
		lender:    lender,
		ctx:       ctx,
		authority: authority,
	}, nil
}

// Authority returns the admin address used for market creation and oracle posts
func (s *KeeperService) Authority() string {
	return s.authority
}

// Bank returns the in-memory bank, for seeding test accounts
func (s *KeeperService) Bank() *MemoryBankKeeper {
	return s.bank
}

// now advances the block time so accrual sees wall-clock time. Callers must
// hold s.mu.
func (s *KeeperService) now() sdk.Context {
	s.ctx = s.ctx.WithBlockTime(time.Now())
	return s.ctx
}

// CreateMarket creates a lending market through the real keeper
func (s *KeeperService) CreateMarket(ctx context.Context, collateralDenom string, baseDecimals, collateralDecimals uint32) (*types.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	market, err := s.lending.CreateMarket(s.now(), s.authority, lendingtypes.MsgCreateMarket{
		Authority:          s.authority,
		BaseDenom:          serviceBaseDenom,
		CollateralDenom:    collateralDenom,
		BaseDecimals:       baseDecimals,
		CollateralDecimals: collateralDecimals,
	})
	if err != nil {
		return nil, err
	}
	return s.toMarket(s.ctx, market), nil
}

// PostPrice posts a collateral price through the real keeper
func (s *KeeperService) PostPrice(ctx context.Context, marketID string, priceRay math.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lending.PostPrice(s.now(), s.authority, marketID, priceRay)
}

// ============ PoolService ============

func (s *KeeperService) GetPool(ctx context.Context) (*types.PoolSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poolSummary(s.ctx), nil
}

func (s *KeeperService) GetSupplier(ctx context.Context, address string) (*types.SupplierBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shares := s.lending.GetShareBalance(s.ctx, address)
	return &types.SupplierBalance{
		Supplier: address,
		Shares:   shares.String(),
		// Shares redeem one-to-one with the base asset
		ShareValue:  shares.String(),
		TotalShares: s.lending.GetTotalShares(s.ctx).String(),
	}, nil
}

func (s *KeeperService) Supply(ctx context.Context, req *types.SupplyRequest) (*types.OperationResponse, error) {
	amount, err := parseInt(req.Amount)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.lending.Supply(s.now(), req.Supplier, amount)
	if err != nil {
		return nil, err
	}

	return &types.OperationResponse{
		Pool:     s.poolSummary(s.ctx),
		Supplier: req.Supplier,
		Shares:   result.SharesToMint.String(),
	}, nil
}

func (s *KeeperService) Withdraw(ctx context.Context, req *types.WithdrawRequest) (*types.OperationResponse, error) {
	shares, err := parseInt(req.Shares)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.lending.Withdraw(s.now(), req.Supplier, shares)
	if err != nil {
		return nil, err
	}

	return &types.OperationResponse{
		Pool:     s.poolSummary(s.ctx),
		Supplier: req.Supplier,
		Shares:   result.SharesToBurn.String(),
	}, nil
}

// ============ MarketService ============

func (s *KeeperService) ListMarkets(ctx context.Context) ([]*types.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := s.lending.GetAllMarkets(s.ctx)
	markets := make([]*types.Market, 0, len(states))
	for _, state := range states {
		markets = append(markets, s.toMarket(s.ctx, state))
	}
	return markets, nil
}

func (s *KeeperService) GetMarket(ctx context.Context, marketID string) (*types.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.lending.GetMarket(s.ctx, marketID)
	if err != nil {
		return nil, err
	}
	return s.toMarket(s.ctx, state), nil
}

func (s *KeeperService) Borrow(ctx context.Context, req *types.BorrowRequest) (*types.OperationResponse, error) {
	collateral, err := parseInt(req.Collateral)
	if err != nil {
		return nil, err
	}
	amount, err := parseInt(req.Amount)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.lending.Borrow(s.now(), req.Borrower, req.MarketID, collateral, amount)
	if err != nil {
		return nil, err
	}

	return &types.OperationResponse{
		Pool:     s.poolSummary(s.ctx),
		Market:   s.toMarket(s.ctx, result.Market),
		Position: s.toPosition(s.ctx, result.Market, result.Position),
	}, nil
}

func (s *KeeperService) Repay(ctx context.Context, req *types.RepayRequest) (*types.OperationResponse, error) {
	amount, err := parseInt(req.Amount)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.lending.Repay(s.now(), req.Borrower, req.MarketID, amount)
	if err != nil {
		return nil, err
	}

	return &types.OperationResponse{
		Pool:     s.poolSummary(s.ctx),
		Market:   s.toMarket(s.ctx, result.Market),
		Position: s.toPosition(s.ctx, result.Market, result.Position),
	}, nil
}

// ============ PositionService ============

func (s *KeeperService) GetPositions(ctx context.Context, marketID string) ([]*types.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	market, err := s.lending.GetMarket(s.ctx, marketID)
	if err != nil {
		return nil, err
	}

	states := s.lending.GetMarketPositions(s.ctx, marketID)
	positions := make([]*types.Position, 0, len(states))
	for _, state := range states {
		positions = append(positions, s.toPosition(s.ctx, market, state))
	}
	return positions, nil
}

func (s *KeeperService) GetPosition(ctx context.Context, marketID, borrower string) (*types.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	market, err := s.lending.GetMarket(s.ctx, marketID)
	if err != nil {
		return nil, err
	}
	position := s.lending.GetPosition(s.ctx, marketID, borrower)
	return s.toPosition(s.ctx, market, position), nil
}

func (s *KeeperService) GetDebtBreakdown(ctx context.Context, marketID, borrower string) (*types.DebtBreakdown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	market, err := s.lending.GetMarket(s.ctx, marketID)
	if err != nil {
		return nil, err
	}
	position := s.lending.GetPosition(s.ctx, marketID, borrower)
	pool := s.lending.GetPool(s.ctx)

	protocolDebt, err := s.lending.ProtocolTotalDebt(s.ctx)
	if err != nil {
		return nil, err
	}
	marketShare, err := lendingtypes.MarketDebtShare(protocolDebt, market.TotalBorrowed, pool.TotalBorrowedAcrossMarkets)
	if err != nil {
		return nil, err
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
		return nil, err
	}

	return &types.DebtBreakdown{
		MarketID:          marketID,
		Borrower:          borrower,
		ProtocolTotalDebt: protocolDebt.String(),
		MarketDebtShare:   marketShare.String(),
		UserDebt:          breakdown.Total.String(),
		AccruedInterest:   breakdown.Spread.String(),
	}, nil
}

// ============ ClearingService ============

func (s *KeeperService) GetResolution(ctx context.Context, marketID string) (*types.Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolution := s.clearing.GetResolution(s.ctx, marketID)
	return &types.Resolution{
		MarketID:             marketID,
		Resolved:             resolution.Resolved,
		TotalRedeemed:        resolution.TotalCollateralRedeemed.String(),
		AmountRepaidToLender: resolution.AmountRepaidToLender.String(),
		LPPool:               resolution.LPPool.String(),
		BorrowerPool:         resolution.BorrowerPool.String(),
		ProtocolPool:         resolution.ProtocolPool.String(),
		ResolvedAt:           resolution.ResolvedAt,
	}, nil
}

func (s *KeeperService) ListLiquidations(ctx context.Context, limit int) ([]*types.Liquidation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.clearing.GetAllLiquidationRecords(s.ctx, limit)
	liquidations := make([]*types.Liquidation, 0, len(records))
	for _, record := range records {
		liquidations = append(liquidations, &types.Liquidation{
			LiquidationID:    record.LiquidationID,
			MarketID:         record.MarketID,
			Borrower:         record.Borrower,
			Liquidator:       record.Liquidator,
			RepayAmount:      record.RepayAmount.String(),
			CollateralSeized: record.CollateralSeized.String(),
			HealthFactor:     record.HealthFactor.String(),
			Timestamp:        record.Timestamp,
		})
	}
	return liquidations, nil
}

// ============ Conversions ============

func (s *KeeperService) poolSummary(ctx sdk.Context) *types.PoolSummary {
	pool := s.lending.GetPool(ctx)

	utilization := math.ZeroInt()
	if u, err := lendingtypes.Utilization(pool.TotalBorrowedAcrossMarkets, pool.TotalSupplied); err == nil {
		utilization = u
	}

	return &types.PoolSummary{
		TotalSupplied:     pool.TotalSupplied.String(),
		TotalBorrowed:     pool.TotalBorrowedAcrossMarkets.String(),
		AccumulatedSpread: pool.TotalAccumulatedSpread.String(),
		TotalShares:       s.lending.GetTotalShares(ctx).String(),
		Utilization:       formatRay(utilization),
		UpdatedAt:         types.NowMillis(),
	}
}

func (s *KeeperService) toMarket(ctx sdk.Context, state lendingtypes.MarketState) *types.Market {
	pool := s.lending.GetPool(ctx)
	params := s.lending.GetRiskParameters(ctx)

	utilization := math.ZeroInt()
	spreadRate := math.ZeroInt()
	if u, err := lendingtypes.Utilization(pool.TotalBorrowedAcrossMarkets, pool.TotalSupplied); err == nil {
		utilization = u
		if r, err := lendingtypes.SpreadRate(u, params); err == nil {
			spreadRate = r
		}
	}

	price := math.ZeroInt()
	if p, err := s.lending.GetPrice(ctx, state.MarketID); err == nil {
		price = p
	}

	resolution := s.clearing.GetResolution(ctx, state.MarketID)

	return &types.Market{
		MarketID:        state.MarketID,
		BaseDenom:       state.BaseDenom,
		CollateralDenom: state.CollateralDenom,
		TotalBorrowed:   state.TotalBorrowed.String(),
		TotalCollateral: state.TotalCollateral.String(),
		BorrowIndex:     formatRay(state.BorrowIndex),
		SpreadRate:      formatRay(spreadRate),
		Utilization:     formatRay(utilization),
		CollateralPrice: formatRay(price),
		Resolved:        resolution.Resolved,
		UpdatedAt:       types.NowMillis(),
	}
}

func (s *KeeperService) toPosition(ctx sdk.Context, market lendingtypes.MarketState, position lendingtypes.UserPosition) *types.Position {
	pool := s.lending.GetPool(ctx)
	params := s.lending.GetRiskParameters(ctx)

	currentDebt := math.ZeroInt()
	healthFactor := math.ZeroInt()

	if !position.BorrowAmount.IsZero() {
		protocolDebt, err := s.lending.ProtocolTotalDebt(ctx)
		if err == nil {
			breakdown, err := lendingtypes.AllocateUserDebt(
				protocolDebt,
				pool.TotalBorrowedAcrossMarkets,
				market.TotalBorrowed,
				position.BorrowAmount,
				position.ScaledDebtBalance,
				market.BorrowIndex,
			)
			if err == nil {
				currentDebt = breakdown.Total
			}
		}

		if price, err := s.lending.GetPrice(ctx, market.MarketID); err == nil && !currentDebt.IsZero() {
			collateralValue, err := market.CollateralValueBase(position.CollateralAmount, price)
			if err == nil {
				if hf, err := clearingtypes.HealthFactor(collateralValue, currentDebt, params.LiquidationThreshold); err == nil {
					healthFactor = hf
				}
			}
		}
	}

	return &types.Position{
		MarketID:     position.MarketID,
		Borrower:     position.Borrower,
		Collateral:   position.CollateralAmount.String(),
		BorrowAmount: position.BorrowAmount.String(),
		ScaledDebt:   position.ScaledDebtBalance.String(),
		CurrentDebt:  currentDebt.String(),
		HealthFactor: formatRay(healthFactor),
		UpdatedAt:    types.NowMillis(),
	}
}

// parseInt parses a decimal integer amount
func parseInt(s string) (math.Int, error) {
	if s == "" {
		return math.ZeroInt(), fmt.Errorf("amount is required")
	}
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.ZeroInt(), fmt.Errorf("invalid amount: %s", s)
	}
	return v, nil
}

// formatRay renders a ray-scaled value as a decimal string
func formatRay(r math.Int) string {
	// drop ray precision to wad so LegacyDec can carry it
	wad := r.Quo(lendingtypes.Ray.Quo(lendingtypes.Wad))
	return math.LegacyNewDecFromBigIntWithPrec(wad.BigInt(), 18).String()
}
