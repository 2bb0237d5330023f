package keeper

import (
	"context"
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/lending/types"
)

// Store key prefixes
var (
	PoolKeyPrefix         = []byte{0x01}
	MarketKeyPrefix       = []byte{0x02}
	PositionKeyPrefix     = []byte{0x03}
	RiskParamsKeyPrefix   = []byte{0x04}
	ShareBalanceKeyPrefix = []byte{0x05}
	PriceKeyPrefix        = []byte{0x06}
	RateSnapshotKeyPrefix = []byte{0x07}
	TotalSharesKey        = []byte{0x08}
)

// LenderKeeper defines the expected interface for the external lender the
// pool forwards idle liquidity to. TotalDebt is the lender's aggregate
// principal-plus-interest figure across every draw made by this pool.
type LenderKeeper interface {
	TotalDebt(ctx sdk.Context) (math.Int, error)
	ForwardLiquidity(ctx sdk.Context, amount math.Int) error
	ReclaimLiquidity(ctx sdk.Context, amount math.Int) error
	DrawLiquidity(ctx sdk.Context, amount math.Int) error
	RepayDraw(ctx sdk.Context, amount math.Int) error
}

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// Keeper manages the lending module state
type Keeper struct {
	cdc          codec.BinaryCodec
	storeKey     storetypes.StoreKey
	lenderKeeper LenderKeeper
	bankKeeper   BankKeeper
	logger       log.Logger
	authority    string
	oraclePoster string
	baseDenom    string
}

// NewKeeper creates a new lending keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	lenderKeeper LenderKeeper,
	bankKeeper BankKeeper,
	authority string,
	oraclePoster string,
	baseDenom string,
	logger log.Logger,
) *Keeper {
	k := &Keeper{
		cdc:          cdc,
		storeKey:     storeKey,
		lenderKeeper: lenderKeeper,
		bankKeeper:   bankKeeper,
		authority:    authority,
		oraclePoster: oraclePoster,
		baseDenom:    baseDenom,
		logger:       logger.With("module", "x/lending"),
	}
	return k
}

// BaseDenom returns the pool's base asset denom
func (k *Keeper) BaseDenom() string {
	return k.baseDenom
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the governance authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ Pool Operations ============

// SetPool saves the pool ledger to the store
func (k *Keeper) SetPool(ctx sdk.Context, pool types.PoolState) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(pool)
	store.Set(PoolKeyPrefix, bz)
}

// GetPool retrieves the pool ledger, zero-valued if never written
func (k *Keeper) GetPool(ctx sdk.Context) types.PoolState {
	store := k.GetStore(ctx)
	bz := store.Get(PoolKeyPrefix)
	if bz == nil {
		return types.NewPoolState()
	}
	var pool types.PoolState
	if err := json.Unmarshal(bz, &pool); err != nil {
		return types.NewPoolState()
	}
	return pool
}

// ============ Market Operations ============

func marketKey(marketID string) []byte {
	return append(MarketKeyPrefix, []byte(marketID)...)
}

// SetMarket saves a market ledger to the store
func (k *Keeper) SetMarket(ctx sdk.Context, market types.MarketState) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(market)
	store.Set(marketKey(market.MarketID), bz)
}

// GetMarket retrieves a market ledger from the store
func (k *Keeper) GetMarket(ctx sdk.Context, marketID string) (types.MarketState, error) {
	store := k.GetStore(ctx)
	bz := store.Get(marketKey(marketID))
	if bz == nil {
		return types.MarketState{}, types.ErrMarketNotFound
	}
	var market types.MarketState
	if err := json.Unmarshal(bz, &market); err != nil {
		return types.MarketState{}, types.ErrMarketNotFound
	}
	return market, nil
}

// HasMarket reports whether a market exists
func (k *Keeper) HasMarket(ctx sdk.Context, marketID string) bool {
	return k.GetStore(ctx).Has(marketKey(marketID))
}

// GetAllMarkets returns all markets
func (k *Keeper) GetAllMarkets(ctx sdk.Context) []types.MarketState {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, MarketKeyPrefix)
	defer iterator.Close()

	var markets []types.MarketState
	for ; iterator.Valid(); iterator.Next() {
		var market types.MarketState
		if err := json.Unmarshal(iterator.Value(), &market); err != nil {
			continue
		}
		markets = append(markets, market)
	}
	return markets
}

// ============ Position Operations ============

func positionKey(marketID, borrower string) []byte {
	return append(PositionKeyPrefix, []byte(marketID+":"+borrower)...)
}

// SetPosition saves a borrower position to the store
func (k *Keeper) SetPosition(ctx sdk.Context, position types.UserPosition) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(position)
	store.Set(positionKey(position.MarketID, position.Borrower), bz)
}

// GetPosition retrieves a borrower position, empty if never written
func (k *Keeper) GetPosition(ctx sdk.Context, marketID, borrower string) types.UserPosition {
	store := k.GetStore(ctx)
	bz := store.Get(positionKey(marketID, borrower))
	if bz == nil {
		return types.NewUserPosition(marketID, borrower)
	}
	var position types.UserPosition
	if err := json.Unmarshal(bz, &position); err != nil {
		return types.NewUserPosition(marketID, borrower)
	}
	return position
}

// GetMarketPositions returns every position in a market
func (k *Keeper) GetMarketPositions(ctx sdk.Context, marketID string) []types.UserPosition {
	store := k.GetStore(ctx)
	prefix := append(PositionKeyPrefix, []byte(marketID+":")...)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var positions []types.UserPosition
	for ; iterator.Valid(); iterator.Next() {
		var position types.UserPosition
		if err := json.Unmarshal(iterator.Value(), &position); err != nil {
			continue
		}
		positions = append(positions, position)
	}
	return positions
}

// ============ Risk Parameter Operations ============

// SetRiskParameters saves the risk parameter set
func (k *Keeper) SetRiskParameters(ctx sdk.Context, params types.RiskParameters) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(params)
	store.Set(RiskParamsKeyPrefix, bz)
}

// GetRiskParameters retrieves the risk parameter set, defaults if unset
func (k *Keeper) GetRiskParameters(ctx sdk.Context) types.RiskParameters {
	store := k.GetStore(ctx)
	bz := store.Get(RiskParamsKeyPrefix)
	if bz == nil {
		return types.DefaultRiskParameters()
	}
	var params types.RiskParameters
	if err := json.Unmarshal(bz, &params); err != nil {
		return types.DefaultRiskParameters()
	}
	return params
}

// ============ Share Ledger Operations ============

func shareBalanceKey(supplier string) []byte {
	return append(ShareBalanceKeyPrefix, []byte(supplier)...)
}

// SetShareBalance writes a supplier's share balance
func (k *Keeper) SetShareBalance(ctx sdk.Context, supplier string, shares math.Int) {
	store := k.GetStore(ctx)
	store.Set(shareBalanceKey(supplier), []byte(shares.String()))
}

// GetShareBalance reads a supplier's share balance
func (k *Keeper) GetShareBalance(ctx sdk.Context, supplier string) math.Int {
	store := k.GetStore(ctx)
	bz := store.Get(shareBalanceKey(supplier))
	if bz == nil {
		return math.ZeroInt()
	}
	shares, ok := math.NewIntFromString(string(bz))
	if !ok {
		return math.ZeroInt()
	}
	return shares
}

// SetTotalShares writes the total outstanding supplier shares
func (k *Keeper) SetTotalShares(ctx sdk.Context, total math.Int) {
	store := k.GetStore(ctx)
	store.Set(TotalSharesKey, []byte(total.String()))
}

// GetTotalShares reads the total outstanding supplier shares
func (k *Keeper) GetTotalShares(ctx sdk.Context) math.Int {
	store := k.GetStore(ctx)
	bz := store.Get(TotalSharesKey)
	if bz == nil {
		return math.ZeroInt()
	}
	total, ok := math.NewIntFromString(string(bz))
	if !ok {
		return math.ZeroInt()
	}
	return total
}

// GetAllShareBalances returns every supplier's share balance
func (k *Keeper) GetAllShareBalances(ctx sdk.Context) map[string]math.Int {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, ShareBalanceKeyPrefix)
	defer iterator.Close()

	balances := make(map[string]math.Int)
	for ; iterator.Valid(); iterator.Next() {
		supplier := string(iterator.Key()[len(ShareBalanceKeyPrefix):])
		shares, ok := math.NewIntFromString(string(iterator.Value()))
		if !ok {
			continue
		}
		balances[supplier] = shares
	}
	return balances
}

// ============ Price Operations ============

func priceKey(marketID string) []byte {
	return append(PriceKeyPrefix, []byte(marketID)...)
}

// SetPrice writes the ray-precision collateral price for a market
func (k *Keeper) SetPrice(ctx sdk.Context, marketID string, priceRay math.Int) {
	store := k.GetStore(ctx)
	store.Set(priceKey(marketID), []byte(priceRay.String()))
}

// GetPrice reads the ray-precision collateral price for a market
func (k *Keeper) GetPrice(ctx sdk.Context, marketID string) (math.Int, error) {
	store := k.GetStore(ctx)
	bz := store.Get(priceKey(marketID))
	if bz == nil {
		return math.Int{}, types.ErrPriceUnavailable
	}
	price, ok := math.NewIntFromString(string(bz))
	if !ok || !price.IsPositive() {
		return math.Int{}, types.ErrPriceUnavailable
	}
	return price, nil
}

// ============ Rate Snapshot Operations ============

func rateSnapshotKey(marketID string, timestamp int64) []byte {
	return append(RateSnapshotKeyPrefix, []byte(fmt.Sprintf("%s:%020d", marketID, timestamp))...)
}

// AddRateSnapshot records the market's rate state at accrual time
func (k *Keeper) AddRateSnapshot(ctx sdk.Context, snapshot types.RateSnapshot) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(snapshot)
	store.Set(rateSnapshotKey(snapshot.MarketID, snapshot.Timestamp), bz)
}

// GetRateSnapshots retrieves rate history for a market within [fromTime, toTime]
func (k *Keeper) GetRateSnapshots(ctx sdk.Context, marketID string, fromTime, toTime int64) []types.RateSnapshot {
	store := k.GetStore(ctx)
	prefix := append(RateSnapshotKeyPrefix, []byte(marketID+":")...)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var snapshots []types.RateSnapshot
	for ; iterator.Valid(); iterator.Next() {
		var snapshot types.RateSnapshot
		if err := json.Unmarshal(iterator.Value(), &snapshot); err != nil {
			continue
		}
		if (fromTime == 0 || snapshot.Timestamp >= fromTime) && (toTime == 0 || snapshot.Timestamp <= toTime) {
			snapshots = append(snapshots, snapshot)
		}
	}
	return snapshots
}

// ============ External Lender ============

// ProtocolTotalDebt reads the external lender's aggregate debt figure. It is
// re-read on every operation that allocates debt, never cached.
func (k *Keeper) ProtocolTotalDebt(ctx sdk.Context) (math.Int, error) {
	return k.lenderKeeper.TotalDebt(ctx)
}
