package keeper

import (
	"context"
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/creditpool/x/clearing/types"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

// Store key prefixes
var (
	LiquidationKeyPrefix        = []byte{0x01}
	ResolutionKeyPrefix         = []byte{0x02}
	LPClaimKeyPrefix            = []byte{0x03}
	BorrowerClaimKeyPrefix      = []byte{0x04}
	ShareSnapshotKeyPrefix      = []byte{0x05}
	CollateralSnapshotKeyPrefix = []byte{0x06}
)

// LendingKeeper defines the expected interface for the lending module
type LendingKeeper interface {
	GetPool(ctx sdk.Context) lendingtypes.PoolState
	SetPool(ctx sdk.Context, pool lendingtypes.PoolState)
	GetMarket(ctx sdk.Context, marketID string) (lendingtypes.MarketState, error)
	SetMarket(ctx sdk.Context, market lendingtypes.MarketState)
	AccrueMarket(ctx sdk.Context, market lendingtypes.MarketState) (lendingtypes.MarketState, error)
	GetPosition(ctx sdk.Context, marketID, borrower string) lendingtypes.UserPosition
	SetPosition(ctx sdk.Context, position lendingtypes.UserPosition)
	GetMarketPositions(ctx sdk.Context, marketID string) []lendingtypes.UserPosition
	GetRiskParameters(ctx sdk.Context) lendingtypes.RiskParameters
	GetPrice(ctx sdk.Context, marketID string) (math.Int, error)
	GetShareBalance(ctx sdk.Context, supplier string) math.Int
	GetAllShareBalances(ctx sdk.Context) map[string]math.Int
	GetTotalShares(ctx sdk.Context) math.Int
	ProtocolTotalDebt(ctx sdk.Context) (math.Int, error)
	BaseDenom() string
}

// LenderKeeper defines the expected interface for the external lender
type LenderKeeper interface {
	RepayDraw(ctx sdk.Context, amount math.Int) error
}

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
	SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error
}

// Keeper manages the clearing module state
type Keeper struct {
	cdc           codec.BinaryCodec
	storeKey      storetypes.StoreKey
	lendingKeeper LendingKeeper
	lenderKeeper  LenderKeeper
	bankKeeper    BankKeeper
	logger        log.Logger
	authority     string
}

// NewKeeper creates a new clearing keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	lendingKeeper LendingKeeper,
	lenderKeeper LenderKeeper,
	bankKeeper BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:           cdc,
		storeKey:      storeKey,
		lendingKeeper: lendingKeeper,
		lenderKeeper:  lenderKeeper,
		bankKeeper:    bankKeeper,
		authority:     authority,
		logger:        logger.With("module", "x/clearing"),
	}
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

// ============ Liquidation Record Operations ============

// SetLiquidationRecord saves a liquidation record to the store
func (k *Keeper) SetLiquidationRecord(ctx sdk.Context, record types.LiquidationRecord) {
	store := k.GetStore(ctx)
	key := append(LiquidationKeyPrefix, []byte(record.LiquidationID)...)
	bz, _ := json.Marshal(record)
	store.Set(key, bz)
}

// GetLiquidationRecord retrieves a liquidation record from the store
func (k *Keeper) GetLiquidationRecord(ctx sdk.Context, liquidationID string) (types.LiquidationRecord, bool) {
	store := k.GetStore(ctx)
	key := append(LiquidationKeyPrefix, []byte(liquidationID)...)
	bz := store.Get(key)
	if bz == nil {
		return types.LiquidationRecord{}, false
	}
	var record types.LiquidationRecord
	if err := json.Unmarshal(bz, &record); err != nil {
		return types.LiquidationRecord{}, false
	}
	return record, true
}

// GetAllLiquidationRecords returns the most recent liquidation records,
// newest first, up to limit
func (k *Keeper) GetAllLiquidationRecords(ctx sdk.Context, limit int) []types.LiquidationRecord {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStoreReversePrefixIterator(store, LiquidationKeyPrefix)
	defer iterator.Close()

	var records []types.LiquidationRecord
	for ; iterator.Valid() && len(records) < limit; iterator.Next() {
		var record types.LiquidationRecord
		if err := json.Unmarshal(iterator.Value(), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records
}

// ============ Resolution Operations ============

func resolutionKey(marketID string) []byte {
	return append(ResolutionKeyPrefix, []byte(marketID)...)
}

// SetResolution saves a resolution record. Keyed by market ID: claims read
// it back under the same key.
func (k *Keeper) SetResolution(ctx sdk.Context, resolution types.ResolutionState) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(resolution)
	store.Set(resolutionKey(resolution.MarketID), bz)
}

// GetResolution retrieves a resolution record, unresolved default if absent
func (k *Keeper) GetResolution(ctx sdk.Context, marketID string) types.ResolutionState {
	store := k.GetStore(ctx)
	bz := store.Get(resolutionKey(marketID))
	if bz == nil {
		return types.NewResolutionState(marketID)
	}
	var resolution types.ResolutionState
	if err := json.Unmarshal(bz, &resolution); err != nil {
		return types.NewResolutionState(marketID)
	}
	return resolution
}

// ============ Claim Marker Operations ============

func lpClaimKey(marketID, supplier string) []byte {
	return append(LPClaimKeyPrefix, []byte(marketID+":"+supplier)...)
}

func borrowerClaimKey(marketID, borrower string) []byte {
	return append(BorrowerClaimKeyPrefix, []byte(marketID+":"+borrower)...)
}

// HasLPClaimed reports whether a supplier already claimed for a market
func (k *Keeper) HasLPClaimed(ctx sdk.Context, marketID, supplier string) bool {
	return k.GetStore(ctx).Has(lpClaimKey(marketID, supplier))
}

// MarkLPClaimed records a supplier's claim for a market
func (k *Keeper) MarkLPClaimed(ctx sdk.Context, marketID, supplier string, amount math.Int) {
	k.GetStore(ctx).Set(lpClaimKey(marketID, supplier), []byte(amount.String()))
}

// HasBorrowerClaimed reports whether a borrower already claimed for a market
func (k *Keeper) HasBorrowerClaimed(ctx sdk.Context, marketID, borrower string) bool {
	return k.GetStore(ctx).Has(borrowerClaimKey(marketID, borrower))
}

// MarkBorrowerClaimed records a borrower's claim for a market
func (k *Keeper) MarkBorrowerClaimed(ctx sdk.Context, marketID, borrower string, amount math.Int) {
	k.GetStore(ctx).Set(borrowerClaimKey(marketID, borrower), []byte(amount.String()))
}

// ============ Resolution Snapshot Operations ============
//
// Claims pay out against balances frozen at resolution time, so the resolve
// path writes per-account snapshots before the live ledgers are zeroed.

func shareSnapshotKey(marketID, supplier string) []byte {
	return append(ShareSnapshotKeyPrefix, []byte(marketID+":"+supplier)...)
}

func collateralSnapshotKey(marketID, borrower string) []byte {
	return append(CollateralSnapshotKeyPrefix, []byte(marketID+":"+borrower)...)
}

func (k *Keeper) SetShareSnapshot(ctx sdk.Context, marketID, supplier string, shares math.Int) {
	k.GetStore(ctx).Set(shareSnapshotKey(marketID, supplier), []byte(shares.String()))
}

func (k *Keeper) GetShareSnapshot(ctx sdk.Context, marketID, supplier string) math.Int {
	bz := k.GetStore(ctx).Get(shareSnapshotKey(marketID, supplier))
	if bz == nil {
		return math.ZeroInt()
	}
	shares, ok := math.NewIntFromString(string(bz))
	if !ok {
		return math.ZeroInt()
	}
	return shares
}

func (k *Keeper) SetCollateralSnapshot(ctx sdk.Context, marketID, borrower string, collateral math.Int) {
	k.GetStore(ctx).Set(collateralSnapshotKey(marketID, borrower), []byte(collateral.String()))
}

func (k *Keeper) GetCollateralSnapshot(ctx sdk.Context, marketID, borrower string) math.Int {
	bz := k.GetStore(ctx).Get(collateralSnapshotKey(marketID, borrower))
	if bz == nil {
		return math.ZeroInt()
	}
	collateral, ok := math.NewIntFromString(string(bz))
	if !ok {
		return math.ZeroInt()
	}
	return collateral
}
