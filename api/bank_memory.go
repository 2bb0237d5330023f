package api

import (
	"context"
	"fmt"
	"sync"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MemoryBankKeeper implements a real in-memory bank keeper for standalone mode.
// Tracks actual balances and enforces real transfers.
type MemoryBankKeeper struct {
	balances map[string]map[string]math.Int // address -> denom -> amount
	modules  map[string]map[string]math.Int // module -> denom -> amount
	mu       sync.RWMutex
}

func NewMemoryBankKeeper() *MemoryBankKeeper {
	return &MemoryBankKeeper{
		balances: make(map[string]map[string]math.Int),
		modules:  make(map[string]map[string]math.Int),
	}
}

// InitializeAccount sets initial balance for an account
func (b *MemoryBankKeeper) InitializeAccount(addr string, denom string, amount math.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[addr] == nil {
		b.balances[addr] = make(map[string]math.Int)
	}
	b.balances[addr][denom] = amount
}

// GetBalance returns the balance for an address and denom
func (b *MemoryBankKeeper) GetBalance(addr string, denom string) math.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.balances[addr] == nil {
		return math.ZeroInt()
	}
	bal, ok := b.balances[addr][denom]
	if !ok {
		return math.ZeroInt()
	}
	return bal
}

// GetModuleBalance returns a module account's balance for a denom
func (b *MemoryBankKeeper) GetModuleBalance(module string, denom string) math.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.modules[module] == nil {
		return math.ZeroInt()
	}
	bal, ok := b.modules[module][denom]
	if !ok {
		return math.ZeroInt()
	}
	return bal
}

func (b *MemoryBankKeeper) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sender := senderAddr.String()
	if b.balances[sender] == nil {
		return fmt.Errorf("account %s not found", sender)
	}

	for _, coin := range amt {
		currentBal, ok := b.balances[sender][coin.Denom]
		if !ok {
			currentBal = math.ZeroInt()
		}
		if currentBal.LT(coin.Amount) {
			return fmt.Errorf("insufficient balance: have %s, need %s %s", currentBal.String(), coin.Amount.String(), coin.Denom)
		}
		b.balances[sender][coin.Denom] = currentBal.Sub(coin.Amount)

		if b.modules[recipientModule] == nil {
			b.modules[recipientModule] = make(map[string]math.Int)
		}
		moduleBal, ok := b.modules[recipientModule][coin.Denom]
		if !ok {
			moduleBal = math.ZeroInt()
		}
		b.modules[recipientModule][coin.Denom] = moduleBal.Add(coin.Amount)
	}
	return nil
}

func (b *MemoryBankKeeper) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	recipient := recipientAddr.String()
	if b.modules[senderModule] == nil {
		return fmt.Errorf("module %s not found", senderModule)
	}

	for _, coin := range amt {
		moduleBal, ok := b.modules[senderModule][coin.Denom]
		if !ok {
			moduleBal = math.ZeroInt()
		}
		if moduleBal.LT(coin.Amount) {
			return fmt.Errorf("insufficient module balance")
		}
		b.modules[senderModule][coin.Denom] = moduleBal.Sub(coin.Amount)

		if b.balances[recipient] == nil {
			b.balances[recipient] = make(map[string]math.Int)
		}
		bal, ok := b.balances[recipient][coin.Denom]
		if !ok {
			bal = math.ZeroInt()
		}
		b.balances[recipient][coin.Denom] = bal.Add(coin.Amount)
	}
	return nil
}

func (b *MemoryBankKeeper) SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.modules[senderModule] == nil {
		return fmt.Errorf("module %s not found", senderModule)
	}

	for _, coin := range amt {
		senderBal, ok := b.modules[senderModule][coin.Denom]
		if !ok {
			senderBal = math.ZeroInt()
		}
		if senderBal.LT(coin.Amount) {
			return fmt.Errorf("insufficient module balance")
		}
		b.modules[senderModule][coin.Denom] = senderBal.Sub(coin.Amount)

		if b.modules[recipientModule] == nil {
			b.modules[recipientModule] = make(map[string]math.Int)
		}
		recipientBal, ok := b.modules[recipientModule][coin.Denom]
		if !ok {
			recipientBal = math.ZeroInt()
		}
		b.modules[recipientModule][coin.Denom] = recipientBal.Add(coin.Amount)
	}
	return nil
}
