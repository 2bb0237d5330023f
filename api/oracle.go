package api

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"sync"
	"time"

	"cosmossdk.io/math"
	lendingtypes "github.com/openalpha/creditpool/x/lending/types"
)

// PriceFeed fetches collateral prices from an upstream JSON endpoint. The
// endpoint returns a flat symbol-to-price object, e.g. {"tbond": "0.97"}.
// Prices are cached for a second to keep the poller cheap.
type PriceFeed struct {
	apiURL     string
	httpClient *http.Client
	cache      map[string]*priceCacheEntry
	mu         sync.RWMutex
}

type priceCacheEntry struct {
	priceRay  math.Int
	timestamp time.Time
}

// NewPriceFeed creates a price feed. An empty URL disables it.
func NewPriceFeed(apiURL string) *PriceFeed {
	return &PriceFeed{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		cache: make(map[string]*priceCacheEntry),
	}
}

// Enabled reports whether an upstream URL is configured
func (f *PriceFeed) Enabled() bool {
	return f.apiURL != ""
}

// GetPriceRay fetches the current price for a collateral symbol, ray scaled
func (f *PriceFeed) GetPriceRay(symbol string) (math.Int, error) {
	f.mu.RLock()
	cached, exists := f.cache[symbol]
	f.mu.RUnlock()

	if exists && time.Since(cached.timestamp) < time.Second {
		return cached.priceRay, nil
	}

	resp, err := f.httpClient.Get(f.apiURL)
	if err != nil {
		// Serve stale on upstream failure
		if exists {
			return cached.priceRay, nil
		}
		return math.ZeroInt(), err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if exists {
			return cached.priceRay, nil
		}
		return math.ZeroInt(), err
	}

	var prices map[string]string
	if err := json.Unmarshal(body, &prices); err != nil {
		if exists {
			return cached.priceRay, nil
		}
		return math.ZeroInt(), err
	}

	raw, ok := prices[symbol]
	if !ok {
		if exists {
			return cached.priceRay, nil
		}
		return math.ZeroInt(), fmt.Errorf("price not found for %s", symbol)
	}

	priceRay, err := decStringToRay(raw)
	if err != nil {
		return math.ZeroInt(), fmt.Errorf("bad price %q for %s: %w", raw, symbol, err)
	}

	f.mu.Lock()
	f.cache[symbol] = &priceCacheEntry{priceRay: priceRay, timestamp: time.Now()}
	f.mu.Unlock()

	return priceRay, nil
}

// decStringToRay converts a decimal price string to ray scale
func decStringToRay(s string) (math.Int, error) {
	dec, err := math.LegacyNewDecFromStr(s)
	if err != nil {
		return math.ZeroInt(), err
	}
	// LegacyDec carries 18 decimals; scale the remaining 9 up to ray
	scale := lendingtypes.Ray.Quo(lendingtypes.Wad)
	return dec.MulInt(scale).TruncateInt(), nil
}

// rayToFloat renders a ray-scaled value as a float for metrics
func rayToFloat(r math.Int) float64 {
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(r.BigInt()),
		new(big.Float).SetInt(lendingtypes.Ray.BigInt()),
	).Float64()
	return f
}

// parseFloat parses a decimal string to float64 for metrics
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
