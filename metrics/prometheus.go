package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CreditPool Metrics Collector
// Provides comprehensive metrics for monitoring

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all CreditPool metrics
type Collector struct {
	// Pool metrics
	PoolSupplied    prometheus.Gauge
	PoolBorrowed    prometheus.Gauge
	PoolSpread      prometheus.Gauge
	PoolUtilization prometheus.Gauge
	TotalShares     prometheus.Gauge

	// Market metrics
	BorrowIndex      *prometheus.GaugeVec
	SpreadRate       *prometheus.GaugeVec
	MarketBorrowed   *prometheus.GaugeVec
	MarketCollateral *prometheus.GaugeVec

	// Operation metrics
	SuppliesTotal  *prometheus.CounterVec
	WithdrawsTotal *prometheus.CounterVec
	BorrowsTotal   *prometheus.CounterVec
	RepaysTotal    *prometheus.CounterVec
	BorrowVolume   *prometheus.CounterVec
	RepayVolume    *prometheus.CounterVec

	// Liquidation metrics
	LiquidationsTotal *prometheus.CounterVec
	LiquidationValue  *prometheus.CounterVec
	CollateralSeized  *prometheus.CounterVec

	// Resolution metrics
	ResolutionsTotal *prometheus.CounterVec
	RedeemedValue    *prometheus.CounterVec
	ClaimsTotal      *prometheus.CounterVec
	ClaimValue       *prometheus.CounterVec

	// Oracle metrics
	OraclePrice   *prometheus.GaugeVec
	OracleUpdates *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec
	WSSubscriptions     *prometheus.GaugeVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	APIErrorsTotal    *prometheus.CounterVec
	RateLimitHits     *prometheus.CounterVec

	// System metrics
	BlockHeight prometheus.Gauge
	BlockTime   *prometheus.HistogramVec
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	// Pool metrics
	c.PoolSupplied = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "pool",
			Name:      "supplied",
			Help:      "Total base asset supplied to the pool",
		},
	)

	c.PoolBorrowed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "pool",
			Name:      "borrowed",
			Help:      "Total base asset borrowed across all markets",
		},
	)

	c.PoolSpread = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "pool",
			Name:      "accumulated_spread",
			Help:      "Total spread retained by the pool",
		},
	)

	c.PoolUtilization = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "pool",
			Name:      "utilization",
			Help:      "Pool utilization (0-1)",
		},
	)

	c.TotalShares = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "pool",
			Name:      "total_shares",
			Help:      "Total supplier shares outstanding",
		},
	)

	// Market metrics
	c.BorrowIndex = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "market",
			Name:      "borrow_index",
			Help:      "Current borrow index (ray, as float)",
		},
		[]string{"market_id"},
	)

	c.SpreadRate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "market",
			Name:      "spread_rate",
			Help:      "Current annual spread rate (0-1)",
		},
		[]string{"market_id"},
	)

	c.MarketBorrowed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "market",
			Name:      "borrowed",
			Help:      "Nominal borrowed in a market",
		},
		[]string{"market_id"},
	)

	c.MarketCollateral = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "market",
			Name:      "collateral",
			Help:      "Collateral pledged in a market",
		},
		[]string{"market_id"},
	)

	// Operation metrics
	c.SuppliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "ops",
			Name:      "supplies_total",
			Help:      "Total supply operations",
		},
		[]string{},
	)

	c.WithdrawsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "ops",
			Name:      "withdraws_total",
			Help:      "Total withdraw operations",
		},
		[]string{},
	)

	c.BorrowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "ops",
			Name:      "borrows_total",
			Help:      "Total borrow operations",
		},
		[]string{"market_id"},
	)

	c.RepaysTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "ops",
			Name:      "repays_total",
			Help:      "Total repay operations",
		},
		[]string{"market_id"},
	)

	c.BorrowVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "ops",
			Name:      "borrow_volume",
			Help:      "Total borrowed volume in base asset",
		},
		[]string{"market_id"},
	)

	c.RepayVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "ops",
			Name:      "repay_volume",
			Help:      "Total repaid volume in base asset",
		},
		[]string{"market_id"},
	)

	// Liquidation metrics
	c.LiquidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "liquidations",
			Name:      "total",
			Help:      "Total number of liquidations",
		},
		[]string{"market_id"},
	)

	c.LiquidationValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "liquidations",
			Name:      "repay_value",
			Help:      "Total debt repaid through liquidations",
		},
		[]string{"market_id"},
	)

	c.CollateralSeized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "liquidations",
			Name:      "collateral_seized",
			Help:      "Total collateral seized by liquidators",
		},
		[]string{"market_id"},
	)

	// Resolution metrics
	c.ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "resolutions",
			Name:      "total",
			Help:      "Total markets resolved",
		},
		[]string{},
	)

	c.RedeemedValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "resolutions",
			Name:      "redeemed_value",
			Help:      "Total collateral value redeemed at resolution",
		},
		[]string{"market_id"},
	)

	c.ClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "claims",
			Name:      "total",
			Help:      "Total settlement claims paid",
		},
		[]string{"market_id", "kind"},
	)

	c.ClaimValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "claims",
			Name:      "value",
			Help:      "Total settlement claim value paid",
		},
		[]string{"market_id", "kind"},
	)

	// Oracle metrics
	c.OraclePrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "oracle",
			Name:      "price",
			Help:      "Current collateral price in base asset terms",
		},
		[]string{"market_id"},
	)

	c.OracleUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "oracle",
			Name:      "updates_total",
			Help:      "Total oracle price updates",
		},
		[]string{"market_id"},
	)

	// WebSocket metrics
	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
		[]string{},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages sent",
		},
		[]string{"channel"},
	)

	c.WSSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "websocket",
			Name:      "subscriptions",
			Help:      "Number of active subscriptions per channel",
		},
		[]string{"channel"},
	)

	// API metrics
	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creditpool",
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.APIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Total API errors",
		},
		[]string{"method", "path", "error_type"},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditpool",
			Subsystem: "api",
			Name:      "rate_limit_hits",
			Help:      "Total rate limit hits",
		},
		[]string{"limit_type"},
	)

	// System metrics
	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "creditpool",
			Subsystem: "system",
			Name:      "block_height",
			Help:      "Current block height",
		},
	)

	c.BlockTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creditpool",
			Subsystem: "system",
			Name:      "block_time_ms",
			Help:      "Block time in milliseconds",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000},
		},
		[]string{},
	)

	// Register all metrics
	c.registerAll()

	return c
}

// registerAll registers all metrics with Prometheus
func (c *Collector) registerAll() {
	// Pool metrics
	prometheus.MustRegister(c.PoolSupplied)
	prometheus.MustRegister(c.PoolBorrowed)
	prometheus.MustRegister(c.PoolSpread)
	prometheus.MustRegister(c.PoolUtilization)
	prometheus.MustRegister(c.TotalShares)

	// Market metrics
	prometheus.MustRegister(c.BorrowIndex)
	prometheus.MustRegister(c.SpreadRate)
	prometheus.MustRegister(c.MarketBorrowed)
	prometheus.MustRegister(c.MarketCollateral)

	// Operation metrics
	prometheus.MustRegister(c.SuppliesTotal)
	prometheus.MustRegister(c.WithdrawsTotal)
	prometheus.MustRegister(c.BorrowsTotal)
	prometheus.MustRegister(c.RepaysTotal)
	prometheus.MustRegister(c.BorrowVolume)
	prometheus.MustRegister(c.RepayVolume)

	// Liquidation metrics
	prometheus.MustRegister(c.LiquidationsTotal)
	prometheus.MustRegister(c.LiquidationValue)
	prometheus.MustRegister(c.CollateralSeized)

	// Resolution metrics
	prometheus.MustRegister(c.ResolutionsTotal)
	prometheus.MustRegister(c.RedeemedValue)
	prometheus.MustRegister(c.ClaimsTotal)
	prometheus.MustRegister(c.ClaimValue)

	// Oracle metrics
	prometheus.MustRegister(c.OraclePrice)
	prometheus.MustRegister(c.OracleUpdates)

	// WebSocket metrics
	prometheus.MustRegister(c.WSConnectionsActive)
	prometheus.MustRegister(c.WSMessagesTotal)
	prometheus.MustRegister(c.WSSubscriptions)

	// API metrics
	prometheus.MustRegister(c.APIRequestsTotal)
	prometheus.MustRegister(c.APIRequestLatency)
	prometheus.MustRegister(c.APIErrorsTotal)
	prometheus.MustRegister(c.RateLimitHits)

	// System metrics
	prometheus.MustRegister(c.BlockHeight)
	prometheus.MustRegister(c.BlockTime)
}

// ============ Recording Helpers ============

// RecordPool records the pool ledger gauges
func (c *Collector) RecordPool(supplied, borrowed, spread, utilization, shares float64) {
	c.PoolSupplied.Set(supplied)
	c.PoolBorrowed.Set(borrowed)
	c.PoolSpread.Set(spread)
	c.PoolUtilization.Set(utilization)
	c.TotalShares.Set(shares)
}

// RecordMarket records per-market gauges
func (c *Collector) RecordMarket(marketID string, borrowIndex, spreadRate, borrowed, collateral float64) {
	c.BorrowIndex.WithLabelValues(marketID).Set(borrowIndex)
	c.SpreadRate.WithLabelValues(marketID).Set(spreadRate)
	c.MarketBorrowed.WithLabelValues(marketID).Set(borrowed)
	c.MarketCollateral.WithLabelValues(marketID).Set(collateral)
}

// RecordBorrow records a borrow operation
func (c *Collector) RecordBorrow(marketID string, amount float64) {
	c.BorrowsTotal.WithLabelValues(marketID).Inc()
	c.BorrowVolume.WithLabelValues(marketID).Add(amount)
}

// RecordRepay records a repay operation
func (c *Collector) RecordRepay(marketID string, amount float64) {
	c.RepaysTotal.WithLabelValues(marketID).Inc()
	c.RepayVolume.WithLabelValues(marketID).Add(amount)
}

// RecordLiquidation records a liquidation event
func (c *Collector) RecordLiquidation(marketID string, repayValue, seized float64) {
	c.LiquidationsTotal.WithLabelValues(marketID).Inc()
	c.LiquidationValue.WithLabelValues(marketID).Add(repayValue)
	c.CollateralSeized.WithLabelValues(marketID).Add(seized)
}

// RecordResolution records a market resolution
func (c *Collector) RecordResolution(marketID string, redeemed float64) {
	c.ResolutionsTotal.WithLabelValues().Inc()
	c.RedeemedValue.WithLabelValues(marketID).Add(redeemed)
}

// RecordClaim records a settlement claim payout
func (c *Collector) RecordClaim(marketID, kind string, value float64) {
	c.ClaimsTotal.WithLabelValues(marketID, kind).Inc()
	c.ClaimValue.WithLabelValues(marketID, kind).Add(value)
}

// RecordOraclePrice records a posted price
func (c *Collector) RecordOraclePrice(marketID string, price float64) {
	c.OraclePrice.WithLabelValues(marketID).Set(price)
	c.OracleUpdates.WithLabelValues(marketID).Inc()
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (c *Collector) RecordWSMessage(channel string) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
