package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	clog "cosmossdk.io/log"
	"github.com/openalpha/creditpool/api/handlers"
	"github.com/openalpha/creditpool/api/middleware"
	"github.com/openalpha/creditpool/api/websocket"
	"github.com/openalpha/creditpool/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	wsServer   *websocket.Server
	config     *Config

	// Service backing every handler
	service *KeeperService

	// Handlers
	poolHandler   *handlers.PoolHandler
	marketHandler *handlers.MarketHandler

	// Rate limiter
	rateLimiter *middleware.RateLimiter

	// Price feed for collateral marks
	feed *PriceFeed
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	DisableRateLimit bool // For testing purposes

	// PriceFeedURL is the upstream price source; empty disables the feed
	PriceFeedURL string
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer creates a new API server backed by the in-memory keepers
func NewServer(config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	service, err := NewKeeperService(clog.NewNopLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create keeper service: %w", err)
	}

	wsConfig := websocket.DefaultServerConfig()
	wsConfig.Port = config.Port

	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	s := &Server{
		config:      config,
		wsServer:    websocket.NewServer(wsConfig),
		service:     service,
		rateLimiter: rateLimiter,
		feed:        NewPriceFeed(config.PriceFeedURL),
	}

	s.poolHandler = handlers.NewPoolHandler(service)
	s.marketHandler = handlers.NewMarketHandler(service, service, service)

	return s, nil
}

// Service returns the backing keeper service
func (s *Server) Service() *KeeperService {
	return s.service
}

// Start starts the API server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/health", s.handleHealth)

	// Pool endpoints
	mux.HandleFunc("/v1/pool", s.poolHandler.HandlePool)
	mux.HandleFunc("/v1/pool/supply", s.poolHandler.HandleSupply)
	mux.HandleFunc("/v1/pool/withdraw", s.poolHandler.HandleWithdraw)
	mux.HandleFunc("/v1/pool/suppliers/", s.poolHandler.HandleSupplier)

	// Market endpoints
	mux.HandleFunc("/v1/markets", s.marketHandler.HandleMarkets)
	mux.HandleFunc("/v1/markets/", s.marketHandler.HandleMarket)

	// Borrow lifecycle
	mux.HandleFunc("/v1/borrow", s.marketHandler.HandleBorrow)
	mux.HandleFunc("/v1/repay", s.marketHandler.HandleRepay)
	mux.HandleFunc("/v1/debt", s.marketHandler.HandleDebt)

	// Settlement reads
	mux.HandleFunc("/v1/liquidations", s.marketHandler.HandleLiquidations)

	// Prometheus metrics
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket
	mux.HandleFunc("/ws", s.wsServer.GetHub().ServeWS)

	// Apply middleware chain: CORS -> RateLimit -> Handler
	var handler http.Handler
	if s.config.DisableRateLimit {
		handler = corsMiddleware(mux)
	} else {
		handler = corsMiddleware(
			middleware.RateLimitMiddleware(s.rateLimiter)(mux),
		)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	// Start WebSocket hub
	go s.wsServer.GetHub().Run()

	// Start rate/pool broadcaster
	go s.startBroadcaster()

	// Start price feed poller if configured
	if s.feed.Enabled() {
		go s.startPricePoller()
	}

	log.Printf("API server starting on %s", addr)
	if s.config.DisableRateLimit {
		log.Printf("Rate limiting DISABLED (for testing)")
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"mode":      "standalone",
		"warning":   "This API uses in-memory storage. For production, connect to a running chain.",
	})
}

// startBroadcaster pushes pool and market rate snapshots to the hub and
// refreshes the Prometheus gauges.
func (s *Server) startBroadcaster() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	hub := s.wsServer.GetHub()
	collector := metrics.GetCollector()

	for range ticker.C {
		ctx := context.Background()

		pool, err := s.service.GetPool(ctx)
		if err == nil {
			hub.UpdatePool(&websocket.PoolMessage{
				TotalSupplied:     pool.TotalSupplied,
				TotalBorrowed:     pool.TotalBorrowed,
				AccumulatedSpread: pool.AccumulatedSpread,
				Utilization:       pool.Utilization,
				TotalShares:       pool.TotalShares,
				Timestamp:         time.Now().UnixMilli(),
			})
			collector.RecordPool(
				parseFloat(pool.TotalSupplied),
				parseFloat(pool.TotalBorrowed),
				parseFloat(pool.AccumulatedSpread),
				parseFloat(pool.Utilization),
				parseFloat(pool.TotalShares),
			)
		}

		markets, err := s.service.ListMarkets(ctx)
		if err != nil {
			continue
		}
		for _, market := range markets {
			hub.UpdateRate(market.MarketID, &websocket.RateMessage{
				MarketID:    market.MarketID,
				Utilization: market.Utilization,
				SpreadRate:  market.SpreadRate,
				BorrowIndex: market.BorrowIndex,
				Timestamp:   time.Now().UnixMilli(),
			})
			collector.RecordMarket(
				market.MarketID,
				parseFloat(market.BorrowIndex),
				parseFloat(market.SpreadRate),
				parseFloat(market.TotalBorrowed),
				parseFloat(market.TotalCollateral),
			)
		}
	}
}

// startPricePoller fetches collateral prices and posts them through the
// keeper so health factors track the upstream feed.
func (s *Server) startPricePoller() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	hub := s.wsServer.GetHub()
	collector := metrics.GetCollector()

	for range ticker.C {
		ctx := context.Background()

		markets, err := s.service.ListMarkets(ctx)
		if err != nil {
			continue
		}
		for _, market := range markets {
			priceRay, err := s.feed.GetPriceRay(market.CollateralDenom)
			if err != nil {
				continue
			}
			if err := s.service.PostPrice(ctx, market.MarketID, priceRay); err != nil {
				log.Printf("price post failed for %s: %v", market.MarketID, err)
				continue
			}
			hub.UpdatePrice(market.MarketID, &websocket.PriceMessage{
				MarketID:  market.MarketID,
				Price:     formatRay(priceRay),
				Timestamp: time.Now().UnixMilli(),
			})
			collector.RecordOraclePrice(market.MarketID, rayToFloat(priceRay))
		}
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Account-Address")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
