package liquidator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"cosmossdk.io/math"

	apitypes "github.com/openalpha/creditpool/api/types"
)

// Config holds the liquidator configuration
type Config struct {
	PollInterval  time.Duration
	BatchInterval time.Duration
	BatchSize     int
	APIURL        string
	ChainRPCURL   string

	// CloseFactor caps the repaid fraction of a candidate's debt
	CloseFactor math.LegacyDec

	// MinDebt filters out dust positions not worth the gas
	MinDebt math.Int
}

// DefaultConfig returns the default liquidator configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval:  2 * time.Second,
		BatchInterval: time.Second,
		BatchSize:     50,
		APIURL:        "http://localhost:8080",
		ChainRPCURL:   "http://localhost:26657",
		CloseFactor:   math.LegacyNewDecWithPrec(5, 1),
		MinDebt:       math.NewInt(1000),
	}
}

// Candidate is a borrower position eligible for liquidation
type Candidate struct {
	MarketID     string
	Borrower     string
	CurrentDebt  math.Int
	Collateral   math.Int
	HealthFactor math.LegacyDec
	RepayAmount  math.Int
	DetectedAt   time.Time
}

// PositionSource provides market and position snapshots to scan
type PositionSource interface {
	// ListMarkets returns the markets currently known to the protocol
	ListMarkets(ctx context.Context) ([]*apitypes.Market, error)

	// ListPositions returns all open positions in a market
	ListPositions(ctx context.Context, marketID string) ([]*apitypes.Position, error)
}

// Liquidator watches borrower health and submits liquidations in batches
type Liquidator struct {
	config    *Config
	source    PositionSource
	cache     *PositionCache
	buffer    *CandidateBuffer
	submitter TxSubmitter

	// pending tracks candidates queued or submitted but not yet
	// reflected in a fresh position snapshot
	pending map[string]time.Time

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool

	scannedTotal   int64
	candidateTotal int64
}

// NewLiquidator creates a new liquidator
func NewLiquidator(config *Config, source PositionSource, submitter TxSubmitter) *Liquidator {
	if config == nil {
		config = DefaultConfig()
	}

	return &Liquidator{
		config:    config,
		source:    source,
		cache:     NewPositionCache(),
		buffer:    NewCandidateBuffer(config.BatchSize),
		submitter: submitter,
		pending:   make(map[string]time.Time),
		stopCh:    make(chan struct{}),
	}
}

// Start starts the poll and batch loops
func (l *Liquidator) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("liquidator already running")
	}
	l.running = true
	l.mu.Unlock()

	l.wg.Add(2)
	go l.pollLoop(ctx)
	go l.batchLoop(ctx)

	log.Printf("Liquidator started (poll=%v, batch=%v)", l.config.PollInterval, l.config.BatchInterval)
	return nil
}

// Stop stops the liquidator and waits for the loops to exit
func (l *Liquidator) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return fmt.Errorf("liquidator not running")
	}
	l.running = false
	l.mu.Unlock()

	close(l.stopCh)
	l.wg.Wait()
	return nil
}

// pollLoop periodically scans all markets for unhealthy positions
func (l *Liquidator) pollLoop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-ticker.C:
			if err := l.Scan(ctx); err != nil {
				log.Printf("Error scanning positions: %v", err)
			}
		}
	}
}

// batchLoop periodically submits queued candidates to the chain
func (l *Liquidator) batchLoop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.submitPending(ctx)
			return
		case <-l.stopCh:
			l.submitPending(ctx)
			return
		case <-ticker.C:
			l.submitPending(ctx)
		}
	}
}

// Scan fetches fresh snapshots and queues every liquidatable position
func (l *Liquidator) Scan(ctx context.Context) error {
	markets, err := l.source.ListMarkets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list markets: %w", err)
	}

	for _, market := range markets {
		if market.Resolved {
			continue
		}

		positions, err := l.source.ListPositions(ctx, market.MarketID)
		if err != nil {
			log.Printf("Error listing positions for %s: %v", market.MarketID, err)
			continue
		}

		for _, position := range positions {
			l.cache.Set(position)
			l.mu.Lock()
			l.scannedTotal++
			l.mu.Unlock()

			candidate, ok := l.Evaluate(position)
			if !ok {
				// A healthy snapshot clears any stale pending marker
				l.clearPending(position.MarketID, position.Borrower)
				continue
			}
			l.enqueue(candidate)
		}
	}

	return nil
}

// Evaluate decides whether a position is liquidatable and sizes the repay.
// A position qualifies when its health factor is positive and below one;
// zero means no priced debt and is left alone.
func (l *Liquidator) Evaluate(position *apitypes.Position) (*Candidate, bool) {
	healthFactor, err := math.LegacyNewDecFromStr(position.HealthFactor)
	if err != nil {
		return nil, false
	}
	if !healthFactor.IsPositive() || healthFactor.GTE(math.LegacyOneDec()) {
		return nil, false
	}

	currentDebt, ok := math.NewIntFromString(position.CurrentDebt)
	if !ok || currentDebt.LT(l.config.MinDebt) {
		return nil, false
	}

	collateral, ok := math.NewIntFromString(position.Collateral)
	if !ok {
		return nil, false
	}

	repay := l.config.CloseFactor.MulInt(currentDebt).TruncateInt()
	if !repay.IsPositive() {
		return nil, false
	}

	return &Candidate{
		MarketID:     position.MarketID,
		Borrower:     position.Borrower,
		CurrentDebt:  currentDebt,
		Collateral:   collateral,
		HealthFactor: healthFactor,
		RepayAmount:  repay,
		DetectedAt:   time.Now(),
	}, true
}

// enqueue adds a candidate to the buffer unless already pending
func (l *Liquidator) enqueue(candidate *Candidate) {
	key := positionKey(candidate.MarketID, candidate.Borrower)

	l.mu.Lock()
	if _, exists := l.pending[key]; exists {
		l.mu.Unlock()
		return
	}
	l.pending[key] = candidate.DetectedAt
	l.candidateTotal++
	l.mu.Unlock()

	l.buffer.Add(candidate)
	log.Printf("Queued liquidation: %s/%s, HF=%s, repay=%s",
		candidate.MarketID, candidate.Borrower, candidate.HealthFactor.String(), candidate.RepayAmount.String())
}

func (l *Liquidator) clearPending(marketID, borrower string) {
	l.mu.Lock()
	delete(l.pending, positionKey(marketID, borrower))
	l.mu.Unlock()
}

// submitPending submits buffered candidates to the chain
func (l *Liquidator) submitPending(ctx context.Context) {
	candidates := l.buffer.Flush()
	if len(candidates) == 0 {
		return
	}

	log.Printf("Submitting %d liquidations to chain...", len(candidates))
	if err := l.submitter.SubmitLiquidations(ctx, candidates); err != nil {
		log.Printf("Error submitting liquidations: %v", err)
		// Re-add candidates to buffer for retry
		for _, candidate := range candidates {
			l.buffer.Add(candidate)
		}
	}
}

// Stats holds liquidator runtime counters
type Stats struct {
	PositionsScanned  int64
	CandidatesTotal   int64
	PendingCount      int
	BufferedCount     int
	CacheSize         int
	TotalSubmissions  int64
	FailedSubmissions int64
}

// GetStats returns a snapshot of the liquidator counters
func (l *Liquidator) GetStats() Stats {
	l.mu.Lock()
	scanned := l.scannedTotal
	candidates := l.candidateTotal
	pending := len(l.pending)
	l.mu.Unlock()

	status := l.submitter.GetStatus()
	return Stats{
		PositionsScanned:  scanned,
		CandidatesTotal:   candidates,
		PendingCount:      pending,
		BufferedCount:     l.buffer.Len(),
		CacheSize:         l.cache.Len(),
		TotalSubmissions:  status.TotalSubmissions,
		FailedSubmissions: status.FailedSubmissions,
	}
}
