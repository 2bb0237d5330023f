package liquidator

import (
	"context"
	"testing"

	apitypes "github.com/openalpha/creditpool/api/types"
)

type stubSource struct {
	markets   []*apitypes.Market
	positions map[string][]*apitypes.Position
}

func (s *stubSource) ListMarkets(ctx context.Context) ([]*apitypes.Market, error) {
	return s.markets, nil
}

func (s *stubSource) ListPositions(ctx context.Context, marketID string) ([]*apitypes.Position, error) {
	return s.positions[marketID], nil
}

func testPosition(marketID, borrower, debt, collateral, healthFactor string) *apitypes.Position {
	return &apitypes.Position{
		MarketID:     marketID,
		Borrower:     borrower,
		Collateral:   collateral,
		BorrowAmount: debt,
		CurrentDebt:  debt,
		HealthFactor: healthFactor,
	}
}

func TestEvaluate(t *testing.T) {
	l := NewLiquidator(DefaultConfig(), &stubSource{}, NewMockSubmitter())

	tests := []struct {
		name     string
		position *apitypes.Position
		want     bool
	}{
		{"under water", testPosition("uusdc/tbond", "alice", "50000000", "100000000000000000000", "0.850000000000000000"), true},
		{"healthy", testPosition("uusdc/tbond", "bob", "50000000", "100000000000000000000", "1.600000000000000000"), false},
		{"at threshold", testPosition("uusdc/tbond", "carol", "50000000", "100000000000000000000", "1.000000000000000000"), false},
		{"no priced debt", testPosition("uusdc/tbond", "dave", "50000000", "100000000000000000000", "0.000000000000000000"), false},
		{"dust debt", testPosition("uusdc/tbond", "erin", "10", "100000000000000000000", "0.500000000000000000"), false},
		{"bad health factor", testPosition("uusdc/tbond", "frank", "50000000", "100000000000000000000", "nope"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			candidate, ok := l.Evaluate(tc.position)
			if ok != tc.want {
				t.Fatalf("Evaluate() eligible = %v, want %v", ok, tc.want)
			}
			if !ok {
				return
			}
			if candidate.RepayAmount.String() != "25000000" {
				t.Errorf("repay amount = %s, want 25000000 (half of debt)", candidate.RepayAmount.String())
			}
			if candidate.Borrower != tc.position.Borrower {
				t.Errorf("borrower = %s, want %s", candidate.Borrower, tc.position.Borrower)
			}
		})
	}
}

func TestScanQueuesUnhealthyOnce(t *testing.T) {
	source := &stubSource{
		markets: []*apitypes.Market{
			{MarketID: "uusdc/tbond"},
		},
		positions: map[string][]*apitypes.Position{
			"uusdc/tbond": {
				testPosition("uusdc/tbond", "alice", "50000000", "100000000000000000000", "0.900000000000000000"),
				testPosition("uusdc/tbond", "bob", "40000000", "100000000000000000000", "1.500000000000000000"),
			},
		},
	}

	l := NewLiquidator(DefaultConfig(), source, NewMockSubmitter())
	ctx := context.Background()

	if err := l.Scan(ctx); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if got := l.buffer.Len(); got != 1 {
		t.Fatalf("buffered candidates = %d, want 1", got)
	}

	// A second scan over the same snapshot must not duplicate the candidate
	if err := l.Scan(ctx); err != nil {
		t.Fatalf("second Scan() error: %v", err)
	}
	if got := l.buffer.Len(); got != 1 {
		t.Errorf("buffered candidates after rescan = %d, want 1", got)
	}
	if got := l.cache.Len(); got != 2 {
		t.Errorf("cached positions = %d, want 2", got)
	}
}

func TestScanSkipsResolvedMarkets(t *testing.T) {
	source := &stubSource{
		markets: []*apitypes.Market{
			{MarketID: "uusdc/tbond", Resolved: true},
		},
		positions: map[string][]*apitypes.Position{
			"uusdc/tbond": {
				testPosition("uusdc/tbond", "alice", "50000000", "100000000000000000000", "0.500000000000000000"),
			},
		},
	}

	l := NewLiquidator(DefaultConfig(), source, NewMockSubmitter())
	if err := l.Scan(context.Background()); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if got := l.buffer.Len(); got != 0 {
		t.Errorf("buffered candidates = %d, want 0 for resolved market", got)
	}
}

func TestSubmitPendingRetriesOnFailure(t *testing.T) {
	source := &stubSource{
		markets: []*apitypes.Market{{MarketID: "uusdc/tbond"}},
		positions: map[string][]*apitypes.Position{
			"uusdc/tbond": {
				testPosition("uusdc/tbond", "alice", "50000000", "100000000000000000000", "0.800000000000000000"),
			},
		},
	}

	submitter := NewMockSubmitter()
	l := NewLiquidator(DefaultConfig(), source, submitter)
	ctx := context.Background()

	if err := l.Scan(ctx); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	submitter.SetSimulateFailure(true)
	l.submitPending(ctx)
	if got := l.buffer.Len(); got != 1 {
		t.Fatalf("buffered candidates after failed submit = %d, want 1", got)
	}

	submitter.SetSimulateFailure(false)
	l.submitPending(ctx)
	if got := l.buffer.Len(); got != 0 {
		t.Errorf("buffered candidates after submit = %d, want 0", got)
	}
	if got := len(submitter.GetSubmitted()); got != 1 {
		t.Errorf("submitted candidates = %d, want 1", got)
	}
}

func TestCandidateBufferFlushBatch(t *testing.T) {
	buffer := NewCandidateBuffer(2)
	for i := 0; i < 5; i++ {
		buffer.Add(&Candidate{MarketID: "uusdc/tbond", Borrower: "alice"})
	}

	batch := buffer.FlushBatch()
	if len(batch) != 2 {
		t.Fatalf("first batch = %d, want 2", len(batch))
	}
	if buffer.Len() != 3 {
		t.Errorf("remaining = %d, want 3", buffer.Len())
	}
}
