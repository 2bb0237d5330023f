package types

import (
	"testing"

	"cosmossdk.io/math"
)

// TestUtilization tests the utilization ratio including the empty pool case
func TestUtilization(t *testing.T) {
	testCases := []struct {
		name     string
		borrowed int64
		supplied int64
		expected math.Int
	}{
		{
			name:     "empty pool",
			borrowed: 0,
			supplied: 0,
			expected: math.ZeroInt(),
		},
		{
			name:     "forty percent",
			borrowed: 400_000000,
			supplied: 1000_000000,
			expected: Ray.MulRaw(40).QuoRaw(100),
		},
		{
			name:     "fully utilized",
			borrowed: 1000_000000,
			supplied: 1000_000000,
			expected: Ray,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Utilization(math.NewInt(tc.borrowed), math.NewInt(tc.supplied))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !out.Equal(tc.expected) {
				t.Errorf("expected %s, got %s", tc.expected, out)
			}
		})
	}
}

// TestSpreadRateBelowKink tests the curve below optimal utilization
func TestSpreadRateBelowKink(t *testing.T) {
	params := DefaultRiskParameters()

	// util = 40%, optimal = 80%: rate = 1% + 4% * 40/80 = 3%
	util := Ray.MulRaw(40).QuoRaw(100)
	rate, err := SpreadRate(util, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := Ray.MulRaw(3).QuoRaw(100)
	if !rate.Equal(expected) {
		t.Errorf("expected %s, got %s", expected, rate)
	}

	// util = 0: rate = base
	rate, err = SpreadRate(math.ZeroInt(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.Equal(params.BaseSpreadRate) {
		t.Errorf("expected base rate %s, got %s", params.BaseSpreadRate, rate)
	}

	// util = optimal: rate = base + slope1
	rate, err = SpreadRate(params.OptimalUtilization, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected = params.BaseSpreadRate.Add(params.Slope1)
	if !rate.Equal(expected) {
		t.Errorf("expected %s, got %s", expected, rate)
	}
}

// TestSpreadRateAboveKink tests the jump segment above optimal utilization
func TestSpreadRateAboveKink(t *testing.T) {
	params := DefaultRiskParameters()

	// util = 90%, optimal = 80%: rate = 1% + 4% + 60% * 10% = 11%
	util := Ray.MulRaw(90).QuoRaw(100)
	rate, err := SpreadRate(util, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := Ray.MulRaw(11).QuoRaw(100)
	if !rate.Equal(expected) {
		t.Errorf("expected %s, got %s", expected, rate)
	}
}

// TestSpreadRateMonotonic tests that the rate never decreases in utilization
func TestSpreadRateMonotonic(t *testing.T) {
	params := DefaultRiskParameters()
	prev := math.ZeroInt()
	for pct := int64(0); pct <= 100; pct += 5 {
		util := Ray.MulRaw(pct).QuoRaw(100)
		rate, err := SpreadRate(util, params)
		if err != nil {
			t.Fatalf("utilization %d%%: %v", pct, err)
		}
		if rate.LT(prev) {
			t.Errorf("rate decreased at utilization %d%%: %s < %s", pct, rate, prev)
		}
		prev = rate
	}
}

// TestAdvanceBorrowIndex tests index accrual over time
func TestAdvanceBorrowIndex(t *testing.T) {
	// 3% rate over a full year on index 1.0 gives index 1.03.
	rate := Ray.MulRaw(3).QuoRaw(100)
	newIndex, err := AdvanceBorrowIndex(Ray, rate, 0, SecondsPerYear, math.NewInt(400_000000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := Ray.MulRaw(103).QuoRaw(100)
	if !newIndex.Equal(expected) {
		t.Errorf("expected %s, got %s", expected, newIndex)
	}
}

// TestAdvanceBorrowIndexNoOp tests the unchanged-index cases
func TestAdvanceBorrowIndexNoOp(t *testing.T) {
	rate := Ray.MulRaw(3).QuoRaw(100)

	// dt == 0
	out, err := AdvanceBorrowIndex(Ray, rate, 100, 100, math.NewInt(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Equal(Ray) {
		t.Errorf("expected unchanged index, got %s", out)
	}

	// nothing borrowed
	out, err = AdvanceBorrowIndex(Ray, rate, 0, 1000, math.ZeroInt())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Equal(Ray) {
		t.Errorf("expected unchanged index, got %s", out)
	}
}

// TestAdvanceBorrowIndexBackwardClock tests the InvalidTimestamp guard
func TestAdvanceBorrowIndexBackwardClock(t *testing.T) {
	rate := Ray.MulRaw(3).QuoRaw(100)
	if _, err := AdvanceBorrowIndex(Ray, rate, 200, 100, math.NewInt(1)); err != ErrInvalidTimestamp {
		t.Errorf("expected ErrInvalidTimestamp, got %v", err)
	}
}

// TestAdvanceBorrowIndexMonotonic tests that the index never decreases
func TestAdvanceBorrowIndexMonotonic(t *testing.T) {
	rate := Ray.MulRaw(7).QuoRaw(100)
	index := Ray
	now := int64(0)
	for i := 0; i < 20; i++ {
		next := now + int64(i)*3600
		out, err := AdvanceBorrowIndex(index, rate, now, next, math.NewInt(1_000000))
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if out.LT(index) {
			t.Fatalf("index decreased at step %d: %s < %s", i, out, index)
		}
		if next > now && out.LTE(index) {
			t.Errorf("index did not strictly increase at step %d", i)
		}
		index = out
		now = next
	}
}
