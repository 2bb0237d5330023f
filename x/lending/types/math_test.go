package types

import (
	"testing"

	"cosmossdk.io/math"
)

func ray(n int64) math.Int {
	return Ray.MulRaw(n)
}

// TestRayMulRounding tests half-up rounding in ray multiplication
func TestRayMulRounding(t *testing.T) {
	testCases := []struct {
		name     string
		a        math.Int
		b        math.Int
		expected math.Int
	}{
		{
			name:     "one times one",
			a:        Ray,
			b:        Ray,
			expected: Ray,
		},
		{
			name:     "zero operand",
			a:        math.ZeroInt(),
			b:        ray(5),
			expected: math.ZeroInt(),
		},
		{
			name:     "half rounds up",
			a:        math.NewInt(1),
			b:        Ray.QuoRaw(2),
			expected: math.NewInt(1),
		},
		{
			name:     "just below half rounds down",
			a:        math.NewInt(1),
			b:        Ray.QuoRaw(2).SubRaw(1),
			expected: math.ZeroInt(),
		},
		{
			name:     "amount by fraction",
			a:        math.NewInt(400_000000),
			b:        Ray.MulRaw(75).QuoRaw(100),
			expected: math.NewInt(300_000000),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := RayMul(tc.a, tc.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !out.Equal(tc.expected) {
				t.Errorf("expected %s, got %s", tc.expected, out)
			}
		})
	}
}

// TestRayMulOverflow tests that oversized intermediate products fail
func TestRayMulOverflow(t *testing.T) {
	huge := math.NewIntWithDecimal(1, 40)
	if _, err := RayMul(huge, huge); err != ErrArithmeticOverflow {
		t.Errorf("expected ErrArithmeticOverflow, got %v", err)
	}
}

// TestRayDiv tests ray division including the zero-divisor guard
func TestRayDiv(t *testing.T) {
	out, err := RayDiv(ray(3), ray(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := Ray.MulRaw(75).QuoRaw(100)
	if !out.Equal(expected) {
		t.Errorf("expected %s, got %s", expected, out)
	}

	if _, err := RayDiv(ray(1), math.ZeroInt()); err != ErrDivisionByZero {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
}

// TestRayMulDivRoundTrip tests that div then mul returns the input within one unit
func TestRayMulDivRoundTrip(t *testing.T) {
	amounts := []int64{1, 7, 999, 400_000000, 123456789}
	index := Ray.MulRaw(108).QuoRaw(100)

	for _, n := range amounts {
		amount := math.NewInt(n)
		scaled, err := RayDiv(amount, index)
		if err != nil {
			t.Fatalf("RayDiv: %v", err)
		}
		back, err := RayMul(scaled, index)
		if err != nil {
			t.Fatalf("RayMul: %v", err)
		}
		diff := back.Sub(amount).Abs()
		if diff.GT(math.OneInt()) {
			t.Errorf("amount %d: round trip drifted by %s", n, diff)
		}
	}
}

// TestMulDiv tests the full-width multiply-divide used by debt allocation
func TestMulDiv(t *testing.T) {
	// Small products that a chained rayMul/rayDiv would round to zero.
	out, err := MulDiv(math.NewInt(1_000_000_000000), math.NewInt(500_000_000000), math.NewInt(1_000_000_000000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Equal(math.NewInt(500_000_000000)) {
		t.Errorf("expected 500000000000, got %s", out)
	}

	// Half-up rounding.
	out, err = MulDiv(math.NewInt(5), math.NewInt(1), math.NewInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Equal(math.NewInt(3)) {
		t.Errorf("expected 3, got %s", out)
	}

	if _, err := MulDiv(math.NewInt(1), math.NewInt(1), math.ZeroInt()); err != ErrDivisionByZero {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
}

// TestRebaseDecimals tests decimal rebasing across the supported range
func TestRebaseDecimals(t *testing.T) {
	testCases := []struct {
		name     string
		amount   math.Int
		from     uint32
		to       uint32
		expected math.Int
	}{
		{
			name:     "six to eighteen",
			amount:   math.NewInt(1_000000),
			from:     6,
			to:       18,
			expected: math.NewIntWithDecimal(1, 18),
		},
		{
			name:     "eighteen to six",
			amount:   math.NewIntWithDecimal(1, 18),
			from:     18,
			to:       6,
			expected: math.NewInt(1_000000),
		},
		{
			name:     "same scale",
			amount:   math.NewInt(42),
			from:     9,
			to:       9,
			expected: math.NewInt(42),
		},
		{
			name:     "downscale rounds half up",
			amount:   math.NewInt(1500),
			from:     3,
			to:       0,
			expected: math.NewInt(2),
		},
		{
			name:     "zero to thirty",
			amount:   math.NewInt(1),
			from:     0,
			to:       30,
			expected: math.NewIntWithDecimal(1, 30),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := RebaseDecimals(tc.amount, tc.from, tc.to)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !out.Equal(tc.expected) {
				t.Errorf("expected %s, got %s", tc.expected, out)
			}
		})
	}

	if _, err := RebaseDecimals(math.NewInt(1), 31, 6); err != ErrUnsupportedDecimals {
		t.Errorf("expected ErrUnsupportedDecimals, got %v", err)
	}
}

// TestSubFloored tests the floored subtraction helper
func TestSubFloored(t *testing.T) {
	if out := SubFloored(math.NewInt(5), math.NewInt(3)); !out.Equal(math.NewInt(2)) {
		t.Errorf("expected 2, got %s", out)
	}
	if out := SubFloored(math.NewInt(3), math.NewInt(5)); !out.IsZero() {
		t.Errorf("expected 0, got %s", out)
	}
}
