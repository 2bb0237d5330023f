package keeper

import (
	"bytes"
	"testing"

	"cosmossdk.io/math"
	"github.com/openalpha/creditpool/x/lending/types"
)

// TestParseAmount tests base-unit amount parsing
func TestParseAmount(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected math.Int
		wantErr  bool
	}{
		{name: "plain integer", input: "1000000", expected: math.NewInt(1000000)},
		{name: "zero", input: "0", expected: math.ZeroInt()},
		{name: "empty means zero", input: "", expected: math.ZeroInt()},
		{name: "garbage", input: "12.5", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseAmount(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.expected) {
				t.Errorf("parseAmount(%q) = %s, expected %s", tc.input, got, tc.expected)
			}
		})
	}
}

// TestParseRay tests decimal-string to ray conversion
func TestParseRay(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected math.Int
	}{
		{name: "three quarters", input: "0.75", expected: types.Ray.MulRaw(75).QuoRaw(100)},
		{name: "one", input: "1.0", expected: types.Ray},
		{name: "zero", input: "0", expected: math.ZeroInt()},
		{name: "five percent", input: "0.05", expected: types.Ray.MulRaw(5).QuoRaw(100)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseRay(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.expected) {
				t.Errorf("parseRay(%q) = %s, expected %s", tc.input, got, tc.expected)
			}
		})
	}

	if _, err := parseRay("not-a-number"); err == nil {
		t.Errorf("expected error for malformed decimal")
	}
}

// TestStoreKeys tests key derivation stays prefix-disjoint per entity
func TestStoreKeys(t *testing.T) {
	market := marketKey("uusdc/mtoken")
	position := positionKey("uusdc/mtoken", "alice")
	price := priceKey("uusdc/mtoken")

	if bytes.Equal(market, position) || bytes.Equal(market, price) || bytes.Equal(position, price) {
		t.Errorf("expected distinct keys per entity")
	}
	if !bytes.HasPrefix(market, MarketKeyPrefix) {
		t.Errorf("market key missing prefix")
	}
	if !bytes.HasPrefix(position, PositionKeyPrefix) {
		t.Errorf("position key missing prefix")
	}

	// Two borrowers in the same market must not collide.
	if bytes.Equal(positionKey("uusdc/mtoken", "alice"), positionKey("uusdc/mtoken", "bob")) {
		t.Errorf("expected distinct position keys per borrower")
	}
}
