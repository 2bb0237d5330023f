package types

import (
	"math/big"

	"cosmossdk.io/math"
)

// Fixed-point scales. Rates, indices and prices are ray-scaled (1e27);
// collateral amounts are wad-scaled (1e18); base-asset amounts stay in
// their native decimal count.
var (
	Ray = math.NewIntWithDecimal(1, 27)
	Wad = math.NewIntWithDecimal(1, 18)

	rayBig     = Ray.BigInt()
	halfRayBig = new(big.Int).Quo(Ray.BigInt(), big.NewInt(2))
)

// MaxRebaseDecimals bounds the decimal counts RebaseDecimals accepts.
const MaxRebaseDecimals = 30

// MulDiv computes (a*b + denom/2) / denom with half-up rounding.
// The intermediate product is taken at full width and checked against the
// 256-bit bound, so a*b never wraps silently.
func MulDiv(a, b, denom math.Int) (math.Int, error) {
	if denom.IsZero() {
		return math.Int{}, ErrDivisionByZero
	}
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if product.BitLen() > math.MaxBitLen {
		return math.Int{}, ErrArithmeticOverflow
	}
	d := denom.BigInt()
	product.Add(product, new(big.Int).Quo(d, big.NewInt(2)))
	product.Quo(product, d)
	if product.BitLen() > math.MaxBitLen {
		return math.Int{}, ErrArithmeticOverflow
	}
	return math.NewIntFromBigInt(product), nil
}

// MulDivFloor computes (a*b) / denom rounded toward zero. Pro-rata payouts
// use it so the slices never sum past the pool they are carved from.
func MulDivFloor(a, b, denom math.Int) (math.Int, error) {
	if denom.IsZero() {
		return math.Int{}, ErrDivisionByZero
	}
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if product.BitLen() > math.MaxBitLen {
		return math.Int{}, ErrArithmeticOverflow
	}
	product.Quo(product, denom.BigInt())
	return math.NewIntFromBigInt(product), nil
}

// RayMul multiplies two ray-scaled values: round(a*b / RAY), half-up.
func RayMul(a, b math.Int) (math.Int, error) {
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if product.BitLen() > math.MaxBitLen {
		return math.Int{}, ErrArithmeticOverflow
	}
	product.Add(product, halfRayBig)
	product.Quo(product, rayBig)
	return math.NewIntFromBigInt(product), nil
}

// RayDiv divides two ray-scaled values: round(a*RAY / b), half-up.
func RayDiv(a, b math.Int) (math.Int, error) {
	if b.IsZero() {
		return math.Int{}, ErrDivisionByZero
	}
	num := new(big.Int).Mul(a.BigInt(), rayBig)
	if num.BitLen() > math.MaxBitLen {
		return math.Int{}, ErrArithmeticOverflow
	}
	d := b.BigInt()
	num.Add(num, new(big.Int).Quo(d, big.NewInt(2)))
	num.Quo(num, d)
	if num.BitLen() > math.MaxBitLen {
		return math.Int{}, ErrArithmeticOverflow
	}
	return math.NewIntFromBigInt(num), nil
}

// RebaseDecimals converts an amount between asset-native decimal counts.
// Scaling up is exact; scaling down rounds half-up. Decimal counts must be
// in [0, MaxRebaseDecimals]. Rebasing runs before any ray operation so the
// ray math always sees amounts in the target scale.
func RebaseDecimals(amount math.Int, from, to uint32) (math.Int, error) {
	if from > MaxRebaseDecimals || to > MaxRebaseDecimals {
		return math.Int{}, ErrUnsupportedDecimals
	}
	if from == to {
		return amount, nil
	}
	if to > from {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(to-from)), nil)
		scaled := new(big.Int).Mul(amount.BigInt(), factor)
		if scaled.BitLen() > math.MaxBitLen {
			return math.Int{}, ErrArithmeticOverflow
		}
		return math.NewIntFromBigInt(scaled), nil
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(from-to)), nil)
	scaled := new(big.Int).Add(amount.BigInt(), new(big.Int).Quo(factor, big.NewInt(2)))
	scaled.Quo(scaled, factor)
	return math.NewIntFromBigInt(scaled), nil
}

// SubFloored returns max(a-b, 0). Totals reduced on repay and liquidation
// use it so rounding drift in the last unit never drives a ledger figure
// negative.
func SubFloored(a, b math.Int) math.Int {
	out := a.Sub(b)
	if out.IsNegative() {
		return math.ZeroInt()
	}
	return out
}

// MinInt returns the smaller of a and b.
func MinInt(a, b math.Int) math.Int {
	if a.LT(b) {
		return a
	}
	return b
}
