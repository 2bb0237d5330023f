package types

import (
	"cosmossdk.io/math"
)

// SecondsPerYear is the accrual horizon for annualized spread rates.
const SecondsPerYear int64 = 31536000

// Utilization returns borrowed/supplied as a ray fraction. A pool with no
// supply has zero utilization, never a division fault.
func Utilization(totalBorrowed, totalSupplied math.Int) (math.Int, error) {
	if totalSupplied.IsZero() {
		return math.ZeroInt(), nil
	}
	return RayDiv(totalBorrowed, totalSupplied)
}

// SpreadRate computes the protocol spread rate on the kinked curve:
//
//	util <= optimal: base + slope1 * util / optimal
//	util >  optimal: base + slope1 + slope2 * (util - optimal)
//
// Piecewise-linear and non-decreasing in utilization.
func SpreadRate(utilization math.Int, p RiskParameters) (math.Int, error) {
	if utilization.LTE(p.OptimalUtilization) {
		scaled, err := RayMul(p.Slope1, utilization)
		if err != nil {
			return math.Int{}, err
		}
		ramp, err := RayDiv(scaled, p.OptimalUtilization)
		if err != nil {
			return math.Int{}, err
		}
		return p.BaseSpreadRate.Add(ramp), nil
	}
	excess := utilization.Sub(p.OptimalUtilization)
	jump, err := RayMul(p.Slope2, excess)
	if err != nil {
		return math.Int{}, err
	}
	return p.BaseSpreadRate.Add(p.Slope1).Add(jump), nil
}

// RateSnapshot records a market's rate state at an accrual point, kept as a
// queryable history series.
type RateSnapshot struct {
	MarketID      string   `json:"market_id"`
	Timestamp     int64    `json:"timestamp"`
	Utilization   math.Int `json:"utilization"`
	SpreadRate    math.Int `json:"spread_rate"`
	BorrowIndex   math.Int `json:"borrow_index"`
	TotalBorrowed math.Int `json:"total_borrowed"`
}

// AdvanceBorrowIndex moves the borrow index forward over the elapsed time:
//
//	newIndex = index + rayMul(index, rayMul(rate, dt/SecondsPerYear))
//
// A backward clock is rejected with ErrInvalidTimestamp rather than clamped,
// since clamping would mask a caller bug. dt == 0 or an idle market returns
// the index unchanged. The result is never below the input index.
func AdvanceBorrowIndex(currentIndex, rate math.Int, lastUpdateTime, currentTime int64, totalBorrowed math.Int) (math.Int, error) {
	dt := currentTime - lastUpdateTime
	if dt < 0 {
		return math.Int{}, ErrInvalidTimestamp
	}
	if dt == 0 || totalBorrowed.IsZero() || rate.IsZero() {
		return currentIndex, nil
	}
	yearFraction := Ray.MulRaw(dt).QuoRaw(SecondsPerYear)
	ratePortion, err := RayMul(rate, yearFraction)
	if err != nil {
		return math.Int{}, err
	}
	increment, err := RayMul(currentIndex, ratePortion)
	if err != nil {
		return math.Int{}, err
	}
	return currentIndex.Add(increment), nil
}
