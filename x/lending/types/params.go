package types

import (
	"cosmossdk.io/math"
)

// RiskParameters is the governance-tunable configuration shared by all
// markets. All fields are ray-scaled fractions. The record is supplied to
// the state-transition functions per call and is immutable within a call.
type RiskParameters struct {
	LTV                    math.Int `json:"ltv"`
	LiquidationThreshold   math.Int `json:"liquidation_threshold"`
	LiquidationCloseFactor math.Int `json:"liquidation_close_factor"`
	LiquidationBonus       math.Int `json:"liquidation_bonus"`
	ReserveFactor          math.Int `json:"reserve_factor"`
	BaseSpreadRate         math.Int `json:"base_spread_rate"`
	OptimalUtilization     math.Int `json:"optimal_utilization"`
	Slope1                 math.Int `json:"slope1"`
	Slope2                 math.Int `json:"slope2"`
	LPShareOfRedeemed      math.Int `json:"lp_share_of_redeemed"`
}

// rayPct builds a ray-scaled percentage: rayPct(75) = 0.75 ray.
func rayPct(pct int64) math.Int {
	return Ray.MulRaw(pct).QuoRaw(100)
}

// DefaultRiskParameters returns the launch configuration:
// 75% LTV, 80% liquidation threshold, 50% close factor, 5% bonus,
// 10% reserve factor, 1% base rate, 80% optimal utilization,
// 4% slope1, 60% slope2, 70% LP share of redemption surplus.
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		LTV:                    rayPct(75),
		LiquidationThreshold:   rayPct(80),
		LiquidationCloseFactor: rayPct(50),
		LiquidationBonus:       rayPct(5),
		ReserveFactor:          rayPct(10),
		BaseSpreadRate:         rayPct(1),
		OptimalUtilization:     rayPct(80),
		Slope1:                 rayPct(4),
		Slope2:                 rayPct(60),
		LPShareOfRedeemed:      rayPct(70),
	}
}

// Validate checks the configuration invariants. OptimalUtilization must be
// strictly positive: the rate model divides by it and does not re-check per
// call.
func (p RiskParameters) Validate() error {
	one := Ray
	fractions := []math.Int{
		p.LTV, p.LiquidationThreshold, p.LiquidationCloseFactor,
		p.ReserveFactor, p.OptimalUtilization, p.LPShareOfRedeemed,
	}
	for _, f := range fractions {
		if f.IsNil() || f.IsNegative() || f.GT(one) {
			return ErrInvalidRiskParameters
		}
	}
	nonNegative := []math.Int{p.LiquidationBonus, p.BaseSpreadRate, p.Slope1, p.Slope2}
	for _, f := range nonNegative {
		if f.IsNil() || f.IsNegative() {
			return ErrInvalidRiskParameters
		}
	}
	if p.OptimalUtilization.IsZero() {
		return ErrInvalidRiskParameters
	}
	if p.LTV.GT(p.LiquidationThreshold) {
		return ErrInvalidRiskParameters
	}
	return nil
}
