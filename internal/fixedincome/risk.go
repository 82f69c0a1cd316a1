package fixedincome

import (
	"math"

	apperrors "bondfolio/internal/errors"
)

// RiskMetrics measures the sensitivity of price to yield. Durations are in
// years and convexity in years squared.
type RiskMetrics struct {
	MacaulayDuration float64 `json:"macaulay_duration"`
	ModifiedDuration float64 `json:"modified_duration"`
	Convexity        float64 `json:"convexity"`
}

// ComputeRiskMetrics discounts s at the annual nominal yield and returns its
// Macaulay duration, modified duration and convexity.
func ComputeRiskMetrics(s Schedule, annualYield float64) (RiskMetrics, error) {
	if len(s.Flows) == 0 {
		return RiskMetrics{}, apperrors.ErrEmptySchedule
	}

	f := float64(s.Frequency())
	r := annualYield / f
	if r <= -1 {
		return RiskMetrics{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Yield must be above -100% per period")
	}

	pvs := make([]float64, len(s.Flows))
	var total float64
	for i, cf := range s.Flows {
		pvs[i] = cf.Amount() / math.Pow(1+r, cf.Periods)
		total += pvs[i]
	}
	if total == 0 {
		return RiskMetrics{}, apperrors.ErrEmptySchedule
	}

	// Weights are normalised before use so a single flow has a weight of
	// exactly one and its duration equals its time to payment.
	var macaulay, curvature float64
	for i, pv := range pvs {
		w := pv / total
		t := s.Years(i)
		macaulay += w * t
		curvature += w * t * (t + 1/f)
	}

	return RiskMetrics{
		MacaulayDuration: macaulay,
		ModifiedDuration: macaulay / (1 + r),
		Convexity:        curvature / ((1 + r) * (1 + r)),
	}, nil
}
