package fixedincome

import (
	"fmt"
	"math"

	apperrors "bondfolio/internal/errors"
)

const (
	// DefaultTolerance is the largest accepted pricing error, as a fraction of
	// face value.
	DefaultTolerance = 1e-6
	// DefaultMaxIterations bounds the Newton-Raphson iteration.
	DefaultMaxIterations = 100
	// DefaultEpsilon is added to the rate once when the derivative vanishes.
	DefaultEpsilon = 1e-4

	zeroCouponSeed = 0.05
	flatDerivative = 1e-12
)

// SolverOptions tunes the yield solver. Zero fields take their defaults.
type SolverOptions struct {
	Tolerance     float64
	MaxIterations int
	Epsilon       float64
}

// DefaultSolverOptions returns the standard solver settings.
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		Epsilon:       DefaultEpsilon,
	}
}

func (o SolverOptions) withDefaults() SolverOptions {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Epsilon <= 0 {
		o.Epsilon = DefaultEpsilon
	}
	return o
}

// YieldResult holds the yields of a security at a given price. Rates are
// fractions; YieldToMaturity is nominal, i.e. PeriodicYield × frequency.
type YieldResult struct {
	CurrentYield    float64 `json:"current_yield"`
	PeriodicYield   float64 `json:"periodic_yield"`
	YieldToMaturity float64 `json:"yield_to_maturity"`
	Iterations      int     `json:"iterations"`
	Converged       bool    `json:"converged"`
}

// CurrentYield is the annual coupon divided by price. It is zero for
// zero-coupon securities.
func CurrentYield(t Terms, price float64) (float64, error) {
	if !(price > 0) || math.IsInf(price, 1) {
		return 0, apperrors.ErrInvalidPrice
	}
	return t.AnnualCoupon() / price, nil
}

// PresentValue discounts every flow of s at the periodic rate.
func PresentValue(s Schedule, periodicRate float64) float64 {
	pv, _ := presentValueAndDerivative(s, periodicRate)
	return pv
}

// PriceFromYield prices s at an annual nominal yield.
func PriceFromYield(s Schedule, annualYield float64) (float64, error) {
	if len(s.Flows) == 0 {
		return 0, apperrors.ErrEmptySchedule
	}
	r := annualYield / float64(s.Frequency())
	if r <= -1 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Yield must be above -100% per period")
	}
	return PresentValue(s, r), nil
}

// presentValueAndDerivative returns PV(r) and dPV/dr:
//
//	PV    = Σ CFᵢ / (1+r)^tᵢ
//	dPV/dr = Σ −tᵢ · CFᵢ / (1+r)^(tᵢ+1)
func presentValueAndDerivative(s Schedule, r float64) (float64, float64) {
	var pv, deriv float64
	for _, cf := range s.Flows {
		amt := cf.Amount()
		disc := math.Pow(1+r, cf.Periods)
		pv += amt / disc
		deriv -= cf.Periods * amt / (disc * (1 + r))
	}
	return pv, deriv
}

// seedRate is the starting periodic rate: the periodic coupon rate, or a
// fixed 5% a year for securities without coupons.
func seedRate(s Schedule) float64 {
	f := float64(s.Frequency())
	if s.Terms.CouponRate > 0 {
		return s.Terms.CouponRate / f
	}
	return zeroCouponSeed / f
}

// SolveYield finds the periodic rate at which the present value of s equals
// price, using Newton-Raphson with an analytic derivative. It fails rather
// than return an estimate that does not meet the tolerance.
func SolveYield(s Schedule, price float64, opts SolverOptions) (YieldResult, error) {
	currentYield, err := CurrentYield(s.Terms, price)
	if err != nil {
		return YieldResult{}, err
	}
	if len(s.Flows) == 0 {
		return YieldResult{}, apperrors.ErrEmptySchedule
	}

	opts = opts.withDefaults()
	tolerance := opts.Tolerance * s.Terms.FaceValue
	r := seedRate(s)
	perturbed := false

	for i := 1; i <= opts.MaxIterations; i++ {
		pv, deriv := presentValueAndDerivative(s, r)
		diff := pv - price
		if math.Abs(diff) < tolerance {
			return YieldResult{
				CurrentYield:    currentYield,
				PeriodicYield:   r,
				YieldToMaturity: r * float64(s.Frequency()),
				Iterations:      i,
				Converged:       true,
			}, nil
		}

		if math.Abs(deriv) < flatDerivative || math.IsNaN(deriv) {
			if perturbed {
				return YieldResult{Iterations: i}, apperrors.WithMessage(apperrors.ErrYieldNotConverged,
					fmt.Sprintf("Yield derivative vanished at iteration %d", i))
			}
			perturbed = true
			r += opts.Epsilon
			continue
		}

		next := r - diff/deriv
		if next <= -1 {
			// Stay inside the domain where (1+r)^t is defined.
			next = (r - 1) / 2
		}
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return YieldResult{Iterations: i}, apperrors.WithMessage(apperrors.ErrYieldNotConverged,
				fmt.Sprintf("Yield diverged at iteration %d", i))
		}
		r = next
	}

	return YieldResult{Iterations: opts.MaxIterations}, apperrors.WithMessage(apperrors.ErrYieldNotConverged,
		fmt.Sprintf("Yield did not converge after %d iterations", opts.MaxIterations))
}
