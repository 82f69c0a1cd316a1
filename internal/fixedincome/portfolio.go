package fixedincome

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "bondfolio/internal/errors"
)

// HoldingMetrics are the per-holding inputs to portfolio aggregation.
// Yield is the annual yield to maturity and Duration the modified duration.
type HoldingMetrics struct {
	MarketValue     float64 `json:"market_value"`
	CostBasis       float64 `json:"cost_basis"`
	Yield           float64 `json:"yield"`
	Duration        float64 `json:"duration"`
	Convexity       float64 `json:"convexity"`
	YearsToMaturity float64 `json:"years_to_maturity"`
}

// PortfolioMetrics are market-value weighted averages over the holdings of a
// portfolio. They are always derived and never stored independently.
type PortfolioMetrics struct {
	WeightedAverageYield    float64 `json:"weighted_average_yield"`
	Duration                float64 `json:"duration"`
	Convexity               float64 `json:"convexity"`
	WeightedAverageMaturity float64 `json:"weighted_average_maturity"`
	TotalMarketValue        float64 `json:"total_market_value"`
	TotalCostBasis          float64 `json:"total_cost_basis"`
	HoldingsCount           int     `json:"holdings_count"`
}

// Aggregate weights each holding's metrics by its share of total market value.
// It fails with EMPTY_PORTFOLIO when there is nothing to weight, since a zero
// result would be indistinguishable from a real one.
func Aggregate(holdings []HoldingMetrics) (PortfolioMetrics, error) {
	if len(holdings) == 0 {
		return PortfolioMetrics{}, apperrors.ErrEmptyPortfolio
	}

	var total, cost float64
	for _, h := range holdings {
		total += h.MarketValue
		cost += h.CostBasis
	}
	if !(total > 0) {
		return PortfolioMetrics{}, apperrors.ErrEmptyPortfolio
	}

	m := PortfolioMetrics{
		TotalMarketValue: total,
		TotalCostBasis:   cost,
		HoldingsCount:    len(holdings),
	}
	for _, h := range holdings {
		w := h.MarketValue / total
		m.WeightedAverageYield += w * h.Yield
		m.Duration += w * h.Duration
		m.Convexity += w * h.Convexity
		m.WeightedAverageMaturity += w * h.YearsToMaturity
	}
	return m, nil
}

// Analysis is the full valuation of one security at one settlement date.
type Analysis struct {
	Schedule        Schedule    `json:"schedule"`
	AccruedInterest float64     `json:"accrued_interest"`
	CleanPrice      float64     `json:"clean_price"`
	DirtyPrice      float64     `json:"dirty_price"`
	Yield           YieldResult `json:"yield"`
	Risk            RiskMetrics `json:"risk"`
	YearsToMaturity float64     `json:"years_to_maturity"`
}

// Analyzer runs valuations with fixed solver settings and an optional
// schedule cache. The zero value uses the defaults and no cache.
type Analyzer struct {
	Options SolverOptions
	Cache   *ScheduleCache
}

// Analyze values a security at settlement for a clean price per unit of face
// value held. The yield is solved against the dirty price (clean plus
// accrued), which is what the discounted flows are worth.
func Analyze(t Terms, settlement time.Time, cleanPrice float64, opts SolverOptions) (Analysis, error) {
	return Analyzer{Options: opts}.Analyze(t, settlement, cleanPrice)
}

// Analyze values a security; see the package-level Analyze.
func (a Analyzer) Analyze(t Terms, settlement time.Time, cleanPrice float64) (Analysis, error) {
	flows, err := a.Cache.Schedule(t)
	if err != nil {
		return Analysis{}, err
	}
	s, err := positionFlows(t, flows, settlement)
	if err != nil {
		return Analysis{}, err
	}
	accrued, err := accruedFromFlows(t, flows, settlement)
	if err != nil {
		return Analysis{}, err
	}

	dirty := cleanPrice + accrued
	yield, err := SolveYield(s, dirty, a.Options)
	if err != nil {
		return Analysis{}, err
	}
	if yield.CurrentYield, err = CurrentYield(t, cleanPrice); err != nil {
		return Analysis{}, err
	}
	risk, err := ComputeRiskMetrics(s, yield.YieldToMaturity)
	if err != nil {
		return Analysis{}, err
	}

	return Analysis{
		Schedule:        s,
		AccruedInterest: accrued,
		CleanPrice:      cleanPrice,
		DirtyPrice:      dirty,
		Yield:           yield,
		Risk:            risk,
		YearsToMaturity: s.YearsToMaturity(),
	}, nil
}

// Position is one holding to be valued as part of a portfolio. Prices are per
// unit of face value; Quantity is the number of units held.
type Position struct {
	Terms      Terms
	CleanPrice float64
	Quantity   float64
	CostBasis  float64
}

// PositionResult is the valuation of a single position.
type PositionResult struct {
	Analysis Analysis       `json:"analysis"`
	Metrics  HoldingMetrics `json:"metrics"`
}

// PortfolioEvaluation holds the per-position results, in input order, and
// their aggregate.
type PortfolioEvaluation struct {
	Positions []PositionResult `json:"positions"`
	Metrics   PortfolioMetrics `json:"metrics"`
}

// EvaluatePortfolio analyses every position concurrently and aggregates the
// results once all of them are ready. The first failing position fails the
// evaluation. ctx is checked before each position starts; a running
// calculation is never interrupted.
func (a Analyzer) EvaluatePortfolio(ctx context.Context, positions []Position, settlement time.Time) (PortfolioEvaluation, error) {
	if len(positions) == 0 {
		return PortfolioEvaluation{}, apperrors.ErrEmptyPortfolio
	}

	results := make([]PositionResult, len(positions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range positions {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			an, err := a.Analyze(p.Terms, settlement, p.CleanPrice)
			if err != nil {
				return err
			}
			results[i] = PositionResult{
				Analysis: an,
				Metrics: HoldingMetrics{
					MarketValue:     p.CleanPrice * p.Quantity,
					CostBasis:       p.CostBasis,
					Yield:           an.Yield.YieldToMaturity,
					Duration:        an.Risk.ModifiedDuration,
					Convexity:       an.Risk.Convexity,
					YearsToMaturity: an.YearsToMaturity,
				},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PortfolioEvaluation{}, err
	}

	metrics := make([]HoldingMetrics, len(results))
	for i, r := range results {
		metrics[i] = r.Metrics
	}
	agg, err := Aggregate(metrics)
	if err != nil {
		return PortfolioEvaluation{}, err
	}
	return PortfolioEvaluation{Positions: results, Metrics: agg}, nil
}
