package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/fixedincome"
	"bondfolio/internal/metrics"
	"bondfolio/internal/models"
)

const (
	ratePlaces  = 6
	pricePlaces = 6
	moneyPlaces = 2
)

// analyticsService values holdings and portfolios with the calculation engine.
type analyticsService struct {
	db       *gorm.DB
	analyzer fixedincome.Analyzer
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB, analyzer fixedincome.Analyzer) AnalyticsServicer {
	return &analyticsService{db: db, analyzer: analyzer}
}

// GetHoldingYields values a holding at asOf. When price is nil the latest
// recorded price is used, falling back to the purchase price.
func (s *analyticsService) GetHoldingYields(holdingID string, price *decimal.Decimal, asOf time.Time) (*HoldingYields, error) {
	holding, err := findHolding(s.db, holdingID)
	if err != nil {
		return nil, err
	}
	asOf = valuationDate(asOf)

	var clean decimal.Decimal
	if price != nil {
		clean = *price
	} else {
		latest, err := getLatestPrices(s.db, []string{holding.SecurityID})
		if err != nil {
			return nil, err
		}
		clean, _ = valuationPrice(holding, latest)
	}
	if !clean.IsPositive() {
		return nil, apperrors.ErrInvalidPrice
	}

	an, err := s.analyzer.Analyze(holding.Security.Terms(), asOf, holding.Security.UnitPrice(clean).InexactFloat64())
	metrics.RecordCalculation("holding_yields", err)
	if err != nil {
		return nil, err
	}
	metrics.ObserveSolverIterations(an.Yield.Iterations)

	return newHoldingYields(holding, clean, asOf, an), nil
}

// GetCouponSchedule lists the payments the holding receives after its
// purchase date, scaled by quantity. Payments on or before asOf are PAID.
func (s *analyticsService) GetCouponSchedule(holdingID string, asOf time.Time) (*CouponSchedule, error) {
	holding, err := findHolding(s.db, holdingID)
	if err != nil {
		return nil, err
	}
	asOf = valuationDate(asOf)

	flows, err := s.analyzer.Cache.Schedule(holding.Security.Terms())
	metrics.RecordCalculation("coupon_schedule", err)
	if err != nil {
		return nil, err
	}

	schedule := &CouponSchedule{
		HoldingID:      holding.ID,
		SecurityID:     holding.SecurityID,
		AsOf:           asOf,
		Payments:       []CouponPayment{},
		TotalPaid:      decimal.Zero,
		TotalProjected: decimal.Zero,
	}
	for _, cf := range flows {
		if !cf.Date.After(holding.PurchaseDate) {
			continue
		}
		coupon := decimal.NewFromFloat(cf.Coupon).Mul(holding.Quantity).Round(moneyPlaces)
		principal := decimal.NewFromFloat(cf.Principal).Mul(holding.Quantity).Round(moneyPlaces)
		payment := CouponPayment{
			Date:      cf.Date,
			Coupon:    coupon,
			Principal: principal,
			Amount:    coupon.Add(principal),
			Status:    PaymentStatusProjected,
		}
		if !cf.Date.After(asOf) {
			payment.Status = PaymentStatusPaid
			schedule.TotalPaid = schedule.TotalPaid.Add(payment.Amount)
		} else {
			schedule.TotalProjected = schedule.TotalProjected.Add(payment.Amount)
		}
		schedule.Payments = append(schedule.Payments, payment)
	}
	return schedule, nil
}

// GetPortfolioValuation values every current holding at its latest price,
// or its purchase price when no price has been recorded.
func (s *analyticsService) GetPortfolioValuation(portfolioID string) (*PortfolioValuation, error) {
	if _, err := findPortfolio(s.db, portfolioID); err != nil {
		return nil, err
	}
	holdings, err := currentHoldings(s.db, portfolioID)
	if err != nil {
		return nil, err
	}
	latest, err := getLatestPrices(s.db, uniqueSecurityIDs(holdings))
	if err != nil {
		return nil, err
	}

	valuation := &PortfolioValuation{
		PortfolioID:           portfolioID,
		TotalMarketValue:      decimal.Zero,
		TotalCostBasis:        decimal.Zero,
		UnrealizedGainLoss:    decimal.Zero,
		UnrealizedGainLossPct: decimal.Zero,
		HoldingsCount:         len(holdings),
		Holdings:              make([]HoldingValuation, 0, len(holdings)),
	}
	for i := range holdings {
		h := &holdings[i]
		price, source := valuationPrice(h, latest)
		marketValue := h.Security.UnitPrice(price).Mul(h.Quantity).Round(moneyPlaces)
		costBasis := h.InvestedAmount(h.Security.FaceValue).Round(moneyPlaces)

		valuation.Holdings = append(valuation.Holdings, HoldingValuation{
			HoldingID:    h.ID,
			SecurityID:   h.SecurityID,
			SecurityName: h.Security.Name,
			Quantity:     h.Quantity,
			Price:        price,
			PriceSource:  source,
			MarketValue:  marketValue,
			CostBasis:    costBasis,
			GainLoss:     marketValue.Sub(costBasis),
		})
		valuation.TotalMarketValue = valuation.TotalMarketValue.Add(marketValue)
		valuation.TotalCostBasis = valuation.TotalCostBasis.Add(costBasis)
	}

	valuation.UnrealizedGainLoss = valuation.TotalMarketValue.Sub(valuation.TotalCostBasis)
	if valuation.TotalCostBasis.IsPositive() {
		valuation.UnrealizedGainLossPct = valuation.UnrealizedGainLoss.
			Div(valuation.TotalCostBasis).Mul(hundred).Round(4)
	}
	return valuation, nil
}

// GetPortfolioAnalytics evaluates every live holding concurrently and returns
// the market-value weighted aggregate. Holdings whose security has matured or
// has not yet been issued at asOf are excluded; any other failure fails the
// whole evaluation.
func (s *analyticsService) GetPortfolioAnalytics(ctx context.Context, portfolioID string, asOf time.Time) (*PortfolioAnalytics, error) {
	if _, err := findPortfolio(s.db, portfolioID); err != nil {
		return nil, err
	}
	asOf = valuationDate(asOf)

	holdings, err := currentHoldings(s.db, portfolioID)
	if err != nil {
		return nil, err
	}
	latest, err := getLatestPrices(s.db, uniqueSecurityIDs(holdings))
	if err != nil {
		return nil, err
	}

	var (
		live      []*models.Holding
		prices    []decimal.Decimal
		positions []fixedincome.Position
		excluded  []string
	)
	for i := range holdings {
		h := &holdings[i]
		if h.Security.IsMatured(asOf) || asOf.Before(h.Security.IssueDate) {
			excluded = append(excluded, h.ID)
			continue
		}
		price, _ := valuationPrice(h, latest)
		live = append(live, h)
		prices = append(prices, price)
		positions = append(positions, fixedincome.Position{
			Terms:      h.Security.Terms(),
			CleanPrice: h.Security.UnitPrice(price).InexactFloat64(),
			Quantity:   h.Quantity.InexactFloat64(),
			CostBasis:  h.InvestedAmount(h.Security.FaceValue).InexactFloat64(),
		})
	}
	if len(positions) == 0 {
		return nil, apperrors.ErrEmptyPortfolio
	}

	start := time.Now()
	ev, err := s.analyzer.EvaluatePortfolio(ctx, positions, asOf)
	metrics.PortfolioEvaluationDuration.Observe(time.Since(start).Seconds())
	metrics.RecordCalculation("portfolio_analytics", err)
	if err != nil {
		return nil, err
	}

	result := &PortfolioAnalytics{
		PortfolioID:             portfolioID,
		AsOf:                    asOf,
		WeightedAverageYield:    percent(ev.Metrics.WeightedAverageYield),
		ModifiedDuration:        rounded(ev.Metrics.Duration, ratePlaces),
		Convexity:               rounded(ev.Metrics.Convexity, ratePlaces),
		WeightedAverageMaturity: rounded(ev.Metrics.WeightedAverageMaturity, ratePlaces),
		TotalMarketValue:        rounded(ev.Metrics.TotalMarketValue, moneyPlaces),
		TotalCostBasis:          rounded(ev.Metrics.TotalCostBasis, moneyPlaces),
		HoldingsCount:           ev.Metrics.HoldingsCount,
		Holdings:                make([]HoldingYields, len(ev.Positions)),
		Excluded:                excluded,
	}
	for i, pr := range ev.Positions {
		metrics.ObserveSolverIterations(pr.Analysis.Yield.Iterations)
		result.Holdings[i] = *newHoldingYields(live[i], prices[i], asOf, pr.Analysis)
	}
	return result, nil
}

// newHoldingYields converts an engine analysis into per-100 prices and
// percentage yields.
func newHoldingYields(h *models.Holding, clean decimal.Decimal, asOf time.Time, an fixedincome.Analysis) *HoldingYields {
	accrued := per100(an.AccruedInterest, h.Security.FaceValue)
	return &HoldingYields{
		HoldingID:        h.ID,
		SecurityID:       h.SecurityID,
		AsOf:             asOf,
		CleanPrice:       clean,
		DirtyPrice:       clean.Add(accrued),
		AccruedInterest:  accrued,
		CurrentYield:     percent(an.Yield.CurrentYield),
		YieldToMaturity:  percent(an.Yield.YieldToMaturity),
		MacaulayDuration: rounded(an.Risk.MacaulayDuration, ratePlaces),
		ModifiedDuration: rounded(an.Risk.ModifiedDuration, ratePlaces),
		Convexity:        rounded(an.Risk.Convexity, ratePlaces),
		YearsToMaturity:  rounded(an.YearsToMaturity, ratePlaces),
		Iterations:       an.Yield.Iterations,
	}
}

// valuationDate truncates asOf to its UTC calendar day, defaulting to today.
func valuationDate(asOf time.Time) time.Time {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	y, m, d := asOf.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func percent(f float64) decimal.Decimal {
	return fixedincome.ToPercent(f).Round(ratePlaces)
}

func rounded(f float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(places)
}

// per100 expresses an amount per unit of face value as an amount per 100.
func per100(amount float64, faceValue decimal.Decimal) decimal.Decimal {
	if faceValue.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(amount).Mul(hundred).Div(faceValue).Round(pricePlaces)
}
