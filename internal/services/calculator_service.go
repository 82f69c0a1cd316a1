package services

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/fixedincome"
	"bondfolio/internal/metrics"
)

// calculatorService runs the calculation engine on terms supplied by the
// caller. Nothing is read from or written to the database.
type calculatorService struct {
	analyzer fixedincome.Analyzer
}

// NewCalculatorService creates a new CalculatorServicer.
func NewCalculatorService(analyzer fixedincome.Analyzer) CalculatorServicer {
	return &calculatorService{analyzer: analyzer}
}

func (in TermsInput) terms() fixedincome.Terms {
	return fixedincome.Terms{
		FaceValue:    in.FaceValue.InexactFloat64(),
		CouponRate:   fixedincome.FromPercent(in.CouponRate),
		Frequency:    in.CouponFrequency,
		IssueDate:    in.IssueDate,
		MaturityDate: in.MaturityDate,
		DayCount:     in.DayCount,
	}
}

// unitPrice converts a per-100 quote into the price of one unit of face value.
func (in TermsInput) unitPrice(per100 decimal.Decimal) float64 {
	return per100.Mul(in.FaceValue).Div(hundred).InexactFloat64()
}

// CalculateYield solves the yield and risk measures at a clean price per 100.
func (s *calculatorService) CalculateYield(in TermsInput, settlement time.Time, cleanPrice decimal.Decimal) (*YieldCalculation, error) {
	if !cleanPrice.IsPositive() {
		return nil, apperrors.ErrInvalidPrice
	}
	settlement = valuationDate(settlement)

	an, err := s.analyzer.Analyze(in.terms(), settlement, in.unitPrice(cleanPrice))
	metrics.RecordCalculation("calculate_yield", err)
	if err != nil {
		return nil, err
	}
	metrics.ObserveSolverIterations(an.Yield.Iterations)

	accrued := per100(an.AccruedInterest, in.FaceValue)
	return &YieldCalculation{
		Settlement:       settlement,
		CleanPrice:       cleanPrice,
		DirtyPrice:       cleanPrice.Add(accrued),
		AccruedInterest:  accrued,
		CurrentYield:     percent(an.Yield.CurrentYield),
		YieldToMaturity:  percent(an.Yield.YieldToMaturity),
		MacaulayDuration: rounded(an.Risk.MacaulayDuration, ratePlaces),
		ModifiedDuration: rounded(an.Risk.ModifiedDuration, ratePlaces),
		Convexity:        rounded(an.Risk.Convexity, ratePlaces),
		YearsToMaturity:  rounded(an.YearsToMaturity, ratePlaces),
		Iterations:       an.Yield.Iterations,
	}, nil
}

// CalculatePrice prices the terms at an annual yield given as a percentage.
func (s *calculatorService) CalculatePrice(in TermsInput, settlement time.Time, yieldPct decimal.Decimal) (*PriceCalculation, error) {
	settlement = valuationDate(settlement)
	terms := in.terms()

	price, err := s.price(terms, settlement, fixedincome.FromPercent(yieldPct))
	metrics.RecordCalculation("calculate_price", err)
	if err != nil {
		return nil, err
	}

	dirty := per100(price.dirty, in.FaceValue)
	accrued := per100(price.accrued, in.FaceValue)
	return &PriceCalculation{
		Settlement:      settlement,
		YieldToMaturity: yieldPct,
		CleanPrice:      dirty.Sub(accrued),
		DirtyPrice:      dirty,
		AccruedInterest: accrued,
	}, nil
}

type pricing struct {
	dirty   float64
	accrued float64
}

func (s *calculatorService) price(terms fixedincome.Terms, settlement time.Time, annualYield float64) (pricing, error) {
	schedule, err := s.analyzer.Cache.NewSchedule(terms, settlement)
	if err != nil {
		return pricing{}, err
	}
	dirty, err := fixedincome.PriceFromYield(schedule, annualYield)
	if err != nil {
		return pricing{}, err
	}
	accrued, err := s.analyzer.Cache.AccruedInterest(terms, settlement)
	if err != nil {
		return pricing{}, err
	}
	return pricing{dirty: dirty, accrued: accrued}, nil
}

// CalculateAccruedInterest returns the accrued interest per unit of face value.
func (s *calculatorService) CalculateAccruedInterest(in TermsInput, settlement time.Time) (decimal.Decimal, error) {
	accrued, err := s.analyzer.Cache.AccruedInterest(in.terms(), valuationDate(settlement))
	metrics.RecordCalculation("accrued_interest", err)
	if err != nil {
		return decimal.Zero, err
	}
	return rounded(accrued, pricePlaces), nil
}

// GenerateSchedule returns every cash flow of the terms, per unit of face value.
func (s *calculatorService) GenerateSchedule(in TermsInput) ([]fixedincome.CashFlow, error) {
	flows, err := s.analyzer.Cache.Schedule(in.terms())
	metrics.RecordCalculation("generate_schedule", err)
	return flows, err
}
