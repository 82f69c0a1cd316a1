// Package fixedincome is the calculation engine for fixed-income securities:
// day counts, coupon schedules, accrued interest, yield to maturity, duration,
// convexity and market-value weighted portfolio aggregation.
//
// Every function is a pure function of its arguments. Rates are fractions
// (0.045 for 4.5%); callers holding whole-number percentages convert with
// FromPercent and ToPercent at their boundary.
package fixedincome

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "bondfolio/internal/errors"
)

// CouponFrequency is the number of coupon payments per year, as a stable tag.
type CouponFrequency string

const (
	FrequencyMonthly    CouponFrequency = "MONTHLY"
	FrequencyQuarterly  CouponFrequency = "QUARTERLY"
	FrequencySemiAnnual CouponFrequency = "SEMI_ANNUAL"
	FrequencyAnnual     CouponFrequency = "ANNUAL"
	FrequencyZeroCoupon CouponFrequency = "ZERO_COUPON"
)

// PaymentsPerYear returns the number of coupons paid per year. It returns -1
// for an unknown tag.
func (f CouponFrequency) PaymentsPerYear() int {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencySemiAnnual:
		return 2
	case FrequencyAnnual:
		return 1
	case FrequencyZeroCoupon:
		return 0
	}
	return -1
}

// Valid reports whether f is a known frequency tag.
func (f CouponFrequency) Valid() bool { return f.PaymentsPerYear() >= 0 }

// DayCountConvention selects how a date span becomes a year fraction.
type DayCountConvention string

const (
	DayCountAct360    DayCountConvention = "ACT_360"
	DayCountAct365    DayCountConvention = "ACT_365"
	DayCountThirty360 DayCountConvention = "THIRTY_360"
	DayCountActAct    DayCountConvention = "ACT_ACT"
)

// Valid reports whether c is a known convention tag.
func (c DayCountConvention) Valid() bool {
	switch c {
	case DayCountAct360, DayCountAct365, DayCountThirty360, DayCountActAct:
		return true
	}
	return false
}

// SecurityType classifies an instrument. It does not change any calculation.
type SecurityType string

const (
	SecurityTypeGovernmentBond SecurityType = "GOVERNMENT_BOND"
	SecurityTypeCorporateBond  SecurityType = "CORPORATE_BOND"
	SecurityTypeTBill          SecurityType = "T_BILL"
	SecurityTypeCD             SecurityType = "CD"
	SecurityTypeDebenture      SecurityType = "DEBENTURE"
)

// Valid reports whether t is a known security type tag.
func (t SecurityType) Valid() bool {
	switch t {
	case SecurityTypeGovernmentBond, SecurityTypeCorporateBond, SecurityTypeTBill, SecurityTypeCD, SecurityTypeDebenture:
		return true
	}
	return false
}

// Terms are the immutable contractual terms of a security.
type Terms struct {
	FaceValue    float64
	CouponRate   float64 // annual, as a fraction
	Frequency    CouponFrequency
	IssueDate    time.Time
	MaturityDate time.Time
	DayCount     DayCountConvention
}

// Validate checks the invariants every calculation relies on.
func (t Terms) Validate() error {
	if t.FaceValue <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidTerms, "Face value must be positive")
	}
	if t.CouponRate < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidTerms, "Coupon rate cannot be negative")
	}
	if !t.Frequency.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidTerms, "Unknown coupon frequency "+string(t.Frequency))
	}
	if t.Frequency == FrequencyZeroCoupon && t.CouponRate != 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidTerms, "Zero-coupon securities cannot carry a coupon rate")
	}
	if !t.DayCount.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidTerms, "Unknown day count convention "+string(t.DayCount))
	}
	if !day(t.MaturityDate).After(day(t.IssueDate)) {
		return apperrors.WithMessage(apperrors.ErrInvalidDateRange, "Maturity date must be after issue date")
	}
	return nil
}

// PeriodCoupon is the amount paid on each coupon date.
func (t Terms) PeriodCoupon() float64 {
	n := t.Frequency.PaymentsPerYear()
	if n <= 0 {
		return 0
	}
	return t.FaceValue * t.CouponRate / float64(n)
}

// AnnualCoupon is the total coupon paid over a year.
func (t Terms) AnnualCoupon() float64 {
	return t.FaceValue * t.CouponRate
}

var hundred = decimal.NewFromInt(100)

// FromPercent converts a whole-number percentage (4.5) to a fraction (0.045).
func FromPercent(p decimal.Decimal) float64 {
	return p.Div(hundred).InexactFloat64()
}

// ToPercent converts a fraction (0.045) to a whole-number percentage (4.5).
func ToPercent(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Mul(hundred)
}
