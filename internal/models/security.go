package models

import (
	"time"

	"github.com/shopspring/decimal"

	"bondfolio/internal/fixedincome"
)

// Security is a fixed-income instrument. Its terms are immutable once created;
// only descriptive fields may be updated.
type Security struct {
	Base
	Name            string                         `gorm:"not null;uniqueIndex:uq_securities_name_issuer" json:"name"`
	SecurityType    fixedincome.SecurityType       `gorm:"not null;index" json:"security_type"`
	Issuer          string                         `gorm:"not null;uniqueIndex:uq_securities_name_issuer;index" json:"issuer"`
	FaceValue       decimal.Decimal                `gorm:"type:numeric(18,4);not null" json:"face_value" swaggertype:"string"`
	CouponRate      decimal.Decimal                `gorm:"type:numeric(9,6);not null;default:0" json:"coupon_rate" swaggertype:"string"` // percent
	CouponFrequency fixedincome.CouponFrequency    `gorm:"not null" json:"coupon_frequency"`
	IssueDate       time.Time                      `gorm:"type:date;not null" json:"issue_date"`
	MaturityDate    time.Time                      `gorm:"type:date;not null;index" json:"maturity_date"`
	DayCount        fixedincome.DayCountConvention `gorm:"not null" json:"day_count"`
	Currency        string                         `gorm:"not null;default:'USD'" json:"currency"`
	CreditRating    string                         `json:"credit_rating,omitempty"`
}

// Terms returns the contractual terms used by the calculation engine.
func (s *Security) Terms() fixedincome.Terms {
	return fixedincome.Terms{
		FaceValue:    s.FaceValue.InexactFloat64(),
		CouponRate:   fixedincome.FromPercent(s.CouponRate),
		Frequency:    s.CouponFrequency,
		IssueDate:    s.IssueDate,
		MaturityDate: s.MaturityDate,
		DayCount:     s.DayCount,
	}
}

// UnitPrice converts a price quoted per 100 of face value into the price of
// one unit of this security.
func (s *Security) UnitPrice(per100 decimal.Decimal) decimal.Decimal {
	return per100.Mul(s.FaceValue).Div(decimal.NewFromInt(100))
}

// IsMatured reports whether the security has matured on or before asOf.
func (s *Security) IsMatured(asOf time.Time) bool {
	return !s.MaturityDate.After(asOf)
}
