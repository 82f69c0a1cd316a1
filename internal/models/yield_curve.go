package models

import (
	"time"

	"github.com/shopspring/decimal"

	"bondfolio/internal/uuid"

	"gorm.io/gorm"
)

// YieldCurvePoint is one observed rate on a named curve. Points are stored and
// listed as recorded; nothing is interpolated between them.
type YieldCurvePoint struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	CurveName   string          `gorm:"not null;uniqueIndex:uq_yield_curve_points" json:"curve_name"`
	CurveDate   time.Time       `gorm:"type:date;not null;uniqueIndex:uq_yield_curve_points" json:"curve_date"`
	Tenor       string          `gorm:"not null;uniqueIndex:uq_yield_curve_points" json:"tenor"`
	TenorMonths int             `gorm:"not null" json:"tenor_months"`
	Rate        decimal.Decimal `gorm:"type:numeric(9,6);not null" json:"rate" swaggertype:"string"` // percent
	CreatedAt   time.Time       `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *YieldCurvePoint) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
