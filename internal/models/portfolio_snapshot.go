package models

import (
	"time"

	"github.com/shopspring/decimal"

	"bondfolio/internal/uuid"

	"gorm.io/gorm"
)

// PortfolioSnapshot records a portfolio's analytics at a point in time.
// This is immutable time-series data, so it has no Base embed and no soft deletes.
type PortfolioSnapshot struct {
	ID                      string          `gorm:"type:uuid;primaryKey" json:"id"`
	PortfolioID             string          `gorm:"type:uuid;not null;index;uniqueIndex:uq_portfolio_snapshots_portfolio_recorded" json:"portfolio_id"`
	RecordedAt              time.Time       `gorm:"not null;uniqueIndex:uq_portfolio_snapshots_portfolio_recorded" json:"recorded_at"`
	TotalMarketValue        decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"total_market_value" swaggertype:"string"`
	TotalCostBasis          decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"total_cost_basis" swaggertype:"string"`
	WeightedAverageYield    decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"weighted_average_yield" swaggertype:"string"`
	ModifiedDuration        decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"modified_duration" swaggertype:"string"`
	Convexity               decimal.Decimal `gorm:"type:numeric(14,6);not null" json:"convexity" swaggertype:"string"`
	WeightedAverageMaturity decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"weighted_average_maturity" swaggertype:"string"`
	HoldingsCount           int             `gorm:"not null" json:"holdings_count"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *PortfolioSnapshot) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
