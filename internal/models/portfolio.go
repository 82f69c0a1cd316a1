package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio groups holdings of fixed-income securities.
type Portfolio struct {
	Base
	Name          string          `gorm:"not null" json:"name"`
	Description   string          `json:"description,omitempty"`
	Currency      string          `gorm:"not null;default:'USD'" json:"currency"`
	TotalInvested decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"total_invested" swaggertype:"string"`

	// Populated at query time
	HoldingsCount int64           `gorm:"-" json:"holdings_count"`
	CurrentValue  decimal.Decimal `gorm:"-" json:"current_value" swaggertype:"string"`

	Holdings []Holding `gorm:"foreignKey:PortfolioID" json:"holdings,omitempty"`
}

// Holding is a position in one security. Prices are quoted per 100 of face
// value and Quantity counts units of the security's face value. Closing a
// holding clears IsCurrent rather than deleting the row.
type Holding struct {
	Base
	PortfolioID         string          `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	SecurityID          string          `gorm:"type:uuid;not null;index" json:"security_id"`
	PurchaseDate        time.Time       `gorm:"type:date;not null" json:"purchase_date"`
	PurchasePrice       decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"purchase_price" swaggertype:"string"`
	Quantity            decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"quantity" swaggertype:"string"`
	AccruedInterestPaid decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"accrued_interest_paid" swaggertype:"string"`
	IsCurrent           bool            `gorm:"not null;default:true;index" json:"is_current"`

	Security  Security  `gorm:"foreignKey:SecurityID" json:"security"`
	Portfolio Portfolio `gorm:"foreignKey:PortfolioID" json:"-"`
}

// InvestedAmount is what was paid for the holding, excluding accrued interest.
func (h *Holding) InvestedAmount(faceValue decimal.Decimal) decimal.Decimal {
	return h.PurchasePrice.Mul(faceValue).Mul(h.Quantity).Div(decimal.NewFromInt(100))
}
