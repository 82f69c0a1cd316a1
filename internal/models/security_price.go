package models

import (
	"time"

	"github.com/shopspring/decimal"

	"bondfolio/internal/uuid"

	"gorm.io/gorm"
)

// SecurityPrice is a clean market price quoted per 100 of face value.
// This is immutable time-series data, so it has no Base embed and no soft deletes.
type SecurityPrice struct {
	ID         string          `gorm:"type:uuid;primaryKey" json:"id"`
	SecurityID string          `gorm:"type:uuid;not null;uniqueIndex:uq_security_prices_security_recorded" json:"security_id"`
	Price      decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"price" swaggertype:"string"`
	RecordedAt time.Time       `gorm:"not null;uniqueIndex:uq_security_prices_security_recorded" json:"recorded_at"`
	Security   Security        `gorm:"foreignKey:SecurityID" json:"-"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (s *SecurityPrice) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New()
	}
	return nil
}
