package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/models"
)

var hundred = decimal.NewFromInt(100)

// getLatestPrices returns the most recent recorded price (per 100 of face
// value) for each of the given securities. Securities without a price are
// absent from the result.
func getLatestPrices(db *gorm.DB, securityIDs []string) (map[string]decimal.Decimal, error) {
	if len(securityIDs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	type priceRow struct {
		SecurityID string
		Price      decimal.Decimal
	}
	var rows []priceRow

	subq := db.Table("security_prices").
		Select("security_id, MAX(recorded_at) AS max_recorded").
		Where("security_id IN ?", securityIDs).
		Group("security_id")

	if err := db.Table("security_prices sp").
		Select("sp.security_id, sp.price").
		Joins("INNER JOIN (?) latest ON sp.security_id = latest.security_id AND sp.recorded_at = latest.max_recorded", subq).
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		result[r.SecurityID] = r.Price
	}
	return result, nil
}

// uniqueSecurityIDs collects the distinct security IDs of the holdings.
func uniqueSecurityIDs(holdings []models.Holding) []string {
	seen := make(map[string]bool, len(holdings))
	ids := make([]string, 0, len(holdings))
	for i := range holdings {
		if id := holdings[i].SecurityID; !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
