package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/models"
	"bondfolio/internal/pagination"
)

// securityService handles security-related business logic.
type securityService struct {
	db *gorm.DB
}

// NewSecurityService creates a new SecurityServicer.
func NewSecurityService(db *gorm.DB) SecurityServicer {
	return &securityService{db: db}
}

// CreateSecurity validates the terms through the calculation engine and stores
// the security.
func (s *securityService) CreateSecurity(input CreateSecurityInput) (*models.Security, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Name is required")
	}
	if strings.TrimSpace(input.Issuer) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Issuer is required")
	}
	if !input.SecurityType.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown security type "+string(input.SecurityType))
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	security := &models.Security{
		Name:            strings.TrimSpace(input.Name),
		SecurityType:    input.SecurityType,
		Issuer:          strings.TrimSpace(input.Issuer),
		FaceValue:       input.FaceValue,
		CouponRate:      input.CouponRate,
		CouponFrequency: input.CouponFrequency,
		IssueDate:       input.IssueDate,
		MaturityDate:    input.MaturityDate,
		DayCount:        input.DayCount,
		Currency:        input.Currency,
		CreditRating:    input.CreditRating,
	}
	if err := security.Terms().Validate(); err != nil {
		return nil, err
	}

	if err := s.db.Create(security).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateSecurity
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return security, nil
}

// GetSecurityByID returns a security by its ID.
func (s *securityService) GetSecurityByID(id string) (*models.Security, error) {
	var security models.Security
	if err := s.db.Where("id = ?", id).First(&security).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSecurityNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &security, nil
}

// ListSecurities returns a paginated list of securities ordered by maturity.
func (s *securityService) ListSecurities(filter SecurityFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Security], error) {
	query := func() *gorm.DB {
		q := s.db.Model(&models.Security{})
		if filter.SecurityType != nil {
			q = q.Where("security_type = ?", *filter.SecurityType)
		}
		if filter.Issuer != "" {
			q = q.Where("LOWER(issuer) LIKE ?", "%"+strings.ToLower(filter.Issuer)+"%")
		}
		return q
	}

	result, err := pagination.Find[models.Security](query, "maturity_date ASC, name ASC", page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// UpdateSecurity updates the descriptive fields of a security. The coupon
// rate may be corrected, but only to a value the terms still accept.
func (s *securityService) UpdateSecurity(id string, input UpdateSecurityInput) (*models.Security, error) {
	security, err := s.GetSecurityByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Name cannot be empty")
		}
		security.Name = name
		updates["name"] = name
	}
	if input.CouponRate != nil {
		security.CouponRate = *input.CouponRate
		if err := security.Terms().Validate(); err != nil {
			return nil, err
		}
		updates["coupon_rate"] = *input.CouponRate
	}
	if input.CreditRating != nil {
		security.CreditRating = *input.CreditRating
		updates["credit_rating"] = *input.CreditRating
	}
	if len(updates) == 0 {
		return security, nil
	}

	if err := s.db.Model(security).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateSecurity
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return security, nil
}

// DeleteSecurity soft-deletes a security that no current holding references.
func (s *securityService) DeleteSecurity(id string) error {
	security, err := s.GetSecurityByID(id)
	if err != nil {
		return err
	}

	var held int64
	if err := s.db.Model(&models.Holding{}).
		Where("security_id = ? AND is_current = ?", id, true).
		Count(&held).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if held > 0 {
		return apperrors.ErrSecurityInUse
	}

	if err := s.db.Delete(security).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RecordPrices bulk-inserts price entries, skipping duplicates.
func (s *securityService) RecordPrices(prices []SecurityPriceInput) (int, error) {
	if len(prices) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Prices array is empty")
	}
	for _, p := range prices {
		if !p.Price.IsPositive() {
			return 0, apperrors.ErrInvalidPrice
		}
	}

	count := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range prices {
			var exists int64
			if err := tx.Model(&models.Security{}).Where("id = ?", p.SecurityID).Count(&exists).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if exists == 0 {
				return apperrors.WithMessage(apperrors.ErrSecurityNotFound, "Security "+p.SecurityID+" not found")
			}

			sp := models.SecurityPrice{
				SecurityID: p.SecurityID,
				Price:      p.Price,
				RecordedAt: p.RecordedAt,
			}
			result := tx.Where("security_id = ? AND recorded_at = ?", sp.SecurityID, sp.RecordedAt).
				FirstOrCreate(&sp)
			if result.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
			}
			if result.RowsAffected > 0 {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// GetPriceHistory returns paginated price history for a security within a date range.
func (s *securityService) GetPriceHistory(
	securityID string,
	from, to time.Time,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.SecurityPrice], error) {
	if to.Before(from) {
		return nil, apperrors.ErrInvalidDateRange
	}
	if _, err := s.GetSecurityByID(securityID); err != nil {
		return nil, err
	}
	query := func() *gorm.DB {
		return s.db.Model(&models.SecurityPrice{}).
			Where("security_id = ? AND recorded_at >= ? AND recorded_at <= ?", securityID, from, to)
	}

	result, err := pagination.Find[models.SecurityPrice](query, "recorded_at DESC", page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// isUniqueConstraintError checks if a GORM error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "duplicate key value violates unique constraint") // PostgreSQL
}
