package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/models"
	"bondfolio/internal/pagination"
)

// holdingService handles holdings within portfolios.
type holdingService struct {
	db *gorm.DB
}

// NewHoldingService creates a new HoldingServicer.
func NewHoldingService(db *gorm.DB) HoldingServicer {
	return &holdingService{db: db}
}

// AddHolding records a purchase into a portfolio and adds what was paid to the
// portfolio's total invested.
func (s *holdingService) AddHolding(portfolioID string, input AddHoldingInput) (*models.Holding, error) {
	if !input.Quantity.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be positive")
	}
	if !input.PurchasePrice.IsPositive() {
		return nil, apperrors.ErrInvalidPrice
	}
	if input.AccruedInterestPaid.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Accrued interest paid cannot be negative")
	}

	if _, err := findPortfolio(s.db, portfolioID); err != nil {
		return nil, err
	}
	var security models.Security
	if err := s.db.Where("id = ?", input.SecurityID).First(&security).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSecurityNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := checkPurchaseDate(&security, input.PurchaseDate); err != nil {
		return nil, err
	}

	holding := &models.Holding{
		PortfolioID:         portfolioID,
		SecurityID:          security.ID,
		PurchaseDate:        input.PurchaseDate,
		PurchasePrice:       input.PurchasePrice,
		Quantity:            input.Quantity,
		AccruedInterestPaid: input.AccruedInterestPaid,
		IsCurrent:           true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Omit("Security", "Portfolio").Create(holding).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return adjustTotalInvested(tx, portfolioID, holding.InvestedAmount(security.FaceValue))
	})
	if err != nil {
		return nil, err
	}

	holding.Security = security
	return holding, nil
}

// ListHoldings returns a paginated list of a portfolio's holdings. Closed
// holdings are only included when asked for.
func (s *holdingService) ListHoldings(portfolioID string, includeClosed bool, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error) {
	if _, err := findPortfolio(s.db, portfolioID); err != nil {
		return nil, err
	}
	query := func() *gorm.DB {
		q := s.db.Model(&models.Holding{}).Where("portfolio_id = ?", portfolioID)
		if !includeClosed {
			q = q.Where("is_current = ?", true)
		}
		return q
	}

	result, err := pagination.Find[models.Holding](query, "purchase_date ASC", page, preloadSecurity)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

func preloadSecurity(db *gorm.DB) *gorm.DB {
	return db.Preload("Security")
}

// GetHoldingByID returns a holding with its security.
func (s *holdingService) GetHoldingByID(id string) (*models.Holding, error) {
	return findHolding(s.db, id)
}

// UpdateHolding changes the quantity or open state of a holding. A quantity
// change moves the portfolio's total invested by the same amount at the
// original purchase price.
func (s *holdingService) UpdateHolding(id string, input UpdateHoldingInput) (*models.Holding, error) {
	holding, err := findHolding(s.db, id)
	if err != nil {
		return nil, err
	}
	if input.Quantity != nil && !input.Quantity.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be positive")
	}

	updates := map[string]interface{}{}
	var delta decimal.Decimal
	if input.Quantity != nil && !input.Quantity.Equal(holding.Quantity) {
		before := holding.InvestedAmount(holding.Security.FaceValue)
		holding.Quantity = *input.Quantity
		delta = holding.InvestedAmount(holding.Security.FaceValue).Sub(before)
		updates["quantity"] = *input.Quantity
	}
	if input.IsCurrent != nil {
		holding.IsCurrent = *input.IsCurrent
		updates["is_current"] = *input.IsCurrent
	}
	if len(updates) == 0 {
		return holding, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Model(&models.Holding{}).Where("id = ?", id).Updates(updates).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if delta.IsZero() {
			return nil
		}
		return adjustTotalInvested(tx, holding.PortfolioID, delta)
	})
	if err != nil {
		return nil, err
	}
	return holding, nil
}

// CloseHolding marks a holding as no longer held. The row is kept so past
// coupon schedules and snapshots stay explainable.
func (s *holdingService) CloseHolding(id string) error {
	if _, err := findHolding(s.db, id); err != nil {
		return err
	}
	if err := s.db.Model(&models.Holding{}).Where("id = ?", id).Update("is_current", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func findHolding(db *gorm.DB, id string) (*models.Holding, error) {
	var holding models.Holding
	if err := db.Preload("Security").Where("id = ?", id).First(&holding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHoldingNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &holding, nil
}

// checkPurchaseDate requires the purchase to fall within the life of the security.
func checkPurchaseDate(security *models.Security, purchaseDate time.Time) error {
	if purchaseDate.Before(security.IssueDate) || !purchaseDate.Before(security.MaturityDate) {
		return apperrors.WithMessage(apperrors.ErrSettlementOutOfRange,
			"Purchase date must be on or after the issue date and before maturity")
	}
	return nil
}

// adjustTotalInvested adds delta to a portfolio's total invested inside tx.
func adjustTotalInvested(tx *gorm.DB, portfolioID string, delta decimal.Decimal) error {
	var portfolio models.Portfolio
	if err := tx.Where("id = ?", portfolioID).First(&portfolio).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	total := portfolio.TotalInvested.Add(delta)
	if err := tx.Model(&models.Portfolio{}).Where("id = ?", portfolioID).
		Update("total_invested", total).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
