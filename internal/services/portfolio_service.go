package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/models"
	"bondfolio/internal/pagination"
)

// portfolioService handles portfolio-related business logic.
type portfolioService struct {
	db *gorm.DB
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB) PortfolioServicer {
	return &portfolioService{db: db}
}

// CreatePortfolio creates an empty portfolio.
func (s *portfolioService) CreatePortfolio(name, description, currency string) (*models.Portfolio, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Name is required")
	}
	if currency == "" {
		currency = "USD"
	}

	portfolio := &models.Portfolio{
		Name:          strings.TrimSpace(name),
		Description:   description,
		Currency:      currency,
		TotalInvested: decimal.Zero,
	}
	if err := s.db.Create(portfolio).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return portfolio, nil
}

// ListPortfolios returns a paginated list of portfolios ordered by name.
func (s *portfolioService) ListPortfolios(page pagination.PageRequest) (*pagination.PageResponse[models.Portfolio], error) {
	query := func() *gorm.DB { return s.db.Model(&models.Portfolio{}) }
	result, err := pagination.Find[models.Portfolio](query, "name ASC", page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetPortfolioByID returns a portfolio with its current holdings count and
// value populated.
func (s *portfolioService) GetPortfolioByID(id string) (*models.Portfolio, error) {
	portfolio, err := findPortfolio(s.db, id)
	if err != nil {
		return nil, err
	}

	holdings, err := currentHoldings(s.db, id)
	if err != nil {
		return nil, err
	}
	prices, err := getLatestPrices(s.db, uniqueSecurityIDs(holdings))
	if err != nil {
		return nil, err
	}

	portfolio.HoldingsCount = int64(len(holdings))
	portfolio.CurrentValue = decimal.Zero
	for i := range holdings {
		price, _ := valuationPrice(&holdings[i], prices)
		portfolio.CurrentValue = portfolio.CurrentValue.Add(
			holdings[i].Security.UnitPrice(price).Mul(holdings[i].Quantity))
	}
	return portfolio, nil
}

// DeletePortfolio soft-deletes a portfolio together with its holdings.
func (s *portfolioService) DeletePortfolio(id string) error {
	portfolio, err := findPortfolio(s.db, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("portfolio_id = ?", id).Delete(&models.Holding{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(portfolio).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func findPortfolio(db *gorm.DB, id string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := db.Where("id = ?", id).First(&portfolio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPortfolioNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &portfolio, nil
}

// currentHoldings loads the open holdings of a portfolio with their securities.
func currentHoldings(db *gorm.DB, portfolioID string) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := db.Preload("Security").
		Where("portfolio_id = ? AND is_current = ?", portfolioID, true).
		Order("purchase_date ASC").
		Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return holdings, nil
}

// valuationPrice picks the latest market price of the holding's security,
// falling back to what was paid for it.
func valuationPrice(h *models.Holding, latest map[string]decimal.Decimal) (decimal.Decimal, PriceSource) {
	if p, ok := latest[h.SecurityID]; ok {
		return p, PriceSourceMarket
	}
	return h.PurchasePrice, PriceSourcePurchase
}
