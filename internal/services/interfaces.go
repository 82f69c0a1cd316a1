package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bondfolio/internal/fixedincome"
	"bondfolio/internal/models"
	"bondfolio/internal/pagination"
)

// CreateSecurityInput holds the terms of a new security. Rates are percentages.
type CreateSecurityInput struct {
	Name            string
	SecurityType    fixedincome.SecurityType
	Issuer          string
	FaceValue       decimal.Decimal
	CouponRate      decimal.Decimal
	CouponFrequency fixedincome.CouponFrequency
	IssueDate       time.Time
	MaturityDate    time.Time
	DayCount        fixedincome.DayCountConvention
	Currency        string
	CreditRating    string
}

// UpdateSecurityInput holds the mutable fields of a security. Nil fields are left unchanged.
type UpdateSecurityInput struct {
	Name         *string
	CouponRate   *decimal.Decimal
	CreditRating *string
}

// SecurityFilter holds optional filter parameters for listing securities.
type SecurityFilter struct {
	SecurityType *fixedincome.SecurityType
	Issuer       string
}

// SecurityPriceInput is a single price observation, quoted per 100 of face value.
type SecurityPriceInput struct {
	SecurityID string
	Price      decimal.Decimal
	RecordedAt time.Time
}

// SecurityServicer defines the contract for security master data and prices.
type SecurityServicer interface {
	CreateSecurity(input CreateSecurityInput) (*models.Security, error)
	GetSecurityByID(id string) (*models.Security, error)
	ListSecurities(filter SecurityFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Security], error)
	UpdateSecurity(id string, input UpdateSecurityInput) (*models.Security, error)
	DeleteSecurity(id string) error
	RecordPrices(prices []SecurityPriceInput) (int, error)
	GetPriceHistory(securityID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.SecurityPrice], error)
}

// PortfolioServicer defines the contract for portfolio management.
type PortfolioServicer interface {
	CreatePortfolio(name, description, currency string) (*models.Portfolio, error)
	ListPortfolios(page pagination.PageRequest) (*pagination.PageResponse[models.Portfolio], error)
	GetPortfolioByID(id string) (*models.Portfolio, error)
	DeletePortfolio(id string) error
}

// AddHoldingInput describes a purchase. Prices are per 100 of face value.
type AddHoldingInput struct {
	SecurityID          string
	PurchaseDate        time.Time
	PurchasePrice       decimal.Decimal
	Quantity            decimal.Decimal
	AccruedInterestPaid decimal.Decimal
}

// UpdateHoldingInput holds the mutable fields of a holding. Nil fields are left unchanged.
type UpdateHoldingInput struct {
	Quantity  *decimal.Decimal
	IsCurrent *bool
}

// HoldingServicer defines the contract for holdings within a portfolio.
type HoldingServicer interface {
	AddHolding(portfolioID string, input AddHoldingInput) (*models.Holding, error)
	ListHoldings(portfolioID string, includeClosed bool, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error)
	GetHoldingByID(id string) (*models.Holding, error)
	UpdateHolding(id string, input UpdateHoldingInput) (*models.Holding, error)
	CloseHolding(id string) error
}

// HoldingYields are the yield and risk measures of one holding. Yields are
// percentages; prices are per 100 of face value.
type HoldingYields struct {
	HoldingID        string          `json:"holding_id"`
	SecurityID       string          `json:"security_id"`
	AsOf             time.Time       `json:"as_of"`
	CleanPrice       decimal.Decimal `json:"clean_price" swaggertype:"string"`
	DirtyPrice       decimal.Decimal `json:"dirty_price" swaggertype:"string"`
	AccruedInterest  decimal.Decimal `json:"accrued_interest" swaggertype:"string"`
	CurrentYield     decimal.Decimal `json:"current_yield" swaggertype:"string"`
	YieldToMaturity  decimal.Decimal `json:"yield_to_maturity" swaggertype:"string"`
	MacaulayDuration decimal.Decimal `json:"macaulay_duration" swaggertype:"string"`
	ModifiedDuration decimal.Decimal `json:"modified_duration" swaggertype:"string"`
	Convexity        decimal.Decimal `json:"convexity" swaggertype:"string"`
	YearsToMaturity  decimal.Decimal `json:"years_to_maturity" swaggertype:"string"`
	Iterations       int             `json:"iterations"`
}

// PaymentStatus marks a scheduled payment as received or still to come.
type PaymentStatus string

const (
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusProjected PaymentStatus = "PROJECTED"
)

// CouponPayment is a scheduled payment for the whole holding.
type CouponPayment struct {
	Date      time.Time       `json:"date"`
	Coupon    decimal.Decimal `json:"coupon" swaggertype:"string"`
	Principal decimal.Decimal `json:"principal" swaggertype:"string"`
	Amount    decimal.Decimal `json:"amount" swaggertype:"string"`
	Status    PaymentStatus   `json:"status"`
}

// CouponSchedule lists the payments a holding receives after its purchase date.
type CouponSchedule struct {
	HoldingID      string          `json:"holding_id"`
	SecurityID     string          `json:"security_id"`
	AsOf           time.Time       `json:"as_of"`
	Payments       []CouponPayment `json:"payments"`
	TotalPaid      decimal.Decimal `json:"total_paid" swaggertype:"string"`
	TotalProjected decimal.Decimal `json:"total_projected" swaggertype:"string"`
}

// PriceSource tells where a valuation price came from.
type PriceSource string

const (
	PriceSourceMarket   PriceSource = "MARKET"
	PriceSourcePurchase PriceSource = "PURCHASE"
)

// HoldingValuation is the market value of one holding.
type HoldingValuation struct {
	HoldingID    string          `json:"holding_id"`
	SecurityID   string          `json:"security_id"`
	SecurityName string          `json:"security_name"`
	Quantity     decimal.Decimal `json:"quantity" swaggertype:"string"`
	Price        decimal.Decimal `json:"price" swaggertype:"string"`
	PriceSource  PriceSource     `json:"price_source"`
	MarketValue  decimal.Decimal `json:"market_value" swaggertype:"string"`
	CostBasis    decimal.Decimal `json:"cost_basis" swaggertype:"string"`
	GainLoss     decimal.Decimal `json:"gain_loss" swaggertype:"string"`
}

// PortfolioValuation totals the market value of a portfolio's current holdings.
type PortfolioValuation struct {
	PortfolioID           string             `json:"portfolio_id"`
	TotalMarketValue      decimal.Decimal    `json:"total_market_value" swaggertype:"string"`
	TotalCostBasis        decimal.Decimal    `json:"total_cost_basis" swaggertype:"string"`
	UnrealizedGainLoss    decimal.Decimal    `json:"unrealized_gain_loss" swaggertype:"string"`
	UnrealizedGainLossPct decimal.Decimal    `json:"unrealized_gain_loss_pct" swaggertype:"string"`
	HoldingsCount         int                `json:"holdings_count"`
	Holdings              []HoldingValuation `json:"holdings"`
}

// PortfolioAnalytics are the market-value weighted risk measures of a
// portfolio. Holdings matured or not yet issued at AsOf are listed in Excluded.
type PortfolioAnalytics struct {
	PortfolioID             string          `json:"portfolio_id"`
	AsOf                    time.Time       `json:"as_of"`
	WeightedAverageYield    decimal.Decimal `json:"weighted_average_yield" swaggertype:"string"`
	ModifiedDuration        decimal.Decimal `json:"modified_duration" swaggertype:"string"`
	Convexity               decimal.Decimal `json:"convexity" swaggertype:"string"`
	WeightedAverageMaturity decimal.Decimal `json:"weighted_average_maturity" swaggertype:"string"`
	TotalMarketValue        decimal.Decimal `json:"total_market_value" swaggertype:"string"`
	TotalCostBasis          decimal.Decimal `json:"total_cost_basis" swaggertype:"string"`
	HoldingsCount           int             `json:"holdings_count"`
	Holdings                []HoldingYields `json:"holdings"`
	Excluded                []string        `json:"excluded,omitempty"`
}

// AnalyticsServicer defines the contract for holding and portfolio analytics.
type AnalyticsServicer interface {
	GetHoldingYields(holdingID string, price *decimal.Decimal, asOf time.Time) (*HoldingYields, error)
	GetCouponSchedule(holdingID string, asOf time.Time) (*CouponSchedule, error)
	GetPortfolioValuation(portfolioID string) (*PortfolioValuation, error)
	GetPortfolioAnalytics(ctx context.Context, portfolioID string, asOf time.Time) (*PortfolioAnalytics, error)
}

// TermsInput are inline security terms for the calculator. Rates are percentages.
type TermsInput struct {
	FaceValue       decimal.Decimal
	CouponRate      decimal.Decimal
	CouponFrequency fixedincome.CouponFrequency
	IssueDate       time.Time
	MaturityDate    time.Time
	DayCount        fixedincome.DayCountConvention
}

// YieldCalculation is the result of pricing inline terms at a clean price.
type YieldCalculation struct {
	Settlement       time.Time       `json:"settlement"`
	CleanPrice       decimal.Decimal `json:"clean_price" swaggertype:"string"`
	DirtyPrice       decimal.Decimal `json:"dirty_price" swaggertype:"string"`
	AccruedInterest  decimal.Decimal `json:"accrued_interest" swaggertype:"string"`
	CurrentYield     decimal.Decimal `json:"current_yield" swaggertype:"string"`
	YieldToMaturity  decimal.Decimal `json:"yield_to_maturity" swaggertype:"string"`
	MacaulayDuration decimal.Decimal `json:"macaulay_duration" swaggertype:"string"`
	ModifiedDuration decimal.Decimal `json:"modified_duration" swaggertype:"string"`
	Convexity        decimal.Decimal `json:"convexity" swaggertype:"string"`
	YearsToMaturity  decimal.Decimal `json:"years_to_maturity" swaggertype:"string"`
	Iterations       int             `json:"iterations"`
}

// PriceCalculation is the result of pricing inline terms at a yield.
type PriceCalculation struct {
	Settlement      time.Time       `json:"settlement"`
	YieldToMaturity decimal.Decimal `json:"yield_to_maturity" swaggertype:"string"`
	CleanPrice      decimal.Decimal `json:"clean_price" swaggertype:"string"`
	DirtyPrice      decimal.Decimal `json:"dirty_price" swaggertype:"string"`
	AccruedInterest decimal.Decimal `json:"accrued_interest" swaggertype:"string"`
}

// CalculatorServicer exposes the calculation engine on inline terms. Prices
// are per 100 of face value; accrued interest is per unit of face value.
type CalculatorServicer interface {
	CalculateYield(terms TermsInput, settlement time.Time, cleanPrice decimal.Decimal) (*YieldCalculation, error)
	CalculatePrice(terms TermsInput, settlement time.Time, yieldPct decimal.Decimal) (*PriceCalculation, error)
	CalculateAccruedInterest(terms TermsInput, settlement time.Time) (decimal.Decimal, error)
	GenerateSchedule(terms TermsInput) ([]fixedincome.CashFlow, error)
}

// YieldCurvePointInput is one observed rate. Rate is a percentage.
type YieldCurvePointInput struct {
	CurveName string
	CurveDate time.Time
	Tenor     string
	Rate      decimal.Decimal
}

// YieldCurveServicer defines the contract for stored yield curves.
type YieldCurveServicer interface {
	RecordPoints(points []YieldCurvePointInput) (int, error)
	GetCurve(curveName string, curveDate *time.Time) ([]models.YieldCurvePoint, error)
}

// PortfolioSnapshotServicer defines the contract for recorded portfolio analytics.
type PortfolioSnapshotServicer interface {
	ComputeAndRecordSnapshots(ctx context.Context, recordedAt time.Time) (int, error)
	GetSnapshots(portfolioID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
