package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bondfolio/internal/fixedincome"
	"bondfolio/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestSecurity creates a 10-year 4.5% semi-annual bond with a face
// value of 1000, issued 2020-01-15 and maturing 2030-01-15.
func CreateTestSecurity(t *testing.T, db *gorm.DB) *models.Security {
	t.Helper()

	n := nextID()
	return CreateTestSecurityWith(t, db, &models.Security{
		Name:            fmt.Sprintf("Test Note %d", n),
		SecurityType:    fixedincome.SecurityTypeGovernmentBond,
		Issuer:          fmt.Sprintf("Test Treasury %d", n),
		FaceValue:       decimal.NewFromInt(1000),
		CouponRate:      decimal.RequireFromString("4.5"),
		CouponFrequency: fixedincome.FrequencySemiAnnual,
		IssueDate:       Date(2020, 1, 15),
		MaturityDate:    Date(2030, 1, 15),
		DayCount:        fixedincome.DayCountAct365,
		Currency:        "USD",
	})
}

// CreateTestZeroCoupon creates a zero-coupon bond with a face value of 1000,
// issued 2020-01-15 and maturing 2030-01-15.
func CreateTestZeroCoupon(t *testing.T, db *gorm.DB) *models.Security {
	t.Helper()

	n := nextID()
	return CreateTestSecurityWith(t, db, &models.Security{
		Name:            fmt.Sprintf("Test Zero %d", n),
		SecurityType:    fixedincome.SecurityTypeTBill,
		Issuer:          fmt.Sprintf("Test Issuer %d", n),
		FaceValue:       decimal.NewFromInt(1000),
		CouponRate:      decimal.Zero,
		CouponFrequency: fixedincome.FrequencyZeroCoupon,
		IssueDate:       Date(2020, 1, 15),
		MaturityDate:    Date(2030, 1, 15),
		DayCount:        fixedincome.DayCountAct365,
		Currency:        "USD",
	})
}

// CreateTestSecurityWith creates the given security as is.
func CreateTestSecurityWith(t *testing.T, db *gorm.DB, security *models.Security) *models.Security {
	t.Helper()

	if err := db.Create(security).Error; err != nil {
		t.Fatalf("failed to create test security: %v", err)
	}
	return security
}

// CreateTestPrice records a clean price per 100 for a security.
func CreateTestPrice(t *testing.T, db *gorm.DB, securityID string, price string, recordedAt time.Time) *models.SecurityPrice {
	t.Helper()

	sp := &models.SecurityPrice{
		SecurityID: securityID,
		Price:      decimal.RequireFromString(price),
		RecordedAt: recordedAt,
	}
	if err := db.Create(sp).Error; err != nil {
		t.Fatalf("failed to create test price: %v", err)
	}
	return sp
}

// CreateTestPortfolio creates an empty USD portfolio.
func CreateTestPortfolio(t *testing.T, db *gorm.DB) *models.Portfolio {
	t.Helper()

	portfolio := &models.Portfolio{
		Name:          fmt.Sprintf("Test Portfolio %d", nextID()),
		Currency:      "USD",
		TotalInvested: decimal.Zero,
	}
	if err := db.Create(portfolio).Error; err != nil {
		t.Fatalf("failed to create test portfolio: %v", err)
	}
	return portfolio
}

// CreateTestHolding creates a current holding bought on 2025-01-15. Price is
// per 100 of face value. The portfolio's total invested is not adjusted.
func CreateTestHolding(t *testing.T, db *gorm.DB, portfolioID, securityID, price, quantity string) *models.Holding {
	t.Helper()

	holding := &models.Holding{
		PortfolioID:         portfolioID,
		SecurityID:          securityID,
		PurchaseDate:        Date(2025, 1, 15),
		PurchasePrice:       decimal.RequireFromString(price),
		Quantity:            decimal.RequireFromString(quantity),
		AccruedInterestPaid: decimal.Zero,
		IsCurrent:           true,
	}
	if err := db.Omit("Security", "Portfolio").Create(holding).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}
