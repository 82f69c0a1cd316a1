package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/fixedincome"
	"bondfolio/internal/services"
)

// --- mock calculator service ---

type mockCalculatorService struct {
	calculateYieldFn   func(terms services.TermsInput, settlement time.Time, cleanPrice decimal.Decimal) (*services.YieldCalculation, error)
	calculatePriceFn   func(terms services.TermsInput, settlement time.Time, yieldPct decimal.Decimal) (*services.PriceCalculation, error)
	calculateAccruedFn func(terms services.TermsInput, settlement time.Time) (decimal.Decimal, error)
	generateScheduleFn func(terms services.TermsInput) ([]fixedincome.CashFlow, error)
}

var _ services.CalculatorServicer = (*mockCalculatorService)(nil)

func (m *mockCalculatorService) CalculateYield(terms services.TermsInput, settlement time.Time, cleanPrice decimal.Decimal) (*services.YieldCalculation, error) {
	if m.calculateYieldFn != nil {
		return m.calculateYieldFn(terms, settlement, cleanPrice)
	}
	return &services.YieldCalculation{}, nil
}

func (m *mockCalculatorService) CalculatePrice(terms services.TermsInput, settlement time.Time, yieldPct decimal.Decimal) (*services.PriceCalculation, error) {
	if m.calculatePriceFn != nil {
		return m.calculatePriceFn(terms, settlement, yieldPct)
	}
	return &services.PriceCalculation{}, nil
}

func (m *mockCalculatorService) CalculateAccruedInterest(terms services.TermsInput, settlement time.Time) (decimal.Decimal, error) {
	if m.calculateAccruedFn != nil {
		return m.calculateAccruedFn(terms, settlement)
	}
	return decimal.Zero, nil
}

func (m *mockCalculatorService) GenerateSchedule(terms services.TermsInput) ([]fixedincome.CashFlow, error) {
	if m.generateScheduleFn != nil {
		return m.generateScheduleFn(terms)
	}
	return nil, nil
}

// --- router setup ---

func setupCalculatorRouter(handler *CalculatorHandler) *gin.Engine {
	r := gin.New()
	r.POST("/calculate/yield", handler.CalculateYield)
	r.POST("/calculate/price", handler.CalculatePrice)
	r.POST("/calculate/accrued", handler.CalculateAccruedInterest)
	r.POST("/calculate/schedule", handler.GenerateSchedule)
	return r
}

const termsJSON = `{"face_value":"1000","coupon_rate":"4.5","coupon_frequency":"SEMI_ANNUAL",` +
	`"issue_date":"2020-01-15","maturity_date":"2030-01-15","day_count":"ACT_365"}`

// --- tests ---

func TestCalculatorHandler_CalculateYield(t *testing.T) {
	t.Run("returns_200_on_success", func(t *testing.T) {
		var captured services.TermsInput
		var capturedSettlement time.Time
		var capturedPrice decimal.Decimal
		svc := &mockCalculatorService{
			calculateYieldFn: func(terms services.TermsInput, settlement time.Time, cleanPrice decimal.Decimal) (*services.YieldCalculation, error) {
				captured = terms
				capturedSettlement = settlement
				capturedPrice = cleanPrice
				return &services.YieldCalculation{YieldToMaturity: decimal.RequireFromString("4.777610")}, nil
			},
		}
		r := setupCalculatorRouter(NewCalculatorHandler(svc))

		rec := doRequest(r, "POST", "/calculate/yield",
			`{"terms":`+termsJSON+`,"settlement_date":"2026-01-15","clean_price":"99"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.CouponFrequency != fixedincome.FrequencySemiAnnual {
			t.Errorf("expected SEMI_ANNUAL, got %s", captured.CouponFrequency)
		}
		if !captured.CouponRate.Equal(decimal.RequireFromString("4.5")) {
			t.Errorf("expected coupon rate 4.5, got %s", captured.CouponRate)
		}
		if !capturedSettlement.Equal(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected settlement 2026-01-15, got %v", capturedSettlement)
		}
		if !capturedPrice.Equal(decimal.NewFromInt(99)) {
			t.Errorf("expected clean price 99, got %s", capturedPrice)
		}
		if parseJSON(t, rec)["yield_to_maturity"] != "4.77761" {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("settlement_defaults_to_zero", func(t *testing.T) {
		settlement := time.Now()
		svc := &mockCalculatorService{
			calculateYieldFn: func(_ services.TermsInput, s time.Time, _ decimal.Decimal) (*services.YieldCalculation, error) {
				settlement = s
				return &services.YieldCalculation{}, nil
			},
		}
		r := setupCalculatorRouter(NewCalculatorHandler(svc))

		rec := doRequest(r, "POST", "/calculate/yield", `{"terms":`+termsJSON+`,"clean_price":"99"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !settlement.IsZero() {
			t.Errorf("expected zero settlement, got %v", settlement)
		}
	})

	t.Run("returns_400_missing_frequency", func(t *testing.T) {
		r := setupCalculatorRouter(NewCalculatorHandler(&mockCalculatorService{}))

		rec := doRequest(r, "POST", "/calculate/yield",
			`{"terms":{"face_value":"1000","issue_date":"2020-01-15","maturity_date":"2030-01-15","day_count":"ACT_365"},"clean_price":"99"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_400_settlement_out_of_range", func(t *testing.T) {
		svc := &mockCalculatorService{
			calculateYieldFn: func(_ services.TermsInput, _ time.Time, _ decimal.Decimal) (*services.YieldCalculation, error) {
				return nil, apperrors.ErrSettlementOutOfRange
			},
		}
		r := setupCalculatorRouter(NewCalculatorHandler(svc))

		rec := doRequest(r, "POST", "/calculate/yield",
			`{"terms":`+termsJSON+`,"settlement_date":"2031-01-01","clean_price":"99"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "SETTLEMENT_OUT_OF_RANGE")
	})
}

func TestCalculatorHandler_CalculatePrice(t *testing.T) {
	t.Run("returns_200_on_success", func(t *testing.T) {
		var capturedYield decimal.Decimal
		svc := &mockCalculatorService{
			calculatePriceFn: func(_ services.TermsInput, _ time.Time, yieldPct decimal.Decimal) (*services.PriceCalculation, error) {
				capturedYield = yieldPct
				return &services.PriceCalculation{CleanPrice: decimal.NewFromInt(100)}, nil
			},
		}
		r := setupCalculatorRouter(NewCalculatorHandler(svc))

		rec := doRequest(r, "POST", "/calculate/price",
			`{"terms":`+termsJSON+`,"settlement_date":"2026-01-15","yield_to_maturity":"4.5"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !capturedYield.Equal(decimal.RequireFromString("4.5")) {
			t.Errorf("expected yield 4.5, got %s", capturedYield)
		}
		if parseJSON(t, rec)["clean_price"] != "100" {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("returns_400_bad_settlement", func(t *testing.T) {
		r := setupCalculatorRouter(NewCalculatorHandler(&mockCalculatorService{}))

		rec := doRequest(r, "POST", "/calculate/price",
			`{"terms":`+termsJSON+`,"settlement_date":"Jan 15","yield_to_maturity":"4.5"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestCalculatorHandler_CalculateAccruedInterest(t *testing.T) {
	t.Run("returns_200_on_success", func(t *testing.T) {
		svc := &mockCalculatorService{
			calculateAccruedFn: func(_ services.TermsInput, _ time.Time) (decimal.Decimal, error) {
				return decimal.RequireFromString("3.853591"), nil
			},
		}
		r := setupCalculatorRouter(NewCalculatorHandler(svc))

		rec := doRequest(r, "POST", "/calculate/accrued",
			`{"terms":`+termsJSON+`,"settlement_date":"2026-02-15"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["accrued_interest"] != "3.853591" {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})
}

func TestCalculatorHandler_GenerateSchedule(t *testing.T) {
	t.Run("returns_200_with_flows", func(t *testing.T) {
		svc := &mockCalculatorService{
			generateScheduleFn: func(_ services.TermsInput) ([]fixedincome.CashFlow, error) {
				return []fixedincome.CashFlow{
					{Date: time.Date(2029, 7, 15, 0, 0, 0, 0, time.UTC), Coupon: 22.5},
					{Date: time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC), Coupon: 22.5, Principal: 1000},
				}, nil
			},
		}
		r := setupCalculatorRouter(NewCalculatorHandler(svc))

		rec := doRequest(r, "POST", "/calculate/schedule", `{"terms":`+termsJSON+`}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["count"].(float64) != 2 {
			t.Errorf("expected count=2, got %v", result["count"])
		}
		last := result["cash_flows"].([]interface{})[1].(map[string]interface{})
		if last["amount"] != "1022.5" {
			t.Errorf("expected amount=\"1022.5\", got %v", last["amount"])
		}
	})

	t.Run("returns_400_invalid_terms", func(t *testing.T) {
		svc := &mockCalculatorService{
			generateScheduleFn: func(_ services.TermsInput) ([]fixedincome.CashFlow, error) {
				return nil, apperrors.ErrInvalidTerms
			},
		}
		r := setupCalculatorRouter(NewCalculatorHandler(svc))

		rec := doRequest(r, "POST", "/calculate/schedule", `{"terms":`+termsJSON+`}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TERMS")
	})
}
