package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/models"
	"bondfolio/internal/services"
)

// --- mock yield curve service ---

type mockYieldCurveService struct {
	recordPointsFn func(points []services.YieldCurvePointInput) (int, error)
	getCurveFn     func(curveName string, curveDate *time.Time) ([]models.YieldCurvePoint, error)
}

var _ services.YieldCurveServicer = (*mockYieldCurveService)(nil)

func (m *mockYieldCurveService) RecordPoints(points []services.YieldCurvePointInput) (int, error) {
	if m.recordPointsFn != nil {
		return m.recordPointsFn(points)
	}
	return len(points), nil
}

func (m *mockYieldCurveService) GetCurve(curveName string, curveDate *time.Time) ([]models.YieldCurvePoint, error) {
	if m.getCurveFn != nil {
		return m.getCurveFn(curveName, curveDate)
	}
	return []models.YieldCurvePoint{}, nil
}

// --- router setup ---

func setupYieldCurveRouter(handler *YieldCurveHandler) *gin.Engine {
	r := gin.New()
	r.POST("/yield-curves", handler.RecordPoints)
	r.GET("/yield-curves/:name", handler.GetCurve)
	return r
}

// --- tests ---

func TestYieldCurveHandler_RecordPoints(t *testing.T) {
	t.Run("returns_200_on_success", func(t *testing.T) {
		var captured []services.YieldCurvePointInput
		svc := &mockYieldCurveService{
			recordPointsFn: func(points []services.YieldCurvePointInput) (int, error) {
				captured = points
				return len(points), nil
			},
		}
		r := setupYieldCurveRouter(NewYieldCurveHandler(svc))

		rec := doRequest(r, "POST", "/yield-curves",
			`{"points":[{"curve_name":"UST","curve_date":"2026-02-09","tenor":"3m","rate":"4.31"},`+
				`{"curve_name":"UST","curve_date":"2026-02-09","tenor":"10Y","rate":"4.52"}]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["points_recorded"].(float64) != 2 {
			t.Errorf("expected points_recorded=2, got %s", rec.Body.String())
		}
		if !captured[1].Rate.Equal(decimal.RequireFromString("4.52")) {
			t.Errorf("expected rate 4.52, got %s", captured[1].Rate)
		}
	})

	t.Run("returns_400_invalid_tenor", func(t *testing.T) {
		r := setupYieldCurveRouter(NewYieldCurveHandler(&mockYieldCurveService{}))

		rec := doRequest(r, "POST", "/yield-curves",
			`{"points":[{"curve_name":"UST","curve_date":"2026-02-09","tenor":"10D","rate":"4.52"}]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_400_empty_points", func(t *testing.T) {
		r := setupYieldCurveRouter(NewYieldCurveHandler(&mockYieldCurveService{}))

		rec := doRequest(r, "POST", "/yield-curves", `{"points":[]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestYieldCurveHandler_GetCurve(t *testing.T) {
	t.Run("uses_latest_date_by_default", func(t *testing.T) {
		called := false
		svc := &mockYieldCurveService{
			getCurveFn: func(name string, date *time.Time) ([]models.YieldCurvePoint, error) {
				called = true
				if date != nil {
					t.Errorf("expected nil date, got %v", date)
				}
				return []models.YieldCurvePoint{
					{CurveName: name, Tenor: "3M", TenorMonths: 3, Rate: decimal.RequireFromString("4.31")},
				}, nil
			},
		}
		r := setupYieldCurveRouter(NewYieldCurveHandler(svc))

		rec := doRequest(r, "GET", "/yield-curves/UST", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !called {
			t.Fatal("expected service to be called")
		}
		points := parseJSON(t, rec)["points"].([]interface{})
		if points[0].(map[string]interface{})["rate"] != "4.31" {
			t.Errorf("expected rate \"4.31\", got %v", points[0])
		}
	})

	t.Run("passes_curve_date", func(t *testing.T) {
		var captured *time.Time
		svc := &mockYieldCurveService{
			getCurveFn: func(_ string, date *time.Time) ([]models.YieldCurvePoint, error) {
				captured = date
				return []models.YieldCurvePoint{}, nil
			},
		}
		r := setupYieldCurveRouter(NewYieldCurveHandler(svc))

		rec := doRequest(r, "GET", "/yield-curves/UST?curve_date=2026-02-09", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured == nil || !captured.Equal(time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected curve date 2026-02-09, got %v", captured)
		}
	})

	t.Run("returns_404_not_found", func(t *testing.T) {
		svc := &mockYieldCurveService{
			getCurveFn: func(_ string, _ *time.Time) ([]models.YieldCurvePoint, error) {
				return nil, apperrors.ErrYieldCurveNotFound
			},
		}
		r := setupYieldCurveRouter(NewYieldCurveHandler(svc))

		rec := doRequest(r, "GET", "/yield-curves/NOPE", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "YIELD_CURVE_NOT_FOUND")
	})
}
