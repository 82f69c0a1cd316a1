package integration

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bondfolio/internal/fixedincome"
	"bondfolio/internal/handlers"
	"bondfolio/internal/logger"
	"bondfolio/internal/middleware"
	"bondfolio/internal/services"
	"bondfolio/internal/testutil"
	"bondfolio/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	cache, err := fixedincome.NewScheduleCache(0)
	if err != nil {
		t.Fatalf("failed to create schedule cache: %v", err)
	}
	analyzer := fixedincome.Analyzer{Cache: cache}

	// Services
	auditService := services.NewAuditService(db)
	securityService := services.NewSecurityService(db)
	portfolioService := services.NewPortfolioService(db)
	holdingService := services.NewHoldingService(db)
	analyticsService := services.NewAnalyticsService(db, analyzer)
	calculatorService := services.NewCalculatorService(analyzer)
	yieldCurveService := services.NewYieldCurveService(db)
	snapshotService := services.NewPortfolioSnapshotService(db, analyticsService)

	// Handlers
	securityHandler := handlers.NewSecurityHandler(securityService, auditService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, holdingService, auditService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	calculatorHandler := handlers.NewCalculatorHandler(calculatorService)
	yieldCurveHandler := handlers.NewYieldCurveHandler(yieldCurveService)
	snapshotHandler := handlers.NewPortfolioSnapshotHandler(snapshotService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	securities := v1.Group("/securities")
	securities.POST("", securityHandler.CreateSecurity)
	securities.GET("", securityHandler.ListSecurities)
	securities.POST("/prices", securityHandler.RecordPrices)
	securities.GET("/:id", securityHandler.GetSecurity)
	securities.PUT("/:id", securityHandler.UpdateSecurity)
	securities.DELETE("/:id", securityHandler.DeleteSecurity)
	securities.GET("/:id/prices", securityHandler.GetPriceHistory)

	portfolios := v1.Group("/portfolios")
	portfolios.POST("", portfolioHandler.CreatePortfolio)
	portfolios.GET("", portfolioHandler.ListPortfolios)
	portfolios.GET("/:id", portfolioHandler.GetPortfolio)
	portfolios.DELETE("/:id", portfolioHandler.DeletePortfolio)
	portfolios.POST("/:id/holdings", portfolioHandler.AddHolding)
	portfolios.GET("/:id/holdings", portfolioHandler.ListHoldings)
	portfolios.GET("/:id/valuation", analyticsHandler.GetPortfolioValuation)
	portfolios.GET("/:id/analytics", analyticsHandler.GetPortfolioAnalytics)
	portfolios.GET("/:id/snapshots", snapshotHandler.GetSnapshots)

	holdings := v1.Group("/holdings")
	holdings.GET("/:id", portfolioHandler.GetHolding)
	holdings.PUT("/:id", portfolioHandler.UpdateHolding)
	holdings.DELETE("/:id", portfolioHandler.CloseHolding)
	holdings.GET("/:id/yields", analyticsHandler.GetHoldingYields)
	holdings.GET("/:id/schedule", analyticsHandler.GetCouponSchedule)

	calculate := v1.Group("/calculate")
	calculate.POST("/yield", calculatorHandler.CalculateYield)
	calculate.POST("/price", calculatorHandler.CalculatePrice)
	calculate.POST("/accrued", calculatorHandler.CalculateAccruedInterest)
	calculate.POST("/schedule", calculatorHandler.GenerateSchedule)

	v1.POST("/yield-curves", yieldCurveHandler.RecordPoints)
	v1.GET("/yield-curves/:name", yieldCurveHandler.GetCurve)

	v1.POST("/snapshots/compute", snapshotHandler.ComputeSnapshots)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// createSecurity creates a five year 5% semi-annual corporate bond and returns its ID.
func (app *testApp) createSecurity(t *testing.T, name string) string {
	t.Helper()
	body := `{"name":"` + name + `","security_type":"CORPORATE_BOND","issuer":"Acme Corp",` +
		`"face_value":"1000","coupon_rate":"5","coupon_frequency":"SEMI_ANNUAL",` +
		`"issue_date":"2025-01-15","maturity_date":"2030-01-15","day_count":"THIRTY_360","currency":"USD"}`
	rec := app.request("POST", "/api/v1/securities", body)
	if rec.Code != 201 {
		t.Fatalf("create security failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["security"].(map[string]interface{})["id"].(string)
}

// createPortfolio creates a portfolio and returns its ID.
func (app *testApp) createPortfolio(t *testing.T, name string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/portfolios", `{"name":"`+name+`","currency":"USD"}`)
	if rec.Code != 201 {
		t.Fatalf("create portfolio failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["portfolio"].(map[string]interface{})["id"].(string)
}

// addHolding buys quantity units of a security at a per-100 price.
func (app *testApp) addHolding(t *testing.T, portfolioID, securityID, price, quantity string) string {
	t.Helper()
	body := `{"security_id":"` + securityID + `","purchase_date":"2025-03-03",` +
		`"purchase_price":"` + price + `","quantity":"` + quantity + `"}`
	rec := app.request("POST", "/api/v1/portfolios/"+portfolioID+"/holdings", body)
	if rec.Code != 201 {
		t.Fatalf("add holding failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["holding"].(map[string]interface{})["id"].(string)
}
