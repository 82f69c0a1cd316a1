package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bondfolio/internal/services"
)

// AnalyticsHandler serves yield, schedule and valuation analytics.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetHoldingYields handles yield and risk measures for a holding.
// @Summary     Get holding yields
// @Description Yield to maturity, current yield, duration and convexity of a holding. The latest market price is used unless price is given.
// @Tags        analytics
// @Produce     json
// @Param       id    path  string true  "Holding ID"
// @Param       price query string false "Clean price per 100 of face value"
// @Param       as_of query string false "Settlement date (RFC3339 or YYYY-MM-DD, default today)"
// @Success     200 {object} services.HoldingYields "Holding yields"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Holding not found"
// @Failure     422 {object} ErrorResponse "Yield did not converge"
// @Router      /holdings/{id}/yields [get]
func (h *AnalyticsHandler) GetHoldingYields(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	price, err := parseDecimalQuery(c, "price")
	if err != nil {
		respondWithError(c, err)
		return
	}
	asOf, err := parseDateQuery(c, "as_of")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.analyticsService.GetHoldingYields(id, price, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCouponSchedule handles the payment schedule of a holding.
// @Summary     Get coupon schedule
// @Description Coupon and principal payments the holding receives after its purchase date, marked PAID or PROJECTED relative to as_of
// @Tags        analytics
// @Produce     json
// @Param       id    path  string true  "Holding ID"
// @Param       as_of query string false "Reference date (RFC3339 or YYYY-MM-DD, default today)"
// @Success     200 {object} services.CouponSchedule "Coupon schedule"
// @Failure     404 {object} ErrorResponse "Holding not found"
// @Router      /holdings/{id}/schedule [get]
func (h *AnalyticsHandler) GetCouponSchedule(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	asOf, err := parseDateQuery(c, "as_of")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.analyticsService.GetCouponSchedule(id, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPortfolioValuation handles the market valuation of a portfolio.
// @Summary     Get portfolio valuation
// @Description Market value, cost basis and unrealized gain or loss of a portfolio's current holdings
// @Tags        analytics
// @Produce     json
// @Param       id path string true "Portfolio ID"
// @Success     200 {object} services.PortfolioValuation "Portfolio valuation"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/valuation [get]
func (h *AnalyticsHandler) GetPortfolioValuation(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.analyticsService.GetPortfolioValuation(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPortfolioAnalytics handles market-value weighted portfolio risk measures.
// @Summary     Get portfolio analytics
// @Description Weighted average yield, modified duration, convexity and maturity of a portfolio
// @Tags        analytics
// @Produce     json
// @Param       id    path  string true  "Portfolio ID"
// @Param       as_of query string false "Settlement date (RFC3339 or YYYY-MM-DD, default today)"
// @Success     200 {object} services.PortfolioAnalytics "Portfolio analytics"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     422 {object} ErrorResponse "Portfolio has nothing to value"
// @Router      /portfolios/{id}/analytics [get]
func (h *AnalyticsHandler) GetPortfolioAnalytics(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	asOf, err := parseDateQuery(c, "as_of")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.analyticsService.GetPortfolioAnalytics(c.Request.Context(), id, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
