package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/services"
)

// YieldCurveHandler handles yield curve requests.
type YieldCurveHandler struct {
	yieldCurveService services.YieldCurveServicer
}

// NewYieldCurveHandler creates a new YieldCurveHandler.
func NewYieldCurveHandler(yieldCurveService services.YieldCurveServicer) *YieldCurveHandler {
	return &YieldCurveHandler{yieldCurveService: yieldCurveService}
}

// RecordYieldCurveRequest represents the request payload for recording curve points.
type RecordYieldCurveRequest struct {
	Points []YieldCurvePointEntry `json:"points" binding:"required,min=1,dive"`
}

// YieldCurvePointEntry is one observed rate. Rate is a percentage.
type YieldCurvePointEntry struct {
	CurveName string          `json:"curve_name" binding:"required,max=50"`
	CurveDate string          `json:"curve_date" binding:"required"`
	Tenor     string          `json:"tenor" binding:"required,tenor"`
	Rate      decimal.Decimal `json:"rate" swaggertype:"string"`
}

// RecordPoints handles recording yield curve points.
// @Summary     Record yield curve points
// @Description Store observed rates. A point for the same curve, date and tenor is replaced.
// @Tags        yield-curves
// @Accept      json
// @Produce     json
// @Param       request body RecordYieldCurveRequest true "Curve points"
// @Success     200 {object} map[string]int "Points recorded count"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /yield-curves [post]
func (h *YieldCurveHandler) RecordPoints(c *gin.Context) {
	var req RecordYieldCurveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	inputs := make([]services.YieldCurvePointInput, len(req.Points))
	for i, p := range req.Points {
		curveDate, err := parseFlexibleTime(p.CurveDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "curve_date: "+err.Error()))
			return
		}
		inputs[i] = services.YieldCurvePointInput{
			CurveName: p.CurveName,
			CurveDate: curveDate,
			Tenor:     p.Tenor,
			Rate:      p.Rate,
		}
	}

	count, err := h.yieldCurveService.RecordPoints(inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points_recorded": count})
}

// GetCurve handles retrieving a yield curve.
// @Summary     Get yield curve
// @Description Points of a curve on a date, shortest tenor first. Defaults to the latest recorded date.
// @Tags        yield-curves
// @Produce     json
// @Param       name       path  string true  "Curve name"
// @Param       curve_date query string false "Curve date (RFC3339 or YYYY-MM-DD)"
// @Success     200 {array}  models.YieldCurvePoint "Curve points"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Curve not found"
// @Router      /yield-curves/{name} [get]
func (h *YieldCurveHandler) GetCurve(c *gin.Context) {
	name := c.Param("name")

	curveDate, err := parseDateQuery(c, "curve_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var date *time.Time
	if !curveDate.IsZero() {
		date = &curveDate
	}

	points, err := h.yieldCurveService.GetCurve(name, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"curve_name": name, "points": points})
}
