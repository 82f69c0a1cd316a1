package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/fixedincome"
	"bondfolio/internal/services"
)

// CalculatorHandler runs stateless calculations on terms given in the request.
type CalculatorHandler struct {
	calculatorService services.CalculatorServicer
}

// NewCalculatorHandler creates a new CalculatorHandler.
func NewCalculatorHandler(calculatorService services.CalculatorServicer) *CalculatorHandler {
	return &CalculatorHandler{calculatorService: calculatorService}
}

// TermsRequest describes a security inline. Rates are percentages.
type TermsRequest struct {
	FaceValue       decimal.Decimal                `json:"face_value" swaggertype:"string"`
	CouponRate      decimal.Decimal                `json:"coupon_rate" swaggertype:"string"`
	CouponFrequency fixedincome.CouponFrequency    `json:"coupon_frequency" binding:"required,coupon_frequency"`
	IssueDate       string                         `json:"issue_date" binding:"required"`
	MaturityDate    string                         `json:"maturity_date" binding:"required"`
	DayCount        fixedincome.DayCountConvention `json:"day_count" binding:"required,day_count"`
}

// CalculateYieldRequest represents the request payload for a yield calculation.
type CalculateYieldRequest struct {
	Terms          TermsRequest    `json:"terms"`
	SettlementDate string          `json:"settlement_date"`
	CleanPrice     decimal.Decimal `json:"clean_price" swaggertype:"string"`
}

// CalculatePriceRequest represents the request payload for a price calculation.
type CalculatePriceRequest struct {
	Terms           TermsRequest    `json:"terms"`
	SettlementDate  string          `json:"settlement_date"`
	YieldToMaturity decimal.Decimal `json:"yield_to_maturity" swaggertype:"string"`
}

// TermsAtDateRequest represents the request payload for date-dependent calculations
// that need nothing besides the terms.
type TermsAtDateRequest struct {
	Terms          TermsRequest `json:"terms"`
	SettlementDate string       `json:"settlement_date"`
}

// ScheduleEntry is one cash flow of a schedule response.
type ScheduleEntry struct {
	Date      time.Time       `json:"date"`
	Coupon    decimal.Decimal `json:"coupon" swaggertype:"string"`
	Principal decimal.Decimal `json:"principal" swaggertype:"string"`
	Amount    decimal.Decimal `json:"amount" swaggertype:"string"`
}

func (r TermsRequest) input() (services.TermsInput, error) {
	issue, err := parseFlexibleTime(r.IssueDate)
	if err != nil {
		return services.TermsInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "issue_date: "+err.Error())
	}
	maturity, err := parseFlexibleTime(r.MaturityDate)
	if err != nil {
		return services.TermsInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "maturity_date: "+err.Error())
	}
	return services.TermsInput{
		FaceValue:       r.FaceValue,
		CouponRate:      r.CouponRate,
		CouponFrequency: r.CouponFrequency,
		IssueDate:       issue,
		MaturityDate:    maturity,
		DayCount:        r.DayCount,
	}, nil
}

// settlementDate parses an optional settlement date. Empty means today.
func settlementDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := parseFlexibleTime(raw)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "settlement_date: "+err.Error())
	}
	return t, nil
}

// CalculateYield handles yield to maturity from a clean price.
// @Summary     Calculate yield
// @Description Solve yield to maturity, current yield, duration and convexity from a clean price per 100
// @Tags        calculator
// @Accept      json
// @Produce     json
// @Param       request body CalculateYieldRequest true "Terms, settlement date and clean price"
// @Success     200 {object} services.YieldCalculation "Yield and risk measures"
// @Failure     400 {object} ErrorResponse "Invalid input or terms"
// @Failure     422 {object} ErrorResponse "Yield did not converge"
// @Router      /calculate/yield [post]
func (h *CalculatorHandler) CalculateYield(c *gin.Context) {
	var req CalculateYieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	terms, err := req.Terms.input()
	if err != nil {
		respondWithError(c, err)
		return
	}
	settlement, err := settlementDate(req.SettlementDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.calculatorService.CalculateYield(terms, settlement, req.CleanPrice)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CalculatePrice handles price from a yield.
// @Summary     Calculate price
// @Description Clean and dirty price per 100 at a yield to maturity given as a percentage
// @Tags        calculator
// @Accept      json
// @Produce     json
// @Param       request body CalculatePriceRequest true "Terms, settlement date and yield"
// @Success     200 {object} services.PriceCalculation "Prices"
// @Failure     400 {object} ErrorResponse "Invalid input or terms"
// @Router      /calculate/price [post]
func (h *CalculatorHandler) CalculatePrice(c *gin.Context) {
	var req CalculatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	terms, err := req.Terms.input()
	if err != nil {
		respondWithError(c, err)
		return
	}
	settlement, err := settlementDate(req.SettlementDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.calculatorService.CalculatePrice(terms, settlement, req.YieldToMaturity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CalculateAccruedInterest handles accrued interest at a settlement date.
// @Summary     Calculate accrued interest
// @Description Interest accrued since the last coupon date, per unit of face value
// @Tags        calculator
// @Accept      json
// @Produce     json
// @Param       request body TermsAtDateRequest true "Terms and settlement date"
// @Success     200 {object} map[string]string "Accrued interest"
// @Failure     400 {object} ErrorResponse "Invalid input or terms"
// @Router      /calculate/accrued [post]
func (h *CalculatorHandler) CalculateAccruedInterest(c *gin.Context) {
	var req TermsAtDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	terms, err := req.Terms.input()
	if err != nil {
		respondWithError(c, err)
		return
	}
	settlement, err := settlementDate(req.SettlementDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accrued, err := h.calculatorService.CalculateAccruedInterest(terms, settlement)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accrued_interest": accrued})
}

// GenerateSchedule handles the full cash-flow schedule of inline terms.
// @Summary     Generate cash-flow schedule
// @Description Every coupon and principal payment from issue to maturity, per unit of face value
// @Tags        calculator
// @Accept      json
// @Produce     json
// @Param       request body TermsAtDateRequest true "Terms (settlement_date is ignored)"
// @Success     200 {array}  ScheduleEntry "Cash flows"
// @Failure     400 {object} ErrorResponse "Invalid input or terms"
// @Router      /calculate/schedule [post]
func (h *CalculatorHandler) GenerateSchedule(c *gin.Context) {
	var req TermsAtDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	terms, err := req.Terms.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	flows, err := h.calculatorService.GenerateSchedule(terms)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entries := make([]ScheduleEntry, len(flows))
	for i, f := range flows {
		entries[i] = ScheduleEntry{
			Date:      f.Date,
			Coupon:    decimal.NewFromFloat(f.Coupon).Round(6),
			Principal: decimal.NewFromFloat(f.Principal).Round(6),
			Amount:    decimal.NewFromFloat(f.Amount()).Round(6),
		}
	}

	c.JSON(http.StatusOK, gin.H{"cash_flows": entries, "count": len(entries)})
}
