package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/fixedincome"
	"bondfolio/internal/pagination"
	"bondfolio/internal/services"
)

// SecurityHandler handles security-related requests.
type SecurityHandler struct {
	securityService services.SecurityServicer
	auditService    services.AuditServicer
}

// NewSecurityHandler creates a new SecurityHandler.
func NewSecurityHandler(securityService services.SecurityServicer, auditService services.AuditServicer) *SecurityHandler {
	return &SecurityHandler{securityService: securityService, auditService: auditService}
}

// CreateSecurityRequest represents the request payload for creating a security.
// Rates are percentages; dates are RFC3339 or YYYY-MM-DD.
type CreateSecurityRequest struct {
	Name            string                         `json:"name" binding:"required,min=1,max=200"`
	SecurityType    fixedincome.SecurityType       `json:"security_type" binding:"required,security_type"`
	Issuer          string                         `json:"issuer" binding:"required,min=1,max=200"`
	FaceValue       decimal.Decimal                `json:"face_value" swaggertype:"string"`
	CouponRate      decimal.Decimal                `json:"coupon_rate" swaggertype:"string"`
	CouponFrequency fixedincome.CouponFrequency    `json:"coupon_frequency" binding:"required,coupon_frequency"`
	IssueDate       string                         `json:"issue_date" binding:"required"`
	MaturityDate    string                         `json:"maturity_date" binding:"required"`
	DayCount        fixedincome.DayCountConvention `json:"day_count" binding:"required,day_count"`
	Currency        string                         `json:"currency" binding:"omitempty,iso4217"`
	CreditRating    string                         `json:"credit_rating,omitempty" binding:"max=10"`
}

// UpdateSecurityRequest represents the request payload for updating a security.
type UpdateSecurityRequest struct {
	Name         *string          `json:"name" binding:"omitempty,min=1,max=200"`
	CouponRate   *decimal.Decimal `json:"coupon_rate" swaggertype:"string"`
	CreditRating *string          `json:"credit_rating" binding:"omitempty,max=10"`
}

// RecordPricesRequest represents the request payload for bulk price recording.
type RecordPricesRequest struct {
	Prices []RecordPriceEntry `json:"prices" binding:"required,min=1,dive"`
}

// RecordPriceEntry represents a single price entry in a bulk request.
// Price is quoted per 100 of face value.
type RecordPriceEntry struct {
	SecurityID string          `json:"security_id" binding:"required,uuid"`
	Price      decimal.Decimal `json:"price" swaggertype:"string"`
	RecordedAt string          `json:"recorded_at" binding:"required"`
}

// CreateSecurity handles creating a new security.
// @Summary     Create security
// @Description Create a fixed-income security. Terms are validated by the calculation engine.
// @Tags        securities
// @Accept      json
// @Produce     json
// @Param       request body CreateSecurityRequest true "Security terms"
// @Success     201 {object} models.Security "Security created"
// @Failure     400 {object} ErrorResponse "Invalid input or terms"
// @Failure     409 {object} ErrorResponse "Duplicate security"
// @Router      /securities [post]
func (h *SecurityHandler) CreateSecurity(c *gin.Context) {
	var req CreateSecurityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	issue, err := parseFlexibleTime(req.IssueDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "issue_date: "+err.Error()))
		return
	}
	maturity, err := parseFlexibleTime(req.MaturityDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "maturity_date: "+err.Error()))
		return
	}

	security, err := h.securityService.CreateSecurity(services.CreateSecurityInput{
		Name:            req.Name,
		SecurityType:    req.SecurityType,
		Issuer:          req.Issuer,
		FaceValue:       req.FaceValue,
		CouponRate:      req.CouponRate,
		CouponFrequency: req.CouponFrequency,
		IssueDate:       issue,
		MaturityDate:    maturity,
		DayCount:        req.DayCount,
		Currency:        req.Currency,
		CreditRating:    req.CreditRating,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_SECURITY", "security", security.ID, c.ClientIP(),
		map[string]interface{}{"name": security.Name, "issuer": security.Issuer})

	c.JSON(http.StatusCreated, gin.H{"security": security})
}

// ListSecurities handles listing securities.
// @Summary     List securities
// @Description Get a paginated list of securities ordered by maturity, optionally filtered by type and issuer
// @Tags        securities
// @Produce     json
// @Param       security_type query string false "Security type (GOVERNMENT_BOND, CORPORATE_BOND, T_BILL, CD, DEBENTURE)"
// @Param       issuer        query string false "Issuer substring (case-insensitive)"
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Security] "Paginated securities"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /securities [get]
func (h *SecurityHandler) ListSecurities(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.SecurityFilter{Issuer: c.Query("issuer")}
	if raw := c.Query("security_type"); raw != "" {
		st := fixedincome.SecurityType(raw)
		if !st.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown security_type "+raw))
			return
		}
		filter.SecurityType = &st
	}

	result, err := h.securityService.ListSecurities(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSecurity handles retrieving a specific security.
// @Summary     Get security by ID
// @Description Get a specific security by ID
// @Tags        securities
// @Produce     json
// @Param       id path string true "Security ID"
// @Success     200 {object} models.Security "Security details"
// @Failure     400 {object} ErrorResponse "Invalid security ID"
// @Failure     404 {object} ErrorResponse "Security not found"
// @Router      /securities/{id} [get]
func (h *SecurityHandler) GetSecurity(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	security, err := h.securityService.GetSecurityByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"security": security})
}

// UpdateSecurity handles updating the descriptive fields of a security.
// @Summary     Update security
// @Description Update name, coupon rate or credit rating of a security
// @Tags        securities
// @Accept      json
// @Produce     json
// @Param       id      path string                true "Security ID"
// @Param       request body UpdateSecurityRequest true "Fields to update"
// @Success     200 {object} models.Security "Updated security"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Security not found"
// @Router      /securities/{id} [put]
func (h *SecurityHandler) UpdateSecurity(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSecurityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	security, err := h.securityService.UpdateSecurity(id, services.UpdateSecurityInput{
		Name:         req.Name,
		CouponRate:   req.CouponRate,
		CreditRating: req.CreditRating,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.CouponRate != nil {
		changes["coupon_rate"] = req.CouponRate.String()
	}
	if req.CreditRating != nil {
		changes["credit_rating"] = *req.CreditRating
	}
	h.auditService.Log("UPDATE_SECURITY", "security", id, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"security": security})
}

// DeleteSecurity handles deleting a security.
// @Summary     Delete security
// @Description Delete a security that is not held by any current holding
// @Tags        securities
// @Produce     json
// @Param       id path string true "Security ID"
// @Success     200 {object} MessageResponse "Security deleted"
// @Failure     404 {object} ErrorResponse "Security not found"
// @Failure     409 {object} ErrorResponse "Security is held"
// @Router      /securities/{id} [delete]
func (h *SecurityHandler) DeleteSecurity(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.securityService.DeleteSecurity(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_SECURITY", "security", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Security deleted successfully"})
}

// RecordPrices handles bulk price recording for securities.
// @Summary     Record prices
// @Description Bulk record clean prices per 100 of face value. Prices already recorded for the same security and time are skipped.
// @Tags        securities
// @Accept      json
// @Produce     json
// @Param       request body RecordPricesRequest true "Price entries"
// @Success     200 {object} map[string]int "Prices recorded count"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Security not found"
// @Router      /securities/prices [post]
func (h *SecurityHandler) RecordPrices(c *gin.Context) {
	var req RecordPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	inputs := make([]services.SecurityPriceInput, len(req.Prices))
	for i, p := range req.Prices {
		recordedAt, err := parseFlexibleTime(p.RecordedAt)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "recorded_at: "+err.Error()))
			return
		}
		inputs[i] = services.SecurityPriceInput{
			SecurityID: p.SecurityID,
			Price:      p.Price,
			RecordedAt: recordedAt,
		}
	}

	count, err := h.securityService.RecordPrices(inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"prices_recorded": count})
}

// GetPriceHistory handles retrieving price history for a security.
// @Summary     Get price history
// @Description Get price history for a security (paginated, newest first)
// @Tags        securities
// @Produce     json
// @Param       id        path  string true  "Security ID"
// @Param       from_date query string true  "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string true  "End date (RFC3339 or YYYY-MM-DD)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.SecurityPrice] "Paginated prices"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Security not found"
// @Router      /securities/{id}/prices [get]
func (h *SecurityHandler) GetPriceHistory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.securityService.GetPriceHistory(id, from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
