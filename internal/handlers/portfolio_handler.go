package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/pagination"
	"bondfolio/internal/services"
)

// PortfolioHandler handles portfolio and holding requests.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
	holdingService   services.HoldingServicer
	auditService     services.AuditServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(
	portfolioService services.PortfolioServicer,
	holdingService services.HoldingServicer,
	auditService services.AuditServicer,
) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		holdingService:   holdingService,
		auditService:     auditService,
	}
}

// CreatePortfolioRequest represents the request payload for creating a portfolio.
type CreatePortfolioRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
	Currency    string `json:"currency" binding:"omitempty,iso4217"`
}

// AddHoldingRequest represents the request payload for adding a holding.
// PurchasePrice is quoted per 100 of face value.
type AddHoldingRequest struct {
	SecurityID          string          `json:"security_id" binding:"required,uuid"`
	PurchaseDate        string          `json:"purchase_date" binding:"required"`
	PurchasePrice       decimal.Decimal `json:"purchase_price" swaggertype:"string"`
	Quantity            decimal.Decimal `json:"quantity" swaggertype:"string"`
	AccruedInterestPaid decimal.Decimal `json:"accrued_interest_paid" swaggertype:"string"`
}

// UpdateHoldingRequest represents the request payload for updating a holding.
type UpdateHoldingRequest struct {
	Quantity  *decimal.Decimal `json:"quantity" swaggertype:"string"`
	IsCurrent *bool            `json:"is_current"`
}

// CreatePortfolio handles creating a new portfolio.
// @Summary     Create portfolio
// @Description Create an empty portfolio
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Param       request body CreatePortfolioRequest true "Portfolio details"
// @Success     201 {object} models.Portfolio "Portfolio created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /portfolios [post]
func (h *PortfolioHandler) CreatePortfolio(c *gin.Context) {
	var req CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(req.Name, req.Description, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_PORTFOLIO", "portfolio", portfolio.ID, c.ClientIP(),
		map[string]interface{}{"name": portfolio.Name})

	c.JSON(http.StatusCreated, gin.H{"portfolio": portfolio})
}

// ListPortfolios handles listing portfolios.
// @Summary     List portfolios
// @Description Get a paginated list of portfolios
// @Tags        portfolios
// @Produce     json
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Portfolio] "Paginated portfolios"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /portfolios [get]
func (h *PortfolioHandler) ListPortfolios(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.portfolioService.ListPortfolios(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPortfolio handles retrieving a portfolio with its holdings count and current value.
// @Summary     Get portfolio by ID
// @Description Get a portfolio with its current holdings count and current value
// @Tags        portfolios
// @Produce     json
// @Param       id path string true "Portfolio ID"
// @Success     200 {object} models.Portfolio "Portfolio details"
// @Failure     400 {object} ErrorResponse "Invalid portfolio ID"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id} [get]
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolio, err := h.portfolioService.GetPortfolioByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": portfolio})
}

// DeletePortfolio handles deleting a portfolio and its holdings.
// @Summary     Delete portfolio
// @Description Delete a portfolio together with its holdings
// @Tags        portfolios
// @Produce     json
// @Param       id path string true "Portfolio ID"
// @Success     200 {object} MessageResponse "Portfolio deleted"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id} [delete]
func (h *PortfolioHandler) DeletePortfolio(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.portfolioService.DeletePortfolio(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_PORTFOLIO", "portfolio", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Portfolio deleted successfully"})
}

// AddHolding handles adding a holding to a portfolio.
// @Summary     Add holding
// @Description Buy a security into a portfolio. The portfolio's total invested grows by price/100 x quantity x face value.
// @Tags        holdings
// @Accept      json
// @Produce     json
// @Param       id      path string            true "Portfolio ID"
// @Param       request body AddHoldingRequest true "Holding details"
// @Success     201 {object} models.Holding "Holding created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Portfolio or security not found"
// @Router      /portfolios/{id}/holdings [post]
func (h *PortfolioHandler) AddHolding(c *gin.Context) {
	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	purchaseDate, err := parseFlexibleTime(req.PurchaseDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "purchase_date: "+err.Error()))
		return
	}

	holding, err := h.holdingService.AddHolding(portfolioID, services.AddHoldingInput{
		SecurityID:          req.SecurityID,
		PurchaseDate:        purchaseDate,
		PurchasePrice:       req.PurchasePrice,
		Quantity:            req.Quantity,
		AccruedInterestPaid: req.AccruedInterestPaid,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("ADD_HOLDING", "holding", holding.ID, c.ClientIP(), map[string]interface{}{
		"portfolio_id":   portfolioID,
		"security_id":    req.SecurityID,
		"purchase_price": req.PurchasePrice.String(),
		"quantity":       req.Quantity.String(),
	})

	c.JSON(http.StatusCreated, gin.H{"holding": holding})
}

// ListHoldings handles listing the holdings of a portfolio.
// @Summary     List holdings
// @Description Get a paginated list of a portfolio's holdings. Closed holdings are hidden unless include_closed is true.
// @Tags        holdings
// @Produce     json
// @Param       id             path  string true  "Portfolio ID"
// @Param       include_closed query bool   false "Include closed holdings"
// @Param       page           query int    false "Page number (default 1)"
// @Param       page_size      query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Holding] "Paginated holdings"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/holdings [get]
func (h *PortfolioHandler) ListHoldings(c *gin.Context) {
	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.holdingService.ListHoldings(portfolioID, c.Query("include_closed") == "true", page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetHolding handles retrieving a single holding.
// @Summary     Get holding by ID
// @Description Get a holding together with its security
// @Tags        holdings
// @Produce     json
// @Param       id path string true "Holding ID"
// @Success     200 {object} models.Holding "Holding details"
// @Failure     400 {object} ErrorResponse "Invalid holding ID"
// @Failure     404 {object} ErrorResponse "Holding not found"
// @Router      /holdings/{id} [get]
func (h *PortfolioHandler) GetHolding(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	holding, err := h.holdingService.GetHoldingByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"holding": holding})
}

// UpdateHolding handles updating quantity or status of a holding.
// @Summary     Update holding
// @Description Update the quantity or current flag of a holding
// @Tags        holdings
// @Accept      json
// @Produce     json
// @Param       id      path string               true "Holding ID"
// @Param       request body UpdateHoldingRequest true "Fields to update"
// @Success     200 {object} models.Holding "Updated holding"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Holding not found"
// @Router      /holdings/{id} [put]
func (h *PortfolioHandler) UpdateHolding(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	holding, err := h.holdingService.UpdateHolding(id, services.UpdateHoldingInput{
		Quantity:  req.Quantity,
		IsCurrent: req.IsCurrent,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Quantity != nil {
		changes["quantity"] = req.Quantity.String()
	}
	if req.IsCurrent != nil {
		changes["is_current"] = *req.IsCurrent
	}
	h.auditService.Log("UPDATE_HOLDING", "holding", id, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"holding": holding})
}

// CloseHolding handles closing a holding.
// @Summary     Close holding
// @Description Mark a holding as no longer current. The row is kept for history.
// @Tags        holdings
// @Produce     json
// @Param       id path string true "Holding ID"
// @Success     200 {object} MessageResponse "Holding closed"
// @Failure     404 {object} ErrorResponse "Holding not found"
// @Router      /holdings/{id} [delete]
func (h *PortfolioHandler) CloseHolding(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.holdingService.CloseHolding(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CLOSE_HOLDING", "holding", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Holding closed successfully"})
}
