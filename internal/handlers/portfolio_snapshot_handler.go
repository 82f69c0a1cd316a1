package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/pagination"
	"bondfolio/internal/services"
)

// PortfolioSnapshotHandler handles portfolio snapshot requests.
type PortfolioSnapshotHandler struct {
	snapshotService services.PortfolioSnapshotServicer
	auditService    services.AuditServicer
}

// NewPortfolioSnapshotHandler creates a new PortfolioSnapshotHandler.
func NewPortfolioSnapshotHandler(snapshotService services.PortfolioSnapshotServicer, auditService services.AuditServicer) *PortfolioSnapshotHandler {
	return &PortfolioSnapshotHandler{snapshotService: snapshotService, auditService: auditService}
}

// ComputeSnapshotsRequest represents the request payload for computing snapshots.
// RecordedAt defaults to the current time.
type ComputeSnapshotsRequest struct {
	RecordedAt string `json:"recorded_at"`
}

// ComputeSnapshots handles computing and recording portfolio snapshots.
// @Summary     Compute portfolio snapshots
// @Description Compute and record analytics snapshots for every portfolio with something to value
// @Tags        snapshots
// @Accept      json
// @Produce     json
// @Param       request body     ComputeSnapshotsRequest false "Snapshot parameters"
// @Success     200     {object} map[string]int          "Snapshots recorded count"
// @Failure     400     {object} ErrorResponse           "Invalid input"
// @Router      /snapshots/compute [post]
func (h *PortfolioSnapshotHandler) ComputeSnapshots(c *gin.Context) {
	var req ComputeSnapshotsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	recordedAt := time.Now().UTC().Truncate(time.Second)
	if req.RecordedAt != "" {
		t, err := parseFlexibleTime(req.RecordedAt)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "recorded_at: "+err.Error()))
			return
		}
		recordedAt = t
	}

	count, err := h.snapshotService.ComputeAndRecordSnapshots(c.Request.Context(), recordedAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("COMPUTE_SNAPSHOTS", "portfolio_snapshot", "", c.ClientIP(),
		map[string]interface{}{"recorded_at": recordedAt, "count": count})

	c.JSON(http.StatusOK, gin.H{"snapshots_recorded": count, "recorded_at": recordedAt})
}

// GetSnapshots handles retrieving the snapshots of a portfolio.
// @Summary     Get portfolio snapshots
// @Description Get paginated portfolio snapshots for a date range, newest first
// @Tags        snapshots
// @Produce     json
// @Param       id        path  string true  "Portfolio ID"
// @Param       from_date query string true  "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string true  "End date (RFC3339 or YYYY-MM-DD)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.PortfolioSnapshot] "Paginated snapshots"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/snapshots [get]
func (h *PortfolioSnapshotHandler) GetSnapshots(c *gin.Context) {
	portfolioID, err := parsePathID(c, "id")
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

	result, err := h.snapshotService.GetSnapshots(portfolioID, from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
