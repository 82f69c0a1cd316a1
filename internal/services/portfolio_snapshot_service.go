package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/logger"
	"bondfolio/internal/metrics"
	"bondfolio/internal/models"
	"bondfolio/internal/pagination"
)

// portfolioSnapshotService handles portfolio snapshot operations.
type portfolioSnapshotService struct {
	db        *gorm.DB
	analytics AnalyticsServicer
}

// NewPortfolioSnapshotService creates a new PortfolioSnapshotServicer.
func NewPortfolioSnapshotService(db *gorm.DB, analytics AnalyticsServicer) PortfolioSnapshotServicer {
	return &portfolioSnapshotService{db: db, analytics: analytics}
}

// ComputeAndRecordSnapshots computes and stores analytics for every portfolio.
// Portfolios with nothing to value are skipped; a snapshot already recorded
// for the same portfolio and time is overwritten.
func (s *portfolioSnapshotService) ComputeAndRecordSnapshots(ctx context.Context, recordedAt time.Time) (int, error) {
	var portfolioIDs []string
	if err := s.db.Model(&models.Portfolio{}).Order("created_at ASC").Pluck("id", &portfolioIDs).Error; err != nil {
		metrics.SnapshotRunsTotal.WithLabelValues(metrics.Result(err)).Inc()
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	count := 0
	for _, portfolioID := range portfolioIDs {
		if err := ctx.Err(); err != nil {
			metrics.SnapshotRunsTotal.WithLabelValues(metrics.Result(err)).Inc()
			return count, err
		}

		analytics, err := s.analytics.GetPortfolioAnalytics(ctx, portfolioID, recordedAt)
		if errors.Is(err, apperrors.ErrEmptyPortfolio) {
			continue
		}
		if err != nil {
			metrics.SnapshotRunsTotal.WithLabelValues(metrics.Result(err)).Inc()
			return count, err
		}

		snapshot := &models.PortfolioSnapshot{
			PortfolioID:             portfolioID,
			RecordedAt:              recordedAt,
			TotalMarketValue:        analytics.TotalMarketValue,
			TotalCostBasis:          analytics.TotalCostBasis,
			WeightedAverageYield:    analytics.WeightedAverageYield,
			ModifiedDuration:        analytics.ModifiedDuration,
			Convexity:               analytics.Convexity,
			WeightedAverageMaturity: analytics.WeightedAverageMaturity,
			HoldingsCount:           analytics.HoldingsCount,
		}

		if err := s.upsertSnapshot(snapshot); err != nil {
			metrics.SnapshotRunsTotal.WithLabelValues(metrics.Result(err)).Inc()
			return count, err
		}
		count++
	}

	metrics.SnapshotsRecordedTotal.Add(float64(count))
	metrics.SnapshotRunsTotal.WithLabelValues(metrics.ResultOK).Inc()
	logger.Get().Infow("portfolio snapshots recorded", "count", count, "recorded_at", recordedAt)
	return count, nil
}

// upsertSnapshot overwrites the row already recorded for the same portfolio
// and time, or inserts a new one.
func (s *portfolioSnapshotService) upsertSnapshot(snapshot *models.PortfolioSnapshot) error {
	var existing models.PortfolioSnapshot
	result := s.db.Where("portfolio_id = ? AND recorded_at = ?", snapshot.PortfolioID, snapshot.RecordedAt).First(&existing)
	if result.Error == nil {
		if err := s.db.Model(&existing).Updates(map[string]interface{}{
			"total_market_value":        snapshot.TotalMarketValue,
			"total_cost_basis":          snapshot.TotalCostBasis,
			"weighted_average_yield":    snapshot.WeightedAverageYield,
			"modified_duration":         snapshot.ModifiedDuration,
			"convexity":                 snapshot.Convexity,
			"weighted_average_maturity": snapshot.WeightedAverageMaturity,
			"holdings_count":            snapshot.HoldingsCount,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}
	if err := s.db.Create(snapshot).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetSnapshots returns paginated snapshots for a portfolio within a date range.
func (s *portfolioSnapshotService) GetSnapshots(
	portfolioID string,
	from, to time.Time,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
	if to.Before(from) {
		return nil, apperrors.ErrInvalidDateRange
	}
	if _, err := findPortfolio(s.db, portfolioID); err != nil {
		return nil, err
	}
	query := func() *gorm.DB {
		return s.db.Model(&models.PortfolioSnapshot{}).
			Where("portfolio_id = ? AND recorded_at >= ? AND recorded_at <= ?", portfolioID, from, to)
	}

	result, err := pagination.Find[models.PortfolioSnapshot](query, "recorded_at DESC", page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}
