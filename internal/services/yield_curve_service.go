package services

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/models"
)

var tenorRegex = regexp.MustCompile(`^([1-9][0-9]{0,2})([MY])$`)

// yieldCurveService stores and lists yield curve observations.
type yieldCurveService struct {
	db *gorm.DB
}

// NewYieldCurveService creates a new YieldCurveServicer.
func NewYieldCurveService(db *gorm.DB) YieldCurveServicer {
	return &yieldCurveService{db: db}
}

// RecordPoints upserts curve points. A point already recorded for the same
// curve, date and tenor has its rate replaced.
func (s *yieldCurveService) RecordPoints(points []YieldCurvePointInput) (int, error) {
	if len(points) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Points array is empty")
	}

	rows := make([]models.YieldCurvePoint, len(points))
	for i, p := range points {
		name := strings.TrimSpace(p.CurveName)
		if name == "" {
			return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Curve name is required")
		}
		tenor := strings.ToUpper(strings.TrimSpace(p.Tenor))
		months, err := tenorMonths(tenor)
		if err != nil {
			return 0, err
		}
		rows[i] = models.YieldCurvePoint{
			CurveName:   name,
			CurveDate:   valuationDate(p.CurveDate),
			Tenor:       tenor,
			TenorMonths: months,
			Rate:        p.Rate,
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "curve_name"}, {Name: "curve_date"}, {Name: "tenor"}},
				DoUpdates: clause.AssignmentColumns([]string{"rate"}),
			}).Create(&rows[i]).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// GetCurve returns the points of a curve on a date, shortest tenor first.
// When curveDate is nil the most recent date recorded for the curve is used.
func (s *yieldCurveService) GetCurve(curveName string, curveDate *time.Time) ([]models.YieldCurvePoint, error) {
	var date time.Time
	if curveDate != nil {
		date = valuationDate(*curveDate)
	} else {
		var latest models.YieldCurvePoint
		if err := s.db.Where("curve_name = ?", curveName).Order("curve_date DESC").First(&latest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrYieldCurveNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		date = latest.CurveDate
	}

	var points []models.YieldCurvePoint
	if err := s.db.Where("curve_name = ? AND curve_date = ?", curveName, date).
		Order("tenor_months ASC").Find(&points).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(points) == 0 {
		return nil, apperrors.ErrYieldCurveNotFound
	}
	return points, nil
}

// tenorMonths converts a tenor such as "3M" or "10Y" into months.
func tenorMonths(tenor string) (int, error) {
	m := tenorRegex.FindStringSubmatch(tenor)
	if m == nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid tenor "+tenor+", expected e.g. 3M or 10Y")
	}
	n, _ := strconv.Atoi(m[1])
	if m[2] == "Y" {
		n *= 12
	}
	return n, nil
}
