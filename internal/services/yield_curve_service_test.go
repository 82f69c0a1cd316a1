package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"bondfolio/internal/models"
	"bondfolio/internal/testutil"
)

func TestRecordPoints(t *testing.T) {
	t.Run("upserts_by_curve_date_and_tenor", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewYieldCurveService(db)

		date := testutil.Date(2025, 6, 2)
		count, err := svc.RecordPoints([]YieldCurvePointInput{
			{CurveName: "UST", CurveDate: date, Tenor: "10Y", Rate: decimal.RequireFromString("4.41")},
			{CurveName: "UST", CurveDate: date, Tenor: "3m", Rate: decimal.RequireFromString("4.35")},
		})
		testutil.AssertNoError(t, err)
		if count != 2 {
			t.Errorf("expected 2 points, got %d", count)
		}

		_, err = svc.RecordPoints([]YieldCurvePointInput{
			{CurveName: "UST", CurveDate: date, Tenor: "10Y", Rate: decimal.RequireFromString("4.47")},
		})
		testutil.AssertNoError(t, err)

		var stored []models.YieldCurvePoint
		db.Order("tenor_months ASC").Find(&stored)
		if len(stored) != 2 {
			t.Fatalf("expected 2 stored points, got %d", len(stored))
		}
		if stored[0].Tenor != "3M" || stored[0].TenorMonths != 3 {
			t.Errorf("expected normalised 3M tenor, got %s (%d months)", stored[0].Tenor, stored[0].TenorMonths)
		}
		if !stored[1].Rate.Equal(decimal.RequireFromString("4.47")) {
			t.Errorf("expected updated rate 4.47, got %s", stored[1].Rate)
		}
	})

	t.Run("invalid_tenor", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewYieldCurveService(db)

		_, err := svc.RecordPoints([]YieldCurvePointInput{
			{CurveName: "UST", CurveDate: testutil.Date(2025, 6, 2), Tenor: "10D", Rate: decimal.NewFromInt(4)},
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewYieldCurveService(db)

		_, err := svc.RecordPoints(nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetCurve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewYieldCurveService(db)

	older := testutil.Date(2025, 6, 2)
	newer := testutil.Date(2025, 6, 3)
	_, err := svc.RecordPoints([]YieldCurvePointInput{
		{CurveName: "UST", CurveDate: older, Tenor: "2Y", Rate: decimal.RequireFromString("3.95")},
		{CurveName: "UST", CurveDate: newer, Tenor: "30Y", Rate: decimal.RequireFromString("4.90")},
		{CurveName: "UST", CurveDate: newer, Tenor: "6M", Rate: decimal.RequireFromString("4.30")},
	})
	testutil.AssertNoError(t, err)

	t.Run("latest_date_by_default", func(t *testing.T) {
		points, err := svc.GetCurve("UST", nil)
		testutil.AssertNoError(t, err)

		if len(points) != 2 {
			t.Fatalf("expected 2 points on the latest date, got %d", len(points))
		}
		if points[0].Tenor != "6M" || points[1].Tenor != "30Y" {
			t.Errorf("expected points ordered by tenor, got %s then %s", points[0].Tenor, points[1].Tenor)
		}
	})

	t.Run("given_date", func(t *testing.T) {
		points, err := svc.GetCurve("UST", &older)
		testutil.AssertNoError(t, err)
		if len(points) != 1 || points[0].Tenor != "2Y" {
			t.Errorf("expected the 2Y point, got %v", points)
		}
	})

	t.Run("unknown_curve", func(t *testing.T) {
		_, err := svc.GetCurve("BUND", nil)
		testutil.AssertAppError(t, err, "YIELD_CURVE_NOT_FOUND")
	})
}

func TestTenorMonths(t *testing.T) {
	tests := []struct {
		tenor string
		want  int
	}{
		{"1M", 1},
		{"6M", 6},
		{"1Y", 12},
		{"30Y", 360},
	}
	for _, tt := range tests {
		t.Run(tt.tenor, func(t *testing.T) {
			got, err := tenorMonths(tt.tenor)
			testutil.AssertNoError(t, err)
			if got != tt.want {
				t.Errorf("expected %d months, got %d", tt.want, got)
			}
		})
	}

	for _, bad := range []string{"", "0M", "Y", "1W", "1000Y"} {
		if _, err := tenorMonths(bad); err == nil {
			t.Errorf("expected error for tenor %q", bad)
		}
	}
}
