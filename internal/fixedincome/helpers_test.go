package fixedincome

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "bondfolio/internal/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.Error(t, err)
	require.True(t, errors.As(err, &appErr), "expected *AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code, "message: %s", appErr.Message)
}

// tenYear is a 4.5% semi-annual bond issued 2020-01-15, maturing 2030-01-15.
func tenYear() Terms {
	return Terms{
		FaceValue:    1000,
		CouponRate:   0.045,
		Frequency:    FrequencySemiAnnual,
		IssueDate:    date(2020, 1, 15),
		MaturityDate: date(2030, 1, 15),
		DayCount:     DayCountAct365,
	}
}

func zeroCoupon() Terms {
	return Terms{
		FaceValue:    1000,
		Frequency:    FrequencyZeroCoupon,
		IssueDate:    date(2020, 1, 15),
		MaturityDate: date(2030, 1, 15),
		DayCount:     DayCountAct365,
	}
}
