package aggregate

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"sales-analytics/internal/sales"
	"sales-analytics/internal/sales/salestest"
)

func TestDailyTrend(t *testing.T) {
	events := []sales.Event{
		salestest.Event(1, "2024-01-03", "chennai", "10"),
		salestest.Event(2, "2024-01-01", "chennai", "20"),
		salestest.Event(3, "2024-01-03", "chennai", "30.5"),
	}
	got := DailyTrend(events)
	require.Len(t, got, 2)
	require.Equal(t, salestest.Date("2024-01-01"), got[0].Date)
	require.Equal(t, 1, got[0].Orders)
	require.Equal(t, salestest.Date("2024-01-03"), got[1].Date)
	require.Equal(t, 2, got[1].Orders)
	require.Equal(t, "40.5", got[1].Revenue.String())

	require.Equal(t, []time.Time{salestest.Date("2024-01-02")}, MissingDays(got))
}

func TestFillDailyGaps(t *testing.T) {
	points := []DailyPoint{
		{Date: salestest.Date("2023-12-31"), Orders: 9, Revenue: decimal.NewFromInt(9)},
		{Date: salestest.Date("2024-01-02"), Orders: 1, Revenue: decimal.NewFromInt(5)},
	}
	r, err := sales.ParseDateRange("2024-01-01", "2024-01-04")
	require.NoError(t, err)

	got := FillDailyGaps(points, r)
	require.Len(t, got, 4)
	require.Equal(t, salestest.Date("2024-01-01"), got[0].Date)
	require.True(t, got[0].Revenue.IsZero())
	require.Equal(t, 1, got[1].Orders)
	require.Empty(t, MissingDays(got))
}

func TestDailyPoint_MarshalJSON(t *testing.T) {
	b, err := DailyPoint{Date: salestest.Date("2024-01-02"), Orders: 3, Revenue: decimal.RequireFromString("12.5")}.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"date":"2024-01-02","orders":3,"revenue":"12.5"}`, string(b))
}

func weekly(days int, start string) []DailyPoint {
	pattern := []int64{-30, -20, -10, 0, 10, 20, 30}
	r, _ := sales.ParseDateRange(start, start)
	out := make([]DailyPoint, days)
	for i := range out {
		out[i] = DailyPoint{Date: r.Start.AddDate(0, 0, i), Orders: 1, Revenue: decimal.NewFromInt(100 + pattern[i%7])}
	}
	return out
}

func TestSeasonalDecompose_RecoversWeeklyPattern(t *testing.T) {
	points := weekly(28, "2024-01-01")
	got, err := SeasonalDecompose(points, 7)
	require.NoError(t, err)
	require.Len(t, got, 28)

	for i, p := range got {
		require.InDelta(t, []float64{-30, -20, -10, 0, 10, 20, 30}[i%7], p.Seasonal, 1e-9)
		if i < 3 || i >= 25 {
			require.Nil(t, p.Trend)
			require.Nil(t, p.Residual)
			continue
		}
		require.NotNil(t, p.Trend)
		require.InDelta(t, 100, *p.Trend, 1e-9)
		require.InDelta(t, 0, *p.Residual, 1e-9)
		require.InDelta(t, p.Observed, *p.Trend+p.Seasonal+*p.Residual, 1e-9)
	}
}

func TestSeasonalDecompose_EvenPeriod(t *testing.T) {
	points := weekly(20, "2024-01-01")
	for i := range points {
		points[i].Revenue = decimal.NewFromInt(int64(50 + 10*(i%2)))
	}
	got, err := SeasonalDecompose(points, 2)
	require.NoError(t, err)
	require.Nil(t, got[0].Trend)
	require.InDelta(t, 55, *got[1].Trend, 1e-9)
	require.InDelta(t, -5, got[0].Seasonal, 1e-9)
	require.InDelta(t, 5, got[1].Seasonal, 1e-9)
}

func TestSeasonalDecompose_Preconditions(t *testing.T) {
	var precond *sales.DecompositionPreconditionError

	gappy := append(weekly(10, "2024-01-01"), weekly(10, "2024-01-15")...)
	_, err := SeasonalDecompose(gappy, 7)
	require.True(t, errors.As(err, &precond))
	require.Len(t, precond.Missing, 4)

	_, err = SeasonalDecompose(weekly(13, "2024-01-01"), 7)
	require.True(t, errors.As(err, &precond))
	require.Contains(t, err.Error(), "need at least 14")

	reversed := weekly(14, "2024-01-01")
	reversed[0], reversed[1] = reversed[1], reversed[0]
	_, err = SeasonalDecompose(reversed, 7)
	require.True(t, errors.As(err, &precond))

	_, err = SeasonalDecompose(weekly(14, "2024-01-01"), 1)
	require.True(t, errors.As(err, &precond))

	r, err := sales.ParseDateRange("2024-01-01", "2024-01-24")
	require.NoError(t, err)
	_, err = SeasonalDecompose(FillDailyGaps(gappy, r), 7)
	require.NoError(t, err, "zero-filled series decomposes")
}
