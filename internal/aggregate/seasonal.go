package aggregate

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"sales-analytics/internal/sales"
)

// DecompositionPoint is one day of an additive decomposition. Trend and
// Residual are undefined (nil) for the half-window at either end.
type DecompositionPoint struct {
	Date     time.Time
	Observed float64
	Trend    *float64
	Seasonal float64
	Residual *float64
}

func (p DecompositionPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date     string   `json:"date"`
		Observed float64  `json:"observed"`
		Trend    *float64 `json:"trend"`
		Seasonal float64  `json:"seasonal"`
		Residual *float64 `json:"residual"`
	}{p.Date.Format(sales.DateLayout), p.Observed, p.Trend, p.Seasonal, p.Residual})
}

// SeasonalDecompose splits daily revenue into trend, seasonal and residual
// components with an additive model: observed = trend + seasonal + residual.
// The trend is a centred moving average over period days, the seasonal
// component is the mean detrended value per phase, centred to sum to zero.
//
// The series must be ordered, gap free and span at least two full periods,
// otherwise *sales.DecompositionPreconditionError is returned.
func SeasonalDecompose(points []DailyPoint, period int) ([]DecompositionPoint, error) {
	if period < 2 {
		return nil, &sales.DecompositionPreconditionError{Reason: fmt.Sprintf("period %d is less than 2", period)}
	}
	for i := 1; i < len(points); i++ {
		if !sales.Day(points[i].Date).After(sales.Day(points[i-1].Date)) {
			return nil, &sales.DecompositionPreconditionError{Reason: "series is not strictly ordered by date"}
		}
	}
	if missing := MissingDays(points); len(missing) > 0 {
		return nil, &sales.DecompositionPreconditionError{Reason: "series has date gaps; fill them before decomposing", Missing: missing}
	}
	if len(points) < 2*period {
		return nil, &sales.DecompositionPreconditionError{
			Reason: fmt.Sprintf("series has %d days, need at least %d for period %d", len(points), 2*period, period),
		}
	}

	n := len(points)
	observed := make([]float64, n)
	for i, p := range points {
		observed[i], _ = p.Revenue.Float64()
	}

	trend := movingAverage(observed, period)

	phaseSum := make([]float64, period)
	phaseCount := make([]int, period)
	for i := 0; i < n; i++ {
		if math.IsNaN(trend[i]) {
			continue
		}
		phaseSum[i%period] += observed[i] - trend[i]
		phaseCount[i%period]++
	}
	phase := make([]float64, period)
	var phaseMean float64
	for i := range phase {
		phase[i] = phaseSum[i] / float64(phaseCount[i])
		phaseMean += phase[i]
	}
	phaseMean /= float64(period)
	for i := range phase {
		phase[i] -= phaseMean
	}

	out := make([]DecompositionPoint, n)
	for i, p := range points {
		dp := DecompositionPoint{Date: sales.Day(p.Date), Observed: observed[i], Seasonal: phase[i%period]}
		if !math.IsNaN(trend[i]) {
			t := trend[i]
			r := observed[i] - t - dp.Seasonal
			dp.Trend, dp.Residual = &t, &r
		}
		out[i] = dp
	}
	return out, nil
}

// movingAverage is the centred moving average of x. Even periods use a
// 2×period window with half weights at both ends. Edge values are NaN.
func movingAverage(x []float64, period int) []float64 {
	weights := make([]float64, period)
	for i := range weights {
		weights[i] = 1 / float64(period)
	}
	if period%2 == 0 {
		weights = make([]float64, period+1)
		for i := range weights {
			weights[i] = 1 / float64(period)
		}
		weights[0] /= 2
		weights[period] /= 2
	}
	half := len(weights) / 2

	out := make([]float64, len(x))
	for i := range x {
		if i < half || i+half >= len(x) {
			out[i] = math.NaN()
			continue
		}
		var s float64
		for j, w := range weights {
			s += w * x[i-half+j]
		}
		out[i] = s
	}
	return out
}
