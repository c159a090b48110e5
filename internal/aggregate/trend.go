package aggregate

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"sales-analytics/internal/sales"
)

// DailyPoint is one day of the event time series.
type DailyPoint struct {
	Date    time.Time
	Orders  int
	Revenue decimal.Decimal
}

func (p DailyPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date    string          `json:"date"`
		Orders  int             `json:"orders"`
		Revenue decimal.Decimal `json:"revenue"`
	}{p.Date.Format(sales.DateLayout), p.Orders, p.Revenue})
}

// DailyTrend counts events and sums subtotals per calendar date, ordered by date.
// Days without events are absent; see FillDailyGaps.
func DailyTrend(events []sales.Event) []DailyPoint {
	byDay := map[time.Time]*DailyPoint{}
	for _, e := range events {
		d := sales.Day(e.EventDate)
		p, ok := byDay[d]
		if !ok {
			p = &DailyPoint{Date: d, Revenue: decimal.Zero}
			byDay[d] = p
		}
		p.Orders++
		if e.Subtotal.Valid {
			p.Revenue = p.Revenue.Add(e.Subtotal.Decimal)
		}
	}
	out := make([]DailyPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FillDailyGaps returns one point per day of r, taking existing points and
// zero-filling the rest. Points outside r are dropped.
func FillDailyGaps(points []DailyPoint, r sales.DateRange) []DailyPoint {
	byDay := make(map[time.Time]DailyPoint, len(points))
	for _, p := range points {
		byDay[sales.Day(p.Date)] = p
	}
	out := make([]DailyPoint, 0, r.Days())
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		if p, ok := byDay[d]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, DailyPoint{Date: d, Revenue: decimal.Zero})
	}
	return out
}

// MissingDays lists the dates absent between the first and last point of an
// ordered series.
func MissingDays(points []DailyPoint) []time.Time {
	var missing []time.Time
	for i := 1; i < len(points); i++ {
		prev, cur := sales.Day(points[i-1].Date), sales.Day(points[i].Date)
		for d := prev.AddDate(0, 0, 1); d.Before(cur); d = d.AddDate(0, 0, 1) {
			missing = append(missing, d)
		}
	}
	return missing
}
