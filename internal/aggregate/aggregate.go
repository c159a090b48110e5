// Package aggregate computes the read-only business metrics of a sales
// report. Every query is a pure function of cleaned events or classified
// item facts; callers scope them with sales.FilterEvents / sales.FilterFacts.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"sales-analytics/internal/classify"
	"sales-analytics/internal/sales"
)

var thousand = decimal.NewFromInt(1000)

type PincodeRevenue struct {
	Pincode   string          `json:"pincode"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	// SubtotalK is Subtotal in thousands rounded half-to-even, as charted.
	SubtotalK decimal.Decimal `json:"subtotal_k"`
}

type CityAverage struct {
	City            string          `json:"city"`
	Orders          int             `json:"orders"`
	AverageSubtotal decimal.Decimal `json:"average_subtotal"`
	AverageK        decimal.Decimal `json:"average_k"`
}

type ItemQuantity struct {
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type CategoryRevenue struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type ChannelRevenue struct {
	Channel  string          `json:"channel"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// ChannelCanonicalizer rewrites the channel origin of events.
type ChannelCanonicalizer interface {
	CanonicalizeChannels(events []sales.Event) []sales.Event
}

type group struct {
	key    string
	rows   int
	values int
	sum    decimal.Decimal
}

// groupSum groups rows by key, ordered by key, summing the valid values.
// Rows without a key are dropped.
func groupSum[T any](rows []T, key func(T) (string, bool), value func(T) decimal.NullDecimal) []*group {
	byKey := map[string]*group{}
	for _, r := range rows {
		k, ok := key(r)
		if !ok {
			continue
		}
		g, seen := byKey[k]
		if !seen {
			g = &group{key: k, sum: decimal.Zero}
			byKey[k] = g
		}
		g.rows++
		if v := value(r); v.Valid {
			g.sum = g.sum.Add(v.Decimal)
			g.values++
		}
	}
	groups := make([]*group, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].key < groups[j].key })
	return groups
}

// sortDesc orders groups by metric, largest first; equal metrics keep the
// key order they were grouped in.
func sortDesc(groups []*group, metric func(*group) decimal.Decimal) {
	sort.SliceStable(groups, func(i, j int) bool {
		return metric(groups[i]).GreaterThan(metric(groups[j]))
	})
}

func sum(g *group) decimal.Decimal { return g.sum }

func mean(g *group) decimal.Decimal {
	if g.values == 0 {
		return decimal.Zero
	}
	return g.sum.Div(decimal.NewFromInt(int64(g.values)))
}

func text(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

// RevenueByPincode sums subtotals per pincode, largest first.
func RevenueByPincode(events []sales.Event) []PincodeRevenue {
	groups := groupSum(events,
		func(e sales.Event) (string, bool) { return text(e.Pincode) },
		func(e sales.Event) decimal.NullDecimal { return e.Subtotal })
	sortDesc(groups, sum)

	out := make([]PincodeRevenue, 0, len(groups))
	for _, g := range groups {
		out = append(out, PincodeRevenue{Pincode: g.key, Subtotal: g.sum, SubtotalK: g.sum.Div(thousand).RoundBank(0)})
	}
	return out
}

// AverageOrderValueByCity averages subtotals per cleaned city, keeping only
// cities with more than minSupport events, largest average first.
func AverageOrderValueByCity(events []sales.Event, minSupport int) []CityAverage {
	groups := groupSum(events,
		func(e sales.Event) (string, bool) { return text(e.City) },
		func(e sales.Event) decimal.NullDecimal { return e.Subtotal })

	kept := groups[:0]
	for _, g := range groups {
		if g.rows > minSupport {
			kept = append(kept, g)
		}
	}
	sortDesc(kept, mean)

	out := make([]CityAverage, 0, len(kept))
	for _, g := range kept {
		avg := mean(g)
		out = append(out, CityAverage{City: g.key, Orders: g.rows, AverageSubtotal: avg, AverageK: avg.Div(thousand).Round(2)})
	}
	return out
}

// TopItemsByQuantity sums quantity per product name and returns at most n
// products, largest first. Facts without a product name are ignored.
func TopItemsByQuantity(facts []sales.ItemFact, n int) []ItemQuantity {
	groups := groupSum(facts,
		func(f sales.ItemFact) (string, bool) { return text(f.ProductName) },
		func(f sales.ItemFact) decimal.NullDecimal { return f.Quantity })
	sortDesc(groups, sum)
	if n >= 0 && len(groups) > n {
		groups = groups[:n]
	}

	out := make([]ItemQuantity, 0, len(groups))
	for _, g := range groups {
		out = append(out, ItemQuantity{ProductName: g.key, Quantity: g.sum})
	}
	return out
}

// RevenueByCategory sums revenue per category over named facts. Facts with no
// category are grouped under classify.Unclassified.
func RevenueByCategory(facts []sales.ItemFact) []CategoryRevenue {
	groups := groupSum(facts,
		func(f sales.ItemFact) (string, bool) {
			if !f.Named() {
				return "", false
			}
			return classify.CategoryOf(f), true
		},
		func(f sales.ItemFact) decimal.NullDecimal { return f.Revenue })
	sortDesc(groups, sum)

	out := make([]CategoryRevenue, 0, len(groups))
	for _, g := range groups {
		out = append(out, CategoryRevenue{Category: g.key, Revenue: g.sum})
	}
	return out
}

// RevenueByChannel canonicalises channel origins, sums subtotals per channel
// and returns at most n channels, largest first.
func RevenueByChannel(events []sales.Event, c ChannelCanonicalizer, n int) []ChannelRevenue {
	groups := groupSum(c.CanonicalizeChannels(events),
		func(e sales.Event) (string, bool) { return text(e.SourceOrigin) },
		func(e sales.Event) decimal.NullDecimal { return e.Subtotal })
	sortDesc(groups, sum)
	if n >= 0 && len(groups) > n {
		groups = groups[:n]
	}

	out := make([]ChannelRevenue, 0, len(groups))
	for _, g := range groups {
		out = append(out, ChannelRevenue{Channel: g.key, Subtotal: g.sum})
	}
	return out
}
