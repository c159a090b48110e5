package sales

import "sort"

// Data-quality warning codes.
const (
	WarnCityImputed            = "city_imputed"
	WarnSubtotalImputed        = "subtotal_imputed"
	WarnSubtotalDefaulted      = "subtotal_imputed_default"
	WarnMissingProductName     = "missing_product_name"
	WarnUnclassifiedProduct    = "unclassified_product"
	WarnMissingPriceOrQuantity = "missing_price_or_quantity"
)

// DataQualityWarning is a non-fatal signal attached to the row it concerns.
type DataQualityWarning struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message,omitempty"`
}

// WarningCounts tallies warning codes over events and facts.
func WarningCounts(events []Event, facts []ItemFact) map[string]int {
	counts := map[string]int{}
	for _, e := range events {
		for _, w := range e.Quality {
			counts[w.Code]++
		}
	}
	for _, f := range facts {
		for _, w := range f.Quality {
			counts[w.Code]++
		}
	}
	return counts
}

// SortedCodes returns the keys of counts in lexical order.
func SortedCodes(counts map[string]int) []string {
	codes := make([]string, 0, len(counts))
	for c := range counts {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
