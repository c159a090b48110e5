// Package classify assigns product categories to item facts from a static
// product name lookup.
package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sales-analytics/internal/sales"
)

// Unclassified is the group label aggregates use for facts without a category.
const Unclassified = "Unclassified"

// Lookup maps an exact product name to its category.
type Lookup map[string]string

// LoadLookup reads a flat YAML mapping of product name to category. An empty
// file yields an empty lookup.
func LoadLookup(path string) (Lookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLookup(data)
}

func ParseLookup(data []byte) (Lookup, error) {
	lookup := Lookup{}
	if err := yaml.Unmarshal(data, &lookup); err != nil {
		return nil, fmt.Errorf("classify: parse lookup: %w", err)
	}
	return lookup, nil
}

// Classify returns a copy of facts with Category set wherever the product name
// is in lookup. Matching is exact; names absent from the lookup keep a nil
// category and get an unclassified_product warning. The lookup is only read.
func Classify(facts []sales.ItemFact, lookup Lookup) []sales.ItemFact {
	out := make([]sales.ItemFact, len(facts))
	for i, f := range facts {
		if f.Quality != nil {
			f.Quality = append([]sales.DataQualityWarning(nil), f.Quality...)
		}
		f.Category = nil
		if f.ProductName != nil {
			if category, ok := lookup[*f.ProductName]; ok {
				f.Category = &category
			} else {
				f.Quality = append(f.Quality, sales.DataQualityWarning{
					Code: sales.WarnUnclassifiedProduct, Field: "category", Message: fmt.Sprintf("no category for %q", *f.ProductName),
				})
			}
		}
		out[i] = f
	}
	return out
}

// CategoryOf returns the fact's category or Unclassified.
func CategoryOf(f sales.ItemFact) string {
	if f.Category == nil {
		return Unclassified
	}
	return *f.Category
}
