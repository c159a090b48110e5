// Package reshape turns wide sales events into one item fact per
// (event, slot). Each attribute family is unpivoted into its own long table
// and the four tables are inner-joined back on (event_id, slot_index).
package reshape

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"sales-analytics/internal/sales"
)

type joinKey struct {
	eventID int64
	slot    int
}

// longRow is one unpivoted cell: the identifying key, the event attributes
// carried along, and the slot value.
type longRow struct {
	key   joinKey
	event *sales.Event
	value any
}

type family struct {
	name    string
	columns []string
	value   func(e *sales.Event, slot int) any
}

var families = []family{
	{
		name:    sales.FamilyName,
		columns: sales.SlotColumns(sales.FamilyName),
		value:   func(e *sales.Event, slot int) any { return e.Items[slot].Name },
	},
	{
		name:    sales.FamilyPrice,
		columns: sales.SlotColumns(sales.FamilyPrice),
		value:   func(e *sales.Event, slot int) any { return e.Items[slot].Price },
	},
	{
		name:    sales.FamilyQuantity,
		columns: sales.SlotColumns(sales.FamilyQuantity),
		value:   func(e *sales.Event, slot int) any { return e.Items[slot].Quantity },
	},
	{
		name:    sales.FamilyVariant,
		columns: sales.SlotColumns(sales.FamilyVariant),
		value:   func(e *sales.Event, slot int) any { return e.Items[slot].Variant },
	},
}

// Reshape produces SlotCount item facts per event, empty slots included.
// Revenue is computed after the join. If the join does not yield exactly
// SlotCount rows per event, typically because two events share an EventID,
// it fails with *sales.JoinCardinalityError and returns no facts.
func Reshape(events []sales.Event) ([]sales.ItemFact, error) {
	long := make([][]longRow, len(families))
	for i, f := range families {
		rows, err := unpivot(events, f)
		if err != nil {
			return nil, err
		}
		long[i] = rows
	}

	prices := index(long[1])
	quantities := index(long[2])
	variants := index(long[3])

	expected := sales.SlotCount * len(events)
	facts := make([]sales.ItemFact, 0, expected)
	for _, n := range long[0] {
		for _, p := range prices[n.key] {
			for _, q := range quantities[n.key] {
				for _, v := range variants[n.key] {
					facts = append(facts, buildFact(n, p, q, v))
				}
			}
		}
	}

	if len(facts) != expected {
		return nil, &sales.JoinCardinalityError{Events: len(events), Expected: expected, Got: len(facts)}
	}
	return facts, nil
}

// unpivot melts the slot columns of one family into long rows, taking the
// slot index from the column name suffix.
func unpivot(events []sales.Event, f family) ([]longRow, error) {
	rows := make([]longRow, 0, len(events)*len(f.columns))
	for i := range events {
		e := &events[i]
		for _, col := range f.columns {
			slot, err := slotIndex(f.name, col)
			if err != nil {
				return nil, err
			}
			rows = append(rows, longRow{
				key:   joinKey{eventID: e.EventID, slot: slot},
				event: e,
				value: f.value(e, slot),
			})
		}
	}
	return rows, nil
}

func slotIndex(familyName, column string) (int, error) {
	suffix, ok := strings.CutPrefix(column, familyName+"_")
	if !ok {
		return 0, fmt.Errorf("reshape: column %q is not in family %q", column, familyName)
	}
	slot, err := strconv.Atoi(suffix)
	if err != nil || slot < 0 || slot >= sales.SlotCount {
		return 0, fmt.Errorf("reshape: column %q has no valid slot index", column)
	}
	return slot, nil
}

func index(rows []longRow) map[joinKey][]longRow {
	m := make(map[joinKey][]longRow, len(rows))
	for _, r := range rows {
		m[r.key] = append(m[r.key], r)
	}
	return m
}

func buildFact(name, price, qty, variant longRow) sales.ItemFact {
	f := sales.ItemFact{
		EventID:     name.key.eventID,
		EventDate:   name.event.EventDate,
		SlotIndex:   name.key.slot,
		ProductName: cloneString(name.value.(*string)),
		Price:       price.value.(decimal.NullDecimal),
		Quantity:    qty.value.(decimal.NullDecimal),
		Variant:     cloneString(variant.value.(*string)),
	}
	f.Revenue = sales.Revenue(f.Price, f.Quantity)

	populated := f.ProductName != nil || f.Price.Valid || f.Quantity.Valid || f.Variant != nil
	if populated && f.ProductName == nil {
		f.Quality = append(f.Quality, sales.DataQualityWarning{
			Code: sales.WarnMissingProductName, Field: sales.FamilyName, Message: fmt.Sprintf("slot %d has values but no product name", f.SlotIndex),
		})
	}
	if f.ProductName != nil && !f.Revenue.Valid {
		f.Quality = append(f.Quality, sales.DataQualityWarning{
			Code: sales.WarnMissingPriceOrQuantity, Field: sales.FamilyPrice, Message: "revenue is undefined without price and quantity",
		})
	}
	return f
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Named drops facts without a product name, keeping order.
func Named(facts []sales.ItemFact) []sales.ItemFact {
	out := make([]sales.ItemFact, 0, len(facts))
	for _, f := range facts {
		if f.Named() {
			out = append(out, f)
		}
	}
	return out
}
