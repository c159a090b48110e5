// Package salestest builds sales events for tests.
package salestest

import (
	"time"

	"github.com/shopspring/decimal"

	"sales-analytics/internal/sales"
)

// Item describes one populated slot. Empty strings become nulls.
type Item struct {
	Name     string
	Price    string
	Quantity string
	Variant  string
}

func Date(s string) time.Time {
	t, err := time.Parse(sales.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func Money(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func Text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Event builds an event; items fill slots from 0 and the rest stay empty.
func Event(id int64, date, city, subtotal string, items ...Item) sales.Event {
	e := sales.Event{
		EventID:   id,
		EventDate: Date(date),
		City:      Text(city),
		Subtotal:  Money(subtotal),
	}
	for i, it := range items {
		e.Items[i] = sales.ItemSlot{
			Name:     Text(it.Name),
			Price:    Money(it.Price),
			Quantity: Money(it.Quantity),
			Variant:  Text(it.Variant),
		}
	}
	return e
}

// WithPincode sets the pincode of e.
func WithPincode(e sales.Event, pincode string) sales.Event {
	e.Pincode = Text(pincode)
	return e
}

// WithOrigin sets the channel origin of e.
func WithOrigin(e sales.Event, origin string) sales.Event {
	e.SourceOrigin = Text(origin)
	return e
}
