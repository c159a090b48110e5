// Package sales defines the checkout event and item fact records the
// cleaning, reshape, classification and aggregation stages exchange.
package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Source column names of the denormalised sales table.
const (
	ColEventDate    = "event_date"
	ColPincode      = "pincode"
	ColCity         = "city"
	ColSubtotal     = "subtotal"
	ColSourceName   = "source_name"
	ColSourceMedium = "source_medium"
	ColSourceOrigin = "source_origin"
)

// Item slot column families. Slot columns are named <family>_<slot>.
const (
	FamilyName     = "item_name"
	FamilyPrice    = "price"
	FamilyQuantity = "quantity"
	FamilyVariant  = "item_variant"
)

// SlotCount is the number of line items flattened into one event row.
const SlotCount = 5

// Families lists the item attribute families in reshape order.
var Families = []string{FamilyName, FamilyPrice, FamilyQuantity, FamilyVariant}

// SlotColumn returns the source column holding family for slot.
func SlotColumn(family string, slot int) string {
	return fmt.Sprintf("%s_%d", family, slot)
}

// SlotColumns returns the SlotCount columns of family in slot order.
func SlotColumns(family string) []string {
	cols := make([]string, SlotCount)
	for i := range cols {
		cols[i] = SlotColumn(family, i)
	}
	return cols
}

// RequiredColumns is every column EventsFromTable needs, in check order.
func RequiredColumns() []string {
	cols := []string{ColEventDate, ColPincode, ColCity, ColSubtotal, ColSourceName, ColSourceMedium, ColSourceOrigin}
	for _, f := range Families {
		cols = append(cols, SlotColumns(f)...)
	}
	return cols
}

// ItemSlot is one embedded line item; every field may be missing.
type ItemSlot struct {
	Name     *string
	Price    decimal.NullDecimal
	Quantity decimal.NullDecimal
	Variant  *string
}

// Empty reports whether no field of the slot is populated.
func (s ItemSlot) Empty() bool {
	return s.Name == nil && !s.Price.Valid && !s.Quantity.Valid && s.Variant == nil
}

// Event is one checkout row. EventID is assigned on ingestion and is unique
// within a batch. City holds the raw value until cleaned.
type Event struct {
	EventID      int64
	EventDate    time.Time
	Pincode      *string
	City         *string
	Subtotal     decimal.NullDecimal
	SourceName   *string
	SourceMedium *string
	SourceOrigin *string
	Items        [SlotCount]ItemSlot
	Quality      []DataQualityWarning
}

// Clone returns a deep copy so stages never mutate their input.
func (e Event) Clone() Event {
	out := e
	out.Pincode = cloneString(e.Pincode)
	out.City = cloneString(e.City)
	out.SourceName = cloneString(e.SourceName)
	out.SourceMedium = cloneString(e.SourceMedium)
	out.SourceOrigin = cloneString(e.SourceOrigin)
	for i, it := range e.Items {
		out.Items[i] = ItemSlot{
			Name:     cloneString(it.Name),
			Price:    it.Price,
			Quantity: it.Quantity,
			Variant:  cloneString(it.Variant),
		}
	}
	if e.Quality != nil {
		out.Quality = append([]DataQualityWarning(nil), e.Quality...)
	}
	return out
}

// ItemFact is one (event, slot) row produced by the reshape. Revenue is
// Price × Quantity and is only valid when both inputs are.
type ItemFact struct {
	EventID     int64
	EventDate   time.Time
	SlotIndex   int
	ProductName *string
	Price       decimal.NullDecimal
	Quantity    decimal.NullDecimal
	Variant     *string
	Revenue     decimal.NullDecimal
	Category    *string
	Quality     []DataQualityWarning
}

// Revenue multiplies price by quantity; the result is null if either is.
func Revenue(price, quantity decimal.NullDecimal) decimal.NullDecimal {
	if !price.Valid || !quantity.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: price.Decimal.Mul(quantity.Decimal), Valid: true}
}

// Named reports whether the fact has a product name.
func (f ItemFact) Named() bool { return f.ProductName != nil }

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Ptr returns a pointer to s.
func Ptr(s string) *string { return &s }
