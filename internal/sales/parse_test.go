package sales

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sales-analytics/internal/dataset"
)

func fullRow(overrides map[string]any) []any {
	row := make([]any, 0, len(RequiredColumns()))
	for _, c := range RequiredColumns() {
		if v, ok := overrides[c]; ok {
			row = append(row, v)
			continue
		}
		row = append(row, nil)
	}
	return row
}

func TestEventsFromTable_SchemaError(t *testing.T) {
	cols := RequiredColumns()
	tbl := dataset.New("sales", cols[1:]...)

	_, err := EventsFromTable(tbl)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	require.Equal(t, ColEventDate, schemaErr.Column)
	require.Contains(t, err.Error(), `"event_date"`)
}

func TestEventsFromTable_ReportsEveryMissingColumn(t *testing.T) {
	tbl := dataset.New("sales", ColEventDate, ColPincode)
	_, err := EventsFromTable(tbl)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	require.Equal(t, ColCity, schemaErr.Column)
	require.Len(t, schemaErr.Missing, len(RequiredColumns())-2)
}

func TestEventsFromTable_ConvertsRows(t *testing.T) {
	tbl := dataset.New("sales", RequiredColumns()...)
	tbl.Rows = append(tbl.Rows,
		fullRow(map[string]any{
			ColEventDate:                  "20240105",
			ColPincode:                    float64(560037),
			ColCity:                       " Bengaluru",
			ColSubtotal:                   int64(250),
			SlotColumn(FamilyName, 0):     "Croissant",
			SlotColumn(FamilyPrice, 0):    100.5,
			SlotColumn(FamilyQuantity, 0): float64(2),
			SlotColumn(FamilyVariant, 1):  "large",
			SlotColumn(FamilyName, 2):     "   ",
		}),
		fullRow(map[string]any{
			ColEventDate: time.Date(2024, 1, 6, 13, 4, 0, 0, time.UTC),
			ColSubtotal:  "nan",
		}),
	)

	events, err := EventsFromTable(tbl)
	require.NoError(t, err)
	require.Len(t, events, 2)

	a := events[0]
	require.Equal(t, int64(1), a.EventID)
	require.Equal(t, "2024-01-05", a.EventDate.Format(DateLayout))
	require.Equal(t, "560037", *a.Pincode)
	require.Equal(t, " Bengaluru", *a.City)
	require.Equal(t, "250", a.Subtotal.Decimal.String())
	require.Equal(t, "Croissant", *a.Items[0].Name)
	require.Equal(t, "100.5", a.Items[0].Price.Decimal.String())
	require.Equal(t, "2", a.Items[0].Quantity.Decimal.String())
	require.Nil(t, a.Items[1].Name)
	require.Equal(t, "large", *a.Items[1].Variant)
	require.Nil(t, a.Items[2].Name, "blank item names are nulls")
	require.True(t, a.Items[3].Empty())

	b := events[1]
	require.Equal(t, int64(2), b.EventID)
	require.Equal(t, "2024-01-06", b.EventDate.Format(DateLayout))
	require.False(t, b.Subtotal.Valid)
	require.Nil(t, b.City)
}

func TestEventsFromTable_MissingDate(t *testing.T) {
	tbl := dataset.New("sales", RequiredColumns()...)
	tbl.Rows = append(tbl.Rows, fullRow(nil))
	_, err := EventsFromTable(tbl)
	require.ErrorIs(t, err, ErrMissingEventDate)
}

func TestEventsFromTable_BadNumber(t *testing.T) {
	tbl := dataset.New("sales", RequiredColumns()...)
	tbl.Rows = append(tbl.Rows, fullRow(map[string]any{ColEventDate: "2024-01-01", ColSubtotal: "12abc"}))
	_, err := EventsFromTable(tbl)
	require.Error(t, err)
	require.Contains(t, err.Error(), "row 1: subtotal")
}

func TestEventsToTable_RoundTripsThroughParser(t *testing.T) {
	tbl := dataset.New("sales", RequiredColumns()...)
	tbl.Rows = append(tbl.Rows, fullRow(map[string]any{
		ColEventDate:                  "2024-02-01",
		ColCity:                       "chennai",
		ColSubtotal:                   300.25,
		SlotColumn(FamilyName, 0):     "Tres Leches",
		SlotColumn(FamilyPrice, 0):    int64(500),
		SlotColumn(FamilyQuantity, 0): int64(1),
	}))
	events, err := EventsFromTable(tbl)
	require.NoError(t, err)

	again, err := EventsFromTable(EventsToTable("sales", events))
	require.NoError(t, err)
	require.Len(t, again, 1)
	require.Equal(t, events[0].EventDate, again[0].EventDate)
	require.Equal(t, *events[0].City, *again[0].City)
	require.True(t, events[0].Subtotal.Decimal.Equal(again[0].Subtotal.Decimal))
	require.Equal(t, *events[0].Items[0].Name, *again[0].Items[0].Name)
	require.True(t, events[0].Items[0].Price.Decimal.Equal(again[0].Items[0].Price.Decimal))
	require.True(t, events[0].Items[0].Quantity.Decimal.Equal(again[0].Items[0].Quantity.Decimal))
	require.True(t, again[0].Items[1].Empty())
}
