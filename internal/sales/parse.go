package sales

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sales-analytics/internal/dataset"
)

var dateLayouts = []string{
	DateLayout,
	"20060102",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// EventsFromTable validates the source columns and converts every row into an
// Event, assigning EventID 1..N in row order. A missing column yields a
// *SchemaError naming it; missing values inside present columns are kept as nulls.
func EventsFromTable(tbl *dataset.Table) ([]Event, error) {
	var missing []string
	for _, c := range RequiredColumns() {
		if !tbl.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Table: tbl.Name, Column: missing[0], Missing: missing}
	}

	idx := map[string]int{}
	for _, c := range RequiredColumns() {
		idx[c] = tbl.Index(c)
	}

	events := make([]Event, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		date, err := parseDate(row[idx[ColEventDate]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		subtotal, err := parseDecimal(row[idx[ColSubtotal]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i+1, ColSubtotal, err)
		}
		e := Event{
			EventID:      int64(i + 1),
			EventDate:    date,
			Pincode:      parseCode(row[idx[ColPincode]]),
			City:         parseText(row[idx[ColCity]], false),
			Subtotal:     subtotal,
			SourceName:   parseText(row[idx[ColSourceName]], false),
			SourceMedium: parseText(row[idx[ColSourceMedium]], false),
			SourceOrigin: parseText(row[idx[ColSourceOrigin]], false),
		}
		for s := 0; s < SlotCount; s++ {
			price, err := parseDecimal(row[idx[SlotColumn(FamilyPrice, s)]])
			if err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", i+1, SlotColumn(FamilyPrice, s), err)
			}
			qty, err := parseDecimal(row[idx[SlotColumn(FamilyQuantity, s)]])
			if err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", i+1, SlotColumn(FamilyQuantity, s), err)
			}
			e.Items[s] = ItemSlot{
				Name:     parseText(row[idx[SlotColumn(FamilyName, s)]], true),
				Price:    price,
				Quantity: qty,
				Variant:  parseText(row[idx[SlotColumn(FamilyVariant, s)]], true),
			}
		}
		events = append(events, e)
	}
	return events, nil
}

// EventsToTable is the inverse of EventsFromTable, used to persist fixtures
// and cleaned snapshots.
func EventsToTable(name string, events []Event) *dataset.Table {
	tbl := dataset.New(name, RequiredColumns()...)
	for _, e := range events {
		row := []any{
			e.EventDate.Format(DateLayout),
			textValue(e.Pincode),
			textValue(e.City),
			decimalValue(e.Subtotal),
			textValue(e.SourceName),
			textValue(e.SourceMedium),
			textValue(e.SourceOrigin),
		}
		for _, f := range Families {
			for s := 0; s < SlotCount; s++ {
				it := e.Items[s]
				switch f {
				case FamilyName:
					row = append(row, textValue(it.Name))
				case FamilyPrice:
					row = append(row, decimalValue(it.Price))
				case FamilyQuantity:
					row = append(row, decimalValue(it.Quantity))
				case FamilyVariant:
					row = append(row, textValue(it.Variant))
				}
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl
}

func parseDate(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, ErrMissingEventDate
	case time.Time:
		return Day(x), nil
	case int64:
		return parseDate(strconv.FormatInt(x, 10))
	case float64:
		return parseDate(strconv.FormatFloat(x, 'f', 0, 64))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, ErrMissingEventDate
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Day(t), nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable event_date %q", s)
	default:
		return time.Time{}, fmt.Errorf("unsupported event_date type %T", v)
	}
}

func parseDecimal(v any) (decimal.NullDecimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(x)), nil
	case float64:
		if math.IsNaN(x) {
			return decimal.NullDecimal{}, nil
		}
		if math.IsInf(x, 0) {
			return decimal.NullDecimal{}, fmt.Errorf("infinite value")
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat(x)), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
			return decimal.NullDecimal{}, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}, err
		}
		return decimal.NewNullDecimal(d), nil
	case bool, time.Time:
		return decimal.NullDecimal{}, fmt.Errorf("%T is not numeric", v)
	default:
		return parseDecimal(dataset.Normalize(v))
	}
}

// parseCode renders postal codes as strings whatever numeric type they arrive in.
func parseCode(v any) *string {
	switch x := v.(type) {
	case nil:
		return nil
	case int64:
		return Ptr(strconv.FormatInt(x, 10))
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		if x == math.Trunc(x) {
			return Ptr(strconv.FormatFloat(x, 'f', 0, 64))
		}
		return Ptr(strconv.FormatFloat(x, 'f', -1, 64))
	default:
		return parseText(v, true)
	}
}

func parseText(v any, blankIsNull bool) *string {
	if v == nil {
		return nil
	}
	s, ok := dataset.Normalize(v).(string)
	if !ok {
		s = fmt.Sprint(dataset.Normalize(v))
	}
	if blankIsNull && strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func textValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func decimalValue(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	f, _ := d.Decimal.Float64()
	return f
}
