// Package dataset holds the tabular result-set shape exchanged between the
// extractor, the local store and the sales pipeline.
package dataset

import (
	"fmt"
	"time"
)

// Kind is the storage class of a column, inferred from its values.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindReal
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "text"
	}
}

// Table is an ordered set of named columns and positional rows. A nil cell is
// a missing value.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

func New(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// Append adds a row, normalising driver-specific value types.
func (t *Table) Append(values ...any) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("dataset %s: row has %d values, want %d", t.Name, len(values), len(t.Columns))
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = Normalize(v)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of column, or -1.
func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

func (t *Table) Has(column string) bool { return t.Index(column) >= 0 }

// Kinds infers one Kind per column from the first non-nil value. Columns with
// mixed integer and real values widen to real; any other mix falls back to text.
func (t *Table) Kinds() []Kind {
	kinds := make([]Kind, len(t.Columns))
	seen := make([]bool, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			if v == nil {
				continue
			}
			k := kindOf(v)
			switch {
			case !seen[i]:
				kinds[i], seen[i] = k, true
			case kinds[i] == k:
			case (kinds[i] == KindInteger && k == KindReal) || (kinds[i] == KindReal && k == KindInteger):
				kinds[i] = KindReal
			default:
				kinds[i] = KindText
			}
		}
	}
	return kinds
}

func kindOf(v any) Kind {
	switch v.(type) {
	case int64:
		return KindInteger
	case float64:
		return KindReal
	case bool:
		return KindBool
	case time.Time:
		return KindTime
	default:
		return KindText
	}
}

// Normalize maps the value types returned by the supported drivers onto
// nil, string, int64, float64, bool and time.Time.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case string, int64, float64, bool, time.Time:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
