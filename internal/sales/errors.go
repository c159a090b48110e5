package sales

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrMissingEventDate = errors.New("event_date is missing")
)

// SchemaError reports a required column absent from the source table.
type SchemaError struct {
	Table   string
	Column  string
	// Missing lists every absent required column, Column first.
	Missing []string
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("schema: table %q is missing required column %q", e.Table, e.Column)
	if len(e.Missing) > 1 {
		msg += fmt.Sprintf(" (%d missing: %s)", len(e.Missing), strings.Join(e.Missing, ", "))
	}
	return msg
}

// JoinCardinalityError reports a reshape join whose row count differs from
// SlotCount rows per event, which means identifying keys were duplicated.
type JoinCardinalityError struct {
	Events   int
	Expected int
	Got      int
}

func (e *JoinCardinalityError) Error() string {
	return fmt.Sprintf("reshape: join produced %d item rows for %d events, want %d", e.Got, e.Events, e.Expected)
}

// DecompositionPreconditionError reports a series that cannot be decomposed
// until the caller fixes it, usually by filling date gaps.
type DecompositionPreconditionError struct {
	Reason  string
	Missing []time.Time
}

func (e *DecompositionPreconditionError) Error() string {
	if len(e.Missing) == 0 {
		return "decomposition: " + e.Reason
	}
	return fmt.Sprintf("decomposition: %s (%d missing dates, first %s)", e.Reason, len(e.Missing), e.Missing[0].Format(DateLayout))
}
