package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"sales-analytics/internal/dataset"
)

// dialect describes how a database/sql store names, types and encodes columns.
// With ordinal set, every row also carries its position in rowKey.
type dialect struct {
	quote   func(ident string) string
	types   map[dataset.Kind]string
	encode  func(v any, k dataset.Kind) any
	ordinal bool
}

func (d dialect) createTable(name string, columns []string, kinds []dataset.Kind) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = d.quote(c) + " " + d.types[kinds[i]]
	}
	if d.ordinal {
		defs = append(defs, d.quote(rowKey)+" "+d.types[dataset.KindInteger])
	}
	return "CREATE TABLE " + d.quote(name) + " (" + strings.Join(defs, ", ") + ")"
}

func (d dialect) insert(name string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.quote(c)
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(columns)), ",")
	return "INSERT INTO " + d.quote(name) + " (" + strings.Join(quoted, ", ") + ") VALUES (" + ph + ")"
}

// insertRows writes every row of tbl into table name through one prepared statement.
func (d dialect) insertRows(ctx context.Context, tx *sql.Tx, name string, tbl *dataset.Table, kinds []dataset.Kind) error {
	columns := tbl.Columns
	if d.ordinal {
		columns = append(append([]string(nil), tbl.Columns...), rowKey)
	}
	if len(columns) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, d.insert(name, columns))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for r, row := range tbl.Rows {
		for i, v := range row {
			args[i] = d.encode(v, kinds[i])
		}
		if d.ordinal {
			args[len(row)] = int64(r)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", r+1, err)
		}
	}
	return nil
}

// storable coerces v to the column kind chosen for it; mixed columns are text.
func storable(v any, k dataset.Kind) any {
	if v == nil {
		return nil
	}
	if k == dataset.KindText {
		switch x := v.(type) {
		case string:
			return x
		case time.Time:
			return x.Format(time.RFC3339Nano)
		default:
			return fmt.Sprint(x)
		}
	}
	if i, ok := v.(int64); ok && k == dataset.KindReal {
		return float64(i)
	}
	return v
}

func execTx(ctx context.Context, db *sql.DB, txFunc func(interface{}) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := txFunc(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func asSQLTx(tx interface{}) (*sql.Tx, error) {
	sqlTx, ok := tx.(*sql.Tx)
	if !ok {
		return nil, fmt.Errorf("unexpected transaction type %T", tx)
	}
	return sqlTx, nil
}

// scanTable reads every row into a table, leaving out the rowKey column.
func scanTable(name string, rows *sql.Rows) (*dataset.Table, error) {
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	keep := ordinalFree(columns)
	tbl := dataset.New(name, pick(columns, keep)...)
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if err := tbl.Append(pick(values, keep)...); err != nil {
			return nil, err
		}
	}
	return tbl, rows.Err()
}

// ordinalFree returns the indexes of every column except rowKey.
func ordinalFree(columns []string) []int {
	keep := make([]int, 0, len(columns))
	for i, c := range columns {
		if c != rowKey {
			keep = append(keep, i)
		}
	}
	return keep
}

func pick[T any](values []T, keep []int) []T {
	out := make([]T, len(keep))
	for i, k := range keep {
		out[i] = values[k]
	}
	return out
}
