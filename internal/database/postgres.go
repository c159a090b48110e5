package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sales-analytics/internal/dataset"
)

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

type PostgresDriver struct {
	conn *pgx.Conn
}

var postgresTypes = map[dataset.Kind]string{
	dataset.KindText:    "TEXT",
	dataset.KindInteger: "BIGINT",
	dataset.KindReal:    "DOUBLE PRECISION",
	dataset.KindBool:    "BOOLEAN",
	dataset.KindTime:    "TIMESTAMPTZ",
}

func (pd *PostgresDriver) Connect(dsn string) error {
	conn, err := pgx.Connect(context.Background(), dsn)
	if err != nil {
		return err
	}
	pd.conn = conn
	return nil
}

func (pd *PostgresDriver) Close() error {
	return pd.conn.Close(context.Background())
}

func (pd *PostgresDriver) ExecuteTx(ctx context.Context, txFunc func(interface{}) error) (err error) {
	tx, err := pd.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = txFunc(tx)
	return err
}

// ReplaceTable drops, recreates and bulk loads the table with COPY inside one
// transaction.
func (pd *PostgresDriver) ReplaceTable(ctx context.Context, tbl *dataset.Table) error {
	kinds := tbl.Kinds()
	ident := pgx.Identifier{tbl.Name}

	defs := ""
	for i, c := range tbl.Columns {
		if i > 0 {
			defs += ", "
		}
		defs += pgx.Identifier{c}.Sanitize() + " " + postgresTypes[kinds[i]]
	}
	if defs != "" {
		defs += ", "
	}
	defs += pgx.Identifier{rowKey}.Sanitize() + " BIGINT"
	columns := append(append([]string(nil), tbl.Columns...), rowKey)

	rows := make([][]any, len(tbl.Rows))
	for r, row := range tbl.Rows {
		out := make([]any, len(row)+1)
		for i, v := range row {
			out[i] = storable(v, kinds[i])
		}
		out[len(row)] = int64(r)
		rows[r] = out
	}

	return pd.ExecuteTx(ctx, func(t interface{}) error {
		tx, ok := t.(pgx.Tx)
		if !ok {
			return fmt.Errorf("unexpected transaction type %T", t)
		}
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+ident.Sanitize()); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "CREATE TABLE "+ident.Sanitize()+" ("+defs+")"); err != nil {
			return err
		}
		n, err := tx.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return err
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy %s: wrote %d rows, want %d", tbl.Name, n, len(rows))
		}
		return nil
	})
}

// ReadTable returns rows in the order they were loaded.
func (pd *PostgresDriver) ReadTable(ctx context.Context, name string) (*dataset.Table, error) {
	q := "SELECT * FROM " + pgx.Identifier{name}.Sanitize() + " ORDER BY " + pgx.Identifier{rowKey}.Sanitize()
	rows, err := pd.conn.Query(ctx, q)
	if err != nil {
		return nil, pd.mapError(name, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	keep := ordinalFree(columns)
	tbl := dataset.New(name, pick(columns, keep)...)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		if err := tbl.Append(pick(values, keep)...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, pd.mapError(name, err)
	}
	return tbl, nil
}

func (pd *PostgresDriver) mapError(name string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return tableNotFound(name)
	}
	return err
}
