package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sales-analytics/internal/dataset"
)

// SQLiteDriver is the default embedded store: a single database file.
type SQLiteDriver struct {
	db *sql.DB
}

var sqliteDialect = dialect{
	quote: func(ident string) string {
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	},
	types: map[dataset.Kind]string{
		dataset.KindText:    "TEXT",
		dataset.KindInteger: "INTEGER",
		dataset.KindReal:    "REAL",
		dataset.KindBool:    "INTEGER",
		dataset.KindTime:    "TEXT",
	},
	encode: func(v any, k dataset.Kind) any {
		switch x := v.(type) {
		case bool:
			if x {
				return 1
			}
			return 0
		case time.Time:
			if x.Equal(x.Truncate(24 * time.Hour)) {
				return x.UTC().Format("2006-01-02")
			}
			return x.UTC().Format(time.RFC3339Nano)
		}
		return storable(v, k)
	},
}

func (sd *SQLiteDriver) Connect(dsn string) error {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	// one writer; readers wait instead of failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	sd.db = db
	return nil
}

func (sd *SQLiteDriver) Close() error {
	return sd.db.Close()
}

func (sd *SQLiteDriver) ExecuteTx(ctx context.Context, txFunc func(interface{}) error) error {
	return execTx(ctx, sd.db, txFunc)
}

func (sd *SQLiteDriver) ReplaceTable(ctx context.Context, tbl *dataset.Table) error {
	kinds := tbl.Kinds()
	return sd.ExecuteTx(ctx, func(t interface{}) error {
		tx, err := asSQLTx(t)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+sqliteDialect.quote(tbl.Name)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqliteDialect.createTable(tbl.Name, tbl.Columns, kinds)); err != nil {
			return err
		}
		return sqliteDialect.insertRows(ctx, tx, tbl.Name, tbl, kinds)
	})
}

func (sd *SQLiteDriver) ReadTable(ctx context.Context, name string) (*dataset.Table, error) {
	var found string
	err := sd.db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, name).Scan(&found)
	if err == sql.ErrNoRows {
		return nil, tableNotFound(name)
	}
	if err != nil {
		return nil, err
	}
	rows, err := sd.db.QueryContext(ctx, "SELECT * FROM "+sqliteDialect.quote(name)+" ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	return scanTable(name, rows)
}
