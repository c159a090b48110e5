package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"sales-analytics/internal/dataset"
)

type MySQLDriver struct {
	db *sql.DB
}

var mysqlDialect = dialect{
	quote: func(ident string) string {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	},
	types: map[dataset.Kind]string{
		dataset.KindText:    "TEXT",
		dataset.KindInteger: "BIGINT",
		dataset.KindReal:    "DOUBLE",
		dataset.KindBool:    "BOOLEAN",
		dataset.KindTime:    "DATETIME(6)",
	},
	encode:  storable,
	ordinal: true,
}

func (md *MySQLDriver) Connect(dsn string) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	md.db = db
	return nil
}

func (md *MySQLDriver) Close() error {
	return md.db.Close()
}

func (md *MySQLDriver) ExecuteTx(ctx context.Context, txFunc func(interface{}) error) error {
	return execTx(ctx, md.db, txFunc)
}

// ReplaceTable loads rows into a staging table, then swaps it in with a single
// RENAME TABLE, which MySQL applies atomically. DDL commits implicitly, so the
// transaction only covers the inserts.
func (md *MySQLDriver) ReplaceTable(ctx context.Context, tbl *dataset.Table) error {
	staging := tbl.Name + "__staging"
	old := tbl.Name + "__old"
	kinds := tbl.Kinds()

	for _, name := range []string{staging, old} {
		if _, err := md.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+mysqlDialect.quote(name)); err != nil {
			return err
		}
	}
	if _, err := md.db.ExecContext(ctx, mysqlDialect.createTable(staging, tbl.Columns, kinds)); err != nil {
		return err
	}
	err := md.ExecuteTx(ctx, func(t interface{}) error {
		tx, err := asSQLTx(t)
		if err != nil {
			return err
		}
		return mysqlDialect.insertRows(ctx, tx, staging, tbl, kinds)
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", staging, err)
	}

	exists, err := md.exists(ctx, tbl.Name)
	if err != nil {
		return err
	}
	q := mysqlDialect.quote
	if !exists {
		_, err = md.db.ExecContext(ctx, "RENAME TABLE "+q(staging)+" TO "+q(tbl.Name))
		return err
	}
	if _, err := md.db.ExecContext(ctx, "RENAME TABLE "+q(tbl.Name)+" TO "+q(old)+", "+q(staging)+" TO "+q(tbl.Name)); err != nil {
		return err
	}
	_, err = md.db.ExecContext(ctx, "DROP TABLE "+q(old))
	return err
}

func (md *MySQLDriver) exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := md.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", name).Scan(&n)
	return n > 0, err
}

func (md *MySQLDriver) ReadTable(ctx context.Context, name string) (*dataset.Table, error) {
	exists, err := md.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, tableNotFound(name)
	}
	rows, err := md.db.QueryContext(ctx, "SELECT * FROM "+mysqlDialect.quote(name)+" ORDER BY "+mysqlDialect.quote(rowKey))
	if err != nil {
		return nil, err
	}
	return scanTable(name, rows)
}
