package database

import (
	"context"
	"errors"
	"fmt"

	"sales-analytics/internal/dataset"
)

var (
	ErrTableNotFound     = errors.New("table not found")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// DatabaseDriver is the local store. ReplaceTable swaps a whole table in one
// transaction so concurrent readers see either the old or the new rows.
type DatabaseDriver interface {
	Connect(dsn string) error
	Close() error
	ExecuteTx(ctx context.Context, txFunc func(interface{}) error) error
	ReplaceTable(ctx context.Context, tbl *dataset.Table) error
	ReadTable(ctx context.Context, name string) (*dataset.Table, error)
}

// NewDriver returns an unconnected driver for sqlite, postgres, mysql or mongo.
func NewDriver(name string) (DatabaseDriver, error) {
	switch name {
	case "sqlite":
		return &SQLiteDriver{}, nil
	case "postgres":
		return &PostgresDriver{}, nil
	case "mysql":
		return &MySQLDriver{}, nil
	case "mongo":
		return &MongoDriver{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, name)
}

// Open creates and connects the named driver.
func Open(name, dsn string) (DatabaseDriver, error) {
	driver, err := NewDriver(name)
	if err != nil {
		return nil, err
	}
	if err := driver.Connect(dsn); err != nil {
		return nil, fmt.Errorf("connect %s: %w", name, err)
	}
	return driver, nil
}

// rowKey holds the load position of each row in stores that do not keep
// insertion order on their own. ReadTable sorts by it and drops it.
const rowKey = "_row"

func tableNotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrTableNotFound, name)
}
