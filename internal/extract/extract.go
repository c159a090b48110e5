// Package extract pulls source tables from the analytical warehouse (or local
// CSV exports) into dataset tables for loading into the local store.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sales-analytics/internal/config"
	"sales-analytics/internal/dataset"
	"sales-analytics/internal/logger"
)

// Extractor runs query and returns its result set as a table called name.
type Extractor interface {
	Extract(ctx context.Context, name, query string) (*dataset.Table, error)
}

// New builds the extractor selected by cfg.Kind, wrapped with retries when
// cfg.Attempts is above one.
func New(ctx context.Context, cfg config.Source, log *logger.Logger) (Extractor, error) {
	var ex Extractor
	switch cfg.Kind {
	case "bigquery":
		bq, err := NewBigQueryExtractor(ctx, cfg.Project, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		ex = bq
	case "csv":
		ex = &CSVExtractor{Dir: cfg.CSVDir}
	default:
		return nil, fmt.Errorf("extract: unsupported source kind %q", cfg.Kind)
	}
	if cfg.Attempts > 1 {
		ex = &Retrying{Extractor: ex, Attempts: cfg.Attempts, Backoff: time.Second, Log: log}
	}
	return ex, nil
}

// Retrying retries failed extractions with linear backoff. Authentication
// failures are returned immediately.
type Retrying struct {
	Extractor Extractor
	Attempts  int
	Backoff   time.Duration
	Log       *logger.Logger
}

func (r *Retrying) Extract(ctx context.Context, name, query string) (*dataset.Table, error) {
	var err error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		var tbl *dataset.Table
		tbl, err = r.Extractor.Extract(ctx, name, query)
		if err == nil {
			return tbl, nil
		}
		var authErr *AuthenticationError
		if errors.As(err, &authErr) || attempt == r.Attempts {
			break
		}
		if r.Log != nil {
			r.Log.Warn("extract failed, retrying", "table", name, "attempt", attempt, "error", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * r.Backoff):
		}
	}
	return nil, err
}
