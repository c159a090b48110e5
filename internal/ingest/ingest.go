// Package ingest copies every configured warehouse table into the local store.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-analytics/internal/dataset"
	"sales-analytics/internal/extract"
	"sales-analytics/internal/logger"
)

// Loader replaces a whole table in the local store.
type Loader interface {
	ReplaceTable(ctx context.Context, tbl *dataset.Table) error
}

// TableResult describes one ingested table.
type TableResult struct {
	Table       string        `json:"table"`
	Rows        int           `json:"rows"`
	ExtractTime time.Duration `json:"extract_time"`
	LoadTime    time.Duration `json:"load_time"`
}

// Run extracts all tables concurrently, then loads them one by one in name
// order. Any failure aborts the run; tables loaded before it stay replaced.
func Run(ctx context.Context, ex extract.Extractor, store Loader, tables map[string]string, log *logger.Logger) ([]TableResult, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("ingest: no tables configured")
	}
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	start := time.Now()
	log.Info("ingestion started", "tables", names)

	extracted := make([]*dataset.Table, len(names))
	results := make([]TableResult, len(names))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		group.Go(func() error {
			t0 := time.Now()
			tbl, err := ex.Extract(groupCtx, name, tables[name])
			if err != nil {
				return fmt.Errorf("extract %s: %w", name, err)
			}
			extracted[i] = tbl
			results[i] = TableResult{Table: name, Rows: tbl.Len(), ExtractTime: time.Since(t0)}
			log.Info("table extracted", "table", name, "rows", tbl.Len(), "seconds", results[i].ExtractTime.Seconds())
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		log.Error("ingestion failed", "error", err)
		return nil, err
	}

	for i, tbl := range extracted {
		t0 := time.Now()
		if err := store.ReplaceTable(ctx, tbl); err != nil {
			log.Error("ingestion failed", "table", tbl.Name, "error", err)
			return results[:i], fmt.Errorf("load %s: %w", tbl.Name, err)
		}
		results[i].LoadTime = time.Since(t0)
		log.Info("table loaded", "table", tbl.Name, "rows", tbl.Len(), "seconds", results[i].LoadTime.Seconds())
	}

	log.Info("ingestion complete", "tables", len(names), "seconds", time.Since(start).Seconds())
	return results, nil
}
