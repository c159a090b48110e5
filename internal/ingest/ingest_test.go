package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"sales-analytics/internal/database"
	"sales-analytics/internal/dataset"
	"sales-analytics/internal/extract"
	"sales-analytics/internal/logger"
)

type fakeExtractor struct {
	mu      sync.Mutex
	tables  map[string]*dataset.Table
	fail    map[string]error
	queries map[string]string
}

func (f *fakeExtractor) Extract(ctx context.Context, name, query string) (*dataset.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queries == nil {
		f.queries = map[string]string{}
	}
	f.queries[name] = query
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	return f.tables[name], nil
}

func table(name string, rows ...string) *dataset.Table {
	tbl := dataset.New(name, "value")
	for _, r := range rows {
		tbl.Rows = append(tbl.Rows, []any{r})
	}
	return tbl
}

func openStore(t *testing.T) *database.SQLiteDriver {
	t.Helper()
	d := &database.SQLiteDriver{}
	require.NoError(t, d.Connect(filepath.Join(t.TempDir(), "amin.db")))
	t.Cleanup(func() { d.Close() })
	return d
}

func TestRun_LoadsEveryTable(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	ex := &fakeExtractor{tables: map[string]*dataset.Table{
		"sales":       table("sales", "a", "b"),
		"first_visit": table("first_visit", "c"),
	}}
	tables := map[string]string{"sales": "select * from t_total_sales", "first_visit": "select * from t_first_visit"}

	results, err := Run(ctx, ex, store, tables, logger.Nop())
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "first_visit", results[0].Table)
	require.Equal(t, 1, results[0].Rows)
	require.Equal(t, "sales", results[1].Table)
	require.Equal(t, 2, results[1].Rows)
	require.Equal(t, tables, ex.queries)

	got, err := store.ReadTable(ctx, "sales")
	require.NoError(t, err)
	require.Equal(t, [][]any{{"a"}, {"b"}}, got.Rows)

	// a second run fully replaces
	ex.tables["sales"] = table("sales", "z")
	_, err = Run(ctx, ex, store, tables, logger.Nop())
	require.NoError(t, err)
	got, err = store.ReadTable(ctx, "sales")
	require.NoError(t, err)
	require.Equal(t, [][]any{{"z"}}, got.Rows)
}

func TestRun_ExtractFailureLoadsNothing(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	authErr := &extract.AuthenticationError{Source: "bigquery", Err: errors.New("bad key")}
	ex := &fakeExtractor{
		tables: map[string]*dataset.Table{"sales": table("sales", "a")},
		fail:   map[string]error{"first_visit": authErr},
	}

	_, err := Run(ctx, ex, store, map[string]string{"sales": "q1", "first_visit": "q2"}, logger.Nop())
	var target *extract.AuthenticationError
	require.True(t, errors.As(err, &target))

	_, err = store.ReadTable(ctx, "sales")
	require.True(t, errors.Is(err, database.ErrTableNotFound))
}

func TestRun_NoTables(t *testing.T) {
	_, err := Run(context.Background(), &fakeExtractor{}, openStore(t), nil, logger.Nop())
	require.Error(t, err)
}
