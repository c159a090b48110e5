package extract

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sales-analytics/internal/dataset"
)

// CSVExtractor reads <Dir>/<name>.csv exports with a header row. The query is
// ignored. Empty cells are missing values; integers and decimals are typed.
type CSVExtractor struct {
	Dir string
}

func (c *CSVExtractor) Extract(ctx context.Context, name, query string) (*dataset.Table, error) {
	path := filepath.Join(c.Dir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, &QueryError{Table: name, Query: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, &QueryError{Table: name, Query: path, Err: err}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	tbl := dataset.New(name, header...)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &QueryError{Table: name, Query: path, Err: err}
		}
		values := make([]any, len(header))
		for i := range values {
			if i < len(rec) {
				values[i] = csvValue(rec[i])
			}
		}
		if err := tbl.Append(values...); err != nil {
			return nil, &QueryError{Table: name, Query: path, Err: err}
		}
	}
	return tbl, nil
}

func csvValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// codes with leading zeros stay text
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if strings.Trim(s, "0123456789.eE+-") != "" {
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
