package extract

import (
	"context"
	"errors"
	"math/big"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"sales-analytics/internal/dataset"
)

// BigQueryExtractor runs standard SQL queries with a service-account key file,
// or application default credentials when no file is given.
type BigQueryExtractor struct {
	client *bigquery.Client
}

func NewBigQueryExtractor(ctx context.Context, project, credentialsFile string) (*BigQueryExtractor, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, &AuthenticationError{Source: "bigquery", Err: err}
	}
	return &BigQueryExtractor{client: client}, nil
}

func (b *BigQueryExtractor) Close() error {
	return b.client.Close()
}

func (b *BigQueryExtractor) Extract(ctx context.Context, name, query string) (*dataset.Table, error) {
	it, err := b.client.Query(query).Read(ctx)
	if err != nil {
		return nil, classifyError(name, query, err)
	}

	var tbl *dataset.Table
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyError(name, query, err)
		}
		if tbl == nil {
			tbl = dataset.New(name, schemaColumns(it.Schema)...)
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = bigQueryValue(v)
		}
		if err := tbl.Append(values...); err != nil {
			return nil, &QueryError{Table: name, Query: query, Err: err}
		}
	}
	if tbl == nil {
		tbl = dataset.New(name, schemaColumns(it.Schema)...)
	}
	return tbl, nil
}

func schemaColumns(schema bigquery.Schema) []string {
	cols := make([]string, len(schema))
	for i, f := range schema {
		cols[i] = f.Name
	}
	return cols
}

// bigQueryValue flattens NUMERIC values to decimal strings; civil dates and
// times render through their String methods.
func bigQueryValue(v bigquery.Value) any {
	if r, ok := v.(*big.Rat); ok && r != nil {
		return r.FloatString(9)
	}
	return v
}

func classifyError(name, query string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
		return &AuthenticationError{Source: "bigquery", Err: err}
	}
	return &QueryError{Table: name, Query: query, Err: err}
}
