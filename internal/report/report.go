// Package report runs the sales pipeline once: read the stored sales table,
// clean, reshape, classify and compute every aggregate for a date range.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sales-analytics/internal/aggregate"
	"sales-analytics/internal/classify"
	"sales-analytics/internal/cleaning"
	"sales-analytics/internal/config"
	"sales-analytics/internal/dataset"
	"sales-analytics/internal/logger"
	"sales-analytics/internal/reshape"
	"sales-analytics/internal/sales"
)

// TableReader reads a whole table from the local store.
type TableReader interface {
	ReadTable(ctx context.Context, name string) (*dataset.Table, error)
}

type Options struct {
	Table          string
	Range          sales.DateRange
	MinCitySupport int
	TopN           int
	SeasonalPeriod int
	// FillGaps zero-fills missing days before decomposing the daily series.
	FillGaps       bool
}

func OptionsFromConfig(cfg config.Report, r sales.DateRange) Options {
	support := 9
	if cfg.MinCitySupport != nil {
		support = *cfg.MinCitySupport
	}
	return Options{
		Table:          cfg.Table,
		Range:          r,
		MinCitySupport: support,
		TopN:           cfg.TopN,
		SeasonalPeriod: cfg.SeasonalPeriod,
		FillGaps:       cfg.FillGaps == nil || *cfg.FillGaps,
	}
}

type Report struct {
	RunID       string    `json:"run_id"`
	Table       string    `json:"table"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	GeneratedAt time.Time `json:"generated_at"`

	Events        int            `json:"events"`
	EventsInRange int            `json:"events_in_range"`
	ItemRows      int            `json:"item_rows"`
	NamedItems    int            `json:"named_items"`
	Warnings      map[string]int `json:"warnings"`

	RevenueByPincode        []aggregate.PincodeRevenue  `json:"revenue_by_pincode"`
	AverageOrderValueByCity []aggregate.CityAverage     `json:"average_order_value_by_city"`
	TopItems                []aggregate.ItemQuantity    `json:"top_items"`
	RevenueByCategory       []aggregate.CategoryRevenue `json:"revenue_by_category"`
	RevenueByChannel        []aggregate.ChannelRevenue  `json:"revenue_by_channel"`
	DailyTrend              []aggregate.DailyPoint      `json:"daily_trend"`

	Decomposition      []aggregate.DecompositionPoint `json:"decomposition,omitempty"`
	// DecompositionError is set instead of Decomposition when the series
	// cannot be decomposed, e.g. gaps with FillGaps off.
	DecompositionError string                         `json:"decomposition_error,omitempty"`
}

type Generator struct {
	Store   TableReader
	Cleaner *cleaning.Cleaner
	Lookup  classify.Lookup
	Log     *logger.Logger
}

// Run produces a report. Schema and join cardinality failures abort the run
// with no partial output; decomposition preconditions are reported inline.
func (g *Generator) Run(ctx context.Context, opts Options) (*Report, error) {
	runID := uuid.NewString()
	log := g.Log.With("run_id", runID, "table", opts.Table, "range", opts.Range.String())
	start := time.Now()

	tbl, err := g.Store.ReadTable(ctx, opts.Table)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", opts.Table, err)
	}
	log.Debug("table read", "rows", tbl.Len())

	events, err := g.Cleaner.CleanTable(tbl)
	if err != nil {
		log.Error("cleaning failed", "error", err)
		return nil, err
	}
	facts, err := reshape.Reshape(events)
	if err != nil {
		log.Error("reshape failed", "error", err)
		return nil, err
	}
	facts = classify.Classify(facts, g.Lookup)

	scoped := sales.FilterEvents(events, opts.Range)
	scopedFacts := sales.FilterFacts(facts, opts.Range)
	named := reshape.Named(scopedFacts)

	rep := &Report{
		RunID:         runID,
		Table:         opts.Table,
		Start:         opts.Range.Start.Format(sales.DateLayout),
		End:           opts.Range.End.Format(sales.DateLayout),
		GeneratedAt:   time.Now().UTC(),
		Events:        len(events),
		EventsInRange: len(scoped),
		ItemRows:      len(scopedFacts),
		NamedItems:    len(named),
		Warnings:      sales.WarningCounts(scoped, scopedFacts),

		RevenueByPincode:        aggregate.RevenueByPincode(scoped),
		AverageOrderValueByCity: aggregate.AverageOrderValueByCity(scoped, opts.MinCitySupport),
		TopItems:                aggregate.TopItemsByQuantity(named, opts.TopN),
		RevenueByCategory:       aggregate.RevenueByCategory(named),
		RevenueByChannel:        aggregate.RevenueByChannel(scoped, g.Cleaner, opts.TopN),
		DailyTrend:              aggregate.DailyTrend(scoped),
	}
	for _, code := range sales.SortedCodes(rep.Warnings) {
		log.Warn("data quality", "code", code, "rows", rep.Warnings[code])
	}

	series := rep.DailyTrend
	if opts.FillGaps {
		series = aggregate.FillDailyGaps(series, opts.Range)
	}
	decomposition, err := aggregate.SeasonalDecompose(series, opts.SeasonalPeriod)
	var precondition *sales.DecompositionPreconditionError
	switch {
	case errors.As(err, &precondition):
		log.Warn("seasonal decomposition skipped", "reason", precondition.Reason, "missing_days", len(precondition.Missing))
		rep.DecompositionError = precondition.Error()
	case err != nil:
		return nil, err
	default:
		rep.Decomposition = decomposition
	}

	log.Info("report generated", "events", rep.EventsInRange, "items", rep.NamedItems, "seconds", time.Since(start).Seconds())
	return rep, nil
}
