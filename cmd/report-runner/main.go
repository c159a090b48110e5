package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"sales-analytics/internal/classify"
	"sales-analytics/internal/cleaning"
	"sales-analytics/internal/config"
	"sales-analytics/internal/database"
	"sales-analytics/internal/extract"
	"sales-analytics/internal/ingest"
	"sales-analytics/internal/logger"
	"sales-analytics/internal/report"
	"sales-analytics/internal/runner"
	"sales-analytics/internal/sales"
)

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	task := flag.String("task", "report", "task to run (ingest or report)")
	configPath := flag.String("config", "config.yaml", "path to the config file")
	dbType := flag.String("db", "", "store driver override (sqlite, postgres, mysql, or mongo)")
	start := flag.String("start", "", "first report date, YYYY-MM-DD")
	end := flag.String("end", "", "last report date, YYYY-MM-DD (defaults to start)")
	repeat := flag.Int("repeat", 1, "number of report runs to time")
	out := flag.String("out", "", "write JSON output to this file instead of stdout")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		exitCode = 1
		return
	}
	if *dbType != "" {
		cfg.Store.Driver = *dbType
		if err := cfg.Validate(); err != nil {
			log.Printf("Invalid -db: %v", err)
			exitCode = 1
			return
		}
	}

	logg, err := logger.New(cfg.Mode)
	if err != nil {
		log.Printf("Failed to build logger: %v", err)
		exitCode = 1
		return
	}
	defer logg.Sync()
	logg = logg.With("task", *task, "store", cfg.Store.Driver)

	driver, err := database.NewDriver(cfg.Store.Driver)
	if err != nil {
		logg.Error("unsupported store", "error", err)
		exitCode = 1
		return
	}
	if md, ok := driver.(*database.MongoDriver); ok {
		md.Database = cfg.Store.MongoDatabase
	}
	if err := driver.Connect(cfg.DSN()); err != nil {
		logg.Error("failed to connect to store", "dsn", cfg.DSN(), "error", err)
		exitCode = 1
		return
	}
	defer driver.Close()

	ctx := context.Background()
	var output interface{}
	switch *task {
	case "ingest":
		output, err = runIngest(ctx, cfg, driver, logg)
	case "report":
		output, err = runReport(ctx, cfg, driver, *start, *end, *repeat, logg)
	default:
		err = fmt.Errorf("unsupported task %q", *task)
	}
	if err != nil {
		logg.Error("task failed", "error", err)
		exitCode = 1
		return
	}

	jsonOutput, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		logg.Error("failed to marshal output", "error", err)
		exitCode = 1
		return
	}
	if *out == "" {
		fmt.Println(string(jsonOutput))
		return
	}
	if err := os.WriteFile(*out, append(jsonOutput, '\n'), 0o644); err != nil {
		logg.Error("failed to write output", "path", *out, "error", err)
		exitCode = 1
	}
}

func runIngest(ctx context.Context, cfg *config.Config, store database.DatabaseDriver, logg *logger.Logger) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Source.Timeout)
	defer cancel()

	ex, err := extract.New(ctx, cfg.Source, logg)
	if err != nil {
		return nil, err
	}
	if closer, ok := ex.(io.Closer); ok {
		defer closer.Close()
	}
	tables := cfg.Ingestion.Tables
	if len(tables) == 0 {
		return nil, fmt.Errorf("no ingestion tables configured")
	}
	return ingest.Run(ctx, ex, store, tables, logg)
}

type reportOutput struct {
	Result *runner.Result `json:"result"`
	Report *report.Report `json:"report"`
}

func runReport(ctx context.Context, cfg *config.Config, store database.DatabaseDriver, start, end string, repeat int, logg *logger.Logger) (interface{}, error) {
	if start == "" {
		return nil, fmt.Errorf("-start is required for the report task")
	}
	if end == "" {
		end = start
	}
	r, err := sales.ParseDateRange(start, end)
	if err != nil {
		return nil, err
	}

	lookup := classify.Lookup{}
	if cfg.Classification.LookupFile != "" {
		lookup, err = classify.LoadLookup(cfg.Classification.LookupFile)
		if err != nil {
			return nil, fmt.Errorf("load category lookup: %w", err)
		}
	} else {
		logg.Warn("no category lookup configured; every product is unclassified")
	}

	gen := &report.Generator{
		Store:   store,
		Cleaner: cleaning.FromConfig(cfg.Cleaning),
		Lookup:  lookup,
		Log:     logg,
	}
	logg.Info("running report", "range", r.String(), "repeat", repeat)
	t0 := time.Now()
	result, rep, err := runner.Run(ctx, gen, report.OptionsFromConfig(cfg.Report, r), repeat, logg)
	if err != nil {
		return nil, err
	}
	logg.Info("report finished", "seconds", time.Since(t0).Seconds(), "p95", result.P95Latency.String())
	return reportOutput{Result: result, Report: rep}, nil
}
