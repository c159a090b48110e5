package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"sales-analytics/internal/logger"
	"sales-analytics/internal/report"
	"sales-analytics/internal/sales"
)

type Result struct {
	Operations     int64
	Errors         int64
	Throughput     float64
	P95Latency     time.Duration
	P99Latency     time.Duration
	AverageLatency time.Duration
	ErrorRate      float64
	TotalTime      time.Duration
	// DataIntegrity holds when every successful run produced the same report
	// and SlotCount item rows per event.
	DataIntegrity  bool
}

// Run generates the report repeat times, recording per-run latency, and
// returns the timing result together with the last successful report.
func Run(ctx context.Context, gen *report.Generator, opts report.Options, repeat int, log *logger.Logger) (*Result, *report.Report, error) {
	if repeat < 1 {
		return nil, nil, fmt.Errorf("runner: repeat must be at least 1, got %d", repeat)
	}
	result := &Result{DataIntegrity: true}
	totalStartTime := time.Now()

	// Max latency of 10 minutes in microseconds, significant figures of 3
	histogram := hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)

	var last *report.Report
	var fingerprint string
	var lastErr error
	for i := 0; i < repeat; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		opStartTime := time.Now()
		rep, err := gen.Run(ctx, opts)
		if err != nil {
			result.Errors++
			lastErr = err
			log.Error("report run failed", "iteration", i+1, "error", err)
			continue
		}
		result.Operations++
		histogram.RecordValue(time.Since(opStartTime).Microseconds())

		fp, err := reportFingerprint(rep)
		if err != nil {
			return nil, nil, err
		}
		if fingerprint != "" && fp != fingerprint {
			result.DataIntegrity = false
			log.Warn("report differs between runs", "run_id", rep.RunID)
		}
		if rep.ItemRows != sales.SlotCount*rep.EventsInRange {
			result.DataIntegrity = false
		}
		fingerprint = fp
		last = rep
	}

	result.TotalTime = time.Since(totalStartTime)
	result.Throughput = float64(result.Operations) / result.TotalTime.Seconds()
	result.ErrorRate = float64(result.Errors) / float64(repeat)
	result.AverageLatency = time.Duration(histogram.Mean()) * time.Microsecond
	result.P95Latency = time.Duration(histogram.ValueAtQuantile(95)) * time.Microsecond
	result.P99Latency = time.Duration(histogram.ValueAtQuantile(99)) * time.Microsecond

	if last == nil {
		result.DataIntegrity = false
		return result, nil, lastErr
	}
	return result, last, nil
}

// reportFingerprint serialises the report without its per-run identity.
func reportFingerprint(rep *report.Report) (string, error) {
	cp := *rep
	cp.RunID = ""
	cp.GeneratedAt = time.Time{}
	b, err := json.Marshal(cp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
