package main

import (
	"context"
	"os"

	"cloudsim/internal/sim"
)

// newMetricWriter sets up the sink writer based on flags and env vars. It
// returns the writer and a cleanup function to close any resources.
func newMetricWriter(ctx context.Context, workerID string, printOnly, colorOutput, tui bool, logFile string) (sim.MetricWriter, func(), error) {
	writer, closeBase, err := baseWriter(ctx, workerID, printOnly, colorOutput, tui)
	if err != nil {
		return nil, nil, err
	}
	if logFile == "" {
		return writer, closeBase, nil
	}

	fw, err := sim.NewFileWriter(logFile)
	if err != nil {
		closeBase()
		return nil, nil, err
	}
	mw := sim.NewMultiWriter(writer, fw)
	cleanup := func() {
		fw.Close()
		closeBase()
	}
	return mw, cleanup, nil
}

// baseWriter chooses the underlying writer. Precedence: TUI flag, then
// GreptimeDB or OTLP endpoints from the environment, then STDOUT.
func baseWriter(ctx context.Context, workerID string, printOnly, colorOutput, tui bool) (sim.MetricWriter, func(), error) {
	if tui {
		w := sim.NewTUIWriter()
		return w, w.Close, nil
	}
	if !printOnly {
		if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
			database := os.Getenv("GREPTIMEDB_DATABASE")
			if database == "" {
				database = "public"
			}
			w, err := sim.NewGreptimeDBWriter(endpoint, database, workerID)
			if err != nil {
				return nil, nil, err
			}
			return w, func() {}, nil
		}
		if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
			w, err := sim.NewOTLPWriter(ctx, endpoint, workerID, 0)
			if err != nil {
				return nil, nil, err
			}
			return w, func() { w.Close(context.Background()) }, nil
		}
	}
	if colorOutput {
		return sim.NewColorStdoutWriter(), func() {}, nil
	}
	return &sim.StdoutWriter{}, func() {}, nil
}
