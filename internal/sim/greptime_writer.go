package sim

import (
	"context"
	"encoding/json"
	"log"

	"cloudsim/internal/telemetry"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// GreptimeDBWriter writes metric events to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client   *greptime.Client
	db       string
	table    string
	workerID string
}

// NewGreptimeDBWriter creates a new GreptimeDB writer. The metrics table is
// auto-created by GreptimeDB on first write; the ingester client carries no
// SQL/DDL surface, so table options (e.g. TTL) must be applied outside this
// code.
func NewGreptimeDBWriter(endpoint, database, workerID string) (*GreptimeDBWriter, error) {
	cfg := greptime.NewConfig(endpoint).
		WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &GreptimeDBWriter{
		client:   client,
		db:       database,
		table:    telemetry.MetricTableName,
		workerID: workerID,
	}, nil
}

// Write inserts a single metric event.
func (w *GreptimeDBWriter) Write(ev telemetry.MetricEvent) error {
	return w.WriteBatch([]telemetry.MetricEvent{ev})
}

// WriteBatch inserts multiple metric events. Failures are classified as
// retryable; the scheduler logs and moves on to the next tick.
func (w *GreptimeDBWriter) WriteBatch(events []telemetry.MetricEvent) error {
	if len(events) == 0 {
		return nil
	}

	ctx := ingesterContext.New(context.Background())

	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("worker_id", types.STRING)
	tbl.AddTagColumn("name", types.STRING)
	tbl.AddFieldColumn("value", types.FLOAT64)
	tbl.AddFieldColumn("unit", types.STRING)
	tbl.AddFieldColumn("attributes", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, ev := range events {
		attrs := ""
		if len(ev.Attributes) > 0 {
			data, _ := json.Marshal(ev.Attributes)
			attrs = string(data)
		}
		if err := tbl.AddRow(
			w.workerID,
			ev.Name,
			ev.Value,
			string(ev.Unit),
			attrs,
			ev.Timestamp,
		); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(ctx, tbl); err != nil {
		log.Printf("[GreptimeDBWriter] Write failed: %v", err)
		return Retryable(err)
	}
	return nil
}
