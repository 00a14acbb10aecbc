// Metric event types shared by producers and sink writers.
package telemetry

import (
	"os"
	"time"
)

// Unit describes the measurement unit of a metric value.
type Unit string

// Units used by the producer schemas.
const (
	UnitCount        Unit = "count"
	UnitMilliseconds Unit = "ms"
	UnitSeconds      Unit = "s"
	UnitPercent      Unit = "percent"
	UnitRatio        Unit = "ratio"
	UnitBytes        Unit = "bytes"
	UnitMegabytes    Unit = "mb"
	UnitGigabytes    Unit = "gb"
	UnitScore        Unit = "score"
	UnitGauge        Unit = "gauge"
)

// MetricEvent is one emitted data point. Events are immutable once created.
type MetricEvent struct {
	Name       string            `json:"name"`       // TAG
	Value      float64           `json:"value"`      // FIELD
	Unit       Unit              `json:"unit"`       // FIELD
	Attributes map[string]string `json:"attributes"` // FIELD (json-encoded)
	Timestamp  time.Time         `json:"ts"`         // TIME INDEX
}

// MetricTableName holds the table name used when writing to GreptimeDB.
// It defaults to "cloud_metrics" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var MetricTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "cloud_metrics"
}()

func (MetricEvent) TableName() string {
	return MetricTableName
}

// Gauge builds a MetricEvent with the given name, value, and unit.
// Attribute pairs are passed as alternating key, value strings.
func Gauge(name string, value float64, unit Unit, ts time.Time, kv ...string) MetricEvent {
	var attrs map[string]string
	if len(kv) > 0 {
		attrs = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			attrs[kv[i]] = kv[i+1]
		}
	}
	return MetricEvent{Name: name, Value: value, Unit: unit, Attributes: attrs, Timestamp: ts}
}
