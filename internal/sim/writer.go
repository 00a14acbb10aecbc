// Scheduler orchestrating producers and metric batches
package sim

import (
	"cloudsim/internal/telemetry"
)

// MetricWriter is an interface to support different sink adapters.
type MetricWriter interface {
	Write(telemetry.MetricEvent) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.MetricEvent) error
}

// writeBatch dispatches a batch to a writer, preferring batch mode.
func writeBatch(w MetricWriter, events []telemetry.MetricEvent) error {
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteBatch(events)
	}
	for _, ev := range events {
		if err := w.Write(ev); err != nil {
			return err
		}
	}
	return nil
}
