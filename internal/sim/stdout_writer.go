// Writer implementation printing metric events to STDOUT
package sim

import (
	"encoding/json"
	"fmt"

	"cloudsim/internal/telemetry"
)

// StdoutWriter prints metric events to STDOUT as JSON lines.
type StdoutWriter struct{}

// Write outputs a single metric event.
func (w *StdoutWriter) Write(ev telemetry.MetricEvent) error {
	data, _ := json.Marshal(ev)
	fmt.Println(string(data))
	return nil
}

// WriteBatch outputs multiple metric events.
func (w *StdoutWriter) WriteBatch(events []telemetry.MetricEvent) error {
	for _, ev := range events {
		_ = w.Write(ev)
	}
	return nil
}
