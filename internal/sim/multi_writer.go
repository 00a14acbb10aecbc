package sim

import (
	"cloudsim/internal/telemetry"
)

// MultiWriter fan-outs metric events to multiple writers.
type MultiWriter struct {
	writers []MetricWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(writers ...MetricWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write sends a metric event to all writers.
func (mw *MultiWriter) Write(ev telemetry.MetricEvent) error {
	for _, w := range mw.writers {
		if err := w.Write(ev); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple metric events to all writers, using batch mode
// where supported.
func (mw *MultiWriter) WriteBatch(events []telemetry.MetricEvent) error {
	for _, w := range mw.writers {
		if err := writeBatch(w, events); err != nil {
			return err
		}
	}
	return nil
}
