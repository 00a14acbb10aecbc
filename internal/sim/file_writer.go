package sim

import (
	"encoding/json"
	"os"

	"cloudsim/internal/telemetry"
)

// FileWriter writes metric events to a JSONL file, suitable for later replay.
type FileWriter struct {
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates a FileWriter truncating any existing file at path.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// Write logs a single metric event.
func (f *FileWriter) Write(ev telemetry.MetricEvent) error {
	return f.enc.Encode(ev)
}

// WriteBatch logs multiple metric events.
func (f *FileWriter) WriteBatch(events []telemetry.MetricEvent) error {
	for _, ev := range events {
		if err := f.Write(ev); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (f *FileWriter) Close() error {
	return f.file.Close()
}
