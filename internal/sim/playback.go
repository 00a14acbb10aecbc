package sim

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"cloudsim/internal/telemetry"
)

// ReplayLog replays metric events from r to writer. A speed >0 accelerates
// playback according to the recorded timestamps. If speed <= 0, no
// artificial delay is inserted.
func ReplayLog(r io.Reader, writer MetricWriter, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var ev telemetry.MetricEvent
		if err := dec.Decode(&ev); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !prev.IsZero() && speed > 0 {
			diff := ev.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writer.Write(ev); err != nil {
			return err
		}
		prev = ev.Timestamp
	}
}

// ReplayLogFile opens a file and replays its metric events.
func ReplayLogFile(path string, writer MetricWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
