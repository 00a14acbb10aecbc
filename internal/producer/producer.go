// Producer contract shared by all simulation domains.
package producer

import (
	"context"
	"time"

	"cloudsim/internal/telemetry"
)

// TickContext carries the logical time of one scheduler tick. It is created
// per tick and discarded after the batch is dispatched.
type TickContext struct {
	Seq      uint64
	Time     time.Time
	Interval time.Duration
}

// Producer generates one domain's metric events per tick. Each producer owns
// its internal state exclusively; the incident field is the only sanctioned
// cross-producer coupling.
type Producer interface {
	Name() string
	Advance(ctx context.Context, tick TickContext) ([]telemetry.MetricEvent, error)
}
