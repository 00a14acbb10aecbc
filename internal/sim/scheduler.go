package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"cloudsim/internal/incident"
	"cloudsim/internal/logging"
	"cloudsim/internal/producer"
	"cloudsim/internal/telemetry"
)

// Options configures the scheduler loop.
type Options struct {
	Interval           time.Duration
	JitterFraction     float64       // uniform jitter applied to Interval, e.g. 0.1 for ±10%
	ProducerTimeout    time.Duration // per-producer advance deadline, defaults to Interval/2
	SuspendThreshold   int           // consecutive failures before a producer is suspended
	ProbeIntervalTicks uint64        // how often a suspended producer gets a re-enable probe
	SinkBackoff        time.Duration // emission pause after a fatal sink error
	ShutdownGrace      time.Duration // bound on the in-flight tick after shutdown
}

func (o *Options) applyDefaults() {
	if o.Interval <= 0 {
		o.Interval = 30 * time.Second
	}
	if o.JitterFraction < 0 {
		o.JitterFraction = 0
	}
	if o.ProducerTimeout <= 0 {
		o.ProducerTimeout = o.Interval / 2
	}
	if o.SuspendThreshold <= 0 {
		o.SuspendThreshold = 5
	}
	if o.ProbeIntervalTicks == 0 {
		o.ProbeIntervalTicks = 3
	}
	if o.SinkBackoff <= 0 {
		o.SinkBackoff = 30 * time.Second
	}
	if o.ShutdownGrace <= 0 {
		o.ShutdownGrace = 5 * time.Second
	}
}

// producerSlot tracks the scheduler-side health of one producer. Fields are
// guarded by the scheduler mutex; the admin server reads them concurrently.
type producerSlot struct {
	p         producer.Producer
	failures  int
	suspended bool
	running   chan struct{} // non-nil while an abandoned call may still execute
}

// ProducerStatus is a snapshot of one producer's scheduling state.
type ProducerStatus struct {
	Name                string `json:"name"`
	Suspended           bool   `json:"suspended"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
}

// Status is a snapshot of the scheduler for the admin server.
type Status struct {
	Tick          uint64                             `json:"tick"`
	Producers     []ProducerStatus                   `json:"producers"`
	SinkSuspended bool                               `json:"sink_suspended"`
	SinkResumeAt  time.Time                          `json:"sink_resume_at,omitempty"`
	LastBatchSize int                                `json:"last_batch_size"`
	IncidentModes map[incident.Channel]incident.Mode `json:"incident_modes"`
}

// Scheduler drives generation ticks, isolates producer failures, and hands
// batches to the sink writer. Producers run in the fixed registration order
// so batch ordering stays deterministic.
type Scheduler struct {
	opts   Options
	slots  []*producerSlot
	writer MetricWriter
	field  *incident.Field
	rng    *rand.Rand
	now    func() time.Time

	mu            sync.Mutex
	seq           uint64
	sinkDownUntil time.Time
	lastBatchSize int
}

// NewScheduler wires producers (in emission order) to a sink writer.
func NewScheduler(producers []producer.Producer, writer MetricWriter, field *incident.Field, opts Options) *Scheduler {
	opts.applyDefaults()
	s := &Scheduler{
		opts:   opts,
		writer: writer,
		field:  field,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
	for _, p := range producers {
		s.slots = append(s.slots, &producerSlot{p: p})
	}
	return s
}

// Run drives ticks until ctx is cancelled. The in-flight tick is allowed to
// finish, bounded by the shutdown grace deadline.
func (s *Scheduler) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting scheduler",
		"interval", s.opts.Interval,
		"jitter_fraction", s.opts.JitterFraction,
		"producers", len(s.slots))

	timer := time.NewTimer(s.jittered())
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.tick(ctx)
			timer.Reset(s.jittered())
		case <-ctx.Done():
			log.Info("stopping scheduler")
			return
		}
	}
}

// jittered returns the tick interval with uniform jitter applied.
func (s *Scheduler) jittered() time.Duration {
	if s.opts.JitterFraction == 0 {
		return s.opts.Interval
	}
	f := 1 + (s.rng.Float64()*2-1)*s.opts.JitterFraction
	return time.Duration(float64(s.opts.Interval) * f)
}

// tick runs one generation cycle: advance every enabled producer, assemble
// the batch in fixed order, and hand it to the sink.
func (s *Scheduler) tick(ctx context.Context) {
	log := logging.FromContext(ctx)
	start := s.now()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	tc := producer.TickContext{Seq: seq, Time: start.UTC(), Interval: s.opts.Interval}

	// Detach the tick from immediate cancellation: on shutdown the tick may
	// finish, but only within the grace deadline.
	tickCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stop := context.AfterFunc(ctx, func() {
		time.AfterFunc(s.opts.ShutdownGrace, cancel)
	})
	defer stop()

	var batch []telemetry.MetricEvent
	ran := 0
	suspendedCount := 0

	for _, slot := range s.slots {
		s.mu.Lock()
		if slot.suspended && seq%s.opts.ProbeIntervalTicks != 0 {
			s.mu.Unlock()
			suspendedCount++
			continue
		}
		stillRunning := false
		if slot.running != nil {
			select {
			case <-slot.running:
				slot.running = nil
			default:
				stillRunning = true
			}
		}
		s.mu.Unlock()

		if stillRunning {
			// An abandoned call from an earlier tick has not returned yet;
			// re-invoking would race on the producer's state.
			failures, newlySuspended, suspended := s.fail(slot)
			log.Warn("producer still running from an earlier tick, skipping",
				"producer", slot.p.Name(),
				"tick", seq,
				"consecutive_failures", failures)
			if newlySuspended {
				log.Error("producer suspended",
					"producer", slot.p.Name(),
					"tick", seq,
					"after_failures", failures)
			}
			if suspended {
				suspendedCount++
			}
			continue
		}
		if tickCtx.Err() != nil {
			// Grace deadline hit mid-tick; abandon remaining producers.
			break
		}
		events, err := s.invoke(tickCtx, slot, tc)
		if err != nil {
			failures, newlySuspended, suspended := s.fail(slot)
			log.Warn("producer failed",
				"producer", slot.p.Name(),
				"tick", seq,
				"consecutive_failures", failures,
				"err", err)
			if newlySuspended {
				log.Error("producer suspended",
					"producer", slot.p.Name(),
					"tick", seq,
					"after_failures", failures)
			}
			if suspended {
				suspendedCount++
			}
			continue
		}
		s.mu.Lock()
		resumed := slot.suspended
		slot.suspended = false
		slot.failures = 0
		s.mu.Unlock()
		if resumed {
			log.Info("producer re-enabled", "producer", slot.p.Name(), "tick", seq)
		}
		ran++
		batch = append(batch, events...)
	}

	if tickCtx.Err() != nil {
		log.Warn("tick abandoned at shutdown grace deadline", "tick", seq)
		return
	}

	emitted := s.submit(ctx, batch, seq)

	s.mu.Lock()
	s.lastBatchSize = emitted
	s.mu.Unlock()

	log.Info("tick complete",
		"tick", seq,
		"producers_run", ran,
		"producers_suspended", suspendedCount,
		"events", emitted,
		"duration", s.now().Sub(start))
}

// fail records one producer failure and reports whether the failure crossed
// the suspension threshold.
func (s *Scheduler) fail(slot *producerSlot) (failures int, newlySuspended, suspended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot.failures++
	if !slot.suspended && slot.failures >= s.opts.SuspendThreshold {
		slot.suspended = true
		newlySuspended = true
	}
	return slot.failures, newlySuspended, slot.suspended
}

// invoke runs one producer with timeout and panic isolation. A stuck
// producer is abandoned; its result is discarded and the slot remembers the
// in-flight call so the producer is not re-invoked until it returns.
func (s *Scheduler) invoke(ctx context.Context, slot *producerSlot, tc producer.TickContext) ([]telemetry.MetricEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ProducerTimeout)
	defer cancel()

	type result struct {
		events []telemetry.MetricEvent
		err    error
	}
	done := make(chan result, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("producer panicked: %v", r)}
			}
		}()
		events, err := slot.p.Advance(ctx, tc)
		done <- result{events: events, err: err}
	}()

	select {
	case r := <-done:
		return r.events, r.err
	case <-ctx.Done():
		s.mu.Lock()
		slot.running = finished
		s.mu.Unlock()
		return nil, fmt.Errorf("advance timed out: %w", ctx.Err())
	}
}

// submit hands the batch to the sink, honoring the fatal-error backoff
// window. Returns the number of events emitted.
func (s *Scheduler) submit(ctx context.Context, batch []telemetry.MetricEvent, seq uint64) int {
	log := logging.FromContext(ctx)
	if len(batch) == 0 {
		return 0
	}

	s.mu.Lock()
	downUntil := s.sinkDownUntil
	s.mu.Unlock()

	if now := s.now(); now.Before(downUntil) {
		log.Warn("sink suspended, dropping batch",
			"tick", seq, "events", len(batch), "resume_at", downUntil)
		return 0
	}

	if err := writeBatch(s.writer, batch); err != nil {
		if IsFatal(err) {
			resume := s.now().Add(s.opts.SinkBackoff)
			s.mu.Lock()
			s.sinkDownUntil = resume
			s.mu.Unlock()
			log.Error("fatal sink error, suspending emission",
				"tick", seq, "resume_at", resume, "err", err)
		} else {
			log.Warn("sink write failed", "tick", seq, "err", err)
		}
		return 0
	}
	return len(batch)
}

// Status returns a snapshot for the admin server.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Tick:          s.seq,
		LastBatchSize: s.lastBatchSize,
		SinkSuspended: s.now().Before(s.sinkDownUntil),
	}
	if st.SinkSuspended {
		st.SinkResumeAt = s.sinkDownUntil
	}
	for _, slot := range s.slots {
		st.Producers = append(st.Producers, ProducerStatus{
			Name:                slot.p.Name(),
			Suspended:           slot.suspended,
			ConsecutiveFailures: slot.failures,
		})
	}
	if s.field != nil {
		st.IncidentModes = s.field.Snapshot()
	}
	return st
}

// Field exposes the shared incident field, used by the admin server to
// force channel modes.
func (s *Scheduler) Field() *incident.Field { return s.field }
