package sim

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cloudsim/internal/telemetry"
)

type fakeProgram struct{ msgs []tea.Msg }

func (f *fakeProgram) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

func TestTUIWriterMessages(t *testing.T) {
	p := &fakeProgram{}
	w := &TUIWriter{program: p, done: make(chan struct{})}

	ev := telemetry.Gauge("k8s.pods.running", 23, telemetry.UnitCount, time.Unix(0, 0).UTC())
	if err := w.Write(ev); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(p.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(p.msgs))
	}
	msg, ok := p.msgs[0].(batchMsg)
	if !ok {
		t.Fatalf("expected batchMsg, got %T", p.msgs[0])
	}
	if len(msg.events) != 1 || msg.events[0].Name != "k8s.pods.running" {
		t.Fatalf("unexpected batch payload: %+v", msg.events)
	}

	batch := []telemetry.MetricEvent{ev, telemetry.Gauge("network.packets.lost", 2, telemetry.UnitCount, time.Unix(1, 0).UTC())}
	if err := w.WriteBatch(batch); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if got := p.msgs[1].(batchMsg); len(got.events) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(got.events))
	}
}

func TestTUIModelTracksLatest(t *testing.T) {
	m := newTUIModel()
	ts := time.Unix(10, 0).UTC()

	mi, _ := m.Update(batchMsg{events: []telemetry.MetricEvent{
		telemetry.Gauge("database.pool.utilization", 40, telemetry.UnitPercent, ts),
	}})
	m = mi.(tuiModel)
	mi, _ = m.Update(batchMsg{events: []telemetry.MetricEvent{
		telemetry.Gauge("database.pool.utilization", 55, telemetry.UnitPercent, ts.Add(time.Second)),
	}})
	m = mi.(tuiModel)

	if len(m.latest) != 1 {
		t.Fatalf("expected one tracked metric, got %d", len(m.latest))
	}
	rows := m.table.Rows()
	if len(rows) != 1 || rows[0][0] != "database.pool.utilization" {
		t.Fatalf("unexpected table rows: %v", rows)
	}
	if !strings.HasPrefix(rows[0][1], "55") {
		t.Fatalf("expected latest value 55, got %v", rows[0][1])
	}
	if m.events != 2 {
		t.Errorf("expected event counter 2, got %d", m.events)
	}
}

func TestAttrSummary(t *testing.T) {
	got := attrSummary(map[string]string{"tier": "hot", "op": "read"})
	if got != "op=read,tier=hot" {
		t.Errorf("expected sorted attr summary, got %q", got)
	}
	if attrSummary(nil) != "" {
		t.Errorf("expected empty summary for nil attrs")
	}
}
