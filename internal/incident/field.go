// Shared incident field correlating degradation across producers.
package incident

import (
	"fmt"
	"math/rand"
	"sync"
)

// Mode is the current state of an incident channel.
type Mode string

const (
	Normal     Mode = "normal"
	Degrading  Mode = "degrading"
	Degraded   Mode = "degraded"
	Recovering Mode = "recovering"
)

// Channel names an independent incident correlation variable.
type Channel string

const (
	ChannelCluster Channel = "cluster"
	ChannelNetwork Channel = "network"
	ChannelStorage Channel = "storage"
)

// Channels lists all known incident channels.
var Channels = []Channel{ChannelCluster, ChannelNetwork, ChannelStorage}

// Transitions holds per-channel Markov transition probabilities.
// Each probability applies once per tick; self-loops otherwise.
type Transitions struct {
	Degrade float64 // Normal -> Degrading
	Worsen  float64 // Degrading -> Degraded
	Recover float64 // Degraded -> Recovering
	Restore float64 // Recovering -> Normal
}

// DefaultTransitions returns the default Markov chain probabilities.
func DefaultTransitions() Transitions {
	return Transitions{Degrade: 0.02, Worsen: 0.60, Recover: 0.30, Restore: 0.50}
}

type channelState struct {
	mode    Mode
	owner   string
	probs   Transitions
	lastSeq uint64
}

// Field is the process-wide incident state. Each channel has exactly one
// registered owner allowed to advance it; all other producers only read.
type Field struct {
	mu       sync.Mutex
	channels map[Channel]*channelState
}

// NewField creates a Field with all channels in Normal mode.
func NewField(probs map[Channel]Transitions) *Field {
	f := &Field{channels: make(map[Channel]*channelState, len(Channels))}
	for _, ch := range Channels {
		p, ok := probs[ch]
		if !ok {
			p = DefaultTransitions()
		}
		f.channels[ch] = &channelState{mode: Normal, probs: p}
	}
	return f
}

// RegisterOwner claims the transition call for a channel. Any second
// registration is a startup invariant violation and returns an error, even
// under the same owner name: two producer instances sharing a name must not
// both drive the channel.
func (f *Field) RegisterOwner(ch Channel, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs, ok := f.channels[ch]
	if !ok {
		return fmt.Errorf("unknown incident channel %q", ch)
	}
	if cs.owner != "" {
		return fmt.Errorf("incident channel %q already owned by %q, cannot register %q", ch, cs.owner, owner)
	}
	cs.owner = owner
	return nil
}

// Advance samples one Markov transition for the channel. Only the registered
// owner may call it. Calling it again with the same tick seq returns the
// current mode without transitioning, so the transition stays idempotent
// within a tick.
func (f *Field) Advance(ch Channel, owner string, seq uint64, rng *rand.Rand) (Mode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs, ok := f.channels[ch]
	if !ok {
		return Normal, fmt.Errorf("unknown incident channel %q", ch)
	}
	if cs.owner != owner {
		return cs.mode, fmt.Errorf("producer %q is not the owner of channel %q", owner, ch)
	}
	if cs.lastSeq == seq {
		return cs.mode, nil
	}
	cs.lastSeq = seq

	draw := rng.Float64()
	switch cs.mode {
	case Normal:
		if draw < cs.probs.Degrade {
			cs.mode = Degrading
		}
	case Degrading:
		if draw < cs.probs.Worsen {
			cs.mode = Degraded
		}
	case Degraded:
		if draw < cs.probs.Recover {
			cs.mode = Recovering
		}
	case Recovering:
		if draw < cs.probs.Restore {
			cs.mode = Normal
		}
	}
	return cs.mode, nil
}

// Mode returns the current mode of a channel. Unknown channels read Normal.
func (f *Field) Mode(ch Channel) Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cs, ok := f.channels[ch]; ok {
		return cs.mode
	}
	return Normal
}

// Force pins a channel to the given mode. The next owner transition evolves
// from the forced mode. Used by the admin server and tests.
func (f *Field) Force(ch Channel, mode Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs, ok := f.channels[ch]
	if !ok {
		return fmt.Errorf("unknown incident channel %q", ch)
	}
	cs.mode = mode
	return nil
}

// Snapshot returns the current mode of every channel.
func (f *Field) Snapshot() map[Channel]Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[Channel]Mode, len(f.channels))
	for ch, cs := range f.channels {
		out[ch] = cs.mode
	}
	return out
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Normal, Degrading, Degraded, Recovering:
		return Mode(s), nil
	}
	return Normal, fmt.Errorf("unknown incident mode %q", s)
}
