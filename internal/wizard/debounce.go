package wizard

import (
	"time"

	tea "charm.land/bubbletea/v2"
)

// Debounce keys.
const (
	debounceLevel   = "level"
	debounceContent = "content"
)

// DebounceMsg fires when a quiet period ends. Only the message carrying the
// latest sequence number for its key is settled.
type DebounceMsg struct {
	Key string
	Seq int
}

// Debouncer coalesces bursts of triggers per key into one settled message
// after a quiet period. It is owned by the update loop and is not safe for
// concurrent use.
type Debouncer struct {
	quiet   time.Duration
	seq     map[string]int
	pending map[string]bool
}

// NewDebouncer returns a debouncer with the given quiet period.
func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{
		quiet:   quiet,
		seq:     make(map[string]int),
		pending: make(map[string]bool),
	}
}

// Trigger restarts the quiet period for key.
func (d *Debouncer) Trigger(key string) tea.Cmd {
	d.seq[key]++
	d.pending[key] = true
	msg := DebounceMsg{Key: key, Seq: d.seq[key]}
	if d.quiet <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(d.quiet, func(time.Time) tea.Msg { return msg })
}

// Settled reports whether msg ends the latest quiet period for its key.
// A settled key is no longer pending.
func (d *Debouncer) Settled(msg DebounceMsg) bool {
	if !d.pending[msg.Key] || msg.Seq != d.seq[msg.Key] {
		return false
	}
	d.pending[msg.Key] = false
	return true
}

// Pending reports whether key has an unsettled trigger.
func (d *Debouncer) Pending(key string) bool {
	return d.pending[key]
}

// Cancel drops the pending trigger for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.seq[key]++
	d.pending[key] = false
}
