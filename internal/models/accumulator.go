package models

import (
	"sort"
	"time"
)

// Accumulator holds one user's running totals for one window.
// Counters never go negative and only grow until the window is reset.
type Accumulator struct {
	WindowKind           WindowKind `json:"windowKind"`
	WindowStart          time.Time  `json:"windowStart"`
	OutgoingBytes        int64      `json:"outgoingBytes"`
	IncomingBytes        int64      `json:"incomingBytes"`
	ConnectionCount      int64      `json:"connectionCount"`
	TotalDurationSeconds int64      `json:"totalDurationSeconds"`
	// FoldedThrough is, on a monthly accumulator, the start of the latest
	// daily window folded into it.
	FoldedThrough time.Time `json:"foldedThrough"`
	// Closed marks the final snapshot written when the window rolled over.
	Closed bool `json:"closed,omitempty"`
}

func NewEmptyAccumulator(kind WindowKind, windowStart time.Time) *Accumulator {
	return &Accumulator{WindowKind: kind, WindowStart: windowStart}
}

// IsZero reports whether nothing has been accumulated yet.
func (a Accumulator) IsZero() bool {
	return a.OutgoingBytes == 0 && a.IncomingBytes == 0 && a.ConnectionCount == 0 && a.TotalDurationSeconds == 0
}

// Merge adds other's counters to a. It does not check for overflow and is
// meant for read-only views.
func (a *Accumulator) Merge(other Accumulator) {
	a.OutgoingBytes += other.OutgoingBytes
	a.IncomingBytes += other.IncomingBytes
	a.ConnectionCount += other.ConnectionCount
	a.TotalDurationSeconds += other.TotalDurationSeconds
}

// WindowSnapshot is a point-in-time copy of every accumulator in one window.
// It shares no memory with the live store.
type WindowSnapshot struct {
	WindowKind   WindowKind             `json:"windowKind"`
	WindowStart  time.Time              `json:"windowStart"`
	Accumulators map[string]Accumulator `json:"accumulators"`
}

// Usernames returns the snapshot's users sorted ascending.
func (s WindowSnapshot) Usernames() []string {
	names := make([]string, 0, len(s.Accumulators))
	for name := range s.Accumulators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy.
func (s WindowSnapshot) Clone() WindowSnapshot {
	accs := make(map[string]Accumulator, len(s.Accumulators))
	for name, acc := range s.Accumulators {
		accs[name] = acc
	}
	return WindowSnapshot{WindowKind: s.WindowKind, WindowStart: s.WindowStart, Accumulators: accs}
}

// SnapshotRecord is one persisted accumulator as read back from a gateway.
type SnapshotRecord struct {
	Username    string
	Accumulator Accumulator
}
