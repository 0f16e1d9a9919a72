package stores

import (
	"sort"
	"sync"
	"time"

	"ocstat/internal/models"
)

// AccumulatorStore is the live, in-memory state of every open window.
// It is constructed explicitly and handed to its collaborators; all access is
// serialized by one mutex so ingestion and rollover never interleave.
type AccumulatorStore struct {
	mu       sync.Mutex
	loc      *time.Location
	windows  map[models.WindowKind]*openWindow
	// deferred holds daily windows that have not opened yet, keyed by start.
	deferred map[int64]*openWindow
}

type openWindow struct {
	start time.Time
	accs  map[string]*models.Accumulator
}

// NewAccumulatorStore opens a daily and a monthly window containing now.
// Window boundaries are computed in now's location.
func NewAccumulatorStore(now time.Time) *AccumulatorStore {
	s := &AccumulatorStore{
		loc:     now.Location(),
		windows:  make(map[models.WindowKind]*openWindow, len(models.WindowKinds)),
		deferred: make(map[int64]*openWindow),
	}
	for _, kind := range models.WindowKinds {
		s.windows[kind] = &openWindow{start: kind.Start(now), accs: make(map[string]*models.Accumulator)}
	}
	return s
}

// Location is the timezone day and month boundaries are computed in.
func (s *AccumulatorStore) Location() *time.Location {
	return s.loc
}

// Tx runs fn with exclusive access to the store. Pointers obtained from the
// StoreTx must not escape fn.
func (s *AccumulatorStore) Tx(fn func(tx *StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&StoreTx{s: s})
}

// Snapshot copies the stored window. The monthly window only holds closed
// days; use Current for what a report should show.
func (s *AccumulatorStore) Snapshot(kind models.WindowKind) models.WindowSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&StoreTx{s: s}).Snapshot(kind)
}

// Current is the window as reported. For monthly that is the month to date:
// the stored month plus the open day, read under one lock.
func (s *AccumulatorStore) Current(kind models.WindowKind) models.WindowSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &StoreTx{s: s}
	if kind == models.WindowMonthly {
		return tx.MonthToDate()
	}
	return tx.Snapshot(kind)
}

// DeferredSnapshots copies the windows waiting to open, oldest first.
func (s *AccumulatorStore) DeferredSnapshots() []models.WindowSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&StoreTx{s: s}).DeferredSnapshots()
}

func (s *AccumulatorStore) WindowStart(kind models.WindowKind) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows[kind].start
}

// Get returns a copy of one user's accumulator.
func (s *AccumulatorStore) Get(kind models.WindowKind, username string) (models.Accumulator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.windows[kind].accs[username]
	if !ok {
		return models.Accumulator{}, false
	}
	return *acc, true
}

// DeferredCount is the number of user accumulators waiting for their day to
// open.
func (s *AccumulatorStore) DeferredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.deferred {
		n += len(w.accs)
	}
	return n
}

// StoreTx exposes the store's state inside Tx.
type StoreTx struct {
	s *AccumulatorStore
}

func (tx *StoreTx) WindowStart(kind models.WindowKind) time.Time {
	return tx.s.windows[kind].start
}

// Accumulator returns the live accumulator for username, creating an empty
// one on first use.
func (tx *StoreTx) Accumulator(kind models.WindowKind, username string) *models.Accumulator {
	w := tx.s.windows[kind]
	acc, ok := w.accs[username]
	if !ok {
		acc = models.NewEmptyAccumulator(kind, w.start)
		w.accs[username] = acc
	}
	return acc
}

func (tx *StoreTx) Snapshot(kind models.WindowKind) models.WindowSnapshot {
	w := tx.s.windows[kind]
	accs := make(map[string]models.Accumulator, len(w.accs))
	for name, acc := range w.accs {
		accs[name] = *acc
	}
	return models.WindowSnapshot{WindowKind: kind, WindowStart: w.start, Accumulators: accs}
}

// Replace swaps a window's contents for snapshot.
func (tx *StoreTx) Replace(snapshot models.WindowSnapshot) {
	accs := make(map[string]*models.Accumulator, len(snapshot.Accumulators))
	for name, acc := range snapshot.Accumulators {
		acc := acc
		acc.WindowKind = snapshot.WindowKind
		acc.WindowStart = snapshot.WindowStart
		accs[name] = &acc
	}
	tx.s.windows[snapshot.WindowKind] = &openWindow{start: snapshot.WindowStart, accs: accs}
}

// Reset empties a window and moves its start to newStart.
func (tx *StoreTx) Reset(kind models.WindowKind, newStart time.Time) {
	tx.s.windows[kind] = &openWindow{start: newStart, accs: make(map[string]*models.Accumulator)}
}

// MonthToDate returns the monthly window with the open day merged in. The
// day is left out when it belongs to a later month.
func (tx *StoreTx) MonthToDate() models.WindowSnapshot {
	month := tx.Snapshot(models.WindowMonthly)
	day := tx.s.windows[models.WindowDaily]
	if !models.WindowMonthly.Contains(month.WindowStart, day.start) {
		return month
	}
	for name, acc := range day.accs {
		total, ok := month.Accumulators[name]
		if !ok {
			total = *models.NewEmptyAccumulator(models.WindowMonthly, month.WindowStart)
		}
		total.Merge(*acc)
		month.Accumulators[name] = total
	}
	return month
}

// Deferred returns username's accumulator in the daily window starting at
// start, which has not opened yet, creating it on first use.
func (tx *StoreTx) Deferred(start time.Time, username string) *models.Accumulator {
	w, ok := tx.s.deferred[start.UnixNano()]
	if !ok {
		w = &openWindow{start: start, accs: make(map[string]*models.Accumulator)}
		tx.s.deferred[start.UnixNano()] = w
	}
	acc, ok := w.accs[username]
	if !ok {
		acc = models.NewEmptyAccumulator(models.WindowDaily, start)
		w.accs[username] = acc
	}
	return acc
}

func (tx *StoreTx) DeferredSnapshots() []models.WindowSnapshot {
	out := make([]models.WindowSnapshot, 0, len(tx.s.deferred))
	for _, w := range tx.s.deferred {
		accs := make(map[string]models.Accumulator, len(w.accs))
		for name, acc := range w.accs {
			accs[name] = *acc
		}
		out = append(out, models.WindowSnapshot{WindowKind: models.WindowDaily, WindowStart: w.start, Accumulators: accs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WindowStart.Before(out[j].WindowStart) })
	return out
}

// TakeDeferred removes and returns every parked window, oldest first.
func (tx *StoreTx) TakeDeferred() []models.WindowSnapshot {
	out := tx.DeferredSnapshots()
	tx.s.deferred = make(map[int64]*openWindow)
	return out
}
