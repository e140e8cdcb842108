package harvest

import (
	"context"
	"fmt"
	"sync"
)

// Ledger is the in-memory view of the checkpoint table. It is preloaded per
// court before a run and consulted before any network work so completed
// (court, date) units are never re-fetched. Marking done happens in the
// store transaction; the ledger only mirrors it for the rest of the run.
type Ledger struct {
	mu    sync.RWMutex
	done  map[string]map[string]struct{} // court id -> set of BS dates
	store Store
}

// NewLedger builds an empty ledger backed by the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{
		done:  make(map[string]map[string]struct{}),
		store: store,
	}
}

// Load pulls the checkpointed dates for a court from the store. Loading the
// same court twice refreshes its set.
func (l *Ledger) Load(ctx context.Context, courtID string) error {
	dates, err := l.store.ScrapedDates(ctx, courtID)
	if err != nil {
		return fmt.Errorf("loading checkpoints for %s: %w", courtID, err)
	}
	l.mu.Lock()
	l.done[courtID] = dates
	l.mu.Unlock()
	return nil
}

// Done reports whether the (court, date) unit is already checkpointed.
func (l *Ledger) Done(courtID, dateBS string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	set, ok := l.done[courtID]
	if !ok {
		return false
	}
	_, ok = set[dateBS]
	return ok
}

// MarkDone records a completed unit in memory. The durable checkpoint is
// written by the store inside the unit's commit transaction; callers invoke
// this only after that transaction succeeds.
func (l *Ledger) MarkDone(courtID, dateBS string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.done[courtID]
	if !ok {
		set = make(map[string]struct{})
		l.done[courtID] = set
	}
	set[dateBS] = struct{}{}
}
