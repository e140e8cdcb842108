package harvest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/calendar"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type commit struct {
	courtID   string
	dateBS    string
	summary   string
	sightings []Sighting
}

type fakeStore struct {
	mu       sync.Mutex
	scraped  map[string]map[string]struct{}
	commits  []commit
	commitFn func(courtID, dateBS string) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{scraped: make(map[string]map[string]struct{})}
}

func (s *fakeStore) ScrapedDates(_ context.Context, courtID string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{})
	for d := range s.scraped[courtID] {
		out[d] = struct{}{}
	}
	return out, nil
}

func (s *fakeStore) CommitUnit(_ context.Context, courtID, dateBS, summary string, sightings []Sighting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitFn != nil {
		if err := s.commitFn(courtID, dateBS); err != nil {
			return err
		}
	}
	s.commits = append(s.commits, commit{courtID, dateBS, summary, sightings})
	return nil
}

func (s *fakeStore) SeedCourts(context.Context, []Court) error { return nil }

func (s *fakeStore) PendingCaseNumbers(context.Context, string, int) ([]string, error) {
	return nil, nil
}

func (s *fakeStore) ApplyEnrichment(context.Context, string, string, CaseDetail) (bool, error) {
	return false, nil
}

func (s *fakeStore) MarkEnrichmentFailed(context.Context, string, string) error { return nil }

type fakeAdapter struct {
	mu       sync.Mutex
	calls    []string // "courtID date"
	harvest  func(court Court, date calendar.Date, attempt int) (UnitResult, error)
	attempts map[string]int
}

func newFakeAdapter(fn func(court Court, date calendar.Date, attempt int) (UnitResult, error)) *fakeAdapter {
	return &fakeAdapter{harvest: fn, attempts: make(map[string]int)}
}

func (a *fakeAdapter) Category() CourtCategory { return CategoryDistrict }

func (a *fakeAdapter) HarvestUnit(_ context.Context, court Court, date calendar.Date) (UnitResult, error) {
	a.mu.Lock()
	key := court.Identifier + " " + date.String()
	attempt := a.attempts[key]
	a.attempts[key]++
	a.calls = append(a.calls, key)
	a.mu.Unlock()
	return a.harvest(court, date, attempt)
}

func (a *fakeAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

// 2025-01-14 is BS 2081-09-30; with the two-day offset the anchor unit is
// the known causelist day 2081-09-28.
var testNow = time.Date(2025, time.January, 14, 10, 0, 0, 0, time.UTC)

var testCourt = Court{
	Identifier: "kathmandudc",
	Category:   CategoryDistrict,
	NameLocal:  "काठमाडौं जिल्ला अदालत",
	PortalID:   39,
}

func newTestOrchestrator(store Store, adapter Adapter, lookback int) *Orchestrator {
	cfg := Config{
		LookbackDays: lookback,
		OffsetDays:   2,
		Concurrency:  1,
		Timezone:     time.UTC,
	}
	return NewOrchestrator(
		cfg,
		zap.NewNop(),
		store,
		map[CourtCategory]Adapter{CategoryDistrict: adapter},
		NewExponentialRetryPolicy(),
		fakeClock{now: testNow},
	)
}

func TestRunCommitsAndCheckpoints(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	adapter := newFakeAdapter(func(court Court, date calendar.Date, _ int) (UnitResult, error) {
		return UnitResult{
			Sightings: []Sighting{{
				Case:    &Case{CaseNumber: "081-CR-1111", CourtID: court.Identifier},
				Hearing: Hearing{CaseNumber: "081-CR-1111", CourtID: court.Identifier, DateBS: date.String()},
			}},
			Summary: "1 cases",
		}, nil
	})

	stats, err := newTestOrchestrator(store, adapter, 2).Run(context.Background(), []Court{testCourt})
	require.NoError(t, err)
	require.Equal(t, 2, stats.UnitsCommitted)
	require.Equal(t, 2, stats.Sightings)
	require.Equal(t, 1, stats.DistinctCases)

	require.Len(t, store.commits, 2)
	require.Equal(t, "2081-09-28", store.commits[0].dateBS)
	require.Equal(t, "2081-09-27", store.commits[1].dateBS)
}

func TestRunSkipsCheckpointedUnits(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.scraped["kathmandudc"] = map[string]struct{}{"2081-09-27": {}}

	adapter := newFakeAdapter(func(Court, calendar.Date, int) (UnitResult, error) {
		return UnitResult{Summary: "0 cases"}, nil
	})

	stats, err := newTestOrchestrator(store, adapter, 2).Run(context.Background(), []Court{testCourt})
	require.NoError(t, err)
	require.Equal(t, 1, stats.UnitsSkipped)
	require.Equal(t, 1, stats.UnitsCommitted)
	require.Equal(t, []string{"kathmandudc 2081-09-28"}, adapter.calls)
}

func TestRunBlockedUnitNotCheckpointed(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	adapter := newFakeAdapter(func(court Court, date calendar.Date, _ int) (UnitResult, error) {
		return UnitResult{}, &BlockedError{CourtID: court.Identifier, DateBS: date.String()}
	})

	stats, err := newTestOrchestrator(store, adapter, 1).Run(context.Background(), []Court{testCourt})
	require.NoError(t, err)
	require.Equal(t, 1, stats.UnitsBlocked)
	require.Zero(t, stats.UnitsCommitted)
	require.Empty(t, store.commits, "a blocked unit must leave no checkpoint")
	require.Equal(t, 1, adapter.callCount(), "blocks are not retried")
}

func TestRunZeroResultIsCheckpointed(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	adapter := newFakeAdapter(func(Court, calendar.Date, int) (UnitResult, error) {
		return UnitResult{Summary: "0 cases"}, nil
	})

	stats, err := newTestOrchestrator(store, adapter, 1).Run(context.Background(), []Court{testCourt})
	require.NoError(t, err)
	require.Equal(t, 1, stats.UnitsCommitted)
	require.Len(t, store.commits, 1)
	require.Empty(t, store.commits[0].sightings)
	require.Equal(t, "0 cases", store.commits[0].summary)
}

func TestRunRetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	adapter := newFakeAdapter(func(_ Court, _ calendar.Date, attemptNo int) (UnitResult, error) {
		if attemptNo < 2 {
			return UnitResult{}, &TransientError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return UnitResult{Summary: "0 cases"}, nil
	})

	stats, err := newTestOrchestrator(store, adapter, 1).Run(context.Background(), []Court{testCourt})
	require.NoError(t, err)
	require.Equal(t, 1, stats.UnitsCommitted)
	require.Equal(t, 3, adapter.callCount())
}

func TestRunTransientExhaustedLeavesNoCheckpoint(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	adapter := newFakeAdapter(func(Court, calendar.Date, int) (UnitResult, error) {
		return UnitResult{}, &TransientError{StatusCode: 502, Err: errors.New("bad gateway")}
	})

	stats, err := newTestOrchestrator(store, adapter, 1).Run(context.Background(), []Court{testCourt})
	require.NoError(t, err)
	require.Equal(t, 1, stats.UnitsFailed)
	require.Empty(t, store.commits)
}

func TestRunMalformedCheckpointsAsEmpty(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	adapter := newFakeAdapter(func(Court, calendar.Date, int) (UnitResult, error) {
		return UnitResult{}, &MalformedError{Reason: "no causelist table"}
	})

	stats, err := newTestOrchestrator(store, adapter, 1).Run(context.Background(), []Court{testCourt})
	require.NoError(t, err)
	require.Equal(t, 1, stats.UnitsCommitted)
	require.Len(t, store.commits, 1)
	require.Empty(t, store.commits[0].sightings)
	require.Contains(t, store.commits[0].summary, "malformed")
}

func TestRunDeduplicatesCaseAcrossUnits(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	adapter := newFakeAdapter(func(court Court, date calendar.Date, _ int) (UnitResult, error) {
		return UnitResult{
			Sightings: []Sighting{{
				Case:    &Case{CaseNumber: "081-CR-2222", CourtID: court.Identifier},
				Hearing: Hearing{CaseNumber: "081-CR-2222", CourtID: court.Identifier, DateBS: date.String()},
			}},
			Summary: "1 cases",
		}, nil
	})

	stats, err := newTestOrchestrator(store, adapter, 3).Run(context.Background(), []Court{testCourt})
	require.NoError(t, err)
	require.Equal(t, 1, stats.DistinctCases)

	require.Len(t, store.commits, 3)
	require.NotNil(t, store.commits[0].sightings[0].Case, "first sighting carries the case record")
	require.Nil(t, store.commits[1].sightings[0].Case, "repeat sightings carry only the hearing")
	require.Nil(t, store.commits[2].sightings[0].Case)
}

func TestRunTruncatesLookbackAtCalendarTableEdge(t *testing.T) {
	t.Parallel()

	// Clock three days into the supported BS range: with the two-day offset
	// the anchor is 2000-01-03, so only three dates exist before the window
	// falls off the table.
	now, err := calendar.Date{Year: 2000, Month: 1, Day: 5}.ToGregorian()
	require.NoError(t, err)

	store := newFakeStore()
	adapter := newFakeAdapter(func(Court, calendar.Date, int) (UnitResult, error) {
		return UnitResult{Summary: "0 cases"}, nil
	})
	orch := NewOrchestrator(
		Config{LookbackDays: 30, OffsetDays: 2, Concurrency: 1, Timezone: time.UTC},
		zap.NewNop(),
		store,
		map[CourtCategory]Adapter{CategoryDistrict: adapter},
		NewExponentialRetryPolicy(),
		fakeClock{now: now},
	)

	stats, err := orch.Run(context.Background(), []Court{testCourt})
	require.NoError(t, err)
	require.Equal(t, 3, stats.UnitsCommitted)
	require.Len(t, store.commits, 3)
	require.Equal(t, "2000-01-03", store.commits[0].dateBS)
	require.Equal(t, "2000-01-01", store.commits[2].dateBS)
}

func TestRunFailedCommitLeavesLedgerUntouched(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.commitFn = func(string, string) error { return errors.New("connection reset") }
	adapter := newFakeAdapter(func(Court, calendar.Date, int) (UnitResult, error) {
		return UnitResult{Summary: "0 cases"}, nil
	})

	orch := newTestOrchestrator(store, adapter, 1)
	stats, err := orch.Run(context.Background(), []Court{testCourt})
	require.NoError(t, err)
	require.Equal(t, 1, stats.UnitsFailed)
	require.False(t, orch.ledger.Done("kathmandudc", "2081-09-28"))
}
