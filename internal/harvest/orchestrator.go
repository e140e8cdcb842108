package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/calendar"
	"github.com/ngmonitor/courtharvest/internal/metrics"
)

// Config holds the settings for a harvest run.
// This struct is decoupled from Viper, making the engine and its configuration
// more modular and easier to test independently.
type Config struct {
	// LookbackDays is how far back the work grid reaches from the anchor day.
	LookbackDays int
	// OffsetDays shifts the anchor day back from today; causelists for the
	// most recent days are often not published yet.
	OffsetDays int
	// Concurrency is the number of units harvested in parallel.
	Concurrency int
	// Timezone anchors "today"; the portals publish on Kathmandu days.
	Timezone *time.Location
}

// DefaultConfig mirrors the portals' publication behavior: five BS years of
// history, skipping the two most recent days.
func DefaultConfig() Config {
	loc, err := time.LoadLocation("Asia/Kathmandu")
	if err != nil {
		loc = time.UTC
	}
	return Config{
		LookbackDays: 5 * 365,
		OffsetDays:   2,
		Concurrency:  4,
		Timezone:     loc,
	}
}

// Orchestrator walks the (court, date) work grid: ledger check, adapter
// dispatch, retry, identity dedup and the transactional commit that couples
// row writes to the unit's checkpoint.
type Orchestrator struct {
	config   Config
	logger   *zap.Logger
	store    Store
	adapters map[CourtCategory]Adapter
	retry    RetryPolicy
	clock    Clock

	ledger *Ledger
	cache  *CaseCache
}

// NewOrchestrator wires an engine from its collaborators. Every adapter the
// court list needs must be registered; courts with no adapter are skipped
// with a warning at run time.
func NewOrchestrator(
	config Config,
	logger *zap.Logger,
	store Store,
	adapters map[CourtCategory]Adapter,
	retry RetryPolicy,
	clock Clock,
) *Orchestrator {
	return &Orchestrator{
		config:   config,
		logger:   logger,
		store:    store,
		adapters: adapters,
		retry:    retry,
		clock:    clock,
		ledger:   NewLedger(store),
		cache:    NewCaseCache(),
	}
}

// RunStats summarizes a completed run.
type RunStats struct {
	UnitsPlanned   int
	UnitsSkipped   int
	UnitsCommitted int
	UnitsBlocked   int
	UnitsFailed    int
	Sightings      int
	DistinctCases  int
}

// Run harvests the full work grid for the given courts and blocks until every
// unit is resolved or the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context, courts []Court) (RunStats, error) {
	runID := uuid.NewString()
	log := o.logger.With(zap.String("run_id", runID))

	grid, skipped, err := o.buildGrid(ctx, courts, log)
	if err != nil {
		return RunStats{}, err
	}
	log.Info("Work grid built",
		zap.Int("units", len(grid)),
		zap.Int("already_done", skipped),
		zap.Int("courts", len(courts)),
	)

	stats := RunStats{UnitsPlanned: len(grid) + skipped, UnitsSkipped: skipped}

	units := make(chan Unit)
	var mu sync.Mutex
	var wg sync.WaitGroup

	workers := o.config.Concurrency
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range units {
				outcome := o.harvestUnit(ctx, unit, log)
				mu.Lock()
				switch outcome.kind {
				case unitCommitted:
					stats.UnitsCommitted++
					stats.Sightings += outcome.sightings
				case unitBlocked:
					stats.UnitsBlocked++
				case unitFailed:
					stats.UnitsFailed++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, unit := range grid {
		select {
		case units <- unit:
		case <-ctx.Done():
			break feed
		}
	}
	close(units)
	wg.Wait()

	stats.DistinctCases = o.cache.Len()
	log.Info("Run finished",
		zap.Int("committed", stats.UnitsCommitted),
		zap.Int("blocked", stats.UnitsBlocked),
		zap.Int("failed", stats.UnitsFailed),
		zap.Int("sightings", stats.Sightings),
		zap.Int("distinct_cases", stats.DistinctCases),
	)
	return stats, ctx.Err()
}

// buildGrid expands courts x dates into pending units, newest date first, and
// drops everything the ledger already covers.
func (o *Orchestrator) buildGrid(ctx context.Context, courts []Court, log *zap.Logger) ([]Unit, int, error) {
	anchor, err := o.anchorDate()
	if err != nil {
		return nil, 0, err
	}

	var grid []Unit
	skipped := 0
	for _, court := range courts {
		if _, ok := o.adapters[court.Category]; !ok {
			log.Warn("No adapter registered for court, skipping",
				zap.String("court", court.Identifier),
				zap.String("category", string(court.Category)),
			)
			continue
		}
		if err := o.ledger.Load(ctx, court.Identifier); err != nil {
			return nil, 0, err
		}
		for i := 0; i < o.config.LookbackDays; i++ {
			date, err := anchor.AddDays(-i)
			if err != nil {
				// The lookback window walked past the edge of the BS table;
				// everything older is unreachable, so the walk stops here.
				log.Warn("Lookback truncated at calendar table edge",
					zap.String("court", court.Identifier),
					zap.Int("days_covered", i),
				)
				break
			}
			if o.ledger.Done(court.Identifier, date.String()) {
				skipped++
				continue
			}
			grid = append(grid, Unit{Court: court, DateBS: date})
		}
	}
	return grid, skipped, nil
}

// anchorDate is today in the configured zone, shifted back by the offset,
// expressed in BS.
func (o *Orchestrator) anchorDate() (calendar.Date, error) {
	loc := o.config.Timezone
	if loc == nil {
		loc = time.UTC
	}
	now := o.clock.Now().In(loc)
	today, err := calendar.FromGregorian(now)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("converting today to BS: %w", err)
	}
	return today.AddDays(-o.config.OffsetDays)
}

type unitOutcomeKind int

const (
	unitCommitted unitOutcomeKind = iota
	unitBlocked
	unitFailed
)

type unitOutcome struct {
	kind      unitOutcomeKind
	sightings int
}

// harvestUnit resolves one (court, date) cell: fetch with retries, dedupe
// case identities, commit rows and checkpoint in one transaction. Blocked
// units are abandoned without a checkpoint so a later run retries them.
func (o *Orchestrator) harvestUnit(ctx context.Context, unit Unit, log *zap.Logger) unitOutcome {
	adapter := o.adapters[unit.Court.Category]
	dateBS := unit.DateBS.String()
	ulog := log.With(
		zap.String("court", unit.Court.Identifier),
		zap.String("date_bs", dateBS),
	)

	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()
	started := o.clock.Now()
	defer func() {
		metrics.ObserveUnitDuration(string(unit.Court.Category), o.clock.Now().Sub(started))
	}()

	var result UnitResult
	var err error
	for attempt := 0; ; attempt++ {
		result, err = adapter.HarvestUnit(ctx, unit.Court, unit.DateBS)
		if err == nil || !o.retry.ShouldRetry(err, attempt) {
			break
		}
		delay := o.retry.Backoff(attempt)
		metrics.IncRetries(unit.Court.Identifier)
		ulog.Warn("Unit fetch failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			metrics.ObserveUnit(unit.Court.Identifier, "failed")
			return unitOutcome{kind: unitFailed}
		}
	}

	if err != nil {
		var blocked *BlockedError
		if errors.As(err, &blocked) {
			ulog.Warn("Unit blocked by site, leaving uncheckpointed")
			metrics.ObserveUnit(unit.Court.Identifier, "blocked")
			return unitOutcome{kind: unitBlocked}
		}
		var malformed *MalformedError
		if errors.As(err, &malformed) {
			// An unrecognized page layout is recorded as observed-empty;
			// re-fetching the same HTML would fail the same way.
			ulog.Warn("Unit response malformed, checkpointing as empty", zap.Error(err))
			result = UnitResult{Summary: "malformed: " + malformed.Reason}
		} else {
			ulog.Error("Unit failed after retries", zap.Error(err))
			metrics.ObserveUnit(unit.Court.Identifier, "failed")
			return unitOutcome{kind: unitFailed}
		}
	}

	// First sighting of a case this run carries the master record; repeats
	// ship only their hearing row.
	for i := range result.Sightings {
		s := &result.Sightings[i]
		if s.Case == nil {
			continue
		}
		if o.cache.Seen(s.Case.CaseNumber, s.Case.CourtID) {
			s.Case = nil
		}
	}

	if err := o.store.CommitUnit(ctx, unit.Court.Identifier, dateBS, result.Summary, result.Sightings); err != nil {
		ulog.Error("Unit commit failed", zap.Error(err))
		metrics.ObserveUnit(unit.Court.Identifier, "failed")
		return unitOutcome{kind: unitFailed}
	}
	o.ledger.MarkDone(unit.Court.Identifier, dateBS)
	metrics.ObserveUnit(unit.Court.Identifier, "committed")
	metrics.AddSightings(unit.Court.Identifier, len(result.Sightings))

	ulog.Info("Unit committed",
		zap.Int("sightings", len(result.Sightings)),
		zap.String("summary", result.Summary),
	)
	return unitOutcome{kind: unitCommitted, sightings: len(result.Sightings)}
}
