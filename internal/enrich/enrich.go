// Package enrich implements the detail-page pass: cases discovered by the
// causelist harvest are looked up one by one on their court's case-detail
// endpoint and the extra fields, party entities and timelines merged back.
package enrich

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ngmonitor/courtharvest/internal/harvest"
	"github.com/ngmonitor/courtharvest/internal/metrics"
)

// ErrNotFound signals that the portal has no detail page for the case.
var ErrNotFound = errors.New("case detail not found")

// errBlocked marks a WAF rejection; the case simply stays pending.
var errBlocked = errors.New("request blocked by WAF")

// Enricher fetches and parses the detail page for one case.
type Enricher interface {
	CourtID() string
	FetchDetail(ctx context.Context, caseNumber string) (harvest.CaseDetail, error)
}

// Config holds the settings for an enrichment pass.
type Config struct {
	// BatchLimit caps how many pending cases one pass picks up.
	BatchLimit int
	// Concurrency is the number of cases enriched in parallel.
	Concurrency int
	// MarkNotFoundFailed records a 'failed' status for cases whose detail
	// page does not exist; when false they stay pending and are retried by
	// the next pass.
	MarkNotFoundFailed bool
}

// Stats summarizes a completed pass.
type Stats struct {
	Picked   int
	Enriched int
	// AlreadyEnriched counts cases a concurrent worker finished first.
	AlreadyEnriched int
	NotFound        int
	Failed          int
}

// Pass runs enrichment for one court.
type Pass struct {
	config   Config
	logger   *zap.Logger
	store    harvest.Store
	enricher Enricher
}

// NewPass wires an enrichment pass from its collaborators.
func NewPass(config Config, logger *zap.Logger, store harvest.Store, enricher Enricher) *Pass {
	if config.BatchLimit <= 0 {
		config.BatchLimit = 200
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	return &Pass{config: config, logger: logger, store: store, enricher: enricher}
}

// Run picks up pending cases, newest registration first, and enriches them.
// Individual failures never abort the pass; a case that cannot be resolved
// now is simply material for the next run.
func (p *Pass) Run(ctx context.Context) (Stats, error) {
	courtID := p.enricher.CourtID()
	log := p.logger.With(zap.String("court", courtID))

	pending, err := p.store.PendingCaseNumbers(ctx, courtID, p.config.BatchLimit)
	if err != nil {
		return Stats{}, err
	}
	if len(pending) == 0 {
		log.Info("No cases to enrich")
		return Stats{}, nil
	}
	log.Info("Enriching cases", zap.Int("pending", len(pending)))

	var stats Stats
	stats.Picked = len(pending)

	results := make([]func(*Stats), len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Concurrency)
	for i, caseNumber := range pending {
		i, caseNumber := i, caseNumber
		g.Go(func() error {
			results[i] = p.enrichCase(gctx, courtID, caseNumber, log)
			return nil
		})
	}
	_ = g.Wait()

	for _, apply := range results {
		if apply != nil {
			apply(&stats)
		}
	}

	log.Info("Enrichment pass finished",
		zap.Int("picked", stats.Picked),
		zap.Int("enriched", stats.Enriched),
		zap.Int("already_enriched", stats.AlreadyEnriched),
		zap.Int("not_found", stats.NotFound),
		zap.Int("failed", stats.Failed),
	)
	return stats, ctx.Err()
}

// enrichCase resolves one case and returns the stats delta to apply.
func (p *Pass) enrichCase(ctx context.Context, courtID, caseNumber string, log *zap.Logger) func(*Stats) {
	clog := log.With(zap.String("case_number", caseNumber))

	detail, err := p.enricher.FetchDetail(ctx, caseNumber)
	switch {
	case errors.Is(err, ErrNotFound):
		clog.Warn("Case detail not found")
		if p.config.MarkNotFoundFailed {
			if err := p.store.MarkEnrichmentFailed(ctx, courtID, caseNumber); err != nil {
				clog.Error("Failed to mark case failed", zap.Error(err))
			}
		}
		metrics.ObserveEnrichment(courtID, "not_found")
		return func(s *Stats) { s.NotFound++ }
	case errors.Is(err, errBlocked):
		clog.Warn("Enrichment request blocked, case stays pending")
		metrics.ObserveEnrichment(courtID, "blocked")
		return func(s *Stats) { s.Failed++ }
	case err != nil:
		clog.Warn("Enrichment fetch failed, case stays pending", zap.Error(err))
		metrics.ObserveEnrichment(courtID, "failed")
		return func(s *Stats) { s.Failed++ }
	}

	applied, err := p.store.ApplyEnrichment(ctx, courtID, caseNumber, detail)
	if err != nil {
		clog.Error("Failed to apply enrichment", zap.Error(err))
		metrics.ObserveEnrichment(courtID, "failed")
		return func(s *Stats) { s.Failed++ }
	}
	if !applied {
		clog.Debug("Case already enriched by another worker")
		metrics.ObserveEnrichment(courtID, "already_enriched")
		return func(s *Stats) { s.AlreadyEnriched++ }
	}
	clog.Info("Case enriched", zap.Int("entities", len(detail.Entities)))
	metrics.ObserveEnrichment(courtID, "enriched")
	return func(s *Stats) { s.Enriched++ }
}
