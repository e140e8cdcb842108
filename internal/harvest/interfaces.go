package harvest

import (
	"context"
	"time"

	"github.com/ngmonitor/courtharvest/internal/calendar"
)

// Fetcher issues the HTTP requests adapters need: plain GETs and the
// form-encoded POSTs the portals key by BS year/month/day.
type Fetcher interface {
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
	PostForm(ctx context.Context, url string, form, headers map[string]string) ([]byte, error)
}

// Adapter implements one court family's crawl state machine. HarvestUnit
// performs the full request cascade for a (court, date) unit and returns the
// extracted sightings. An empty result with a nil error is a completed
// zero-result observation and must still be checkpointed by the caller.
type Adapter interface {
	Category() CourtCategory
	HarvestUnit(ctx context.Context, court Court, date calendar.Date) (UnitResult, error)
}

// Store is the persistence boundary: case master records, hearings, party
// entities and the checkpoint ledger table.
type Store interface {
	// ScrapedDates returns every BS date already checkpointed for a court.
	ScrapedDates(ctx context.Context, courtID string) (map[string]struct{}, error)
	// CommitUnit applies all case upserts and hearing inserts for a unit and
	// marks the unit done, as one atomic transaction.
	CommitUnit(ctx context.Context, courtID, dateBS, summary string, sightings []Sighting) error
	// SeedCourts upserts the court registry.
	SeedCourts(ctx context.Context, courts []Court) error
	// PendingCaseNumbers lists cases awaiting enrichment for a court, newest
	// registration first.
	PendingCaseNumbers(ctx context.Context, courtID string, limit int) ([]string, error)
	// ApplyEnrichment merges detail fields, replaces the case's entities and
	// marks it enriched, atomically. It returns false without writing when a
	// concurrent worker already enriched the case (first committer wins).
	ApplyEnrichment(ctx context.Context, courtID, caseNumber string, detail CaseDetail) (bool, error)
	// MarkEnrichmentFailed records that a case's detail page could not be
	// resolved, if the caller distinguishes "not found" from "not yet tried".
	MarkEnrichmentFailed(ctx context.Context, courtID, caseNumber string) error
}

// Clock supplies the current time (swapped out in tests).
type Clock interface {
	Now() time.Time
}

// Downloader is the out-of-scope file pipeline collaborator: fire and forget,
// success or failure is logged by the implementation.
type Downloader interface {
	Download(ctx context.Context, url, filename string, metadata map[string]string)
}
