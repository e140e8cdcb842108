package harvest

import (
	"time"

	"github.com/ngmonitor/courtharvest/internal/calendar"
)

// CourtCategory selects the source adapter for a court.
type CourtCategory string

// Court categories, one per adapter family.
const (
	CategoryDistrict CourtCategory = "district"
	CategoryHigh     CourtCategory = "high"
	CategorySupreme  CourtCategory = "supreme"
	CategorySpecial  CourtCategory = "special"
)

// Court is a harvest source. Seeded once, read-only to the engine.
type Court struct {
	Identifier  string
	Category    CourtCategory
	NameLocal   string
	NameEnglish string
	// PortalID is the numeric id district courts are addressed by on the
	// portal; zero for the other categories.
	PortalID int
}

// EnrichmentStatus tracks whether a case's detail page has been scraped.
type EnrichmentStatus string

// Enrichment states stored on the case master record.
const (
	StatusPending  EnrichmentStatus = "pending"
	StatusEnriched EnrichmentStatus = "enriched"
	StatusFailed   EnrichmentStatus = "failed"
)

// Case is the master record, uniquely identified by (CaseNumber, CourtID).
// Repeated sightings merge into the same record; the store-level upsert is
// the final arbiter of identity.
//
// Attribute-bag keys by category: district uses none today; high stores
// footer text; supreme stores enrichment_hearings/enrichment_timeline;
// special stores enrichment_pesi_tarekh, enrichment_sadharan_tarekh,
// enrichment_related_cases and advocate fields.
type Case struct {
	CaseNumber string
	CourtID    string

	RegistrationDateBS string
	RegistrationDateAD *time.Time

	CaseType string
	Division string
	Category string
	Section  string
	Priority string

	Plaintiff string
	Defendant string

	OriginalCaseNumber string
	InternalID         string

	Status     EnrichmentStatus
	Attributes map[string]any
}

// Hearing is one appearance of a case in a daily causelist. Append-only:
// created once per (case, date) sighting, never updated or merged.
//
// Attribute-bag keys by category: high stores bench_id, bench_no, judges
// (structured list), lawyers and footer; supreme stores judges_cannot_hear
// and judges_must_hear; special stores bench_label, court_number and footer.
type Hearing struct {
	CaseNumber string
	CourtID    string

	DateBS string
	DateAD *time.Time

	Bench     string
	BenchType string

	JudgeNames  string
	LawyerNames string

	SerialNo     string
	CaseStatus   string
	DecisionType string
	Remarks      string

	CapturedAt time.Time
	Attributes map[string]any
}

// CaseEntity is a party record produced by the enrichment pass. Re-enriching
// a case replaces all of its prior entities.
type CaseEntity struct {
	CaseNumber string
	CourtID    string
	Side       string // "plaintiff" or "defendant"
	Name       string
	Address    string
	ExternalID string
}

// Entity sides.
const (
	SidePlaintiff = "plaintiff"
	SideDefendant = "defendant"
)

// Sighting pairs a case delta with the hearing that produced it.
type Sighting struct {
	Case    *Case
	Hearing Hearing
}

// UnitResult is what an adapter returns for one (court, date) unit. An empty
// Sightings slice is a completed zero-result observation, not an error.
type UnitResult struct {
	Sightings []Sighting
	Summary   string
}

// Unit is one cell of the harvest work grid.
type Unit struct {
	Court  Court
	DateBS calendar.Date
}

// CaseDetail carries everything the enrichment pass extracts from a case
// detail page. Zero-valued scalar fields mean "not present on the page" and
// leave the stored value untouched.
type CaseDetail struct {
	RegistrationNumber string
	RegistrationDateBS string
	RegistrationDateAD *time.Time

	CaseType   string
	Category   string
	Division   string
	CaseStatus string

	VerdictDateBS string
	VerdictDateAD *time.Time
	VerdictJudge  string

	Attributes map[string]any
	Entities   []CaseEntity
}
