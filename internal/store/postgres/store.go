// Package postgres provides the Postgres-backed persistence boundary for the
// harvest engine: case upserts, hearing inserts, the checkpoint ledger and
// enrichment writes, all keyed by (case_number, court_identifier).
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ngmonitor/courtharvest/internal/harvest"
)

//go:embed schema.sql
var schema string

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// Pool is the subset of pgxpool.Pool the store needs; pgxmock implements it
// for tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store implements harvest.Store on Postgres.
type Store struct {
	pool Pool
}

// New connects a pool using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies the database is reachable, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ScrapedDates returns every checkpointed BS date for a court.
func (s *Store) ScrapedDates(ctx context.Context, courtID string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT date_bs FROM scraped_dates WHERE court_identifier = $1`, courtID)
	if err != nil {
		return nil, fmt.Errorf("query scraped dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[string]struct{})
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("scan scraped date: %w", err)
		}
		dates[date] = struct{}{}
	}
	return dates, rows.Err()
}

const upsertCaseSQL = `
	INSERT INTO court_cases (
		case_number, court_identifier,
		registration_date_bs, registration_date_ad,
		case_type, division, category, section, priority,
		plaintiff, defendant, original_case_number, case_id,
		status, extra_data
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (case_number, court_identifier) DO UPDATE SET
		registration_date_bs = COALESCE(NULLIF(EXCLUDED.registration_date_bs, ''), court_cases.registration_date_bs),
		registration_date_ad = COALESCE(EXCLUDED.registration_date_ad, court_cases.registration_date_ad),
		case_type            = COALESCE(NULLIF(EXCLUDED.case_type, ''), court_cases.case_type),
		division             = COALESCE(NULLIF(EXCLUDED.division, ''), court_cases.division),
		category             = COALESCE(NULLIF(EXCLUDED.category, ''), court_cases.category),
		section              = COALESCE(NULLIF(EXCLUDED.section, ''), court_cases.section),
		priority             = COALESCE(NULLIF(EXCLUDED.priority, ''), court_cases.priority),
		plaintiff            = COALESCE(NULLIF(EXCLUDED.plaintiff, ''), court_cases.plaintiff),
		defendant            = COALESCE(NULLIF(EXCLUDED.defendant, ''), court_cases.defendant),
		original_case_number = COALESCE(NULLIF(EXCLUDED.original_case_number, ''), court_cases.original_case_number),
		case_id              = COALESCE(NULLIF(EXCLUDED.case_id, ''), court_cases.case_id),
		extra_data           = COALESCE(court_cases.extra_data, '{}'::jsonb) || COALESCE(EXCLUDED.extra_data, '{}'::jsonb),
		updated_at           = NOW()
`

const insertHearingSQL = `
	INSERT INTO court_case_hearings (
		case_number, court_identifier,
		hearing_date_bs, hearing_date_ad,
		bench, bench_type, judge_names, lawyer_names,
		serial_no, case_status, decision_type, remarks,
		scraped_at, extra_data
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

const markDoneSQL = `
	INSERT INTO scraped_dates (court_identifier, date_bs, data)
	VALUES ($1, $2, $3)
	ON CONFLICT (court_identifier, date_bs) DO NOTHING
`

// CommitUnit writes all rows of one (court, date) unit and its checkpoint in
// a single transaction; a unit is either fully observed or not at all. The
// case upsert merges field-by-field, never replacing a known value with an
// empty one, and never touching the enrichment status of an existing row.
func (s *Store) CommitUnit(ctx context.Context, courtID, dateBS, summary string, sightings []harvest.Sighting) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin commit unit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i := range sightings {
		sighting := &sightings[i]
		if c := sighting.Case; c != nil {
			attrs, err := marshalAttributes(c.Attributes)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, upsertCaseSQL,
				c.CaseNumber, c.CourtID,
				c.RegistrationDateBS, c.RegistrationDateAD,
				c.CaseType, c.Division, c.Category, c.Section, c.Priority,
				c.Plaintiff, c.Defendant, c.OriginalCaseNumber, c.InternalID,
				string(c.Status), attrs,
			); err != nil {
				return fmt.Errorf("upsert case %s: %w", c.CaseNumber, err)
			}
		}

		h := &sighting.Hearing
		attrs, err := marshalAttributes(h.Attributes)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertHearingSQL,
			h.CaseNumber, h.CourtID,
			h.DateBS, h.DateAD,
			h.Bench, h.BenchType, h.JudgeNames, h.LawyerNames,
			h.SerialNo, h.CaseStatus, h.DecisionType, h.Remarks,
			h.CapturedAt, attrs,
		); err != nil {
			return fmt.Errorf("insert hearing %s/%s: %w", h.CaseNumber, h.DateBS, err)
		}
	}

	if _, err := tx.Exec(ctx, markDoneSQL, courtID, dateBS, summary); err != nil {
		return fmt.Errorf("mark date scraped %s/%s: %w", courtID, dateBS, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit unit %s/%s: %w", courtID, dateBS, err)
	}
	return nil
}

const seedCourtSQL = `
	INSERT INTO courts (identifier, court_type, full_name_nepali, full_name_english, portal_id)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (identifier) DO UPDATE SET
		court_type        = EXCLUDED.court_type,
		full_name_nepali  = EXCLUDED.full_name_nepali,
		full_name_english = EXCLUDED.full_name_english,
		portal_id         = EXCLUDED.portal_id,
		updated_at        = NOW()
`

// SeedCourts upserts the court registry.
func (s *Store) SeedCourts(ctx context.Context, courts []harvest.Court) error {
	for _, c := range courts {
		if _, err := s.pool.Exec(ctx, seedCourtSQL,
			c.Identifier, string(c.Category), c.NameLocal, c.NameEnglish, c.PortalID,
		); err != nil {
			return fmt.Errorf("seed court %s: %w", c.Identifier, err)
		}
	}
	return nil
}

// PendingCaseNumbers lists cases awaiting enrichment for a court, newest
// registration first so fresh cases get detail pages before the backlog.
func (s *Store) PendingCaseNumbers(ctx context.Context, courtID string, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT case_number FROM court_cases
		WHERE court_identifier = $1 AND (status = 'pending' OR status IS NULL)
		ORDER BY registration_date_ad DESC NULLS LAST
		LIMIT $2`, courtID, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending cases: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan pending case: %w", err)
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

const applyEnrichmentSQL = `
	UPDATE court_cases SET
		registration_number  = COALESCE(NULLIF($3, ''), registration_number),
		registration_date_bs = COALESCE(NULLIF($4, ''), registration_date_bs),
		registration_date_ad = COALESCE($5, registration_date_ad),
		case_type            = COALESCE(NULLIF($6, ''), case_type),
		category             = COALESCE(NULLIF($7, ''), category),
		division             = COALESCE(NULLIF($8, ''), division),
		case_status          = COALESCE(NULLIF($9, ''), case_status),
		verdict_date_bs      = COALESCE(NULLIF($10, ''), verdict_date_bs),
		verdict_date_ad      = COALESCE($11, verdict_date_ad),
		verdict_judge        = COALESCE(NULLIF($12, ''), verdict_judge),
		extra_data           = COALESCE(extra_data, '{}'::jsonb) || COALESCE($13, '{}'::jsonb),
		status               = 'enriched',
		updated_at           = NOW()
	WHERE case_number = $1 AND court_identifier = $2
`

// ApplyEnrichment merges a detail page into the case row, replaces its party
// entities and marks it enriched, atomically. The status re-check under the
// row lock makes concurrent enrichers first-committer-wins: the second one
// sees 'enriched' and backs off without writing.
func (s *Store) ApplyEnrichment(ctx context.Context, courtID, caseNumber string, detail harvest.CaseDetail) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin enrichment: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status *string
	err = tx.QueryRow(ctx, `
		SELECT status FROM court_cases
		WHERE case_number = $1 AND court_identifier = $2
		FOR UPDATE`, caseNumber, courtID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("case %s/%s not found", courtID, caseNumber)
	}
	if err != nil {
		return false, fmt.Errorf("lock case row: %w", err)
	}
	if status != nil && *status == string(harvest.StatusEnriched) {
		return false, nil
	}

	attrs, err := marshalAttributes(detail.Attributes)
	if err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx, applyEnrichmentSQL,
		caseNumber, courtID,
		detail.RegistrationNumber,
		detail.RegistrationDateBS, detail.RegistrationDateAD,
		detail.CaseType, detail.Category, detail.Division, detail.CaseStatus,
		detail.VerdictDateBS, detail.VerdictDateAD, detail.VerdictJudge,
		attrs,
	); err != nil {
		return false, fmt.Errorf("update case %s: %w", caseNumber, err)
	}

	// Entities are replaced wholesale: re-enrichment must not duplicate.
	if _, err := tx.Exec(ctx,
		`DELETE FROM court_case_entities WHERE case_number = $1 AND court_identifier = $2`,
		caseNumber, courtID,
	); err != nil {
		return false, fmt.Errorf("clear entities: %w", err)
	}
	for _, e := range detail.Entities {
		if _, err := tx.Exec(ctx, `
			INSERT INTO court_case_entities (case_number, court_identifier, side, name, address, nes_id)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`,
			caseNumber, courtID, e.Side, e.Name, e.Address, e.ExternalID,
		); err != nil {
			return false, fmt.Errorf("insert entity %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit enrichment %s: %w", caseNumber, err)
	}
	return true, nil
}

// MarkEnrichmentFailed records that a case's detail page could not be
// resolved, without ever downgrading an enriched row.
func (s *Store) MarkEnrichmentFailed(ctx context.Context, courtID, caseNumber string) error {
	if _, err := s.pool.Exec(ctx, `
		UPDATE court_cases SET status = 'failed', updated_at = NOW()
		WHERE case_number = $1 AND court_identifier = $2 AND (status IS NULL OR status <> 'enriched')`,
		caseNumber, courtID,
	); err != nil {
		return fmt.Errorf("mark enrichment failed %s: %w", caseNumber, err)
	}
	return nil
}

// marshalAttributes encodes an attribute bag for a JSONB column; nil for an
// empty bag so the column stays NULL.
func marshalAttributes(attrs map[string]any) ([]byte, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}
	return b, nil
}
