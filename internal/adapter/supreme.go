package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/calendar"
	"github.com/ngmonitor/courtharvest/internal/harvest"
	"github.com/ngmonitor/courtharvest/internal/normalize"
)

// Supreme harvests the Supreme Court weekly causelist report. One POST per
// date; the interesting table carries legacy attribute markup instead of
// classes, so discovery runs through a chain of fallback strategies.
type Supreme struct {
	fetcher harvest.Fetcher
	logger  *zap.Logger
	clock   harvest.Clock
	baseURL string
}

// NewSupreme builds the supreme court adapter.
func NewSupreme(fetcher harvest.Fetcher, logger *zap.Logger, clock harvest.Clock, baseURL string) *Supreme {
	return &Supreme{fetcher: fetcher, logger: logger, clock: clock, baseURL: baseURL}
}

// Category implements harvest.Adapter.
func (a *Supreme) Category() harvest.CourtCategory { return harvest.CategorySupreme }

// HarvestUnit fetches and parses the supreme court causelist for one date.
func (a *Supreme) HarvestUnit(ctx context.Context, court harvest.Court, date calendar.Date) (harvest.UnitResult, error) {
	dateBS := date.String()

	body, err := a.fetcher.PostForm(ctx,
		a.baseURL+"/lic/sys.php?d=reports&f=weekly_suppli_public",
		map[string]string{
			"syy":  fmt.Sprintf("%d", date.Year),
			"smm":  fmt.Sprintf("%02d", date.Month),
			"sdd":  fmt.Sprintf("%02d", date.Day),
			"mode": "show",
			"yo":   "1",
		},
		map[string]string{
			// The report endpoint rejects requests without same-site headers.
			"Referer":      a.baseURL + "/",
			"Origin":       a.baseURL,
			"Content-Type": "application/x-www-form-urlencoded",
		})
	if err != nil {
		return harvest.UnitResult{}, err
	}
	if harvest.IsWAFBlock(body) {
		return harvest.UnitResult{}, &harvest.BlockedError{CourtID: court.Identifier, DateBS: dateBS}
	}

	doc, err := parseHTML(body)
	if err != nil {
		return harvest.UnitResult{}, err
	}

	table := a.findCaseTable(doc)
	if table == nil {
		return harvest.UnitResult{Summary: "0 cases"}, nil
	}

	var sightings []harvest.Sighting
	table.Find(`tr[bgcolor="#ffffff"]`).Each(func(_ int, row *goquery.Selection) {
		if s, ok := a.parseRow(row, court, dateBS); ok {
			sightings = append(sightings, s)
		}
	})

	return harvest.UnitResult{
		Sightings: sightings,
		Summary:   fmt.Sprintf("%d cases", len(sightings)),
	}, nil
}

// findCaseTable locates the causelist table: first by its exact legacy
// attributes, then by the yellow header row's column captions, finally by
// the 10-column shape alone.
func (a *Supreme) findCaseTable(doc *goquery.Document) *goquery.Selection {
	table := doc.Find(`table[width="100%"][border="0"][cellspacing="0"][bordercolor="#ffffff"]`).First()
	if table.Length() > 0 && validCaseTable(table) {
		return table
	}

	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		header := t.Find(`tr[bgcolor="#FFCC00"]`).First()
		if header.Length() == 0 {
			return true
		}
		text := header.Text()
		if strings.Contains(text, "क्र") && strings.Contains(text, "मुद्दा नं") && strings.Contains(text, "पक्ष") {
			if validCaseTable(t) {
				found = t
				return false
			}
		}
		return true
	})
	if found != nil {
		return found
	}

	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		firstRow := t.Find("tr").First()
		if firstRow.Find("td,th").Length() == 10 && validCaseTable(t) {
			found = t
			return false
		}
		return true
	})
	return found
}

// validCaseTable requires a 10-column header and at least one more row.
func validCaseTable(table *goquery.Selection) bool {
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return false
	}
	return rows.First().Find("td,th").Length() == 10
}

// parseRow extracts one case row; rows whose party cell lacks the expected
// "पक्ष || विपक्ष" separator are logged and skipped rather than guessed at.
func (a *Supreme) parseRow(row *goquery.Selection, court harvest.Court, dateBS string) (harvest.Sighting, bool) {
	cells := row.Find("td")
	if cells.Length() < 10 {
		return harvest.Sighting{}, false
	}

	caseNumber := normalize.CaseNumber(cellText(cells.Eq(5)))
	if caseNumber == "" {
		return harvest.Sighting{}, false
	}

	parties := cellText(cells.Eq(6))
	plaintiff, defendant, ok := normalize.SplitParties(parties)
	if !ok {
		a.logger.Warn("Unexpected parties format, skipping row",
			zap.String("court", court.Identifier),
			zap.String("date_bs", dateBS),
			zap.String("case_number", caseNumber),
			zap.String("parties", parties),
		)
		return harvest.Sighting{}, false
	}

	regDateBS := normalize.Date(cellText(cells.Eq(2)))
	judgesCannotHear := strings.Join(cellLines(cells.Eq(7)), "\n")
	judgesMustHear := strings.Join(cellLines(cells.Eq(8)), "\n")

	c := &harvest.Case{
		CaseNumber:         caseNumber,
		CourtID:            court.Identifier,
		RegistrationDateBS: regDateBS,
		RegistrationDateAD: bsToAD(regDateBS),
		CaseType:           cellText(cells.Eq(4)),
		Division:           cleanDivision(cellText(cells.Eq(1))),
		Plaintiff:          plaintiff,
		Defendant:          defendant,
		Status:             harvest.StatusPending,
	}
	h := harvest.Hearing{
		CaseNumber: caseNumber,
		CourtID:    court.Identifier,
		DateBS:     dateBS,
		DateAD:     bsToAD(dateBS),
		BenchType:  cellText(cells.Eq(3)),
		JudgeNames: judgesMustHear,
		SerialNo:   normalize.ToASCIIDigits(cellText(cells.Eq(0))),
		Remarks:    cellText(cells.Eq(9)),
		CapturedAt: a.clock.Now(),
		Attributes: map[string]any{
			"judges_cannot_hear": judgesCannotHear,
			"judges_must_hear":   judgesMustHear,
		},
	}
	return harvest.Sighting{Case: c, Hearing: h}, true
}

// cleanDivision strips the decoration the report wraps division names in:
// "- निवेदन ४ _" becomes "निवेदन ४".
func cleanDivision(division string) string {
	division = strings.TrimPrefix(division, "- ")
	division = strings.TrimSuffix(division, " _")
	return strings.TrimSpace(division)
}
