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

// District harvests daily causelists from the 70-odd district court portals.
// One POST per (court, date); the response carries one table per bench with
// the bench heading in the preceding sibling table.
type District struct {
	fetcher harvest.Fetcher
	logger  *zap.Logger
	clock   harvest.Clock
	baseURL string
}

// NewDistrict builds the district court adapter.
func NewDistrict(fetcher harvest.Fetcher, logger *zap.Logger, clock harvest.Clock, baseURL string) *District {
	return &District{fetcher: fetcher, logger: logger, clock: clock, baseURL: baseURL}
}

// Category implements harvest.Adapter.
func (a *District) Category() harvest.CourtCategory { return harvest.CategoryDistrict }

// HarvestUnit fetches and parses one district court's causelist for one date.
func (a *District) HarvestUnit(ctx context.Context, court harvest.Court, date calendar.Date) (harvest.UnitResult, error) {
	url := fmt.Sprintf("%s/weekly_dainik/pesi/daily/%d", a.baseURL, court.PortalID)

	today, err := calendar.FromGregorian(a.clock.Now())
	if err != nil {
		return harvest.UnitResult{}, fmt.Errorf("converting today to BS: %w", err)
	}

	body, err := a.fetcher.PostForm(ctx, url, map[string]string{
		"todays_date": today.String(),
		"pesi_date":   date.String(),
		"submit":      "खोज्नु होस्",
	}, nil)
	if err != nil {
		return harvest.UnitResult{}, err
	}
	if harvest.IsWAFBlock(body) {
		return harvest.UnitResult{}, &harvest.BlockedError{CourtID: court.Identifier, DateBS: date.String()}
	}

	doc, err := parseHTML(body)
	if err != nil {
		return harvest.UnitResult{}, err
	}

	// The portal reports an empty day through an error banner, not an empty
	// table. That is a real zero-result observation.
	if strings.Contains(doc.Find("div.alert_error").Text(), "Causelist is not available") {
		return harvest.UnitResult{Summary: "0 cases"}, nil
	}

	tables := doc.Find(`table.record_display[border="1"]`)
	if tables.Length() == 0 {
		return harvest.UnitResult{Summary: "0 cases"}, nil
	}

	var sightings []harvest.Sighting
	tables.Each(func(_ int, table *goquery.Selection) {
		bench, judge := a.benchHeading(table)
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if s, ok := a.parseRow(row, court, date, bench, judge); ok {
				sightings = append(sightings, s)
			}
		})
	})

	return harvest.UnitResult{
		Sightings: sightings,
		Summary:   fmt.Sprintf("%d cases", len(sightings)),
	}, nil
}

// benchHeading reads the bench name and judge from the sibling table that
// precedes each causelist table.
func (a *District) benchHeading(table *goquery.Selection) (bench, judge string) {
	heading := table.PrevAllFiltered("table").First()
	if heading.Length() == 0 {
		return "", ""
	}
	bench = cellText(heading.Find(`td[align="right"]`).First())
	judge = cellText(heading.Find("td.judge").First())
	return bench, judge
}

// parseRow extracts one causelist row. Rows that are not case rows are
// skipped through explicit branches so each layout quirk stays visible.
func (a *District) parseRow(row *goquery.Selection, court harvest.Court, date calendar.Date, bench, judge string) (harvest.Sighting, bool) {
	// Header rows use <th>, never case data.
	if row.Find("th").Length() > 0 {
		return harvest.Sighting{}, false
	}

	cells := row.Find("td")
	switch {
	case cells.Length() >= 10:
		// A case row; parsed below.
	case cells.Length() == 1 && strings.Contains(cells.Text(), "इजलास अधिकृत"):
		// Bench officer footer row.
		return harvest.Sighting{}, false
	default:
		// Spacer or sub-header row with too few cells.
		return harvest.Sighting{}, false
	}

	// The case number cell stacks the number over the court-internal id:
	// "०८१-C१-०१३६<br>(३५-०८१-००७१३)".
	caseParts := cellLines(cells.Eq(1))
	if len(caseParts) == 0 {
		return harvest.Sighting{}, false
	}
	caseNumber := normalize.ToASCIIDigits(caseParts[0])
	if caseNumber == "" {
		return harvest.Sighting{}, false
	}
	internalID := ""
	if len(caseParts) > 1 {
		internalID = normalize.ToASCIIDigits(strings.Trim(caseParts[1], "()"))
	}

	// The registration cell may stack a route annotation under the date.
	regParts := cellLines(cells.Eq(2))
	regDateBS := ""
	if len(regParts) > 0 {
		regDateBS = normalize.Date(regParts[0])
	}

	dateBS := date.String()
	c := &harvest.Case{
		CaseNumber:         caseNumber,
		CourtID:            court.Identifier,
		RegistrationDateBS: regDateBS,
		RegistrationDateAD: bsToAD(regDateBS),
		CaseType:           cellText(cells.Eq(3)),
		Plaintiff:          cellText(cells.Eq(4)),
		Defendant:          cellText(cells.Eq(5)),
		Section:            cellText(cells.Eq(6)),
		Priority:           cellText(cells.Eq(7)),
		InternalID:         internalID,
		Status:             harvest.StatusPending,
	}
	h := harvest.Hearing{
		CaseNumber:   caseNumber,
		CourtID:      court.Identifier,
		DateBS:       dateBS,
		DateAD:       bsToAD(dateBS),
		Bench:        bench,
		JudgeNames:   judge,
		SerialNo:     normalize.ToASCIIDigits(cellText(cells.Eq(0))),
		Remarks:      cellText(cells.Eq(8)),
		DecisionType: cellText(cells.Eq(9)),
		CapturedAt:   a.clock.Now(),
	}
	return harvest.Sighting{Case: c, Hearing: h}, true
}
