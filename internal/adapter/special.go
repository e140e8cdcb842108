package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ngmonitor/courtharvest/internal/calendar"
	"github.com/ngmonitor/courtharvest/internal/harvest"
	"github.com/ngmonitor/courtharvest/internal/normalize"
)

// Special harvests the Special Court daily report. Stage one posts
// mode=showbench to enumerate the date's bench types; stage two posts
// mode=show once per bench. A unit is complete only when every bench page
// has been parsed.
type Special struct {
	fetcher harvest.Fetcher
	logger  *zap.Logger
	clock   harvest.Clock
	baseURL string
	// benchParallelism caps concurrent per-bench requests within a unit.
	benchParallelism int
}

// NewSpecial builds the special court adapter.
func NewSpecial(fetcher harvest.Fetcher, logger *zap.Logger, clock harvest.Clock, baseURL string) *Special {
	return &Special{
		fetcher:          fetcher,
		logger:           logger,
		clock:            clock,
		baseURL:          baseURL,
		benchParallelism: 2,
	}
}

// Category implements harvest.Adapter.
func (a *Special) Category() harvest.CourtCategory { return harvest.CategorySpecial }

type specialBench struct {
	value string
	label string
}

func (a *Special) reportURL() string {
	return a.baseURL + "/special/syspublic.php?d=reports&f=daily_public"
}

// HarvestUnit enumerates bench types for the date, then fans out one request
// per bench and gathers all results behind a single barrier.
func (a *Special) HarvestUnit(ctx context.Context, court harvest.Court, date calendar.Date) (harvest.UnitResult, error) {
	dateBS := date.String()
	dateForm := map[string]string{
		"syy": fmt.Sprintf("%d", date.Year),
		"smm": fmt.Sprintf("%02d", date.Month),
		"sdd": fmt.Sprintf("%02d", date.Day),
	}

	form := map[string]string{"mode": "showbench"}
	for k, v := range dateForm {
		form[k] = v
	}
	body, err := a.fetcher.PostForm(ctx, a.reportURL(), form, nil)
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

	benches, yoValue := a.parseBenchForm(doc)
	if len(benches) == 0 {
		return harvest.UnitResult{Summary: "0 benches"}, nil
	}

	// One failed bench fails the whole unit so a partial day is never
	// checkpointed as complete.
	results := make([][]harvest.Sighting, len(benches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.benchParallelism)
	for i, bench := range benches {
		i, bench := i, bench
		g.Go(func() error {
			showForm := map[string]string{
				"mode":       "show",
				"bench_type": bench.value,
				"yo":         yoValue,
			}
			for k, v := range dateForm {
				showForm[k] = v
			}
			sightings, err := a.harvestBench(gctx, court, dateBS, bench, showForm)
			if err != nil {
				return err
			}
			results[i] = sightings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return harvest.UnitResult{}, err
	}

	var sightings []harvest.Sighting
	for _, r := range results {
		sightings = append(sightings, r...)
	}
	return harvest.UnitResult{
		Sightings: sightings,
		Summary:   fmt.Sprintf("%d benches", len(benches)),
	}, nil
}

// parseBenchForm extracts the bench type options and the hidden yo token the
// stage-two POST must echo back.
func (a *Special) parseBenchForm(doc *goquery.Document) ([]specialBench, string) {
	sel := doc.Find(`select[name="bench_type"]`).First()
	if sel.Length() == 0 {
		return nil, ""
	}

	var benches []specialBench
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		value, _ := opt.Attr("value")
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		benches = append(benches, specialBench{
			value: value,
			label: normalize.Whitespace(opt.Text()),
		})
	})

	yoValue := "1"
	if yo, ok := doc.Find(`input[type="hidden"][name="yo"]`).First().Attr("value"); ok && yo != "" {
		yoValue = yo
	}
	return benches, yoValue
}

// harvestBench fetches and parses one bench's report page.
func (a *Special) harvestBench(ctx context.Context, court harvest.Court, dateBS string, bench specialBench, form map[string]string) ([]harvest.Sighting, error) {
	body, err := a.fetcher.PostForm(ctx, a.reportURL(), form, nil)
	if err != nil {
		return nil, err
	}
	if harvest.IsWAFBlock(body) {
		return nil, &harvest.BlockedError{CourtID: court.Identifier, DateBS: dateBS}
	}

	doc, err := parseHTML(body)
	if err != nil {
		return nil, err
	}

	courtNumber := ""
	doc.Find("font").EachWithBreak(func(_ int, f *goquery.Selection) bool {
		text := f.Text()
		if strings.Contains(text, "इजलास") && strings.Contains(text, "नं") {
			courtNumber = normalize.Whitespace(text)
			return false
		}
		return true
	})

	judges := a.parseJudges(doc)

	footer := ""
	footerTables := doc.Find(`table[width="100%"][border="0"]`)
	if footerTables.Length() > 0 {
		footer = normalize.Whitespace(footerTables.Last().Text())
	}

	table := doc.Find(`table[width="100%"][border="1"]`).First()
	if table.Length() == 0 {
		a.logger.Warn("No case table on bench page",
			zap.String("court", court.Identifier),
			zap.String("date_bs", dateBS),
			zap.String("bench_type", bench.value),
		)
		return nil, nil
	}

	var sightings []harvest.Sighting
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		if s, ok := a.parseRow(row, court, dateBS, bench, courtNumber, judges, footer); ok {
			sightings = append(sightings, s)
		}
	})
	return sightings, nil
}

// parseJudges finds the bench composition block; the chairman and member
// lines live in a <font size="2"> inside one td, separated by <br>.
func (a *Special) parseJudges(doc *goquery.Document) string {
	judges := ""
	doc.Find(`font[size="2"]`).EachWithBreak(func(_ int, f *goquery.Selection) bool {
		text := f.Text()
		if !strings.Contains(text, "अध्यक्ष माननीय न्यायाधीश") && !strings.Contains(text, "सदस्य माननीय न्यायाधीश") {
			return true
		}
		td := f.ParentsFiltered("td").First()
		if td.Length() == 0 {
			return true
		}
		judges = strings.Join(cellLines(td), "\n")
		return false
	})
	return judges
}

func (a *Special) parseRow(row *goquery.Selection, court harvest.Court, dateBS string, bench specialBench, courtNumber, judges, footer string) (harvest.Sighting, bool) {
	cells := row.Find("td")
	if cells.Length() < 11 {
		return harvest.Sighting{}, false
	}

	caseNumber := cellText(cells.Eq(4))
	if caseNumber == "" {
		return harvest.Sighting{}, false
	}

	regDateBS := normalize.Date(cellText(cells.Eq(2)))

	c := &harvest.Case{
		CaseNumber:         caseNumber,
		CourtID:            court.Identifier,
		RegistrationDateBS: regDateBS,
		RegistrationDateAD: bsToAD(regDateBS),
		CaseType:           cellText(cells.Eq(3)),
		Category:           cellText(cells.Eq(1)),
		Plaintiff:          cellText(cells.Eq(5)),
		Defendant:          cellText(cells.Eq(6)),
		OriginalCaseNumber: normalize.ParenSpacing(cellText(cells.Eq(7))),
		Status:             harvest.StatusPending,
	}
	h := harvest.Hearing{
		CaseNumber:   caseNumber,
		CourtID:      court.Identifier,
		DateBS:       dateBS,
		DateAD:       bsToAD(dateBS),
		BenchType:    bench.value,
		JudgeNames:   judges,
		SerialNo:     normalize.ToASCIIDigits(cellText(cells.Eq(0))),
		CaseStatus:   cellText(cells.Eq(9)),
		DecisionType: cellText(cells.Eq(10)),
		Remarks:      cellText(cells.Eq(8)),
		CapturedAt:   a.clock.Now(),
		Attributes: map[string]any{
			"bench_label":  bench.label,
			"court_number": courtNumber,
			"footer":       footer,
		},
	}
	return harvest.Sighting{Case: c, Hearing: h}, true
}
