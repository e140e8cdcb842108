package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ngmonitor/courtharvest/internal/calendar"
	"github.com/ngmonitor/courtharvest/internal/harvest"
	"github.com/ngmonitor/courtharvest/internal/normalize"
)

// Bench rows carry their POST parameters in an onclick handler:
// send_data('260823', '२', '20820904').
var sendDataRe = regexp.MustCompile(`send_data\('(\d+)',\s*'([^']+)',\s*'(\d+)'\)`)

// High harvests the 18 high court portals. Each (court, date) unit is a
// two-stage cascade: a bench list page, then one causelist POST per bench.
// All benches of a unit must succeed before it counts as observed.
type High struct {
	fetcher harvest.Fetcher
	logger  *zap.Logger
	clock   harvest.Clock
	baseURL string
	// benchParallelism caps concurrent per-bench requests within a unit.
	benchParallelism int
}

// NewHigh builds the high court adapter.
func NewHigh(fetcher harvest.Fetcher, logger *zap.Logger, clock harvest.Clock, baseURL string) *High {
	return &High{
		fetcher:          fetcher,
		logger:           logger,
		clock:            clock,
		baseURL:          baseURL,
		benchParallelism: 2,
	}
}

// Category implements harvest.Adapter.
func (a *High) Category() harvest.CourtCategory { return harvest.CategoryHigh }

type highBench struct {
	id    string
	no    string
	judge string
}

// HarvestUnit fetches the bench list for one date, then fans out to every
// bench's causelist and gathers the results behind a single barrier.
func (a *High) HarvestUnit(ctx context.Context, court harvest.Court, date calendar.Date) (harvest.UnitResult, error) {
	dateBS := date.String()
	listURL := fmt.Sprintf("%s/court/%s/bench_list?pesi_date=%04d%%2F%02d%%2F%02d",
		a.baseURL, court.Identifier, date.Year, date.Month, date.Day)

	body, err := a.fetcher.Get(ctx, listURL, nil)
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

	benches := a.parseBenchList(doc)
	if len(benches) == 0 {
		return harvest.UnitResult{Summary: "0 benches"}, nil
	}

	// One failed bench fails the whole unit: a partial day must not be
	// checkpointed as complete.
	results := make([][]harvest.Sighting, len(benches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.benchParallelism)
	for i, bench := range benches {
		i, bench := i, bench
		g.Go(func() error {
			sightings, err := a.harvestBench(gctx, court, date, bench)
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

func (a *High) parseBenchList(doc *goquery.Document) []highBench {
	table := doc.Find("table.table.table-striped.table-bordered.table-hover").First()
	if table.Length() == 0 {
		return nil
	}

	var benches []highBench
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		// Totals row at the bottom of the bench list.
		if strings.Contains(row.Text(), "जम्माः") {
			return
		}
		onclick, _ := row.Attr("onclick")
		m := sendDataRe.FindStringSubmatch(onclick)
		if m == nil {
			return
		}
		benches = append(benches, highBench{
			id:    m[1],
			no:    m[2],
			judge: cellText(row.Find("td").Eq(1)),
		})
	})
	return benches
}

// harvestBench fetches and parses one bench's causelist.
func (a *High) harvestBench(ctx context.Context, court harvest.Court, date calendar.Date, bench highBench) ([]harvest.Sighting, error) {
	dateBS := date.String()
	body, err := a.fetcher.PostForm(ctx,
		fmt.Sprintf("%s/court/%s/cause_list_detail", a.baseURL, court.Identifier),
		map[string]string{
			"bench_id":     bench.id,
			"bench_no":     bench.no,
			"hearing_date": fmt.Sprintf("%04d%02d%02d", date.Year, date.Month, date.Day),
		}, nil)
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

	benchType := ""
	doc.Find("h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.Contains(h.Text(), "इजलास") {
			benchType = cellText(h)
			return false
		}
		return true
	})

	var footerParts []string
	doc.Find("h5").Each(func(_ int, h *goquery.Selection) {
		footerParts = append(footerParts, cellText(h))
	})
	footer := strings.Join(footerParts, " | ")

	table := doc.Find("table.table.table-bordered.table-hover").First()
	if table.Length() == 0 {
		a.logger.Warn("No case table on bench page",
			zap.String("court", court.Identifier),
			zap.String("date_bs", dateBS),
			zap.String("bench_no", bench.no),
		)
		return nil, nil
	}

	judges := normalize.Judges(bench.judge)

	var sightings []harvest.Sighting
	table.Find("tbody tr.data_row").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 9 {
			return
		}

		caseNumber := normalize.CaseNumber(strings.Join(cellLines(cells.Eq(4)), " "))
		if caseNumber == "" {
			return
		}

		regDateBS := normalize.Date(cellText(cells.Eq(2)))

		// पक्ष || विपक्ष. Rows lacking the separator keep the whole text as
		// the plaintiff; high court entries sometimes name only one side.
		plaintiff, defendant, _ := normalize.SplitParties(cellText(cells.Eq(5)))

		attrs := map[string]any{
			"bench_id": bench.id,
			"bench_no": normalize.ToASCIIDigits(bench.no),
			"footer":   footer,
		}
		if len(judges) > 0 {
			attrs["judges"] = judges
		}

		lawyerNames := ""
		if pl, dl, present := normalize.Lawyers(cellText(cells.Eq(6))); present {
			if dl != "" {
				lawyerNames = pl + " || " + dl
				attrs["lawyers"] = map[string]string{
					"plaintiff_lawyers": pl,
					"defendant_lawyers": dl,
				}
			} else {
				lawyerNames = pl
			}
		}

		status := strings.Join(cellLines(cells.Eq(8)), "\n")

		c := &harvest.Case{
			CaseNumber:         caseNumber,
			CourtID:            court.Identifier,
			RegistrationDateBS: regDateBS,
			RegistrationDateAD: bsToAD(regDateBS),
			CaseType:           cellText(cells.Eq(3)),
			Division:           cellText(cells.Eq(1)),
			Plaintiff:          plaintiff,
			Defendant:          defendant,
			Status:             harvest.StatusPending,
		}
		h := harvest.Hearing{
			CaseNumber:  caseNumber,
			CourtID:     court.Identifier,
			DateBS:      dateBS,
			DateAD:      bsToAD(dateBS),
			Bench:       normalize.ToASCIIDigits(bench.no),
			BenchType:   benchType,
			JudgeNames:  strings.Join(judges, "\n"),
			LawyerNames: lawyerNames,
			SerialNo:    normalize.ToASCIIDigits(cellText(cells.Eq(0))),
			CaseStatus:  status,
			Remarks:     cellText(cells.Eq(7)),
			CapturedAt:  a.clock.Now(),
			Attributes:  attrs,
		}
		sightings = append(sightings, harvest.Sighting{Case: c, Hearing: h})
	})
	return sightings, nil
}
