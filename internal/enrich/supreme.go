package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/harvest"
	"github.com/ngmonitor/courtharvest/internal/normalize"
)

// verdictDateSentinel is what the supreme detail page prints when a case has
// no verdict yet.
const verdictDateSentinel = "**** ** **"

// Supreme enriches supreme court cases. The portal needs two requests per
// case: a search by registration number that yields a link carrying the
// internal caseno, then the detail page addressed by that caseno.
type Supreme struct {
	fetcher harvest.Fetcher
	logger  *zap.Logger
	courtID string
	baseURL string
}

// NewSupreme builds the supreme court enricher.
func NewSupreme(fetcher harvest.Fetcher, logger *zap.Logger, courtID, baseURL string) *Supreme {
	return &Supreme{fetcher: fetcher, logger: logger, courtID: courtID, baseURL: baseURL}
}

func (s *Supreme) CourtID() string { return s.courtID }

func (s *Supreme) searchURL() string {
	return s.baseURL + "/lic/sys.php?d=reports&f=case_details"
}

// FetchDetail resolves caseNumber to its internal caseno and parses the
// detail page into a CaseDetail.
func (s *Supreme) FetchDetail(ctx context.Context, caseNumber string) (harvest.CaseDetail, error) {
	form := map[string]string{
		"syy": "", "smm": "", "sdd": "",
		"tyy": "", "tmm": "", "tdd": "",
		"mode":  "show",
		"list":  "list",
		"regno": caseNumber,
	}
	body, err := s.fetcher.PostForm(ctx, s.searchURL(), form, nil)
	if err != nil {
		return harvest.CaseDetail{}, fmt.Errorf("search case %s: %w", caseNumber, err)
	}
	doc, err := checkedParse(body)
	if err != nil {
		return harvest.CaseDetail{}, err
	}

	caseno, err := extractCaseno(doc)
	if err != nil {
		return harvest.CaseDetail{}, err
	}

	detailURL := fmt.Sprintf("%s/lic/sys.php?d=reports&f=case_details&num=1&mode=view&caseno=%s", s.baseURL, caseno)
	body, err = s.fetcher.Get(ctx, detailURL, nil)
	if err != nil {
		return harvest.CaseDetail{}, fmt.Errorf("fetch detail for case %s: %w", caseNumber, err)
	}
	doc, err = checkedParse(body)
	if err != nil {
		return harvest.CaseDetail{}, err
	}
	return s.parseDetail(doc)
}

// extractCaseno finds the detail link on the search results and pulls the
// caseno query parameter out of it.
func extractCaseno(doc *goquery.Document) (string, error) {
	var caseno string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "mode=view") || !strings.Contains(href, "caseno=") {
			return true
		}
		u, err := url.Parse(href)
		if err != nil {
			return true
		}
		caseno = u.Query().Get("caseno")
		return caseno == ""
	})
	if caseno == "" {
		return "", ErrNotFound
	}
	return caseno, nil
}

func (s *Supreme) parseDetail(doc *goquery.Document) (harvest.CaseDetail, error) {
	info := doc.Find("table.table-hover").First()
	if info.Length() == 0 {
		return harvest.CaseDetail{}, ErrNotFound
	}

	detail := harvest.CaseDetail{Attributes: map[string]any{}}

	// The basic info table lays out two label/value pairs per four-cell row
	// and one pair per two-cell row.
	info.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td, th")
		switch cells.Length() {
		case 4:
			s.applyField(&detail, labelText(cells.Eq(0)), cells.Eq(1))
			s.applyField(&detail, labelText(cells.Eq(2)), cells.Eq(3))
		case 2:
			s.applyField(&detail, labelText(cells.Eq(0)), cells.Eq(1))
		}
	})

	if hearings := parseHeaderedTable(doc, []string{"सुनवाइ मिती", "न्यायाधीश"}, supremeHearingRow); len(hearings) > 0 {
		detail.Attributes["enrichment_hearings"] = hearings
	}
	if timeline := parseHeaderedTable(doc, []string{"तारेख मिती", "विवरण"}, supremeTimelineRow); len(timeline) > 0 {
		detail.Attributes["enrichment_timeline"] = timeline
	}
	if len(detail.Attributes) == 0 {
		detail.Attributes = nil
	}
	return detail, nil
}

// applyField routes one label/value pair into the detail struct. The portal
// is inconsistent about label spelling across case vintages, so each field
// accepts every variant seen in the wild.
func (s *Supreme) applyField(detail *harvest.CaseDetail, label string, valueCell *goquery.Selection) {
	value := cellText(valueCell)
	if label == "" || value == "" {
		return
	}
	switch label {
	case "दर्ता नँ", "रजिष्ट्रेशन नं":
		detail.RegistrationNumber = value
	case "दर्ता मिती", "दर्ता मिति":
		detail.RegistrationDateBS = normalize.Date(value)
		detail.RegistrationDateAD = bsToAD(detail.RegistrationDateBS)
	case "मुद्दाको किसिम", "मुद्दा", "मुद्दाको बिषय":
		if detail.CaseType == "" {
			detail.CaseType = value
		} else if detail.Attributes["case_subject"] == nil {
			detail.Attributes["case_subject"] = value
		}
	case "मुद्दाको स्थिती", "मुद्दाको स्थिति":
		detail.CaseStatus = value
	case "फैसला मिती", "फैसला मिति", "निर्णय मिति":
		if value != verdictDateSentinel {
			detail.VerdictDateBS = normalize.Date(value)
			detail.VerdictDateAD = bsToAD(detail.VerdictDateBS)
		}
	case "फैसला", "आदेश /फैसलाको किसिम":
		detail.Attributes["verdict_type"] = value
	case "फैसला गर्ने मा. न्यायाधीश", "फैसला गर्ने न्यायाधीश":
		detail.VerdictJudge = value
	case "फाँट", "इजलास":
		detail.Division = value
	case "पेशी चढेको संख्या":
		detail.Attributes["hearing_count"] = value
	case "वादीहरु", "वादी":
		for _, name := range normalize.PartyNames(value) {
			detail.Entities = append(detail.Entities, harvest.CaseEntity{Side: harvest.SidePlaintiff, Name: name})
		}
	case "प्रतिवादीहरु", "प्रतिवादी":
		for _, name := range normalize.PartyNames(value) {
			detail.Entities = append(detail.Entities, harvest.CaseEntity{Side: harvest.SideDefendant, Name: name})
		}
	}
}

// parseHeaderedTable finds the first table whose header row contains every
// marker string and maps its data rows through rowFn.
func parseHeaderedTable(doc *goquery.Document, markers []string, rowFn func(*goquery.Selection) map[string]any) []map[string]any {
	var rows []map[string]any
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		header := cellText(table.Find("tr").First())
		for _, m := range markers {
			if !strings.Contains(header, m) {
				return true
			}
		}
		table.Find("tr").Each(func(i int, tr *goquery.Selection) {
			if i == 0 {
				return
			}
			if row := rowFn(tr); row != nil {
				rows = append(rows, row)
			}
		})
		return false
	})
	return rows
}

func supremeHearingRow(tr *goquery.Selection) map[string]any {
	cells := tr.Find("td")
	if cells.Length() < 2 {
		return nil
	}
	date := cellText(cells.Eq(0))
	if date == "" || strings.Contains(date, "मिती") {
		return nil
	}
	row := map[string]any{
		"hearing_date": normalize.Date(date),
		"judges":       cellText(cells.Eq(1)),
	}
	if cells.Length() > 2 {
		row["case_status"] = cellText(cells.Eq(2))
	}
	if cells.Length() > 3 {
		row["order_type"] = cellText(cells.Eq(3))
	}
	return row
}

func supremeTimelineRow(tr *goquery.Selection) map[string]any {
	cells := tr.Find("td")
	if cells.Length() < 2 {
		return nil
	}
	date := cellText(cells.Eq(0))
	if date == "" || strings.Contains(date, "मिती") {
		return nil
	}
	row := map[string]any{
		"tarekh_date": normalize.Date(date),
		"details":     cellText(cells.Eq(1)),
	}
	tarekhType := "पेशी तारेख"
	if cells.Length() > 2 {
		if t := cellText(cells.Eq(2)); t != "" {
			tarekhType = t
		}
	}
	row["tarekh_type"] = tarekhType
	return row
}
