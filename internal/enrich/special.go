package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/harvest"
	"github.com/ngmonitor/courtharvest/internal/normalize"
)

// Special enriches special court cases. One POST by registration number
// returns the whole dossier: a caption/value info table plus four sub-tables
// for tarekh dates, related cases and hearings.
type Special struct {
	fetcher harvest.Fetcher
	logger  *zap.Logger
	courtID string
	baseURL string
}

// NewSpecial builds the special court enricher.
func NewSpecial(fetcher harvest.Fetcher, logger *zap.Logger, courtID, baseURL string) *Special {
	return &Special{fetcher: fetcher, logger: logger, courtID: courtID, baseURL: baseURL}
}

func (s *Special) CourtID() string { return s.courtID }

func (s *Special) detailURL() string {
	return s.baseURL + "/special/syspublic.php?d=reports&f=case_details"
}

func (s *Special) FetchDetail(ctx context.Context, caseNumber string) (harvest.CaseDetail, error) {
	form := map[string]string{
		"syy": "", "smm": "", "sdd": "",
		"mode":   "show",
		"regno":  caseNumber,
		"submit": " Search ",
	}
	body, err := s.fetcher.PostForm(ctx, s.detailURL(), form, nil)
	if err != nil {
		return harvest.CaseDetail{}, fmt.Errorf("fetch detail for case %s: %w", caseNumber, err)
	}
	doc, err := checkedParse(body)
	if err != nil {
		return harvest.CaseDetail{}, err
	}
	return s.parseDetail(doc)
}

func (s *Special) parseDetail(doc *goquery.Document) (harvest.CaseDetail, error) {
	info := doc.Find(`table[width="100%"][border="0"][cellspacing="0"][cellpadding="1"]`).First()
	if info.Length() == 0 {
		return harvest.CaseDetail{}, ErrNotFound
	}

	detail := harvest.CaseDetail{Attributes: map[string]any{}}

	// Label cells carry class "caption"; the value is the next plain cell.
	info.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		for i := 0; i < cells.Length()-1; i++ {
			cell := cells.Eq(i)
			if !cell.HasClass("caption") {
				continue
			}
			next := cells.Eq(i + 1)
			if next.HasClass("caption") {
				continue
			}
			s.applyField(&detail, labelText(cell), cellText(next))
		}
	})

	if rows := parseSubTable(doc, "पेशी तारेख", specialPesiRow); len(rows) > 0 {
		detail.Attributes["enrichment_pesi_tarekh"] = rows
	}
	if rows := parseSubTable(doc, "साधारण तारेख", specialTarekhRow); len(rows) > 0 {
		detail.Attributes["enrichment_sadharan_tarekh"] = rows
	}
	if rows := parseSubTable(doc, "लगाब मुद्दाहरुको विवरण", specialRelatedRow); len(rows) > 0 {
		detail.Attributes["enrichment_related_cases"] = rows
	}
	if rows := parseSubTable(doc, "पेशी को विवरण", specialHearingRow); len(rows) > 0 {
		detail.Attributes["enrichment_hearings"] = rows
	}
	if len(detail.Attributes) == 0 {
		detail.Attributes = nil
	}
	return detail, nil
}

func (s *Special) applyField(detail *harvest.CaseDetail, label, value string) {
	if label == "" || value == "" {
		return
	}
	// The advocate labels vary in suffix; match on the stable stem. The
	// defendant stem contains the plaintiff stem, so it is tested first.
	switch {
	case strings.Contains(label, "प्रतिवादी अधिवक्ता"):
		detail.Attributes["defendant_advocates"] = value
		return
	case strings.Contains(label, "वादी अधिवक्ता"):
		detail.Attributes["plaintiff_advocates"] = value
		return
	}
	switch label {
	case "दर्ता नँ":
		detail.RegistrationNumber = value
	case "दर्ता मिती", "दर्ता मिति":
		detail.RegistrationDateBS = normalize.Date(value)
		detail.RegistrationDateAD = bsToAD(detail.RegistrationDateBS)
	case "मुद्दाको किसिम":
		detail.Category = value
	case "मुद्दा":
		detail.CaseType = value
	case "फाँट":
		detail.Division = value
	case "मुद्दाको स्थिती", "मुद्दाको स्थिति":
		detail.CaseStatus = value
	// Unlike the supreme portal, the special court prints each side as one
	// composite string; it is stored whole, never split on commas.
	case "वादीहरु", "वादी":
		detail.Entities = append(detail.Entities, harvest.CaseEntity{Side: harvest.SidePlaintiff, Name: value})
	case "प्रतिवादीहरु", "प्रतिवादी":
		detail.Entities = append(detail.Entities, harvest.CaseEntity{Side: harvest.SideDefendant, Name: value})
	}
}

// parseSubTable locates the dossier section titled heading: the heading row's
// next sibling row holds a table.utivtbl with the section's data. The first
// row of that table is its header and is skipped.
func parseSubTable(doc *goquery.Document, heading string, rowFn func(*goquery.Selection) map[string]any) []map[string]any {
	var rows []map[string]any
	doc.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if !strings.Contains(tr.Text(), heading) {
			return true
		}
		table := tr.NextFiltered("tr").Find("table.utivtbl").First()
		if table.Length() == 0 {
			return true
		}
		table.Find("tr").Each(func(i int, dataRow *goquery.Selection) {
			if i == 0 {
				return
			}
			if row := rowFn(dataRow); row != nil {
				rows = append(rows, row)
			}
		})
		return false
	})
	return rows
}

func specialPesiRow(tr *goquery.Selection) map[string]any {
	cells := tr.Find("td")
	if cells.Length() < 2 {
		return nil
	}
	return map[string]any{
		"pesi_date": normalize.Date(cellText(cells.Eq(0))),
		"pesi_type": cellText(cells.Eq(1)),
	}
}

func specialTarekhRow(tr *goquery.Selection) map[string]any {
	cells := tr.Find("td")
	if cells.Length() < 2 {
		return nil
	}
	return map[string]any{
		"tarekh_date": normalize.Date(cellText(cells.Eq(0))),
		"tarekh_type": cellText(cells.Eq(1)),
	}
}

func specialRelatedRow(tr *goquery.Selection) map[string]any {
	cells := tr.Find("td")
	if cells.Length() < 6 {
		return nil
	}
	return map[string]any{
		"case_number":       normalize.CaseNumber(cellText(cells.Eq(0))),
		"registration_date": normalize.Date(cellText(cells.Eq(1))),
		"case_type":         cellText(cells.Eq(2)),
		"plaintiff":         cellText(cells.Eq(3)),
		"defendant":         cellText(cells.Eq(4)),
		"current_status":    cellText(cells.Eq(5)),
	}
}

func specialHearingRow(tr *goquery.Selection) map[string]any {
	cells := tr.Find("td")
	if cells.Length() < 4 {
		return nil
	}
	return map[string]any{
		"hearing_date":  normalize.Date(cellText(cells.Eq(0))),
		"judges":        cellLines(cells.Eq(1)),
		"case_status":   cellText(cells.Eq(2)),
		"decision_type": cellText(cells.Eq(3)),
	}
}
