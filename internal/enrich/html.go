package enrich

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ngmonitor/courtharvest/internal/calendar"
	"github.com/ngmonitor/courtharvest/internal/harvest"
	"github.com/ngmonitor/courtharvest/internal/normalize"
)

// checkedParse guards both the parse and the WAF banner in one place; every
// detail-page response goes through it.
func checkedParse(body []byte) (*goquery.Document, error) {
	if harvest.IsWAFBlock(body) {
		return nil, errBlocked
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}
	return doc, nil
}

func cellText(sel *goquery.Selection) string {
	return normalize.Whitespace(sel.Text())
}

// cellLines returns a cell's text with <br> breaks as line boundaries,
// each line normalized, empties dropped. Mutates the selection.
func cellLines(sel *goquery.Selection) []string {
	sel.Find("br").ReplaceWithHtml("\n")
	var lines []string
	for _, raw := range strings.Split(sel.Text(), "\n") {
		if line := normalize.Whitespace(raw); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func bsToAD(dateBS string) *time.Time {
	d, err := calendar.Parse(dateBS)
	if err != nil {
		return nil
	}
	ad, err := d.ToGregorian()
	if err != nil {
		return nil
	}
	return &ad
}

// labelText trims the decorations the portals hang on label cells, so
// "दर्ता मिती :" and "दर्ता मिती।" both resolve to the same key.
func labelText(sel *goquery.Selection) string {
	return normalize.Whitespace(strings.TrimRight(cellText(sel), " :।."))
}
