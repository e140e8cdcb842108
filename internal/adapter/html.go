package adapter

import (
	"bytes"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ngmonitor/courtharvest/internal/calendar"
	"github.com/ngmonitor/courtharvest/internal/harvest"
	"github.com/ngmonitor/courtharvest/internal/normalize"
)

// PortalBaseURL is the judiciary portal all four court families live on.
const PortalBaseURL = "https://supremecourt.gov.np"

func parseHTML(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &harvest.MalformedError{Reason: "unparseable html: " + err.Error()}
	}
	return doc, nil
}

// cellText extracts a cell's text collapsed to single-space form.
func cellText(sel *goquery.Selection) string {
	return normalize.Whitespace(sel.Text())
}

// cellLines extracts a cell's text with <br> breaks preserved as line
// boundaries, each line normalized, empties dropped. Mutates the selection.
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

// bsToAD converts a normalized BS date string to its Gregorian equivalent,
// nil when the string is absent or not a real calendar date (the portals use
// sentinels like "****-**-**").
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
