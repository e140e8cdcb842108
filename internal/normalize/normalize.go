// Package normalize cleans text extracted from court portal HTML. All
// transforms are pure and idempotent: applying one twice yields the same
// result as applying it once.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRun   = regexp.MustCompile(`[\s\p{Z}]+`)
	parenthetical   = regexp.MustCompile(`\s*\([^)]*\)\s*`)
	noSpaceBefore   = regexp.MustCompile(`(\S)\(`)
	spaceAfterOpen  = regexp.MustCompile(`\(\s+`)
	spaceBeforeNext = regexp.MustCompile(`\s+\)`)
	dateSeparators  = strings.NewReplacer("/", "-", "।", "-", "|", "-", ".", "-", " ", "-")
)

// Whitespace collapses all Unicode whitespace runs to a single ASCII space,
// trims, and strips stray surrounding quotes. Whitespace-only input yields "".
func Whitespace(s string) string {
	if s == "" {
		return ""
	}
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// ToASCIIDigits maps Devanagari digits one-to-one onto ASCII digits; all other
// runes pass through unchanged.
func ToASCIIDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '०' && r <= '९' {
			return '0' + (r - '०')
		}
		return r
	}, s)
}

// ToDevanagariDigits is the inverse of ToASCIIDigits, for display paths.
func ToDevanagariDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return '०' + (r - '0')
		}
		return r
	}, s)
}

// Date rewrites any of the separators the portals emit (slash, Devanagari
// danda, pipe, dot, space) to "-", transliterates Devanagari digits, and
// zero-pads the components to canonical width (4-2-2), e.g.
// "२०८१/९/२८" -> "2081-09-28". Non-numeric components pass through unchanged.
func Date(s string) string {
	if s == "" {
		return s
	}
	s = ToASCIIDigits(strings.TrimSpace(s))
	s = dateSeparators.Replace(s)
	parts := strings.Split(s, "-")
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		width := 2
		if i == 0 {
			width = 4
		}
		parts[i] = fmt.Sprintf("%0*d", width, n)
	}
	return strings.Join(parts, "-")
}

// ParenSpacing repairs annotation spacing in noisy markup: exactly one space
// before "(", none after "(" or before ")", e.g.
// "082-CR-0048( text)" -> "082-CR-0048 (text)".
func ParenSpacing(s string) string {
	if s == "" {
		return s
	}
	s = noSpaceBefore.ReplaceAllString(s, "$1 (")
	s = spaceAfterOpen.ReplaceAllString(s, "(")
	s = spaceBeforeNext.ReplaceAllString(s, ")")
	return s
}

// CaseNumber strips parenthetical annotations (including the parentheses)
// from a case-number cell, e.g. "081-WO-0257 ( सरल मार्ग )" -> "081-WO-0257".
func CaseNumber(s string) string {
	return strings.TrimSpace(parenthetical.ReplaceAllString(s, ""))
}
