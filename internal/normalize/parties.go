package normalize

import (
	"regexp"
	"strings"
)

// judgePrefix matches the honorific that precedes each judge name in
// high-court bench listings ("मा. न्या. श्री", with optional spacing).
var judgePrefix = regexp.MustCompile(`मा\.?\s*न्या\.?\s*श्री`)

// SplitParties splits a combined parties cell on the "||" divider used by the
// high and supreme court tables. ok is false when the divider is absent.
func SplitParties(s string) (plaintiff, defendant string, ok bool) {
	s = Whitespace(s)
	if !strings.Contains(s, "||") {
		return s, "", false
	}
	parts := strings.SplitN(s, "||", 2)
	return Whitespace(parts[0]), Whitespace(parts[1]), true
}

// PartyNames splits a party field into individual names for entity rows:
// the conjunction "समेत" ("et al.") is dropped and the remainder split on
// commas. A field without commas yields a single name.
func PartyNames(s string) []string {
	s = strings.ReplaceAll(s, "समेत", "")
	var names []string
	for _, p := range strings.Split(s, ",") {
		if p = Whitespace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Judges splits a concatenated run of judge names ("मा. न्या. श्री Aमा. न्या.
// श्री B") into one entry per honorific prefix.
func Judges(s string) []string {
	s = Whitespace(s)
	if s == "" {
		return nil
	}
	locs := judgePrefix.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return []string{s}
	}
	var judges []string
	if head := Whitespace(s[:locs[0][0]]); head != "" {
		judges = append(judges, head)
	}
	for i, loc := range locs {
		end := len(s)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if name := Whitespace(s[loc[0]:end]); name != "" {
			judges = append(judges, name)
		}
	}
	return judges
}

// Lawyers interprets the "का. व्य. नाम" cell: empty or "--" means no lawyers;
// a "||" divider separates plaintiff from defendant lawyers.
func Lawyers(s string) (plaintiff, defendant string, present bool) {
	s = Whitespace(s)
	if s == "" || s == "--" {
		return "", "", false
	}
	if strings.Contains(s, "||") {
		parts := strings.SplitN(s, "||", 2)
		return Whitespace(parts[0]), Whitespace(parts[1]), true
	}
	return s, "", true
}
