// Package intent turns a free-text patient query into a structured intent.
// The parser is a best-effort pattern matcher: queries it cannot read degrade
// to documented defaults instead of failing.
package intent

import (
	"regexp"
	"strings"

	prose "github.com/jdkato/prose/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultCondition = "Unknown condition"
	DefaultSpecialty = "General"
)

// Intent is the parsed form of a query. Conditions and Specialties are never
// empty; Matched reports whether the condition clause was actually found or
// the default was substituted.
type Intent struct {
	Conditions  []string
	Specialties []string
	Location    string
	Matched     bool
}

var (
	// "with X[ and Y]" terminated by " in", " recommend", a period, or end
	// of string.
	conditionPattern = regexp.MustCompile(`\bwith\s+(.+?)(?:\s+and\s+(.+?))?(?:\s+in\b|\s+recommend\b|\s*\.|\s*$)`)

	// Every "recommend a X" phrase terminated by " and", a comma, or end of
	// string.
	specialtyPattern = regexp.MustCompile(`\brecommend\s+a\s+([a-z ]+?)(?:\s+and\b|\s*,|\s*$)`)
)

// Extract parses query into an Intent. The condition and specialty passes are
// independent scans over the lower-cased text; location tagging runs over the
// original casing because the NER model keys on capitalization.
func Extract(query string) Intent {
	lower := strings.ToLower(query)

	// Casers are stateful and must not be shared across requests.
	titleCaser := cases.Title(language.English)

	result := Intent{
		Conditions:  []string{DefaultCondition},
		Specialties: []string{DefaultSpecialty},
	}

	if m := conditionPattern.FindStringSubmatch(lower); m != nil {
		conditions := []string{strings.TrimSpace(m[1])}
		if m[2] != "" {
			conditions = append(conditions, strings.TrimSpace(m[2]))
		}
		result.Conditions = conditions
		result.Matched = true
	}

	var specialties []string
	for _, m := range specialtyPattern.FindAllStringSubmatch(lower, -1) {
		specialties = append(specialties, titleCaser.String(strings.TrimSpace(m[1])))
	}
	if len(specialties) > 0 {
		result.Specialties = specialties
	}

	result.Location = extractLocation(query)

	return result
}

// extractLocation tags the first place entity in the query. Best effort: any
// tokenizer failure or absent entity yields an empty location.
func extractLocation(query string) string {
	doc, err := prose.NewDocument(query)
	if err != nil {
		return ""
	}

	for _, ent := range doc.Entities() {
		if ent.Label == "GPE" {
			return ent.Text
		}
	}

	return ""
}
