// Package pii detects and redacts personally identifiable information
// in SQL text before it enters the learning store. Detection is
// regex-based over the literal value classes that show up in WHERE
// clauses: emails, phone numbers, SSNs, credit card numbers and IPv4
// addresses.
package pii

import (
	"regexp"
	"sort"
)

// Finding is one detected PII occurrence.
type Finding struct {
	EntityType string  `json:"entity_type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text"`
}

type pattern struct {
	entityType  string
	re          *regexp.Regexp
	replacement string
}

// Patterns are matched in order; later patterns skip spans already
// claimed by earlier ones (the phone and SSN regexes overlap).
var patterns = []pattern{
	{"EMAIL", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "'user@example.com'"},
	{"PHONE", regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`), "'555-0123'"},
	{"SSN", regexp.MustCompile(`\b\d{3}[-.]?\d{2}[-.]?\d{4}\b`), "'XXX-XX-XXXX'"},
	{"CREDIT_CARD", regexp.MustCompile(`\b\d{4}[-.\s]?\d{4}[-.\s]?\d{4}[-.\s]?\d{4}\b`), "'XXXX-XXXX-XXXX-XXXX'"},
	{"IP_ADDRESS", regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`), "'192.168.1.1'"},
}

// placeholders are the redaction literals themselves. They must never
// count as findings, otherwise Sanitize would not be idempotent and
// sanitized text would fail a re-scan.
var placeholders = map[string]bool{
	"user@example.com": true,
	"192.168.1.1":      true,
}

// Detector scans text for PII.
type Detector struct{}

// NewDetector returns a ready Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns all PII findings in text, ordered by position.
func (d *Detector) Detect(text string) []Finding {
	var findings []Finding

	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			if placeholders[match] {
				continue
			}
			if overlaps(findings, loc[0], loc[1]) {
				continue
			}
			findings = append(findings, Finding{
				EntityType: p.entityType,
				Start:      loc[0],
				End:        loc[1],
				Confidence: 0.9,
				Text:       match,
			})
		}
	}

	sort.Slice(findings, func(i, j int) bool { return findings[i].Start < findings[j].Start })
	return findings
}

func overlaps(findings []Finding, start, end int) bool {
	for _, f := range findings {
		if start < f.End && f.Start < end {
			return true
		}
	}
	return false
}

// IsSafe reports whether text contains no detectable PII.
func (d *Detector) IsSafe(text string) bool {
	return len(d.Detect(text)) == 0
}

// Sanitize replaces every finding with a type-specific placeholder
// literal. Replacements run right-to-left so earlier offsets stay
// valid.
func (d *Detector) Sanitize(text string) string {
	findings := d.Detect(text)
	if len(findings) == 0 {
		return text
	}

	replacementFor := make(map[string]string, len(patterns))
	for _, p := range patterns {
		replacementFor[p.entityType] = p.replacement
	}

	out := text
	for i := len(findings) - 1; i >= 0; i-- {
		f := findings[i]
		repl, ok := replacementFor[f.EntityType]
		if !ok {
			repl = "'[REDACTED]'"
		}
		out = out[:f.Start] + repl + out[f.End:]
	}
	return out
}
