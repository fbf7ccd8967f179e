package llm

import (
	"strings"
	"testing"
)

func TestCompletePromptShape(t *testing.T) {
	prompt := completePrompt("SELECT * FROM", "CREATE TABLE users (id int)", []string{"users", "orders"})

	for _, want := range []string{
		"Complete the following partial SQL query",
		"SELECT * FROM",
		"Schema context:\nCREATE TABLE users (id int)",
		"Available tables: users, orders",
		"only the completed SQL query without explanations",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestCompletePromptOmitsEmptySections(t *testing.T) {
	prompt := completePrompt("SELECT 1", "", nil)

	if strings.Contains(prompt, "Schema context") {
		t.Error("empty schema context should not appear")
	}
	if strings.Contains(prompt, "Available tables") {
		t.Error("empty table list should not appear")
	}
}

func TestCorrectPromptIncludesError(t *testing.T) {
	prompt := correctPrompt("SELEC 1", "syntax error near SELEC", "")

	if !strings.Contains(prompt, "Error message:\nsyntax error near SELEC") {
		t.Errorf("prompt missing error section:\n%s", prompt)
	}
	if !strings.Contains(prompt, "only the corrected SQL query") {
		t.Errorf("prompt missing output instruction:\n%s", prompt)
	}
}

func TestValidatePromptAsksForJSON(t *testing.T) {
	prompt := validatePrompt("SELECT * FROM users", "")

	for _, want := range []string{`"is_valid"`, `"issues"`, `"suggestions"`, `"severity"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestParseValidationReport(t *testing.T) {
	report := parseValidationReport(`{"is_valid": false, "issues": ["missing WHERE"], "suggestions": ["add a filter"], "severity": "high"}`)

	if report.IsValid {
		t.Error("expected invalid")
	}
	if len(report.Issues) != 1 || report.Issues[0] != "missing WHERE" {
		t.Errorf("unexpected issues: %v", report.Issues)
	}
	if report.Severity != "high" {
		t.Errorf("unexpected severity: %s", report.Severity)
	}
}

func TestParseValidationReportFenced(t *testing.T) {
	report := parseValidationReport("```json\n{\"is_valid\": true, \"issues\": [], \"suggestions\": [], \"severity\": \"low\"}\n```")

	if !report.IsValid {
		t.Error("expected valid despite code fences")
	}
}

func TestParseValidationReportFallback(t *testing.T) {
	report := parseValidationReport("This query looks fine to me!")

	if report.IsValid {
		t.Error("unparseable response should report invalid")
	}
	if report.Severity != "medium" {
		t.Errorf("fallback severity should be medium, got %s", report.Severity)
	}
	if len(report.Issues) == 0 {
		t.Error("fallback should name the parse problem")
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "SELECT 1", "SELECT 1"},
		{"fenced sql", "```sql\nSELECT 1\n```", "SELECT 1"},
		{"fenced no lang", "```\nSELECT 1\n```", "SELECT 1"},
		{"whitespace", "  SELECT 1  ", "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFences(tt.input); got != tt.want {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
