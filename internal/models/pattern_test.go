package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "SELECT * FROM Users", "select * from users"},
		{"collapses spaces", "select  *   from users", "select * from users"},
		{"collapses newlines and tabs", "select *\n\tfrom users", "select * from users"},
		{"trims", "  select 1  ", "select 1"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeQuery(tt.input))
		})
	}
}

func TestPatternIDStable(t *testing.T) {
	a := PatternID("SELECT * FROM users")
	b := PatternID("select  *  from USERS")
	assert.Equal(t, a, b, "normalization-equivalent queries share an ID")
	assert.Len(t, a, 64)

	c := PatternID("SELECT * FROM orders")
	assert.NotEqual(t, a, c)
}

func TestConfidenceDerived(t *testing.T) {
	tests := []struct {
		successCount int
		want         float64
	}{
		{1, 0.1},
		{5, 0.5},
		{10, 1.0},
		{25, 1.0},
	}

	for _, tt := range tests {
		p := PatternRecord{SuccessCount: tt.successCount}
		assert.InDelta(t, tt.want, p.Confidence(), 1e-9)
	}
}

func TestConfidenceMonotonic(t *testing.T) {
	prev := 0.0
	for n := 1; n <= 20; n++ {
		p := PatternRecord{SuccessCount: n}
		c := p.Confidence()
		assert.GreaterOrEqual(t, c, prev)
		assert.LessOrEqual(t, c, 1.0)
		prev = c
	}
}

func TestSummaryDropsEmbedding(t *testing.T) {
	p := PatternRecord{
		ID:           PatternID("select 1"),
		Query:        "select 1",
		WorkspaceID:  "w1",
		Embedding:    []float32{0.1, 0.2},
		SuccessCount: 3,
	}

	s := p.Summary()
	assert.Equal(t, p.ID, s.ID)
	assert.InDelta(t, 0.3, s.Confidence, 1e-9)
}

func TestTruncateQuery(t *testing.T) {
	long := strings.Repeat("x", 150)
	assert.Equal(t, strings.Repeat("x", 100)+"...", TruncateQuery(long, 100))
	assert.Equal(t, "short", TruncateQuery("short", 100))
}
