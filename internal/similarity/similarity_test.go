package similarity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/l0l1/l0l1-go/internal/models"
)

func TestCosineIdentity(t *testing.T) {
	v := []float32{0.3, 0.5, 0.8}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-6)
}

func TestCosineSymmetric(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	assert.InDelta(t, Cosine(a, b), Cosine(b, a), 1e-12)
}

func TestCosineOrthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.InDelta(t, 0.0, Cosine(a, b), 1e-12)
}

func TestCosineNonComparable(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1, 2, 3}), "length mismatch")
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 2}), "zero magnitude")
	assert.Equal(t, 0.0, Cosine(nil, nil), "empty vectors")
}

func pattern(id string, emb []float32, lastUsed time.Time) models.PatternRecord {
	return models.PatternRecord{ID: id, Embedding: emb, LastUsedAt: lastUsed}
}

func TestRankThresholdAndOrder(t *testing.T) {
	now := time.Now()
	query := []float32{1, 0, 0}
	candidates := []models.PatternRecord{
		pattern("exact", []float32{2, 0, 0}, now),
		pattern("close", []float32{1, 0.2, 0}, now),
		pattern("far", []float32{0, 1, 0}, now),
	}

	matches := Rank(query, candidates, 0.8, 10)

	assert.Len(t, matches, 2)
	assert.Equal(t, "exact", matches[0].Pattern.ID)
	assert.Equal(t, "close", matches[1].Pattern.ID)
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, 0.8, "no match below threshold")
	}
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i].Score, matches[i-1].Score, "sorted descending")
	}
}

func TestRankTieBreaksOnRecency(t *testing.T) {
	now := time.Now()
	query := []float32{1, 0}
	candidates := []models.PatternRecord{
		pattern("old", []float32{3, 0}, now.Add(-time.Hour)),
		pattern("recent", []float32{5, 0}, now),
	}

	matches := Rank(query, candidates, 0.5, 10)

	assert.Len(t, matches, 2)
	assert.Equal(t, "recent", matches[0].Pattern.ID, "most recent wins on equal score")
}

func TestRankLimit(t *testing.T) {
	now := time.Now()
	query := []float32{1, 0}
	var candidates []models.PatternRecord
	for i := 0; i < 10; i++ {
		candidates = append(candidates, pattern("p", []float32{1, 0}, now.Add(time.Duration(i)*time.Minute)))
	}

	matches := Rank(query, candidates, 0.0, 3)
	assert.Len(t, matches, 3)
}

func TestRankSkipsMissingEmbeddings(t *testing.T) {
	matches := Rank([]float32{1, 0}, []models.PatternRecord{
		pattern("none", nil, time.Now()),
	}, 0.1, 10)
	assert.Empty(t, matches)
}
