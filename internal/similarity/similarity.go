// Package similarity provides pure vector comparison helpers for
// pattern retrieval. It holds no state; the store and the learning
// service both rank candidates through it.
//
// Ranking is a brute-force O(n) scan over the candidate set. At the
// expected scale (hundreds to low thousands of patterns per
// workspace) this beats maintaining an approximate-NN index.
package similarity

import (
	"math"
	"slices"

	"github.com/l0l1/l0l1-go/internal/models"
)

// Cosine computes the cosine similarity of two vectors. Vectors of
// different lengths or zero magnitude are non-comparable and score
// 0.0 rather than erroring.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Rank scores every candidate against the query embedding, keeps
// those at or above threshold, and returns up to limit matches sorted
// by score descending. Ties break on LastUsedAt descending so the
// most recently reinforced pattern wins.
func Rank(query []float32, candidates []models.PatternRecord, threshold float64, limit int) []models.SimilarityMatch {
	matches := make([]models.SimilarityMatch, 0, len(candidates))
	for _, c := range candidates {
		score := Cosine(query, c.Embedding)
		if score >= threshold {
			matches = append(matches, models.SimilarityMatch{Pattern: c, Score: score})
		}
	}

	slices.SortStableFunc(matches, func(a, b models.SimilarityMatch) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return b.Pattern.LastUsedAt.Compare(a.Pattern.LastUsedAt)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
