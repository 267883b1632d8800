package vecstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func result(id string, score float64, embedding ...float32) SearchResult {
	return SearchResult{
		Entry: Entry{ID: id, Embedding: embedding},
		Score: score,
	}
}

func TestRerankPrefersDiversity(t *testing.T) {
	// Three near-duplicates of the top hit plus one distinct passage with a
	// lower relevance score. MMR should pick the distinct one second.
	candidates := []SearchResult{
		result("dup1", 0.95, 1, 0, 0),
		result("dup2", 0.94, 0.99, 0.01, 0),
		result("dup3", 0.93, 0.98, 0.02, 0),
		result("other", 0.80, 0, 1, 0),
	}
	got := Rerank(candidates, 0.5, 2)
	require.Len(t, got, 2)
	require.Equal(t, "dup1", got[0].ID)
	require.Equal(t, "other", got[1].ID)
}

func TestRerankLambdaOneKeepsRelevanceOrder(t *testing.T) {
	candidates := []SearchResult{
		result("a", 0.9, 1, 0),
		result("b", 0.8, 1, 0.01),
		result("c", 0.7, 0, 1),
	}
	got := Rerank(candidates, 1.0, 3)
	require.Len(t, got, 3)
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, "b", got[1].ID)
	require.Equal(t, "c", got[2].ID)
}

func TestRerankKLargerThanCandidates(t *testing.T) {
	candidates := []SearchResult{result("a", 0.9, 1, 0)}
	got := Rerank(candidates, 0.5, 10)
	require.Len(t, got, 1)
}

func TestRerankEmpty(t *testing.T) {
	require.Nil(t, Rerank(nil, 0.5, 3))
	require.Nil(t, Rerank([]SearchResult{result("a", 1, 1)}, 0.5, 0))
}

func TestCosineSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	require.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	require.Zero(t, CosineSimilarity(nil, []float32{1}))
	require.Zero(t, CosineSimilarity([]float32{1, 2}, []float32{1}))
}
