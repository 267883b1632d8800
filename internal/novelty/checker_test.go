package novelty

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTooSimilarAgainstSamples(t *testing.T) {
	c := NewChecker(DefaultThresholds())
	c.Seed(TierSamples, []string{
		"Which organelle is responsible for producing ATP in eukaryotic cells?",
	})
	hit, match := c.TooSimilar("Which organelle is responsible for producing ATP in eukaryotic cells?", TierSamples)
	require.True(t, hit)
	require.NotEmpty(t, match)

	hit, _ = c.TooSimilar("Explain the role of the cell membrane in regulating transport.", TierSamples)
	require.False(t, hit)
}

func TestTierThresholdsApplyPerTier(t *testing.T) {
	// The same moderately similar pair trips a strict threshold and passes a
	// loose one.
	a := "Which organelle produces ATP in animal cells during respiration?"
	b := "Which organelle produces ATP in plant cells during photosynthesis?"

	c := NewChecker(Thresholds{Samples: 0.3, CrossBatch: 0.7, InBatch: 0.95})
	c.Seed(TierSamples, []string{a})
	c.Seed(TierInBatch, []string{a})

	sampleHit, _ := c.TooSimilar(b, TierSamples)
	inBatchHit, _ := c.TooSimilar(b, TierInBatch)
	require.True(t, sampleHit)
	require.False(t, inBatchHit)
}

func TestExactThresholdRatioIsAccepted(t *testing.T) {
	// Rejection requires strictly exceeding the threshold; an exact tie
	// passes. Identical texts score 1.0, so a 1.0 threshold admits them.
	c := NewChecker(Thresholds{Samples: 1, CrossBatch: 1, InBatch: 1})
	text := "Define active transport across a cell membrane."
	c.Seed(TierSamples, []string{text})

	hit, _ := c.TooSimilar(text, TierSamples)
	require.False(t, hit)
}

func TestCheckReportsFirstFailingTier(t *testing.T) {
	c := NewChecker(DefaultThresholds())
	text := "Describe the process of osmosis across a semipermeable membrane."
	c.Seed(TierCrossBatch, []string{text})

	ok, tier, match := c.Check(text)
	require.False(t, ok)
	require.Equal(t, TierCrossBatch, tier)
	require.Equal(t, text, match)
}

func TestAcceptFeedsInBatchPool(t *testing.T) {
	c := NewChecker(DefaultThresholds())
	text := "What is the primary function of the Golgi apparatus?"
	ok, _, _ := c.Check(text)
	require.True(t, ok)

	c.Accept(text)
	ok, tier, _ := c.Check(text)
	require.False(t, ok)
	require.Equal(t, TierInBatch, tier)
}

func TestRecentTexts(t *testing.T) {
	c := NewChecker(DefaultThresholds())
	require.Nil(t, c.RecentTexts(5))
	c.Accept("first")
	c.Accept("second")
	c.Accept("third")
	require.Equal(t, []string{"second", "third"}, c.RecentTexts(2))
	require.Equal(t, []string{"first", "second", "third"}, c.RecentTexts(10))
}
