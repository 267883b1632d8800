package novelty

import (
	"sync"

	"github.com/examgen/examgen/internal/pkg/textsim"
)

// Tier identifies which pool a candidate is compared against. The sample
// tier is the strictest (anti-plagiarism against uploaded exemplars); the
// in-batch tier is the loosest since those questions share one context.
type Tier int

const (
	TierSamples Tier = iota
	TierCrossBatch
	TierInBatch
)

type Thresholds struct {
	Samples    float64
	CrossBatch float64
	InBatch    float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Samples: 0.6, CrossBatch: 0.7, InBatch: 0.75}
}

// Checker holds the three comparison pools for one generation run. Safe for
// concurrent use, though generation itself is strictly sequential.
type Checker struct {
	mu         sync.RWMutex
	thresholds Thresholds
	pools      map[Tier][]string
}

func NewChecker(thresholds Thresholds) *Checker {
	if thresholds.Samples <= 0 {
		thresholds.Samples = 0.6
	}
	if thresholds.CrossBatch <= 0 {
		thresholds.CrossBatch = 0.7
	}
	if thresholds.InBatch <= 0 {
		thresholds.InBatch = 0.75
	}
	return &Checker{
		thresholds: thresholds,
		pools:      make(map[Tier][]string),
	}
}

func (c *Checker) Seed(tier Tier, texts []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools[tier] = append(c.pools[tier], texts...)
}

// Accept records a newly accepted question so later candidates in the same
// run are compared against it.
func (c *Checker) Accept(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools[TierInBatch] = append(c.pools[TierInBatch], text)
}

// TooSimilar reports whether text crosses the tier's threshold against any
// pooled entry, returning the closest match when it does.
func (c *Checker) TooSimilar(text string, tier Tier) (bool, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	threshold := c.threshold(tier)
	var bestMatch string
	bestRatio := 0.0
	for _, existing := range c.pools[tier] {
		ratio := textsim.Ratio(text, existing)
		if ratio > bestRatio {
			bestRatio = ratio
			bestMatch = existing
		}
	}
	if bestRatio > threshold {
		return true, bestMatch
	}
	return false, ""
}

// Check runs every tier in strictness order and reports the first failure.
func (c *Checker) Check(text string) (bool, Tier, string) {
	for _, tier := range []Tier{TierSamples, TierCrossBatch, TierInBatch} {
		if hit, match := c.TooSimilar(text, tier); hit {
			return false, tier, match
		}
	}
	return true, 0, ""
}

// RecentTexts returns up to n of the newest in-batch accepted texts, newest
// last, for prompt exclusion blocks.
func (c *Checker) RecentTexts(n int) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pool := c.pools[TierInBatch]
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]string, n)
	copy(out, pool[len(pool)-n:])
	return out
}

func (c *Checker) threshold(tier Tier) float64 {
	switch tier {
	case TierSamples:
		return c.thresholds.Samples
	case TierCrossBatch:
		return c.thresholds.CrossBatch
	default:
		return c.thresholds.InBatch
	}
}
