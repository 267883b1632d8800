package prompt

import "github.com/examgen/examgen/internal/model"

// bloomByDifficulty maps each difficulty to the Bloom levels a question at
// that difficulty may target. Assignment cycles so a batch of mediums does
// not come out all-Apply.
var bloomByDifficulty = map[model.Difficulty][]model.BloomLevel{
	model.DifficultyEasy:   {model.BloomRemember, model.BloomUnderstand},
	model.DifficultyMedium: {model.BloomUnderstand, model.BloomApply, model.BloomAnalyze},
	model.DifficultyHard:   {model.BloomApply, model.BloomAnalyze, model.BloomEvaluate},
}

type BloomAssigner struct {
	counters map[model.Difficulty]int
}

func NewBloomAssigner() *BloomAssigner {
	return &BloomAssigner{counters: make(map[model.Difficulty]int)}
}

func (a *BloomAssigner) Next(difficulty model.Difficulty) model.BloomLevel {
	levels, ok := bloomByDifficulty[difficulty]
	if !ok {
		levels = bloomByDifficulty[model.DifficultyMedium]
	}
	idx := a.counters[difficulty] % len(levels)
	a.counters[difficulty]++
	return levels[idx]
}
