package sched

import (
	"gsched/internal/profile"
)

// Weights are the trade-offs of the utility score.
type Weights struct {
	Throughput float64
	Cache      float64
	MemBW      float64
}

// DefaultWeights weighs every term equally.
func DefaultWeights() Weights {
	return Weights{Throughput: 1.0, Cache: 1.0, MemBW: 1.0}
}

// Score rates sample s of a task whose standalone best throughput is baseline.
// High FLOPS and bandwidth raise it; cache misses and throughput lost
// against the baseline lower it.
func Score(s profile.Sample, baseline float64, w Weights) float64 {
	return s.FLOPS -
		w.Throughput*(baseline-s.Throughput) -
		w.Cache*s.CacheMissRate +
		w.MemBW*s.MemBW
}

// Baseline returns the best throughput among samples, 0 when there are none.
func Baseline(samples []profile.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	best := samples[0].Throughput
	for _, s := range samples[1:] {
		if s.Throughput > best {
			best = s.Throughput
		}
	}
	return best
}

// Assignment is the chosen sample index per task and the summed score.
type Assignment struct {
	Choice     []int
	Score      float64
	Exhaustive bool
}

// Solve picks one sample per task. Up to threshold tasks are searched
// exhaustively; larger cohorts fall back to an independent greedy choice.
func Solve(tasks [][]profile.Sample, w Weights, threshold int) Assignment {
	scores := scoreTable(tasks, w)
	if len(tasks) <= threshold {
		choice, total := exhaustive(scores)
		return Assignment{Choice: choice, Score: total, Exhaustive: true}
	}
	choice, total := greedy(scores)
	return Assignment{Choice: choice, Score: total}
}

// Exhaustive evaluates the full Cartesian product of sample choices.
func Exhaustive(tasks [][]profile.Sample, w Weights) ([]int, float64) {
	return exhaustive(scoreTable(tasks, w))
}

// Greedy picks, for every task independently, its highest-scoring sample.
func Greedy(tasks [][]profile.Sample, w Weights) ([]int, float64) {
	return greedy(scoreTable(tasks, w))
}

// scoreTable scores every sample against its own task's baseline.
// Per-task scores are independent of the other tasks' choices, so the
// combination total is a plain sum over this table.
func scoreTable(tasks [][]profile.Sample, w Weights) [][]float64 {
	table := make([][]float64, len(tasks))
	for i, samples := range tasks {
		b := Baseline(samples)
		row := make([]float64, len(samples))
		for j, s := range samples {
			row[j] = Score(s, b, w)
		}
		table[i] = row
	}
	return table
}

// exhaustive walks combinations with the last task varying fastest and
// replaces the best only on strict improvement, so the earliest of equal
// combinations wins.
func exhaustive(scores [][]float64) ([]int, float64) {
	n := len(scores)
	if n == 0 {
		return nil, 0
	}
	for _, row := range scores {
		if len(row) == 0 {
			return make([]int, n), 0
		}
	}

	cur := make([]int, n)
	best := make([]int, n)
	var bestScore float64
	found := false

	for {
		var total float64
		for i, j := range cur {
			total += scores[i][j]
		}
		if !found || total > bestScore {
			bestScore = total
			copy(best, cur)
			found = true
		}

		pos := n - 1
		for ; pos >= 0; pos-- {
			cur[pos]++
			if cur[pos] < len(scores[pos]) {
				break
			}
			cur[pos] = 0
		}
		if pos < 0 {
			return best, bestScore
		}
	}
}

func greedy(scores [][]float64) ([]int, float64) {
	choice := make([]int, len(scores))
	var total float64
	for i, row := range scores {
		if len(row) == 0 {
			continue
		}
		bestIdx := 0
		for j := 1; j < len(row); j++ {
			if row[j] > row[bestIdx] {
				bestIdx = j
			}
		}
		choice[i] = bestIdx
		total += row[bestIdx]
	}
	return choice, total
}
