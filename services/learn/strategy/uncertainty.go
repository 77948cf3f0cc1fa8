// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package strategy

import (
	"math"
)

// -----------------------------------------------------------------------------
// Margin
// -----------------------------------------------------------------------------

// Margin ranks candidates by ascending difference between their top two
// class scores. The smallest margin is the most uncertain candidate.
type Margin struct{}

// Name implements Strategy.
func (Margin) Name() string { return NameMargin }

// Select implements Strategy.
func (Margin) Select(req Request) ([]string, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if len(req.IDs) <= req.BatchSize {
		return allIDs(req.IDs), nil
	}
	rows := make([]ranked, len(req.IDs))
	for i, scores := range req.Scores {
		// Negated so the shared descending sort puts small margins first.
		rows[i] = ranked{idx: i, score: -margin(scores)}
	}
	sortRanked(rows, req.IDs)
	return take(rows, req.IDs, req.BatchSize), nil
}

// margin returns top1 - top2 of the score row, or 0 for rows with fewer
// than two classes.
func margin(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	top1, top2 := math.Inf(-1), math.Inf(-1)
	for _, s := range scores {
		if s > top1 {
			top1, top2 = s, top1
		} else if s > top2 {
			top2 = s
		}
	}
	return top1 - top2
}

// -----------------------------------------------------------------------------
// Entropy
// -----------------------------------------------------------------------------

// Entropy ranks candidates by descending entropy of their score
// distribution. Scores are normalized into a probability distribution
// first, so the strategy also works with non-probabilistic scorers.
type Entropy struct{}

// Name implements Strategy.
func (Entropy) Name() string { return NameEntropy }

// Select implements Strategy.
func (Entropy) Select(req Request) ([]string, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if len(req.IDs) <= req.BatchSize {
		return allIDs(req.IDs), nil
	}
	rows := make([]ranked, len(req.IDs))
	for i, scores := range req.Scores {
		rows[i] = ranked{idx: i, score: scoreEntropy(scores)}
	}
	sortRanked(rows, req.IDs)
	return take(rows, req.IDs, req.BatchSize), nil
}

// scoreEntropy returns the Shannon entropy (nats) of a score row after
// normalizing it into a probability distribution. Zero-probability terms
// contribute 0.
func scoreEntropy(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var h float64
	for _, p := range normalize(scores) {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h
}

// normalize maps a score row to a probability distribution. Rows that are
// already non-negative with positive mass are L1-normalized, so calibrated
// classifier output passes through unchanged; anything else (negative
// scores, all-zero rows) goes through a softmax.
func normalize(scores []float64) []float64 {
	nonNegative := true
	var sum float64
	for _, s := range scores {
		if s < 0 {
			nonNegative = false
			break
		}
		sum += s
	}
	out := make([]float64, len(scores))
	if nonNegative && sum > 0 {
		for i, s := range scores {
			out[i] = s / sum
		}
		return out
	}

	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	var z float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		z += out[i]
	}
	for i := range out {
		out[i] /= z
	}
	return out
}

// -----------------------------------------------------------------------------
// Least confident
// -----------------------------------------------------------------------------

// LeastConfident ranks candidates by ascending top-class score: the lower
// the best score, the less confident the classifier.
type LeastConfident struct{}

// Name implements Strategy.
func (LeastConfident) Name() string { return NameLeastConfident }

// Select implements Strategy.
func (LeastConfident) Select(req Request) ([]string, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if len(req.IDs) <= req.BatchSize {
		return allIDs(req.IDs), nil
	}
	rows := make([]ranked, len(req.IDs))
	for i, scores := range req.Scores {
		top := math.Inf(-1)
		for _, s := range scores {
			if s > top {
				top = s
			}
		}
		rows[i] = ranked{idx: i, score: -top}
	}
	sortRanked(rows, req.IDs)
	return take(rows, req.IDs, req.BatchSize), nil
}

var (
	_ Strategy = Margin{}
	_ Strategy = Entropy{}
	_ Strategy = LeastConfident{}
)
