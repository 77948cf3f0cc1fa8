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

// Diversity combines uncertainty with feature-space spread.
//
// It first shortlists the m most uncertain candidates by margin, then
// greedily picks k of them by farthest-first traversal: each pick maximizes
// the minimum Euclidean distance to the candidates already in the batch.
// This keeps a batch from collapsing onto near-duplicate light curves.
//
// The shortlist size m comes from Request.ShortlistSize (default 10x the
// batch size) and is clamped to [k, pool size].
type Diversity struct{}

// Name implements Strategy.
func (Diversity) Name() string { return NameDiversity }

// Select implements Strategy.
func (Diversity) Select(req Request) ([]string, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	k := req.BatchSize
	if len(req.IDs) <= k {
		return allIDs(req.IDs), nil
	}

	m := req.ShortlistSize
	if m <= 0 {
		m = 10 * k
	}
	if m < k {
		m = k
	}
	if m > len(req.IDs) {
		m = len(req.IDs)
	}

	// Shortlist by margin uncertainty.
	rows := make([]ranked, len(req.IDs))
	for i, scores := range req.Scores {
		rows[i] = ranked{idx: i, score: -margin(scores)}
	}
	sortRanked(rows, req.IDs)
	shortlist := make([]int, m)
	for i := 0; i < m; i++ {
		shortlist[i] = rows[i].idx
	}

	// Farthest-first traversal, seeded with the most uncertain candidate.
	selected := make([]int, 0, k)
	selected = append(selected, shortlist[0])
	remaining := shortlist[1:]

	minDist := make(map[int]float64, len(remaining))
	for _, idx := range remaining {
		minDist[idx] = euclidean(req.Features[idx], req.Features[selected[0]])
	}

	for len(selected) < k {
		best := -1
		bestDist := math.Inf(-1)
		for _, idx := range remaining {
			d := minDist[idx]
			if d > bestDist || (d == bestDist && best >= 0 && req.IDs[idx] < req.IDs[best]) {
				best = idx
				bestDist = d
			}
		}
		selected = append(selected, best)

		next := remaining[:0]
		for _, idx := range remaining {
			if idx == best {
				continue
			}
			if d := euclidean(req.Features[idx], req.Features[best]); d < minDist[idx] {
				minDist[idx] = d
			}
			next = append(next, idx)
		}
		remaining = next
	}

	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = req.IDs[idx]
	}
	return out, nil
}

func euclidean(a, b []float64) float64 {
	var d2 float64
	for i := range a {
		diff := a[i] - b[i]
		d2 += diff * diff
	}
	return math.Sqrt(d2)
}

var _ Strategy = Diversity{}
