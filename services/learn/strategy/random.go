// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package strategy

import (
	"math/rand"
)

// Random selects a uniform sample without replacement. It is the baseline
// every informed strategy is compared against.
type Random struct{}

// Name implements Strategy.
func (Random) Name() string { return NameRandom }

// Select implements Strategy. Given the same Request (including Seed) it
// always returns the same batch.
func (Random) Select(req Request) ([]string, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	n := len(req.IDs)
	if n <= req.BatchSize {
		return allIDs(req.IDs), nil
	}

	// Partial Fisher-Yates over an index permutation: only the first k
	// positions are needed.
	rng := rand.New(rand.NewSource(req.Seed))
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	out := make([]string, 0, req.BatchSize)
	for i := 0; i < req.BatchSize; i++ {
		j := i + rng.Intn(n-i)
		perm[i], perm[j] = perm[j], perm[i]
		out = append(out, req.IDs[perm[i]])
	}
	return out, nil
}

var _ Strategy = Random{}
