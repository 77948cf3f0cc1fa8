// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package strategy

import (
	"testing"
)

func TestDiversity_Select(t *testing.T) {
	t.Run("spreads the batch across feature space", func(t *testing.T) {
		// Three near-duplicates around the origin plus one distant
		// candidate, all equally uncertain. A pure uncertainty batch of 2
		// would collapse onto the duplicates; diversity must pick the
		// distant one second.
		req := Request{
			IDs: []string{"dup1", "dup2", "dup3", "far"},
			Features: [][]float64{
				{0.0, 0.0},
				{0.1, 0.0},
				{0.0, 0.1},
				{50.0, 50.0},
			},
			Scores: [][]float64{
				{0.5, 0.5},
				{0.5, 0.5},
				{0.5, 0.5},
				{0.5, 0.5},
			},
			BatchSize:     2,
			ShortlistSize: 4,
		}
		got, err := Diversity{}.Select(req)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d ids, want 2", len(got))
		}
		// Equal uncertainty ties break to ascending id, so dup1 seeds the
		// batch; the farthest-first pick must then be "far".
		if got[0] != "dup1" || got[1] != "far" {
			t.Errorf("got %v, want [dup1 far]", got)
		}
	})

	t.Run("shortlist restricts to the uncertain", func(t *testing.T) {
		// "far" is maximally distant but fully certain; with a shortlist
		// of 2 it must not appear.
		req := Request{
			IDs: []string{"u1", "u2", "far"},
			Features: [][]float64{
				{0, 0},
				{1, 0},
				{100, 100},
			},
			Scores: [][]float64{
				{0.5, 0.5},
				{0.52, 0.48},
				{1.0, 0.0},
			},
			BatchSize:     2,
			ShortlistSize: 2,
		}
		got, err := Diversity{}.Select(req)
		if err != nil {
			t.Fatal(err)
		}
		for _, id := range got {
			if id == "far" {
				t.Fatalf("certain candidate leaked into batch: %v", got)
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		req := Request{
			IDs: []string{"a", "b", "c", "d", "e"},
			Features: [][]float64{
				{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4},
			},
			Scores: [][]float64{
				{0.5, 0.5}, {0.6, 0.4}, {0.55, 0.45}, {0.7, 0.3}, {0.51, 0.49},
			},
			BatchSize:     3,
			ShortlistSize: 5,
		}
		first, err := Diversity{}.Select(req)
		if err != nil {
			t.Fatal(err)
		}
		second, err := Diversity{}.Select(req)
		if err != nil {
			t.Fatal(err)
		}
		if !sameIDs(first, second) {
			t.Errorf("runs differ: %v vs %v", first, second)
		}
	})

	t.Run("shrinks to pool size", func(t *testing.T) {
		req := Request{
			IDs:       []string{"a", "b"},
			Features:  [][]float64{{0}, {1}},
			Scores:    [][]float64{{0.5, 0.5}, {0.6, 0.4}},
			BatchSize: 5,
		}
		got, err := Diversity{}.Select(req)
		if err != nil {
			t.Fatal(err)
		}
		if !sameIDs(got, []string{"a", "b"}) {
			t.Errorf("got %v, want [a b]", got)
		}
	})
}
