// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package strategy

import (
	"errors"
	"math"
	"testing"
)

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Registry Tests
// -----------------------------------------------------------------------------

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	t.Run("all built-ins registered", func(t *testing.T) {
		for _, name := range []string{
			NameRandom, NameMargin, NameEntropy, NameLeastConfident, NameDiversity,
		} {
			s, err := r.New(name)
			if err != nil {
				t.Fatalf("New(%q): %v", name, err)
			}
			if s.Name() != name {
				t.Errorf("Name() = %q, want %q", s.Name(), name)
			}
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		if _, err := r.New("gradient-greed"); !errors.Is(err, ErrUnknownStrategy) {
			t.Fatalf("expected ErrUnknownStrategy, got %v", err)
		}
	})

	t.Run("names sorted", func(t *testing.T) {
		names := r.Names()
		for i := 1; i < len(names); i++ {
			if names[i-1] >= names[i] {
				t.Fatalf("names not sorted: %v", names)
			}
		}
	})
}

// -----------------------------------------------------------------------------
// Random Tests
// -----------------------------------------------------------------------------

func TestRandom_Select(t *testing.T) {
	req := Request{
		IDs:       []string{"a", "b", "c", "d", "e"},
		Features:  make([][]float64, 5),
		Scores:    make([][]float64, 5),
		BatchSize: 2,
		Seed:      99,
	}

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		first, err := Random{}.Select(req)
		if err != nil {
			t.Fatal(err)
		}
		second, err := Random{}.Select(req)
		if err != nil {
			t.Fatal(err)
		}
		if !sameIDs(first, second) {
			t.Errorf("same seed produced %v then %v", first, second)
		}
	})

	t.Run("different seeds differ eventually", func(t *testing.T) {
		base, _ := Random{}.Select(req)
		varied := false
		for seed := int64(0); seed < 20; seed++ {
			alt := req
			alt.Seed = seed
			got, _ := Random{}.Select(alt)
			if !sameIDs(base, got) {
				varied = true
				break
			}
		}
		if !varied {
			t.Error("20 different seeds all produced the same batch")
		}
	})

	t.Run("distinct ids", func(t *testing.T) {
		got, _ := Random{}.Select(req)
		seen := map[string]bool{}
		for _, id := range got {
			if seen[id] {
				t.Fatalf("duplicate id %q in batch %v", id, got)
			}
			seen[id] = true
		}
	})

	t.Run("shrinks to pool size", func(t *testing.T) {
		small := req
		small.BatchSize = 10
		got, err := Random{}.Select(small)
		if err != nil {
			t.Fatal(err)
		}
		if !sameIDs(got, small.IDs) {
			t.Errorf("got %v, want all of %v", got, small.IDs)
		}
	})
}

// -----------------------------------------------------------------------------
// Margin Tests
// -----------------------------------------------------------------------------

func TestMargin_Select(t *testing.T) {
	t.Run("picks smallest margin", func(t *testing.T) {
		req := Request{
			IDs: []string{"w", "x", "y", "z"},
			Features: [][]float64{
				{0}, {0}, {0}, {0},
			},
			Scores: [][]float64{
				{0.9, 0.1},
				{0.55, 0.45},
				{0.2, 0.8},
				{0.51, 0.49},
			},
			BatchSize: 1,
		}
		got, err := Margin{}.Select(req)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0] != "z" {
			t.Errorf("got %v, want [z] (margin 0.02)", got)
		}
	})

	t.Run("tie breaks by ascending id", func(t *testing.T) {
		req := Request{
			IDs:      []string{"m2", "m1"},
			Features: [][]float64{{0}, {0}},
			Scores: [][]float64{
				{0.6, 0.4},
				{0.4, 0.6},
			},
			BatchSize: 1,
		}
		got, err := Margin{}.Select(req)
		if err != nil {
			t.Fatal(err)
		}
		if got[0] != "m1" {
			t.Errorf("got %v, want [m1] on tie", got)
		}
	})

	t.Run("ranking covers the batch", func(t *testing.T) {
		req := Request{
			IDs:      []string{"a", "b", "c"},
			Features: [][]float64{{0}, {0}, {0}},
			Scores: [][]float64{
				{0.99, 0.01},
				{0.5, 0.5},
				{0.7, 0.3},
			},
			BatchSize: 2,
		}
		got, err := Margin{}.Select(req)
		if err != nil {
			t.Fatal(err)
		}
		if !sameIDs(got, []string{"b", "c"}) {
			t.Errorf("got %v, want [b c]", got)
		}
	})
}

// -----------------------------------------------------------------------------
// Entropy Tests
// -----------------------------------------------------------------------------

func TestEntropy_Select(t *testing.T) {
	t.Run("uniform distribution ranks first", func(t *testing.T) {
		req := Request{
			IDs:      []string{"sharp", "flat"},
			Features: [][]float64{{0}, {0}},
			Scores: [][]float64{
				{0.99, 0.01},
				{0.5, 0.5},
			},
			BatchSize: 1,
		}
		got, err := Entropy{}.Select(req)
		if err != nil {
			t.Fatal(err)
		}
		if got[0] != "flat" {
			t.Errorf("got %v, want [flat]", got)
		}
	})

	t.Run("handles negative scores", func(t *testing.T) {
		req := Request{
			IDs:      []string{"a", "b"},
			Features: [][]float64{{0}, {0}},
			Scores: [][]float64{
				{-1.0, -9.0}, // confident
				{-4.9, -5.1}, // uncertain
			},
			BatchSize: 1,
		}
		got, err := Entropy{}.Select(req)
		if err != nil {
			t.Fatal(err)
		}
		if got[0] != "b" {
			t.Errorf("got %v, want [b]", got)
		}
	})
}

func TestScoreEntropy(t *testing.T) {
	t.Run("uniform is maximal", func(t *testing.T) {
		h := scoreEntropy([]float64{0.25, 0.25, 0.25, 0.25})
		if !floatNear(h, math.Log(4)) {
			t.Errorf("entropy = %v, want ln 4", h)
		}
	})

	t.Run("identical scores treated as uniform", func(t *testing.T) {
		h := scoreEntropy([]float64{0, 0})
		if !floatNear(h, math.Log(2)) {
			t.Errorf("entropy = %v, want ln 2", h)
		}
	})

	t.Run("point mass is zero", func(t *testing.T) {
		if h := scoreEntropy([]float64{1, 0, 0}); h != 0 {
			t.Errorf("entropy = %v, want 0", h)
		}
	})
}

func floatNear(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// -----------------------------------------------------------------------------
// Least Confident Tests
// -----------------------------------------------------------------------------

func TestLeastConfident_Select(t *testing.T) {
	req := Request{
		IDs:      []string{"sure", "unsure"},
		Features: [][]float64{{0}, {0}},
		Scores: [][]float64{
			{0.95, 0.05},
			{0.55, 0.45},
		},
		BatchSize: 1,
	}
	got, err := LeastConfident{}.Select(req)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "unsure" {
		t.Errorf("got %v, want [unsure]", got)
	}
}

// -----------------------------------------------------------------------------
// Validation Tests
// -----------------------------------------------------------------------------

func TestSelect_BadRequests(t *testing.T) {
	misaligned := Request{
		IDs:       []string{"a", "b"},
		Features:  [][]float64{{0}},
		Scores:    [][]float64{{0.5, 0.5}, {0.5, 0.5}},
		BatchSize: 1,
	}
	zeroBatch := Request{
		IDs:       []string{"a"},
		Features:  [][]float64{{0}},
		Scores:    [][]float64{{1, 0}},
		BatchSize: 0,
	}

	for _, s := range []Strategy{Random{}, Margin{}, Entropy{}, LeastConfident{}, Diversity{}} {
		if _, err := s.Select(misaligned); !errors.Is(err, ErrBadRequest) {
			t.Errorf("%s: misaligned request accepted", s.Name())
		}
		if _, err := s.Select(zeroBatch); !errors.Is(err, ErrBadRequest) {
			t.Errorf("%s: zero batch accepted", s.Name())
		}
	}
}
