// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package classifier

import (
	"errors"
	"testing"
)

// separable2D is a trivially separable binary problem on the first feature.
var separable2D = struct {
	features [][]float64
	labels   []int
}{
	features: [][]float64{
		{-2.0, 0.1}, {-1.5, -0.3}, {-1.0, 0.2},
		{1.0, -0.1}, {1.5, 0.3}, {2.0, 0.0},
	},
	labels: []int{0, 0, 0, 1, 1, 1},
}

func TestLogistic_Fit(t *testing.T) {
	t.Run("separates a linear problem", func(t *testing.T) {
		clf := NewLogistic(LogisticConfig{})
		if err := clf.Fit(separable2D.features, separable2D.labels); err != nil {
			t.Fatalf("Fit: %v", err)
		}

		pred, err := Predict(clf, separable2D.features)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		for i, want := range separable2D.labels {
			if pred[i] != want {
				t.Errorf("pred[%d] = %d, want %d", i, pred[i], want)
			}
		}
	})

	t.Run("single class is insufficient", func(t *testing.T) {
		clf := NewLogistic(LogisticConfig{})
		err := clf.Fit([][]float64{{1}, {2}}, []int{1, 1})
		if !errors.Is(err, ErrInsufficientLabels) {
			t.Fatalf("expected ErrInsufficientLabels, got %v", err)
		}
		var ile *InsufficientLabelsError
		if !errors.As(err, &ile) {
			t.Fatal("expected *InsufficientLabelsError")
		}
		if ile.Samples != 2 || len(ile.Classes) != 1 {
			t.Errorf("error context = %+v", ile)
		}
	})

	t.Run("more than two classes rejected", func(t *testing.T) {
		clf := NewLogistic(LogisticConfig{})
		err := clf.Fit([][]float64{{1}, {2}, {3}}, []int{1, 2, 3})
		if err == nil {
			t.Fatal("expected error for 3-class input")
		}
	})

	t.Run("deterministic refit", func(t *testing.T) {
		a := NewLogistic(LogisticConfig{})
		b := NewLogistic(LogisticConfig{})
		if err := a.Fit(separable2D.features, separable2D.labels); err != nil {
			t.Fatal(err)
		}
		if err := b.Fit(separable2D.features, separable2D.labels); err != nil {
			t.Fatal(err)
		}
		sa, _ := a.PredictScore(separable2D.features)
		sb, _ := b.PredictScore(separable2D.features)
		for i := range sa {
			for j := range sa[i] {
				if sa[i][j] != sb[i][j] {
					t.Fatalf("scores differ at [%d][%d]: %v vs %v", i, j, sa[i][j], sb[i][j])
				}
			}
		}
	})
}

func TestLogistic_PredictScore(t *testing.T) {
	t.Run("unfitted", func(t *testing.T) {
		clf := NewLogistic(LogisticConfig{})
		if _, err := clf.PredictScore([][]float64{{1, 2}}); !errors.Is(err, ErrNotFitted) {
			t.Fatalf("expected ErrNotFitted, got %v", err)
		}
	})

	t.Run("rows are complementary probabilities", func(t *testing.T) {
		clf := NewLogistic(LogisticConfig{})
		if err := clf.Fit(separable2D.features, separable2D.labels); err != nil {
			t.Fatal(err)
		}
		scores, err := clf.PredictScore([][]float64{{0.5, 0.0}})
		if err != nil {
			t.Fatal(err)
		}
		if len(scores[0]) != 2 {
			t.Fatalf("got %d columns, want 2", len(scores[0]))
		}
		sum := scores[0][0] + scores[0][1]
		if sum < 0.999 || sum > 1.001 {
			t.Errorf("score row sums to %v, want 1", sum)
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		clf := NewLogistic(LogisticConfig{})
		if err := clf.Fit(separable2D.features, separable2D.labels); err != nil {
			t.Fatal(err)
		}
		if _, err := clf.PredictScore([][]float64{{1.0}}); !errors.Is(err, ErrDimension) {
			t.Fatalf("expected ErrDimension, got %v", err)
		}
	})
}

func TestLogistic_Classes(t *testing.T) {
	clf := NewLogistic(LogisticConfig{})
	if clf.Classes() != nil {
		t.Error("Classes before fit should be nil")
	}
	if err := clf.Fit([][]float64{{-1}, {1}}, []int{5, 3}); err != nil {
		t.Fatal(err)
	}
	classes := clf.Classes()
	if len(classes) != 2 || classes[0] != 3 || classes[1] != 5 {
		t.Errorf("Classes = %v, want [3 5]", classes)
	}
}
