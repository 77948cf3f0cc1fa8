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

func TestCentroid_Fit(t *testing.T) {
	t.Run("classifies by nearest centroid", func(t *testing.T) {
		clf := NewCentroid()
		features := [][]float64{
			{0, 0}, {0, 1},
			{10, 10}, {10, 11},
			{-10, -10}, {-10, -11},
		}
		labels := []int{1, 1, 2, 2, 3, 3}
		if err := clf.Fit(features, labels); err != nil {
			t.Fatalf("Fit: %v", err)
		}

		pred, err := Predict(clf, [][]float64{{0.2, 0.4}, {9, 10}, {-11, -10}})
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		want := []int{1, 2, 3}
		for i := range want {
			if pred[i] != want[i] {
				t.Errorf("pred[%d] = %d, want %d", i, pred[i], want[i])
			}
		}
	})

	t.Run("single class is insufficient", func(t *testing.T) {
		clf := NewCentroid()
		err := clf.Fit([][]float64{{1}, {2}}, []int{7, 7})
		if !errors.Is(err, ErrInsufficientLabels) {
			t.Fatalf("expected ErrInsufficientLabels, got %v", err)
		}
	})
}

func TestCentroid_PredictScore(t *testing.T) {
	clf := NewCentroid()
	if _, err := clf.PredictScore([][]float64{{0}}); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}

	if err := clf.Fit([][]float64{{0}, {10}}, []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	scores, err := clf.PredictScore([][]float64{{1}})
	if err != nil {
		t.Fatal(err)
	}
	// Closer centroid gets the higher (less negative) score.
	if scores[0][0] <= scores[0][1] {
		t.Errorf("scores = %v, want class 0 ranked above class 1", scores[0])
	}
}
