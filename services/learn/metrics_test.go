// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package learn

import (
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// -----------------------------------------------------------------------------
// Science Metric Tests
// -----------------------------------------------------------------------------

func TestAccuracy(t *testing.T) {
	t.Run("half correct", func(t *testing.T) {
		got := Accuracy([]int{1, 2, 1, 2}, []int{1, 1, 2, 2})
		if !almostEqual(got, 0.5) {
			t.Errorf("Accuracy = %v, want 0.5", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := Accuracy(nil, nil); got != 0 {
			t.Errorf("Accuracy = %v, want 0", got)
		}
	})
}

func TestEfficiency(t *testing.T) {
	// 3 true positives of class 1, 2 recovered.
	pred := []int{1, 1, 2, 2, 1}
	truth := []int{1, 1, 1, 2, 2}

	t.Run("fraction of recovered positives", func(t *testing.T) {
		got := Efficiency(pred, truth, 1)
		if !almostEqual(got, 2.0/3.0) {
			t.Errorf("Efficiency = %v, want 2/3", got)
		}
	})

	t.Run("no positives in truth", func(t *testing.T) {
		if got := Efficiency([]int{2, 2}, []int{2, 2}, 1); got != 0 {
			t.Errorf("Efficiency = %v, want 0", got)
		}
	})
}

func TestPurity(t *testing.T) {
	// Classified as 1: three objects, two truly 1.
	pred := []int{1, 1, 1, 2}
	truth := []int{1, 1, 2, 2}

	t.Run("fraction of true positives in positive sample", func(t *testing.T) {
		got := Purity(pred, truth, 1)
		if !almostEqual(got, 2.0/3.0) {
			t.Errorf("Purity = %v, want 2/3", got)
		}
	})

	t.Run("nothing classified positive", func(t *testing.T) {
		if got := Purity([]int{2, 2}, []int{1, 2}, 1); got != 0 {
			t.Errorf("Purity = %v, want 0", got)
		}
	})
}

func TestFigureOfMerit(t *testing.T) {
	// correct=2, wrong=1, total=3: (2 / (2 + 3*1)) * (2/3)
	pred := []int{1, 1, 1, 2}
	truth := []int{1, 1, 2, 1}

	t.Run("penalized pseudo-purity times efficiency", func(t *testing.T) {
		got := FigureOfMerit(pred, truth, 1, 3.0)
		want := (2.0 / 5.0) * (2.0 / 3.0)
		if !almostEqual(got, want) {
			t.Errorf("FigureOfMerit = %v, want %v", got, want)
		}
	})

	t.Run("zero when nothing recovered", func(t *testing.T) {
		if got := FigureOfMerit([]int{2, 2}, []int{1, 1}, 1, 3.0); got != 0 {
			t.Errorf("FigureOfMerit = %v, want 0", got)
		}
	})
}

func TestSNPCCMetric(t *testing.T) {
	pred := []int{1, 1, 2, 2}
	truth := []int{1, 2, 2, 1}

	names, values := SNPCCMetric(pred, truth, 1, DefaultFoMPenalty)
	wantNames := []string{"accuracy", "efficiency", "purity", "fom"}
	if len(names) != len(wantNames) || len(values) != len(wantNames) {
		t.Fatalf("got %d names / %d values, want 4/4", len(names), len(values))
	}
	for i := range wantNames {
		if names[i] != wantNames[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], wantNames[i])
		}
	}
	if !almostEqual(values[0], 0.5) {
		t.Errorf("accuracy = %v, want 0.5", values[0])
	}
}

func TestClassReports(t *testing.T) {
	pred := []int{1, 1, 2, 3}
	truth := []int{1, 2, 2, 2}

	reports := ClassReports(pred, truth)
	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3", len(reports))
	}
	// Ordered by ascending class.
	if reports[0].Class != 1 || reports[1].Class != 2 || reports[2].Class != 3 {
		t.Fatalf("classes = %d/%d/%d, want 1/2/3",
			reports[0].Class, reports[1].Class, reports[2].Class)
	}
	// Class 1: tp=1 fp=1 fn=0.
	if !almostEqual(reports[0].Precision, 0.5) || !almostEqual(reports[0].Recall, 1.0) {
		t.Errorf("class 1 precision/recall = %v/%v, want 0.5/1",
			reports[0].Precision, reports[0].Recall)
	}
	// Class 2: tp=1 fp=0 fn=2.
	if !almostEqual(reports[1].Precision, 1.0) || !almostEqual(reports[1].Recall, 1.0/3.0) {
		t.Errorf("class 2 precision/recall = %v/%v, want 1/0.333",
			reports[1].Precision, reports[1].Recall)
	}
	// Class 3: tp=0 fp=1 fn=0.
	if reports[2].Precision != 0 {
		t.Errorf("class 3 precision = %v, want 0", reports[2].Precision)
	}
}

// -----------------------------------------------------------------------------
// Recorder Tests
// -----------------------------------------------------------------------------

func TestRecorder(t *testing.T) {
	t.Run("append only and ordered", func(t *testing.T) {
		rec := NewRecorder()
		rec.Append(Snapshot{Iteration: 1, Accuracy: 0.5})
		rec.Append(Snapshot{Iteration: 2, Accuracy: 0.6})

		snaps := rec.Snapshots()
		if len(snaps) != 2 || snaps[0].Iteration != 1 || snaps[1].Iteration != 2 {
			t.Fatalf("unexpected trace: %+v", snaps)
		}

		// Returned slice is a copy.
		snaps[0].Iteration = 99
		if rec.Snapshots()[0].Iteration != 1 {
			t.Error("Snapshots exposed internal state")
		}
	})

	t.Run("last", func(t *testing.T) {
		rec := NewRecorder()
		if _, ok := rec.Last(); ok {
			t.Error("Last on empty recorder should report false")
		}
		rec.Append(Snapshot{Iteration: 7})
		last, ok := rec.Last()
		if !ok || last.Iteration != 7 {
			t.Errorf("Last = %+v/%v, want iteration 7", last, ok)
		}
	})

	t.Run("csv export", func(t *testing.T) {
		rec := NewRecorder()
		rec.Append(Snapshot{
			Iteration: 1, Strategy: "random",
			LabeledSize: 10, PoolSize: 90,
			Accuracy: 0.75, Efficiency: 0.5, Purity: 0.8, FoM: 0.3,
		})

		var sb strings.Builder
		if err := rec.WriteCSV(&sb); err != nil {
			t.Fatalf("WriteCSV: %v", err)
		}
		out := sb.String()
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 2 {
			t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
		}
		if !strings.HasPrefix(lines[0], "iteration,strategy") {
			t.Errorf("unexpected header: %s", lines[0])
		}
		if !strings.Contains(lines[1], "random") || !strings.Contains(lines[1], "0.750000") {
			t.Errorf("unexpected row: %s", lines[1])
		}
	})
}
