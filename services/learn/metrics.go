// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package learn

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// -----------------------------------------------------------------------------
// Science metrics
// -----------------------------------------------------------------------------

// DefaultFoMPenalty is the canonical SNPCC weight for false positives.
const DefaultFoMPenalty = 3.0

// Accuracy returns the global fraction of correct classifications.
// It returns 0 for empty input.
func Accuracy(pred, truth []int) float64 {
	if len(pred) == 0 || len(pred) != len(truth) {
		return 0
	}
	correct := 0
	for i := range pred {
		if pred[i] == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(pred))
}

// Efficiency returns the fraction of true positive-class objects that were
// correctly classified. Returns 0 when the truth contains no positives.
func Efficiency(pred, truth []int, posClass int) float64 {
	correct, total := 0, 0
	for i := range truth {
		if truth[i] != posClass {
			continue
		}
		total++
		if pred[i] == posClass {
			correct++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// Purity returns the fraction of true positives within the sample classified
// as positive. Returns 0 when nothing was classified as positive.
func Purity(pred, truth []int, posClass int) float64 {
	correct, wrong := 0, 0
	for i := range truth {
		if pred[i] != posClass {
			continue
		}
		if truth[i] == posClass {
			correct++
		} else {
			wrong++
		}
	}
	if correct+wrong == 0 {
		return 0
	}
	return float64(correct) / float64(correct+wrong)
}

// FigureOfMerit returns efficiency times pseudo-purity, where purity carries
// a penalty for false positives (SNPCC convention, penalty 3).
func FigureOfMerit(pred, truth []int, posClass int, penalty float64) float64 {
	correct, wrong, total := 0, 0, 0
	for i := range truth {
		if truth[i] == posClass {
			total++
			if pred[i] == posClass {
				correct++
			}
		} else if pred[i] == posClass {
			wrong++
		}
	}
	denom := float64(correct) + penalty*float64(wrong)
	if denom <= 0 || total == 0 {
		return 0
	}
	return (float64(correct) / denom) * (float64(correct) / float64(total))
}

// SNPCCMetric computes the four SNPCC challenge metrics in their canonical
// order. The returned slices are parallel: names are
// [accuracy, efficiency, purity, fom].
func SNPCCMetric(pred, truth []int, posClass int, penalty float64) ([]string, []float64) {
	names := []string{"accuracy", "efficiency", "purity", "fom"}
	values := []float64{
		Accuracy(pred, truth),
		Efficiency(pred, truth, posClass),
		Purity(pred, truth, posClass),
		FigureOfMerit(pred, truth, posClass, penalty),
	}
	return names, values
}

// ClassReport is a per-class precision/recall record.
type ClassReport struct {
	Class     int     `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// ClassReports computes precision and recall for every class present in
// either pred or truth, ordered by ascending class label.
func ClassReports(pred, truth []int) []ClassReport {
	classes := map[int]bool{}
	for _, c := range pred {
		classes[c] = true
	}
	for _, c := range truth {
		classes[c] = true
	}
	ordered := make([]int, 0, len(classes))
	for c := range classes {
		ordered = append(ordered, c)
	}
	sort.Ints(ordered)

	reports := make([]ClassReport, 0, len(ordered))
	for _, c := range ordered {
		tp, fp, fn := 0, 0, 0
		for i := range pred {
			switch {
			case pred[i] == c && truth[i] == c:
				tp++
			case pred[i] == c:
				fp++
			case truth[i] == c:
				fn++
			}
		}
		r := ClassReport{Class: c}
		if tp+fp > 0 {
			r.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			r.Recall = float64(tp) / float64(tp+fn)
		}
		reports = append(reports, r)
	}
	return reports
}

// -----------------------------------------------------------------------------
// Metrics Recorder
// -----------------------------------------------------------------------------

// Snapshot is one iteration's evaluation record. Snapshots are append-only
// and ordered by iteration index.
type Snapshot struct {
	Iteration   int           `json:"iteration"`
	Strategy    string        `json:"strategy"`
	LabeledSize int           `json:"labeled_size"`
	PoolSize    int           `json:"pool_size"`
	Accuracy    float64       `json:"accuracy"`
	Efficiency  float64       `json:"efficiency"`
	Purity      float64       `json:"purity"`
	FoM         float64       `json:"fom"`
	PerClass    []ClassReport `json:"per_class"`
	QueriedIDs  []string      `json:"queried_ids"`
}

// Recorder accumulates the evaluation trace of one run.
//
// Thread Safety: NOT safe for concurrent use. A Recorder is exclusively
// owned by one run.
type Recorder struct {
	snapshots []Snapshot
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{snapshots: make([]Snapshot, 0, 64)}
}

// Append records a snapshot. Iteration indices must be appended in order.
func (r *Recorder) Append(s Snapshot) {
	r.snapshots = append(r.snapshots, s)
}

// Snapshots returns a copy of the trace, ordered by iteration index.
func (r *Recorder) Snapshots() []Snapshot {
	out := make([]Snapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

// Len returns the number of recorded snapshots.
func (r *Recorder) Len() int { return len(r.snapshots) }

// Last returns the most recent snapshot, or false when the trace is empty.
func (r *Recorder) Last() (Snapshot, bool) {
	if len(r.snapshots) == 0 {
		return Snapshot{}, false
	}
	return r.snapshots[len(r.snapshots)-1], true
}

// WriteCSV writes the trace as CSV for external reporting tools.
func (r *Recorder) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"iteration", "strategy", "labeled_size", "pool_size",
		"accuracy", "efficiency", "purity", "fom"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range r.snapshots {
		row := []string{
			strconv.Itoa(s.Iteration),
			s.Strategy,
			strconv.Itoa(s.LabeledSize),
			strconv.Itoa(s.PoolSize),
			formatFloat(s.Accuracy),
			formatFloat(s.Efficiency),
			formatFloat(s.Purity),
			formatFloat(s.FoM),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", s.Iteration, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
