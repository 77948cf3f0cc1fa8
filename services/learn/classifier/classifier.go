// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package classifier defines the capability interface the active-learning
// loop trains and scores with, plus two built-in implementations.
//
// The loop treats the classifier as a black box: anything providing Fit and
// PredictScore can be substituted without touching the loop. Scores are
// real-valued, one per class, with higher meaning more likely; they are not
// required to be probabilities.
package classifier

import (
	"errors"
	"fmt"
	"sort"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrInsufficientLabels is returned when fitting with fewer than two
	// distinct classes. Fatal: the run halts and is not retried.
	ErrInsufficientLabels = errors.New("fewer than 2 distinct classes in training data")

	// ErrNotFitted is returned when predicting before a successful Fit.
	ErrNotFitted = errors.New("classifier has not been fitted")

	// ErrDimension is returned on feature-length mismatches.
	ErrDimension = errors.New("feature dimension mismatch")
)

// InsufficientLabelsError carries the class composition that made a fit
// impossible.
type InsufficientLabelsError struct {
	Samples int
	Classes []int
}

func (e *InsufficientLabelsError) Error() string {
	return fmt.Sprintf("cannot fit on %d samples with classes %v: %s",
		e.Samples, e.Classes, ErrInsufficientLabels)
}

// Unwrap makes the error match ErrInsufficientLabels via errors.Is.
func (e *InsufficientLabelsError) Unwrap() error { return ErrInsufficientLabels }

// -----------------------------------------------------------------------------
// Interface
// -----------------------------------------------------------------------------

// Classifier is the capability set the loop requires.
//
// Implementations must be deterministic: fitting the same data twice yields
// identical scores. They carry no cross-run state; one instance is owned by
// exactly one run.
type Classifier interface {
	// Name identifies the classifier kind, e.g. "logistic".
	Name() string

	// Fit trains on the labeled feature matrix and its labels, replacing
	// any previous state. It returns an *InsufficientLabelsError when
	// labels holds fewer than two distinct classes.
	Fit(features [][]float64, labels []int) error

	// PredictScore returns one score per class for each input row, with
	// columns ordered by ascending class label (see Classes).
	PredictScore(features [][]float64) ([][]float64, error)

	// Classes returns the distinct class labels seen at fit time, in
	// ascending order. Nil before the first successful Fit.
	Classes() []int
}

// Predict reduces scores to hard class predictions by argmax, using the
// classifier's class ordering. Ties resolve to the lower class label.
func Predict(c Classifier, features [][]float64) ([]int, error) {
	scores, err := c.PredictScore(features)
	if err != nil {
		return nil, err
	}
	classes := c.Classes()
	preds := make([]int, len(scores))
	for i, row := range scores {
		best := 0
		for j := 1; j < len(row); j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		preds[i] = classes[best]
	}
	return preds, nil
}

// distinctClasses returns the sorted distinct labels, or an
// *InsufficientLabelsError when there are fewer than two.
func distinctClasses(labels []int) ([]int, error) {
	set := map[int]bool{}
	for _, l := range labels {
		set[l] = true
	}
	classes := make([]int, 0, len(set))
	for c := range set {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	if len(classes) < 2 {
		return nil, &InsufficientLabelsError{Samples: len(labels), Classes: classes}
	}
	return classes, nil
}

func checkDim(features [][]float64, dim int) error {
	for i, row := range features {
		if len(row) != dim {
			return fmt.Errorf("row %d: %w: got %d, want %d", i, ErrDimension, len(row), dim)
		}
	}
	return nil
}
