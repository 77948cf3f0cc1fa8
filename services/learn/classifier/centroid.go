// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package classifier

import (
	"fmt"
	"math"
)

// Centroid is a nearest-centroid classifier.
//
// It fits one mean feature vector per class and scores a candidate by
// negative Euclidean distance to each centroid, so higher still means more
// likely. It handles any number of classes and is fully deterministic,
// which makes it the default oracle-side model for multi-class runs.
type Centroid struct {
	centroids [][]float64 // aligned with classes
	classes   []int
	dim       int
}

// NewCentroid creates an unfitted nearest-centroid classifier.
func NewCentroid() *Centroid { return &Centroid{} }

// Name implements Classifier.
func (c *Centroid) Name() string { return "centroid" }

// Classes implements Classifier.
func (c *Centroid) Classes() []int {
	if c.classes == nil {
		return nil
	}
	out := make([]int, len(c.classes))
	copy(out, c.classes)
	return out
}

// Fit implements Classifier.
func (c *Centroid) Fit(features [][]float64, labels []int) error {
	if len(features) != len(labels) {
		return fmt.Errorf("features/labels length mismatch: %d vs %d", len(features), len(labels))
	}
	classes, err := distinctClasses(labels)
	if err != nil {
		return err
	}
	dim := len(features[0])
	if err := checkDim(features, dim); err != nil {
		return err
	}

	pos := make(map[int]int, len(classes))
	for i, cls := range classes {
		pos[cls] = i
	}
	sums := make([][]float64, len(classes))
	counts := make([]int, len(classes))
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	for i, x := range features {
		k := pos[labels[i]]
		counts[k]++
		for j, v := range x {
			sums[k][j] += v
		}
	}
	for i := range sums {
		for j := range sums[i] {
			sums[i][j] /= float64(counts[i])
		}
	}

	c.centroids = sums
	c.classes = classes
	c.dim = dim
	return nil
}

// PredictScore implements Classifier. Scores are negative Euclidean
// distances to each class centroid.
func (c *Centroid) PredictScore(features [][]float64) ([][]float64, error) {
	if c.classes == nil {
		return nil, ErrNotFitted
	}
	if err := checkDim(features, c.dim); err != nil {
		return nil, err
	}
	out := make([][]float64, len(features))
	for i, x := range features {
		row := make([]float64, len(c.centroids))
		for k, centroid := range c.centroids {
			var d2 float64
			for j := range x {
				diff := x[j] - centroid[j]
				d2 += diff * diff
			}
			row[k] = -math.Sqrt(d2)
		}
		out[i] = row
	}
	return out, nil
}

var _ Classifier = (*Centroid)(nil)
