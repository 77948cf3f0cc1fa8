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

// LogisticConfig tunes the built-in logistic regression.
type LogisticConfig struct {
	// Epochs is the number of full passes over the training data.
	// Default: 200.
	Epochs int `yaml:"epochs"`

	// LearningRate is the SGD step size. Default: 0.1.
	LearningRate float64 `yaml:"learning_rate"`

	// L2 is the ridge regularization strength. Default: 1e-4.
	L2 float64 `yaml:"l2"`
}

// DefaultLogisticConfig returns the defaults used when fields are zero.
func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{
		Epochs:       200,
		LearningRate: 0.1,
		L2:           1e-4,
	}
}

// Logistic is a binary logistic regression trained by deterministic SGD.
//
// Samples are visited in input order every epoch, so two fits on the same
// data produce bitwise-identical weights. Multi-class problems need the
// centroid classifier or an external adapter.
type Logistic struct {
	cfg     LogisticConfig
	weights []float64
	bias    float64
	classes []int // len 2 after fit, ascending
	dim     int
}

// NewLogistic creates an unfitted logistic regression. Zero fields in cfg
// fall back to DefaultLogisticConfig.
func NewLogistic(cfg LogisticConfig) *Logistic {
	def := DefaultLogisticConfig()
	if cfg.Epochs <= 0 {
		cfg.Epochs = def.Epochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.L2 < 0 {
		cfg.L2 = def.L2
	}
	return &Logistic{cfg: cfg}
}

// Name implements Classifier.
func (l *Logistic) Name() string { return "logistic" }

// Classes implements Classifier.
func (l *Logistic) Classes() []int {
	if l.classes == nil {
		return nil
	}
	out := make([]int, len(l.classes))
	copy(out, l.classes)
	return out
}

// Fit implements Classifier. It replaces any previous state.
func (l *Logistic) Fit(features [][]float64, labels []int) error {
	if len(features) != len(labels) {
		return fmt.Errorf("features/labels length mismatch: %d vs %d", len(features), len(labels))
	}
	classes, err := distinctClasses(labels)
	if err != nil {
		return err
	}
	if len(classes) != 2 {
		return fmt.Errorf("logistic regression is binary; got %d classes %v", len(classes), classes)
	}
	dim := len(features[0])
	if err := checkDim(features, dim); err != nil {
		return err
	}

	w := make([]float64, dim)
	var b float64
	lr := l.cfg.LearningRate
	l2 := l.cfg.L2
	pos := classes[1]

	for epoch := 0; epoch < l.cfg.Epochs; epoch++ {
		for i, x := range features {
			y := 0.0
			if labels[i] == pos {
				y = 1.0
			}
			p := sigmoid(dot(w, x) + b)
			g := p - y
			for j := range w {
				w[j] -= lr * (g*x[j] + l2*w[j])
			}
			b -= lr * g
		}
	}

	l.weights = w
	l.bias = b
	l.classes = classes
	l.dim = dim
	return nil
}

// PredictScore implements Classifier. Rows are [P(class0), P(class1)].
func (l *Logistic) PredictScore(features [][]float64) ([][]float64, error) {
	if l.classes == nil {
		return nil, ErrNotFitted
	}
	if err := checkDim(features, l.dim); err != nil {
		return nil, err
	}
	out := make([][]float64, len(features))
	for i, x := range features {
		p := sigmoid(dot(l.weights, x) + l.bias)
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	// Guard against overflow in math.Exp for large |z|.
	if z < -35 {
		return 0
	}
	if z > 35 {
		return 1
	}
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

var _ Classifier = (*Logistic)(nil)
