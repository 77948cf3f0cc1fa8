// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package learn

import (
	"fmt"
)

// -----------------------------------------------------------------------------
// Candidates
// -----------------------------------------------------------------------------

// Candidate is one observed transient. The true class label is known only to
// the simulation oracle; the classifier never sees it until the candidate has
// been queried.
type Candidate struct {
	// ID uniquely identifies the candidate within a dataset.
	ID string `json:"id" yaml:"id"`

	// Features is the fixed-length feature vector extracted from the
	// light curve. All candidates in a dataset share the same length and
	// feature ordering.
	Features []float64 `json:"features" yaml:"features"`

	// Label is the true class, revealed on query.
	Label int `json:"label" yaml:"label"`

	// Cost is the labeling cost of this candidate. Zero means default (1).
	Cost float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
}

// Dataset is the full candidate table for one experiment.
//
// Description:
//
//	Dataset is immutable after construction. The active-learning loop only
//	reads from it, so a single Dataset may be shared across concurrent
//	independent runs without synchronization.
//
// Thread Safety: Safe for concurrent use (read-only).
type Dataset struct {
	ids        []string
	byID       map[string]int
	candidates []Candidate
	featureDim int
}

// NewDataset builds a Dataset from candidates, preserving their order.
//
// Inputs:
//   - candidates: At least one candidate; ids must be unique and feature
//     vectors must all share the same length.
//
// Outputs:
//   - *Dataset: The immutable dataset.
//   - error: ErrEmptyDataset, ErrFeatureLength, or a duplicate-id error.
func NewDataset(candidates []Candidate) (*Dataset, error) {
	if len(candidates) == 0 {
		return nil, ErrEmptyDataset
	}

	d := &Dataset{
		ids:        make([]string, 0, len(candidates)),
		byID:       make(map[string]int, len(candidates)),
		candidates: make([]Candidate, len(candidates)),
		featureDim: len(candidates[0].Features),
	}

	for i, c := range candidates {
		if c.ID == "" {
			return nil, fmt.Errorf("candidate %d: empty id", i)
		}
		if _, dup := d.byID[c.ID]; dup {
			return nil, fmt.Errorf("candidate %q: duplicate id", c.ID)
		}
		if len(c.Features) != d.featureDim {
			return nil, fmt.Errorf("candidate %q: %w: got %d, want %d",
				c.ID, ErrFeatureLength, len(c.Features), d.featureDim)
		}
		if c.Cost == 0 {
			c.Cost = 1
		}
		d.byID[c.ID] = i
		d.ids = append(d.ids, c.ID)
		d.candidates[i] = c
	}
	return d, nil
}

// Len returns the number of candidates.
func (d *Dataset) Len() int { return len(d.candidates) }

// FeatureDim returns the shared feature vector length.
func (d *Dataset) FeatureDim() int { return d.featureDim }

// IDs returns a copy of all candidate ids in insertion order.
func (d *Dataset) IDs() []string {
	out := make([]string, len(d.ids))
	copy(out, d.ids)
	return out
}

// Contains reports whether id is part of the candidate set.
func (d *Dataset) Contains(id string) bool {
	_, ok := d.byID[id]
	return ok
}

// Features returns the feature matrix for ids, aligned row-for-row.
//
// The rows reference the dataset's internal storage and must not be mutated
// by callers.
func (d *Dataset) Features(ids []string) ([][]float64, error) {
	rows := make([][]float64, len(ids))
	for i, id := range ids {
		idx, ok := d.byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownID, id)
		}
		rows[i] = d.candidates[idx].Features
	}
	return rows, nil
}

// Labels reveals the true class of each id. This is the simulation oracle:
// the loop calls it only for queried candidates and for validation scoring.
func (d *Dataset) Labels(ids []string) ([]int, error) {
	labels := make([]int, len(ids))
	for i, id := range ids {
		idx, ok := d.byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownID, id)
		}
		labels[i] = d.candidates[idx].Label
	}
	return labels, nil
}

// Cost returns the labeling cost of id (default 1).
func (d *Dataset) Cost(id string) (float64, error) {
	idx, ok := d.byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	return d.candidates[idx].Cost, nil
}
