// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package learn

import (
	"errors"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrInvariant is returned when the partition invariant is violated.
	// This indicates a programming or configuration error and is never retried.
	ErrInvariant = errors.New("partition invariant violated")

	// ErrNotInPool is returned when a strategy selects an id that is not in
	// the pool. This indicates a strategy bug and is fatal.
	ErrNotInPool = errors.New("selected id not in pool")

	// ErrEmptyDataset is returned when a dataset contains no candidates.
	ErrEmptyDataset = errors.New("dataset is empty")

	// ErrFeatureLength is returned when candidate feature vectors do not all
	// share the same length.
	ErrFeatureLength = errors.New("inconsistent feature vector length")

	// ErrUnknownID is returned when an id is not part of the candidate set.
	ErrUnknownID = errors.New("unknown candidate id")
)

// InvariantError reports a violation of the partition disjointness or
// coverage invariant. It carries the partition sizes at the time of the
// violation so a failed run can be reproduced.
type InvariantError struct {
	Reason     string
	Labeled    int
	Pool       int
	Validation int
	Total      int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("partition invariant violated: %s (labeled=%d pool=%d validation=%d total=%d)",
		e.Reason, e.Labeled, e.Pool, e.Validation, e.Total)
}

// Unwrap makes the error match ErrInvariant via errors.Is.
func (e *InvariantError) Unwrap() error { return ErrInvariant }

// NotInPoolError reports a batch that cannot be moved out of the pool,
// either because ids are not pool members or because the batch repeats an
// id. Both indicate a strategy bug.
type NotInPoolError struct {
	IDs        []string
	Duplicates []string
	Iteration  int
}

func (e *NotInPoolError) Error() string {
	var parts []string
	if len(e.IDs) > 0 {
		parts = append(parts, "ids not in pool: "+strings.Join(e.IDs, ", "))
	}
	if len(e.Duplicates) > 0 {
		parts = append(parts, "ids repeated in batch: "+strings.Join(e.Duplicates, ", "))
	}
	return fmt.Sprintf("iteration %d: %s", e.Iteration, strings.Join(parts, "; "))
}

// Unwrap makes the error match ErrNotInPool via errors.Is.
func (e *NotInPoolError) Unwrap() error { return ErrNotInPool }
