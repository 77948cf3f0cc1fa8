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
// Sample Partition
// -----------------------------------------------------------------------------

// membership identifies which subset a candidate currently belongs to.
type membership int

const (
	memberPool membership = iota
	memberLabeled
	memberValidation
)

// Partition holds the labeled, pool, and validation subsets of a fixed
// candidate set.
//
// Description:
//
//	The three subsets are disjoint and together cover the full candidate
//	set; this invariant holds after every operation. Order within each
//	subset is insertion order, so runs are reproducible. The validation
//	subset is fixed for the lifetime of a run.
//
// Thread Safety: NOT safe for concurrent use. A Partition is exclusively
// owned by one run; callers must serialize access.
type Partition struct {
	labeled    []string
	pool       []string
	validation []string
	index      map[string]membership
}

// NewPartition initializes a partition from the full id set, the initial
// labeled seed, and the fixed validation set. Every id not in the seed or
// validation set starts in the pool, in allIDs order.
//
// Inputs:
//   - allIDs: The full candidate set, in dataset order. Must be non-empty
//     and free of duplicates.
//   - labeledIDs: Initial labeled seed. Must be a subset of allIDs.
//   - validationIDs: Held-out set. Must be a subset of allIDs and disjoint
//     from labeledIDs.
//
// Outputs:
//   - *Partition: The initialized partition.
//   - error: An *InvariantError when the sets overlap, contain duplicates,
//     or reference ids outside allIDs.
func NewPartition(allIDs, labeledIDs, validationIDs []string) (*Partition, error) {
	p := &Partition{
		labeled:    make([]string, 0, len(labeledIDs)),
		pool:       make([]string, 0, len(allIDs)),
		validation: make([]string, 0, len(validationIDs)),
		index:      make(map[string]membership, len(allIDs)),
	}

	all := make(map[string]bool, len(allIDs))
	for _, id := range allIDs {
		if all[id] {
			return nil, p.invariantErr(fmt.Sprintf("duplicate id %q in candidate set", id), len(allIDs))
		}
		all[id] = true
	}

	for _, id := range labeledIDs {
		if !all[id] {
			return nil, p.invariantErr(fmt.Sprintf("labeled id %q not in candidate set", id), len(allIDs))
		}
		if _, seen := p.index[id]; seen {
			return nil, p.invariantErr(fmt.Sprintf("id %q assigned twice", id), len(allIDs))
		}
		p.index[id] = memberLabeled
		p.labeled = append(p.labeled, id)
	}

	for _, id := range validationIDs {
		if !all[id] {
			return nil, p.invariantErr(fmt.Sprintf("validation id %q not in candidate set", id), len(allIDs))
		}
		if _, seen := p.index[id]; seen {
			return nil, p.invariantErr(fmt.Sprintf("id %q assigned twice", id), len(allIDs))
		}
		p.index[id] = memberValidation
		p.validation = append(p.validation, id)
	}

	// Everything else is pool, in candidate-set order.
	for _, id := range allIDs {
		if _, seen := p.index[id]; seen {
			continue
		}
		p.index[id] = memberPool
		p.pool = append(p.pool, id)
	}

	return p, nil
}

// RestorePartition rebuilds a partition from explicit subset membership,
// e.g. when resuming a checkpointed run. The three slices must be disjoint
// and duplicate-free; their union defines the candidate set.
func RestorePartition(labeled, pool, validation []string) (*Partition, error) {
	all := make([]string, 0, len(labeled)+len(pool)+len(validation))
	all = append(all, labeled...)
	all = append(all, pool...)
	all = append(all, validation...)
	return NewPartition(all, labeled, validation)
}

// MoveToLabeled moves ids from the pool to the labeled set, preserving the
// order they were selected in.
//
// Inputs:
//   - ids: Distinct ids currently in the pool. Duplicates within a single
//     call are rejected.
//
// Outputs:
//   - error: A *NotInPoolError listing every offending id, with repeated ids
//     reported separately from non-members; the partition is left unchanged
//     on error.
func (p *Partition) MoveToLabeled(ids []string) error {
	var bad, dup []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			dup = append(dup, id)
			continue
		}
		seen[id] = true
		if m, ok := p.index[id]; !ok || m != memberPool {
			bad = append(bad, id)
		}
	}
	if len(bad) > 0 || len(dup) > 0 {
		return &NotInPoolError{IDs: bad, Duplicates: dup}
	}

	remaining := p.pool[:0]
	for _, id := range p.pool {
		if seen[id] {
			continue
		}
		remaining = append(remaining, id)
	}
	p.pool = remaining

	for _, id := range ids {
		p.index[id] = memberLabeled
		p.labeled = append(p.labeled, id)
	}
	return nil
}

// LabeledIDs returns a copy of the labeled set in insertion order.
func (p *Partition) LabeledIDs() []string { return copyIDs(p.labeled) }

// PoolIDs returns a copy of the pool in insertion order.
func (p *Partition) PoolIDs() []string { return copyIDs(p.pool) }

// ValidationIDs returns a copy of the validation set in insertion order.
func (p *Partition) ValidationIDs() []string { return copyIDs(p.validation) }

// LabeledSize returns the number of labeled candidates.
func (p *Partition) LabeledSize() int { return len(p.labeled) }

// PoolSize returns the number of pool candidates.
func (p *Partition) PoolSize() int { return len(p.pool) }

// ValidationSize returns the number of validation candidates.
func (p *Partition) ValidationSize() int { return len(p.validation) }

// Total returns the size of the full candidate set.
func (p *Partition) Total() int {
	return len(p.labeled) + len(p.pool) + len(p.validation)
}

// Check verifies disjointness and coverage. It exists for tests and for
// defensive calls after restore; normal operations preserve the invariant
// by construction.
func (p *Partition) Check() error {
	if len(p.index) != p.Total() {
		return p.invariantErr("subset sizes do not sum to candidate-set size", len(p.index))
	}
	for _, id := range p.labeled {
		if p.index[id] != memberLabeled {
			return p.invariantErr(fmt.Sprintf("id %q listed as labeled but indexed otherwise", id), len(p.index))
		}
	}
	for _, id := range p.pool {
		if p.index[id] != memberPool {
			return p.invariantErr(fmt.Sprintf("id %q listed as pool but indexed otherwise", id), len(p.index))
		}
	}
	for _, id := range p.validation {
		if p.index[id] != memberValidation {
			return p.invariantErr(fmt.Sprintf("id %q listed as validation but indexed otherwise", id), len(p.index))
		}
	}
	return nil
}

func (p *Partition) invariantErr(reason string, total int) *InvariantError {
	return &InvariantError{
		Reason:     reason,
		Labeled:    len(p.labeled),
		Pool:       len(p.pool),
		Validation: len(p.validation),
		Total:      total,
	}
}

func copyIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
