// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package strategy implements the query strategies that rank unlabeled
// candidates by the value of spectroscopically confirming them.
//
// Strategy Contract:
//
//	Strategies MUST:
//	1. Be pure functions of their Request - no hidden state, no I/O
//	2. Return exactly k distinct pool ids, or all remaining ids when the
//	   pool holds fewer than k
//	3. Break score ties by ascending candidate id so runs are reproducible
//	4. Never mutate the Request's slices
//
//	Strategies MUST NOT:
//	1. Access the oracle labels
//	2. Retain state between Select calls
package strategy

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrUnknownStrategy is returned when looking up an unregistered name.
	ErrUnknownStrategy = errors.New("unknown query strategy")

	// ErrBadRequest is returned for malformed Select inputs.
	ErrBadRequest = errors.New("invalid strategy request")
)

// -----------------------------------------------------------------------------
// Interface
// -----------------------------------------------------------------------------

// Request carries everything a strategy may rank on. The slices IDs,
// Features, and Scores are aligned row-for-row and must be treated as
// read-only.
type Request struct {
	// IDs are the current pool ids, in pool order.
	IDs []string

	// Features is the pool feature matrix, aligned with IDs.
	Features [][]float64

	// Scores is the classifier's per-class score output on the pool,
	// aligned with IDs. Higher means more likely.
	Scores [][]float64

	// BatchSize is the requested number of ids, k.
	BatchSize int

	// Seed drives any randomness. The loop derives a fresh value per
	// iteration so a fixed run seed still yields distinct draws.
	Seed int64

	// ShortlistSize is the uncertainty shortlist length for the diversity
	// strategy; ignored by the others. Zero means 10x BatchSize.
	ShortlistSize int
}

// Strategy ranks pool candidates and selects the next query batch.
type Strategy interface {
	// Name returns the configuration name of the strategy.
	Name() string

	// Select returns min(BatchSize, len(IDs)) distinct ids from the pool.
	Select(req Request) ([]string, error)
}

// validate checks the structural part of a request shared by all strategies.
func validate(req Request) error {
	if req.BatchSize < 1 {
		return fmt.Errorf("%w: batch size %d", ErrBadRequest, req.BatchSize)
	}
	if len(req.Features) != len(req.IDs) || len(req.Scores) != len(req.IDs) {
		return fmt.Errorf("%w: ids/features/scores not aligned (%d/%d/%d)",
			ErrBadRequest, len(req.IDs), len(req.Features), len(req.Scores))
	}
	return nil
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// Registry maps configuration names to strategy constructors.
//
// Thread Safety: Safe for concurrent use via read-write mutex.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]func() Strategy
}

// NewRegistry returns a registry pre-populated with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]func() Strategy)}
	r.Register(NameRandom, func() Strategy { return Random{} })
	r.Register(NameMargin, func() Strategy { return Margin{} })
	r.Register(NameEntropy, func() Strategy { return Entropy{} })
	r.Register(NameLeastConfident, func() Strategy { return LeastConfident{} })
	r.Register(NameDiversity, func() Strategy { return Diversity{} })
	return r
}

// Register adds a constructor under name, replacing any previous entry.
func (r *Registry) Register(name string, build func() Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = build
}

// New constructs the strategy registered under name.
func (r *Registry) New(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	build, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return build(), nil
}

// Names returns the registered strategy names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Built-in strategy names recognized in configuration files.
const (
	NameRandom         = "random"
	NameMargin         = "uncertainty-margin"
	NameEntropy        = "uncertainty-entropy"
	NameLeastConfident = "least-confident"
	NameDiversity      = "diversity"
)

// -----------------------------------------------------------------------------
// Shared ranking helpers
// -----------------------------------------------------------------------------

// ranked pairs a pool index with its strategy score.
type ranked struct {
	idx   int
	score float64
}

// sortRanked orders by descending score, ties broken by ascending id.
func sortRanked(rows []ranked, ids []string) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return ids[rows[i].idx] < ids[rows[j].idx]
	})
}

// take returns the ids of the first k ranked rows.
func take(rows []ranked, ids []string, k int) []string {
	out := make([]string, 0, k)
	for _, r := range rows[:k] {
		out = append(out, ids[r.idx])
	}
	return out
}

// allIDs returns a copy of every pool id, used when the pool is smaller
// than the requested batch. The batch shrinks; this is not an error.
func allIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
