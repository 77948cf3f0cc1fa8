// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package learn implements the active-learning engine: the iterative cycle
// of training a classifier on a growing labeled pool, scoring unlabeled
// candidates with a query strategy, querying the next batch (simulating
// spectroscopic confirmation), and recording the evaluation trace.
//
// Architecture:
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                            Loop                              │
//	│                                                              │
//	│  Training ─► Scoring ─► Selecting ─► Updating ─► Evaluating  │
//	│     ▲                                                 │      │
//	│     └────────────── budget remaining ◄────────────────┘      │
//	│                                                              │
//	│  Partition        classifier.Classifier    strategy.Strategy │
//	│  (labeled/pool/   (fit + score, black      (pure ranking     │
//	│   validation)      box)                     function)        │
//	└──────────────────────────────────────────────────────────────┘
//
// Invariants:
//
//  1. Labeled, Pool, and Validation are disjoint and cover the candidate
//     set after every operation; Validation never changes during a run.
//  2. The labeled set only grows, by exactly the batch actually selected.
//  3. Runs are deterministic: the same dataset, configuration, and seed
//     produce identical query sequences and identical metric traces.
//
// One Loop instance is one experiment. Independent runs may execute
// concurrently; they share only the immutable Dataset.
package learn
