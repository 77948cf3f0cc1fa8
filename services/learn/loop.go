// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package learn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/transientml/followup/services/learn/classifier"
	"github.com/transientml/followup/services/learn/strategy"
)

// =============================================================================
// Tracer
// =============================================================================

var loopTracer = otel.Tracer("followup.learn.loop")

// =============================================================================
// Loop State
// =============================================================================

// State is the loop's position in its iteration cycle.
type State int

const (
	// StateReady means the partition is initialized and no iteration has run.
	StateReady State = iota
	// StateTraining means the classifier is being fitted on the labeled set.
	StateTraining
	// StateScoring means the classifier is scoring the pool.
	StateScoring
	// StateSelecting means the query strategy is choosing the next batch.
	StateSelecting
	// StateUpdating means the batch is moving from pool to labeled.
	StateUpdating
	// StateEvaluating means validation metrics are being recorded.
	StateEvaluating
	// StateStopped is terminal; no further mutation occurs.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateTraining:
		return "training"
	case StateScoring:
		return "scoring"
	case StateSelecting:
		return "selecting"
	case StateUpdating:
		return "updating"
	case StateEvaluating:
		return "evaluating"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// =============================================================================
// Checkpointing
// =============================================================================

// RunState is the serializable state of a run after an iteration, used by
// external checkpoint stores.
type RunState struct {
	RunID      string     `json:"run_id"`
	Iteration  int        `json:"iteration"`
	Labeled    []string   `json:"labeled"`
	Pool       []string   `json:"pool"`
	Validation []string   `json:"validation"`
	Snapshots  []Snapshot `json:"snapshots"`
}

// Checkpointer persists RunState between iterations. Implementations live
// outside the core (see services/learn/checkpoint).
type Checkpointer interface {
	Save(ctx context.Context, state RunState) error
}

// =============================================================================
// Loop
// =============================================================================

// RunResult is the output of one experiment run. On failure the snapshots
// collected up to the failing iteration are still populated.
type RunResult struct {
	RunID      string
	Strategy   string
	Iterations int
	FinalState State
	Snapshots  []Snapshot
}

// Loop orchestrates one active-learning experiment:
// train, score the pool, select a batch, query it, evaluate, repeat until
// the budget is exhausted or the pool is empty.
//
// One Loop instance is one experiment. It never self-restarts and holds no
// cross-run state; discard the instance to abort between iterations.
//
// Thread Safety: NOT safe for concurrent use. The loop is a strict
// sequential state machine; parallelism belongs at the level of independent
// runs, each with its own Loop.
type Loop struct {
	cfg     Config
	dataset *Dataset
	part    *Partition
	clf     classifier.Classifier
	strat   strategy.Strategy
	rec     *Recorder
	logger  *slog.Logger
	ckpt    Checkpointer

	runID     string
	state     State
	iteration int
}

// Option customizes a Loop.
type Option func(*Loop)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithCheckpointer persists RunState after every iteration.
func WithCheckpointer(c Checkpointer) Option {
	return func(l *Loop) { l.ckpt = c }
}

// WithRunID overrides the generated run id, e.g. when resuming.
func WithRunID(id string) Option {
	return func(l *Loop) { l.runID = id }
}

// NewLoop assembles an experiment run.
//
// Inputs:
//   - cfg: Validated run configuration.
//   - dataset: The immutable candidate table; may be shared across runs.
//   - part: The run's partition; exclusively owned by this loop.
//   - clf: The classifier adapter; exclusively owned by this loop.
//   - strat: The query strategy.
//
// Outputs:
//   - *Loop: A loop in StateReady.
//   - error: Config validation failure or nil collaborators.
func NewLoop(cfg Config, dataset *Dataset, part *Partition, clf classifier.Classifier,
	strat strategy.Strategy, opts ...Option) (*Loop, error) {

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dataset == nil || part == nil || clf == nil || strat == nil {
		return nil, fmt.Errorf("loop requires dataset, partition, classifier, and strategy")
	}

	l := &Loop{
		cfg:     cfg,
		dataset: dataset,
		part:    part,
		clf:     clf,
		strat:   strat,
		rec:     NewRecorder(),
		runID:   uuid.New().String(),
		state:   StateReady,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With("run_id", l.runID, "strategy", strat.Name())
	return l, nil
}

// State returns the loop's current state.
func (l *Loop) State() State { return l.state }

// Iteration returns the number of completed iterations.
func (l *Loop) Iteration() int { return l.iteration }

// RunID returns the run's unique identifier.
func (l *Loop) RunID() string { return l.runID }

// Recorder exposes the run's metrics trace.
func (l *Loop) Recorder() *Recorder { return l.rec }

// Run executes the experiment to completion.
//
// Description:
//
//	Run drives the state machine Training -> Scoring -> Selecting ->
//	Updating -> Evaluating until the pool empties or the iteration budget
//	is reached. Errors are fatal: the loop transitions to StateStopped and
//	the error is returned wrapped with the iteration index and partition
//	sizes. The RunResult always carries the snapshots recorded so far.
//
// Inputs:
//   - ctx: Checked between iterations; cancellation stops the run cleanly.
//
// Outputs:
//   - *RunResult: Never nil; holds the trace up to the last iteration.
//   - error: nil on normal termination.
func (l *Loop) Run(ctx context.Context) (*RunResult, error) {
	if l.state != StateReady {
		return l.result(), fmt.Errorf("loop already ran (state %s)", l.state)
	}

	ctx, span := loopTracer.Start(ctx, "loop.Run",
		trace.WithAttributes(
			attribute.String("run_id", l.runID),
			attribute.String("strategy", l.strat.Name()),
			attribute.Int("batch_size", l.cfg.BatchSize),
		),
	)
	defer span.End()

	l.logger.Info("run starting",
		"labeled", l.part.LabeledSize(),
		"pool", l.part.PoolSize(),
		"validation", l.part.ValidationSize(),
	)

	for {
		if err := ctx.Err(); err != nil {
			l.state = StateStopped
			span.SetStatus(codes.Error, "cancelled")
			return l.result(), fmt.Errorf("run cancelled at iteration %d: %w", l.iteration, err)
		}

		if err := l.runIteration(ctx); err != nil {
			l.state = StateStopped
			runFailuresTotal.WithLabelValues(l.strat.Name()).Inc()
			span.SetStatus(codes.Error, err.Error())
			l.logger.Error("run failed", "iteration", l.iteration, "error", err)
			return l.result(), l.wrapFatal(err)
		}

		if l.part.PoolSize() == 0 {
			l.logger.Info("pool exhausted", "iterations", l.iteration)
			break
		}
		if l.cfg.MaxIterations > 0 && l.iteration >= l.cfg.MaxIterations {
			l.logger.Info("iteration budget reached", "iterations", l.iteration)
			break
		}
	}

	l.state = StateStopped
	span.SetStatus(codes.Ok, "")
	return l.result(), nil
}

// runIteration performs one full Training..Evaluating cycle.
func (l *Loop) runIteration(ctx context.Context) error {
	ctx, span := loopTracer.Start(ctx, "loop.Iteration",
		trace.WithAttributes(attribute.Int("iteration", l.iteration)),
	)
	defer span.End()

	// Training
	l.state = StateTraining
	labeledIDs := l.part.LabeledIDs()
	features, err := l.dataset.Features(labeledIDs)
	if err != nil {
		return err
	}
	labels, err := l.dataset.Labels(labeledIDs)
	if err != nil {
		return err
	}
	fitStart := time.Now()
	if err := l.clf.Fit(features, labels); err != nil {
		return err
	}
	fitDuration.Observe(time.Since(fitStart).Seconds())

	// Scoring
	l.state = StateScoring
	poolIDs := l.part.PoolIDs()
	poolFeatures, err := l.dataset.Features(poolIDs)
	if err != nil {
		return err
	}
	poolScores, err := l.clf.PredictScore(poolFeatures)
	if err != nil {
		return err
	}

	// Selecting
	l.state = StateSelecting
	batch, err := l.strat.Select(strategy.Request{
		IDs:           poolIDs,
		Features:      poolFeatures,
		Scores:        poolScores,
		BatchSize:     l.cfg.BatchSize,
		Seed:          l.cfg.Seed + int64(l.iteration),
		ShortlistSize: l.cfg.DiversityShortlist,
	})
	if err != nil {
		return err
	}

	// Updating
	l.state = StateUpdating
	if err := l.part.MoveToLabeled(batch); err != nil {
		var nip *NotInPoolError
		if errors.As(err, &nip) {
			nip.Iteration = l.iteration
		}
		return err
	}
	l.iteration++
	queriesTotal.WithLabelValues(l.strat.Name()).Add(float64(len(batch)))

	// Evaluating
	l.state = StateEvaluating
	snap, err := l.evaluate(batch)
	if err != nil {
		return err
	}
	l.rec.Append(snap)
	iterationsTotal.WithLabelValues(l.strat.Name()).Inc()
	poolSizeGauge.WithLabelValues(l.strat.Name()).Set(float64(l.part.PoolSize()))

	l.logger.Info("iteration complete",
		"iteration", snap.Iteration,
		"queried", len(batch),
		"labeled", snap.LabeledSize,
		"pool", snap.PoolSize,
		"accuracy", snap.Accuracy,
		"fom", snap.FoM,
	)

	if l.ckpt != nil {
		if err := l.ckpt.Save(ctx, l.runState()); err != nil {
			return fmt.Errorf("checkpoint iteration %d: %w", snap.Iteration, err)
		}
	}
	return nil
}

// evaluate scores the validation set with the just-trained classifier and
// builds the iteration's snapshot.
func (l *Loop) evaluate(batch []string) (Snapshot, error) {
	valIDs := l.part.ValidationIDs()
	valFeatures, err := l.dataset.Features(valIDs)
	if err != nil {
		return Snapshot{}, err
	}
	truth, err := l.dataset.Labels(valIDs)
	if err != nil {
		return Snapshot{}, err
	}
	pred, err := classifier.Predict(l.clf, valFeatures)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Iteration:   l.iteration,
		Strategy:    l.strat.Name(),
		LabeledSize: l.part.LabeledSize(),
		PoolSize:    l.part.PoolSize(),
		Accuracy:    Accuracy(pred, truth),
		Efficiency:  Efficiency(pred, truth, l.cfg.PositiveClass),
		Purity:      Purity(pred, truth, l.cfg.PositiveClass),
		FoM:         FigureOfMerit(pred, truth, l.cfg.PositiveClass, l.cfg.FoMPenalty),
		PerClass:    ClassReports(pred, truth),
		QueriedIDs:  batch,
	}, nil
}

// wrapFatal adds the reproduction context the error policy requires.
func (l *Loop) wrapFatal(err error) error {
	return fmt.Errorf("iteration %d (labeled=%d pool=%d validation=%d): %w",
		l.iteration, l.part.LabeledSize(), l.part.PoolSize(), l.part.ValidationSize(), err)
}

func (l *Loop) result() *RunResult {
	return &RunResult{
		RunID:      l.runID,
		Strategy:   l.strat.Name(),
		Iterations: l.iteration,
		FinalState: l.state,
		Snapshots:  l.rec.Snapshots(),
	}
}

// runState captures the loop's serializable state for checkpointing.
func (l *Loop) runState() RunState {
	return RunState{
		RunID:      l.runID,
		Iteration:  l.iteration,
		Labeled:    l.part.LabeledIDs(),
		Pool:       l.part.PoolIDs(),
		Validation: l.part.ValidationIDs(),
		Snapshots:  l.rec.Snapshots(),
	}
}

// Resume rebuilds a loop from a checkpointed RunState. The dataset must be
// the one the original run used; the partition and trace are restored, and
// the iteration counter continues from the checkpoint.
func Resume(state RunState, cfg Config, dataset *Dataset, clf classifier.Classifier,
	strat strategy.Strategy, opts ...Option) (*Loop, error) {

	part, err := RestorePartition(state.Labeled, state.Pool, state.Validation)
	if err != nil {
		return nil, fmt.Errorf("restore partition: %w", err)
	}
	for _, id := range append(append(append([]string{}, state.Labeled...), state.Pool...), state.Validation...) {
		if !dataset.Contains(id) {
			return nil, fmt.Errorf("%w: checkpointed id %q", ErrUnknownID, id)
		}
	}

	opts = append(opts, WithRunID(state.RunID))
	l, err := NewLoop(cfg, dataset, part, clf, strat, opts...)
	if err != nil {
		return nil, err
	}
	l.iteration = state.Iteration
	for _, s := range state.Snapshots {
		l.rec.Append(s)
	}
	return l, nil
}
