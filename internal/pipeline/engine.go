// Package pipeline runs ordered analysis stages against a shared per-run State,
// stopping at the first stage that fails.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resumex/internal/observability"
)

// Progress statuses
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Status  string `json:"status"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

// ProgressFunc is called when pipeline progress occurs
type ProgressFunc func(event ProgressEvent)

// Stage is one unit of pipeline work. Run reads upstream slots from the state and
// writes the slot it owns; it must fail rather than read a nil upstream slot.
type Stage interface {
	Name() string
	// Label prefixes the run's error message
	Label() string
	// Completed is the CurrentStage value after success
	Completed() string
	Run(ctx context.Context, s *State) error
}

// Engine executes stage lists. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	log     *zap.Logger
	metrics *observability.Metrics
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithEngineLogger sets the logger
func WithEngineLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics records stage durations
func WithMetrics(m *observability.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an Engine
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("pipeline")
	return e
}

// Run executes stages in order. Once state.Error is set no further stage runs.
// A failing stage has its artifact writes rolled back, so the returned state
// holds exactly what earlier stages produced.
func (e *Engine) Run(ctx context.Context, stages []Stage, state *State) *State {
	log := e.log.With(zap.String("run_id", state.RunID.String()))

	for _, stage := range stages {
		if state.Failed() {
			break
		}
		if err := ctx.Err(); err != nil {
			e.fail(log, state, stage, err)
			break
		}

		snap := state.snapshot()
		e.emit(state, stage.Name(), StatusStarted, stage.Label()+" started")
		log.Debug("stage started", zap.String("stage", stage.Name()))

		start := time.Now()
		err := runStage(ctx, stage, state)
		elapsed := time.Since(start)
		e.metrics.ObserveStage(stage.Name(), elapsed, err)

		if err != nil {
			state.restore(snap)
			e.fail(log, state, stage, err)
			break
		}

		state.CurrentStage = stage.Completed()
		log.Info("stage completed", zap.String("stage", stage.Name()), zap.Duration("elapsed", elapsed))
		e.emit(state, stage.Name(), StatusCompleted, stage.Label()+" completed")
	}
	return state
}

func (e *Engine) fail(log *zap.Logger, state *State, stage Stage, err error) {
	state.Error = fmt.Sprintf("%s failed: %v", stage.Label(), err)
	state.Cause = err
	log.Warn("stage failed", zap.String("stage", stage.Name()), zap.Error(err))
	e.emit(state, stage.Name(), StatusFailed, state.Error)
}

func (e *Engine) emit(state *State, step, status, message string) {
	if state.OnProgress == nil {
		return
	}
	state.OnProgress(ProgressEvent{
		Step:    step,
		Status:  status,
		Message: message,
		RunID:   state.RunID.String(),
	})
}

// runStage converts a stage panic into an error
func runStage(ctx context.Context, stage Stage, state *State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return stage.Run(ctx, state)
}

// PanicError is returned for a stage that panicked
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Value)
}
