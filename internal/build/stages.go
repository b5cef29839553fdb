package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageLoading    StageName = "loading"
	StageIndexing   StageName = "indexing"
	StageComposing  StageName = "composing"
	StageRendering  StageName = "rendering"
	StageWriting    StageName = "writing"
	StagePublishing StageName = "publishing"
	StageDone       StageName = "done"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *buildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// classifyStageError decides the kind of a stage failure. Classified warnings
// such as publish failures do not abort the build.
func classifyStageError(stage StageName, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	// a warning stays a warning even when a step timeout caused it
	if ce, ok := ferrors.AsClassified(err); ok && ce.Severity() == ferrors.SeverityWarning {
		return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
	}
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

type stageDef struct {
	name StageName
	fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled stage.
func runStages(ctx context.Context, bs *buildState, stages []stageDef) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := &StageError{Kind: StageErrorCanceled, Stage: st.name, Err: err}
			bs.result.Stage = st.name
			bs.result.fail(se)
			return se
		}

		bs.result.Stage = st.name
		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		bs.result.StageDurations[st.name] = dur
		bs.recorder.ObserveStageDuration(string(st.name), dur)

		if err == nil {
			bs.recorder.IncStageResult(string(st.name), resultLabel(""))
			bs.logger.Debug("Stage complete",
				logfields.Stage(string(st.name)),
				logfields.DurationMS(float64(dur.Microseconds())/1000))
			continue
		}

		se := classifyStageError(st.name, err)
		bs.recorder.IncStageResult(string(st.name), resultLabel(se.Kind))
		if se.Kind == StageErrorWarning {
			bs.result.Warnings = append(bs.result.Warnings, se)
			continue
		}
		bs.result.fail(se)
		return se
	}
	bs.result.Stage = StageDone
	return nil
}
