package build

import (
	"time"

	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

// Outcome is the typed enumeration of final build result states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Trigger names what started a build.
type Trigger string

const (
	TriggerStartup  Trigger = "startup"
	TriggerChange   Trigger = "change"
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

// Result describes one finished build.
type Result struct {
	BuildID   string
	Site      string
	OutputDir string
	Trigger   Trigger
	Start     time.Time
	End       time.Time

	// Stage is the last stage entered; StageDone after a complete run.
	Stage          StageName
	StageDurations map[StageName]time.Duration
	Outcome        Outcome

	Articles int
	Pages    int
	// Orphans counts articles whose topic matches no catalog topic.
	Orphans   int
	Published bool
	// PublishSkipped is set when publishing is disabled.
	PublishSkipped bool
	// BrokenLinks lists page links in article text that point at no page of this build.
	BrokenLinks []string

	// Err is the fatal or canceled stage error, if any.
	Err error
	// Warnings holds non-fatal stage errors.
	Warnings []error
}

func newResult(id string, req Request) *Result {
	return &Result{
		BuildID:        id,
		Site:           req.Site,
		OutputDir:      req.OutputDir,
		Trigger:        req.Trigger,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
	}
}

func (r *Result) fail(se *StageError) {
	r.Err = se
	if se.Kind == StageErrorCanceled {
		r.Outcome = OutcomeCanceled
		return
	}
	r.Outcome = OutcomeFailed
}

func (r *Result) finish() {
	r.End = time.Now()
	if r.Outcome != "" {
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Duration is the wall time of the build.
func (r *Result) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Succeeded reports whether the site was written (success or warning).
func (r *Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeWarning
}

// FailedStage returns the stage that failed, or "" when the build did not fail.
func (r *Result) FailedStage() StageName {
	if r.Err == nil {
		return ""
	}
	return r.Stage
}

// ErrorString returns the fatal error text, or the first warning, or "".
func (r *Result) ErrorString() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	if len(r.Warnings) > 0 {
		return r.Warnings[0].Error()
	}
	return ""
}

func resultLabel(kind StageErrorKind) metrics.ResultLabel {
	switch kind {
	case StageErrorWarning:
		return metrics.ResultWarning
	case StageErrorFatal, StageErrorCanceled:
		return metrics.ResultFatal
	default:
		return metrics.ResultSuccess
	}
}
