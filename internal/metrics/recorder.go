package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Pipeline stage names.
const (
	StageResolve     = "resolve"
	StageMaterialize = "materialize"
	StageSanitize    = "sanitize"
	StageRender      = "render"
	StageNotify      = "notify"
	StageWiki        = "wiki"
)

// Recorder defines observability hooks for the ingestion pipeline and event
// queue. All NoopRecorder methods are safe to call.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObservePipelineDuration(d time.Duration)
	IncPipelineOutcome(result ResultLabel)
	ObserveCloneDuration(d time.Duration, success bool)
	AddRemovedPaths(n int)
	IncEventPublished(kind string)
	IncEventDropped(kind string)
	IncEventHandled(kind string, result ResultLabel)
	SetQueueDepth(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObservePipelineDuration(time.Duration)      {}
func (NoopRecorder) IncPipelineOutcome(ResultLabel)             {}
func (NoopRecorder) ObserveCloneDuration(time.Duration, bool)   {}
func (NoopRecorder) AddRemovedPaths(int)                        {}
func (NoopRecorder) IncEventPublished(string)                   {}
func (NoopRecorder) IncEventDropped(string)                     {}
func (NoopRecorder) IncEventHandled(string, ResultLabel)        {}
func (NoopRecorder) SetQueueDepth(int)                          {}
