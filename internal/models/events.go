package models

// Stage is one ordered phase of a pipeline run.
type Stage string

const (
	StageTranscribing Stage = "transcribing"
	StageSafetyScan   Stage = "safety_scan"
	StageExtracting   Stage = "extracting_key_ideas_and_summarizing"
	StageEvaluating   Stage = "evaluating_summary_and_transcript"
)

// EventType discriminates the PipelineEvent variants.
type EventType string

const (
	EventStageStarted   EventType = "stage_started"
	EventStageCompleted EventType = "stage_completed"
	EventSafetyBlocked  EventType = "safety_blocked"
	EventCompleted      EventType = "completed"
	EventError          EventType = "error"
)

// PipelineEvent is a tagged variant delivered in strict causal order by one
// pipeline run. Exactly one payload field is set for each type:
//
//   - EventStageStarted: Stage
//   - EventStageCompleted: Stage, Summary
//   - EventSafetyBlocked: Verdict (terminal)
//   - EventCompleted: Result (terminal)
//   - EventError: Err, and Stage when the failure is tied to one (terminal)
type PipelineEvent struct {
	Type    EventType        `json:"type"`
	Stage   Stage            `json:"stage,omitempty"`
	Summary string           `json:"summary,omitempty"`
	Verdict *SafetyVerdict   `json:"verdict,omitempty"`
	Result  *BenchmarkResult `json:"result,omitempty"`
	Err     string           `json:"error,omitempty"`
}

// Terminal reports whether no further events can follow this one.
func (e PipelineEvent) Terminal() bool {
	switch e.Type {
	case EventSafetyBlocked, EventCompleted, EventError:
		return true
	default:
		return false
	}
}
