package pipeline

// RunOptions selects which sub-tasks a run performs. The merge boundary for
// the assessment call follows from which of the two evaluation sub-tasks are
// enabled: both share one generation call when both are on, and the call is
// skipped entirely when both are off.
type RunOptions struct {
	// EvaluateRubric requests the five-dimension summary-quality rubric.
	EvaluateRubric bool
	// EvaluateTranscript requests the clarity/language evaluation.
	EvaluateTranscript bool
	// UseModelSafetyScan escalates the safety gate with a model
	// classification pass. Off by default for latency.
	UseModelSafetyScan bool
	// EnableInjectionGuard also scans for instruction-override attempts.
	EnableInjectionGuard bool
	// RecordingDurationSeconds is upstream metadata carried into the result.
	RecordingDurationSeconds float64
}

// DefaultRunOptions enables both evaluation sub-tasks and keeps the
// model-tier scans off.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		EvaluateRubric:     true,
		EvaluateTranscript: true,
	}
}
