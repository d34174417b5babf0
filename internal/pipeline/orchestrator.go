// Package pipeline sequences a transcript evaluation run: safety gating,
// merged key-ideas/summary extraction, and merged rubric/evaluation
// assessment, driven against a single generation backend. One run executes
// its stages strictly sequentially and never has two backend calls in
// flight; progress is pushed to the caller as an ordered event stream.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vocalis-dev/vocalis/internal/backend"
	"github.com/vocalis-dev/vocalis/internal/models"
	"github.com/vocalis-dev/vocalis/internal/parsing"
	"github.com/vocalis-dev/vocalis/internal/prompts"
	"github.com/vocalis-dev/vocalis/internal/safety"
)

// Generation defaults, overridable per orchestrator.
const (
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.2
	DefaultTopP        = 0.9
)

// Orchestrator coordinates pipeline runs. One run is active at a time; the
// only mutable state is the active run's cancel handle, so a fresh Run after
// a cancelled one starts clean.
type Orchestrator struct {
	backend backend.Backend
	gate    *safety.Gate
	guard   *safety.Guard
	prompts prompts.Set
	modelID string

	maxTokens   int
	temperature float64
	topP        float64

	mu        sync.Mutex
	cancelRun context.CancelFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPrompts replaces the default prompt-template set.
func WithPrompts(set prompts.Set) Option {
	return func(o *Orchestrator) { o.prompts = set }
}

// WithGate replaces the default safety gate.
func WithGate(g *safety.Gate) Option {
	return func(o *Orchestrator) { o.gate = g }
}

// WithGuard replaces the default injection guard.
func WithGuard(g *safety.Guard) Option {
	return func(o *Orchestrator) { o.guard = g }
}

// WithModelID records the model identifier on emitted results.
func WithModelID(id string) Option {
	return func(o *Orchestrator) { o.modelID = id }
}

// WithSampling overrides the generation sampling parameters.
func WithSampling(maxTokens int, temperature, topP float64) Option {
	return func(o *Orchestrator) {
		o.maxTokens = maxTokens
		o.temperature = temperature
		o.topP = topP
	}
}

// New creates an orchestrator bound to a generation backend.
func New(b backend.Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:     b,
		prompts:     prompts.Default(),
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		topP:        DefaultTopP,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.gate == nil {
		o.gate = safety.NewGate(safety.WithBackend(b, o.prompts.SafetyClassification))
	}
	if o.guard == nil {
		o.guard = safety.NewGuard(b, o.prompts.InjectionClassification)
	}

	return o
}

// Cancel requests a best-effort stop of the active run: its in-flight
// backend call is told to stop and its event stream simply ends, with no
// terminal event. A cancelled run has no well-defined partial result worth
// reporting. With no run active, Cancel is a no-op and later runs are
// unaffected.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	if o.cancelRun != nil {
		o.cancelRun()
	}
	o.mu.Unlock()
	o.backend.Cancel()
}

// Run executes the pipeline for one transcript and returns its ordered event
// stream. The channel is closed after the terminal event (Completed,
// SafetyBlocked, or Error), or without one if the run was cancelled.
func (o *Orchestrator) Run(ctx context.Context, transcript string, opts RunOptions) <-chan models.PipelineEvent {
	runCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	o.cancelRun = cancel
	o.mu.Unlock()

	events := make(chan models.PipelineEvent, 8)

	go func() {
		defer close(events)
		defer func() {
			o.mu.Lock()
			o.cancelRun = nil
			o.mu.Unlock()
			cancel()
		}()
		o.run(runCtx, transcript, opts, events)
	}()

	return events
}

// emit delivers an event unless the run was cancelled. It returns false when
// delivery stopped, which ends the run.
func (o *Orchestrator) emit(ctx context.Context, events chan<- models.PipelineEvent, evt models.PipelineEvent) bool {
	if ctx.Err() != nil {
		return false
	}

	select {
	case events <- evt:
		return true
	case <-ctx.Done():
		return false
	}
}

func (o *Orchestrator) run(ctx context.Context, transcript string, opts RunOptions, events chan<- models.PipelineEvent) {
	start := time.Now()

	// Input error: fail fast before any stage runs.
	if strings.TrimSpace(transcript) == "" {
		o.emit(ctx, events, models.PipelineEvent{
			Type: models.EventError,
			Err:  "empty transcript",
		})
		return
	}

	// Stage 1: the transcript is accepted as-is. Transcription already
	// happened upstream, so no generation call is made here.
	if !o.stageStart(ctx, events, models.StageTranscribing) {
		return
	}
	words := len(strings.Fields(transcript))
	if !o.stageDone(ctx, events, models.StageTranscribing, fmt.Sprintf("transcript accepted (%d words)", words)) {
		return
	}

	// Stage 2: safety gate, with optional injection guard. Blocking here is
	// absolute: no score is ever computed for unsafe content.
	if !o.stageStart(ctx, events, models.StageSafetyScan) {
		return
	}

	verdict := o.gate.Scan(ctx, transcript, opts.UseModelSafetyScan)
	if opts.EnableInjectionGuard {
		verdict = verdict.Merge(o.guard.Scan(ctx, transcript, opts.UseModelSafetyScan))
	}

	if !o.stageDone(ctx, events, models.StageSafetyScan, verdict.Describe()) {
		return
	}

	if !verdict.IsSafe {
		slog.Info("run blocked by safety gate", "violations", len(verdict.Violations))
		o.emit(ctx, events, models.PipelineEvent{
			Type:    models.EventSafetyBlocked,
			Verdict: &verdict,
		})
		return
	}

	// Stage 3: one merged generation call for key ideas and summary. Two
	// logically separate tasks share a single prompt because generation
	// round-trips dominate wall-clock time. A backend failure here is fatal
	// to the run: the summary is a required input to the next stage.
	if !o.stageStart(ctx, events, models.StageExtracting) {
		return
	}

	extractionPrompt := o.prompts.ExtractionInstruction()
	extractResp, err := o.generate(ctx, extractionPrompt, transcript)
	if err != nil {
		o.emit(ctx, events, models.PipelineEvent{
			Type:  models.EventError,
			Stage: models.StageExtracting,
			Err:   fmt.Sprintf("key ideas and summary generation failed: %v", err),
		})
		return
	}

	sections := parsing.ParseSections(extractResp.Text, prompts.KeyIdeasMarker, prompts.SummaryMarker)
	keyIdeas, summary := sections.First, sections.Second

	if !o.stageDone(ctx, events, models.StageExtracting,
		fmt.Sprintf("extracted key ideas (%d chars) and summary (%d chars)", len(keyIdeas), len(summary))) {
		return
	}

	promptTokens := extractResp.PromptTokens
	completionTokens := extractResp.CompletionTokens

	// Stage 4: one merged generation call for whichever assessment sub-tasks
	// are enabled. Skipped entirely, with no call and no events, when both
	// are off.
	var dimensions []models.BenchmarkDimension
	var evaluation *models.EvaluationResult

	if opts.EvaluateRubric || opts.EvaluateTranscript {
		if !o.stageStart(ctx, events, models.StageEvaluating) {
			return
		}

		assessPrompt := o.prompts.AssessmentInstruction(summary, opts.EvaluateRubric, opts.EvaluateTranscript)
		assessResp, err := o.generate(ctx, assessPrompt, transcript)

		stageSummary := ""
		if err != nil {
			// Degrade rather than fail: the caller already has a usable
			// summary by this point.
			slog.Warn("assessment generation failed, degrading", "error", err)
			if opts.EvaluateTranscript {
				evaluation = models.ParseErrorResult("")
			}
			stageSummary = "assessment unavailable (backend error)"
		} else {
			promptTokens += assessResp.PromptTokens
			completionTokens += assessResp.CompletionTokens
			dimensions, evaluation = o.parseAssessment(assessResp.Text, opts)
			stageSummary = describeAssessment(dimensions, evaluation)
		}

		if !o.stageDone(ctx, events, models.StageEvaluating, stageSummary) {
			return
		}
	}

	result := &models.BenchmarkResult{
		RunID:                    uuid.NewString(),
		Transcript:               transcript,
		KeyIdeas:                 keyIdeas,
		Summary:                  summary,
		Dimensions:               dimensions,
		Safety:                   verdict,
		Evaluation:               evaluation,
		RecordingDurationSeconds: opts.RecordingDurationSeconds,
		ProcessingTimeMs:         time.Since(start).Milliseconds(),
		PromptTokens:             promptTokens,
		CompletionTokens:         completionTokens,
		PromptUsed:               extractionPrompt,
		ModelID:                  o.modelID,
		CompletedAt:              time.Now().UTC(),
	}

	o.emit(ctx, events, models.PipelineEvent{
		Type:   models.EventCompleted,
		Result: result,
	})
}

// generate issues one isolated backend call with the orchestrator's sampling
// settings. All backend failures surface as a GenerationError.
func (o *Orchestrator) generate(ctx context.Context, systemInstruction, userContent string) (*models.GenerationResponse, error) {
	if !o.backend.IsReady() {
		return nil, backend.NewGenerationError("generation backend is not ready", nil)
	}

	return o.backend.Generate(ctx, &models.GenerationRequest{
		SystemInstruction: systemInstruction,
		UserContent:       userContent,
		MaxTokens:         o.maxTokens,
		Temperature:       o.temperature,
		TopP:              o.topP,
		Isolated:          true,
	})
}

// parseAssessment splits the merged assessment output into its rubric and
// evaluation parts and parses each. With both sub-tasks enabled the parts
// are separated by the evaluation marker; if the model dropped the marker,
// each tolerant parser runs over the whole text.
func (o *Orchestrator) parseAssessment(raw string, opts RunOptions) ([]models.BenchmarkDimension, *models.EvaluationResult) {
	rubricText, evalText := raw, raw

	if opts.EvaluateRubric && opts.EvaluateTranscript {
		if before, after, ok := parsing.SplitAtMarker(raw, prompts.EvaluationMarker); ok {
			rubricText, evalText = before, after
		}
	}

	var dimensions []models.BenchmarkDimension
	if opts.EvaluateRubric {
		dimensions = parsing.ParseDimensions(rubricText)
	}

	var evaluation *models.EvaluationResult
	if opts.EvaluateTranscript {
		evaluation = parsing.ParseEvaluation(evalText)
	}

	return dimensions, evaluation
}

func describeAssessment(dimensions []models.BenchmarkDimension, evaluation *models.EvaluationResult) string {
	var parts []string
	if len(dimensions) > 0 {
		parts = append(parts, fmt.Sprintf("%d dimensions rated", len(dimensions)))
	}
	if evaluation != nil {
		if evaluation.ParseError {
			parts = append(parts, "evaluation unavailable (parse error)")
		} else {
			parts = append(parts, fmt.Sprintf("clarity %d/10, language %d/10",
				evaluation.ClarityScore, evaluation.LanguageScore))
		}
	}
	return strings.Join(parts, "; ")
}

func (o *Orchestrator) stageStart(ctx context.Context, events chan<- models.PipelineEvent, stage models.Stage) bool {
	return o.emit(ctx, events, models.PipelineEvent{Type: models.EventStageStarted, Stage: stage})
}

func (o *Orchestrator) stageDone(ctx context.Context, events chan<- models.PipelineEvent, stage models.Stage, summary string) bool {
	return o.emit(ctx, events, models.PipelineEvent{Type: models.EventStageCompleted, Stage: stage, Summary: summary})
}
