package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vocalis-dev/vocalis/internal/config"
	"github.com/vocalis-dev/vocalis/internal/models"
	"github.com/vocalis-dev/vocalis/internal/pipeline"
	"github.com/vocalis-dev/vocalis/internal/prompts"
	"github.com/vocalis-dev/vocalis/internal/reporting"
	"github.com/vocalis-dev/vocalis/internal/spinner"
)

type evalFlags struct {
	configPath  string
	backendKind string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	topP        float64

	rubric         bool
	evaluation     bool
	modelSafety    bool
	injectionGuard bool
	duration       float64

	// Whether the corresponding flag was set explicitly on the command line.
	// Config-file toggles only apply to flags left at their defaults.
	rubricChanged         bool
	evaluationChanged     bool
	modelSafetyChanged    bool
	injectionGuardChanged bool

	jsonOutput bool
	parallel   int
}

func newEvalCommand() *cobra.Command {
	flags := &evalFlags{}

	cmd := &cobra.Command{
		Use:   "eval [transcript files...]",
		Short: "Evaluate one or more transcripts",
		Long: `Evaluate reads transcripts from the given files (or stdin when no file is
given) and runs the full pipeline on each: safety scan, key-idea extraction
and summarization, and the optional rubric and clarity/language assessment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.rubricChanged = cmd.Flags().Changed("rubric")
			flags.evaluationChanged = cmd.Flags().Changed("evaluation")
			flags.modelSafetyChanged = cmd.Flags().Changed("model-safety-scan")
			flags.injectionGuardChanged = cmd.Flags().Changed("injection-guard")
			return runEval(cmd.Context(), flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", ".vocalis.yaml", "Project config file")
	cmd.Flags().StringVar(&flags.backendKind, "backend", "", "Backend kind: llama-server, openai, or mock")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "Backend base URL")
	cmd.Flags().StringVar(&flags.model, "model", "", "Model identifier for remote backends")
	cmd.Flags().IntVar(&flags.maxTokens, "max-tokens", 0, "Max tokens per generation call")
	cmd.Flags().Float64Var(&flags.temperature, "temperature", -1, "Sampling temperature")
	cmd.Flags().Float64Var(&flags.topP, "top-p", -1, "Nucleus sampling threshold")

	cmd.Flags().BoolVar(&flags.rubric, "rubric", true, "Rate summary quality across the five dimensions")
	cmd.Flags().BoolVar(&flags.evaluation, "evaluation", true, "Score transcript clarity and language")
	cmd.Flags().BoolVar(&flags.modelSafety, "model-safety-scan", false, "Escalate the safety scan with a model classification pass")
	cmd.Flags().BoolVar(&flags.injectionGuard, "injection-guard", false, "Also scan for prompt-injection attempts")
	cmd.Flags().Float64Var(&flags.duration, "recording-duration", 0, "Recording duration in seconds, carried into the result")

	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Emit the result as JSON")
	cmd.Flags().IntVar(&flags.parallel, "parallel", 1, "Evaluate files concurrently, one backend instance per file")

	return cmd
}

func runEval(ctx context.Context, flags *evalFlags, args []string) error {
	// API keys may live in a .env file next to the project config.
	_ = godotenv.Load()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, flags)

	promptSet := prompts.Default()
	if cfg.PromptsFile != "" {
		promptSet, err = prompts.Load(cfg.PromptsFile)
		if err != nil {
			return err
		}
	}

	transcripts, err := readTranscripts(args)
	if err != nil {
		return err
	}

	opts := runOptionsFromConfig(cfg, flags)

	if len(transcripts) == 1 || flags.parallel <= 1 {
		return evalSequential(ctx, cfg, promptSet, transcripts, opts, flags)
	}
	return evalParallel(ctx, cfg, promptSet, transcripts, opts, flags)
}

func applyFlagOverrides(cfg *config.Config, flags *evalFlags) {
	if flags.backendKind != "" {
		cfg.Backend.Kind = flags.backendKind
	}
	if flags.baseURL != "" {
		if cfg.Backend.Options == nil {
			cfg.Backend.Options = map[string]any{}
		}
		cfg.Backend.Options["base_url"] = flags.baseURL
	}
	if flags.model != "" {
		cfg.Model = flags.model
		if cfg.Backend.Options == nil {
			cfg.Backend.Options = map[string]any{}
		}
		cfg.Backend.Options["model"] = flags.model
	}
	if flags.maxTokens > 0 {
		cfg.MaxTokens = flags.maxTokens
	}
	if flags.temperature >= 0 {
		cfg.Temperature = &flags.temperature
	}
	if flags.topP >= 0 {
		cfg.TopP = &flags.topP
	}
}

func runOptionsFromConfig(cfg *config.Config, flags *evalFlags) pipeline.RunOptions {
	opts := pipeline.RunOptions{
		EvaluateRubric:           flags.rubric,
		EvaluateTranscript:       flags.evaluation,
		UseModelSafetyScan:       flags.modelSafety,
		EnableInjectionGuard:     flags.injectionGuard,
		RecordingDurationSeconds: flags.duration,
	}

	// Config-file toggles apply only to flags the user did not set; an
	// explicit command-line flag always wins.
	if cfg.Pipeline.Rubric != nil && !flags.rubricChanged {
		opts.EvaluateRubric = *cfg.Pipeline.Rubric
	}
	if cfg.Pipeline.Evaluation != nil && !flags.evaluationChanged {
		opts.EvaluateTranscript = *cfg.Pipeline.Evaluation
	}
	if cfg.Pipeline.ModelSafetyScan != nil && !flags.modelSafetyChanged {
		opts.UseModelSafetyScan = *cfg.Pipeline.ModelSafetyScan
	}
	if cfg.Pipeline.InjectionGuard != nil && !flags.injectionGuardChanged {
		opts.EnableInjectionGuard = *cfg.Pipeline.InjectionGuard
	}

	return opts
}

type namedTranscript struct {
	name string
	text string
}

func readTranscripts(args []string) ([]namedTranscript, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read transcript from stdin: %w", err)
		}
		return []namedTranscript{{name: "stdin", text: string(data)}}, nil
	}

	var transcripts []namedTranscript
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read transcript %q: %w", path, err)
		}
		transcripts = append(transcripts, namedTranscript{name: path, text: string(data)})
	}
	return transcripts, nil
}

func newOrchestrator(cfg *config.Config, promptSet prompts.Set) (*pipeline.Orchestrator, error) {
	b, err := config.NewBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	temperature := config.DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	topP := config.DefaultTopP
	if cfg.TopP != nil {
		topP = *cfg.TopP
	}

	return pipeline.New(b,
		pipeline.WithPrompts(promptSet),
		pipeline.WithModelID(cfg.Model),
		pipeline.WithSampling(cfg.MaxTokens, temperature, topP),
	), nil
}

func evalSequential(ctx context.Context, cfg *config.Config, promptSet prompts.Set, transcripts []namedTranscript, opts pipeline.RunOptions, flags *evalFlags) error {
	orch, err := newOrchestrator(cfg, promptSet)
	if err != nil {
		return err
	}

	var firstErr error
	for _, t := range transcripts {
		if len(transcripts) > 1 {
			fmt.Printf("── %s ──\n", t.name)
		}
		if err := consumeEvents(orch.Run(ctx, t.text, opts), flags.jsonOutput, os.Stdout); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// evalParallel runs independent pipelines concurrently. Each run gets its own
// backend instance so backend-call serialization within a run is preserved.
func evalParallel(ctx context.Context, cfg *config.Config, promptSet prompts.Set, transcripts []namedTranscript, opts pipeline.RunOptions, flags *evalFlags) error {
	var outMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(flags.parallel)

	for _, t := range transcripts {
		g.Go(func() error {
			orch, err := newOrchestrator(cfg, promptSet)
			if err != nil {
				return err
			}

			var buf strings.Builder
			runErr := consumeEvents(orch.Run(ctx, t.text, opts), flags.jsonOutput, &buf)

			outMu.Lock()
			fmt.Printf("── %s ──\n%s", t.name, buf.String())
			outMu.Unlock()

			return runErr
		})
	}

	return g.Wait()
}

// consumeEvents renders the run's event stream in arrival order and returns
// the terminal outcome as an error where appropriate.
func consumeEvents(events <-chan models.PipelineEvent, jsonOutput bool, w io.Writer) error {
	interactive := !jsonOutput && w == os.Stdout

	var active *spinner.Spinner
	stopSpinner := func() {
		if active != nil {
			active.Stop()
			active = nil
		}
	}
	defer stopSpinner()

	for evt := range events {
		switch evt.Type {
		case models.EventStageStarted:
			if interactive {
				active = spinner.Start(w, reporting.StageLabels[evt.Stage])
			}

		case models.EventStageCompleted:
			stopSpinner()
			if !jsonOutput {
				fmt.Fprintf(w, "✓ %s: %s\n", reporting.StageLabels[evt.Stage], evt.Summary)
			}

		case models.EventSafetyBlocked:
			stopSpinner()
			if jsonOutput {
				out, err := reporting.FormatJSON(evt.Verdict)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, out)
			} else {
				fmt.Fprint(w, reporting.FormatBlocked(evt.Verdict))
			}
			return &BlockedError{Message: "transcript blocked by safety gate"}

		case models.EventCompleted:
			stopSpinner()
			if jsonOutput {
				out, err := reporting.FormatJSON(evt.Result)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, out)
			} else {
				fmt.Fprint(w, reporting.FormatResult(evt.Result))
			}

		case models.EventError:
			stopSpinner()
			if evt.Stage != "" {
				return fmt.Errorf("pipeline failed at stage %s: %s", evt.Stage, evt.Err)
			}
			return fmt.Errorf("pipeline failed: %s", evt.Err)
		}
	}

	return nil
}
