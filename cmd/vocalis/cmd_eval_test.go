package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocalis-dev/vocalis/internal/config"
)

func boolPtr(b bool) *bool { return &b }

func TestRunOptionsFromConfigTogglePrecedence(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Rubric = boolPtr(false)
	cfg.Pipeline.InjectionGuard = boolPtr(true)

	// Flags at their defaults: the config file decides.
	flags := &evalFlags{rubric: true, evaluation: true}
	opts := runOptionsFromConfig(cfg, flags)
	assert.False(t, opts.EvaluateRubric, "config toggle applies to an untouched flag")
	assert.True(t, opts.EnableInjectionGuard)
	assert.True(t, opts.EvaluateTranscript, "unset config toggle keeps the flag value")

	// An explicit flag wins even when its value equals the default.
	flags.rubricChanged = true
	flags.injectionGuardChanged = true
	opts = runOptionsFromConfig(cfg, flags)
	assert.True(t, opts.EvaluateRubric, "explicit --rubric=true beats rubric: false in config")
	assert.False(t, opts.EnableInjectionGuard, "explicit --injection-guard=false beats the config")
}

func TestEvalCommandMarksChangedFlags(t *testing.T) {
	cmd := newEvalCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--rubric=true", "--model-safety-scan"}))

	assert.True(t, cmd.Flags().Changed("rubric"))
	assert.True(t, cmd.Flags().Changed("model-safety-scan"))
	assert.False(t, cmd.Flags().Changed("evaluation"))
	assert.False(t, cmd.Flags().Changed("injection-guard"))
}
