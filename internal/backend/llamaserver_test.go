package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocalis-dev/vocalis/internal/models"
)

func newLlamaTestServer(t *testing.T, handler http.HandlerFunc) *LlamaServerBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLlamaServerBackend(LlamaServerOptions{BaseURL: srv.URL})
}

func TestLlamaServerGenerate(t *testing.T) {
	var gotReq llamaCompletionRequest

	b := newLlamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/completion", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(llamaCompletionResponse{
			Content:         "the summary text",
			TokensEvaluated: 120,
			TokensPredicted: 34,
			StoppedEOS:      true,
		})
	})

	resp, err := b.Generate(context.Background(), &models.GenerationRequest{
		SystemInstruction: "Summarize the transcript.",
		UserContent:       "hello world",
		MaxTokens:         512,
		Temperature:       0.2,
		TopP:              0.9,
	})
	require.NoError(t, err)

	assert.Equal(t, "the summary text", resp.Text)
	assert.Equal(t, 120, resp.PromptTokens)
	assert.Equal(t, 34, resp.CompletionTokens)
	assert.Equal(t, models.StopEndOfText, resp.StopReason)

	assert.Equal(t, "Summarize the transcript.\n\nhello world", gotReq.Prompt)
	assert.Equal(t, 512, gotReq.NPredict)
	assert.True(t, gotReq.CachePrompt, "non-isolated calls keep the server prompt cache")
}

func TestLlamaServerIsolatedDisablesPromptCache(t *testing.T) {
	var gotReq llamaCompletionRequest

	b := newLlamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(llamaCompletionResponse{Content: "ok"})
	})

	_, err := b.Generate(context.Background(), &models.GenerationRequest{
		UserContent: "classify this",
		Isolated:    true,
	})
	require.NoError(t, err)
	assert.False(t, gotReq.CachePrompt)
}

func TestLlamaServerZeroTemperatureOnWire(t *testing.T) {
	var rawBody map[string]any

	b := newLlamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawBody))
		json.NewEncoder(w).Encode(llamaCompletionResponse{Content: "SAFE"})
	})

	_, err := b.Generate(context.Background(), &models.GenerationRequest{
		SystemInstruction: "classify this transcript",
		UserContent:       "hello",
		MaxTokens:         256,
		Temperature:       0,
		Isolated:          true,
	})
	require.NoError(t, err)

	// A deterministic classification call must pin the server's sampling:
	// without the field the server would apply its own nonzero default.
	temp, present := rawBody["temperature"]
	require.True(t, present, "temperature must be sent even when zero")
	assert.EqualValues(t, 0, temp)

	_, present = rawBody["top_p"]
	assert.False(t, present, "zero top_p keeps the backend default")
}

func TestLlamaServerLengthLimitStopReason(t *testing.T) {
	b := newLlamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(llamaCompletionResponse{
			Content:      "truncated outp",
			StoppedLimit: true,
		})
	})

	resp, err := b.Generate(context.Background(), &models.GenerationRequest{UserContent: "x"})
	require.NoError(t, err)
	assert.Equal(t, models.StopLengthLimit, resp.StopReason)
}

func TestLlamaServerErrorStatus(t *testing.T) {
	b := newLlamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	})

	_, err := b.Generate(context.Background(), &models.GenerationRequest{UserContent: "x"})
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Message, "503")
}

func TestLlamaServerIsReady(t *testing.T) {
	healthy := newLlamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.True(t, healthy.IsReady())

	loading := newLlamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.False(t, loading.IsReady())

	unreachable := NewLlamaServerBackend(LlamaServerOptions{BaseURL: "http://127.0.0.1:1"})
	assert.False(t, unreachable.IsReady())
}

func TestLlamaServerSingleFlight(t *testing.T) {
	block := make(chan struct{})
	release := sync.OnceFunc(func() { close(block) })
	t.Cleanup(release)

	started := make(chan struct{})
	// The handler serves every call; only the first may close the channel.
	markStarted := sync.OnceFunc(func() { close(started) })
	b := newLlamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		markStarted()
		<-block
		json.NewEncoder(w).Encode(llamaCompletionResponse{Content: "done"})
	})

	firstErr := make(chan error, 1)
	go func() {
		_, err := b.Generate(context.Background(), &models.GenerationRequest{UserContent: "first"})
		firstErr <- err
	}()

	<-started
	_, err := b.Generate(context.Background(), &models.GenerationRequest{UserContent: "second"})
	require.Error(t, err, "a second call while one is in flight fails fast")
	assert.Contains(t, err.Error(), "already in flight")

	release()
	require.NoError(t, <-firstErr)

	// The slot is free again once the first call finished.
	_, err = b.Generate(context.Background(), &models.GenerationRequest{UserContent: "third"})
	require.NoError(t, err)
}

func TestLlamaServerCancelInFlight(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})

	b := newLlamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	// Registered after newLlamaTestServer so this cleanup runs before
	// srv.Close (LIFO); otherwise Close waits forever on the blocked handler.
	t.Cleanup(func() { close(block) })

	type outcome struct {
		resp *models.GenerationResponse
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := b.Generate(context.Background(), &models.GenerationRequest{UserContent: "x"})
		done <- outcome{resp, err}
	}()

	<-started
	b.Cancel()

	got := <-done
	require.NoError(t, got.err)
	resp := got.resp
	assert.Equal(t, models.StopCancelled, resp.StopReason)
	assert.Empty(t, resp.Text)
}
