package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vocalis-dev/vocalis/internal/models"
)

// LlamaServerOptions configures a LlamaServerBackend.
type LlamaServerOptions struct {
	// BaseURL is the llama.cpp server address, e.g. "http://127.0.0.1:8080".
	BaseURL string `mapstructure:"base_url"`
	// TimeoutSec bounds a single generation call. Zero means no client timeout.
	TimeoutSec int `mapstructure:"timeout_sec"`
}

// LlamaServerBackend drives a local llama.cpp server over its /completion
// endpoint. One generation is in flight at a time; a second Generate while
// one is outstanding fails fast.
type LlamaServerBackend struct {
	baseURL string
	client  *http.Client

	mu       sync.Mutex
	inflight context.CancelFunc
}

// NewLlamaServerBackend creates a llama.cpp server adapter.
func NewLlamaServerBackend(opts LlamaServerOptions) *LlamaServerBackend {
	client := &http.Client{}
	if opts.TimeoutSec > 0 {
		client.Timeout = time.Duration(opts.TimeoutSec) * time.Second
	}

	return &LlamaServerBackend{
		baseURL: opts.BaseURL,
		client:  client,
	}
}

// IsReady probes the server's /health endpoint.
func (b *LlamaServerBackend) IsReady() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

type llamaCompletionRequest struct {
	Prompt   string `json:"prompt"`
	NPredict int    `json:"n_predict,omitempty"`
	// Temperature is always sent: zero means greedy sampling, and omitting
	// the field would make the server substitute its own nonzero default.
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p,omitempty"`
	CachePrompt bool    `json:"cache_prompt"`
	Stream      bool    `json:"stream"`
}

type llamaCompletionResponse struct {
	Content         string `json:"content"`
	TokensEvaluated int    `json:"tokens_evaluated"`
	TokensPredicted int    `json:"tokens_predicted"`
	StoppedEOS      bool   `json:"stopped_eos"`
	StoppedLimit    bool   `json:"stopped_limit"`
}

func (b *LlamaServerBackend) Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResponse, error) {
	callCtx, err := b.beginCall(ctx)
	if err != nil {
		return nil, err
	}
	defer b.endCall()

	start := time.Now()

	body := llamaCompletionRequest{
		Prompt:      req.SystemInstruction + "\n\n" + req.UserContent,
		NPredict:    req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		// An isolated call must not reuse or perturb cached conversation
		// state on the server.
		CachePrompt: !req.Isolated,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, NewGenerationError("failed to encode completion request", err)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, b.baseURL+"/completion", bytes.NewReader(payload))
	if err != nil {
		return nil, NewGenerationError("failed to build completion request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		if callCtx.Err() == context.Canceled {
			return &models.GenerationResponse{
				StopReason:  models.StopCancelled,
				TotalTimeMs: time.Since(start).Milliseconds(),
			}, nil
		}
		return nil, NewGenerationError("llama server request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, NewGenerationError(
			fmt.Sprintf("llama server returned %d: %s", resp.StatusCode, string(data)), nil)
	}

	var completion llamaCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, NewGenerationError("failed to decode completion response", err)
	}

	stopReason := models.StopEndOfText
	if completion.StoppedLimit {
		stopReason = models.StopLengthLimit
	}

	slog.Debug("llama server completion finished",
		"promptTokens", completion.TokensEvaluated,
		"completionTokens", completion.TokensPredicted,
		"stopReason", stopReason)

	return &models.GenerationResponse{
		Text:             completion.Content,
		PromptTokens:     completion.TokensEvaluated,
		CompletionTokens: completion.TokensPredicted,
		TotalTimeMs:      time.Since(start).Milliseconds(),
		StopReason:       stopReason,
	}, nil
}

// Cancel stops the in-flight generation, if any. Safe to call at any time.
func (b *LlamaServerBackend) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inflight != nil {
		b.inflight()
	}
}

func (b *LlamaServerBackend) beginCall(ctx context.Context) (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inflight != nil {
		return nil, NewGenerationError("a generation call is already in flight", nil)
	}

	callCtx, cancel := context.WithCancel(ctx)
	b.inflight = cancel
	return callCtx, nil
}

func (b *LlamaServerBackend) endCall() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inflight != nil {
		b.inflight()
		b.inflight = nil
	}
}
