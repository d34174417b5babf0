package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/vocalis-dev/vocalis/internal/models"
)

// OpenAIOptions configures an OpenAIBackend.
type OpenAIOptions struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1". Any
	// OpenAI-compatible endpoint works.
	BaseURL string `mapstructure:"base_url"`
	// APIKey authenticates requests. The adapter reports not-ready without one.
	APIKey string `mapstructure:"api_key"`
	// Model is the model identifier sent with each request.
	Model string `mapstructure:"model"`
	// TimeoutSec bounds a single generation call. Zero means no client timeout.
	TimeoutSec int `mapstructure:"timeout_sec"`
}

// OpenAIBackend drives a remote OpenAI-compatible chat-completions API.
// Requests are serialized per instance to keep cost and ordering predictable,
// even though the remote service could parallelize.
type OpenAIBackend struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client

	mu       sync.Mutex
	inflight context.CancelFunc
}

// NewOpenAIBackend creates a remote chat-completions adapter.
func NewOpenAIBackend(opts OpenAIOptions) *OpenAIBackend {
	client := &http.Client{}
	if opts.TimeoutSec > 0 {
		client.Timeout = time.Duration(opts.TimeoutSec) * time.Second
	}

	return &OpenAIBackend{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		model:   opts.Model,
		client:  client,
	}
}

// Model returns the configured model identifier.
func (b *OpenAIBackend) Model() string { return b.model }

// IsReady reports whether the adapter has credentials to make requests.
func (b *OpenAIBackend) IsReady() bool {
	return b.apiKey != "" && b.baseURL != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	// Temperature is always sent: zero means deterministic sampling, and
	// omitting the field would make the API fall back to its default of 1.
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (b *OpenAIBackend) Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResponse, error) {
	if !b.IsReady() {
		return nil, NewGenerationError("remote backend is not configured (missing API key or base URL)", nil)
	}

	callCtx, err := b.beginCall(ctx)
	if err != nil {
		return nil, err
	}
	defer b.endCall()

	start := time.Now()

	// Each request is a fresh stateless conversation, so an isolated call
	// needs no special handling here: nothing persists between requests.
	body := chatCompletionRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemInstruction},
			{Role: "user", Content: req.UserContent},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, NewGenerationError("failed to encode chat request", err)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, NewGenerationError("failed to build chat request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		if callCtx.Err() == context.Canceled {
			return &models.GenerationResponse{
				StopReason:  models.StopCancelled,
				TotalTimeMs: time.Since(start).Milliseconds(),
			}, nil
		}
		return nil, NewGenerationError("chat completion request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, NewGenerationError(
			fmt.Sprintf("chat completion returned %d: %s", resp.StatusCode, string(data)), nil)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, NewGenerationError("failed to decode chat response", err)
	}

	if len(completion.Choices) == 0 {
		return nil, NewGenerationError("chat completion returned no choices", nil)
	}

	choice := completion.Choices[0]
	stopReason := models.StopEndOfText
	if choice.FinishReason == "length" {
		stopReason = models.StopLengthLimit
	}

	return &models.GenerationResponse{
		Text:             choice.Message.Content,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
		TotalTimeMs:      time.Since(start).Milliseconds(),
		StopReason:       stopReason,
	}, nil
}

// Cancel stops the in-flight generation, if any.
func (b *OpenAIBackend) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inflight != nil {
		b.inflight()
	}
}

func (b *OpenAIBackend) beginCall(ctx context.Context) (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inflight != nil {
		return nil, NewGenerationError("a generation call is already in flight", nil)
	}

	callCtx, cancel := context.WithCancel(ctx)
	b.inflight = cancel
	return callCtx, nil
}

func (b *OpenAIBackend) endCall() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inflight != nil {
		b.inflight()
		b.inflight = nil
	}
}
