package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vocalis-dev/vocalis/internal/models"
)

// MockBackend is a scripted in-memory backend for tests and dry runs. It
// returns queued responses in order, or a generic echo response when the
// queue is empty, and records every request it receives.
type MockBackend struct {
	mu        sync.Mutex
	responses []mockResponse
	requests  []models.GenerationRequest
	cancelled bool
	ready     bool
}

type mockResponse struct {
	text string
	err  error
}

// NewMockBackend creates a ready mock backend with no scripted responses.
func NewMockBackend() *MockBackend {
	return &MockBackend{ready: true}
}

// QueueResponse appends a scripted successful response.
func (m *MockBackend) QueueResponse(text string) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{text: text})
	return m
}

// QueueError appends a scripted failure.
func (m *MockBackend) QueueError(err error) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{err: err})
	return m
}

// SetReady controls what IsReady reports.
func (m *MockBackend) SetReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = ready
}

// Requests returns a copy of every request received so far.
func (m *MockBackend) Requests() []models.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.GenerationRequest{}, m.requests...)
}

// CallCount returns the number of Generate calls received.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Cancelled reports whether Cancel was called.
func (m *MockBackend) Cancelled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}

func (m *MockBackend) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *MockBackend) Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewGenerationError("context done before generation", err)
	}

	m.mu.Lock()
	m.requests = append(m.requests, *req)

	var next *mockResponse
	if len(m.responses) > 0 {
		next = &m.responses[0]
		m.responses = m.responses[1:]
	}
	m.mu.Unlock()

	start := time.Now()

	if next == nil {
		return &models.GenerationResponse{
			Text:        fmt.Sprintf("Mock response for: %s", req.UserContent),
			StopReason:  models.StopEndOfText,
			TotalTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	if next.err != nil {
		return nil, next.err
	}

	return &models.GenerationResponse{
		Text:             next.text,
		PromptTokens:     len(req.SystemInstruction+req.UserContent) / 4,
		CompletionTokens: len(next.text) / 4,
		TotalTimeMs:      time.Since(start).Milliseconds(),
		StopReason:       models.StopEndOfText,
	}, nil
}

func (m *MockBackend) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = true
}
