// Package backend defines the generation backend contract consumed by the
// pipeline, plus the concrete adapters: a llama.cpp server adapter, an
// OpenAI-compatible remote adapter, and a scripted mock for tests. The
// pipeline is indifferent to which implementation it is handed.
package backend

import (
	"context"
	"fmt"

	"github.com/vocalis-dev/vocalis/internal/models"
)

//go:generate mockgen -destination=mocks/backend.go -package=mocks github.com/vocalis-dev/vocalis/internal/backend Backend

// Backend is the generation backend contract.
//
// Implementations serialize generation: at most one call is in flight per
// instance, and the pipeline never issues concurrent calls against the same
// instance. Cancel is idempotent and safe with no call in flight.
type Backend interface {
	// IsReady reports whether the backend can serve a generation call
	// (model loaded, credentials present).
	IsReady() bool

	// Generate runs one generation call to completion.
	Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResponse, error)

	// Cancel requests a best-effort stop of the in-flight call, if any.
	Cancel()
}

// GenerationError is the single error kind surfaced for backend failures:
// not-ready, timeout, and transport/inference errors all collapse into it.
// Callers branch on the presence of the type, not on finer granularity.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationError wraps err with a human-readable message.
func NewGenerationError(message string, err error) *GenerationError {
	return &GenerationError{Message: message, Err: err}
}
