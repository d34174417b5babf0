package models

// StopReason indicates why a generation call stopped producing tokens.
type StopReason string

const (
	StopEndOfText   StopReason = "end_of_text"
	StopCancelled   StopReason = "cancelled"
	StopLengthLimit StopReason = "length_limit"
)

// GenerationRequest is a single request against a generation backend.
type GenerationRequest struct {
	// SystemInstruction frames the task for the model.
	SystemInstruction string
	// UserContent is the content the model operates on.
	UserContent string
	// MaxTokens caps the number of generated tokens. Zero means backend default.
	MaxTokens int
	// Temperature is always transmitted to the backend; zero selects
	// deterministic (greedy) sampling, which the classification calls rely on.
	Temperature float64
	// TopP is the nucleus sampling threshold. Zero means backend default.
	TopP float64
	// Streaming requests token-level streaming where the backend supports it.
	Streaming bool
	// Isolated instructs the backend not to let this call perturb any persistent
	// conversation state it may hold for unrelated chat use.
	Isolated bool
}

// GenerationResponse is the result of a completed generation call.
type GenerationResponse struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTimeMs      int64
	StopReason       StopReason
}
