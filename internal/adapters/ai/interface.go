package ai

import "context"

// Tier is the entitlement level required to use a model. Model ids are
// opaque registry keys; the tier is the only thing entitlement compares.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// ModelDescriptor describes one registered model for discovery.
type ModelDescriptor struct {
	ID                string `json:"id"`
	Provider          string `json:"provider"`
	DisplayName       string `json:"displayName"`
	Tier              Tier   `json:"tier"`
	SupportsStreaming bool   `json:"supportsStreaming"`
}

// GenerateRequest is a single text-generation call.
type GenerateRequest struct {
	Model       string // provider-specific model identifier
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Usage tracks token consumption reported by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Chunk is one streamed fragment of generated text.
type Chunk struct {
	Text  string
	Usage *Usage // present on the final chunk when the provider reports it
}

// Generator is the external text-generation capability. Implementations
// must respect ctx cancellation on both entry points.
type Generator interface {
	// Name returns the provider name (e.g. "openai", "gemini").
	Name() string

	// Generate returns the full completion in one call.
	Generate(ctx context.Context, req GenerateRequest) (string, *Usage, error)

	// GenerateStream emits completion fragments on the returned channel.
	// The chunk channel is closed when generation finishes; a terminal
	// failure is delivered on the error channel.
	GenerateStream(ctx context.Context, req GenerateRequest) (<-chan Chunk, <-chan error)
}
