package ai

import (
	"context"
	"time"

	"google.golang.org/genai"

	"dexter/pkg/errors"
	"dexter/pkg/logger"
)

// GeminiGenerator implements Generator using the Google GenAI SDK.
type GeminiGenerator struct {
	client  *genai.Client
	limiter *Limiter
	timeout time.Duration
	log     *logger.Logger
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey string, limiter *Limiter, timeout time.Duration) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key is required")
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	return &GeminiGenerator{
		client:  client,
		limiter: limiter,
		timeout: timeout,
		log:     logger.Get().With("component", "gemini_generator"),
	}, nil
}

var _ Generator = (*GeminiGenerator)(nil)

// Name returns the provider name.
func (g *GeminiGenerator) Name() string { return "gemini" }

func (g *GeminiGenerator) config(req GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	return cfg
}

func geminiUsage(resp *genai.GenerateContentResponse) *Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	return &Usage{
		PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
	}
}

// Generate returns the full completion in one call.
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (string, *Usage, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), g.config(req))
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrGenerationUnavailable, err.Error())
	}

	text := resp.Text()
	if text == "" {
		return "", nil, errors.Wrap(errors.ErrGenerationUnavailable, "gemini returned empty response")
	}

	return text, geminiUsage(resp), nil
}

// GenerateStream emits completion fragments as they arrive from the API.
func (g *GeminiGenerator) GenerateStream(ctx context.Context, req GenerateRequest) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk)
	errCh := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errCh)

		if err := g.limiter.Wait(ctx); err != nil {
			errCh <- err
			return
		}

		var last *genai.GenerateContentResponse
		for resp, err := range g.client.Models.GenerateContentStream(ctx, req.Model, genai.Text(req.Prompt), g.config(req)) {
			if err != nil {
				g.log.Warnf("Gemini stream failed: %v", err)
				errCh <- errors.Wrap(errors.ErrGenerationUnavailable, err.Error())
				return
			}

			last = resp
			text := resp.Text()
			if text == "" {
				continue
			}

			select {
			case chunks <- Chunk{Text: text}:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}

		if usage := geminiUsage(last); usage != nil {
			select {
			case chunks <- Chunk{Usage: usage}:
			case <-ctx.Done():
			}
		}
	}()

	return chunks, errCh
}
