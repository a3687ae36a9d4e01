package ai

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"dexter/pkg/errors"
	"dexter/pkg/logger"
)

// OpenAIGenerator implements Generator using the official OpenAI Go SDK.
type OpenAIGenerator struct {
	client  openai.Client
	limiter *Limiter
	timeout time.Duration
	log     *logger.Logger
}

// NewOpenAIGenerator creates an OpenAI-backed generator.
func NewOpenAIGenerator(apiKey string, limiter *Limiter, timeout time.Duration) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key is required")
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIGenerator{
		client:  client,
		limiter: limiter,
		timeout: timeout,
		log:     logger.Get().With("component", "openai_generator"),
	}, nil
}

var _ Generator = (*OpenAIGenerator)(nil)

// Name returns the provider name.
func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) params(req GenerateRequest) openai.ChatCompletionNewParams {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	return params
}

// Generate returns the full completion in one call.
func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) (string, *Usage, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(ctx, g.params(req))
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrGenerationUnavailable, err.Error())
	}
	if len(resp.Choices) == 0 {
		return "", nil, errors.Wrap(errors.ErrGenerationUnavailable, "openai returned no choices")
	}

	usage := &Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}

	return resp.Choices[0].Message.Content, usage, nil
}

// GenerateStream emits completion fragments as they arrive from the API.
func (g *OpenAIGenerator) GenerateStream(ctx context.Context, req GenerateRequest) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk)
	errCh := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errCh)

		if err := g.limiter.Wait(ctx); err != nil {
			errCh <- err
			return
		}

		stream := g.client.Chat.Completions.NewStreaming(ctx, g.params(req))
		defer stream.Close()

		for stream.Next() {
			part := stream.Current()
			if len(part.Choices) == 0 {
				continue
			}
			delta := part.Choices[0].Delta.Content
			if delta == "" {
				continue
			}

			select {
			case chunks <- Chunk{Text: delta}:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}

		if err := stream.Err(); err != nil {
			g.log.Warnf("OpenAI stream failed: %v", err)
			errCh <- errors.Wrap(errors.ErrGenerationUnavailable, err.Error())
		}
	}()

	return chunks, errCh
}
