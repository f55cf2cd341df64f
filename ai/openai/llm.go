package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/stophobia/restai/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LLM implements ai.LLM using OpenAI-compatible chat APIs.
type LLM struct {
	client llms.Model
	logger *slog.Logger
}

// newLLM is an internal constructor that returns the concrete type.
func newLLM(config *ai.Config) (*LLM, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return &LLM{
		client: client,
		logger: slog.Default().With("component", "openai-llm"),
	}, nil
}

// NewLLM creates a new chat LLM using the provided configuration.
//
// Returns ai.LLM interface to enforce abstraction.
func NewLLM(config *ai.Config) (ai.LLM, error) {
	return newLLM(config)
}

// Generate produces an answer for prompt, shaped by the optional system
// instruction.
func (l *LLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	l.logger.Debug("generating completion", "promptLength", len(prompt), "hasSystem", system != "")

	var content []llms.MessageContent
	if system != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		})
	}
	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(prompt)},
	})

	resp, err := l.client.GenerateContent(ctx, content)
	if err != nil {
		l.logger.Error("completion failed", "err", err)
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}

	return resp.Choices[0].Content, nil
}
