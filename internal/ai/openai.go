package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIConfig controls the OpenAI-compatible provider. BaseURL allows
// pointing chat and embeddings at any compatible endpoint.
type OpenAIConfig struct {
	APIKey            string
	BaseURL           string
	ChatModel         string
	EmbedModel        string
	EmbeddingDim      int
	SystemInstruction string
}

// OpenAIClient implements Client against an OpenAI-compatible API.
type OpenAIClient struct {
	client openai.Client
	cfg    OpenAIConfig
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-3-small"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: c.cfg.EmbedModel,
	}
	if c.cfg.EmbeddingDim > 0 {
		params.Dimensions = openai.Int(int64(c.cfg.EmbeddingDim))
	}

	resp, err := c.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai embeddings: no embedding returned")
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt ChatMessage, history []ChatMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if c.cfg.SystemInstruction != "" {
		messages = append(messages, openai.SystemMessage(c.cfg.SystemInstruction))
	}
	for _, msg := range history {
		messages = append(messages, toOpenAIMessage(msg))
	}
	messages = append(messages, toOpenAIMessage(prompt))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    c.cfg.ChatModel,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai chat completion: no choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}

func toOpenAIMessage(msg ChatMessage) openai.ChatCompletionMessageParamUnion {
	if msg.Role == ChatRoleAssistant {
		return openai.AssistantMessage(msg.Content)
	}
	return openai.UserMessage(msg.Content)
}
