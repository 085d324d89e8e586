package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
	"github.com/sbag9697/wealth-face-ai/internal/infra/ai/prompt"
)

const maxTokens = 2048

// Client talks to any OpenAI-compatible chat completions endpoint. Gemini
// exposes one, which is what production points at.
type Client struct {
	*openai.Client
	systemPrompt string
}

// NewClient builds a vision capable client. minRate/maxRate go into the
// system prompt as the declared matchRate bound.
func NewClient(apiKey, baseURL string, timeout time.Duration, minRate, maxRate int) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		Client:       openai.NewClientWithConfig(cfg),
		systemPrompt: prompt.GetSystemPrompt(minRate, maxRate),
	}
}

// Generate implements analysis.Model.
func (c *Client) Generate(ctx context.Context, model, userPrompt string, img analysis.Image) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: userPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    img.DataURI(),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapError(fmt.Errorf("failed to create chat completion with %s: %w", model, err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s returned no choices", analysis.ErrUnparsable, model)
	}
	return resp.Choices[0].Message.Content, nil
}

// ListModels implements analysis.ModelLister.
func (c *Client) ListModels(ctx context.Context) ([]analysis.ModelInfo, error) {
	list, err := c.Client.ListModels(ctx)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to list models: %w", err))
	}
	out := make([]analysis.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		info := analysis.ModelInfo{ID: strings.TrimPrefix(m.ID, "models/"), OwnedBy: m.OwnedBy}
		if m.CreatedAt > 0 {
			info.Created = time.Unix(m.CreatedAt, 0).UTC()
		}
		out = append(out, info)
	}
	return out, nil
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", analysis.ErrQuotaExceeded, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", analysis.ErrQuotaExceeded, err)
	}
	return err
}
