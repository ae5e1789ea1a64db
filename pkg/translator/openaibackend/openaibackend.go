// Package openaibackend adapts github.com/sashabaranov/go-openai to the
// translator.Backend interface, wrapping its HTTP transport through
// pkg/providers/retry so transient network and 5xx failures are retried
// before the chunked translator's own validate/repair loop ever sees them.
//
// Client construction follows the usual go-openai pattern (custom base URL,
// custom HTTP client, bearer auth) narrowed to the single Complete call this
// pipeline needs; there's no streaming or reasoning-model branch, since a
// document-translation pipeline always wants one finished string back per
// prompt.
package openaibackend

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sentinelmt/docxtranslate/internal/config"
	"github.com/sentinelmt/docxtranslate/pkg/providers/retry"
	"go.uber.org/zap"
)

// Client is a translator.Backend backed by an OpenAI-compatible chat
// completion endpoint.
type Client struct {
	client  *openai.Client
	name    string
	modelID string
	log     *zap.Logger
}

// New builds a Client from a model configuration entry, wiring its HTTP
// transport through a retry.Retrier's Transport (retry.DefaultConfig) so
// every request gets the pipeline's standard backoff policy.
func New(cfg config.ModelConfig, log *zap.Logger) (*Client, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("openaibackend: model %q has no API key configured", cfg.Name)
	}
	if log == nil {
		log = zap.NewNop()
	}

	oaiCfg := openai.DefaultConfig(cfg.Key)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}
	retrier := retry.New(retry.DefaultConfig())
	oaiCfg.HTTPClient = &http.Client{Transport: retrier.Transport(http.DefaultTransport)}

	modelID := cfg.ModelID
	if modelID == "" {
		modelID = cfg.Name
	}

	return &Client{
		client:  openai.NewClientWithConfig(oaiCfg),
		name:    cfg.Name,
		modelID: modelID,
		log:     log,
	}, nil
}

// Name returns the configured model name (not necessarily the wire model
// id, which may differ - e.g. a deployment alias).
func (c *Client) Name() string { return c.name }

// Complete sends prompt as a single user message and returns the model's
// reply text along with prompt/completion token usage reported by the API.
func (c *Client) Complete(ctx context.Context, prompt string, maxOutputTokens int, temperature float64) (string, int, int, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxOutputTokens,
		Temperature: float32(temperature),
	})
	if err != nil {
		return "", 0, 0, fmt.Errorf("openaibackend: %s: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", resp.Usage.PromptTokens, resp.Usage.CompletionTokens, fmt.Errorf("openaibackend: %s: empty choices", c.name)
	}
	c.log.Debug("completion received",
		zap.String("model", c.name),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, nil
}
