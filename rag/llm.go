package rag

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"go-rag-assistant/logger"
)

// Default configuration values.
const (
	DefaultLLMModel   = "deepseek-r1"
	DefaultLLMTimeout = 60 * time.Second
)

// LLMConfig holds configuration for the chat-completions client.
type LLMConfig struct {
	// BaseURL is the API root; requests go to {BaseURL}/v1/chat/completions (required).
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Model defaults to DefaultLLMModel.
	Model string

	// Timeout bounds a single request (default: 60s). There are no retries.
	Timeout time.Duration

	// Prompts defaults to DefaultPrompts().
	Prompts *Prompts
}

// LLMClient asks an OpenAI-compatible chat-completions endpoint to answer a
// query from a supplied context.
type LLMClient struct {
	client  openai.Client
	baseURL string
	model   string
	prompts Prompts
}

func NewLLMClient(cfg LLMConfig) (*LLMClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%w: LLM base URL is required", ErrInvalidArgument)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	prompts := DefaultPrompts()
	if cfg.Prompts != nil {
		prompts = *cfg.Prompts
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL + "/v1/"),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		logger.Warn("no API key configured for the LLM endpoint, requests are sent without Authorization")
		// drop any key picked up from OPENAI_API_KEY
		opts = append(opts, option.WithHeaderDel("authorization"))
	}

	logger.Info("LLM client ready: model %q at %s", cfg.Model, baseURL)
	return &LLMClient{
		client:  openai.NewClient(opts...),
		baseURL: baseURL,
		model:   cfg.Model,
		prompts: prompts,
	}, nil
}

// ModelName returns the configured model identifier.
func (c *LLMClient) ModelName() string {
	return c.model
}

// Generate sends the query and context and returns the trimmed answer. Errors
// wrap ErrRequestFailed or ErrNoAnswer.
func (c *LLMClient) Generate(ctx context.Context, query, contextText string, opts AnswerOptions) (string, error) {
	logger.Debug("sending request to %s/v1/chat/completions with model %s", c.baseURL, c.model)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.prompts.System),
			openai.UserMessage(c.prompts.Render(query, contextText)),
		},
		MaxTokens:   openai.Int(int64(opts.MaxTokens)),
		Temperature: openai.Float(opts.Temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			logger.Error("LLM API returned status %d: %v", apiErr.StatusCode, err)
		} else {
			logger.Error("calling LLM API: %v", err)
		}
		return "", fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	if len(resp.Choices) > 0 {
		if content := resp.Choices[0].Message.Content; content != "" {
			return strings.TrimSpace(content), nil
		}
	}
	// completion-style responses
	if text := gjson.Get(resp.RawJSON(), "choices.0.text").String(); text != "" {
		return strings.TrimSpace(text), nil
	}

	logger.Warn("could not extract answer from LLM response: %s", resp.RawJSON())
	return "", ErrNoAnswer
}

// Answer is Generate for callers that display the result directly: failures
// come back as one of the Diagnostic* strings instead of an error.
func (c *LLMClient) Answer(ctx context.Context, query, contextText string, opts AnswerOptions) string {
	answer, err := c.Generate(ctx, query, contextText, opts)
	switch {
	case err == nil:
		return answer
	case errors.Is(err, ErrNoAnswer):
		return DiagnosticNoAnswer
	case errors.Is(err, ErrRequestFailed):
		return DiagnosticRequestFailed
	default:
		return DiagnosticUnexpected
	}
}
