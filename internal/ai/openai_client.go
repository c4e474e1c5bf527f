package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/iago/geo-visibility-back/internal/retry"
)

var ErrOpenAIUnavailable = errors.New("openai client unavailable")

type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type GenerateRequest struct {
	Model           string
	Instructions    string
	Input           string
	Temperature     float64
	MaxOutputTokens int
}

type GenerateResult struct {
	Text    string
	ModelID string
	Usage   TokenUsage
}

type TextGenerator interface {
	Generate(ctx context.Context, request GenerateRequest) (GenerateResult, error)
	Available() bool
}

type OpenAIClientConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Retry      retry.Policy
	Logger     *log.Logger
}

// OpenAIClient calls the chat completions API. Retries are driven by
// retry.Do rather than the SDK so every call site shares one policy.
type OpenAIClient struct {
	client  openai.Client
	apiKey  string
	timeout time.Duration
	retry   retry.Policy
	logger  *log.Logger
}

func NewOpenAIClient(config OpenAIClientConfig) *OpenAIClient {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.Retry.BaseDelay <= 0 {
		config.Retry.BaseDelay = 2 * time.Second
	}

	apiKey := strings.TrimSpace(config.APIKey)
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(config.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(baseURL, "/")+"/"))
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}

	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		apiKey:  apiKey,
		timeout: config.Timeout,
		retry:   config.Retry,
		logger:  config.Logger,
	}
}

func (c *OpenAIClient) Available() bool {
	return c.apiKey != ""
}

func (c *OpenAIClient) Generate(ctx context.Context, request GenerateRequest) (GenerateResult, error) {
	if !c.Available() {
		return GenerateResult{}, ErrOpenAIUnavailable
	}
	if strings.TrimSpace(request.Model) == "" {
		return GenerateResult{}, errors.New("model is required")
	}
	if strings.TrimSpace(request.Input) == "" {
		return GenerateResult{}, errors.New("input is required")
	}

	policy := c.retry
	if policy.OnRetry == nil && c.logger != nil {
		policy.OnRetry = func(attempt int, delay time.Duration, err error) {
			c.logger.Printf("openai retry model=%s attempt=%d delay=%s err=%v", request.Model, attempt+1, delay, err)
		}
	}

	return retry.Do(ctx, policy, func(ctx context.Context) (GenerateResult, error) {
		return c.complete(ctx, request)
	})
}

func (c *OpenAIClient) complete(ctx context.Context, request GenerateRequest) (GenerateResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if instructions := strings.TrimSpace(request.Instructions); instructions != "" {
		messages = append(messages, openai.SystemMessage(instructions))
	}
	messages = append(messages, openai.UserMessage(request.Input))

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(request.Model),
		Messages:    messages,
		Temperature: openai.Float(request.Temperature),
	}
	if request.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(request.MaxOutputTokens))
	}

	completion, err := c.client.Chat.Completions.New(timeoutCtx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && !isRetryableStatus(apiErr.StatusCode) {
			return GenerateResult{}, retry.Permanent(fmt.Errorf("openai status %d: %w", apiErr.StatusCode, err))
		}
		return GenerateResult{}, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return GenerateResult{}, errors.New("openai response without choices")
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return GenerateResult{}, errors.New("openai response without text output")
	}

	return GenerateResult{
		Text:    text,
		ModelID: firstNonEmpty(string(completion.Model), request.Model),
		Usage: TokenUsage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:  int(completion.Usage.TotalTokens),
		},
	}, nil
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
