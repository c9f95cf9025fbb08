package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/animal-aid/internal/domain/ai"
	"github.com/bryanwahyu/animal-aid/internal/infra/ai/prompt"
)

const (
	defaultMaxTokens = 2048
	defaultModel     = "gemini-1.5-flash"
)

// Config is built once at startup and never mutated afterwards.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string // empty means the OpenAI default endpoint
	MaxTokens int
	Timeout   time.Duration // zero disables the per-call deadline
}

type Client struct {
	api *openai.Client
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Client{api: openai.NewClientWithConfig(oc), cfg: cfg}
}

// Analyze sends the image with the injury prompt. It issues exactly one
// request and converts every failure into ai.Failure.
func (c *Client) Analyze(ctx context.Context, image []byte) (res ai.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("analysis client panicked")
			res = ai.Failure(fmt.Sprintf("analysis provider error: %v", r))
		}
	}()

	callCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.InjurySystemPrompt()},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt.InjuryUserPrompt()},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.cfg.Model) {
		req.MaxCompletionTokens = c.cfg.MaxTokens
	} else {
		req.MaxTokens = c.cfg.MaxTokens
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(callCtx, req)
	entry := log.WithFields(log.Fields{
		"model":       c.cfg.Model,
		"prompt":      prompt.Version,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		msg, cause := describe(callCtx, ctx, err)
		entry.WithError(err).WithField("cause", cause).Warn("analysis request failed")
		return ai.Failure(msg)
	}
	if len(resp.Choices) == 0 {
		entry.Warn("analysis response had no choices")
		return ai.Failure("empty response from analysis provider")
	}
	entry.Debug("analysis completed")
	return ai.Success(resp.Choices[0].Message.Content)
}

// describe turns a provider error into the message returned to callers.
func describe(callCtx, parent context.Context, err error) (string, error) {
	if errors.Is(err, context.DeadlineExceeded) || (callCtx.Err() == context.DeadlineExceeded && parent.Err() == nil) {
		return ai.ErrTimeout.Error(), ai.ErrTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		cause := error(apiErr)
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			cause = ai.ErrQuotaExceeded
		}
		if apiErr.Message != "" {
			return apiErr.Message, cause
		}
		return fmt.Sprintf("analysis provider returned status %d", apiErr.HTTPStatusCode), cause
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return ai.ErrQuotaExceeded.Error(), ai.ErrQuotaExceeded
		}
		return fmt.Sprintf("analysis provider returned status %d", reqErr.HTTPStatusCode), reqErr
	}
	return err.Error(), err
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
