// Package openaicompat talks to providers exposing the OpenAI chat-completions API.
package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/stake-plus/agentgpt/src/ai/core"
	"github.com/stake-plus/agentgpt/src/logging"
	"github.com/stake-plus/agentgpt/src/webclient"
)

// DefaultMaxTokens is the completion ceiling sent with every request.
const DefaultMaxTokens = 2000

type client struct {
	provider   core.ProviderID
	baseURL    string
	apiKey     string
	maxTokens  int
	httpClient *http.Client
	logger     *log.Logger
}

// New builds a client for an OpenAI-compatible endpoint rooted at cfg.BaseURL.
func New(cfg core.FactoryConfig) (core.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: API key not configured", cfg.Provider)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%s: base URL not configured", cfg.Provider)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = webclient.NewDefault(webclient.DefaultTimeout)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &client{
		provider:   cfg.Provider,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxTokens:  maxTokens,
		httpClient: httpClient,
		logger:     logging.OrDiscard(cfg.Logger),
	}, nil
}

type chatRequest struct {
	Model       string         `json:"model"`
	Messages    []core.Message `json:"messages"`
	Temperature float64        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens"`
	Stream      bool           `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

var errNoChoices = errors.New("response contained no choices")

func (c *client) ChatCompletion(ctx context.Context, messages []core.Message, opts core.Options) (core.Completion, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	bodyBytes, err := json.Marshal(chatRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
	})
	if err != nil {
		return core.Completion{}, fmt.Errorf("%s: encode request: %w", c.provider, err)
	}

	body, err := webclient.PostJSON(ctx, c.httpClient, c.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.apiKey}, bodyBytes)
	if err != nil {
		if logging.IsRateLimit(err) {
			c.logger.Printf("%s: rate limited: %v", c.provider, err)
		} else {
			c.logger.Printf("HTTP error calling %s: %v", c.provider, err)
		}
		return core.Completion{
			Text:    fmt.Sprintf("AI provider temporarily unavailable. Error: %v", err),
			Failure: err.Error(),
		}, nil
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return c.unexpected(fmt.Errorf("decode response: %w", err)), nil
	}
	if len(result.Choices) == 0 {
		return c.unexpected(errNoChoices), nil
	}
	return core.Completion{Text: result.Choices[0].Message.Content}, nil
}

func (c *client) unexpected(err error) core.Completion {
	c.logger.Printf("Unexpected error calling %s: %v", c.provider, err)
	return core.Completion{
		Text:    fmt.Sprintf("Unexpected error occurred: %v", err),
		Failure: err.Error(),
	}
}

func (c *client) ExecuteTask(ctx context.Context, goal, task string, opts core.Options) (core.Completion, error) {
	return c.ChatCompletion(ctx, TaskMessages(goal, task), opts)
}

// TaskMessages builds the system and user turns for one agent task.
func TaskMessages(goal, task string) []core.Message {
	return []core.Message{
		{
			Role: "system",
			Content: fmt.Sprintf("You are an AI agent working on the goal: %s. Provide detailed, accurate, "+
				"and helpful information. Be thorough in your research and analysis.", goal),
		},
		{
			Role: "user",
			Content: fmt.Sprintf("Please execute this task: %s. Provide a comprehensive response with "+
				"relevant details, facts, and insights.", task),
		},
	}
}
