// Package llmcollaborator implements collaborator.Collaborator on top of an
// OpenAI-compatible chat completions API in JSON mode. Every call goes
// through a circuit breaker so a failing endpoint is not hammered by each
// reconciliation cycle.
package llmcollaborator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"github.com/specialistvlad/branchtalk/internal/collaborator"
	"github.com/specialistvlad/branchtalk/internal/ctxlog"
	"github.com/specialistvlad/branchtalk/internal/node"
	"github.com/specialistvlad/branchtalk/internal/txn"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second
)

// Config holds the settings for the chat completions endpoint.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
	// FailureThreshold is the number of consecutive transport failures that
	// opens the breaker. Zero means 3.
	FailureThreshold uint32
	// CoolDown is how long the breaker stays open. Zero means 30s.
	CoolDown time.Duration
}

// Client is an OpenAI-backed collaborator.
type Client struct {
	api     *openai.Client
	model   string
	temp    float32
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

var _ collaborator.Collaborator = (*Client)(nil)

// New creates a client. An API key is required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llmcollaborator: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 3
	}
	coolDown := cfg.CoolDown
	if coolDown <= 0 {
		coolDown = 30 * time.Second
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "collaborator",
		MaxRequests: 1,
		Timeout:     coolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctxlog.FromContext(context.Background()).Warn("Circuit breaker state changed.", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		temp:    cfg.Temperature,
		timeout: cfg.Timeout,
		breaker: breaker,
	}, nil
}

// GenerateTree asks the model for a complete tree.
func (c *Client) GenerateTree(ctx context.Context, req collaborator.TreeRequest) ([]node.Proposal, error) {
	prompt, err := treePrompt(req)
	if err != nil {
		return nil, err
	}
	body, err := c.complete(ctx, collaborator.OpGenerateTree, treeSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return collaborator.DecodeTree([]byte(body))
}

// ProposeTransactions asks the model for edits prompted by one channel.
func (c *Client) ProposeTransactions(ctx context.Context, req collaborator.DiffRequest) ([]txn.Operation, error) {
	prompt, err := diffPrompt(req)
	if err != nil {
		return nil, err
	}
	body, err := c.complete(ctx, collaborator.OpProposeTransactions, diffSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return collaborator.DecodeTransactions([]byte(body))
}

func (c *Client) complete(ctx context.Context, op, system, prompt string) (string, error) {
	logger := ctxlog.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	logger.Debug("Calling collaborator.", "op", op, "model", c.model, "prompt_bytes", len(prompt))
	start := time.Now()

	out, err := c.breaker.Execute(func() (any, error) {
		return c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: c.temp,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
	})
	if err != nil {
		logger.Error("Collaborator call failed.", "op", op, "error", err)
		return "", &collaborator.TransportError{Op: op, Err: err}
	}

	resp := out.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return "", &collaborator.FormatError{Op: op, Err: errors.New("no choices in response")}
	}
	logger.Debug("Collaborator answered.", "op", op, "finish_reason", resp.Choices[0].FinishReason, "elapsed", time.Since(start))
	if resp.Choices[0].FinishReason == openai.FinishReasonLength {
		return "", &collaborator.FormatError{Op: op, Err: fmt.Errorf("response truncated after %d tokens", resp.Usage.CompletionTokens)}
	}
	return resp.Choices[0].Message.Content, nil
}
