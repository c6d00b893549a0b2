package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/contract"
	"github.com/bryanwahyu/compliance-copilot/internal/infra/ai/prompt"
)

const (
	maxTokens    = 2048
	defaultModel = "gpt-4o-mini"
	providerName = "OpenAI"
)

type Client struct {
	*openai.Client
	Model string
}

// NewClient returns nil when apiKey is empty so callers can skip the provider.
func NewClient(apiKey, baseURL, model string) *Client {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

func (c *Client) Name() string { return providerName }

// Analyze sends the extracted text in JSON mode. It refuses text that failed
// the readability gate instead of paying for a call on garbage.
func (c *Client) Analyze(ctx context.Context, doc ai.Document, standards []string) (ai.Output, error) {
	if c == nil || c.Client == nil {
		return ai.Output{}, ai.ErrNotConfigured
	}
	if !doc.Readable || strings.TrimSpace(doc.Text) == "" {
		return ai.Output{}, ai.ErrLowQualityText
	}
	content, err := c.complete(ctx, prompt.GetSystemPrompt(), prompt.BuildCompliancePrompt(standards, doc.Text))
	if err != nil {
		return ai.Output{}, err
	}
	return ai.Output{Kind: ai.OutputJSON, Raw: content}, nil
}

// ReviewContract asks for a clause-by-clause review of the contract text.
func (c *Client) ReviewContract(ctx context.Context, req contract.ReviewRequest) (string, error) {
	if c == nil || c.Client == nil {
		return "", ai.ErrNotConfigured
	}
	clauses := make([]prompt.Clause, len(req.TemplateClauses))
	for i, cl := range req.TemplateClauses {
		clauses[i] = prompt.Clause{Title: cl.Title, Content: cl.Content, Required: cl.Required}
	}
	return c.complete(ctx, prompt.GetContractSystemPrompt(), prompt.BuildContractPrompt(req.Text, clauses, req.ContractType))
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuota(err) {
			return "", fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func isQuota(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.Type == "insufficient_quota"
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
