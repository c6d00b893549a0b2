package kroolo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
	"github.com/bryanwahyu/compliance-copilot/internal/infra/ai/prompt"
)

const providerName = "Kroolo"

// Client talks to the internal Kroolo AI completion service.
type Client struct {
	httpc *resty.Client
}

func New(url, token string) *Client {
	httpc := resty.New()
	httpc.SetBaseURL(strings.TrimRight(url, "/"))
	httpc.SetTimeout(2 * time.Minute)
	if token != "" {
		httpc.SetAuthToken(token)
	}
	return &Client{httpc: httpc}
}

type completionRequest struct {
	Prompt         string `json:"prompt"`
	System         string `json:"system,omitempty"`
	ResponseFormat string `json:"response_format"`
}

type completionResult struct {
	Output string `json:"output"`
}

type errorResult struct {
	Error string `json:"error"`
}

func (c *Client) Name() string { return providerName }

func (c *Client) Analyze(ctx context.Context, doc ai.Document, standards []string) (ai.Output, error) {
	if !doc.Readable || strings.TrimSpace(doc.Text) == "" {
		return ai.Output{}, ai.ErrLowQualityText
	}

	var r completionResult
	var e errorResult
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Prompt:         prompt.BuildCompliancePrompt(standards, doc.Text),
			System:         prompt.GetSystemPrompt(),
			ResponseFormat: "json",
		}).
		SetResult(&r).
		SetError(&e).
		Post("/v1/completions")
	if err != nil {
		return ai.Output{}, err
	}
	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return ai.Output{}, ai.ErrQuotaExceeded
	case resp.StatusCode() != http.StatusOK:
		if e.Error != "" {
			return ai.Output{}, fmt.Errorf("%d on completion: %s", resp.StatusCode(), e.Error)
		}
		return ai.Output{}, fmt.Errorf("%d on completion", resp.StatusCode())
	case strings.TrimSpace(r.Output) == "":
		return ai.Output{}, errors.New("empty completion")
	}
	return ai.Output{Kind: ai.OutputProse, Raw: r.Output}, nil
}
