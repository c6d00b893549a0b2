package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	genai "google.golang.org/genai"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
	"github.com/bryanwahyu/compliance-copilot/internal/infra/ai/prompt"
)

const (
	defaultModel = "gemini-2.5-flash"
	providerName = "Gemini"
)

// Client sends the uploaded file itself, so it works on scans and PDFs whose
// text we could not extract.
type Client struct {
	cli   *genai.Client
	model string
}

// Options.BaseURL overrides the API endpoint; used by tests.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ai.ErrNotConfigured
	}
	cfg := &genai.ClientConfig{APIKey: opts.APIKey, Backend: genai.BackendGeminiAPI}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{cli: cli, model: model}, nil
}

func (c *Client) Name() string { return providerName }

func (c *Client) Analyze(ctx context.Context, doc ai.Document, standards []string) (ai.Output, error) {
	if len(doc.Data) == 0 {
		return ai.Output{}, errors.New("no document data")
	}
	mime := doc.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}
	parts := []*genai.Part{
		{Text: prompt.BuildCompliancePrompt(standards, prompt.AttachedDocumentSentinel)},
		{InlineData: &genai.Blob{MIMEType: mime, Data: doc.Data}},
	}

	resp, err := c.cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Role: "user", Parts: parts}}, nil)
	if err != nil {
		if isQuota(err) {
			return ai.Output{}, fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return ai.Output{}, err
	}
	txt := responseText(resp)
	if strings.TrimSpace(txt) == "" {
		return ai.Output{}, errors.New("empty response")
	}
	return ai.Output{Kind: ai.OutputProse, Raw: txt}, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func isQuota(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code == http.StatusTooManyRequests
	}
	return strings.Contains(err.Error(), "RESOURCE_EXHAUSTED")
}
