package openai

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/contract"
)

func completionServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(raw, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func reply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func TestNewClientWithoutKey(t *testing.T) {
	assert.Nil(t, NewClient("  ", "", ""))
}

func TestAnalyzeUsesJSONMode(t *testing.T) {
	var seen map[string]any
	srv := completionServer(t, http.StatusOK, reply(`{"overallScore":80}`), &seen)
	c := NewClient("sk-test", srv.URL, "")

	out, err := c.Analyze(t.Context(), ai.Document{Text: "policy text", Readable: true}, []string{"GDPR"})
	require.NoError(t, err)
	assert.Equal(t, ai.OutputJSON, out.Kind)
	assert.Equal(t, `{"overallScore":80}`, out.Raw)

	assert.Equal(t, "gpt-4o-mini", seen["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, seen["response_format"])
	assert.EqualValues(t, maxTokens, seen["max_tokens"])
	msgs := seen["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].(map[string]any)["content"], "1. GDPR")
}

func TestAnalyzeRefusesUnreadableText(t *testing.T) {
	c := NewClient("sk-test", "http://127.0.0.1:1", "")
	_, err := c.Analyze(t.Context(), ai.Document{Text: "%%%", Readable: false}, []string{"GDPR"})
	assert.ErrorIs(t, err, ai.ErrLowQualityText)
	assert.EqualError(t, err, "Low-quality text extraction detected")
}

func TestAnalyzeMapsRateLimit(t *testing.T) {
	srv := completionServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`, nil)
	c := NewClient("sk-test", srv.URL, "")

	_, err := c.Analyze(t.Context(), ai.Document{Text: "policy text", Readable: true}, []string{"SOC 2"})
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestReasoningModelsUseCompletionTokens(t *testing.T) {
	var seen map[string]any
	srv := completionServer(t, http.StatusOK, reply(`{}`), &seen)
	c := NewClient("sk-test", srv.URL, "o3-mini")

	_, err := c.ReviewContract(t.Context(), contract.ReviewRequest{
		Text:            "This agreement...",
		ContractType:    "NDA",
		TemplateClauses: []contract.Clause{{Title: "Confidentiality", Content: "Keep secrets", Required: true}},
	})
	require.NoError(t, err)
	assert.EqualValues(t, maxTokens, seen["max_completion_tokens"])
	assert.NotContains(t, seen, "max_tokens")
}

func TestNilClientIsNotConfigured(t *testing.T) {
	var c *Client
	_, err := c.Analyze(t.Context(), ai.Document{}, nil)
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
	_, err = c.ReviewContract(t.Context(), contract.ReviewRequest{})
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}
