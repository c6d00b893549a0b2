package gemini

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
	"github.com/bryanwahyu/compliance-copilot/internal/infra/ai/prompt"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(t.Context(), Options{})
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}

func TestAnalyzeSendsInlineFile(t *testing.T) {
	var body struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MIMEType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"contents"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent"), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Here you go: "},{"text":"{\"overallScore\": 72}"}]}}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(t.Context(), Options{APIKey: "g-test", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := c.Analyze(t.Context(), ai.Document{FileName: "scan.pdf", MIMEType: "application/pdf", Data: []byte("%PDF-1.4")}, []string{"ISO 27001"})
	require.NoError(t, err)
	assert.Equal(t, ai.OutputProse, out.Kind)
	assert.Equal(t, `Here you go: {"overallScore": 72}`, out.Raw)

	require.Len(t, body.Contents, 1)
	assert.Equal(t, "user", body.Contents[0].Role)
	require.Len(t, body.Contents[0].Parts, 2)
	assert.Contains(t, body.Contents[0].Parts[0].Text, prompt.AttachedDocumentSentinel)
	require.NotNil(t, body.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "application/pdf", body.Contents[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")), body.Contents[0].Parts[1].InlineData.Data)
}

func TestAnalyzeRequiresData(t *testing.T) {
	c, err := NewClient(t.Context(), Options{APIKey: "g-test", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	_, err = c.Analyze(t.Context(), ai.Document{}, []string{"GDPR"})
	assert.Error(t, err)
}
