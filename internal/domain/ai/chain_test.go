package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	out   Output
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Analyze(ctx context.Context, doc Document, standards []string) (Output, error) {
	s.calls++
	return s.out, s.err
}

func TestTryInOrderPrimarySucceeds(t *testing.T) {
	a := &stubProvider{name: "OpenAI", out: Output{Kind: OutputJSON, Raw: "{}"}}
	b := &stubProvider{name: "Gemini"}

	got, err := TryInOrder(context.Background(), []Provider{a, b}, Document{}, []string{"gdpr"})
	require.NoError(t, err)
	assert.Equal(t, "openai-primary", got.Method())
	assert.Equal(t, 0, b.calls)
}

func TestTryInOrderFallsBack(t *testing.T) {
	a := &stubProvider{name: "OpenAI", err: ErrLowQualityText}
	b := &stubProvider{name: "Gemini", out: Output{Kind: OutputProse, Raw: "score: 80"}}

	got, err := TryInOrder(context.Background(), []Provider{a, b}, Document{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini-fallback", got.Method())
	assert.Equal(t, "score: 80", got.Output.Raw)
	require.Len(t, got.Failures, 1)
	assert.ErrorIs(t, got.Failures[0], ErrLowQualityText)
}

func TestTryInOrderAggregatesFailures(t *testing.T) {
	a := &stubProvider{name: "OpenAI", err: errors.New("401 unauthorized")}
	b := &stubProvider{name: "Gemini", err: &ProviderError{Provider: "Gemini", Cause: ErrQuotaExceeded}}

	_, err := TryInOrder(context.Background(), []Provider{a, b}, Document{}, nil)
	require.Error(t, err)

	var chain *ChainError
	require.ErrorAs(t, err, &chain)
	assert.Equal(t, "OpenAI: 401 unauthorized; Gemini: ai quota exceeded", err.Error())
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestTryInOrderEmpty(t *testing.T) {
	_, err := TryInOrder(context.Background(), nil, Document{}, nil)
	assert.EqualError(t, err, "no AI providers configured")
}

func TestTryInOrderStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &stubProvider{name: "OpenAI"}

	_, err := TryInOrder(ctx, []Provider{a}, Document{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, a.calls)
}
