package ai

import (
	"context"
	"errors"
	"strings"
)

// Attempt is the successful link of a provider chain.
type Attempt struct {
	Provider string
	Index    int
	Output   Output
	Failures []*ProviderError
}

// Method labels how the result was produced, e.g. "openai-primary" or "gemini-fallback".
func (a Attempt) Method() string {
	suffix := "-primary"
	if a.Index > 0 {
		suffix = "-fallback"
	}
	return strings.ToLower(a.Provider) + suffix
}

// TryInOrder runs providers in order and returns the first success. When all
// fail the returned *ChainError lists every failure in order.
func TryInOrder(ctx context.Context, providers []Provider, doc Document, standards []string) (Attempt, error) {
	var failures []*ProviderError
	for i, p := range providers {
		if err := ctx.Err(); err != nil {
			failures = append(failures, &ProviderError{Provider: p.Name(), Cause: err})
			break
		}
		out, err := p.Analyze(ctx, doc, standards)
		if err == nil {
			return Attempt{Provider: p.Name(), Index: i, Output: out, Failures: failures}, nil
		}
		var pe *ProviderError
		if !errors.As(err, &pe) {
			pe = &ProviderError{Provider: p.Name(), Cause: err}
		}
		failures = append(failures, pe)
	}
	return Attempt{}, &ChainError{Errors: failures}
}
