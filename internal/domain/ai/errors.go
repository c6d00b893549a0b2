package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrLowQualityText is returned by text-only providers when extraction failed the readability gate.
var ErrLowQualityText = errors.New("Low-quality text extraction detected")

// ErrNotConfigured means the provider has no credentials.
var ErrNotConfigured = errors.New("ai provider not configured")

// ProviderError tags a failure with the provider that produced it.
type ProviderError struct {
	Provider string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// ChainError aggregates every provider failure of one chain run, in order.
type ChainError struct {
	Errors []*ProviderError
}

func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "no AI providers configured"
	}
	parts := make([]string, len(e.Errors))
	for i, pe := range e.Errors {
		parts[i] = pe.Error()
	}
	return strings.Join(parts, "; ")
}

func (e *ChainError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		out[i] = pe
	}
	return out
}
