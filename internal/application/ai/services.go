package ai

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
)

// Service runs the configured provider chain.
type Service struct {
	providers []ai.Provider
	log       hclog.Logger
}

// NewService orders the available providers by name. Unknown or unavailable
// names are skipped with a warning.
func NewService(log hclog.Logger, order []string, available map[string]ai.Provider) *Service {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	s := &Service{log: log}
	seen := map[string]bool{}
	for _, name := range order {
		name = strings.ToLower(strings.TrimSpace(name))
		if seen[name] {
			continue
		}
		seen[name] = true
		p, ok := available[name]
		if !ok || p == nil {
			log.Warn("provider not available, skipping", "provider", name)
			continue
		}
		s.providers = append(s.providers, p)
	}
	return s
}

func (s *Service) Providers() []string {
	out := make([]string, len(s.providers))
	for i, p := range s.providers {
		out[i] = p.Name()
	}
	return out
}

func (s *Service) Analyze(ctx context.Context, doc ai.Document, standards []string) (ai.Attempt, error) {
	att, err := ai.TryInOrder(ctx, s.providers, doc, standards)
	if err != nil {
		s.log.Error("all providers failed", "file", doc.FileName, "error", err)
		return att, err
	}
	for _, f := range att.Failures {
		s.log.Warn("provider failed, fell back", "provider", f.Provider, "error", f.Cause)
	}
	return att, nil
}
