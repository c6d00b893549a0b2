package contract

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
	domain "github.com/bryanwahyu/compliance-copilot/internal/domain/contract"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/document"
)

// Service implements contract review and contract text extraction.
type Service struct {
	Reviewer domain.Reviewer
	Log      hclog.Logger
}

func (s *Service) Analyze(ctx context.Context, req domain.ReviewRequest) (domain.Review, error) {
	if err := req.Validate(); err != nil {
		return domain.Review{}, err
	}
	if s.Reviewer == nil {
		return domain.Review{}, fmt.Errorf("contract analyzer: %w", ai.ErrNotConfigured)
	}
	raw, err := s.Reviewer.ReviewContract(ctx, req)
	if err != nil {
		return domain.Review{}, err
	}
	review, err := domain.ParseReview(raw, req.Text)
	if err != nil {
		s.logger().Warn("contract review reply could not be parsed", "contract_type", req.ContractType, "error", err)
		return domain.Review{}, err
	}
	s.logger().Info("contract reviewed", "contract_type", req.ContractType,
		"suggestions", len(review.Suggestions), "score", review.OverallScore)
	return review, nil
}

type ExtractResult struct {
	FileName string        `json:"fileName"`
	Kind     document.Kind `json:"kind"`
	Text     string        `json:"text"`
	Readable bool          `json:"readable"`
}

// Extract pulls text out of an uploaded contract. Unlike compliance analysis,
// a file with no recoverable text is an error here (document.ErrNoText).
func (s *Service) Extract(fileName, mimeType string, data []byte) (ExtractResult, error) {
	ext, err := document.Extract(data, fileName, mimeType, document.ContractOptions)
	if err != nil {
		return ExtractResult{}, err
	}
	return ExtractResult{FileName: fileName, Kind: ext.Kind, Text: ext.Text, Readable: ext.Readable}, nil
}

func (s *Service) logger() hclog.Logger {
	if s.Log == nil {
		return hclog.NewNullLogger()
	}
	return s.Log
}
