package analyst

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("analysis not found")

// AnalysisID identifier type
type AnalysisID string

// Analysis is a stored compliance analysis, kept for auditing and retrieval.
type Analysis struct {
	ID           AnalysisID `json:"id"`
	FileName     string     `json:"fileName"`
	Standards    []string   `json:"standards"`
	Method       string     `json:"method"`
	OverallScore int        `json:"overallScore"`
	Result       string     `json:"result"` // normalized AnalysisResult as JSON
	DocumentURL  string     `json:"documentUrl,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
