package compliance

import (
	"errors"
	"strings"
)

// ErrInvalidInput rejects a request before any extraction or provider call.
var ErrInvalidInput = errors.New("invalid analysis request")

// Status enum
type Status string

const (
	StatusCompliant    Status = "compliant"
	StatusPartial      Status = "partial"
	StatusNonCompliant Status = "non-compliant"
)

// KindFailed marks the sentinel produced when nothing could be recovered.
const KindFailed = "failed"

// StatusFromScore: >=90 compliant, >=70 partial, else non-compliant.
func StatusFromScore(score int) Status {
	switch {
	case score >= 90:
		return StatusCompliant
	case score >= 70:
		return StatusPartial
	default:
		return StatusNonCompliant
	}
}

type StandardAnalysis struct {
	Standard       string   `json:"standard"`
	Score          int      `json:"score"`
	Status         Status   `json:"status"`
	Gaps           []string `json:"gaps"`
	Suggestions    []string `json:"suggestions"`
	CriticalIssues []string `json:"criticalIssues"`
}

type Summary struct {
	TotalGaps          int      `json:"totalGaps"`
	CriticalIssues     int      `json:"criticalIssues"`
	RecommendedActions []string `json:"recommendedActions"`
}

type DetailedFindings struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	RiskAreas  []string `json:"riskAreas"`
}

// AnalysisResult is the canonical shape every provider reply is normalized into.
type AnalysisResult struct {
	Kind              string             `json:"kind,omitempty"`
	OverallScore      int                `json:"overallScore"`
	OverallStatus     Status             `json:"overallStatus"`
	StandardsAnalysis []StandardAnalysis `json:"standardsAnalysis"`
	Summary           Summary            `json:"summary"`
	DetailedFindings  DetailedFindings   `json:"detailedFindings"`
}

// Failed reports whether r is the "Analysis Failed" sentinel.
func (r AnalysisResult) Failed() bool { return r.Kind == KindFailed }

// Clone returns a deep copy so callers can mutate slices freely.
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	out.StandardsAnalysis = make([]StandardAnalysis, len(r.StandardsAnalysis))
	for i, sa := range r.StandardsAnalysis {
		sa.Gaps = cloneStrings(sa.Gaps)
		sa.Suggestions = cloneStrings(sa.Suggestions)
		sa.CriticalIssues = cloneStrings(sa.CriticalIssues)
		out.StandardsAnalysis[i] = sa
	}
	out.Summary.RecommendedActions = cloneStrings(r.Summary.RecommendedActions)
	out.DetailedFindings = DetailedFindings{
		Strengths:  cloneStrings(r.DetailedFindings.Strengths),
		Weaknesses: cloneStrings(r.DetailedFindings.Weaknesses),
		RiskAreas:  cloneStrings(r.DetailedFindings.RiskAreas),
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func standardsLabel(standards []string) string {
	if len(standards) == 0 {
		return "General"
	}
	return strings.Join(standards, ", ")
}

// NormalizeStandards trims, drops empty entries and removes case-insensitive
// duplicates, keeping the first spelling and the original order.
func NormalizeStandards(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func firstN(in []string, n int) []string {
	if len(in) > n {
		in = in[:n]
	}
	return cloneStrings(in)
}
