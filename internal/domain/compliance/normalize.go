package compliance

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
)

const maxProseItems = 5

var (
	jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

	scorePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`),
		regexp.MustCompile(`(?i)score[:\s]*(\d+(?:\.\d+)?)`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*out of\s*100`),
	}

	sentenceSplitRe = regexp.MustCompile(`[.!?]+\s+|\n+`)
)

// keyword sets for prose extraction, matched case-insensitively
var (
	gapKeywords        = []string{"gap", "issue", "missing", "lacking", "absent", "insufficient"}
	suggestionKeywords = []string{"recommend", "should", "suggest", "consider", "implement", "ensure", "improve"}
	criticalKeywords   = []string{"critical", "severe", "urgent", "immediate", "violation", "high risk"}
	strengthKeywords   = []string{"strength", "strong", "well", "adequate", "robust", "compliant with"}
	weaknessKeywords   = []string{"weak", "poor", "inadequate", "deficien", "limited", "unclear"}
	riskKeywords       = []string{"risk", "exposure", "vulnerab", "threat", "breach", "penalt"}
)

// Normalize turns any provider output into a well-formed AnalysisResult. It
// never fails: unusable output yields the "Analysis Failed" sentinel.
func Normalize(out ai.Output, standards []string) AnalysisResult {
	if res, ok := parseJSON(out, standards); ok {
		return res
	}
	if isJSONObject(out.Raw) {
		return FailedResult(standards, "the AI response had no recognizable analysis fields")
	}
	return fromProse(out.Raw, standards)
}

// number decodes a JSON number or a numeric string such as "82" or "82%".
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*n = number(f)
	return nil
}

func isJSONObject(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, "{") && json.Valid([]byte(raw))
}

type rawStandard struct {
	Standard       string          `json:"standard"`
	Name           string          `json:"name"`
	Score          *number         `json:"score"`
	Gaps           json.RawMessage `json:"gaps"`
	Suggestions    json.RawMessage `json:"suggestions"`
	CriticalIssues json.RawMessage `json:"criticalIssues"`
}

type rawResult struct {
	OverallScore      *number       `json:"overallScore"`
	StandardsAnalysis []rawStandard `json:"standardsAnalysis"`
	Summary           struct {
		TotalGaps          *number         `json:"totalGaps"`
		CriticalIssues     json.RawMessage `json:"criticalIssues"`
		RecommendedActions json.RawMessage `json:"recommendedActions"`
	} `json:"summary"`
	DetailedFindings struct {
		Strengths  json.RawMessage `json:"strengths"`
		Weaknesses json.RawMessage `json:"weaknesses"`
		RiskAreas  json.RawMessage `json:"riskAreas"`
	} `json:"detailedFindings"`
}

func parseJSON(out ai.Output, standards []string) (AnalysisResult, bool) {
	raw := strings.TrimSpace(out.Raw)
	if raw == "" {
		return AnalysisResult{}, false
	}

	var rr rawResult
	if err := json.Unmarshal([]byte(raw), &rr); err != nil {
		block := jsonBlockRe.FindString(raw)
		if block == "" {
			return AnalysisResult{}, false
		}
		rr = rawResult{}
		if err := json.Unmarshal([]byte(block), &rr); err != nil {
			return AnalysisResult{}, false
		}
	}
	if rr.OverallScore == nil && len(rr.StandardsAnalysis) == 0 {
		return AnalysisResult{}, false
	}

	res := AnalysisResult{}
	for i, rs := range rr.StandardsAnalysis {
		label := strings.TrimSpace(firstNonEmpty(rs.Standard, rs.Name))
		if label == "" {
			if i < len(standards) {
				label = standards[i]
			} else {
				label = "General"
			}
		}
		sa := StandardAnalysis{
			Standard:       label,
			Gaps:           stringList(rs.Gaps),
			Suggestions:    stringList(rs.Suggestions),
			CriticalIssues: stringList(rs.CriticalIssues),
		}
		if rs.Score != nil {
			sa.Score = clampScore(int(math.Round(float64(*rs.Score))))
		}
		res.StandardsAnalysis = append(res.StandardsAnalysis, sa)
	}

	switch {
	case rr.OverallScore != nil:
		res.OverallScore = clampScore(int(math.Round(float64(*rr.OverallScore))))
	case len(res.StandardsAnalysis) > 0:
		sum := 0
		for _, sa := range res.StandardsAnalysis {
			sum += sa.Score
		}
		res.OverallScore = sum / len(res.StandardsAnalysis)
	}
	if len(res.StandardsAnalysis) == 0 {
		res.StandardsAnalysis = []StandardAnalysis{{
			Standard:       standardsLabel(standards),
			Score:          res.OverallScore,
			Gaps:           []string{},
			Suggestions:    []string{},
			CriticalIssues: []string{},
		}}
	}

	res.Summary.RecommendedActions = stringList(rr.Summary.RecommendedActions)
	if n, ok := criticalCount(rr.Summary.CriticalIssues); ok {
		res.Summary.CriticalIssues = n
	}
	res.DetailedFindings = DetailedFindings{
		Strengths:  stringList(rr.DetailedFindings.Strengths),
		Weaknesses: stringList(rr.DetailedFindings.Weaknesses),
		RiskAreas:  stringList(rr.DetailedFindings.RiskAreas),
	}
	finalize(&res)
	return res, true
}

// finalize enforces the result invariants: statuses follow scores and
// summary.totalGaps tracks the primary standard's gaps.
func finalize(res *AnalysisResult) {
	critical := 0
	for i := range res.StandardsAnalysis {
		sa := &res.StandardsAnalysis[i]
		sa.Status = StatusFromScore(sa.Score)
		critical += len(sa.CriticalIssues)
	}
	res.OverallStatus = StatusFromScore(res.OverallScore)
	res.Summary.TotalGaps = len(res.StandardsAnalysis[0].Gaps)
	if res.Summary.CriticalIssues == 0 {
		res.Summary.CriticalIssues = critical
	}
	if len(res.Summary.RecommendedActions) == 0 {
		res.Summary.RecommendedActions = firstN(res.StandardsAnalysis[0].Suggestions, 5)
	}
}

func fromProse(text string, standards []string) AnalysisResult {
	score, hasScore := extractScore(text)
	sentences := splitSentences(text)

	gaps := matchSentences(sentences, gapKeywords)
	suggestions := matchSentences(sentences, suggestionKeywords)

	if !hasScore && len(gaps) == 0 && len(suggestions) == 0 {
		return FailedResult(standards, "the AI response could not be interpreted")
	}
	if !hasScore {
		if len(gaps) > 0 {
			score = max(20, 60-len(gaps)*10)
		} else {
			score = 50
		}
	}

	res := AnalysisResult{
		OverallScore: score,
		StandardsAnalysis: []StandardAnalysis{{
			Standard:       standardsLabel(standards),
			Score:          score,
			Gaps:           gaps,
			Suggestions:    suggestions,
			CriticalIssues: matchSentences(sentences, criticalKeywords),
		}},
		DetailedFindings: DetailedFindings{
			Strengths:  matchSentences(sentences, strengthKeywords),
			Weaknesses: matchSentences(sentences, weaknessKeywords),
			RiskAreas:  matchSentences(sentences, riskKeywords),
		},
	}
	finalize(&res)
	return res
}

// FailedResult is the canonical sentinel returned when no analysis could be recovered.
func FailedResult(standards []string, reason string) AnalysisResult {
	suggestion := "Retry the analysis or upload a text-based version of the document"
	res := AnalysisResult{
		Kind:         KindFailed,
		OverallScore: 0,
		StandardsAnalysis: []StandardAnalysis{{
			Standard:       standardsLabel(standards),
			Score:          0,
			Gaps:           []string{"Analysis Failed: " + reason},
			Suggestions:    []string{suggestion},
			CriticalIssues: []string{},
		}},
		Summary: Summary{RecommendedActions: []string{suggestion}},
		DetailedFindings: DetailedFindings{
			Strengths:  []string{},
			Weaknesses: []string{},
			RiskAreas:  []string{},
		},
	}
	finalize(&res)
	return res
}

func extractScore(text string) (int, bool) {
	for _, re := range scorePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil || v > 100 {
				continue
			}
			return clampScore(int(math.Round(v))), true
		}
	}
	return 0, false
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "-*•#"))
		if len(s) >= 10 {
			out = append(out, s)
		}
	}
	return out
}

func matchSentences(sentences, keywords []string) []string {
	out := []string{}
	for _, s := range sentences {
		lower := strings.ToLower(s)
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				out = append(out, s)
				break
			}
		}
		if len(out) == maxProseItems {
			break
		}
	}
	return out
}

// stringList accepts a JSON array of strings or of objects and flattens it.
func stringList(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var single string
		if json.Unmarshal(raw, &single) == nil && strings.TrimSpace(single) != "" {
			out = append(out, strings.TrimSpace(single))
		}
		return out
	}
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj map[string]any
		if json.Unmarshal(item, &obj) == nil {
			for _, key := range []string{"description", "text", "title", "issue", "name"} {
				if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
					out = append(out, strings.TrimSpace(v))
					break
				}
			}
		}
	}
	return out
}

func criticalCount(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return max(0, int(n)), true
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) == nil {
		return len(items), true
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
