package contract

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

type rawSuggestion struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Severity      string   `json:"severity"`
	RiskLevel     string   `json:"riskLevel"`
	Category      string   `json:"category"`
	Confidence    *float64 `json:"confidence"`
	OriginalText  string   `json:"originalText"`
	SuggestedText string   `json:"suggestedText"`
	StartIndex    *float64 `json:"startIndex"`
	EndIndex      *float64 `json:"endIndex"`
	Reasoning     string   `json:"reasoning"`
}

type rawReview struct {
	Suggestions      []rawSuggestion `json:"suggestions"`
	OverallScore     *float64        `json:"overallScore"`
	RiskAssessment   any             `json:"riskAssessment"`
	MissingClauses   []string        `json:"missingClauses"`
	ComplianceIssues []string        `json:"complianceIssues"`
}

// ParseReview decodes an LLM reply and anchors every suggestion in text.
func ParseReview(raw, text string) (Review, error) {
	var rr rawReview
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &rr); err != nil {
		block := jsonBlockRe.FindString(raw)
		if block == "" {
			return Review{}, fmt.Errorf("%w: no JSON object found", ErrInvalidOutput)
		}
		rr = rawReview{}
		if err := json.Unmarshal([]byte(block), &rr); err != nil {
			return Review{}, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
	}

	out := Review{
		Suggestions:      make([]Suggestion, 0, len(rr.Suggestions)),
		MissingClauses:   nonNil(rr.MissingClauses),
		ComplianceIssues: nonNil(rr.ComplianceIssues),
		RiskAssessment:   riskText(rr.RiskAssessment),
	}
	if rr.OverallScore != nil {
		out.OverallScore = min(100, max(0, int(math.Round(*rr.OverallScore))))
	}
	seen := make(map[string]bool, len(rr.Suggestions))
	for i, rs := range rr.Suggestions {
		sg := toSuggestion(i, rs, text)
		if seen[sg.ID] {
			sg.ID = fmt.Sprintf("%s-%d", sg.ID, i+1)
		}
		seen[sg.ID] = true
		out.Suggestions = append(out.Suggestions, sg)
	}
	return out, nil
}

func toSuggestion(i int, rs rawSuggestion, text string) Suggestion {
	s := Suggestion{
		ID:            rs.ID,
		Type:          suggestionType(rs.Type),
		Severity:      severity(firstNonEmpty(rs.Severity, rs.RiskLevel)),
		Category:      strings.TrimSpace(rs.Category),
		OriginalText:  rs.OriginalText,
		SuggestedText: rs.SuggestedText,
		Reasoning:     strings.TrimSpace(rs.Reasoning),
		Status:        StatusPending,
	}
	s.RiskLevel = s.Severity
	if s.ID == "" {
		s.ID = fmt.Sprintf("suggestion-%d", i+1)
	}
	if rs.Confidence != nil {
		s.Confidence = math.Min(1, math.Max(0, *rs.Confidence))
	}
	if rs.StartIndex != nil {
		s.StartIndex = int(*rs.StartIndex)
	}
	if rs.EndIndex != nil {
		s.EndIndex = int(*rs.EndIndex)
	}
	Anchor(&s, text)
	return s
}

// Anchor clamps the offsets into text and, when OriginalText does not sit at
// them, relocates the suggestion to the first occurrence of OriginalText.
// It reports whether the suggestion's original text was found.
func Anchor(s *Suggestion, text string) bool {
	runes := []rune(text)
	n := len(runes)
	s.StartIndex = min(max(0, s.StartIndex), n)
	s.EndIndex = min(max(s.StartIndex, s.EndIndex), n)

	if s.Type == TypeAddition && s.OriginalText == "" {
		s.EndIndex = s.StartIndex
		return true
	}
	if s.OriginalText == "" {
		return true
	}
	if string(runes[s.StartIndex:s.EndIndex]) == s.OriginalText {
		return true
	}
	idx := strings.Index(text, s.OriginalText)
	if idx < 0 {
		return false
	}
	s.StartIndex = utf8.RuneCountInString(text[:idx])
	s.EndIndex = s.StartIndex + utf8.RuneCountInString(s.OriginalText)
	return true
}

func suggestionType(v string) SuggestionType {
	switch t := SuggestionType(strings.ToLower(strings.TrimSpace(v))); t {
	case TypeAddition, TypeDeletion, TypeModification, TypeReplacement:
		return t
	}
	return TypeModification
}

func severity(v string) Severity {
	switch s := Severity(strings.ToLower(strings.TrimSpace(v))); s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return s
	}
	return SeverityMedium
}

func riskText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
