package compliance

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/rules"
)

const maxRulePenalty = 10

// Augment merges active registry rules into the primary standard analysis.
// It returns the augmented copy, whether anything was applied and how many
// active rules were considered. result itself is never modified.
func Augment(result AnalysisResult, all []rules.Rule, standards []string) (AnalysisResult, bool, int) {
	active := rules.Active(all)
	if len(active) == 0 {
		return result, false, 0
	}

	out := result.Clone()
	if len(out.StandardsAnalysis) == 0 {
		out.StandardsAnalysis = []StandardAnalysis{{
			Standard:       standardsLabel(standards),
			Score:          out.OverallScore,
			Gaps:           []string{},
			Suggestions:    []string{},
			CriticalIssues: []string{},
		}}
	}
	primary := &out.StandardsAnalysis[0]

	label := standardsLabel(standards)
	if len(standards) == 0 && primary.Standard != "" {
		label = primary.Standard
	}

	addedGaps := 0
	for _, r := range active {
		name := strings.TrimSpace(r.Name)
		if name == "" || referenced(primary.Suggestions, name) {
			continue
		}
		desc := strings.TrimSpace(r.Description)
		primary.Suggestions = append(primary.Suggestions,
			fmt.Sprintf("Ensure rule '%s' is addressed for %s: %s", name, label, desc))
		if desc != "" {
			primary.Gaps = append(primary.Gaps, fmt.Sprintf("Rule '%s' not yet satisfied: %s", name, desc))
			addedGaps++
		}
	}

	score := max(0, out.OverallScore-min(maxRulePenalty, addedGaps))
	primary.Score = score
	primary.Status = StatusFromScore(score)
	out.OverallScore = score
	out.OverallStatus = StatusFromScore(score)
	out.Summary.TotalGaps = len(primary.Gaps)
	out.Summary.RecommendedActions = firstN(primary.Suggestions, 5)

	return out, true, len(active)
}

func referenced(suggestions []string, name string) bool {
	for _, s := range suggestions {
		if strings.Contains(s, name) {
			return true
		}
	}
	return false
}
