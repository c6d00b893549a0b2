package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/rules"
)

func baseResult() AnalysisResult {
	return AnalysisResult{
		OverallScore:  78,
		OverallStatus: StatusPartial,
		StandardsAnalysis: []StandardAnalysis{{
			Standard:       "gdpr",
			Score:          80,
			Status:         StatusPartial,
			Gaps:           []string{"No DPO"},
			Suggestions:    []string{"Appoint a DPO"},
			CriticalIssues: []string{},
		}},
		Summary: Summary{TotalGaps: 1, RecommendedActions: []string{"Appoint a DPO"}},
	}
}

func TestAugmentNoActiveRulesIsNoop(t *testing.T) {
	in := baseResult()
	out, applied, count := Augment(in, []rules.Rule{{Name: "off", Active: rules.Bool(false)}}, []string{"gdpr"})

	assert.False(t, applied)
	assert.Equal(t, 0, count)
	assert.Equal(t, in, out)
}

func TestAugmentAddsSuggestionAndGap(t *testing.T) {
	rs := []rules.Rule{
		{ID: "r1", Name: "No special category data", Description: "Health data must not be stored"},
		{ID: "r2", Name: "Tag everything"},
		{ID: "r3", Name: "Disabled", Description: "x", Active: rules.Bool(false)},
	}
	in := baseResult()
	out, applied, count := Augment(in, rs, []string{"gdpr", "hipaa"})

	require.True(t, applied)
	assert.Equal(t, 2, count)

	primary := out.StandardsAnalysis[0]
	assert.Contains(t, primary.Suggestions[1], "No special category data")
	assert.Equal(t, "Ensure rule 'No special category data' is addressed for gdpr, hipaa: Health data must not be stored", primary.Suggestions[1])
	assert.Equal(t, "Ensure rule 'Tag everything' is addressed for gdpr, hipaa: ", primary.Suggestions[2])
	assert.Len(t, primary.Gaps, 2, "only rules with a description add a gap")
	assert.Equal(t, 77, primary.Score)
	assert.Equal(t, 77, out.OverallScore)
	assert.Equal(t, StatusPartial, primary.Status)
	assert.Equal(t, 2, out.Summary.TotalGaps)
	assert.Len(t, out.Summary.RecommendedActions, 3)

	assert.Len(t, in.StandardsAnalysis[0].Suggestions, 1, "input must not be mutated")
}

func TestAugmentIdempotentOnRuleName(t *testing.T) {
	rs := []rules.Rule{{Name: "Encrypt backups", Description: "AES-256 at rest"}}
	once, _, _ := Augment(baseResult(), rs, []string{"gdpr"})
	twice, applied, _ := Augment(once, rs, []string{"gdpr"})

	assert.True(t, applied)
	assert.Equal(t, once.StandardsAnalysis[0].Suggestions, twice.StandardsAnalysis[0].Suggestions)
	assert.Equal(t, once.StandardsAnalysis[0].Gaps, twice.StandardsAnalysis[0].Gaps)
	assert.Equal(t, once.OverallScore, twice.OverallScore)
}

func TestAugmentPenaltyCappedAndFloored(t *testing.T) {
	var rs []rules.Rule
	for i := 0; i < 15; i++ {
		rs = append(rs, rules.Rule{Name: "rule-" + string(rune('a'+i)), Description: "d"})
	}

	in := baseResult()
	out, _, _ := Augment(in, rs, nil)
	assert.Equal(t, in.OverallScore-10, out.OverallScore)
	assert.LessOrEqual(t, out.OverallScore, in.OverallScore)

	low := baseResult()
	low.OverallScore = 4
	out, _, _ = Augment(low, rs, nil)
	assert.Equal(t, 0, out.OverallScore)
	assert.Equal(t, StatusNonCompliant, out.StandardsAnalysis[0].Status)
}

func TestAugmentSynthesizesPrimary(t *testing.T) {
	in := AnalysisResult{OverallScore: 92}
	out, applied, _ := Augment(in, []rules.Rule{{Name: "Keep logs", Description: "90 days"}}, []string{"soc2"})

	require.True(t, applied)
	require.Len(t, out.StandardsAnalysis, 1)
	assert.Equal(t, "soc2", out.StandardsAnalysis[0].Standard)
	assert.Equal(t, 91, out.StandardsAnalysis[0].Score)
	assert.Equal(t, StatusCompliant, out.StandardsAnalysis[0].Status)
}
