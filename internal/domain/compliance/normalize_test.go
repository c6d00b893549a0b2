package compliance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
)

func TestStatusFromScore(t *testing.T) {
	tests := []struct {
		score int
		want  Status
	}{
		{100, StatusCompliant},
		{90, StatusCompliant},
		{89, StatusPartial},
		{70, StatusPartial},
		{69, StatusNonCompliant},
		{0, StatusNonCompliant},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFromScore(tt.score), "score %d", tt.score)
	}
}

func TestNormalizeStrictJSON(t *testing.T) {
	raw := `{
	  "overallScore": 82.6,
	  "standardsAnalysis": [
	    {"standard": "GDPR", "score": 95, "status": "non-compliant", "gaps": ["No DPO named"], "suggestions": ["Appoint a DPO"]},
	    {"score": 64, "gaps": [{"description": "No BAA template"}, "Audit logs missing"], "criticalIssues": ["PHI in email"]}
	  ],
	  "summary": {"recommendedActions": ["Appoint a DPO"]},
	  "detailedFindings": {"strengths": ["Clear retention policy"]}
	}`

	res := Normalize(ai.Output{Kind: ai.OutputJSON, Raw: raw}, []string{"gdpr", "hipaa"})

	assert.False(t, res.Failed())
	assert.Equal(t, 83, res.OverallScore)
	assert.Equal(t, StatusPartial, res.OverallStatus)
	require.Len(t, res.StandardsAnalysis, 2)

	gdpr := res.StandardsAnalysis[0]
	assert.Equal(t, "GDPR", gdpr.Standard)
	assert.Equal(t, StatusCompliant, gdpr.Status, "status is derived from score, not trusted")
	assert.NotNil(t, gdpr.CriticalIssues)

	hipaa := res.StandardsAnalysis[1]
	assert.Equal(t, "hipaa", hipaa.Standard)
	assert.Equal(t, []string{"No BAA template", "Audit logs missing"}, hipaa.Gaps)
	assert.Equal(t, StatusNonCompliant, hipaa.Status)

	assert.Equal(t, 1, res.Summary.TotalGaps)
	assert.Equal(t, 1, res.Summary.CriticalIssues)
	assert.Equal(t, []string{"Clear retention policy"}, res.DetailedFindings.Strengths)
	assert.NotNil(t, res.DetailedFindings.RiskAreas)
}

func TestNormalizeJSONBlockInsideProse(t *testing.T) {
	raw := "Here is the analysis you asked for:\n```json\n{\"overallScore\": 71}\n```\nThanks."

	res := Normalize(ai.Output{Kind: ai.OutputProse, Raw: raw}, []string{"iso27001"})

	assert.Equal(t, 71, res.OverallScore)
	require.Len(t, res.StandardsAnalysis, 1)
	assert.Equal(t, "iso27001", res.StandardsAnalysis[0].Standard)
	assert.Equal(t, 71, res.StandardsAnalysis[0].Score)
	assert.Equal(t, StatusPartial, res.StandardsAnalysis[0].Status)
}

func TestNormalizeOverallFromStandardsAverage(t *testing.T) {
	raw := `{"standardsAnalysis": [{"standard": "A", "score": 80}, {"standard": "B", "score": 60}]}`
	res := Normalize(ai.Output{Kind: ai.OutputJSON, Raw: raw}, nil)
	assert.Equal(t, 70, res.OverallScore)
}

func TestNormalizeStringScores(t *testing.T) {
	raw := `{"overallScore":"82","standardsAnalysis":[{"standard":"GDPR","score":"82","gaps":["No DPO appointed"],"suggestions":["Appoint a DPO"]},{"standard":"SOC 2","score":"64.6%"}],"summary":{"totalGaps":"1"},"detailedFindings":{"strengths":["Retention schedule is defined"]}}`

	res := Normalize(ai.Output{Kind: ai.OutputJSON, Raw: raw}, []string{"gdpr", "soc2"})

	assert.False(t, res.Failed())
	assert.Equal(t, 82, res.OverallScore)
	require.Len(t, res.StandardsAnalysis, 2)
	assert.Equal(t, 82, res.StandardsAnalysis[0].Score)
	assert.Equal(t, 65, res.StandardsAnalysis[1].Score)
	assert.Equal(t, []string{"No DPO appointed"}, res.StandardsAnalysis[0].Gaps)
	assert.Equal(t, []string{"Appoint a DPO"}, res.StandardsAnalysis[0].Suggestions)
	assert.Equal(t, []string{"Retention schedule is defined"}, res.DetailedFindings.Strengths)
}

func TestNormalizeUnrecognizedJSONObject(t *testing.T) {
	raw := `{"verdict":"The policy is missing a breach notification section and we recommend adding one."}`

	res := Normalize(ai.Output{Kind: ai.OutputJSON, Raw: raw}, []string{"gdpr"})

	assert.True(t, res.Failed())
	assert.NotContains(t, res.StandardsAnalysis[0].Gaps[0], "verdict")
	assert.Empty(t, res.DetailedFindings.Strengths)
}

func TestNormalizeProseExtraction(t *testing.T) {
	raw := `Overall the policy scores 65%. There is a gap in incident notification timelines.
Data retention periods are missing for backups. We recommend defining a 72-hour notification process.
Access reviews are well documented. The lack of encryption creates exposure for customer records.`

	res := Normalize(ai.Output{Kind: ai.OutputProse, Raw: raw}, []string{"gdpr"})

	assert.False(t, res.Failed())
	assert.Equal(t, 65, res.OverallScore)
	sa := res.StandardsAnalysis[0]
	assert.Equal(t, StatusNonCompliant, sa.Status)
	assert.Len(t, sa.Gaps, 2)
	assert.Contains(t, sa.Suggestions[0], "72-hour notification")
	assert.Len(t, res.DetailedFindings.Strengths, 1)
	assert.Len(t, res.DetailedFindings.RiskAreas, 1)
	assert.Equal(t, 2, res.Summary.TotalGaps)
}

func TestNormalizeProseScorePatterns(t *testing.T) {
	for raw, want := range map[string]int{
		"Compliance score: 88 overall and issue count is low": 88,
		"We rate this 42 out of 100 given the missing controls": 42,
		"Coverage is 250% of target but the score: 77 holds":   77,
	} {
		res := Normalize(ai.Output{Kind: ai.OutputProse, Raw: raw}, nil)
		assert.Equal(t, want, res.OverallScore, raw)
	}
}

func TestNormalizeGapsOnlyScore(t *testing.T) {
	raw := "Consent records are missing. Vendor contracts are lacking DPAs. Incident logs are absent entirely."
	res := Normalize(ai.Output{Kind: ai.OutputProse, Raw: raw}, nil)

	assert.Equal(t, 30, res.OverallScore) // max(20, 60 - 3*10)
	assert.Len(t, res.StandardsAnalysis[0].Gaps, 3)
}

func TestNormalizeGapsOnlyScoreFloor(t *testing.T) {
	var parts []string
	for i := 0; i < 7; i++ {
		parts = append(parts, "Control number "+string(rune('A'+i))+" is missing from the policy")
	}
	res := Normalize(ai.Output{Kind: ai.OutputProse, Raw: strings.Join(parts, ". ")}, nil)

	assert.Len(t, res.StandardsAnalysis[0].Gaps, maxProseItems)
	assert.Equal(t, 20, res.OverallScore)
}

func TestNormalizeTotalFailure(t *testing.T) {
	for _, raw := range []string{"", "I cannot help with that.", "{not json at all"} {
		res := Normalize(ai.Output{Kind: ai.OutputProse, Raw: raw}, []string{"gdpr"})

		assert.True(t, res.Failed(), raw)
		assert.Equal(t, 0, res.OverallScore)
		require.Len(t, res.StandardsAnalysis, 1)
		assert.Contains(t, res.StandardsAnalysis[0].Gaps[0], "Analysis Failed")
		assert.Len(t, res.StandardsAnalysis[0].Suggestions, 1)
		assert.Equal(t, 1, res.Summary.TotalGaps)
	}
}

func TestNormalizeStandards(t *testing.T) {
	got := NormalizeStandards([]string{" GDPR ", "", "SOC 2", "gdpr", "ISO 27001", "  "})
	assert.Equal(t, []string{"GDPR", "SOC 2", "ISO 27001"}, got)
	assert.Empty(t, NormalizeStandards(nil))
}
