package contract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nda = "This Agreement is made between Acme and Beta. Either party may terminate at will."

func TestParseReviewAnchorsSuggestions(t *testing.T) {
	raw := `{
	  "suggestions": [
	    {"type": "Replacement", "severity": "HIGH", "originalText": "terminate at will",
	     "suggestedText": "terminate with 30 days notice", "startIndex": 3, "endIndex": 9, "confidence": 1.4},
	    {"type": "addition", "riskLevel": "low", "suggestedText": " Governing law: NY.", "startIndex": 500},
	    {"type": "weird", "originalText": "not in the text", "startIndex": 0, "endIndex": 4}
	  ],
	  "overallScore": 64.4,
	  "riskAssessment": {"level": "medium"},
	  "missingClauses": ["Governing Law"]
	}`

	review, err := ParseReview(raw, nda)
	require.NoError(t, err)
	require.Len(t, review.Suggestions, 3)

	first := review.Suggestions[0]
	assert.Equal(t, TypeReplacement, first.Type)
	assert.Equal(t, SeverityHigh, first.Severity)
	assert.Equal(t, SeverityHigh, first.RiskLevel)
	assert.Equal(t, 1.0, first.Confidence)
	assert.Equal(t, "terminate at will", string([]rune(nda)[first.StartIndex:first.EndIndex]))
	assert.Equal(t, StatusPending, first.Status)
	assert.Equal(t, "suggestion-1", first.ID)

	second := review.Suggestions[1]
	assert.Equal(t, len([]rune(nda)), second.StartIndex)
	assert.Equal(t, second.StartIndex, second.EndIndex)
	assert.Equal(t, SeverityLow, second.Severity)

	third := review.Suggestions[2]
	assert.Equal(t, TypeModification, third.Type)
	assert.Equal(t, SeverityMedium, third.Severity)
	assert.Equal(t, 0, third.StartIndex)
	assert.Equal(t, 4, third.EndIndex)

	assert.Equal(t, 64, review.OverallScore)
	assert.Equal(t, `{"level":"medium"}`, review.RiskAssessment)
	assert.Equal(t, []string{"Governing Law"}, review.MissingClauses)
	assert.Equal(t, []string{}, review.ComplianceIssues)
}

func TestParseReviewFindsEmbeddedJSON(t *testing.T) {
	review, err := ParseReview("Sure!\n{\"overallScore\": 90, \"riskAssessment\": \"low\"}\n", nda)
	require.NoError(t, err)
	assert.Equal(t, 90, review.OverallScore)
	assert.Equal(t, "low", review.RiskAssessment)
	assert.Empty(t, review.Suggestions)
}

func TestParseReviewRejectsProse(t *testing.T) {
	_, err := ParseReview("I could not review the contract.", nda)
	assert.True(t, errors.Is(err, ErrInvalidOutput))
}

func TestAnchorUsesRuneOffsets(t *testing.T) {
	text := "Prix: 100€ par mois. Résiliation libre."
	s := Suggestion{Type: TypeModification, OriginalText: "Résiliation libre"}
	require.True(t, Anchor(&s, text))
	assert.Equal(t, "Résiliation libre", string([]rune(text)[s.StartIndex:s.EndIndex]))
}

func TestReviewRequestValidate(t *testing.T) {
	ok := ReviewRequest{Text: "x", TemplateClauses: []Clause{{Title: "a"}}, ContractType: "NDA"}
	assert.NoError(t, ok.Validate())

	for _, req := range []ReviewRequest{
		{TemplateClauses: ok.TemplateClauses, ContractType: "NDA"},
		{Text: "x", ContractType: "NDA"},
		{Text: "x", TemplateClauses: ok.TemplateClauses},
	} {
		assert.ErrorIs(t, req.Validate(), ErrInvalidInput)
	}
}

func TestParseReviewDeduplicatesIDs(t *testing.T) {
	raw := `{"suggestions":[{"id":"s1","type":"deletion","originalText":"Acme"},{"id":"s1","type":"deletion","originalText":"Beta"}]}`
	review, err := ParseReview(raw, nda)
	require.NoError(t, err)
	require.Len(t, review.Suggestions, 2)
	assert.Equal(t, "s1", review.Suggestions[0].ID)
	assert.Equal(t, "s1-2", review.Suggestions[1].ID)
}
