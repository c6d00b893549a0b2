package prompt

import (
	"fmt"
	"strings"
)

// Clause is the prompt view of a template clause.
type Clause struct {
	Title    string
	Content  string
	Required bool
}

const contractSchema = `{
  "suggestions": [
    {
      "id": "<string>",
      "type": "<addition|deletion|modification|replacement>",
      "severity": "<low|medium|high|critical>",
      "category": "<string>",
      "confidence": <number 0-1>,
      "originalText": "<exact text from the contract, empty for additions>",
      "suggestedText": "<replacement or inserted text>",
      "startIndex": <character offset of originalText>,
      "endIndex": <character offset after originalText>,
      "reasoning": "<string>"
    }
  ],
  "overallScore": <number 0-100>,
  "riskAssessment": "<string>",
  "missingClauses": ["<clause title>"],
  "complianceIssues": ["<string>"]
}`

// GetContractSystemPrompt is the system instruction for contract review.
func GetContractSystemPrompt() string {
	return `You are an experienced contract lawyer reviewing a draft against a clause template. You must produce one valid JSON object only (no markdown, no commentary). originalText must be copied verbatim from the contract so it can be located.`
}

// BuildContractPrompt embeds the contract, its type and the template clauses.
func BuildContractPrompt(text string, clauses []Clause, contractType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review this %s contract against the template clauses below.\n\n", contractType)
	b.WriteString("Template clauses:\n")
	for i, c := range clauses {
		req := "optional"
		if c.Required {
			req = "required"
		}
		fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, c.Title, req, strings.TrimSpace(c.Content))
	}
	b.WriteString("\nRespond with a JSON object in exactly this shape:\n")
	b.WriteString(contractSchema)
	b.WriteString("\n\nContract:\n")
	b.WriteString(truncate(text, maxDocumentChars))
	return b.String()
}
