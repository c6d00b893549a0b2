package prompt

import (
	"fmt"
	"strings"
)

// AttachedDocumentSentinel replaces the document text when the provider
// receives the file itself.
const AttachedDocumentSentinel = "[The document is attached to this message. Analyze the attached file directly.]"

// maxDocumentChars keeps prompts under provider context limits.
const maxDocumentChars = 60000

const analysisSchema = `{
  "overallScore": <number 0-100>,
  "standardsAnalysis": [
    {
      "standard": "<standard name>",
      "score": <number 0-100>,
      "status": "<compliant|partial|non-compliant>",
      "gaps": ["<string>"],
      "suggestions": ["<string>"],
      "criticalIssues": ["<string>"]
    }
  ],
  "summary": {
    "totalGaps": <number>,
    "criticalIssues": <number>,
    "recommendedActions": ["<string>"]
  },
  "detailedFindings": {
    "strengths": ["<string>"],
    "weaknesses": ["<string>"],
    "riskAreas": ["<string>"]
  }
}`

// GetSystemPrompt provides strict directions for JSON output.
func GetSystemPrompt() string {
	return `You are a senior compliance analyst. You must produce one valid JSON object only (no markdown, no commentary, no code fences) that follows the schema given by the user.

Requirements:
- Output must be a single JSON object.
- Scores are integers from 0 to 100. status is "compliant" for 90 and above, "partial" for 70 to 89, otherwise "non-compliant".
- Base every gap and suggestion on the document content. Do not invent policies, controls or facts the document does not support.
- Keep each list item to one concise sentence.`
}

// BuildCompliancePrompt names every selected standard, embeds the schema and
// the document (or the attached-document sentinel).
func BuildCompliancePrompt(standards []string, document string) string {
	var b strings.Builder
	b.WriteString("Analyze the following document for compliance with these standards:\n")
	for i, s := range standards {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nProvide one entry in standardsAnalysis for each standard above, in the same order.\n")
	b.WriteString("Respond with a JSON object in exactly this shape:\n")
	b.WriteString(analysisSchema)
	b.WriteString("\n\nOnly report gaps you can support from the document. If the document does not address a requirement, say that it is missing rather than assuming it exists.\n")
	b.WriteString("\nDocument:\n")
	b.WriteString(truncate(document, maxDocumentChars))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "\n[...truncated]"
}
