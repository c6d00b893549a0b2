package contract

import (
	"context"
	"errors"
)

var (
	ErrInvalidInput  = errors.New("invalid contract review request")
	ErrInvalidOutput = errors.New("contract review output could not be parsed")
)

type SuggestionType string

const (
	TypeAddition     SuggestionType = "addition"
	TypeDeletion     SuggestionType = "deletion"
	TypeModification SuggestionType = "modification"
	TypeReplacement  SuggestionType = "replacement"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type SuggestionStatus string

const (
	StatusPending   SuggestionStatus = "pending"
	StatusAccepted  SuggestionStatus = "accepted"
	StatusRejected  SuggestionStatus = "rejected"
	StatusReviewing SuggestionStatus = "reviewing"
)

// Clause is one entry of a contract template.
type Clause struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Required bool   `json:"required"`
	Category string `json:"category,omitempty"`
}

// Suggestion is a proposed edit anchored at rune offsets [StartIndex, EndIndex)
// of the text it was produced for.
type Suggestion struct {
	ID            string           `json:"id"`
	Type          SuggestionType   `json:"type"`
	Severity      Severity         `json:"severity"`
	RiskLevel     Severity         `json:"riskLevel"`
	Category      string           `json:"category"`
	Confidence    float64          `json:"confidence"`
	OriginalText  string           `json:"originalText"`
	SuggestedText string           `json:"suggestedText"`
	StartIndex    int              `json:"startIndex"`
	EndIndex      int              `json:"endIndex"`
	Reasoning     string           `json:"reasoning"`
	Status        SuggestionStatus `json:"status"`
}

// Review is the outcome of one contract review.
type Review struct {
	Suggestions      []Suggestion `json:"suggestions"`
	OverallScore     int          `json:"overallScore"`
	RiskAssessment   string       `json:"riskAssessment"`
	MissingClauses   []string     `json:"missingClauses"`
	ComplianceIssues []string     `json:"complianceIssues"`
}

type ReviewRequest struct {
	Text            string   `json:"text"`
	TemplateClauses []Clause `json:"templateClauses"`
	ContractType    string   `json:"contractType"`
}

func (r ReviewRequest) Validate() error {
	switch {
	case r.Text == "":
		return errors.Join(ErrInvalidInput, errors.New("text is required"))
	case len(r.TemplateClauses) == 0:
		return errors.Join(ErrInvalidInput, errors.New("templateClauses is required"))
	case r.ContractType == "":
		return errors.Join(ErrInvalidInput, errors.New("contractType is required"))
	}
	return nil
}

// Reviewer sends a contract to an LLM and returns its raw reply.
type Reviewer interface {
	ReviewContract(ctx context.Context, req ReviewRequest) (string, error)
}
