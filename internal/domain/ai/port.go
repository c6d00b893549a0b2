package ai

import "context"

// Document is what a provider receives: the raw upload plus our extraction.
type Document struct {
	FileName string
	MIMEType string
	Data     []byte
	Text     string
	Readable bool
}

type OutputKind int

const (
	// OutputJSON is a reply produced under a strict JSON response mode.
	OutputJSON OutputKind = iota
	// OutputProse is free text that may or may not embed a JSON object.
	OutputProse
)

// Output is a raw provider reply; the normalizer decides what it contains.
type Output struct {
	Kind OutputKind
	Raw  string
}

// Provider analyzes a document against a set of standards.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, doc Document, standards []string) (Output, error)
}
