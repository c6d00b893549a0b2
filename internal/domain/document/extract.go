package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind is the coarse document type used to pick extraction heuristics.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindDOC   Kind = "doc"
	KindDOCX  Kind = "docx"
	KindText  Kind = "txt"
	KindOther Kind = "other"
)

// ErrNoText is returned when no printable run could be recovered.
var ErrNoText = errors.New("could not extract text")

// ExtractionError carries the file that failed; it matches ErrNoText.
type ExtractionError struct {
	FileName string
	Kind     Kind
	Reason   string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not extract text from %s (%s): %s", e.FileName, e.Kind, e.Reason)
}

func (e *ExtractionError) Is(target error) bool { return target == ErrNoText }

// ExtractedText is the best-effort text of one upload.
type ExtractedText struct {
	Text     string
	Kind     Kind
	Readable bool
}

// Options select the printable-run length and readability gate.
type Options struct {
	MinRun     int
	Thresholds Thresholds
}

var (
	ComplianceOptions = Options{MinRun: 50, Thresholds: ComplianceThresholds}
	ContractOptions   = Options{MinRun: 20, Thresholds: ComplianceThresholds}
)

var (
	pdfStringRe = regexp.MustCompile(`\(([^)]{10,})\)`)
	runCache    = map[int]*regexp.Regexp{}
)

func printableRunRe(n int) *regexp.Regexp {
	if re, ok := runCache[n]; ok {
		return re
	}
	return regexp.MustCompile(fmt.Sprintf(`[\x20-\x7E\s]{%d,}`, n))
}

func init() {
	for _, n := range []int{ComplianceOptions.MinRun, ContractOptions.MinRun} {
		runCache[n] = regexp.MustCompile(fmt.Sprintf(`[\x20-\x7E\s]{%d,}`, n))
	}
}

// DetectKind looks at the extension first, then the MIME type.
func DetectKind(fileName, mimeType string) Kind {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".doc":
		return KindDOC
	case ".txt", ".md", ".text":
		return KindText
	}
	mt := strings.ToLower(mimeType)
	switch {
	case strings.Contains(mt, "pdf"):
		return KindPDF
	case strings.Contains(mt, "wordprocessingml"):
		return KindDOCX
	case strings.Contains(mt, "msword"):
		return KindDOC
	case strings.HasPrefix(mt, "text/"):
		return KindText
	}
	return KindOther
}

// Extract decodes data into text using regex heuristics only.
func Extract(data []byte, fileName, mimeType string, opts Options) (ExtractedText, error) {
	kind := DetectKind(fileName, mimeType)
	if opts.MinRun <= 0 {
		opts.MinRun = ComplianceOptions.MinRun
	}
	if len(data) == 0 {
		return ExtractedText{Kind: kind}, &ExtractionError{FileName: fileName, Kind: kind, Reason: "empty file"}
	}

	decoded := strings.ToValidUTF8(string(data), "�")

	if kind == KindText || kind == KindOther {
		if IsReadable(decoded, opts.Thresholds) {
			return ExtractedText{Text: decoded, Kind: kind, Readable: true}, nil
		}
	}

	var parts []string
	if kind == KindPDF {
		for _, m := range pdfStringRe.FindAllStringSubmatch(decoded, -1) {
			parts = append(parts, strings.TrimSpace(m[1]))
		}
	}
	for _, run := range printableRunRe(opts.MinRun).FindAllString(decoded, -1) {
		if run = strings.TrimSpace(run); run != "" {
			parts = append(parts, run)
		}
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return ExtractedText{Kind: kind}, &ExtractionError{FileName: fileName, Kind: kind, Reason: "no printable text runs"}
	}
	return ExtractedText{Text: text, Kind: kind, Readable: IsReadable(text, opts.Thresholds)}, nil
}
