package compliance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bryanwahyu/compliance-copilot/internal/application"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/analyst"
	domain "github.com/bryanwahyu/compliance-copilot/internal/domain/compliance"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/document"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/rules"
)

// Analyzer runs the provider chain.
type Analyzer interface {
	Analyze(ctx context.Context, doc ai.Document, standards []string) (ai.Attempt, error)
}

type RuleLister interface {
	List(ctx context.Context) ([]rules.Rule, error)
}

// DocumentArchive stores the uploaded file and returns its URL.
type DocumentArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Service implements the compliance analysis use-cases. Archive, Repo and
// Cache are optional.
type Service struct {
	Analyzer Analyzer
	Rules    RuleLister
	Archive  DocumentArchive
	Repo     analyst.Repository
	Cache    *lru.Cache[string, CachedAnalysis]
	Clock    application.Clock
	Log      hclog.Logger

	// KeyFunc builds object keys for archived documents.
	KeyFunc func(id, fileName string, at time.Time) string
}

// CachedAnalysis is a normalized, not yet augmented, result.
type CachedAnalysis struct {
	Result domain.AnalysisResult
	Method string
}

func NewCache(size int) (*lru.Cache[string, CachedAnalysis], error) {
	return lru.New[string, CachedAnalysis](size)
}

type AnalyzeCommand struct {
	FileName      string
	MIMEType      string
	Data          []byte
	Standards     []string
	ApplyRuleBase bool
}

type AnalyzeResult struct {
	FileName         string                `json:"fileName"`
	Standards        []string              `json:"selectedStandards"`
	Analysis         domain.AnalysisResult `json:"analysis"`
	Method           string                `json:"method"`
	AppliedRuleBase  bool                  `json:"appliedRuleBase"`
	RuleCount        int                   `json:"ruleCount"`
	AnalysisID       string                `json:"analysisId,omitempty"`
	Cached           bool                  `json:"cached"`
	ProviderFailures []string              `json:"providerFailures,omitempty"`
}

// Analyze runs extraction, the provider chain, normalization and optional
// rule augmentation for one uploaded document.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (AnalyzeResult, error) {
	standards := domain.NormalizeStandards(cmd.Standards)
	switch {
	case len(cmd.Data) == 0:
		return AnalyzeResult{}, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	case len(standards) == 0:
		return AnalyzeResult{}, fmt.Errorf("%w: select at least one standard", domain.ErrInvalidInput)
	}
	log := s.logger().With("file", cmd.FileName)

	out := AnalyzeResult{FileName: cmd.FileName, Standards: standards}
	key := cacheKey(cmd.Data, standards)

	var base CachedAnalysis
	if c, ok := s.cacheGet(key); ok {
		log.Debug("analysis cache hit", "method", c.Method)
		base = CachedAnalysis{Result: c.Result.Clone(), Method: c.Method}
		out.Cached = true
	} else {
		doc := s.extract(log, cmd)
		att, err := s.Analyzer.Analyze(ctx, doc, standards)
		if err != nil {
			return AnalyzeResult{}, err
		}
		for _, f := range att.Failures {
			out.ProviderFailures = append(out.ProviderFailures, f.Error())
		}
		base = CachedAnalysis{Result: domain.Normalize(att.Output, standards), Method: att.Method()}
		if base.Result.Failed() {
			log.Warn("provider reply could not be interpreted", "method", base.Method)
		} else if s.Cache != nil {
			s.Cache.Add(key, CachedAnalysis{Result: base.Result.Clone(), Method: base.Method})
		}
	}

	out.Analysis, out.Method = base.Result, base.Method
	if cmd.ApplyRuleBase && s.Rules != nil {
		all, err := s.Rules.List(ctx)
		if err != nil {
			log.Warn("rule base unavailable, skipping augmentation", "error", err)
		} else {
			res, applied, count := domain.Augment(out.Analysis, all, standards)
			out.Analysis, out.AppliedRuleBase, out.RuleCount = res, applied, count
			if applied {
				out.Method += "+rulebase"
			}
		}
	}

	if !out.Cached {
		out.AnalysisID = s.record(ctx, log, cmd, out)
	}
	log.Info("analysis complete", "method", out.Method, "score", out.Analysis.OverallScore, "cached", out.Cached)
	return out, nil
}

func (s *Service) extract(log hclog.Logger, cmd AnalyzeCommand) ai.Document {
	doc := ai.Document{FileName: cmd.FileName, MIMEType: cmd.MIMEType, Data: cmd.Data}
	ext, err := document.Extract(cmd.Data, cmd.FileName, cmd.MIMEType, document.ComplianceOptions)
	if err != nil {
		// the chain still runs; providers that read the file directly can cope
		log.Info("no text extracted", "error", err)
		return doc
	}
	doc.Text, doc.Readable = ext.Text, ext.Readable
	if !ext.Readable {
		st := document.Stats(ext.Text)
		log.Info("extracted text failed readability gate",
			"length", st.Length, "words", st.Words, "letter_ratio", st.LetterRatio, "avg_word_len", st.AvgWordLen)
	}
	return doc
}

// record archives and persists the analysis. Failures are logged only: the
// caller already paid for the analysis and should get it back.
func (s *Service) record(ctx context.Context, log hclog.Logger, cmd AnalyzeCommand, out AnalyzeResult) string {
	if s.Repo == nil && s.Archive == nil {
		return ""
	}
	id := uuid.NewString()
	rec := &analyst.Analysis{
		ID:           analyst.AnalysisID(id),
		FileName:     cmd.FileName,
		Standards:    out.Standards,
		Method:       out.Method,
		OverallScore: out.Analysis.OverallScore,
		CreatedAt:    s.now(),
	}

	if s.Archive != nil {
		key := s.objectKey(id, cmd.FileName)
		url, err := s.Archive.Put(ctx, key, cmd.Data, cmd.MIMEType)
		if err != nil {
			log.Warn("document archive failed", "key", key, "error", err)
		} else {
			rec.DocumentURL = url
		}
	}
	if s.Repo == nil {
		return ""
	}
	raw, err := json.Marshal(out.Analysis)
	if err != nil {
		log.Warn("encode analysis failed", "error", err)
		return ""
	}
	rec.Result = string(raw)
	if err := s.Repo.Save(ctx, rec); err != nil {
		log.Warn("save analysis failed", "error", err)
		return ""
	}
	return id
}

// List returns one page of stored analyses, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) (analyst.PaginatedResult, error) {
	if s.Repo == nil {
		return analyst.NewPaginatedResult(nil, page, pageSize, 0), nil
	}
	data, err := s.Repo.Paginate(ctx, page, pageSize)
	if err != nil {
		return analyst.PaginatedResult{}, err
	}
	total, err := s.Repo.Count(ctx)
	if err != nil {
		return analyst.PaginatedResult{}, err
	}
	return analyst.NewPaginatedResult(data, page, pageSize, total), nil
}

func (s *Service) Get(ctx context.Context, id string) (*analyst.Analysis, error) {
	if s.Repo == nil || strings.TrimSpace(id) == "" {
		return nil, analyst.ErrNotFound
	}
	return s.Repo.Get(ctx, analyst.AnalysisID(id))
}

// InspectResult reports how extraction went for an upload.
type InspectResult struct {
	FileName string                    `json:"fileName"`
	Kind     document.Kind             `json:"kind"`
	Readable bool                      `json:"readable"`
	Stats    document.ReadabilityStats `json:"stats"`
	Preview  string                    `json:"preview"`
}

const previewRunes = 500

// Inspect runs extraction and the readability gate without calling providers.
func (s *Service) Inspect(fileName, mimeType string, data []byte) (InspectResult, error) {
	if len(data) == 0 {
		return InspectResult{}, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	ext, err := document.Extract(data, fileName, mimeType, document.ComplianceOptions)
	if err != nil && !errors.Is(err, document.ErrNoText) {
		return InspectResult{}, err
	}
	preview := []rune(ext.Text)
	if len(preview) > previewRunes {
		preview = preview[:previewRunes]
	}
	return InspectResult{
		FileName: fileName,
		Kind:     document.DetectKind(fileName, mimeType),
		Readable: ext.Readable,
		Stats:    document.Stats(ext.Text),
		Preview:  string(preview),
	}, nil
}

func (s *Service) cacheGet(key string) (CachedAnalysis, bool) {
	if s.Cache == nil {
		return CachedAnalysis{}, false
	}
	return s.Cache.Get(key)
}

func (s *Service) objectKey(id, fileName string) string {
	if s.KeyFunc != nil {
		return s.KeyFunc(id, fileName, s.now())
	}
	return "documents/" + id
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func (s *Service) now() time.Time { return s.clock().Now().UTC() }

func (s *Service) logger() hclog.Logger {
	if s.Log == nil {
		return hclog.NewNullLogger()
	}
	return s.Log
}

func cacheKey(data []byte, standards []string) string {
	h := sha256.New()
	h.Write(data)
	for _, st := range standards {
		h.Write([]byte{0})
		h.Write([]byte(strings.ToLower(st)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
