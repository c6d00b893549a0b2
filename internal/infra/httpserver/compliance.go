package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	appcompliance "github.com/bryanwahyu/compliance-copilot/internal/application/compliance"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/analyst"
	"github.com/bryanwahyu/compliance-copilot/internal/middleware"
)

type upload struct {
	name     string
	mimeType string
	data     []byte
}

// readUpload parses a multipart form and reads the "file" part fully.
func (r *Router) readUpload(w http.ResponseWriter, req *http.Request) (upload, error) {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return upload{}, err
		}
		return upload{}, badRequestf("expected multipart form: %v", err)
	}
	f, hdr, err := req.FormFile("file")
	if err != nil {
		return upload{}, badRequestf("file is required")
	}
	defer f.Close()

	name := middleware.SanitizeString(hdr.Filename)
	if err := middleware.ValidateUploadFile(name); err != nil {
		return upload{}, badRequestf("%v", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return upload{}, err
	}
	if len(data) == 0 {
		return upload{}, badRequestf("file is empty")
	}
	return upload{name: name, mimeType: hdr.Header.Get("Content-Type"), data: data}, nil
}

type complianceResponse struct {
	Success bool `json:"success"`
	appcompliance.AnalyzeResult
}

// POST /v1/compliance-analysis
// Form: file, selectedStandards (JSON array), applyRuleBase ("true"|"false")
func (r *Router) handleComplianceAnalysis(w http.ResponseWriter, req *http.Request) error {
	up, err := r.readUpload(w, req)
	if err != nil {
		return err
	}
	standards, err := middleware.ParseStandards(req.FormValue("selectedStandards"))
	if err != nil {
		return badRequestf("%v", err)
	}
	apply, _ := strconv.ParseBool(strings.TrimSpace(req.FormValue("applyRuleBase")))

	res, err := r.svc.Compliance.Analyze(req.Context(), appcompliance.AnalyzeCommand{
		FileName:      up.name,
		MIMEType:      up.mimeType,
		Data:          up.data,
		Standards:     standards,
		ApplyRuleBase: apply,
	})
	if err != nil {
		var chain *ai.ChainError
		if errors.As(err, &chain) {
			middleware.RecordAnalysis(true, false, false, len(chain.Errors))
		}
		return err
	}
	middleware.RecordAnalysis(res.Analysis.Failed(), res.Cached,
		strings.Contains(res.Method, "-fallback"), len(res.ProviderFailures))
	return writeJSON(w, http.StatusOK, complianceResponse{Success: true, AnalyzeResult: res})
}

// GET /v1/analyses?page=&page_size=
func (r *Router) handleAnalysesList(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	if page <= 0 {
		page = 1
	}
	size = middleware.ValidateLimit(size)

	res, err := r.svc.Compliance.List(req.Context(), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		analyst.PaginatedResult
	}{true, res})
}

// GET /v1/analyses/{id}
func (r *Router) handleAnalysisGet(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req, "id")
	if err != nil {
		return err
	}
	a, err := r.svc.Compliance.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "analysis": a})
}

// POST /v1/documents/inspect
func (r *Router) handleInspect(w http.ResponseWriter, req *http.Request) error {
	up, err := r.readUpload(w, req)
	if err != nil {
		return err
	}
	res, err := r.svc.Compliance.Inspect(up.name, up.mimeType, up.data)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		appcompliance.InspectResult
	}{true, res})
}
