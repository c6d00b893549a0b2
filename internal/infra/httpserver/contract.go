package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/contract"
	"github.com/bryanwahyu/compliance-copilot/internal/middleware"
)

// POST /v1/contract-analyze
// Body: {"text": "...", "templateClauses": [...], "contractType": "..."}
func (r *Router) handleContractAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body contract.ReviewRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	body.ContractType = middleware.SanitizeString(body.ContractType)

	review, err := r.svc.Contract.Analyze(req.Context(), body)
	if err != nil {
		if errors.Is(err, contract.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("contract analysis failed: %w", err)
	}
	middleware.IncrementContractReviews()
	return writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		contract.Review
	}{true, review})
}

// POST /v1/contracts/extract
func (r *Router) handleContractExtract(w http.ResponseWriter, req *http.Request) error {
	up, err := r.readUpload(w, req)
	if err != nil {
		return err
	}
	res, err := r.svc.Contract.Extract(up.name, up.mimeType, up.data)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"fileName": res.FileName,
		"kind":     res.Kind,
		"text":     res.Text,
		"readable": res.Readable,
	})
}
