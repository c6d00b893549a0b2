package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apprules "github.com/bryanwahyu/compliance-copilot/internal/application/rules"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/rules"
	"github.com/bryanwahyu/compliance-copilot/internal/middleware"
)

// ruleID reads the id from the path, falling back to ?id= for the legacy form.
func ruleID(req *http.Request) (string, error) {
	id := chi.URLParam(req, "id")
	if id == "" {
		id = strings.TrimSpace(req.URL.Query().Get("id"))
	}
	if err := middleware.ValidateID(id); err != nil {
		return "", badRequestf("id: %v", err)
	}
	return id, nil
}

// GET /v1/rulebase?active=true
func (r *Router) handleRulesList(w http.ResponseWriter, req *http.Request) error {
	var (
		list []rules.Rule
		err  error
	)
	if active, _ := strconv.ParseBool(req.URL.Query().Get("active")); active {
		list, err = r.svc.Rules.ListActive(req.Context())
	} else {
		list, err = r.svc.Rules.List(req.Context())
	}
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "rules": list})
}

// GET /v1/rulebase/{id}
func (r *Router) handleRuleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := ruleID(req)
	if err != nil {
		return err
	}
	rule, err := r.svc.Rules.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "rule": rule})
}

// POST /v1/rulebase
// Body: {"name": "...", "description": "...", "tags": [...], "active": true}
func (r *Router) handleRuleCreate(w http.ResponseWriter, req *http.Request) error {
	var body apprules.CreateCommand
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	body.Name = middleware.SanitizeString(body.Name)
	rule, err := r.svc.Rules.Create(req.Context(), body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]any{"success": true, "rule": rule})
}

// PATCH /v1/rulebase/{id} or PATCH /v1/rulebase with {"id": ...} in the body
func (r *Router) handleRulePatch(w http.ResponseWriter, req *http.Request) error {
	var body apprules.PatchCommand
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	if body.ID == "" || chi.URLParam(req, "id") != "" || req.URL.Query().Get("id") != "" {
		id, err := ruleID(req)
		if err != nil {
			return err
		}
		body.ID = id
	}
	rule, err := r.svc.Rules.Patch(req.Context(), body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "rule": rule})
}

// POST /v1/rulebase/{id}/toggle
func (r *Router) handleRuleToggle(w http.ResponseWriter, req *http.Request) error {
	id, err := ruleID(req)
	if err != nil {
		return err
	}
	rule, err := r.svc.Rules.Toggle(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "rule": rule})
}

// DELETE /v1/rulebase/{id} or DELETE /v1/rulebase?id=
func (r *Router) handleRuleDelete(w http.ResponseWriter, req *http.Request) error {
	id, err := ruleID(req)
	if err != nil {
		return err
	}
	if err := r.svc.Rules.Delete(req.Context(), id); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

// POST /v1/rulebase/upload
// Only the metadata of the uploaded file is recorded.
func (r *Router) handleRuleUpload(w http.ResponseWriter, req *http.Request) error {
	up, err := r.readUpload(w, req)
	if err != nil {
		return err
	}
	f, err := r.svc.Rules.RegisterFile(req.Context(), up.name, int64(len(up.data)), up.mimeType)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]any{"success": true, "file": f})
}

// GET /v1/rulebase/files
func (r *Router) handleRuleFiles(w http.ResponseWriter, req *http.Request) error {
	files, err := r.svc.Rules.ListFiles(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "files": files})
}
