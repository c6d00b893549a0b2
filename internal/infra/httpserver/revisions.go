package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	apprevision "github.com/bryanwahyu/compliance-copilot/internal/application/revision"
)

var errRevisionsDisabled = errors.New("revision sessions are not enabled")

const maxSuggestionIDLen = 256

// suggestionID takes the id as the reviewer produced it, escaped or not. The
// session decides whether it exists.
func suggestionID(req *http.Request) (string, error) {
	raw := chi.URLParam(req, "sid")
	sid, err := url.PathUnescape(raw)
	if err != nil {
		sid = raw
	}
	if strings.TrimSpace(sid) == "" || utf8.RuneCountInString(sid) > maxSuggestionIDLen {
		return "", badRequestf("sid: must be 1-%d characters", maxSuggestionIDLen)
	}
	return sid, nil
}

func (r *Router) revisions() (*apprevision.Service, error) {
	if r.svc.Revisions == nil {
		return nil, errRevisionsDisabled
	}
	return r.svc.Revisions, nil
}

// POST /v1/revisions
// Body: {"text": "...", "suggestions": [...]}
func (r *Router) handleRevisionCreate(w http.ResponseWriter, req *http.Request) error {
	svc, err := r.revisions()
	if err != nil {
		return err
	}
	var body apprevision.CreateCommand
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	sess, err := svc.Create(body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, sess)
}

// GET /v1/revisions/{id}
func (r *Router) handleRevisionGet(w http.ResponseWriter, req *http.Request) error {
	svc, err := r.revisions()
	if err != nil {
		return err
	}
	id, err := pathID(req, "id")
	if err != nil {
		return err
	}
	sess, err := svc.Get(id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sess)
}

// DELETE /v1/revisions/{id}
func (r *Router) handleRevisionDelete(w http.ResponseWriter, req *http.Request) error {
	svc, err := r.revisions()
	if err != nil {
		return err
	}
	id, err := pathID(req, "id")
	if err != nil {
		return err
	}
	svc.Delete(id)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/revisions/{id}/suggestions/{sid}/{accept|reject|revert}
func (r *Router) handleRevisionAction(w http.ResponseWriter, req *http.Request) error {
	svc, err := r.revisions()
	if err != nil {
		return err
	}
	id, err := pathID(req, "id")
	if err != nil {
		return err
	}
	sid, err := suggestionID(req)
	if err != nil {
		return err
	}

	var sess apprevision.Session
	switch action := chi.URLParam(req, "action"); action {
	case "accept":
		sess, err = svc.Accept(id, sid)
	case "reject":
		sess, err = svc.Reject(id, sid)
	case "revert":
		sess, err = svc.Revert(id, sid)
	default:
		return badRequestf("unknown action %q (allowed: accept, reject, revert)", action)
	}
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sess)
}

// POST /v1/revisions/{id}/revert-all
func (r *Router) handleRevisionRevertAll(w http.ResponseWriter, req *http.Request) error {
	svc, err := r.revisions()
	if err != nil {
		return err
	}
	id, err := pathID(req, "id")
	if err != nil {
		return err
	}
	sess, err := svc.RevertAll(id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sess)
}

// GET /v1/revisions/{id}/export
func (r *Router) handleRevisionExport(w http.ResponseWriter, req *http.Request) error {
	svc, err := r.revisions()
	if err != nil {
		return err
	}
	id, err := pathID(req, "id")
	if err != nil {
		return err
	}
	text, err := svc.Export(id)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err = w.Write([]byte(text))
	return err
}
