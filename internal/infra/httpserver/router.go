package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"

	appcompliance "github.com/bryanwahyu/compliance-copilot/internal/application/compliance"
	appcontract "github.com/bryanwahyu/compliance-copilot/internal/application/contract"
	apprevision "github.com/bryanwahyu/compliance-copilot/internal/application/revision"
	apprules "github.com/bryanwahyu/compliance-copilot/internal/application/rules"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/analyst"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/compliance"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/contract"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/document"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/revision"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/rules"
	"github.com/bryanwahyu/compliance-copilot/internal/middleware"
)

// Services are the use-cases exposed over HTTP. Revisions may be nil.
type Services struct {
	Compliance *appcompliance.Service
	Rules      *apprules.Service
	Contract   *appcontract.Service
	Revisions  *apprevision.Service
}

type Options struct {
	AllowedOrigins []string
	MaxUploadMB    int
	// APIKeys maps client name to key. Empty disables auth.
	APIKeys        map[string]string
	RateLimiter    *middleware.RateLimiter
	HealthCheckers map[string]middleware.HealthChecker
	Providers      []string
	Log            hclog.Logger
}

type Router struct {
	svc       Services
	log       hclog.Logger
	maxUpload int64
}

func NewRouter(svc Services, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = hclog.NewNullLogger()
	}
	maxMB := opts.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 20
	}
	r := &Router{svc: svc, log: log, maxUpload: int64(maxMB) << 20}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.RequestLogger(log))
	mux.Use(middleware.MetricsMiddleware)
	if len(opts.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	}
	if opts.RateLimiter != nil {
		mux.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
	}

	health := middleware.HealthHandler(opts.HealthCheckers, opts.Providers)
	mux.Get("/health", health)
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler(opts.Providers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", r.routes)
	// unversioned paths used by the existing frontend
	mux.Post("/compliance-analysis", r.wrap(r.handleComplianceAnalysis))
	mux.Post("/contract-analyze", r.wrap(r.handleContractAnalyze))
	mux.Route("/rulebase", r.ruleRoutes)

	return mux
}

func (r *Router) routes(rt chi.Router) {
	rt.Post("/compliance-analysis", r.wrap(r.handleComplianceAnalysis))
	rt.Get("/analyses", r.wrap(r.handleAnalysesList))
	rt.Get("/analyses/{id}", r.wrap(r.handleAnalysisGet))
	rt.Post("/documents/inspect", r.wrap(r.handleInspect))

	rt.Post("/contract-analyze", r.wrap(r.handleContractAnalyze))
	rt.Post("/contracts/extract", r.wrap(r.handleContractExtract))

	rt.Route("/rulebase", r.ruleRoutes)

	rt.Route("/revisions", func(rv chi.Router) {
		rv.Post("/", r.wrap(r.handleRevisionCreate))
		rv.Get("/{id}", r.wrap(r.handleRevisionGet))
		rv.Delete("/{id}", r.wrap(r.handleRevisionDelete))
		rv.Post("/{id}/suggestions/{sid}/{action}", r.wrap(r.handleRevisionAction))
		rv.Post("/{id}/revert-all", r.wrap(r.handleRevisionRevertAll))
		rv.Get("/{id}/export", r.wrap(r.handleRevisionExport))
	})
}

func (r *Router) ruleRoutes(rt chi.Router) {
	rt.Get("/", r.wrap(r.handleRulesList))
	rt.Post("/", r.wrap(r.handleRuleCreate))
	rt.Patch("/", r.wrap(r.handleRulePatch))
	rt.Delete("/", r.wrap(r.handleRuleDelete))
	rt.Post("/upload", r.wrap(r.handleRuleUpload))
	rt.Get("/files", r.wrap(r.handleRuleFiles))
	rt.Get("/{id}", r.wrap(r.handleRuleGet))
	rt.Patch("/{id}", r.wrap(r.handleRulePatch))
	rt.Delete("/{id}", r.wrap(r.handleRuleDelete))
	rt.Post("/{id}/toggle", r.wrap(r.handleRuleToggle))
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks transport-level input errors.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, msg := statusFor(err)
			if status >= http.StatusInternalServerError {
				r.log.Error("request failed", "path", req.URL.Path, "status", status, "error", err)
			}
			middleware.WriteError(w, status, msg)
		}
	}
}

func statusFor(err error) (int, string) {
	var br *badRequest
	var chain *ai.ChainError
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &br),
		errors.Is(err, compliance.ErrInvalidInput),
		errors.Is(err, contract.ErrInvalidInput),
		errors.Is(err, rules.ErrInvalid),
		errors.Is(err, apprevision.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "file too large"
	case errors.Is(err, rules.ErrNotFound),
		errors.Is(err, analyst.ErrNotFound),
		errors.Is(err, apprevision.ErrSessionNotFound),
		errors.Is(err, revision.ErrUnknownSuggestion):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, rules.ErrConflict),
		errors.Is(err, revision.ErrInvalidTransition),
		errors.Is(err, revision.ErrStaleSuggestion),
		errors.Is(err, revision.ErrTextChanged):
		return http.StatusConflict, err.Error()
	case errors.Is(err, document.ErrNoText):
		return http.StatusUnprocessableEntity, "could not extract text: " + err.Error()
	case errors.As(err, &chain):
		if len(chain.Errors) == 0 {
			return http.StatusInternalServerError, chain.Error()
		}
		return http.StatusInternalServerError, "all AI providers failed: " + chain.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func decodeJSON(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return badRequestf("invalid JSON body: %v", err)
	}
	return nil
}

func pathID(req *http.Request, name string) (string, error) {
	id := chi.URLParam(req, name)
	if err := middleware.ValidateID(id); err != nil {
		return "", badRequestf("%s: %v", name, err)
	}
	return id, nil
}
