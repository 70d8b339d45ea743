// Package api exposes HTTP handlers for the analysis engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"example.com/analysisengine/internal/analysis"
	"example.com/analysisengine/internal/auth"
	"example.com/analysisengine/internal/domain"
)

// Engine is the analysis surface consumed by the HTTP layer.
type Engine interface {
	Analyze(ctx context.Context, userAnonymizedID uuid.UUID, event domain.ActivityEvent) error
	RelevantCategoryTags(ctx context.Context) ([]string, error)
}

// Handler coordinates HTTP requests with the analysis engine.
type Handler struct {
	engine Engine
	logger *log.Logger
}

// NewHandler builds a Handler.
func NewHandler(engine Engine) *Handler {
	return &Handler{
		engine: engine,
		logger: log.New(log.Writer(), "[api] ", log.LstdFlags),
	}
}

var _ Engine = (*analysis.Engine)(nil)

// Router wires endpoints to a mux router.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.HandleFunc("/v1/analysis/relevantCategoryTags", h.relevantCategoryTags).Methods(http.MethodGet)
	r.HandleFunc("/v1/analysis/{userAnonymizedID}/networkActivity", h.postNetworkActivity).Methods(http.MethodPost)
	r.HandleFunc("/v1/analysis/{userAnonymizedID}/appActivity", h.postAppActivity).Methods(http.MethodPost)
	return r
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) relevantCategoryTags(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeAnalysisRead) && !claims.HasScope(auth.ScopeAnalysisWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope analysis:read required")
		return
	}

	tags, err := h.engine.RelevantCategoryTags(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RelevantCategoryTagsResponse{CategoryTags: tags})
}

func (h *Handler) postNetworkActivity(w http.ResponseWriter, r *http.Request) {
	h.postActivity(w, r, func(body *json.Decoder) (domain.ActivityEvent, error) {
		var req NetworkActivityRequest
		if err := body.Decode(&req); err != nil {
			return nil, err
		}
		return req.toEvent(), nil
	})
}

func (h *Handler) postAppActivity(w http.ResponseWriter, r *http.Request) {
	h.postActivity(w, r, func(body *json.Decoder) (domain.ActivityEvent, error) {
		var req AppActivityRequest
		if err := body.Decode(&req); err != nil {
			return nil, err
		}
		return req.toEvent(), nil
	})
}

func (h *Handler) postActivity(w http.ResponseWriter, r *http.Request, decode func(*json.Decoder) (domain.ActivityEvent, error)) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeAnalysisWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope analysis:write required")
		return
	}

	userAnonymizedID, err := uuid.Parse(mux.Vars(r)["userAnonymizedID"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid user anonymized id")
		return
	}

	event, err := decode(json.NewDecoder(r.Body))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := h.engine.Analyze(r.Context(), userAnonymizedID, event); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidEvent):
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		case errors.Is(err, domain.ErrUserAnonymizedNotFound):
			writeError(w, http.StatusNotFound, "not_found", "anonymized user not found")
		case errors.Is(err, domain.ErrGoalConfiguration):
			h.logger.Printf("goal configuration inconsistency: %v", err)
			writeError(w, http.StatusInternalServerError, "configuration_inconsistency", "goal configuration inconsistency")
		default:
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
