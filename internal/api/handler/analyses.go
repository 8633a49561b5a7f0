package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/contractscan/internal/api/middleware"
	"github.com/kiranshivaraju/contractscan/internal/api/response"
	"github.com/kiranshivaraju/contractscan/internal/store"
	"github.com/kiranshivaraju/contractscan/pkg/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// AnalysisReader is the read side of the analysis history.
type AnalysisReader interface {
	GetAnalysis(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.AnalysisRecord, error)
	ListAnalyses(ctx context.Context, filter store.AnalysisFilter) ([]*models.AnalysisRecord, int, error)
}

// NewGetAnalysisHandler returns an http.HandlerFunc for
// GET /api/v1/analyses/{analysisID}.
func NewGetAnalysisHandler(s AnalysisReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "analysisID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_ANALYSIS_ID", "Invalid analysis ID", nil)
			return
		}

		rec, err := s.GetAnalysis(r.Context(), id, tenantID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "ANALYSIS_NOT_FOUND", "Analysis not found", nil)
			return
		}
		if err != nil {
			slog.Error("get analysis failed", "analysis_id", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load analysis", nil)
			return
		}

		response.JSON(w, redact(r, rec))
	}
}

// NewListAnalysesHandler returns an http.HandlerFunc for GET /api/v1/analyses.
// Supported query parameters: page, limit, status, failure_kind,
// document_hash and since (RFC3339).
func NewListAnalysesHandler(s AnalysisReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		filter, err := parseAnalysisFilter(r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
		filter.TenantID = tenantID

		recs, total, err := s.ListAnalyses(r.Context(), filter)
		if err != nil {
			slog.Error("list analyses failed", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list analyses", nil)
			return
		}

		out := make([]*models.AnalysisRecord, len(recs))
		for i, rec := range recs {
			out[i] = redact(r, rec)
		}

		response.Collection(w, out, response.NewPaginationMeta(filter.Page, filter.Limit, total))
	}
}

func parseAnalysisFilter(r *http.Request) (store.AnalysisFilter, error) {
	q := r.URL.Query()
	f := store.AnalysisFilter{Page: 1, Limit: defaultPageLimit}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, errors.New("page must be a positive integer")
		}
		f.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, errors.New("limit must be a positive integer")
		}
		f.Limit = min(n, maxPageLimit)
	}

	switch status := q.Get("status"); status {
	case "", models.AnalysisStatusSucceeded, models.AnalysisStatusFailed:
		f.Status = status
	default:
		return f, errors.New("status must be one of succeeded, failed")
	}

	if v := q.Get("failure_kind"); v != "" {
		kind := models.FailureKind(v)
		if !kind.Valid() {
			return f, errors.New("unknown failure_kind")
		}
		f.FailureKind = kind
	}

	f.DocumentHash = q.Get("document_hash")

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("since must be a valid RFC3339 timestamp")
		}
		f.Since = t
	}

	return f, nil
}

// redact drops operator diagnostics unless the caller holds the admin scope.
func redact(r *http.Request, rec *models.AnalysisRecord) *models.AnalysisRecord {
	if rec.Diagnostic == "" || mw.HasScope(r, mw.ScopeAdmin) {
		return rec
	}
	cp := *rec
	cp.Diagnostic = ""
	return &cp
}
