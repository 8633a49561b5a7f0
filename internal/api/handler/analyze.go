package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/contractscan/internal/analysis"
	mw "github.com/kiranshivaraju/contractscan/internal/api/middleware"
	"github.com/kiranshivaraju/contractscan/internal/api/response"
	"github.com/kiranshivaraju/contractscan/internal/extract"
	"github.com/kiranshivaraju/contractscan/internal/prompt"
	"github.com/kiranshivaraju/contractscan/pkg/models"
)

// UploadField is the multipart form field carrying the contract file.
const UploadField = "file"

const recordTimeout = 5 * time.Second

// Analyzer defines the pipeline the handler depends on.
type Analyzer interface {
	Analyze(ctx context.Context, name string, r io.Reader) (*analysis.Result, error)
}

// AnalysisRecorder persists history entries. *store.PostgresStore implements it.
type AnalysisRecorder interface {
	CreateAnalysis(ctx context.Context, rec *models.AnalysisRecord) error
}

// AnalyzeOptions configures the analyze handler.
type AnalyzeOptions struct {
	MaxUploadBytes int64
	// Recorder is optional; without it nothing is persisted.
	Recorder AnalysisRecorder
	// Transport and Model label failed records, which carry no Result.
	Transport string
	Model     string
}

type analyzeResponse struct {
	ID            uuid.UUID         `json:"id"`
	Filename      string            `json:"filename"`
	SourceKind    models.SourceKind `json:"source_kind"`
	Pages         int               `json:"pages,omitempty"`
	Report        models.Report     `json:"report"`
	RiskBand      models.RiskBand   `json:"risk_band"`
	Quality       models.Quality    `json:"quality"`
	PromptVersion string            `json:"prompt_version"`
	DurationMS    int64             `json:"duration_ms"`
}

// NewAnalyzeHandler returns an http.HandlerFunc for POST /api/v1/analyze.
// The upload is streamed from the multipart body straight into the
// pipeline, so files with an unsupported extension are rejected before
// their content is read.
func NewAnalyzeHandler(svc Analyzer, opts AnalyzeOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if opts.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, opts.MaxUploadBytes)
		}

		part, err := filePart(r)
		if err != nil {
			if isTooLarge(err) {
				response.Error(w, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE",
					"The uploaded file is too large", nil)
				return
			}
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"A multipart upload with a \"file\" field is required", nil)
			return
		}
		defer part.Close()

		name := part.FileName()
		id := uuid.New()

		res, err := svc.Analyze(r.Context(), name, part)
		if err != nil {
			if isTooLarge(err) {
				response.Error(w, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE",
					"The uploaded file is too large", nil)
				return
			}
			record(r, opts, failedRecord(id, name, opts, err))
			writeFailure(w, err)
			return
		}

		record(r, opts, succeededRecord(id, name, res))

		response.JSON(w, analyzeResponse{
			ID:            id,
			Filename:      name,
			SourceKind:    res.SourceKind,
			Pages:         res.Pages,
			Report:        res.Report,
			RiskBand:      res.Report.Band(),
			Quality:       res.Quality,
			PromptVersion: res.PromptVersion,
			DurationMS:    res.Duration.Milliseconds(),
		})
	}
}

// filePart advances the multipart reader to the upload field.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		p, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if p.FormName() == UploadField && p.FileName() != "" {
			return p, nil
		}
		p.Close()
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func succeededRecord(id uuid.UUID, name string, res *analysis.Result) *models.AnalysisRecord {
	rep, quality := res.Report, res.Quality
	return &models.AnalysisRecord{
		ID:            id,
		Filename:      name,
		SourceKind:    res.SourceKind,
		DocumentHash:  res.DocumentHash,
		Status:        models.AnalysisStatusSucceeded,
		Report:        &rep,
		Quality:       &quality,
		PromptVersion: res.PromptVersion,
		Transport:     res.Transport,
		Model:         res.Model,
		DurationMS:    res.Duration.Milliseconds(),
	}
}

func failedRecord(id uuid.UUID, name string, opts AnalyzeOptions, err error) *models.AnalysisRecord {
	rec := &models.AnalysisRecord{
		ID:            id,
		Filename:      name,
		SourceKind:    extract.KindFor(name),
		Status:        models.AnalysisStatusFailed,
		Message:       describeFailure(err).message,
		PromptVersion: prompt.Version,
		Transport:     opts.Transport,
		Model:         opts.Model,
	}
	var f *models.Failure
	if errors.As(err, &f) {
		rec.FailureKind = f.Kind
		rec.Diagnostic = f.Diagnostic()
	}
	return rec
}

// record persists rec when history is enabled. A persistence failure is
// logged and never changes the response.
func record(r *http.Request, opts AnalyzeOptions, rec *models.AnalysisRecord) {
	if opts.Recorder == nil {
		return
	}
	tenantID, ok := mw.GetTenantID(r)
	if !ok {
		return
	}
	rec.TenantID = tenantID
	rec.CreatedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), recordTimeout)
	defer cancel()
	if err := opts.Recorder.CreateAnalysis(ctx, rec); err != nil {
		slog.Error("analysis.record_failed", "analysis_id", rec.ID, "status", rec.Status, "error", err)
	}
}
