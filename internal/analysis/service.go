// Package analysis runs the contract analysis pipeline: extract, check,
// prompt, call the model, parse.
package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/contractscan/internal/extract"
	"github.com/kiranshivaraju/contractscan/internal/prompt"
	"github.com/kiranshivaraju/contractscan/internal/report"
	"github.com/kiranshivaraju/contractscan/pkg/models"
)

// Generator performs one model call. *ai.Client implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Options holds pipeline settings.
type Options struct {
	MinContentChars int
	Model           string
	Logger          *slog.Logger
}

// Result is a successful analysis.
type Result struct {
	Report        models.Report
	Quality       models.Quality
	SourceKind    models.SourceKind
	Pages         int
	DocumentHash  string
	PromptVersion string
	Transport     string
	Model         string
	Duration      time.Duration
}

// Service runs analyses. Each call owns its document, payload and report;
// the Service holds no per-request state and is safe for concurrent use.
type Service struct {
	extractor *extract.Extractor
	client    Generator
	opts      Options
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(extractor *extract.Extractor, client Generator, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{extractor: extractor, client: client, opts: opts, logger: logger}
}

// Analyze runs the pipeline once for the upload name/r. The pipeline halts
// at the first failure; errors are always *models.Failure and no Report is
// produced alongside one. The model is never called for documents that fail
// extraction or the minimum content check.
func (s *Service) Analyze(ctx context.Context, name string, r io.Reader) (*Result, error) {
	start := time.Now()

	doc, err := s.extractor.Extract(name, r)
	if err != nil {
		return nil, s.fail(name, doc.Kind, start, err)
	}
	if err := extract.CheckContent(doc, s.opts.MinContentChars); err != nil {
		return nil, s.fail(name, doc.Kind, start, err)
	}

	payload := prompt.Build(doc.Text)

	raw, err := s.client.Generate(ctx, payload.Text)
	if err != nil {
		return nil, s.fail(name, doc.Kind, start, err)
	}

	rep, quality, err := report.Parse(raw)
	if err != nil {
		return nil, s.fail(name, doc.Kind, start, err)
	}

	res := &Result{
		Report:        rep,
		Quality:       quality,
		SourceKind:    doc.Kind,
		Pages:         doc.Pages,
		DocumentHash:  Fingerprint(doc.Text),
		PromptVersion: payload.Version,
		Transport:     s.client.Name(),
		Model:         s.opts.Model,
		Duration:      time.Since(start),
	}

	attrs := []any{
		"file", name,
		"source_kind", res.SourceKind,
		"risk_score", rep.RiskScore,
		"alerts", len(rep.CriticalAlerts),
		"duration_ms", res.Duration.Milliseconds(),
	}
	if !quality.Clean() {
		attrs = append(attrs,
			"score_clamped", quality.ScoreClamped,
			"defaulted_fields", quality.DefaultedFields,
			"normalized_severities", len(quality.NormalizedSeverities),
		)
	}
	s.logger.Info("analysis.completed", attrs...)

	return res, nil
}

// fail logs the failure and guarantees the *models.Failure contract.
func (s *Service) fail(name string, kind models.SourceKind, start time.Time, err error) error {
	var f *models.Failure
	if !errors.As(err, &f) {
		f = models.TransportError(err)
	}
	s.logger.Warn("analysis.failed",
		"file", name,
		"source_kind", kind,
		"kind", f.Kind,
		"error", f.Error(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return f
}
