package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AnalysisStatusSucceeded = "succeeded"
	AnalysisStatusFailed    = "failed"
)

// AnalysisRecord is the operator-facing history entry for one analysis request.
// Records are written after the pipeline finishes and never fed back into it.
type AnalysisRecord struct {
	ID            uuid.UUID   `db:"id"             json:"id"`
	TenantID      uuid.UUID   `db:"tenant_id"      json:"tenant_id"`
	Filename      string      `db:"filename"       json:"filename"`
	SourceKind    SourceKind  `db:"source_kind"    json:"source_kind"`
	DocumentHash  string      `db:"document_hash"  json:"document_hash,omitempty"`
	Status        string      `db:"status"         json:"status"`
	FailureKind   FailureKind `db:"failure_kind"   json:"failure_kind,omitempty"`
	Message       string      `db:"message"        json:"message,omitempty"`
	Diagnostic    string      `db:"diagnostic"     json:"diagnostic,omitempty"`
	Report        *Report     `db:"report"         json:"report,omitempty"`
	Quality       *Quality    `db:"quality"        json:"quality,omitempty"`
	PromptVersion string      `db:"prompt_version" json:"prompt_version"`
	Transport     string      `db:"transport"      json:"transport"`
	Model         string      `db:"model"          json:"model"`
	DurationMS    int64       `db:"duration_ms"    json:"duration_ms"`
	CreatedAt     time.Time   `db:"created_at"     json:"created_at"`
}
