// Package report turns raw model output into a validated models.Report.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/contractscan/pkg/models"
)

var errEmptyOutput = errors.New("response text is empty")

// Parse de-fences, decodes and validates raw model output. Only a response
// that is not a JSON object, or that lacks a usable summary or risk_score,
// fails; every other defect is repaired and recorded in the returned Quality.
// Failures are *models.Failure of kind MalformedResponse and retain raw.
func Parse(raw string) (models.Report, models.Quality, error) {
	var q models.Quality

	cleaned := StripFence(raw)
	if cleaned == "" {
		return models.Report{}, q, models.MalformedResponse(raw, errEmptyOutput)
	}

	var doc any
	if err := decodeNumbers(cleaned, &doc); err != nil {
		return models.Report{}, q, models.MalformedResponse(raw, fmt.Errorf("decode response: %w", err))
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return models.Report{}, q, models.MalformedResponse(raw, fmt.Errorf("validate response: %w", err))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return models.Report{}, q, models.MalformedResponse(raw, fmt.Errorf("decode response: %w", err))
	}

	var r models.Report
	if err := json.Unmarshal(fields["summary"], &r.Summary); err != nil {
		return models.Report{}, q, models.MalformedResponse(raw, fmt.Errorf("decode summary: %w", err))
	}

	score, err := parseScore(fields["risk_score"])
	if err != nil {
		return models.Report{}, q, models.MalformedResponse(raw, err)
	}
	r.RiskScore = clampScore(score, &q)

	r.ContractType = textField(fields, "contract_type", &q)
	r.Duration = textField(fields, "duration", &q)
	r.Parties = listField(fields, "parties", &q)
	r.MissingClauses = dedupe(listField(fields, "missing_clauses", &q))
	r.CriticalAlerts = alertsField(fields, &q)

	return r, q, nil
}

// decodeNumbers decodes a single JSON value keeping numbers as json.Number,
// so magnitudes beyond float64 still decode. Trailing data is an error.
func decodeNumbers(s string, v any) error {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}

// parseScore accepts a JSON number or a numeric string. Numbers too large
// for float64 come back as ±Inf and are clamped by the caller.
func parseScore(raw json.RawMessage) (float64, error) {
	var v any
	if err := decodeNumbers(string(raw), &v); err != nil {
		return 0, fmt.Errorf("risk_score is not a number: %s", raw)
	}

	switch n := v.(type) {
	case json.Number:
		return parseFloat(n.String())
	case string:
		f, err := parseFloat(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("risk_score is not a number: %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("risk_score is not a number: %s", raw)
	}
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return f, nil
		}
		return 0, err
	}
	// "NaN" and "Inf" spellings are not JSON numbers.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return f, nil
}

// clampScore bounds the score to [MinRiskScore, MaxRiskScore] and rounds
// half away from zero. An infinite original is recorded as ±MaxFloat64.
func clampScore(f float64, q *models.Quality) int {
	original := f
	if math.IsInf(f, 0) {
		original = math.Copysign(math.MaxFloat64, f)
	}
	switch {
	case f < models.MinRiskScore:
		q.ScoreClamped, q.OriginalScore = true, original
		return models.MinRiskScore
	case f > models.MaxRiskScore:
		q.ScoreClamped, q.OriginalScore = true, original
		return models.MaxRiskScore
	default:
		return int(math.Round(f))
	}
}

// textField returns a string field as given, including "". Only an absent
// key or a non-string value is defaulted.
func textField(fields map[string]json.RawMessage, name string, q *models.Quality) string {
	var s *string
	if err := json.Unmarshal(fields[name], &s); err != nil || s == nil {
		q.DefaultedFields = append(q.DefaultedFields, name)
		return models.UnknownValue
	}
	return *s
}

// listField returns the string entries of an array field in order, blank
// entries included. A missing field, a non-array value or any non-string
// entry marks the field as defaulted.
func listField(fields map[string]json.RawMessage, name string, q *models.Quality) []string {
	var items []any
	if err := decodeNumbers(string(fields[name]), &items); err != nil || items == nil {
		q.DefaultedFields = append(q.DefaultedFields, name)
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) != len(items) {
		q.DefaultedFields = append(q.DefaultedFields, name)
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, s := range items {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// alertsField decodes critical_alerts. Quality indexes refer to positions in
// the model's array. Entries that are not objects are skipped; all others are
// kept, with unrecognized severities lowered to MEDIUM.
func alertsField(fields map[string]json.RawMessage, q *models.Quality) []models.Alert {
	var items []json.RawMessage
	if err := json.Unmarshal(fields["critical_alerts"], &items); err != nil || items == nil {
		q.DefaultedFields = append(q.DefaultedFields, "critical_alerts")
		return []models.Alert{}
	}

	out := make([]models.Alert, 0, len(items))
	for i, item := range items {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(item, &m); err != nil || m == nil {
			q.SkippedAlerts = append(q.SkippedAlerts, i)
			continue
		}

		sev, ok := models.ParseSeverity(stringValue(m["severity"]))
		if !ok {
			q.NormalizedSeverities = append(q.NormalizedSeverities, i)
		}
		a := models.Alert{
			ClauseText:      stringValue(m["clause_text"]),
			RiskExplanation: stringValue(m["risk_explanation"]),
			Severity:        sev,
			LegalTerm:       stringValue(m["legal_term"]),
			Suggestion:      stringValue(m["suggestion"]),
		}
		if strings.TrimSpace(a.ClauseText) == "" || strings.TrimSpace(a.RiskExplanation) == "" {
			q.IncompleteAlerts = append(q.IncompleteAlerts, i)
		}
		out = append(out, a)
	}
	return out
}

// stringValue returns raw as a string, or "" if it is absent or not a string.
func stringValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
