package sdk_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kiranshivaraju/contractscan/internal/ai/sdk"
	"github.com/kiranshivaraju/contractscan/internal/config"
	"github.com/kiranshivaraju/contractscan/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransport(t *testing.T, status int, body string) (*sdk.Transport, *string) {
	t.Helper()
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	tr, err := sdk.NewTransport(context.Background(), config.AIConfig{
		Transport: config.TransportSDK,
		APIKey:    "test-key",
		Model:     "gemini-1.5-pro-latest",
		BaseURL:   srv.URL + "/v1beta",
	})
	require.NoError(t, err)
	return tr, &path
}

func TestGenerate_Success(t *testing.T) {
	tr, path := newTransport(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"summary\":\"s\",\"risk_score\":35}"}]}}]}`)

	text, err := tr.Generate(context.Background(), models.GenerateRequest{Prompt: "p", StructuredOutput: true})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"s","risk_score":35}`, text)
	assert.Contains(t, *path, "gemini-1.5-pro-latest:generateContent")
	assert.Equal(t, "sdk", tr.Name())
}

func TestGenerate_ServiceError(t *testing.T) {
	tr, _ := newTransport(t, http.StatusInternalServerError,
		`{"error":{"code":500,"message":"Internal error encountered.","status":"INTERNAL"}}`)

	_, err := tr.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrServiceError)

	var f *models.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, http.StatusInternalServerError, f.StatusCode)
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	tr, _ := newTransport(t, http.StatusOK, `{"candidates":[]}`)

	_, err := tr.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, models.ErrEmptyResponse)
}
