package gemini_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/contractscan/internal/ai/gemini"
	"github.com/kiranshivaraju/contractscan/internal/config"
	"github.com/kiranshivaraju/contractscan/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "AIza-secret-test-key"

func newTransport(t *testing.T, handler http.HandlerFunc) *gemini.Transport {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gemini.NewTransport(config.AIConfig{
		APIKey:  testKey,
		Model:   "gemini-1.5-pro-latest",
		BaseURL: srv.URL + "/v1beta",
	})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestGenerate_Success(t *testing.T) {
	tr := newTransport(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"{\"summary\":\"s\"}"},{"text":"ignored"}]}}]}`)
	})

	text, err := tr.Generate(context.Background(), models.GenerateRequest{Prompt: "p", StructuredOutput: true})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"s"}`, text)
}

func TestGenerate_RequestShape(t *testing.T) {
	var (
		gotPath   string
		gotQuery  string
		gotKey    string
		gotCT     string
		gotMethod string
		gotBody   map[string]any
	)
	tr := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("x-goog-api-key")
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	})

	_, err := tr.Generate(context.Background(), models.GenerateRequest{Prompt: "قرارداد", StructuredOutput: true})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v1beta/models/gemini-1.5-pro-latest:generateContent", gotPath)
	assert.Empty(t, gotQuery)
	assert.Equal(t, testKey, gotKey)
	assert.Equal(t, "application/json", gotCT)

	want := map[string]any{
		"contents": []any{
			map[string]any{"parts": []any{map[string]any{"text": "قرارداد"}}},
		},
		"generationConfig": map[string]any{"response_mime_type": "application/json"},
	}
	assert.Equal(t, want, gotBody)
}

func TestGenerate_UnstructuredOmitsGenerationConfig(t *testing.T) {
	var gotBody map[string]any
	tr := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"Connection Successful"}]}}]}`)
	})

	text, err := tr.Generate(context.Background(), models.GenerateRequest{Prompt: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Connection Successful", text)
	assert.NotContains(t, gotBody, "generationConfig")
}

func TestGenerate_ServiceError(t *testing.T) {
	body := `{"error":{"code":500,"message":"Internal error encountered.","status":"INTERNAL"}}`
	tr := newTransport(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, body)
	})

	_, err := tr.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrServiceError)

	var f *models.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, http.StatusInternalServerError, f.StatusCode)
	assert.Equal(t, body, f.Body)
	assert.NotContains(t, f.Error(), testKey)
}

func TestGenerate_ServiceErrorStatuses(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			tr := newTransport(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, status, `{}`)
			})
			_, err := tr.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})

			var f *models.Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, models.KindServiceError, f.Kind)
			assert.Equal(t, status, f.StatusCode)
		})
	}
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	tr := newTransport(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"candidates":[]}`)
	})

	_, err := tr.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEmptyResponse)
}

func TestGenerate_BlockedPrompt(t *testing.T) {
	tr := newTransport(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	})

	_, err := tr.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEmptyResponse)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGenerate_CandidateWithoutParts(t *testing.T) {
	for name, body := range map[string]string{
		"no content": `{"candidates":[{"finishReason":"SAFETY"}]}`,
		"no parts":   `{"candidates":[{"content":{"parts":[]}}]}`,
		"blank text": `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`,
		"null parts": `{"candidates":[{"content":{"parts":null}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			tr := newTransport(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, body)
			})
			_, err := tr.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
			assert.ErrorIs(t, err, models.ErrEmptyResponse)
		})
	}
}

func TestGenerate_MalformedEnvelope(t *testing.T) {
	tr := newTransport(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `<html>gateway</html>`)
	})

	_, err := tr.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMalformedResponse)

	var f *models.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, `<html>gateway</html>`, f.Raw)
}

func TestGenerate_ConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	tr := gemini.NewTransport(config.AIConfig{APIKey: testKey, Model: "m", BaseURL: "http://" + addr})
	_, err = tr.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTransportError)
	assert.False(t, models.IsTimeout(err))
	assert.NotContains(t, err.Error(), testKey)
}

func TestGenerate_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	tr := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tr.Generate(ctx, models.GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTransportError)
	assert.True(t, models.IsTimeout(err))
}

func TestNewTransport_Defaults(t *testing.T) {
	tr := gemini.NewTransport(config.AIConfig{APIKey: testKey, Model: "models/gemini-1.5-flash"})
	assert.Equal(t, "rest", tr.Name())
	assert.Equal(t, gemini.DefaultBaseURL+"/models/gemini-1.5-flash:generateContent", tr.Endpoint())
}
