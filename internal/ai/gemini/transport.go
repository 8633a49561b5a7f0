// Package gemini implements models.Transport over the Generative Language
// REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kiranshivaraju/contractscan/internal/config"
	"github.com/kiranshivaraju/contractscan/pkg/models"
)

const (
	// DefaultBaseURL is the public Generative Language API.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	jsonMIMEType = "application/json"
	apiKeyHeader = "x-goog-api-key"
)

// Transport sends prompts to models/{model}:generateContent. The API key
// travels in a header so it never appears in URLs or logs.
type Transport struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) { t.client = c }
}

// NewTransport creates a REST transport. The HTTP client has no timeout of
// its own; deadlines come from the caller's context.
func NewTransport(cfg config.AIConfig, opts ...Option) *Transport {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	t := &Transport{
		apiKey:  cfg.APIKey,
		model:   strings.TrimPrefix(cfg.Model, "models/"),
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) Name() string { return config.TransportREST }

// Endpoint returns the generateContent URL for the configured model.
func (t *Transport) Endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", t.baseURL, url.PathEscape(t.model))
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"response_mime_type,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type candidate struct {
	Content      *content `json:"content"`
	FinishReason string   `json:"finishReason"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback"`
}

func (t *Transport) Generate(ctx context.Context, req models.GenerateRequest) (string, error) {
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: req.Prompt}}}},
	}
	if req.StructuredOutput {
		body.GenerationConfig = &generationConfig{ResponseMIMEType: jsonMIMEType}
	}

	bs, err := json.Marshal(body)
	if err != nil {
		return "", models.TransportError(fmt.Errorf("encoding request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint(), bytes.NewReader(bs))
	if err != nil {
		return "", models.TransportError(fmt.Errorf("building request: %w", err))
	}
	httpReq.Header.Set("Content-Type", jsonMIMEType)
	httpReq.Header.Set(apiKeyHeader, t.apiKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return "", models.TransportError(redact(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.TransportError(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode/100 != 2 {
		return "", models.ServiceError(resp.StatusCode, string(raw))
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", models.MalformedResponse(string(raw), fmt.Errorf("decoding response envelope: %w", err))
	}

	return firstText(gr)
}

func firstText(gr generateResponse) (string, error) {
	if len(gr.Candidates) == 0 {
		if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
			return "", models.EmptyResponse("prompt blocked: " + gr.PromptFeedback.BlockReason)
		}
		return "", models.EmptyResponse("response has no candidates")
	}

	c := gr.Candidates[0]
	if c.Content == nil || len(c.Content.Parts) == 0 || strings.TrimSpace(c.Content.Parts[0].Text) == "" {
		msg := "first candidate has no text"
		if c.FinishReason != "" {
			msg += " (finish reason " + c.FinishReason + ")"
		}
		return "", models.EmptyResponse(msg)
	}
	return c.Content.Parts[0].Text, nil
}

// redact strips the query string from *url.Error URLs. The key is sent as a
// header, but a base URL configured with ?key= must not leak into errors.
func redact(err error) error {
	ue, ok := err.(*url.Error)
	if !ok {
		return err
	}
	if i := strings.IndexByte(ue.URL, '?'); i >= 0 {
		return &url.Error{Op: ue.Op, URL: ue.URL[:i], Err: ue.Err}
	}
	return err
}

var _ models.Transport = (*Transport)(nil)
