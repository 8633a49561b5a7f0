// Package sdk implements models.Transport with the Google Gen AI Go SDK.
package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/contractscan/internal/config"
	"github.com/kiranshivaraju/contractscan/pkg/models"
	"google.golang.org/genai"
)

// Transport sends prompts through genai.Client.Models.GenerateContent.
type Transport struct {
	client *genai.Client
	model  string
}

// NewTransport builds the SDK client. The SDK validates nothing over the
// network here; a bad key surfaces on the first Generate as a ServiceError.
func NewTransport(ctx context.Context, cfg config.AIConfig) (*Transport, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = httpOptions(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Transport{client: client, model: cfg.Model}, nil
}

// httpOptions splits a configured base such as ".../v1beta" into the SDK's
// separate base URL and API version, so one AI_BASE_URL serves both transports.
func httpOptions(base string) genai.HTTPOptions {
	base = strings.TrimRight(base, "/")
	for _, v := range []string{"v1beta", "v1alpha", "v1"} {
		if b, ok := strings.CutSuffix(base, "/"+v); ok {
			return genai.HTTPOptions{BaseURL: b + "/", APIVersion: v}
		}
	}
	return genai.HTTPOptions{BaseURL: base + "/"}
}

func (t *Transport) Name() string { return config.TransportSDK }

func (t *Transport) Generate(ctx context.Context, req models.GenerateRequest) (string, error) {
	var gc *genai.GenerateContentConfig
	if req.StructuredOutput {
		gc = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, genai.Text(req.Prompt), gc)
	if err != nil {
		return "", classify(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", models.EmptyResponse("response has no candidates")
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil || len(c.Content.Parts) == 0 || c.Content.Parts[0] == nil ||
		strings.TrimSpace(c.Content.Parts[0].Text) == "" {
		return "", models.EmptyResponse("first candidate has no text")
	}
	return c.Content.Parts[0].Text, nil
}

// classify maps SDK errors onto failure kinds. API errors carry the service
// status; everything else failed before a response arrived.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return models.ServiceError(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return models.ServiceError(apiErrPtr.Code, apiErrPtr.Message)
	}
	return models.TransportError(err)
}

var _ models.Transport = (*Transport)(nil)
