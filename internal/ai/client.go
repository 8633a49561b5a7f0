// Package ai performs single model calls for contract analysis.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/contractscan/pkg/models"
)

// ErrPromptTooLarge is the cause of a TransportError for prompts over the
// configured ceiling.
var ErrPromptTooLarge = errors.New("prompt exceeds maximum size")

// PingPrompt is the fixed connectivity check prompt.
const PingPrompt = "Hello, simply reply with 'Connection Successful'."

// Client performs exactly one model call per request through a pluggable
// transport. It never retries and keeps no per-call state, so one Client can
// serve concurrent analyses.
type Client struct {
	transport      models.Transport
	timeout        time.Duration
	maxPromptBytes int
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each call. Zero leaves the caller's context in charge.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxPromptBytes sets the payload ceiling. Zero disables the check.
func WithMaxPromptBytes(n int) Option {
	return func(c *Client) { c.maxPromptBytes = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient wraps transport.
func NewClient(transport models.Transport, opts ...Option) *Client {
	c := &Client{transport: transport, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the transport name.
func (c *Client) Name() string { return c.transport.Name() }

// Generate sends prompt in structured output mode and returns the raw text
// of the first candidate. Errors are always *models.Failure.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, models.GenerateRequest{Prompt: prompt, StructuredOutput: true})
}

// Ping sends PingPrompt without structured output and returns the reply.
func (c *Client) Ping(ctx context.Context) (string, error) {
	return c.send(ctx, models.GenerateRequest{Prompt: PingPrompt})
}

func (c *Client) send(ctx context.Context, req models.GenerateRequest) (string, error) {
	reqID := uuid.New().String()

	if c.maxPromptBytes > 0 && len(req.Prompt) > c.maxPromptBytes {
		err := models.TransportError(fmt.Errorf("%w: %d bytes, limit %d", ErrPromptTooLarge, len(req.Prompt), c.maxPromptBytes))
		c.logger.Warn("ai.prompt_too_large", "req_id", reqID, "prompt_bytes", len(req.Prompt), "limit", c.maxPromptBytes)
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	c.logger.Info("ai.request",
		"req_id", reqID,
		"transport", c.transport.Name(),
		"prompt_bytes", len(req.Prompt),
		"structured", req.StructuredOutput,
	)

	text, err := c.transport.Generate(ctx, req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		var f *models.Failure
		if !errors.As(err, &f) {
			f = models.TransportError(err)
		}
		c.logger.Error("ai.send_error",
			"req_id", reqID,
			"kind", f.Kind,
			"status", f.StatusCode,
			"error", f.Error(),
			"elapsed_ms", elapsed,
		)
		return "", f
	}

	c.logger.Info("ai.response",
		"req_id", reqID,
		"bytes", len(text),
		"elapsed_ms", elapsed,
	)
	return text, nil
}
