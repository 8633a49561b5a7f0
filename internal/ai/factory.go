package ai

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/contractscan/internal/ai/gemini"
	"github.com/kiranshivaraju/contractscan/internal/ai/sdk"
	"github.com/kiranshivaraju/contractscan/internal/config"
	"github.com/kiranshivaraju/contractscan/pkg/models"
)

// NewTransport constructs the transport selected by cfg.Transport.
// Called once at startup.
func NewTransport(ctx context.Context, cfg config.AIConfig) (models.Transport, error) {
	switch cfg.Transport {
	case config.TransportREST, "":
		return gemini.NewTransport(cfg), nil
	case config.TransportSDK:
		t, err := sdk.NewTransport(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown AI transport %q: must be one of rest, sdk", cfg.Transport)
	}
}

// NewFromConfig builds a Client with the configured transport, timeout and
// prompt ceiling.
func NewFromConfig(ctx context.Context, cfg config.AIConfig, opts ...Option) (*Client, error) {
	t, err := NewTransport(ctx, cfg)
	if err != nil {
		return nil, err
	}
	base := []Option{WithTimeout(cfg.Timeout), WithMaxPromptBytes(cfg.MaxPromptBytes)}
	return NewClient(t, append(base, opts...)...), nil
}
