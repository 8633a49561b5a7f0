package mock

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/contractscan/pkg/models"
)

// Transport satisfies models.Transport for testing. It records every request.
type Transport struct {
	Name_        string
	GenerateFunc func(ctx context.Context, req models.GenerateRequest) (string, error)

	mu       sync.Mutex
	requests []models.GenerateRequest
}

func (m *Transport) Name() string { return m.Name_ }

func (m *Transport) Generate(ctx context.Context, req models.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "", nil
}

// Requests returns a copy of the requests received so far.
func (m *Transport) Requests() []models.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.GenerateRequest(nil), m.requests...)
}

// Calls returns the number of Generate calls.
func (m *Transport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// NewTransport returns a Transport that answers every request with text.
func NewTransport(text string) *Transport {
	return &Transport{
		Name_: "mock",
		GenerateFunc: func(_ context.Context, _ models.GenerateRequest) (string, error) {
			return text, nil
		},
	}
}

// NewFailingTransport returns a Transport that always returns err.
func NewFailingTransport(err error) *Transport {
	return &Transport{
		Name_: "mock-failing",
		GenerateFunc: func(_ context.Context, _ models.GenerateRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutTransport returns a Transport that blocks until ctx is done.
func NewTimeoutTransport() *Transport {
	return &Transport{
		Name_: "mock-timeout",
		GenerateFunc: func(ctx context.Context, _ models.GenerateRequest) (string, error) {
			<-ctx.Done()
			return "", models.TransportError(ctx.Err())
		},
	}
}

// Compile-time check that Transport implements models.Transport.
var _ models.Transport = (*Transport)(nil)
