// Package models contains shared data models used across the ContractScan codebase.
package models

import "context"

// Transport is the wire strategy behind the analysis client.
// Never call a concrete transport directly; go through ai.Client.
type Transport interface {
	// Generate sends one request to the model endpoint and returns the text of
	// the first content part of the first candidate. Failures must be *Failure
	// values of kind TransportError, ServiceError, EmptyResponse or
	// MalformedResponse.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// Name returns the transport identifier (e.g., "rest", "sdk").
	Name() string
}

// GenerateRequest is the input to a single model call.
type GenerateRequest struct {
	Prompt string
	// StructuredOutput asks the service to constrain output to JSON.
	// Services may ignore it; the response is validated regardless.
	StructuredOutput bool
}
