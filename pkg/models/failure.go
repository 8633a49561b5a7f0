package models

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind classifies why an analysis did not produce a Report.
type FailureKind string

const (
	KindUnsupportedFormat   FailureKind = "unsupported_format"
	KindDecodeError         FailureKind = "decode_error"
	KindInsufficientContent FailureKind = "insufficient_content"
	KindTransportError      FailureKind = "transport_error"
	KindServiceError        FailureKind = "service_error"
	KindEmptyResponse       FailureKind = "empty_response"
	KindMalformedResponse   FailureKind = "malformed_response"
)

// Sentinels matched by errors.Is against any *Failure of the same kind.
var (
	ErrUnsupportedFormat   = errors.New("unsupported document format")
	ErrDecodeError         = errors.New("document could not be decoded")
	ErrInsufficientContent = errors.New("insufficient document content")
	ErrTransportError      = errors.New("model endpoint unreachable")
	ErrServiceError        = errors.New("model service returned an error")
	ErrEmptyResponse       = errors.New("model returned no candidates")
	ErrMalformedResponse   = errors.New("model returned a malformed response")
)

// ErrModelTimeout is wrapped into TransportError causes that are deadlines.
var ErrModelTimeout = errors.New("model call timed out")

var sentinels = map[FailureKind]error{
	KindUnsupportedFormat:   ErrUnsupportedFormat,
	KindDecodeError:         ErrDecodeError,
	KindInsufficientContent: ErrInsufficientContent,
	KindTransportError:      ErrTransportError,
	KindServiceError:        ErrServiceError,
	KindEmptyResponse:       ErrEmptyResponse,
	KindMalformedResponse:   ErrMalformedResponse,
}

// Valid reports whether k is one of the known kinds.
func (k FailureKind) Valid() bool {
	_, ok := sentinels[k]
	return ok
}

// Failure is the error returned for every analysis that did not produce a
// Report. Diagnostic fields are for operators only and must never be shown
// to end users as legal content.
type Failure struct {
	Kind    FailureKind
	Message string

	// StatusCode and Body are set for ServiceError.
	StatusCode int
	Body       string
	// Raw is the unparsed model output for MalformedResponse.
	Raw string

	Err error
}

func (f *Failure) Error() string {
	msg := f.Message
	if msg == "" {
		msg = sentinels[f.Kind].Error()
	}
	if f.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, f.StatusCode)
	}
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, msg, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, msg)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[f.Kind]; ok {
		errs = append(errs, s)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// Diagnostic returns the retained payload for troubleshooting.
func (f *Failure) Diagnostic() string {
	switch {
	case f.Raw != "":
		return f.Raw
	case f.StatusCode != 0:
		return fmt.Sprintf("status %d: %s", f.StatusCode, f.Body)
	case f.Err != nil:
		return f.Err.Error()
	default:
		return ""
	}
}

// KindOf returns the failure kind carried by err, if any.
func KindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

func UnsupportedFormat(ext string) *Failure {
	return &Failure{Kind: KindUnsupportedFormat, Message: fmt.Sprintf("extension %q is not one of pdf, txt", ext)}
}

func DecodeError(msg string, err error) *Failure {
	return &Failure{Kind: KindDecodeError, Message: msg, Err: err}
}

func InsufficientContent(got, minChars int) *Failure {
	return &Failure{
		Kind:    KindInsufficientContent,
		Message: fmt.Sprintf("extracted %d characters, need at least %d", got, minChars),
	}
}

// TransportError wraps a failure to reach the model. Deadline and network
// timeout causes are additionally marked with ErrModelTimeout.
func TransportError(err error) *Failure {
	return &Failure{Kind: KindTransportError, Err: classifyTransport(err)}
}

func classifyTransport(err error) error {
	if err == nil || errors.Is(err, ErrModelTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrModelTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrModelTimeout, err)
	}
	return err
}

// IsTimeout reports whether err is a TransportError caused by a deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrModelTimeout)
}

func ServiceError(status int, body string) *Failure {
	return &Failure{Kind: KindServiceError, StatusCode: status, Body: body}
}

func EmptyResponse(msg string) *Failure {
	return &Failure{Kind: KindEmptyResponse, Message: msg}
}

func MalformedResponse(raw string, err error) *Failure {
	return &Failure{Kind: KindMalformedResponse, Raw: raw, Err: err}
}
