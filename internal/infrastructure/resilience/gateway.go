package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

// StatusError is a non-2xx answer from an HTTP gateway (ollama, qdrant,
// fetched web pages).
type StatusError struct {
	Service    string
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if msg := strings.TrimSpace(e.Body); msg != "" {
		return fmt.Sprintf("%s %s status: %s: %s", e.Service, e.Operation, e.Status, msg)
	}
	return fmt.Sprintf("%s %s status: %s", e.Service, e.Operation, e.Status)
}

// ReadStatusError captures the first 2KiB of resp's body.
func ReadStatusError(service, operation string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &StatusError{
		Service:    service,
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}

// StatusOf extracts the code of a wrapped *StatusError.
func StatusOf(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}

func RetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// GatewayClassifier builds the classifier shared by the remote adapters.
// Caller cancellation is neither retried nor counted against the breaker,
// 4xx answers are the caller's fault, and transport errors are retried.
// statusOf may be nil; transient adds adapter-specific retryable errors.
func GatewayClassifier(statusOf func(error) (int, bool), transient ...func(error) bool) ErrorClassifier {
	return func(err error) ErrorClassification {
		switch {
		case err == nil:
			return ErrorClassification{}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return ErrorClassification{}
		case IsCircuitOpen(err):
			return ErrorClassification{Retryable: true, RecordFailure: true}
		}
		if statusOf != nil {
			if code, ok := statusOf(err); ok {
				retry := RetryableStatus(code)
				return ErrorClassification{Retryable: retry, RecordFailure: retry}
			}
		}
		for _, match := range transient {
			if match(err) {
				return ErrorClassification{Retryable: true, RecordFailure: true}
			}
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return ErrorClassification{RecordFailure: true}
	}
}

// WrapGatewayError tags a failed call as domain.ErrTemporary when a later
// retry may succeed and domain.ErrGateway otherwise. Caller cancellation
// and errors that already carry a domain kind pass through.
func WrapGatewayError(operation string, err error, classify ErrorClassifier) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	for _, kind := range []error{domain.ErrTemporary, domain.ErrGateway, domain.ErrInvalidInput} {
		if domain.IsKind(err, kind) {
			return err
		}
	}
	if classify(err).Retryable || errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return domain.WrapError(domain.ErrGateway, operation, err)
}
