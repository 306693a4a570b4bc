package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrTemporary         = errors.New("temporary failure")
	ErrGateway           = errors.New("gateway failure")
	ErrExtractionFailed  = errors.New("no text recoverable")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSummaryScope      = errors.New("summary requires exactly one document")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// PartialWriteError reports a batched write that stopped part way.
// Completed items were persisted and are not rolled back.
type PartialWriteError struct {
	Operation string
	Completed int
	Total     int
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: wrote %d of %d: %v", e.Operation, e.Completed, e.Total, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
