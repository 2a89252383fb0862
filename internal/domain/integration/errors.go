package integration

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors of the integration context
var (
	ErrMarketplaceNameRequired = errors.New("integration: marketplace name is required")
	ErrUnsupportedMarketplace  = errors.New("integration: unsupported marketplace type")
	ErrInvalidSettings         = errors.New("integration: invalid marketplace settings")
	ErrMarketplaceInactive     = errors.New("integration: marketplace is not active")
	ErrChannelInitializing     = errors.New("integration: channel initialization already in progress")
	ErrChannelNotReady         = errors.New("integration: channel is not ready")
	ErrSyncInProgress          = errors.New("integration: sync already in progress")
	ErrHealthCheckFailed       = errors.New("integration: no health endpoint responded")
	ErrTooManyPages            = errors.New("integration: page limit reached")
)

// HTTPStatusError captures a non-2xx marketplace response
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// TransientAPIError is returned once the retry budget for an endpoint is
// exhausted. Err is the last underlying failure.
type TransientAPIError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *TransientAPIError) Error() string {
	return fmt.Sprintf("integration: %s failed after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *TransientAPIError) Unwrap() error {
	return e.Err
}

// ShapeMismatchError is returned when a response matches none of the known
// envelopes. ObservedKeys lists the top-level keys that were present.
type ShapeMismatchError struct {
	Kind         string
	ObservedKeys []string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("integration: unrecognised %s response shape, observed keys [%s]",
		e.Kind, strings.Join(e.ObservedKeys, ", "))
}

// ItemValidationError rejects a single record. It never aborts a batch.
type ItemValidationError struct {
	Kind   string
	Ref    string
	Reason string
}

func (e *ItemValidationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Ref, e.Reason)
}
