package domain

import "errors"

// Transport errors
var (
	// ErrAlreadyExists indicates the fetch destination already exists.
	// This is the expected exclusive-create collision, handled inline
	// by the download policy rather than surfaced to the caller.
	ErrAlreadyExists = errors.New("destination already exists")

	// ErrNotFound indicates the requested remote resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrRetryable tags transient transport failures (temporary protocol
	// replies, truncated streams, network resets). Only errors wrapping
	// this sentinel trigger the backoff-and-restart policy of the mirror
	// engine; everything else surfaces to the operator.
	ErrRetryable = errors.New("retryable transport error")
)

// Mirror errors
var (
	// ErrUnknownDataset indicates the dataset name has no remote subtree mapping
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrRetriesExhausted indicates the configured attempt limit was reached
	// before a mirror pass completed
	ErrRetriesExhausted = errors.New("retry limit reached")
)

// Config errors
var (
	// ErrConfigNotFound indicates no config file was found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates the config file is malformed
	ErrConfigInvalid = errors.New("invalid config")

	// ErrUnknownBackend indicates the ingestion backend name is not registered
	ErrUnknownBackend = errors.New("unknown ingestion backend")
)

// IsRetryable reports whether err should trigger backoff-and-restart.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}
