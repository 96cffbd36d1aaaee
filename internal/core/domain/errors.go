package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks missing credentials or an embedding/index
	// dimension mismatch. Fatal at startup, never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmbeddingService marks a failure of the embedding provider.
	ErrEmbeddingService = errors.New("embedding service failure")

	// ErrIndexService marks a failure of the vector index.
	ErrIndexService = errors.New("vector index failure")

	// ErrIndexNotReady marks an index that exists but is still
	// provisioning.
	ErrIndexNotReady = errors.New("vector index not ready")

	ErrInvalidInput = errors.New("invalid input")
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
