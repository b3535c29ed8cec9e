package noop

import (
	"context"

	"github.com/moleculab/chemmirror/internal/logger"
)

// Backend discards every file. Useful for exercising the mirror and
// extraction pipeline without a store.
type Backend struct{}

// New creates a no-op backend.
func New() *Backend {
	return &Backend{}
}

// Handle logs the file and does nothing else.
func (b *Backend) Handle(ctx context.Context, path string) error {
	logger.Get().Info("discarding file", "path", path)
	return nil
}

// Close implements the Backend interface.
func (b *Backend) Close() error {
	return nil
}
