package ingest

import "context"

// Handler consumes one decompressed file. Implementations parse the
// file's records and insert them into a backing store one at a time;
// a single record's failure must be caught and logged inside the
// handler, never returned. An error return is reserved for conditions
// the handler cannot absorb and stops the extraction walk.
type Handler interface {
	Handle(ctx context.Context, path string) error
}

// Backend is a handler with a lifetime: one session is opened per
// pipeline run and closed when the run ends, not per file.
type Backend interface {
	Handler

	// Close releases the backend's store session.
	Close() error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, path string) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, path string) error {
	return f(ctx, path)
}
