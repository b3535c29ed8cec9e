package transport

import "context"

// Session is one open connection to a remote file server. It exposes
// only the two operations the mirror engine needs: listing a directory
// and fetching a single named file. Retry logic does not live here;
// transient failures are tagged with domain.ErrRetryable and handled
// by the caller.
type Session interface {
	// List returns the entries of remoteDir as full remote paths,
	// including the directory prefix.
	List(ctx context.Context, remoteDir string) ([]string, error)

	// Fetch writes the full content of remotePath to localDest.
	// The destination is created exclusively: if it already exists
	// the fetch fails with domain.ErrAlreadyExists and the existing
	// bytes are left untouched. An interrupted transfer never leaves
	// a partial file under the destination name.
	Fetch(ctx context.Context, remotePath, localDest string) error

	// Close terminates the session. Safe to call on every exit path.
	Close() error
}

// Dialer opens sessions to a remote file server.
type Dialer interface {
	Connect(ctx context.Context) (Session, error)
}
