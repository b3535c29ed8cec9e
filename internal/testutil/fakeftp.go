package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/moleculab/chemmirror/internal/domain"
	"github.com/moleculab/chemmirror/internal/transport"
)

// FakeServer is an in-memory transport for tests. Files maps full
// remote paths to content. Fetch honors the exclusive-create contract
// of the real transport.
type FakeServer struct {
	mu sync.Mutex

	// Files holds the remote tree.
	Files map[string][]byte

	// ListErrs are popped one per List call before any listing
	// happens; a nil entry means the call succeeds.
	ListErrs []error

	// FetchErrs fails fetches of specific remote paths.
	FetchErrs map[string]error

	// Counters for assertions.
	ConnectCount int
	CloseCount   int
	FetchCount   int
	ListCount    int
}

// Connect implements the transport.Dialer interface.
func (s *FakeServer) Connect(ctx context.Context) (transport.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ConnectCount++
	return &fakeSession{srv: s}, nil
}

type fakeSession struct {
	srv *FakeServer
}

// List returns the full remote paths under remoteDir, sorted.
func (f *fakeSession) List(ctx context.Context, remoteDir string) ([]string, error) {
	f.srv.mu.Lock()
	defer f.srv.mu.Unlock()

	f.srv.ListCount++
	if len(f.srv.ListErrs) > 0 {
		err := f.srv.ListErrs[0]
		f.srv.ListErrs = f.srv.ListErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	var names []string
	prefix := strings.TrimSuffix(remoteDir, "/") + "/"
	for p := range f.srv.Files {
		if strings.HasPrefix(p, prefix) {
			names = append(names, p)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Fetch writes the remote file to localDest with exclusive-create
// semantics.
func (f *fakeSession) Fetch(ctx context.Context, remotePath, localDest string) error {
	f.srv.mu.Lock()
	defer f.srv.mu.Unlock()

	if err, ok := f.srv.FetchErrs[remotePath]; ok {
		return err
	}

	content, ok := f.srv.Files[remotePath]
	if !ok {
		return domain.ErrNotFound
	}

	if err := os.MkdirAll(filepath.Dir(localDest), 0755); err != nil {
		return err
	}

	dest, err := os.OpenFile(localDest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	f.srv.FetchCount++
	if _, err := dest.Write(content); err != nil {
		dest.Close()
		return err
	}
	return dest.Close()
}

// Close implements the transport.Session interface.
func (f *fakeSession) Close() error {
	f.srv.mu.Lock()
	defer f.srv.mu.Unlock()
	f.srv.CloseCount++
	return nil
}
