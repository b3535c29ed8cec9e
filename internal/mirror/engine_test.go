package mirror

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/moleculab/chemmirror/internal/core/checksum"
	"github.com/moleculab/chemmirror/internal/core/policy"
	"github.com/moleculab/chemmirror/internal/domain"
	"github.com/moleculab/chemmirror/internal/progress"
	"github.com/moleculab/chemmirror/internal/testutil"
)

const sourceDir = "pubchem/Compound/CURRENT-Full/SDF"

func remotePath(name string) string {
	return sourceDir + "/" + name
}

func newTestEngine(srv *testutil.FakeServer, mirrorDir string) *Engine {
	return New(srv, policy.New(checksum.NewDefaultVerifier()), Options{
		MirrorDir:  mirrorDir,
		RootPrefix: "pubchem",
		Backoff:    time.Millisecond,
	})
}

func fullRemote() map[string][]byte {
	a := []byte("payload a")
	b := []byte("payload b")
	return map[string][]byte{
		remotePath("a.sdf.gz"):     a,
		remotePath("a.sdf.gz.md5"): testutil.SidecarFor(a, "a.sdf.gz"),
		remotePath("b.sdf.gz"):     b,
		remotePath("b.sdf.gz.md5"): testutil.SidecarFor(b, "b.sdf.gz"),
	}
}

func TestSourceDir(t *testing.T) {
	engine := newTestEngine(&testutil.FakeServer{}, t.TempDir())

	dir, err := engine.SourceDir(domain.DatasetCompounds, "sdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != sourceDir {
		t.Errorf("expected %s, got %s", sourceDir, dir)
	}

	if _, err := engine.SourceDir(domain.Dataset("proteins"), "sdf"); !errors.Is(err, domain.ErrUnknownDataset) {
		t.Errorf("expected ErrUnknownDataset, got %v", err)
	}
}

func TestSourceDir_SubtreeOverride(t *testing.T) {
	srv := &testutil.FakeServer{}
	engine := New(srv, policy.New(checksum.NewDefaultVerifier()), Options{
		MirrorDir:  t.TempDir(),
		RootPrefix: "pubchem",
		Subtrees:   map[domain.Dataset]string{"substances": "Substance"},
	})

	dir, err := engine.SourceDir(domain.Dataset("substances"), "sdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != "pubchem/Substance/CURRENT-Full/SDF" {
		t.Errorf("unexpected source dir: %s", dir)
	}
}

func TestSync_FreshMirror(t *testing.T) {
	mirrorDir := t.TempDir()
	srv := &testutil.FakeServer{Files: fullRemote()}
	engine := newTestEngine(srv, mirrorDir)

	summary, err := engine.Sync(context.Background(), domain.DatasetCompounds, "sdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	localDir := filepath.Join(mirrorDir, filepath.FromSlash(sourceDir))
	for _, name := range []string{"a.sdf.gz", "a.sdf.gz.md5", "b.sdf.gz", "b.sdf.gz.md5"} {
		if !testutil.FileExists(t, filepath.Join(localDir, name)) {
			t.Errorf("expected %s to be mirrored", name)
		}
	}
	if got := summary.Count(domain.OutcomeFetched); got != 4 {
		t.Errorf("expected 4 fetches, got %d", got)
	}
	if srv.CloseCount != srv.ConnectCount {
		t.Errorf("session leak: %d connects, %d closes", srv.ConnectCount, srv.CloseCount)
	}
}

func TestSync_SecondRunFetchesNothing(t *testing.T) {
	mirrorDir := t.TempDir()
	srv := &testutil.FakeServer{Files: fullRemote()}
	engine := newTestEngine(srv, mirrorDir)

	if _, err := engine.Sync(context.Background(), domain.DatasetCompounds, "sdf"); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	summary, err := engine.Sync(context.Background(), domain.DatasetCompounds, "sdf")
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}

	if got := summary.Count(domain.OutcomeFetched); got != 0 {
		t.Errorf("second run must fetch nothing, fetched %d", got)
	}
	// Sidecars are refreshed every pass so they always reflect the
	// latest remote state.
	if got := summary.Count(domain.OutcomeRefreshedSidecar); got != 2 {
		t.Errorf("expected 2 sidecar refreshes, got %d", got)
	}
}

func TestSync_PartialLocalState(t *testing.T) {
	mirrorDir := t.TempDir()
	localDir := filepath.Join(mirrorDir, filepath.FromSlash(sourceDir))

	remote := fullRemote()
	a := []byte("payload a")
	testutil.CreateTestFile(t, localDir, "a.sdf.gz", a)
	testutil.CreateTestFile(t, localDir, "a.sdf.gz.md5", testutil.SidecarFor(a, "a.sdf.gz"))

	srv := &testutil.FakeServer{Files: remote}
	engine := newTestEngine(srv, mirrorDir)

	summary, err := engine.Sync(context.Background(), domain.DatasetCompounds, "sdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Only the two b.* files are new; a.sdf.gz is skipped while its
	// sidecar is refreshed.
	if got := summary.Count(domain.OutcomeFetched); got != 2 {
		t.Errorf("expected 2 fetches, got %d", got)
	}
	if got := summary.Count(domain.OutcomeRefreshedSidecar); got != 1 {
		t.Errorf("expected 1 sidecar refresh, got %d", got)
	}
	if !testutil.FileExists(t, filepath.Join(localDir, "b.sdf.gz")) {
		t.Error("b.sdf.gz was not fetched")
	}
}

func TestSync_RetryableListFailureRestartsPass(t *testing.T) {
	mirrorDir := t.TempDir()
	srv := &testutil.FakeServer{
		Files: fullRemote(),
		ListErrs: []error{
			fmt.Errorf("%w: server says try later", domain.ErrRetryable),
		},
	}
	engine := newTestEngine(srv, mirrorDir)

	summary, err := engine.Sync(context.Background(), domain.DatasetCompounds, "sdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := summary.Count(domain.OutcomeFetched); got != 4 {
		t.Errorf("expected 4 fetches after restart, got %d", got)
	}
	if srv.ConnectCount != 2 {
		t.Errorf("expected a reconnect per pass, got %d connects", srv.ConnectCount)
	}
	if srv.CloseCount != srv.ConnectCount {
		t.Errorf("session leak: %d connects, %d closes", srv.ConnectCount, srv.CloseCount)
	}
}

func TestSync_NonRetryableErrorSurfaces(t *testing.T) {
	boom := errors.New("schema violation")
	srv := &testutil.FakeServer{
		Files:    fullRemote(),
		ListErrs: []error{boom},
	}
	engine := newTestEngine(srv, t.TempDir())

	_, err := engine.Sync(context.Background(), domain.DatasetCompounds, "sdf")
	if !errors.Is(err, boom) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if srv.ConnectCount != 1 {
		t.Errorf("non-retryable errors must not restart the pass, got %d connects", srv.ConnectCount)
	}
}

func TestSync_RetriesExhausted(t *testing.T) {
	transient := fmt.Errorf("%w: flaky", domain.ErrRetryable)
	srv := &testutil.FakeServer{
		Files:    fullRemote(),
		ListErrs: []error{transient, transient, transient},
	}
	engine := New(srv, policy.New(checksum.NewDefaultVerifier()), Options{
		MirrorDir:   t.TempDir(),
		RootPrefix:  "pubchem",
		Backoff:     time.Millisecond,
		MaxAttempts: 2,
	})

	_, err := engine.Sync(context.Background(), domain.DatasetCompounds, "sdf")
	if !errors.Is(err, domain.ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if srv.ConnectCount != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", srv.ConnectCount)
	}
}

func TestSync_CancelledDuringBackoff(t *testing.T) {
	transient := fmt.Errorf("%w: flaky", domain.ErrRetryable)
	srv := &testutil.FakeServer{
		Files:    fullRemote(),
		ListErrs: []error{transient},
	}
	engine := New(srv, policy.New(checksum.NewDefaultVerifier()), Options{
		MirrorDir:  t.TempDir(),
		RootPrefix: "pubchem",
		Backoff:    time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := engine.Sync(ctx, domain.DatasetCompounds, "sdf")
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("sync did not stop after cancellation")
	}
}

// An interrupted pass leaves completed files behind, and the next pass
// picks up from filesystem truth; together the passes converge.
func TestSync_PartialFailureThenConvergence(t *testing.T) {
	mirrorDir := t.TempDir()
	files := fullRemote()
	transient := fmt.Errorf("%w: connection reset", domain.ErrRetryable)

	srv := &testutil.FakeServer{
		Files:     files,
		FetchErrs: map[string]error{remotePath("b.sdf.gz"): transient},
	}
	engine := New(srv, policy.New(checksum.NewDefaultVerifier()), Options{
		MirrorDir:   mirrorDir,
		RootPrefix:  "pubchem",
		Backoff:     time.Millisecond,
		MaxAttempts: 1,
	})

	if _, err := engine.Sync(context.Background(), domain.DatasetCompounds, "sdf"); err == nil {
		t.Fatal("expected first sync to fail")
	}

	// The remote recovers; a fresh engine without the fault converges.
	srv.FetchErrs = nil
	engine = newTestEngine(srv, mirrorDir)

	summary, err := engine.Sync(context.Background(), domain.DatasetCompounds, "sdf")
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}

	localDir := filepath.Join(mirrorDir, filepath.FromSlash(sourceDir))
	for _, name := range []string{"a.sdf.gz", "a.sdf.gz.md5", "b.sdf.gz", "b.sdf.gz.md5"} {
		if !testutil.FileExists(t, filepath.Join(localDir, name)) {
			t.Errorf("expected %s after convergence", name)
		}
	}
	if summary.Count(domain.OutcomeFetched) == 0 {
		t.Error("expected the second pass to fetch the remaining files")
	}
}

var _ progress.Reporter = (*progress.Summary)(nil)
