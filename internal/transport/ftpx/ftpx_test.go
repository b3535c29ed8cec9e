package ftpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moleculab/chemmirror/internal/domain"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestMapError_TemporaryReplyIsRetryable(t *testing.T) {
	err := mapError(fmt.Errorf("list: %w", &textproto.Error{Code: 421, Msg: "service not available"}))
	if !domain.IsRetryable(err) {
		t.Errorf("421 reply must be retryable, got %v", err)
	}
}

func TestMapError_FileUnavailableIsNotFound(t *testing.T) {
	err := mapError(fmt.Errorf("retrieve: %w", &textproto.Error{Code: 550, Msg: "no such file"}))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("550 reply must map to ErrNotFound, got %v", err)
	}
	if domain.IsRetryable(err) {
		t.Error("550 reply must not be retryable")
	}
}

func TestMapError_PermanentReplyPassesThrough(t *testing.T) {
	orig := &textproto.Error{Code: 530, Msg: "not logged in"}
	err := mapError(fmt.Errorf("login: %w", orig))
	if domain.IsRetryable(err) {
		t.Error("530 reply must not be retryable")
	}
	if !errors.As(err, new(*textproto.Error)) {
		t.Errorf("original error lost: %v", err)
	}
}

func TestMapError_TruncatedStreamIsRetryable(t *testing.T) {
	for _, cause := range []error{io.EOF, io.ErrUnexpectedEOF} {
		err := mapError(fmt.Errorf("transfer: %w", cause))
		if !domain.IsRetryable(err) {
			t.Errorf("%v must be retryable, got %v", cause, err)
		}
	}
}

func TestMapError_NetworkErrorIsRetryable(t *testing.T) {
	err := mapError(fmt.Errorf("dial: %w", timeoutErr{}))
	if !domain.IsRetryable(err) {
		t.Errorf("network errors must be retryable, got %v", err)
	}
}

func TestMapError_Nil(t *testing.T) {
	if mapError(nil) != nil {
		t.Error("nil must map to nil")
	}
}

func TestNewDialer_AnonymousDefaults(t *testing.T) {
	d := NewDialer("ftp.example.org", "", "")
	if d.user != "anonymous" {
		t.Errorf("expected anonymous user, got %s", d.user)
	}
	if d.pass == "" {
		t.Error("expected non-empty anonymous password")
	}
}

func TestFetch_ExistingDestinationUntouched(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "a.sdf.gz")
	if err := os.WriteFile(dest, []byte("existing bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	// The connection is never touched when the destination exists,
	// so a zero session is enough here.
	s := &session{}
	err := s.Fetch(context.Background(), "remote/a.sdf.gz", dest)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "existing bytes" {
		t.Errorf("existing destination was modified: %q", got)
	}
}

func TestConnect_FailureIsRetryable(t *testing.T) {
	// Nothing listens on port 1, so the dial fails immediately with a
	// network error.
	d := NewDialer("127.0.0.1:1", "", "")

	done := make(chan error, 1)
	go func() {
		_, err := d.Connect(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected connection failure")
		}
		if !domain.IsRetryable(err) {
			t.Errorf("connection failures must be retryable, got %v", err)
		}
	case <-time.After(45 * time.Second):
		t.Fatal("dial did not fail in time")
	}
}
