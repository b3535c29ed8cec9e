package testutil

import (
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// CreateTestFile creates a test file with the given content
func CreateTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	return path
}

// GzipContent compresses content into a well-formed gzip stream.
func GzipContent(t *testing.T, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(content); err != nil {
		t.Fatalf("failed to gzip content: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}

// CreateGzipFile creates a well-formed gzip archive containing content.
func CreateGzipFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	return CreateTestFile(t, dir, name, GzipContent(t, content))
}

// CreateTruncatedGzipFile creates an archive that ends mid-stream.
func CreateTruncatedGzipFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	full := GzipContent(t, content)
	return CreateTestFile(t, dir, name, full[:len(full)/2])
}

// SidecarFor returns the md5sum-format sidecar content for payload.
func SidecarFor(payload []byte, name string) []byte {
	sum := md5.Sum(payload)
	return []byte(fmt.Sprintf("%s  %s\n", hex.EncodeToString(sum[:]), name))
}

// FileExists reports whether path exists.
func FileExists(t *testing.T, path string) bool {
	t.Helper()

	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	t.Fatalf("failed to stat %s: %v", path, err)
	return false
}
