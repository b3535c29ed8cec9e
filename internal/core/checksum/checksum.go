package checksum

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Options configures the verifier.
type Options struct {
	// BufferSize is the chunk size for streaming reads.
	// Default: 32KB
	BufferSize int
}

// DefaultOptions returns the recommended default options
func DefaultOptions() Options {
	return Options{
		BufferSize: 32 * 1024, // 32KB
	}
}

// Verifier checks a payload file against its checksum sidecar.
type Verifier interface {
	// Verify reports whether payloadPath matches the digest recorded
	// in its sidecar. A missing or unparsable sidecar makes the
	// payload unverifiable, which counts as valid: sidecars are
	// refreshed before payloads, so an absent sidecar means the
	// remote offers none.
	Verify(ctx context.Context, payloadPath string) (bool, error)
}

// SidecarVerifier implements Verifier with streaming MD5.
type SidecarVerifier struct {
	opts Options
}

// NewVerifier creates a verifier with the given options.
func NewVerifier(opts Options) *SidecarVerifier {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}
	return &SidecarVerifier{opts: opts}
}

// NewDefaultVerifier creates a verifier with default options.
func NewDefaultVerifier() *SidecarVerifier {
	return NewVerifier(DefaultOptions())
}

// SidecarPath returns the sidecar name for a payload path.
func SidecarPath(payloadPath string) string {
	return payloadPath + ".md5"
}

// Verify implements the Verifier interface.
func (v *SidecarVerifier) Verify(ctx context.Context, payloadPath string) (bool, error) {
	want, ok, err := v.readSidecar(SidecarPath(payloadPath))
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}

	got, err := v.digest(ctx, payloadPath)
	if err != nil {
		return false, err
	}

	return strings.EqualFold(want, got), nil
}

// readSidecar parses the first digest token of an md5sum-format
// sidecar ("<hex>  <name>"). ok is false when the sidecar is missing
// or carries no parsable digest.
func (v *SidecarVerifier) readSidecar(sidecarPath string) (digest string, ok bool, err error) {
	f, err := os.Open(sidecarPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("open sidecar: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if isHexDigest(fields[0]) {
			return fields[0], true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", false, fmt.Errorf("read sidecar: %w", err)
	}
	return "", false, nil
}

// digest streams the payload through MD5.
func (v *SidecarVerifier) digest(ctx context.Context, payloadPath string) (string, error) {
	f, err := os.Open(payloadPath)
	if err != nil {
		return "", fmt.Errorf("open payload: %w", err)
	}
	defer f.Close()

	h := md5.New()
	buffer := make([]byte, v.opts.BufferSize)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := f.Read(buffer)
		if n > 0 {
			if _, hashErr := h.Write(buffer[:n]); hashErr != nil {
				return "", fmt.Errorf("hash write error: %w", hashErr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read error: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// isHexDigest reports whether s looks like a hex MD5 digest.
func isHexDigest(s string) bool {
	if len(s) != md5.Size*2 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
