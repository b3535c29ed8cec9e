package ftpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/moleculab/chemmirror/internal/domain"
	"github.com/moleculab/chemmirror/internal/transport"
)

const (
	// DefaultPort is used when the host has no explicit port.
	DefaultPort = "21"
	// dialTimeout bounds the initial TCP connect.
	dialTimeout = 30 * time.Second
)

// Dialer opens anonymous FTP sessions to a fixed host.
type Dialer struct {
	host string
	user string
	pass string
}

// NewDialer creates a dialer for the given host. Credentials default
// to anonymous access when empty.
func NewDialer(host, user, pass string) *Dialer {
	if user == "" {
		user = "anonymous"
	}
	if pass == "" {
		pass = "anonymous@domain.com"
	}
	return &Dialer{host: host, user: user, pass: pass}
}

// Connect dials the server and logs in.
func (d *Dialer) Connect(ctx context.Context) (transport.Session, error) {
	addr := d.host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, DefaultPort)
	}

	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(dialTimeout),
	)
	if err != nil {
		return nil, mapError(fmt.Errorf("dial %s: %w", addr, err))
	}

	if err := conn.Login(d.user, d.pass); err != nil {
		// The login error is the one that matters here.
		_ = conn.Quit()
		return nil, mapError(fmt.Errorf("login: %w", err))
	}

	return &session{conn: conn}, nil
}

// session wraps one logged-in FTP connection.
type session struct {
	conn *ftp.ServerConn
}

// List returns the entries of remoteDir as full remote paths.
func (s *session) List(ctx context.Context, remoteDir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names, err := s.conn.NameList(remoteDir)
	if err != nil {
		return nil, mapError(fmt.Errorf("list %s: %w", remoteDir, err))
	}

	// Some servers reply with bare names, others with full paths.
	// Normalize to full paths so callers see one shape.
	result := make([]string, 0, len(names))
	for _, name := range names {
		if !strings.HasPrefix(name, remoteDir) {
			name = path.Join(remoteDir, path.Base(name))
		}
		result = append(result, name)
	}
	return result, nil
}

// Fetch streams remotePath into localDest with exclusive-create
// semantics on the destination name.
func (s *session) Fetch(ctx context.Context, remotePath, localDest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(localDest), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	// Reserve the destination name. A second process racing on the
	// same file loses here and takes the already-present branch.
	dest, err := os.OpenFile(localDest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create %s: %w", localDest, err)
	}
	dest.Close()

	// Transfer into a sibling part-file, then rename over the
	// reservation. A crash mid-transfer leaves only the part-file,
	// never a partial file under the destination name.
	partPath := localDest + ".part"
	if err := s.fetchToPart(remotePath, partPath); err != nil {
		os.Remove(partPath)
		os.Remove(localDest)
		return err
	}

	if err := os.Rename(partPath, localDest); err != nil {
		os.Remove(partPath)
		os.Remove(localDest)
		return fmt.Errorf("finalize %s: %w", localDest, err)
	}
	return nil
}

func (s *session) fetchToPart(remotePath, partPath string) error {
	resp, err := s.conn.Retr(remotePath)
	if err != nil {
		return mapError(fmt.Errorf("retrieve %s: %w", remotePath, err))
	}
	defer resp.Close()

	part, err := os.OpenFile(partPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", partPath, err)
	}

	_, copyErr := io.Copy(part, resp)
	closeErr := part.Close()

	if copyErr != nil {
		return mapError(fmt.Errorf("transfer %s: %w", remotePath, copyErr))
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", partPath, closeErr)
	}
	return nil
}

// Close sends QUIT. Errors are returned for logging but carry no
// meaning for the sync result.
func (s *session) Close() error {
	return s.conn.Quit()
}

// mapError tags transient transport failures with domain.ErrRetryable
// so the mirror engine can distinguish them from programming errors.
// Retryable: temporary protocol replies (4xx), truncated streams,
// network-level errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var proto *textproto.Error
	if errors.As(err, &proto) {
		if proto.Code >= 400 && proto.Code < 500 {
			return fmt.Errorf("%w: %v", domain.ErrRetryable, err)
		}
		if proto.Code == ftp.StatusFileUnavailable {
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		}
		return err
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", domain.ErrRetryable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrRetryable, err)
	}

	return err
}
