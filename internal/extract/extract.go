package extract

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moleculab/chemmirror/internal/domain"
	"github.com/moleculab/chemmirror/internal/ingest"
	"github.com/moleculab/chemmirror/internal/logger"
)

// Pipeline walks a local directory tree, decompresses every archive it
// finds into a temporary sibling file, hands the sibling to the
// configured handler, and removes it afterwards. Files without the
// archive suffix are never touched.
type Pipeline struct {
	handler ingest.Handler
}

// New creates a pipeline feeding handler.
func New(handler ingest.Handler) *Pipeline {
	return &Pipeline{handler: handler}
}

// Walk processes every archive under root, in no particular order.
// A corrupt or truncated archive is logged and skipped; an error
// returned by the handler stops the walk and propagates.
func (p *Pipeline) Walk(ctx context.Context, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if domain.ClassOf(path) != domain.ClassPayload {
			return nil
		}
		return p.processArchive(ctx, path)
	})
}

// processArchive decompresses one archive and feeds it to the handler.
// The decompressed sibling is removed on every path out, including a
// handler failure.
func (p *Pipeline) processArchive(ctx context.Context, archivePath string) error {
	target := strings.TrimSuffix(archivePath, domain.PayloadExt)

	if err := gunzip(archivePath, target); err != nil {
		if isCorrupt(err) {
			logger.Get().Error("corrupt archive skipped", "path", archivePath, "error", err)
			os.Remove(target)
			return nil
		}
		os.Remove(target)
		return err
	}
	defer func() {
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			logger.Get().Warn("failed to remove decompressed file", "path", target, "error", err)
		}
	}()

	logger.Get().Debug("handling archive", "path", archivePath)
	return p.handler.Handle(ctx, target)
}

// gunzip streams the decompressed content of src into dst. The copy
// is chunked by io.Copy, so memory use stays constant regardless of
// archive size.
func gunzip(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("read archive %s: %w", src, err)
	}
	defer zr.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	_, copyErr := io.Copy(out, zr)
	closeErr := out.Close()

	if copyErr != nil {
		return fmt.Errorf("decompress %s: %w", src, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", dst, closeErr)
	}
	return nil
}

// isCorrupt reports whether err indicates a truncated or invalid
// compressed stream rather than an I/O or handler problem.
func isCorrupt(err error) bool {
	return errors.Is(err, gzip.ErrHeader) ||
		errors.Is(err, gzip.ErrChecksum) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}
