package mirror

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/moleculab/chemmirror/internal/core/inventory"
	"github.com/moleculab/chemmirror/internal/core/policy"
	"github.com/moleculab/chemmirror/internal/domain"
	"github.com/moleculab/chemmirror/internal/logger"
	"github.com/moleculab/chemmirror/internal/progress"
	"github.com/moleculab/chemmirror/internal/transport"
)

// DefaultBackoff is the fixed pause between restarted passes.
const DefaultBackoff = 5 * time.Second

// Options configures the mirror engine.
type Options struct {
	// MirrorDir is the local mirror root. The remote subtree is
	// mirrored verbatim underneath it.
	MirrorDir string

	// RootPrefix is the first component of the remote source
	// directory (e.g. "pubchem").
	RootPrefix string

	// Subtrees overrides the dataset-to-subtree mapping. Datasets not
	// present here fall back to the built-in mapping.
	Subtrees map[domain.Dataset]string

	// Backoff is the pause before a restarted pass. Zero means
	// DefaultBackoff.
	Backoff time.Duration

	// MaxAttempts bounds the number of passes. Zero means unbounded,
	// matching the historical behavior.
	MaxAttempts int
}

// Engine orchestrates mirror passes: list the remote source directory
// per extension class, diff against local inventory, and delegate each
// missing file to the download policy. Execution is sequential
// throughout; the filesystem is the only coordination medium.
type Engine struct {
	dialer transport.Dialer
	policy *policy.Policy
	opts   Options
}

// New creates a mirror engine.
func New(dialer transport.Dialer, pol *policy.Policy, opts Options) *Engine {
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	return &Engine{dialer: dialer, policy: pol, opts: opts}
}

// SourceDir returns the canonical remote source directory for a
// dataset and format: <rootPrefix>/<Subtree>/CURRENT-Full/<FORMAT>.
func (e *Engine) SourceDir(dataset domain.Dataset, format string) (string, error) {
	subtree, ok := e.opts.Subtrees[dataset]
	if !ok {
		var err error
		subtree, err = dataset.Subtree()
		if err != nil {
			return "", fmt.Errorf("dataset %q: %w", dataset, err)
		}
	}
	return path.Join(e.opts.RootPrefix, subtree, "CURRENT-Full", strings.ToUpper(format)), nil
}

// Sync runs mirror passes for one dataset/format pair until a pass
// completes, a non-retryable error occurs, or the attempt limit is
// reached. Retryable transport failures restart the whole pass from
// the remote listing; completed files are visible to the next
// inventory scan, so restarted passes only fetch what is still
// missing.
func (e *Engine) Sync(ctx context.Context, dataset domain.Dataset, format string) (*progress.Summary, error) {
	remoteDir, err := e.SourceDir(dataset, format)
	if err != nil {
		return nil, err
	}
	localDir := filepath.Join(e.opts.MirrorDir, filepath.FromSlash(remoteDir))

	log := logger.With("dataset", string(dataset), "source", remoteDir)

	for attempt := 1; ; attempt++ {
		summary := progress.NewSummary()

		err := e.pass(ctx, remoteDir, localDir, summary)
		if err == nil {
			log.Info("mirror pass complete", summary.LogAttrs()...)
			return summary, nil
		}
		if !domain.IsRetryable(err) {
			return summary, err
		}
		if e.opts.MaxAttempts > 0 && attempt >= e.opts.MaxAttempts {
			return summary, fmt.Errorf("%w after %d attempts: %v", domain.ErrRetriesExhausted, attempt, err)
		}

		log.Warn("transient failure, restarting pass",
			"error", err,
			"attempt", attempt,
			"backoff", e.opts.Backoff.String(),
		)

		select {
		case <-time.After(e.opts.Backoff):
		case <-ctx.Done():
			return summary, ctx.Err()
		}
	}
}

// pass executes one full mirror pass over all extension classes,
// sidecar class first. Any error aborts the pass; the caller decides
// whether to restart.
func (e *Engine) pass(ctx context.Context, remoteDir, localDir string, summary *progress.Summary) error {
	// Directory-exists races are not errors; MkdirAll absorbs them.
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return fmt.Errorf("create mirror directory: %w", err)
	}

	session, err := e.dialer.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Get().Warn("session close failed", "error", cerr)
		}
	}()

	for _, class := range domain.ClassOrder {
		if err := e.syncClass(ctx, session, remoteDir, localDir, class, summary); err != nil {
			return err
		}
	}
	return nil
}

// syncClass diffs one extension class and downloads every missing file.
func (e *Engine) syncClass(ctx context.Context, session transport.Session, remoteDir, localDir string, class domain.Class, summary *progress.Summary) error {
	listing, err := session.List(ctx, remoteDir)
	if err != nil {
		return err
	}

	remote := inventory.Remote(listing, class)

	// Sidecars are never trusted locally: every remote sidecar stays a
	// candidate and the policy refreshes the ones already present.
	local := make(inventory.Set)
	if class != domain.ClassSidecar {
		var err error
		local, err = inventory.Local(localDir, class)
		if err != nil {
			return err
		}
	}

	missing := inventory.Missing(remote, local)
	logger.Get().Debug("class diff computed",
		"class", class.String(),
		"remote", len(remote),
		"local", len(local),
		"missing", len(missing),
	)

	for _, name := range missing {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := e.policy.Apply(ctx, session,
			path.Join(remoteDir, name),
			filepath.Join(localDir, name),
		)
		if err != nil {
			return err
		}
		summary.Record(outcome)
	}
	return nil
}
