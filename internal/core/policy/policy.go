package policy

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/moleculab/chemmirror/internal/core/checksum"
	"github.com/moleculab/chemmirror/internal/domain"
	"github.com/moleculab/chemmirror/internal/logger"
	"github.com/moleculab/chemmirror/internal/transport"
)

// Policy decides what to do with a single download target: skip it,
// refresh it, or fetch it. Exclusive-create collisions reported by the
// transport are the only expected failure and are resolved inline,
// never surfaced to the caller as an error.
type Policy struct {
	verifier checksum.Verifier
}

// New creates a policy using verifier for payload integrity checks.
func New(verifier checksum.Verifier) *Policy {
	return &Policy{verifier: verifier}
}

// Apply fetches remotePath into localDest according to the download
// rules:
//
//   - unrecognized extension: ignored entirely
//   - destination missing: exclusive-create fetch
//   - existing sidecar: deleted and re-fetched, always
//   - existing payload: verified against its sidecar; re-fetched on
//     mismatch, skipped with a notice when valid
func (p *Policy) Apply(ctx context.Context, session transport.Session, remotePath, localDest string) (domain.Outcome, error) {
	class := domain.ClassOf(localDest)
	if class == domain.ClassUnknown {
		return domain.OutcomeIgnored, nil
	}

	err := session.Fetch(ctx, remotePath, localDest)
	if err == nil {
		logger.Get().Info("downloaded", "path", localDest)
		return domain.OutcomeFetched, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return domain.OutcomeFetched, err
	}

	switch class {
	case domain.ClassSidecar:
		return p.refreshSidecar(ctx, session, remotePath, localDest)
	default:
		return p.handlePresentPayload(ctx, session, remotePath, localDest)
	}
}

// refreshSidecar replaces an existing sidecar unconditionally.
// Sidecars are cheap and must always reflect the latest remote state.
func (p *Policy) refreshSidecar(ctx context.Context, session transport.Session, remotePath, localDest string) (domain.Outcome, error) {
	if err := os.Remove(localDest); err != nil {
		return domain.OutcomeRefreshedSidecar, fmt.Errorf("remove sidecar %s: %w", localDest, err)
	}

	if err := session.Fetch(ctx, remotePath, localDest); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// A concurrent process re-created it between our delete
			// and fetch. Its copy wins.
			logger.Get().Warn("sidecar re-created concurrently", "path", localDest)
			return domain.OutcomeFailedAlreadyPresent, nil
		}
		return domain.OutcomeRefreshedSidecar, err
	}

	logger.Get().Info("refreshed sidecar", "path", localDest)
	return domain.OutcomeRefreshedSidecar, nil
}

// handlePresentPayload verifies an existing payload and re-fetches it
// only when verification fails.
func (p *Policy) handlePresentPayload(ctx context.Context, session transport.Session, remotePath, localDest string) (domain.Outcome, error) {
	valid, err := p.verifier.Verify(ctx, localDest)
	if err != nil {
		return domain.OutcomeSkippedAlreadyValid, fmt.Errorf("verify %s: %w", localDest, err)
	}

	if valid {
		logger.Get().Info("file already downloaded", "path", localDest)
		return domain.OutcomeSkippedAlreadyValid, nil
	}

	logger.Get().Warn("checksum mismatch, re-fetching", "path", localDest)
	if err := os.Remove(localDest); err != nil {
		return domain.OutcomeFetched, fmt.Errorf("remove corrupt payload %s: %w", localDest, err)
	}

	if err := session.Fetch(ctx, remotePath, localDest); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			logger.Get().Warn("payload re-created concurrently", "path", localDest)
			return domain.OutcomeFailedAlreadyPresent, nil
		}
		return domain.OutcomeFetched, err
	}

	logger.Get().Info("downloaded", "path", localDest)
	return domain.OutcomeFetched, nil
}
