package backends

import (
	"fmt"
	"path/filepath"

	"github.com/moleculab/chemmirror/internal/domain"
	"github.com/moleculab/chemmirror/internal/ingest"
	"github.com/moleculab/chemmirror/internal/ingest/molstore"
	"github.com/moleculab/chemmirror/internal/ingest/noop"
	"github.com/moleculab/chemmirror/internal/ingest/searchidx"
)

// Backend names selectable through configuration.
const (
	Molstore  = "molstore"
	SearchIdx = "searchidx"
	Noop      = "noop"
)

// Names lists the registered backend names.
func Names() []string {
	return []string{Molstore, SearchIdx, Noop}
}

// Open creates the named backend. storePath locates the backing
// store; when empty, a default under mirrorDir is used. The store is
// opened if it exists and created otherwise.
func Open(name, storePath, mirrorDir string) (ingest.Backend, error) {
	switch name {
	case Molstore:
		if storePath == "" {
			storePath = filepath.Join(mirrorDir, "molstore.db")
		}
		return molstore.Open(storePath)
	case SearchIdx:
		if storePath == "" {
			storePath = filepath.Join(mirrorDir, "searchidx.db")
		}
		return searchidx.Open(storePath)
	case Noop:
		return noop.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBackend, name)
	}
}
