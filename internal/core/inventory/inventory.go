package inventory

import (
	"fmt"
	"os"
	"path"

	"github.com/moleculab/chemmirror/internal/domain"
)

// Set is a set of file base names restricted to one extension class.
// Comparison is by final path component only, so remote prefixes and
// local directories never influence the diff.
type Set map[string]struct{}

// Contains reports whether name is in the set.
func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Remote builds the inventory of a remote listing for one class.
// Entries of other classes are dropped.
func Remote(listing []string, class domain.Class) Set {
	set := make(Set)
	for _, entry := range listing {
		if domain.ClassOf(entry) != class {
			continue
		}
		set[path.Base(entry)] = struct{}{}
	}
	return set
}

// Local builds the inventory of the local mirror directory for one
// class. The scan is flat: the remote layout is a flat file list, so
// the mirrored directory is too. A missing directory yields an empty
// inventory, not an error; the first pass creates it.
func Local(dir string, class domain.Class) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return make(Set), nil
		}
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	set := make(Set)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if domain.ClassOf(entry.Name()) != class {
			continue
		}
		set[entry.Name()] = struct{}{}
	}
	return set, nil
}

// Missing returns the base names present in remote but not in local.
// Iteration order is unspecified; callers must rely on completeness
// only, never on ordering.
func Missing(remote, local Set) []string {
	var missing []string
	for name := range remote {
		if !local.Contains(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
