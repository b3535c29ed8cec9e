package domain

import (
	"path"
	"strings"
)

// Dataset is a named category of remote content mapped to a fixed
// remote subtree name (e.g. "compounds" -> "Compound").
type Dataset string

const (
	DatasetCompounds Dataset = "compounds"
)

// defaultSubtrees maps dataset names to their remote subtree names.
// Additional mappings can be supplied through configuration.
var defaultSubtrees = map[Dataset]string{
	DatasetCompounds: "Compound",
}

// Subtree returns the remote subtree name for the dataset,
// or ErrUnknownDataset if no mapping exists.
func (d Dataset) Subtree() (string, error) {
	sub, ok := defaultSubtrees[d]
	if !ok {
		return "", ErrUnknownDataset
	}
	return sub, nil
}

// Class identifies the role of a file by its extension.
type Class int

const (
	// ClassUnknown marks files outside the recognized extension classes.
	// Such entries are ignored entirely: no download, no error.
	ClassUnknown Class = iota
	// ClassSidecar marks checksum sidecar files (.md5).
	// Sidecars are always refreshed on sync.
	ClassSidecar
	// ClassPayload marks compressed data payload files (.gz).
	ClassPayload
)

const (
	// SidecarExt is the extension of checksum sidecar files.
	SidecarExt = ".md5"
	// PayloadExt is the extension of compressed payload files.
	PayloadExt = ".gz"
)

// ClassOrder lists the recognized classes in sync priority order.
// Sidecars must be refreshed before their payload is trusted.
var ClassOrder = []Class{ClassSidecar, ClassPayload}

// Ext returns the file extension associated with the class.
func (c Class) Ext() string {
	switch c {
	case ClassSidecar:
		return SidecarExt
	case ClassPayload:
		return PayloadExt
	default:
		return ""
	}
}

// String returns a human-readable class name for logging.
func (c Class) String() string {
	switch c {
	case ClassSidecar:
		return "sidecar"
	case ClassPayload:
		return "payload"
	default:
		return "unknown"
	}
}

// ClassOf classifies a path by its final extension.
// Classification looks at the base name only, so remote prefixes
// and local directories do not matter.
func ClassOf(p string) Class {
	switch path.Ext(path.Base(strings.ReplaceAll(p, "\\", "/"))) {
	case SidecarExt:
		return ClassSidecar
	case PayloadExt:
		return ClassPayload
	default:
		return ClassUnknown
	}
}
