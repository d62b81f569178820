package snapshot

import (
	"strings"
	"time"
)

// Snapshot represents a single zfs snapshot.
// Identity is the full snapshot name (dataset@suffix); Created is the
// zfs creation time and is stable for the lifetime of the snapshot.
type Snapshot struct {
	Name    string
	Created time.Time
}

// Dataset returns the dataset part of the snapshot name.
func (s Snapshot) Dataset() string {
	if i := strings.IndexByte(s.Name, '@'); i >= 0 {
		return s.Name[:i]
	}
	return s.Name
}

// Suffix returns the part of the name after the '@' separator.
func (s Snapshot) Suffix() string {
	if i := strings.IndexByte(s.Name, '@'); i >= 0 {
		return s.Name[i+1:]
	}
	return ""
}
