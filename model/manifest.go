package model

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// Artifact describes one staged snapshot of a mart table.
type Artifact struct {
	Fingerprint string `json:"fingerprint"`
	Size        int64  `json:"size"`
	RowCount    int64  `json:"row_count"`
	Key         string `json:"key"`
}

// Manifest maps table names to their current artifacts. The copy at the
// object store's fixed key is the authoritative definition of "current";
// artifact presence alone means nothing.
type Manifest struct {
	Version int                 `json:"version"`
	Tables  map[string]Artifact `json:"tables"`
}

const ManifestVersion = 1

func NewManifest() *Manifest {
	return &Manifest{Version: ManifestVersion, Tables: map[string]Artifact{}}
}

// Encode renders the manifest as JSON. encoding/json sorts map keys, so
// equal manifests encode to equal bytes.
func (m *Manifest) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func DecodeManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	if m.Version != ManifestVersion {
		return nil, errors.Errorf("unsupported manifest version %d", m.Version)
	}
	if m.Tables == nil {
		m.Tables = map[string]Artifact{}
	}
	return m, nil
}

// TableNames returns the manifest's table names sorted.
func (m *Manifest) TableNames() []string {
	names := make([]string, 0, len(m.Tables))
	for name := range m.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ChangeSet is the four-way partition between a candidate and a previous
// manifest. The slices are sorted and pairwise disjoint; their union is
// exactly the union of both manifests' table names.
type ChangeSet struct {
	Added     []string `json:"added"`
	Modified  []string `json:"modified"`
	Removed   []string `json:"removed"`
	Unchanged []string `json:"unchanged"`
}

// Changed returns added followed by modified: the tables whose artifacts
// must be uploaded and mirrored this cycle.
func (cs *ChangeSet) Changed() []string {
	out := make([]string, 0, len(cs.Added)+len(cs.Modified))
	out = append(out, cs.Added...)
	out = append(out, cs.Modified...)
	sort.Strings(out)
	return out
}

// Empty reports whether the cycle has nothing to publish.
func (cs *ChangeSet) Empty() bool {
	return len(cs.Added) == 0 && len(cs.Modified) == 0 && len(cs.Removed) == 0
}

func (cs *ChangeSet) Encode() ([]byte, error) {
	return json.MarshalIndent(cs, "", "  ")
}
