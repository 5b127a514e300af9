// Package staging is the local scratch area shared by the pipeline stages:
// exported artifacts, the candidate manifest, the change set and the mirror
// ledger all live under one directory.
package staging

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"martpub/consts"
	"martpub/model"
	"martpub/util"
)

type Dir string

func New(path string) (Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating staging dir %v", path)
	}
	return Dir(path), nil
}

func (d Dir) ArtifactPath(table string) string {
	return filepath.Join(string(d), util.ArtifactKey(table))
}

func (d Dir) manifestPath() string {
	return filepath.Join(string(d), consts.CandidateManifestName)
}

func (d Dir) changeSetPath() string {
	return filepath.Join(string(d), consts.ChangeSetName)
}

func (d Dir) LedgerPath() string {
	return filepath.Join(string(d), consts.LedgerName)
}

func (d Dir) WriteManifest(m *model.Manifest) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(d.manifestPath(), data, 0o644), "writing candidate manifest")
}

func (d Dir) LoadManifest() (*model.Manifest, error) {
	data, err := os.ReadFile(d.manifestPath())
	if err != nil {
		return nil, errors.Wrap(err, "reading candidate manifest (run export first)")
	}
	return model.DecodeManifest(data)
}

// WriteChangeSet records the cycle's change set for inspection. The file
// is informational output only: publish re-diffs against the live manifest
// at commit time and mirror-update works from manifest and ledger.
func (d Dir) WriteChangeSet(cs *model.ChangeSet) error {
	data, err := cs.Encode()
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(d.changeSetPath(), data, 0o644), "writing change set")
}
