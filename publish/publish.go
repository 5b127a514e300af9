// Package publish uploads changed artifacts to the object store and
// commits the new manifest. The manifest write is the cycle's single
// commit point: readers see the previous state or the new state in full,
// never a mix.
package publish

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"martpub/consts"
	"martpub/log"
	"martpub/model"
	"martpub/staging"
	"martpub/store"
	"martpub/util"
)

type Publisher struct {
	store store.Store
	dir   staging.Dir
}

func New(st store.Store, dir staging.Dir) *Publisher {
	return &Publisher{store: st, dir: dir}
}

// FetchPrevious reads the authoritative manifest from the fixed remote
// key. An absent manifest (first run) is an empty one.
func (p *Publisher) FetchPrevious(ctx context.Context) (*model.Manifest, error) {
	data, err := p.store.Get(ctx, consts.ManifestKey)
	if errors.Is(err, store.ErrNotFound) {
		log.Infof("no previous manifest, treating remote state as empty")
		return model.NewManifest(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetching previous manifest")
	}
	return model.DecodeManifest(data)
}

// Run applies the change set to the object store. Artifact uploads and
// deletions run on a bounded pool in any order; the manifest is replaced
// only after every one of them succeeded. On any failure the previous
// manifest stays authoritative and artifacts already uploaded this cycle
// are orphaned but harmless.
func (p *Publisher) Run(ctx context.Context, candidate *model.Manifest, cs *model.ChangeSet) error {
	if cs.Empty() {
		log.Infof("change set empty, nothing to publish")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(consts.UploadLimit)
	for _, table := range cs.Changed() {
		table := table
		g.Go(func() error {
			return p.upload(gctx, table, candidate.Tables[table])
		})
	}
	for _, table := range cs.Removed {
		table := table
		g.Go(func() error {
			if err := p.store.Delete(gctx, util.ArtifactKey(table)); err != nil {
				return errors.Wrapf(err, "deleting artifact of removed table %v", table)
			}
			log.Infof("deleted artifact for removed table %s", table)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "cycle aborted before manifest replace")
	}

	data, err := candidate.Encode()
	if err != nil {
		return err
	}
	if err := p.store.Put(ctx, consts.ManifestKey, data); err != nil {
		return errors.Wrap(err, "replacing manifest")
	}
	log.Infof("manifest replaced: %d tables current, %d uploaded, %d removed",
		len(candidate.Tables), len(cs.Changed()), len(cs.Removed))
	return nil
}

func (p *Publisher) upload(ctx context.Context, table string, entry model.Artifact) error {
	data, err := os.ReadFile(p.dir.ArtifactPath(table))
	if err != nil {
		return errors.Wrapf(err, "reading staged artifact for %v", table)
	}
	if err := p.store.Put(ctx, entry.Key, data); err != nil {
		return errors.Wrapf(err, "uploading artifact for %v", table)
	}
	log.Infof("uploaded %s (%d bytes)", entry.Key, len(data))
	return nil
}
