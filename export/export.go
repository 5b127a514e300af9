// Package export implements the snapshot exporter stage: every mart table
// is serialized to a staged parquet artifact and fingerprinted, producing
// the cycle's candidate manifest. The stage performs no remote writes, so
// a failure here is always safe to retry.
package export

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"martpub/artifact"
	"martpub/log"
	"martpub/model"
	"martpub/source"
	"martpub/staging"
	"martpub/util"
)

type Exporter struct {
	src source.Source
	dir staging.Dir
}

func New(src source.Source, dir staging.Dir) *Exporter {
	return &Exporter{src: src, dir: dir}
}

// Run exports every upstream mart table and writes the candidate manifest
// into the staging directory. Tables are processed sequentially; the work
// is local serialization and hashing, not network-bound.
func (e *Exporter) Run(ctx context.Context) (*model.Manifest, error) {
	tables, err := e.src.Tables(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing mart tables")
	}
	manifest := model.NewManifest()
	for _, table := range tables {
		entry, err := e.exportTable(ctx, table)
		if err != nil {
			return nil, errors.Wrapf(err, "exporting table %v", table)
		}
		manifest.Tables[table] = entry
		log.Infof("exported %s: %d rows, %d bytes, %s", table, entry.RowCount, entry.Size, util.ShortFP(entry.Fingerprint))
	}
	if err := e.dir.WriteManifest(manifest); err != nil {
		return nil, err
	}
	log.Infof("candidate manifest holds %d tables", len(manifest.Tables))
	return manifest, nil
}

func (e *Exporter) exportTable(ctx context.Context, table string) (model.Artifact, error) {
	schema, err := e.src.Schema(ctx, table)
	if err != nil {
		return model.Artifact{}, err
	}
	w := artifact.NewWriter(schema)
	if err := e.src.Rows(ctx, schema, w.Append); err != nil {
		return model.Artifact{}, err
	}

	path := e.dir.ArtifactPath(table)
	f, err := os.Create(path)
	if err != nil {
		return model.Artifact{}, errors.Wrapf(err, "creating %v", path)
	}
	if err := w.Flush(f); err != nil {
		f.Close()
		return model.Artifact{}, err
	}
	if err := f.Close(); err != nil {
		return model.Artifact{}, err
	}

	fp, size, err := artifact.Fingerprint(path)
	if err != nil {
		return model.Artifact{}, err
	}
	return model.Artifact{
		Fingerprint: fp,
		Size:        size,
		RowCount:    w.RowCount(),
		Key:         util.ArtifactKey(table),
	}, nil
}
