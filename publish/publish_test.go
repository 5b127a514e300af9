package publish

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martpub/consts"
	"martpub/diff"
	"martpub/model"
	"martpub/staging"
	"martpub/store"
	"martpub/util"
)

func stage(t *testing.T, dir staging.Dir, table string, data []byte) model.Artifact {
	t.Helper()
	require.NoError(t, os.WriteFile(dir.ArtifactPath(table), data, 0o644))
	return model.Artifact{
		Fingerprint: "fp_" + table,
		Size:        int64(len(data)),
		RowCount:    1,
		Key:         util.ArtifactKey(table),
	}
}

func TestRunUploadsAndCommitsManifest(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	dir, err := staging.New(t.TempDir())
	require.NoError(t, err)

	candidate := model.NewManifest()
	candidate.Tables["fct_a"] = stage(t, dir, "fct_a", []byte("aaa"))
	candidate.Tables["dim_b"] = stage(t, dir, "dim_b", []byte("bbb"))

	pub := New(mem, dir)
	previous, err := pub.FetchPrevious(ctx)
	require.NoError(t, err)
	assert.Empty(t, previous.Tables)

	cs := diff.Compute(candidate, previous)
	require.NoError(t, pub.Run(ctx, candidate, cs))

	data, err := mem.Get(ctx, consts.ManifestKey)
	require.NoError(t, err)
	published, err := model.DecodeManifest(data)
	require.NoError(t, err)
	assert.Equal(t, candidate.Tables, published.Tables)

	blob, err := mem.Get(ctx, "fct_a.parquet")
	require.NoError(t, err)
	assert.Equal(t, []byte("aaa"), blob)
}

// A failed upload must leave the previously published manifest untouched:
// readers keep seeing a fully consistent prior state.
func TestRunAbortsManifestOnUploadFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	dir, err := staging.New(t.TempDir())
	require.NoError(t, err)

	previous := model.NewManifest()
	previous.Tables["fct_a"] = model.Artifact{Fingerprint: "old", Key: "fct_a.parquet"}
	prevData, err := previous.Encode()
	require.NoError(t, err)
	require.NoError(t, mem.Put(ctx, consts.ManifestKey, prevData))

	candidate := model.NewManifest()
	candidate.Tables["fct_a"] = stage(t, dir, "fct_a", []byte("new"))
	candidate.Tables["dim_b"] = stage(t, dir, "dim_b", []byte("bbb"))

	mem.FailPut["dim_b.parquet"] = assert.AnError

	cs := diff.Compute(candidate, previous)
	err = New(mem, dir).Run(ctx, candidate, cs)
	require.Error(t, err)

	data, err := mem.Get(ctx, consts.ManifestKey)
	require.NoError(t, err)
	assert.Equal(t, prevData, data, "manifest must be byte-identical after an aborted cycle")
}

// An empty change set performs zero remote writes.
func TestRunNoopPerformsZeroWrites(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	dir, err := staging.New(t.TempDir())
	require.NoError(t, err)

	manifest := model.NewManifest()
	manifest.Tables["fct_a"] = stage(t, dir, "fct_a", []byte("aaa"))

	cs := diff.Compute(manifest, manifest)
	assert.True(t, cs.Empty())

	require.NoError(t, New(mem, dir).Run(ctx, manifest, cs))
	assert.Equal(t, 0, mem.Puts)
	assert.Equal(t, 0, mem.Deletes)
}

func TestRunDeletesRemovedArtifacts(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	dir, err := staging.New(t.TempDir())
	require.NoError(t, err)

	previous := model.NewManifest()
	previous.Tables["legacy"] = model.Artifact{Fingerprint: "fp_x", Key: "legacy.parquet"}
	require.NoError(t, mem.Put(ctx, "legacy.parquet", []byte("old")))

	candidate := model.NewManifest()
	candidate.Tables["fct_a"] = stage(t, dir, "fct_a", []byte("aaa"))

	cs := diff.Compute(candidate, previous)
	require.NoError(t, New(mem, dir).Run(ctx, candidate, cs))

	_, err = mem.Get(ctx, "legacy.parquet")
	assert.ErrorIs(t, err, store.ErrNotFound)

	data, err := mem.Get(ctx, consts.ManifestKey)
	require.NoError(t, err)
	published, err := model.DecodeManifest(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"fct_a"}, published.TableNames())
}
