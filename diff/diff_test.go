package diff

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martpub/model"
)

func manifestOf(entries map[string]string) *model.Manifest {
	m := model.NewManifest()
	for name, fp := range entries {
		m.Tables[name] = model.Artifact{Fingerprint: fp, Key: name + ".parquet"}
	}
	return m
}

func TestComputeAddedAndModified(t *testing.T) {
	previous := manifestOf(map[string]string{"countries": "fp_A"})
	candidate := manifestOf(map[string]string{"countries": "fp_B", "indicators": "fp_C"})

	cs := Compute(candidate, previous)
	assert.Equal(t, []string{"indicators"}, cs.Added)
	assert.Equal(t, []string{"countries"}, cs.Modified)
	assert.Empty(t, cs.Removed)
	assert.Empty(t, cs.Unchanged)
}

func TestComputeRemovedAndUnchanged(t *testing.T) {
	previous := manifestOf(map[string]string{"countries": "fp_A", "legacy": "fp_X"})
	candidate := manifestOf(map[string]string{"countries": "fp_A"})

	cs := Compute(candidate, previous)
	assert.Empty(t, cs.Added)
	assert.Empty(t, cs.Modified)
	assert.Equal(t, []string{"legacy"}, cs.Removed)
	assert.Equal(t, []string{"countries"}, cs.Unchanged)
}

func TestComputeFirstRun(t *testing.T) {
	candidate := manifestOf(map[string]string{"fct_a": "1", "dim_b": "2"})
	cs := Compute(candidate, nil)
	assert.Equal(t, []string{"dim_b", "fct_a"}, cs.Added)
	assert.True(t, len(cs.Modified)+len(cs.Removed)+len(cs.Unchanged) == 0)
}

func TestComputeCaseSensitiveNames(t *testing.T) {
	previous := manifestOf(map[string]string{"Countries": "fp_A"})
	candidate := manifestOf(map[string]string{"countries": "fp_A"})

	cs := Compute(candidate, previous)
	assert.Equal(t, []string{"countries"}, cs.Added)
	assert.Equal(t, []string{"Countries"}, cs.Removed)
}

// Identical fingerprints with differing metadata must warn, not fail, and
// the table still counts as unchanged.
func TestComputeMetadataAnomaly(t *testing.T) {
	previous := model.NewManifest()
	previous.Tables["fct_a"] = model.Artifact{Fingerprint: "same", Size: 10, RowCount: 2}
	candidate := model.NewManifest()
	candidate.Tables["fct_a"] = model.Artifact{Fingerprint: "same", Size: 11, RowCount: 3}

	cs := Compute(candidate, previous)
	assert.Equal(t, []string{"fct_a"}, cs.Unchanged)
}

func TestComputePartitionsUnion(t *testing.T) {
	previous := manifestOf(map[string]string{
		"a": "1", "b": "2", "c": "3", "d": "4",
	})
	candidate := manifestOf(map[string]string{
		"b": "2", "c": "30", "d": "4", "e": "5",
	})

	cs := Compute(candidate, previous)

	union := map[string]int{}
	for _, part := range [][]string{cs.Added, cs.Modified, cs.Removed, cs.Unchanged} {
		for _, name := range part {
			union[name]++
		}
	}
	var names []string
	for name, n := range union {
		require.Equal(t, 1, n, "table %s appears in more than one partition", name)
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names)

	assert.Equal(t, []string{"e"}, cs.Added)
	assert.Equal(t, []string{"c"}, cs.Modified)
	assert.Equal(t, []string{"a"}, cs.Removed)
	assert.Equal(t, []string{"b", "d"}, cs.Unchanged)
}
