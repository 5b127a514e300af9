package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.StagingDir)
	assert.Equal(t, []string{"fct_", "dim_", "agg_"}, cfg.Source.Prefixes)
	assert.Equal(t, "sqlite", cfg.Mirror.Driver)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "martpub.toml")
	content := `
staging_dir = "/var/lib/martpub"

[source]
path = "analytics.duckdb"

[store]
bucket = "wdi-artifacts"
endpoint = "https://example.r2.cloudflarestorage.com"
force_path_style = true

[mirror]
driver = "mysql"
dsn = "user:pass@tcp(localhost:3306)/mirror"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/martpub", cfg.StagingDir)
	assert.Equal(t, "analytics.duckdb", cfg.Source.Path)
	assert.Equal(t, "wdi-artifacts", cfg.Store.Bucket)
	assert.True(t, cfg.Store.ForcePathStyle)
	assert.Equal(t, "mysql", cfg.Mirror.Driver)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, []string{"fct_", "dim_", "agg_"}, cfg.Source.Prefixes)
	assert.Equal(t, "auto", cfg.Store.Region)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
