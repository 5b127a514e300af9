// Package config loads pipeline settings from an optional TOML file.
// Command-line flags override file values.
package config

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"martpub/consts"
)

type Source struct {
	// Path of the upstream DuckDB database file.
	Path string `toml:"path"`
	// Prefixes selecting which tables count as marts.
	Prefixes []string `toml:"prefixes"`
}

type ObjectStore struct {
	Bucket         string `toml:"bucket"`
	Region         string `toml:"region"`
	Endpoint       string `toml:"endpoint"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

type Mirror struct {
	// Driver is "sqlite" or "mysql".
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type Config struct {
	StagingDir string      `toml:"staging_dir"`
	PprofAddr  string      `toml:"pprof_addr"`
	Source     Source      `toml:"source"`
	Store      ObjectStore `toml:"store"`
	Mirror     Mirror      `toml:"mirror"`
}

func Default() Config {
	return Config{
		StagingDir: "staging",
		Source: Source{
			Path:     "marts.duckdb",
			Prefixes: consts.MartPrefixes,
		},
		Store: ObjectStore{
			Region: "auto",
		},
		Mirror: Mirror{
			Driver: "sqlite",
			DSN:    "mirror.sqlite3",
		},
	}
}

// Load reads a TOML config file over the defaults. An empty path returns
// the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %v", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %v", path)
	}
	return cfg, nil
}
