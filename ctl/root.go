// Package ctl wires the pipeline stages into discrete, idempotent
// commands: export, diff, publish, mirror-update, and run for a full
// cycle. Every command reports success solely through its exit status.
package ctl

import (
	"github.com/spf13/cobra"

	"martpub/config"
	"martpub/log"
	"martpub/pprof"
	"martpub/staging"
	"martpub/store"
)

var cfg config.Config

// NewRootCommand builds the martpub command tree.
func NewRootCommand() *cobra.Command {
	var (
		cfgPath    string
		stagingDir string
		sourcePath string
		bucket     string
		region     string
		endpoint   string
		mirrorDrv  string
		mirrorDSN  string
	)
	root := &cobra.Command{
		Use:           "martpub",
		Short:         "incrementally publish mart tables to an object store and a relational mirror",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("staging-dir") {
				c.StagingDir = stagingDir
			}
			if flags.Changed("source") {
				c.Source.Path = sourcePath
			}
			if flags.Changed("bucket") {
				c.Store.Bucket = bucket
			}
			if flags.Changed("region") {
				c.Store.Region = region
			}
			if flags.Changed("endpoint") {
				c.Store.Endpoint = endpoint
			}
			if flags.Changed("mirror-driver") {
				c.Mirror.Driver = mirrorDrv
			}
			if flags.Changed("mirror-dsn") {
				c.Mirror.DSN = mirrorDSN
			}
			cfg = c
			if cfg.PprofAddr != "" {
				go func() {
					if err := pprof.Listen(cfg.PprofAddr); err != nil {
						log.Warnf("pprof listener: %v", err)
					}
				}()
			}
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&cfgPath, "config", "c", "", "path of TOML config file")
	pf.StringVar(&stagingDir, "staging-dir", "staging", "local staging directory")
	pf.StringVar(&sourcePath, "source", "marts.duckdb", "path of the upstream analytical database")
	pf.StringVar(&bucket, "bucket", "", "object store bucket")
	pf.StringVar(&region, "region", "auto", "object store region")
	pf.StringVar(&endpoint, "endpoint", "", "object store endpoint (for R2/MinIO)")
	pf.StringVar(&mirrorDrv, "mirror-driver", "sqlite", "mirror store driver (sqlite or mysql)")
	pf.StringVar(&mirrorDSN, "mirror-dsn", "mirror.sqlite3", "mirror store DSN")

	root.AddCommand(
		newExportCommand(),
		newDiffCommand(),
		newPublishCommand(),
		newMirrorCommand(),
		newRunCommand(),
	)
	return root
}

func openStaging() (staging.Dir, error) {
	return staging.New(cfg.StagingDir)
}

func openStore() (store.Store, error) {
	return store.NewS3(store.S3Config{
		Bucket:         cfg.Store.Bucket,
		Region:         cfg.Store.Region,
		Endpoint:       cfg.Store.Endpoint,
		ForcePathStyle: cfg.Store.ForcePathStyle,
	})
}
