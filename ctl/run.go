package ctl

import (
	"github.com/spf13/cobra"

	"martpub/diff"
	"martpub/export"
	"martpub/ledger"
	"martpub/log"
	"martpub/mirror"
	"martpub/publish"
	"martpub/source"
)

// run executes the full cycle in order. Each stage only starts after the
// previous one succeeded; a failure anywhere leaves remote state either
// untouched (before the manifest replace) or fully consistent (after it).
func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "execute a full publication cycle: export, diff, publish, mirror-update",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir, err := openStaging()
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}

			src, err := source.OpenDuckDB(cfg.Source.Path, cfg.Source.Prefixes)
			if err != nil {
				return err
			}
			candidate, err := export.New(src, dir).Run(ctx)
			src.Close()
			if err != nil {
				return err
			}

			pub := publish.New(st, dir)
			previous, err := pub.FetchPrevious(ctx)
			if err != nil {
				return err
			}
			cs := diff.Compute(candidate, previous)
			log.Infof("change set: %d added, %d modified, %d removed, %d unchanged",
				len(cs.Added), len(cs.Modified), len(cs.Removed), len(cs.Unchanged))
			if err := dir.WriteChangeSet(cs); err != nil {
				return err
			}
			if err := pub.Run(ctx, candidate, cs); err != nil {
				return err
			}

			manifest, err := pub.FetchPrevious(ctx)
			if err != nil {
				return err
			}
			led, err := ledger.Load(dir.LedgerPath())
			if err != nil {
				return err
			}
			db, err := mirror.Open(cfg.Mirror.Driver, cfg.Mirror.DSN)
			if err != nil {
				return err
			}
			defer db.Close()
			_, err = mirror.NewUpdater(db, dir, st, led).Run(ctx, manifest)
			return err
		},
	}
}
