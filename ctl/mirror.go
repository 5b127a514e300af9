package ctl

import (
	"github.com/spf13/cobra"

	"martpub/ledger"
	"martpub/mirror"
	"martpub/publish"
)

func newMirrorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mirror-update",
		Short: "reconcile the relational mirror with the published manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openStaging()
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			// The mirror only ever follows durable state: the manifest is
			// fetched from the object store, never taken from in-flight
			// local results.
			manifest, err := publish.New(st, dir).FetchPrevious(cmd.Context())
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

			_, err = mirror.NewUpdater(db, dir, st, led).Run(cmd.Context(), manifest)
			return err
		},
	}
}
