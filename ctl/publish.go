package ctl

import (
	"github.com/spf13/cobra"

	"martpub/diff"
	"martpub/publish"
)

func newPublishCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "upload changed artifacts and atomically replace the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openStaging()
			if err != nil {
				return err
			}
			candidate, err := dir.LoadManifest()
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}

			// Re-diff against the live manifest rather than trusting a
			// possibly stale staged change set: the remote manifest is the
			// single source of truth at commit time.
			pub := publish.New(st, dir)
			previous, err := pub.FetchPrevious(cmd.Context())
			if err != nil {
				return err
			}
			cs := diff.Compute(candidate, previous)
			if err := dir.WriteChangeSet(cs); err != nil {
				return err
			}
			return pub.Run(cmd.Context(), candidate, cs)
		},
	}
}
