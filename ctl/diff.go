package ctl

import (
	"os"

	"github.com/spf13/cobra"

	"martpub/diff"
	"martpub/log"
	"martpub/model"
	"martpub/publish"
)

func newDiffCommand() *cobra.Command {
	var against string
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "compare the candidate manifest against the published one",
		Long: "Compare the candidate manifest against the published one and print the\n" +
			"change set. The staged changeset.json is informational output; publish\n" +
			"recomputes the change set against the live manifest at commit time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openStaging()
			if err != nil {
				return err
			}
			candidate, err := dir.LoadManifest()
			if err != nil {
				return err
			}

			var previous *model.Manifest
			if against != "" {
				data, err := os.ReadFile(against)
				if err != nil {
					return err
				}
				previous, err = model.DecodeManifest(data)
				if err != nil {
					return err
				}
			} else {
				st, err := openStore()
				if err != nil {
					return err
				}
				previous, err = publish.New(st, dir).FetchPrevious(cmd.Context())
				if err != nil {
					return err
				}
			}

			cs := diff.Compute(candidate, previous)
			log.Infof("change set: %d added, %d modified, %d removed, %d unchanged",
				len(cs.Added), len(cs.Modified), len(cs.Removed), len(cs.Unchanged))
			for _, t := range cs.Added {
				log.Infof("  added:    %s", t)
			}
			for _, t := range cs.Modified {
				log.Infof("  modified: %s", t)
			}
			for _, t := range cs.Removed {
				log.Infof("  removed:  %s", t)
			}
			return dir.WriteChangeSet(cs)
		},
	}
	cmd.Flags().StringVar(&against, "against", "", "diff against a local manifest file instead of the published one")
	return cmd
}
