package ctl

import (
	"github.com/spf13/cobra"

	"martpub/export"
	"martpub/source"
)

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "serialize mart tables to staged artifacts and write the candidate manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openStaging()
			if err != nil {
				return err
			}
			src, err := source.OpenDuckDB(cfg.Source.Path, cfg.Source.Prefixes)
			if err != nil {
				return err
			}
			defer src.Close()

			_, err = export.New(src, dir).Run(cmd.Context())
			return err
		},
	}
}
