package main

import (
	"fmt"
	"path/filepath"

	"github.com/contriboss/pyext-go"
	"github.com/spf13/cobra"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the package version from the metadata unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(pyext.SourceDistribution)
			if err != nil {
				return err
			}
			meta, err := pyext.LoadMetadata(filepath.Join(cfg.ProjectRoot, filepath.FromSlash(cfg.MetadataPath)))
			if err != nil {
				return classify(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), meta.Version)
			return nil
		},
	}
}
