package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/contriboss/pyext-go"
	"github.com/spf13/cobra"
)

func newBuildCommand(a *app) *cobra.Command {
	var inplace bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the bridging extensions for development",
		Long: `Build the bridging extensions for development.

With --inplace the compiled modules are placed next to their sources and the
native library is registered from its build directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !inplace {
				return &ExitError{Code: exitUsage, Err: errors.New("only in-place builds are supported, pass --inplace")}
			}
			return a.run(cmd, pyext.InplaceBuild)
		},
	}
	cmd.Flags().BoolVar(&inplace, "inplace", false, "place compiled extensions next to their sources")

	return cmd
}

func newDistCommand(a *app, use, short string, command pyext.Command) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, command)
		},
	}
}

func (a *app) run(cmd *cobra.Command, command pyext.Command) error {
	cfg, err := a.loadConfig(command)
	if err != nil {
		return err
	}

	result, err := a.packager(cfg).Run(cmd.Context())
	if err != nil {
		if result != nil && result.Distribution != nil && a.verbose {
			fmt.Fprintln(cmd.ErrOrStderr(), strings.Join(result.Distribution.Output, "\n"))
		}
		return classify(err)
	}

	if result.Distribution == nil {
		return nil
	}
	if a.verbose {
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(result.Distribution.Output, "\n"))
	}
	for _, artifact := range result.Distribution.Artifacts {
		fmt.Fprintln(cmd.OutOrStdout(), artifact)
	}
	return nil
}
