package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/contriboss/pyext-go"
	"github.com/spf13/cobra"
)

func newPlanCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [inplace|sdist|bdist-wheel]",
		Short: "Show what a packaging run would do without touching the package tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := pyext.BinaryDistribution
			if len(args) == 1 {
				c, ok := pyext.ParseCommand(args[0])
				if !ok {
					return &ExitError{Code: exitUsage, Err: fmt.Errorf("unknown command %q", args[0])}
				}
				command = c
			}

			cfg, err := a.loadConfig(command)
			if err != nil {
				return err
			}

			plan, err := a.packager(cfg).Plan(cmd.Context())
			if err != nil {
				return classify(err)
			}
			printPlan(cmd.OutOrStdout(), cfg, plan)
			return nil
		},
	}
}

func printPlan(w io.Writer, cfg *pyext.Config, plan *pyext.Plan) {
	fmt.Fprintf(w, "package:    %s %s\n", cfg.Project.Name, plan.Metadata.Version)
	fmt.Fprintf(w, "command:    %s\n", cfg.Command)
	fmt.Fprintf(w, "mode:       %s\n", plan.Mode)
	fmt.Fprintf(w, "library:    %s\n", plan.Libraries.Primary.Path)
	for _, c := range plan.Libraries.Candidates[1:] {
		fmt.Fprintf(w, "            (also found %s)\n", c.Path)
	}
	fmt.Fprintf(w, "toolchain:  %s (os=%s)\n", plan.Toolchain.Classification, plan.Toolchain.OS)
	fmt.Fprintf(w, "extensions: %d\n", len(plan.Extensions))
	for _, ext := range plan.Extensions {
		fmt.Fprintf(w, "  %s <- %s\n", ext.Name, strings.Join(ext.Sources, ", "))
	}
}
