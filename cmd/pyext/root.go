package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/contriboss/pyext-go"
	"github.com/spf13/cobra"
)

// app holds the flags shared by every subcommand.
type app struct {
	projectRoot string
	configFile  string
	python      string
	verbose     bool
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "pyext",
		Short: "Package a native library with its Python binding",
		Long: `pyext packages a prebuilt native library together with its Python binding.

It reads the package version and library search rules from the isolated
metadata unit, compiles the Cython bridging extensions when the host
supports it, and drives setuptools.

Examples:
  pyext build --inplace     Build extensions next to their sources
  pyext sdist               Build a source distribution
  pyext bdist-wheel         Build a wheel bundling the native library
  pyext plan bdist-wheel    Show what a wheel build would do
  pyext version             Print the package version

Environment:
  CONDA_BUILD   Build a portable package whatever the command. Any value
                counts except an explicit false (0, false).
  CFLAGS        Compiler flags; checked for mixed i386/x86_64 targets.
  PYEXT_*       Override any pyext.toml key (PYEXT_PYTHON, PYEXT_OS, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.projectRoot, "project", "C", "", "project root containing the package (default is the working directory)")
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "project file (default is <project>/"+pyext.ConfigFileName+")")
	rootCmd.PersistentFlags().StringVar(&a.python, "python", "", "python interpreter used for probing and setuptools")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newBuildCommand(a))
	rootCmd.AddCommand(newDistCommand(a, "sdist", "Build a source distribution", pyext.SourceDistribution))
	rootCmd.AddCommand(newDistCommand(a, "bdist-wheel", "Build a wheel bundling the native library", pyext.BinaryDistribution))
	rootCmd.AddCommand(newPlanCommand(a))
	rootCmd.AddCommand(newVersionCommand(a))

	return rootCmd
}

// loadConfig resolves the configuration for a command.
func (a *app) loadConfig(command pyext.Command) (*pyext.Config, error) {
	cfg, err := pyext.LoadConfig(pyext.LoadOptions{
		ProjectRoot: a.projectRoot,
		ConfigFile:  a.configFile,
		Command:     command,
	})
	if err != nil {
		return nil, &ExitError{Code: exitUsage, Err: err}
	}
	if a.python != "" {
		cfg.Python = a.python
	}
	return cfg, nil
}

func (a *app) logger() *log.Logger {
	return pyext.NewLogger(os.Stderr, a.verbose)
}

func (a *app) packager(cfg *pyext.Config) *pyext.Packager {
	distributor := pyext.NewSetuptoolsDistributor(cfg.Python)
	distributor.Verbose = a.verbose
	distributor.Env = cfg.DistributionEnv()
	return pyext.NewPackager(cfg, distributor, a.logger())
}
