//go:build mage

// Build targets for the Python binding. Run from the binding directory, or
// set PYEXT_ROOT to point at it.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/contriboss/pyext-go"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target when mage is run without arguments.
var Default = Wheel

// Wheel builds a wheel with the native library bundled in the package.
func Wheel(ctx context.Context) error {
	return run(ctx, pyext.BinaryDistribution)
}

// Sdist builds a source distribution.
func Sdist(ctx context.Context) error {
	return run(ctx, pyext.SourceDistribution)
}

// Inplace builds the bridging extensions next to their sources.
func Inplace(ctx context.Context) error {
	return run(ctx, pyext.InplaceBuild)
}

// Release builds the sdist and then the wheel.
func Release(ctx context.Context) {
	mg.SerialCtxDeps(ctx, Sdist, Wheel)
}

// Plan prints the wheel plan without touching the package tree.
func Plan(ctx context.Context) error {
	cfg, err := loadConfig(pyext.BinaryDistribution)
	if err != nil {
		return err
	}
	plan, err := pyext.NewPackager(cfg, nil, logger()).Plan(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s (%s)\n", cfg.Project.Name, plan.Metadata.Version, plan.Mode)
	fmt.Printf("library: %s\n", plan.Libraries.Primary.Path)
	fmt.Printf("toolchain: %s\n", plan.Toolchain.Classification)
	for _, ext := range plan.Extensions {
		fmt.Printf("  %s\n", ext.Name)
	}
	return nil
}

// Test runs the Go tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Clean removes build outputs of the binding.
func Clean() error {
	cfg, err := loadConfig(pyext.SourceDistribution)
	if err != nil {
		return err
	}
	for _, dir := range []string{"build", "dist", cfg.PackageName + ".egg-info"} {
		if err := sh.Rm(filepath.Join(cfg.ProjectRoot, dir)); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, command pyext.Command) error {
	cfg, err := loadConfig(command)
	if err != nil {
		return err
	}
	distributor := pyext.NewSetuptoolsDistributor(cfg.Python)
	distributor.Verbose = mg.Verbose()
	distributor.Env = cfg.DistributionEnv()

	result, err := pyext.NewPackager(cfg, distributor, logger()).Run(ctx)
	if err != nil {
		return mg.Fatal(1, err)
	}
	if result.Distribution != nil {
		for _, artifact := range result.Distribution.Artifacts {
			fmt.Println(artifact)
		}
	}
	return nil
}

func loadConfig(command pyext.Command) (*pyext.Config, error) {
	return pyext.LoadConfig(pyext.LoadOptions{
		ProjectRoot: os.Getenv("PYEXT_ROOT"),
		Command:     command,
	})
}

func logger() *log.Logger {
	return pyext.NewLogger(os.Stderr, mg.Verbose())
}
