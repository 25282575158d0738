package pyext

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

//go:embed setup_shim.py
var setupShim string

// SetuptoolsDistributor performs the distribution call with setuptools.
//
// The request is serialized to a temporary JSON file outside the project and
// handed to an embedded setup shim run by the configured interpreter in the
// project root. New files under dist/ are reported as artifacts.
type SetuptoolsDistributor struct {
	Python  string            // Interpreter (python3 by default)
	Env     map[string]string // Extra environment for the packaging tool
	Verbose bool              // Record the command line in the output

	requestPath string
	distBefore  map[string]time.Time
}

// NewSetuptoolsDistributor returns a distributor running python.
func NewSetuptoolsDistributor(python string) *SetuptoolsDistributor {
	if python == "" {
		python = defaultPython()
	}
	return &SetuptoolsDistributor{Python: python}
}

// Name returns the distributor name
func (d *SetuptoolsDistributor) Name() string {
	return "setuptools"
}

// RequiredTools returns the tools needed for the distribution call
func (d *SetuptoolsDistributor) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:         d.Python,
			Alternatives: []string{"python3", "python"},
			Purpose:      "Python interpreter with setuptools",
		},
	}
}

// CheckTools verifies that the interpreter is available
func (d *SetuptoolsDistributor) CheckTools() error {
	return CheckRequiredTools(d.RequiredTools())
}

// Distribute runs setup() for the request
func (d *SetuptoolsDistributor) Distribute(ctx context.Context, req *SetupRequest) (*DistributionResult, error) {
	defer d.removeRequest()

	return runDistribution(ctx, req, DistributionSteps{
		ConfigureFunc: d.writeRequest,
		BuildFunc:     d.runSetup,
		FindFunc:      d.findArtifacts,
	})
}

// writeRequest serializes the request and snapshots dist/ for later diffing.
func (d *SetuptoolsDistributor) writeRequest(_ context.Context, req *SetupRequest, result *DistributionResult) error {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode setup request: %w", err)
	}

	f, err := os.CreateTemp("", "pyext-setup-*.json")
	if err != nil {
		return fmt.Errorf("failed to create setup request file: %w", err)
	}
	d.requestPath = f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write setup request: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write setup request: %w", err)
	}

	d.distBefore, err = listDist(req.ProjectRoot)
	if err != nil {
		return err
	}

	if d.Verbose {
		result.Output = append(result.Output, fmt.Sprintf("Setup request: %s", d.requestPath))
	}
	return nil
}

// runSetup executes the shim with the setuptools command line
func (d *SetuptoolsDistributor) runSetup(ctx context.Context, req *SetupRequest, result *DistributionResult) error {
	cmd := execCommandContext(ctx, d.Python, "-c", setupShim, d.requestPath)
	cmd.Dir = req.ProjectRoot

	cmd.Env = os.Environ()
	for key, value := range d.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	if d.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s setup.py %s", d.Python, strings.Join(req.Command, " ")),
			fmt.Sprintf("Working directory: %s", req.ProjectRoot))
	}

	output, err := cmd.CombinedOutput()
	result.Output = append(result.Output, strings.Split(strings.TrimRight(string(output), "\n"), "\n")...)

	if err != nil {
		return DistributionError(fmt.Sprintf("%s %s", d.Name(), strings.Join(req.Command, " ")), result.Output, err)
	}
	return nil
}

// findArtifacts reports files under dist/ that are new or were rewritten by the call
func (d *SetuptoolsDistributor) findArtifacts(req *SetupRequest) ([]string, error) {
	after, err := listDist(req.ProjectRoot)
	if err != nil {
		return nil, err
	}

	var artifacts []string
	for name, modTime := range after {
		if before, existed := d.distBefore[name]; existed && before.Equal(modTime) {
			continue
		}
		artifacts = append(artifacts, filepath.ToSlash(filepath.Join("dist", name)))
	}

	sort.Strings(artifacts)
	return artifacts, nil
}

func (d *SetuptoolsDistributor) removeRequest() {
	if d.requestPath != "" {
		_ = os.Remove(d.requestPath)
		d.requestPath = ""
	}
}

func listDist(projectRoot string) (map[string]time.Time, error) {
	names := make(map[string]time.Time)

	entries, err := os.ReadDir(filepath.Join(projectRoot, "dist"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return names, nil
		}
		return nil, fmt.Errorf("failed to list dist directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		names[entry.Name()] = info.ModTime()
	}
	return names, nil
}
