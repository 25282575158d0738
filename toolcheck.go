package pyext

import (
	"fmt"
	"os/exec"
	"strings"
)

// ToolChecker is an optional interface for distributors that require external tools.
//
// The packager checks tools before staging any artifact so that a missing
// interpreter fails fast instead of after the package tree was modified:
//
//	if checker, ok := distributor.(ToolChecker); ok {
//	    if err := checker.CheckTools(); err != nil {
//	        return fmt.Errorf("build tools missing: %w", err)
//	    }
//	}
type ToolChecker interface {
	// RequiredTools returns the list of tools this distributor needs.
	RequiredTools() []ToolRequirement

	// CheckTools verifies that all required tools are available.
	// Optional tools don't cause errors if missing.
	CheckTools() error
}

// ToolRequirement describes a build tool dependency.
//
// Tool with alternatives:
//
//	ToolRequirement{
//	    Name:         "cython",
//	    Alternatives: []string{"cythonize"},
//	    Purpose:      "Cython compiler",
//	}
type ToolRequirement struct {
	// Name is the primary tool binary name (e.g., "python3", "cython").
	Name string

	// Alternatives are alternative tool names that can satisfy this requirement.
	Alternatives []string

	// Optional indicates this tool is optional and won't cause an error if missing.
	Optional bool

	// Purpose is a human-readable description of why this tool is needed.
	Purpose string
}

// Seams for tests.
var (
	execLookPath       = exec.LookPath
	execCommandContext = exec.CommandContext
)

// acceleratorRequirements locate the Cython compiler when the interpreter
// cannot be asked directly.
var acceleratorRequirements = []ToolRequirement{
	{
		Name:         "cython",
		Alternatives: []string{"cythonize", "cython3"},
		Purpose:      "Cython compiler for bridging extensions",
	},
}

// CheckToolAvailable checks if a tool is available in the system PATH.
// Paths containing a separator are checked directly.
func CheckToolAvailable(tool string) error {
	if _, err := execLookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// CheckRequiredTools verifies all required tools are available.
//
// The primary name is tried first, then each alternative in order.
// Optional tools are checked but never cause an error. All missing
// required tools are reported in a single error:
//
//	missing required tools: python3 (Python interpreter), cython (Cython compiler)
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missingTools []string

	for _, req := range requirements {
		found := CheckToolAvailable(req.Name) == nil

		if !found {
			for _, alt := range req.Alternatives {
				if CheckToolAvailable(alt) == nil {
					found = true
					break
				}
			}
		}

		if !found && !req.Optional {
			if req.Purpose != "" {
				missingTools = append(missingTools, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
			} else {
				missingTools = append(missingTools, req.Name)
			}
		}
	}

	if len(missingTools) == 0 {
		return nil
	}

	if len(missingTools) == 1 {
		return fmt.Errorf("%s not found in PATH", missingTools[0])
	}

	return fmt.Errorf("missing required tools: %s", strings.Join(missingTools, ", "))
}
