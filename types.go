package pyext

import (
	"context"
	"strings"
)

// LibraryDescriptor identifies one compiled native library on disk.
type LibraryDescriptor struct {
	Path string // Absolute path to the shared library
	Name string // Inferred name (the file's base name)
}

// LibrarySet is the outcome of library resolution.
//
// Primary is the canonical library (the first surviving candidate).
// Candidates keeps every existing candidate in search order so that
// callers needing more than one native library can still reach them.
type LibrarySet struct {
	Primary    LibraryDescriptor
	Candidates []LibraryDescriptor
}

// Bundle returns the libraries that ship with the package.
//
// Only the primary library is bundled; the remaining candidates are
// usually the same library found in a second build directory.
func (s *LibrarySet) Bundle() []LibraryDescriptor {
	if s == nil || s.Primary.Path == "" {
		return nil
	}
	return []LibraryDescriptor{s.Primary}
}

// ToolchainClassification summarizes whether bridging extensions can be compiled.
type ToolchainClassification int

const (
	// Unsupported means the host OS is not supported by the extension compiler.
	Unsupported ToolchainClassification = iota
	// AmbiguousArchitecture means the compiler flags target two architectures at once.
	AmbiguousArchitecture
	// AcceleratorMissing means the native-extension compiler is not installed.
	AcceleratorMissing
	// Supported means extensions can be planned and compiled.
	Supported
)

// String returns a human-readable name for the classification.
func (c ToolchainClassification) String() string {
	switch c {
	case Unsupported:
		return "unsupported"
	case AmbiguousArchitecture:
		return "ambiguous-architecture"
	case AcceleratorMissing:
		return "accelerator-missing"
	case Supported:
		return "supported"
	default:
		return "unknown"
	}
}

// LanguageNative is the language hint attached to every extension descriptor.
const LanguageNative = "native"

// ExtensionDescriptor describes one bridging extension module to compile.
type ExtensionDescriptor struct {
	Name        string   `json:"name"`                   // Qualified module name (pkg._ffi._cy3.core)
	Sources     []string `json:"sources"`                // Source files, relative to the project root
	IncludeDirs []string `json:"include_dirs"`           // Header search paths
	LibraryDirs []string `json:"library_dirs,omitempty"` // Link search paths (Windows only)
	Libraries   []string `json:"libraries,omitempty"`    // Import libraries to link (Windows only)
	Language    string   `json:"language"`               // Always LanguageNative
}

// BuildMode selects how the native library is shipped.
type BuildMode int

const (
	// SourceTree registers the library as data files relative to the project root.
	SourceTree BuildMode = iota
	// PortablePackage copies the library into the package tree for a wheel.
	PortablePackage
)

// String returns a human-readable name for the build mode.
func (m BuildMode) String() string {
	switch m {
	case SourceTree:
		return "source-tree"
	case PortablePackage:
		return "portable-package"
	default:
		return "unknown"
	}
}

// Command is the invocation mode of a packaging run.
type Command int

const (
	// InplaceBuild builds extensions next to their sources for development.
	InplaceBuild Command = iota
	// SourceDistribution produces an sdist.
	SourceDistribution
	// BinaryDistribution produces a wheel.
	BinaryDistribution
)

// String returns the CLI spelling of the command.
func (c Command) String() string {
	switch c {
	case InplaceBuild:
		return "inplace-build"
	case SourceDistribution:
		return "source-distribution"
	case BinaryDistribution:
		return "binary-distribution"
	default:
		return "unknown"
	}
}

// SetupArgs returns the setuptools command line for the invocation mode.
func (c Command) SetupArgs() []string {
	switch c {
	case InplaceBuild:
		return []string{"build_ext", "--inplace"}
	case SourceDistribution:
		return []string{"sdist"}
	default:
		return []string{"bdist_wheel"}
	}
}

// ParseCommand converts a CLI or setuptools spelling into a Command.
func ParseCommand(s string) (Command, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inplace", "inplace-build", "build_ext", "build":
		return InplaceBuild, true
	case "sdist", "source-distribution":
		return SourceDistribution, true
	case "bdist_wheel", "bdist-wheel", "wheel", "binary-distribution":
		return BinaryDistribution, true
	default:
		return 0, false
	}
}

// SelectBuildMode decides the build mode for a run.
//
// A binary-packaging pipeline (e.g. conda-build) always gets a portable
// package, whatever command was requested.
func SelectBuildMode(cmd Command, binaryPipeline bool) BuildMode {
	if binaryPipeline || cmd == BinaryDistribution {
		return PortablePackage
	}
	return SourceTree
}

// SetupRequest carries everything the final distribution call needs.
type SetupRequest struct {
	ProjectRoot        string                `json:"project_root"`
	Command            []string              `json:"command"`
	Inplace            bool                  `json:"inplace"`
	Name               string                `json:"name"`
	Version            string                `json:"version"`
	Description        string                `json:"description,omitempty"`
	Maintainer         string                `json:"maintainer,omitempty"`
	MaintainerEmail    string                `json:"maintainer_email,omitempty"`
	URL                string                `json:"url,omitempty"`
	License            string                `json:"license,omitempty"`
	Classifiers        []string              `json:"classifiers,omitempty"`
	InstallRequires    []string              `json:"install_requires,omitempty"`
	Extensions         []ExtensionDescriptor `json:"ext_modules"`
	IncludePackageData bool                  `json:"include_package_data"`
	DataFiles          map[string][]string   `json:"data_files,omitempty"`
	BinaryExtModules   bool                  `json:"has_ext_modules"`
}

// DistributionResult contains the output of the final distribution call.
type DistributionResult struct {
	Success   bool     // True if the distribution call completed
	Output    []string // Lines of output from the packaging tool
	Artifacts []string // New files produced under dist/, relative to the project root
}

// Distributor performs the final distribution call.
//
// Implementations receive the fully assembled request and must not
// modify the package tree beyond what the packaging tool itself writes.
type Distributor interface {
	// Name returns the human-readable name of this distributor.
	Name() string

	// Distribute runs the packaging tool for the request.
	Distribute(ctx context.Context, req *SetupRequest) (*DistributionResult, error)
}
