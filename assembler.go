package pyext

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/sh"
)

// Layout locates the package inside the project.
type Layout struct {
	ProjectRoot string // Absolute project root (where the packaging tool runs)
	PackageName string // Package directory name under ProjectRoot
}

// PackageDir returns the absolute package directory.
func (l Layout) PackageDir() string {
	return filepath.Join(l.ProjectRoot, l.PackageName)
}

// ArtifactConfig is the artifact part of the final distribution call.
type ArtifactConfig struct {
	Mode               BuildMode
	IncludePackageData bool
	DataFiles          map[string][]string // SourceTree: install subdir -> paths relative to the project root
	Manifest           *InclusionManifest  // PortablePackage: files bundled with the package
	Staged             []string            // PortablePackage: copies made into the package tree
}

// AssembleArtifacts prepares the native libraries for the distribution call.
//
// PortablePackage copies every library into the package directory and lists
// it in the inclusion manifest. Copies overwrite earlier ones, so assembling
// twice yields identical files and no duplicate entries. A failed copy
// returns *ArtifactCopyError and leaves earlier copies where they are.
//
// SourceTree writes nothing and registers the libraries as data files of
// the package, relative to the project root.
func AssembleArtifacts(mode BuildMode, libs []LibraryDescriptor, layout Layout) (*ArtifactConfig, error) {
	switch mode {
	case PortablePackage:
		return stageLibraries(libs, layout)
	case SourceTree:
		return registerDataFiles(libs, layout)
	default:
		return nil, fmt.Errorf("unknown build mode %d", mode)
	}
}

func stageLibraries(libs []LibraryDescriptor, layout Layout) (*ArtifactConfig, error) {
	cfg := &ArtifactConfig{
		Mode:               PortablePackage,
		IncludePackageData: true,
		Manifest:           NewInclusionManifest(),
	}

	pkgDir := layout.PackageDir()
	for _, lib := range libs {
		name := lib.Name
		if name == "" {
			name = filepath.Base(lib.Path)
		}
		dest := filepath.Join(pkgDir, name)

		// The library may already live in the package; copying a file onto
		// itself would truncate it, and cleanup would then delete the original.
		if sameFile(lib.Path, dest) {
			cfg.Manifest.Add(name)
			continue
		}

		if err := sh.Copy(dest, lib.Path); err != nil {
			return cfg, &ArtifactCopyError{Source: lib.Path, Dest: dest, Err: err}
		}
		cfg.Staged = append(cfg.Staged, dest)
		cfg.Manifest.Add(name)
	}

	cfg.Staged = uniqueStrings(cfg.Staged)
	return cfg, nil
}

func registerDataFiles(libs []LibraryDescriptor, layout Layout) (*ArtifactConfig, error) {
	var rel []string
	for _, lib := range libs {
		r, err := filepath.Rel(layout.ProjectRoot, lib.Path)
		if err != nil {
			return nil, fmt.Errorf("cannot express %s relative to %s: %w", lib.Path, layout.ProjectRoot, err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}

	return &ArtifactConfig{
		Mode:               SourceTree,
		IncludePackageData: true,
		DataFiles:          map[string][]string{layout.PackageName: uniqueStrings(rel)},
	}, nil
}

// Cleanup removes every copy staged into the package tree.
// Missing files are not an error; all removal failures are reported.
func (a *ArtifactConfig) Cleanup() error {
	if a == nil {
		return nil
	}
	var errs []error
	for _, staged := range a.Staged {
		if err := sh.Rm(staged); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
