package pyext

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// PlanOptions carries the fixed layout the extension planner works with.
type PlanOptions struct {
	PackageName        string   // e.g. "decord"
	BridgeDir          string   // Bridging sources, relative to the project root (slash form)
	BridgeSuffix       string   // e.g. ".pyx"
	RuntimeMajor       int      // Selects the _cy3 / _cy2 variant directory
	OS                 string   // Host OS identifier
	IncludeDirs        []string // Native headers plus vendored header sets
	WindowsLibraryDirs []string // Link paths for Windows-like hosts
	ImportLibrary      string   // Import library for Windows-like hosts
}

// VariantDir returns the runtime-version-specific module directory.
func VariantDir(runtimeMajor int) string {
	if runtimeMajor == 2 {
		return "_cy2"
	}
	return "_cy3"
}

// DiscoverSources lists the bridging sources in dir with the given suffix.
//
// Only files directly in dir are considered, following symlinks, sorted by
// name so that plans are reproducible. A missing directory yields no sources.
func DiscoverSources(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list bridging sources in %s: %w", dir, err)
	}

	var sources []string
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		// Symlinked sources count; dangling links and directories do not.
		if isRegularFile(filepath.Join(dir, entry.Name())) {
			sources = append(sources, entry.Name())
		}
	}

	sort.Strings(sources)
	return sources, nil
}

// PlanExtensions builds one descriptor per bridging source.
//
// Anything but a Supported classification yields an empty plan; the planner
// never fails, a missing toolchain just means no compiled extensions.
// sources are file names inside opts.BridgeDir; names without the suffix
// are ignored.
func PlanExtensions(c ToolchainClassification, sources []string, opts PlanOptions) []ExtensionDescriptor {
	plan := []ExtensionDescriptor{}
	if c != Supported {
		return plan
	}

	windows := IsWindowsLike(opts.OS)

	variant := VariantDir(opts.RuntimeMajor)
	for _, source := range sources {
		name := filepath.Base(source)
		if opts.BridgeSuffix != "" && !strings.HasSuffix(name, opts.BridgeSuffix) {
			continue
		}
		stem := strings.TrimSuffix(name, opts.BridgeSuffix)
		if stem == "" {
			continue
		}

		ext := ExtensionDescriptor{
			Name:        strings.Join([]string{opts.PackageName, "_ffi", variant, stem}, "."),
			Sources:     []string{path.Join(opts.BridgeDir, name)},
			IncludeDirs: append([]string(nil), opts.IncludeDirs...),
			Language:    LanguageNative,
		}
		if windows {
			ext.LibraryDirs = append([]string(nil), opts.WindowsLibraryDirs...)
			if opts.ImportLibrary != "" {
				ext.Libraries = []string{opts.ImportLibrary}
			}
		}
		plan = append(plan, ext)
	}

	return plan
}
