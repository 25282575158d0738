package pyext

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func testPlanOptions(osName string) PlanOptions {
	return PlanOptions{
		PackageName:        "decord",
		BridgeDir:          "decord/_ffi/_cython",
		BridgeSuffix:       ".pyx",
		RuntimeMajor:       3,
		OS:                 osName,
		IncludeDirs:        []string{"../include/", "../third_party/dlpack/include"},
		WindowsLibraryDirs: []string{"decord", "../build/Release", "../build"},
		ImportLibrary:      "libdecord",
	}
}

func TestPlanExtensionsDegradedIsEmpty(t *testing.T) {
	for _, c := range []ToolchainClassification{Unsupported, AmbiguousArchitecture, AcceleratorMissing} {
		t.Run(c.String(), func(t *testing.T) {
			plan := PlanExtensions(c, []string{"core.pyx"}, testPlanOptions("linux"))
			if plan == nil || len(plan) != 0 {
				t.Errorf("expected an empty, non-nil plan, got %#v", plan)
			}
		})
	}
}

func TestPlanExtensionsSupported(t *testing.T) {
	plan := PlanExtensions(Supported, []string{"core.pyx", "README.md", "ndarray.pyx"}, testPlanOptions("linux"))

	if len(plan) != 2 {
		t.Fatalf("expected 2 extensions, got %d: %#v", len(plan), plan)
	}

	expected := ExtensionDescriptor{
		Name:        "decord._ffi._cy3.core",
		Sources:     []string{"decord/_ffi/_cython/core.pyx"},
		IncludeDirs: []string{"../include/", "../third_party/dlpack/include"},
		Language:    LanguageNative,
	}
	if !reflect.DeepEqual(plan[0], expected) {
		t.Errorf("unexpected descriptor:\n%#v\nexpected\n%#v", plan[0], expected)
	}
	if plan[1].Name != "decord._ffi._cy3.ndarray" {
		t.Errorf("unexpected second extension %s", plan[1].Name)
	}
}

func TestPlanExtensionsRuntimeVariant(t *testing.T) {
	opts := testPlanOptions("darwin")
	opts.RuntimeMajor = 2

	plan := PlanExtensions(Supported, []string{"core.pyx"}, opts)
	if len(plan) != 1 || plan[0].Name != "decord._ffi._cy2.core" {
		t.Fatalf("expected a _cy2 module, got %#v", plan)
	}
}

func TestPlanExtensionsWindowsLinkSettings(t *testing.T) {
	// Windows never classifies as Supported, but the planner must still add
	// link settings when asked directly.
	plan := PlanExtensions(Supported, []string{"core.pyx"}, testPlanOptions("windows"))
	if len(plan) != 1 {
		t.Fatalf("expected 1 extension, got %d", len(plan))
	}

	if !reflect.DeepEqual(plan[0].LibraryDirs, []string{"decord", "../build/Release", "../build"}) {
		t.Errorf("unexpected library dirs %v", plan[0].LibraryDirs)
	}
	if !reflect.DeepEqual(plan[0].Libraries, []string{"libdecord"}) {
		t.Errorf("unexpected libraries %v", plan[0].Libraries)
	}
}

func TestPlanExtensionsDescriptorsDoNotShareSlices(t *testing.T) {
	opts := testPlanOptions("windows")
	plan := PlanExtensions(Supported, []string{"core.pyx", "ndarray.pyx"}, opts)
	if len(plan) != 2 {
		t.Fatalf("expected 2 extensions, got %d", len(plan))
	}

	plan[0].LibraryDirs[0] = "changed"
	plan[0].Libraries[0] = "changed"
	plan[0].IncludeDirs[0] = "changed"

	if plan[1].LibraryDirs[0] != "decord" || plan[1].Libraries[0] != "libdecord" || plan[1].IncludeDirs[0] != "../include/" {
		t.Errorf("mutating one descriptor changed another: %#v", plan[1])
	}
	if opts.WindowsLibraryDirs[0] != "decord" {
		t.Errorf("mutating a descriptor changed the options: %v", opts.WindowsLibraryDirs)
	}
}

func TestDiscoverSourcesFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, filepath.Join(t.TempDir(), "shared.pyx"), "")
	if err := os.Symlink(target, filepath.Join(dir, "linked.pyx")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "gone.pyx"), filepath.Join(dir, "dangling.pyx")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	writeFile(t, filepath.Join(dir, "core.pyx"), "")

	sources, err := DiscoverSources(dir, ".pyx")
	if err != nil {
		t.Fatalf("DiscoverSources returned error: %v", err)
	}
	if !reflect.DeepEqual(sources, []string{"core.pyx", "linked.pyx"}) {
		t.Errorf("expected the symlinked source and no dangling link, got %v", sources)
	}
}

func TestDiscoverSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ndarray.pyx", "core.pyx", "core.pxd", "notes.txt"} {
		writeFile(t, filepath.Join(dir, name), "")
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.pyx"), 0o755); err != nil {
		t.Fatal(err)
	}

	sources, err := DiscoverSources(dir, ".pyx")
	if err != nil {
		t.Fatalf("DiscoverSources returned error: %v", err)
	}
	if !reflect.DeepEqual(sources, []string{"core.pyx", "ndarray.pyx"}) {
		t.Errorf("unexpected sources %v", sources)
	}
}

func TestDiscoverSourcesMissingDir(t *testing.T) {
	sources, err := DiscoverSources(filepath.Join(t.TempDir(), "_cython"), ".pyx")
	if err != nil {
		t.Fatalf("expected no error for a missing directory, got %v", err)
	}
	if len(sources) != 0 {
		t.Errorf("expected no sources, got %v", sources)
	}
}
