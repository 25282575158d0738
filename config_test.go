package pyext

import (
	"path/filepath"
	"reflect"
	"testing"
)

// clearBuildEnv keeps the host's build environment out of LoadConfig.
func clearBuildEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		BinaryPipelineEnv, "CFLAGS",
		"PYEXT_BINARY_PIPELINE", "PYEXT_CFLAGS", "PYEXT_PYTHON", "PYEXT_OS",
		"PYEXT_PACKAGE_NAME", "PYEXT_RUNTIME_MAJOR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearBuildEnv(t)
	root := t.TempDir()

	cfg, err := LoadConfig(LoadOptions{ProjectRoot: root, Command: SourceDistribution, Environ: []string{"DECORD_LIBRARY_PATH=/opt/lib"}})
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.ProjectRoot != root {
		t.Errorf("expected project root %s, got %s", root, cfg.ProjectRoot)
	}
	if cfg.PackageName != "decord" || cfg.Project.Name != "decord" {
		t.Errorf("unexpected package name %q / %q", cfg.PackageName, cfg.Project.Name)
	}
	if cfg.MetadataPath != "decord/_ffi/libinfo.cue" {
		t.Errorf("unexpected metadata path %s", cfg.MetadataPath)
	}
	if cfg.BridgeDir != "decord/_ffi/_cython" || cfg.BridgeSuffix != ".pyx" {
		t.Errorf("unexpected bridge settings %s %s", cfg.BridgeDir, cfg.BridgeSuffix)
	}
	if cfg.ImportLibrary != "libdecord" {
		t.Errorf("unexpected import library %s", cfg.ImportLibrary)
	}
	if !reflect.DeepEqual(cfg.WindowsLibraryDirs, []string{"decord", "../build/Release", "../build"}) {
		t.Errorf("unexpected windows library dirs %v", cfg.WindowsLibraryDirs)
	}
	if len(cfg.IncludeDirs) != 3 {
		t.Errorf("expected 3 include dirs, got %v", cfg.IncludeDirs)
	}
	if cfg.CFlagsSet {
		t.Error("expected CFLAGS to be unset")
	}
	if cfg.BuildMode() != SourceTree {
		t.Errorf("expected SourceTree for sdist, got %s", cfg.BuildMode())
	}
	if cfg.Env["DECORD_LIBRARY_PATH"] != "/opt/lib" {
		t.Errorf("expected environment snapshot from Environ, got %v", cfg.Env)
	}
	if cfg.Project.License != "APACHE" || len(cfg.Project.InstallRequires) != 1 {
		t.Errorf("unexpected project defaults %+v", cfg.Project)
	}
}

func TestLoadConfigBinaryPipelineForcesPortable(t *testing.T) {
	testCases := []struct {
		value    string
		command  Command
		expected BuildMode
	}{
		{"1", SourceDistribution, PortablePackage},
		{"yes", InplaceBuild, PortablePackage},
		{"0", SourceDistribution, SourceTree},
		{"false", InplaceBuild, SourceTree},
		{"", BinaryDistribution, PortablePackage},
	}

	for _, tc := range testCases {
		t.Run(tc.value+"/"+tc.command.String(), func(t *testing.T) {
			clearBuildEnv(t)
			t.Setenv(BinaryPipelineEnv, tc.value)

			cfg, err := LoadConfig(LoadOptions{ProjectRoot: t.TempDir(), Command: tc.command})
			if err != nil {
				t.Fatalf("LoadConfig returned error: %v", err)
			}
			if got := cfg.BuildMode(); got != tc.expected {
				t.Errorf("CONDA_BUILD=%q with %s: got %s, expected %s", tc.value, tc.command, got, tc.expected)
			}
		})
	}
}

func TestLoadConfigCFlagsFromEnvironment(t *testing.T) {
	clearBuildEnv(t)
	t.Setenv("CFLAGS", "-arch i386 -arch x86_64")

	cfg, err := LoadConfig(LoadOptions{ProjectRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.CFlagsSet || cfg.CFlags != "-arch i386 -arch x86_64" {
		t.Errorf("expected CFLAGS from the environment, got %q (set=%v)", cfg.CFlags, cfg.CFlagsSet)
	}
}

func TestLoadConfigProjectFile(t *testing.T) {
	clearBuildEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFileName), `
package_name = "mylib"
python = "/opt/py/bin/python3"
include_dirs = ["../include"]
runtime_major = 3

[project]
description = "My binding"
`)

	cfg, err := LoadConfig(LoadOptions{ProjectRoot: root, Command: BinaryDistribution})
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.PackageName != "mylib" || cfg.Project.Name != "mylib" {
		t.Errorf("unexpected package name %q / %q", cfg.PackageName, cfg.Project.Name)
	}
	if cfg.MetadataPath != "mylib/_ffi/libinfo.cue" || cfg.ImportLibrary != "libmylib" {
		t.Errorf("expected paths derived from the package name, got %s %s", cfg.MetadataPath, cfg.ImportLibrary)
	}
	if cfg.Python != "/opt/py/bin/python3" || cfg.RuntimeMajor != 3 {
		t.Errorf("unexpected interpreter settings %s %d", cfg.Python, cfg.RuntimeMajor)
	}
	if !reflect.DeepEqual(cfg.IncludeDirs, []string{"../include"}) {
		t.Errorf("unexpected include dirs %v", cfg.IncludeDirs)
	}
	if cfg.Project.Description != "My binding" {
		t.Errorf("unexpected description %q", cfg.Project.Description)
	}
	if cfg.Project.License != "APACHE" {
		t.Errorf("expected unset project fields to keep defaults, got license %q", cfg.Project.License)
	}
}

func TestDistributionEnv(t *testing.T) {
	clearBuildEnv(t)
	root := t.TempDir()

	cfg, err := LoadConfig(LoadOptions{ProjectRoot: root})
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if env := cfg.DistributionEnv(); env != nil {
		t.Errorf("expected no extra environment, got %v", env)
	}

	writeFile(t, filepath.Join(root, ConfigFileName), `cflags = "-O3 -march=native"`)
	cfg, err = LoadConfig(LoadOptions{ProjectRoot: root})
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := map[string]string{"CFLAGS": "-O3 -march=native"}
	if env := cfg.DistributionEnv(); !reflect.DeepEqual(env, expected) {
		t.Errorf("expected %v, got %v", expected, env)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	clearBuildEnv(t)

	if _, err := LoadConfig(LoadOptions{ProjectRoot: t.TempDir(), ConfigFile: filepath.Join(t.TempDir(), "missing.toml")}); err == nil {
		t.Error("expected error for a missing explicit config file")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFileName), `package_name = "../escape"`)
	if _, err := LoadConfig(LoadOptions{ProjectRoot: root}); err == nil {
		t.Error("expected error for a package name with a path")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{ProjectRoot: "relative", Command: Command(7), RuntimeMajor: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation errors")
	}
}
