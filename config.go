package pyext

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the optional project file read from the project root.
	ConfigFileName = "pyext.toml"
	// EnvPrefix prefixes every environment override (PYEXT_PYTHON, ...).
	EnvPrefix = "PYEXT"
	// BinaryPipelineEnv signals a build under an external binary-packaging pipeline.
	BinaryPipelineEnv = "CONDA_BUILD"

	defaultPackageName  = "decord"
	defaultBridgeSuffix = ".pyx"
)

// ProjectInfo is the declarative package metadata passed to the distribution call.
type ProjectInfo struct {
	Name            string   `mapstructure:"name"`
	Description     string   `mapstructure:"description"`
	Maintainer      string   `mapstructure:"maintainer"`
	MaintainerEmail string   `mapstructure:"maintainer_email"`
	URL             string   `mapstructure:"url"`
	License         string   `mapstructure:"license"`
	Classifiers     []string `mapstructure:"classifiers"`
	InstallRequires []string `mapstructure:"install_requires"`
}

// Config is populated once at startup and threaded through every component.
// No component reads the process environment; values it needs live here.
type Config struct {
	ProjectRoot        string   // Absolute path of the directory holding the package
	PackageName        string   // Import name of the package (directory under ProjectRoot)
	MetadataPath       string   // Metadata unit, relative to ProjectRoot
	BridgeDir          string   // Bridging sources, relative to ProjectRoot (slash form)
	BridgeSuffix       string   // Recognized bridging source suffix
	IncludeDirs        []string // Header paths for bridging extensions
	WindowsLibraryDirs []string // Link paths used on Windows-like hosts
	ImportLibrary      string   // Import library linked on Windows-like hosts

	Python       string // Interpreter used for probing and the distribution call
	OS           string // Host OS identifier
	CFlags       string // Compiler flags, when given explicitly
	CFlagsSet    bool   // True if CFlags came from the environment or config
	RuntimeMajor int    // Runtime major version; 0 means probe the interpreter

	Command        Command // Invocation mode
	BinaryPipeline bool    // Built under an external binary-packaging pipeline

	Project ProjectInfo

	// Env is a snapshot of the environment taken at load time. It resolves
	// variables named by the metadata unit (the extra library search path).
	Env map[string]string
}

// BuildMode returns the build mode implied by the command and environment.
func (c *Config) BuildMode() BuildMode {
	return SelectBuildMode(c.Command, c.BinaryPipeline)
}

// DistributionEnv returns variables added to the packaging tool's
// environment. CFLAGS given in the project file reach the compiler this way.
func (c *Config) DistributionEnv() map[string]string {
	if !c.CFlagsSet {
		return nil
	}
	return map[string]string{"CFLAGS": c.CFlags}
}

// Layout returns the filesystem layout used by the artifact assembler.
func (c *Config) Layout() Layout {
	return Layout{ProjectRoot: c.ProjectRoot, PackageName: c.PackageName}
}

// PlanOptions returns the extension planner options for a runtime major version.
func (c *Config) PlanOptions(runtimeMajor int) PlanOptions {
	return PlanOptions{
		PackageName:        c.PackageName,
		BridgeDir:          c.BridgeDir,
		BridgeSuffix:       c.BridgeSuffix,
		RuntimeMajor:       runtimeMajor,
		OS:                 c.OS,
		IncludeDirs:        c.IncludeDirs,
		WindowsLibraryDirs: c.WindowsLibraryDirs,
		ImportLibrary:      c.ImportLibrary,
	}
}

// LoadOptions controls LoadConfig.
type LoadOptions struct {
	// ProjectRoot defaults to the working directory.
	ProjectRoot string
	// ConfigFile overrides <ProjectRoot>/pyext.toml. It must exist when set.
	ConfigFile string
	// Command is the invocation mode requested on the command line.
	Command Command
	// Environ defaults to os.Environ().
	Environ []string
}

// LoadConfig builds a Config from defaults, the optional project file and
// the environment, in increasing priority.
func LoadConfig(opts LoadOptions) (*Config, error) {
	root := opts.ProjectRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	cfgFile := opts.ConfigFile
	if cfgFile == "" {
		if candidate := filepath.Join(root, ConfigFileName); isRegularFile(candidate) {
			cfgFile = candidate
		}
	} else if !isRegularFile(cfgFile) {
		return nil, fmt.Errorf("config file not found: %s", cfgFile)
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unprefixed names are what build pipelines actually export.
	_ = v.BindEnv("binary_pipeline", EnvPrefix+"_BINARY_PIPELINE", BinaryPipelineEnv)
	_ = v.BindEnv("cflags", EnvPrefix+"_CFLAGS", "CFLAGS")

	// Unmarshal merges defaults per key; UnmarshalKey would drop project
	// defaults as soon as the file has a [project] table.
	var settings struct {
		Project ProjectInfo `mapstructure:"project"`
	}
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse project section: %w", err)
	}
	project := settings.Project

	pkg := v.GetString("package_name")
	if pkg == "" || filepath.Base(pkg) != pkg {
		return nil, fmt.Errorf("package_name %q must be a single directory name", pkg)
	}
	if project.Name == "" {
		project.Name = pkg
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	cfg := &Config{
		ProjectRoot:        root,
		PackageName:        pkg,
		MetadataPath:       stringOr(v.GetString("metadata"), path.Join(pkg, "_ffi", "libinfo.cue")),
		BridgeDir:          stringOr(v.GetString("bridge_dir"), path.Join(pkg, "_ffi", "_cython")),
		BridgeSuffix:       stringOr(v.GetString("bridge_suffix"), defaultBridgeSuffix),
		IncludeDirs:        v.GetStringSlice("include_dirs"),
		WindowsLibraryDirs: v.GetStringSlice("windows_library_dirs"),
		ImportLibrary:      stringOr(v.GetString("import_library"), "lib"+pkg),
		Python:             v.GetString("python"),
		OS:                 v.GetString("os"),
		CFlags:             v.GetString("cflags"),
		CFlagsSet:          v.IsSet("cflags"),
		RuntimeMajor:       v.GetInt("runtime_major"),
		Command:            opts.Command,
		BinaryPipeline:     truthy(v.GetString("binary_pipeline")),
		Project:            project,
		Env:                environMap(environ),
	}
	if len(cfg.WindowsLibraryDirs) == 0 {
		cfg.WindowsLibraryDirs = []string{pkg, "../build/Release", "../build"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("package_name", defaultPackageName)
	v.SetDefault("bridge_suffix", defaultBridgeSuffix)
	v.SetDefault("include_dirs", []string{
		"../include/",
		"../third_party/dmlc-core/include",
		"../third_party/dlpack/include",
	})
	v.SetDefault("python", defaultPython())
	v.SetDefault("os", runtime.GOOS)
	v.SetDefault("runtime_major", 0)
	v.SetDefault("project.description", "Decord Video Loader")
	v.SetDefault("project.maintainer", "Decord commiters")
	v.SetDefault("project.maintainer_email", "cheungchih@gmail.com")
	v.SetDefault("project.url", "https://github.com/zhreshold/decord")
	v.SetDefault("project.license", "APACHE")
	v.SetDefault("project.classifiers", []string{
		"Development Status :: 3 - Alpha",
		"Programming Language :: Python :: 3",
		"License :: OSI Approved :: Apache Software License",
	})
	v.SetDefault("project.install_requires", []string{"numpy>=1.14.0"})
}

// Validate checks the fields every packaging run depends on.
func (c *Config) Validate() error {
	var errs []error
	if !filepath.IsAbs(c.ProjectRoot) {
		errs = append(errs, fmt.Errorf("project root %q must be absolute", c.ProjectRoot))
	}
	if c.PackageName == "" {
		errs = append(errs, errors.New("package name is required"))
	}
	if c.MetadataPath == "" {
		errs = append(errs, errors.New("metadata path is required"))
	}
	if c.Python == "" {
		errs = append(errs, errors.New("python interpreter is required"))
	}
	if c.RuntimeMajor < 0 {
		errs = append(errs, fmt.Errorf("runtime_major %d must not be negative", c.RuntimeMajor))
	}
	if c.Command < InplaceBuild || c.Command > BinaryDistribution {
		errs = append(errs, fmt.Errorf("unknown command %d", c.Command))
	}
	return errors.Join(errs...)
}

func defaultPython() string {
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}

// truthy interprets pipeline flags: booleans parse as such, any other
// non-empty value counts as set.
func truthy(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return true
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func environMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, val, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = val
		}
	}
	return env
}
