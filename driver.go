package pyext

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Plan is everything decided before the package tree is touched.
type Plan struct {
	Metadata   *Metadata
	Libraries  *LibrarySet
	Toolchain  *ToolchainInfo
	Sources    []string
	Extensions []ExtensionDescriptor
	Mode       BuildMode
}

// Result describes a completed (or partially completed) packaging run.
type Result struct {
	Plan         *Plan
	Artifacts    *ArtifactConfig
	Request      *SetupRequest
	Distribution *DistributionResult
}

// Packager orchestrates one packaging run.
//
// The run is single-shot and assumes exclusive use of the package tree
// between staging and cleanup.
type Packager struct {
	Config      *Config
	Distributor Distributor
	Logger      *log.Logger

	// Probe inspects the build host; defaults to ProbeToolchain.
	Probe func(ctx context.Context, cfg *Config) *ToolchainInfo
}

// NewPackager creates a packager. A nil logger discards output.
func NewPackager(cfg *Config, distributor Distributor, logger *log.Logger) *Packager {
	if logger == nil {
		logger = discardLogger()
	}
	return &Packager{
		Config:      cfg,
		Distributor: distributor,
		Logger:      logger,
		Probe:       ProbeToolchain,
	}
}

// Plan loads the metadata, resolves the library and plans the extensions.
// It writes nothing to disk.
func (p *Packager) Plan(ctx context.Context) (*Plan, error) {
	cfg := p.Config
	logger := p.logger()

	meta, err := LoadMetadata(filepath.Join(cfg.ProjectRoot, filepath.FromSlash(cfg.MetadataPath)))
	if err != nil {
		return nil, err
	}

	var extraDirs []string
	if meta.Library.EnvVar != "" {
		extraDirs = splitPathList(cfg.Env[meta.Library.EnvVar])
	}
	logger.Debug("searching native library", "candidates", meta.SearchPaths(extraDirs...))

	libs, err := ResolveLibrary(meta, extraDirs...)
	if err != nil {
		return nil, err
	}
	logger.Info("resolved native library", "path", libs.Primary.Path, "version", meta.Version)
	if !IsNativeLibrary(libs.Primary.Path) {
		logger.Warn("resolved library does not look like a shared library", "path", libs.Primary.Path)
	}

	plan := &Plan{
		Metadata:  meta,
		Libraries: libs,
		Mode:      cfg.BuildMode(),
	}

	probe := p.Probe
	if probe == nil {
		probe = ProbeToolchain
	}
	plan.Toolchain = probe(ctx, cfg)
	if warning := Warning(plan.Toolchain.Classification); warning != "" {
		logger.Warn(warning, "os", plan.Toolchain.OS, "toolchain", plan.Toolchain.Classification)
	}

	if plan.Toolchain.Classification == Supported {
		bridgeDir := filepath.Join(cfg.ProjectRoot, filepath.FromSlash(cfg.BridgeDir))
		plan.Sources, err = DiscoverSources(bridgeDir, cfg.BridgeSuffix)
		if err != nil {
			return nil, err
		}
	}
	plan.Extensions = PlanExtensions(plan.Toolchain.Classification, plan.Sources,
		cfg.PlanOptions(plan.Toolchain.RuntimeMajor))
	logger.Info("planned extensions", "count", len(plan.Extensions), "mode", plan.Mode)

	return plan, nil
}

// Run performs the packaging run.
//
// In PortablePackage mode staged library copies are removed only after a
// successful distribution call; a failed call or a failed copy leaves them
// in place for inspection. The materialized manifest is always released.
func (p *Packager) Run(ctx context.Context) (*Result, error) {
	if p.Distributor == nil {
		return nil, errors.New("no distributor configured")
	}
	logger := p.logger()

	plan, err := p.Plan(ctx)
	if err != nil {
		return nil, err
	}
	result := &Result{Plan: plan}

	if checker, ok := p.Distributor.(ToolChecker); ok {
		if err := checker.CheckTools(); err != nil {
			return result, fmt.Errorf("build tools missing: %w", err)
		}
	}

	result.Artifacts, err = AssembleArtifacts(plan.Mode, plan.Libraries.Bundle(), p.Config.Layout())
	if err != nil {
		if result.Artifacts != nil && len(result.Artifacts.Staged) > 0 {
			logger.Error("artifact staging failed, leaving partial copies", "staged", result.Artifacts.Staged)
		}
		return result, err
	}
	for _, staged := range result.Artifacts.Staged {
		logger.Debug("staged library", "path", staged)
	}

	result.Request = p.Request(plan, result.Artifacts)
	result.Distribution, err = p.distribute(ctx, result.Request, result.Artifacts)
	if err != nil {
		if len(result.Artifacts.Staged) > 0 {
			logger.Error("distribution failed, leaving staged libraries", "staged", result.Artifacts.Staged)
		}
		return result, err
	}
	if result.Distribution != nil {
		for _, artifact := range result.Distribution.Artifacts {
			logger.Info("built", "artifact", artifact)
		}
	}

	if plan.Mode == PortablePackage {
		if err := result.Artifacts.Cleanup(); err != nil {
			return result, fmt.Errorf("failed to clean package tree: %w", err)
		}
	}
	return result, nil
}

// Request combines the plan and the assembled artifacts into the final
// distribution call.
func (p *Packager) Request(plan *Plan, artifacts *ArtifactConfig) *SetupRequest {
	cfg := p.Config
	req := &SetupRequest{
		ProjectRoot:      cfg.ProjectRoot,
		Command:          cfg.Command.SetupArgs(),
		Inplace:          cfg.Command == InplaceBuild,
		Name:             cfg.Project.Name,
		Version:          plan.Metadata.Version,
		Description:      cfg.Project.Description,
		Maintainer:       cfg.Project.Maintainer,
		MaintainerEmail:  cfg.Project.MaintainerEmail,
		URL:              cfg.Project.URL,
		License:          cfg.Project.License,
		Classifiers:      cfg.Project.Classifiers,
		InstallRequires:  cfg.Project.InstallRequires,
		Extensions:       plan.Extensions,
		BinaryExtModules: IsDarwin(cfg.OS),
	}
	if artifacts != nil {
		req.IncludePackageData = artifacts.IncludePackageData
		req.DataFiles = artifacts.DataFiles
	}
	return req
}

// distribute wraps the distribution call with the manifest's lifetime.
func (p *Packager) distribute(ctx context.Context, req *SetupRequest, artifacts *ArtifactConfig) (res *DistributionResult, err error) {
	if artifacts.Manifest.Len() > 0 {
		manifestPath := filepath.Join(p.Config.ProjectRoot, ManifestFileName)
		release, mErr := artifacts.Manifest.Materialize(manifestPath, p.Config.PackageName)
		if mErr != nil {
			return nil, mErr
		}
		defer func() {
			if rErr := release(); rErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to release manifest: %w", rErr))
			}
		}()
	}

	p.logger().Info("running distribution", "distributor", p.Distributor.Name(), "command", req.Command)
	return p.Distributor.Distribute(ctx, req)
}

func (p *Packager) logger() *log.Logger {
	if p.Logger == nil {
		p.Logger = discardLogger()
	}
	return p.Logger
}
