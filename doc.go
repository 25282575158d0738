// Package pyext packages a compiled native library together with its Python
// binding.
//
// This package is the Go equivalent of the binding's setup.py: it finds the
// prebuilt shared library, reads the package version, decides whether the
// Cython bridging extensions can be compiled on this host and drives
// setuptools to produce an in-place build, an sdist or a wheel.
//
// # Basic Usage
//
//	cfg, err := pyext.LoadConfig(pyext.LoadOptions{
//	    ProjectRoot: "python",
//	    Command:     pyext.BinaryDistribution,
//	})
//	if err != nil {
//	    return err
//	}
//
//	packager := pyext.NewPackager(cfg, pyext.NewSetuptoolsDistributor(cfg.Python), logger)
//	result, err := packager.Run(ctx)
//
// # Pipeline
//
//	LoadMetadata ──▶ ResolveLibrary ──────────────┐
//	ProbeToolchain ─▶ Classify ─▶ PlanExtensions ─┼─▶ Packager ─▶ Distributor
//	                         AssembleArtifacts ───┘
//
// The metadata unit (libinfo.cue or libinfo.toml) is evaluated on its own:
// it cannot import anything, so the package itself never has to be
// importable before its native library exists.
//
// Classify and PlanExtensions are pure. A host that cannot compile the
// extensions (Windows, mixed i386/x86_64 flags, Cython missing) gets a
// warning and an empty extension list, never an error.
//
// # Build Modes
//
// Source-tree builds register the library as data files. Wheels (and any
// build under CONDA_BUILD) copy the library into the package directory and
// list it in a MANIFEST.in that only exists for the duration of the
// setuptools call; the copies are removed after a successful call.
// CONDA_BUILD counts as set for any non-empty value except an explicit
// false: CONDA_BUILD=0 and CONDA_BUILD=false keep the source-tree mode.
package pyext
