package pyext

import (
	"context"
	"strconv"
	"strings"
)

// Architecture markers that must not appear together in the compiler flags.
const (
	arch32Marker = "i386"
	arch64Marker = "x86_64"
)

// ToolchainInfo is everything the probe learned about the build host.
type ToolchainInfo struct {
	OS                 string
	CFlags             string
	AcceleratorPresent bool
	RuntimeMajor       int
	Classification     ToolchainClassification
}

// Classify reduces the host signals to one classification.
//
// Precedence, first match wins:
//  1. Windows-like OS -> Unsupported
//  2. flags name both a 32-bit and a 64-bit target -> AmbiguousArchitecture
//  3. accelerator absent -> AcceleratorMissing
//  4. Supported
func Classify(osName, cflags string, acceleratorPresent bool) ToolchainClassification {
	switch {
	case IsWindowsLike(osName):
		return Unsupported
	case strings.Contains(cflags, arch32Marker) && strings.Contains(cflags, arch64Marker):
		return AmbiguousArchitecture
	case !acceleratorPresent:
		return AcceleratorMissing
	default:
		return Supported
	}
}

// Warning returns the diagnostic for a degraded classification, or "" for Supported.
func Warning(c ToolchainClassification) string {
	switch c {
	case Unsupported:
		return "Cython is not supported on Windows, will compile without cython module"
	case AmbiguousArchitecture:
		return "Cython library may not be compiled correctly with both i386 and x64"
	case AcceleratorMissing:
		return "Cython is not installed, will compile without cython module"
	default:
		return ""
	}
}

// ProbeToolchain inspects the build host described by cfg.
//
// Values already present in cfg (CFLAGS from the environment, an explicit
// runtime version) win over probing the interpreter. Probe failures are not
// errors: an unreadable CFLAGS is empty, an unknown runtime is major 3.
func ProbeToolchain(ctx context.Context, cfg *Config) *ToolchainInfo {
	info := &ToolchainInfo{
		OS:           cfg.OS,
		CFlags:       cfg.CFlags,
		RuntimeMajor: cfg.RuntimeMajor,
	}

	// Classification short-circuits on Windows; skip the interpreter there.
	if !IsWindowsLike(info.OS) {
		if !cfg.CFlagsSet {
			info.CFlags = interpreterOutput(ctx, cfg.Python,
				`import sysconfig; print(sysconfig.get_config_var("CFLAGS") or "")`)
		}
		info.AcceleratorPresent = acceleratorAvailable(ctx, cfg.Python)
	}

	if info.RuntimeMajor == 0 {
		info.RuntimeMajor = 3
		out := interpreterOutput(ctx, cfg.Python, `import sys; print(sys.version_info[0])`)
		if major, err := strconv.Atoi(out); err == nil && major > 0 {
			info.RuntimeMajor = major
		}
	}

	info.Classification = Classify(info.OS, info.CFlags, info.AcceleratorPresent)
	return info
}

// acceleratorAvailable reports whether Cython can be used by the interpreter
// that runs the build. A cython command on PATH may belong to another
// interpreter, so it only counts when no interpreter is configured.
func acceleratorAvailable(ctx context.Context, python string) bool {
	if python != "" {
		return execCommandContext(ctx, python, "-c", "import Cython").Run() == nil
	}
	return CheckRequiredTools(acceleratorRequirements) == nil
}

func interpreterOutput(ctx context.Context, python, script string) string {
	if python == "" {
		return ""
	}
	out, err := execCommandContext(ctx, python, "-c", script).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
