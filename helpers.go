package pyext

import (
	"path/filepath"
	"regexp"
	"strings"
)

// MatchesPattern checks if a filename matches any of the given regex patterns.
//
// Invalid patterns are silently skipped.
//
//	// Versioned shared objects
//	if MatchesPattern(name, `\.so(\.\d+)*$`) {
//	    // libfoo.so, libfoo.so.1, libfoo.so.1.2
//	}
func MatchesPattern(filename string, patterns ...string) bool {
	for _, pattern := range patterns {
		if matched, _ := regexp.MatchString(pattern, filename); matched {
			return true
		}
	}
	return false
}

// MatchesExtension checks if a filename has any of the given extensions.
//
// This is a case-insensitive suffix check; extensions may be given with or
// without the leading dot.
//
//	if MatchesExtension(filename, ".pyx") {
//	    // Cython bridging source
//	}
func MatchesExtension(filename string, extensions ...string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// IsNativeLibrary reports whether path looks like a shared library,
// including versioned shared objects such as libfoo.so.1.
func IsNativeLibrary(path string) bool {
	if MatchesExtension(path, ".so", ".dylib", ".dll", ".pyd") {
		return true
	}
	return MatchesPattern(filepath.Base(path), `\.so(\.\d+)+$`)
}

// IsWindowsLike reports whether an OS identifier names a Windows host.
// Accepts Go's GOOS ("windows") as well as the interpreter spellings ("nt", "win32").
func IsWindowsLike(osName string) bool {
	switch strings.ToLower(strings.TrimSpace(osName)) {
	case "windows", "nt", "win32":
		return true
	}
	return false
}

// IsDarwin reports whether an OS identifier names macOS.
func IsDarwin(osName string) bool {
	return strings.EqualFold(strings.TrimSpace(osName), "darwin")
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}

// splitPathList splits an OS path list (":" or ";" separated) into directories.
func splitPathList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	return uniqueStrings(filepath.SplitList(list))
}
