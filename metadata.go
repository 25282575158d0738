package pyext

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/parser"
	"github.com/pelletier/go-toml/v2"
)

//go:embed libinfo_schema.cue
var libInfoSchema []byte

// maxMetadataSize bounds the metadata unit; a libinfo file is a few lines.
const maxMetadataSize = 1 << 20

// LibrarySearch describes where the compiled native library may live.
type LibrarySearch struct {
	Names      []string `json:"names"`
	SearchDirs []string `json:"search_dirs"`
	EnvVar     string   `json:"env_var,omitempty"`
}

// Metadata is the content of the isolated metadata unit.
type Metadata struct {
	Version string        `json:"version"`
	Library LibrarySearch `json:"library"`

	// Source is the absolute path of the file the metadata was loaded from.
	Source string `json:"-"`
}

// LoadMetadata evaluates the metadata file at path as an isolated unit.
//
// CUE files are compiled in a fresh context and may not import anything.
// TOML files are decoded with a plain parser. Both forms are unified with the
// embedded #LibInfo schema, so they accept exactly the same content. Any
// other extension is treated as CUE.
//
// Nothing besides the file itself is read, and no package-level state is
// touched, so loading never depends on the package whose library is being
// searched for.
func LoadMetadata(path string) (*Metadata, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &MetadataLoadError{Path: path, Err: err}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &MetadataLoadError{Path: path, Err: err}
	}
	if len(data) > maxMetadataSize {
		return nil, &MetadataLoadError{Path: path, Err: fmt.Errorf("file size %d exceeds limit %d", len(data), maxMetadataSize)}
	}

	var meta *Metadata
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".toml":
		meta, err = decodeTOMLMetadata(data, abs)
	default:
		meta, err = decodeCUEMetadata(data, abs)
	}
	if err != nil {
		return nil, &MetadataLoadError{Path: path, Err: err}
	}

	if err := meta.validate(); err != nil {
		return nil, &MetadataLoadError{Path: path, Err: err}
	}

	meta.Source = abs
	return meta, nil
}

func decodeCUEMetadata(data []byte, filename string) (*Metadata, error) {
	f, err := parser.ParseFile(filename, data)
	if err != nil {
		return nil, formatCUEError(err, filename)
	}
	if len(f.Imports) > 0 {
		return nil, fmt.Errorf("%s: metadata unit must not import packages (found %d import(s))", filename, len(f.Imports))
	}

	ctx := cuecontext.New()
	userValue := ctx.BuildFile(f)
	if userValue.Err() != nil {
		return nil, formatCUEError(userValue.Err(), filename)
	}
	return decodeLibInfo(ctx, userValue, filename)
}

// decodeTOMLMetadata parses the TOML form into plain values and checks them
// against the same #LibInfo schema as the CUE form.
func decodeTOMLMetadata(data []byte, filename string) (*Metadata, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%s: line %d, column %d: %w", filename, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	ctx := cuecontext.New()
	userValue := ctx.Encode(raw)
	if userValue.Err() != nil {
		return nil, formatCUEError(userValue.Err(), filename)
	}
	return decodeLibInfo(ctx, userValue, filename)
}

// decodeLibInfo unifies userValue with the embedded #LibInfo schema,
// requires a concrete result and decodes it.
func decodeLibInfo(ctx *cue.Context, userValue cue.Value, filename string) (*Metadata, error) {
	schemaValue := ctx.CompileBytes(libInfoSchema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile libinfo schema: %w", schemaValue.Err())
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#LibInfo")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename)
	}

	var meta Metadata
	if err := unified.Decode(&meta); err != nil {
		return nil, formatCUEError(err, filename)
	}
	return &meta, nil
}

// validate adds the checks the schema does not express: library names must
// be bare file names, not paths.
func (m *Metadata) validate() error {
	for i, name := range m.Library.Names {
		if filepath.Base(name) != name {
			return fmt.Errorf("library.names[%d]: %q must be a bare file name", i, name)
		}
	}
	return nil
}

// SearchPaths returns every path FindLibPath would check, in order.
//
// extraDirs are searched first; relative extra directories are taken as-is
// (relative to the working directory). The declared search directories are
// relative to the metadata file's own directory.
func (m *Metadata) SearchPaths(extraDirs ...string) []string {
	var dirs []string
	for _, dir := range extraDirs {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		dirs = append(dirs, filepath.Clean(dir))
	}

	base := filepath.Dir(m.Source)
	for _, dir := range m.Library.SearchDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
		dirs = append(dirs, filepath.Clean(dir))
	}

	var paths []string
	for _, dir := range uniqueStrings(dirs) {
		for _, name := range m.Library.Names {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return uniqueStrings(paths)
}

// FindLibPath is the library search function exposed by the metadata unit.
//
// It returns the absolute paths of every existing library file, in search
// order. It only stats files; an empty result means nothing was found.
func (m *Metadata) FindLibPath(extraDirs ...string) []string {
	var found []string
	for _, path := range m.SearchPaths(extraDirs...) {
		if isRegularFile(path) {
			found = append(found, path)
		}
	}
	return found
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// formatCUEError formats a CUE error with path prefixes, e.g.
//
//	libinfo.cue: library.names[0]: invalid value "" (out of bound !="")
func formatCUEError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrors := cueerrors.Errors(err)
	if len(cueErrors) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	var lines []string
	for _, e := range cueErrors {
		pathStr := formatCUEPath(cueerrors.Path(e))
		msg := e.Error()
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}
		if pathStr != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", pathStr, msg))
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// formatCUEPath turns ["library", "names", "0"] into "library.names[0]".
func formatCUEPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			sb.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(part)
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
