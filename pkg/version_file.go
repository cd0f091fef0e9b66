package cutarelease

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/buger/jsonparser"
)

// Format identifies how a version file encodes its version.
type Format int

const (
	FormatUnknown Format = iota
	// FormatJSON is a manifest with a top-level "version" field (package.json).
	FormatJSON
	// FormatJavaScript holds a `var VERSION = "1.2.3";` line.
	FormatJavaScript
	// FormatPython holds a `__version_info__ = (1, 2, 3)` line.
	FormatPython
	// FormatVersion is a VERSION or VERSION.txt file holding only the version.
	FormatVersion
)

func (f Format) String() string {
	if s, ok := formats[f]; ok {
		return s.name
	}
	return "unknown"
}

// formatStrategy is the codec for one Format.
type formatStrategy struct {
	name    string
	aliases []string
	ext     string
	// extract returns the version encoded in content.
	extract func(content string) (VersionInfo, error)
	// rewrite replaces the encoding of current with next.
	rewrite func(content string, current, next VersionInfo) (string, error)
}

var formats = map[Format]formatStrategy{
	FormatJSON: {
		name:    "json",
		ext:     ".json",
		extract: extractJSON,
		rewrite: rewriteJSON,
	},
	FormatJavaScript: {
		name:    "javascript",
		aliases: []string{"js"},
		ext:     ".js",
		extract: extractJavaScript,
		rewrite: rewriteJavaScript,
	},
	FormatPython: {
		name:    "python",
		aliases: []string{"py"},
		ext:     ".py",
		extract: extractPython,
		rewrite: rewritePython,
	},
	FormatVersion: {
		name:    "version",
		aliases: []string{"text"},
		extract: extractPlain,
		rewrite: rewritePlain,
	},
}

// ParseFormat resolves a format name or alias.
func ParseFormat(name string) (Format, error) {
	for f, s := range formats {
		if s.name == name {
			return f, nil
		}
		for _, a := range s.aliases {
			if a == name {
				return f, nil
			}
		}
	}
	return FormatUnknown, errorf(ErrUnrecognizedFormat, "unknown version file type %q", name)
}

// VersionFile is a parsed version file.
type VersionFile struct {
	// Path as given (relative to the project directory unless absolute).
	Path    string
	Format  Format
	Version VersionInfo
	content string
}

// Content returns the file content as it was read.
func (vf *VersionFile) Content() string { return vf.content }

// Rewrite returns the file content with the encoding of current replaced by
// next. current is the authoritative release version, so a file holding a
// different version fails with ErrMarkerNotFound.
func (vf *VersionFile) Rewrite(current, next VersionInfo) (string, error) {
	out, err := formats[vf.Format].rewrite(vf.content, current, next)
	if err != nil {
		return "", fmt.Errorf("%w in %q: can't prep for subsequent dev", err, vf.Path)
	}
	return out, nil
}

var typePrefixRe = regexp.MustCompile(`^([a-z]+):(.*)$`)

// SplitVersionFileSpec splits "type:path" into its parts. A spec without a
// type prefix returns FormatUnknown.
func SplitVersionFileSpec(spec string) (Format, string, error) {
	m := typePrefixRe.FindStringSubmatch(spec)
	if m == nil {
		return FormatUnknown, spec, nil
	}
	f, err := ParseFormat(m[1])
	if err != nil {
		return FormatUnknown, "", err
	}
	return f, m[2], nil
}

// ParseVersionFile reads the version file described by spec ("path" or
// "type:path"), resolving relative paths against dir.
func ParseVersionFile(dir, spec string) (*VersionFile, error) {
	format, path, err := SplitVersionFileSpec(spec)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolve(dir, path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errorf(ErrNoVersionFile, "version file %q not found", path)
		}
		return nil, fmt.Errorf("failed to read version file %q: %w", path, err)
	}
	vf := &VersionFile{Path: path, Format: format, content: string(data)}
	if vf.Format == FormatUnknown {
		vf.Format = DetectFormat(path, vf.content)
	}
	if vf.Format == FormatUnknown {
		return nil, errorf(ErrUnrecognizedFormat, "can't extract version from %q: no idea what type of file it is", path)
	}
	info, err := formats[vf.Format].extract(vf.content)
	if err != nil {
		return nil, fmt.Errorf("%w in %q", err, path)
	}
	vf.Version = info
	return vf, nil
}

var shebangSplitRe = regexp.MustCompile(`[/ \t]`)

// DetectFormat guesses the format of a version file from its extension,
// then its shebang line, then its base name.
func DetectFormat(path, content string) Format {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	for f, s := range formats {
		if s.ext != "" && s.ext == ext {
			return f
		}
	}
	if strings.HasPrefix(content, "#!") {
		shebang, _, _ := strings.Cut(content, "\n")
		for _, bit := range shebangSplitRe.Split(strings.TrimRight(shebang, "\r"), -1) {
			switch bit {
			case "python":
				return FormatPython
			case "node":
				return FormatJavaScript
			}
		}
	}
	if base == "VERSION" || base == "VERSION.txt" {
		return FormatVersion
	}
	return FormatUnknown
}

func extractJSON(content string) (VersionInfo, error) {
	v, err := jsonparser.GetString([]byte(content), "version")
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return nil, errorf(ErrMissingMarker, `no "version" field`)
		}
		return nil, errorf(ErrFormat, "bad json: %v", err)
	}
	return ParseVersion(v)
}

func jsonMarker(v VersionInfo) string {
	return fmt.Sprintf(`"version": "%s"`, v)
}

func rewriteJSON(content string, current, next VersionInfo) (string, error) {
	marker := jsonMarker(current)
	if !strings.Contains(content, marker) {
		return "", errorf(ErrMarkerNotFound, "couldn't find `%s' version marker", marker)
	}
	return strings.Replace(content, marker, jsonMarker(next), 1), nil
}

var jsVersionRe = regexp.MustCompile(`(?m)^var VERSION = (?:'([^']*)'|"([^"]*)");\r?$`)

func extractJavaScript(content string) (VersionInfo, error) {
	m := jsVersionRe.FindStringSubmatch(content)
	if m == nil {
		return nil, errorf(ErrMissingMarker, "no `var VERSION = \"...\";' line")
	}
	return ParseVersion(m[1] + m[2])
}

func rewriteJavaScript(content string, current, next VersionInfo) (string, error) {
	for _, q := range []string{"'", `"`} {
		marker := "var VERSION = " + q + current.String() + q + ";"
		if strings.Contains(content, marker) {
			return strings.Replace(content, marker, "var VERSION = "+q+next.String()+q+";", 1), nil
		}
	}
	return "", errorf(ErrMarkerNotFound, "couldn't find `var VERSION = '%s';' or `var VERSION = \"%s\";' version marker", current, current)
}

var pyVersionRe = regexp.MustCompile(`(?m)^__version_info__ = (.*?)\r?$`)

func extractPython(content string) (VersionInfo, error) {
	m := pyVersionRe.FindStringSubmatch(content)
	if m == nil {
		return nil, errorf(ErrMissingMarker, "no `__version_info__ = (...)' line")
	}
	// Tags are alphanumeric, so a '#' always starts a comment.
	literal, _, _ := strings.Cut(m[1], "#")
	return ParseTuple(literal)
}

func rewritePython(content string, current, next VersionInfo) (string, error) {
	marker := "__version_info__ = " + current.Tuple()
	if !strings.Contains(content, marker) {
		return "", errorf(ErrMarkerNotFound, "couldn't find `%s' version marker", marker)
	}
	return strings.Replace(content, marker, "__version_info__ = "+next.Tuple(), 1), nil
}

func extractPlain(content string) (VersionInfo, error) {
	return ParseVersion(strings.TrimSpace(content))
}

func rewritePlain(content string, current, next VersionInfo) (string, error) {
	if strings.TrimSpace(content) != current.String() {
		return "", errorf(ErrMarkerNotFound, "expected version %q as the whole content", current)
	}
	return strings.Replace(content, current.String(), next.String(), 1), nil
}

func resolve(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
