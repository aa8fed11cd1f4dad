// Package pathutil converts between the absolute paths rspfix works with
// internally and the root-relative paths shown to users and matched against
// discovery patterns.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/work/Game/Assembly-CSharp.csproj", "/work/Game") → "Assembly-CSharp.csproj"
//   - ToRelative("/opt/unity/Editor/Data", "/work/Game") → "/opt/unity/Editor/Data" (outside root)
//   - ToRelative("Assets/mcs.rsp", "/work/Game") → "Assets/mcs.rsp" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Conversion failed (e.g., different drives on Windows) - return absolute
		return absPath
	}

	// Outside the root the absolute path is clearer
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return absPath
	}

	return relPath
}

// ToSlashRelative returns path relative to rootDir with forward slashes, the
// form doublestar patterns are written in. ok is false for paths outside
// the root.
func ToSlashRelative(path, rootDir string) (rel string, ok bool) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path)), true
	}
	r, err := filepath.Rel(filepath.Clean(rootDir), filepath.Clean(path))
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(r), true
}

// ToRelativeAll converts every path with ToRelative. Creates a new slice
// without modifying the input.
func ToRelativeAll(paths []string, rootDir string) []string {
	if len(paths) == 0 {
		return paths
	}
	converted := make([]string, len(paths))
	for i, p := range paths {
		converted[i] = ToRelative(p, rootDir)
	}
	return converted
}
