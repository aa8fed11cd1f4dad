package config

import (
	"os"
	"path/filepath"
)

// File names looked up in the project root and the home directory
const (
	KDLFileName  = ".rspfix.kdl"
	TOMLFileName = ".rspfix.toml"
)

// Engine defaults
const (
	DefaultProjectTypeGUID       = "{E097FAD1-6243-4DAD-9C02-E9B9EFC3FFC1}"
	DefaultTargetFramework       = "4.6"
	DefaultLegacyTargetFramework = "3.5"
	DefaultNunitHintPath         = "Library/resharper-unity-libs/nunit3.5.0/nunit.framework.dll"
	DefaultAPICompatibilityLevel = 3 // assumed when the player settings do not say
)

type Config struct {
	Version       int
	Project       Project
	Discovery     Discovery
	ResponseFiles ResponseFiles
	Patch         Patch
	Host          Host
	Watch         Watch
}

type Project struct {
	Root string
	Name string
}

// Discovery selects the files to post-process, as doublestar patterns
// relative to the project root.
type Discovery struct {
	Projects  []string
	Solutions []string
	Exclude   []string
}

// ResponseFiles locates compiler response files (relative to the root) and
// names the projects they belong to.
type ResponseFiles struct {
	Shared        string // applies to every project and is preferred when present
	Player        string
	Editor        string
	PlayerProject string
	EditorProject string
}

type Patch struct {
	SkipExistingReferences bool              // do not append a reference that is already present
	ReferenceRenames       map[string]string // misspelled Include -> canonical Include
	NunitHintPath          string            // relative to the root
	TargetFramework        string            // used with the new scripting runtime
	LegacyTargetFramework  string
	ExternalReferences     []string // editor-bundled libraries referenced when installed
	ProjectTypeGUID        string
	RenameSolutionProjects bool
}

// Host describes the editor installation. Empty or zero values mean
// "detect" where detection is possible.
type Host struct {
	EditorPath            string
	EngineVersion         string
	ScriptingRuntime      int
	APICompatibilityLevel int
	LangVersion           string
}

type Watch struct {
	DebounceMs int
}

// Default returns the built-in configuration for root.
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{
			Root: root,
			Name: filepath.Base(root),
		},
		Discovery: Discovery{
			Projects:  []string{"*.csproj"},
			Solutions: []string{"*.sln"},
			Exclude:   []string{},
		},
		ResponseFiles: ResponseFiles{
			Shared:        "Assets/mcs.rsp",
			Player:        "Assets/smcs.rsp",
			Editor:        "Assets/gmcs.rsp",
			PlayerProject: "Assembly-CSharp.csproj",
			EditorProject: "Assembly-CSharp-Editor.csproj",
		},
		Patch: Patch{
			ReferenceRenames: map[string]string{
				"System.XML": "System.Xml",
			},
			NunitHintPath:         DefaultNunitHintPath,
			TargetFramework:       DefaultTargetFramework,
			LegacyTargetFramework: DefaultLegacyTargetFramework,
			ExternalReferences: []string{
				"UnityEditor.iOS.Extensions.Xcode.dll",
				"UnityEditor.iOS.Extensions.Common.dll",
			},
			ProjectTypeGUID:        DefaultProjectTypeGUID,
			RenameSolutionProjects: true,
		},
		Watch: Watch{
			DebounceMs: 300,
		},
	}
}

// Load reads configuration for the project rooted at root.
func Load(root string) (*Config, error) {
	homeDir, _ := os.UserHomeDir()
	return LoadWithHome(root, homeDir)
}

// LoadWithHome layers configuration: built-in defaults, then the global file
// in homeDir (if any), then the project file in root. Later layers override
// scalar values; exclusion patterns accumulate.
func LoadWithHome(root, homeDir string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	cfg := Default(absRoot)

	if homeDir != "" && filepath.Clean(homeDir) != absRoot {
		if err := applyFileLayer(cfg, homeDir); err != nil {
			return nil, err
		}
		// A global file must not move the project
		cfg.Project.Root = absRoot
	}

	if err := applyFileLayer(cfg, absRoot); err != nil {
		return nil, err
	}

	if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(absRoot, cfg.Project.Root))
	}
	cfg.Discovery.Exclude = DeduplicatePatterns(cfg.Discovery.Exclude)

	return cfg, nil
}

// applyFileLayer applies the KDL file in dir, or the TOML file when there is
// no KDL file. A directory with neither is not an error.
func applyFileLayer(cfg *Config, dir string) error {
	if found, err := ApplyKDLFile(cfg, filepath.Join(dir, KDLFileName)); found || err != nil {
		return err
	}
	_, err := ApplyTOMLFile(cfg, filepath.Join(dir, TOMLFileName))
	return err
}

// ResolvePath joins a root-relative path onto the project root.
func (c *Config) ResolvePath(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Project.Root, filepath.FromSlash(rel))
}

// DeduplicatePatterns removes duplicate patterns, keeping first occurrences
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
