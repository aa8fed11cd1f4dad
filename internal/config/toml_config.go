package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/rspfix/internal/debug"
)

// tomlFile mirrors the KDL layout. Pointer fields distinguish "absent" from
// zero values so a layer only overrides what it sets.
type tomlFile struct {
	Version *int `toml:"version"`
	Project struct {
		Root *string `toml:"root"`
		Name *string `toml:"name"`
	} `toml:"project"`
	Discovery struct {
		Projects  []string `toml:"projects"`
		Solutions []string `toml:"solutions"`
		Exclude   []string `toml:"exclude"`
	} `toml:"discovery"`
	ResponseFiles struct {
		Shared        *string `toml:"shared"`
		Player        *string `toml:"player"`
		Editor        *string `toml:"editor"`
		PlayerProject *string `toml:"player_project"`
		EditorProject *string `toml:"editor_project"`
	} `toml:"response_files"`
	Patch struct {
		SkipExistingReferences *bool             `toml:"skip_existing_references"`
		Rename                 map[string]string `toml:"rename"`
		NunitHintPath          *string           `toml:"nunit_hint_path"`
		TargetFramework        *string           `toml:"target_framework"`
		LegacyTargetFramework  *string           `toml:"legacy_target_framework"`
		ExternalReferences     []string          `toml:"external_references"`
		ProjectTypeGUID        *string           `toml:"project_type_guid"`
		RenameSolutionProjects *bool             `toml:"rename_solution_projects"`
	} `toml:"patch"`
	Host struct {
		EditorPath            *string `toml:"editor_path"`
		EngineVersion         *string `toml:"engine_version"`
		ScriptingRuntime      *int    `toml:"scripting_runtime"`
		APICompatibilityLevel *int    `toml:"api_compatibility_level"`
		LangVersion           *string `toml:"lang_version"`
	} `toml:"host"`
	Watch struct {
		DebounceMs *int `toml:"debounce_ms"`
	} `toml:"watch"`
}

// ApplyTOMLFile applies the TOML file at path onto cfg. found is false when
// the file does not exist.
func ApplyTOMLFile(cfg *Config, path string) (found bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return true, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := applyTOML(cfg, data); err != nil {
		return true, fmt.Errorf("%s: %w", path, err)
	}
	debug.LogConfig("applied %s\n", path)
	return true, nil
}

func applyTOML(cfg *Config, data []byte) error {
	var f tomlFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse TOML config: %w", err)
	}

	setInt(&cfg.Version, f.Version)
	setString(&cfg.Project.Root, f.Project.Root)
	setString(&cfg.Project.Name, f.Project.Name)

	if f.Discovery.Projects != nil {
		cfg.Discovery.Projects = f.Discovery.Projects
	}
	if f.Discovery.Solutions != nil {
		cfg.Discovery.Solutions = f.Discovery.Solutions
	}
	cfg.Discovery.Exclude = append(cfg.Discovery.Exclude, f.Discovery.Exclude...)

	setString(&cfg.ResponseFiles.Shared, f.ResponseFiles.Shared)
	setString(&cfg.ResponseFiles.Player, f.ResponseFiles.Player)
	setString(&cfg.ResponseFiles.Editor, f.ResponseFiles.Editor)
	setString(&cfg.ResponseFiles.PlayerProject, f.ResponseFiles.PlayerProject)
	setString(&cfg.ResponseFiles.EditorProject, f.ResponseFiles.EditorProject)

	setBool(&cfg.Patch.SkipExistingReferences, f.Patch.SkipExistingReferences)
	for from, to := range f.Patch.Rename {
		if cfg.Patch.ReferenceRenames == nil {
			cfg.Patch.ReferenceRenames = make(map[string]string)
		}
		cfg.Patch.ReferenceRenames[from] = to
	}
	setString(&cfg.Patch.NunitHintPath, f.Patch.NunitHintPath)
	setString(&cfg.Patch.TargetFramework, f.Patch.TargetFramework)
	setString(&cfg.Patch.LegacyTargetFramework, f.Patch.LegacyTargetFramework)
	if f.Patch.ExternalReferences != nil {
		cfg.Patch.ExternalReferences = f.Patch.ExternalReferences
	}
	setString(&cfg.Patch.ProjectTypeGUID, f.Patch.ProjectTypeGUID)
	setBool(&cfg.Patch.RenameSolutionProjects, f.Patch.RenameSolutionProjects)

	setString(&cfg.Host.EditorPath, f.Host.EditorPath)
	setString(&cfg.Host.EngineVersion, f.Host.EngineVersion)
	setInt(&cfg.Host.ScriptingRuntime, f.Host.ScriptingRuntime)
	setInt(&cfg.Host.APICompatibilityLevel, f.Host.APICompatibilityLevel)
	setString(&cfg.Host.LangVersion, f.Host.LangVersion)

	setInt(&cfg.Watch.DebounceMs, f.Watch.DebounceMs)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
