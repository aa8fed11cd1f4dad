package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"

	rsperrors "github.com/standardbeagle/rspfix/internal/errors"
)

var guidPattern = regexp.MustCompile(`^\{[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}\}$`)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
// Returns an error if validation fails
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if cfg.Project.Root == "" {
		return rsperrors.NewConfigError("project.root", "", errors.New("project root cannot be empty"))
	}

	if err := v.validateDiscovery(&cfg.Discovery); err != nil {
		return err
	}

	if err := v.validatePatch(&cfg.Patch); err != nil {
		return err
	}

	if cfg.Host.ScriptingRuntime < 0 {
		return rsperrors.NewConfigError("host.scripting_runtime", fmt.Sprint(cfg.Host.ScriptingRuntime),
			errors.New("cannot be negative"))
	}

	if cfg.Watch.DebounceMs < 0 {
		return rsperrors.NewConfigError("watch.debounce_ms", fmt.Sprint(cfg.Watch.DebounceMs),
			errors.New("cannot be negative"))
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateDiscovery(d *Discovery) error {
	if len(d.Projects) == 0 {
		return rsperrors.NewConfigError("discovery.projects", "", errors.New("at least one pattern is required"))
	}
	for field, patterns := range map[string][]string{
		"discovery.projects":  d.Projects,
		"discovery.solutions": d.Solutions,
		"discovery.exclude":   d.Exclude,
	} {
		for _, p := range patterns {
			if !doublestar.ValidatePattern(p) {
				return rsperrors.NewConfigError(field, p, doublestar.ErrBadPattern)
			}
		}
	}
	return nil
}

func (v *Validator) validatePatch(p *Patch) error {
	if p.ProjectTypeGUID != "" && !guidPattern.MatchString(p.ProjectTypeGUID) {
		return rsperrors.NewConfigError("patch.project_type_guid", p.ProjectTypeGUID,
			errors.New("expected a braced GUID such as {E097FAD1-6243-4DAD-9C02-E9B9EFC3FFC1}"))
	}
	for from, to := range p.ReferenceRenames {
		if from == "" || to == "" {
			return rsperrors.NewConfigError("patch.rename", from+" -> "+to, errors.New("names cannot be empty"))
		}
	}
	return nil
}

// setSmartDefaults fills values a partial config file may have blanked
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Patch.TargetFramework == "" {
		cfg.Patch.TargetFramework = DefaultTargetFramework
	}
	if cfg.Patch.LegacyTargetFramework == "" {
		cfg.Patch.LegacyTargetFramework = DefaultLegacyTargetFramework
	}
	if cfg.Patch.ProjectTypeGUID == "" {
		cfg.Patch.ProjectTypeGUID = DefaultProjectTypeGUID
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 300
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
