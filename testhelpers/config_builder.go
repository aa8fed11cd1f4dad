// Package testhelpers provides shared utilities for testing rspfix
package testhelpers

import (
	"github.com/standardbeagle/rspfix/internal/config"
)

// TestConfigBuilder provides a fluent API for building test configs.
// Usage:
//
//	cfg := testhelpers.NewTestConfigBuilder(root).
//		WithExclusions("Temp/**").
//		WithEditor("/opt/unity").
//		Build()
type TestConfigBuilder struct {
	cfg *config.Config
}

// NewTestConfigBuilder starts from the built-in defaults for root.
func NewTestConfigBuilder(projectRoot string) *TestConfigBuilder {
	return &TestConfigBuilder{cfg: config.Default(projectRoot)}
}

// WithExclusions adds exclusion patterns
func (b *TestConfigBuilder) WithExclusions(patterns ...string) *TestConfigBuilder {
	b.cfg.Discovery.Exclude = append(b.cfg.Discovery.Exclude, patterns...)
	return b
}

// WithProjects replaces the project patterns
func (b *TestConfigBuilder) WithProjects(patterns ...string) *TestConfigBuilder {
	b.cfg.Discovery.Projects = patterns
	return b
}

// WithEditor sets the editor installation directory
func (b *TestConfigBuilder) WithEditor(path string) *TestConfigBuilder {
	b.cfg.Host.EditorPath = path
	return b
}

// WithSkipExistingReferences turns off always-append for references
func (b *TestConfigBuilder) WithSkipExistingReferences() *TestConfigBuilder {
	b.cfg.Patch.SkipExistingReferences = true
	return b
}

// WithRename adds a reference rename
func (b *TestConfigBuilder) WithRename(from, to string) *TestConfigBuilder {
	b.cfg.Patch.ReferenceRenames[from] = to
	return b
}

// WithoutExternalReferences disables editor library references
func (b *TestConfigBuilder) WithoutExternalReferences() *TestConfigBuilder {
	b.cfg.Patch.ExternalReferences = nil
	return b
}

// WithDebounce sets the watch debounce
func (b *TestConfigBuilder) WithDebounce(ms int) *TestConfigBuilder {
	b.cfg.Watch.DebounceMs = ms
	return b
}

// Build returns the config. The builder must not be reused afterwards.
func (b *TestConfigBuilder) Build() *config.Config {
	return b.cfg
}
