// Package capability describes what the engine installation behind a project
// supports. The patcher never asks the host directly; it receives a Probe.
package capability

// Capabilities are the host facts that influence patching.
type Capabilities struct {
	EngineVersion         Version
	ScriptingRuntime      int // 0 is the legacy runtime
	APICompatibilityLevel int
	LanguageVersion       string
	EditorPath            string // editor installation directory, "" when unknown
}

// NewRuntime reports whether the project targets the newer scripting runtime.
func (c Capabilities) NewRuntime() bool {
	return c.ScriptingRuntime > 0
}

// LegacyResponseFiles reports whether unsafe and define settings from
// response files must be copied into projects. Engines from 2017.1 on do
// this themselves; an unknown engine is treated as old.
func (c Capabilities) LegacyResponseFiles() bool {
	return c.EngineVersion.Less(2017, 1)
}

// BundledNunit reports whether the engine expects NUnit 3.5 (5.6 and later).
func (c Capabilities) BundledNunit() bool {
	return c.EngineVersion.AtLeast(5, 6)
}

// Probe supplies Capabilities.
type Probe interface {
	Capabilities() (Capabilities, error)
}

// Static is a Probe with fixed answers.
type Static struct {
	Value Capabilities
	Err   error
}

func (s Static) Capabilities() (Capabilities, error) {
	return s.Value, s.Err
}
