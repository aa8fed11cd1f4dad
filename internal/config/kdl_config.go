package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hbollon/go-edlib"
	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/rspfix/internal/debug"
)

// Known keys per section, used for unknown-key suggestions
var knownKeys = map[string][]string{
	"":               {"version", "project", "discovery", "response_files", "patch", "host", "watch"},
	"project":        {"root", "name"},
	"discovery":      {"projects", "solutions", "exclude"},
	"response_files": {"shared", "player", "editor", "player_project", "editor_project"},
	"patch": {"skip_existing_references", "rename", "nunit_hint_path", "target_framework",
		"legacy_target_framework", "external_references", "project_type_guid", "rename_solution_projects"},
	"host":  {"editor_path", "engine_version", "scripting_runtime", "api_compatibility_level", "lang_version"},
	"watch": {"debounce_ms"},
}

// ApplyKDLFile applies the KDL file at path onto cfg. found is false when
// the file does not exist.
func ApplyKDLFile(cfg *Config, path string) (found bool, err error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return true, fmt.Errorf("failed to read %s: %w", path, err)
	}

	warnings, err := applyKDL(cfg, string(content))
	if err != nil {
		return true, fmt.Errorf("%s: %w", path, err)
	}
	for _, w := range warnings {
		log.Printf("WARNING: %s: %s", path, w)
	}
	debug.LogConfig("applied %s\n", path)
	return true, nil
}

// applyKDL overlays the KDL document onto cfg and returns warnings for keys
// it does not understand.
func applyKDL(cfg *Config, content string) ([]string, error) {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	var warnings []string
	unknown := func(section string, n *document.Node) {
		warnings = append(warnings, unknownKeyWarning(section, nodeName(n)))
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children { // project { root "." name "game" }
				switch nodeName(cn) {
				case "root":
					assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				case "name":
					assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
				default:
					unknown("project", cn)
				}
			}
		case "discovery":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "projects":
					cfg.Discovery.Projects = collectStringArgs(cn)
				case "solutions":
					cfg.Discovery.Solutions = collectStringArgs(cn)
				case "exclude":
					cfg.Discovery.Exclude = append(cfg.Discovery.Exclude, collectStringArgs(cn)...)
				default:
					unknown("discovery", cn)
				}
			}
		case "response_files":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "shared":
					assignSimpleString(cn, "shared", func(v string) { cfg.ResponseFiles.Shared = v })
				case "player":
					assignSimpleString(cn, "player", func(v string) { cfg.ResponseFiles.Player = v })
				case "editor":
					assignSimpleString(cn, "editor", func(v string) { cfg.ResponseFiles.Editor = v })
				case "player_project":
					assignSimpleString(cn, "player_project", func(v string) { cfg.ResponseFiles.PlayerProject = v })
				case "editor_project":
					assignSimpleString(cn, "editor_project", func(v string) { cfg.ResponseFiles.EditorProject = v })
				default:
					unknown("response_files", cn)
				}
			}
		case "patch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "skip_existing_references":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Patch.SkipExistingReferences = b
					}
				case "rename":
					// rename "System.XML" "System.Xml"
					args := collectStringArgs(cn)
					if len(args) != 2 {
						warnings = append(warnings, fmt.Sprintf("patch.rename expects two strings, got %d", len(args)))
						continue
					}
					if cfg.Patch.ReferenceRenames == nil {
						cfg.Patch.ReferenceRenames = make(map[string]string)
					}
					cfg.Patch.ReferenceRenames[args[0]] = args[1]
				case "nunit_hint_path":
					assignSimpleString(cn, "nunit_hint_path", func(v string) { cfg.Patch.NunitHintPath = v })
				case "target_framework":
					assignSimpleString(cn, "target_framework", func(v string) { cfg.Patch.TargetFramework = v })
				case "legacy_target_framework":
					assignSimpleString(cn, "legacy_target_framework", func(v string) { cfg.Patch.LegacyTargetFramework = v })
				case "external_references":
					cfg.Patch.ExternalReferences = collectStringArgs(cn)
				case "project_type_guid":
					assignSimpleString(cn, "project_type_guid", func(v string) { cfg.Patch.ProjectTypeGUID = v })
				case "rename_solution_projects":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Patch.RenameSolutionProjects = b
					}
				default:
					unknown("patch", cn)
				}
			}
		case "host":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "editor_path":
					assignSimpleString(cn, "editor_path", func(v string) { cfg.Host.EditorPath = v })
				case "engine_version":
					assignSimpleString(cn, "engine_version", func(v string) { cfg.Host.EngineVersion = v })
				case "scripting_runtime":
					if v, ok := firstIntArg(cn); ok {
						cfg.Host.ScriptingRuntime = v
					}
				case "api_compatibility_level":
					if v, ok := firstIntArg(cn); ok {
						cfg.Host.APICompatibilityLevel = v
					}
				case "lang_version":
					assignSimpleString(cn, "lang_version", func(v string) { cfg.Host.LangVersion = v })
				default:
					unknown("host", cn)
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				default:
					unknown("watch", cn)
				}
			}
		default:
			unknown("", n)
		}
	}

	return warnings, nil
}

// unknownKeyWarning names the closest known key when one is near enough to
// be a typo.
func unknownKeyWarning(section, key string) string {
	where := key
	if section != "" {
		where = section + "." + key
	}
	msg := fmt.Sprintf("unknown key %q", where)
	if s := suggestKey(key, knownKeys[section]); s != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return msg
}

func suggestKey(key string, known []string) string {
	best := ""
	bestDistance := 1000
	for _, candidate := range known {
		d := edlib.LevenshteinDistance(key, candidate)
		if d < bestDistance {
			bestDistance = d
			best = candidate
		}
	}
	// Allow roughly one typo per four characters
	if best == "" || bestDistance > max(1, len(key)/4) {
		return ""
	}
	return best
}

// Helper functions over the kdl-go document model
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}
func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		log.Printf("WARNING: invalid integer value for '%s' in KDL config, got %T", nodeName(n), n.Arguments[0].Value)
		return 0, false
	}
}
func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}
func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	// Inline format: projects "*.csproj" "Game/*.csproj"
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block format: exclude { "Temp/**" }; the node name is the string value
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}
func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
