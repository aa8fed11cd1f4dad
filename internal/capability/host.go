package capability

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/rspfix/internal/config"
	"github.com/standardbeagle/rspfix/internal/debug"
	rsperrors "github.com/standardbeagle/rspfix/internal/errors"
	"github.com/standardbeagle/rspfix/internal/fsys"
)

// Files read from the project, relative to its root
const (
	ProjectVersionFile  = "ProjectSettings/ProjectVersion.txt"
	ProjectSettingsFile = "ProjectSettings/ProjectSettings.asset"
)

// Directories whose presence enables a newer language level
var languageSupportDirs = []struct {
	dir     string
	version string
}{
	{"CSharp70Support", "7"},
	{"CSharp60Support", "6"},
}

// HostProbe derives Capabilities from the project's settings files, with
// explicit configuration taking precedence.
type HostProbe struct {
	fs   fsys.FS
	root string
	host config.Host
}

// NewHostProbe creates a probe for the project rooted at root.
func NewHostProbe(fs fsys.FS, root string, host config.Host) *HostProbe {
	return &HostProbe{fs: fs, root: root, host: host}
}

type projectVersion struct {
	EditorVersion string `yaml:"m_EditorVersion"`
}

type playerSettingsAsset struct {
	PlayerSettings struct {
		ScriptingRuntimeVersion *int `yaml:"scriptingRuntimeVersion"`
		APICompatibilityLevel   *int `yaml:"apiCompatibilityLevel"`
	} `yaml:"PlayerSettings"`
}

// Capabilities reads the settings files. Missing files are not errors;
// unreadable or malformed ones are.
func (p *HostProbe) Capabilities() (Capabilities, error) {
	caps := Capabilities{
		EditorPath:            p.host.EditorPath,
		ScriptingRuntime:      p.host.ScriptingRuntime,
		APICompatibilityLevel: p.host.APICompatibilityLevel,
	}

	engine := p.host.EngineVersion
	if engine == "" {
		v, err := p.readEngineVersion()
		if err != nil {
			return Capabilities{}, err
		}
		engine = v
	}
	caps.EngineVersion = ParseVersion(engine)

	if caps.ScriptingRuntime == 0 || caps.APICompatibilityLevel == 0 {
		runtime, level, err := p.readPlayerSettings()
		if err != nil {
			return Capabilities{}, err
		}
		if caps.ScriptingRuntime == 0 {
			caps.ScriptingRuntime = runtime
		}
		if caps.APICompatibilityLevel == 0 {
			caps.APICompatibilityLevel = level
		}
	}
	if caps.APICompatibilityLevel == 0 {
		caps.APICompatibilityLevel = config.DefaultAPICompatibilityLevel
	}

	caps.LanguageVersion = p.host.LangVersion
	if caps.LanguageVersion == "" {
		caps.LanguageVersion = p.languageLevel(caps.APICompatibilityLevel)
	}

	debug.Log(debug.Probe, "engine=%s runtime=%d api=%d lang=%s editor=%q\n",
		caps.EngineVersion, caps.ScriptingRuntime, caps.APICompatibilityLevel, caps.LanguageVersion, caps.EditorPath)
	return caps, nil
}

func (p *HostProbe) path(rel string) string {
	return filepath.Join(p.root, filepath.FromSlash(rel))
}

func (p *HostProbe) readEngineVersion() (string, error) {
	path := p.path(ProjectVersionFile)
	if !p.fs.Exists(path) {
		return "", nil
	}
	data, err := p.fs.ReadFile(path)
	if err != nil {
		return "", rsperrors.NewFileError("read", path, err)
	}

	var pv projectVersion
	if err := yaml.Unmarshal(data, &pv); err != nil {
		return "", rsperrors.NewDocumentParseError(path, 0, err)
	}
	return pv.EditorVersion, nil
}

func (p *HostProbe) readPlayerSettings() (runtime, apiLevel int, err error) {
	path := p.path(ProjectSettingsFile)
	if !p.fs.Exists(path) {
		return 0, 0, nil
	}
	data, err := p.fs.ReadFile(path)
	if err != nil {
		return 0, 0, rsperrors.NewFileError("read", path, err)
	}

	var asset playerSettingsAsset
	if err := yaml.Unmarshal(stripAssetHeader(data), &asset); err != nil {
		return 0, 0, rsperrors.NewDocumentParseError(path, 0, err)
	}
	if v := asset.PlayerSettings.ScriptingRuntimeVersion; v != nil {
		runtime = *v
	}
	if v := asset.PlayerSettings.APICompatibilityLevel; v != nil {
		apiLevel = *v
	}
	return runtime, apiLevel, nil
}

// stripAssetHeader drops the %YAML/%TAG directives and the tagged document
// marker ("--- !u!129 &1") that engine asset files start with.
func stripAssetHeader(data []byte) []byte {
	var out bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "%") || strings.HasPrefix(line, "---") {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}

// languageLevel picks the C# language version the way the engine's
// compiler would see it.
func (p *HostProbe) languageLevel(apiLevel int) string {
	for _, l := range languageSupportDirs {
		if p.fs.DirExists(p.path(l.dir)) {
			return l.version
		}
	}
	if apiLevel >= 3 {
		return "6"
	}
	return "4"
}
