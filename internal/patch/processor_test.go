package patch

import (
	"errors"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rspfix/internal/capability"
	rsperrors "github.com/standardbeagle/rspfix/internal/errors"
	"github.com/standardbeagle/rspfix/internal/fsys"
	"github.com/standardbeagle/rspfix/testhelpers"
)

func resultFor(t *testing.T, r Report, path string) FileResult {
	t.Helper()
	for _, f := range r.Files {
		if f.Path == path {
			return f
		}
	}
	t.Fatalf("no result for %s", path)
	return FileResult{}
}

func unityProject(t *testing.T) *fsys.Mem {
	t.Helper()
	return fsys.NewMem().
		AddFile(at("Assets/mcs.rsp"), "-unsafe -define:GAME_DEFINE\n").
		AddFile(at("Assembly-CSharp.csproj"), testhelpers.NewProjectBuilder().WithReference("System.XML", "").Build()).
		AddFile(at("Assembly-CSharp-Editor.csproj"), testhelpers.NewProjectBuilder().Build()).
		AddFile(at("Broken.csproj"), "<Project>\n  <PropertyGroup>\n</Project>\n").
		AddFile(at("Game.sln"), testhelpers.Solution("Assembly-CSharp.csproj", "Assembly-CSharp-Editor.csproj"))
}

func TestProcessor_Run(t *testing.T) {
	fs := unityProject(t)
	proc := NewProcessor(fs, testConfig(), capability.Static{Value: legacyEngine()}, Options{})

	report := proc.Run()
	require.Len(t, report.Files, 4)
	assert.Equal(t, 3, report.Changed())

	broken := resultFor(t, report, at("Broken.csproj"))
	var parseErr *rsperrors.DocumentParseError
	require.ErrorAs(t, broken.Err, &parseErr)
	assert.Equal(t, at("Broken.csproj"), parseErr.Path)
	assert.Equal(t, "<Project>\n  <PropertyGroup>\n</Project>\n", fs.Content(at("Broken.csproj")), "malformed files are left untouched")
	assert.Len(t, report.Errors(), 1)

	player := fs.Content(at("Assembly-CSharp.csproj"))
	assert.Contains(t, player, "<AllowUnsafeBlocks>true</AllowUnsafeBlocks>")
	assert.Contains(t, player, "UNITY_5_6;GAME_DEFINE<")
	assert.Contains(t, player, `Include="System.Xml"`)

	editorProject := fs.Content(at("Assembly-CSharp-Editor.csproj"))
	assert.Contains(t, editorProject, "UNITY_5_6;GAME_DEFINE<")

	sln := resultFor(t, report, at("Game.sln"))
	assert.Equal(t, KindSolution, sln.Kind)
	assert.True(t, sln.Written)
	assert.Equal(t, xxhash.Sum64String(fs.Content(at("Game.sln"))), sln.Hash)
	assert.Contains(t, fs.Content(at("Game.sln")), `= "Assembly-CSharp", "Assembly-CSharp.csproj"`)
}

func TestProcessor_SecondRunIsNoop(t *testing.T) {
	fs := unityProject(t)
	proc := NewProcessor(fs, testConfig(), capability.Static{Value: legacyEngine()}, Options{})

	proc.Run()
	report := proc.Run()
	assert.Equal(t, 0, report.Changed())
	assert.Equal(t, 1, fs.Writes(at("Assembly-CSharp.csproj")))
	assert.Equal(t, 1, fs.Writes(at("Game.sln")))
}

func TestProcessor_NoDirectivesLeavesFilesAlone(t *testing.T) {
	project := testhelpers.NewProjectBuilder().WithoutProperties().WithReference("System", "").Build()
	fs := fsys.NewMem().
		AddFile(at("Assets/mcs.rsp"), "-nowarn:0169\n").
		AddFile(at("Assembly-CSharp.csproj"), project)

	report := NewProcessor(fs, testConfig(), capability.Static{Value: legacyEngine()}, Options{}).Run()
	require.Len(t, report.Files, 1)
	assert.False(t, report.Files[0].Changed)
	assert.Equal(t, 0, fs.Writes(at("Assembly-CSharp.csproj")))
	assert.Equal(t, project, fs.Content(at("Assembly-CSharp.csproj")))
}

func TestProcessor_DryRun(t *testing.T) {
	fs := unityProject(t)
	before := fs.Content(at("Assembly-CSharp.csproj"))

	report := NewProcessor(fs, testConfig(), capability.Static{Value: legacyEngine()}, Options{DryRun: true}).Run()
	assert.Equal(t, 3, report.Changed())
	for _, f := range report.Files {
		assert.False(t, f.Written, f.Path)
	}
	assert.Equal(t, before, fs.Content(at("Assembly-CSharp.csproj")))
	assert.Equal(t, 0, fs.Writes(at("Assembly-CSharp.csproj")))
}

func TestProcessor_WriteFailureContinues(t *testing.T) {
	fs := unityProject(t)
	fs.FailWrites[at("Assembly-CSharp.csproj")] = errors.New("disk full")

	report := NewProcessor(fs, testConfig(), capability.Static{Value: legacyEngine()}, Options{}).Run()

	failed := resultFor(t, report, at("Assembly-CSharp.csproj"))
	var fileErr *rsperrors.FileError
	require.ErrorAs(t, failed.Err, &fileErr)
	assert.Equal(t, "write", fileErr.Operation)
	assert.False(t, failed.Written)

	assert.True(t, resultFor(t, report, at("Assembly-CSharp-Editor.csproj")).Written)
	assert.True(t, resultFor(t, report, at("Game.sln")).Written)
}

func TestProcessor_ProbeFailureDegrades(t *testing.T) {
	fs := unityProject(t)
	probe := capability.Static{Err: errors.New("settings unreadable")}

	report := NewProcessor(fs, testConfig(), probe, Options{}).Run()
	assert.Equal(t, 3, report.Changed())
	assert.Contains(t, fs.Content(at("Assembly-CSharp.csproj")), "AllowUnsafeBlocks", "unknown engine gets legacy settings")
}

func TestProcessor_DiscoverExclusions(t *testing.T) {
	fs := fsys.NewMem().
		AddFile(at("Game.csproj"), "<Project />").
		AddFile(at("Packages/Lib/Lib.csproj"), "<Project />").
		AddFile(at("Temp/Scratch.csproj"), "<Project />").
		AddFile(at("Game.sln"), "")
	cfg := testhelpers.NewTestConfigBuilder(root).
		WithProjects("**/*.csproj").
		WithExclusions("Temp/**").
		Build()

	projects, solutions, err := NewProcessor(fs, cfg, capability.Static{}, Options{}).Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{at("Game.csproj"), at("Packages/Lib/Lib.csproj")}, projects)
	assert.Equal(t, []string{at("Game.sln")}, solutions)
}

func TestProcessor_Classify(t *testing.T) {
	cfg := testhelpers.NewTestConfigBuilder(root).WithExclusions("Excluded.csproj").Build()
	proc := NewProcessor(fsys.NewMem(), cfg, capability.Static{}, Options{})

	kind, ok := proc.Classify(at("Game.csproj"))
	assert.True(t, ok)
	assert.Equal(t, KindProject, kind)

	kind, ok = proc.Classify(at("Game.sln"))
	assert.True(t, ok)
	assert.Equal(t, KindSolution, kind)

	for _, path := range []string{at("Excluded.csproj"), at("Assets/Foo.cs"), at("Sub/Game.csproj"), "/elsewhere/Game.csproj"} {
		_, ok = proc.Classify(path)
		assert.False(t, ok, path)
	}
}

func TestProcessor_ProcessFiles(t *testing.T) {
	fs := unityProject(t)
	proc := NewProcessor(fs, testConfig(), capability.Static{Value: legacyEngine()}, Options{})

	report := proc.ProcessFiles([]string{at("Assembly-CSharp.csproj"), at("Assets/mcs.rsp")})
	require.Len(t, report.Files, 1)
	assert.True(t, report.Files[0].Written)
	assert.Equal(t, 0, fs.Writes(at("Game.sln")))
	assert.True(t, strings.Contains(fs.Content(at("Assembly-CSharp.csproj")), "GAME_DEFINE"))
}
