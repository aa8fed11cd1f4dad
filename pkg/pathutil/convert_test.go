package pathutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToRelative(t *testing.T) {
	root := filepath.FromSlash("/work/Game")

	tests := []struct {
		name     string
		absPath  string
		rootDir  string
		expected string
	}{
		{"root level file", "/work/Game/Assembly-CSharp.csproj", root, "Assembly-CSharp.csproj"},
		{"nested file", "/work/Game/Assets/mcs.rsp", root, "Assets/mcs.rsp"},
		{"same directory", "/work/Game", root, "."},
		{"already relative", "Assets/mcs.rsp", root, "Assets/mcs.rsp"},
		{"outside root", "/opt/unity/Editor", root, "/opt/unity/Editor"},
		{"sibling with common prefix", "/work/GameTools/a.csproj", root, "/work/GameTools/a.csproj"},
		{"dot-dot prefixed name inside root", "/work/Game/..hidden/a.csproj", root, "..hidden/a.csproj"},
		{"empty root", "/work/Game/a.csproj", "", "/work/Game/a.csproj"},
		{"empty path", "", root, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToRelative(filepath.FromSlash(tt.absPath), tt.rootDir)
			assert.Equal(t, filepath.FromSlash(tt.expected), got)
		})
	}
}

func TestToSlashRelative(t *testing.T) {
	root := filepath.FromSlash("/work/Game")

	rel, ok := ToSlashRelative(filepath.FromSlash("/work/Game/Packages/Foo/Foo.csproj"), root)
	assert.True(t, ok)
	assert.Equal(t, "Packages/Foo/Foo.csproj", rel)

	_, ok = ToSlashRelative(filepath.FromSlash("/work/Other/Foo.csproj"), root)
	assert.False(t, ok)

	rel, ok = ToSlashRelative(filepath.FromSlash("Temp/x.csproj"), root)
	assert.True(t, ok)
	assert.Equal(t, "Temp/x.csproj", rel)
}

func TestToRelativeAll(t *testing.T) {
	root := filepath.FromSlash("/work/Game")
	in := []string{filepath.FromSlash("/work/Game/a.csproj"), filepath.FromSlash("/elsewhere/b.sln")}

	out := ToRelativeAll(in, root)
	assert.Equal(t, []string{"a.csproj", filepath.FromSlash("/elsewhere/b.sln")}, out)
	assert.Equal(t, filepath.FromSlash("/work/Game/a.csproj"), in[0], "input is not modified")
	assert.Nil(t, ToRelativeAll(nil, root))
}
