package rsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rsperrors "github.com/standardbeagle/rspfix/internal/errors"
	"github.com/standardbeagle/rspfix/internal/fsys"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		unsafe     bool
		defines    []string
		references []string
	}{
		{
			name:       "all three kinds",
			text:       "-define:A;B -r:Foo.dll -unsafe",
			unsafe:     true,
			defines:    []string{"A", "B"},
			references: []string{"Foo"},
		},
		{
			name:    "mixed separators and repeated flag",
			text:    "-define:A,B;C -define:D",
			defines: []string{"A", "B", "C", "D"},
		},
		{
			name:    "newlines and carriage returns",
			text:    "-define:DEF1;DEF2 -define:DEF3,DEF4;DEFFFF \r\n -define:DEF5\r\n",
			defines: []string{"DEF1", "DEF2", "DEF3", "DEF4", "DEFFFF", "DEF5"},
		},
		{
			name:    "duplicates collapse",
			text:    "-define:A;A\n-define:B,A",
			defines: []string{"A", "B"},
		},
		{
			name:    "empty pieces ignored",
			text:    "-define:;A,,B; -define:",
			defines: []string{"A", "B"},
		},
		{
			name:       "reference paths reduce to base names",
			text:       `-r:Assets/Plugins/Foo.dll -r:C:\libs\Bar.DLL;System.Data -r:Tool.exe`,
			references: []string{"Foo", "Bar", "System.Data", "Tool"},
		},
		{
			name:       "duplicate references collapse",
			text:       "-r:Foo.dll -r:Foo",
			references: []string{"Foo"},
		},
		{
			name:   "unsafe variant",
			text:   "-unsafe+",
			unsafe: true,
		},
		{
			name: "unrelated flags",
			text: "-nowarn:0169 -warnaserror+ -langversion:7",
		},
		{
			name: "empty",
			text: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Extract(tt.text)
			assert.Equal(t, tt.unsafe, set.HasUnsafe())
			assert.Equal(t, tt.defines, set.Defines())
			assert.Equal(t, tt.references, set.References())
		})
	}
}

func TestExtract_NoMarkersIsEmpty(t *testing.T) {
	for _, text := range []string{"", "   \n\n ", "-nowarn:0169", "-debug -optimize+"} {
		assert.True(t, Extract(text).IsEmpty(), "text %q", text)
	}
	assert.False(t, Extract("-unsafe").IsEmpty())
	assert.False(t, Extract("-define:X").IsEmpty())
	assert.False(t, Extract("-r:X.dll").IsEmpty())
}

func TestDirectiveSet_AccessorsReturnCopies(t *testing.T) {
	set := Extract("-define:A;B -r:Foo.dll")

	defines := set.Defines()
	defines[0] = "CHANGED"
	refs := set.References()
	refs[0] = "CHANGED"

	assert.Equal(t, []string{"A", "B"}, set.Defines())
	assert.Equal(t, []string{"Foo"}, set.References())
}

func TestLoad(t *testing.T) {
	mem := fsys.NewMem().AddFile("/proj/Assets/mcs.rsp", "-unsafe\n-define:FOO")

	set, err := Load(mem, "/proj/Assets/mcs.rsp")
	require.NoError(t, err)
	assert.True(t, set.HasUnsafe())
	assert.Equal(t, []string{"FOO"}, set.Defines())
}

func TestLoad_MissingFile(t *testing.T) {
	set, err := Load(fsys.NewMem(), "/proj/Assets/mcs.rsp")
	require.Error(t, err)
	assert.True(t, set.IsEmpty())

	var readErr *rsperrors.ConfigReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, "/proj/Assets/mcs.rsp", readErr.Path)
}
