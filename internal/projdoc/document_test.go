package projdoc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rsperrors "github.com/standardbeagle/rspfix/internal/errors"
)

const sampleProject = `<?xml version="1.0" encoding="utf-8"?>
<Project ToolsVersion="4.0" DefaultTargets="Build" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <!-- generated -->
  <PropertyGroup>
    <LangVersion>4</LangVersion>
    <DefineConstants>DEBUG;TRACE</DefineConstants>
  </PropertyGroup>
  <ItemGroup>
    <Reference Include="System.XML" />
    <Compile Include="Assets\A&amp;B.cs"/>
  </ItemGroup>
</Project>
`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := Parse([]byte(s))
	require.NoError(t, err)
	return doc
}

func TestParse_UnmodifiedRoundTripIsExact(t *testing.T) {
	inputs := map[string]string{
		"plain":    sampleProject,
		"crlf":     strings.ReplaceAll(sampleProject, "\n", "\r\n"),
		"bom":      "\ufeff" + sampleProject,
		"tabs":     "<Project>\n\t<PropertyGroup>\n\t\t<A>1</A>\n\t</PropertyGroup>\n</Project>",
		"compact":  "<Project><PropertyGroup/></Project>",
		"entities": `<Project><P Condition=" '$(Configuration)' == 'Debug' ">a &lt; b</P></Project>`,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			doc := mustParse(t, input)
			assert.False(t, doc.Modified())
			assert.Equal(t, input, string(doc.Bytes()))
		})
	}
}

func TestParse_Queries(t *testing.T) {
	doc := mustParse(t, sampleProject)
	root := doc.Root()

	assert.Equal(t, "Project", root.Name)
	assert.Nil(t, root.Parent())

	ns, ok := root.Attr("xmlns")
	assert.True(t, ok)
	assert.Equal(t, "http://schemas.microsoft.com/developer/msbuild/2003", ns)

	langs := root.Path("PropertyGroup", "LangVersion")
	require.Len(t, langs, 1)
	assert.Equal(t, "4", langs[0].Text())
	assert.Equal(t, "PropertyGroup", langs[0].Parent().Name)

	refs := root.Path("ItemGroup", "Reference")
	require.Len(t, refs, 1)
	include, _ := refs[0].Attr("Include")
	assert.Equal(t, "System.XML", include)

	compile := root.Path("ItemGroup", "Compile")
	require.Len(t, compile, 1)
	include, _ = compile[0].Attr("Include")
	assert.Equal(t, `Assets\A&B.cs`, include, "attribute entities are decoded")

	assert.Nil(t, root.FirstElement("Target"))
	assert.Empty(t, root.Path("Target", "Exec"))
}

func TestNode_SetTextSameValueIsNotAModification(t *testing.T) {
	doc := mustParse(t, sampleProject)
	lang := doc.Root().Path("PropertyGroup", "LangVersion")[0]

	lang.SetText("4")
	assert.False(t, doc.Modified())

	lang.SetText("7")
	assert.True(t, doc.Modified())
	assert.Equal(t, strings.Replace(sampleProject, "<LangVersion>4<", "<LangVersion>7<", 1), string(doc.Bytes()))
}

func TestNode_SetAttr(t *testing.T) {
	doc := mustParse(t, sampleProject)
	ref := doc.Root().Path("ItemGroup", "Reference")[0]

	ref.SetAttr("Include", "System.XML")
	assert.False(t, doc.Modified())

	ref.SetAttr("Include", "System.Xml")
	assert.True(t, doc.Modified())

	expected := strings.Replace(sampleProject, `Include="System.XML"`, `Include="System.Xml"`, 1)
	assert.Equal(t, expected, string(doc.Bytes()), "escaped text and self-closing forms survive re-serialization")
}

func TestNode_PrependElement(t *testing.T) {
	doc := mustParse(t, sampleProject)
	root := doc.Root()

	group := doc.NewElement("PropertyGroup")
	root.PrependElement(group)
	flag := doc.NewElement("AllowUnsafeBlocks")
	flag.SetText("true")
	group.AppendElement(flag)

	expected := strings.Replace(sampleProject,
		"<Project ToolsVersion=\"4.0\" DefaultTargets=\"Build\" xmlns=\"http://schemas.microsoft.com/developer/msbuild/2003\">\n",
		"<Project ToolsVersion=\"4.0\" DefaultTargets=\"Build\" xmlns=\"http://schemas.microsoft.com/developer/msbuild/2003\">\n"+
			"  <PropertyGroup>\n    <AllowUnsafeBlocks>true</AllowUnsafeBlocks>\n  </PropertyGroup>\n", 1)
	assert.Equal(t, expected, string(doc.Bytes()))

	first := root.Children()
	assert.Same(t, group, first[1], "new group follows the leading whitespace")
	assert.Same(t, root, group.Parent())
}

func TestNode_AppendElement(t *testing.T) {
	doc := mustParse(t, sampleProject)
	root := doc.Root()

	group := doc.NewElement("ItemGroup")
	root.AppendElement(group)
	ref := doc.NewElement("Reference")
	ref.SetAttr("Include", "Foo")
	group.AppendElement(ref)

	expected := strings.Replace(sampleProject, "</Project>",
		"  <ItemGroup>\n    <Reference Include=\"Foo\" />\n  </ItemGroup>\n</Project>", 1)
	assert.Equal(t, expected, string(doc.Bytes()))
}

func TestNode_AppendToSelfClosingElement(t *testing.T) {
	doc := mustParse(t, "<Project>\n  <ItemGroup/>\n</Project>")
	group := doc.Root().FirstElement("ItemGroup")

	ref := doc.NewElement("Reference")
	ref.SetAttr("Include", "Foo")
	group.AppendElement(ref)

	assert.Equal(t, "<Project>\n  <ItemGroup>\n    <Reference Include=\"Foo\" />\n  </ItemGroup>\n</Project>", string(doc.Bytes()))
}

func TestDocument_ModifiedKeepsCRLFAndBOM(t *testing.T) {
	input := "\ufeff<Project>\r\n  <PropertyGroup>\r\n    <LangVersion>4</LangVersion>\r\n  </PropertyGroup>\r\n</Project>\r\n"
	doc := mustParse(t, input)

	doc.Root().Path("PropertyGroup", "LangVersion")[0].SetText("6")
	group := doc.Root().FirstElement("PropertyGroup")
	extra := doc.NewElement("Nullable")
	group.AppendElement(extra)
	extra.SetText("disable")

	expected := "\ufeff<Project>\r\n  <PropertyGroup>\r\n    <LangVersion>6</LangVersion>\r\n    <Nullable>disable</Nullable>\r\n  </PropertyGroup>\r\n</Project>\r\n"
	assert.Equal(t, expected, string(doc.Bytes()))
}

func TestDocument_IndentDetection(t *testing.T) {
	doc := mustParse(t, "<Project>\n\t<PropertyGroup>\n\t</PropertyGroup>\n</Project>")
	group := doc.NewElement("ItemGroup")
	doc.Root().AppendElement(group)
	ref := doc.NewElement("Reference")
	group.AppendElement(ref)

	assert.Equal(t, "<Project>\n\t<PropertyGroup>\n\t</PropertyGroup>\n\t<ItemGroup>\n\t\t<Reference />\n\t</ItemGroup>\n</Project>", string(doc.Bytes()))
}

func TestDocument_NamespacePrefixes(t *testing.T) {
	input := `<msb:Project xmlns:msb="urn:x"><msb:PropertyGroup><msb:LangVersion>4</msb:LangVersion></msb:PropertyGroup></msb:Project>`
	doc := mustParse(t, input)

	langs := doc.Root().Path("PropertyGroup", "LangVersion")
	require.Len(t, langs, 1)
	assert.Equal(t, "LangVersion", langs[0].LocalName())

	langs[0].SetText("6")
	assert.Equal(t, strings.Replace(input, ">4<", ">6<", 1), string(doc.Bytes()))
}

func TestParse_Malformed(t *testing.T) {
	inputs := map[string]string{
		"empty":             "",
		"whitespace only":   "  \n",
		"unclosed":          "<Project><PropertyGroup></Project>",
		"mismatched":        "<Project><A></B></Project>",
		"truncated":         "<Project>\n  <PropertyGroup>",
		"text outside root": "<Project/>trailing",
		"two roots":         "<Project/><Project/>",
		"bad entity":        "<Project>&nope;</Project>",
		"not xml":           "Microsoft Visual Studio Solution File, Format Version 12.00",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse([]byte(input))
			assert.Nil(t, doc)
			require.Error(t, err)

			var parseErr *rsperrors.DocumentParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}
