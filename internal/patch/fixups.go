package patch

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/rspfix/internal/debug"
	"github.com/standardbeagle/rspfix/internal/projdoc"
)

// Editor-relative directories searched for external libraries, in order
var externalLibraryDirs = []string{
	"Data/PlaybackEngines/iOSSupport",
	"PlaybackEngines/iOSSupport",
}

const nunitAssembly = "nunit.framework"

// FixTargetFramework rewrites the first TargetFrameworkVersion to match the
// scripting runtime. Projects without one are left alone.
func (p *Patcher) FixTargetFramework(doc *projdoc.Document) {
	elems := doc.Root().Path("PropertyGroup", "TargetFrameworkVersion")
	if len(elems) == 0 {
		return
	}
	version := p.cfg.Patch.LegacyTargetFramework
	if p.caps.NewRuntime() {
		version = p.cfg.Patch.TargetFramework
	}
	elems[0].SetText("v" + version)
}

// RenameReferences replaces misspelled Reference includes with their
// canonical names.
func (p *Patcher) RenameReferences(doc *projdoc.Document) {
	for _, ref := range doc.Root().Path("ItemGroup", "Reference") {
		include, ok := ref.Attr("Include")
		if !ok {
			continue
		}
		if to, ok := p.cfg.Patch.ReferenceRenames[include]; ok && to != include {
			debug.LogPatch("rename reference %s -> %s\n", include, to)
			ref.SetAttr("Include", to)
		}
	}
}

// SetLangVersion sets the first LangVersion to the probed language level,
// inserting a property group when there is none.
func (p *Patcher) SetLangVersion(doc *projdoc.Document) {
	level := p.caps.LanguageVersion
	if level == "" {
		return
	}
	if elems := doc.Root().Path("PropertyGroup", "LangVersion"); len(elems) > 0 {
		elems[0].SetText(level)
		return
	}
	prependProperty(doc, "LangVersion", level)
}

// RedirectNunit points the nunit.framework hint path at the bundled NUnit
// library when that library is installed.
func (p *Patcher) RedirectNunit(doc *projdoc.Document) {
	lib := p.cfg.ResolvePath(p.cfg.Patch.NunitHintPath)
	if lib == "" || !p.fs.Exists(lib) {
		return
	}
	ref := findReference(doc, nunitAssembly)
	if ref == nil {
		return
	}
	if hint := ref.FirstElement("HintPath"); hint != nil {
		hint.SetText(lib)
	}
}

// AddExternalReferences references editor-bundled libraries that exist in
// the editor installation. A library already referenced only has its hint
// path corrected.
func (p *Patcher) AddExternalReferences(doc *projdoc.Document) {
	editor := p.caps.EditorPath
	if editor == "" {
		return
	}
	for _, lib := range p.cfg.Patch.ExternalReferences {
		path := p.locateExternal(editor, lib)
		if path == "" {
			continue
		}
		name := strings.TrimSuffix(lib, filepath.Ext(lib))
		ref := findReference(doc, name)
		if ref == nil {
			appendReference(doc, name, path)
			continue
		}
		if hint := ref.FirstElement("HintPath"); hint != nil {
			hint.SetText(path)
		} else {
			ref.AppendElement(textElement(doc, "HintPath", path))
		}
	}
}

func (p *Patcher) locateExternal(editor, lib string) string {
	for _, dir := range externalLibraryDirs {
		candidate := filepath.Join(editor, filepath.FromSlash(dir), lib)
		if p.fs.Exists(candidate) {
			return candidate
		}
	}
	return ""
}

// referenceName strips the ", Version=..." part of an assembly reference.
func referenceName(include string) string {
	if i := strings.IndexByte(include, ','); i >= 0 {
		include = include[:i]
	}
	return strings.TrimSpace(include)
}

func findReference(doc *projdoc.Document, name string) *projdoc.Node {
	for _, ref := range doc.Root().Path("ItemGroup", "Reference") {
		if include, ok := ref.Attr("Include"); ok && referenceName(include) == name {
			return ref
		}
	}
	return nil
}

// appendReference adds <ItemGroup><Reference Include="name"/></ItemGroup>
// at the end of the project, with a HintPath when hintPath is set.
func appendReference(doc *projdoc.Document, name, hintPath string) {
	group := newElement(doc, "ItemGroup")
	doc.Root().AppendElement(group)

	ref := newElement(doc, "Reference")
	ref.SetAttr("Include", name)
	group.AppendElement(ref)

	if hintPath != "" {
		ref.AppendElement(textElement(doc, "HintPath", hintPath))
	}
}

// prependProperty inserts <PropertyGroup><name>value</name></PropertyGroup>
// as the first child of the project.
func prependProperty(doc *projdoc.Document, name, value string) {
	group := newElement(doc, "PropertyGroup")
	doc.Root().PrependElement(group)
	group.AppendElement(textElement(doc, name, value))
}

func textElement(doc *projdoc.Document, name, text string) *projdoc.Node {
	e := newElement(doc, name)
	e.SetText(text)
	return e
}

// newElement creates an element in the root's namespace prefix, if any.
func newElement(doc *projdoc.Document, name string) *projdoc.Node {
	if root := doc.Root().Name; strings.Contains(root, ":") {
		return doc.NewElement(root[:strings.IndexByte(root, ':')+1] + name)
	}
	return doc.NewElement(name)
}
