// Package patch applies compiler settings and IDE fixups to generated
// project descriptors and solution files.
package patch

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/rspfix/internal/capability"
	"github.com/standardbeagle/rspfix/internal/config"
	"github.com/standardbeagle/rspfix/internal/debug"
	rsperrors "github.com/standardbeagle/rspfix/internal/errors"
	"github.com/standardbeagle/rspfix/internal/fsys"
	"github.com/standardbeagle/rspfix/internal/projdoc"
	"github.com/standardbeagle/rspfix/internal/rsp"
)

// Patcher mutates one document at a time. It keeps no state between
// documents.
type Patcher struct {
	fs   fsys.FS
	cfg  *config.Config
	caps capability.Capabilities
}

// NewPatcher creates a patcher for the project described by cfg.
func NewPatcher(fs fsys.FS, cfg *config.Config, caps capability.Capabilities) *Patcher {
	return &Patcher{fs: fs, cfg: cfg, caps: caps}
}

// PatchProject runs every project step against doc, which was read from
// path. Returned notices are informational (skipped patches, unreadable
// response files); doc is still patched as far as possible.
func (p *Patcher) PatchProject(path string, doc *projdoc.Document) []error {
	var notices []error
	note := func(err error) {
		if err != nil {
			notices = append(notices, err)
		}
	}

	p.FixTargetFramework(doc)
	p.RenameReferences(doc)
	p.SetLangVersion(doc)
	if p.caps.BundledNunit() {
		p.RedirectNunit(doc)
	}

	if p.caps.LegacyResponseFiles() {
		if rspPath := p.ResponseFileFor(path); rspPath != "" {
			set, err := p.loadDirectives(rspPath)
			note(err)
			if err == nil {
				if set.HasUnsafe() {
					p.ApplyUnsafe(doc)
				}
				note(p.ApplyDefines(doc, set.Defines()))
			}
		}
	}

	p.AddExternalReferences(doc)

	// References from the shared response file apply to every project
	if shared := p.cfg.ResolvePath(p.cfg.ResponseFiles.Shared); shared != "" && p.fs.Exists(shared) {
		set, err := p.loadDirectives(shared)
		note(err)
		if err == nil {
			p.ApplyReferences(doc, set.References())
		}
	}

	return notices
}

// ApplyDirectives applies a whole DirectiveSet to doc. An empty set leaves
// the document untouched.
func (p *Patcher) ApplyDirectives(doc *projdoc.Document, set rsp.DirectiveSet) []error {
	var notices []error
	if set.HasUnsafe() {
		p.ApplyUnsafe(doc)
	}
	if err := p.ApplyDefines(doc, set.Defines()); err != nil {
		notices = append(notices, err)
	}
	p.ApplyReferences(doc, set.References())
	return notices
}

// ResponseFileFor returns the response file whose unsafe and define settings
// apply to the project at path, or "" when none does. The shared file is
// preferred when it exists.
func (p *Patcher) ResponseFileFor(path string) string {
	rf := p.cfg.ResponseFiles
	var specific string
	switch filepath.Base(path) {
	case rf.PlayerProject:
		specific = rf.Player
	case rf.EditorProject:
		specific = rf.Editor
	default:
		return ""
	}

	if shared := p.cfg.ResolvePath(rf.Shared); shared != "" && p.fs.Exists(shared) {
		return shared
	}
	if s := p.cfg.ResolvePath(specific); s != "" && p.fs.Exists(s) {
		return s
	}
	return ""
}

func (p *Patcher) loadDirectives(path string) (rsp.DirectiveSet, error) {
	set, err := rsp.Load(p.fs, path)
	if err != nil {
		return set, err
	}
	debug.LogPatch("%s: unsafe=%v defines=%v references=%v\n", path, set.HasUnsafe(), set.Defines(), set.References())
	return set, nil
}

// ApplyUnsafe makes sure unsafe code is allowed. Existing AllowUnsafeBlocks
// elements are set to true; otherwise a property group holding one is
// inserted before everything else.
func (p *Patcher) ApplyUnsafe(doc *projdoc.Document) {
	root := doc.Root()
	existing := root.Path("PropertyGroup", "AllowUnsafeBlocks")
	if len(existing) == 0 {
		prependProperty(doc, "AllowUnsafeBlocks", "true")
		return
	}
	for _, e := range existing {
		if !strings.EqualFold(strings.TrimSpace(e.Text()), "true") {
			e.SetText("true")
		}
	}
}

// ApplyDefines appends the symbols not already listed to the first
// non-empty DefineConstants. Without one the defines cannot be placed and a
// PatchSkipped notice is returned.
func (p *Patcher) ApplyDefines(doc *projdoc.Document, defines []string) error {
	if len(defines) == 0 {
		return nil
	}

	var target *projdoc.Node
	for _, e := range doc.Root().Path("PropertyGroup", "DefineConstants") {
		if e.Text() != "" {
			target = e
			break
		}
	}
	if target == nil {
		return rsperrors.NewPatchSkipped("defines", "no PropertyGroup/DefineConstants with a value")
	}

	value := target.Text()
	present := make(map[string]bool)
	for _, d := range strings.Split(value, ";") {
		present[strings.TrimSpace(d)] = true
	}

	var added []string
	for _, d := range defines {
		if !present[d] {
			present[d] = true
			added = append(added, d)
		}
	}
	if len(added) == 0 {
		return nil
	}
	target.SetText(value + ";" + strings.Join(added, ";"))
	return nil
}

// ApplyReferences appends one ItemGroup/Reference per name at the end of the
// project. Names already referenced are appended again unless
// patch.skip_existing_references is set.
func (p *Patcher) ApplyReferences(doc *projdoc.Document, names []string) {
	for _, name := range names {
		if p.cfg.Patch.SkipExistingReferences && findReference(doc, name) != nil {
			continue
		}
		appendReference(doc, name, "")
	}
}
