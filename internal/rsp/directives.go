// Package rsp extracts build directives from compiler response files.
//
// Response files are whitespace separated flag lists. Only three kinds of
// flag matter to project post-processing:
//
//	-unsafe                   allow unsafe code
//	-define:A;B,C             preprocessor symbols
//	-r:Plugins/Foo.dll,Bar    extra assembly references
package rsp

import (
	"path"
	"strings"

	rsperrors "github.com/standardbeagle/rspfix/internal/errors"
	"github.com/standardbeagle/rspfix/internal/fsys"
)

// Markers recognised inside response file tokens
const (
	UnsafeMarker    = "-unsafe"
	DefineMarker    = "-define:"
	ReferenceMarker = "-r:"
)

// DirectiveSet is the parsed result of one response file. It is immutable
// once built; the slice accessors return copies.
type DirectiveSet struct {
	hasUnsafe  bool
	defines    []string
	references []string
}

// HasUnsafe reports whether any token enabled unsafe code.
func (s DirectiveSet) HasUnsafe() bool {
	return s.hasUnsafe
}

// Defines returns the preprocessor symbols in encounter order, without duplicates.
func (s DirectiveSet) Defines() []string {
	return append([]string(nil), s.defines...)
}

// References returns assembly base names in encounter order, without duplicates.
func (s DirectiveSet) References() []string {
	return append([]string(nil), s.references...)
}

// IsEmpty reports whether there is nothing to apply.
func (s DirectiveSet) IsEmpty() bool {
	return !s.hasUnsafe && len(s.defines) == 0 && len(s.references) == 0
}

// Extract parses response file text. It never fails: text without any
// recognised marker yields an empty set.
func Extract(text string) DirectiveSet {
	var set DirectiveSet
	seenDefines := make(map[string]bool)
	seenRefs := make(map[string]bool)

	for _, token := range tokenize(text) {
		if strings.Contains(token, UnsafeMarker) {
			set.hasUnsafe = true
		}
		for _, d := range valuesAfter(token, DefineMarker) {
			if !seenDefines[d] {
				seenDefines[d] = true
				set.defines = append(set.defines, d)
			}
		}
		for _, r := range valuesAfter(token, ReferenceMarker) {
			name := assemblyName(r)
			if name != "" && !seenRefs[name] {
				seenRefs[name] = true
				set.references = append(set.references, name)
			}
		}
	}
	return set
}

// Load reads and parses the response file at p. A missing or unreadable
// file is reported as a ConfigReadError.
func Load(fs fsys.FS, p string) (DirectiveSet, error) {
	data, err := fs.ReadFile(p)
	if err != nil {
		return DirectiveSet{}, rsperrors.NewConfigReadError(p, err)
	}
	return Extract(string(data)), nil
}

func tokenize(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\n'
	})
	tokens := raw[:0]
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// valuesAfter splits what follows marker on ',' and ';'.
func valuesAfter(token, marker string) []string {
	idx := strings.Index(token, marker)
	if idx < 0 {
		return nil
	}
	list := strings.ReplaceAll(token[idx+len(marker):], ";", ",")

	var out []string
	for _, v := range strings.Split(list, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// assemblyName reduces a reference to its file name without a .dll/.exe
// extension, accepting either slash style. "System.Data" stays intact.
func assemblyName(ref string) string {
	ref = strings.Trim(ref, `"'`)
	base := path.Base(strings.ReplaceAll(ref, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	switch strings.ToLower(path.Ext(base)) {
	case ".dll", ".exe":
		base = base[:len(base)-len(path.Ext(base))]
	}
	return base
}
