// Package projdoc is an editable in-memory tree for MSBuild project files.
//
// Documents that are parsed and never modified serialize back to the exact
// input bytes. Modified documents keep the original whitespace, comments,
// declaration, byte order mark and line endings; only attribute quoting is
// normalised to double quotes and CDATA sections become escaped text.
package projdoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	rsperrors "github.com/standardbeagle/rspfix/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is one parsed project file.
type Document struct {
	top      *Node
	root     *Node
	raw      []byte
	bom      bool
	crlf     bool
	indent   string
	modified bool
}

// Parse builds a Document from project file bytes. Malformed input is
// reported as a DocumentParseError without a path; callers add it.
func Parse(data []byte) (*Document, error) {
	doc := &Document{raw: append([]byte(nil), data...)}
	doc.top = &Node{Kind: documentNode, doc: doc}

	body := data
	if bytes.HasPrefix(body, utf8BOM) {
		doc.bom = true
		body = body[len(utf8BOM):]
	}
	doc.crlf = bytes.Contains(body, []byte("\r\n"))

	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = true

	cur := doc.top
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseError(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if cur == doc.top && doc.root != nil {
				return nil, parseError(fmt.Errorf("second root element <%s>", qualified(t.Name)))
			}
			n := &Node{Kind: ElementNode, Name: qualified(t.Name), doc: doc}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if off := int(dec.InputOffset()); off >= 2 && string(body[off-2:off]) == "/>" {
				n.selfClosing = true
				n.spaceBeforeClose = off >= 3 && isSpace(body[off-3])
			}
			cur.insert(len(cur.children), n)
			if cur == doc.top {
				doc.root = n
			}
			cur = n
		case xml.EndElement:
			name := qualified(t.Name)
			if cur == doc.top || cur.Name != name {
				return nil, parseError(fmt.Errorf("unexpected closing tag </%s>", name))
			}
			cur = cur.parent
		case xml.CharData:
			text := string(t)
			if cur == doc.top && strings.TrimSpace(text) != "" {
				return nil, parseError(errors.New("text outside the root element"))
			}
			cur.insert(len(cur.children), &Node{Kind: TextNode, Data: text, doc: doc})
		case xml.Comment:
			cur.insert(len(cur.children), &Node{Kind: CommentNode, Data: string(t), doc: doc})
		case xml.ProcInst:
			cur.insert(len(cur.children), &Node{Kind: ProcInstNode, Target: t.Target, Data: string(t.Inst), doc: doc})
		case xml.Directive:
			cur.insert(len(cur.children), &Node{Kind: DirectiveNode, Data: string(t), doc: doc})
		}
	}

	if cur != doc.top {
		return nil, parseError(fmt.Errorf("unexpected end of input inside <%s>", cur.Name))
	}
	if doc.root == nil {
		return nil, parseError(errors.New("no root element"))
	}

	doc.indent = detectIndent(doc.root)
	return doc, nil
}

func parseError(err error) *rsperrors.DocumentParseError {
	var syntax *xml.SyntaxError
	if errors.As(err, &syntax) {
		return rsperrors.NewDocumentParseError("", syntax.Line, err)
	}
	return rsperrors.NewDocumentParseError("", 0, err)
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// detectIndent returns the indentation unit used for the root's children.
func detectIndent(root *Node) string {
	for _, c := range root.children {
		if c.Kind != TextNode || !c.isWhitespace() {
			continue
		}
		if i := strings.LastIndex(c.Data, "\n"); i >= 0 && i < len(c.Data)-1 {
			return c.Data[i+1:]
		}
	}
	return "  "
}

// Root returns the document element.
func (d *Document) Root() *Node {
	return d.root
}

// Modified reports whether any edit changed the tree since parsing.
func (d *Document) Modified() bool {
	return d.modified
}

func (d *Document) touch() {
	d.modified = true
}

// NewElement creates a detached element owned by d. Attach it with
// AppendElement or PrependElement before adding children so indentation
// follows its final depth.
func (d *Document) NewElement(name string) *Node {
	return &Node{Kind: ElementNode, Name: name, doc: d, created: true}
}

// Bytes serializes the document. An unmodified document returns a copy of
// the parsed input.
func (d *Document) Bytes() []byte {
	if !d.modified {
		return append([]byte(nil), d.raw...)
	}

	var buf bytes.Buffer
	if d.bom {
		buf.Write(utf8BOM)
	}
	for _, c := range d.top.children {
		c.write(&buf)
	}

	out := buf.Bytes()
	if d.crlf {
		out = bytes.ReplaceAll(out, []byte("\r\n"), []byte("\n"))
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	}
	return out
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", "]]>", "]]&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "\t", "&#x9;", "\n", "&#xA;")
)

func (n *Node) write(buf *bytes.Buffer) {
	switch n.Kind {
	case ElementNode:
		buf.WriteString("<" + n.Name)
		for _, a := range n.Attrs {
			buf.WriteString(" " + a.Name + `="` + attrEscaper.Replace(a.Value) + `"`)
		}
		if len(n.children) == 0 && (n.selfClosing || n.created) {
			if n.spaceBeforeClose || n.created {
				buf.WriteString(" ")
			}
			buf.WriteString("/>")
			return
		}
		buf.WriteString(">")
		for _, c := range n.children {
			c.write(buf)
		}
		buf.WriteString("</" + n.Name + ">")
	case TextNode:
		buf.WriteString(textEscaper.Replace(n.Data))
	case CommentNode:
		buf.WriteString("<!--" + n.Data + "-->")
	case ProcInstNode:
		buf.WriteString("<?" + n.Target)
		if n.Data != "" {
			buf.WriteString(" " + n.Data)
		}
		buf.WriteString("?>")
	case DirectiveNode:
		buf.WriteString("<!" + n.Data + ">")
	}
}
