package projdoc

import "strings"

// Kind identifies what a Node holds.
type Kind int

const (
	ElementNode Kind = iota
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
	documentNode
)

// Attr is an element attribute. Names keep their prefix ("xmlns", "x:Key").
type Attr struct {
	Name  string
	Value string
}

// Node is an element, text run, comment, processing instruction or
// directive. Text data is stored unescaped.
type Node struct {
	Kind   Kind
	Name   string
	Attrs  []Attr
	Data   string
	Target string

	children         []*Node
	parent           *Node
	doc              *Document
	selfClosing      bool
	spaceBeforeClose bool
	created          bool
}

// Parent returns the enclosing element, or nil for the root and detached nodes.
func (n *Node) Parent() *Node {
	if n.parent == nil || n.parent.Kind == documentNode {
		return nil
	}
	return n.parent
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// LocalName returns the element name without its namespace prefix.
func (n *Node) LocalName() string {
	if i := strings.IndexByte(n.Name, ':'); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// Elements returns the direct child elements with the given local name.
func (n *Node) Elements(name string) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.Kind == ElementNode && c.LocalName() == name {
			out = append(out, c)
		}
	}
	return out
}

// FirstElement returns the first direct child element named name, or nil.
func (n *Node) FirstElement(name string) *Node {
	for _, c := range n.children {
		if c.Kind == ElementNode && c.LocalName() == name {
			return c
		}
	}
	return nil
}

// Path walks child element names level by level and returns every element
// reached, in document order. Path("PropertyGroup", "LangVersion") on the
// root finds all LangVersion elements of all property groups.
func (n *Node) Path(names ...string) []*Node {
	level := []*Node{n}
	for _, name := range names {
		var next []*Node
		for _, e := range level {
			next = append(next, e.Elements(name)...)
		}
		level = next
	}
	return level
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or adds an attribute.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			if a.Value != value {
				n.Attrs[i].Value = value
				n.doc.touch()
			}
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
	n.doc.touch()
}

// Text returns the concatenated direct text content.
func (n *Node) Text() string {
	var sb strings.Builder
	for _, c := range n.children {
		if c.Kind == TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// SetText replaces all children with a single text run. Setting the value
// an element already has exactly is not a modification.
func (n *Node) SetText(text string) {
	if n.hasOnlyText() && n.Text() == text {
		return
	}
	n.children = nil
	if text != "" {
		n.children = []*Node{{Kind: TextNode, Data: text, parent: n, doc: n.doc}}
	}
	n.doc.touch()
}

func (n *Node) hasOnlyText() bool {
	for _, c := range n.children {
		if c.Kind != TextNode {
			return false
		}
	}
	return true
}

func (n *Node) isWhitespace() bool {
	return n.Kind == TextNode && strings.TrimSpace(n.Data) == ""
}

// depth is 0 for the root element.
func (n *Node) depth() int {
	d := 0
	for p := n.parent; p != nil && p.Kind != documentNode; p = p.parent {
		d++
	}
	return d
}

func (n *Node) insert(at int, nodes ...*Node) {
	for _, c := range nodes {
		c.parent = n
	}
	n.children = append(n.children[:at], append(nodes, n.children[at:]...)...)
}

func (n *Node) whitespace(depth int) *Node {
	return &Node{Kind: TextNode, Data: "\n" + strings.Repeat(n.doc.indent, depth), doc: n.doc}
}

// AppendElement adds child as the last element of n, indented like its
// siblings.
func (n *Node) AppendElement(child *Node) {
	child.doc = n.doc
	d := n.depth()
	switch {
	case len(n.children) == 0:
		n.insert(0, n.whitespace(d+1), child, n.whitespace(d))
	case n.children[len(n.children)-1].isWhitespace():
		n.insert(len(n.children)-1, n.whitespace(d+1), child)
	default:
		n.insert(len(n.children), n.whitespace(d+1), child)
	}
	n.selfClosing = false
	n.doc.touch()
}

// PrependElement adds child as the first element of n so that it precedes
// every existing child.
func (n *Node) PrependElement(child *Node) {
	child.doc = n.doc
	d := n.depth()
	switch {
	case len(n.children) == 0:
		n.insert(0, n.whitespace(d+1), child, n.whitespace(d))
	case n.children[0].isWhitespace():
		n.insert(1, child, n.whitespace(d+1))
	default:
		n.insert(0, child)
	}
	n.selfClosing = false
	n.doc.touch()
}
