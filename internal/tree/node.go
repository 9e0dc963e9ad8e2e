package tree

import (
	"strconv"
	"strings"

	"github.com/wilkmaciej/xpath"

	xmltokenizer "github.com/wilkmaciej/xmltokenizer"
)

// child is anything hanging under an element: a nested *Node or a text or
// comment span.
type child interface {
	parentNode() *Node
	index() int
	text() string
}

// Node is one element of a materialized tree. Its Name is the same
// qualified-name value the streaming tokenizer matches on: URI resolved
// against the bindings in scope where the element appeared, prefix kept as
// written. Trees are built per fragment, queried, and dropped; a Node holds
// no parser state.
type Node struct {
	Name  xmltokenizer.QName
	Attrs []Attr

	parent       *Node
	children     []child
	siblingIndex int
}

// Attr is one attribute of a start tag. Prefixed attributes resolve their
// namespace from the bindings in scope like elements do; unprefixed
// attributes are never in a namespace, default binding or not.
type Attr struct {
	Name  xmltokenizer.QName
	Value string
}

// content is a text or comment child.
type content struct {
	kind         xpath.NodeType
	data         string
	parent       *Node
	siblingIndex int
}

func (c *content) parentNode() *Node { return c.parent }
func (c *content) index() int        { return c.siblingIndex }
func (c *content) text() string      { return c.data }

func (n *Node) parentNode() *Node { return n.parent }
func (n *Node) index() int        { return n.siblingIndex }
func (n *Node) text() string      { return n.InnerText() }

// Parent returns the enclosing element, nil for a delivered element.
func (n *Node) Parent() *Node { return n.parent }

// Elements returns the element children in document order, content skipped.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.children {
		if el, ok := c.(*Node); ok {
			out = append(out, el)
		}
	}
	return out
}

// InnerText concatenates the text of this element and all of its
// descendants, comments excluded.
func (n *Node) InnerText() string {
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	for _, c := range n.children {
		switch c := c.(type) {
		case *content:
			if c.kind == xpath.TextNode {
				sb.WriteString(c.data)
			}
		case *Node:
			c.writeText(sb)
		}
	}
}

// Text evaluates an XPath expression rooted at this element and renders the
// result as text: the first match's value for node-set expressions, the
// value itself for string, numeric and boolean expressions, "" when nothing
// matched.
func (n *Node) Text(exp *xpath.Expr) string {
	nav := &treeNavigator{cur: n, curElement: n, root: n, attrIndex: -1}
	switch res := exp.Evaluate(nav).(type) {
	case *xpath.NodeIterator:
		if res.MoveNext() {
			return res.Current().Value()
		}
		return ""
	case string:
		return res
	case float64:
		return strconv.FormatFloat(res, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(res)
	}
	return ""
}
