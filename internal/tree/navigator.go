package tree

import (
	"github.com/wilkmaciej/xpath"

	xmltokenizer "github.com/wilkmaciej/xmltokenizer"
)

// treeNavigator adapts the materialized tree to xpath.NodeNavigator. The
// navigator sits on either an element or a content child (cur), with
// curElement caching the nearest element for attribute access; attrIndex is
// -1 unless the navigator is parked on one of curElement's attributes.
type treeNavigator struct {
	root       *Node
	cur        child
	curElement *Node
	attrIndex  int
}

func (nav *treeNavigator) NodeType() xpath.NodeType {
	if nav.attrIndex != -1 {
		return xpath.AttributeNode
	}
	switch n := nav.cur.(type) {
	case *content:
		return n.kind
	case *Node:
		if n == nav.root && n.parent == nil {
			return xpath.RootNode
		}
	}
	return xpath.ElementNode
}

// curName is the qualified name of whatever the navigator is parked on:
// the attribute if on one, else the nearest element. Content children have
// no name.
func (nav *treeNavigator) curName() xmltokenizer.QName {
	if nav.attrIndex != -1 {
		return nav.curElement.Attrs[nav.attrIndex].Name
	}
	if nav.curElement != nil {
		return nav.curElement.Name
	}
	return xmltokenizer.QName{}
}

func (nav *treeNavigator) LocalName() string { return nav.curName().Local }

func (nav *treeNavigator) Prefix() string { return nav.curName().Prefix }

// NamespaceURL is the xpath package's name for the namespace URI.
func (nav *treeNavigator) NamespaceURL() string { return nav.curName().URI }

func (nav *treeNavigator) Value() string {
	if nav.attrIndex != -1 {
		return nav.curElement.Attrs[nav.attrIndex].Value
	}
	return nav.cur.text()
}

func (nav *treeNavigator) Copy() xpath.NodeNavigator {
	cp := *nav
	return &cp
}

func (nav *treeNavigator) String() string { return nav.Value() }

func (nav *treeNavigator) MoveToRoot() {
	nav.cur = nav.root
	nav.curElement = nav.root
	nav.attrIndex = -1
}

func (nav *treeNavigator) MoveToParent() bool {
	if nav.attrIndex != -1 {
		// Off the attribute, back onto its element.
		nav.attrIndex = -1
		return true
	}
	parent := nav.cur.parentNode()
	if parent == nil {
		return false
	}
	nav.setPosition(parent)
	return true
}

func (nav *treeNavigator) MoveToNextAttribute() bool {
	if nav.curElement == nil || nav.attrIndex+1 >= len(nav.curElement.Attrs) {
		return false
	}
	nav.attrIndex++
	return true
}

func (nav *treeNavigator) MoveToChild() bool {
	if nav.attrIndex != -1 || nav.curElement == nil || len(nav.curElement.children) == 0 {
		return false
	}
	nav.setPosition(nav.curElement.children[0])
	return true
}

func (nav *treeNavigator) MoveToFirst() bool {
	if nav.attrIndex != -1 {
		return false
	}
	parent := nav.cur.parentNode()
	if parent == nil || nav.cur.index() == 0 || len(parent.children) == 0 {
		return false
	}
	nav.setPosition(parent.children[0])
	return true
}

func (nav *treeNavigator) MoveToNext() bool {
	if nav.attrIndex != -1 {
		return false
	}
	parent := nav.cur.parentNode()
	if parent == nil {
		return false
	}
	idx := nav.cur.index()
	if idx+1 >= len(parent.children) {
		return false
	}
	nav.setPosition(parent.children[idx+1])
	return true
}

func (nav *treeNavigator) MoveToPrevious() bool {
	if nav.attrIndex != -1 {
		return false
	}
	parent := nav.cur.parentNode()
	if parent == nil {
		return false
	}
	idx := nav.cur.index()
	if idx <= 0 {
		return false
	}
	nav.setPosition(parent.children[idx-1])
	return true
}

func (nav *treeNavigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*treeNavigator)
	if !ok || o.root != nav.root {
		return false
	}
	nav.cur = o.cur
	nav.curElement = o.curElement
	nav.attrIndex = o.attrIndex
	return true
}

// setPosition parks the navigator on c, maintaining the curElement cache:
// nil while the navigator sits on text or comment content.
func (nav *treeNavigator) setPosition(c child) {
	nav.cur = c
	if elem, ok := c.(*Node); ok {
		nav.curElement = elem
	} else {
		nav.curElement = nil
	}
	nav.attrIndex = -1
}
