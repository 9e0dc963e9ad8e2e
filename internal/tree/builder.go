package tree

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/wilkmaciej/xpath"

	xmltokenizer "github.com/wilkmaciej/xmltokenizer"
)

// Builder materializes an XML document into Nodes, delivering the elements
// whose names the caller asked for over a channel as each one closes. It
// rides the parent package's event reader, so self-closing tags, namespace
// declarations and verbatim tag spans arrive pre-digested; the builder's
// job is only to assemble the tree.
type Builder struct {
	ctx         context.Context
	events      xmltokenizer.EventReader
	streamNames map[string]bool
	bufferSize  int
	once        sync.Once
	ch          chan *Node
}

// NewBuilder prepares a builder over reader. streamNames lists the raw
// element names (as written, prefix included) to deliver; nil or empty
// streams nothing. bufferSize is the channel buffer, 0 for the default of 8.
func NewBuilder(ctx context.Context, reader io.Reader, streamNames []string, bufferSize int) *Builder {
	if bufferSize <= 0 {
		bufferSize = 8
	}

	b := &Builder{
		ctx:        ctx,
		events:     xmltokenizer.NewGosaxEventReader(reader, "", 0),
		bufferSize: bufferSize,
	}

	if len(streamNames) > 0 {
		b.streamNames = make(map[string]bool, len(streamNames))
		for _, name := range streamNames {
			b.streamNames[name] = true
		}
	}

	return b
}

// Nodes returns a channel of Nodes as they are parsed.
// It is safe to call multiple times — subsequent calls return the same channel.
func (b *Builder) Nodes() <-chan *Node {
	b.once.Do(func() {
		b.ch = make(chan *Node, b.bufferSize)
		go func() {
			defer close(b.ch)
			b.parse(b.ch)
		}()
	})
	return b.ch
}

// openElem pairs an element still being built with the namespace bindings
// in scope inside it. The scope lives here rather than on the Node: once an
// element closes, every name in its subtree is already resolved.
type openElem struct {
	node  *Node
	scope map[string]string
}

func (b *Builder) parse(ch chan<- *Node) {
	stack := make([]openElem, 0, 32)

	for {
		et, err := b.events.Next()
		if err != nil || b.ctx.Err() != nil {
			return
		}

		switch et {
		case xmltokenizer.EventStart:
			stack = append(stack, b.openElement(stack))
		case xmltokenizer.EventEnd:
			// The event reader synthesizes an END for self-closing tags,
			// so every element closes through here.
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			b.deliverIfRequested(ch, top.node)
		case xmltokenizer.EventOther:
			appendContent(stack, b.events.Bytes())
		case xmltokenizer.EventEOF:
			return
		}
	}
}

// openElement builds the Node for the start tag the event reader is
// positioned on and links it under the current top of stack.
func (b *Builder) openElement(stack []openElem) openElem {
	var parent *Node
	var parentScope map[string]string
	if len(stack) > 0 {
		parent = stack[len(stack)-1].node
		parentScope = stack[len(stack)-1].scope
	}
	scope := inheritedScope(parentScope, b.events.NamespaceDecls())

	name := b.events.Name()
	name.URI = scope[name.Prefix]

	elem := &Node{
		Name:  name,
		Attrs: parseAttributes(startTagAttributes(b.events.Bytes()), scope),
	}
	if parent != nil {
		elem.parent = parent
		elem.siblingIndex = len(parent.children)
		parent.children = append(parent.children, elem)
	}
	return openElem{node: elem, scope: scope}
}

func (b *Builder) deliverIfRequested(ch chan<- *Node, elem *Node) {
	if len(b.streamNames) == 0 || !b.streamNames[elem.Name.String()] {
		return
	}
	// Detach from the parent so the consumer owns the subtree; the
	// children's parent pointers are already correct.
	elem.parent = nil
	ch <- elem
}

// inheritedScope merges an element's own xmlns declarations over its
// parent's in-scope bindings, reusing the parent's map when the element
// declares nothing.
func inheritedScope(parent map[string]string, decls []xmltokenizer.NSDecl) map[string]string {
	if len(decls) == 0 {
		return parent
	}
	scope := make(map[string]string, len(parent)+len(decls))
	for k, v := range parent {
		scope[k] = v
	}
	for _, d := range decls {
		scope[d.Prefix] = d.URI
	}
	return scope
}

// appendContent attaches one non-element span — text, CDATA or comment — to
// the element currently open. Processing instructions and doctype spans are
// dropped; the tree holds document content only.
func appendContent(stack []openElem, span []byte) {
	if len(stack) == 0 || len(span) == 0 {
		return
	}

	kind := xpath.TextNode
	switch {
	case bytes.HasPrefix(span, []byte("<!--")):
		if len(span) <= len("<!---->") {
			return
		}
		span = span[4 : len(span)-3]
		kind = xpath.CommentNode
	case bytes.HasPrefix(span, []byte("<![CDATA[")):
		if len(span) <= len("<![CDATA[]]>") {
			return
		}
		span = span[9 : len(span)-3]
	case span[0] == '<':
		return
	}

	parent := stack[len(stack)-1].node
	parent.children = append(parent.children, &content{
		kind:         kind,
		data:         string(span),
		parent:       parent,
		siblingIndex: len(parent.children),
	})
}

// startTagAttributes cuts the attribute region out of a verbatim start tag:
// everything between the tag name and the closing ">" or "/>".
func startTagAttributes(tag []byte) []byte {
	i := 1 // past '<'
	for i < len(tag) && !isSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}
	end := len(tag)
	if end >= 2 && tag[end-2] == '/' && tag[end-1] == '>' {
		end -= 2
	} else if end >= 1 && tag[end-1] == '>' {
		end--
	}
	if i >= end {
		return nil
	}
	return tag[i:end]
}

// parseAttributes walks the attribute region quote-aware and resolves each
// name="value" pair against the element's scope, xmlns declarations
// included, so the XPath attribute axis sees the tag exactly as written.
// Only prefixed attributes get a namespace; the default binding does not
// apply to attributes.
func parseAttributes(attrs []byte, scope map[string]string) []Attr {
	var out []Attr

	i := 0
	for i < len(attrs) {
		for i < len(attrs) && isSpace(attrs[i]) {
			i++
		}
		if i >= len(attrs) {
			return out
		}

		nameStart := i
		for i < len(attrs) && attrs[i] != '=' {
			i++
		}
		if i >= len(attrs) {
			return out
		}
		raw := string(bytes.TrimSpace(attrs[nameStart:i]))
		i++ // '='

		for i < len(attrs) && isSpace(attrs[i]) {
			i++
		}
		if i >= len(attrs) {
			return out
		}
		quote := attrs[i]
		if quote != '"' && quote != '\'' {
			return out
		}
		i++
		valueStart := i
		for i < len(attrs) && attrs[i] != quote {
			i++
		}
		value := string(attrs[valueStart:i])
		i++ // closing quote

		name := xmltokenizer.QName{Local: raw}
		if prefix, local, ok := strings.Cut(raw, ":"); ok {
			name = xmltokenizer.QName{Prefix: prefix, Local: local, URI: scope[prefix]}
		}
		out = append(out, Attr{Name: name, Value: value})
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
