package xmltokenizer

import "strings"

// nsFrame is the full in-scope prefix-to-URI mapping at one depth: parent
// bindings merged with this element's own declarations, child bindings
// winning on collision.
type nsFrame map[string]string

// mergeNamespaceFrame builds the namespace frame for an element given its
// parent's frame (nil at the root) and its own locally declared bindings.
func mergeNamespaceFrame(parent nsFrame, decls []NSDecl) nsFrame {
	if len(decls) == 0 {
		return parent
	}
	frame := make(nsFrame, len(parent)+len(decls))
	for k, v := range parent {
		frame[k] = v
	}
	for _, d := range decls {
		frame[d.Prefix] = d.URI
	}
	return frame
}

// frameStacks holds the three context stacks together with the selector
// index snapshot taken at each open element, all growing with START and
// shrinking with END, kept at a height equal to the current depth. A
// wrap-mode segment is the verbatim start-tag text of one open element,
// plus any text or comments recorded before it since the last checkpoint.
//
// The namespace stack is maintained in both modes: inject mode reads the top
// frame to splice missing declarations into a fragment, and the match engine
// needs it in either mode to resolve element prefixes to URIs, since the
// event reader reports names as written.
type frameStacks struct {
	path     []QName
	ns       []nsFrame
	segments []string // populated only in wrap mode
	indexes  []int    // selector index in effect before each open element
}

func (f *frameStacks) height() int { return len(f.path) }

func (f *frameStacks) pushPath(n QName) { f.path = append(f.path, n) }

func (f *frameStacks) pushNS(frame nsFrame) { f.ns = append(f.ns, frame) }

func (f *frameStacks) pushSegment(text string) { f.segments = append(f.segments, text) }

func (f *frameStacks) pushIndex(i int) { f.indexes = append(f.indexes, i) }

func (f *frameStacks) topNS() nsFrame {
	if len(f.ns) == 0 {
		return nil
	}
	return f.ns[len(f.ns)-1]
}

// pop removes the topmost frame from every populated stack and returns the
// selector index that was in effect before that element was opened.
func (f *frameStacks) pop() int {
	f.path = f.path[:len(f.path)-1]
	if len(f.ns) > 0 {
		f.ns = f.ns[:len(f.ns)-1]
	}
	if len(f.segments) > 0 {
		f.segments = f.segments[:len(f.segments)-1]
	}
	idx := f.indexes[len(f.indexes)-1]
	f.indexes = f.indexes[:len(f.indexes)-1]
	return idx
}

// ancestorCloses renders synthetic closing tags for every element on path
// except the topmost (the element just matched, whose own closing tag is
// already part of its recorded inner content), innermost-first.
func (f *frameStacks) ancestorCloses() string {
	var sb strings.Builder
	for i := len(f.path) - 2; i >= 0; i-- {
		sb.WriteString("</")
		sb.WriteString(f.path[i].String())
		sb.WriteByte('>')
	}
	return sb.String()
}
