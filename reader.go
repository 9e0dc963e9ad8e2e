package xmltokenizer

import (
	"bytes"
	"io"

	"github.com/orisano/gosax"
)

// EventType is the event code surfaced by an EventReader.
type EventType uint8

const (
	EventNone EventType = iota
	EventStart
	EventEnd
	// EventOther covers text, CDATA and comment spans: the match engine
	// does not act on them beyond recording their verbatim bytes.
	EventOther
	EventEOF
)

// NSDecl is a namespace declaration found on a single start tag, before any
// inheritance from ancestors is applied.
type NSDecl struct {
	Prefix string
	URI    string
}

// EventReader is the offset-aware pull-parser contract C4 drives.
// Implementations must report Offset as monotonically non-decreasing and
// equal to the total length in bytes (not decoded characters) of the event
// spans returned by Bytes so far, since the cursor slices its byte-backed
// recording window by Offset deltas; if the reader's offset is non-zero
// before the first Next call, Tokenize fails fast with ErrReaderNoLocation.
type EventReader interface {
	// Next advances to the next event, returning EventEOF at end of
	// document. Every event's verbatim bytes are available via Bytes,
	// including EventOther spans, so the recording window never misses a
	// byte of the underlying stream.
	Next() (EventType, error)
	// Name is the qualified name of the current start or end event.
	Name() QName
	// NamespaceDecls are the xmlns declarations written directly on the
	// current start tag, before merging with inherited bindings.
	NamespaceDecls() []NSDecl
	// Bytes is the verbatim byte span of the current event.
	Bytes() []byte
	// Offset is the byte offset immediately after the current
	// event's span.
	Offset() int64
}

// EventReaderFactory builds an EventReader over r. encoding is a charset
// hint; an empty string means infer from the stream, matching the
// Message.ContentEncoding contract.
type EventReaderFactory func(r io.Reader, encoding string) (EventReader, error)

// defaultReadBufferSize matches the buffer the original streaming parse
// loop hands to gosax.
const defaultReadBufferSize = 1024 * 1024 * 64

// GosaxEventReaderFactory is the default EventReaderFactory, built on
// github.com/orisano/gosax. encoding is currently unused: gosax decodes
// UTF-8 and ASCII-compatible encodings itself from the byte stream.
func GosaxEventReaderFactory(r io.Reader, encoding string) (EventReader, error) {
	return NewGosaxEventReader(r, encoding, defaultReadBufferSize), nil
}

// NewGosaxEventReader builds a GosaxEventReader over r with an explicit
// gosax buffer size. bufferSize <= 0 selects the default.
func NewGosaxEventReader(r io.Reader, encoding string, bufferSize int) *GosaxEventReader {
	if bufferSize <= 0 {
		bufferSize = defaultReadBufferSize
	}
	return &GosaxEventReader{r: gosax.NewReaderSize(r, bufferSize)}
}

// GosaxEventReader adapts gosax's pull-style event stream to EventReader.
// Offset is tracked as the cumulative byte length of every event span
// delivered so far (start tags, end tags, text, CDATA and comments alike).
// Offsets therefore count bytes, not decoded runes; the recording window is
// byte-backed too, so deltas against Offset always slice it correctly.
type GosaxEventReader struct {
	r           *gosax.Reader
	offset      int64
	bytes       []byte
	name        QName
	nsDecls     []NSDecl
	pendingEnd  bool
	pendingName QName
}

// Next implements EventReader. gosax reports a self-closing element as a
// single EventStart whose bytes end in "/>"; the match engine expects a
// START immediately followed by an END at the same depth, so a self-closing
// start queues a synthetic, zero-length END returned on the following call.
func (g *GosaxEventReader) Next() (EventType, error) {
	if g.pendingEnd {
		g.pendingEnd = false
		g.bytes = nil
		g.name = g.pendingName
		return EventEnd, nil
	}

	e, err := g.r.Event()
	if err != nil {
		return EventNone, err
	}
	g.bytes = e.Bytes
	g.offset += int64(len(e.Bytes))

	switch e.Type() {
	case gosax.EventStart:
		nameBytes, attrs := gosax.Name(e.Bytes)
		prefix, local := splitQName(string(nameBytes))
		g.name = QName{Prefix: prefix, Local: local}
		g.nsDecls = nil
		if len(attrs) > 0 && bytes.Contains(attrs, []byte("xmlns")) {
			g.nsDecls = scanNamespaceDecls(attrs)
		}
		if isSelfClosing(e.Bytes) {
			g.pendingEnd = true
			g.pendingName = g.name
		}
		return EventStart, nil
	case gosax.EventEnd:
		g.name = endTagName(e.Bytes)
		return EventEnd, nil
	case gosax.EventEOF:
		return EventEOF, nil
	default:
		return EventOther, nil
	}
}

func (g *GosaxEventReader) Name() QName              { return g.name }
func (g *GosaxEventReader) NamespaceDecls() []NSDecl { return g.nsDecls }
func (g *GosaxEventReader) Bytes() []byte            { return g.bytes }
func (g *GosaxEventReader) Offset() int64            { return g.offset }

// isSelfClosing reports whether a start tag's verbatim bytes end in "/>".
func isSelfClosing(raw []byte) bool {
	trimmed := bytes.TrimRight(raw, " \t\r\n")
	return bytes.HasSuffix(trimmed, []byte("/>"))
}

// endTagName extracts the qualified name out of a raw "</prefix:local>"
// span. gosax.Name is built to split a start tag's name from its attribute
// bytes and is not used here since an end tag carries no attributes.
func endTagName(raw []byte) QName {
	s := bytes.TrimSpace(raw)
	s = bytes.TrimPrefix(s, []byte("</"))
	s = bytes.TrimSuffix(s, []byte(">"))
	s = bytes.TrimSpace(s)
	prefix, local := splitQName(string(s))
	return QName{Prefix: prefix, Local: local}
}

// scanNamespaceDecls walks a start tag's attribute bytes with a quote-aware
// scanner and returns only the xmlns/xmlns:pfx declarations written directly
// on this tag.
func scanNamespaceDecls(attrs []byte) []NSDecl {
	var decls []NSDecl
	i := 0
	for i < len(attrs) {
		for i < len(attrs) && isAttrSpace(attrs[i]) {
			i++
		}
		if i >= len(attrs) {
			break
		}

		nameStart := i
		for i < len(attrs) && attrs[i] != '=' {
			i++
		}
		if i >= len(attrs) {
			break
		}
		name := bytes.TrimSpace(attrs[nameStart:i])
		i++ // skip '='

		for i < len(attrs) && (attrs[i] == ' ' || attrs[i] == '\t') {
			i++
		}
		if i >= len(attrs) {
			break
		}
		quote := attrs[i]
		if quote != '"' && quote != '\'' {
			break
		}
		i++
		valueStart := i
		for i < len(attrs) && attrs[i] != quote {
			i++
		}
		value := string(attrs[valueStart:i])
		i++ // skip closing quote

		switch {
		case string(name) == "xmlns":
			decls = append(decls, NSDecl{Prefix: "", URI: value})
		case bytes.HasPrefix(name, []byte("xmlns:")):
			decls = append(decls, NSDecl{Prefix: string(name[len("xmlns:"):]), URI: value})
		}
	}
	return decls
}

func isAttrSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
