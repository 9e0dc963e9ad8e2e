package xmltokenizer

import "io"

// Message carries the input byte stream and a character-set hint — the shape
// a routing framework's exchange object reduces to for this package. The
// body's ownership stays with the caller; the tokenizer never closes it.
type Message interface {
	// Body is the XML byte stream to tokenize.
	Body() io.Reader
	// ContentEncoding is the charset hint; "" means infer from the stream.
	ContentEncoding() string
}

// StaticMessage is the trivial Message for direct callers.
type StaticMessage struct {
	Reader   io.Reader
	Encoding string
}

func (m StaticMessage) Body() io.Reader         { return m.Reader }
func (m StaticMessage) ContentEncoding() string { return m.Encoding }

type options struct {
	factory EventReaderFactory
	readBuf int
	chanBuf int
}

// Option configures Tokenize.
type Option func(*options)

// WithEventReaderFactory substitutes the pull parser the cursor is driven
// by. The default builds on gosax via GosaxEventReaderFactory.
func WithEventReaderFactory(f EventReaderFactory) Option {
	return func(o *options) { o.factory = f }
}

// WithReadBufferSize sets the default event reader's buffer size. It has no
// effect when a custom factory is supplied.
func WithReadBufferSize(n int) Option {
	return func(o *options) { o.readBuf = n }
}

// WithChannelBuffer sets the buffer of the channel returned by
// Cursor.Fragments.
func WithChannelBuffer(n int) Option {
	return func(o *options) { o.chanBuf = n }
}

// Tokenize compiles path against prefixes and returns a Cursor streaming one
// fragment per match out of msg's body. wrap selects wrap mode (ancestor
// tags reproduced around each fragment) over inject mode (inherited xmlns
// declarations spliced into the fragment's own start tag).
//
// Argument errors (empty or malformed path) and parser-contract errors (a
// reader whose initial character offset is not zero) surface here; errors
// encountered mid-stream are reported through Cursor.LastError.
func Tokenize(msg Message, path string, prefixes map[string]string, wrap bool, opts ...Option) (*Cursor, error) {
	sel, err := CompileSelector(path, prefixes)
	if err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var reader EventReader
	if o.factory != nil {
		reader, err = o.factory(msg.Body(), msg.ContentEncoding())
		if err != nil {
			return nil, err
		}
	} else {
		reader = NewGosaxEventReader(msg.Body(), msg.ContentEncoding(), o.readBuf)
	}
	if reader.Offset() != 0 {
		return nil, ErrReaderNoLocation
	}

	c := &Cursor{
		sel:     sel,
		wrap:    wrap,
		reader:  reader,
		rec:     newRecorder(),
		chanBuf: o.chanBuf,
	}
	c.advance()
	return c, nil
}
