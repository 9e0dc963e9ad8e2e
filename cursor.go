package xmltokenizer

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Cursor walks one XML document and yields one well-formed fragment per
// selector match, in document order. It pre-computes the next fragment so
// HasNext never blocks on anything the last Next call has not already read.
//
// A Cursor is not safe for concurrent use. It does not own the byte stream
// beneath its event reader; Close releases the reader only.
type Cursor struct {
	sel    Selector
	wrap   bool
	reader EventReader
	rec    *recorder

	stacks   frameStacks
	depth    int
	index    int
	consumed int64

	next    string
	hasNext bool
	lastErr error
	closed  bool

	chanBuf int
	once    sync.Once
	ch      chan Result
}

// Result is one item of the channel form of the cursor: a fragment, or the
// terminal stream error when iteration ended on a failure instead of a
// clean end of document.
type Result struct {
	Fragment string
	Err      error
}

// HasNext reports whether a pre-computed fragment is held.
func (c *Cursor) HasNext() bool { return c.hasNext }

// Next returns the held fragment and eagerly computes its successor. Once
// the cursor is exhausted it returns ""; use HasNext to distinguish that
// from an empty fragment, and LastError to distinguish a clean end of
// document from a mid-stream failure.
func (c *Cursor) Next() string {
	if !c.hasNext {
		return ""
	}
	frag := c.next
	c.advance()
	return frag
}

// Remove is a no-op. Fragments are copies of the source text; there is
// nothing to remove from the stream.
func (c *Cursor) Remove() {}

// LastError returns the stream error that ended iteration, or nil when the
// document was consumed cleanly (or iteration has not ended yet).
func (c *Cursor) LastError() error { return c.lastErr }

// Close releases the event reader and drops the held fragment. It is safe
// to call from any state, including mid-iteration, and more than once. The
// byte stream the reader was built over belongs to the caller and is left
// untouched.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.next, c.hasNext = "", false
	if cl, ok := c.reader.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// Fragments returns a channel draining the cursor on a background goroutine,
// for callers who prefer range-over-channel to HasNext/Next. It is safe to
// call multiple times — subsequent calls return the same channel. The
// goroutine is the only user of the synchronous API for this cursor; ctx
// cancellation is checked once per fragment. A terminal stream error is
// delivered as the channel's last Result.
func (c *Cursor) Fragments(ctx context.Context) <-chan Result {
	c.once.Do(func() {
		buf := c.chanBuf
		if buf <= 0 {
			buf = 8
		}
		c.ch = make(chan Result, buf)
		go func() {
			defer close(c.ch)
			for c.HasNext() {
				select {
				case <-ctx.Done():
					return
				case c.ch <- Result{Fragment: c.Next()}:
				}
			}
			if err := c.LastError(); err != nil {
				select {
				case <-ctx.Done():
				case c.ch <- Result{Err: err}:
				}
			}
		}()
	})
	return c.ch
}

// advance pre-computes the next fragment, or latches end-of-stream.
func (c *Cursor) advance() {
	if c.closed {
		c.next, c.hasNext = "", false
		return
	}
	c.next, c.hasNext = c.nextFragment()
}

// nextFragment runs the pull loop until a selector match emits a fragment
// or the document ends. Structurally a coroutine: one fragment out per
// call, all cursor state carried across calls in c.
func (c *Cursor) nextFragment() (string, bool) {
	for {
		et, err := c.reader.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.lastErr = &StreamError{Cause: err, Offset: c.reader.Offset()}
			} else if c.depth != 0 {
				c.lastErr = &StreamError{Cause: io.ErrUnexpectedEOF, Offset: c.reader.Offset()}
			}
			return "", false
		}
		c.rec.append(c.reader.Bytes())

		switch et {
		case EventStart:
			frag, emitted, err := c.handleStart()
			if err != nil {
				c.lastErr = err
				return "", false
			}
			if emitted {
				return frag, true
			}
		case EventEnd:
			c.handleEnd()
		case EventEOF:
			if c.depth != 0 {
				c.lastErr = &StreamError{Cause: io.ErrUnexpectedEOF, Offset: c.reader.Offset()}
			}
			return "", false
		}
		// Text, CDATA, comments and other spans only feed the recording
		// window, which the append above already did.
	}
}

// handleStart processes one start tag: resolves the element's name against
// the in-scope bindings, drains the recording window through the tag, and
// consults the selector to emit, descend, or skip.
func (c *Cursor) handleStart() (string, bool, error) {
	c.depth++
	name := c.reader.Name()
	frame := mergeNamespaceFrame(c.stacks.topNS(), c.reader.NamespaceDecls())
	name.URI = frame[name.Prefix]

	startTag := string(c.reader.Bytes())
	text := c.rec.getText(int(c.reader.Offset() - c.consumed))
	c.consumed = c.reader.Offset()
	c.rec.record()

	s := c.sel.at(c.index)
	switch {
	case s != nil && s.matches(name):
		c.pushFrame(name, frame, text)
		if c.sel.isBottom(c.index) {
			return c.emit(startTag, frame)
		}
		c.index = c.sel.advanceAfterMatch(c.index)
	case c.sel.isDescendantAxis(c.index) || c.index == 0:
		// No match here, but the selector may still bind deeper down:
		// either we are on a descendant-or-self axis, or no segment has
		// matched yet and the path is anchored at the first element the
		// head segment matches, not at the document root.
		c.pushFrame(name, frame, text)
	default:
		// Dead branch for this selector position.
		if err := c.skipSubtree(); err != nil {
			return "", false, err
		}
		c.depth--
	}
	return "", false, nil
}

// handleEnd closes one element: the selector position rewinds to whatever
// it was before the element was opened, which is exactly the backtracking
// the selector automaton needs on subtree exit. The window is drained past
// the closing tag so that an exited subtree's tail never leaks into the
// recorded segment of a later sibling's start tag.
func (c *Cursor) handleEnd() {
	c.depth--
	if c.stacks.height() > 0 {
		c.index = c.stacks.pop()
	}
	c.consumed = c.reader.Offset()
	c.rec.record()
}

func (c *Cursor) pushFrame(name QName, frame nsFrame, text string) {
	c.stacks.pushPath(name)
	c.stacks.pushNS(frame)
	if c.wrap {
		c.stacks.pushSegment(text)
	}
	c.stacks.pushIndex(c.index)
}

// emit builds the fragment for a full match. The matched element's frames
// are already pushed; its whole subtree, closing tag included, is consumed
// here, so its frames are popped again before returning and the selector
// index rewinds as if the engine had seen the END itself.
func (c *Cursor) emit(startTag string, frame nsFrame) (string, bool, error) {
	innerClose, err := c.readSubtree()
	if err != nil {
		return "", false, err
	}
	var frag string
	if c.wrap {
		frag = buildWrapFragment(c.stacks.segments, innerClose, c.stacks.ancestorCloses())
	} else {
		frag = buildInjectFragment(startTag, innerClose, frame)
	}
	c.index = c.stacks.pop()
	c.depth--
	return frag, true, nil
}

// readSubtree advances the reader until the current element's closing tag
// has been consumed, then drains the recording window. The returned text is
// everything after the element's start tag through its closing tag, verbatim
// ("" for a self-closed element).
func (c *Cursor) readSubtree() (string, error) {
	if err := c.consumeSubtree(); err != nil {
		return "", err
	}
	text := c.rec.getText(int(c.reader.Offset() - c.consumed))
	c.consumed = c.reader.Offset()
	c.rec.record()
	return text, nil
}

// skipSubtree consumes the current element's subtree without touching the
// selector or the context stacks, then discards the recording window so the
// skipped text cannot leak into a later sibling's recorded segment.
func (c *Cursor) skipSubtree() error {
	if err := c.consumeSubtree(); err != nil {
		return err
	}
	c.consumed = c.reader.Offset()
	c.rec.record()
	return nil
}

// consumeSubtree runs the reader forward counting start/end deltas until the
// element the cursor just entered is closed, feeding every span into the
// recording window.
func (c *Cursor) consumeSubtree() error {
	open := 1
	for open > 0 {
		et, err := c.reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return &StreamError{Cause: err, Offset: c.reader.Offset()}
		}
		c.rec.append(c.reader.Bytes())
		switch et {
		case EventStart:
			open++
		case EventEnd:
			open--
		case EventEOF:
			return &StreamError{Cause: io.ErrUnexpectedEOF, Offset: c.reader.Offset()}
		}
	}
	return nil
}
