package xmltokenizer

import (
	"errors"
	"fmt"
)

// Sentinel errors returned synchronously from Tokenize. Argument errors and
// parser-contract errors never surface later, only at construction.
var (
	// ErrEmptyPath is returned when the selector path is empty or reduces
	// to nothing after stripping the leading separator.
	ErrEmptyPath = errors.New("xmltokenizer: path must not be empty")

	// ErrReaderNoLocation is returned when the underlying event reader's
	// initial character offset is not zero, meaning it cannot be trusted
	// to report a location synced to event boundaries.
	ErrReaderNoLocation = errors.New("xmltokenizer: reader does not report a zero initial character offset")
)

// badSelectorError reports a malformed path at construction time, e.g. a
// trailing or doubled descendant-or-self axis.
type badSelectorError struct {
	path   string
	reason string
}

func (e *badSelectorError) Error() string {
	return fmt.Sprintf("xmltokenizer: path %q: %s", e.path, e.reason)
}

// StreamError wraps an XML-stream error encountered mid-iteration, together
// with the reader's byte offset at which it was observed. The cursor never
// returns this from Next; it is recorded and retrievable via Cursor.LastError
// so callers can distinguish graceful end-of-stream from a real failure.
type StreamError struct {
	Cause  error
	Offset int64
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("xmltokenizer: stream error at offset %d: %v", e.Offset, e.Cause)
}

func (e *StreamError) Unwrap() error { return e.Cause }
