package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrNotCanonicalWAV reports a buffer that is not a RIFF/WAVE stream.
	ErrNotCanonicalWAV = errors.New("not a canonical wav stream")
	// ErrTruncated reports a read past the end of the buffer.
	ErrTruncated = errors.New("unexpected end of wav data")
	// ErrMissingChunk reports a RIFF stream without a usable fmt or data chunk.
	ErrMissingChunk = errors.New("required wav chunk not found")
)

// FormatError describes why a buffer could not be parsed. Offset is the
// byte position where parsing stopped.
type FormatError struct {
	Op     string
	Offset int
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("wav %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatErr(op string, offset int, err error) *FormatError {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe
	}
	return &FormatError{Op: op, Offset: offset, Err: err}
}
