package audio

import (
	"encoding/binary"
	"fmt"
)

// Reader is a bounds-checked little-endian cursor over a byte slice. Every
// accessor returns ErrTruncated instead of panicking on short input.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Pos returns the current offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.buf) {
		return fmt.Errorf("seek to %d of %d: %w", offset, len(r.buf), ErrTruncated)
	}
	r.pos = offset
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || n > r.Len() {
		return fmt.Errorf("skip %d bytes with %d left: %w", n, r.Len(), ErrTruncated)
	}
	r.pos += n
	return nil
}

// Bytes returns the next n bytes without copying.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, fmt.Errorf("read %d bytes with %d left: %w", n, r.Len(), ErrTruncated)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// FourCC reads a four character chunk identifier.
func (r *Reader) FourCC() (string, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Uint16 reads a little-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint16At reads a little-endian uint16 at an absolute offset without moving the cursor.
func (r *Reader) Uint16At(offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(r.buf) {
		return 0, fmt.Errorf("uint16 at %d of %d: %w", offset, len(r.buf), ErrTruncated)
	}
	return binary.LittleEndian.Uint16(r.buf[offset:]), nil
}

// Uint32At reads a little-endian uint32 at an absolute offset without moving the cursor.
func (r *Reader) Uint32At(offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(r.buf) {
		return 0, fmt.Errorf("uint32 at %d of %d: %w", offset, len(r.buf), ErrTruncated)
	}
	return binary.LittleEndian.Uint32(r.buf[offset:]), nil
}

// FourCCAt reads a chunk identifier at an absolute offset without moving the cursor.
func (r *Reader) FourCCAt(offset int) (string, error) {
	if offset < 0 || offset+4 > len(r.buf) {
		return "", fmt.Errorf("fourcc at %d of %d: %w", offset, len(r.buf), ErrTruncated)
	}
	return string(r.buf[offset : offset+4]), nil
}
