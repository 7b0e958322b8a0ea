package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnexpectedEnd is returned when a read would cross the end of the buffer.
var ErrUnexpectedEnd = errors.New("unexpected end of buffer")

// ErrUnterminated is returned when a null-terminated string has no
// terminator before the buffer ends.
var ErrUnterminated = errors.New("unterminated string")

// Reader is a bounds-checked cursor over an immutable byte buffer.
// All multi-byte reads are little-endian. The buffer is never copied;
// callers share the underlying bytes with every other view of the image.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader positioned at offset 0 of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// NewReaderAt creates a Reader positioned at the given offset.
func NewReaderAt(data []byte, offset int) (*Reader, error) {
	if offset < 0 || offset > len(data) {
		return nil, fmt.Errorf("at position %d: %w", offset, ErrUnexpectedEnd)
	}
	return &Reader{data: data, pos: offset}, nil
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Seek moves the cursor to an absolute position.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return fmt.Errorf("at position %d: %w", pos, ErrUnexpectedEnd)
	}
	r.pos = pos
	return nil
}

// Skip advances the cursor by n bytes without materializing them.
func (r *Reader) Skip(n int) error {
	if n < 0 || n > r.Remaining() {
		return r.wrapError(ErrUnexpectedEnd)
	}
	r.pos += n
	return nil
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, r.wrapError(ErrUnexpectedEnd)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, r.wrapError(ErrUnexpectedEnd)
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, r.wrapError(ErrUnexpectedEnd)
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, r.wrapError(ErrUnexpectedEnd)
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadBytes reads exactly n bytes. The returned slice aliases the
// underlying buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, r.wrapError(ErrUnexpectedEnd)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadCString reads a null-terminated byte sequence and consumes the
// terminator. The terminator is not part of the returned string.
func (r *Reader) ReadCString() (string, error) {
	for i := r.pos; i < len(r.data); i++ {
		if r.data[i] == 0 {
			s := string(r.data[r.pos:i])
			r.pos = i + 1
			return s, nil
		}
	}
	return "", r.wrapError(ErrUnterminated)
}

// Align4 advances the cursor to the next 4-byte boundary. Already-aligned
// positions are left untouched.
func (r *Reader) Align4() error {
	pad := (4 - r.pos%4) % 4
	return r.Skip(pad)
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.pos, err)
}

// ParseError represents an error during binary decoding with position
// information.
type ParseError struct {
	Err      error
	Section  string
	Position int
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("cil: %s at position %d: %v", e.Section, e.Position, e.Err)
	}
	return fmt.Sprintf("cil: at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapError creates a ParseError with the current position.
func (r *Reader) WrapError(section string, err error) error {
	return &ParseError{
		Position: r.pos,
		Section:  section,
		Err:      err,
	}
}
