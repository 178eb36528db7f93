// Package bytestream implements a cursor-based reader over an in-memory module file.
package bytestream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfBounds is matched by every OutOfBoundsError.
var ErrOutOfBounds = errors.New("read out of bounds")

// OutOfBoundsError is returned when a read would go past the end of the data.
type OutOfBoundsError struct {
	// Offset is the cursor position at which the read was attempted.
	Offset int

	// Want is the number of bytes the read needed.
	Want int

	// Len is the total data length.
	Len int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("reading %d bytes at offset %d: data length is %d", e.Want, e.Offset, e.Len)
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Stream is a read cursor over a fixed byte slice.
//
// Multi-byte reads use the current byte order, which can be changed
// at any moment with SetByteOrder. Some formats mix big-endian Amiga
// headers with little-endian PC-era fields, so this is not a constructor-only setting.
//
// A failed read never moves the cursor.
type Stream struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

// New returns a stream positioned at the first byte of data.
func New(data []byte, order binary.ByteOrder) *Stream {
	return &Stream{data: data, order: order}
}

func (s *Stream) SetByteOrder(order binary.ByteOrder) { s.order = order }

func (s *Stream) ByteOrder() binary.ByteOrder { return s.order }

// Pos returns the cursor position.
func (s *Stream) Pos() int { return s.pos }

// Len returns the total data length.
func (s *Stream) Len() int { return len(s.data) }

// Remaining reports how many bytes can still be read.
func (s *Stream) Remaining() int { return len(s.data) - s.pos }

// Seek moves the cursor to an absolute position.
// Seeking to Len() is allowed; any read after that fails.
func (s *Stream) Seek(pos int) error {
	if pos < 0 || pos > len(s.data) {
		return &OutOfBoundsError{Offset: pos, Want: 0, Len: len(s.data)}
	}
	s.pos = pos
	return nil
}

func (s *Stream) Skip(n int) error {
	if err := s.check(n); err != nil {
		return err
	}
	s.pos += n
	return nil
}

func (s *Stream) check(n int) error {
	if n < 0 || s.Remaining() < n {
		return &OutOfBoundsError{Offset: s.pos, Want: n, Len: len(s.data)}
	}
	return nil
}

func (s *Stream) ReadUint8() (uint8, error) {
	if err := s.check(1); err != nil {
		return 0, err
	}
	v := s.data[s.pos]
	s.pos++
	return v, nil
}

func (s *Stream) ReadInt8() (int8, error) {
	v, err := s.ReadUint8()
	return int8(v), err
}

func (s *Stream) ReadUint16() (uint16, error) {
	if err := s.check(2); err != nil {
		return 0, err
	}
	v := s.order.Uint16(s.data[s.pos:])
	s.pos += 2
	return v, nil
}

func (s *Stream) ReadUint32() (uint32, error) {
	if err := s.check(4); err != nil {
		return 0, err
	}
	v := s.order.Uint32(s.data[s.pos:])
	s.pos += 4
	return v, nil
}

// ReadBytes returns the next n bytes.
// The result aliases the stream data and must not be modified.
func (s *Stream) ReadBytes(n int) ([]byte, error) {
	if err := s.check(n); err != nil {
		return nil, err
	}
	b := s.data[s.pos : s.pos+n : s.pos+n]
	s.pos += n
	return b, nil
}

// ReadString reads a fixed-length NUL-padded field.
// Trailing NUL bytes are removed, everything else is kept as is.
func (s *Stream) ReadString(n int) (string, error) {
	b, err := s.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b, "\x00")), nil
}

// ReadCString reads an n-byte field and returns its contents up to
// the first NUL byte. The cursor always advances by n.
func (s *Stream) ReadCString(n int) (string, error) {
	b, err := s.ReadBytes(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i != -1 {
		b = b[:i]
	}
	return string(b), nil
}

// PeekString returns n bytes at pos as a string without moving the cursor.
// It returns false if the range is outside of the data.
func (s *Stream) PeekString(pos, n int) (string, bool) {
	if pos < 0 || n < 0 || pos+n > len(s.data) {
		return "", false
	}
	return string(s.data[pos : pos+n]), true
}
