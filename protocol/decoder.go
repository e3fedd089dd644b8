package protocol

import (
	"errors"
	"math"
	"unicode/utf8"
)

// Decoding errors. Every failure leaves the cursor in an undefined
// position; the caller must discard the input.
var (
	ErrShortBuffer   = errors.New("protocol: buffer too short")
	ErrInvalidUTF8   = errors.New("protocol: string is not valid UTF-8")
	ErrUnknownOpcode = errors.New("protocol: unknown opcode")
)

// Decoder is a cursor over a byte buffer, reading big-endian values.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a decoder reading from buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// take consumes exactly n bytes, or fails without consuming a well-defined
// amount.
func (d *Decoder) take(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, ErrShortBuffer
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadU8 reads a single unsigned byte.
func (d *Decoder) ReadU8() (uint8, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrShortBuffer
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// ReadBool reads one byte: 0x01 is true, anything else is false.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadU8()
	if err != nil {
		return false, err
	}
	return b == 1, nil
}

// ReadU16 reads a 16-bit unsigned integer, big-endian.
func (d *Decoder) ReadU16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// ReadU32 reads a 32-bit unsigned integer, big-endian.
func (d *Decoder) ReadU32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// ReadU64 reads a 64-bit unsigned integer, big-endian.
func (d *Decoder) ReadU64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7]), nil
}

// ReadI32 reads a 32-bit signed integer, big-endian two's complement.
func (d *Decoder) ReadI32() (int32, error) {
	v, err := d.ReadU32()
	return int32(v), err
}

// ReadF32 reads a 32-bit IEEE 754 float, big-endian.
func (d *Decoder) ReadF32() (float32, error) {
	v, err := d.ReadU32()
	return math.Float32frombits(v), err
}

// ReadString reads a 2-byte big-endian length prefix and that many UTF-8
// bytes. It fails with ErrShortBuffer if fewer bytes remain than declared,
// and with ErrInvalidUTF8 if the bytes are not valid UTF-8.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadU16()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}
