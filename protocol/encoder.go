package protocol

import (
	"errors"
	"math"
)

// ErrStringTooLong is returned when a string field exceeds the 2-byte
// length prefix (65535 bytes).
var ErrStringTooLong = errors.New("protocol: string exceeds 65535 bytes")

// Encoder is a binary encoder that appends big-endian values to an
// internal buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new encoder with a small initial capacity.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

// Reset resets the encoder to empty, reusing the underlying buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded bytes. The returned slice is valid until the
// next call to Reset or any Write method.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes currently encoded.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// WriteU8 appends a single unsigned byte.
func (e *Encoder) WriteU8(v uint8) {
	e.buf = append(e.buf, v)
}

// WriteBool appends one byte: 0x01 for true, 0x00 for false.
func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

// WriteU16 appends a 16-bit unsigned integer, big-endian.
func (e *Encoder) WriteU16(v uint16) {
	e.buf = append(e.buf, byte(v>>8), byte(v))
}

// WriteU32 appends a 32-bit unsigned integer, big-endian.
func (e *Encoder) WriteU32(v uint32) {
	e.buf = append(e.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteU64 appends a 64-bit unsigned integer, big-endian.
func (e *Encoder) WriteU64(v uint64) {
	e.buf = append(e.buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteI32 appends a 32-bit signed integer, big-endian two's complement.
func (e *Encoder) WriteI32(v int32) {
	e.WriteU32(uint32(v))
}

// WriteF32 appends a 32-bit IEEE 754 float, big-endian.
func (e *Encoder) WriteF32(v float32) {
	e.WriteU32(math.Float32bits(v))
}

// WriteString appends a 2-byte big-endian length prefix followed by the
// UTF-8 bytes of s. Strings longer than 65535 bytes cannot be represented.
func (e *Encoder) WriteString(s string) error {
	if len(s) > math.MaxUint16 {
		return ErrStringTooLong
	}
	e.WriteU16(uint16(len(s)))
	e.buf = append(e.buf, s...)
	return nil
}
