package websocket

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/mmosg/protov/protocol"
)

// Frame header constants per RFC 6455, section 5.2.
const (
	maxFrameHeaderSize = 10 // 2 bytes base + 8 bytes extended length (outbound is never masked)

	// First byte bits.
	finalBit   = 1 << 7 // FIN bit indicates final fragment
	opcodeMask = 0x0f   // opcode occupies bits 0-3

	// Second byte bits.
	maskBit        = 1 << 7 // MASK bit indicates payload is masked
	payloadLenMask = 0x7f   // payload length occupies bits 0-6
	payloadLen16   = 126    // 16-bit extended payload length follows
	payloadLen64   = 127    // 64-bit extended payload length follows

	// Frame opcodes per RFC 6455, section 5.2.
	opcodeContinuation = 0x0
	opcodeText         = 0x1
	opcodeBinary       = 0x2
	opcodeClose        = 0x8
	opcodePing         = 0x9
	opcodePong         = 0xA
)

// closeDrainLimit bounds how many inbound frames Shutdown reads while
// waiting for the peer's close acknowledgment.
const closeDrainLimit = 10

// Errors returned by the websocket package.
var (
	ErrClosed            = errors.New("websocket: connection closed")
	ErrUnmaskedFrame     = errors.New("websocket: unmasked client frame")
	ErrUnsupportedOpcode = errors.New("websocket: unsupported frame opcode")
	ErrPayloadTooLarge   = errors.New("websocket: frame payload exceeds cap")
)

// Conn is one upgraded client connection. It owns a buffered read half and
// a write half of the underlying stream exclusively.
//
// Conn supports at most one concurrent reader and one concurrent writer:
// ReadMessage must not be called from more than one goroutine at a time,
// and the same holds for Send. Shutdown uses both halves and must not run
// concurrently with either.
type Conn struct {
	// ID names the connection for logging. It is assigned at handshake
	// completion and never changes.
	ID string

	// Path is the request URI the client used to open the connection.
	Path string

	br   *bufio.Reader
	conn net.Conn

	payloadCap uint64
	closed     atomic.Bool

	// wmu serializes frame writes, so a close frame sent from the read
	// path cannot land in the middle of an outbound data frame.
	wmu sync.Mutex

	logger  *slog.Logger
	metrics *Metrics
}

// closeWriter is implemented by connections that can shut down their write
// half independently, such as *net.TCPConn.
type closeWriter interface {
	CloseWrite() error
}

// inboundFrame is one parsed client frame, already unmasked.
type inboundFrame struct {
	opcode  byte
	fin     bool
	payload []byte
}

// readFrame reads and classifies a single frame per RFC 6455, section 5.2:
// header, extended length, mask key, payload. Inbound frames must carry the
// mask bit; text frames and reserved opcodes are protocol violations. Any
// failure here is fatal to the connection.
func (c *Conn) readFrame() (inboundFrame, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(c.br, hdr[:]); err != nil {
		return inboundFrame{}, err
	}

	fin := hdr[0]&finalBit != 0
	opcode := hdr[0] & opcodeMask

	// Client frames must be masked per RFC 6455, section 5.1.
	if hdr[1]&maskBit == 0 {
		return inboundFrame{}, ErrUnmaskedFrame
	}

	payloadLen := uint64(hdr[1] & payloadLenMask)
	switch payloadLen {
	case payloadLen16:
		var ext [2]byte
		if _, err := io.ReadFull(c.br, ext[:]); err != nil {
			return inboundFrame{}, err
		}
		payloadLen = uint64(binary.BigEndian.Uint16(ext[:]))
	case payloadLen64:
		var ext [8]byte
		if _, err := io.ReadFull(c.br, ext[:]); err != nil {
			return inboundFrame{}, err
		}
		payloadLen = binary.BigEndian.Uint64(ext[:])
	}

	var key [4]byte
	if _, err := io.ReadFull(c.br, key[:]); err != nil {
		return inboundFrame{}, err
	}

	// Reject oversized frames before reading any payload bytes.
	if c.payloadCap > 0 && payloadLen > c.payloadCap {
		return inboundFrame{}, ErrPayloadTooLarge
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(c.br, payload); err != nil {
		return inboundFrame{}, err
	}
	for i := range payload {
		payload[i] ^= key[i%4]
	}

	switch opcode {
	case opcodeContinuation, opcodeBinary, opcodePing, opcodePong, opcodeClose:
		return inboundFrame{opcode: opcode, fin: fin, payload: payload}, nil
	default:
		// Text frames included: this server is binary-only.
		return inboundFrame{}, ErrUnsupportedOpcode
	}
}

// ReadMessage reads frames until one complete application message has been
// reassembled, then decodes it with codec. Ping and pong frames are dropped
// without reply; keepalive policy belongs to the caller. A close frame marks
// the connection closed, answers with a close frame and returns ErrClosed as
// the end-of-stream signal.
//
// The caller receives either exactly one decoded message or an error, never
// partial data. Any error, decode failures included, means the connection
// should be dropped.
func (c *Conn) ReadMessage(codec *protocol.Codec) (protocol.Message, error) {
	if c.closed.Load() {
		return protocol.Message{}, ErrClosed
	}

	var buf []byte
	for {
		frame, err := c.readFrame()
		if err != nil {
			return protocol.Message{}, err
		}

		switch frame.opcode {
		case opcodePing, opcodePong:
			// Dropped. No automatic pong is sent.
		case opcodeClose:
			c.closed.Store(true)
			c.writeClose()
			return protocol.Message{}, ErrClosed
		default:
			buf = append(buf, frame.payload...)
			if !frame.fin {
				continue
			}
			msg, err := codec.Decode(buf)
			if err != nil {
				c.metrics.decodeFailed()
				c.logger.Warn("poisoned message from client",
					"conn", c.ID, "error", err)
				return protocol.Message{}, err
			}
			c.metrics.messageRead()
			return msg, nil
		}
	}
}

// Send encodes msg with codec and writes it as a single binary frame with
// the FIN bit set. Server frames are never masked per RFC 6455, section 5.1.
// The header and payload go out as two separate writes.
func (c *Conn) Send(codec *protocol.Codec, msg protocol.Message) error {
	if c.closed.Load() {
		return ErrClosed
	}

	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}

	header := make([]byte, 0, maxFrameHeaderSize)
	header = append(header, finalBit|opcodeBinary)
	switch n := len(data); {
	case n <= 125:
		header = append(header, byte(n))
	case n <= 65535:
		header = append(header, payloadLen16, byte(n>>8), byte(n))
	default:
		header = append(header, payloadLen64)
		header = binary.BigEndian.AppendUint64(header, uint64(n))
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.conn.Write(header); err != nil {
		return err
	}
	if _, err := c.conn.Write(data); err != nil {
		return err
	}
	c.metrics.messageSent()
	return nil
}

// writeClose sends an empty close frame. A failed write means the peer is
// already gone; there is nothing left to do with it.
func (c *Conn) writeClose() {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, _ = c.conn.Write([]byte{finalBit | opcodeClose, 0})
}

// Shutdown performs the closing handshake: it sends a close frame, shuts
// down the write half, then drains up to closeDrainLimit inbound frames
// looking for the peer's close acknowledgment or a read failure, whichever
// comes first. It never blocks past the drain bound and it is a no-op on an
// already-closed connection.
func (c *Conn) Shutdown() {
	if c.closed.Swap(true) {
		return
	}

	c.writeClose()
	if cw, ok := c.conn.(closeWriter); ok {
		_ = cw.CloseWrite()
	}

	for i := 0; i < closeDrainLimit; i++ {
		frame, err := c.readFrame()
		if err != nil || frame.opcode == opcodeClose {
			break
		}
	}
	_ = c.conn.Close()
}

// Close drops the underlying stream without the closing handshake.
func (c *Conn) Close() error {
	c.closed.Store(true)
	return c.conn.Close()
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
