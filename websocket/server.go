package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/mmosg/protov/protocol"
)

// ErrServerClosed is returned by Accept after Close has been called.
var ErrServerClosed = errors.New("websocket: server closed")

// Server accepts raw TCP connections, runs the WebSocket handshake on each
// one concurrently, and hands fully-upgraded connections to Accept. It is
// parameterized by two independent schemas: the codec for messages the
// server reads and the codec for messages it sends, both exposed on the
// manifest endpoint.
type Server struct {
	name     string
	inbound  *protocol.Codec
	outbound *protocol.Codec

	listener         net.Listener
	conns            chan *Conn
	payloadCap       uint64
	handshakeTimeout time.Duration

	logger  *slog.Logger
	metrics *Metrics

	done      chan struct{}
	closeOnce sync.Once
}

// NewServer binds 0.0.0.0 on the configured port and starts accepting.
// inbound decodes client messages, outbound encodes server messages.
func NewServer(opts Options, inbound, outbound *protocol.Codec) (*Server, error) {
	opts.withDefaults()

	ln, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", opts.Port))
	if err != nil {
		return nil, fmt.Errorf("websocket: listen: %w", err)
	}
	if opts.MaxConns > 0 {
		ln = netutil.LimitListener(ln, opts.MaxConns)
	}

	s := &Server{
		name:             opts.Name,
		inbound:          inbound,
		outbound:         outbound,
		listener:         ln,
		conns:            make(chan *Conn),
		done:             make(chan struct{}),
		payloadCap:       opts.PayloadCap,
		handshakeTimeout: time.Duration(opts.HandshakeTimeout),
		logger:           opts.Logger,
		metrics:          opts.Metrics,
	}
	go s.acceptLoop()
	return s, nil
}

// Accept blocks until the next client completes its handshake, the context
// is cancelled, or the server is closed. Connections whose handshake fails
// or that only requested the manifest are consumed internally and never
// surface here.
func (s *Server) Accept(ctx context.Context) (*Conn, error) {
	select {
	case conn := <-s.conns:
		return conn, nil
	case <-s.done:
		return nil, ErrServerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// acceptLoop takes raw connections off the listener and spawns one
// handshake goroutine per connection, so a slow handshake never stalls new
// accepts and completed handshakes are delivered as they finish. Nothing
// ever polls: delivery is a blocking channel send.
func (s *Server) acceptLoop() {
	for {
		raw, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// A failed accept is not fatal to the server.
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		s.metrics.connAccepted()

		go func() {
			conn := s.handshake(raw)
			if conn == nil {
				_ = raw.Close()
				return
			}
			select {
			case s.conns <- conn:
			case <-s.done:
				_ = conn.Close()
			}
		}()
	}
}

// Name returns the server name served on the manifest endpoint.
func (s *Server) Name() string {
	return s.name
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops the listener and unblocks pending Accept calls. Connections
// already handed out are not touched.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return s.listener.Close()
}
