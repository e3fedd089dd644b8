package websocket

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmosg/protov/protocol"
)

// WebSocket protocol constants per RFC 6455.
const (
	// websocketGUID is the globally unique identifier for the WebSocket
	// handshake per RFC 6455, section 4.2.2, item 5.4.
	websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

	// websocketVersion is the WebSocket protocol version per RFC 6455,
	// section 4.2.1, item 6.
	websocketVersion = "13"
)

// manifestPath short-circuits the handshake: a request for it is answered
// with the protocol manifests and the connection is closed. Retrieving the
// manifest and upgrading are mutually exclusive on one TCP connection.
const manifestPath = "/manifest"

// manifestDocument is the body served on the manifest endpoint.
type manifestDocument struct {
	ApplicationName  string            `json:"application_name"`
	IncomingProtocol protocol.Manifest `json:"incoming_protocol"`
	OutgoingProtocol protocol.Manifest `json:"outgoing_protocol"`
}

// handshake reads and validates an HTTP upgrade request on a raw
// connection. On success it replies 101 and returns the upgraded Conn. On
// a validation failure or a manifest request it answers with the matching
// HTTP response and returns nil; the caller discards the connection.
func (s *Server) handshake(raw net.Conn) *Conn {
	if s.handshakeTimeout > 0 {
		_ = raw.SetDeadline(time.Now().Add(s.handshakeTimeout))
	}

	br := bufio.NewReader(raw)
	method, err := readToken(br, ' ')
	if err != nil {
		return nil
	}
	uri, err := readToken(br, ' ')
	if err != nil {
		return nil
	}
	version, err := readToken(br, '\n')
	if err != nil {
		return nil
	}
	s.logger.Debug("handshake request",
		"method", method, "uri", uri, "version", version)

	if version != "HTTP/1.1" {
		s.reject(raw, "400 Bad Request",
			"this server only speaks HTTP/1.1")
		return nil
	}

	headers, err := readHeaders(br)
	if err != nil {
		return nil
	}

	if uri == manifestPath {
		s.writeManifest(raw)
		return nil
	}

	if !strings.Contains(strings.ToLower(headers["connection"]), "upgrade") ||
		!strings.EqualFold(headers["upgrade"], "websocket") {
		s.reject(raw, "418 I'm a Teapot",
			"this server only accepts WebSocket upgrade requests; "+
				"set Connection: Upgrade and Upgrade: websocket")
		return nil
	}
	if headers["sec-websocket-version"] != websocketVersion {
		s.reject(raw, "400 Bad Request",
			"unsupported Sec-WebSocket-Version, expected "+websocketVersion)
		return nil
	}
	key, ok := headers["sec-websocket-key"]
	if !ok {
		s.reject(raw, "400 Bad Request", "missing Sec-WebSocket-Key")
		return nil
	}

	// Send the server handshake response per RFC 6455, section 4.2.2.
	_, err = fmt.Fprintf(raw, "HTTP/1.1 101 Switching Protocols\r\n"+
		"Connection: Upgrade\r\n"+
		"Upgrade: websocket\r\n"+
		"Sec-WebSocket-Accept: %s\r\n\r\n", computeAcceptKey(key))
	if err != nil {
		return nil
	}
	if s.handshakeTimeout > 0 {
		_ = raw.SetDeadline(time.Time{})
	}

	return &Conn{
		ID:         uuid.NewString(),
		Path:       uri,
		br:         br,
		conn:       raw,
		payloadCap: s.payloadCap,
		logger:     s.logger,
		metrics:    s.metrics,
	}
}

// reject answers a failed handshake with a specific HTTP error response.
// The connection carries no further traffic afterwards.
func (s *Server) reject(conn net.Conn, status, body string) {
	s.metrics.handshakeFailed()
	s.logger.Debug("handshake rejected", "status", status)
	_, _ = fmt.Fprintf(conn, "HTTP/1.1 %s\r\n\r\n%s\n", status, body)
}

// writeManifest serves both directions' manifests as JSON and leaves the
// connection to be closed by the caller.
func (s *Server) writeManifest(conn net.Conn) {
	body, err := json.Marshal(manifestDocument{
		ApplicationName:  s.name,
		IncomingProtocol: s.inbound.Manifest(),
		OutgoingProtocol: s.outbound.Manifest(),
	})
	if err != nil {
		s.logger.Error("manifest marshal failed", "error", err)
		return
	}
	_, _ = fmt.Fprintf(conn, "HTTP/1.1 200 OK\r\n"+
		"Content-Type: application/json\r\n"+
		"Access-Control-Allow-Origin: *\r\n\r\n%s", body)
}

// readToken reads bytes up to and including delim and returns them with
// surrounding whitespace trimmed.
func readToken(br *bufio.Reader, delim byte) (string, error) {
	tok, err := br.ReadString(delim)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(tok), nil
}

// readHeaders reads header lines until a blank line. Names are lower-cased
// and values trimmed, so lookups are case-insensitive by construction.
func readHeaders(br *bufio.Reader) (map[string]string, error) {
	headers := make(map[string]string)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return headers, nil
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
}

// computeAcceptKey computes the Sec-WebSocket-Accept value per RFC 6455,
// section 4.2.2, item 5.4: the base64-encoded SHA-1 of the challenge key
// concatenated with the GUID.
func computeAcceptKey(challengeKey string) string {
	h := sha1.New()
	h.Write([]byte(challengeKey))
	h.Write([]byte(websocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
