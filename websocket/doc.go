// Package websocket implements a minimal WebSocket server (RFC 6455
// subset) carrying the tagged-union binary protocol from package protocol.
//
// The server speaks exactly one HTTP path: the upgrade handshake. All other
// traffic is rejected, with one exception — GET /manifest answers with a
// JSON description of both message schemas and closes the connection, so
// clients can configure themselves before reconnecting for the upgrade.
// Frames are binary only; text frames are a protocol violation.
//
// Server Example:
//
//	srv, err := websocket.NewServer(websocket.Options{
//	    Name: "Game",
//	    Port: 8080,
//	}, inboundCodec, outboundCodec)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//
//	for {
//	    conn, err := srv.Accept(ctx)
//	    if err != nil {
//	        return
//	    }
//	    go func() {
//	        defer conn.Close()
//	        for {
//	            msg, err := conn.ReadMessage(inboundCodec)
//	            if err != nil {
//	                return
//	            }
//	            handle(conn, msg)
//	        }
//	    }()
//	}
//
// Concurrency:
//
// Each accepted raw connection runs its handshake on its own goroutine
// while the listener keeps accepting, and completed handshakes are
// delivered to Accept over a channel. After the handshake, a Conn owns its
// read and write halves exclusively; one goroutine may read while another
// writes, but neither half supports more than one concurrent user.
//
// Error Model:
//
// Handshake validation failures answer with a specific HTTP status and
// abort only that connection. After the upgrade, malformed framing, an
// unmasked client frame, an unsupported opcode, an oversized payload, a
// payload that fails to decode, and any I/O error are all terminal for the
// connection: ReadMessage returns an error and the caller drops the Conn.
// Nothing is retried.
//
// Keepalive:
//
// Inbound ping and pong frames are read and dropped; no automatic pong is
// sent. Callers that need liveness checks implement them on top.
package websocket
