// Package protocol implements a declarative binary codec for tagged-union
// message schemas.
//
// A schema is a closed, ordered set of named variants, each carrying zero or
// more typed fields. The wire form of a message is the one-byte opcode of the
// active variant (its declaration index) followed by the big-endian encoding
// of each field in declared order. A Codec built from a schema interprets
// this layout in both directions and derives a machine-readable Manifest
// describing it.
//
// Define a schema and build a codec:
//
//	schema, err := protocol.NewSchema("Game",
//	    protocol.Variant{Name: "Ping"},
//	    protocol.Variant{Name: "Chat", Fields: []protocol.FieldType{protocol.String}},
//	    protocol.Variant{Name: "Move", Fields: []protocol.FieldType{protocol.U16, protocol.U16}},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	codec := protocol.NewCodec(schema)
//
// Encode and decode messages:
//
//	msg, _ := codec.Msg("Move", uint16(3), uint16(7))
//	data, err := codec.Encode(msg)
//
//	decoded, err := codec.Decode(data)
//
// Wire Format:
//
// All multi-byte values are big-endian (network order). Fixed-width field
// kinds occupy exactly their declared width. Strings carry a 2-byte length
// prefix followed by that many UTF-8 bytes; booleans occupy one byte where
// 0x01 is true and any other value is false.
//
// Decoding is a single opcode dispatch followed by a fixed sequence of field
// reads. It fails on an unknown opcode, on a truncated buffer, or on invalid
// UTF-8 in a string field; trailing bytes after the last field are ignored.
// After a decode error the cursor is invalid and the input must be discarded.
package protocol
