package protocol

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gameCodec(t testing.TB) *Codec {
	t.Helper()
	schema, err := NewSchema("Game",
		Variant{Name: "Ping"},
		Variant{Name: "Chat", Fields: []FieldType{String}},
		Variant{Name: "Move", Fields: []FieldType{U16, U16}},
		Variant{Name: "State", Fields: []FieldType{U8, U32, U64, I32, F32, Bool, String}},
	)
	require.NoError(t, err)
	return NewCodec(schema)
}

func TestCodecRoundTrip(t *testing.T) {
	codec := gameCodec(t)

	tests := []struct {
		name string
		args []any
	}{
		{name: "Ping"},
		{name: "Chat", args: []any{"hello there"}},
		{name: "Move", args: []any{uint16(12), uint16(6000)}},
		{name: "State", args: []any{
			uint8(255), uint32(1), uint64(1 << 40), int32(-7), float32(0.5), true, "",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := codec.Msg(tt.name, tt.args...)
			require.NoError(t, err)

			data, err := codec.Encode(msg)
			require.NoError(t, err)

			decoded, err := codec.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, msg, decoded)
		})
	}
}

func TestCodecOpcodeLayout(t *testing.T) {
	codec := gameCodec(t)

	msg, err := codec.Msg("Move", uint16(0x0102), uint16(0x0304))
	require.NoError(t, err)

	data, err := codec.Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01, 0x02, 0x03, 0x04}, data)
}

func TestCodecDecodeUnknownOpcode(t *testing.T) {
	codec := gameCodec(t)

	_, err := codec.Decode([]byte{0x04})
	assert.ErrorIs(t, err, ErrUnknownOpcode)

	_, err = codec.Decode([]byte{0xFF})
	assert.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestCodecDecodeEmpty(t *testing.T) {
	codec := gameCodec(t)

	_, err := codec.Decode(nil)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestCodecDecodeTruncatedField(t *testing.T) {
	codec := gameCodec(t)

	// Move needs four payload bytes; give it one.
	_, err := codec.Decode([]byte{0x02, 0x01})
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestCodecDecodeTrailingBytesIgnored(t *testing.T) {
	codec := gameCodec(t)

	msg, err := codec.Decode([]byte{0x00, 0xDE, 0xAD, 0xBE, 0xEF})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), msg.Opcode)
	assert.Empty(t, msg.Args)
}

func TestCodecFullOpcodeSpace(t *testing.T) {
	variants := make([]Variant, MaxVariants)
	for i := range variants {
		variants[i] = Variant{Name: fmt.Sprintf("Op%d", i)}
	}
	schema, err := NewSchema("Full", variants...)
	require.NoError(t, err)
	codec := NewCodec(schema)

	// The last opcode, 255, is valid in a 256-variant schema.
	msg, err := codec.Decode([]byte{0xFF})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), msg.Opcode)
}

func TestSchemaTooManyVariants(t *testing.T) {
	variants := make([]Variant, MaxVariants+1)
	for i := range variants {
		variants[i] = Variant{Name: fmt.Sprintf("Op%d", i)}
	}
	_, err := NewSchema("Overflow", variants...)
	assert.ErrorIs(t, err, ErrTooManyVariants)
}

func TestCodecEncodeErrors(t *testing.T) {
	codec := gameCodec(t)

	tests := []struct {
		name     string
		msg      Message
		expected error
	}{
		{
			name:     "opcode out of range",
			msg:      Message{Opcode: 9},
			expected: ErrUnknownOpcode,
		},
		{
			name:     "missing argument",
			msg:      Message{Opcode: 2, Args: []any{uint16(1)}},
			expected: ErrArity,
		},
		{
			name:     "wrong argument type",
			msg:      Message{Opcode: 1, Args: []any{42}},
			expected: ErrArgType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Encode(tt.msg)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestCodecMsgErrors(t *testing.T) {
	codec := gameCodec(t)

	_, err := codec.Msg("Teleport")
	assert.ErrorIs(t, err, ErrUnknownVariant)

	_, err = codec.Msg("Move", uint16(1))
	assert.ErrorIs(t, err, ErrArity)
}

func BenchmarkCodecEncode(b *testing.B) {
	codec := gameCodec(b)
	msg, err := codec.Msg("Move", uint16(12), uint16(6000))
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = codec.Encode(msg)
	}
}

func BenchmarkCodecDecode(b *testing.B) {
	codec := gameCodec(b)
	msg, err := codec.Msg("State",
		uint8(1), uint32(2), uint64(3), int32(-4), float32(5), true, "hello")
	require.NoError(b, err)
	data, err := codec.Encode(msg)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = codec.Decode(data)
	}
}
