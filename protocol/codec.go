package protocol

import (
	"errors"
	"fmt"
)

// Encoding errors.
var (
	ErrUnknownVariant = errors.New("protocol: unknown variant")
	ErrArity          = errors.New("protocol: wrong argument count")
	ErrArgType        = errors.New("protocol: argument type mismatch")
)

// Message is one value of a tagged-union schema: the opcode of the active
// variant and its field values in declared order.
//
// Field values use the natural Go types for their field kinds: uint8,
// uint16, uint32, uint64, int32, float32, bool and string.
type Message struct {
	Opcode uint8
	Args   []any
}

// Codec encodes and decodes messages of one schema. It is immutable and
// safe for concurrent use.
type Codec struct {
	schema   *Schema
	byName   map[string]uint8
	manifest Manifest
}

// NewCodec builds a codec for the given schema. The manifest is derived
// once here and never mutated.
func NewCodec(schema *Schema) *Codec {
	byName := make(map[string]uint8, len(schema.Variants))
	for i, v := range schema.Variants {
		byName[v.Name] = uint8(i)
	}
	return &Codec{
		schema:   schema,
		byName:   byName,
		manifest: buildManifest(schema),
	}
}

// Schema returns the schema this codec was built from.
func (c *Codec) Schema() *Schema {
	return c.schema
}

// Manifest returns the derived manifest of the schema.
func (c *Codec) Manifest() Manifest {
	return c.manifest
}

// Msg builds a message by variant name. It fails if the name is not part
// of the schema or the argument count does not match.
func (c *Codec) Msg(name string, args ...any) (Message, error) {
	op, ok := c.byName[name]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	if len(args) != len(c.schema.Variants[op].Fields) {
		return Message{}, fmt.Errorf("%w: %s takes %d arguments, got %d",
			ErrArity, name, len(c.schema.Variants[op].Fields), len(args))
	}
	return Message{Opcode: op, Args: args}, nil
}

// Encode writes the opcode byte of the active variant, then the encoding
// of each field in declared order.
func (c *Codec) Encode(m Message) ([]byte, error) {
	if int(m.Opcode) >= len(c.schema.Variants) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, m.Opcode)
	}
	variant := c.schema.Variants[m.Opcode]
	if len(m.Args) != len(variant.Fields) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d",
			ErrArity, variant.Name, len(variant.Fields), len(m.Args))
	}

	e := NewEncoder()
	e.WriteU8(m.Opcode)
	for i, ft := range variant.Fields {
		if err := encodeField(e, ft, m.Args[i]); err != nil {
			return nil, fmt.Errorf("%s field %d: %w", variant.Name, i, err)
		}
	}
	return e.Bytes(), nil
}

// Decode reads one opcode byte and then each field of the matching variant
// in order, short-circuiting on the first failure. Trailing bytes after the
// last field are ignored.
func (c *Codec) Decode(data []byte) (Message, error) {
	d := NewDecoder(data)
	op, err := d.ReadU8()
	if err != nil {
		return Message{}, err
	}
	if int(op) >= len(c.schema.Variants) {
		return Message{}, fmt.Errorf("%w: %d", ErrUnknownOpcode, op)
	}

	variant := c.schema.Variants[op]
	var args []any
	for i, ft := range variant.Fields {
		v, err := decodeField(d, ft)
		if err != nil {
			return Message{}, fmt.Errorf("%s field %d: %w", variant.Name, i, err)
		}
		args = append(args, v)
	}
	return Message{Opcode: op, Args: args}, nil
}

func encodeField(e *Encoder, ft FieldType, arg any) error {
	switch ft {
	case U8:
		v, ok := arg.(uint8)
		if !ok {
			return fmt.Errorf("%w: want uint8, got %T", ErrArgType, arg)
		}
		e.WriteU8(v)
	case U16:
		v, ok := arg.(uint16)
		if !ok {
			return fmt.Errorf("%w: want uint16, got %T", ErrArgType, arg)
		}
		e.WriteU16(v)
	case U32:
		v, ok := arg.(uint32)
		if !ok {
			return fmt.Errorf("%w: want uint32, got %T", ErrArgType, arg)
		}
		e.WriteU32(v)
	case U64:
		v, ok := arg.(uint64)
		if !ok {
			return fmt.Errorf("%w: want uint64, got %T", ErrArgType, arg)
		}
		e.WriteU64(v)
	case I32:
		v, ok := arg.(int32)
		if !ok {
			return fmt.Errorf("%w: want int32, got %T", ErrArgType, arg)
		}
		e.WriteI32(v)
	case F32:
		v, ok := arg.(float32)
		if !ok {
			return fmt.Errorf("%w: want float32, got %T", ErrArgType, arg)
		}
		e.WriteF32(v)
	case Bool:
		v, ok := arg.(bool)
		if !ok {
			return fmt.Errorf("%w: want bool, got %T", ErrArgType, arg)
		}
		e.WriteBool(v)
	case String:
		v, ok := arg.(string)
		if !ok {
			return fmt.Errorf("%w: want string, got %T", ErrArgType, arg)
		}
		return e.WriteString(v)
	default:
		return fmt.Errorf("%w: want valid field type, got %v", ErrArgType, ft)
	}
	return nil
}

func decodeField(d *Decoder, ft FieldType) (any, error) {
	switch ft {
	case U8:
		return d.ReadU8()
	case U16:
		return d.ReadU16()
	case U32:
		return d.ReadU32()
	case U64:
		return d.ReadU64()
	case I32:
		return d.ReadI32()
	case F32:
		return d.ReadF32()
	case Bool:
		return d.ReadBool()
	case String:
		return d.ReadString()
	default:
		return nil, fmt.Errorf("%w: field type %v", ErrArgType, ft)
	}
}
