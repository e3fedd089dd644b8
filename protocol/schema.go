package protocol

import "errors"

// MaxVariants is the maximum number of variants in a schema. The opcode
// space is a single byte.
const MaxVariants = 256

// ErrTooManyVariants is returned by NewSchema when the variant count
// exceeds the one-byte opcode space.
var ErrTooManyVariants = errors.New("protocol: schema exceeds 256 variants")

// FieldType identifies the wire encoding of one message field.
type FieldType uint8

// Field type tags. The names reported in a Manifest are the lowercase
// forms returned by String.
const (
	U8 FieldType = iota
	U16
	U32
	U64
	I32
	F32
	Bool
	String
)

// String returns the manifest name of the field type.
func (t FieldType) String() string {
	switch t {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case I32:
		return "i32"
	case F32:
		return "f32"
	case Bool:
		return "bool"
	case String:
		return "string"
	default:
		return "invalid"
	}
}

// Variant is one named alternative of a schema, with its ordered field types.
type Variant struct {
	Name   string
	Fields []FieldType
}

// Schema is a closed set of variants. The opcode of a variant is its index
// in Variants, fixed for the lifetime of the schema.
type Schema struct {
	Name     string
	Variants []Variant
}

// NewSchema builds a schema from the given variants in declaration order.
// It fails if there are more than MaxVariants variants.
func NewSchema(name string, variants ...Variant) (*Schema, error) {
	if len(variants) > MaxVariants {
		return nil, ErrTooManyVariants
	}
	return &Schema{Name: name, Variants: variants}, nil
}
