package protocol

// Operation describes one schema variant in a manifest: its name, its
// one-byte opcode, and the wire names of its field types in order.
type Operation struct {
	Name   string   `json:"name"`
	Opcode uint8    `json:"opcode"`
	Args   []string `json:"args"`
}

// Manifest is a structured, immutable description of a schema, suitable
// for serving to clients so they can configure themselves.
type Manifest struct {
	Protocol   string      `json:"protocol"`
	Operations []Operation `json:"operations"`
}

func buildManifest(s *Schema) Manifest {
	ops := make([]Operation, len(s.Variants))
	for i, v := range s.Variants {
		// Args must marshal as [] for zero-field variants, never null.
		args := make([]string, len(v.Fields))
		for j, ft := range v.Fields {
			args[j] = ft.String()
		}
		ops[i] = Operation{Name: v.Name, Opcode: uint8(i), Args: args}
	}
	return Manifest{Protocol: s.Name, Operations: ops}
}
