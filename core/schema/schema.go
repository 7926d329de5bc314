package schema

import "fmt"

// Schema is an ordered, immutable set of fields describing one request shape.
type Schema struct {
	name   string
	fields []Field
}

// New builds a schema from fields in declaration order.
// It panics on duplicate or empty field names; schemas are package-level
// values, so the panic surfaces at program start.
func New(name string, fields ...Field) Schema {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			panic(fmt.Sprintf("schema %s: field with empty name", name))
		}
		if seen[f.Name] {
			panic(fmt.Sprintf("schema %s: duplicate field %q", name, f.Name))
		}
		seen[f.Name] = true
	}

	owned := make([]Field, len(fields))
	copy(owned, fields)
	return Schema{name: name, fields: owned}
}

// Name returns the schema name (used in logs and metrics).
func (s Schema) Name() string {
	return s.name
}

// Fields returns a copy of the declared fields in order.
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the declared field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Len returns the number of declared fields.
func (s Schema) Len() int {
	return len(s.fields)
}
