package schema

import (
	"strings"
	"time"
)

// FieldError is a validation failure for one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors holds per-field validation failures in schema order.
// An empty Errors means the input was valid.
type Errors []FieldError

// Add appends a failure for field.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Empty reports whether no failures were recorded.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Fields returns the names of the failing fields in order.
func (e Errors) Fields() []string {
	names := make([]string, len(e))
	for i, fe := range e {
		names[i] = fe.Field
	}
	return names
}

// Map returns the failures keyed by field name.
func (e Errors) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, fe := range e {
		m[fe.Field] = fe.Message
	}
	return m
}

// Error returns a combined error message.
func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Record holds the coerced values of one bound request.
// Absent optional fields have no entry.
type Record map[string]any

// Has reports whether the record carries a value for name.
func (r Record) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Present reports whether the value for name exists and is not empty.
func (r Record) Present(name string) bool {
	v, ok := r[name]
	return ok && !IsEmpty(v)
}

// String returns the string value for name, or "".
func (r Record) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// Time returns the date value for name, or the zero time.
func (r Record) Time(name string) time.Time {
	t, _ := r[name].(time.Time)
	return t
}

// Dict returns the object value for name, or nil.
func (r Record) Dict(name string) map[string]any {
	m, _ := r[name].(map[string]any)
	return m
}

// Ints returns the integer list value for name, or nil.
func (r Record) Ints(name string) []int64 {
	v, _ := r[name].([]int64)
	return v
}
