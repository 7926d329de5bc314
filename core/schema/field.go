package schema

// Field defines one named input of a Schema.
// Fields are value types; the builder methods return modified copies.
type Field struct {
	// Name is the JSON key the field is read from.
	Name string

	// Kind selects the coercion applied to the raw value.
	Kind Kind

	// Required indicates the key must be present and non-null.
	Required bool

	// Nullable indicates an empty value ("", {}, []) is accepted.
	Nullable bool
}

// Kind identifies how a raw value is validated and coerced.
type Kind string

const (
	KindString    Kind = "string"
	KindDict      Kind = "dict"
	KindEmail     Kind = "email"
	KindPhone     Kind = "phone"
	KindDate      Kind = "date"
	KindBirthDate Kind = "birthdate"
	KindGender    Kind = "gender"
	KindIntList   Kind = "intlist"
)

// Gender codes accepted on the wire.
const (
	GenderUnknown = 0
	GenderMale    = 1
	GenderFemale  = 2
)

// GenderLabels maps gender codes to their canonical labels.
var GenderLabels = map[int64]string{
	GenderUnknown: "unknown",
	GenderMale:    "male",
	GenderFemale:  "female",
}

// String declares a text field.
func String(name string) Field { return Field{Name: name, Kind: KindString} }

// Dict declares a JSON object field.
func Dict(name string) Field { return Field{Name: name, Kind: KindDict} }

// Email declares an email address field.
func Email(name string) Field { return Field{Name: name, Kind: KindEmail} }

// Phone declares a phone number field.
func Phone(name string) Field { return Field{Name: name, Kind: KindPhone} }

// Date declares a DD.MM.YYYY date field.
func Date(name string) Field { return Field{Name: name, Kind: KindDate} }

// BirthDate declares a date field with an upper age bound.
func BirthDate(name string) Field { return Field{Name: name, Kind: KindBirthDate} }

// Gender declares a gender code field.
func Gender(name string) Field { return Field{Name: name, Kind: KindGender} }

// IntList declares a list-of-integers field.
func IntList(name string) Field { return Field{Name: name, Kind: KindIntList} }

// Require returns a copy of the field marked as required.
func (f Field) Require() Field {
	f.Required = true
	return f
}

// AllowEmpty returns a copy of the field that accepts empty values.
func (f Field) AllowEmpty() Field {
	f.Nullable = true
	return f
}
