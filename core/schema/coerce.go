package schema

import (
	"encoding/json"
	"regexp"
	"strconv"
	"time"
)

// MaxAge is the largest accepted age, in years, for birthdate fields.
const MaxAge = 70

// DateLayout is the wire format for date and birthdate fields (DD.MM.YYYY).
const DateLayout = "2.1.2006"

// Validation messages.
const (
	MsgRequired     = "This field is required."
	MsgEmpty        = "This field cannot be empty."
	MsgNotString    = "The field must be of string type."
	MsgNotDict      = "The field must be a dictionary type."
	MsgBadEmail     = "Email is not valid."
	MsgPhoneType    = "The field must be a string or integer type."
	MsgBadPhone     = "Telephone is not valid."
	MsgBadDate      = "Field has an invalid date format."
	MsgTooOld       = "Age can not be more than 70 years."
	MsgGenderType   = "The field must be an integer type (0, 1 or 2)."
	MsgBadGender    = "The gender field must be 0, 1, or 2."
	MsgNotList      = "The field must be a list type."
	MsgBadClientIDs = "The field must not be an empty list of integer type elements."
)

var (
	emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
	phonePattern = regexp.MustCompile(`^7[0-9]{10}$`)
	datePattern  = regexp.MustCompile(`^[0-9]{1,2}\.[0-9]{1,2}\.[0-9]{4}$`)
)

// Coerce converts a raw value into the canonical representation of kind k.
// now is the reference time for age checks.
// On failure it returns a nil value and a non-empty message.
// This is a PURE function.
func (k Kind) Coerce(value any, now time.Time) (any, string) {
	switch k {
	case KindString:
		return coerceString(value)
	case KindDict:
		return coerceDict(value)
	case KindEmail:
		return coerceEmail(value)
	case KindPhone:
		return coercePhone(value)
	case KindDate:
		return coerceDate(value)
	case KindBirthDate:
		return coerceBirthDate(value, now)
	case KindGender:
		return coerceGender(value)
	case KindIntList:
		return coerceIntList(value)
	default:
		return nil, "unknown field kind: " + string(k)
	}
}

func coerceString(value any) (any, string) {
	s, ok := value.(string)
	if !ok {
		return nil, MsgNotString
	}
	return s, ""
}

func coerceDict(value any) (any, string) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, MsgNotDict
	}
	return m, ""
}

func coerceEmail(value any) (any, string) {
	s, ok := value.(string)
	if !ok {
		return nil, MsgNotString
	}
	if !emailPattern.MatchString(s) {
		return nil, MsgBadEmail
	}
	return s, ""
}

func coercePhone(value any) (any, string) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	default:
		n, ok := AsInt(value)
		if !ok {
			return nil, MsgPhoneType
		}
		s = strconv.FormatInt(n, 10)
	}
	if !phonePattern.MatchString(s) {
		return nil, MsgBadPhone
	}
	return s, ""
}

func coerceDate(value any) (any, string) {
	s, ok := value.(string)
	if !ok || !datePattern.MatchString(s) {
		return nil, MsgBadDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, MsgBadDate
	}
	return t, ""
}

func coerceBirthDate(value any, now time.Time) (any, string) {
	v, msg := coerceDate(value)
	if msg != "" {
		return nil, msg
	}
	if now.Year()-v.(time.Time).Year() > MaxAge {
		return nil, MsgTooOld
	}
	return v, ""
}

func coerceGender(value any) (any, string) {
	n, ok := AsInt(value)
	if !ok {
		return nil, MsgGenderType
	}
	label, ok := GenderLabels[n]
	if !ok {
		return nil, MsgBadGender
	}
	return label, ""
}

func coerceIntList(value any) (any, string) {
	items, ok := value.([]any)
	if !ok {
		if ints, ok := value.([]int64); ok && len(ints) > 0 {
			return append([]int64(nil), ints...), ""
		}
		return nil, MsgNotList
	}
	if len(items) == 0 {
		return nil, MsgBadClientIDs
	}
	out := make([]int64, 0, len(items))
	for _, item := range items {
		n, ok := AsInt(item)
		if !ok {
			return nil, MsgBadClientIDs
		}
		out = append(out, n)
	}
	return out, ""
}

// AsInt reports whether value is an integer and returns it.
// JSON numbers must be decoded with json.Decoder.UseNumber; floats are
// never treated as integers, even when they have no fractional part.
func AsInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// IsEmpty reports whether value is absent or an empty string, map or list.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case []int64:
		return len(v) == 0
	case time.Time:
		return v.IsZero()
	default:
		return false
	}
}
