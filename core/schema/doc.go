/*
Package schema defines the declarative field model used to validate RPC payloads.

A Schema is an ordered list of Fields. Each Field has a name, a Kind and two
flags that control how absent and empty input is treated. Schemas are built once
at startup and are read-only afterwards, so they can be shared by concurrent
requests without locking.

# Declaring a Schema

	var OnlineScore = schema.New("online_score",
		schema.String("first_name").AllowEmpty(),
		schema.String("last_name").AllowEmpty(),
		schema.Email("email").AllowEmpty(),
		schema.Phone("phone").AllowEmpty(),
		schema.BirthDate("birthday").AllowEmpty(),
		schema.Gender("gender").AllowEmpty(),
	)

# Field Kinds

Supported kinds and the canonical value each one coerces to:

  - string:    text, stored as string
  - dict:      JSON object, stored as map[string]any
  - email:     text containing local@domain.tld, stored as string
  - phone:     text or integer, 11 digits starting with 7, stored as string
  - date:      text in DD.MM.YYYY, stored as time.Time
  - birthdate: date no more than 70 years in the past, stored as time.Time
  - gender:    integer 0, 1 or 2, stored as "unknown", "male" or "female"
  - intlist:   non-empty list of integers, stored as []int64

# Flags

Required means the key must be present and non-null. Nullable means an empty
value ("", {}, []) is accepted and handed to the kind coercer; a non-nullable
field rejects empty values before coercion.

Coercion never panics and never returns a Go error. Each coercer returns the
canonical value or a human readable message; the caller collects messages per
field. See package validation for the binding loop.
*/
package schema
