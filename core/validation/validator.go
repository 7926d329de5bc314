// Package validation binds raw, loosely typed input to a schema.
// Every declared field is visited; failures are collected rather than
// returned on the first error.
package validation

import (
	"time"

	"github.com/artpar/scoreapi/core/schema"
)

// Clock supplies the reference time for age checks.
type Clock interface {
	Now() time.Time
}

// Validator binds input maps to schemas.
type Validator struct {
	clock Clock
}

// New creates a validator using clock for time-dependent kinds.
func New(clock Clock) *Validator {
	return &Validator{clock: clock}
}

// Bind validates raw against s and returns the coerced record together
// with all per-field failures. The record is only meaningful when the
// returned Errors is empty.
//
// For each field, in schema order:
//   - an absent or null key is skipped unless the field is required;
//   - an empty value fails a non-nullable field;
//   - otherwise the kind coercer decides.
func (v *Validator) Bind(s schema.Schema, raw map[string]any) (schema.Record, schema.Errors) {
	now := v.clock.Now()
	record := make(schema.Record, s.Len())
	var errs schema.Errors

	for _, field := range s.Fields() {
		value := raw[field.Name]

		if value == nil {
			if field.Required {
				errs.Add(field.Name, schema.MsgRequired)
			}
			continue
		}

		if !field.Nullable && schema.IsEmpty(value) {
			errs.Add(field.Name, schema.MsgEmpty)
			continue
		}

		coerced, msg := field.Kind.Coerce(value, now)
		if msg != "" {
			errs.Add(field.Name, msg)
			continue
		}
		record[field.Name] = coerced
	}

	return record, errs
}
