package types

import "fmt"

// Field value types determine what values a schema field accepts.
const (
	ValueTypeText    = "text"
	ValueTypeInteger = "integer"
	ValueTypeNumber  = "number"
	ValueTypeBoolean = "boolean"
)

// validValueTypes is the set of recognized field value types.
var validValueTypes = map[string]bool{
	ValueTypeText:    true,
	ValueTypeInteger: true,
	ValueTypeNumber:  true,
	ValueTypeBoolean: true,
}

// Snapshot keys that never become model fields. The id is immutable identity
// and transactions are an audit trail kept by the store.
const (
	KeyID           = "id"
	KeyTransactions = "transactions"
)

// IsReservedKey reports whether key is handled outside the generic field map.
func IsReservedKey(key string) bool {
	return key == KeyID || key == KeyTransactions
}

// FieldSpec declares one field of an entity schema.
type FieldSpec struct {
	Name      string // Field name as it appears in snapshots.
	ValueType string // One of the ValueType constants.
	Required  bool   // Snapshots missing the field are rejected.
}

// Schema is the fixed, ordered set of fields an entity type carries.
type Schema []FieldSpec

// DefaultValue returns the type-based default value for a given value type:
// "" for text, 0 for integer and number, false for boolean.
// Returns ErrInvalidValueType if the type is not recognized.
func DefaultValue(valueType string) (any, error) {
	switch valueType {
	case ValueTypeText:
		return "", nil
	case ValueTypeInteger:
		return int64(0), nil
	case ValueTypeNumber:
		return float64(0), nil
	case ValueTypeBoolean:
		return false, nil
	default:
		return nil, ErrInvalidValueType
	}
}

// IsValidValueType reports whether the given string is a recognized value type.
func IsValidValueType(vt string) bool {
	return validValueTypes[vt]
}

// Validate checks that every field has a unique, non-empty, non-reserved
// name and a recognized value type.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s))
	for _, f := range s {
		if f.Name == "" || IsReservedKey(f.Name) {
			return fmt.Errorf("%w: %q", ErrInvalidSchema, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name)
		}
		if !IsValidValueType(f.ValueType) {
			return fmt.Errorf("%w: field %q: %w", ErrInvalidSchema, f.Name, ErrInvalidValueType)
		}
		seen[f.Name] = true
	}
	return nil
}

// Lookup returns the spec for the named field.
func (s Schema) Lookup(name string) (FieldSpec, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Coerce converts v into the canonical Go type of the named field:
// string, int64, float64 or bool. JSON numbers (float64) are accepted for
// integer fields when integral. Returns ErrFieldNotFound for unknown names and
// ErrTypeMismatch when v cannot represent the field's type.
func (s Schema) Coerce(name string, v any) (any, error) {
	spec, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
	}
	out, ok := coerce(spec.ValueType, v)
	if !ok {
		return nil, fmt.Errorf("%w: field %q wants %s, got %T", ErrTypeMismatch, name, spec.ValueType, v)
	}
	return out, nil
}

func coerce(valueType string, v any) (any, bool) {
	switch valueType {
	case ValueTypeText:
		s, ok := v.(string)
		return s, ok
	case ValueTypeBoolean:
		b, ok := v.(bool)
		return b, ok
	case ValueTypeInteger:
		switch x := v.(type) {
		case int:
			return int64(x), true
		case int32:
			return int64(x), true
		case int64:
			return x, true
		case float64:
			n, ok := wholeInt64(x)
			if !ok {
				return nil, false
			}
			return n, true
		}
	case ValueTypeNumber:
		switch x := v.(type) {
		case float64:
			return x, true
		case float32:
			return float64(x), true
		case int:
			return float64(x), true
		case int64:
			return float64(x), true
		}
	}
	return nil, false
}
