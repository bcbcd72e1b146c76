package model

import "strings"

// Field names a contact record field.
type Field string

const (
	FieldName       Field = "name"
	FieldEmail      Field = "email"
	FieldPhone      Field = "phone"
	FieldTitle      Field = "title"
	FieldLocation   Field = "location"
	FieldProfileURL Field = "profileUrl"
)

// Fields lists every extractable field in assembly order. Email and phone
// come first so that later fields can be corroborated against them.
var Fields = []Field{FieldEmail, FieldPhone, FieldName, FieldTitle, FieldLocation, FieldProfileURL}

// ParseField maps a case-insensitive field key to a Field.
func ParseField(s string) (Field, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return FieldName, true
	case "email":
		return FieldEmail, true
	case "phone":
		return FieldPhone, true
	case "title":
		return FieldTitle, true
	case "location":
		return FieldLocation, true
	case "profileurl", "profile_url":
		return FieldProfileURL, true
	default:
		return "", false
	}
}

// FieldSpec describes the expected shape of a field's values.
type FieldSpec struct {
	Field       Field `json:"field" yaml:"field"`
	MinSegments int   `json:"min_segments" yaml:"min_segments"`
	MaxSegments int   `json:"max_segments" yaml:"max_segments"`
	Identity    bool  `json:"identity" yaml:"identity"`
}

// InRange reports whether a segment count falls inside the expected range.
// A zero MaxSegments means unbounded.
func (s FieldSpec) InRange(n int) bool {
	if n < s.MinSegments {
		return false
	}
	return s.MaxSegments == 0 || n <= s.MaxSegments
}

// FieldRegistry is an indexed collection of field specs.
type FieldRegistry struct {
	Specs    []FieldSpec
	byField  map[Field]*FieldSpec
	identity []*FieldSpec
}

// NewFieldRegistry creates a FieldRegistry with indexed lookups.
func NewFieldRegistry(specs []FieldSpec) *FieldRegistry {
	r := &FieldRegistry{
		Specs:   specs,
		byField: make(map[Field]*FieldSpec, len(specs)),
	}
	for i := range r.Specs {
		s := &r.Specs[i]
		r.byField[s.Field] = s
		if s.Identity {
			r.identity = append(r.identity, s)
		}
	}
	return r
}

// DefaultFieldRegistry returns the segment expectations used for the
// out-of-range confidence penalty.
func DefaultFieldRegistry() *FieldRegistry {
	return NewFieldRegistry([]FieldSpec{
		{Field: FieldName, MinSegments: 2, MaxSegments: 4, Identity: true},
		{Field: FieldEmail, MinSegments: 1, MaxSegments: 1, Identity: true},
		{Field: FieldPhone, MinSegments: 1, MaxSegments: 4, Identity: true},
		{Field: FieldTitle, MinSegments: 1, MaxSegments: 6},
		{Field: FieldLocation, MinSegments: 1, MaxSegments: 6},
		{Field: FieldProfileURL, MinSegments: 1, MaxSegments: 1},
	})
}

// ByField returns the spec for the given field, or nil if not found.
func (r *FieldRegistry) ByField(f Field) *FieldSpec {
	return r.byField[f]
}

// Identity returns the specs of fields that can carry a record's identity.
func (r *FieldRegistry) Identity() []*FieldSpec {
	return r.identity
}
