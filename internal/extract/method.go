package extract

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-cli/internal/model"
)

// MethodKind identifies an extraction method family. Lower values have
// higher priority.
type MethodKind int

const (
	KindStructured MethodKind = iota
	KindLabelAdjacency
	KindPatternWindow
	KindFallbackDerived
	KindCoordinate
)

var kindNames = map[MethodKind]string{
	KindStructured:      "structured",
	KindLabelAdjacency:  "label-adjacency",
	KindPatternWindow:   "pattern-window",
	KindFallbackDerived: "fallback-derived",
	KindCoordinate:      "coordinate",
}

func (k MethodKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k MethodKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *MethodKind) UnmarshalText(b []byte) error {
	parsed, ok := ParseMethodKind(string(b))
	if !ok {
		return eris.Errorf("extract: unknown method %q", string(b))
	}
	*k = parsed
	return nil
}

// ParseMethodKind maps a configured method name to a MethodKind.
func ParseMethodKind(s string) (MethodKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "ocr":
		return KindCoordinate, true
	case "label":
		return KindLabelAdjacency, true
	case "pattern":
		return KindPatternWindow, true
	case "fallback":
		return KindFallbackDerived, true
	}
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// BaseConfidence returns the starting confidence for candidates produced by
// a method of this kind.
func (k MethodKind) BaseConfidence() int {
	switch k {
	case KindStructured:
		return 95
	case KindLabelAdjacency:
		return 85
	case KindPatternWindow:
		return 70
	case KindFallbackDerived:
		return 50
	case KindCoordinate:
		return 40
	default:
		return 0
	}
}

// Method is a closed set of extraction strategies. Each variant carries its
// own typed payload.
type Method interface {
	Kind() MethodKind
	isMethod()
}

// StructuredAnchor reads values from links: a scheme such as "mailto" or
// "tel", or an href pattern. With UseText the link text is the value,
// otherwise the href is.
type StructuredAnchor struct {
	Scheme      string
	HrefPattern *regexp.Regexp
	UseText     bool
}

// LabelAdjacency finds a line matching Label and takes the value from the
// rest of that line, or from the next non-empty line.
type LabelAdjacency struct {
	Label *regexp.Regexp
}

// PatternWindow searches Pattern within Window characters on either side of
// each Anchor match. A nil Anchor searches the whole unit.
type PatternWindow struct {
	Anchor  *regexp.Regexp
	Pattern *regexp.Regexp
	Window  int
}

// FallbackDerived derives a value from a companion field already assembled
// for the same unit, such as a name from the email local-part.
type FallbackDerived struct {
	From model.Field
}

// Coordinate searches positioned words around the email anchor: names in a
// region above it, phones in a region below it.
type Coordinate struct {
	Above      float64
	Below      float64
	XTolerance float64
	LineYTol   float64
	LineXGap   float64
}

func (StructuredAnchor) Kind() MethodKind { return KindStructured }
func (LabelAdjacency) Kind() MethodKind   { return KindLabelAdjacency }
func (PatternWindow) Kind() MethodKind    { return KindPatternWindow }
func (FallbackDerived) Kind() MethodKind  { return KindFallbackDerived }
func (Coordinate) Kind() MethodKind       { return KindCoordinate }

func (StructuredAnchor) isMethod() {}
func (LabelAdjacency) isMethod()   {}
func (PatternWindow) isMethod()    {}
func (FallbackDerived) isMethod()  {}
func (Coordinate) isMethod()       {}

// DefaultCoordinate returns the proximity bounds used for PDF-rendered
// directory pages, in points.
func DefaultCoordinate() Coordinate {
	return Coordinate{Above: 60, Below: 40, XTolerance: 100, LineYTol: 5, LineXGap: 150}
}

// FieldDescriptor names a field and the methods applicable to it.
type FieldDescriptor struct {
	Field   model.Field
	Methods []Method
}

// CandidateValue is a value proposed by one method for one field. It lives
// only for a single extraction pass.
type CandidateValue struct {
	Field      model.Field       `json:"field"`
	Value      string            `json:"value"`
	Method     MethodKind        `json:"method"`
	Confidence int               `json:"confidenceScore"`
	Position   int               `json:"position"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Failure records a method that produced no usable candidate.
type Failure struct {
	Field  model.Field `json:"field"`
	Method MethodKind  `json:"method"`
	Reason string      `json:"reason"`
}
