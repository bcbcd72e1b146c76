// Package extract proposes ranked, confidence-scored field candidates from a
// content unit using a fixed priority of extraction methods.
package extract

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/resilience"
	"github.com/sells-group/roster-cli/internal/validate"
)

// Mode selects how many methods run per field.
type Mode string

const (
	// ModeDiagnostic runs every applicable method and returns all results.
	ModeDiagnostic Mode = "diagnostic"
	// ModeProduction runs only the first method validated for the field.
	ModeProduction Mode = "production"
)

const (
	outOfRangePenalty  = 10
	corroborationBonus = 5
)

// Options configures an Extractor.
type Options struct {
	Mode      Mode
	Validated map[model.Field][]MethodKind
}

// Extractor runs field descriptors against content units.
type Extractor struct {
	validator *validate.Validator
	registry  *model.FieldRegistry
	mode      Mode
	validated map[model.Field]map[MethodKind]bool
}

// New creates an Extractor. Production mode without any validated method is
// a configuration error.
func New(v *validate.Validator, reg *model.FieldRegistry, opts Options) (*Extractor, error) {
	if reg == nil {
		reg = model.DefaultFieldRegistry()
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeDiagnostic
	}
	if mode != ModeDiagnostic && mode != ModeProduction {
		return nil, resilience.NewConfigurationError("extract.mode", fmt.Sprintf("unknown mode %q", mode))
	}

	validated := make(map[model.Field]map[MethodKind]bool, len(opts.Validated))
	for f, kinds := range opts.Validated {
		set := make(map[MethodKind]bool, len(kinds))
		for _, k := range kinds {
			set[k] = true
		}
		if len(set) > 0 {
			validated[f] = set
		}
	}
	if mode == ModeProduction && len(validated) == 0 {
		return nil, resilience.NewConfigurationError("extract.validated_methods", "production mode requires at least one validated method")
	}

	return &Extractor{validator: v, registry: reg, mode: mode, validated: validated}, nil
}

// Mode returns the extractor's mode.
func (e *Extractor) Mode() Mode { return e.mode }

// Result holds the outcome of extracting one field from one unit.
type Result struct {
	Field      model.Field
	Candidates []CandidateValue
	Rejections []*validate.Rejection
	Failures   []Failure
}

// Best returns the top-ranked candidate.
func (r Result) Best() (CandidateValue, bool) {
	if len(r.Candidates) == 0 {
		return CandidateValue{}, false
	}
	return r.Candidates[0], true
}

// Extract runs the descriptor's methods against unit. The assembled record
// holds companion fields already chosen for the same unit; it may be nil.
func (e *Extractor) Extract(unit model.ContentUnit, desc FieldDescriptor, assembled *model.ContactRecord) Result {
	res := Result{Field: desc.Field}
	log := zap.L().With(zap.String("unit", unit.ID), zap.String("field", string(desc.Field)))

	methods := make([]Method, len(desc.Methods))
	copy(methods, desc.Methods)
	sort.SliceStable(methods, func(i, j int) bool { return methods[i].Kind() < methods[j].Kind() })

	if e.mode == ModeProduction {
		m, ok := e.productionMethod(desc.Field, methods)
		if !ok {
			res.Failures = append(res.Failures, Failure{Field: desc.Field, Reason: "no validated method for field"})
			return res
		}
		methods = []Method{m}
	}

	for _, m := range methods {
		raws, reason := e.run(m, unit, desc.Field, assembled)
		if len(raws) == 0 {
			res.Failures = append(res.Failures, Failure{Field: desc.Field, Method: m.Kind(), Reason: reason})
			continue
		}
		accepted := 0
		for _, raw := range raws {
			value, err := e.validator.Validate(desc.Field, raw.value)
			if err != nil {
				var rej *validate.Rejection
				if errors.As(err, &rej) {
					res.Rejections = append(res.Rejections, rej)
					log.Debug("extract: candidate rejected",
						zap.String("method", m.Kind().String()),
						zap.String("reason", rej.Reason))
				}
				continue
			}
			accepted++
			res.Candidates = append(res.Candidates, CandidateValue{
				Field:      desc.Field,
				Value:      value,
				Method:     m.Kind(),
				Confidence: e.score(m.Kind(), desc.Field, raw.value, value, assembled),
				Position:   raw.position,
				Metadata:   raw.meta,
			})
		}
		if accepted == 0 {
			res.Failures = append(res.Failures, Failure{Field: desc.Field, Method: m.Kind(), Reason: "all candidates rejected"})
		}
	}

	res.Candidates = rank(res.Candidates)
	return res
}

func (e *Extractor) productionMethod(f model.Field, methods []Method) (Method, bool) {
	set := e.validated[f]
	for _, m := range methods {
		if set[m.Kind()] {
			return m, true
		}
	}
	return nil, false
}

// rank orders candidates by confidence, then reading order, keeping only the
// best entry for each distinct value.
func rank(cands []CandidateValue) []CandidateValue {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Confidence != cands[j].Confidence {
			return cands[i].Confidence > cands[j].Confidence
		}
		if cands[i].Position != cands[j].Position {
			return cands[i].Position < cands[j].Position
		}
		return cands[i].Method < cands[j].Method
	})
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		key := strings.ToLower(c.Value)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func (e *Extractor) score(k MethodKind, f model.Field, raw, value string, assembled *model.ContactRecord) int {
	conf := k.BaseConfidence()
	if spec := e.registry.ByField(f); spec != nil && !spec.InRange(segments(f, raw)) {
		conf -= outOfRangePenalty
	}
	if corroborated(f, value, assembled) {
		conf += corroborationBonus
	}
	return conf
}

// segments counts the pieces a raw value is made of for range checks.
func segments(f model.Field, raw string) int {
	switch f {
	case model.FieldPhone:
		n := 0
		for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r < '0' || r > '9' }) {
			if part != "" {
				n++
			}
		}
		return n
	case model.FieldLocation:
		n := 0
		for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' }) {
			if strings.TrimSpace(part) != "" {
				n++
			}
		}
		return n
	default:
		return len(strings.Fields(raw))
	}
}

// corroborated reports whether a companion field already assembled for the
// unit supports the value.
func corroborated(f model.Field, value string, r *model.ContactRecord) bool {
	if r == nil {
		return false
	}
	switch f {
	case model.FieldName:
		return nameMatchesEmail(value, r.Email)
	case model.FieldEmail:
		return nameMatchesEmail(r.Name, value)
	default:
		return false
	}
}

func nameMatchesEmail(name, email string) bool {
	at := strings.IndexByte(email, '@')
	if name == "" || at <= 0 {
		return false
	}
	local := strings.ToLower(email[:at])
	for _, tok := range strings.Fields(strings.ToLower(name)) {
		tok = strings.Trim(tok, ".,'’")
		if len(tok) >= 2 && strings.Contains(local, tok) {
			return true
		}
	}
	return false
}

type rawCandidate struct {
	value    string
	position int
	meta     map[string]string
}

// run dispatches a method. The switch is exhaustive over the closed Method
// set. An empty result comes with the failure reason.
func (e *Extractor) run(m Method, unit model.ContentUnit, f model.Field, assembled *model.ContactRecord) ([]rawCandidate, string) {
	var out []rawCandidate
	switch m := m.(type) {
	case StructuredAnchor:
		out = runStructured(m, unit)
	case LabelAdjacency:
		out = runLabel(m, unit.Text)
	case PatternWindow:
		out = runPattern(m, unit.Text)
	case FallbackDerived:
		return e.runFallback(m, f, assembled)
	case Coordinate:
		out = runCoordinate(m, unit.Words, f)
	default:
		return nil, fmt.Sprintf("unsupported method %T", m)
	}
	if len(out) == 0 {
		return nil, "no match"
	}
	return out, ""
}

func runStructured(m StructuredAnchor, unit model.ContentUnit) []rawCandidate {
	var base *url.URL
	if unit.PageURL != "" {
		base, _ = url.Parse(unit.PageURL)
	}
	var out []rawCandidate
	for i, link := range unit.Links {
		href := strings.TrimSpace(link.Href)
		var value string
		switch {
		case m.Scheme != "":
			prefix := m.Scheme + ":"
			if len(href) < len(prefix) || !strings.EqualFold(href[:len(prefix)], prefix) {
				continue
			}
			value = href[len(prefix):]
			if q := strings.IndexByte(value, '?'); q >= 0 {
				value = value[:q]
			}
			if dec, err := url.PathUnescape(value); err == nil {
				value = dec
			}
		case m.HrefPattern != nil:
			if !m.HrefPattern.MatchString(href) {
				continue
			}
			if m.UseText {
				value = strings.TrimSpace(link.Text)
			} else {
				value = resolve(base, href)
			}
		default:
			continue
		}
		if value == "" {
			continue
		}
		pos := i
		if link.Text != "" {
			if idx := strings.Index(unit.Text, link.Text); idx >= 0 {
				pos = idx
			}
		}
		out = append(out, rawCandidate{value: value, position: pos, meta: map[string]string{"href": href}})
	}
	return out
}

func resolve(base *url.URL, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if !u.IsAbs() && base != nil {
		u = base.ResolveReference(u)
	}
	u.Fragment = ""
	return u.String()
}

const labelTrim = " \t:-–—|"

func runLabel(m LabelAdjacency, text string) []rawCandidate {
	if m.Label == nil {
		return nil
	}
	var out []rawCandidate
	lines := strings.Split(text, "\n")
	offset := 0
	for i, line := range lines {
		lineStart := offset
		offset += len(line) + 1

		trimmed := strings.TrimLeft(line, " \t")
		lead := len(line) - len(trimmed)
		loc := m.Label.FindStringIndex(trimmed)
		if loc == nil || loc[0] != 0 {
			continue
		}
		rest := strings.TrimLeft(trimmed[loc[1]:], labelTrim)
		if rest = strings.TrimSpace(rest); rest != "" {
			pos := lineStart + lead + strings.Index(trimmed, rest)
			out = append(out, rawCandidate{value: rest, position: pos, meta: map[string]string{"label": trimmed[:loc[1]]}})
			continue
		}
		next := lineStart + len(line) + 1
		for j := i + 1; j < len(lines); j++ {
			if v := strings.TrimSpace(lines[j]); v != "" {
				out = append(out, rawCandidate{
					value:    v,
					position: next + strings.Index(lines[j], v),
					meta:     map[string]string{"label": trimmed[:loc[1]], "adjacent": "next-line"},
				})
				break
			}
			next += len(lines[j]) + 1
		}
	}
	return out
}

func runPattern(m PatternWindow, text string) []rawCandidate {
	if m.Pattern == nil || text == "" {
		return nil
	}
	type window struct{ start, end int }
	var windows []window
	if m.Anchor == nil {
		windows = append(windows, window{0, len(text)})
	} else {
		for _, loc := range m.Anchor.FindAllStringIndex(text, -1) {
			windows = append(windows, window{max(0, loc[0]-m.Window), min(len(text), loc[1]+m.Window)})
		}
	}

	seen := make(map[int]bool)
	var out []rawCandidate
	for _, w := range windows {
		chunk := text[w.start:w.end]
		for _, loc := range m.Pattern.FindAllStringSubmatchIndex(chunk, -1) {
			start, end := loc[0], loc[1]
			// The first capture group, when present, is the value.
			if len(loc) >= 4 && loc[2] >= 0 {
				start, end = loc[2], loc[3]
			}
			abs := w.start + start
			if seen[abs] {
				continue
			}
			seen[abs] = true
			out = append(out, rawCandidate{value: strings.TrimSpace(chunk[start:end]), position: abs})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].position < out[j].position })
	return out
}

func (e *Extractor) runFallback(m FallbackDerived, f model.Field, assembled *model.ContactRecord) ([]rawCandidate, string) {
	if assembled == nil {
		return nil, "no companion fields assembled"
	}
	src := assembled.Get(m.From)
	if src == "" {
		return nil, fmt.Sprintf("companion %s absent", m.From)
	}
	if f != model.FieldName || m.From != model.FieldEmail {
		return nil, fmt.Sprintf("cannot derive %s from %s", f, m.From)
	}
	name, err := e.validator.NameFromEmail(src)
	if err != nil {
		var rej *validate.Rejection
		if errors.As(err, &rej) {
			return nil, rej.Reason
		}
		return nil, err.Error()
	}
	return []rawCandidate{{value: name, position: 0, meta: map[string]string{"derivedFrom": string(m.From)}}}, ""
}
