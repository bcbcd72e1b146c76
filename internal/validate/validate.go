// Package validate applies per-field grammar and blacklist checks to
// candidate values, independently of how they were extracted.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/roster-cli/internal/geo"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/phone"
)

// Rejection records why a candidate value failed validation.
type Rejection struct {
	Field  model.Field
	Value  string
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("validate: %s %q rejected: %s", r.Field, r.Value, r.Reason)
}

func reject(f model.Field, v, reason string) *Rejection {
	return &Rejection{Field: f, Value: v, Reason: reason}
}

const (
	titleMaxLen = 150
	locationMax = 300
	nameSymbols = "'’-.,"
)

var (
	emailShape  = regexp.MustCompile(`^[a-z0-9._%+\-']+@([a-z0-9](?:[a-z0-9\-]*[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9\-]*[a-z0-9])?)+)$`)
	lettersOnly = regexp.MustCompile(`^[a-z]{2,}$`)
	digitRun    = regexp.MustCompile(`\d{3,}`)
	hasLetter   = regexp.MustCompile(`\p{L}`)
	nameAllowed = []*unicode.RangeTable{unicode.L, unicode.M, unicode.Nd}
)

// Validator checks and normalizes candidate field values.
type Validator struct {
	lex *Lexicon
}

// New creates a Validator backed by the given lexicon. A nil lexicon uses
// the built-in one.
func New(lex *Lexicon) *Validator {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Validator{lex: lex}
}

// Lexicon returns the lexicon backing the validator.
func (v *Validator) Lexicon() *Lexicon { return v.lex }

// Validate dispatches to the grammar for the given field.
func (v *Validator) Validate(f model.Field, value string) (string, error) {
	switch f {
	case model.FieldName:
		return v.Name(value)
	case model.FieldEmail:
		return v.Email(value)
	case model.FieldPhone:
		return v.Phone(value)
	case model.FieldTitle:
		return v.Title(value)
	case model.FieldLocation:
		return v.Location(value)
	case model.FieldProfileURL:
		return v.ProfileURL(value)
	default:
		return "", reject(f, value, "unknown field")
	}
}

// Name validates a person name. Fully uppercase names are title-cased with
// particles kept lowercase.
func (v *Validator) Name(value string) (string, error) {
	s := strings.Join(strings.Fields(value), " ")
	b := v.lex.Name

	switch {
	case s == "":
		return "", reject(model.FieldName, value, "empty")
	case strings.Contains(s, "@"):
		return "", reject(model.FieldName, value, "contains @")
	case digitRun.MatchString(s):
		return "", reject(model.FieldName, value, "contains 3+ consecutive digits")
	}
	if n := len([]rune(s)); n < b.MinChars || n > b.MaxChars {
		return "", reject(model.FieldName, value, fmt.Sprintf("length %d outside %d-%d", n, b.MinChars, b.MaxChars))
	}
	tokens := strings.Split(s, " ")
	if len(tokens) < b.MinTokens || len(tokens) > b.MaxTokens {
		return "", reject(model.FieldName, value, fmt.Sprintf("%d tokens outside %d-%d", len(tokens), b.MinTokens, b.MaxTokens))
	}
	if hit := v.lex.BlacklistMatch(s); hit != "" {
		return "", reject(model.FieldName, value, "ui blacklist: "+hit)
	}
	for _, r := range s {
		if r == ' ' || strings.ContainsRune(nameSymbols, r) || unicode.IsOneOf(nameAllowed, r) {
			continue
		}
		return "", reject(model.FieldName, value, fmt.Sprintf("invalid character %q", r))
	}
	if !hasLetter.MatchString(s) {
		return "", reject(model.FieldName, value, "no letters")
	}
	// "City, ST" lines share the shape of a name followed by a suffix.
	if _, ok := geo.StateSuffix(s); ok {
		return "", reject(model.FieldName, value, "ends in a US state code")
	}
	if geo.IsPlaceName(s) {
		return "", reject(model.FieldName, value, "place name")
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		for _, part := range strings.Split(s[i+1:], ",") {
			if part = strings.TrimSpace(part); !v.lex.IsNameSuffix(part) {
				return "", reject(model.FieldName, value, fmt.Sprintf("comma before %q, not a name suffix", part))
			}
		}
	}

	if isAllUpper(s) {
		return v.titleCaseName(tokens), nil
	}

	first := []rune(tokens[0])[0]
	if !unicode.IsUpper(first) && !(v.lex.IsParticle(tokens[0]) && len(tokens) > 1) {
		return "", reject(model.FieldName, value, "does not start with an uppercase letter")
	}
	return s, nil
}

func (v *Validator) titleCaseName(tokens []string) string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if i > 0 && v.lex.IsParticle(t) {
			out[i] = strings.ToLower(t)
			continue
		}
		out[i] = titleToken(t)
	}
	return strings.Join(out, " ")
}

// titleToken title-cases one name token. The letter after an apostrophe
// that follows a one or two letter prefix is capitalized too (O'Brien,
// D'Angelo), which cases.Title leaves lowercase.
func titleToken(t string) string {
	// Casers are stateful and never shared.
	rs := []rune(cases.Title(language.Und).String(strings.ToLower(t)))
	start := 0
	for i, r := range rs {
		switch {
		case r == '-':
			start = i + 1
		case (r == '\'' || r == '’') && i-start >= 1 && i-start <= 2 && i+1 < len(rs):
			rs[i+1] = unicode.ToUpper(rs[i+1])
		}
	}
	return string(rs)
}

// TitleCase applies name casing to an already validated token list.
func (v *Validator) TitleCase(name string) string {
	return v.titleCaseName(strings.Fields(name))
}

func isAllUpper(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2
}

// Email validates local@domain.tld. The result is lowercased with any
// mailto: prefix and query removed.
func (v *Validator) Email(value string) (string, error) {
	s := strings.TrimSpace(value)
	if len(s) >= 7 && strings.EqualFold(s[:7], "mailto:") {
		s = s[7:]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	if u, err := url.PathUnescape(s); err == nil {
		s = u
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".,;:<>()[]\"")

	m := emailShape.FindStringSubmatch(s)
	if m == nil {
		return "", reject(model.FieldEmail, value, "not local@domain.tld")
	}
	labels := strings.Split(m[1], ".")
	if !lettersOnly.MatchString(labels[len(labels)-1]) {
		return "", reject(model.FieldEmail, value, "final domain label must be 2+ letters")
	}
	return s, nil
}

// Phone validates a phone and returns its 10-digit national number.
func (v *Validator) Phone(value string) (string, error) {
	s := strings.TrimSpace(value)
	if len(s) >= 4 && strings.EqualFold(s[:4], "tel:") {
		s = s[4:]
	}
	n, ok := phone.Normalize(s)
	if !ok {
		return "", reject(model.FieldPhone, value, fmt.Sprintf("%d digits, want 10 or 1+10", len(phone.Digits(s))))
	}
	return n, nil
}

// Title validates a job title.
func (v *Validator) Title(value string) (string, error) {
	s := strings.Join(strings.Fields(value), " ")
	switch {
	case s == "":
		return "", reject(model.FieldTitle, value, "empty")
	case len(s) > titleMaxLen:
		return "", reject(model.FieldTitle, value, "too long")
	case strings.Contains(s, "@"):
		return "", reject(model.FieldTitle, value, "contains @")
	case phone.Find(s) != nil:
		return "", reject(model.FieldTitle, value, "contains a phone number")
	}
	if hit := v.lex.BlacklistMatch(s); hit != "" {
		return "", reject(model.FieldTitle, value, "ui blacklist: "+hit)
	}
	return s, nil
}

// Location validates a location. Lines are trimmed and empty lines dropped;
// line structure is kept for the multi-location resolver.
func (v *Validator) Location(value string) (string, error) {
	var lines []string
	for _, line := range strings.Split(value, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	s := strings.Join(lines, "\n")
	switch {
	case s == "":
		return "", reject(model.FieldLocation, value, "empty")
	case len(s) > locationMax:
		return "", reject(model.FieldLocation, value, "too long")
	case strings.Contains(s, "@"):
		return "", reject(model.FieldLocation, value, "contains @")
	case !hasLetter.MatchString(s):
		return "", reject(model.FieldLocation, value, "no letters")
	}
	if hit := v.lex.BlacklistMatch(s); hit != "" && !strings.Contains(s, "\n") {
		return "", reject(model.FieldLocation, value, "ui blacklist: "+hit)
	}
	return s, nil
}

// ProfileURL validates an absolute http(s) URL.
func (v *Validator) ProfileURL(value string) (string, error) {
	s := strings.TrimSpace(value)
	u, err := url.Parse(s)
	if err != nil {
		return "", reject(model.FieldProfileURL, value, "unparseable url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", reject(model.FieldProfileURL, value, "not an http(s) url")
	}
	if u.Host == "" {
		return "", reject(model.FieldProfileURL, value, "missing host")
	}
	return s, nil
}
