// Package phone normalizes, formats and locates phone numbers in free text.
package phone

import (
	"fmt"
	"regexp"
	"strings"
)

// Digits strips everything except ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Normalize reduces a phone to its 10-digit national number. It accepts
// exactly 10 digits, or 11 digits with a leading "1".
func Normalize(s string) (string, bool) {
	d := Digits(s)
	switch {
	case len(d) == 10:
		return d, true
	case len(d) == 11 && d[0] == '1':
		return d[1:], true
	default:
		return "", false
	}
}

// Format renders a phone as +1-AAA-EEE-NNNN. Values that do not normalize
// are returned trimmed but otherwise untouched.
func Format(s string) string {
	n, ok := Normalize(s)
	if !ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("+1-%s-%s-%s", n[:3], n[3:6], n[6:])
}

// Key returns the last 10 digits of a phone, or "" if it has fewer.
func Key(s string) string {
	d := Digits(s)
	if len(d) < 10 {
		return ""
	}
	return d[len(d)-10:]
}

// phoneShape matches the groupings phones are written in: international
// numbers with a leading +, North American 3-3-4, trunk-prefixed national
// numbers such as 020 7946 0958, and 3-4 local numbers. Separators never
// cross a line break.
var phoneShape = regexp.MustCompile(
	`\+\d{1,3}(?:[ \t.\-]?\(?\d{1,4}\)?){2,6}` +
		`|(?:1[ \t.\-]?)?(?:\(\d{3}\)|\d{3})[ \t.\-/]?\d{3}[ \t.\-]?\d{4}` +
		`|(\(?0\d{1,4}\)?(?:[ \t.\-]\d{2,4}){2,3})` +
		`|\d{3}[ \t.\-]\d{4}`,
)

// MinDigits and MaxDigits bound how many digits a phone-shaped substring
// may carry. Trunk-prefixed national numbers carry at most maxTrunkDigits.
const (
	MinDigits      = 7
	MaxDigits      = 15
	maxTrunkDigits = 12
)

// Match is a phone-shaped substring found in text.
type Match struct {
	Value string
	Start int
	End   int
}

// Find returns the phone-shaped substrings of text carrying between
// MinDigits and MaxDigits digits, in reading order. A candidate that
// continues into more digits on either side, directly or across a hyphen
// or period, belongs to a longer number (ZIP+4, box or suite numbers) and
// is skipped; the search then resumes one byte later so a real phone after
// a ZIP code is still found.
func Find(text string) []Match {
	var out []Match
	for pos := 0; pos < len(text); {
		loc := phoneShape.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		v := text[start:end]
		n := len(Digits(v))
		trunk := loc[2] >= 0
		if glued(text, start, end) || (trunk && n > maxTrunkDigits) {
			pos = start + 1
			continue
		}
		pos = end
		if n < MinDigits || n > MaxDigits {
			continue
		}
		out = append(out, Match{Value: v, Start: start, End: end})
	}
	return out
}

// glued reports whether text[start:end] runs on into neighbouring digits.
func glued(text string, start, end int) bool {
	if start > 0 {
		if isDigit(text[start-1]) {
			return true
		}
		if start > 1 && isJoiner(text[start-1]) && isDigit(text[start-2]) {
			return true
		}
	}
	if end < len(text) {
		if isDigit(text[end]) {
			return true
		}
		if end+1 < len(text) && isJoiner(text[end]) && isDigit(text[end+1]) {
			return true
		}
	}
	return false
}

func isJoiner(b byte) bool { return b == '-' || b == '.' }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// IsPhoneShaped reports whether s, after trimming, is entirely a phone.
func IsPhoneShaped(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "tel:"), "phone:"))
	m := Find(s)
	return len(m) == 1 && m[0].Start == 0 && m[0].End == len(s)
}
