package merge

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/roster-cli/internal/phone"
)

// EmailKey is the lowercased, trimmed email.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PhoneKey is the last 10 digits of the phone, or "" when it has fewer.
func PhoneKey(p string) string {
	return phone.Key(p)
}

// NameKey lowercases a name, strips punctuation other than apostrophes and
// hyphens, and collapses whitespace. Unicode input is NFC-normalized first
// so composed and decomposed accents compare equal.
func NameKey(name string) string {
	name = norm.NFC.String(name)
	var b strings.Builder
	b.Grow(len(name))
	space := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		case r == '\'' || r == '’':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteByte('\'')
		case r == '-':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteByte('-')
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// DomainNameKey joins a domain and a name key. It is empty unless both
// parts are usable.
func DomainNameKey(domain, name string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	n := NameKey(name)
	if d == "" || n == "" {
		return ""
	}
	return d + "|" + n
}
