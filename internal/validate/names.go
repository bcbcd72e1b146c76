package validate

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/roster-cli/internal/model"
)

// longTokenLen is the length above which a lone local-part token is assumed
// to be a first and last name run together.
const longTokenLen = 15

var (
	localSeparators = regexp.MustCompile(`[._\-]+`)
	trailingDigits  = regexp.MustCompile(`\d+$`)
	allDigits       = regexp.MustCompile(`^\d+$`)
)

// NameFromEmail derives a display name from an email local-part, e.g.
// "brandon.abelard@compass.com" becomes "Brandon Abelard". Role mailboxes
// such as info@ or sales@ are rejected.
func (v *Validator) NameFromEmail(email string) (string, error) {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "", reject(model.FieldName, email, "no email local-part")
	}
	local := strings.ToLower(strings.TrimSpace(email[:at]))
	if i := strings.IndexByte(local, '+'); i > 0 {
		local = local[:i]
	}
	if v.lex.IsNonPersonal(local) {
		return "", reject(model.FieldName, email, "non-personal mailbox: "+local)
	}

	var tokens []string
	for _, t := range localSeparators.Split(local, -1) {
		if t == "" || allDigits.MatchString(t) {
			continue
		}
		if v.lex.IsNonPersonal(t) {
			return "", reject(model.FieldName, email, "non-personal token: "+t)
		}
		if t = trailingDigits.ReplaceAllString(t, ""); t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return "", reject(model.FieldName, email, "no name tokens in local-part")
	}
	if len(tokens) == 1 && len(tokens[0]) > longTokenLen {
		tokens = v.splitConcatenated(tokens[0])
	}

	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len([]rune(t)) == 1 {
			parts = append(parts, strings.ToUpper(t)+".")
			continue
		}
		parts = append(parts, cases.Title(language.Und).String(t))
	}
	return strings.Join(parts, " "), nil
}

// splitConcatenated splits a run-together name at the longest known first
// name prefix, or at the midpoint when no prefix matches.
func (v *Validator) splitConcatenated(token string) []string {
	for _, first := range v.lex.firstNames {
		if strings.HasPrefix(token, first) && len(token)-len(first) >= 2 {
			return []string{first, token[len(first):]}
		}
	}
	mid := len(token) / 2
	return []string{token[:mid], token[mid:]}
}
