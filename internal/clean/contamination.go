// Package clean repairs fields where listing text and profile text were
// concatenated without a separator, and records what changed.
package clean

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sells-group/roster-cli/internal/phone"
)

// NameResult is the outcome of cleaning a name.
type NameResult struct {
	Cleaned         string `json:"cleaned"`
	ExtractedTitle  string `json:"extractedTitle,omitempty"`
	WasContaminated bool   `json:"wasContaminated"`
}

// LocationResult is the outcome of cleaning a location.
type LocationResult struct {
	Normalized      string   `json:"normalized"`
	PhonesRemoved   []string `json:"phonesRemoved,omitempty"`
	WasContaminated bool     `json:"wasContaminated"`
}

var (
	spaceRun      = regexp.MustCompile(`[ \t]+`)
	commaRun      = regexp.MustCompile(`\s*,(?:\s*,)+`)
	spaceComma    = regexp.MustCompile(`\s+,`)
	emptyParens   = regexp.MustCompile(`\(\s*\)`)
	danglingLabel = regexp.MustCompile(`(?i)(?:^|[\s,|·•])(?:(?:tel|phone|ph|direct|mobile|cell|fax)\s*[.:]?|[tpf]\s*[.:])\s*$`)
	loneLetter    = regexp.MustCompile(`(?i)^\s*[tpf]\s*$`)
)

const edgeJunk = " \t,;|·•-–—/:"

// Contamination splits titles off names and phones out of locations.
type Contamination struct {
	suffixes []string
}

// NewContamination creates a Contamination cleaner for the given title
// suffixes. Longer suffixes are tried first so "Of Counsel" wins over
// "Counsel".
func NewContamination(suffixes []string) *Contamination {
	s := make([]string, 0, len(suffixes))
	for _, x := range suffixes {
		if x = strings.TrimSpace(x); x != "" {
			s = append(s, x)
		}
	}
	sort.SliceStable(s, func(i, j int) bool { return len(s[i]) > len(s[j]) })
	return &Contamination{suffixes: s}
}

// CleanName strips title words glued to the end of a name with no
// separator, e.g. "Arthur S. AdlerPartner". Stripping repeats until no
// suffix is left, so the cleaned value is stable under re-cleaning.
func (c *Contamination) CleanName(name string) NameResult {
	cur := strings.TrimSpace(name)
	var titles []string
	for {
		cut, title, ok := c.gluedSuffix(cur)
		if !ok {
			break
		}
		titles = append([]string{title}, titles...)
		cur = strings.TrimRight(cur[:cut], edgeJunk)
	}
	if len(titles) == 0 {
		return NameResult{Cleaned: cur}
	}
	return NameResult{
		Cleaned:         cur,
		ExtractedTitle:  strings.Join(titles, ", "),
		WasContaminated: true,
	}
}

// gluedSuffix finds a title suffix at the end of s that directly follows a
// letter or period. It returns the cut offset and the canonical title.
func (c *Contamination) gluedSuffix(s string) (int, string, bool) {
	for _, suf := range c.suffixes {
		if len(s) <= len(suf) {
			continue
		}
		cut := len(s) - len(suf)
		if !strings.EqualFold(s[cut:], suf) {
			continue
		}
		prev, _ := utf8.DecodeLastRuneInString(s[:cut])
		if !unicode.IsLetter(prev) && prev != '.' {
			continue
		}
		if len(strings.TrimSpace(s[:cut])) < 2 {
			continue
		}
		return cut, suf, true
	}
	return 0, "", false
}

// CleanLocation cuts phone-shaped substrings out of a location and tidies
// the separators they leave behind. Lines are kept so multi-office values
// survive.
func (c *Contamination) CleanLocation(loc string) LocationResult {
	var removed []string
	var b strings.Builder
	last := 0
	for _, m := range phone.Find(loc) {
		b.WriteString(loc[last:m.Start])
		b.WriteByte(' ')
		removed = append(removed, m.Value)
		last = m.End
	}
	b.WriteString(loc[last:])

	return LocationResult{
		Normalized:      collapse(b.String(), len(removed) > 0),
		PhonesRemoved:   removed,
		WasContaminated: len(removed) > 0,
	}
}

func collapse(s string, excised bool) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = emptyParens.ReplaceAllString(line, " ")
		if excised {
			line = danglingLabel.ReplaceAllString(line, "")
			line = loneLetter.ReplaceAllString(line, "")
		}
		line = spaceRun.ReplaceAllString(line, " ")
		line = commaRun.ReplaceAllString(line, ",")
		line = spaceComma.ReplaceAllString(line, ",")
		line = strings.Trim(line, edgeJunk)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
