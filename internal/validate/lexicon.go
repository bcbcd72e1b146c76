package validate

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// NameBounds limits the token and character counts of a valid name.
type NameBounds struct {
	MinTokens int `yaml:"min_tokens"`
	MaxTokens int `yaml:"max_tokens"`
	MinChars  int `yaml:"min_chars"`
	MaxChars  int `yaml:"max_chars"`
}

// Lexicon holds the externally supplied word lists that parameterize field
// validation and cleaning.
type Lexicon struct {
	Name                 NameBounds `yaml:"name"`
	UIBlacklistExact     []string   `yaml:"ui_blacklist_exact"`
	UIBlacklistSubstring []string   `yaml:"ui_blacklist_substring"`
	Particles            []string   `yaml:"particles"`
	NameSuffixes         []string   `yaml:"name_suffixes"`
	NonPersonal          []string   `yaml:"non_personal"`
	FirstNames           []string   `yaml:"first_names"`
	TitleSuffixes        []string   `yaml:"title_suffixes"`
	PersonalDomains      []string   `yaml:"personal_domains"`

	exact        map[string]bool
	particles    map[string]bool
	nameSuffixes map[string]bool
	nonPersonal  map[string]bool
	firstNames   []string
}

// DefaultLexicon returns the built-in lexicon.
func DefaultLexicon() *Lexicon {
	lex, err := ParseLexicon(defaultLexiconYAML)
	if err != nil {
		panic(eris.Wrap(err, "validate: embedded lexicon"))
	}
	return lex
}

// ParseLexicon decodes a lexicon document. The YAML has a top-level
// "lexicon" key.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var wrapper struct {
		Lexicon Lexicon `yaml:"lexicon"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "validate: parse lexicon")
	}
	lex := &wrapper.Lexicon
	lex.index()
	return lex, nil
}

// LoadLexicon reads a lexicon file. Lists and bounds present in the file
// replace the built-in ones; anything omitted keeps its default.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "validate: read lexicon %s", path)
	}

	var wrapper struct {
		Lexicon Lexicon `yaml:"lexicon"`
	}
	wrapper.Lexicon = *DefaultLexicon()
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "validate: parse lexicon %s", path)
	}
	lex := &wrapper.Lexicon
	lex.index()
	return lex, nil
}

func (l *Lexicon) index() {
	l.exact = toSet(l.UIBlacklistExact)
	l.particles = toSet(l.Particles)
	l.nameSuffixes = make(map[string]bool, len(l.NameSuffixes))
	for _, sfx := range l.NameSuffixes {
		if sfx = suffixKey(sfx); sfx != "" {
			l.nameSuffixes[sfx] = true
		}
	}
	l.nonPersonal = toSet(l.NonPersonal)

	l.firstNames = make([]string, 0, len(l.FirstNames))
	for _, n := range l.FirstNames {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			l.firstNames = append(l.firstNames, n)
		}
	}
	// Longest prefix wins when splitting concatenated names.
	sort.SliceStable(l.firstNames, func(i, j int) bool {
		return len(l.firstNames[i]) > len(l.firstNames[j])
	})
}

// IsParticle reports whether a name token is a lowercase surname particle.
func (l *Lexicon) IsParticle(token string) bool {
	return l.particles[strings.ToLower(token)]
}

// IsNameSuffix reports whether token is a generational or credential
// suffix such as "Jr." or "Ph.D.". Case and periods are ignored.
func (l *Lexicon) IsNameSuffix(token string) bool {
	k := suffixKey(token)
	return k != "" && l.nameSuffixes[k]
}

func suffixKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), ".", "")
}

// IsNonPersonal reports whether an email local-part token is a role or
// mailbox word rather than part of a person's name.
func (l *Lexicon) IsNonPersonal(token string) bool {
	return l.nonPersonal[strings.ToLower(token)]
}

// BlacklistMatch returns the blacklist entry the value hits, or "".
func (l *Lexicon) BlacklistMatch(value string) string {
	lower := strings.ToLower(strings.Join(strings.Fields(value), " "))
	if l.exact[lower] {
		return lower
	}
	for _, s := range l.UIBlacklistSubstring {
		s = strings.ToLower(s)
		if s != "" && strings.Contains(lower, s) {
			return s
		}
	}
	return ""
}

func toSet(list []string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, s := range list {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			m[s] = true
		}
	}
	return m
}
