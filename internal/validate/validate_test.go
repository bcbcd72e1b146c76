package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-cli/internal/model"
)

func TestName(t *testing.T) {
	t.Parallel()
	v := New(nil)

	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"simple", "Jane Doe", "Jane Doe", true},
		{"initial", "Arthur S. Adler", "Arthur S. Adler", true},
		{"apostrophe", "Conan O'Brien", "Conan O'Brien", true},
		{"hyphen", "Mary-Kate Olsen-Smith", "Mary-Kate Olsen-Smith", true},
		{"suffix with comma", "John Smith, Jr.", "John Smith, Jr.", true},
		{"accents", "José Álvarez", "José Álvarez", true},
		{"leading particle", "van Gogh Vincent", "van Gogh Vincent", true},
		{"whitespace collapsed", "  Jane \t Doe ", "Jane Doe", true},
		{"all caps", "LUDWIG VAN BEETHOVEN", "Ludwig van Beethoven", true},
		{"all caps particle first", "DE NIRO", "De Niro", true},
		{"all caps apostrophe", "JOHN O'BRIEN", "John O'Brien", true},
		{"all caps curly apostrophe", "MARIA D’ANGELO", "Maria D’Angelo", true},
		{"all caps hyphen", "JEAN-LUC PICARD", "Jean-Luc Picard", true},
		{"all caps hyphen apostrophe", "ANN SMITH-O'NEIL", "Ann Smith-O'Neil", true},
		{"credential suffix", "Jane Roe, Ph.D.", "Jane Roe, Ph.D.", true},
		{"two suffixes", "John Smith, Jr., Esq.", "John Smith, Jr., Esq.", true},
		{"city and state", "New York, NY", "", false},
		{"city state zip", "Palo Alto, CA 94301", "", false},
		{"bare city", "New York", "", false},
		{"country", "United Kingdom", "", false},
		{"comma before non-suffix", "Doe, Jane", "", false},
		{"trailing comma", "Jane Doe,", "", false},
		{"at sign", "jane@acme.com", "", false},
		{"digit run", "Agent 007", "", false},
		{"lowercase", "jane doe", "", false},
		{"too many tokens", "A B C D E F G", "", false},
		{"too short", "J", "", false},
		{"exact blacklist", "Contact", "", false},
		{"substring blacklist", "View Profile of Jane", "", false},
		{"blacklist case", "SIGN IN", "", false},
		{"symbols", "Jane <Doe>", "", false},
		{"empty", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := v.Name(tt.in)
			if !tt.ok {
				var rej *Rejection
				require.True(t, errors.As(err, &rej), "expected rejection for %q", tt.in)
				assert.Equal(t, model.FieldName, rej.Field)
				assert.NotEmpty(t, rej.Reason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestName_ContainsPlaceWord(t *testing.T) {
	t.Parallel()

	got, err := New(nil).Name("Austin Lee")
	require.NoError(t, err)
	assert.Equal(t, "Austin Lee", got)
}

func TestLexicon_IsNameSuffix(t *testing.T) {
	t.Parallel()
	lex := DefaultLexicon()

	assert.True(t, lex.IsNameSuffix("Jr."))
	assert.True(t, lex.IsNameSuffix("PH.D."))
	assert.True(t, lex.IsNameSuffix(" III "))
	assert.False(t, lex.IsNameSuffix("NY"))
	assert.False(t, lex.IsNameSuffix(""))
	assert.False(t, lex.IsNameSuffix("."))
}

func TestName_SurnameNotBlacklistedBySubstring(t *testing.T) {
	t.Parallel()

	got, err := New(nil).Name("John Sargent")
	require.NoError(t, err)
	assert.Equal(t, "John Sargent", got)
}

func TestEmail(t *testing.T) {
	t.Parallel()
	v := New(nil)

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"jdoe@acme.com", "jdoe@acme.com", true},
		{"JDoe@ACME.com", "jdoe@acme.com", true},
		{"mailto:jane.doe@law.co.uk", "jane.doe@law.co.uk", true},
		{"MAILTO:jane@acme.com?subject=Hi", "jane@acme.com", true},
		{" <jane@acme.com> ", "jane@acme.com", true},
		{"jdoe@acme", "", false},
		{"jdoe@acme.c", "", false},
		{"jdoe@acme.123", "", false},
		{"@acme.com", "", false},
		{"not an email", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := v.Email(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPhone(t *testing.T) {
	t.Parallel()
	v := New(nil)

	got, err := v.Phone("(212) 558-3960")
	require.NoError(t, err)
	assert.Equal(t, "2125583960", got)

	got, err = v.Phone("tel:+1-212-558-3960")
	require.NoError(t, err)
	assert.Equal(t, "2125583960", got)

	_, err = v.Phone("558-3960")
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Contains(t, rej.Reason, "7 digits")

	_, err = v.Phone("+44 20 7946 0958")
	assert.Error(t, err)
}

func TestTitle(t *testing.T) {
	t.Parallel()
	v := New(nil)

	got, err := v.Title("  Senior   Partner ")
	require.NoError(t, err)
	assert.Equal(t, "Senior Partner", got)

	_, err = v.Title("Partner 212-558-3960")
	assert.Error(t, err)
	_, err = v.Title("Read More")
	assert.Error(t, err)
	_, err = v.Title("")
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	t.Parallel()
	v := New(nil)

	got, err := v.Location("  Frankfurt \n\n New York,  NY ")
	require.NoError(t, err)
	assert.Equal(t, "Frankfurt\nNew York, NY", got)

	got, err = v.Location("New York\n+1-212-558-3960")
	require.NoError(t, err)
	assert.Equal(t, "New York\n+1-212-558-3960", got)

	_, err = v.Location("212-558-3960")
	assert.Error(t, err)
	_, err = v.Location("Location")
	assert.Error(t, err)
}

func TestProfileURL(t *testing.T) {
	t.Parallel()
	v := New(nil)

	got, err := v.ProfileURL("https://www.acme.com/people/jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "https://www.acme.com/people/jane-doe", got)

	_, err = v.ProfileURL("/people/jane-doe")
	assert.Error(t, err)
	_, err = v.ProfileURL("javascript:void(0)")
	assert.Error(t, err)
}

func TestValidate_Dispatch(t *testing.T) {
	t.Parallel()
	v := New(nil)

	got, err := v.Validate(model.FieldEmail, "JDoe@ACME.com")
	require.NoError(t, err)
	assert.Equal(t, "jdoe@acme.com", got)

	_, err = v.Validate(model.Field("fax"), "x")
	assert.Error(t, err)
}

func TestNameFromEmail(t *testing.T) {
	t.Parallel()
	v := New(nil)

	tests := []struct {
		name  string
		email string
		want  string
		ok    bool
	}{
		{"dotted", "brandon.abelard@compass.com", "Brandon Abelard", true},
		{"underscore", "mary_jones@acme.com", "Mary Jones", true},
		{"initial", "j.doe@acme.com", "J. Doe", true},
		{"numeric dropped", "john.smith.2019@acme.com", "John Smith", true},
		{"trailing digits", "jsmith22@acme.com", "Jsmith", true},
		{"plus tag", "jane.doe+news@acme.com", "Jane Doe", true},
		{"known first name prefix", "christopherwellington@acme.com", "Christopher Wellington", true},
		{"midpoint fallback", "zzyzxquintonabcd@acme.com", "Zzyzxqui Ntonabcd", true},
		{"role mailbox", "info@acme.com", "", false},
		{"role token", "sales.team@acme.com", "", false},
		{"noreply", "no-reply@acme.com", "", false},
		{"digits only", "12345@acme.com", "", false},
		{"no at", "brandon", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := v.NameFromEmail(tt.email)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadLexicon_OverridesLists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	doc := `
lexicon:
  ui_blacklist_exact: [directory]
  name:
    max_tokens: 3
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	lex, err := LoadLexicon(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"directory"}, lex.UIBlacklistExact)
	assert.Equal(t, 3, lex.Name.MaxTokens)
	assert.Equal(t, 100, lex.Name.MaxChars)
	assert.True(t, lex.IsParticle("VON"))

	v := New(lex)
	_, err = v.Name("Directory")
	assert.Error(t, err)
	got, err := v.Name("Contact")
	require.NoError(t, err)
	assert.Equal(t, "Contact", got)
	_, err = v.Name("Anna Maria Lopez Garcia")
	assert.Error(t, err)
}

func TestLoadLexicon_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadLexicon(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaultLexicon(t *testing.T) {
	t.Parallel()

	lex := DefaultLexicon()
	assert.Equal(t, 1, lex.Name.MinTokens)
	assert.Equal(t, 6, lex.Name.MaxTokens)
	assert.True(t, lex.IsNonPersonal("Info"))
	assert.Contains(t, lex.PersonalDomains, "gmail.com")
	assert.Contains(t, lex.TitleSuffixes, "Of Counsel")
	assert.Equal(t, "view profile", lex.BlacklistMatch("  View   PROFILE "))
	assert.Equal(t, "", lex.BlacklistMatch("Jane Doe"))
}
