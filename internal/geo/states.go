// Package geo provides the static place tables used to resolve and
// cross-check contact locations.
package geo

import (
	"regexp"
	"strings"
)

// abbrToState maps lowercase state abbreviations to lowercase full names.
var abbrToState = map[string]string{
	"al": "alabama", "ak": "alaska", "az": "arizona", "ar": "arkansas",
	"ca": "california", "co": "colorado", "ct": "connecticut", "de": "delaware",
	"fl": "florida", "ga": "georgia", "hi": "hawaii", "id": "idaho",
	"il": "illinois", "in": "indiana", "ia": "iowa", "ks": "kansas",
	"ky": "kentucky", "la": "louisiana", "me": "maine", "md": "maryland",
	"ma": "massachusetts", "mi": "michigan", "mn": "minnesota", "ms": "mississippi",
	"mo": "missouri", "mt": "montana", "ne": "nebraska", "nv": "nevada",
	"nh": "new hampshire", "nj": "new jersey", "nm": "new mexico", "ny": "new york",
	"nc": "north carolina", "nd": "north dakota", "oh": "ohio", "ok": "oklahoma",
	"or": "oregon", "pa": "pennsylvania", "ri": "rhode island", "sc": "south carolina",
	"sd": "south dakota", "tn": "tennessee", "tx": "texas", "ut": "utah",
	"vt": "vermont", "va": "virginia", "wa": "washington", "wv": "west virginia",
	"wi": "wisconsin", "wy": "wyoming", "dc": "district of columbia",
}

// abbrToProvince maps lowercase Canadian province abbreviations to names.
var abbrToProvince = map[string]string{
	"ab": "alberta", "bc": "british columbia", "mb": "manitoba",
	"nb": "new brunswick", "nl": "newfoundland and labrador", "ns": "nova scotia",
	"on": "ontario", "pe": "prince edward island", "qc": "quebec", "sk": "saskatchewan",
}

// trailingRegion matches a trailing ", XX" region code, optionally followed
// by a ZIP code.
var trailingRegion = regexp.MustCompile(`,\s*([A-Za-z]{2})\.?(?:\s+\d{5}(?:-\d{4})?)?\s*$`)

var washingtonDC = regexp.MustCompile(`(?i)\bwashington,?\s*d\.?\s?c\.?`)

// StateSuffix returns the lowercase state abbreviation when the location
// ends with a ", XX" US state code.
func StateSuffix(location string) (string, bool) {
	m := trailingRegion.FindStringSubmatch(strings.TrimSpace(location))
	if m == nil {
		return "", false
	}
	abbr := strings.ToLower(m[1])
	if _, ok := abbrToState[abbr]; ok {
		return abbr, true
	}
	return "", false
}

// ProvinceSuffix returns the lowercase province abbreviation when the
// location ends with a ", XX" Canadian province code.
func ProvinceSuffix(location string) (string, bool) {
	m := trailingRegion.FindStringSubmatch(strings.TrimSpace(location))
	if m == nil {
		return "", false
	}
	abbr := strings.ToLower(m[1])
	if _, ok := abbrToProvince[abbr]; ok {
		return abbr, true
	}
	return "", false
}

// StateName returns the full lowercase name for a state abbreviation.
func StateName(abbr string) (string, bool) {
	full, ok := abbrToState[strings.ToLower(strings.TrimSpace(abbr))]
	return full, ok
}

// IsWashingtonDC reports whether the location names Washington, D.C.
func IsWashingtonDC(location string) bool {
	return washingtonDC.MatchString(location)
}

// ContainsWord checks if text contains needle as a whole word (bounded by
// non-alphanumeric characters or string boundaries). Both text and needle
// should already be lowercased.
func ContainsWord(text, needle string) bool {
	if needle == "" || text == "" {
		return false
	}
	start := 0
	for {
		idx := strings.Index(text[start:], needle)
		if idx < 0 {
			return false
		}
		absIdx := start + idx
		endIdx := absIdx + len(needle)

		leftOK := absIdx == 0 || !isAlphaNum(text[absIdx-1])
		rightOK := endIdx == len(text) || !isAlphaNum(text[endIdx])

		if leftOK && rightOK {
			return true
		}
		start = absIdx + 1
	}
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
