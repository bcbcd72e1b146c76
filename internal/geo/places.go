package geo

import (
	"strings"
)

// Country codes are ISO 3166-1 alpha-2.
const (
	CountryUS = "US"
	CountryCA = "CA"
)

type place struct {
	name    string
	country string
}

// countryNames is checked in order; longer names precede the shorter names
// they contain.
var countryNames = []place{
	{"united states of america", CountryUS}, {"united states", CountryUS},
	{"u.s.a.", CountryUS}, {"usa", CountryUS}, {"u.s.", CountryUS},
	{"united kingdom", "GB"}, {"great britain", "GB"}, {"u.k.", "GB"}, {"uk", "GB"},
	{"england", "GB"}, {"scotland", "GB"}, {"wales", "GB"}, {"northern ireland", "GB"},
	{"ireland", "IE"}, {"canada", CountryCA}, {"mexico", "MX"},
	{"france", "FR"}, {"germany", "DE"}, {"deutschland", "DE"}, {"belgium", "BE"},
	{"netherlands", "NL"}, {"the netherlands", "NL"}, {"luxembourg", "LU"},
	{"spain", "ES"}, {"portugal", "PT"}, {"italy", "IT"}, {"switzerland", "CH"},
	{"austria", "AT"}, {"sweden", "SE"}, {"denmark", "DK"}, {"norway", "NO"},
	{"finland", "FI"}, {"iceland", "IS"}, {"poland", "PL"}, {"czech republic", "CZ"},
	{"hungary", "HU"}, {"romania", "RO"}, {"greece", "GR"}, {"turkey", "TR"},
	{"russia", "RU"}, {"israel", "IL"}, {"united arab emirates", "AE"}, {"uae", "AE"},
	{"saudi arabia", "SA"}, {"qatar", "QA"}, {"bahrain", "BH"}, {"kuwait", "KW"},
	{"egypt", "EG"}, {"south africa", "ZA"}, {"nigeria", "NG"}, {"kenya", "KE"},
	{"india", "IN"}, {"pakistan", "PK"}, {"china", "CN"}, {"prc", "CN"},
	{"hong kong", "HK"}, {"taiwan", "TW"}, {"japan", "JP"}, {"south korea", "KR"},
	{"korea", "KR"}, {"singapore", "SG"}, {"malaysia", "MY"}, {"indonesia", "ID"},
	{"philippines", "PH"}, {"thailand", "TH"}, {"vietnam", "VN"},
	{"australia", "AU"}, {"new zealand", "NZ"}, {"brazil", "BR"}, {"argentina", "AR"},
	{"chile", "CL"}, {"colombia", "CO"}, {"peru", "PE"},
}

// majorCities maps major city names to their country.
var majorCities = []place{
	{"new york", CountryUS}, {"nyc", CountryUS}, {"manhattan", CountryUS}, {"brooklyn", CountryUS},
	{"los angeles", CountryUS}, {"chicago", CountryUS}, {"houston", CountryUS},
	{"phoenix", CountryUS}, {"philadelphia", CountryUS}, {"san antonio", CountryUS},
	{"san diego", CountryUS}, {"dallas", CountryUS}, {"san jose", CountryUS},
	{"austin", CountryUS}, {"san francisco", CountryUS}, {"seattle", CountryUS},
	{"denver", CountryUS}, {"boston", CountryUS}, {"atlanta", CountryUS},
	{"miami", CountryUS}, {"detroit", CountryUS}, {"minneapolis", CountryUS},
	{"nashville", CountryUS}, {"charlotte", CountryUS}, {"pittsburgh", CountryUS},
	{"cleveland", CountryUS}, {"st. louis", CountryUS}, {"baltimore", CountryUS},
	{"las vegas", CountryUS}, {"portland", CountryUS}, {"salt lake city", CountryUS},
	{"kansas city", CountryUS}, {"orlando", CountryUS}, {"tampa", CountryUS},
	{"new orleans", CountryUS}, {"indianapolis", CountryUS}, {"columbus", CountryUS},
	{"cincinnati", CountryUS}, {"milwaukee", CountryUS}, {"raleigh", CountryUS},
	{"palo alto", CountryUS}, {"menlo park", CountryUS}, {"silicon valley", CountryUS},
	{"stamford", CountryUS}, {"princeton", CountryUS}, {"wilmington", CountryUS},
	{"century city", CountryUS}, {"santa monica", CountryUS},

	{"toronto", CountryCA}, {"montreal", CountryCA}, {"vancouver", CountryCA}, {"calgary", CountryCA},
	{"ottawa", CountryCA}, {"mexico city", "MX"},

	{"london", "GB"}, {"manchester", "GB"}, {"edinburgh", "GB"}, {"birmingham", "GB"},
	{"dublin", "IE"}, {"paris", "FR"}, {"frankfurt", "DE"}, {"munich", "DE"},
	{"berlin", "DE"}, {"hamburg", "DE"}, {"düsseldorf", "DE"}, {"dusseldorf", "DE"},
	{"cologne", "DE"}, {"brussels", "BE"}, {"amsterdam", "NL"}, {"rotterdam", "NL"},
	{"madrid", "ES"}, {"barcelona", "ES"}, {"lisbon", "PT"}, {"milan", "IT"},
	{"rome", "IT"}, {"zurich", "CH"}, {"zürich", "CH"}, {"geneva", "CH"},
	{"vienna", "AT"}, {"stockholm", "SE"}, {"copenhagen", "DK"}, {"oslo", "NO"},
	{"helsinki", "FI"}, {"warsaw", "PL"}, {"prague", "CZ"}, {"budapest", "HU"},
	{"athens", "GR"}, {"istanbul", "TR"}, {"moscow", "RU"}, {"tel aviv", "IL"},
	{"dubai", "AE"}, {"abu dhabi", "AE"}, {"riyadh", "SA"}, {"doha", "QA"},
	{"johannesburg", "ZA"}, {"lagos", "NG"}, {"nairobi", "KE"},
	{"mumbai", "IN"}, {"new delhi", "IN"}, {"bangalore", "IN"}, {"beijing", "CN"},
	{"shanghai", "CN"}, {"shenzhen", "CN"}, {"taipei", "TW"}, {"tokyo", "JP"},
	{"seoul", "KR"}, {"kuala lumpur", "MY"}, {"jakarta", "ID"}, {"manila", "PH"},
	{"bangkok", "TH"}, {"sydney", "AU"}, {"melbourne", "AU"}, {"auckland", "NZ"},
	{"são paulo", "BR"}, {"sao paulo", "BR"}, {"rio de janeiro", "BR"},
	{"buenos aires", "AR"}, {"santiago", "CL"}, {"bogotá", "CO"}, {"bogota", "CO"},
	{"lima", "PE"},
}

// IsMajorUSCity reports whether the location mentions a city from the fixed
// set of major US cities.
func IsMajorUSCity(location string) bool {
	lower := strings.ToLower(location)
	for _, c := range majorCities {
		if c.country == CountryUS && ContainsWord(lower, c.name) {
			return true
		}
	}
	return false
}

// IsPlaceName reports whether s, taken whole, names a country, a US state
// or a major city. Names that merely contain a place ("Austin Lee") do not
// count.
func IsPlaceName(s string) bool {
	lower := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if lower == "" {
		return false
	}
	for _, full := range abbrToState {
		if lower == full {
			return true
		}
	}
	for _, p := range countryNames {
		if lower == p.name {
			return true
		}
	}
	for _, p := range majorCities {
		if lower == p.name {
			return true
		}
	}
	return false
}

// CountryOf infers the country implied by a free-text location. Rules run in
// order: region suffix, Washington D.C., US state names, country names,
// then major cities. It returns "" when nothing can be inferred.
func CountryOf(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	if _, ok := StateSuffix(location); ok {
		return CountryUS
	}
	if _, ok := ProvinceSuffix(location); ok {
		return CountryCA
	}
	if IsWashingtonDC(location) {
		return CountryUS
	}

	lower := strings.ToLower(location)
	for _, full := range abbrToState {
		if ContainsWord(lower, full) {
			return CountryUS
		}
	}
	for _, c := range countryNames {
		if ContainsWord(lower, c.name) {
			return c.country
		}
	}
	for _, c := range majorCities {
		if ContainsWord(lower, c.name) {
			return c.country
		}
	}
	return ""
}
