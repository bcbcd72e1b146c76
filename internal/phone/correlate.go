package phone

import (
	"strings"

	"github.com/sells-group/roster-cli/internal/geo"
	"github.com/sells-group/roster-cli/internal/model"
)

// callingCodes maps international calling codes to the countries that use
// them. Code "1" is shared by the US and Canada.
var callingCodes = map[string][]string{
	"1":  {geo.CountryUS, geo.CountryCA},
	"7":  {"RU"},
	"20": {"EG"}, "27": {"ZA"}, "30": {"GR"}, "31": {"NL"}, "32": {"BE"},
	"33": {"FR"}, "34": {"ES"}, "36": {"HU"}, "39": {"IT"}, "40": {"RO"},
	"41": {"CH"}, "43": {"AT"}, "44": {"GB"}, "45": {"DK"}, "46": {"SE"},
	"47": {"NO"}, "48": {"PL"}, "49": {"DE"}, "51": {"PE"}, "52": {"MX"},
	"54": {"AR"}, "55": {"BR"}, "56": {"CL"}, "57": {"CO"}, "60": {"MY"},
	"61": {"AU"}, "62": {"ID"}, "63": {"PH"}, "64": {"NZ"}, "65": {"SG"},
	"66": {"TH"}, "81": {"JP"}, "82": {"KR"}, "84": {"VN"}, "86": {"CN"},
	"90": {"TR"}, "91": {"IN"}, "92": {"PK"},
	"234": {"NG"}, "254": {"KE"}, "351": {"PT"}, "352": {"LU"}, "353": {"IE"},
	"354": {"IS"}, "358": {"FI"}, "420": {"CZ"}, "852": {"HK"}, "886": {"TW"},
	"965": {"KW"}, "966": {"SA"}, "971": {"AE"}, "972": {"IL"}, "973": {"BH"},
	"974": {"QA"},
}

// CountryCode extracts the calling code of a phone. Explicitly international
// numbers ("+" or "00" prefix) are matched longest-prefix first over the
// code table; bare 10-digit or 1-prefixed 11-digit numbers are NANP.
// It returns "" when the code cannot be determined.
func CountryCode(raw string) string {
	s := strings.TrimSpace(raw)
	d := Digits(s)
	if d == "" {
		return ""
	}

	international := strings.HasPrefix(s, "+")
	if !international && strings.HasPrefix(d, "00") {
		international = true
		d = d[2:]
	}
	if international {
		for n := 3; n >= 1; n-- {
			if len(d) <= n {
				continue
			}
			if _, ok := callingCodes[d[:n]]; ok {
				return d[:n]
			}
		}
		return ""
	}

	if _, ok := Normalize(d); ok {
		return "1"
	}
	return ""
}

// Countries returns the countries served by a calling code.
func Countries(code string) []string {
	return callingCodes[code]
}

// Mismatch reasons and severities reported by Correlate.
const (
	ReasonCountryMismatch = "country-mismatch"
	ReasonCityMismatch    = "city-mismatch"

	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// Correlate cross-checks a phone's calling code and area code against a
// location. The result is advisory and never blocks downstream use; an
// inconclusive check is valid with no mismatch.
func Correlate(phone, location string) model.PhoneLocationCheck {
	res := model.PhoneLocationCheck{Valid: true}
	if strings.TrimSpace(phone) == "" || strings.TrimSpace(location) == "" {
		return res
	}

	code := CountryCode(phone)
	if code == "" {
		return res
	}
	countries := Countries(code)
	res.PhoneCountry = strings.Join(countries, "/")

	locCountry := geo.CountryOf(location)
	if locCountry == "" {
		return res
	}
	res.LocationCountry = locCountry

	if !contains(countries, locCountry) {
		res.Valid = false
		res.HasMismatch = true
		res.Reason = ReasonCountryMismatch
		res.Severity = SeverityHigh
		return res
	}

	if code != "1" || locCountry != geo.CountryUS {
		return res
	}
	national := Key(phone)
	if national == "" {
		return res
	}
	city, ok := geo.AreaCodeCity(national[:3])
	if !ok {
		return res
	}
	res.ExpectedCity = city.Name
	if !city.MentionedIn(location) {
		res.HasMismatch = true
		res.Reason = ReasonCityMismatch
		res.Severity = SeverityMedium
	}
	return res
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
