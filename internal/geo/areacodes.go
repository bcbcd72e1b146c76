package geo

import "strings"

// City is an expected city for a NANP area code, with the names under which
// it commonly appears in a location string.
type City struct {
	Name    string
	Aliases []string
}

// MentionedIn reports whether the city or one of its aliases appears in the
// location as a whole word.
func (c City) MentionedIn(location string) bool {
	lower := strings.ToLower(location)
	if ContainsWord(lower, strings.ToLower(c.Name)) {
		return true
	}
	for _, a := range c.Aliases {
		if ContainsWord(lower, a) {
			return true
		}
	}
	return false
}

var (
	cityNewYork      = City{"New York", []string{"nyc", "manhattan", "brooklyn", "queens", "bronx", "staten island"}}
	cityLosAngeles   = City{"Los Angeles", []string{"santa monica", "century city", "beverly hills", "burbank", "pasadena", "west hollywood"}}
	cityChicago      = City{"Chicago", nil}
	citySanFrancisco = City{"San Francisco", []string{"sf"}}
	cityWashington   = City{"Washington", []string{"d.c.", "dc"}}
	cityBoston       = City{"Boston", []string{"cambridge"}}
	cityMiami        = City{"Miami", []string{"miami beach", "coral gables"}}
	cityHouston      = City{"Houston", nil}
	cityDallas       = City{"Dallas", []string{"fort worth", "plano", "irving"}}
	cityAtlanta      = City{"Atlanta", nil}
	cityPhiladelphia = City{"Philadelphia", nil}
	citySeattle      = City{"Seattle", []string{"bellevue"}}
	cityDenver       = City{"Denver", nil}
	cityPhoenix      = City{"Phoenix", []string{"scottsdale", "tempe"}}
)

// areaCodes maps US area codes to the major city they serve.
var areaCodes = map[string]City{
	"212": cityNewYork, "646": cityNewYork, "917": cityNewYork, "332": cityNewYork,
	"718": cityNewYork, "347": cityNewYork, "929": cityNewYork,
	"213": cityLosAngeles, "310": cityLosAngeles, "323": cityLosAngeles,
	"424": cityLosAngeles, "818": cityLosAngeles,
	"312": cityChicago, "773": cityChicago, "872": cityChicago,
	"415": citySanFrancisco, "628": citySanFrancisco,
	"202": cityWashington,
	"617": cityBoston, "857": cityBoston,
	"305": cityMiami, "786": cityMiami,
	"713": cityHouston, "281": cityHouston, "832": cityHouston,
	"214": cityDallas, "469": cityDallas, "972": cityDallas,
	"404": cityAtlanta, "470": cityAtlanta, "678": cityAtlanta,
	"215": cityPhiladelphia, "267": cityPhiladelphia,
	"206": citySeattle,
	"303": cityDenver, "720": cityDenver,
	"602": cityPhoenix, "480": cityPhoenix,
	"702": {"Las Vegas", nil},
	"612": {"Minneapolis", nil},
	"313": {"Detroit", nil},
	"412": {"Pittsburgh", nil},
	"314": {"St. Louis", []string{"saint louis", "st louis"}},
	"216": {"Cleveland", nil},
	"513": {"Cincinnati", nil},
	"615": {"Nashville", nil},
	"504": {"New Orleans", nil},
	"512": {"Austin", nil},
	"210": {"San Antonio", nil},
	"619": {"San Diego", nil},
	"858": {"San Diego", []string{"la jolla"}},
	"408": {"San Jose", nil},
	"650": {"Palo Alto", []string{"menlo park", "redwood city", "san mateo", "mountain view"}},
	"503": {"Portland", nil},
	"801": {"Salt Lake City", nil},
	"704": {"Charlotte", nil},
	"980": {"Charlotte", nil},
	"919": {"Raleigh", []string{"durham", "chapel hill"}},
	"614": {"Columbus", nil},
	"317": {"Indianapolis", nil},
	"414": {"Milwaukee", nil},
	"816": {"Kansas City", nil},
	"410": {"Baltimore", nil},
	"443": {"Baltimore", nil},
	"407": {"Orlando", nil},
	"813": {"Tampa", nil},
}

// AreaCodeCity returns the major city expected for a 3-digit US area code.
func AreaCodeCity(code string) (City, bool) {
	c, ok := areaCodes[code]
	return c, ok
}
