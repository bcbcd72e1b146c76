// Package location splits multi-office location strings into a primary
// location and additional ones, pairing each office with its phone.
package location

import (
	"sort"
	"strings"

	"github.com/sells-group/roster-cli/internal/clean"
	"github.com/sells-group/roster-cli/internal/geo"
	"github.com/sells-group/roster-cli/internal/phone"
)

// excise only cuts phones out of lines; it needs no title suffixes.
var excise = clean.NewContamination(nil)

// SegmentKind classifies one line of a raw location.
type SegmentKind int

const (
	// SegmentLocation is a line naming a place.
	SegmentLocation SegmentKind = iota
	// SegmentPhone is a line that is only a phone number.
	SegmentPhone
	// SegmentPhoneInText is a place line with a phone embedded in it.
	SegmentPhoneInText
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentPhone:
		return "phone"
	case SegmentPhoneInText:
		return "phone-in-text"
	default:
		return "location"
	}
}

// Segment is one classified line. For SegmentPhoneInText, Text holds the
// place with the phone cut out and Phone holds the phone.
type Segment struct {
	Kind  SegmentKind
	Text  string
	Phone string
}

// Pair is an office location with its associated phone.
type Pair struct {
	Location string `json:"location"`
	Phone    string `json:"phone,omitempty"`
	// Borrowed is set when the phone is the record's primary phone rather
	// than one found next to this location.
	Borrowed bool `json:"borrowed,omitempty"`
	US       bool `json:"us"`
}

// Resolution is the outcome of resolving a raw location.
type Resolution struct {
	Pairs               []Pair   `json:"pairs"`
	PrimaryLocation     string   `json:"primaryLocation,omitempty"`
	PrimaryPhone        string   `json:"primaryPhone,omitempty"`
	AdditionalLocations []string `json:"additionalLocations,omitempty"`
}

// IsMultiLocation reports whether more than one office was found.
func (r Resolution) IsMultiLocation() bool {
	return len(r.Pairs) > 1
}

// Resolver resolves multi-office locations.
type Resolver struct {
	prioritizeUS bool
}

// New creates a Resolver. With prioritizeUS, US offices move ahead of
// international ones while each group keeps its order.
func New(prioritizeUS bool) *Resolver {
	return &Resolver{prioritizeUS: prioritizeUS}
}

// Resolve splits raw into offices. primaryPhone is the record's phone, used
// for offices that have no phone of their own nearby.
func (r *Resolver) Resolve(raw, primaryPhone string) Resolution {
	segs := Segments(raw)

	var pairs []Pair
	for i, s := range segs {
		if s.Kind == SegmentPhone {
			continue
		}
		p := Pair{Location: s.Text, Phone: s.Phone}
		if p.Phone == "" {
			p.Phone = nearestPhone(segs, i)
		}
		if p.Phone == "" && primaryPhone != "" {
			p.Phone = primaryPhone
			p.Borrowed = true
		}
		p.US = IsUS(p)
		pairs = append(pairs, p)
	}

	if r.prioritizeUS {
		sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].US && !pairs[j].US })
	}

	res := Resolution{Pairs: pairs}
	if len(pairs) == 0 {
		return res
	}
	res.PrimaryLocation = pairs[0].Location
	res.PrimaryPhone = pairs[0].Phone
	for _, p := range pairs[1:] {
		res.AdditionalLocations = append(res.AdditionalLocations, p.Location)
	}
	return res
}

// nearestPhone returns the phone of the closest phone-only segment after i,
// or failing that the closest one before i.
func nearestPhone(segs []Segment, i int) string {
	for j := i + 1; j < len(segs); j++ {
		if segs[j].Kind == SegmentPhone {
			return segs[j].Phone
		}
	}
	for j := i - 1; j >= 0; j-- {
		if segs[j].Kind == SegmentPhone {
			return segs[j].Phone
		}
	}
	return ""
}

// Segments splits raw on newlines, trims, drops empty lines and classifies
// each line.
func Segments(raw string) []Segment {
	var out []Segment
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, Classify(line))
	}
	return out
}

// Classify decides whether a line is a phone, a place with an embedded
// phone, or a place.
func Classify(line string) Segment {
	if phone.IsPhoneShaped(line) {
		return Segment{Kind: SegmentPhone, Text: line, Phone: strings.TrimSpace(line)}
	}
	matches := phone.Find(line)
	if len(matches) == 0 {
		return Segment{Kind: SegmentLocation, Text: line}
	}
	place := excise.CleanLocation(line).Normalized
	if place == "" {
		return Segment{Kind: SegmentPhone, Text: line, Phone: matches[0].Value}
	}
	return Segment{Kind: SegmentPhoneInText, Text: place, Phone: matches[0].Value}
}

// IsUS decides whether an office is in the United States. Checks run in
// order: the office's own phone has calling code 1, a trailing ", XX" state
// code, Washington D.C., a major US city. A borrowed phone says nothing
// about the office and is ignored.
func IsUS(p Pair) bool {
	if p.Phone != "" && !p.Borrowed && phone.CountryCode(p.Phone) == "1" {
		return true
	}
	if _, ok := geo.StateSuffix(p.Location); ok {
		return true
	}
	if geo.IsWashingtonDC(p.Location) {
		return true
	}
	return geo.IsMajorUSCity(p.Location)
}
