package extract

import (
	"regexp"

	"github.com/sells-group/roster-cli/internal/model"
)

var (
	profilePath = regexp.MustCompile(`(?i)/(?:people|person|professionals?|lawyers?|attorneys?|team|our-team|bios?|agents?|profiles?|staff|directory)/[^/?#]+`)

	emailLabel    = regexp.MustCompile(`(?i)^e-?mail\b`)
	phoneLabel    = regexp.MustCompile(`(?i)^(?:phone|tel|telephone|direct|office phone|mobile|cell|t|p)\b\.?`)
	nameLabel     = regexp.MustCompile(`(?i)^(?:full name|name)\b`)
	titleLabel    = regexp.MustCompile(`(?i)^(?:title|job title|position|role)\b`)
	locationLabel = regexp.MustCompile(`(?i)^(?:location|office|offices|city|based in)\b`)
	profileLabel  = regexp.MustCompile(`(?i)^(?:profile(?: url)?|bio url|url)\b`)

	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-']+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
	// A line made of capitalized words, as directory cards usually lead with.
	nameLine  = regexp.MustCompile(`(?m)^([\p{Lu}][\p{L}\p{M}'’.\-]*(?:,? [\p{L}\p{M}'’.\-]+){1,5})$`)
	titleLine = regexp.MustCompile(`(?im)^(.*\b(?:partner|associate|counsel|director|manager|president|principal|officer|analyst|attorney|founder|chair(?:man|woman)?|paralegal|consultant|advisor|broker|agent|realtor|head of)\b.*)$`)
	// Lines that end in a US state code or name a known office city.
	locationLine   = regexp.MustCompile(`(?m)^([\p{L} .'\-]+, ?[A-Z]{2}(?: \d{5})?)$`)
	locationAnchor = regexp.MustCompile(`(?i)\b(?:office|located|based)\b`)
	locationWindow = regexp.MustCompile(`(?m)^([\p{Lu}][\p{L} .'\-]+(?:, ?[\p{L} .'\-]+)?)$`)
)

// DefaultDescriptors returns the built-in methods for every field, in
// assembly order. window bounds anchored pattern searches.
func DefaultDescriptors(window int, coord Coordinate) []FieldDescriptor {
	return []FieldDescriptor{
		{Field: model.FieldEmail, Methods: []Method{
			StructuredAnchor{Scheme: "mailto"},
			LabelAdjacency{Label: emailLabel},
			PatternWindow{Pattern: emailPattern},
			coord,
		}},
		{Field: model.FieldPhone, Methods: []Method{
			StructuredAnchor{Scheme: "tel"},
			LabelAdjacency{Label: phoneLabel},
			PatternWindow{Pattern: phonePattern},
			coord,
		}},
		{Field: model.FieldName, Methods: []Method{
			StructuredAnchor{HrefPattern: profilePath, UseText: true},
			LabelAdjacency{Label: nameLabel},
			PatternWindow{Pattern: nameLine},
			FallbackDerived{From: model.FieldEmail},
			coord,
		}},
		{Field: model.FieldTitle, Methods: []Method{
			LabelAdjacency{Label: titleLabel},
			PatternWindow{Pattern: titleLine},
		}},
		{Field: model.FieldLocation, Methods: []Method{
			LabelAdjacency{Label: locationLabel},
			PatternWindow{Pattern: locationLine},
			PatternWindow{Anchor: locationAnchor, Pattern: locationWindow, Window: window},
		}},
		{Field: model.FieldProfileURL, Methods: []Method{
			StructuredAnchor{HrefPattern: profilePath},
			LabelAdjacency{Label: profileLabel},
		}},
	}
}
