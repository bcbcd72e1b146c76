package model

import "time"

// Channel identifies the extraction channel a record came from.
type Channel string

const (
	ChannelHTML        Channel = "html"
	ChannelPDF         Channel = "pdf"
	ChannelOCR         Channel = "ocr"
	ChannelSpreadsheet Channel = "spreadsheet"
)

// ParseChannel returns the channel with the given name.
func ParseChannel(s string) (Channel, bool) {
	switch c := Channel(s); c {
	case ChannelHTML, ChannelPDF, ChannelOCR, ChannelSpreadsheet:
		return c, true
	}
	return "", false
}

// ConfidenceTier is the coarse quality label of a record.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// DomainType classifies an email domain.
type DomainType string

const (
	DomainBusiness DomainType = "business"
	DomainPersonal DomainType = "personal"
	DomainUnknown  DomainType = "unknown"
)

// ContactRecord is the reconciled output record for one person.
// Empty strings mean the field is absent.
type ContactRecord struct {
	Name                string              `json:"name,omitempty"`
	Email               string              `json:"email,omitempty"`
	Phone               string              `json:"phone,omitempty"`
	Title               string              `json:"title,omitempty"`
	Location            string              `json:"location,omitempty"`
	ProfileURL          string              `json:"profileUrl,omitempty"`
	Domain              string              `json:"domain,omitempty"`
	DomainType          DomainType          `json:"domainType,omitempty"`
	Source              Channel             `json:"source"`
	Sources             []Channel           `json:"sources,omitempty"`
	Confidence          ConfidenceTier      `json:"confidence"`
	ConfidenceBreakdown ConfidenceBreakdown `json:"confidenceBreakdown"`
	RawText             string              `json:"rawText,omitempty"`
	AdditionalLocations []string            `json:"additionalLocations,omitempty"`
	Original            *OriginalValues     `json:"_original,omitempty"`
	Enrichment          *Enrichment         `json:"_enrichment,omitempty"`
}

// HasIdentity reports whether at least one of name, email or phone is set.
// Records without identity are never emitted.
func (r *ContactRecord) HasIdentity() bool {
	return r.Name != "" || r.Email != "" || r.Phone != ""
}

// Get returns the value of a record field.
func (r *ContactRecord) Get(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldEmail:
		return r.Email
	case FieldPhone:
		return r.Phone
	case FieldTitle:
		return r.Title
	case FieldLocation:
		return r.Location
	case FieldProfileURL:
		return r.ProfileURL
	default:
		return ""
	}
}

// Set assigns a record field. Unknown fields are ignored.
func (r *ContactRecord) Set(f Field, v string) {
	switch f {
	case FieldName:
		r.Name = v
	case FieldEmail:
		r.Email = v
	case FieldPhone:
		r.Phone = v
	case FieldTitle:
		r.Title = v
	case FieldLocation:
		r.Location = v
	case FieldProfileURL:
		r.ProfileURL = v
	}
}

// Clone returns a deep copy of the record.
func (r ContactRecord) Clone() ContactRecord {
	c := r
	if r.Sources != nil {
		c.Sources = append([]Channel(nil), r.Sources...)
	}
	if r.AdditionalLocations != nil {
		c.AdditionalLocations = append([]string(nil), r.AdditionalLocations...)
	}
	if r.Original != nil {
		o := *r.Original
		c.Original = &o
	}
	if r.Enrichment != nil {
		e := *r.Enrichment
		e.Deltas = append([]EnrichmentDelta(nil), r.Enrichment.Deltas...)
		if r.Enrichment.PhoneCheck != nil {
			pc := *r.Enrichment.PhoneCheck
			e.PhoneCheck = &pc
		}
		c.Enrichment = &e
	}
	return c
}

// AddSource records a contributing channel once.
func (r *ContactRecord) AddSource(ch Channel) {
	if ch == "" {
		return
	}
	for _, s := range r.Sources {
		if s == ch {
			return
		}
	}
	r.Sources = append(r.Sources, ch)
}

// OriginalValues holds the values as first scraped, before any cleaning.
type OriginalValues struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Title    string `json:"title,omitempty"`
	Location string `json:"location,omitempty"`
}

// SnapshotOriginal captures the scraped values once. Later calls are no-ops.
func (r *ContactRecord) SnapshotOriginal() {
	if r.Original != nil {
		return
	}
	r.Original = &OriginalValues{
		Name:     r.Name,
		Phone:    r.Phone,
		Title:    r.Title,
		Location: r.Location,
	}
}

// ConfidenceBreakdown holds per-dimension points awarded by the scorer.
type ConfidenceBreakdown struct {
	NameClean     int `json:"nameClean"`
	LocationClean int `json:"locationClean"`
	EmailValid    int `json:"emailValid"`
	PhoneValid    int `json:"phoneValid"`
	Correlation   int `json:"correlation"`
	Score         int `json:"score"`
}

// Enrichment is the audit trail of post-extraction cleaning.
type Enrichment struct {
	Mode       string              `json:"mode"`
	Deltas     []EnrichmentDelta   `json:"deltas,omitempty"`
	PhoneCheck *PhoneLocationCheck `json:"phoneCheck,omitempty"`
	EnrichedAt time.Time           `json:"enrichedAt"`
}

// ProfileData is profile-page data supplied by an upstream enrichment
// collaborator. Nil means enrichment was unavailable.
type ProfileData struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Title    string `json:"title,omitempty"`
	Location string `json:"location,omitempty"`
}

// PhoneLocationCheck is the advisory result of correlating a phone number
// with a location.
type PhoneLocationCheck struct {
	Valid           bool   `json:"valid"`
	HasMismatch     bool   `json:"hasMismatch"`
	Reason          string `json:"reason,omitempty"`
	Severity        string `json:"severity,omitempty"`
	PhoneCountry    string `json:"phoneCountry,omitempty"`
	LocationCountry string `json:"locationCountry,omitempty"`
	ExpectedCity    string `json:"expectedCity,omitempty"`
}
