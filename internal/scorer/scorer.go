package scorer

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-cli/internal/clean"
	"github.com/sells-group/roster-cli/internal/config"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/phone"
	"github.com/sells-group/roster-cli/internal/validate"
)

// Context is the validation context supplied alongside a record. A nil
// PhoneCheck makes the scorer correlate the record's own phone and
// location.
type Context struct {
	PhoneCheck *model.PhoneLocationCheck
}

// Result is the outcome of scoring one record.
type Result struct {
	Overall   model.ConfidenceTier      `json:"overall"`
	Score     int                       `json:"score"`
	Breakdown model.ConfidenceBreakdown `json:"breakdown"`
}

// Scorer awards weighted points per clean dimension and maps the total to
// a tier. It holds no per-record state.
type Scorer struct {
	cfg           config.ScoringConfig
	validator     *validate.Validator
	contamination *clean.Contamination
}

// New creates a Scorer. The config is checked with ValidateConfig.
func New(cfg config.ScoringConfig, v *validate.Validator, c *clean.Contamination) (*Scorer, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if v == nil || c == nil {
		return nil, eris.New("scorer: validator and contamination cleaner are required")
	}
	return &Scorer{cfg: cfg, validator: v, contamination: c}, nil
}

// Calculate scores r from its current field values. Dimensions:
//   - name: present, valid and free of a glued title
//   - location: present, valid and free of embedded phones
//   - email: present and valid
//   - phone: present with a valid format
//   - correlation: phone valid and the phone-location check valid; an
//     unclean location leaves the check inconclusive
func (s *Scorer) Calculate(r *model.ContactRecord, ctx Context) Result {
	w := s.cfg.Weights
	var b model.ConfidenceBreakdown

	if s.nameClean(r.Name) {
		b.NameClean = w.Name
	}
	locClean := s.locationClean(r.Location)
	if locClean {
		b.LocationClean = w.Location
	}
	if r.Email != "" {
		if _, err := s.validator.Email(r.Email); err == nil {
			b.EmailValid = w.Email
		}
	}
	phoneOK := false
	if r.Phone != "" {
		if _, err := s.validator.Phone(r.Phone); err == nil {
			phoneOK = true
			b.PhoneValid = w.Phone
		}
	}
	if phoneOK {
		check := ctx.PhoneCheck
		if check == nil {
			// A location that fails its own check is not evidence against
			// the phone; correlation is then inconclusive.
			loc := r.Location
			if !locClean {
				loc = ""
			}
			c := phone.Correlate(r.Phone, loc)
			check = &c
		}
		if check.Valid {
			b.Correlation = w.Correlation
		}
	}

	b.Score = b.NameClean + b.LocationClean + b.EmailValid + b.PhoneValid + b.Correlation
	return Result{
		Overall:   s.Tier(b.Score),
		Score:     b.Score,
		Breakdown: b,
	}
}

// Apply recomputes r's confidence in place. Call it after every field
// mutation.
func (s *Scorer) Apply(r *model.ContactRecord) Result {
	res := s.Calculate(r, Context{})
	r.Confidence = res.Overall
	r.ConfidenceBreakdown = res.Breakdown
	return res
}

// Rescore adapts Apply to callers that only need the side effect.
func (s *Scorer) Rescore(r *model.ContactRecord) {
	s.Apply(r)
}

// Tier maps a score to a confidence tier.
func (s *Scorer) Tier(score int) model.ConfidenceTier {
	switch {
	case score >= s.cfg.HighThreshold:
		return model.ConfidenceHigh
	case score >= s.cfg.MediumThreshold:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func (s *Scorer) nameClean(name string) bool {
	if name == "" {
		return false
	}
	if _, err := s.validator.Name(name); err != nil {
		return false
	}
	return !s.contamination.CleanName(name).WasContaminated
}

func (s *Scorer) locationClean(loc string) bool {
	if loc == "" {
		return false
	}
	if _, err := s.validator.Location(loc); err != nil {
		return false
	}
	return !s.contamination.CleanLocation(loc).WasContaminated
}
