package clean

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/phone"
	"github.com/sells-group/roster-cli/internal/resilience"
)

// Enrichment modes recorded on cleaned records.
const (
	ModeProfile  = "profile"
	ModeFallback = "fallback"
)

// Step names used in CleaningErrors and logs.
const (
	StepName     = "name"
	StepTitle    = "title"
	StepLocation = "location"
	StepPhone    = "phone"
	StepEmail    = "email"
)

// Outcome is what cleaning did to one record.
type Outcome struct {
	Mode   string
	Deltas []model.EnrichmentDelta
	Errors []*resilience.CleaningError
}

// Cleaner runs the per-field cleaning steps over a record.
type Cleaner struct {
	contamination *Contamination
	now           func() time.Time
	// steps may be replaced in tests to inject failures.
	steps []step
}

type step struct {
	name  string
	field model.Field
	run   func(c *Cleaner, r *model.ContactRecord, p *model.ProfileData) ([]model.EnrichmentDelta, error)
}

// New creates a Cleaner. now may be nil.
func New(contamination *Contamination, now func() time.Time) *Cleaner {
	if now == nil {
		now = time.Now
	}
	return &Cleaner{
		contamination: contamination,
		now:           now,
		steps: []step{
			{StepName, model.FieldName, (*Cleaner).cleanNameStep},
			{StepTitle, model.FieldTitle, (*Cleaner).cleanTitleStep},
			{StepLocation, model.FieldLocation, (*Cleaner).cleanLocationStep},
			{StepPhone, model.FieldPhone, (*Cleaner).cleanPhoneStep},
			{StepEmail, model.FieldEmail, (*Cleaner).cleanEmailStep},
		},
	}
}

// Contamination returns the underlying field repairer.
func (c *Cleaner) Contamination() *Contamination { return c.contamination }

// Clean repairs r in place. With profile data each field is reconciled
// against the profile; without it (fallback mode) the same repairs run on
// the originally scraped values. A failing step leaves its field untouched
// and the remaining steps still run.
func (c *Cleaner) Clean(r *model.ContactRecord, profile *model.ProfileData) Outcome {
	r.SnapshotOriginal()
	out := Outcome{Mode: ModeFallback}
	if profile != nil {
		out.Mode = ModeProfile
	}

	for _, s := range c.steps {
		before := r.Clone()
		var deltas []model.EnrichmentDelta
		err := resilience.Guard(s.name, string(s.field), func() error {
			var err error
			deltas, err = s.run(c, r, profile)
			return err
		})
		if err != nil {
			restore(r, &before)
			var ce *resilience.CleaningError
			if errors.As(err, &ce) {
				out.Errors = append(out.Errors, ce)
			}
			zap.L().Warn("clean: step failed, keeping original value",
				zap.String("step", s.name),
				zap.String("field", string(s.field)),
				zap.Error(err),
			)
			continue
		}
		out.Deltas = append(out.Deltas, deltas...)
	}

	r.Enrichment = &model.Enrichment{
		Mode:       out.Mode,
		Deltas:     out.Deltas,
		EnrichedAt: c.now().UTC(),
	}
	return out
}

// restore puts back the fields a failed step may have half-written.
func restore(r, before *model.ContactRecord) {
	for _, f := range model.Fields {
		r.Set(f, before.Get(f))
	}
}

func (c *Cleaner) cleanNameStep(r *model.ContactRecord, p *model.ProfileData) ([]model.EnrichmentDelta, error) {
	if p != nil {
		res := c.contamination.CleanName(r.Name)
		d := reconcile(model.FieldName, r.Name, res.Cleaned, c.contamination.CleanName(p.Name).Cleaned, sameText)
		r.Name = d.NewValue
		deltas := []model.EnrichmentDelta{d}
		if res.ExtractedTitle != "" && r.Title == "" && p.Title == "" {
			r.Title = res.ExtractedTitle
			deltas = append(deltas, model.EnrichmentDelta{Field: model.FieldTitle, NewValue: r.Title, Action: model.ActionEnriched})
		}
		return deltas, nil
	}

	orig := r.Original.Name
	if orig == "" {
		return nil, nil
	}
	res := c.contamination.CleanName(orig)
	if !res.WasContaminated {
		return []model.EnrichmentDelta{{Field: model.FieldName, OldValue: r.Name, NewValue: r.Name, Action: model.ActionUnchanged}}, nil
	}
	deltas := []model.EnrichmentDelta{{
		Field:    model.FieldName,
		OldValue: orig,
		Removed:  []string{res.ExtractedTitle},
		NewValue: res.Cleaned,
		Action:   model.ActionCleaned,
	}}
	r.Name = res.Cleaned
	if r.Title == "" {
		r.Title = res.ExtractedTitle
		deltas = append(deltas, model.EnrichmentDelta{Field: model.FieldTitle, NewValue: r.Title, Action: model.ActionEnriched})
	}
	return deltas, nil
}

func (c *Cleaner) cleanTitleStep(r *model.ContactRecord, p *model.ProfileData) ([]model.EnrichmentDelta, error) {
	if p == nil {
		return nil, nil
	}
	d := reconcile(model.FieldTitle, r.Title, strings.TrimSpace(r.Title), strings.TrimSpace(p.Title), strings.EqualFold)
	r.Title = d.NewValue
	return []model.EnrichmentDelta{d}, nil
}

func (c *Cleaner) cleanLocationStep(r *model.ContactRecord, p *model.ProfileData) ([]model.EnrichmentDelta, error) {
	src := r.Location
	if p == nil {
		src = r.Original.Location
		if src == "" {
			return nil, nil
		}
	}
	res := c.contamination.CleanLocation(src)

	if p != nil {
		d := reconcile(model.FieldLocation, r.Location, res.Normalized, c.contamination.CleanLocation(p.Location).Normalized, sameText)
		d.Removed = res.PhonesRemoved
		r.Location = d.NewValue
		return []model.EnrichmentDelta{d}, nil
	}

	if !res.WasContaminated {
		return []model.EnrichmentDelta{{Field: model.FieldLocation, OldValue: r.Location, NewValue: r.Location, Action: model.ActionUnchanged}}, nil
	}
	r.Location = res.Normalized
	deltas := []model.EnrichmentDelta{{
		Field:    model.FieldLocation,
		OldValue: src,
		Removed:  res.PhonesRemoved,
		NewValue: res.Normalized,
		Action:   model.ActionCleaned,
	}}
	// A phone cut out of the location fills a missing phone.
	if r.Phone == "" {
		for _, ph := range res.PhonesRemoved {
			if _, ok := phone.Normalize(ph); ok {
				r.Phone = phone.Format(ph)
				deltas = append(deltas, model.EnrichmentDelta{Field: model.FieldPhone, NewValue: r.Phone, Action: model.ActionEnriched})
				break
			}
		}
	}
	return deltas, nil
}

func (c *Cleaner) cleanPhoneStep(r *model.ContactRecord, p *model.ProfileData) ([]model.EnrichmentDelta, error) {
	if p == nil {
		if r.Phone == "" {
			return nil, nil
		}
		formatted := phone.Format(r.Phone)
		action := model.ActionUnchanged
		if formatted != r.Phone {
			action = model.ActionCleaned
		}
		d := model.EnrichmentDelta{Field: model.FieldPhone, OldValue: r.Phone, NewValue: formatted, Action: action}
		r.Phone = formatted
		return []model.EnrichmentDelta{d}, nil
	}
	cur := r.Phone
	if cur != "" {
		cur = phone.Format(cur)
	}
	prof := strings.TrimSpace(p.Phone)
	if prof != "" {
		prof = phone.Format(prof)
	}
	d := reconcile(model.FieldPhone, r.Phone, cur, prof, samePhone)
	r.Phone = d.NewValue
	return []model.EnrichmentDelta{d}, nil
}

func (c *Cleaner) cleanEmailStep(r *model.ContactRecord, p *model.ProfileData) ([]model.EnrichmentDelta, error) {
	if p == nil {
		return nil, nil
	}
	cur := strings.ToLower(strings.TrimSpace(r.Email))
	prof := strings.ToLower(strings.TrimSpace(p.Email))
	d := reconcile(model.FieldEmail, r.Email, cur, prof, strings.EqualFold)
	r.Email = d.NewValue
	return []model.EnrichmentDelta{d}, nil
}

// reconcile decides a field's value from the scraped value (old), its
// cleaned form and the profile value.
//
//	neither present        BOTH_MISSING
//	profile only           ENRICHED
//	scraped only           CLEANED if cleaning changed it, else UNCHANGED
//	both, agree            VALIDATED (CLEANED if cleaning was needed to agree)
//	both, disagree         REPLACED by the profile value
func reconcile(f model.Field, old, cleaned, profile string, same func(a, b string) bool) model.EnrichmentDelta {
	d := model.EnrichmentDelta{Field: f, OldValue: old}
	switch {
	case cleaned == "" && profile == "":
		d.Action = model.ActionBothMissing
	case cleaned == "":
		d.NewValue = profile
		d.Action = model.ActionEnriched
	case profile == "":
		d.NewValue = cleaned
		d.Action = model.ActionUnchanged
		if cleaned != old {
			d.Action = model.ActionCleaned
		}
	case same(cleaned, profile):
		d.NewValue = cleaned
		d.Action = model.ActionValidated
		if cleaned != old {
			d.Action = model.ActionCleaned
		}
	default:
		d.NewValue = profile
		d.Action = model.ActionReplaced
	}
	return d
}

// sameText compares case-insensitively with whitespace collapsed.
func sameText(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

func samePhone(a, b string) bool {
	ka, kb := phone.Key(a), phone.Key(b)
	if ka == "" || kb == "" {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return ka == kb
}
