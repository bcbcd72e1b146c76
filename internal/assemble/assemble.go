// Package assemble combines the best candidate per field for one content
// unit into a contact record.
package assemble

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/extract"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/phone"
	"github.com/sells-group/roster-cli/internal/validate"
)

// Report is the diagnostic trail of assembling one unit.
type Report struct {
	UnitID      string
	Results     []extract.Result
	NameDerived bool
}

// Rejections returns every validation rejection across fields.
func (r Report) Rejections() []*validate.Rejection {
	var out []*validate.Rejection
	for _, res := range r.Results {
		out = append(out, res.Rejections...)
	}
	return out
}

// Failures returns every extraction failure across fields.
func (r Report) Failures() []extract.Failure {
	var out []extract.Failure
	for _, res := range r.Results {
		out = append(out, res.Failures...)
	}
	return out
}

// Assembler builds contact records from content units.
type Assembler struct {
	extractor   *extract.Extractor
	validator   *validate.Validator
	descriptors []extract.FieldDescriptor
}

// New creates an Assembler. Descriptors are run in assembly order so that
// email and phone are available to corroborate later fields.
func New(ex *extract.Extractor, v *validate.Validator, descriptors []extract.FieldDescriptor) *Assembler {
	order := make(map[model.Field]int, len(model.Fields))
	for i, f := range model.Fields {
		order[f] = i
	}
	ds := append([]extract.FieldDescriptor(nil), descriptors...)
	sort.SliceStable(ds, func(i, j int) bool { return order[ds[i].Field] < order[ds[j].Field] })
	return &Assembler{extractor: ex, validator: v, descriptors: ds}
}

// Assemble extracts every field from unit. It returns nil when no identity
// field (name, email or phone) could be assembled.
func (a *Assembler) Assemble(unit model.ContentUnit, channel model.Channel) (*model.ContactRecord, Report) {
	rep := Report{UnitID: unit.ID}
	rec := &model.ContactRecord{Source: channel, RawText: unit.Text}
	rec.AddSource(channel)

	for _, desc := range a.descriptors {
		res := a.extractor.Extract(unit, desc, rec)
		rep.Results = append(rep.Results, res)
		if v := chooseValue(desc.Field, res.Candidates); v != "" {
			rec.Set(desc.Field, v)
		}
	}

	if rec.Name == "" && rec.Email != "" {
		if name, err := a.validator.NameFromEmail(rec.Email); err == nil {
			rec.Name = name
			rep.NameDerived = true
		}
	} else if rec.Name != "" {
		rep.NameDerived = nameFromFallback(rep.Results)
	}

	if !rec.HasIdentity() {
		zap.L().Debug("assemble: unit has no identity fields", zap.String("unit", unit.ID))
		return nil, rep
	}
	rec.Confidence = PresenceTier(rec)
	return rec, rep
}

func nameFromFallback(results []extract.Result) bool {
	for _, r := range results {
		if r.Field != model.FieldName {
			continue
		}
		if best, ok := r.Best(); ok {
			return best.Method == extract.KindFallbackDerived
		}
	}
	return false
}

// chooseValue picks the value for a field from ranked candidates. Locations
// keep every distinct line produced by the winning method, in reading order,
// so multi-office cards survive for the resolver.
func chooseValue(f model.Field, cands []extract.CandidateValue) string {
	if len(cands) == 0 {
		return ""
	}
	best := cands[0]
	switch f {
	case model.FieldPhone:
		return phone.Format(best.Value)
	case model.FieldLocation:
		var same []extract.CandidateValue
		for _, c := range cands {
			if c.Method == best.Method {
				same = append(same, c)
			}
		}
		sort.SliceStable(same, func(i, j int) bool { return same[i].Position < same[j].Position })
		lines := make([]string, 0, len(same))
		for _, c := range same {
			lines = append(lines, c.Value)
		}
		return strings.Join(lines, "\n")
	default:
		return best.Value
	}
}

// PresenceTier is the confidence tier assigned at assembly: high when name,
// email and phone are all present; medium when at least two are present
// including email; low otherwise.
func PresenceTier(r *model.ContactRecord) model.ConfidenceTier {
	n := 0
	for _, v := range []string{r.Name, r.Email, r.Phone} {
		if v != "" {
			n++
		}
	}
	switch {
	case n == 3:
		return model.ConfidenceHigh
	case n >= 2 && r.Email != "":
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
