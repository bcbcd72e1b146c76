// Package merge matches contact records across extraction channels and
// merges them into one deduplicated list.
//
// Merge policy: the first list wins. A field that is non-empty on the first
// list's record is never overwritten, even when the second list carries a
// different non-empty value. Only empty fields are filled.
package merge

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/domain"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/phone"
)

// MatchKey names the identity key a record was matched on.
type MatchKey string

const (
	MatchEmail      MatchKey = "email"
	MatchPhone      MatchKey = "phone"
	MatchDomainName MatchKey = "domain_name"
	MatchName       MatchKey = "name"
	MatchNone       MatchKey = "none"
)

// Rescorer recomputes a record's derived confidence after its fields change.
type Rescorer func(r *model.ContactRecord)

// Match describes what happened to one record of the second list.
type Match struct {
	Index  int      `json:"index"`
	Target int      `json:"target"`
	Key    MatchKey `json:"key"`
}

// Result is the outcome of one merge invocation. Dropped counts input
// records that carried no name, email or phone and were left out.
type Result struct {
	Records []model.ContactRecord `json:"records"`
	Matches []Match               `json:"matches,omitempty"`
	Dropped int                   `json:"dropped,omitempty"`
}

// Counts tallies matches by key. Inserted records count under MatchNone.
func (r Result) Counts() map[MatchKey]int {
	out := make(map[MatchKey]int)
	for _, m := range r.Matches {
		out[m.Key]++
	}
	return out
}

// Merger merges contact lists. It holds no per-merge state: every call
// builds its own indexes, so one Merger may serve concurrent callers.
type Merger struct {
	classifier *domain.Classifier
	rescore    Rescorer
}

// New creates a Merger. classifier supplies domains for records that do not
// carry one yet; rescore runs on every record touched by a merge and may be
// nil.
func New(classifier *domain.Classifier, rescore Rescorer) *Merger {
	return &Merger{classifier: classifier, rescore: rescore}
}

// index is the identity lookup over the first list. It lives for one Merge
// call only.
type index struct {
	email    map[string]int
	phone    map[string]int
	name     map[string]int
	byDomain map[string][]int
}

func (m *Merger) buildIndex(recs []model.ContactRecord) *index {
	idx := &index{
		email:    make(map[string]int, len(recs)),
		phone:    make(map[string]int, len(recs)),
		name:     make(map[string]int, len(recs)),
		byDomain: make(map[string][]int),
	}
	for i := range recs {
		r := &recs[i]
		// The earliest record keeps a key when the first list has duplicates.
		if k := EmailKey(r.Email); k != "" {
			if _, ok := idx.email[k]; !ok {
				idx.email[k] = i
			}
		}
		if k := PhoneKey(r.Phone); k != "" {
			if _, ok := idx.phone[k]; !ok {
				idx.phone[k] = i
			}
		}
		if k := NameKey(r.Name); k != "" {
			if _, ok := idx.name[k]; !ok {
				idx.name[k] = i
			}
		}
		if d := m.domainOf(r); d != "" {
			idx.byDomain[d] = append(idx.byDomain[d], i)
		}
	}
	return idx
}

func (m *Merger) domainOf(r *model.ContactRecord) string {
	if r.Domain != "" {
		return r.Domain
	}
	if m.classifier == nil || r.Email == "" {
		return ""
	}
	return m.classifier.Classify(r.Email).Domain
}

// Merge merges b into a. Neither input is modified. Records of a keep their
// order; unmatched records of b are appended in order. Records of either
// list without a name, email or phone are dropped.
func (m *Merger) Merge(a, b []model.ContactRecord) Result {
	res := Result{Matches: make([]Match, 0, len(b))}
	out := make([]model.ContactRecord, 0, len(a)+len(b))
	for i := range a {
		rec := a[i].Clone()
		normalize(&rec)
		if !rec.HasIdentity() {
			res.Dropped++
			continue
		}
		out = append(out, rec)
	}
	idx := m.buildIndex(out)

	for i := range b {
		rec := b[i].Clone()
		normalize(&rec)
		if !rec.HasIdentity() {
			res.Dropped++
			continue
		}

		target, key := m.find(idx, out, &rec)
		if key == MatchNone {
			m.fillDomain(&rec)
			m.rescoreRecord(&rec)
			out = append(out, rec)
			res.Matches = append(res.Matches, Match{Index: i, Target: len(out) - 1, Key: MatchNone})
			continue
		}

		fill(&out[target], &rec)
		m.fillDomain(&out[target])
		m.rescoreRecord(&out[target])
		res.Matches = append(res.Matches, Match{Index: i, Target: target, Key: key})
		zap.L().Debug("merge: matched record",
			zap.Int("index", i),
			zap.Int("target", target),
			zap.String("key", string(key)),
		)
	}

	res.Records = out
	return res
}

// Fold merges lists left to right, feeding each result into the next pass.
func (m *Merger) Fold(lists ...[]model.ContactRecord) Result {
	var res Result
	for _, l := range lists {
		step := m.Merge(res.Records, l)
		res.Records = step.Records
		res.Matches = append(res.Matches, step.Matches...)
		res.Dropped += step.Dropped
	}
	return res
}

// find tries email, phone, domain+name and name, in that order. A match on
// a later key is taken even when both records carry different emails; the
// first list's email then stands.
func (m *Merger) find(idx *index, out []model.ContactRecord, rec *model.ContactRecord) (int, MatchKey) {
	if k := EmailKey(rec.Email); k != "" {
		if t, ok := idx.email[k]; ok {
			return t, MatchEmail
		}
	}
	if k := PhoneKey(rec.Phone); k != "" {
		if t, ok := idx.phone[k]; ok {
			return t, MatchPhone
		}
	}

	name := NameKey(rec.Name)
	if name == "" {
		return -1, MatchNone
	}
	if d := m.domainOf(rec); d != "" {
		for _, t := range idx.byDomain[d] {
			if NameKey(out[t].Name) == name {
				return t, MatchDomainName
			}
		}
	}
	if t, ok := idx.name[name]; ok {
		return t, MatchName
	}
	return -1, MatchNone
}

func (m *Merger) fillDomain(r *model.ContactRecord) {
	if r.Domain != "" || r.Email == "" || m.classifier == nil {
		return
	}
	c := m.classifier.Classify(r.Email)
	r.Domain = c.Domain
	r.DomainType = c.DomainType
}

func (m *Merger) rescoreRecord(r *model.ContactRecord) {
	if m.rescore != nil {
		m.rescore(r)
	}
}

// normalize puts identity fields in canonical display form without changing
// what they identify.
func normalize(r *model.ContactRecord) {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = EmailKey(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Phone != "" {
		r.Phone = phone.Format(r.Phone)
	}
	if r.Source != "" {
		r.AddSource(r.Source)
	}
}

// fill copies src's fields into dst wherever dst is empty.
func fill(dst, src *model.ContactRecord) {
	for _, f := range model.Fields {
		if dst.Get(f) == "" {
			dst.Set(f, src.Get(f))
		}
	}
	if dst.Domain == "" {
		dst.Domain = src.Domain
		dst.DomainType = src.DomainType
	}
	if dst.Source == "" {
		dst.Source = src.Source
	}
	for _, s := range src.Sources {
		dst.AddSource(s)
	}
	if dst.RawText == "" {
		dst.RawText = src.RawText
	}
	if len(dst.AdditionalLocations) == 0 && len(src.AdditionalLocations) > 0 {
		dst.AdditionalLocations = append([]string(nil), src.AdditionalLocations...)
	}
	if dst.Original == nil && src.Original != nil {
		o := *src.Original
		dst.Original = &o
	}
	if dst.Enrichment == nil && src.Enrichment != nil {
		c := src.Clone()
		dst.Enrichment = c.Enrichment
	}
}
