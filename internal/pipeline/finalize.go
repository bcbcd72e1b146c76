package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/roster-cli/internal/clean"
	"github.com/sells-group/roster-cli/internal/merge"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/phone"
)

// ProfileLookup returns profile-page data for a record, or nil when none is
// available. It is called concurrently.
type ProfileLookup func(r *model.ContactRecord) *model.ProfileData

// Progress reports how many records of a batch are finalized.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// ProgressFunc receives a Progress event after each finished chunk. Events
// are delivered one at a time; their order follows chunk completion.
type ProgressFunc func(Progress)

// CleanReport summarizes a CleanBatch call.
type CleanReport struct {
	Cleaned        int `json:"cleaned"`
	Fallback       int `json:"fallback"`
	CleaningErrors int `json:"cleaningErrors"`
}

// Finalize runs post-merge enrichment on one record in place: contamination
// cleaning, multi-location resolution, phone-location correlation, domain
// classification and a final rescore. A nil profile selects fallback
// cleaning.
func (p *Pipeline) Finalize(r *model.ContactRecord, profile *model.ProfileData) clean.Outcome {
	if p.cfg.Clean.FallbackOnly {
		profile = nil
	}

	out := p.cleaner.Clean(r, profile)
	for _, ce := range out.Errors {
		p.metrics.IncrementCleaningError(ce.Step)
	}

	// Offices are split from the scraped text, which still holds the phones
	// that pair with them, unless a profile supplied the location.
	raw := r.Location
	if out.Mode == clean.ModeFallback && r.Original != nil && r.Original.Location != "" {
		raw = r.Original.Location
	}
	p.resolveLocations(r, raw)

	if r.Phone != "" {
		check := phone.Correlate(r.Phone, r.Location)
		r.Enrichment.PhoneCheck = &check
		if check.HasMismatch {
			zap.L().Debug("pipeline: phone and location disagree",
				zap.String("reason", check.Reason),
				zap.String("severity", check.Severity),
			)
		}
	}

	p.classify(r)
	p.scorer.Apply(r)
	p.metrics.IncrementRecord(string(r.Confidence))
	return out
}

func (p *Pipeline) resolveLocations(r *model.ContactRecord, raw string) {
	res := p.resolver.Resolve(raw, r.Phone)
	if len(res.Pairs) == 0 {
		return
	}
	r.Location = res.PrimaryLocation
	r.AdditionalLocations = nil
	for _, loc := range res.AdditionalLocations {
		if loc != r.Location && !contains(r.AdditionalLocations, loc) {
			r.AdditionalLocations = append(r.AdditionalLocations, loc)
		}
	}

	primary := res.Pairs[0]
	if r.Phone != "" || primary.Borrowed || primary.Phone == "" {
		return
	}
	if _, ok := phone.Normalize(primary.Phone); ok {
		r.Phone = phone.Format(primary.Phone)
		r.Enrichment.Deltas = append(r.Enrichment.Deltas, model.EnrichmentDelta{
			Field:    model.FieldPhone,
			NewValue: r.Phone,
			Action:   model.ActionEnriched,
		})
	}
}

func (p *Pipeline) classify(r *model.ContactRecord) {
	if r.Email == "" {
		r.Domain, r.DomainType = "", model.DomainUnknown
		return
	}
	c := p.classifier.Classify(r.Email)
	r.Domain, r.DomainType = c.Domain, c.DomainType
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// CleanBatch finalizes copies of records in chunks processed concurrently.
// Output order matches input order. profiles and progress may be nil.
func (p *Pipeline) CleanBatch(ctx context.Context, records []model.ContactRecord, profiles ProfileLookup, progress ProgressFunc) ([]model.ContactRecord, CleanReport, error) {
	out := make([]model.ContactRecord, len(records))
	for i := range records {
		out[i] = records[i].Clone()
	}

	total := len(out)
	size := p.cfg.Clean.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	workers := p.cfg.Clean.Concurrency
	if workers <= 0 {
		workers = defaultConcurrency
	}

	var (
		mu   sync.Mutex
		rep  CleanReport
		done int
	)
	logProgress := rate.Sometimes{First: 1, Interval: 5 * time.Second}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < total; start += size {
		end := min(start+size, total)
		g.Go(func() error {
			var fallback, errs int
			for i := start; i < end; i++ {
				if err := gCtx.Err(); err != nil {
					return eris.Wrap(err, "pipeline: clean batch")
				}
				var prof *model.ProfileData
				if profiles != nil {
					prof = profiles(&out[i])
				}
				o := p.Finalize(&out[i], prof)
				if o.Mode == clean.ModeFallback {
					fallback++
				}
				errs += len(o.Errors)
			}

			mu.Lock()
			defer mu.Unlock()
			done += end - start
			rep.Fallback += fallback
			rep.CleaningErrors += errs
			ev := Progress{Done: done, Total: total}
			if progress != nil {
				progress(ev)
			}
			logProgress.Do(func() {
				zap.L().Info("pipeline: cleaning progress",
					zap.Int("done", ev.Done),
					zap.Int("total", ev.Total),
				)
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, rep, err
	}

	rep.Cleaned = total
	return out, rep, nil
}

// Source is one extraction channel's content units.
type Source struct {
	Channel model.Channel       `json:"channel"`
	Units   []model.ContentUnit `json:"units"`
}

// Output is the result of a full pipeline run.
type Output struct {
	Records []model.ContactRecord  `json:"records"`
	Stats   model.BatchStats       `json:"stats"`
	Matches map[merge.MatchKey]int `json:"matches"`
	Clean   CleanReport            `json:"clean"`
	Skipped int                    `json:"skipped"`
}

// Run extracts every source, merges the per-source lists in order,
// finalizes the merged records and computes batch statistics.
func (p *Pipeline) Run(ctx context.Context, sources []Source, profiles ProfileLookup, progress ProgressFunc) (*Output, error) {
	log := zap.L().With(zap.Int("sources", len(sources)))
	log.Info("pipeline: starting run")

	out := &Output{}
	lists := make([][]model.ContactRecord, 0, len(sources))
	for _, src := range sources {
		ch := src.Channel
		if ch == "" {
			ch = model.ChannelHTML
		}
		recs, _ := p.ProcessUnits(src.Units, ch)
		out.Skipped += len(src.Units) - len(recs)
		lists = append(lists, recs)
	}

	merged := p.Reconcile(lists...)
	records, rep, err := p.CleanBatch(ctx, merged.Records, profiles, progress)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: run")
	}

	out.Records = records
	out.Matches = merged.Counts()
	out.Clean = rep
	out.Stats = p.Stats(records)
	log.Info("pipeline: run complete",
		zap.Int("records", out.Stats.Total),
		zap.Int("skipped", out.Skipped),
		zap.Int("cleaning_errors", rep.CleaningErrors),
	)
	return out, nil
}
