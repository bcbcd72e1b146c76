// Package pipeline wires extraction, cross-source merge, cleaning and
// scoring into one batch flow.
package pipeline

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/assemble"
	"github.com/sells-group/roster-cli/internal/clean"
	"github.com/sells-group/roster-cli/internal/config"
	"github.com/sells-group/roster-cli/internal/domain"
	"github.com/sells-group/roster-cli/internal/extract"
	"github.com/sells-group/roster-cli/internal/location"
	"github.com/sells-group/roster-cli/internal/merge"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/monitoring"
	"github.com/sells-group/roster-cli/internal/scorer"
	"github.com/sells-group/roster-cli/internal/validate"
)

const (
	defaultWindowChars = 200
	defaultChunkSize   = 100
	defaultConcurrency = 4
)

// Pipeline holds one configured instance of every reconciliation component.
// It is safe for concurrent use; the domain cache is its only shared state.
type Pipeline struct {
	cfg        *config.Config
	validator  *validate.Validator
	extractor  *extract.Extractor
	assembler  *assemble.Assembler
	classifier *domain.Classifier
	merger     *merge.Merger
	cleaner    *clean.Cleaner
	resolver   *location.Resolver
	scorer     *scorer.Scorer
	metrics    *monitoring.Metrics
	coord      extract.Coordinate
	now        func() time.Time
}

// New builds a Pipeline from configuration. metrics may be nil.
func New(cfg *config.Config, metrics *monitoring.Metrics) (*Pipeline, error) {
	lex, err := loadLexicon(cfg.Validation)
	if err != nil {
		return nil, err
	}
	v := validate.New(lex)

	ex, err := extract.New(v, model.DefaultFieldRegistry(), extract.Options{
		Mode:      extract.Mode(cfg.Extract.Mode),
		Validated: cfg.ValidatedMethods(),
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create extractor")
	}

	coord := coordinate(cfg.Extract)
	window := cfg.Extract.WindowChars
	if window <= 0 {
		window = defaultWindowChars
	}

	contamination := clean.NewContamination(lex.TitleSuffixes)
	sc, err := scorer.New(cfg.Scoring, v, contamination)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create scorer")
	}

	classifier := domain.NewClassifier(lex.PersonalDomains, domain.NewMapCache())
	p := &Pipeline{
		cfg:        cfg,
		validator:  v,
		extractor:  ex,
		assembler:  assemble.New(ex, v, extract.DefaultDescriptors(window, coord)),
		classifier: classifier,
		merger:     merge.New(classifier, sc.Rescore),
		resolver:   location.New(cfg.Clean.PrioritizeUS),
		scorer:     sc,
		metrics:    metrics,
		coord:      coord,
		now:        time.Now,
	}
	p.cleaner = clean.New(contamination, func() time.Time { return p.now() })
	return p, nil
}

// loadLexicon reads the configured lexicon and applies the name bounds
// from configuration over it.
func loadLexicon(vc config.ValidationConfig) (*validate.Lexicon, error) {
	lex := validate.DefaultLexicon()
	if vc.LexiconPath != "" {
		var err error
		if lex, err = validate.LoadLexicon(vc.LexiconPath); err != nil {
			return nil, eris.Wrap(err, "pipeline: load lexicon")
		}
	}
	if vc.NameMinTokens > 0 {
		lex.Name.MinTokens = vc.NameMinTokens
	}
	if vc.NameMaxTokens > 0 {
		lex.Name.MaxTokens = vc.NameMaxTokens
	}
	if vc.NameMinChars > 0 {
		lex.Name.MinChars = vc.NameMinChars
	}
	if vc.NameMaxChars > 0 {
		lex.Name.MaxChars = vc.NameMaxChars
	}
	return lex, nil
}

func coordinate(ec config.ExtractConfig) extract.Coordinate {
	c := extract.DefaultCoordinate()
	if ec.OCRSearchAbove > 0 {
		c.Above = ec.OCRSearchAbove
	}
	if ec.OCRSearchBelow > 0 {
		c.Below = ec.OCRSearchBelow
	}
	if ec.OCRXTolerance > 0 {
		c.XTolerance = ec.OCRXTolerance
	}
	return c
}

// Coordinate returns the configured word-proximity search, for callers that
// cut OCR or PDF word lists into units.
func (p *Pipeline) Coordinate() extract.Coordinate { return p.coord }

// Validator returns the configured field validator.
func (p *Pipeline) Validator() *validate.Validator { return p.validator }

// Classifier returns the pipeline's domain classifier.
func (p *Pipeline) Classifier() *domain.Classifier { return p.classifier }

// ProcessUnit assembles one content unit into a scored record. It returns a
// nil record when the unit yields no name, email or phone.
func (p *Pipeline) ProcessUnit(unit model.ContentUnit, channel model.Channel) (*model.ContactRecord, assemble.Report) {
	rec, rep := p.assembler.Assemble(unit, channel)
	p.observe(rep)
	if rec == nil {
		return nil, rep
	}
	p.scorer.Apply(rec)
	return rec, rep
}

// ProcessUnits assembles every unit of one source, in order. Units without
// identity are dropped from the records but keep their report.
func (p *Pipeline) ProcessUnits(units []model.ContentUnit, channel model.Channel) ([]model.ContactRecord, []assemble.Report) {
	log := zap.L().With(zap.String("stage", "extract"), zap.String("channel", string(channel)))

	recs := make([]model.ContactRecord, 0, len(units))
	reps := make([]assemble.Report, 0, len(units))
	for _, u := range units {
		rec, rep := p.ProcessUnit(u, channel)
		reps = append(reps, rep)
		if rec != nil {
			recs = append(recs, *rec)
		}
	}
	log.Debug("pipeline: units processed",
		zap.Int("units", len(units)),
		zap.Int("records", len(recs)),
	)
	return recs, reps
}

func (p *Pipeline) observe(rep assemble.Report) {
	for _, res := range rep.Results {
		counts := make(map[extract.MethodKind]int)
		for _, c := range res.Candidates {
			counts[c.Method]++
		}
		for k, n := range counts {
			p.metrics.AddCandidates(string(res.Field), k.String(), n)
		}
		for _, rej := range res.Rejections {
			p.metrics.IncrementRejection(string(rej.Field))
		}
	}
}

// Reconcile merges record lists from different sources, earlier lists
// winning field conflicts. Records with no name, email or phone are
// dropped and counted in the result.
func (p *Pipeline) Reconcile(lists ...[]model.ContactRecord) merge.Result {
	res := p.merger.Fold(lists...)
	for _, m := range res.Matches {
		p.metrics.IncrementMerge(string(m.Key))
	}
	if res.Dropped > 0 {
		zap.L().Warn("pipeline: dropped records without name, email or phone",
			zap.Int("dropped", res.Dropped),
		)
	}
	return res
}

// Stats computes batch statistics over finalized records.
func (p *Pipeline) Stats(records []model.ContactRecord) model.BatchStats {
	return model.ComputeStats(records, p.now())
}
