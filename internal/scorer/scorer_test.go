package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-cli/internal/clean"
	"github.com/sells-group/roster-cli/internal/config"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/validate"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	lex := validate.DefaultLexicon()
	s, err := New(DefaultScoringConfig(), validate.New(lex), clean.NewContamination(lex.TitleSuffixes))
	require.NoError(t, err)
	return s
}

func TestDefaultScoringConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultScoringConfig()
	assert.Equal(t, 100, WeightSum(cfg))
	assert.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *config.ScoringConfig)
		want   string
	}{
		{"negative weight", func(c *config.ScoringConfig) { c.Weights.Name = -10; c.Weights.Email = 60 }, "name weight must be >= 0"},
		{"sum off", func(c *config.ScoringConfig) { c.Weights.Email = 10 }, "weights should sum to 100, got 80"},
		{"correlation heavier than phone", func(c *config.ScoringConfig) {
			c.Weights.Correlation = 20
			c.Weights.Phone = 10
		}, "correlation weight must not exceed"},
		{"high out of range", func(c *config.ScoringConfig) { c.HighThreshold = 101 }, "high_threshold must be between 0 and 100"},
		{"medium above high", func(c *config.ScoringConfig) { c.MediumThreshold = 90 }, "medium_threshold must be >= 0 and below high_threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultScoringConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultScoringConfig()
	cfg.Weights.Email = 0
	lex := validate.DefaultLexicon()
	_, err := New(cfg, validate.New(lex), clean.NewContamination(nil))
	assert.Error(t, err)

	_, err = New(DefaultScoringConfig(), nil, nil)
	assert.Error(t, err)
}

func TestCalculate(t *testing.T) {
	t.Parallel()
	s := newTestScorer(t)

	tests := []struct {
		name string
		rec  model.ContactRecord
		want model.ConfidenceBreakdown
		tier model.ConfidenceTier
	}{
		{
			name: "complete and consistent",
			rec:  model.ContactRecord{Name: "Jane Doe", Email: "jdoe@acme.com", Phone: "+1-212-555-1212", Location: "New York, NY"},
			want: model.ConfidenceBreakdown{NameClean: 20, LocationClean: 20, EmailValid: 30, PhoneValid: 15, Correlation: 15, Score: 100},
			tier: model.ConfidenceHigh,
		},
		{
			name: "city mismatch stays valid",
			rec:  model.ContactRecord{Name: "Jane Doe", Email: "jdoe@acme.com", Phone: "+1-617-555-0100", Location: "New York, NY"},
			want: model.ConfidenceBreakdown{NameClean: 20, LocationClean: 20, EmailValid: 30, PhoneValid: 15, Correlation: 15, Score: 100},
			tier: model.ConfidenceHigh,
		},
		{
			name: "country mismatch",
			rec:  model.ContactRecord{Name: "Jane Doe", Email: "jdoe@acme.com", Phone: "+1-212-555-1212", Location: "London"},
			want: model.ConfidenceBreakdown{NameClean: 20, LocationClean: 20, EmailValid: 30, PhoneValid: 15, Score: 85},
			tier: model.ConfidenceHigh,
		},
		{
			name: "contaminated name and location",
			rec:  model.ContactRecord{Name: "Arthur S. AdlerPartner", Email: "aadler@firm.com", Location: "New York\n+1-212-558-3960"},
			want: model.ConfidenceBreakdown{EmailValid: 30, Score: 30},
			tier: model.ConfidenceLow,
		},
		{
			name: "email and phone without location",
			rec:  model.ContactRecord{Email: "jdoe@acme.com", Phone: "212.555.1212"},
			want: model.ConfidenceBreakdown{EmailValid: 30, PhoneValid: 15, Correlation: 15, Score: 60},
			tier: model.ConfidenceMedium,
		},
		{
			name: "invalid phone earns no correlation",
			rec:  model.ContactRecord{Name: "Jane Doe", Phone: "555-1212", Location: "Boston, MA"},
			want: model.ConfidenceBreakdown{NameClean: 20, LocationClean: 20, Score: 40},
			tier: model.ConfidenceLow,
		},
		{
			name: "empty",
			rec:  model.ContactRecord{},
			want: model.ConfidenceBreakdown{},
			tier: model.ConfidenceLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := s.Calculate(&tt.rec, Context{})
			assert.Equal(t, tt.want, res.Breakdown)
			assert.Equal(t, tt.want.Score, res.Score)
			assert.Equal(t, tt.tier, res.Overall)
		})
	}
}

func TestCalculate_UsesSuppliedCheck(t *testing.T) {
	t.Parallel()
	s := newTestScorer(t)

	rec := model.ContactRecord{Email: "jdoe@acme.com", Phone: "+1-212-555-1212", Location: "New York, NY"}
	res := s.Calculate(&rec, Context{PhoneCheck: &model.PhoneLocationCheck{Valid: false, HasMismatch: true}})
	assert.Equal(t, 0, res.Breakdown.Correlation)
	assert.Equal(t, 65, res.Score)
}

func TestApply(t *testing.T) {
	t.Parallel()
	s := newTestScorer(t)

	rec := model.ContactRecord{Name: "Jane Doe", Email: "jdoe@acme.com", Confidence: model.ConfidenceHigh}
	res := s.Apply(&rec)
	assert.Equal(t, model.ConfidenceLow, rec.Confidence)
	assert.Equal(t, 50, rec.ConfidenceBreakdown.Score)
	assert.Equal(t, res.Breakdown, rec.ConfidenceBreakdown)

	rec.Phone = "212-555-1212"
	s.Rescore(&rec)
	assert.Equal(t, model.ConfidenceHigh, rec.Confidence)
}

func TestCalculate_Monotonic(t *testing.T) {
	t.Parallel()
	s := newTestScorer(t)

	values := map[model.Field]string{
		model.FieldName:  "Jane Doe",
		model.FieldEmail: "jdoe@acme.com",
		model.FieldPhone: "+1-212-555-1212",
	}
	fields := []model.Field{model.FieldName, model.FieldEmail, model.FieldPhone, model.FieldLocation}

	for _, loc := range []string{"New York, NY", "London", "Chicago, IL", "Tokyo", "London 020 7946 0958", "Boston (617) 555-0100"} {
		values[model.FieldLocation] = loc
		for mask := 0; mask < 1<<len(fields); mask++ {
			var base model.ContactRecord
			for i, f := range fields {
				if mask&(1<<i) != 0 {
					base.Set(f, values[f])
				}
			}
			before := s.Calculate(&base, Context{}).Score
			for i, f := range fields {
				if mask&(1<<i) != 0 {
					continue
				}
				added := base.Clone()
				added.Set(f, values[f])
				after := s.Calculate(&added, Context{}).Score
				assert.GreaterOrEqual(t, after, before, "adding %s to mask %b with location %q", f, mask, loc)
			}
		}
	}
}

func TestCalculate_ContaminatedLocationDoesNotCostCorrelation(t *testing.T) {
	t.Parallel()
	s := newTestScorer(t)

	r := model.ContactRecord{Name: "Ann Lee", Email: "ann@acme.com", Phone: "+1-212-555-1212"}
	before := s.Calculate(&r, Context{})
	assert.Equal(t, 80, before.Score)

	r.Location = "London 020 7946 0958"
	after := s.Calculate(&r, Context{})
	assert.Zero(t, after.Breakdown.LocationClean)
	assert.Equal(t, 15, after.Breakdown.Correlation)
	assert.Equal(t, 80, after.Score)
}

func TestTier(t *testing.T) {
	t.Parallel()
	s := newTestScorer(t)
	assert.Equal(t, model.ConfidenceHigh, s.Tier(80))
	assert.Equal(t, model.ConfidenceMedium, s.Tier(79))
	assert.Equal(t, model.ConfidenceMedium, s.Tier(60))
	assert.Equal(t, model.ConfidenceLow, s.Tier(59))
}
