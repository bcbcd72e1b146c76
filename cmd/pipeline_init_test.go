package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-cli/internal/config"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/pipeline"
	"github.com/sells-group/roster-cli/internal/resilience"
	"github.com/sells-group/roster-cli/internal/store"
)

func withConfig(t *testing.T, mutate func(*config.Config)) {
	t.Helper()
	prev := cfg
	cfg = config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	t.Cleanup(func() { cfg = prev })
}

func TestInitPipeline(t *testing.T) {
	withConfig(t, nil)

	env, err := initPipeline(context.Background(), "extract", false)
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Pipeline)
	assert.NotNil(t, env.Metrics)
	assert.NotNil(t, env.Registry)
	assert.Nil(t, env.Store)
}

func TestInitPipeline_WithStore(t *testing.T) {
	withConfig(t, func(c *config.Config) {
		c.Store.DatabaseURL = filepath.Join(t.TempDir(), "roster.db")
	})

	env, err := initPipeline(context.Background(), "import", true)
	require.NoError(t, err)
	defer env.Close()
	require.NotNil(t, env.Store)

	runs, err := env.Store.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestInitPipeline_InvalidConfig(t *testing.T) {
	withConfig(t, func(c *config.Config) { c.Scoring.Weights.Email = 90 })

	_, err := initPipeline(context.Background(), "extract", false)
	require.Error(t, err)
	assert.True(t, resilience.IsFatal(err))
}

func TestPersistRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	out := &pipeline.Output{
		Records: []model.ContactRecord{{Name: "Jane Doe", Email: "jdoe@acme.com", Confidence: model.ConfidenceHigh}},
		Stats: model.BatchStats{
			Total:                  1,
			ConfidenceDistribution: map[model.ConfidenceTier]int{model.ConfidenceHigh: 1},
		},
	}

	run, err := persistRun(ctx, st, "acme", out)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Stats)
	assert.Equal(t, 1, got.Stats.Total)

	contacts, err := st.ListContacts(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "jdoe@acme.com", contacts[0].Email)
}

func TestJSONFiles_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	in := []model.ContactRecord{{Name: "Jane Doe", Source: model.ChannelPDF}}

	require.NoError(t, writeJSON(path, in))

	var out []model.ContactRecord
	require.NoError(t, readJSONFile(path, &out))
	assert.Equal(t, in, out)

	err := readJSONFile(filepath.Join(t.TempDir(), "missing.json"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
}

func TestProfileIndex_Lookup(t *testing.T) {
	idx := newProfileIndex(map[string]model.ProfileData{
		"https://acme.com/people/jane-doe": {Title: "Partner"},
		"JRoe@Acme.com":                    {Title: "Associate"},
	})

	got := idx.Lookup(&model.ContactRecord{ProfileURL: "https://acme.com/people/jane-doe"})
	require.NotNil(t, got)
	assert.Equal(t, "Partner", got.Title)

	got = idx.Lookup(&model.ContactRecord{Email: "jroe@acme.com"})
	require.NotNil(t, got)
	assert.Equal(t, "Associate", got.Title)

	// An unknown profile URL falls back to the email.
	got = idx.Lookup(&model.ContactRecord{ProfileURL: "https://acme.com/people/other", Email: "jroe@acme.com"})
	require.NotNil(t, got)
	assert.Equal(t, "Associate", got.Title)

	assert.Nil(t, idx.Lookup(&model.ContactRecord{Name: "Nobody"}))
}

func TestLoadProfiles(t *testing.T) {
	lookup, err := loadProfiles("")
	require.NoError(t, err)
	assert.Nil(t, lookup)

	path := writeFile(t, "profiles.json", `{"jdoe@acme.com":{"title":"Partner","location":"Chicago, IL"}}`)
	lookup, err = loadProfiles(path)
	require.NoError(t, err)
	require.NotNil(t, lookup)

	pd := lookup(&model.ContactRecord{Email: "jdoe@acme.com"})
	require.NotNil(t, pd)
	assert.Equal(t, "Chicago, IL", pd.Location)
}
