package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/monitoring"
	"github.com/sells-group/roster-cli/internal/pipeline"
	"github.com/sells-group/roster-cli/internal/store"
)

// pipelineEnv holds the pipeline and the optional store needed by the
// import, run and serve commands.
type pipelineEnv struct {
	Store    store.Store // nil unless requested
	Pipeline *pipeline.Pipeline
	Metrics  *monitoring.Metrics
	Registry *prometheus.Registry
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates configuration for mode and builds the pipeline.
// When withStore is set the configured store is opened and migrated too.
// Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string, withStore bool) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := monitoring.New(reg)

	p, err := pipeline.New(cfg, metrics)
	if err != nil {
		return nil, err
	}

	env := &pipelineEnv{Pipeline: p, Metrics: metrics, Registry: reg}
	if withStore {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, eris.Wrap(err, "open store")
		}
		env.Store = st
	}
	return env, nil
}

// persistRun stores a finished pipeline output as a new run. The run is
// marked failed if its contacts cannot be saved.
func persistRun(ctx context.Context, st store.Store, label string, out *pipeline.Output) (*model.Run, error) {
	run, err := st.CreateRun(ctx, label)
	if err != nil {
		return nil, eris.Wrap(err, "create run")
	}

	if err := st.SaveContacts(ctx, run.ID, out.Records); err != nil {
		_ = st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed)
		return nil, eris.Wrap(err, "save contacts")
	}
	if err := st.CompleteRun(ctx, run.ID, &out.Stats); err != nil {
		return nil, eris.Wrap(err, "complete run")
	}

	run.Status = model.RunStatusComplete
	run.Stats = &out.Stats
	return run, nil
}

// readJSONFile decodes a JSON file into v. A path of "-" reads stdin.
func readJSONFile(path string, v any) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return eris.Wrapf(err, "decode %s", path)
	}
	return nil
}

// writeJSON encodes v as indented JSON to path, or to stdout when path is
// empty or "-".
func writeJSON(path string, v any) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// profileIndex resolves profile-page data by profile URL first, then by
// email.
type profileIndex struct {
	byURL   map[string]*model.ProfileData
	byEmail map[string]*model.ProfileData
}

// loadProfiles reads a JSON object mapping profile URLs or email addresses
// to profile data. An empty path yields a nil lookup.
func loadProfiles(path string) (pipeline.ProfileLookup, error) {
	if path == "" {
		return nil, nil
	}
	var raw map[string]model.ProfileData
	if err := readJSONFile(path, &raw); err != nil {
		return nil, eris.Wrap(err, "load profiles")
	}
	return newProfileIndex(raw).Lookup, nil
}

func newProfileIndex(raw map[string]model.ProfileData) *profileIndex {
	idx := &profileIndex{
		byURL:   make(map[string]*model.ProfileData),
		byEmail: make(map[string]*model.ProfileData),
	}
	for key, pd := range raw {
		pd := pd
		if strings.Contains(key, "://") {
			idx.byURL[key] = &pd
			continue
		}
		idx.byEmail[strings.ToLower(key)] = &pd
	}
	return idx
}

// Lookup implements pipeline.ProfileLookup. The maps are read-only after
// construction.
func (idx *profileIndex) Lookup(r *model.ContactRecord) *model.ProfileData {
	if r.ProfileURL != "" {
		if pd, ok := idx.byURL[r.ProfileURL]; ok {
			return pd
		}
	}
	if r.Email != "" {
		return idx.byEmail[strings.ToLower(r.Email)]
	}
	return nil
}
