package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-cli/internal/config"
	"github.com/sells-group/roster-cli/internal/extract"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/monitoring"
	"github.com/sells-group/roster-cli/internal/pipeline"
	"github.com/sells-group/roster-cli/internal/store"
)

const janeCard = `<div class="person">
<a href="/people/jane-doe">Jane Doe</a><p>Partner</p><p>New York, NY</p>
<p><a href="mailto:jdoe@acme.com">jdoe@acme.com</a></p><p><a href="tel:2125551212">(212) 555-1212</a></p></div>`

func newTestPipeline(t *testing.T) (*pipeline.Pipeline, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	p, err := pipeline.New(config.Default(), monitoring.New(reg))
	require.NoError(t, err)
	return p, reg
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestMux(t *testing.T) http.Handler {
	t.Helper()
	p, reg := newTestPipeline(t)
	return buildMux(p, newTestStore(t), reg, []string{"*"})
}

func janeUnit(t *testing.T) model.ContentUnit {
	t.Helper()
	u, err := extract.UnitFromHTML("card-1", janeCard, "https://www.acme.com/people")
	require.NoError(t, err)
	return u
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestBuildMux_HealthEndpoint(t *testing.T) {
	mux := buildMux(nil, nil, nil, []string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestBuildMux_Extract_Units(t *testing.T) {
	mux := newTestMux(t)

	rr := doJSON(t, mux, http.MethodPost, "/v1/extract", extractRequest{
		Units: []model.ContentUnit{janeUnit(t), {ID: "blank", Text: "---"}},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp extractResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "Jane Doe", resp.Records[0].Name)
	assert.Equal(t, "jdoe@acme.com", resp.Records[0].Email)
	assert.Equal(t, model.ChannelHTML, resp.Records[0].Source)
	assert.Equal(t, 1, resp.Skipped)
}

func TestBuildMux_Extract_PageWithSelector(t *testing.T) {
	mux := newTestMux(t)

	page := "<html><body><h1>Our People</h1>" + janeCard + "</body></html>"
	rr := doJSON(t, mux, http.MethodPost, "/v1/extract", extractRequest{
		HTML:     page,
		Selector: "div.person",
		PageURL:  "https://www.acme.com/people",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp extractResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "Jane Doe", resp.Records[0].Name)
}

func TestBuildMux_Extract_BadRequests(t *testing.T) {
	mux := newTestMux(t)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"unknown channel", extractRequest{Channel: "fax", Units: []model.ContentUnit{{Text: "x"}}}, "unknown channel"},
		{"html without selector", extractRequest{HTML: "<div></div>"}, "selector is required"},
		{"no input", extractRequest{}, "units or html is required"},
		{"invalid body", "not an object", "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, mux, http.MethodPost, "/v1/extract", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.want)
		})
	}
}

func TestBuildMux_Reconcile(t *testing.T) {
	mux := newTestMux(t)

	rr := doJSON(t, mux, http.MethodPost, "/v1/reconcile", reconcileRequest{
		A: []model.ContactRecord{{Name: "Jane Doe", Email: "jdoe@acme.com", Source: model.ChannelHTML}},
		B: []model.ContactRecord{
			{Name: "Jane Doe", Email: "jdoe@acme.com", Title: "Partner", Source: model.ChannelSpreadsheet},
			{Name: "John Roe", Email: "jroe@gmail.com", Source: model.ChannelSpreadsheet},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp reconcileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "Partner", resp.Records[0].Title)
	assert.Equal(t, []model.Channel{model.ChannelHTML, model.ChannelSpreadsheet}, resp.Records[0].Sources)
	assert.Equal(t, model.DomainPersonal, resp.Records[1].DomainType)
	assert.Equal(t, 1, resp.Matches["email"])
	assert.Equal(t, 2, resp.Stats.Total)
	assert.Equal(t, 2, resp.Clean.Cleaned)
	assert.Zero(t, resp.Dropped)
}

func TestBuildMux_ReconcileDropsRecordsWithoutIdentity(t *testing.T) {
	mux := newTestMux(t)

	rr := doJSON(t, mux, http.MethodPost, "/v1/reconcile", reconcileRequest{
		A: []model.ContactRecord{{Name: "Jane Doe", Email: "jdoe@acme.com"}},
		B: []model.ContactRecord{{Title: "Partner", Location: "Boston, MA"}},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp reconcileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "Jane Doe", resp.Records[0].Name)
	assert.Equal(t, 1, resp.Dropped)
	assert.Equal(t, 1, resp.Stats.Total)
}

func TestBuildMux_Runs(t *testing.T) {
	mux := newTestMux(t)

	rr := doJSON(t, mux, http.MethodPost, "/v1/runs", createRunRequest{
		Label:   "acme",
		Sources: []pipeline.Source{{Channel: model.ChannelHTML, Units: []model.ContentUnit{janeUnit(t)}}},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created createRunResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotNil(t, created.Run)
	assert.Equal(t, "acme", created.Run.Label)
	assert.Equal(t, model.RunStatusComplete, created.Run.Status)
	assert.Equal(t, 1, created.Output.Stats.Total)

	rr = doJSON(t, mux, http.MethodGet, "/v1/runs?limit=10", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var runs []model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, created.Run.ID, runs[0].ID)

	rr = doJSON(t, mux, http.MethodGet, "/v1/runs/"+created.Run.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got struct {
		ID       string                `json:"id"`
		Contacts []model.ContactRecord `json:"contacts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, created.Run.ID, got.ID)
	require.Len(t, got.Contacts, 1)
	assert.Equal(t, "Jane Doe", got.Contacts[0].Name)

	rr = doJSON(t, mux, http.MethodGet, "/v1/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var snap monitoring.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.RunsTotal)
	assert.Equal(t, 1, snap.RunsComplete)
	assert.Equal(t, 1, snap.Records)
	assert.Equal(t, 24, snap.LookbackHours)
}

func TestBuildMux_Runs_Errors(t *testing.T) {
	mux := newTestMux(t)

	rr := doJSON(t, mux, http.MethodGet, "/v1/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, mux, http.MethodGet, "/v1/runs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, mux, http.MethodGet, "/v1/status?hours=0", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, mux, http.MethodPost, "/v1/runs", createRunRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "sources is required")
}

func TestBuildMux_NilStore(t *testing.T) {
	p, _ := newTestPipeline(t)
	mux := buildMux(p, nil, nil, []string{"*"})

	for _, path := range []string{"/v1/runs", "/v1/runs/abc", "/v1/status"} {
		rr := doJSON(t, mux, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
	}

	rr := doJSON(t, mux, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildMux_Metrics(t *testing.T) {
	mux := newTestMux(t)

	rr := doJSON(t, mux, http.MethodPost, "/v1/extract", extractRequest{Units: []model.ContentUnit{janeUnit(t)}})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, mux, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "roster_extract_candidates_total")
}

func TestBuildMux_CORSPreflight(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/extract", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
