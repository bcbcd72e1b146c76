package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/extract"
	"github.com/sells-group/roster-cli/internal/merge"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/monitoring"
	"github.com/sells-group/roster-cli/internal/pipeline"
	"github.com/sells-group/roster-cli/internal/store"
)

const (
	maxRequestBytes      = 10 << 20
	requestTimeout       = 2 * time.Minute
	defaultLookbackHours = 24
)

var (
	servePort    int
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for extraction and reconciliation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initPipeline(ctx, "serve", true)
		if err != nil {
			return err
		}
		defer env.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildMux(env.Pipeline, env.Store, env.Registry, serveOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", []string{"*"}, "allowed CORS origins")
	rootCmd.AddCommand(serveCmd)
}

// api serves the HTTP endpoints.
type api struct {
	pipeline *pipeline.Pipeline
	store    store.Store
}

// buildMux wires every route on a chi router. st and reg may be nil: the
// store-backed endpoints then answer 503 and /metrics is not mounted.
func buildMux(p *pipeline.Pipeline, st store.Store, reg *prometheus.Registry, origins []string) http.Handler {
	a := &api{pipeline: p, store: st}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(middleware.Timeout(requestTimeout))
		v1.Post("/extract", a.handleExtract)
		v1.Post("/reconcile", a.handleReconcile)
		v1.Post("/runs", a.handleCreateRun)
		v1.Get("/runs", a.handleListRuns)
		v1.Get("/runs/{id}", a.handleGetRun)
		v1.Get("/status", a.handleStatus)
	})
	return r
}

type extractRequest struct {
	Channel model.Channel       `json:"channel"`
	Units   []model.ContentUnit `json:"units"`
	// HTML and Selector split a whole directory page into units.
	HTML     string `json:"html"`
	Selector string `json:"selector"`
	PageURL  string `json:"pageUrl"`
}

type extractResponse struct {
	Records []model.ContactRecord `json:"records"`
	Skipped int                   `json:"skipped"`
}

func (a *api) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	channel, ok := requestChannel(req.Channel)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown channel %q", req.Channel))
		return
	}

	units := req.Units
	if req.HTML != "" {
		if req.Selector == "" {
			writeError(w, http.StatusBadRequest, "selector is required with html")
			return
		}
		page, err := extract.UnitsFromHTML(req.HTML, req.Selector, req.PageURL)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		units = append(units, page...)
	}
	if len(units) == 0 {
		writeError(w, http.StatusBadRequest, "units or html is required")
		return
	}

	recs, _ := a.pipeline.ProcessUnits(units, channel)
	if recs == nil {
		recs = []model.ContactRecord{}
	}
	writeJSONResponse(w, http.StatusOK, extractResponse{Records: recs, Skipped: len(units) - len(recs)})
}

type reconcileRequest struct {
	A        []model.ContactRecord        `json:"a"`
	B        []model.ContactRecord        `json:"b"`
	Profiles map[string]model.ProfileData `json:"profiles"`
}

type reconcileResponse struct {
	Records []model.ContactRecord  `json:"records"`
	Stats   model.BatchStats       `json:"stats"`
	Matches map[merge.MatchKey]int `json:"matches"`
	Clean   pipeline.CleanReport   `json:"clean"`
	Dropped int                    `json:"dropped"`
}

func (a *api) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	merged := a.pipeline.Reconcile(req.A, req.B)

	var profiles pipeline.ProfileLookup
	if len(req.Profiles) > 0 {
		profiles = newProfileIndex(req.Profiles).Lookup
	}
	records, rep, err := a.pipeline.CleanBatch(r.Context(), merged.Records, profiles, nil)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, reconcileResponse{
		Records: records,
		Stats:   a.pipeline.Stats(records),
		Matches: merged.Counts(),
		Clean:   rep,
		Dropped: merged.Dropped,
	})
}

type createRunRequest struct {
	Label    string                       `json:"label"`
	Sources  []pipeline.Source            `json:"sources"`
	Profiles map[string]model.ProfileData `json:"profiles"`
}

type createRunResponse struct {
	Run    *model.Run       `json:"run"`
	Output *pipeline.Output `json:"output"`
}

func (a *api) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}

	var req createRunRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if len(req.Sources) == 0 {
		writeError(w, http.StatusBadRequest, "sources is required")
		return
	}
	for _, src := range req.Sources {
		if _, ok := requestChannel(src.Channel); !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown channel %q", src.Channel))
			return
		}
	}

	var profiles pipeline.ProfileLookup
	if len(req.Profiles) > 0 {
		profiles = newProfileIndex(req.Profiles).Lookup
	}
	out, err := a.pipeline.Run(r.Context(), req.Sources, profiles, nil)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	label := req.Label
	if label == "" {
		label = "api:" + middleware.GetReqID(r.Context())
	}
	run, err := persistRun(r.Context(), a.store, label, out)
	if err != nil {
		zap.L().Error("api: persist run failed", zap.String("label", label), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "persist run failed")
		return
	}
	writeJSONResponse(w, http.StatusCreated, createRunResponse{Run: run, Output: out})
}

func (a *api) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}

	filter := store.RunFilter{Status: model.RunStatus(r.URL.Query().Get("status"))}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	runs, err := a.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSONResponse(w, http.StatusOK, runs)
}

func (a *api) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}

	id := chi.URLParam(r, "id")
	run, err := a.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get run failed", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get run failed")
		return
	}

	contacts, err := a.store.ListContacts(r.Context(), id)
	if err != nil {
		zap.L().Error("api: list contacts failed", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list contacts failed")
		return
	}
	writeJSONResponse(w, http.StatusOK, struct {
		*model.Run
		Contacts []model.ContactRecord `json:"contacts"`
	}{Run: run, Contacts: contacts})
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}

	hours := defaultLookbackHours
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = n
	}

	snap, err := monitoring.NewCollector(a.store).Collect(r.Context(), hours)
	if err != nil {
		zap.L().Error("api: collect status failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "collect status failed")
		return
	}
	writeJSONResponse(w, http.StatusOK, snap)
}

// requestChannel defaults an empty channel to html.
func requestChannel(c model.Channel) (model.Channel, bool) {
	if c == "" {
		return model.ChannelHTML, true
	}
	return model.ParseChannel(string(c))
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONResponse(w, status, map[string]string{"error": msg})
}
