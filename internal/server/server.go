// Package server exposes the dashboard derivation pipeline over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/analytics"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/cache"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/dashboard"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/ingest"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/metrics"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/render"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/upload"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// StationSource fetches prediction results for a station.
// *backend.Client implements it.
type StationSource interface {
	FetchStation(ctx context.Context, station string) (dashboard.State, error)
}

// Options wires the handler's collaborators. Only Thresholds has no usable
// zero value; it is defaulted field by field.
type Options struct {
	Logger         *zap.Logger
	MaxUploadSize  int64
	Version        string
	Thresholds     analytics.Thresholds
	DatasetTTL     time.Duration
	MaxDatasets    int
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	Sessions       *ingest.SessionStore
	Backend        StationSource
}

// Dataset is a derived view kept addressable for chart requests.
type Dataset struct {
	ID      string         `json:"id"`
	Created time.Time      `json:"created"`
	Source  string         `json:"source"`
	View    dashboard.View `json:"view"`
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	thresholds    analytics.Thresholds
	metrics       *metrics.Metrics
	datasets      *cache.Cache[*Dataset]
	sessions      *ingest.SessionStore
	backend       StationSource

	memoMu sync.Mutex
	memos  map[string]*dashboard.Memo
}

// NewHandler constructs the HTTP handler that serves the dashboard API.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	ttl := opts.DatasetTTL
	if ttl <= 0 {
		ttl = constants.DefaultDatasetTTLSeconds * time.Second
	}

	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "dev"
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       version,
		thresholds:    opts.Thresholds.WithDefaults(),
		metrics:       opts.Metrics,
		datasets:      cache.New[*Dataset](ttl, opts.MaxDatasets, opts.Metrics),
		sessions:      opts.Sessions,
		backend:       opts.Backend,
		memos:         make(map[string]*dashboard.Memo),
	}

	r := mux.NewRouter()
	route := func(path string, fn http.HandlerFunc, methods ...string) {
		r.Handle(path, h.metrics.WrapHandler(path, fn)).Methods(methods...)
	}

	route("/api/upload", h.handleUpload, http.MethodPost)
	route("/api/derive", h.handleDerive, http.MethodPost)
	route("/api/datasets/{id}", h.handleDataset, http.MethodGet)
	route("/api/datasets/{id}", h.handleDeleteDataset, http.MethodDelete)
	route("/api/datasets/{id}/charts/{kind:[a-z]+}.png", h.handleChart, http.MethodGet)
	route("/api/stations", h.handleStations, http.MethodGet)
	route("/api/stations/{station}", h.handleStation, http.MethodGet)
	route("/api/thresholds", h.handleThresholds, http.MethodGet)
	route("/api/version", h.handleVersion, http.MethodGet)
	route("/healthz", h.handleHealth, http.MethodGet)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	var out http.Handler = r
	out = handlers.CompressHandler(out)
	if len(opts.AllowedOrigins) > 0 {
		out = handlers.CORS(
			handlers.AllowedOrigins(opts.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(out)
	}
	out = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger)),
		handlers.PrintRecoveryStack(true),
	)(out)
	return out
}

type deriveResponse struct {
	ID       string         `json:"id"`
	View     dashboard.View `json:"view"`
	Warnings []string       `json:"warnings,omitempty"`
	Duration string         `json:"duration"`
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing session file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	table, err := upload.ParseSessions(file)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, upload.ErrEmptyUpload) && !errors.Is(err, upload.ErrMissingColumns) {
			status = http.StatusUnprocessableEntity
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	state := dashboard.State{Sessions: table.Records}
	if v := strings.TrimSpace(r.FormValue("contract_kw")); v != "" {
		state.ContractKW = v
	}

	var warnings []string
	if table.Skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d blank rows skipped", table.Skipped))
	}
	if stations := table.Stations(); len(stations) > 1 {
		warnings = append(warnings, fmt.Sprintf("upload mixes %d stations; sessions are charted together", len(stations)))
	}

	h.derive(w, state, "upload", warnings, start, op)
}

func (h *handler) handleDerive(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDerive"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var state dashboard.State
	if err := dec.Decode(&state); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode state: %v", err), op)
		return
	}

	h.derive(w, state, "derive", nil, start, op)
}

func (h *handler) derive(w http.ResponseWriter, state dashboard.State, source string, warnings []string, start time.Time, op string) {
	view := dashboard.Recompute(state, h.thresholds)
	h.publish(w, view, source, warnings, start, op)
}

// publish stores view as a new dataset and writes it to the client.
func (h *handler) publish(w http.ResponseWriter, view dashboard.View, source string, warnings []string, start time.Time, op string) {
	h.metrics.ObserveDerive(time.Since(start))

	ds := &Dataset{
		ID:      uuid.NewString(),
		Created: time.Now().UTC(),
		Source:  source,
		View:    view,
	}
	h.datasets.Set(ds.ID, ds)
	h.metrics.SetDatasets(h.datasets.Len())

	elapsed := time.Since(start)
	h.logger.Info("view derived",
		zap.String("op", op),
		zap.String("dataset", ds.ID),
		zap.Int("sessions", len(view.Sessions)),
		zap.Int("scenarios", len(view.Scenarios)),
		zap.Bool("overfitRisk", view.Overfit.IsRisk),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, deriveResponse{
		ID:       ds.ID,
		View:     view,
		Warnings: warnings,
		Duration: elapsed.String(),
	})
}

func (h *handler) handleDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.lookupDataset(w, r, "server.handleDataset")
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, ds)
}

func (h *handler) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteDataset"
	ds, ok := h.lookupDataset(w, r, op)
	if !ok {
		return
	}
	h.datasets.Delete(ds.ID)
	h.metrics.SetDatasets(h.datasets.Len())
	h.logger.Info("dataset deleted", zap.String("op", op), zap.String("dataset", ds.ID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleChart(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleChart"
	ds, ok := h.lookupDataset(w, r, op)
	if !ok {
		return
	}

	kind, err := render.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, kind, ds.View, chartOptions(r)); err != nil {
		if errors.Is(err, render.ErrNoData) {
			h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("dataset has no %s data", kind), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write chart", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) handleStations(w http.ResponseWriter, r *http.Request) {
	stations := []string{}
	if h.sessions != nil {
		stations = h.sessions.Stations()
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"stations": stations})
}

// handleStation merges buffered live sessions with the backend prediction
// for the station. Live sessions replace any sessions the backend returned.
func (h *handler) handleStation(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleStation"
	start := time.Now()
	station := mux.Vars(r)["station"]

	var state dashboard.State
	found := false

	if h.backend != nil {
		fetched, err := h.backend.FetchStation(r.Context(), station)
		h.metrics.BackendRequest(time.Since(start), err == nil)
		if err != nil {
			h.logger.Warn("backend lookup failed",
				zap.String("op", op),
				zap.String("station", station),
				zap.Error(err),
			)
		} else {
			state = fetched
			found = true
		}
	}

	if h.sessions != nil {
		if records := h.sessions.Records(station); len(records) > 0 {
			state.Sessions = records
			found = true
		}
	}

	if !found {
		h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("no data for station %q", station), op)
		return
	}
	h.publish(w, h.stationMemo(station).View(state), "station:"+station, nil, start, op)
}

// stationMemo returns the memo for station, creating it on first use.
// Repeated polls of an unchanged station reuse the previous view.
func (h *handler) stationMemo(station string) *dashboard.Memo {
	h.memoMu.Lock()
	defer h.memoMu.Unlock()
	m, ok := h.memos[station]
	if !ok {
		m = dashboard.NewMemo(h.thresholds)
		h.memos[station] = m
	}
	return m
}

func (h *handler) handleThresholds(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") != "yaml" {
		h.writeJSON(w, http.StatusOK, h.thresholds)
		return
	}

	out, err := yaml.Marshal(map[string]analytics.Thresholds{"thresholds": h.thresholds})
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), "server.handleThresholds")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) lookupDataset(w http.ResponseWriter, r *http.Request, op string) (*Dataset, bool) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid dataset id %q", id), op)
		return nil, false
	}
	ds, ok := h.datasets.Get(id)
	if !ok {
		h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("dataset %s not found or expired", id), op)
		return nil, false
	}
	return ds, true
}

func chartOptions(r *http.Request) render.Options {
	var opts render.Options
	q := r.URL.Query()
	if v, err := parseDimension(q.Get("width")); err == nil {
		opts.Width = v
	}
	if v, err := parseDimension(q.Get("height")); err == nil {
		opts.Height = v
	}
	return opts
}

// parseDimension accepts pixel sizes between 100 and 4000.
func parseDimension(s string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return 0, err
	}
	if v < 100 || v > 4000 {
		return 0, fmt.Errorf("dimension %d out of range", v)
	}
	return v, nil
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}
