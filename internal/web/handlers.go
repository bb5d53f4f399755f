package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/cjeanneret/SkyGrid/internal/config"
	"github.com/cjeanneret/SkyGrid/internal/debug"
	"github.com/cjeanneret/SkyGrid/internal/logic/geometry"
	"github.com/cjeanneret/SkyGrid/internal/logic/plan"
	"github.com/cjeanneret/SkyGrid/internal/metrics"
	"github.com/cjeanneret/SkyGrid/internal/render"
)

// maxRequestBytes caps the POST /plans body.
const maxRequestBytes = 1 << 20

// MaxPlanWaypoints caps the size of a plan computed for one HTTP request.
// Stored plans are kept in memory, so this is far below plan.MaxWaypoints.
const MaxPlanWaypoints = 10_000

// ErrInvalidRequest is returned by a PlanFunc when the overrides produce a
// configuration that fails validation.
var ErrInvalidRequest = errors.New("invalid plan request")

// PlanRequest is the POST /plans body: scan overrides plus an optional title.
// Zero values keep the configured scan parameters.
type PlanRequest struct {
	config.Overrides
	Title string `json:"title"`
}

// PlanFunc computes a plan for the given overrides.
type PlanFunc func(ctx context.Context, overrides config.Overrides) (*plan.Plan, error)

// NewConfigPlanner returns a PlanFunc that applies the overrides to base and
// builds the plan with its camera. Plans above MaxPlanWaypoints are refused.
func NewConfigPlanner(base *config.Config) PlanFunc {
	return func(ctx context.Context, o config.Overrides) (*plan.Plan, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cfg := config.ApplyOverrides(base, o)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		cam, spec := cfg.CameraModel(), cfg.DatasetSpec()
		layout, err := plan.ComputeGridLayout(cam, spec)
		if err != nil {
			return nil, err
		}
		if n := layout.Count(); n > MaxPlanWaypoints {
			return nil, fmt.Errorf("%w: %d waypoints, at most %d per request", plan.ErrGridTooDense, n, MaxPlanWaypoints)
		}
		return plan.Build(cam, spec)
	}
}

// FormConfig holds default values for the plan form (from config).
type FormConfig struct {
	CameraName      string  `json:"camera_name"`
	HeightM         float64 `json:"height_m"`
	Overlap         float64 `json:"overlap"`
	Sidelap         float64 `json:"sidelap"`
	ScanDimensionXM float64 `json:"scan_dimension_x_m"`
	ScanDimensionYM float64 `json:"scan_dimension_y_m"`
	ExposureTimeMs  float64 `json:"exposure_time_ms"`
	CameraAngleDeg  float64 `json:"camera_angle_deg"`
}

// FormDefaults extracts the form defaults from a loaded config.
func FormDefaults(cfg *config.Config) FormConfig {
	return FormConfig{
		CameraName:      cfg.Camera.Name,
		HeightM:         cfg.Scan.HeightM,
		Overlap:         cfg.Scan.Overlap,
		Sidelap:         cfg.Scan.Sidelap,
		ScanDimensionXM: cfg.Scan.ScanDimensionXM,
		ScanDimensionYM: cfg.Scan.ScanDimensionYM,
		ExposureTimeMs:  cfg.Scan.ExposureTimeMs,
		CameraAngleDeg:  cfg.Scan.CameraAngleDeg,
	}
}

// PlanResponse is returned by POST /plans and GET /plans/{id}.
type PlanResponse struct {
	ID        string           `json:"id"`
	Title     string           `json:"title,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Summary   plan.Summary     `json:"summary"`
	Layout    *plan.GridLayout `json:"layout,omitempty"`
	Waypoints []plan.Waypoint  `json:"waypoints"`
}

func newPlanResponse(sp *StoredPlan) PlanResponse {
	return PlanResponse{
		ID:        sp.ID,
		Title:     sp.Title,
		CreatedAt: sp.CreatedAt,
		Summary:   sp.Summary,
		Layout:    sp.Plan.Layout,
		Waypoints: sp.Plan.Waypoints,
	}
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster  *StatusBroadcaster
	Store        *PlanStore
	Plan         PlanFunc
	FormDefaults FormConfig
	staticFS     fs.FS
}

// NewHandlers creates handlers with the given dependencies.
// If planFn is nil, POST /plans will return 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, store *PlanStore, planFn PlanFunc, formDefaults FormConfig, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster:  broadcaster,
		Store:        store,
		Plan:         planFn,
		FormDefaults: formDefaults,
		staticFS:     staticFS,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: encode response: %v", err)
	}
}

// statusForPlanError maps a plan computation error to an HTTP status.
func statusForPlanError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, plan.ErrInvalidSpec),
		errors.Is(err, plan.ErrZeroExposure),
		errors.Is(err, plan.ErrGridTooDense),
		errors.Is(err, geometry.ErrInvalidCamera),
		errors.Is(err, geometry.ErrInvalidDistance),
		errors.Is(err, geometry.ErrZeroDepth):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HandleConfig returns the form default values (from config) as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.FormDefaults)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleCreatePlan handles POST /plans: compute, store and return a plan.
func (h *Handlers) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PlanRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := config.ValidateOverrides(req.Overrides); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.Plan == nil {
		http.Error(w, "planner not configured", http.StatusServiceUnavailable)
		return
	}

	p, err := h.Plan(r.Context(), req.Overrides)
	metrics.ObservePlan(planSize(p), err)
	if err != nil {
		h.Broadcaster.Broadcast(LevelError, "Plan failed: "+err.Error())
		http.Error(w, err.Error(), statusForPlanError(err))
		return
	}

	sp := h.Store.Add(req.Title, p)
	debug.Live("Plan %s stored: %d waypoints", sp.ID, sp.Summary.Waypoints)
	h.Broadcaster.PlanReady(sp.ID, sp.Summary)
	writeJSON(w, http.StatusCreated, newPlanResponse(sp))
}

func planSize(p *plan.Plan) int {
	if p == nil {
		return 0
	}
	return len(p.Waypoints)
}

// HandleListPlans handles GET /plans: summaries of the stored plans, newest first.
func (h *Handlers) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.List())
}

// lookupPlan resolves the {id} path value or writes a 404.
func (h *Handlers) lookupPlan(w http.ResponseWriter, r *http.Request) (*StoredPlan, bool) {
	id := r.PathValue("id")
	sp, ok := h.Store.Get(id)
	if !ok {
		http.Error(w, fmt.Sprintf("plan %q not found", id), http.StatusNotFound)
		return nil, false
	}
	return sp, true
}

// HandleGetPlan handles GET /plans/{id}.
func (h *Handlers) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	sp, ok := h.lookupPlan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newPlanResponse(sp))
}

// HandleExport handles GET /plans/{id}/export?format=json|yaml|csv.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	sp, ok := h.lookupPlan(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatJSON
	}

	var buf bytes.Buffer
	if err := render.Write(&buf, format, sp.Plan); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", render.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "plan-"+sp.ID+"."+format))
	w.Write(buf.Bytes())
}

// HandlePlot handles GET /plans/{id}/plot.png.
func (h *Handlers) HandlePlot(w http.ResponseWriter, r *http.Request) {
	sp, ok := h.lookupPlan(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.WriteFigure(&buf, sp.Plan, sp.Title, "png"); err != nil {
		log.Printf("web: render plot %s: %v", sp.ID, err)
		http.Error(w, "failed to render plot", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// HandleChart handles GET /plans/{id}/chart.
func (h *Handlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	sp, ok := h.lookupPlan(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.WriteChart(&buf, sp.Plan, sp.Title); err != nil {
		log.Printf("web: render chart %s: %v", sp.ID, err)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
