package hud

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/DrFREEST/omcm/calllog"
	"github.com/DrFREEST/omcm/fallback"
	"github.com/DrFREEST/omcm/state"
)

// ControlAPI serves routing state and fallback controls over HTTP for local
// monitors. It binds to loopback only; there is no auth layer.
type ControlAPI struct {
	mux          *http.ServeMux
	fusion       *state.FusionStore
	limits       *state.LimitsStore
	orchestrator *fallback.Orchestrator
	calls        *calllog.Buffer
	metrics      *MetricBuffer
	config       any
}

func NewControlAPI(fusion *state.FusionStore, limits *state.LimitsStore, orch *fallback.Orchestrator, calls *calllog.Buffer, metrics *MetricBuffer, config any) *ControlAPI {
	api := &ControlAPI{
		mux:          http.NewServeMux(),
		fusion:       fusion,
		limits:       limits,
		orchestrator: orch,
		calls:        calls,
		metrics:      metrics,
		config:       config,
	}
	api.mux.HandleFunc("GET /fusion", api.handleFusion)
	api.mux.HandleFunc("GET /limits", api.handleLimits)
	api.mux.HandleFunc("GET /fallback", api.handleFallback)
	api.mux.HandleFunc("GET /calls", api.handleCalls)
	api.mux.HandleFunc("GET /stats", api.handleStats)
	api.mux.HandleFunc("GET /metrics", api.handleMetrics)
	api.mux.HandleFunc("GET /config", api.handleConfig)
	api.mux.HandleFunc("POST /fallback/activate", api.handleActivate)
	api.mux.HandleFunc("POST /fallback/recover", api.handleRecover)
	return api
}

func (a *ControlAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *ControlAPI) handleFusion(w http.ResponseWriter, r *http.Request) {
	st, _ := a.fusion.Load(r.URL.Query().Get("session"))
	writeJSON(w, st)
}

func (a *ControlAPI) handleLimits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.limits.Load())
}

func (a *ControlAPI) handleFallback(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.orchestrator.State())
}

func (a *ControlAPI) handleCalls(w http.ResponseWriter, r *http.Request) {
	entries := a.calls.Entries()
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}
	writeJSON(w, entries)
}

func (a *ControlAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.calls.Stats())
}

func (a *ControlAPI) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if a.metrics == nil {
		writeJSON(w, []MetricSummary{})
		return
	}
	if agent := r.URL.Query().Get("agent"); agent != "" {
		writeJSON(w, a.metrics.AgentMetrics(agent))
		return
	}
	writeJSON(w, a.metrics.Metrics())
}

func (a *ControlAPI) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.config)
}

func (a *ControlAPI) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model  string `json:"model"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Model == "" {
		req.Model = state.FallbackChain[1].ID
	}
	st, err := a.orchestrator.ManualFallback(req.Model, req.Reason)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadRequest)
		return
	}
	writeJSON(w, st)
}

func (a *ControlAPI) handleRecover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	// An empty body is fine for recover.
	_ = json.NewDecoder(r.Body).Decode(&req)

	st, err := a.orchestrator.RecoverToPrimary(req.Reason)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusInternalServerError)
		return
	}
	writeJSON(w, st)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
