// Package api exposes the HTTP surface: event ingestion, alert queries
// and lifecycle, stats, runtime configuration, and pattern registration.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"watchtower/config"
	"watchtower/core"
	"watchtower/service"
)

// maxBodyBytes bounds request bodies on every mutating endpoint.
const maxBodyBytes = 1 << 20

// API owns the router and its handlers.
type API struct {
	router  *mux.Router
	monitor *service.SecurityMonitor
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

// NewAPI builds the router.
func NewAPI(cfg config.APIConfig, monitor *service.SecurityMonitor, logger *zap.SugaredLogger) *API {
	a := &API{
		router:  mux.NewRouter(),
		monitor: monitor,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
		logger:  logger,
	}
	a.routes()
	return a
}

// Router returns the configured handler.
func (a *API) Router() http.Handler {
	return a.router
}

func (a *API) routes() {
	a.router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	a.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := a.router.PathPrefix("/api").Subrouter()
	api.Use(a.rateLimit)
	api.HandleFunc("/events", a.handleSubmitEvent).Methods(http.MethodPost)
	api.HandleFunc("/alerts", a.handleGetAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{id}/acknowledge", a.handleAcknowledge).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{id}/resolve", a.handleResolve).Methods(http.MethodPost)
	api.HandleFunc("/stats", a.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/config", a.handleUpdateConfig).Methods(http.MethodPut)
	api.HandleFunc("/patterns", a.handleAddPattern).Methods(http.MethodPost)
	api.HandleFunc("/patterns", a.handleGetPatterns).Methods(http.MethodGet)
}

// rateLimit applies the global request throttle.
func (a *API) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.limiter.Allow() {
			a.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	var event core.SecurityEvent
	if err := decodeJSON(w, r, &event); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := a.monitor.SubmitSecurityEvent(&event)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.writeJSON(w, http.StatusCreated, stored)
}

func (a *API) handleGetAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			a.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	a.writeJSON(w, http.StatusOK, a.monitor.GetRecentAlerts(limit))
}

func (a *API) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !a.monitor.AcknowledgeAlert(id) {
		a.writeError(w, http.StatusNotFound, fmt.Sprintf("alert %s not found", id))
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{"alert_id": id, "acknowledged": true})
}

func (a *API) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !a.monitor.ResolveAlert(id) {
		a.writeError(w, http.StatusNotFound, fmt.Sprintf("alert %s not found", id))
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{"alert_id": id, "resolved": true})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	var window time.Duration
	if raw := r.URL.Query().Get("window_minutes"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			a.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid window_minutes %q", raw))
			return
		}
		window = time.Duration(minutes) * time.Minute
	}
	a.writeJSON(w, http.StatusOK, a.monitor.GetStats(window))
}

func (a *API) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var update config.Update
	if err := decodeJSON(w, r, &update); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.monitor.UpdateConfig(update); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (a *API) handleAddPattern(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "reading request body")
		return
	}

	if err := validatePatternJSON(body); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var rule core.PatternRule
	if err := json.Unmarshal(body, &rule); err != nil {
		a.writeError(w, http.StatusBadRequest, "decoding pattern rule")
		return
	}

	if err := a.monitor.AddPattern(&rule); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.writeJSON(w, http.StatusCreated, rule)
}

func (a *API) handleGetPatterns(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, a.monitor.Patterns())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Errorf("Failed to encode response: %v", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]string{"error": message})
}
