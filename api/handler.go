// Package api exposes the launch cache over HTTP.
//
// Reads are served from the tracker's in-memory snapshot and never wait on a refresh.
// POST /api/v1/refresh runs (or joins) a refresh and reports its outcome; stale data keeps
// being served by the read endpoints when it fails.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/tfkr-ae/deltav"
	"github.com/tfkr-ae/deltav/domain"
	"github.com/tfkr-ae/deltav/logger"
)

const defaultHistoryLimit = 20

// Handler serves the HTTP API for a tracker.
type Handler struct {
	tracker *deltav.Tracker
	log     *logrus.Logger
}

// NewHandler creates a handler. A nil logger discards everything.
func NewHandler(tracker *deltav.Tracker, log *logrus.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{tracker: tracker, log: log}
}

// Router returns a router serving /health and the /api/v1 routes.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(logging(h.log))
	router.Use(recovery(h.log))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	h.Register(router.PathPrefix("/api/v1").Subrouter())
	return router
}

// Register adds the API routes to router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/launches", h.handleLaunches).Methods(http.MethodGet)
	router.HandleFunc("/launches/{id}", h.handleLaunch).Methods(http.MethodGet)
	router.HandleFunc("/state", h.handleState).Methods(http.MethodGet)
	router.HandleFunc("/refresh", h.handleRefresh).Methods(http.MethodPost)
	router.HandleFunc("/refreshes", h.handleRefreshes).Methods(http.MethodGet)
	router.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
}

func (h *Handler) handleLaunches(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.tracker.Launches())
}

func (h *Handler) handleLaunch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	launch, err := h.tracker.Repo.GetLaunch(id)
	if err != nil {
		if errors.Is(err, domain.ErrLaunchNotFound) {
			h.writeError(w, http.StatusNotFound, "launch not found")
			return
		}
		h.log.WithError(err).WithField("launch_id", id).Error("failed to fetch launch")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, launch)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	status := h.tracker.Status()
	h.writeJSON(w, http.StatusOK, DeriveState(h.tracker.Launches(), status))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refresh, err := h.tracker.Refresh(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, deltav.ErrNoSource) || errors.Is(err, deltav.ErrNoRepository) || errors.Is(err, deltav.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		h.writeJSON(w, status, map[string]any{
			"error":   err.Error(),
			"refresh": refresh,
		})
		return
	}
	h.writeJSON(w, http.StatusOK, refresh)
}

func (h *Handler) handleRefreshes(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	refreshes, err := h.tracker.Repo.GetRefreshes(limit)
	if err != nil {
		h.log.WithError(err).Error("failed to fetch refresh history")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, refreshes)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tracker.Repo.GetStats()
	if err != nil {
		h.log.WithError(err).Error("failed to fetch stats")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// writeJSON sends body with status. The header is already out when encoding fails, so the
// failure is only logged.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.WithError(err).WithField("status", status).Warn("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
