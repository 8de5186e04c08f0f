package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"watchpost/internal/models"
	"watchpost/internal/store"
	"watchpost/internal/uptime"
)

// Server holds handler dependencies.
type Server struct {
	store *store.Store
	calc  *uptime.Calculator
	log   zerolog.Logger
}

// MonitorStatus is a monitor together with its latest check and any open
// downtime, the shape dashboards list.
type MonitorStatus struct {
	Monitor      *models.Monitor  `json:"monitor"`
	LatestCheck  *models.Check    `json:"latest_check"`
	OpenDowntime *models.Downtime `json:"open_downtime"`
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListMonitors returns all monitors with their current status.
func (s *Server) ListMonitors(w http.ResponseWriter, r *http.Request) {
	monitors, err := s.store.Monitors(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}

	out := make([]MonitorStatus, 0, len(monitors))
	for _, m := range monitors {
		status := MonitorStatus{Monitor: m}
		if check, err := s.store.LatestCheck(r.Context(), m.ID); err == nil {
			status.LatestCheck = check
		}
		if dt, err := s.store.OpenDowntime(r.Context(), m.ID); err == nil {
			status.OpenDowntime = dt
		}
		out = append(out, status)
	}

	writeJSON(w, http.StatusOK, out)
}

// GetMonitor returns one monitor with its current status.
func (s *Server) GetMonitor(w http.ResponseWriter, r *http.Request) {
	id, ok := s.monitorID(w, r)
	if !ok {
		return
	}

	monitor, err := s.store.MonitorByID(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if monitor == nil {
		http.Error(w, "monitor not found", http.StatusNotFound)
		return
	}

	status := MonitorStatus{Monitor: monitor}
	if check, err := s.store.LatestCheck(r.Context(), id); err == nil {
		status.LatestCheck = check
	}
	if dt, err := s.store.OpenDowntime(r.Context(), id); err == nil {
		status.OpenDowntime = dt
	}

	writeJSON(w, http.StatusOK, status)
}

// ListChecks returns recent checks for a monitor.
func (s *Server) ListChecks(w http.ResponseWriter, r *http.Request) {
	id, ok := s.monitorID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	checks, err := s.store.Checks(r.Context(), id, limit)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checks)
}

// ListDowntimes returns recent downtimes for a monitor.
func (s *Server) ListDowntimes(w http.ResponseWriter, r *http.Request) {
	id, ok := s.monitorID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	downtimes, err := s.store.Downtimes(r.Context(), id, limit)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, downtimes)
}

// UptimeStats returns uptime percentages over the standard windows.
func (s *Server) UptimeStats(w http.ResponseWriter, r *http.Request) {
	id, ok := s.monitorID(w, r)
	if !ok {
		return
	}

	day, err := s.calc.Last24Hours(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	week, err := s.calc.Last7Days(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	month, err := s.calc.Last30Days(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	quarter, err := s.calc.Last90Days(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*uptime.Stats{
		"24h": day,
		"7d":  week,
		"30d": month,
		"90d": quarter,
	})
}

func (s *Server) monitorID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		http.Error(w, "invalid monitor id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
