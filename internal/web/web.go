// Package web exposes a small status API over the persisted sync state:
// /health for liveness and /api/status for the last run's outcome.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"shiftsync/internal/config"
	appLog "shiftsync/internal/log"
	"shiftsync/internal/state"
)

// Server provides the status HTTP endpoints.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux
}

// statusResponse is the /api/status payload.
type statusResponse struct {
	LastRun        *time.Time `json:"last_run"`
	StaleHours     *float64   `json:"stale_hours,omitempty"`
	OpenShifts     int        `json:"open_shifts"`
	PickedShifts   int        `json:"picked_shifts"`
	ScheduledItems int        `json:"scheduled_shifts"`
	TotalSynced    int        `json:"total_synced"`
}

// NewServer constructs a Server over the given config.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
}

// Handler returns the HTTP handler, wrapped with basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("web: HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStatus reads the state file on every request; the file is small and
// this keeps the server free of shared mutable state with the sync run.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := state.Load(s.cfg.StatePath)

	resp := statusResponse{
		LastRun:        st.LastRun,
		OpenShifts:     len(st.Open),
		PickedShifts:   len(st.Picked),
		ScheduledItems: len(st.Scheduled),
		TotalSynced:    st.Total(),
	}
	if st.LastRun != nil {
		h := time.Since(*st.LastRun).Hours()
		resp.StaleHours = &h
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		appLog.Warn("web: status encode failed", "err", err)
	}
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="shiftsync", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Start runs the status server on cfg.Listen. It blocks; callers run it in
// a goroutine alongside the sync scheduler.
func Start(cfg *config.Config) error {
	s := NewServer(cfg)
	appLog.Info("web: starting status server", "listen", "http://"+cfg.Listen)
	return http.ListenAndServe(cfg.Listen, s.Handler())
}
