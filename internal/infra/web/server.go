package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/ports/repository"
)

// Server exposes the operational HTTP surface: health, metrics and a small
// JWT-guarded admin API for inspecting and evicting user sessions.
type Server struct {
	sessions repository.SessionRepository
	auth     *AuthManager
	apiKey   string
	log      *zerolog.Logger
}

func NewServer(sessions repository.SessionRepository, auth *AuthManager, apiKey string, logger *zerolog.Logger) *Server {
	return &Server{sessions: sessions, auth: auth, apiKey: apiKey, log: logger}
}

// Router builds the chi router with all routes attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID)
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/sessions", s.handleCountSessions)
			r.Get("/sessions/{tgID}", s.handleGetSession)
			r.Delete("/sessions/{tgID}", s.handleDeleteSession)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogin trades the static API key for a short-lived session cookie.
// The key arrives as a Bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.apiKey == "" {
		s.log.Error().Msg("admin API key is not configured")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	key := bearerToken(r)
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleCountSessions reports how many forms are currently in flight.
// Not every store can enumerate its sessions, so counting is optional.
func (s *Server) handleCountSessions(w http.ResponseWriter, r *http.Request) {
	counter, ok := s.sessions.(interface {
		Count(ctx context.Context) (int, error)
	})
	if !ok {
		http.Error(w, "not supported", http.StatusNotImplemented)
		return
	}
	n, err := counter.Count(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"active": n})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	tgID, ok := parseTgID(w, r)
	if !ok {
		return
	}
	sess, err := s.sessions.Get(r.Context(), tgID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	tgID, ok := parseTgID(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Delete(r.Context(), tgID); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireAdmin rejects requests without a valid admin token.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseTgID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tgID"), 10, 64)
	if err != nil {
		http.Error(w, "bad user id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return strings.TrimSpace(hdr[7:])
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HTTPServer builds the listener; the caller owns ListenAndServe and
// Shutdown.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
