package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/harvest"
	"github.com/ngmonitor/courtharvest/internal/metrics"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires the operator HTTP handlers to the court registry and store.
type Server struct {
	router chi.Router
	logger *zap.Logger
	courts []harvest.Court
	store  harvest.Store
	pinger Pinger
}

// NewServer constructs a Server with middleware and routes. pinger may be nil
// when no database readiness check is wanted.
func NewServer(logger *zap.Logger, courts []harvest.Court, store harvest.Store, pinger Pinger) *Server {
	s := &Server{
		logger: logger,
		courts: courts,
		store:  store,
		pinger: pinger,
	}
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/courts", func(r chi.Router) {
			r.Get("/", s.listCourts)
			r.Get("/{identifier}", s.getCourt)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type courtSummary struct {
	Identifier  string `json:"identifier"`
	Category    string `json:"category"`
	NameLocal   string `json:"name_local"`
	NameEnglish string `json:"name_english"`
	PortalID    int    `json:"portal_id,omitempty"`
}

type courtDetail struct {
	courtSummary
	// DatesScraped counts the checkpointed (court, date) units.
	DatesScraped int `json:"dates_scraped"`
}

func (s *Server) listCourts(w http.ResponseWriter, _ *http.Request) {
	out := make([]courtSummary, 0, len(s.courts))
	for _, c := range s.courts {
		out = append(out, summarize(c))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"courts": out})
}

func (s *Server) getCourt(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	for _, c := range s.courts {
		if c.Identifier != identifier {
			continue
		}
		dates, err := s.store.ScrapedDates(r.Context(), identifier)
		if err != nil {
			s.logger.Error("Failed to load scraped dates", zap.String("court", identifier), zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "failed to load harvest progress")
			return
		}
		s.writeJSON(w, http.StatusOK, courtDetail{courtSummary: summarize(c), DatesScraped: len(dates)})
		return
	}
	s.writeError(w, http.StatusNotFound, "court not found")
}

func summarize(c harvest.Court) courtSummary {
	return courtSummary{
		Identifier:  c.Identifier,
		Category:    string(c.Category),
		NameLocal:   c.NameLocal,
		NameEnglish: c.NameEnglish,
		PortalID:    c.PortalID,
	}
}

type requestIDKey struct{}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("Request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
