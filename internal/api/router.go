package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/harrylevesque/revisitor/internal/auth"
	"github.com/harrylevesque/revisitor/internal/export"
	"github.com/harrylevesque/revisitor/internal/feedback"
	"github.com/harrylevesque/revisitor/internal/models"
	"github.com/harrylevesque/revisitor/internal/notes"
	"github.com/harrylevesque/revisitor/internal/relays"
	"github.com/harrylevesque/revisitor/internal/review"
)

// Services are the collaborators the HTTP handlers call into.
type Services struct {
	Identity  *auth.Identity
	Fetcher   *notes.Fetcher
	Profiles  *notes.Profiles
	Publisher *notes.Publisher
	Tracker   *review.Tracker
	Feedback  *feedback.Service
	Exporter  *export.Exporter
	Relays    *relays.Selection
	Presets   []models.RelayPreset
	Logger    *zap.Logger
	Now       func() time.Time
}

type handlers struct {
	*Services
	logger *zap.Logger
	now    func() time.Time
}

func NewRouter(s *Services) *mux.Router {
	h := &handlers{Services: s, logger: s.Logger, now: s.Now}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}

	r := mux.NewRouter()
	r.Use(h.logRequests)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")
	r.HandleFunc("/time", h.getTime).Methods("GET")

	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/me", h.getMe).Methods("GET")

	a.HandleFunc("/notes", h.listNotes).Methods("GET")
	a.HandleFunc("/notes/{id}/content", h.noteContent).Methods("GET")
	a.HandleFunc("/notes/{id}/nevent", h.noteNevent).Methods("GET")
	a.HandleFunc("/notes/{id}/boost", h.boostNote).Methods("POST")
	a.HandleFunc("/notes/{id}/quote", h.quoteNote).Methods("POST")

	a.HandleFunc("/review/queue", h.reviewQueue).Methods("GET")
	a.HandleFunc("/review/stats", h.reviewStats).Methods("GET")
	a.HandleFunc("/review/{id}", h.getProgress).Methods("GET")
	a.HandleFunc("/review/{id}", h.markReviewed).Methods("POST")
	a.HandleFunc("/review/{id}", h.resetProgress).Methods("DELETE")

	a.HandleFunc("/export", h.exportNotes).Methods("GET")

	a.HandleFunc("/relays", h.searchRelays).Methods("GET")
	a.HandleFunc("/relays", h.selectRelay).Methods("POST")
	a.HandleFunc("/relays", h.resetRelay).Methods("DELETE")

	a.HandleFunc("/feedback", h.feedbackState).Methods("GET")
	a.HandleFunc("/feedback", h.submitFeedback).Methods("POST")
	a.HandleFunc("/feedback/dismiss", h.dismissFeedback).Methods("POST")
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Info("http request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
