package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Store answers substring queries over the loaded dataset.
type Store interface {
	Search(query string, limit int) ([]string, error)
}

type Server struct {
	store      Store
	maxResults int
	limiter    *rate.Limiter
	log        logrus.FieldLogger
}

// New builds a search server. A requestsPerSecond of zero disables rate
// limiting.
func New(store Store, maxResults int, requestsPerSecond float64, log logrus.FieldLogger) *Server {
	limit := rate.Inf
	burst := 0
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		burst = max(1, int(requestsPerSecond))
	}

	return &Server{
		store:      store,
		maxResults: maxResults,
		limiter:    rate.NewLimiter(limit, burst),
		log:        log,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", s.handleSearch)
	return mux
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	// The GET pattern also matches HEAD.
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	q := r.URL.Query().Get("q")

	results := []string{}
	if q != "" {
		found, err := s.store.Search(q, s.maxResults)
		if err != nil {
			s.log.WithError(err).WithField("query", q).Error("search failed")
			http.Error(w, "search failed", http.StatusInternalServerError)
			return
		}
		if found != nil {
			results = found
		}
	}

	s.log.WithFields(logrus.Fields{"query": q, "results": len(results)}).Debug("search")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		s.log.WithError(err).Warn("failed to write response")
	}
}
