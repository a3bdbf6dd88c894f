// Package httpapi serves the dashboard JSON API plus health, readiness, and
// metrics endpoints. It is a pure consumer of the query facade: every
// response is derived from the immutable dataset snapshot.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/observability"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/query"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dashboard API over one net/http server.
type Server struct {
	httpServer  *http.Server
	facade      *query.Facade
	defaultTopN int
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewServer creates the API server. defaultTopN sizes /api/top and the
// summary ranking when the request carries no n parameter.
func NewServer(addr string, facade *query.Facade, defaultTopN int, ready ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		facade:      facade,
		defaultTopN: defaultTopN,
		metrics:     metrics,
		logger:      logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/timeseries", s.handleTimeseries)
	mux.HandleFunc("GET /api/top", s.handleTop)
	mux.HandleFunc("GET /api/locations", s.handleLocations)
	mux.HandleFunc("GET /api/country/{name}", s.handleCountry)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type summaryResponse struct {
	LatestDate string               `json:"latest_date"`
	Totals     query.Totals         `json:"totals"`
	Top        []query.CountryTotal `json:"top"`
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	resp := summaryResponse{
		LatestDate: s.facade.LatestDate().Format("2006-01-02"),
		Totals:     s.facade.GlobalTotals(),
		Top:        s.facade.TopN(query.MetricConfirmed, s.defaultTopN),
	}
	s.writeOK(w, "summary", resp)
}

type timeseriesResponse struct {
	Metric query.Metric      `json:"metric"`
	Points []query.TimePoint `json:"points"`
}

func (s *Server) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	metric, err := query.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		s.writeError(w, "timeseries", http.StatusBadRequest, err)
		return
	}

	var points []query.TimePoint
	for p := range s.facade.Timeseries(metric) {
		points = append(points, p)
	}
	s.writeOK(w, "timeseries", timeseriesResponse{Metric: metric, Points: points})
}

type topResponse struct {
	Metric    query.Metric         `json:"metric"`
	Countries []query.CountryTotal `json:"countries"`
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	metric, err := query.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		s.writeError(w, "top", http.StatusBadRequest, err)
		return
	}

	n := s.defaultTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, "top", http.StatusBadRequest, errBadN)
			return
		}
	}

	s.writeOK(w, "top", topResponse{Metric: metric, Countries: s.facade.TopN(metric, n)})
}

func (s *Server) handleLocations(w http.ResponseWriter, _ *http.Request) {
	s.writeOK(w, "locations", s.facade.LatestByLocation())
}

type countryResponse struct {
	Country string            `json:"country"`
	Rows    []query.DetailRow `json:"rows"`
}

func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rows := s.facade.CountryDetail(name)
	if len(rows) == 0 {
		s.metrics.QueryRequests.WithLabelValues("country", "404").Inc()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown country"})
		return
	}
	s.writeOK(w, "country", countryResponse{Country: name, Rows: rows})
}

func (s *Server) writeOK(w http.ResponseWriter, endpoint string, v any) {
	s.metrics.QueryRequests.WithLabelValues(endpoint, "200").Inc()
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) writeError(w http.ResponseWriter, endpoint string, status int, err error) {
	s.metrics.QueryRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

var errBadN = errors.New("n must be a positive integer")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
