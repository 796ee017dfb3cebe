// Package server exposes the tetrachord derivation and the ratio labelling
// as a JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/microtonal/tetrachord"
	"github.com/microtonal/tetrachord/numberline"
	"github.com/microtonal/tetrachord/ratio"
	"github.com/microtonal/tetrachord/version"
)

// Server serves the API. The zero value is not usable; use New.
type Server struct {
	Logger     *slog.Logger
	Limiter    *RateLimiter
	NumberLine numberline.Options
}

type (
	TetrachordResponse struct {
		Tuning     string                `json:"tuning"`
		Tetrachord tetrachord.Tetrachord `json:"tetrachord"`
		Scale      tetrachord.Scale      `json:"scale"`
		Fractions  []ratio.Fraction      `json:"fractions"`
		Labels     []string              `json:"labels"`
	}

	RatiosRequest struct {
		Multiples      []float64 `json:"multiples"`
		MinDenominator uint64    `json:"minDenominator"`
	}

	RatiosResponse struct {
		Fractions []ratio.Fraction `json:"fractions"`
		Labels    []string         `json:"labels"`
	}

	errorResponse struct {
		Error     string `json:"error"`
		RequestID string `json:"requestId,omitempty"`
	}

	requestIDKey struct{}
)

const maxBodySize = 1 << 20

// most multiples labelled in one request
const maxMultiples = 64

// how long clients are remembered by the rate limiter after their last request
const clientMaxAge = 10 * time.Minute

func New(logger *slog.Logger, perSecond float64, burst int) *Server {
	return &Server{
		Logger:     logger,
		Limiter:    NewRateLimiter(perSecond, burst),
		NumberLine: numberline.DefaultOptions(),
	}
}

// Handler returns the routes wrapped in the request id, logging, CORS and
// rate limiting middleware.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tetrachord", s.handleTetrachord).Methods("POST", "OPTIONS")
	api.HandleFunc("/ratios", s.handleRatios).Methods("POST", "OPTIONS")
	api.HandleFunc("/numberline.svg", s.handleNumberLine).Methods("POST", "OPTIONS")
	router.HandleFunc("/", handleRoot).Methods("GET")
	return s.withRequestID(s.logRequests(cors(rateLimit(s.Limiter, router))))
}

// ListenAndServe serves until ctx is cancelled and then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Limiter.Cleanup(clientMaxAge)
			}
		}
	}()
	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("HTTP API starting", "addr", addr, "version", version.VersionOrHash)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down the server failed: %w", err)
	}
	return nil
}

func (s *Server) handleTetrachord(w http.ResponseWriter, r *http.Request) {
	preset, ok := s.readPreset(w, r)
	if !ok {
		return
	}
	tc, scale, err := preset.Scale()
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	fractions, err := ratio.FindRatios(scale.Multiples(), preset.MinDenominator)
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	writeJSON(w, TetrachordResponse{
		Tuning:     preset.Tuning().String(),
		Tetrachord: tc,
		Scale:      scale,
		Fractions:  fractions,
		Labels:     labels(fractions),
	})
}

func (s *Server) handleRatios(w http.ResponseWriter, r *http.Request) {
	var req RatiosRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON input: "+err.Error())
		return
	}
	if len(req.Multiples) > maxMultiples {
		writeError(w, r, http.StatusUnprocessableEntity, fmt.Sprintf("at most %v multiples can be labelled at once, got %v", maxMultiples, len(req.Multiples)))
		return
	}
	fractions, err := ratio.FindRatios(req.Multiples, req.MinDenominator)
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	writeJSON(w, RatiosResponse{Fractions: fractions, Labels: labels(fractions)})
}

func (s *Server) handleNumberLine(w http.ResponseWriter, r *http.Request) {
	preset, ok := s.readPreset(w, r)
	if !ok {
		return
	}
	_, scale, err := preset.Scale()
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	opts := s.NumberLine
	opts.Title = preset.Tuning().String()
	line, err := numberline.FromScale(scale, preset.MinDenominator, opts)
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := line.SVG(w); err != nil {
		s.Logger.Error("rendering number line failed", "error", err, "request_id", requestID(r))
	}
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Tetrachord server " + version.VersionOrHash + ". POST presets to /api/tetrachord."))
}

func (s *Server) readPreset(w http.ResponseWriter, r *http.Request) (tetrachord.Preset, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "cannot read request body: "+err.Error())
		return tetrachord.Preset{}, false
	}
	preset, err := tetrachord.ParsePreset(body)
	if err != nil {
		if errors.Is(err, tetrachord.ErrMalformedPreset) {
			writeError(w, r, http.StatusBadRequest, err.Error())
		} else {
			s.domainError(w, r, err)
		}
		return tetrachord.Preset{}, false
	}
	return preset, true
}

// domainError reports input that parsed but cannot be derived.
func (s *Server) domainError(w http.ResponseWriter, r *http.Request, err error) {
	s.Logger.Debug("rejected request", "error", err, "request_id", requestID(r))
	writeError(w, r, http.StatusUnprocessableEntity, err.Error())
}

func labels(fractions []ratio.Fraction) []string {
	ret := make([]string, len(fractions))
	for i, f := range fractions {
		ret[i] = f.String()
	}
	return ret
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg, RequestID: requestID(r)})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", requestID(r),
		)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		// Handle pre-flight OPTIONS request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
