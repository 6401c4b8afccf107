package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	m "mc.frontier/models"
	"mc.frontier/presentation"
)

const (
	DefaultAddr = ":8080"
)

// UniverseResponse is a preset ticker universe.
type UniverseResponse struct {
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
}

var portfolioSlugs = map[string]string{
	"max-sharpe":     m.LabelMaxSharpe,
	"min-volatility": m.LabelMinVolatility,
	"best-cvar":      m.LabelBestCVaR,
}

func GetHttpServer(sc *ServiceContext, addr string, allowedOrigins []string) *http.Server {
	if addr == "" {
		addr = DefaultAddr
	}

	return &http.Server{
		Addr:           addr,
		Handler:        NewRouter(sc, allowedOrigins),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   2 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
}

func NewRouter(sc *ServiceContext, allowedOrigins []string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(sc.loggingMiddleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/ping", sc.ping)
		r.Get("/universes", sc.universes)

		r.Route("/optimise", func(r chi.Router) {
			r.Post("/", sc.optimise)
			r.Post("/export", sc.export)
			r.Post("/frontier.png", sc.frontierChart)
			r.Post("/allocation/{portfolio}.png", sc.allocationChart)
		})
	})

	return router
}

func (sc *ServiceContext) ping(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, m.GetServiceResponseOk(&map[string]string{"message": "pong"}))
}

func (sc *ServiceContext) universes(w http.ResponseWriter, r *http.Request) {
	res := make([]UniverseResponse, 0, len(m.Universes))
	for _, name := range m.UniverseNames() {
		tickers := m.Universes[name]
		if tickers == nil {
			tickers = []string{}
		}
		res = append(res, UniverseResponse{Name: name, Tickers: tickers})
	}
	respondJSON(w, http.StatusOK, m.GetServiceResponseOk(&res))
}

func (sc *ServiceContext) optimise(w http.ResponseWriter, r *http.Request) {
	result, ok := sc.runFromRequest(w, r)
	if !ok {
		return
	}

	res := m.MapOptimisationResultToResponse(result)
	respondJSON(w, http.StatusOK, m.GetServiceResponseOk(&res))
}

func (sc *ServiceContext) export(w http.ResponseWriter, r *http.Request) {
	result, ok := sc.runFromRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", presentation.ExportFileName))
	w.WriteHeader(http.StatusOK)
	if err := presentation.WriteCSV(w, result.Population); err != nil {
		sc.Log.Error().Err(err).Str("run_id", result.RunID).Msg("error writing csv export")
	}
}

func (sc *ServiceContext) frontierChart(w http.ResponseWriter, r *http.Request) {
	result, ok := sc.runFromRequest(w, r)
	if !ok {
		return
	}

	png, err := presentation.RenderFrontier(result)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondPNG(w, png)
}

func (sc *ServiceContext) allocationChart(w http.ResponseWriter, r *http.Request) {
	label, found := portfolioSlugs[chi.URLParam(r, "portfolio")]
	if !found {
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown portfolio %q, expected max-sharpe, min-volatility or best-cvar", chi.URLParam(r, "portfolio")))
		return
	}

	result, ok := sc.runFromRequest(w, r)
	if !ok {
		return
	}

	for _, lp := range result.Selection.Labeled() {
		if lp.Label != label {
			continue
		}

		png, err := presentation.RenderAllocation(result.Tickers, lp.Portfolio, lp.Label)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondPNG(w, png)
		return
	}
}

// runFromRequest decodes settings over the defaults and runs the pipeline.
// On failure the error response has already been written.
func (sc *ServiceContext) runFromRequest(w http.ResponseWriter, r *http.Request) (*m.OptimisationResult, bool) {
	settings := m.DefaultSimulationSettings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return nil, false
	}

	result, err := sc.RunOptimisation(r.Context(), settings)
	if err != nil {
		respondError(w, StatusForError(err), err.Error())
		return nil, false
	}

	return result, true
}

// StatusForError maps the pipeline error kinds to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, m.ErrInvalidSettings), errors.Is(err, ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrConstraint):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrDataSource):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (sc *ServiceContext) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		sc.Log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, m.GetServiceResponseError(message))
}

func respondPNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
