// Package api exposes the population and housing queries over HTTP for the
// map front end.
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/missing-middle/internal/apperr"
	"github.com/sells-group/missing-middle/internal/query"
)

// maxBodyBytes bounds request bodies; queries are a handful of fields.
const maxBodyBytes = 1 << 20

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int
}

// Handler serves the query endpoints.
type Handler struct {
	svc *query.Service
}

type errorBody struct {
	Error string `json:"error"`
}

// NewRouter builds the HTTP routes around svc.
func NewRouter(svc *query.Service, opts Options) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitRPS > 0 {
			burst := opts.RateLimitBurst
			if burst <= 0 {
				burst = 1
			}
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)))
		}
		r.Post("/population", h.population)
		r.Post("/housing", h.housing)
		r.Get("/cities", h.cities)
		r.Get("/years", h.years)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if stats, ok := h.svc.CacheStats(); ok {
		body["boundary_cache"] = stats
	}
	writeJSON(w, http.StatusOK, body)
}

type populationRequest struct {
	Year1 string `json:"year1"`
	Year2 string `json:"year2"`
	City  string `json:"city"`
}

func (h *Handler) population(w http.ResponseWriter, r *http.Request) {
	var req populationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.Population(r.Context(), req.Year1, req.Year2, req.City)
	if err != nil {
		h.fail(w, r, "population", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) housing(w http.ResponseWriter, r *http.Request) {
	var req query.HousingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.Housing(r.Context(), req)
	if err != nil {
		h.fail(w, r, "housing", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) cities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"cities": h.svc.Cities()})
}

func (h *Handler) years(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"years": h.svc.Years()})
}

// decodeBody reads a non-empty JSON object into v. It writes the 400 response
// itself and reports false when the body is unusable.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil {
		var fields map[string]json.RawMessage
		if err = json.Unmarshal(raw, &fields); err == nil && len(fields) > 0 {
			err = json.Unmarshal(raw, v)
			if err == nil {
				return true
			}
		}
	}

	zap.L().Debug("rejected request body",
		zap.String("component", "api"),
		zap.String("request_id", RequestID(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "Request body must be JSON"})
	return false
}

// fail logs err at a level matching its class and writes the public message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	log := zap.L().With(
		zap.String("component", "api"),
		zap.String("op", op),
		zap.String("request_id", RequestID(r.Context())),
	)

	switch {
	case apperr.IsValidation(err):
		log.Warn("validation error", zap.Error(err))
	case apperr.IsIntegrity(err):
		log.Error("data integrity error", zap.Error(err))
	default:
		log.Error("unexpected error", zap.Error(err))
	}

	writeJSON(w, apperr.Status(err), errorBody{Error: apperr.PublicMessage(err)})
}

// writeJSON encodes v before writing the header so an unencodable value
// becomes a 500 rather than a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("encode response", zap.String("component", "api"), zap.Error(err))
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		zap.L().Warn("write response", zap.String("component", "api"), zap.Error(err))
	}
}
