package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appanimals "github.com/bryanwahyu/animal-aid/internal/application/animals"
	appreports "github.com/bryanwahyu/animal-aid/internal/application/reports"
	"github.com/bryanwahyu/animal-aid/internal/domain/apperr"
	"github.com/bryanwahyu/animal-aid/internal/middleware"
)

const defaultMaxUpload = 10 << 20

// Options wires the router. Metrics, Limiter and Checks are optional.
type Options struct {
	Reports *appreports.Service
	Animals *appanimals.Service

	Metrics *middleware.Metrics
	Limiter *middleware.RateLimiter
	Checks  map[string]middleware.HealthChecker

	CORSOrigins    []string
	MaxUploadBytes int64

	// MediaDir is served under MediaPrefix when images live on local disk.
	MediaDir    string
	MediaPrefix string
}

type Router struct {
	reports   *appreports.Service
	animals   *appanimals.Service
	maxUpload int64
}

func NewRouter(opt Options) http.Handler {
	r := &Router{reports: opt.Reports, animals: opt.Animals, maxUpload: opt.MaxUploadBytes}
	if r.maxUpload <= 0 {
		r.maxUpload = defaultMaxUpload
	}

	origins := opt.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.Recover)
	if opt.Metrics != nil {
		mux.Use(opt.Metrics.Middleware)
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	checks := opt.Checks
	if checks == nil {
		checks = map[string]middleware.HealthChecker{}
	}
	mux.Get("/health", middleware.HealthHandler(checks))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler)
	if opt.Metrics != nil {
		mux.Handle("/metrics", opt.Metrics.Handler())
	}
	if opt.MediaDir != "" {
		prefix := opt.MediaPrefix
		if prefix == "" {
			prefix = "/media/"
		}
		prefix = "/" + strings.Trim(prefix, "/") + "/"
		mux.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(opt.MediaDir))))
	}

	mux.Group(func(api chi.Router) {
		if opt.Limiter != nil {
			api.Use(opt.Limiter.Middleware)
		}

		// paths the mobile client already calls
		api.Post("/animal/test-gemini/", r.wrap(r.handleSubmitReport))
		api.Get("/animal/injury-reports/", r.wrap(r.handleListReports))
		api.Post("/animal/upload/", r.wrap(r.handleUploadAnimal))
		api.Get("/animal/image-list/", r.wrap(r.handleListAnimals))
		api.Delete("/animal/animal/delete/{id}/", r.wrap(r.handleDeleteAnimal))
		api.Post("/animal/animal/delete/{id}/", r.wrap(r.handleDeleteAnimal))

		api.Route("/v1", func(rt chi.Router) {
			rt.Post("/reports", r.wrap(r.handleSubmitReport))
			rt.Get("/reports", r.wrap(r.handleListReports))
			rt.Get("/reports.geojson", r.wrap(r.handleReportsGeoJSON))
			rt.Get("/reports/{id}", r.wrap(r.handleGetReport))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// errTooLarge is returned when the request body exceeds the upload limit.
var errTooLarge = errors.New("image too large")

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var ae *apperr.Error
		switch {
		case errors.Is(err, errTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
		case errors.As(err, &ae):
			status := statusOf(ae.Kind)
			if status >= 500 {
				log.WithError(err).WithFields(log.Fields{
					"path":       req.URL.Path,
					"request_id": chimw.GetReqID(req.Context()),
				}).Error("request failed")
			}
			writeError(w, status, clientMessage(ae))
		default:
			log.WithError(err).WithField("request_id", chimw.GetReqID(req.Context())).Error("unclassified error")
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
	}
}

func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAnalysis:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// client-facing wording for the service validation messages
var clientMessages = map[string]string{
	"missing required fields": "Missing required fields: image or location",
	"invalid location format": "Invalid location format",
}

func clientMessage(e *apperr.Error) string {
	if e.Kind == apperr.KindAnalysis {
		// provider wording goes out untouched
		return e.Message
	}
	if m, ok := clientMessages[e.Message]; ok {
		return m
	}
	if e.Message == "" {
		return http.StatusText(statusOf(e.Kind))
	}
	return strings.ToUpper(e.Message[:1]) + e.Message[1:]
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}
