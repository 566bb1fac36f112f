package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/rentwise/internal/adapter/metrics"
	"github.com/neomorfeo/rentwise/internal/domain"
)

// FileServer streams stored files back to clients.
type FileServer interface {
	Download(ctx context.Context, key string, w io.Writer) (contentType string, err error)
}

// RouterConfig holds the collaborators of the HTTP surface. Nil optional
// fields disable the matching feature.
type RouterConfig struct {
	ServiceName string
	Version     string
	Auth        *Authenticator
	Limiter     *RateLimiter
	Metrics     *metrics.Metrics
	Files       FileServer
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
	// HealthCheck is run by /healthz when set.
	HealthCheck func(context.Context) error
	Logger      zerolog.Logger
}

// FilesPrefix is the path under which stored files are served.
const FilesPrefix = "/files"

// NewRouter builds the chi router with middleware, operational endpoints
// and the huma API.
func NewRouter(cfg RouterConfig, svc Services) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	otelOpts := []otelchi.Option{otelchi.WithChiRoutes(router)}
	if cfg.TracerProvider != nil {
		otelOpts = append(otelOpts, otelchi.WithTracerProvider(cfg.TracerProvider))
	}
	router.Use(otelchi.Middleware(cfg.ServiceName, otelOpts...))
	router.Use(accessLog(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware)
		router.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(r.Context()); err != nil {
				cfg.Logger.Warn().Err(err).Msg("health check failed")
				writeProblem(w, http.StatusServiceUnavailable, "dependency unavailable")
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})

	if cfg.Files != nil {
		router.Get(FilesPrefix+"/*", serveFile(cfg.Files, cfg.Logger))
	}

	router.Group(func(r chi.Router) {
		r.Use(cfg.Auth.Middleware)
		if cfg.Limiter != nil {
			r.Use(cfg.Limiter.Middleware)
		}
		api := humachi.New(r, huma.DefaultConfig(cfg.ServiceName, cfg.Version))
		Register(api, svc, cfg.Logger)
	})

	return router
}

func serveFile(files FileServer, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		var buf bytes.Buffer
		contentType, err := files.Download(r.Context(), key, &buf)
		if err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				writeProblem(w, http.StatusNotFound, "file not found")
				return
			}
			logger.Error().Err(err).Str("key", key).Msg("serving file failed")
			writeProblem(w, http.StatusInternalServerError, "internal server error")
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = buf.WriteTo(w)
	}
}

// accessLog writes one zerolog line per request.
func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := logger.Info()
			if status >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
