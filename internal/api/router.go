package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"doc-reader/internal/metrics"
)

// RouterConfig содержит настройки HTTP роутера
type RouterConfig struct {
	// APIKey проверяется в X-API-Key или Authorization: Bearer <key>, пустой отключает проверку
	APIKey string
	// CorsAllowedOrigins - origin через запятую, пусто означает "*"
	CorsAllowedOrigins string
}

// NewRouter собирает роутер API, /health и /metrics
func NewRouter(h *Handler, mh *metrics.Handler, cfg RouterConfig, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(SentryRecoverer(logger))

	r.Use(cors.Handler(corsOptions(cfg.CorsAllowedOrigins)))

	r.Get("/health", mh.HealthHandler)
	r.Method(http.MethodGet, "/metrics", mh.MetricsHandler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.APIKey != "" {
			r.Use(APIKeyAuth(cfg.APIKey))
		}

		// Словарь замен
		r.Get("/conversions", h.GetConversions)
		r.Put("/conversions", h.UpdateConversions)

		// Текст
		r.Post("/process", h.Process)
		r.Post("/speech", h.Speech)

		// Документы и аудио
		r.Post("/documents", h.ReadDocuments)
		r.Get("/audio/{name}", h.GetAudio)

		r.Get("/speakers", h.ListSpeakers)
	})

	return r
}

// corsOptions разрешает credentials только для явно перечисленных origin
func corsOptions(raw string) cors.Options {
	origins := allowedOrigins(raw)
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: !(len(origins) == 1 && origins[0] == "*"),
		MaxAge:           300,
	}
}

func allowedOrigins(raw string) []string {
	origins := []string{"*"}
	if raw == "" {
		return origins
	}

	trimmed := make([]string, 0)
	for _, o := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(o); s != "" {
			trimmed = append(trimmed, s)
		}
	}
	if len(trimmed) > 0 {
		origins = trimmed
	}
	return origins
}
