package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"notegraph/application/session"
	"notegraph/infrastructure/config"
	"notegraph/interfaces/http/rest/handlers"
	"notegraph/interfaces/http/rest/middleware"
	"notegraph/pkg/common"
	"notegraph/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg     *config.Config
	session *session.Session
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	sess *session.Session,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:     cfg,
		session: sess,
		metrics: metrics,
		logger:  logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)

	if rt.cfg.EnableMetrics && rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	documentHandler := handlers.NewDocumentHandler(rt.session, rt.logger)
	graphHandler := handlers.NewGraphHandler(rt.session, rt.logger)
	streamHandler := handlers.NewStreamHandler(rt.session, rt.logger)

	router.Route("/api", func(r chi.Router) {
		r.Post("/documents", documentHandler.LoadDocuments)
		r.Get("/graph", graphHandler.GetGraph)
		r.Get("/diagnostics", graphHandler.GetDiagnostics)
	})

	router.Get("/ws/layout", streamHandler.Stream)

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{
		"status":     "healthy",
		"session_id": rt.session.ID().String(),
	})
}
