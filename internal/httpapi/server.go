// Package httpapi exposes the pipeline, surfaces and history over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/founderflow-backend/internal/config"
	"github.com/yungbote/founderflow-backend/internal/gateway"
	"github.com/yungbote/founderflow-backend/internal/history"
	"github.com/yungbote/founderflow-backend/internal/observability"
	"github.com/yungbote/founderflow-backend/internal/pipeline"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
	"github.com/yungbote/founderflow-backend/internal/prompt"
	"github.com/yungbote/founderflow-backend/internal/realtime"
	"github.com/yungbote/founderflow-backend/internal/surface"
)

// Deps are the services the API fronts. History, Recorder, Hub, Metrics
// and Ready are optional.
type Deps struct {
	Config    *config.Config
	Log       *logger.Logger
	Templates *prompt.Registry
	Gateway   *gateway.Gateway
	Pipeline  *pipeline.Pipeline
	Tracker   *surface.Tracker
	History   history.Repo
	Recorder  *history.Recorder
	Hub       *realtime.Hub
	Metrics   *observability.Metrics
	Ready     func(ctx context.Context) error
}

type server struct {
	Deps
	log *logger.Logger
}

func NewServer(d Deps) *http.Server {
	cfg := d.Config.HTTP
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(d),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout.Duration,
		IdleTimeout:       cfg.IdleTimeout.Duration,
	}
}

func NewHandler(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	s := &server{Deps: d, log: d.Log.With("service", "HTTPAPI")}

	if d.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(otelgin.Middleware("founderflow-api"))
	r.Use(traceContext())
	r.Use(requestLogger(s.log))
	r.Use(recoverPanics(s.log))
	r.Use(metrics(d.Metrics))
	r.Use(corsFor(d.Config.HTTP.CORSOrigins))
	r.Use(limitBody(d.Config.HTTP.MaxRequestBytes))

	r.GET("/healthz", s.healthz)
	r.GET("/readyz", s.readyz)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapF(d.Metrics.WriteHTTP))
	}

	api := r.Group("/api/v1")
	if d.Config.Auth.JWTSecret != "" {
		api.Use(newAuthMiddleware(s.log, d.Config.Auth).RequireAuth())
	}
	{
		api.GET("/templates", s.listTemplates)
		api.GET("/templates/:template", s.getTemplate)
		api.POST("/templates/:template/render", s.renderTemplate)
		api.POST("/templates/:template/surprise", s.surprise)
		api.GET("/models", s.listModels)
		api.POST("/generate/:template", s.generate)

		api.POST("/surfaces/:surface/submissions", s.submit)
		api.GET("/surfaces/:surface", s.currentSurface)
		if d.Hub != nil {
			api.GET("/surfaces/:surface/events", s.surfaceEvents)
		}

		if d.History != nil {
			api.GET("/history", s.listHistory)
			api.GET("/history/:id", s.getHistory)
		}
	}
	r.NoRoute(func(c *gin.Context) {
		s.respondError(c, notFound("route_not_found", "route not found"))
	})
	return r
}
