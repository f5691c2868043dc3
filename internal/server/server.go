package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/apikey"
	apikeydomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/apikey/domain"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/auth"
	authdomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/auth/domain"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/auth/session"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/cache"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/clock"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/config"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/observability"
	obsmiddleware "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/observability/logger"
	obsmetrics "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/observability/metrics"
	obstracing "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/observability/tracing"
	githubprovider "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/providers/github"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/providers/llm"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/ratelimit"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/summary"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	demoKeyBurst  = 5
	demoKeyWindow = 10 * time.Minute
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	auth.Module,
	apikey.Module,
	cache.Module,
	githubprovider.Module,
	llm.Module,
	summary.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.ListenAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	clock      clock.Clock
	genID      *snowflake.Node
	authsvc    authdomain.Service
	sessions   *session.Manager
	apiKeySvc  apikeydomain.Service
	summarySvc summary.Service
	limiter    *ratelimit.KeyLimiter

	demoLimiter *ratelimit.FixedWindow
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	Authsvc    authdomain.Service
	Sessions   *session.Manager
	APIKeySvc  apikeydomain.Service
	SummarySvc summary.Service
	Limiter    *ratelimit.KeyLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		clock:      p.Clock,
		genID:      p.GenID,
		authsvc:    p.Authsvc,
		sessions:   p.Sessions,
		apiKeySvc:  p.APIKeySvc,
		summarySvc: p.SummarySvc,
		limiter:    p.Limiter,

		demoLimiter: ratelimit.NewFixedWindow(demoKeyBurst, demoKeyWindow, p.Clock),
	}

	s.registerAuthRoutes()
	s.registerAPIRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	authGroup := s.engine.Group("/auth")

	authGroup.POST("/signin", s.SignIn)
	authGroup.POST("/logout", s.Logout)
	authGroup.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	keys := api.Group("/keys", s.AuthRequired())
	keys.GET("", s.ListAPIKeys)
	keys.POST("", s.CreateAPIKey)
	keys.POST("/bulk-delete", s.BulkDeleteAPIKeys)
	keys.GET("/:id", s.GetAPIKey)
	keys.PATCH("/:id", s.UpdateAPIKey)
	keys.DELETE("/:id", s.DeleteAPIKey)
	keys.POST("/:id/regenerate", s.RegenerateAPIKey)

	api.POST("/demo-key", s.CreateDemoKey)
	api.POST("/validate-key", s.ValidateKey)
	api.POST("/github-summarizer", s.GitHubSummarizer)
}
