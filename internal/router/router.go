package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	promhandler "github.com/jwalitptl/patients-api/internal/handler/prometheus"
	"github.com/jwalitptl/patients-api/internal/middleware"
)

const APIVersion = "1.0"

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	Mode           string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// RateLimit of zero disables rate limiting.
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
}

type Router struct {
	engine   *gin.Engine
	metrics  *promhandler.Handler
	handlers []Handler
}

func NewRouter(config RouterConfig, metrics *promhandler.Handler, handlers ...Handler) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	r := &Router{
		engine:   engine,
		metrics:  metrics,
		handlers: handlers,
	}

	// Request id first so every later middleware can log it.
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
	)
	if metrics != nil {
		engine.Use(metrics.Middleware())
	}
	engine.Use(
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(config.MaxBodyBytes),
		middleware.Timeout(config.RequestTimeout),
	)

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	if r.metrics != nil {
		r.engine.GET("/metrics", r.metrics.Handler())
	}

	api := r.engine.Group("/api/v1")
	api.Use(
		middleware.Version(APIVersion),
		middleware.NoStore(),
		middleware.Session(),
	)
	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, middleware.ErrorResponse{
			Message: "Route not found",
			TraceID: c.GetString(middleware.ContextRequestID),
		})
	})
	r.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, middleware.ErrorResponse{
			Message: "Method not allowed",
			TraceID: c.GetString(middleware.ContextRequestID),
		})
	})
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
