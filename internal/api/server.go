// Package api is the HTTP front end: point queries on Earth orientation,
// geodesy and the Sun, and trajectory generation.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"github.com/dstuartbryant/spacewego/internal/config"
	"github.com/dstuartbryant/spacewego/internal/ephem"
	"github.com/dstuartbryant/spacewego/internal/health"
	"github.com/dstuartbryant/spacewego/internal/metrics"
	"github.com/dstuartbryant/spacewego/internal/propagation"
	"github.com/dstuartbryant/spacewego/internal/stream"
	"github.com/dstuartbryant/spacewego/internal/timescale"
	"github.com/dstuartbryant/spacewego/internal/trajectory"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	pool       *propagation.WorkerPool
	health     *health.Health
	limiter    *ipRateLimiter
	sem        *semaphore.Weighted
	sun        ephem.SunModel
	earthModel string
	eop        timescale.EOPSource
	limits     trajectory.Limits
	timeout    time.Duration
	trustProxy bool
}

// Options carries the collaborators NewServer does not build itself.
type Options struct {
	Logger *slog.Logger
	Pool   *propagation.WorkerPool
	Health *health.Health
	EOP    timescale.EOPSource // nil means zero corrections
}

// NewServer creates a configured HTTP server.
func NewServer(cfg config.Config, opts Options) *Server {
	pc := cfg.PropConfig()
	if opts.Pool == nil {
		opts.Pool = propagation.NewWorkerPool(pc.Workers, opts.Logger)
	}
	if opts.Health == nil {
		opts.Health = health.New()
	}
	if opts.EOP == nil {
		opts.EOP = timescale.ZeroEOP
	}
	maxConcurrent := cfg.Propagation.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	s := &Server{
		logger:     opts.Logger,
		pool:       opts.Pool,
		health:     opts.Health,
		limiter:    newIPRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
		sem:        semaphore.NewWeighted(maxConcurrent),
		sun:        cfg.Sun(),
		earthModel: cfg.Model().Name(),
		eop:        opts.EOP,
		limits:     cfg.Limits(),
		timeout:    cfg.Propagation.Timeout,
		trustProxy: cfg.TrustProxy,
	}

	streams := stream.NewHandler(stream.Config{
		MaxConcurrentPerIP: cfg.Stream.MaxConcurrentPerIP,
		KeepaliveInterval:  cfg.Stream.KeepaliveInterval,
		Timeout:            cfg.Propagation.Timeout,
		TrustProxy:         cfg.TrustProxy,
		AllowOrigins:       cfg.CORS.AllowOrigins,
		Limits:             s.limits,
	}, opts.Logger)

	// Middleware chain: recovery -> metrics -> logging -> cors -> routes.
	r := gin.New()
	r.Use(
		gin.Recovery(),
		metrics.Middleware(),
		loggingMiddleware(opts.Logger, cfg.TrustProxy),
		corsMiddleware(cfg.CORS),
	)

	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", s.health.Readyz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Endpoints of the original coordinate validator service.
	legacy := r.Group("/api")
	{
		legacy.GET("/get_ecef_position", s.getECEFPosition)
		legacy.GET("/get_earth_rotation_angle", s.getEarthRotationAngle)
		legacy.GET("/get_sun_position", s.getSunPosition)
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/orientation", s.getOrientation)
		v1.GET("/look_angles", s.getLookAngles)
		v1.POST("/trajectory", s.rateLimit(), s.postTrajectory)
		v1.GET("/trajectory/stream", s.rateLimit(), gin.WrapH(streams))
	}

	// Trajectory responses may take up to the propagation timeout.
	writeTimeout := 10 * time.Second
	if t := cfg.Propagation.Timeout + 5*time.Second; t > writeTimeout {
		writeTimeout = t
	}

	s.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// ApplyRateLimit updates the per-client trajectory rate after a config reload.
func (s *Server) ApplyRateLimit(rl config.RateLimitConfig) {
	s.limiter.setLimit(rl.PerMinute, rl.Burst)
	s.logger.Info("rate limit updated", "component", "api", "per_minute", rl.PerMinute, "burst", rl.Burst)
}

func corsMiddleware(c config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range c.AllowOrigins {
		if o == "*" {
			cc.AllowAllOrigins = true
		}
	}
	switch {
	case cc.AllowAllOrigins:
	case len(c.AllowOrigins) == 0:
		cc.AllowOriginFunc = func(string) bool { return false }
	default:
		cc.AllowOrigins = c.AllowOrigins
	}
	return cors.New(cc)
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if probePath(c.Request.URL.Path) {
			level = slog.LevelDebug
		}
		logger.Log(c.Request.Context(), level, "request",
			"component", "api",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", strconv.Itoa(c.Writer.Status()),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_ip", clientIP(c, trustProxy),
		)
	}
}
