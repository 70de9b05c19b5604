package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	httperr "github.com/aevon-lab/salespulse/internal/core/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// APIPrefix is where every analytics route is mounted.
const APIPrefix = "/api/analytics"

const (
	healthTimeout   = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

// HealthChecker is an interface for components that can report their health status.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// WebsocketServer upgrades a request and serves the connection until it ends.
type WebsocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

// Options configures the HTTP server.
type Options struct {
	Addr string
	Mode string // debug | release

	// CORSOrigins lists allowed origins; "*" allows all, empty disables CORS.
	CORSOrigins []string

	// RateLimitRPS <= 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	// FeedState, if set, is reported by /health.
	FeedState func() string
}

type Server struct {
	Engine *gin.Engine
	Addr   string

	api    *gin.RouterGroup
	health HealthChecker
	opts   Options
}

func New(opts Options, health HealthChecker) *Server {
	if opts.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	if mw := corsMiddleware(opts.CORSOrigins); mw != nil {
		r.Use(mw)
	}

	s := &Server{
		Engine: r,
		Addr:   opts.Addr,
		health: health,
		opts:   opts,
	}

	r.GET("/health", s.healthHandler)

	s.api = r.Group(APIPrefix)
	if opts.RateLimitRPS > 0 {
		s.api.Use(rateLimiter(rate.NewLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst)))
	}
	return s
}

// API returns the /api/analytics route group.
func (s *Server) API() gin.IRouter {
	return s.api
}

// MountWebsocket serves ws at GET /api/analytics/ws.
func (s *Server) MountWebsocket(ws WebsocketServer) {
	s.api.GET("/ws", func(c *gin.Context) {
		if err := ws.ServeWS(c.Writer, c.Request); err != nil {
			slog.Warn("[Server] Websocket connection failed", "remote", c.ClientIP(), "error", err)
		}
	})
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	body := gin.H{"status": "healthy", "database": "connected"}
	if s.opts.FeedState != nil {
		body["feed"] = s.opts.FeedState()
	}

	if s.health != nil {
		if err := s.health.Ping(ctx); err != nil {
			slog.Error("[Server] Health check failed: database unreachable", "error", err)
			body["status"] = "unhealthy"
			body["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("[Server] Starting HTTP server", "address", s.Addr)

	go func() {
		<-ctx.Done()
		slog.Info("[Server] Stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("[Server] Forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			slog.Error("[HTTP] Request", attrs...)
		case status >= http.StatusBadRequest:
			slog.Warn("[HTTP] Request", attrs...)
		default:
			slog.Debug("[HTTP] Request", attrs...)
		}
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return nil
	}
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// OriginChecker returns the websocket origin check matching the CORS
// origins. Nil (accept all) for "*" or an empty list. Requests without an
// Origin header are not from browsers and are accepted.
func OriginChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}

// rateLimiter applies one token bucket to every request in the group.
func rateLimiter(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httperr.ErrorResponse{
				ErrorType: httperr.HttpRateLimitedError,
				Message:   "Too many requests",
			})
			return
		}
		c.Next()
	}
}
