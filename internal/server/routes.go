package server

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/colin-cd72/cards/internal/errors"
	"github.com/colin-cd72/cards/internal/metrics"
)

const (
	loginRatePerSecond = 1
	loginRateBurst     = 5
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())
	s.echo.Use(metricsMiddleware)

	// Observability (no auth)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Live WebSocket endpoint. Output displays are passive and unauthenticated.
	s.echo.GET("/ws", s.handleWebSocket)

	api := s.echo.Group("/api")

	// Auth
	api.POST("/auth/login", s.handleLogin, newRateLimiter(loginRatePerSecond, loginRateBurst))
	api.POST("/auth/logout", s.handleLogout)
	api.GET("/auth/me", s.handleMe, s.requireAuth)

	// Cards
	api.POST("/cards/send", s.handleSendCard, s.requireAuth, s.requireProducer)
	api.POST("/cards/clear", s.handleClearCard, s.requireAuth, s.requireProducer)
	api.GET("/cards/current", s.handleCurrentCard)
	api.GET("/cards/history", s.handleCardHistory, s.requireAuth)

	// Presets
	api.GET("/presets", s.handleListPresets, s.requireAuth)
	api.GET("/presets/search", s.handleSearchPresets, s.requireAuth)
	api.GET("/presets/:id", s.handleGetPreset, s.requireAuth)
	api.POST("/presets", s.handleCreatePreset, s.requireAuth, s.requireProducer)
	api.PUT("/presets/:id", s.handleUpdatePreset, s.requireAuth, s.requireProducer)
	api.DELETE("/presets/:id", s.handleDeletePreset, s.requireAuth, s.requireProducer)

	// Users (admin)
	api.GET("/users", s.handleListUsers, s.requireAuth, s.requireAdmin)
	api.POST("/users", s.handleCreateUser, s.requireAuth, s.requireAdmin)
	api.PUT("/users/:id", s.handleUpdateUser, s.requireAuth, s.requireAdmin)
	api.PUT("/users/:id/password", s.handleUpdateUserPassword, s.requireAuth, s.requireAdmin)
	api.DELETE("/users/:id", s.handleDeleteUser, s.requireAuth, s.requireAdmin)

	// Settings
	api.GET("/settings/public", s.handlePublicSettings)
	api.GET("/settings", s.handleListSettings, s.requireAuth, s.requireAdmin)
	api.GET("/settings/:key", s.handleGetSetting, s.requireAuth, s.requireAdmin)
	api.PUT("/settings/:key", s.handleUpdateSetting, s.requireAuth, s.requireAdmin)

	// Live connection counts
	api.GET("/connections", s.handleConnectionCounts, s.requireAuth)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}

func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		// Route path keeps label cardinality bounded (":id", not raw values).
		path := c.Path()
		if path == "" {
			path = "unknown"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request().Method, path, strconv.Itoa(c.Response().Status),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request().Method, path).
			Observe(time.Since(start).Seconds())

		return err
	}
}
