// Package http assembles the public HTTP server.
package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Hazehacker/Haze-AI-Hub/internal/service"
	v1 "github.com/Hazehacker/Haze-AI-Hub/internal/transport/http/v1"
	"github.com/Hazehacker/Haze-AI-Hub/internal/transport/ws"
)

// Server is the public HTTP server. It serves the REST API, the WebSocket
// endpoint and /metrics on one port.
type Server struct {
	echo *echo.Echo
	ws   *ws.Server
}

// NewServer creates the server and registers all routes.
func NewServer(svc *service.Service, wsServer *ws.Server, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = v1.NewValidator()

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	v1.NewHandler(svc, logger).RegisterRoutes(e)
	wsServer.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return &Server{echo: e, ws: wsServer}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests, closes live WebSocket connections
// and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.ws.Hub().CloseAll()
	return s.echo.Shutdown(ctx)
}
