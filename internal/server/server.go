package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scoutdig/scout/internal/agent/telemetry"
	"github.com/scoutdig/scout/internal/session"
	"github.com/scoutdig/scout/internal/store"
	"github.com/scoutdig/scout/models"
)

// QueryRunner is the slice of the agent the HTTP layer needs.
type QueryRunner interface {
	Run(ctx context.Context, query string, history []models.Turn) (models.RunLog, error)
}

// Server exposes the agent over HTTP alongside the archived runs.
type Server struct {
	echo      *echo.Echo
	runner    QueryRunner
	sessions  session.Store
	archive   *store.Store
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// New assembles the echo instance with all routes registered. archive
// may be nil when Postgres is not configured, the runs endpoints then
// answer 503.
func New(runner QueryRunner, sessions session.Store, archive *store.Store, tel *telemetry.Telemetry) *Server {
	s := &Server{
		runner:    runner,
		sessions:  sessions,
		archive:   archive,
		telemetry: tel,
		logger:    log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = s.errorHandler
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if tel != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(tel.Registry(), promhttp.HandlerOpts{})))
	}

	api := e.Group("/api")
	api.POST("/ask", s.handleAsk)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)

	s.echo = e
	return s
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	s.logger.Printf("listening on %s", addr)
	return s.echo.Start(addr)
}

// Echo exposes the underlying echo instance, used by tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	req := c.Request()
	s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]interface{}{"error": msg})
	}
}
