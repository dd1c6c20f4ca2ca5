// Package ruleserver is the reference constraint service and template
// catalog consumed by the wizard.
package ruleserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mark3labs/remindr/internal/reminder"
)

// Server serves constraints and templates over HTTP.
type Server struct {
	echo    *echo.Echo
	catalog *Catalog
	metrics *Metrics
	logger  *zap.Logger
	addr    string
}

// ConstraintsResponse is the response body for GET /api/constraints.
type ConstraintsResponse struct {
	Success       bool                  `json:"success"`
	Constraints   *reminder.Constraints `json:"constraints"`
	EstimatedCost float64               `json:"estimated_cost"`
}

// TemplatesResponse is the response body for GET /api/templates.
type TemplatesResponse struct {
	Success   bool                `json:"success"`
	Templates []reminder.Template `json:"templates"`
	// Conforming counts the templates with status valid.
	Conforming int `json:"conforming"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// NewServer creates a rule service bound to addr.
func NewServer(cat *Catalog, logger *zap.Logger, addr string) (*Server, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		}
	})

	s := &Server{
		echo:    e,
		catalog: cat,
		metrics: NewMetrics(),
		logger:  logger,
		addr:    addr,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/constraints", s.handleConstraints)
	api.GET("/templates", s.handleTemplates)
}

// errorHandler renders every error as an ErrorResponse.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
		} else {
			logger.Error("request failed", zap.Error(err))
		}
		if err := c.JSON(code, ErrorResponse{Success: false, Error: msg}); err != nil {
			logger.Warn("writing error response", zap.Error(err))
		}
	}
}

// Handler exposes the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) observe(endpoint string, channel reminder.Channel, code int, start time.Time) {
	s.metrics.RequestsTotal.WithLabelValues(endpoint, string(channel), strconv.Itoa(code)).Inc()
	s.metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// parseChannel reads and checks the channel query parameter.
func parseChannel(c echo.Context) (reminder.Channel, error) {
	ch, err := reminder.ParseChannel(c.QueryParam("channel"))
	if err != nil || ch == reminder.ChannelNone {
		return reminder.ChannelNone, echo.NewHTTPError(http.StatusBadRequest, "channel must be one of email, sms, letter")
	}
	return ch, nil
}

// intParam parses an optional non-negative integer query parameter.
func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}

func boolParam(c echo.Context, name string) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be a boolean", name))
	}
	return b, nil
}

func (s *Server) handleConstraints(c echo.Context) error {
	start := time.Now()
	ch, err := parseChannel(c)
	if err != nil {
		s.observe("constraints", "", http.StatusBadRequest, start)
		return err
	}
	days, err := intParam(c, "days_overdue")
	if err != nil {
		s.observe("constraints", ch, http.StatusBadRequest, start)
		return err
	}
	recipients, err := intParam(c, "recipients")
	if err != nil {
		s.observe("constraints", ch, http.StatusBadRequest, start)
		return err
	}
	if recipients == 0 {
		recipients = 1
	}

	r := s.catalog.Rules(ch)
	if r == nil {
		s.observe("constraints", ch, http.StatusNotFound, start)
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no rules for channel %s", ch))
	}

	cons := r.Constraints
	cons.RecommendedLevel = reminder.RecommendedLevel(days)

	s.logger.Debug("constraints served",
		zap.String("channel", string(ch)),
		zap.Int("days_overdue", days),
		zap.Int("recommended_level", int(cons.RecommendedLevel)),
	)
	s.observe("constraints", ch, http.StatusOK, start)
	return c.JSON(http.StatusOK, ConstraintsResponse{
		Success:       true,
		Constraints:   &cons,
		EstimatedCost: r.UnitCost * float64(recipients),
	})
}

func (s *Server) handleTemplates(c echo.Context) error {
	start := time.Now()
	ch, err := parseChannel(c)
	if err != nil {
		s.observe("templates", "", http.StatusBadRequest, start)
		return err
	}
	level, err := intParam(c, "level")
	if err != nil || !reminder.Level(level).Valid() {
		s.observe("templates", ch, http.StatusBadRequest, start)
		return echo.NewHTTPError(http.StatusBadRequest, "level must be between 1 and 5")
	}
	validate, err := boolParam(c, "validate_constraints")
	if err != nil {
		s.observe("templates", ch, http.StatusBadRequest, start)
		return err
	}

	templates := s.catalog.Lookup(ch, reminder.Level(level), validate)
	conforming := 0
	for _, t := range templates {
		if t.Status == reminder.StatusValid {
			conforming++
		}
		s.metrics.TemplatesServed.WithLabelValues(string(ch), string(t.Status)).Inc()
	}

	s.logger.Debug("templates served",
		zap.String("channel", string(ch)),
		zap.Int("level", level),
		zap.String("subject_id", c.QueryParam("subject_id")),
		zap.Bool("validate", validate),
		zap.Int("count", len(templates)),
	)
	s.observe("templates", ch, http.StatusOK, start)
	return c.JSON(http.StatusOK, TemplatesResponse{
		Success:    true,
		Templates:  templates,
		Conforming: conforming,
	})
}

// Start listens and serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting rule service", zap.String("addr", s.addr))
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down rule service")
	return s.echo.Shutdown(ctx)
}
