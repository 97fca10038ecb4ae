// Package web is the HTTP layer of the portfolio: routing, sessions, flash
// notices and server-rendered views on top of echo.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Accounts registers and authenticates users.
type Accounts interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.Identity, error)
}

// Projects manages portfolio projects on behalf of an actor.
type Projects interface {
	Get(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	Create(ctx context.Context, actor models.Identity, in services.ProjectInput, img *services.ImageUpload) (*models.Project, error)
	Update(ctx context.Context, actor models.Identity, id string, in services.ProjectInput, img *services.ImageUpload) (*models.Project, error)
	Delete(ctx context.Context, actor models.Identity, id string) (services.DeleteReport, error)
}

// Options tunes cookies and upload limits.
type Options struct {
	CookieSecure bool
	NoticeMaxAge time.Duration
	MaxImageSize int64
}

// Server serves the portfolio site.
type Server struct {
	echo     *echo.Echo
	logger   logging.Logger
	accounts Accounts
	projects Projects
	tokens   *auth.SessionTokens
	opts     Options
}

// NewServer builds the echo instance with middleware and routes. Metrics
// are registered with reg and served from gatherer at /metrics.
func NewServer(logger logging.Logger, accounts Accounts, projects Projects, tokens *auth.SessionTokens,
	opts Options, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Server, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if accounts == nil || projects == nil || tokens == nil {
		return nil, errors.New("accounts, projects and tokens are required")
	}

	renderer, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	s := &Server{
		echo:     e,
		logger:   logger.With("module", "http_server"),
		accounts: accounts,
		projects: projects,
		tokens:   tokens,
		opts:     opts,
	}

	metrics := newHTTPMetrics(reg)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLog)
	e.Use(metrics.middleware)
	e.Use(s.session)

	s.registerRoutes(gatherer)

	return s, nil
}

// Echo exposes the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	e := s.echo

	e.GET("/favicon.ico", noContent)
	e.GET("/favicon.png", noContent)
	e.StaticFS("/assets", echo.MustSubFS(staticFS, "static"))
	e.GET("/health", handleHealth)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	e.GET("/", s.handleHome)
	e.GET("/detail-project/:id", s.handleDetail)
	e.GET("/contact-me", s.handleStatic("contact", "Contact Me"))
	e.GET("/testimoni", s.handleStatic("testimoni", "Testimonials"))

	limit := middleware.BodyLimit(bodyLimit(s.opts.MaxImageSize))
	e.GET("/add-project", s.handleAddForm)
	e.POST("/add-project", s.handleAdd, limit)
	e.GET("/edit-project/:id", s.handleEditForm)
	e.POST("/edit-project/:id", s.handleEdit, limit)
	e.GET("/delete-project/:id", s.handleDelete)
	e.POST("/delete-project/:id", s.handleDelete)

	e.GET("/register", s.handleRegisterForm)
	e.POST("/register", s.handleRegister)
	e.GET("/login", s.handleLoginForm)
	e.POST("/login", s.handleLogin)
	e.GET("/logout", s.handleLogout)
}

// bodyLimit leaves room for the text fields next to the largest image.
func bodyLimit(maxImage int64) string {
	if maxImage <= 0 {
		maxImage = 5 << 20
	}
	return fmt.Sprintf("%dK", maxImage/1024+1024)
}

func (s *Server) requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		s.logger.Info(c.Request().Context(), "http request",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"status", c.Response().Status,
			"duration", time.Since(start),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return nil
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func noContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.echo.Listener = listener

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(context.Background(), "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listener.Addr().String())

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
