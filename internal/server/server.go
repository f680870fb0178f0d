// Package server exposes the HTTP API, the websocket endpoint, and the
// overlay renderer.
package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/luisgbr1el/vitalboard/internal/config"
	"github.com/luisgbr1el/vitalboard/internal/domain"
	apperrors "github.com/luisgbr1el/vitalboard/internal/errors"
	"github.com/luisgbr1el/vitalboard/internal/uploads"
	"github.com/luisgbr1el/vitalboard/internal/websocket"
	"github.com/luisgbr1el/vitalboard/web"
)

// appService is the application surface the handlers depend on.
type appService interface {
	domain.CharacterService
	domain.SettingsService
	GetCharacter(ctx context.Context, id string) (*domain.Character, error)
}

type Server struct {
	echo            *echo.Echo
	config          *config.Config
	app             appService
	hub             *websocket.Hub
	uploads         *uploads.Manager
	overlayTemplate *template.Template
	connLimiter     *GlobalConnectionLimiter
	rateLimiter     *ConnectionRateLimiter
	startTime       time.Time
}

func NewServer(cfg *config.Config, app appService, hub *websocket.Hub, uploadMgr *uploads.Manager) (*Server, error) {
	// Parse templates once at startup
	overlayTmpl, err := template.ParseFS(web.FS, "templates/overlay.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse overlay template: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, headerSessionID},
	}))
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:            e,
		config:          cfg,
		app:             app,
		hub:             hub,
		uploads:         uploadMgr,
		overlayTemplate: overlayTmpl,
		connLimiter:     NewGlobalConnectionLimiter(cfg.MaxWSConnections),
		rateLimiter:     NewConnectionRateLimiter(5, 10),
		startTime:       time.Now(),
	}

	// Register routes
	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%d", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
