package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Discovery
	s.echo.GET("/api/server-info", s.handleServerInfo)

	// Characters
	s.echo.GET("/api/characters", s.handleListCharacters)
	s.echo.POST("/api/characters", s.handleCreateCharacter)
	s.echo.POST("/api/characters/batch", s.handleCreateCharactersBatch)
	s.echo.PUT("/api/characters/:id", s.handleUpdateCharacter)
	s.echo.DELETE("/api/characters/batch", s.handleDeleteCharactersBatch)
	s.echo.DELETE("/api/characters/:id", s.handleDeleteCharacter)

	// Settings
	s.echo.GET("/api/settings", s.handleGetSettings)
	s.echo.PUT("/api/settings", s.handleUpdateSettings)

	// Uploads
	s.echo.POST("/api/upload", s.handleUpload)
	s.echo.POST("/api/confirm-file", s.handleConfirmFile)
	s.echo.DELETE("/api/cleanup-session", s.handleCleanupSession)
	s.echo.DELETE("/api/delete-file", s.handleDeleteFile)
	s.echo.GET("/uploads/*", s.handleServeUpload)

	// Public overlay routes (embedded as OBS browser sources)
	s.echo.GET("/overlay/:id", s.handleOverlay)
	s.echo.GET("/ws", s.handleWebSocket)
}
