package server

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	apperrors "github.com/luisgbr1el/vitalboard/internal/errors"
	"github.com/luisgbr1el/vitalboard/internal/logging"
	"github.com/luisgbr1el/vitalboard/internal/version"
)

// headerSessionID scopes uploaded files to a client session until they are
// confirmed as permanently referenced.
const headerSessionID = "X-Session-Id"

func (s *Server) sessionID(c echo.Context) string {
	if id := c.Request().Header.Get(headerSessionID); id != "" {
		return id
	}
	return "default"
}

func (s *Server) handleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.ValidationError("Field name 'file' is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.InternalError("Failed to read upload", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return apperrors.InternalError("Failed to read upload", err)
	}

	fileName, err := s.uploads.Store(s.sessionID(c), fileHeader.Filename, content)
	if err != nil {
		return apperrors.InternalError("Failed to store upload", err)
	}

	return c.JSON(200, map[string]string{
		"url":      "/uploads/" + fileName,
		"fileName": fileName,
	})
}

func (s *Server) handleConfirmFile(c echo.Context) error {
	var body struct {
		FileName string `json:"fileName"`
	}
	if err := c.Bind(&body); err != nil || body.FileName == "" {
		return apperrors.ValidationError("fileName is required")
	}

	s.uploads.Confirm(body.FileName)
	return c.JSON(200, map[string]bool{"success": true})
}

func (s *Server) handleCleanupSession(c echo.Context) error {
	session := s.sessionID(c)
	s.uploads.CleanupSession(session)
	logging.WithSession(session).Info("Upload session cleaned up")
	return c.JSON(200, map[string]bool{"success": true})
}

func (s *Server) handleDeleteFile(c echo.Context) error {
	var body struct {
		FileName string `json:"fileName"`
	}
	if err := c.Bind(&body); err != nil || body.FileName == "" {
		return apperrors.ValidationError("fileName is required")
	}

	s.uploads.Delete(body.FileName)
	return c.JSON(200, map[string]bool{"success": true})
}

// handleServeUpload serves uploaded icon files read-only with long-lived
// cache headers (overlay pages reference them from OBS browser sources).
func (s *Server) handleServeUpload(c echo.Context) error {
	name := filepath.Base(c.Param("*"))
	if name == "." || name == "/" {
		return apperrors.NotFoundError("file not found")
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=31536000")
	c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
	return c.File(filepath.Join(s.uploads.Dir(), name))
}

// handleServerInfo is the discovery endpoint: clients read the bound port
// from here instead of probing a port range.
func (s *Server) handleServerInfo(c echo.Context) error {
	info := version.Get()
	if err := c.JSON(http.StatusOK, map[string]any{
		"port":    s.config.Port,
		"version": info.Version,
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
