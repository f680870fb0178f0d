package server

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/luisgbr1el/vitalboard/internal/domain"
	apperrors "github.com/luisgbr1el/vitalboard/internal/errors"
)

func (s *Server) handleGetSettings(c echo.Context) error {
	settings, err := s.app.GetSettings(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("Failed to read settings", err)
	}
	return c.JSON(200, settings)
}

func (s *Server) handleUpdateSettings(c echo.Context) error {
	var patch domain.SettingsPatch
	if err := c.Bind(&patch); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	settings, err := s.app.UpdateSettings(c.Request().Context(), patch)

	var unknownKey *domain.UnknownSettingError
	if errors.As(err, &unknownKey) {
		return apperrors.ValidationError(unknownKey.Error()).WithField("key", unknownKey.Key)
	}
	if errors.Is(err, domain.ErrInvalidSettings) {
		return apperrors.ValidationError("invalid settings payload")
	}
	if err != nil {
		return apperrors.InternalError("Failed to update settings", err)
	}

	return c.JSON(200, settings)
}
