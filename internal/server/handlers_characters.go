package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/luisgbr1el/vitalboard/internal/domain"
	apperrors "github.com/luisgbr1el/vitalboard/internal/errors"
)

func (s *Server) handleListCharacters(c echo.Context) error {
	chars, err := s.app.ListCharacters(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("Failed to read characters", err)
	}
	if chars == nil {
		chars = []domain.Character{}
	}
	return c.JSON(200, chars)
}

func (s *Server) handleCreateCharacter(c echo.Context) error {
	var input domain.CreateCharacterInput
	if err := c.Bind(&input); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	character, err := s.app.CreateCharacter(c.Request().Context(), input)
	if errors.Is(err, domain.ErrNameRequired) {
		return apperrors.ValidationError("name required")
	}
	if err != nil {
		return apperrors.InternalError("Failed to create character", err)
	}

	return c.JSON(201, character)
}

func (s *Server) handleCreateCharactersBatch(c echo.Context) error {
	var body struct {
		Characters []json.RawMessage `json:"characters"`
	}
	if err := c.Bind(&body); err != nil || len(body.Characters) == 0 {
		return apperrors.UnprocessableError("Invalid request format. Expected an array of characters in 'characters' property")
	}

	inputs := make([]domain.CreateCharacterInput, 0, len(body.Characters))
	var details []string
	for i, raw := range body.Characters {
		input, errs := domain.ParseBatchCharacter(i, raw)
		if len(errs) > 0 {
			details = append(details, errs...)
			continue
		}
		inputs = append(inputs, input)
	}

	// All-or-nothing: one bad record rejects the whole batch before any write.
	if len(details) > 0 {
		return apperrors.ValidationError("Validation failed").WithDetails(details)
	}

	created, all, err := s.app.CreateCharacters(c.Request().Context(), inputs)
	if err != nil {
		return apperrors.InternalError("Failed to create characters", err)
	}

	return c.JSON(201, map[string]any{
		"ok":                true,
		"createdCount":      len(created),
		"createdCharacters": created,
		"characters":        all,
	})
}

func (s *Server) handleUpdateCharacter(c echo.Context) error {
	id := c.Param("id")

	var input domain.UpdateCharacterInput
	if err := c.Bind(&input); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	character, err := s.app.UpdateCharacter(c.Request().Context(), id, input)
	if errors.Is(err, domain.ErrNegativeHP) {
		return apperrors.ValidationError("HP must be a non-negative number")
	}
	if errors.Is(err, domain.ErrCharacterNotFound) {
		return apperrors.NotFoundError("Character not found").WithField("character_id", id)
	}
	if err != nil {
		return apperrors.InternalError("Failed to update character", err).WithField("character_id", id)
	}

	return c.JSON(200, character)
}

func (s *Server) handleDeleteCharacter(c echo.Context) error {
	id := c.Param("id")
	if err := s.app.DeleteCharacter(c.Request().Context(), id); err != nil {
		return apperrors.InternalError("Failed to delete character", err).WithField("character_id", id)
	}
	if err := c.JSON(200, map[string]any{"ok": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeleteCharactersBatch(c echo.Context) error {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.Bind(&body); err != nil || len(body.IDs) == 0 {
		return apperrors.ValidationError("IDs array is required and must not be empty")
	}

	deleted, err := s.app.DeleteCharacters(c.Request().Context(), body.IDs)
	if err != nil {
		return apperrors.InternalError("Failed to delete characters", err)
	}
	if deleted == nil {
		deleted = []string{}
	}

	return c.JSON(200, map[string]any{
		"ok":           true,
		"deletedCount": len(deleted),
		"deletedIds":   deleted,
	})
}
