package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/luisgbr1el/vitalboard/internal/domain"
	apperrors "github.com/luisgbr1el/vitalboard/internal/errors"
	"github.com/luisgbr1el/vitalboard/internal/logging"
	"github.com/luisgbr1el/vitalboard/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for OBS browser source
	},
}

// overlayData is the template context for one overlay page.
type overlayData struct {
	ID    string
	Name  string
	Icon  string
	HP    int
	MaxHP int

	FontSize          int
	FontFamily        string
	FontColor         string
	IconsSize         int
	CharacterIconSize int
	ShowName          bool
	ShowHealth        bool
	ShowIcon          bool
	ShowCharacterIcon bool
	HealthIconPath    string
}

func (s *Server) handleOverlay(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	character, err := s.app.GetCharacter(ctx, id)
	if errors.Is(err, domain.ErrCharacterNotFound) {
		return apperrors.NotFoundError("Character doesn't exists.").WithField("character_id", id)
	}
	if err != nil {
		return apperrors.InternalError("Failed to load overlay", err).WithField("character_id", id)
	}

	settings, err := s.app.GetSettings(ctx)
	if err != nil {
		return apperrors.InternalError("Failed to load settings", err)
	}

	overlay := settings.Overlay
	data := overlayData{
		ID:                character.ID,
		Name:              character.Name,
		Icon:              character.Icon,
		HP:                character.HP,
		MaxHP:             character.MaxHP,
		FontSize:          overlay.FontSize,
		FontFamily:        overlay.FontFamily,
		FontColor:         overlay.FontColor,
		IconsSize:         overlay.IconsSize,
		CharacterIconSize: overlay.CharacterIconSize,
		ShowName:          overlay.ShowName,
		ShowHealth:        overlay.ShowHealth,
		ShowIcon:          overlay.ShowIcon,
		ShowCharacterIcon: overlay.ShowCharacterIcon,
	}
	if overlay.HealthIconFilePath != nil {
		data.HealthIconPath = *overlay.HealthIconFilePath
	}

	return s.renderTemplate(c, data)
}

// renderTemplate renders to a buffer first to prevent partial HTML from
// being sent if template execution fails.
func (s *Server) renderTemplate(c echo.Context, data any) error {
	var buf bytes.Buffer
	if err := s.overlayTemplate.Execute(&buf, data); err != nil {
		return apperrors.InternalError("Failed to render page", err).WithField("path", c.Request().URL.Path)
	}
	return c.HTMLBlob(200, buf.Bytes())
}

func (s *Server) handleWebSocket(c echo.Context) error {
	if !s.rateLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Connection rate limit exceeded")
	}
	if !s.connLimiter.Acquire() {
		return c.String(http.StatusServiceUnavailable, "Too many connections")
	}
	defer s.connLimiter.Release()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	if err := s.hub.Register(conn); err != nil {
		slog.Warn("Failed to register with hub", "error", err)
		return nil
	}

	// Read pump, blocks until the connection closes. Inbound messages are
	// the second write path: they go through the same validated update as
	// HTTP PUT.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.dispatchClientEvent(c, raw)
	}

	s.hub.Unregister(conn)

	return nil
}

// dispatchClientEvent applies a client-sent updateCharacter event. Malformed
// payloads and unknown ids are dropped; there is no reply channel.
func (s *Server) dispatchClientEvent(c echo.Context, raw []byte) {
	var envelope struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Event != domain.EventUpdateCharacter {
		return
	}

	var payload domain.UpdateCharacterPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil || payload.ID == "" {
		metrics.HubInboundUpdatesTotal.WithLabelValues("dropped").Inc()
		return
	}

	if _, err := s.app.UpdateCharacter(c.Request().Context(), payload.ID, payload.Data); err != nil {
		metrics.HubInboundUpdatesTotal.WithLabelValues("dropped").Inc()
		logging.WithCharacter(payload.ID).Info("Dropped client character update", "error", err)
		return
	}
	metrics.HubInboundUpdatesTotal.WithLabelValues("applied").Inc()
}
