package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/colin-cd72/cards/internal/domain"
	apperrors "github.com/colin-cd72/cards/internal/errors"
)

func validSettingKey(key string) bool {
	return key == domain.SettingCardStyle || key == domain.SettingOutputSettings
}

func (s *Server) handleListSettings(c echo.Context) error {
	settings, err := s.settings.List(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list settings", err)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"settings": settings}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetSetting(c echo.Context) error {
	key := c.Param("key")
	if !validSettingKey(key) {
		return apperrors.NotFoundError("unknown setting").WithField("key", key)
	}

	setting, err := s.settings.Get(c.Request().Context(), key)
	if errors.Is(err, domain.ErrSettingNotFound) {
		return apperrors.NotFoundError("setting not found").WithField("key", key)
	}
	if err != nil {
		return apperrors.InternalError("failed to load setting", err).WithField("key", key)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"setting": setting}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleUpdateSetting persists the new value, then pushes a settings:update
// event so every connected display and producer applies it without reloading.
func (s *Server) handleUpdateSetting(c echo.Context) error {
	key := c.Param("key")
	if !validSettingKey(key) {
		return apperrors.NotFoundError("unknown setting").WithField("key", key)
	}

	var value json.RawMessage
	if err := c.Bind(&value); err != nil || len(value) == 0 {
		return apperrors.ValidationError("request body must be a JSON value")
	}

	if err := s.settings.Upsert(c.Request().Context(), key, value); err != nil {
		return apperrors.InternalError("failed to save setting", err).WithField("key", key)
	}

	s.coordinator.BroadcastSettings(key, value)

	if err := c.JSON(http.StatusOK, map[string]bool{"success": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handlePublicSettings is unauthenticated: output displays need their render
// settings before anyone logs in.
func (s *Server) handlePublicSettings(c echo.Context) error {
	setting, err := s.settings.Get(c.Request().Context(), domain.SettingOutputSettings)
	if errors.Is(err, domain.ErrSettingNotFound) {
		return apperrors.NotFoundError("output settings not configured")
	}
	if err != nil {
		return apperrors.InternalError("failed to load output settings", err)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"settings": setting.Value}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
