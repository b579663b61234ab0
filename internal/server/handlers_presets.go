package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/colin-cd72/cards/internal/domain"
	apperrors "github.com/colin-cd72/cards/internal/errors"
	"github.com/colin-cd72/cards/internal/sanitize"
)

type presetRequest struct {
	PresetNumber int             `json:"preset_number"`
	Subject      string          `json:"subject"`
	HeaderText   string          `json:"header_text"`
	BodyContent  json.RawMessage `json:"body_content"`
	BodyHTML     string          `json:"body_html"`
	BadgeNumber  string          `json:"badge_number"`
	IsGlobal     bool            `json:"is_global"`
}

func (r *presetRequest) validate() error {
	if r.PresetNumber <= 0 {
		return apperrors.ValidationError("preset_number must be positive")
	}
	if strings.TrimSpace(r.Subject) == "" {
		return apperrors.ValidationError("subject is required")
	}
	if len(r.HeaderText) > maxHeaderTextLength {
		return apperrors.ValidationError(fmt.Sprintf("header_text exceeds %d characters", maxHeaderTextLength))
	}
	if len(r.BadgeNumber) > maxBadgeNumberLength {
		return apperrors.ValidationError(fmt.Sprintf("badge_number exceeds %d characters", maxBadgeNumberLength))
	}
	return nil
}

func (r *presetRequest) toDraft() domain.PresetDraft {
	return domain.PresetDraft{
		PresetNumber: r.PresetNumber,
		Subject:      r.Subject,
		HeaderText:   r.HeaderText,
		BodyContent:  r.BodyContent,
		BodyHTML:     sanitize.BodyHTML(r.BodyHTML),
		BadgeNumber:  r.BadgeNumber,
		IsGlobal:     r.IsGlobal,
	}
}

func (s *Server) handleListPresets(c echo.Context) error {
	user := currentUser(c)

	presets, err := s.presets.ListForUser(c.Request().Context(), user.ID)
	if err != nil {
		return apperrors.InternalError("failed to list presets", err)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"presets": presets}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSearchPresets(c echo.Context) error {
	user := currentUser(c)

	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return apperrors.ValidationError("query parameter q is required")
	}

	presets, err := s.presets.Search(c.Request().Context(), user.ID, query)
	if err != nil {
		return apperrors.InternalError("failed to search presets", err)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"presets": presets}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetPreset(c echo.Context) error {
	user := currentUser(c)

	id, err := pathID(c)
	if err != nil {
		return err
	}

	preset, err := s.presets.GetByID(c.Request().Context(), id)
	if errors.Is(err, domain.ErrPresetNotFound) {
		return apperrors.NotFoundError("preset not found").WithField("preset_id", id)
	}
	if err != nil {
		return apperrors.InternalError("failed to load preset", err).WithField("preset_id", id)
	}

	// Private presets are visible to their owner and admins only.
	if !preset.IsGlobal && preset.UserID != user.ID && user.Role != domain.RoleAdmin {
		return apperrors.NotFoundError("preset not found").WithField("preset_id", id)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"preset": preset}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCreatePreset(c echo.Context) error {
	user := currentUser(c)

	var req presetRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}
	if req.IsGlobal && user.Role != domain.RoleAdmin {
		return apperrors.ForbiddenError("only admins may create global presets")
	}

	id, err := s.presets.Create(c.Request().Context(), user.ID, req.toDraft())
	if err != nil {
		return apperrors.InternalError("failed to create preset", err)
	}

	if err := c.JSON(http.StatusCreated, map[string]any{"success": true, "presetId": id}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUpdatePreset(c echo.Context) error {
	user := currentUser(c)
	ctx := c.Request().Context()

	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req presetRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	preset, err := s.loadOwnedPreset(ctx, user, id)
	if err != nil {
		return err
	}
	if req.IsGlobal != preset.IsGlobal && user.Role != domain.RoleAdmin {
		return apperrors.ForbiddenError("only admins may change preset visibility")
	}

	if err := s.presets.Update(ctx, id, req.toDraft()); err != nil {
		return apperrors.InternalError("failed to update preset", err).WithField("preset_id", id)
	}

	if err := c.JSON(http.StatusOK, map[string]bool{"success": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeletePreset(c echo.Context) error {
	user := currentUser(c)
	ctx := c.Request().Context()

	id, err := pathID(c)
	if err != nil {
		return err
	}

	if _, err := s.loadOwnedPreset(ctx, user, id); err != nil {
		return err
	}

	if err := s.presets.Delete(ctx, id); err != nil {
		return apperrors.InternalError("failed to delete preset", err).WithField("preset_id", id)
	}

	if err := c.JSON(http.StatusOK, map[string]bool{"success": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// loadOwnedPreset fetches a preset and checks the user may modify it: owners
// manage their own presets, admins manage everything including globals.
func (s *Server) loadOwnedPreset(ctx context.Context, user *domain.User, id int64) (*domain.Preset, error) {
	preset, err := s.presets.GetByID(ctx, id)
	if errors.Is(err, domain.ErrPresetNotFound) {
		return nil, apperrors.NotFoundError("preset not found").WithField("preset_id", id)
	}
	if err != nil {
		return nil, apperrors.InternalError("failed to load preset", err).WithField("preset_id", id)
	}

	if user.Role == domain.RoleAdmin {
		return preset, nil
	}
	if preset.IsGlobal || preset.UserID != user.ID {
		return nil, apperrors.ForbiddenError("preset belongs to another user").WithField("preset_id", id)
	}
	return preset, nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError("invalid id").WithField("id", c.Param("id"))
	}
	return id, nil
}
