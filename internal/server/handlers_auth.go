package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/colin-cd72/cards/internal/domain"
	apperrors "github.com/colin-cd72/cards/internal/errors"
	"github.com/colin-cd72/cards/internal/logging"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	LastLogin *time.Time  `json:"lastLogin,omitempty"`
}

func toUserResponse(user *domain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
	}
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.ValidationError("username and password are required")
	}

	ctx := c.Request().Context()

	user, err := s.users.GetByUsername(ctx, req.Username)
	if errors.Is(err, domain.ErrUserNotFound) {
		// Same response as a bad password, so usernames cannot be probed.
		return apperrors.UnauthorizedError("invalid credentials")
	}
	if err != nil {
		return apperrors.InternalError("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return apperrors.UnauthorizedError("invalid credentials").WithField("username", req.Username)
	}
	if !user.IsActive {
		return apperrors.UnauthorizedError("account deactivated").WithField("username", req.Username)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		// Login still succeeds; the timestamp is informational.
		slog.Warn("Failed to update last login", "user_id", user.ID, "error", err)
	}

	session, _ := s.sessionStore.Get(c.Request(), sessionName)
	session.Values[sessionKeyUserID] = user.ID
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}

	logging.WithUser(user.Username).Info("User logged in", "user_id", user.ID)

	if err := c.JSON(http.StatusOK, map[string]any{"success": true, "user": toUserResponse(user)}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLogout(c echo.Context) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Failed to get session during logout", "error", err)
		session, _ = s.sessionStore.New(c.Request(), sessionName)
	}
	session.Options.MaxAge = -1

	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to clear session", err)
	}

	if err := c.JSON(http.StatusOK, map[string]bool{"success": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleMe(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return apperrors.UnauthorizedError("not authenticated")
	}
	if err := c.JSON(http.StatusOK, map[string]any{"user": toUserResponse(user)}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
