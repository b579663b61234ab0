package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/colin-cd72/cards/internal/domain"
	apperrors "github.com/colin-cd72/cards/internal/errors"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 50
)

type createUserRequest struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type updateUserRequest struct {
	Username *string      `json:"username"`
	Email    *string      `json:"email"`
	Role     *domain.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
}

type updatePasswordRequest struct {
	Password string `json:"password"`
}

func validateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return apperrors.ValidationError("username is required")
	}
	if len(username) > maxUsernameLength {
		return apperrors.ValidationError(fmt.Sprintf("username exceeds %d characters", maxUsernameLength))
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.ValidationError("invalid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.ValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

func (s *Server) handleListUsers(c echo.Context) error {
	users, err := s.users.List(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list users", err)
	}

	responses := make([]userResponse, 0, len(users))
	for i := range users {
		responses = append(responses, toUserResponse(&users[i]))
	}

	if err := c.JSON(http.StatusOK, map[string]any{"users": responses}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := validateUsername(req.Username); err != nil {
		return err
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}
	if !domain.ValidRole(req.Role) {
		return apperrors.ValidationError("role must be admin, producer, or viewer")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.InternalError("failed to hash password", err)
	}

	id, err := s.users.Create(c.Request().Context(), req.Username, req.Email, string(hash), req.Role)
	if errors.Is(err, domain.ErrUsernameTaken) {
		return apperrors.ConflictError("username already taken").WithField("username", req.Username)
	}
	if err != nil {
		return apperrors.InternalError("failed to create user", err)
	}

	if err := c.JSON(http.StatusCreated, map[string]any{"success": true, "userId": id}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUpdateUser(c echo.Context) error {
	admin := currentUser(c)

	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Username != nil {
		if err := validateUsername(*req.Username); err != nil {
			return err
		}
	}
	if req.Email != nil {
		if err := validateEmail(*req.Email); err != nil {
			return err
		}
	}
	if req.Role != nil && !domain.ValidRole(*req.Role) {
		return apperrors.ValidationError("role must be admin, producer, or viewer")
	}

	// An admin demoting or deactivating themselves would lock the instance.
	if id == admin.ID {
		if req.Role != nil && *req.Role != domain.RoleAdmin {
			return apperrors.ValidationError("cannot change your own role")
		}
		if req.IsActive != nil && !*req.IsActive {
			return apperrors.ValidationError("cannot deactivate your own account")
		}
	}

	update := domain.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
		IsActive: req.IsActive,
	}
	err = s.users.Update(c.Request().Context(), id, update)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("user not found").WithField("target_user_id", id)
	}
	if errors.Is(err, domain.ErrUsernameTaken) {
		return apperrors.ConflictError("username already taken")
	}
	if err != nil {
		return apperrors.InternalError("failed to update user", err).WithField("target_user_id", id)
	}

	if err := c.JSON(http.StatusOK, map[string]bool{"success": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUpdateUserPassword(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.InternalError("failed to hash password", err)
	}

	err = s.users.UpdatePassword(c.Request().Context(), id, string(hash))
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("user not found").WithField("target_user_id", id)
	}
	if err != nil {
		return apperrors.InternalError("failed to update password", err).WithField("target_user_id", id)
	}

	if err := c.JSON(http.StatusOK, map[string]bool{"success": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	admin := currentUser(c)

	id, err := pathID(c)
	if err != nil {
		return err
	}
	if id == admin.ID {
		return apperrors.ValidationError("cannot delete your own account")
	}

	err = s.users.Delete(c.Request().Context(), id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("user not found").WithField("target_user_id", id)
	}
	if err != nil {
		return apperrors.InternalError("failed to delete user", err).WithField("target_user_id", id)
	}

	if err := c.JSON(http.StatusOK, map[string]bool{"success": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
