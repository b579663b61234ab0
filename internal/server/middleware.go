package server

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/colin-cd72/cards/internal/domain"
	apperrors "github.com/colin-cd72/cards/internal/errors"
)

// requireAuth resolves the session to an active user and stores it in the
// request context under "user". Deactivated accounts are treated as logged
// out.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			return apperrors.UnauthorizedError("not authenticated")
		}

		userID, ok := session.Values[sessionKeyUserID].(int64)
		if !ok {
			return apperrors.UnauthorizedError("not authenticated")
		}

		user, err := s.users.GetByID(c.Request().Context(), userID)
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.UnauthorizedError("not authenticated")
		}
		if err != nil {
			return apperrors.InternalError("failed to load user", err).WithField("user_id", userID)
		}
		if !user.IsActive {
			return apperrors.UnauthorizedError("account deactivated")
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		return next(c)
	}
}

func (s *Server) requireProducer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := currentUser(c)
		if user == nil || !user.Role.CanProduce() {
			return apperrors.ForbiddenError("producer role required")
		}
		return next(c)
	}
}

func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := currentUser(c)
		if user == nil || user.Role != domain.RoleAdmin {
			return apperrors.ForbiddenError("admin role required")
		}
		return next(c)
	}
}

func currentUser(c echo.Context) *domain.User {
	user, _ := c.Get("user").(*domain.User)
	return user
}
