package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"calsync/core/controller"
	"calsync/core/errors"
	"calsync/core/utils"
)

const userContextKey = "session_user"

type Middleware struct{}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

// AuthMiddleware rejects requests without a valid session before they reach
// the integration subsystem.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return controller.NewErrorResponse(http.StatusUnauthorized, errors.ErrMissingAuthorizationHeader, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				return controller.NewErrorResponse(http.StatusUnauthorized, errors.ErrInvalidTokenFormat, "authorization header must be a bearer token")
			}

			tokenData, err := utils.ValidateAndParseToken(parts[1])
			if err != nil {
				return controller.NewErrorResponse(http.StatusUnauthorized, errors.ErrUnauthorized, "invalid or expired session token")
			}

			c.Set(userContextKey, tokenData)
			return next(c)
		}
	}
}

// GetUser returns the request principal set by AuthMiddleware.
func GetUser(c echo.Context) (*utils.TokenData, error) {
	data, ok := c.Get(userContextKey).(*utils.TokenData)
	if !ok || data == nil {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "no session principal on request", nil)
	}
	return data, nil
}

// GetUserID is GetUser for handlers that only need the id.
func GetUserID(c echo.Context) (uuid.UUID, error) {
	data, err := GetUser(c)
	if err != nil {
		return uuid.Nil, err
	}
	return data.UserID, nil
}
