package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unifreelancer/academy/internal/infrastructure/auth"
)

// ValidateTokenOption ...
type ValidateTokenOption struct {
	InBlackList func(ctx context.Context, token string) (bool, error)
	// Unauthorized renders the 401 response
	Unauthorized func(c echo.Context, reason string) error
}

// VerifyToken validate JWT
func VerifyToken(ju *auth.JWTUtil, options ...*ValidateTokenOption) echo.MiddlewareFunc {
	custom := &ValidateTokenOption{
		InBlackList: func(context.Context, string) (bool, error) { return false, nil },
		Unauthorized: func(c echo.Context, reason string) error {
			return c.NoContent(http.StatusUnauthorized)
		},
	}
	if len(options) > 0 {
		option := options[0]
		if option.InBlackList != nil {
			custom.InBlackList = option.InBlackList
		}
		if option.Unauthorized != nil {
			custom.Unauthorized = option.Unauthorized
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := ju.ExtractToken(c)
			if err != nil {
				return custom.Unauthorized(c, "missing token")
			}

			if ok, err := custom.InBlackList(c.Request().Context(), tokenStr); err != nil {
				return err
			} else if ok {
				return custom.Unauthorized(c, "token revoked")
			}

			token, err := ju.Validate(tokenStr)
			if err != nil {
				return custom.Unauthorized(c, "invalid token")
			}
			ju.SetContextToken(c, token)
			return next(c)
		}
	}
}
