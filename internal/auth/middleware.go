package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	apperrors "clouddisk/internal/errors"
	"clouddisk/internal/repository"
)

// Context keys set by Middleware for downstream handlers.
const (
	ContextUsernameKey = "username"
	ContextUserIDKey   = "userID"
	ContextClaimsKey   = "claims"
)

// Middleware gates authenticated routes. Each step is a hard gate, in
// order: bearer extraction, token verification, revocation check, account
// lookup and account-expiry re-check. The resolved identity (never the
// password hash) is attached to the request context.
//
// Account expiry is re-checked here on every request, so a token minted
// before a suspension dies with the account instead of outliving it.
func Middleware(tokens *JWTService, revoked RevocationListInterface, users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := extractBearer(c)
			if tokenString == "" {
				return apperrors.ErrInvalidToken
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				return apperrors.ErrInvalidToken
			}

			isRevoked, err := revoked.IsRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				return err
			}
			if isRevoked {
				return apperrors.ErrInvalidToken
			}

			user, err := users.FindByUsername(c.Request().Context(), claims.Username)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// Subject vanished after the token was minted.
					return apperrors.ErrInvalidToken
				}
				return err
			}

			if user.Expired(time.Now()) {
				return apperrors.ErrAccountExpired
			}

			c.Set(ContextUsernameKey, user.Username)
			c.Set(ContextUserIDKey, user.ID)
			c.Set(ContextClaimsKey, claims)
			return next(c)
		}
	}
}

func extractBearer(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
