package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Omakidx/link6ync/internal/auth"
	"github.com/Omakidx/link6ync/internal/repository"
)

const principalKey = "principal"

// Principal is the authenticated identity threaded to handlers. Handlers
// consume it explicitly via PrincipalFrom instead of digging claims out of
// the request.
type Principal struct {
	ID               uuid.UUID
	Email            string
	Name             string
	Role             string
	IsEmailVerified  bool
	TwoFactorEnabled bool
	IsOAuthUser      bool
}

// LoadPrincipal turns verified access token claims into a Principal. It
// reloads the account and rejects tokens whose embedded tokenVersion no
// longer matches, so a password reset revokes sessions immediately.
func LoadPrincipal(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get("user").(*auth.Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			id, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			user, err := userRepo.FindByID(c.Request().Context(), id)
			if err != nil || user.TokenVersion != claims.TokenVersion {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			c.Set(principalKey, Principal{
				ID:               user.ID,
				Email:            user.Email,
				Name:             user.Name,
				Role:             user.Role,
				IsEmailVerified:  user.IsEmailVerified,
				TwoFactorEnabled: user.TwoFactorEnabled,
				IsOAuthUser:      user.IsOAuthUser,
			})
			return next(c)
		}
	}
}

// PrincipalFrom returns the authenticated principal set by LoadPrincipal.
func PrincipalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}

// RequireRole gates a route on the principal's role.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			if p.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
			}
			return next(c)
		}
	}
}
