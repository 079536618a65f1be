package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	deliverycontext "attrschema/internal/delivery/context"
	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/service"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// AuthMiddleware turns a bearer token into the actor of the request.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	logger   *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, logger: logger}
}

// Authenticate rejects requests without a valid bearer token and attaches
// the token subject and capabilities as the request actor.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "authorization header is missing")
		}
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token format, must be Bearer token")
		}

		claims, err := m.tokenSvc.ValidateToken(strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
				Debug("Rejected bearer token", slog.Any("error", err))

			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		if claims.Subject == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "token subject is missing")
		}

		deliverycontext.SetActor(c, entity.Actor{
			ID:           claims.Subject,
			Capabilities: claims.Capabilities,
			Origin:       c.RealIP(),
		})

		return next(c)
	}
}

// RequireCapability rejects authenticated actors lacking capability.
// It must be used AFTER Authenticate.
func (m *AuthMiddleware) RequireCapability(capability string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !deliverycontext.GetActor(c).Can(capability) {
				return echo.NewHTTPError(http.StatusForbidden, "missing capability "+capability)
			}

			return next(c)
		}
	}
}
