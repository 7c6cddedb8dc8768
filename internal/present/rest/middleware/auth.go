package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/line-ec-lea/influ-discord-bot/internal/domain"
	"github.com/line-ec-lea/influ-discord-bot/internal/present/rest/presenter"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	config domain.Config
}

func NewAuthMiddleware(config domain.Config) *AuthMiddleware {
	return &AuthMiddleware{
		config: config,
	}
}

// VerifyHookSecret rejects webhook deliveries that do not carry the shared
// secret, either as a Bearer token or a token query parameter. When no secret
// is configured every delivery is accepted.
func (s *AuthMiddleware) VerifyHookSecret(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.config.HookSecret == "" {
			return next(c)
		}

		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.VerifyHookSecret")
		defer span.End()
		c.SetRequest(c.Request().WithContext(ctx))

		presented := c.QueryParam("token")

		authHeader := c.Request().Header.Get("authorization")
		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) != 2 || split[0] != "Bearer" {
				span.RecordError(errors.New("invalid authentication header"))
				return presenter.Unauthorized(c, "invalid authentication header")
			}
			presented = split[1]
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(s.config.HookSecret)) != 1 {
			span.RecordError(errors.New("hook secret mismatch"))
			return presenter.Unauthorized(c, "invalid hook secret")
		}

		return next(c)
	}
}
