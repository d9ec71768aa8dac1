// Package auth resolves the caller identity that check-out and check-in compare
// lock holders against.
package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/config"
	"github.com/tansive/assetvault/internal/common/httpx"
)

const (
	authHeaderPrefix = "Bearer "
	genericAuthError = "authentication failed"
)

// IdentityMiddleware puts the caller identity in the request context. In "none"
// mode no identity is set and handlers fall back to the requester named in the
// request body.
func IdentityMiddleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := log.Ctx(ctx)

			switch cfg.Mode {
			case "header":
				identity := strings.TrimSpace(r.Header.Get(cfg.Header))
				if identity == "" {
					logger.Debug().Str("header", cfg.Header).Msg("missing identity header")
					httpx.ErrUnAuthorized(genericAuthError).Send(w)
					return
				}
				ctx = WithIdentity(ctx, identity)
			case "jwt":
				authHeader := r.Header.Get("Authorization")
				if !strings.HasPrefix(authHeader, authHeaderPrefix) {
					logger.Debug().Msg("missing or malformed authorization header")
					httpx.ErrUnAuthorized(genericAuthError).Send(w)
					return
				}
				token := strings.TrimSpace(strings.TrimPrefix(authHeader, authHeaderPrefix))
				identity, err := ParseToken([]byte(cfg.JWTSecret), token)
				if err != nil {
					logger.Error().Err(err).Msg("token validation failed")
					httpx.ErrUnAuthorized(genericAuthError).Send(w)
					return
				}
				ctx = WithIdentity(ctx, identity)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
