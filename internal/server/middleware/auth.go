package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/evalia-ai/evalia/internal/auth"
	"github.com/evalia-ai/evalia/internal/server/response"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/logging"
)

// Authenticator resolves session tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*competitions.User, *auth.Claims, error)
}

// Auth resolves the bearer token of a request to its user. Requests
// without a token continue anonymously and the operations they reach
// decide whether a session is required; a token that does not resolve is
// rejected with 401.
func Auth(authn Authenticator, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, claims, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Msg("Authentication failed")
				response.ErrorFromType(w, err)
				return
			}

			ctx := auth.WithUser(r.Context(), user, claims)
			ctx = logging.WithUser(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the session token of a request. Browsers cannot set
// headers on WebSocket and EventSource requests, so the token query
// parameter is accepted too.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
