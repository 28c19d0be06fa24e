package auth

import (
	"context"
	"net/http"

	"github.com/isdelr/todo-api-be/internal/models"
	"github.com/rs/zerolog/log"
)

// TokenHeader is the request header carrying the auth token.
const TokenHeader = "x-auth"

// TokenResolver resolves a presented token string to the user it belongs
// to. It must reject tokens that verify structurally but are no longer on
// record (revoked sessions).
type TokenResolver interface {
	FindByToken(token string) (models.User, error)
}

type contextKey string

const (
	userContextKey  = contextKey("authUser")
	tokenContextKey = contextKey("authToken")
)

// Middleware creates a middleware for protecting routes. Requests without
// a resolvable token are rejected with 401 and an empty body; the reason
// is never disclosed to the client.
func Middleware(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)
			if token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			user, err := resolver.FindByToken(token)
			if err != nil {
				log.Warn().Str("path", r.URL.Path).Msg("Rejected request with unresolvable token")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user attached by Middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// TokenFromContext returns the raw token the request authenticated with.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}
