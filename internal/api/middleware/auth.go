package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nicbou/homeserver/internal/config"
	"github.com/nicbou/homeserver/internal/utils"
	"github.com/rs/zerolog/log"
)

type contextKey string

const userContextKey contextKey = "user"

// Auth rejects requests without a valid bearer token. A homeserver on a
// trusted network can switch authentication off with admin.disable_auth.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := config.Get()
		if cfg != nil && cfg.Admin.DisableAuth {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			unauthorized(w, "Missing or malformed authorization header")
			return
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected API token")
			unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error": %q}`, message)
}

// GetUserFromContext returns the token claims stored by Auth, or nil.
func GetUserFromContext(ctx context.Context) *utils.JWTClaims {
	claims, _ := ctx.Value(userContextKey).(*utils.JWTClaims)
	return claims
}
