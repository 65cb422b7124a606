package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/speak2see-backend/api/responses"
	pkgAuth "github.com/angelmondragon/speak2see-backend/pkg/auth"
	"github.com/angelmondragon/speak2see-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/speak2see-backend/pkg/errors"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the owner
// named by its subject.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			ownerID := claims.OwnerID()
			if ownerID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token has no subject"))
				return
			}

			ctx := WithOwnerID(r.Context(), ownerID)
			if logg != nil {
				ctx = logg.WithOwnerID(ctx, ownerID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
