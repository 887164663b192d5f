package middlewares

import (
	"net/http"
	"strings"

	"github.com/justindh/ChingyWebApi/internal/http/errors"
	"github.com/justindh/ChingyWebApi/internal/http/helpers"
	jwtx "github.com/justindh/ChingyWebApi/internal/jwt"
)

// sessionToken extrae el artefacto de sesión del request: primero la cookie
// profile_jwt, después Authorization: Bearer.
func sessionToken(r *http.Request) string {
	if ck, err := r.Cookie(helpers.SessionCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah != "" && strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return strings.TrimSpace(ah[len("Bearer "):])
	}
	return ""
}

// RequireSession valida el artefacto de sesión y guarda sus claims en el
// contexto. Si el token es inválido o no está presente, responde 401.
func RequireSession(issuer *jwtx.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := sessionToken(r)
			if raw == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="auth", error="invalid_token", error_description="missing session artifact"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}

			claims, err := issuer.ParseProfile(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="auth", error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), claims)))
		})
	}
}

// OptionalSession intenta validar la sesión pero NO falla si no está presente.
func OptionalSession(issuer *jwtx.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := sessionToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := issuer.ParseProfile(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), claims)))
		})
	}
}
