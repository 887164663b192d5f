package middlewares

import (
	"context"

	jwtx "github.com/justindh/ChingyWebApi/internal/jwt"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	// ctxSessionKey guarda las claims del artefacto de sesión parseado
	ctxSessionKey ctxKey = "session"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithSession inyecta las claims de sesión en el contexto
func WithSession(ctx context.Context, claims *jwtx.ProfileClaims) context.Context {
	return context.WithValue(ctx, ctxSessionKey, claims)
}

// setRequestID inyecta el request ID en el contexto (interno)
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetSession obtiene las claims de sesión del contexto.
// Retorna nil si no hay sesión (middleware no aplicado o token inválido).
func GetSession(ctx context.Context) *jwtx.ProfileClaims {
	if v := ctx.Value(ctxSessionKey); v != nil {
		if c, ok := v.(*jwtx.ProfileClaims); ok {
			return c
		}
	}
	return nil
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
