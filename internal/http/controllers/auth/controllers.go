// Package auth contiene los controllers HTTP del broker de autenticación.
package auth

import (
	"errors"
	"net/http"

	"github.com/justindh/ChingyWebApi/internal/flowstate"
	httperrors "github.com/justindh/ChingyWebApi/internal/http/errors"
	svc "github.com/justindh/ChingyWebApi/internal/http/services/auth"
	jwtx "github.com/justindh/ChingyWebApi/internal/jwt"
	"github.com/justindh/ChingyWebApi/internal/validation"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Login    *LoginController
	Register *RegisterController
	Scopes   *ScopesController
	Verify   *VerifyController
	Logout   *LogoutController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s *svc.Service) *Controllers {
	return &Controllers{
		Login:    NewLoginController(s),
		Register: NewRegisterController(s),
		Scopes:   NewScopesController(s),
		Verify:   NewVerifyController(s),
		Logout:   NewLogoutController(s),
	}
}

// ─── Helpers ───

// startParams arma los parámetros de entrada comunes. La audiencia es el host
// que recibió el request, nunca un parámetro del caller.
func startParams(r *http.Request) svc.StartParams {
	q := r.URL.Query()
	return svc.StartParams{
		Audience:     r.Host,
		RedirectTo:   q.Get("redirect_to"),
		ResponseMode: q.Get("response_type"),
		Scopes:       q.Get("scopes"),
	}
}

// applyRedirect materializa un terminal de browser: cookie (si hay) y 302.
func applyRedirect(w http.ResponseWriter, r *http.Request, red svc.Redirect) {
	if red.Cookie != nil {
		http.SetCookie(w, red.Cookie)
	}
	http.Redirect(w, r, red.Location, http.StatusFound)
}

// artifactAudience devuelve la audiencia del artefacto de sesión (single-aud).
func artifactAudience(claims *jwtx.ProfileClaims) string {
	if len(claims.Audience) == 0 {
		return ""
	}
	return claims.Audience[0]
}

// writeFlowError mapea errores de negocio del orquestador a AppErrors.
func writeFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrRedirectRequired):
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("redirect_to es obligatorio"))

	case errors.Is(err, svc.ErrInvalidResponseMode):
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("response_type debe ser none|token|persistent|session"))

	case errors.Is(err, validation.ErrScopesRequired):
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("scopes es obligatorio"))

	case errors.Is(err, validation.ErrUnknownScope):
		httperrors.WriteError(w, httperrors.ErrUnknownScope)

	case errors.Is(err, flowstate.ErrDecode):
		httperrors.WriteError(w, httperrors.ErrInvalidState)

	case errors.Is(err, svc.ErrAudienceMismatch):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("la audiencia del artefacto no coincide con el host"))

	case errors.Is(err, svc.ErrProfileNotFound):
		// Sólo add-character pasa por acá; verify lo trata como 400 antes
		// de llegar a este mapeo.
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("la cuenta no tiene perfil"))

	case errors.Is(err, svc.ErrNotOwner):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("el personaje no pertenece a la cuenta"))

	case errors.Is(err, svc.ErrCharacterNotFound):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("personaje desconocido"))

	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
