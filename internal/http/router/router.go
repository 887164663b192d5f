// Package router arma el árbol de rutas del broker sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apphttp "github.com/justindh/ChingyWebApi/internal/http"
	authctrl "github.com/justindh/ChingyWebApi/internal/http/controllers/auth"
	healthctrl "github.com/justindh/ChingyWebApi/internal/http/controllers/health"
	httperrors "github.com/justindh/ChingyWebApi/internal/http/errors"
	mw "github.com/justindh/ChingyWebApi/internal/http/middlewares"
	jwtx "github.com/justindh/ChingyWebApi/internal/jwt"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Auth   *authctrl.Controllers
	Health *healthctrl.Controller
	Issuer *jwtx.Issuer
	// Metrics es el handler de /metrics; nil lo deja sin exponer.
	Metrics http.Handler
	// CORSAllowedOrigins habilita CORS con credenciales si no está vacío.
	CORSAllowedOrigins []string
}

// New construye el handler raíz con la cadena global de middlewares.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Orden: recover primero, logging último (ve el request ya anotado).
	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithSecurityHeaders())
	if len(deps.CORSAllowedOrigins) > 0 {
		r.Use(mw.WithCORS(deps.CORSAllowedOrigins))
	}
	r.Use(apphttp.WithMetrics)
	r.Use(mw.WithLogging())

	r.Route("/v1/auth", func(r chi.Router) {
		// Legs de browser: nada de esto se cachea.
		r.Group(func(r chi.Router) {
			r.Use(mw.WithNoStore())

			r.Get("/login", deps.Auth.Login.Start)
			r.Get("/login/callback", deps.Auth.Login.Callback)
			r.Get("/register", deps.Auth.Register.Start)
			r.Get("/register/callback", deps.Auth.Register.Callback)
			r.Get("/scopes/modify", deps.Auth.Scopes.Modify)
			r.Get("/logout", deps.Auth.Logout.Logout)
		})

		// Endpoints que exigen artefacto de sesión vigente.
		r.Group(func(r chi.Router) {
			r.Use(mw.WithNoStore())
			r.Use(mw.RequireSession(deps.Issuer))

			r.Get("/character/add", deps.Auth.Register.AddCharacter)
			r.Get("/verify", deps.Auth.Verify.Verify)
		})
	})

	r.Get("/healthz", deps.Health.Health)
	r.Get("/readyz", deps.Health.Ready)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	return r
}
