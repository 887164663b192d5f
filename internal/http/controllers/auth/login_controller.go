package auth

import (
	"net/http"

	apphttp "github.com/justindh/ChingyWebApi/internal/http"
	svc "github.com/justindh/ChingyWebApi/internal/http/services/auth"
	"github.com/justindh/ChingyWebApi/internal/observability/logger"
)

// LoginController maneja la entrada y el callback del flujo de login.
type LoginController struct {
	service *svc.Service
}

// NewLoginController crea un nuevo controller de login.
func NewLoginController(service *svc.Service) *LoginController {
	return &LoginController{service: service}
}

// Start maneja GET /v1/auth/login: valida parámetros y manda el browser al
// proveedor con el state cifrado.
func (c *LoginController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Start"))

	loc, err := c.service.StartLogin(ctx, startParams(r))
	if err != nil {
		log.Debug("login start rejected", logger.Err(err))
		apphttp.RecordAuthFlow("login", "error")
		writeFlowError(w, err)
		return
	}
	http.Redirect(w, r, loc, http.StatusFound)
}

// Callback maneja GET /v1/auth/login/callback: la vuelta del proveedor.
func (c *LoginController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Callback"))
	q := r.URL.Query()

	// El proveedor puede volver con error= en vez de code= (denegación,
	// expiración). Eso va a la página de error de la SPA, no a un 4xx propio.
	if provErr := q.Get("error"); provErr != "" {
		log.Warn("provider returned error", logger.String("provider_error", provErr))
		apphttp.RecordAuthFlow("login", "error")
		applyRedirect(w, r, c.service.ProviderFailure(provErr, q.Get("error_description"), q.Get("state")))
		return
	}

	red, err := c.service.HandleLoginCallback(ctx, q.Get("code"), q.Get("state"))
	if err != nil {
		log.Debug("login callback failed", logger.Err(err))
		apphttp.RecordAuthFlow("login", "error")
		writeFlowError(w, err)
		return
	}

	result := "success"
	if red.Blocked != "" {
		result = "blocked"
	}
	apphttp.RecordAuthFlow("login", result)
	applyRedirect(w, r, red)
}
