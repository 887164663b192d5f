package auth

import (
	"net/http"

	apphttp "github.com/justindh/ChingyWebApi/internal/http"
	httperrors "github.com/justindh/ChingyWebApi/internal/http/errors"
	"github.com/justindh/ChingyWebApi/internal/http/middlewares"
	svc "github.com/justindh/ChingyWebApi/internal/http/services/auth"
	"github.com/justindh/ChingyWebApi/internal/observability/logger"
)

// RegisterController maneja el flujo de registro, el de vincular personaje
// extra y el callback compartido de ambos.
type RegisterController struct {
	service *svc.Service
}

// NewRegisterController crea un nuevo controller de registro.
func NewRegisterController(service *svc.Service) *RegisterController {
	return &RegisterController{service: service}
}

// Start maneja GET /v1/auth/register.
func (c *RegisterController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Start"))

	loc, err := c.service.StartRegister(ctx, startParams(r))
	if err != nil {
		log.Debug("register start rejected", logger.Err(err))
		apphttp.RecordAuthFlow("register", "error")
		writeFlowError(w, err)
		return
	}
	http.Redirect(w, r, loc, http.StatusFound)
}

// AddCharacter maneja GET /v1/auth/character/add. Corre detrás de
// RequireSession: el bearer ya está validado y sus claims viven en contexto.
func (c *RegisterController) AddCharacter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.AddCharacter"))

	claims := middlewares.GetSession(ctx)
	if claims == nil {
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}

	loc, err := c.service.StartAddCharacter(ctx, claims.AccountID, artifactAudience(claims), startParams(r))
	if err != nil {
		log.Debug("add-character start rejected", logger.Err(err), logger.AccountID(claims.AccountID))
		apphttp.RecordAuthFlow("addCharacter", "error")
		writeFlowError(w, err)
		return
	}
	http.Redirect(w, r, loc, http.StatusFound)
}

// Callback maneja GET /v1/auth/register/callback. Atiende las vueltas de
// register y addCharacter; la rama se decide por la variante del state.
func (c *RegisterController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Callback"))
	q := r.URL.Query()

	if provErr := q.Get("error"); provErr != "" {
		log.Warn("provider returned error", logger.String("provider_error", provErr))
		apphttp.RecordAuthFlow("register", "error")
		applyRedirect(w, r, c.service.ProviderFailure(provErr, q.Get("error_description"), q.Get("state")))
		return
	}

	red, err := c.service.HandleRegisterCallback(ctx, q.Get("code"), q.Get("state"))
	if err != nil {
		log.Debug("register callback failed", logger.Err(err))
		apphttp.RecordAuthFlow("register", "error")
		writeFlowError(w, err)
		return
	}

	result := "success"
	if red.Blocked != "" {
		result = "blocked"
	}
	apphttp.RecordAuthFlow("register", result)
	applyRedirect(w, r, red)
}
