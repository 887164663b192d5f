package auth

import (
	"net/http"

	apphttp "github.com/justindh/ChingyWebApi/internal/http"
	svc "github.com/justindh/ChingyWebApi/internal/http/services/auth"
	"github.com/justindh/ChingyWebApi/internal/observability/logger"
)

// ScopesController maneja la re-autorización por déficit de scopes.
type ScopesController struct {
	service *svc.Service
}

// NewScopesController crea un nuevo controller de modificación de scopes.
func NewScopesController(service *svc.Service) *ScopesController {
	return &ScopesController{service: service}
}

// Modify maneja GET /v1/auth/scopes/modify: toma el state re-cifrado que dejó
// un déficit previo y re-entra al flujo register con el set mergeado.
func (c *ScopesController) Modify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ScopesController.Modify"))
	q := r.URL.Query()

	loc, err := c.service.StartModifyScopes(ctx, q.Get("redirect_to"), q.Get("state"))
	if err != nil {
		log.Debug("modify-scopes rejected", logger.Err(err))
		apphttp.RecordAuthFlow("modifyScopes", "error")
		writeFlowError(w, err)
		return
	}
	http.Redirect(w, r, loc, http.StatusFound)
}
