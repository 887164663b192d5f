package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	apphttp "github.com/justindh/ChingyWebApi/internal/http"
	httperrors "github.com/justindh/ChingyWebApi/internal/http/errors"
	"github.com/justindh/ChingyWebApi/internal/http/middlewares"
	svc "github.com/justindh/ChingyWebApi/internal/http/services/auth"
	"github.com/justindh/ChingyWebApi/internal/observability/logger"
)

// VerifyController maneja el chequeo de recurso protegido.
type VerifyController struct {
	service *svc.Service
}

// NewVerifyController crea un nuevo controller de verificación.
func NewVerifyController(service *svc.Service) *VerifyController {
	return &VerifyController{service: service}
}

// Verify maneja GET /v1/auth/verify. Corre detrás de RequireSession.
// Respuestas: 200 {characterId, token}, 503 {error, redirect} (bloqueo
// recuperable), 400/401 en el resto.
func (c *VerifyController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("VerifyController.Verify"))
	q := r.URL.Query()

	claims := middlewares.GetSession(ctx)
	if claims == nil {
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}

	var characterID int64
	if raw := q.Get("characterId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("characterId debe ser numérico"))
			return
		}
		characterID = id
	}

	res, block, err := c.service.Verify(ctx, svc.VerifyParams{
		AccountID:   claims.AccountID,
		MainID:      claims.MainID,
		Audience:    artifactAudience(claims),
		CharacterID: characterID,
		Scopes:      q.Get("scopes"),
	})
	if err != nil {
		log.Debug("verify failed", logger.Err(err), logger.AccountID(claims.AccountID))
		apphttp.RecordAuthFlow("verify", "error")
		// Acá el perfil ausente no es un problema de autenticación: la sesión
		// es válida pero apunta a un registro que ya no existe. 400, no 401.
		if errors.Is(err, svc.ErrProfileNotFound) {
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("la cuenta no tiene perfil"))
			return
		}
		writeFlowError(w, err)
		return
	}
	if block != nil {
		apphttp.RecordAuthFlow("verify", "blocked")
		httperrors.WriteFlowBlock(w, block.Reason, block.Redirect)
		return
	}

	apphttp.RecordAuthFlow("verify", "success")
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(res)
}
