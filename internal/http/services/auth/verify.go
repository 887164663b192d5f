package auth

import (
	"context"
	"errors"
	"net/url"

	"github.com/justindh/ChingyWebApi/internal/directory/core"
	"github.com/justindh/ChingyWebApi/internal/flowstate"
	"github.com/justindh/ChingyWebApi/internal/observability/logger"
	"github.com/justindh/ChingyWebApi/internal/validation"
)

// FlowBlock es el terminal 503 recuperable: el cliente puede resolver el
// bloqueo siguiendo el redirect y reintentar.
type FlowBlock struct {
	Reason   string
	Redirect string
}

// VerifyResult es la respuesta feliz del chequeo de recurso protegido.
type VerifyResult struct {
	CharacterID int64  `json:"characterId"`
	Token       string `json:"token"`
}

// VerifyParams es la entrada del chequeo: la sesión autenticada más el
// personaje objetivo (0 usa el main de la sesión) y los scopes requeridos.
type VerifyParams struct {
	AccountID   string
	MainID      int64
	Audience    string
	CharacterID int64
	Scopes      string
}

// Verify comprueba que el bearer puede operar el personaje objetivo con los
// scopes pedidos. Devuelve exactamente uno de: resultado, bloqueo, error.
func (s *Service) Verify(ctx context.Context, p VerifyParams) (*VerifyResult, *FlowBlock, error) {
	targetID := p.CharacterID
	if targetID == 0 {
		targetID = p.MainID
	}

	ok, err := s.store.HasProfile(ctx, p.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrProfileNotFound
	}

	required, err := validation.RegisterScopes(p.Scopes)
	if err != nil {
		return nil, nil, err
	}

	character, err := s.store.GetCharacter(ctx, targetID)
	if errors.Is(err, core.ErrNotFound) {
		// 503, no 404: "andá al flujo de vinculación y reintentá".
		return nil, &FlowBlock{
			Reason:   "character_not_found",
			Redirect: s.cfg.BaseURL + "/v1/auth/character/add",
		}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if character.AccountID != p.AccountID {
		return nil, nil, ErrNotOwner
	}

	if deficit := validation.ComputeDeficit(required, validation.SplitScopes(character.HeldScopes())); deficit != nil {
		reauth := flowstate.FlowState{
			Aud:         p.Audience,
			Variant:     flowstate.FlowModifyScopes,
			Mode:        flowstate.ModeNone,
			Scopes:      deficit,
			AccountID:   p.AccountID,
			CharacterID: targetID,
		}
		token, err := s.codec.Encode(reauth)
		if err != nil {
			return nil, nil, err
		}
		logger.From(ctx).Info("verify: scope deficit",
			logger.AccountID(p.AccountID),
			logger.CharacterID(targetID),
			logger.Any("deficit", deficit),
		)
		return nil, &FlowBlock{
			Reason:   "missing_scopes",
			Redirect: s.cfg.BaseURL + "/v1/auth/scopes/modify?state=" + url.QueryEscape(token),
		}, nil
	}

	custom, err := s.issuer.IssueCustom(p.AccountID, targetID, s.cfg.CustomTokenTTL)
	if err != nil {
		return nil, nil, err
	}
	return &VerifyResult{CharacterID: targetID, Token: custom}, nil, nil
}
