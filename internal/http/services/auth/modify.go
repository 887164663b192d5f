package auth

import (
	"context"
	"errors"

	"github.com/justindh/ChingyWebApi/internal/directory/core"
	"github.com/justindh/ChingyWebApi/internal/eve"
	"github.com/justindh/ChingyWebApi/internal/flowstate"
	"github.com/justindh/ChingyWebApi/internal/observability/logger"
	"github.com/justindh/ChingyWebApi/internal/validation"
)

// StartModifyScopes re-deriva un pedido de scopes para un personaje ya
// vinculado y re-entra al flujo Register con el set mergeado y modo none.
// Este flujo nunca habla con el proveedor por sí mismo.
func (s *Service) StartModifyScopes(ctx context.Context, redirectTo, stateToken string) (string, error) {
	if redirectTo == "" {
		return "", ErrRedirectRequired
	}
	st, err := s.codec.Decode(stateToken)
	if err != nil {
		return "", err
	}

	character, err := s.store.GetCharacter(ctx, st.CharacterID)
	if errors.Is(err, core.ErrNotFound) {
		return "", ErrCharacterNotFound
	}
	if err != nil {
		return "", err
	}

	// Scopes vigentes del personaje (o los defaults si nunca autorizó nada)
	// más el déficit que trae el state.
	held := validation.SplitScopes(character.HeldScopes())
	if len(held) == 0 {
		held = append([]string(nil), validation.DefaultScopes...)
	}
	merged := held
	for _, sc := range st.Scopes {
		found := false
		for _, h := range merged {
			if h == sc {
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, sc)
		}
	}

	next := flowstate.FlowState{
		Aud:         st.Aud,
		Variant:     flowstate.FlowRegister,
		Mode:        flowstate.ModeNone,
		Scopes:      merged,
		RedirectTo:  redirectTo,
		AccountID:   character.AccountID,
		CharacterID: character.ID,
	}
	token, err := s.codec.Encode(next)
	if err != nil {
		return "", err
	}

	logger.From(ctx).Info("modify-scopes flow re-entering register",
		logger.AccountID(character.AccountID),
		logger.CharacterID(character.ID),
		logger.Any("scopes", merged),
	)
	return s.sso.AuthorizeURL(eve.ProfileRegister, merged, token), nil
}
